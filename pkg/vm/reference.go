package vm

import "fmt"

// ReferenceKind tags which variant of Reference a value holds.
type ReferenceKind uint8

const (
	RefNull ReferenceKind = iota
	RefArray
	RefInterface
	RefObject
)

// Reference is the sum type backing every non-primitive Value: Null,
// Array, Interface, or Object, each of the latter three carrying a shared
// Monitor (see §5 of the design notes this grew from: "every non-null
// reference carries a shared monitor").
type Reference struct {
	Kind      ReferenceKind
	Array     *Array
	Interface *Class
	Object    *Object
	Monitor   *Monitor
}

func NullReference() *Reference {
	return &Reference{Kind: RefNull}
}

func NewArrayReference(a *Array) *Reference {
	return &Reference{Kind: RefArray, Array: a, Monitor: NewMonitor()}
}

func NewInterfaceReference(c *Class) *Reference {
	return &Reference{Kind: RefInterface, Interface: c, Monitor: NewMonitor()}
}

func NewObjectReference(o *Object) *Reference {
	return &Reference{Kind: RefObject, Object: o, Monitor: NewMonitor()}
}

func (r *Reference) IsNull() bool {
	return r == nil || r.Kind == RefNull
}

// ToArray downcasts to an Array, succeeding only for RefArray (or treating
// RefNull specially, as the source's "only valid from Reference::Null, else
// an Illegal*Cast* error" convention requires the caller to check IsNull
// first).
func (r *Reference) ToArray() (*Array, error) {
	if r.Kind != RefArray {
		return nil, fmt.Errorf("IllegalArrayCast: reference is not an array (kind=%d)", r.Kind)
	}
	return r.Array, nil
}

func (r *Reference) ToInterface() (*Class, error) {
	if r.Kind != RefInterface {
		return nil, fmt.Errorf("IllegalInterfaceCast: reference is not an interface instance (kind=%d)", r.Kind)
	}
	return r.Interface, nil
}

func (r *Reference) ToObject() (*Object, error) {
	if r.Kind != RefObject {
		return nil, fmt.Errorf("IllegalObjectCast: reference is not an object (kind=%d)", r.Kind)
	}
	return r.Object, nil
}

// ClassName returns the runtime class name the reference describes, for
// subtype tests and error messages.
func (r *Reference) ClassName() string {
	switch r.Kind {
	case RefObject:
		return r.Object.Class.Name()
	case RefInterface:
		return r.Interface.Name()
	case RefArray:
		return r.Array.Descriptor()
	default:
		return "null"
	}
}
