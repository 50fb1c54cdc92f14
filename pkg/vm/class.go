package vm

import (
	"fmt"

	"github.com/sago35/hotspotlite/pkg/classfile"
)

// Class is the polymorphic capability bundle every loaded class satisfies:
// statics storage plus enough structural identity (name, super, interfaces,
// access flags, the underlying ClassFile) for linking and method
// resolution. CustomClass is the only concrete variant this package
// provides; bespoke JDK classes that need host-side behavior (System,
// String, StringBuilder) are still CustomClass values, built by
// NewNativeClass with no ClassFile at all (see nativeClassStubs in
// classregistry.go) — their methods exist only as handlers in the registry
// in native.go, not as method_info entries or Code attributes.
type Class interface {
	Name() string
	SuperName() string
	InterfaceNames() []string
	IsInterface() bool
	AccessFlags() uint16
	ClassFile() *classfile.ClassFile
	GetStatic(name, descriptor string) (Value, bool)
	PutStatic(name, descriptor string, v Value)
	Initialized() bool
	MarkInitialized()
}

type fieldKey struct {
	name       string
	descriptor string
}

// CustomClass is field-map-backed Class implementation: every loaded class
// in this core is one of these, whether or not it happens to also carry
// native methods.
type CustomClass struct {
	cf          *classfile.ClassFile
	name        string
	superName   string
	interfaces  []string
	statics     map[fieldKey]Value
	initialized bool
}

func NewCustomClass(cf *classfile.ClassFile) (*CustomClass, error) {
	name, err := cf.ClassName()
	if err != nil {
		return nil, fmt.Errorf("resolving class name: %w", err)
	}
	superName, err := cf.SuperClassName()
	if err != nil {
		return nil, fmt.Errorf("resolving super class name: %w", err)
	}
	ifaces, err := cf.InterfaceNames()
	if err != nil {
		return nil, fmt.Errorf("resolving interface names: %w", err)
	}
	c := &CustomClass{
		cf:         cf,
		name:       name,
		superName:  superName,
		interfaces: ifaces,
		statics:    make(map[fieldKey]Value),
	}
	for _, f := range cf.Fields {
		if f.AccessFlags&classfile.AccStatic != 0 {
			c.statics[fieldKey{f.Name, f.Descriptor}] = ZeroValueForDescriptor(f.Descriptor)
		}
	}
	return c, nil
}

// NewNativeClass builds a Class for a bootstrap type this core implements
// host-side (java/lang/System, java/lang/String, java/lang/StringBuilder)
// without a backing .class file: ClassFile() returns nil for these, and
// invoke resolution checks the native registry before ever trying to read
// a Code attribute, so nil is never dereferenced on the hot path.
func NewNativeClass(name, superName string) *CustomClass {
	return &CustomClass{
		name:      name,
		superName: superName,
		statics:   make(map[fieldKey]Value),
	}
}

func (c *CustomClass) Name() string             { return c.name }
func (c *CustomClass) SuperName() string        { return c.superName }
func (c *CustomClass) InterfaceNames() []string { return c.interfaces }
func (c *CustomClass) IsInterface() bool {
	return c.cf != nil && c.cf.AccessFlags&classfile.AccInterface != 0
}

func (c *CustomClass) AccessFlags() uint16 {
	if c.cf == nil {
		return classfile.AccPublic
	}
	return c.cf.AccessFlags
}
func (c *CustomClass) ClassFile() *classfile.ClassFile { return c.cf }
func (c *CustomClass) Initialized() bool               { return c.initialized }
func (c *CustomClass) MarkInitialized()                { c.initialized = true }

func (c *CustomClass) GetStatic(name, descriptor string) (Value, bool) {
	v, ok := c.statics[fieldKey{name, descriptor}]
	return v, ok
}

func (c *CustomClass) PutStatic(name, descriptor string, v Value) {
	c.statics[fieldKey{name, descriptor}] = v
}
