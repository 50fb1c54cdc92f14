package vm

import "github.com/sago35/hotspotlite/pkg/classfile"

// Object is an instance's handle to its Class plus a flat
// (field_name, field_descriptor) -> Value map, pre-populated for the class
// and every ancestor. Ancestors are visited root-first; each field is
// inserted try-only, so a subclass field sharing both name and descriptor
// with an ancestor's does not overwrite it. Different descriptors for the
// same name are simply different keys, which is how field shadowing by
// type survives in a flat map.
type Object struct {
	Class  Class
	Fields map[fieldKey]Value

	// Native carries host-side state for objects whose class is one of the
	// registry's native stubs (java/lang/String's rune data, a
	// StringBuilder's accumulating buffer). Every other object leaves this
	// nil; the Fields map is its state instead.
	Native interface{}
}

// NewObject builds an instance of class, walking its superclass chain via
// resolve (normally ClassRegistry.Resolve) to materialize every inherited
// instance field.
func NewObject(class Class, resolve func(name string) (Class, error)) (*Object, error) {
	obj := &Object{Class: class, Fields: make(map[fieldKey]Value)}

	var chain []Class
	cur := class
	for {
		chain = append(chain, cur)
		if cur.SuperName() == "" {
			break
		}
		super, err := resolve(cur.SuperName())
		if err != nil {
			return nil, err
		}
		cur = super
	}
	// chain is most-derived-first; walk it in reverse so ancestors are
	// populated before more-derived classes, as try-only insertion requires.
	for i := len(chain) - 1; i >= 0; i-- {
		cf := chain[i].ClassFile()
		if cf == nil {
			continue // native class, e.g. java/lang/Object: no declared instance fields to synthesize
		}
		for _, f := range cf.Fields {
			if f.AccessFlags&classfile.AccStatic != 0 {
				continue
			}
			key := fieldKey{f.Name, f.Descriptor}
			if _, exists := obj.Fields[key]; !exists {
				obj.Fields[key] = ZeroValueForDescriptor(f.Descriptor)
			}
		}
	}
	return obj, nil
}

func (o *Object) GetField(name, descriptor string) (Value, bool) {
	v, ok := o.Fields[fieldKey{name, descriptor}]
	return v, ok
}

func (o *Object) PutField(name, descriptor string, v Value) {
	o.Fields[fieldKey{name, descriptor}] = v
}
