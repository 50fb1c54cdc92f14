package classfile

import (
	"fmt"
	"os"
)

const classMagic = 0xCAFEBABE

// ParseFile opens and parses a .class file from the given path.
func ParseFile(path string) (*ClassFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a class file held entirely in memory, per the class-file
// decoder algorithm: magic, versions, constant pool, access/this/super,
// interfaces, fields, methods, then top-level class attributes. Every
// length-prefixed section is checked for start+length==end as it is read.
func Parse(data []byte) (*ClassFile, error) {
	c := newCursor(data)
	cf := &ClassFile{}

	magic, err := c.readU32()
	if err != nil {
		return nil, fmt.Errorf("reading magic number: %w", err)
	}
	if magic != classMagic {
		return nil, fmt.Errorf("IllegalMagicNumber: 0x%X (expected 0xCAFEBABE)", magic)
	}

	if cf.MinorVersion, err = c.readU16(); err != nil {
		return nil, fmt.Errorf("reading minor version: %w", err)
	}
	if cf.MajorVersion, err = c.readU16(); err != nil {
		return nil, fmt.Errorf("reading major version: %w", err)
	}

	cpCount, err := c.readU16()
	if err != nil {
		return nil, fmt.Errorf("reading constant pool count: %w", err)
	}
	pool, err := parseConstantPool(c, cpCount)
	if err != nil {
		return nil, fmt.Errorf("parsing constant pool: %w", err)
	}
	cf.ConstantPool = pool

	if cf.AccessFlags, err = c.readU16(); err != nil {
		return nil, fmt.Errorf("reading access flags: %w", err)
	}
	if cf.ThisClass, err = c.readU16(); err != nil {
		return nil, fmt.Errorf("reading this_class: %w", err)
	}
	if cf.SuperClass, err = c.readU16(); err != nil {
		return nil, fmt.Errorf("reading super_class: %w", err)
	}

	interfacesCount, err := c.readU16()
	if err != nil {
		return nil, fmt.Errorf("reading interfaces count: %w", err)
	}
	cf.Interfaces = make([]uint16, interfacesCount)
	for i := uint16(0); i < interfacesCount; i++ {
		if cf.Interfaces[i], err = c.readU16(); err != nil {
			return nil, fmt.Errorf("reading interface %d: %w", i, err)
		}
	}

	fieldsCount, err := c.readU16()
	if err != nil {
		return nil, fmt.Errorf("reading fields count: %w", err)
	}
	cf.Fields, err = parseFields(c, pool, fieldsCount)
	if err != nil {
		return nil, fmt.Errorf("parsing fields: %w", err)
	}

	methodsCount, err := c.readU16()
	if err != nil {
		return nil, fmt.Errorf("reading methods count: %w", err)
	}
	cf.Methods, err = parseMethods(c, pool, methodsCount)
	if err != nil {
		return nil, fmt.Errorf("parsing methods: %w", err)
	}

	cf.Attributes, err = parseAttributeInfos(c, pool)
	if err != nil {
		return nil, fmt.Errorf("parsing class attributes: %w", err)
	}
	if err := applyClassAttributes(cf); err != nil {
		return nil, fmt.Errorf("applying class attributes: %w", err)
	}

	if err := checkClassInvariants(cf); err != nil {
		return nil, err
	}

	return cf, nil
}

func checkClassInvariants(cf *ClassFile) error {
	if cf.SuperClass == 0 {
		if name, err := cf.ClassName(); err != nil || name != "java/lang/Object" {
			return fmt.Errorf("super_class is 0 but this class is not java/lang/Object")
		}
	}
	return nil
}

func parseFields(c *cursor, pool []ConstantPoolEntry, count uint16) ([]FieldInfo, error) {
	fields := make([]FieldInfo, count)
	for i := uint16(0); i < count; i++ {
		accessFlags, err := c.readU16()
		if err != nil {
			return nil, fmt.Errorf("reading field %d access flags: %w", i, err)
		}
		nameIndex, err := c.readU16()
		if err != nil {
			return nil, fmt.Errorf("reading field %d name index: %w", i, err)
		}
		descIndex, err := c.readU16()
		if err != nil {
			return nil, fmt.Errorf("reading field %d descriptor index: %w", i, err)
		}
		name, err := GetUtf8(pool, nameIndex)
		if err != nil {
			return nil, fmt.Errorf("resolving field %d name: %w", i, err)
		}
		desc, err := GetUtf8(pool, descIndex)
		if err != nil {
			return nil, fmt.Errorf("resolving field %d descriptor: %w", i, err)
		}
		attrs, err := parseAttributeInfos(c, pool)
		if err != nil {
			return nil, fmt.Errorf("parsing field %d attributes: %w", i, err)
		}
		fields[i] = FieldInfo{AccessFlags: accessFlags, Name: name, Descriptor: desc, Attributes: attrs}
		if err := applyFieldAttributes(&fields[i], pool); err != nil {
			return nil, fmt.Errorf("field %d (%s): %w", i, name, err)
		}
	}
	return fields, nil
}

func parseMethods(c *cursor, pool []ConstantPoolEntry, count uint16) ([]MethodInfo, error) {
	methods := make([]MethodInfo, count)
	for i := uint16(0); i < count; i++ {
		accessFlags, err := c.readU16()
		if err != nil {
			return nil, fmt.Errorf("reading method %d access flags: %w", i, err)
		}
		nameIndex, err := c.readU16()
		if err != nil {
			return nil, fmt.Errorf("reading method %d name index: %w", i, err)
		}
		descIndex, err := c.readU16()
		if err != nil {
			return nil, fmt.Errorf("reading method %d descriptor index: %w", i, err)
		}
		name, err := GetUtf8(pool, nameIndex)
		if err != nil {
			return nil, fmt.Errorf("resolving method %d name: %w", i, err)
		}
		desc, err := GetUtf8(pool, descIndex)
		if err != nil {
			return nil, fmt.Errorf("resolving method %d descriptor: %w", i, err)
		}
		attrs, err := parseAttributeInfos(c, pool)
		if err != nil {
			return nil, fmt.Errorf("parsing method %d attributes: %w", i, err)
		}
		methods[i] = MethodInfo{AccessFlags: accessFlags, Name: name, Descriptor: desc, Attributes: attrs}
		if err := applyMethodAttributes(&methods[i], pool); err != nil {
			return nil, fmt.Errorf("method %d (%s%s): %w", i, name, desc, err)
		}
	}
	return methods, nil
}
