package classfile

import (
	"fmt"
	"math"
)

// Constant pool tags, per the class file format.
const (
	TagUtf8               = 1
	TagInteger            = 3
	TagFloat              = 4
	TagLong               = 5
	TagDouble             = 6
	TagClass              = 7
	TagString             = 8
	TagFieldref           = 9
	TagMethodref          = 10
	TagInterfaceMethodref = 11
	TagNameAndType        = 12
	TagMethodHandle       = 15
	TagMethodType         = 16
	TagDynamic            = 17
	TagInvokeDynamic      = 18
	TagModule             = 19
	TagPackage            = 20
)

// ConstantPoolEntry is implemented by every constant pool record.
type ConstantPoolEntry interface {
	Tag() uint8
}

type ConstantUtf8 struct{ Value string }

func (c *ConstantUtf8) Tag() uint8 { return TagUtf8 }

type ConstantInteger struct{ Value int32 }

func (c *ConstantInteger) Tag() uint8 { return TagInteger }

type ConstantFloat struct{ Value float32 }

func (c *ConstantFloat) Tag() uint8 { return TagFloat }

type ConstantLong struct{ Value int64 }

func (c *ConstantLong) Tag() uint8 { return TagLong }

type ConstantDouble struct{ Value float64 }

func (c *ConstantDouble) Tag() uint8 { return TagDouble }

type ConstantClass struct{ NameIndex uint16 }

func (c *ConstantClass) Tag() uint8 { return TagClass }

type ConstantString struct{ StringIndex uint16 }

func (c *ConstantString) Tag() uint8 { return TagString }

type ConstantFieldref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantFieldref) Tag() uint8 { return TagFieldref }

type ConstantMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantMethodref) Tag() uint8 { return TagMethodref }

type ConstantInterfaceMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantInterfaceMethodref) Tag() uint8 { return TagInterfaceMethodref }

type ConstantNameAndType struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (c *ConstantNameAndType) Tag() uint8 { return TagNameAndType }

// ReferenceKind is the reference_kind byte of a CONSTANT_MethodHandle entry.
type ReferenceKind uint8

const (
	RefGetField ReferenceKind = iota + 1
	RefGetStatic
	RefPutField
	RefPutStatic
	RefInvokeVirtual
	RefInvokeStatic
	RefInvokeSpecial
	RefNewInvokeSpecial
	RefInvokeInterface
)

func (k ReferenceKind) String() string {
	switch k {
	case RefGetField:
		return "getField"
	case RefGetStatic:
		return "getStatic"
	case RefPutField:
		return "putField"
	case RefPutStatic:
		return "putStatic"
	case RefInvokeVirtual:
		return "invokeVirtual"
	case RefInvokeStatic:
		return "invokeStatic"
	case RefInvokeSpecial:
		return "invokeSpecial"
	case RefNewInvokeSpecial:
		return "newInvokeSpecial"
	case RefInvokeInterface:
		return "invokeInterface"
	default:
		return fmt.Sprintf("ReferenceKind(%d)", uint8(k))
	}
}

type ConstantMethodHandle struct {
	Kind         ReferenceKind
	ReferenceIndex uint16
}

func (c *ConstantMethodHandle) Tag() uint8 { return TagMethodHandle }

type ConstantMethodType struct{ DescriptorIndex uint16 }

func (c *ConstantMethodType) Tag() uint8 { return TagMethodType }

type ConstantDynamic struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (c *ConstantDynamic) Tag() uint8 { return TagDynamic }

type ConstantInvokeDynamic struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (c *ConstantInvokeDynamic) Tag() uint8 { return TagInvokeDynamic }

type ConstantModule struct{ NameIndex uint16 }

func (c *ConstantModule) Tag() uint8 { return TagModule }

type ConstantPackage struct{ NameIndex uint16 }

func (c *ConstantPackage) Tag() uint8 { return TagPackage }

// constantUnusable occupies the second slot of a Long/Double entry so that
// subsequent indices line up with the on-disk numbering. Any attempt to
// resolve it as a typed entry fails structurally.
type constantUnusable struct{}

func (constantUnusable) Tag() uint8 { return 0 }

// parseConstantPool reads cpoolCount-1 entries from c. The returned slice
// is 1-indexed: index 0 is nil, matching the class file's own numbering.
func parseConstantPool(c *cursor, cpoolCount uint16) ([]ConstantPoolEntry, error) {
	pool := make([]ConstantPoolEntry, cpoolCount)

	for i := uint16(1); i < cpoolCount; i++ {
		tag, err := c.readU8()
		if err != nil {
			return nil, fmt.Errorf("reading constant pool tag at index %d: %w", i, err)
		}

		switch tag {
		case TagUtf8:
			length, err := c.readU16()
			if err != nil {
				return nil, fmt.Errorf("reading Utf8 length at index %d: %w", i, err)
			}
			b, err := c.readBytes(int(length))
			if err != nil {
				return nil, fmt.Errorf("reading Utf8 bytes at index %d: %w", i, err)
			}
			pool[i] = &ConstantUtf8{Value: string(b)}

		case TagInteger:
			v, err := c.readI32()
			if err != nil {
				return nil, fmt.Errorf("reading Integer at index %d: %w", i, err)
			}
			pool[i] = &ConstantInteger{Value: v}

		case TagFloat:
			bits, err := c.readU32()
			if err != nil {
				return nil, fmt.Errorf("reading Float at index %d: %w", i, err)
			}
			pool[i] = &ConstantFloat{Value: math.Float32frombits(bits)}

		case TagLong:
			v, err := c.readI64()
			if err != nil {
				return nil, fmt.Errorf("reading Long at index %d: %w", i, err)
			}
			pool[i] = &ConstantLong{Value: v}
			i++
			if int(i) < len(pool) {
				pool[i] = constantUnusable{}
			}

		case TagDouble:
			bits, err := c.readU64()
			if err != nil {
				return nil, fmt.Errorf("reading Double at index %d: %w", i, err)
			}
			pool[i] = &ConstantDouble{Value: math.Float64frombits(bits)}
			i++
			if int(i) < len(pool) {
				pool[i] = constantUnusable{}
			}

		case TagClass:
			nameIndex, err := c.readU16()
			if err != nil {
				return nil, fmt.Errorf("reading Class at index %d: %w", i, err)
			}
			pool[i] = &ConstantClass{NameIndex: nameIndex}

		case TagString:
			stringIndex, err := c.readU16()
			if err != nil {
				return nil, fmt.Errorf("reading String at index %d: %w", i, err)
			}
			pool[i] = &ConstantString{StringIndex: stringIndex}

		case TagFieldref:
			classIndex, natIndex, err := readClassAndNat(c)
			if err != nil {
				return nil, fmt.Errorf("reading Fieldref at index %d: %w", i, err)
			}
			pool[i] = &ConstantFieldref{ClassIndex: classIndex, NameAndTypeIndex: natIndex}

		case TagMethodref:
			classIndex, natIndex, err := readClassAndNat(c)
			if err != nil {
				return nil, fmt.Errorf("reading Methodref at index %d: %w", i, err)
			}
			pool[i] = &ConstantMethodref{ClassIndex: classIndex, NameAndTypeIndex: natIndex}

		case TagInterfaceMethodref:
			classIndex, natIndex, err := readClassAndNat(c)
			if err != nil {
				return nil, fmt.Errorf("reading InterfaceMethodref at index %d: %w", i, err)
			}
			pool[i] = &ConstantInterfaceMethodref{ClassIndex: classIndex, NameAndTypeIndex: natIndex}

		case TagNameAndType:
			nameIndex, descIndex, err := readClassAndNat(c)
			if err != nil {
				return nil, fmt.Errorf("reading NameAndType at index %d: %w", i, err)
			}
			pool[i] = &ConstantNameAndType{NameIndex: nameIndex, DescriptorIndex: descIndex}

		case TagMethodHandle:
			kind, err := c.readU8()
			if err != nil {
				return nil, fmt.Errorf("reading MethodHandle reference_kind at index %d: %w", i, err)
			}
			refIndex, err := c.readU16()
			if err != nil {
				return nil, fmt.Errorf("reading MethodHandle reference_index at index %d: %w", i, err)
			}
			pool[i] = &ConstantMethodHandle{Kind: ReferenceKind(kind), ReferenceIndex: refIndex}

		case TagMethodType:
			descIndex, err := c.readU16()
			if err != nil {
				return nil, fmt.Errorf("reading MethodType at index %d: %w", i, err)
			}
			pool[i] = &ConstantMethodType{DescriptorIndex: descIndex}

		case TagDynamic:
			bsmIndex, natIndex, err := readClassAndNat(c)
			if err != nil {
				return nil, fmt.Errorf("reading Dynamic at index %d: %w", i, err)
			}
			pool[i] = &ConstantDynamic{BootstrapMethodAttrIndex: bsmIndex, NameAndTypeIndex: natIndex}

		case TagInvokeDynamic:
			bsmIndex, natIndex, err := readClassAndNat(c)
			if err != nil {
				return nil, fmt.Errorf("reading InvokeDynamic at index %d: %w", i, err)
			}
			pool[i] = &ConstantInvokeDynamic{BootstrapMethodAttrIndex: bsmIndex, NameAndTypeIndex: natIndex}

		case TagModule:
			nameIndex, err := c.readU16()
			if err != nil {
				return nil, fmt.Errorf("reading Module at index %d: %w", i, err)
			}
			pool[i] = &ConstantModule{NameIndex: nameIndex}

		case TagPackage:
			nameIndex, err := c.readU16()
			if err != nil {
				return nil, fmt.Errorf("reading Package at index %d: %w", i, err)
			}
			pool[i] = &ConstantPackage{NameIndex: nameIndex}

		default:
			return nil, fmt.Errorf("IllegalConstantPoolTag: unknown tag %d at index %d", tag, i)
		}
	}

	return pool, nil
}

func readClassAndNat(c *cursor) (uint16, uint16, error) {
	a, err := c.readU16()
	if err != nil {
		return 0, 0, err
	}
	b, err := c.readU16()
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// GetUtf8 returns the Utf8 string at the given constant pool index.
func GetUtf8(pool []ConstantPoolEntry, index uint16) (string, error) {
	entry, err := lookup(pool, index)
	if err != nil {
		return "", err
	}
	utf8, ok := entry.(*ConstantUtf8)
	if !ok {
		return "", fmt.Errorf("constant pool index %d is not Utf8 (tag=%d)", index, entry.Tag())
	}
	return utf8.Value, nil
}

// GetClassName returns the class name referenced by a CONSTANT_Class entry.
func GetClassName(pool []ConstantPoolEntry, classIndex uint16) (string, error) {
	entry, err := lookup(pool, classIndex)
	if err != nil {
		return "", err
	}
	class, ok := entry.(*ConstantClass)
	if !ok {
		return "", fmt.Errorf("constant pool index %d is not Class", classIndex)
	}
	return GetUtf8(pool, class.NameIndex)
}

func lookup(pool []ConstantPoolEntry, index uint16) (ConstantPoolEntry, error) {
	if int(index) >= len(pool) || pool[index] == nil {
		return nil, fmt.Errorf("invalid constant pool index %d", index)
	}
	if _, unusable := pool[index].(constantUnusable); unusable {
		return nil, fmt.Errorf("constant pool index %d is an unusable slot (second half of a Long/Double)", index)
	}
	return pool[index], nil
}

// NameAndType resolves a CONSTANT_NameAndType entry to (name, descriptor).
func NameAndType(pool []ConstantPoolEntry, index uint16) (string, string, error) {
	entry, err := lookup(pool, index)
	if err != nil {
		return "", "", err
	}
	nat, ok := entry.(*ConstantNameAndType)
	if !ok {
		return "", "", fmt.Errorf("constant pool index %d is not NameAndType", index)
	}
	name, err := GetUtf8(pool, nat.NameIndex)
	if err != nil {
		return "", "", fmt.Errorf("resolving name: %w", err)
	}
	desc, err := GetUtf8(pool, nat.DescriptorIndex)
	if err != nil {
		return "", "", fmt.Errorf("resolving descriptor: %w", err)
	}
	return name, desc, nil
}

// MethodRefInfo holds a resolved Methodref/InterfaceMethodref.
type MethodRefInfo struct {
	ClassName   string
	MethodName  string
	Descriptor  string
	IsInterface bool
}

// ResolveMethodref resolves a CONSTANT_Methodref entry.
func ResolveMethodref(pool []ConstantPoolEntry, index uint16) (*MethodRefInfo, error) {
	entry, err := lookup(pool, index)
	if err != nil {
		return nil, err
	}
	mref, ok := entry.(*ConstantMethodref)
	if !ok {
		return nil, fmt.Errorf("constant pool index %d is not Methodref", index)
	}
	className, err := GetClassName(pool, mref.ClassIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving Methodref class: %w", err)
	}
	name, desc, err := NameAndType(pool, mref.NameAndTypeIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving Methodref name/type: %w", err)
	}
	return &MethodRefInfo{ClassName: className, MethodName: name, Descriptor: desc}, nil
}

// ResolveInterfaceMethodref resolves a CONSTANT_InterfaceMethodref entry.
func ResolveInterfaceMethodref(pool []ConstantPoolEntry, index uint16) (*MethodRefInfo, error) {
	entry, err := lookup(pool, index)
	if err != nil {
		return nil, err
	}
	mref, ok := entry.(*ConstantInterfaceMethodref)
	if !ok {
		return nil, fmt.Errorf("constant pool index %d is not InterfaceMethodref", index)
	}
	className, err := GetClassName(pool, mref.ClassIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving InterfaceMethodref class: %w", err)
	}
	name, desc, err := NameAndType(pool, mref.NameAndTypeIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving InterfaceMethodref name/type: %w", err)
	}
	return &MethodRefInfo{ClassName: className, MethodName: name, Descriptor: desc, IsInterface: true}, nil
}

// FieldRefInfo holds a resolved Fieldref.
type FieldRefInfo struct {
	ClassName  string
	FieldName  string
	Descriptor string
}

// ResolveFieldref resolves a CONSTANT_Fieldref entry.
func ResolveFieldref(pool []ConstantPoolEntry, index uint16) (*FieldRefInfo, error) {
	entry, err := lookup(pool, index)
	if err != nil {
		return nil, err
	}
	fref, ok := entry.(*ConstantFieldref)
	if !ok {
		return nil, fmt.Errorf("constant pool index %d is not Fieldref", index)
	}
	className, err := GetClassName(pool, fref.ClassIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving Fieldref class: %w", err)
	}
	name, desc, err := NameAndType(pool, fref.NameAndTypeIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving Fieldref name/type: %w", err)
	}
	return &FieldRefInfo{ClassName: className, FieldName: name, Descriptor: desc}, nil
}
