package classfile

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// classBuilder assembles the bytes of a trivial class file: the constant
// pool entries the test adds, and (via build) one public static method whose
// body is the given code bytes. It exists so these tests don't depend on a real
// compiled .class fixture, which this repository has no JDK to produce.
type classBuilder struct {
	pool      [][]byte // raw constant-pool entry bytes, in physical order
	nextIndex uint16   // next logical constant-pool index to hand out
}

func (b *classBuilder) assignedIndex() uint16 {
	if b.nextIndex == 0 {
		b.nextIndex = 1
	}
	return b.nextIndex
}

func (b *classBuilder) addUtf8(s string) uint16 {
	idx := b.assignedIndex()
	var e bytes.Buffer
	e.WriteByte(TagUtf8)
	binary.Write(&e, binary.BigEndian, uint16(len(s)))
	e.WriteString(s)
	b.pool = append(b.pool, e.Bytes())
	b.nextIndex = idx + 1
	return idx
}

func (b *classBuilder) addClass(nameIdx uint16) uint16 {
	idx := b.assignedIndex()
	var e bytes.Buffer
	e.WriteByte(TagClass)
	binary.Write(&e, binary.BigEndian, nameIdx)
	b.pool = append(b.pool, e.Bytes())
	b.nextIndex = idx + 1
	return idx
}

// addLong appends a CONSTANT_Long entry, which consumes two logical indices
// (idx and idx+1, the latter an unusable sentinel never physically written).
func (b *classBuilder) addLong(v int64) uint16 {
	idx := b.assignedIndex()
	var e bytes.Buffer
	e.WriteByte(TagLong)
	binary.Write(&e, binary.BigEndian, v)
	b.pool = append(b.pool, e.Bytes())
	b.nextIndex = idx + 2
	return idx
}

func (b *classBuilder) build(thisClass, superClass uint16, methodName, methodDesc uint16, code []byte, maxStack, maxLocals uint16) []byte {
	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(classMagic))
	binary.Write(&out, binary.BigEndian, uint16(0)) // minor
	binary.Write(&out, binary.BigEndian, uint16(61)) // major (Java 17)

	binary.Write(&out, binary.BigEndian, b.assignedIndex())
	for _, e := range b.pool {
		out.Write(e)
	}

	binary.Write(&out, binary.BigEndian, uint16(AccPublic|AccSuper)) // access flags
	binary.Write(&out, binary.BigEndian, thisClass)
	binary.Write(&out, binary.BigEndian, superClass)
	binary.Write(&out, binary.BigEndian, uint16(0)) // interfaces count

	binary.Write(&out, binary.BigEndian, uint16(0)) // fields count

	binary.Write(&out, binary.BigEndian, uint16(1)) // methods count
	binary.Write(&out, binary.BigEndian, uint16(AccPublic|AccStatic))
	binary.Write(&out, binary.BigEndian, methodName)
	binary.Write(&out, binary.BigEndian, methodDesc)
	binary.Write(&out, binary.BigEndian, uint16(1)) // attributes count (Code)

	// Code attribute: need a name index for "Code" — caller must have added it.
	codeNameIdx := b.findUtf8("Code")
	binary.Write(&out, binary.BigEndian, codeNameIdx)

	var codeAttr bytes.Buffer
	binary.Write(&codeAttr, binary.BigEndian, maxStack)
	binary.Write(&codeAttr, binary.BigEndian, maxLocals)
	binary.Write(&codeAttr, binary.BigEndian, uint32(len(code)))
	codeAttr.Write(code)
	binary.Write(&codeAttr, binary.BigEndian, uint16(0)) // exception table length
	binary.Write(&codeAttr, binary.BigEndian, uint16(0)) // code sub-attributes count

	binary.Write(&out, binary.BigEndian, uint32(codeAttr.Len()))
	out.Write(codeAttr.Bytes())

	binary.Write(&out, binary.BigEndian, uint16(0)) // class attributes count

	return out.Bytes()
}

func (b *classBuilder) findUtf8(s string) uint16 {
	idx := uint16(1)
	for _, e := range b.pool {
		if e[0] == TagUtf8 {
			length := binary.BigEndian.Uint16(e[1:3])
			if string(e[3:3+length]) == s {
				return idx
			}
		}
		// a Long/Double entry takes two logical indices but one physical entry
		if e[0] == TagLong || e[0] == TagDouble {
			idx += 2
		} else {
			idx++
		}
	}
	panic("utf8 not interned: " + s)
}

func TestParseMinimalClass(t *testing.T) {
	b := &classBuilder{}
	thisName := b.addUtf8("Hello")
	thisClass := b.addClass(thisName)
	superName := b.addUtf8("java/lang/Object")
	superClass := b.addClass(superName)
	methodName := b.addUtf8("main")
	methodDesc := b.addUtf8("([Ljava/lang/String;)V")
	b.addUtf8("Code")

	code := []byte{OpReturn}
	data := b.build(thisClass, superClass, methodName, methodDesc, code, 1, 1)

	cf, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cf.MajorVersion != 61 {
		t.Errorf("major version: got %d, want 61", cf.MajorVersion)
	}
	name, err := cf.ClassName()
	if err != nil {
		t.Fatalf("ClassName: %v", err)
	}
	if name != "Hello" {
		t.Errorf("this_class: got %q, want %q", name, "Hello")
	}
	method := cf.FindMethod("main", "([Ljava/lang/String;)V")
	if method == nil {
		t.Fatal("main method not found")
	}
	if method.Code == nil {
		t.Fatal("main method has no Code attribute")
	}
	if len(method.Code.Instructions) != 1 || method.Code.Instructions[0].Opcode != OpReturn {
		t.Errorf("unexpected decoded instructions: %+v", method.Code.Instructions)
	}
}

func TestParseInvalidMagic(t *testing.T) {
	_, err := Parse([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	if err == nil {
		t.Error("expected error for invalid magic number, got nil")
	}
}

func TestParseLongDoubleOccupyTwoSlots(t *testing.T) {
	b := &classBuilder{}
	thisName := b.addUtf8("WithLong")
	thisClass := b.addClass(thisName)

	longIdx := b.addLong(42) // occupies this index and the next (unusable)
	b.addUtf8("after")

	superName := b.addUtf8("java/lang/Object")
	superClass := b.addClass(superName)
	methodName := b.addUtf8("m")
	methodDesc := b.addUtf8("()V")
	b.addUtf8("Code")

	code := []byte{OpReturn}
	data := b.build(thisClass, superClass, methodName, methodDesc, code, 1, 1)

	cf, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := cf.ConstantPool[longIdx+1].(constantUnusable); !ok {
		t.Errorf("expected unusable sentinel after Long entry at index %d", longIdx)
	}
}

func TestParseRejectsUnknownTag(t *testing.T) {
	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(classMagic))
	binary.Write(&out, binary.BigEndian, uint16(0))
	binary.Write(&out, binary.BigEndian, uint16(61))
	binary.Write(&out, binary.BigEndian, uint16(2)) // 1 entry
	out.WriteByte(0x7f)                              // bogus tag

	_, err := Parse(out.Bytes())
	if err == nil {
		t.Error("expected error for unknown constant pool tag")
	}
}
