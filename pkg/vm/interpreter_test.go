package vm

import (
	"testing"

	"github.com/sago35/hotspotlite/pkg/classfile"
)

func TestExecPop2SingleWideValue(t *testing.T) {
	f := NewFrame(testMethod(2, 0, classfile.Instruction{Opcode: classfile.OpReturn}), nil)
	if err := f.Push(IntValue(1)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := f.Push(LongValue(99)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := execPop2(f); err != nil {
		t.Fatalf("execPop2: %v", err)
	}
	v, err := f.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if v.Kind != KindInt || v.Int != 1 {
		t.Fatalf("pop2 of a single Long should leave the earlier Int untouched, got %+v", v)
	}
}

func TestExecPop2TwoNarrowValues(t *testing.T) {
	f := NewFrame(testMethod(3, 0, classfile.Instruction{Opcode: classfile.OpReturn}), nil)
	if err := f.Push(IntValue(5)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := f.Push(IntValue(1)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := f.Push(IntValue(2)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := execPop2(f); err != nil {
		t.Fatalf("execPop2: %v", err)
	}
	v, err := f.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if v.Int != 5 {
		t.Fatalf("pop2 of two Ints should leave the value below them, got %+v", v)
	}
}

func TestExecDup2WideValue(t *testing.T) {
	f := NewFrame(testMethod(2, 0, classfile.Instruction{Opcode: classfile.OpReturn}), nil)
	if err := f.Push(DoubleValue(3.5)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := execDup2(f); err != nil {
		t.Fatalf("execDup2: %v", err)
	}
	if len(f.OperandStack) != 2 {
		t.Fatalf("dup2 of a single Double should leave 2 entries, got %d", len(f.OperandStack))
	}
	for _, v := range f.OperandStack {
		if v.Kind != KindDouble || v.Double != 3.5 {
			t.Fatalf("expected both entries to be the duplicated Double, got %+v", v)
		}
	}
}

func TestExecDup2TwoNarrowValues(t *testing.T) {
	f := NewFrame(testMethod(4, 0, classfile.Instruction{Opcode: classfile.OpReturn}), nil)
	if err := f.Push(IntValue(1)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := f.Push(IntValue(2)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := execDup2(f); err != nil {
		t.Fatalf("execDup2: %v", err)
	}
	want := []int32{1, 2, 1, 2}
	if len(f.OperandStack) != len(want) {
		t.Fatalf("dup2 of two Ints should leave 4 entries, got %d", len(f.OperandStack))
	}
	for i, w := range want {
		if f.OperandStack[i].Int != w {
			t.Fatalf("stack[%d] = %d, want %d", i, f.OperandStack[i].Int, w)
		}
	}
}

// ldcTestClass builds a minimal Class whose constant pool holds one
// ConstantInteger at index 1 and one ConstantLong at index 2, enough to
// exercise execLdc's category validation.
func ldcTestClass() Class {
	cf := &classfile.ClassFile{
		ConstantPool: []classfile.ConstantPoolEntry{
			nil,
			&classfile.ConstantInteger{Value: 7},
			&classfile.ConstantLong{Value: 9},
			&classfile.ConstantUtf8{Value: "test/Ldc"},
			&classfile.ConstantClass{NameIndex: 3},
		},
		ThisClass: 4,
	}
	c, err := NewCustomClass(cf)
	if err != nil {
		panic(err)
	}
	return c
}

func TestExecLdcRejectsLongConstant(t *testing.T) {
	th := &Thread{}
	f := NewFrame(testMethod(1, 0, classfile.Instruction{Opcode: classfile.OpLdc, Index: 2}), ldcTestClass())
	if err := th.execLdc(f, classfile.Instruction{Opcode: classfile.OpLdc, Index: 2}); err == nil {
		t.Fatalf("ldc of a Long constant should be rejected")
	}
}

func TestExecLdcAcceptsIntConstant(t *testing.T) {
	th := &Thread{}
	f := NewFrame(testMethod(1, 0, classfile.Instruction{Opcode: classfile.OpLdc, Index: 1}), ldcTestClass())
	if err := th.execLdc(f, classfile.Instruction{Opcode: classfile.OpLdc, Index: 1}); err != nil {
		t.Fatalf("execLdc: %v", err)
	}
	v, err := f.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if v.Int != 7 {
		t.Fatalf("got %d, want 7", v.Int)
	}
}

func TestExecLdc2WRejectsIntConstant(t *testing.T) {
	th := &Thread{}
	f := NewFrame(testMethod(1, 0, classfile.Instruction{Opcode: classfile.OpLdc2W, Index: 1}), ldcTestClass())
	if err := th.execLdc(f, classfile.Instruction{Opcode: classfile.OpLdc2W, Index: 1}); err == nil {
		t.Fatalf("ldc2_w of an Integer constant should be rejected")
	}
}

func TestExecLdc2WAcceptsLongConstant(t *testing.T) {
	th := &Thread{}
	f := NewFrame(testMethod(1, 0, classfile.Instruction{Opcode: classfile.OpLdc2W, Index: 2}), ldcTestClass())
	if err := th.execLdc(f, classfile.Instruction{Opcode: classfile.OpLdc2W, Index: 2}); err != nil {
		t.Fatalf("execLdc: %v", err)
	}
	v, err := f.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if v.Long != 9 {
		t.Fatalf("got %d, want 9", v.Long)
	}
}
