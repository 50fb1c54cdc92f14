package vm

import (
	"testing"

	"github.com/sago35/hotspotlite/pkg/classfile"
)

func testMethod(maxStack, maxLocals uint16, instrs ...classfile.Instruction) *classfile.MethodInfo {
	return &classfile.MethodInfo{
		Name:       "test",
		Descriptor: "()V",
		Code: &classfile.CodeAttribute{
			MaxStack:     maxStack,
			MaxLocals:    maxLocals,
			Instructions: instrs,
		},
	}
}

func TestFramePushPopOverflow(t *testing.T) {
	f := NewFrame(testMethod(1, 0, classfile.Instruction{Opcode: classfile.OpReturn}), nil)
	if err := f.Push(IntValue(1)); err != nil {
		t.Fatalf("first push: %v", err)
	}
	if err := f.Push(IntValue(2)); err == nil {
		t.Fatalf("expected stack overflow, got none")
	}
	v, err := f.Pop()
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if v.Int != 1 {
		t.Errorf("got %d, want 1", v.Int)
	}
	if _, err := f.Pop(); err == nil {
		t.Fatalf("expected underflow on empty stack")
	}
}

func TestFrameLocalsWideSlotPair(t *testing.T) {
	f := NewFrame(testMethod(4, 3, classfile.Instruction{Opcode: classfile.OpReturn}), nil)
	if err := f.SetLocal(0, LongValue(42)); err != nil {
		t.Fatalf("SetLocal: %v", err)
	}
	got, err := f.GetLocal(0)
	if err != nil {
		t.Fatalf("GetLocal(0): %v", err)
	}
	if got.Long != 42 {
		t.Errorf("got %d, want 42", got.Long)
	}
	if _, err := f.GetLocal(1); err == nil {
		t.Errorf("expected an error reading the high half of a wide local")
	}
}

func TestFrameSetLocalOutOfRange(t *testing.T) {
	f := NewFrame(testMethod(1, 1, classfile.Instruction{Opcode: classfile.OpReturn}), nil)
	if err := f.SetLocal(5, IntValue(1)); err == nil {
		t.Fatalf("expected out-of-range error")
	}
}

func TestFramePCBounds(t *testing.T) {
	f := NewFrame(testMethod(0, 0,
		classfile.Instruction{Opcode: classfile.OpNop},
		classfile.Instruction{Opcode: classfile.OpReturn},
	), nil)
	if err := f.SetPC(1); err != nil {
		t.Fatalf("SetPC(1): %v", err)
	}
	if err := f.SetPC(2); err == nil {
		t.Fatalf("expected out-of-range PC error")
	}
	if f.AtEnd() {
		t.Fatalf("frame at pc=1 of 2 instructions should not be at end")
	}
	if err := f.IncPC(); err != nil {
		t.Fatalf("IncPC: %v", err)
	}
	if !f.AtEnd() {
		t.Fatalf("frame at pc=2 of 2 instructions should be at end")
	}
}
