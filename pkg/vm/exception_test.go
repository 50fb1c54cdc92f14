package vm

import (
	"errors"
	"testing"

	"github.com/sago35/hotspotlite/pkg/classfile"
)

func TestRaiseWrapsPlainError(t *testing.T) {
	th := newTestThread()
	je := th.raise(errors.New("boom"))
	if je == nil || je.Object.IsNull() {
		t.Fatalf("raise should produce a non-null exception object")
	}
	if je.Object.ClassName() != "java/lang/RuntimeException" {
		t.Errorf("ClassName() = %q, want java/lang/RuntimeException", je.Object.ClassName())
	}
	obj, err := je.Object.ToObject()
	if err != nil {
		t.Fatalf("ToObject: %v", err)
	}
	detail, ok := obj.GetField("detail", "Ljava/lang/String;")
	if !ok {
		t.Fatalf("expected a detail field to be set")
	}
	if detail.IsNull() {
		t.Errorf("detail field should carry the wrapped error's message")
	}
}

func TestRaiseSynthesizesNamedExceptionClass(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{errors.New("NullPointerException: array is null"), "java/lang/NullPointerException"},
		{errors.New("ArrayStoreException: cannot store java/lang/Object into java/lang/String[]"), "java/lang/ArrayStoreException"},
		{errors.New("ArithmeticException: / by zero"), "java/lang/ArithmeticException"},
		{errors.New("some unrelated internal error"), "java/lang/RuntimeException"},
	}
	for _, c := range cases {
		th := newTestThread()
		je := th.raise(c.err)
		if je.Object.ClassName() != c.want {
			t.Errorf("raise(%q).ClassName() = %q, want %q", c.err.Error(), je.Object.ClassName(), c.want)
		}
	}
}

func TestRaisedExceptionMatchesItsOwnCatchType(t *testing.T) {
	th := newTestThread()
	je := th.raise(errors.New("NullPointerException: x is null"))
	if !isAssignableTo(je.Object, "java/lang/NullPointerException", th) {
		t.Errorf("a raised NullPointerException should be assignable to its own catch type")
	}
	if isAssignableTo(je.Object, "java/lang/ArrayStoreException", th) {
		t.Errorf("a raised NullPointerException should not be assignable to an unrelated exception type")
	}
	if !isAssignableTo(je.Object, "java/lang/RuntimeException", th) {
		t.Errorf("a raised NullPointerException should still be assignable to its ancestor RuntimeException")
	}
}

func TestRaisePassesThroughJavaException(t *testing.T) {
	th := newTestThread()
	original := NewJavaException(NullReference())
	if th.raise(original) != original {
		t.Fatalf("raise should return an existing *JavaException unchanged")
	}
}

func TestUnwindFindsCatchAllHandler(t *testing.T) {
	th := newTestThread()
	method := testMethod(2, 1, classfile.Instruction{Opcode: classfile.OpNop}, classfile.Instruction{Opcode: classfile.OpReturn})
	method.Code.ExceptionHandlers = []classfile.ExceptionHandler{
		{StartPC: 0, EndPC: 2, HandlerPC: 1, CatchType: 0},
	}
	f := NewFrame(method, nil)
	if err := f.Push(IntValue(1)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	th.PushFrame(f)

	exc := th.raise(errors.New("boom"))
	if err := th.unwind(exc); err != nil {
		t.Fatalf("unwind: %v", err)
	}
	if f.PC != 1 {
		t.Fatalf("PC = %d, want 1 (the handler)", f.PC)
	}
	if len(f.OperandStack) != 1 {
		t.Fatalf("operand stack should hold exactly the rethrown exception, got %d values", len(f.OperandStack))
	}
}

func TestUnwindExhaustsStackWithNoHandler(t *testing.T) {
	th := newTestThread()
	method := testMethod(1, 0, classfile.Instruction{Opcode: classfile.OpReturn})
	f := NewFrame(method, nil)
	th.PushFrame(f)

	exc := th.raise(errors.New("boom"))
	err := th.unwind(exc)
	if err == nil {
		t.Fatalf("expected unwind to surface the exception once the stack is exhausted")
	}
	if th.CurrentFrame() != nil {
		t.Fatalf("the frame with no matching handler should have been popped")
	}
}
