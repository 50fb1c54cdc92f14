package vm

import "testing"

func TestNullReferenceIsNull(t *testing.T) {
	if !NullReference().IsNull() {
		t.Fatalf("NullReference().IsNull() = false, want true")
	}
	var nilRef *Reference
	if !nilRef.IsNull() {
		t.Fatalf("a nil *Reference should report IsNull true")
	}
}

func TestReferenceToArrayWrongKind(t *testing.T) {
	r := NullReference()
	if _, err := r.ToArray(); err == nil {
		t.Fatalf("expected an error converting a null reference to an array")
	}
}

func TestReferenceRoundTripObject(t *testing.T) {
	th := newTestThread()
	class, err := th.VM.Registry.Resolve("java/lang/Object")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	obj, err := NewObject(class, th.VM.Registry.Resolve)
	if err != nil {
		t.Fatalf("NewObject: %v", err)
	}
	ref := NewObjectReference(obj)
	if ref.IsNull() {
		t.Fatalf("a constructed object reference should not be null")
	}
	got, err := ref.ToObject()
	if err != nil {
		t.Fatalf("ToObject: %v", err)
	}
	if got != obj {
		t.Fatalf("ToObject() returned a different *Object than was constructed")
	}
	if _, err := ref.ToArray(); err == nil {
		t.Fatalf("expected an error converting an object reference to an array")
	}
	if ref.ClassName() != "java/lang/Object" {
		t.Fatalf("ClassName() = %q, want java/lang/Object", ref.ClassName())
	}
	if ref.Monitor == nil {
		t.Fatalf("NewObjectReference should attach a monitor")
	}
}

func TestReferenceArrayClassName(t *testing.T) {
	a, err := NewArray(ArrayInt, 2, "")
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	ref := NewArrayReference(a)
	if ref.ClassName() != "[I" {
		t.Fatalf("ClassName() = %q, want [I", ref.ClassName())
	}
}
