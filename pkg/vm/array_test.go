package vm

import "testing"

func TestNewArrayNegativeLength(t *testing.T) {
	if _, err := NewArray(ArrayInt, -1, ""); err == nil {
		t.Fatalf("expected NegativeArraySizeException")
	}
}

func TestNewArrayZeroInitializes(t *testing.T) {
	a, err := NewArray(ArrayRef, 3, "java/lang/String;")
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	if a.Length() != 3 {
		t.Fatalf("Length() = %d, want 3", a.Length())
	}
	for i, r := range a.Ref {
		if !r.IsNull() {
			t.Errorf("element %d not null-initialized", i)
		}
	}
}

func TestArrayDescriptor(t *testing.T) {
	cases := []struct {
		kind ArrayKind
		want string
	}{
		{ArrayInt, "[I"},
		{ArrayBool, "[Z"},
		{ArrayLong, "[J"},
	}
	for _, c := range cases {
		a, err := NewArray(c.kind, 1, "")
		if err != nil {
			t.Fatalf("NewArray(%v): %v", c.kind, err)
		}
		if got := a.Descriptor(); got != c.want {
			t.Errorf("Descriptor() = %q, want %q", got, c.want)
		}
	}
}

func TestAtypeToArrayKindRejectsUnknown(t *testing.T) {
	if _, err := AtypeToArrayKind(200); err == nil {
		t.Fatalf("expected an error for an unknown atype")
	}
	if k, err := AtypeToArrayKind(10); err != nil || k != ArrayInt {
		t.Fatalf("AtypeToArrayKind(10) = %v, %v; want ArrayInt, nil", k, err)
	}
}
