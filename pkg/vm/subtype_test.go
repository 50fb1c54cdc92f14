package vm

import "testing"

func newTestThread() *Thread {
	v := NewVM(nil)
	return NewThread(1, "main", v)
}

func TestClassIsSubtypeOfChain(t *testing.T) {
	th := newTestThread()
	runtimeExc, err := th.VM.Registry.Resolve("java/lang/RuntimeException")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	cases := []struct {
		target string
		want   bool
	}{
		{"java/lang/RuntimeException", true},
		{"java/lang/Exception", true},
		{"java/lang/Throwable", true},
		{"java/lang/Object", true},
		{"java/lang/String", false},
	}
	for _, c := range cases {
		if got := classIsSubtypeOf(runtimeExc, c.target, th); got != c.want {
			t.Errorf("classIsSubtypeOf(RuntimeException, %q) = %v, want %v", c.target, got, c.want)
		}
	}
}

func TestIsAssignableToNullIsAlwaysTrue(t *testing.T) {
	th := newTestThread()
	if !isAssignableTo(NullReference(), "java/lang/String", th) {
		t.Fatalf("a null reference should be assignable to any type")
	}
}

func TestArrayIsSubtypeOfObjectAndCloneable(t *testing.T) {
	th := newTestThread()
	a, err := NewArray(ArrayInt, 1, "")
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	for _, target := range []string{"java/lang/Object", "java/lang/Cloneable", "java/io/Serializable", "[I"} {
		if !arrayIsSubtypeOf(a, target, th) {
			t.Errorf("arrayIsSubtypeOf(int[], %q) = false, want true", target)
		}
	}
	if arrayIsSubtypeOf(a, "[J", th) {
		t.Errorf("an int[] should not be assignable to long[]")
	}
}

func TestArrayIsSubtypeOfCovariantReferenceArrays(t *testing.T) {
	th := newTestThread()
	a, err := NewArray(ArrayRef, 1, "Ljava/lang/RuntimeException;")
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	if !arrayIsSubtypeOf(a, "[Ljava/lang/Exception;", th) {
		t.Errorf("RuntimeException[] should be assignable to Exception[]")
	}
	if arrayIsSubtypeOf(a, "[Ljava/lang/String;", th) {
		t.Errorf("RuntimeException[] should not be assignable to String[]")
	}
}
