package native

import (
	"testing"

	"github.com/sago35/hotspotlite/pkg/vm"
)

func newTestVM() *vm.VM {
	return vm.NewVM(nil)
}

func call(t *testing.T, v *vm.VM, class, method, descriptor string, args ...vm.Value) []vm.Value {
	t.Helper()
	h, ok := vm.LookupNative(class, method, descriptor)
	if !ok {
		t.Fatalf("no native handler registered for %s.%s%s", class, method, descriptor)
	}
	th := vm.NewThread(0, "test", v)
	result, err := h(th, args)
	if err != nil {
		t.Fatalf("%s.%s%s: %v", class, method, descriptor, err)
	}
	return result
}

func TestStringLength(t *testing.T) {
	v := newTestVM()
	s := v.InternString("hello")
	got := call(t, v, "java/lang/String", "length", "()I", vm.RefValue(s))
	if got[0].Int != 5 {
		t.Errorf("length() = %d, want 5", got[0].Int)
	}
}

func TestStringCharAt(t *testing.T) {
	v := newTestVM()
	s := v.InternString("abc")
	got := call(t, v, "java/lang/String", "charAt", "(I)C", vm.RefValue(s), vm.IntValue(1))
	if got[0].Int != int32('b') {
		t.Errorf("charAt(1) = %d, want %d", got[0].Int, 'b')
	}
}

func TestStringCharAtOutOfBounds(t *testing.T) {
	v := newTestVM()
	s := v.InternString("abc")
	h, _ := vm.LookupNative("java/lang/String", "charAt", "(I)C")
	th := vm.NewThread(0, "test", v)
	if _, err := h(th, []vm.Value{vm.RefValue(s), vm.IntValue(10)}); err == nil {
		t.Fatalf("expected StringIndexOutOfBoundsException")
	}
}

func TestStringEquals(t *testing.T) {
	v := newTestVM()
	a := v.InternString("same")
	b := v.InternString("same")
	c := v.InternString("different")
	if got := call(t, v, "java/lang/String", "equals", "(Ljava/lang/Object;)Z", vm.RefValue(a), vm.RefValue(b)); got[0].Int != 1 {
		t.Errorf("equals on equal strings should return 1")
	}
	if got := call(t, v, "java/lang/String", "equals", "(Ljava/lang/Object;)Z", vm.RefValue(a), vm.RefValue(c)); got[0].Int != 0 {
		t.Errorf("equals on different strings should return 0")
	}
}

func TestStringConcat(t *testing.T) {
	v := newTestVM()
	a := v.InternString("foo")
	b := v.InternString("bar")
	got := call(t, v, "java/lang/String", "concat", "(Ljava/lang/String;)Ljava/lang/String;", vm.RefValue(a), vm.RefValue(b))
	obj, err := got[0].Ref.ToObject()
	if err != nil {
		t.Fatalf("ToObject: %v", err)
	}
	if obj.Native.(string) != "foobar" {
		t.Errorf("concat result = %q, want foobar", obj.Native)
	}
}

func TestStringSubstringOneArg(t *testing.T) {
	v := newTestVM()
	s := v.InternString("hello world")
	got := call(t, v, "java/lang/String", "substring", "(I)Ljava/lang/String;", vm.RefValue(s), vm.IntValue(6))
	obj, _ := got[0].Ref.ToObject()
	if obj.Native.(string) != "world" {
		t.Errorf("substring(6) = %q, want world", obj.Native)
	}
}

func TestStringSubstringTwoArg(t *testing.T) {
	v := newTestVM()
	s := v.InternString("hello world")
	got := call(t, v, "java/lang/String", "substring", "(II)Ljava/lang/String;", vm.RefValue(s), vm.IntValue(0), vm.IntValue(5))
	obj, _ := got[0].Ref.ToObject()
	if obj.Native.(string) != "hello" {
		t.Errorf("substring(0,5) = %q, want hello", obj.Native)
	}
}

func TestStringSubstringInvalidRange(t *testing.T) {
	v := newTestVM()
	s := v.InternString("hi")
	h, _ := vm.LookupNative("java/lang/String", "substring", "(II)Ljava/lang/String;")
	th := vm.NewThread(0, "test", v)
	if _, err := h(th, []vm.Value{vm.RefValue(s), vm.IntValue(1), vm.IntValue(0)}); err == nil {
		t.Fatalf("expected StringIndexOutOfBoundsException for end before begin")
	}
}

func TestStringHashCode(t *testing.T) {
	v := newTestVM()
	s := v.InternString("hello")
	got := call(t, v, "java/lang/String", "hashCode", "()I", vm.RefValue(s))
	// java.lang.String's documented hashCode for "hello" is 99162322.
	if got[0].Int != 99162322 {
		t.Errorf("hashCode(\"hello\") = %d, want 99162322", got[0].Int)
	}
}

func TestStringCompareTo(t *testing.T) {
	v := newTestVM()
	a := v.InternString("abc")
	b := v.InternString("abd")
	got := call(t, v, "java/lang/String", "compareTo", "(Ljava/lang/String;)I", vm.RefValue(a), vm.RefValue(b))
	if got[0].Int >= 0 {
		t.Errorf("compareTo should be negative when the receiver sorts first, got %d", got[0].Int)
	}
}

func TestStringIsEmpty(t *testing.T) {
	v := newTestVM()
	empty := v.InternString("")
	nonEmpty := v.InternString("x")
	if got := call(t, v, "java/lang/String", "isEmpty", "()Z", vm.RefValue(empty)); got[0].Int != 1 {
		t.Errorf("isEmpty on an empty string should return 1")
	}
	if got := call(t, v, "java/lang/String", "isEmpty", "()Z", vm.RefValue(nonEmpty)); got[0].Int != 0 {
		t.Errorf("isEmpty on a non-empty string should return 0")
	}
}

func TestStringValueOfInt(t *testing.T) {
	v := newTestVM()
	got := call(t, v, "java/lang/String", "valueOf", "(I)Ljava/lang/String;", vm.IntValue(42))
	obj, _ := got[0].Ref.ToObject()
	if obj.Native.(string) != "42" {
		t.Errorf("valueOf(42) = %q, want \"42\"", obj.Native)
	}
}

func TestStringValueOfBoolean(t *testing.T) {
	v := newTestVM()
	got := call(t, v, "java/lang/String", "valueOf", "(Z)Ljava/lang/String;", vm.IntValue(1))
	obj, _ := got[0].Ref.ToObject()
	if obj.Native.(string) != "true" {
		t.Errorf("valueOf(true) = %q, want \"true\"", obj.Native)
	}
}
