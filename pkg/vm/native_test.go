package vm

import "testing"

func TestRegisterAndLookupNative(t *testing.T) {
	called := false
	RegisterNativeClass("test/NativeThing", "doIt", "()V", func(m *Thread, args []Value) ([]Value, error) {
		called = true
		return nil, nil
	})
	h, ok := LookupNative("test/NativeThing", "doIt", "()V")
	if !ok {
		t.Fatalf("expected the just-registered handler to be found")
	}
	if _, err := h(nil, nil); err != nil {
		t.Fatalf("handler returned an error: %v", err)
	}
	if !called {
		t.Fatalf("the registered handler should have run")
	}
}

func TestLookupNativeMiss(t *testing.T) {
	if _, ok := LookupNative("test/NoSuchClass", "missing", "()V"); ok {
		t.Fatalf("expected no handler for an unregistered method")
	}
}

func TestRegisterLoadHookRuns(t *testing.T) {
	seen := ""
	RegisterLoadHook("test/HookedClass", func(vm *VM, c Class) {
		seen = c.Name()
	})
	c := NewNativeClass("test/HookedClass", "java/lang/Object")
	runLoadHook(nil, c)
	if seen != "test/HookedClass" {
		t.Fatalf("load hook did not run, seen = %q", seen)
	}
}

func TestRunLoadHookNoopWhenUnregistered(t *testing.T) {
	c := NewNativeClass("test/NoHookHere", "java/lang/Object")
	runLoadHook(nil, c) // must not panic
}
