package vm

import "testing"

func TestNewNativeClass(t *testing.T) {
	c := NewNativeClass("java/lang/String", "java/lang/Object")
	if c.Name() != "java/lang/String" {
		t.Errorf("Name() = %q, want java/lang/String", c.Name())
	}
	if c.SuperName() != "java/lang/Object" {
		t.Errorf("SuperName() = %q, want java/lang/Object", c.SuperName())
	}
	if c.ClassFile() != nil {
		t.Errorf("a native class should report a nil ClassFile")
	}
	if c.IsInterface() {
		t.Errorf("a native class should never report IsInterface true")
	}
	if c.AccessFlags() == 0 {
		t.Errorf("AccessFlags() should fall back to a nonzero default for native classes")
	}
	if c.Initialized() {
		t.Errorf("a freshly built class should not start initialized")
	}
	c.MarkInitialized()
	if !c.Initialized() {
		t.Errorf("MarkInitialized should make Initialized report true")
	}
}

func TestCustomClassStaticFields(t *testing.T) {
	c := NewNativeClass("test/Holder", "java/lang/Object")
	if _, ok := c.GetStatic("count", "I"); ok {
		t.Errorf("an unset static should not be found")
	}
	c.PutStatic("count", "I", IntValue(7))
	v, ok := c.GetStatic("count", "I")
	if !ok {
		t.Fatalf("expected the static field to be found after PutStatic")
	}
	if v.Int != 7 {
		t.Errorf("GetStatic = %d, want 7", v.Int)
	}
}
