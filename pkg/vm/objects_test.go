package vm

import (
	"testing"

	"github.com/sago35/hotspotlite/pkg/classfile"
)

func TestFindStaticOwnClass(t *testing.T) {
	c := NewNativeClass("test/Leaf", "java/lang/Object")
	c.PutStatic("count", "I", IntValue(3))
	owner, v, ok := findStatic(c, "count", "I")
	if !ok || owner != c || v.Int != 3 {
		t.Fatalf("findStatic on the declaring class itself should succeed")
	}
}

func TestFindStaticWalksSuperclass(t *testing.T) {
	loader := &fakeLoader{classes: map[string]*classfile.ClassFile{
		"test/Child":  classFileExtending("test/Child", "test/Parent"),
		"test/Parent": classFileExtending("test/Parent", "java/lang/Object"),
	}}
	r := NewClassRegistry(loader)
	globalResolve = r.Resolve

	parent, err := r.Resolve("test/Parent")
	if err != nil {
		t.Fatalf("Resolve(Parent): %v", err)
	}
	parent.PutStatic("shared", "I", IntValue(42))

	child, err := r.Resolve("test/Child")
	if err != nil {
		t.Fatalf("Resolve(Child): %v", err)
	}
	owner, v, ok := findStatic(child, "shared", "I")
	if !ok {
		t.Fatalf("findStatic should find an inherited static through the subclass")
	}
	if owner != parent {
		t.Fatalf("findStatic should report the declaring superclass as owner")
	}
	if v.Int != 42 {
		t.Fatalf("got %d, want 42", v.Int)
	}
}

func TestFindStaticMissingField(t *testing.T) {
	c := NewNativeClass("test/Leaf", "java/lang/Object")
	if _, _, ok := findStatic(c, "nope", "I"); ok {
		t.Fatalf("findStatic should report not-found for an undeclared field")
	}
}
