// Package native implements the host-side bodies of the bootstrap classes
// this core does not interpret from a .class file: java/lang/System,
// java/lang/String, java/lang/StringBuilder and java/io/PrintStream. Every
// file here registers its methods with pkg/vm's native registry from an
// init() function, the way database/sql drivers register themselves, so
// that cmd/hotspotlite only needs to blank-import this package to wire
// everything up.
package native

import (
	"fmt"

	"github.com/sago35/hotspotlite/pkg/vm"
)

// goString extracts the Go string payload of a java/lang/String object
// reference, failing loudly if ref is not actually a String (a bug in
// this core, since the interpreter's own type checking should have caught
// a descriptor mismatch before a native ever saw the value).
func goString(ref *vm.Reference) (string, error) {
	if ref.IsNull() {
		return "", fmt.Errorf("NullPointerException")
	}
	obj, err := ref.ToObject()
	if err != nil {
		return "", err
	}
	s, ok := obj.Native.(string)
	if !ok {
		return "", fmt.Errorf("object of class %s is not a native string", obj.Class.Name())
	}
	return s, nil
}

func javaString(t *vm.Thread, s string) vm.Value {
	return vm.RefValue(t.VM.InternString(s))
}
