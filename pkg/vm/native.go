package vm

import "github.com/sirupsen/logrus"

// NativeHandler implements one ACC_NATIVE method. args holds the method's
// arguments in descriptor order (receiver first for instance methods,
// already resolved out of the caller's operand stack); it returns the
// method's result values (zero or one Value: this core has no multi-return
// natives) or an error, which the interpreter turns into a pending
// JavaException the same way any other thrown exception is handled.
type NativeHandler func(m *Thread, args []Value) ([]Value, error)

// nativeKey identifies one native method the way the class file format
// does: owning class, method name, method descriptor.
type nativeKey struct {
	class      string
	method     string
	descriptor string
}

var nativeRegistry = make(map[nativeKey]NativeHandler)

// RegisterNativeClass binds one native method implementation. Call it from
// an init() in the package providing the implementation (pkg/native does
// this for java/lang/System, java/lang/String, java/lang/StringBuilder);
// this mirrors database/sql's driver registration idiom and exists so that
// pkg/vm never has to import pkg/native, avoiding an import cycle since
// pkg/native needs the vm.Value/vm.Thread types.
func RegisterNativeClass(class, method, descriptor string, handler NativeHandler) {
	key := nativeKey{class, method, descriptor}
	if _, exists := nativeRegistry[key]; exists {
		logrus.Warnf("native handler for %s.%s%s registered more than once, overwriting", class, method, descriptor)
	}
	nativeRegistry[key] = handler
}

// LookupNative finds the handler for a native method, if one was
// registered. A native method with no registered handler is not a fatal
// decoder error: per the shim contract, the caller logs it and substitutes
// the method's zero return value rather than aborting the whole run, since
// an unimplemented corner of the standard library should not crash an
// otherwise-working program. Exported alongside RegisterNativeClass so
// pkg/native can assert its own handlers are wired up correctly in tests
// without going through a full interpreter dispatch.
func LookupNative(class, method, descriptor string) (NativeHandler, bool) {
	h, ok := nativeRegistry[nativeKey{class, method, descriptor}]
	return h, ok
}

// loadHooks runs once, right after a native stub class is first published
// to the registry, so pkg/native can attach host-side state (like wiring
// java/lang/System.out to the process's real stdout) that a plain
// zero-valued static field can't express.
var loadHooks = make(map[string]func(vm *VM, c Class))

func RegisterLoadHook(className string, hook func(vm *VM, c Class)) {
	loadHooks[className] = hook
}

func runLoadHook(vm *VM, c Class) {
	if h, ok := loadHooks[c.Name()]; ok {
		h(vm, c)
	}
}
