package native

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sago35/hotspotlite/pkg/vm"
)

func init() {
	vm.RegisterLoadHook("java/lang/System", wireSystemStatics)

	vm.RegisterNativeClass("java/lang/System", "currentTimeMillis", "()J", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		return []vm.Value{vm.LongValue(time.Now().UnixMilli())}, nil
	})
	vm.RegisterNativeClass("java/lang/System", "nanoTime", "()J", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		return []vm.Value{vm.LongValue(time.Now().UnixNano())}, nil
	})
	vm.RegisterNativeClass("java/lang/System", "exit", "(I)V", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		code, err := args[0].AsInt()
		if err != nil {
			return nil, err
		}
		os.Exit(int(code))
		return nil, nil
	})
	vm.RegisterNativeClass("java/lang/System", "identityHashCode", "(Ljava/lang/Object;)I", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		ref, err := args[0].AsReference()
		if err != nil {
			return nil, err
		}
		if ref.IsNull() {
			return []vm.Value{vm.IntValue(0)}, nil
		}
		return []vm.Value{vm.IntValue(identityHash(ref))}, nil
	})

	registerPrintStream()
}

// identityHash derives a stable, process-local hash from a reference's
// pointer identity. Go gives no portable numeric address, so the hash is
// synthesized from fmt's %p formatting rather than unsafe.Pointer
// arithmetic, trading a little performance for staying within normal Go.
func identityHash(ref *vm.Reference) int32 {
	s := fmt.Sprintf("%p", ref)
	var h int32
	for i := 0; i < len(s); i++ {
		h = h*31 + int32(s[i])
	}
	if h < 0 {
		h = -h
	}
	return h
}

// wireSystemStatics runs once java/lang/System is first resolved,
// populating its out/err statics with PrintStream objects backed by the
// process's real stdout/stderr (or vm.Stdout, for tests that redirect it).
func wireSystemStatics(v *vm.VM, c vm.Class) {
	psClass, err := v.Registry.Resolve("java/io/PrintStream")
	if err != nil {
		return
	}
	out, _ := vm.NewObject(psClass, v.Registry.Resolve)
	out.Native = v.Stdout
	c.PutStatic("out", "Ljava/io/PrintStream;", vm.RefValue(vm.NewObjectReference(out)))

	errObj, _ := vm.NewObject(psClass, v.Registry.Resolve)
	errObj.Native = io.Writer(os.Stderr)
	c.PutStatic("err", "Ljava/io/PrintStream;", vm.RefValue(vm.NewObjectReference(errObj)))
}

func printStreamWriter(ref *vm.Reference) (io.Writer, error) {
	if ref.IsNull() {
		return nil, fmt.Errorf("NullPointerException")
	}
	obj, err := ref.ToObject()
	if err != nil {
		return nil, err
	}
	w, ok := obj.Native.(io.Writer)
	if !ok {
		return nil, fmt.Errorf("object of class %s is not a native PrintStream", obj.Class.Name())
	}
	return w, nil
}

func registerPrintStream() {
	printlnArg := func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		recv, err := args[0].AsReference()
		if err != nil {
			return nil, err
		}
		w, err := printStreamWriter(recv)
		if err != nil {
			return nil, err
		}
		s, err := printableArg(args[1])
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(w, s)
		return nil, nil
	}
	for _, descriptor := range []string{
		"(Ljava/lang/String;)V", "(I)V", "(J)V", "(D)V", "(F)V", "(C)V", "(Ljava/lang/Object;)V",
	} {
		vm.RegisterNativeClass("java/io/PrintStream", "println", descriptor, printlnArg)
	}
	vm.RegisterNativeClass("java/io/PrintStream", "println", "(Z)V", printlnBool)
	vm.RegisterNativeClass("java/io/PrintStream", "println", "()V", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		recv, err := args[0].AsReference()
		if err != nil {
			return nil, err
		}
		w, err := printStreamWriter(recv)
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(w)
		return nil, nil
	})

	printArg := func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		recv, err := args[0].AsReference()
		if err != nil {
			return nil, err
		}
		w, err := printStreamWriter(recv)
		if err != nil {
			return nil, err
		}
		s, err := printableArg(args[1])
		if err != nil {
			return nil, err
		}
		fmt.Fprint(w, s)
		return nil, nil
	}
	for _, descriptor := range []string{
		"(Ljava/lang/String;)V", "(I)V", "(J)V", "(D)V", "(F)V", "(C)V", "(Ljava/lang/Object;)V",
	} {
		vm.RegisterNativeClass("java/io/PrintStream", "print", descriptor, printArg)
	}
	vm.RegisterNativeClass("java/io/PrintStream", "print", "(Z)V", printBool)
}

// printBoolArg renders a (Z)V argument as Java's "true"/"false" rather than
// the 0/1 a generic KindByte would fall through to, since this core's Value
// representation stores boolean and byte in the same Kind.
func printBoolArg(v vm.Value) (string, error) {
	n, err := v.AsInt()
	if err != nil {
		return "", err
	}
	if n != 0 {
		return "true", nil
	}
	return "false", nil
}

func printlnBool(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
	recv, err := args[0].AsReference()
	if err != nil {
		return nil, err
	}
	w, err := printStreamWriter(recv)
	if err != nil {
		return nil, err
	}
	s, err := printBoolArg(args[1])
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(w, s)
	return nil, nil
}

func printBool(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
	recv, err := args[0].AsReference()
	if err != nil {
		return nil, err
	}
	w, err := printStreamWriter(recv)
	if err != nil {
		return nil, err
	}
	s, err := printBoolArg(args[1])
	if err != nil {
		return nil, err
	}
	fmt.Fprint(w, s)
	return nil, nil
}

// printableArg renders one println/print argument to a Go string the way
// PrintStream's overloads each do: strings pass through, primitives use
// their natural decimal/boolean text form, and object references fall back
// to a best-effort class-name rendering since this core does not dispatch
// toString() polymorphically from native code.
func printableArg(v vm.Value) (string, error) {
	switch v.Kind {
	case vm.KindReference:
		if v.Ref.IsNull() {
			return "null", nil
		}
		if s, ok := tryGoString(v.Ref); ok {
			return s, nil
		}
		return fmt.Sprintf("%s@%x", v.Ref.ClassName(), identityHash(v.Ref)), nil
	case vm.KindInt, vm.KindShort, vm.KindByte:
		n, err := v.AsInt()
		return fmt.Sprintf("%d", n), err
	case vm.KindChar:
		n, err := v.AsInt()
		return string(rune(n)), err
	case vm.KindLong:
		n, err := v.AsLong()
		return fmt.Sprintf("%d", n), err
	case vm.KindFloat:
		n, err := v.AsFloat()
		return fmt.Sprintf("%v", n), err
	case vm.KindDouble:
		n, err := v.AsDouble()
		return fmt.Sprintf("%v", n), err
	default:
		return "", fmt.Errorf("value of kind %v is not printable", v.Kind)
	}
}

func tryGoString(ref *vm.Reference) (string, bool) {
	obj, err := ref.ToObject()
	if err != nil {
		return "", false
	}
	s, ok := obj.Native.(string)
	return s, ok
}
