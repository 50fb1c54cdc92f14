package native

import (
	"fmt"
	"strings"

	"github.com/sago35/hotspotlite/pkg/vm"
)

func init() {
	vm.RegisterNativeClass("java/lang/StringBuilder", "<init>", "()V", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		obj, err := sbObject(args[0])
		if err != nil {
			return nil, err
		}
		obj.Native = &strings.Builder{}
		return nil, nil
	})

	vm.RegisterNativeClass("java/lang/StringBuilder", "<init>", "(Ljava/lang/String;)V", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		obj, err := sbObject(args[0])
		if err != nil {
			return nil, err
		}
		ref, err := args[1].AsReference()
		if err != nil {
			return nil, err
		}
		s, err := goString(ref)
		if err != nil {
			return nil, err
		}
		b := &strings.Builder{}
		b.WriteString(s)
		obj.Native = b
		return nil, nil
	})

	appendString := func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		b, err := sbBuilder(args[0])
		if err != nil {
			return nil, err
		}
		ref, err := args[1].AsReference()
		if err != nil {
			return nil, err
		}
		if ref.IsNull() {
			b.WriteString("null")
		} else {
			s, err := goString(ref)
			if err != nil {
				return nil, err
			}
			b.WriteString(s)
		}
		return []vm.Value{args[0]}, nil
	}
	vm.RegisterNativeClass("java/lang/StringBuilder", "append", "(Ljava/lang/String;)Ljava/lang/StringBuilder;", appendString)

	appendObject := func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		b, err := sbBuilder(args[0])
		if err != nil {
			return nil, err
		}
		s, err := printableArg(args[1])
		if err != nil {
			return nil, err
		}
		b.WriteString(s)
		return []vm.Value{args[0]}, nil
	}
	for _, descriptor := range []string{
		"(Ljava/lang/Object;)Ljava/lang/StringBuilder;",
		"(I)Ljava/lang/StringBuilder;",
		"(J)Ljava/lang/StringBuilder;",
		"(D)Ljava/lang/StringBuilder;",
		"(F)Ljava/lang/StringBuilder;",
		"(Z)Ljava/lang/StringBuilder;",
		"(C)Ljava/lang/StringBuilder;",
	} {
		vm.RegisterNativeClass("java/lang/StringBuilder", "append", descriptor, appendObject)
	}

	vm.RegisterNativeClass("java/lang/StringBuilder", "toString", "()Ljava/lang/String;", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		b, err := sbBuilder(args[0])
		if err != nil {
			return nil, err
		}
		return []vm.Value{javaString(t, b.String())}, nil
	})

	vm.RegisterNativeClass("java/lang/StringBuilder", "length", "()I", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		b, err := sbBuilder(args[0])
		if err != nil {
			return nil, err
		}
		return []vm.Value{vm.IntValue(int32(len([]rune(b.String()))))}, nil
	})
}

func sbObject(v vm.Value) (*vm.Object, error) {
	ref, err := v.AsReference()
	if err != nil {
		return nil, err
	}
	if ref.IsNull() {
		return nil, fmt.Errorf("NullPointerException")
	}
	return ref.ToObject()
}

func sbBuilder(v vm.Value) (*strings.Builder, error) {
	obj, err := sbObject(v)
	if err != nil {
		return nil, err
	}
	b, ok := obj.Native.(*strings.Builder)
	if !ok {
		return nil, fmt.Errorf("object of class %s is not a native StringBuilder", obj.Class.Name())
	}
	return b, nil
}
