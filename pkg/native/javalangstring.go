package native

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/sago35/hotspotlite/pkg/vm"
)

func init() {
	vm.RegisterNativeClass("java/lang/String", "length", "()I", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		ref, err := args[0].AsReference()
		if err != nil {
			return nil, err
		}
		s, err := goString(ref)
		if err != nil {
			return nil, err
		}
		return []vm.Value{vm.IntValue(int32(len([]rune(s))))}, nil
	})

	vm.RegisterNativeClass("java/lang/String", "charAt", "(I)C", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		ref, err := args[0].AsReference()
		if err != nil {
			return nil, err
		}
		s, err := goString(ref)
		if err != nil {
			return nil, err
		}
		idx, err := args[1].AsInt()
		if err != nil {
			return nil, err
		}
		runes := []rune(s)
		if idx < 0 || int(idx) >= len(runes) {
			return nil, fmt.Errorf("StringIndexOutOfBoundsException: index %d, length %d", idx, len(runes))
		}
		return []vm.Value{vm.CharValue(int32(runes[idx]))}, nil
	})

	vm.RegisterNativeClass("java/lang/String", "equals", "(Ljava/lang/Object;)Z", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		ref, err := args[0].AsReference()
		if err != nil {
			return nil, err
		}
		s, err := goString(ref)
		if err != nil {
			return nil, err
		}
		other, err := args[1].AsReference()
		if err != nil {
			return nil, err
		}
		result := int32(0)
		if os, ok := tryGoString(other); ok && os == s {
			result = 1
		}
		return []vm.Value{vm.IntValue(result)}, nil
	})

	vm.RegisterNativeClass("java/lang/String", "concat", "(Ljava/lang/String;)Ljava/lang/String;", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		ref, err := args[0].AsReference()
		if err != nil {
			return nil, err
		}
		s, err := goString(ref)
		if err != nil {
			return nil, err
		}
		otherRef, err := args[1].AsReference()
		if err != nil {
			return nil, err
		}
		other, err := goString(otherRef)
		if err != nil {
			return nil, err
		}
		return []vm.Value{javaString(t, s+other)}, nil
	})

	vm.RegisterNativeClass("java/lang/String", "substring", "(I)Ljava/lang/String;", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		ref, err := args[0].AsReference()
		if err != nil {
			return nil, err
		}
		s, err := goString(ref)
		if err != nil {
			return nil, err
		}
		begin, err := args[1].AsInt()
		if err != nil {
			return nil, err
		}
		runes := []rune(s)
		if begin < 0 || int(begin) > len(runes) {
			return nil, fmt.Errorf("StringIndexOutOfBoundsException: begin %d, length %d", begin, len(runes))
		}
		return []vm.Value{javaString(t, string(runes[begin:]))}, nil
	})

	vm.RegisterNativeClass("java/lang/String", "substring", "(II)Ljava/lang/String;", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		ref, err := args[0].AsReference()
		if err != nil {
			return nil, err
		}
		s, err := goString(ref)
		if err != nil {
			return nil, err
		}
		begin, err := args[1].AsInt()
		if err != nil {
			return nil, err
		}
		end, err := args[2].AsInt()
		if err != nil {
			return nil, err
		}
		runes := []rune(s)
		if begin < 0 || end < begin || int(end) > len(runes) {
			return nil, fmt.Errorf("StringIndexOutOfBoundsException: begin %d, end %d, length %d", begin, end, len(runes))
		}
		return []vm.Value{javaString(t, string(runes[begin:end]))}, nil
	})

	vm.RegisterNativeClass("java/lang/String", "toString", "()Ljava/lang/String;", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		return []vm.Value{args[0]}, nil
	})

	vm.RegisterNativeClass("java/lang/String", "hashCode", "()I", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		ref, err := args[0].AsReference()
		if err != nil {
			return nil, err
		}
		s, err := goString(ref)
		if err != nil {
			return nil, err
		}
		return []vm.Value{vm.IntValue(javaStringHash(s))}, nil
	})

	vm.RegisterNativeClass("java/lang/String", "compareTo", "(Ljava/lang/String;)I", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		ref, err := args[0].AsReference()
		if err != nil {
			return nil, err
		}
		s, err := goString(ref)
		if err != nil {
			return nil, err
		}
		otherRef, err := args[1].AsReference()
		if err != nil {
			return nil, err
		}
		other, err := goString(otherRef)
		if err != nil {
			return nil, err
		}
		return []vm.Value{vm.IntValue(int32(strings.Compare(s, other)))}, nil
	})

	vm.RegisterNativeClass("java/lang/String", "isEmpty", "()Z", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		ref, err := args[0].AsReference()
		if err != nil {
			return nil, err
		}
		s, err := goString(ref)
		if err != nil {
			return nil, err
		}
		result := int32(0)
		if len(s) == 0 {
			result = 1
		}
		return []vm.Value{vm.IntValue(result)}, nil
	})

	registerStringValueOf()
}

// javaStringHash reproduces java.lang.String.hashCode's documented
// polynomial: s[0]*31^(n-1) + ... + s[n-1], over UTF-16 code units.
func javaStringHash(s string) int32 {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(u)
	}
	return h
}

func registerStringValueOf() {
	vm.RegisterNativeClass("java/lang/String", "valueOf", "(I)Ljava/lang/String;", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		n, err := args[0].AsInt()
		if err != nil {
			return nil, err
		}
		return []vm.Value{javaString(t, fmt.Sprintf("%d", n))}, nil
	})
	vm.RegisterNativeClass("java/lang/String", "valueOf", "(J)Ljava/lang/String;", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		n, err := args[0].AsLong()
		if err != nil {
			return nil, err
		}
		return []vm.Value{javaString(t, fmt.Sprintf("%d", n))}, nil
	})
	vm.RegisterNativeClass("java/lang/String", "valueOf", "(Z)Ljava/lang/String;", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		n, err := args[0].AsInt()
		if err != nil {
			return nil, err
		}
		s := "false"
		if n != 0 {
			s = "true"
		}
		return []vm.Value{javaString(t, s)}, nil
	})
	vm.RegisterNativeClass("java/lang/String", "valueOf", "(C)Ljava/lang/String;", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		n, err := args[0].AsInt()
		if err != nil {
			return nil, err
		}
		return []vm.Value{javaString(t, string(rune(n)))}, nil
	})
	vm.RegisterNativeClass("java/lang/String", "valueOf", "(Ljava/lang/Object;)Ljava/lang/String;", func(t *vm.Thread, args []vm.Value) ([]vm.Value, error) {
		ref, err := args[0].AsReference()
		if err != nil {
			return nil, err
		}
		s, err := printableArg(vm.RefValue(ref))
		if err != nil {
			return nil, err
		}
		return []vm.Value{javaString(t, s)}, nil
	})
}
