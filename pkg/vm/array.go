package vm

import "fmt"

// ArrayKind tags which primitive (or reference) slice an Array wraps.
// Values follow the class file format's newarray atype codes where one
// exists; ArrayRef (3) is not a real atype code (reference arrays are
// built by anewarray/multianewarray, not newarray) but is used here the
// same way the Rust implementation this grew from uses it: as the
// discriminant for the Ref variant.
type ArrayKind uint8

const (
	ArrayRef     ArrayKind = 3
	ArrayBool    ArrayKind = 4
	ArrayChar    ArrayKind = 5
	ArrayFloat   ArrayKind = 6
	ArrayDouble  ArrayKind = 7
	ArrayByte    ArrayKind = 8
	ArrayShort   ArrayKind = 9
	ArrayInt     ArrayKind = 10
	ArrayLong    ArrayKind = 11
)

// Array is the sum type over primitive element kinds plus a reference
// variant carrying its component descriptor (needed by checkcast/aastore
// compatibility checks).
type Array struct {
	Kind       ArrayKind
	Bool       []bool
	Char       []uint16
	Float      []float32
	Double     []float64
	Byte       []int8
	Short      []int16
	Int        []int32
	Long       []int64
	Ref        []*Reference
	ComponentDescriptor string // only set when Kind == ArrayRef
}

// NewArray zero-initializes an array of the given kind and length.
// NegativeArraySizeException is the caller's responsibility to raise
// before calling this (length is validated here too, defensively).
func NewArray(kind ArrayKind, length int32, componentDescriptor string) (*Array, error) {
	if length < 0 {
		return nil, fmt.Errorf("NegativeArraySizeException: %d", length)
	}
	n := int(length)
	switch kind {
	case ArrayBool:
		return &Array{Kind: kind, Bool: make([]bool, n)}, nil
	case ArrayChar:
		return &Array{Kind: kind, Char: make([]uint16, n)}, nil
	case ArrayFloat:
		return &Array{Kind: kind, Float: make([]float32, n)}, nil
	case ArrayDouble:
		return &Array{Kind: kind, Double: make([]float64, n)}, nil
	case ArrayByte:
		return &Array{Kind: kind, Byte: make([]int8, n)}, nil
	case ArrayShort:
		return &Array{Kind: kind, Short: make([]int16, n)}, nil
	case ArrayInt:
		return &Array{Kind: kind, Int: make([]int32, n)}, nil
	case ArrayLong:
		return &Array{Kind: kind, Long: make([]int64, n)}, nil
	case ArrayRef:
		refs := make([]*Reference, n)
		for i := range refs {
			refs[i] = NullReference()
		}
		return &Array{Kind: kind, Ref: refs, ComponentDescriptor: componentDescriptor}, nil
	default:
		return nil, fmt.Errorf("unknown array kind %d", kind)
	}
}

// Length returns the array's element count regardless of kind.
func (a *Array) Length() int32 {
	switch a.Kind {
	case ArrayBool:
		return int32(len(a.Bool))
	case ArrayChar:
		return int32(len(a.Char))
	case ArrayFloat:
		return int32(len(a.Float))
	case ArrayDouble:
		return int32(len(a.Double))
	case ArrayByte:
		return int32(len(a.Byte))
	case ArrayShort:
		return int32(len(a.Short))
	case ArrayInt:
		return int32(len(a.Int))
	case ArrayLong:
		return int32(len(a.Long))
	case ArrayRef:
		return int32(len(a.Ref))
	default:
		return 0
	}
}

func (a *Array) checkBounds(index int32) error {
	if index < 0 || index >= a.Length() {
		return fmt.Errorf("ArrayIndexOutOfBoundsException: index %d, length %d", index, a.Length())
	}
	return nil
}

// Descriptor returns the array's field descriptor, e.g. "[I" or
// "[Ljava/lang/String;".
func (a *Array) Descriptor() string {
	switch a.Kind {
	case ArrayBool:
		return "[Z"
	case ArrayChar:
		return "[C"
	case ArrayFloat:
		return "[F"
	case ArrayDouble:
		return "[D"
	case ArrayByte:
		return "[B"
	case ArrayShort:
		return "[S"
	case ArrayInt:
		return "[I"
	case ArrayLong:
		return "[J"
	case ArrayRef:
		return "[" + a.ComponentDescriptor
	default:
		return "[?"
	}
}

// AtypeToArrayKind maps a newarray atype operand to an ArrayKind.
func AtypeToArrayKind(atype uint8) (ArrayKind, error) {
	switch atype {
	case 4, 5, 6, 7, 8, 9, 10, 11:
		return ArrayKind(atype), nil
	default:
		return 0, fmt.Errorf("IllegalDescriptor: unknown newarray atype %d", atype)
	}
}
