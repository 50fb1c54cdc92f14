package vm

import "fmt"

// Kind tags a Value/VarValue with its computational type.
type Kind uint8

const (
	KindByte Kind = iota
	KindShort
	KindInt
	KindChar
	KindLong
	KindFloat
	KindDouble
	KindReturnAddress
	KindReference
	// kindLongHigh and kindDoubleHigh only ever appear in a VarValue's
	// locals array, occupying the slot after a Long/Double value, per
	// the "wide value occupies two adjacent slots" rule.
	kindLongHigh
	kindDoubleHigh
	// kindUninit pads a locals array up to an addressed index.
	kindUninit
)

// Value is the tagged union the operand stack and method arguments are
// built from. Byte/Short/Char are widened to 32 bits once on the stack, so
// they share the Int field; Long and Double are the computational-type-2
// kinds, everything else is type-1.
type Value struct {
	Kind   Kind
	Int    int32
	Long   int64
	Float  float32
	Double float64
	Ret    uint16
	Ref    *Reference
}

func IntValue(v int32) Value             { return Value{Kind: KindInt, Int: v} }
func ByteValue(v int32) Value            { return Value{Kind: KindByte, Int: v} }
func ShortValue(v int32) Value           { return Value{Kind: KindShort, Int: v} }
func CharValue(v int32) Value            { return Value{Kind: KindChar, Int: v} }
func LongValue(v int64) Value            { return Value{Kind: KindLong, Long: v} }
func FloatValue(v float32) Value         { return Value{Kind: KindFloat, Float: v} }
func DoubleValue(v float64) Value        { return Value{Kind: KindDouble, Double: v} }
func ReturnAddressValue(pc uint16) Value { return Value{Kind: KindReturnAddress, Ret: pc} }
func RefValue(r *Reference) Value        { return Value{Kind: KindReference, Ref: r} }
func NullValue() Value                   { return Value{Kind: KindReference, Ref: NullReference()} }

// IsComputationalType2 reports whether v occupies two stack slots.
func (v Value) IsComputationalType2() bool {
	return v.Kind == KindLong || v.Kind == KindDouble
}

func (v Value) AsInt() (int32, error) {
	switch v.Kind {
	case KindByte, KindShort, KindChar, KindInt:
		return v.Int, nil
	default:
		return 0, fmt.Errorf("IllegalCastToInt: value has kind %v", v.Kind)
	}
}

func (v Value) AsLong() (int64, error) {
	if v.Kind != KindLong {
		return 0, fmt.Errorf("IllegalCastToLong: value has kind %v", v.Kind)
	}
	return v.Long, nil
}

func (v Value) AsFloat() (float32, error) {
	if v.Kind != KindFloat {
		return 0, fmt.Errorf("IllegalCastToFloat: value has kind %v", v.Kind)
	}
	return v.Float, nil
}

func (v Value) AsDouble() (float64, error) {
	if v.Kind != KindDouble {
		return 0, fmt.Errorf("IllegalCastToDouble: value has kind %v", v.Kind)
	}
	return v.Double, nil
}

func (v Value) AsReturnAddress() (uint16, error) {
	if v.Kind != KindReturnAddress {
		return 0, fmt.Errorf("IllegalCastToReturnAddress: value has kind %v", v.Kind)
	}
	return v.Ret, nil
}

func (v Value) AsReference() (*Reference, error) {
	if v.Kind != KindReference {
		return nil, fmt.Errorf("IllegalCastToReference: value has kind %v", v.Kind)
	}
	return v.Ref, nil
}

func (v Value) IsReference() bool { return v.Kind == KindReference }

// ZeroValueForDescriptor returns the default (zero) Value for a field or
// local variable descriptor's first byte: B/Z -> Byte, C -> Char, D ->
// Double, F -> Float, I -> Int, J -> Long, S -> Short, L/[ -> null
// Reference.
func ZeroValueForDescriptor(descriptor string) Value {
	if descriptor == "" {
		return IntValue(0)
	}
	switch descriptor[0] {
	case 'B', 'Z':
		return ByteValue(0)
	case 'C':
		return CharValue(0)
	case 'D':
		return DoubleValue(0)
	case 'F':
		return FloatValue(0)
	case 'I':
		return IntValue(0)
	case 'J':
		return LongValue(0)
	case 'S':
		return ShortValue(0)
	case 'L', '[':
		return NullValue()
	default:
		return IntValue(0)
	}
}

// VarValue is a Value plus the high-slot sentinels a locals array needs so
// that a Long/Double at index i occupies both i and i+1 the way the class
// file format's local-variable addressing expects.
type VarValue struct {
	Value
}

func longHighSentinel() VarValue   { return VarValue{Value{Kind: kindLongHigh}} }
func doubleHighSentinel() VarValue { return VarValue{Value{Kind: kindDoubleHigh}} }
func uninitSentinel() VarValue     { return VarValue{Value{Kind: kindUninit}} }

func (v VarValue) IsUninit() bool { return v.Kind == kindUninit }

func (k Kind) String() string {
	switch k {
	case KindByte:
		return "byte"
	case KindShort:
		return "short"
	case KindInt:
		return "int"
	case KindChar:
		return "char"
	case KindLong:
		return "long"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindReturnAddress:
		return "returnAddress"
	case KindReference:
		return "reference"
	default:
		return "internal"
	}
}
