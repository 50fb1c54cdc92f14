package vm

import (
	"fmt"
	"math"

	"github.com/sago35/hotspotlite/pkg/classfile"
)

func (t *Thread) execGetstatic(f *Frame, instr classfile.Instruction) error {
	fref, class, err := resolveFieldref(f, instr)
	if err != nil {
		return err
	}
	_, v, ok := findStatic(class, fref.FieldName, fref.Descriptor)
	if !ok {
		return fmt.Errorf("NoSuchFieldError: %s.%s", fref.ClassName, fref.FieldName)
	}
	return pushThen(f, v)
}

func (t *Thread) execPutstatic(f *Frame, instr classfile.Instruction) error {
	fref, class, err := resolveFieldref(f, instr)
	if err != nil {
		return err
	}
	v, err := f.Pop()
	if err != nil {
		return err
	}
	owner, _, ok := findStatic(class, fref.FieldName, fref.Descriptor)
	if !ok {
		return fmt.Errorf("NoSuchFieldError: %s.%s", fref.ClassName, fref.FieldName)
	}
	owner.PutStatic(fref.FieldName, fref.Descriptor, v)
	return f.IncPC()
}

// findStatic implements the field-resolution search order for a static
// reference: the class itself, then its declared interfaces (and their
// superinterfaces), then its superclass, recursively. It returns the class
// that actually declares the field, since an inherited static must be
// stored and fetched on its declaring class rather than the referencing
// subclass.
func findStatic(class Class, name, descriptor string) (Class, Value, bool) {
	if v, ok := class.GetStatic(name, descriptor); ok {
		return class, v, true
	}
	for _, ifaceName := range class.InterfaceNames() {
		iface, err := globalResolve(ifaceName)
		if err != nil {
			continue
		}
		if owner, v, ok := findStatic(iface, name, descriptor); ok {
			return owner, v, true
		}
	}
	if class.SuperName() != "" {
		super, err := globalResolve(class.SuperName())
		if err == nil {
			if owner, v, ok := findStatic(super, name, descriptor); ok {
				return owner, v, true
			}
		}
	}
	return nil, Value{}, false
}

func (t *Thread) execGetfield(f *Frame, instr classfile.Instruction) error {
	fref, _, err := resolveFieldref(f, instr)
	if err != nil {
		return err
	}
	objVal, err := f.Pop()
	if err != nil {
		return err
	}
	ref, err := objVal.AsReference()
	if err != nil {
		return err
	}
	if ref.IsNull() {
		return fmt.Errorf("NullPointerException: getfield %s on null", fref.FieldName)
	}
	obj, err := ref.ToObject()
	if err != nil {
		return err
	}
	v, ok := obj.GetField(fref.FieldName, fref.Descriptor)
	if !ok {
		return fmt.Errorf("NoSuchFieldError: %s.%s", fref.ClassName, fref.FieldName)
	}
	return pushThen(f, v)
}

func (t *Thread) execPutfield(f *Frame, instr classfile.Instruction) error {
	fref, _, err := resolveFieldref(f, instr)
	if err != nil {
		return err
	}
	v, err := f.Pop()
	if err != nil {
		return err
	}
	objVal, err := f.Pop()
	if err != nil {
		return err
	}
	ref, err := objVal.AsReference()
	if err != nil {
		return err
	}
	if ref.IsNull() {
		return fmt.Errorf("NullPointerException: putfield %s on null", fref.FieldName)
	}
	obj, err := ref.ToObject()
	if err != nil {
		return err
	}
	obj.PutField(fref.FieldName, fref.Descriptor, v)
	return f.IncPC()
}

func resolveFieldref(f *Frame, instr classfile.Instruction) (*classfile.FieldRefInfo, Class, error) {
	cf := f.Class.ClassFile()
	if cf == nil {
		return nil, nil, fmt.Errorf("native class has no constant pool to resolve a fieldref from")
	}
	fref, err := classfile.ResolveFieldref(cf.ConstantPool, uint16(instr.Index))
	if err != nil {
		return nil, nil, err
	}
	class, err := f.resolveRegistryClass(fref.ClassName)
	if err != nil {
		return nil, nil, err
	}
	return fref, class, nil
}

// resolveRegistryClass is a convenience bridge from a Frame back to the
// owning VM's registry; Frame itself carries no VM pointer, only Class, so
// this goes through the package-level globalResolve instead.
func (f *Frame) resolveRegistryClass(name string) (Class, error) {
	return globalResolve(name)
}

// globalResolve is set once by the active VM so Frame-scoped helpers (which
// predate having a Thread in scope in some call sites) can still reach the
// registry. Exactly one VM drives a process in this core, so a package
// variable is an acceptable shortcut; a host embedding multiple VMs in one
// process would need to thread the registry through explicitly instead.
var globalResolve func(name string) (Class, error)

func execArraylength(f *Frame) error {
	v, err := f.Pop()
	if err != nil {
		return err
	}
	ref, err := v.AsReference()
	if err != nil {
		return err
	}
	if ref.IsNull() {
		return fmt.Errorf("NullPointerException: arraylength on null")
	}
	arr, err := ref.ToArray()
	if err != nil {
		return err
	}
	return pushThen(f, IntValue(arr.Length()))
}

func (t *Thread) execArrayLoad(f *Frame, op uint8) error {
	idxVal, err := f.Pop()
	if err != nil {
		return err
	}
	idx, err := idxVal.AsInt()
	if err != nil {
		return err
	}
	arrVal, err := f.Pop()
	if err != nil {
		return err
	}
	ref, err := arrVal.AsReference()
	if err != nil {
		return err
	}
	if ref.IsNull() {
		return fmt.Errorf("NullPointerException: array load on null")
	}
	arr, err := ref.ToArray()
	if err != nil {
		return err
	}
	if err := arr.checkBounds(idx); err != nil {
		return err
	}
	var result Value
	switch op {
	case classfile.OpIaload:
		result = IntValue(arr.Int[idx])
	case classfile.OpLaload:
		result = LongValue(arr.Long[idx])
	case classfile.OpFaload:
		result = FloatValue(arr.Float[idx])
	case classfile.OpDaload:
		result = DoubleValue(arr.Double[idx])
	case classfile.OpAaload:
		result = RefValue(arr.Ref[idx])
	case classfile.OpBaload:
		result = IntValue(int32(arr.Byte[idx]))
	case classfile.OpCaload:
		result = IntValue(int32(arr.Char[idx]))
	case classfile.OpSaload:
		result = IntValue(int32(arr.Short[idx]))
	}
	return pushThen(f, result)
}

func (t *Thread) execArrayStore(f *Frame, op uint8) error {
	v, err := f.Pop()
	if err != nil {
		return err
	}
	idxVal, err := f.Pop()
	if err != nil {
		return err
	}
	idx, err := idxVal.AsInt()
	if err != nil {
		return err
	}
	arrVal, err := f.Pop()
	if err != nil {
		return err
	}
	ref, err := arrVal.AsReference()
	if err != nil {
		return err
	}
	if ref.IsNull() {
		return fmt.Errorf("NullPointerException: array store on null")
	}
	arr, err := ref.ToArray()
	if err != nil {
		return err
	}
	if err := arr.checkBounds(idx); err != nil {
		return err
	}
	switch op {
	case classfile.OpIastore:
		n, err := v.AsInt()
		if err != nil {
			return err
		}
		arr.Int[idx] = n
	case classfile.OpLastore:
		n, err := v.AsLong()
		if err != nil {
			return err
		}
		arr.Long[idx] = n
	case classfile.OpFastore:
		n, err := v.AsFloat()
		if err != nil {
			return err
		}
		arr.Float[idx] = n
	case classfile.OpDastore:
		n, err := v.AsDouble()
		if err != nil {
			return err
		}
		arr.Double[idx] = n
	case classfile.OpAastore:
		r, err := v.AsReference()
		if err != nil {
			return err
		}
		if !r.IsNull() && !isAssignableTo(r, componentClassName(arr.ComponentDescriptor), t) {
			return fmt.Errorf("ArrayStoreException: cannot store %s into %s", r.ClassName(), arr.Descriptor())
		}
		arr.Ref[idx] = r
	case classfile.OpBastore:
		n, err := v.AsInt()
		if err != nil {
			return err
		}
		arr.Byte[idx] = int8(n)
	case classfile.OpCastore:
		n, err := v.AsInt()
		if err != nil {
			return err
		}
		arr.Char[idx] = uint16(n)
	case classfile.OpSastore:
		n, err := v.AsInt()
		if err != nil {
			return err
		}
		arr.Short[idx] = int16(n)
	}
	return f.IncPC()
}

func componentClassName(descriptor string) string {
	if len(descriptor) > 1 && descriptor[0] == 'L' {
		return descriptor[1 : len(descriptor)-1]
	}
	return descriptor
}

func (t *Thread) execBinary(f *Frame, op uint8) error {
	v2, err := f.Pop()
	if err != nil {
		return err
	}
	v1, err := f.Pop()
	if err != nil {
		return err
	}
	result, err := binaryOp(op, v1, v2)
	if err != nil {
		return err
	}
	return pushThen(f, result)
}

func binaryOp(op uint8, v1, v2 Value) (Value, error) {
	switch op {
	case classfile.OpIadd, classfile.OpIsub, classfile.OpImul, classfile.OpIdiv, classfile.OpIrem,
		classfile.OpIshl, classfile.OpIshr, classfile.OpIushr, classfile.OpIand, classfile.OpIor, classfile.OpIxor:
		a, err := v1.AsInt()
		if err != nil {
			return Value{}, err
		}
		b, err := v2.AsInt()
		if err != nil {
			return Value{}, err
		}
		return intBinary(op, a, b)
	case classfile.OpLadd, classfile.OpLsub, classfile.OpLmul, classfile.OpLdiv, classfile.OpLrem,
		classfile.OpLshl, classfile.OpLshr, classfile.OpLushr, classfile.OpLand, classfile.OpLor, classfile.OpLxor:
		a, err := v1.AsLong()
		if err != nil {
			return Value{}, err
		}
		var b int64
		// shift amounts come from the right operand as an int, not a long
		if op == classfile.OpLshl || op == classfile.OpLshr || op == classfile.OpLushr {
			shiftAmt, err := v2.AsInt()
			if err != nil {
				return Value{}, err
			}
			b = int64(shiftAmt)
		} else {
			b, err = v2.AsLong()
			if err != nil {
				return Value{}, err
			}
		}
		return longBinary(op, a, b)
	case classfile.OpFadd, classfile.OpFsub, classfile.OpFmul, classfile.OpFdiv, classfile.OpFrem:
		a, err := v1.AsFloat()
		if err != nil {
			return Value{}, err
		}
		b, err := v2.AsFloat()
		if err != nil {
			return Value{}, err
		}
		return floatBinary(op, a, b), nil
	case classfile.OpDadd, classfile.OpDsub, classfile.OpDmul, classfile.OpDdiv, classfile.OpDrem:
		a, err := v1.AsDouble()
		if err != nil {
			return Value{}, err
		}
		b, err := v2.AsDouble()
		if err != nil {
			return Value{}, err
		}
		return doubleBinary(op, a, b), nil
	default:
		return Value{}, fmt.Errorf("unsupported binary opcode 0x%02x", op)
	}
}

func intBinary(op uint8, a, b int32) (Value, error) {
	switch op {
	case classfile.OpIadd:
		return IntValue(a + b), nil
	case classfile.OpIsub:
		return IntValue(a - b), nil
	case classfile.OpImul:
		return IntValue(a * b), nil
	case classfile.OpIdiv:
		if b == 0 {
			return Value{}, fmt.Errorf("ArithmeticException: / by zero")
		}
		return IntValue(a / b), nil
	case classfile.OpIrem:
		if b == 0 {
			return Value{}, fmt.Errorf("ArithmeticException: / by zero")
		}
		return IntValue(a % b), nil
	case classfile.OpIshl:
		return IntValue(a << (uint32(b) & 0x1f)), nil
	case classfile.OpIshr:
		return IntValue(a >> (uint32(b) & 0x1f)), nil
	case classfile.OpIushr:
		return IntValue(int32(uint32(a) >> (uint32(b) & 0x1f))), nil
	case classfile.OpIand:
		return IntValue(a & b), nil
	case classfile.OpIor:
		return IntValue(a | b), nil
	case classfile.OpIxor:
		return IntValue(a ^ b), nil
	}
	return Value{}, fmt.Errorf("unreachable int binary opcode 0x%02x", op)
}

func longBinary(op uint8, a, b int64) (Value, error) {
	switch op {
	case classfile.OpLadd:
		return LongValue(a + b), nil
	case classfile.OpLsub:
		return LongValue(a - b), nil
	case classfile.OpLmul:
		return LongValue(a * b), nil
	case classfile.OpLdiv:
		if b == 0 {
			return Value{}, fmt.Errorf("ArithmeticException: / by zero")
		}
		return LongValue(a / b), nil
	case classfile.OpLrem:
		if b == 0 {
			return Value{}, fmt.Errorf("ArithmeticException: / by zero")
		}
		return LongValue(a % b), nil
	case classfile.OpLshl:
		return LongValue(a << (uint64(b) & 0x3f)), nil
	case classfile.OpLshr:
		return LongValue(a >> (uint64(b) & 0x3f)), nil
	case classfile.OpLushr:
		return LongValue(int64(uint64(a) >> (uint64(b) & 0x3f))), nil
	case classfile.OpLand:
		return LongValue(a & b), nil
	case classfile.OpLor:
		return LongValue(a | b), nil
	case classfile.OpLxor:
		return LongValue(a ^ b), nil
	}
	return Value{}, fmt.Errorf("unreachable long binary opcode 0x%02x", op)
}

func floatBinary(op uint8, a, b float32) Value {
	switch op {
	case classfile.OpFadd:
		return FloatValue(a + b)
	case classfile.OpFsub:
		return FloatValue(a - b)
	case classfile.OpFmul:
		return FloatValue(a * b)
	case classfile.OpFdiv:
		return FloatValue(a / b)
	case classfile.OpFrem:
		return FloatValue(float32(math.Mod(float64(a), float64(b))))
	}
	return FloatValue(0)
}

func doubleBinary(op uint8, a, b float64) Value {
	switch op {
	case classfile.OpDadd:
		return DoubleValue(a + b)
	case classfile.OpDsub:
		return DoubleValue(a - b)
	case classfile.OpDmul:
		return DoubleValue(a * b)
	case classfile.OpDdiv:
		return DoubleValue(a / b)
	case classfile.OpDrem:
		return DoubleValue(math.Mod(a, b))
	}
	return DoubleValue(0)
}
