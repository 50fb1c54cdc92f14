package vm

import (
	"fmt"
	"math"

	"github.com/sago35/hotspotlite/pkg/classfile"
	"github.com/sirupsen/logrus"
)

// Step executes exactly one instruction on the thread's current frame,
// advancing PC (or replacing the current frame on return/invoke) as a
// side effect. Any failure of the instruction is converted by raise into a
// Java exception and handed to unwind before Step returns. A Go error
// return is fatal to the thread: either the frame itself is unusable (no
// frame, PC past the end) or unwind found no handler on any frame, in which
// case the error is that uncaught *JavaException.
func (t *Thread) Step() error {
	frame := t.CurrentFrame()
	if frame == nil {
		return fmt.Errorf("thread %d: step with no active frame", t.ID)
	}
	if frame.AtEnd() {
		return fmt.Errorf("thread %d: program counter ran off the end of %s.%s", t.ID, frame.Class.Name(), frame.Method.Name)
	}

	instr := frame.Instruction()
	logrus.Debugf("thread %d: pc=%d opcode=0x%02x", t.ID, frame.PC, instr.Opcode)
	err := t.execute(frame, instr)
	if err == nil {
		return nil
	}

	je := t.raise(err)
	if unwindErr := t.unwind(je); unwindErr != nil {
		if _, ok := unwindErr.(*JavaException); ok {
			return unwindErr
		}
		return unwindErr
	}
	return nil
}

func (t *Thread) execute(f *Frame, instr classfile.Instruction) error {
	switch instr.Opcode {
	case classfile.OpNop:
		return f.IncPC()

	case classfile.OpAconstNull:
		return pushThen(f, NullValue())
	case classfile.OpIconstM1:
		return pushThen(f, IntValue(-1))
	case classfile.OpIconst0:
		return pushThen(f, IntValue(0))
	case classfile.OpIconst1:
		return pushThen(f, IntValue(1))
	case classfile.OpIconst2:
		return pushThen(f, IntValue(2))
	case classfile.OpIconst3:
		return pushThen(f, IntValue(3))
	case classfile.OpIconst4:
		return pushThen(f, IntValue(4))
	case classfile.OpIconst5:
		return pushThen(f, IntValue(5))
	case classfile.OpLconst0:
		return pushThen(f, LongValue(0))
	case classfile.OpLconst1:
		return pushThen(f, LongValue(1))
	case classfile.OpFconst0:
		return pushThen(f, FloatValue(0))
	case classfile.OpFconst1:
		return pushThen(f, FloatValue(1))
	case classfile.OpFconst2:
		return pushThen(f, FloatValue(2))
	case classfile.OpDconst0:
		return pushThen(f, DoubleValue(0))
	case classfile.OpDconst1:
		return pushThen(f, DoubleValue(1))
	case classfile.OpBipush:
		return pushThen(f, IntValue(instr.IVal))
	case classfile.OpSipush:
		return pushThen(f, IntValue(instr.IVal))

	case classfile.OpLdc, classfile.OpLdcW, classfile.OpLdc2W:
		return t.execLdc(f, instr)

	case classfile.OpIload, classfile.OpIload0, classfile.OpIload1, classfile.OpIload2, classfile.OpIload3:
		return t.execLoad(f, instr, loadIndex(instr, classfile.OpIload, classfile.OpIload0))
	case classfile.OpLload, classfile.OpLload0, classfile.OpLload1, classfile.OpLload2, classfile.OpLload3:
		return t.execLoad(f, instr, loadIndex(instr, classfile.OpLload, classfile.OpLload0))
	case classfile.OpFload, classfile.OpFload0, classfile.OpFload1, classfile.OpFload2, classfile.OpFload3:
		return t.execLoad(f, instr, loadIndex(instr, classfile.OpFload, classfile.OpFload0))
	case classfile.OpDload, classfile.OpDload0, classfile.OpDload1, classfile.OpDload2, classfile.OpDload3:
		return t.execLoad(f, instr, loadIndex(instr, classfile.OpDload, classfile.OpDload0))
	case classfile.OpAload, classfile.OpAload0, classfile.OpAload1, classfile.OpAload2, classfile.OpAload3:
		return t.execLoad(f, instr, loadIndex(instr, classfile.OpAload, classfile.OpAload0))

	case classfile.OpIstore, classfile.OpIstore0, classfile.OpIstore1, classfile.OpIstore2, classfile.OpIstore3:
		return t.execStore(f, loadIndex(instr, classfile.OpIstore, classfile.OpIstore0))
	case classfile.OpLstore, classfile.OpLstore0, classfile.OpLstore1, classfile.OpLstore2, classfile.OpLstore3:
		return t.execStore(f, loadIndex(instr, classfile.OpLstore, classfile.OpLstore0))
	case classfile.OpFstore, classfile.OpFstore0, classfile.OpFstore1, classfile.OpFstore2, classfile.OpFstore3:
		return t.execStore(f, loadIndex(instr, classfile.OpFstore, classfile.OpFstore0))
	case classfile.OpDstore, classfile.OpDstore0, classfile.OpDstore1, classfile.OpDstore2, classfile.OpDstore3:
		return t.execStore(f, loadIndex(instr, classfile.OpDstore, classfile.OpDstore0))
	case classfile.OpAstore, classfile.OpAstore0, classfile.OpAstore1, classfile.OpAstore2, classfile.OpAstore3:
		return t.execStore(f, loadIndex(instr, classfile.OpAstore, classfile.OpAstore0))

	case classfile.OpIaload, classfile.OpLaload, classfile.OpFaload, classfile.OpDaload,
		classfile.OpAaload, classfile.OpBaload, classfile.OpCaload, classfile.OpSaload:
		return t.execArrayLoad(f, instr.Opcode)

	case classfile.OpIastore, classfile.OpLastore, classfile.OpFastore, classfile.OpDastore,
		classfile.OpAastore, classfile.OpBastore, classfile.OpCastore, classfile.OpSastore:
		return t.execArrayStore(f, instr.Opcode)

	case classfile.OpPop:
		if _, err := f.Pop(); err != nil {
			return err
		}
		return f.IncPC()
	case classfile.OpPop2:
		return execPop2(f)
	case classfile.OpDup:
		v, err := f.Peek()
		if err != nil {
			return err
		}
		return pushThen(f, v)
	case classfile.OpDupX1:
		return execDupX1(f)
	case classfile.OpDupX2:
		return execDupX2(f)
	case classfile.OpDup2:
		return execDup2(f)
	case classfile.OpDup2X1:
		return execDup2X1(f)
	case classfile.OpDup2X2:
		return execDup2X2(f)
	case classfile.OpSwap:
		return execSwap(f)

	case classfile.OpIadd, classfile.OpLadd, classfile.OpFadd, classfile.OpDadd,
		classfile.OpIsub, classfile.OpLsub, classfile.OpFsub, classfile.OpDsub,
		classfile.OpImul, classfile.OpLmul, classfile.OpFmul, classfile.OpDmul,
		classfile.OpIdiv, classfile.OpLdiv, classfile.OpFdiv, classfile.OpDdiv,
		classfile.OpIrem, classfile.OpLrem, classfile.OpFrem, classfile.OpDrem,
		classfile.OpIshl, classfile.OpLshl, classfile.OpIshr, classfile.OpLshr,
		classfile.OpIushr, classfile.OpLushr,
		classfile.OpIand, classfile.OpLand, classfile.OpIor, classfile.OpLor,
		classfile.OpIxor, classfile.OpLxor:
		return t.execBinary(f, instr.Opcode)

	case classfile.OpIneg, classfile.OpLneg, classfile.OpFneg, classfile.OpDneg:
		return execUnaryNeg(f, instr.Opcode)

	case classfile.OpIinc:
		v, err := f.GetLocal(int(instr.Index))
		if err != nil {
			return err
		}
		n, err := v.AsInt()
		if err != nil {
			return err
		}
		if err := f.SetLocal(int(instr.Index), IntValue(n+instr.IVal2)); err != nil {
			return err
		}
		return f.IncPC()

	case classfile.OpI2l, classfile.OpI2f, classfile.OpI2d,
		classfile.OpL2i, classfile.OpL2f, classfile.OpL2d,
		classfile.OpF2i, classfile.OpF2l, classfile.OpF2d,
		classfile.OpD2i, classfile.OpD2l, classfile.OpD2f,
		classfile.OpI2b, classfile.OpI2c, classfile.OpI2s:
		return execConvert(f, instr.Opcode)

	case classfile.OpLcmp, classfile.OpFcmpl, classfile.OpFcmpg, classfile.OpDcmpl, classfile.OpDcmpg:
		return execCompare(f, instr.Opcode)

	case classfile.OpIfeq, classfile.OpIfne, classfile.OpIflt, classfile.OpIfge, classfile.OpIfgt, classfile.OpIfle:
		return execIfUnary(f, instr)
	case classfile.OpIfIcmpeq, classfile.OpIfIcmpne, classfile.OpIfIcmplt, classfile.OpIfIcmpge, classfile.OpIfIcmpgt, classfile.OpIfIcmple:
		return execIfIcmp(f, instr)
	case classfile.OpIfAcmpeq, classfile.OpIfAcmpne:
		return execIfAcmp(f, instr)
	case classfile.OpIfnull, classfile.OpIfnonnull:
		return execIfNull(f, instr)

	case classfile.OpGoto, classfile.OpGotoW:
		return f.SetPC(int(instr.IVal))

	case classfile.OpJsr, classfile.OpJsrW:
		if err := pushThen(f, ReturnAddressValue(uint16(f.PC+1))); err != nil {
			return err
		}
		return f.SetPC(int(instr.IVal))
	case classfile.OpRet:
		v, err := f.GetLocal(int(instr.Index))
		if err != nil {
			return err
		}
		ret, err := v.AsReturnAddress()
		if err != nil {
			return err
		}
		return f.SetPC(int(ret))

	case classfile.OpTableswitch:
		return execTableswitch(f, instr)
	case classfile.OpLookupswitch:
		return execLookupswitch(f, instr)

	case classfile.OpIreturn, classfile.OpLreturn, classfile.OpFreturn, classfile.OpDreturn, classfile.OpAreturn, classfile.OpReturn:
		return t.execReturn(instr.Opcode)

	case classfile.OpGetstatic:
		return t.execGetstatic(f, instr)
	case classfile.OpPutstatic:
		return t.execPutstatic(f, instr)
	case classfile.OpGetfield:
		return t.execGetfield(f, instr)
	case classfile.OpPutfield:
		return t.execPutfield(f, instr)

	case classfile.OpInvokevirtual:
		return t.execInvokeVirtual(f, instr)
	case classfile.OpInvokespecial:
		return t.execInvokeSpecial(f, instr)
	case classfile.OpInvokestatic:
		return t.execInvokeStatic(f, instr)
	case classfile.OpInvokeinterface:
		return t.execInvokeInterface(f, instr)
	case classfile.OpInvokedynamic:
		// No bootstrap-method/call-site machinery is implemented; surfaced
		// as a Java-visible exception (via Step's raise/unwind) rather than
		// a driver crash, since a caller may legitimately wrap the call site
		// in a try/catch.
		return fmt.Errorf("UnsupportedOperationException: invokedynamic has no bootstrap-method support in this core")

	case classfile.OpNew:
		return t.execNew(f, instr)
	case classfile.OpNewarray:
		return t.execNewarray(f, instr)
	case classfile.OpAnewarray:
		return t.execAnewarray(f, instr)
	case classfile.OpMultianewarray:
		return t.execMultianewarray(f, instr)
	case classfile.OpArraylength:
		return execArraylength(f)
	case classfile.OpAthrow:
		return t.execAthrow(f)
	case classfile.OpCheckcast:
		return t.execCheckcast(f, instr)
	case classfile.OpInstanceof:
		return t.execInstanceof(f, instr)
	case classfile.OpMonitorenter:
		return t.execMonitorenter(f)
	case classfile.OpMonitorexit:
		return t.execMonitorexit(f)

	case classfile.OpBreakpoint, classfile.OpImpdep1, classfile.OpImpdep2:
		return fmt.Errorf("reserved opcode 0x%02x executed", instr.Opcode)

	default:
		return fmt.Errorf("unimplemented opcode 0x%02x", instr.Opcode)
	}
}

func pushThen(f *Frame, v Value) error {
	if err := f.Push(v); err != nil {
		return err
	}
	return f.IncPC()
}

// loadIndex resolves a load/store family's local variable index, whether
// it came from the explicit-index form (base opcode, operand in
// instr.Index) or one of the four _0.._3 shorthand opcodes.
func loadIndex(instr classfile.Instruction, baseOp, zeroOp uint8) int {
	if instr.Opcode == baseOp {
		return int(instr.Index)
	}
	return int(instr.Opcode - zeroOp)
}

func (t *Thread) execLoad(f *Frame, instr classfile.Instruction, index int) error {
	v, err := f.GetLocal(index)
	if err != nil {
		return err
	}
	return pushThen(f, v)
}

func (t *Thread) execStore(f *Frame, index int) error {
	v, err := f.Pop()
	if err != nil {
		return err
	}
	if err := f.SetLocal(index, v); err != nil {
		return err
	}
	return f.IncPC()
}

func (t *Thread) execLdc(f *Frame, instr classfile.Instruction) error {
	cf := f.Class.ClassFile()
	if cf == nil || int(instr.Index) >= len(cf.ConstantPool) {
		return fmt.Errorf("ldc: constant pool index %d out of range", instr.Index)
	}
	entry := cf.ConstantPool[instr.Index]
	wide := instr.Opcode == classfile.OpLdc2W
	switch entry.(type) {
	case *classfile.ConstantLong, *classfile.ConstantDouble:
		if !wide {
			return fmt.Errorf("IllegalConstantLoad: ldc/ldc_w cannot load a Long or Double constant, use ldc2_w")
		}
	default:
		if wide {
			return fmt.Errorf("IllegalConstantLoad: ldc2_w can only load a Long or Double constant")
		}
	}
	var v Value
	switch e := entry.(type) {
	case *classfile.ConstantInteger:
		v = IntValue(e.Value)
	case *classfile.ConstantFloat:
		v = FloatValue(e.Value)
	case *classfile.ConstantLong:
		v = LongValue(e.Value)
	case *classfile.ConstantDouble:
		v = DoubleValue(e.Value)
	case *classfile.ConstantString:
		s, err := classfile.GetUtf8(cf.ConstantPool, e.StringIndex)
		if err != nil {
			return err
		}
		v = RefValue(t.VM.InternString(s))
	case *classfile.ConstantClass:
		name, err := classfile.GetClassName(cf.ConstantPool, e.NameIndex)
		if err != nil {
			return err
		}
		class, err := t.VM.Registry.Resolve(name)
		if err != nil {
			return err
		}
		v = RefValue(NewInterfaceReference(&class))
	default:
		return fmt.Errorf("ldc: constant pool entry at %d is not loadable", instr.Index)
	}
	return pushThen(f, v)
}

func execDupX1(f *Frame) error {
	v1, err := f.Pop()
	if err != nil {
		return err
	}
	v2, err := f.Pop()
	if err != nil {
		return err
	}
	for _, v := range []Value{v1, v2, v1} {
		if err := f.Push(v); err != nil {
			return err
		}
	}
	return f.IncPC()
}

func execDupX2(f *Frame) error {
	v1, err := f.Pop()
	if err != nil {
		return err
	}
	v2, err := f.Pop()
	if err != nil {
		return err
	}
	v3, err := f.Pop()
	if err != nil {
		return err
	}
	for _, v := range []Value{v1, v3, v2, v1} {
		if err := f.Push(v); err != nil {
			return err
		}
	}
	return f.IncPC()
}

// execPop2 implements the JVM spec's two forms: a single computational-type-2
// value (long/double, one Value entry in this representation), or two
// computational-type-1 values.
func execPop2(f *Frame) error {
	v1, err := f.Pop()
	if err != nil {
		return err
	}
	if !v1.IsComputationalType2() {
		if _, err := f.Pop(); err != nil {
			return err
		}
	}
	return f.IncPC()
}

// execDup2 implements the JVM spec's two forms: duplicate a single
// computational-type-2 value, or duplicate the top two
// computational-type-1 values as a pair.
func execDup2(f *Frame) error {
	v1, err := f.Pop()
	if err != nil {
		return err
	}
	if v1.IsComputationalType2() {
		return pushAllThen(f, v1, v1)
	}
	v2, err := f.Pop()
	if err != nil {
		return err
	}
	return pushAllThen(f, v2, v1, v2, v1)
}

func execDup2X1(f *Frame) error {
	v1, err := f.Pop()
	if err != nil {
		return err
	}
	v2, err := f.Pop()
	if err != nil {
		return err
	}
	if v1.IsComputationalType2() {
		return pushAllThen(f, v1, v2, v1)
	}
	v3, err := f.Pop()
	if err != nil {
		return err
	}
	return pushAllThen(f, v2, v1, v3, v2, v1)
}

func execDup2X2(f *Frame) error {
	v1, err := f.Pop()
	if err != nil {
		return err
	}
	v2, err := f.Pop()
	if err != nil {
		return err
	}
	if v1.IsComputationalType2() {
		if v2.IsComputationalType2() {
			// Form 4: two computational-type-2 values.
			return pushAllThen(f, v1, v2, v1)
		}
		// Form 2: v1 is type 2, v2/v3 are type 1.
		v3, err := f.Pop()
		if err != nil {
			return err
		}
		return pushAllThen(f, v1, v3, v2, v1)
	}
	v3, err := f.Pop()
	if err != nil {
		return err
	}
	if v3.IsComputationalType2() {
		// Form 3: v1/v2 are type 1, v3 is type 2.
		return pushAllThen(f, v2, v1, v3, v2, v1)
	}
	// Form 1: all four values are type 1.
	v4, err := f.Pop()
	if err != nil {
		return err
	}
	return pushAllThen(f, v2, v1, v4, v3, v2, v1)
}

// pushAllThen pushes each value in order, then advances the frame's PC the
// way every other instruction handler does on success.
func pushAllThen(f *Frame, vs ...Value) error {
	for _, v := range vs {
		if err := f.Push(v); err != nil {
			return err
		}
	}
	return f.IncPC()
}

func execSwap(f *Frame) error {
	v1, err := f.Pop()
	if err != nil {
		return err
	}
	v2, err := f.Pop()
	if err != nil {
		return err
	}
	if err := f.Push(v1); err != nil {
		return err
	}
	if err := f.Push(v2); err != nil {
		return err
	}
	return f.IncPC()
}

func execUnaryNeg(f *Frame, op uint8) error {
	v, err := f.Pop()
	if err != nil {
		return err
	}
	var result Value
	switch op {
	case classfile.OpIneg:
		n, err := v.AsInt()
		if err != nil {
			return err
		}
		result = IntValue(-n)
	case classfile.OpLneg:
		n, err := v.AsLong()
		if err != nil {
			return err
		}
		result = LongValue(-n)
	case classfile.OpFneg:
		n, err := v.AsFloat()
		if err != nil {
			return err
		}
		result = FloatValue(-n)
	case classfile.OpDneg:
		n, err := v.AsDouble()
		if err != nil {
			return err
		}
		result = DoubleValue(-n)
	}
	return pushThen(f, result)
}

func execConvert(f *Frame, op uint8) error {
	v, err := f.Pop()
	if err != nil {
		return err
	}
	var result Value
	switch op {
	case classfile.OpI2l:
		n, err := v.AsInt()
		if err != nil {
			return err
		}
		result = LongValue(int64(n))
	case classfile.OpI2f:
		n, err := v.AsInt()
		if err != nil {
			return err
		}
		result = FloatValue(float32(n))
	case classfile.OpI2d:
		n, err := v.AsInt()
		if err != nil {
			return err
		}
		result = DoubleValue(float64(n))
	case classfile.OpL2i:
		n, err := v.AsLong()
		if err != nil {
			return err
		}
		result = IntValue(int32(n))
	case classfile.OpL2f:
		n, err := v.AsLong()
		if err != nil {
			return err
		}
		result = FloatValue(float32(n))
	case classfile.OpL2d:
		n, err := v.AsLong()
		if err != nil {
			return err
		}
		result = DoubleValue(float64(n))
	case classfile.OpF2i:
		n, err := v.AsFloat()
		if err != nil {
			return err
		}
		result = IntValue(floatToInt(n))
	case classfile.OpF2l:
		n, err := v.AsFloat()
		if err != nil {
			return err
		}
		result = LongValue(floatToLong(n))
	case classfile.OpF2d:
		n, err := v.AsFloat()
		if err != nil {
			return err
		}
		result = DoubleValue(float64(n))
	case classfile.OpD2i:
		n, err := v.AsDouble()
		if err != nil {
			return err
		}
		result = IntValue(doubleToInt(n))
	case classfile.OpD2l:
		n, err := v.AsDouble()
		if err != nil {
			return err
		}
		result = LongValue(doubleToLong(n))
	case classfile.OpD2f:
		n, err := v.AsDouble()
		if err != nil {
			return err
		}
		result = FloatValue(float32(n))
	case classfile.OpI2b:
		n, err := v.AsInt()
		if err != nil {
			return err
		}
		result = IntValue(int32(int8(n)))
	case classfile.OpI2c:
		n, err := v.AsInt()
		if err != nil {
			return err
		}
		result = IntValue(int32(uint16(n)))
	case classfile.OpI2s:
		n, err := v.AsInt()
		if err != nil {
			return err
		}
		result = IntValue(int32(int16(n)))
	}
	return pushThen(f, result)
}

// floatToInt/floatToLong/doubleToInt/doubleToLong implement the narrowing
// conversion rules for NaN (-> 0) and out-of-range saturation, per the
// format's documented f2i/f2l/d2i/d2l semantics (Go's built-in float-to-int
// conversion is undefined on overflow, so these cannot just be a cast).
func floatToInt(v float32) int32 {
	if math.IsNaN(float64(v)) {
		return 0
	}
	if v >= float32(math.MaxInt32) {
		return math.MaxInt32
	}
	if v <= float32(math.MinInt32) {
		return math.MinInt32
	}
	return int32(v)
}

func floatToLong(v float32) int64 {
	if math.IsNaN(float64(v)) {
		return 0
	}
	if float64(v) >= float64(math.MaxInt64) {
		return math.MaxInt64
	}
	if float64(v) <= float64(math.MinInt64) {
		return math.MinInt64
	}
	return int64(v)
}

func doubleToInt(v float64) int32 {
	if math.IsNaN(v) {
		return 0
	}
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	if v <= math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}

func doubleToLong(v float64) int64 {
	if math.IsNaN(v) {
		return 0
	}
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	if v <= math.MinInt64 {
		return math.MinInt64
	}
	return int64(v)
}

func execCompare(f *Frame, op uint8) error {
	v2, err := f.Pop()
	if err != nil {
		return err
	}
	v1, err := f.Pop()
	if err != nil {
		return err
	}
	var result int32
	switch op {
	case classfile.OpLcmp:
		a, err := v1.AsLong()
		if err != nil {
			return err
		}
		b, err := v2.AsLong()
		if err != nil {
			return err
		}
		result = cmp64(a, b)
	case classfile.OpFcmpl, classfile.OpFcmpg:
		a, err := v1.AsFloat()
		if err != nil {
			return err
		}
		b, err := v2.AsFloat()
		if err != nil {
			return err
		}
		if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
			if op == classfile.OpFcmpl {
				result = -1
			} else {
				result = 1
			}
		} else {
			result = cmpFloat(a, b)
		}
	case classfile.OpDcmpl, classfile.OpDcmpg:
		a, err := v1.AsDouble()
		if err != nil {
			return err
		}
		b, err := v2.AsDouble()
		if err != nil {
			return err
		}
		if math.IsNaN(a) || math.IsNaN(b) {
			if op == classfile.OpDcmpl {
				result = -1
			} else {
				result = 1
			}
		} else {
			result = cmpDouble(a, b)
		}
	}
	return pushThen(f, IntValue(result))
}

func cmp64(a, b int64) int32 {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func cmpFloat(a, b float32) int32 {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func cmpDouble(a, b float64) int32 {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func execIfUnary(f *Frame, instr classfile.Instruction) error {
	v, err := f.Pop()
	if err != nil {
		return err
	}
	n, err := v.AsInt()
	if err != nil {
		return err
	}
	taken := false
	switch instr.Opcode {
	case classfile.OpIfeq:
		taken = n == 0
	case classfile.OpIfne:
		taken = n != 0
	case classfile.OpIflt:
		taken = n < 0
	case classfile.OpIfge:
		taken = n >= 0
	case classfile.OpIfgt:
		taken = n > 0
	case classfile.OpIfle:
		taken = n <= 0
	}
	return branch(f, instr, taken)
}

func execIfIcmp(f *Frame, instr classfile.Instruction) error {
	v2, err := f.Pop()
	if err != nil {
		return err
	}
	v1, err := f.Pop()
	if err != nil {
		return err
	}
	a, err := v1.AsInt()
	if err != nil {
		return err
	}
	b, err := v2.AsInt()
	if err != nil {
		return err
	}
	taken := false
	switch instr.Opcode {
	case classfile.OpIfIcmpeq:
		taken = a == b
	case classfile.OpIfIcmpne:
		taken = a != b
	case classfile.OpIfIcmplt:
		taken = a < b
	case classfile.OpIfIcmpge:
		taken = a >= b
	case classfile.OpIfIcmpgt:
		taken = a > b
	case classfile.OpIfIcmple:
		taken = a <= b
	}
	return branch(f, instr, taken)
}

func execIfAcmp(f *Frame, instr classfile.Instruction) error {
	v2, err := f.Pop()
	if err != nil {
		return err
	}
	v1, err := f.Pop()
	if err != nil {
		return err
	}
	r1, err := v1.AsReference()
	if err != nil {
		return err
	}
	r2, err := v2.AsReference()
	if err != nil {
		return err
	}
	same := r1 == r2 || (r1.IsNull() && r2.IsNull())
	taken := same
	if instr.Opcode == classfile.OpIfAcmpne {
		taken = !same
	}
	return branch(f, instr, taken)
}

func execIfNull(f *Frame, instr classfile.Instruction) error {
	v, err := f.Pop()
	if err != nil {
		return err
	}
	r, err := v.AsReference()
	if err != nil {
		return err
	}
	taken := r.IsNull()
	if instr.Opcode == classfile.OpIfnonnull {
		taken = !r.IsNull()
	}
	return branch(f, instr, taken)
}

func branch(f *Frame, instr classfile.Instruction, taken bool) error {
	if taken {
		return f.SetPC(int(instr.IVal))
	}
	return f.IncPC()
}

func execTableswitch(f *Frame, instr classfile.Instruction) error {
	v, err := f.Pop()
	if err != nil {
		return err
	}
	n, err := v.AsInt()
	if err != nil {
		return err
	}
	if n < instr.Low || n > instr.High {
		return f.SetPC(instr.Default)
	}
	return f.SetPC(instr.Targets[n-instr.Low])
}

func execLookupswitch(f *Frame, instr classfile.Instruction) error {
	v, err := f.Pop()
	if err != nil {
		return err
	}
	n, err := v.AsInt()
	if err != nil {
		return err
	}
	for i, m := range instr.Matches {
		if m == n {
			return f.SetPC(instr.Targets[i])
		}
	}
	return f.SetPC(instr.Default)
}
