package vm

import (
	"fmt"

	"github.com/sago35/hotspotlite/pkg/classfile"
)

func (t *Thread) execNew(f *Frame, instr classfile.Instruction) error {
	cf := f.Class.ClassFile()
	if cf == nil {
		return fmt.Errorf("native class has no constant pool to resolve a class reference from")
	}
	name, err := classfile.GetClassName(cf.ConstantPool, uint16(instr.Index))
	if err != nil {
		return err
	}
	class, err := t.VM.Registry.Resolve(name)
	if err != nil {
		return err
	}
	obj, err := NewObject(class, t.VM.Registry.Resolve)
	if err != nil {
		return err
	}
	return pushThen(f, RefValue(NewObjectReference(obj)))
}

func (t *Thread) execNewarray(f *Frame, instr classfile.Instruction) error {
	lenVal, err := f.Pop()
	if err != nil {
		return err
	}
	n, err := lenVal.AsInt()
	if err != nil {
		return err
	}
	kind, err := AtypeToArrayKind(uint8(instr.Index))
	if err != nil {
		return err
	}
	arr, err := NewArray(kind, n, "")
	if err != nil {
		return err
	}
	return pushThen(f, RefValue(NewArrayReference(arr)))
}

func (t *Thread) execAnewarray(f *Frame, instr classfile.Instruction) error {
	lenVal, err := f.Pop()
	if err != nil {
		return err
	}
	n, err := lenVal.AsInt()
	if err != nil {
		return err
	}
	cf := f.Class.ClassFile()
	if cf == nil {
		return fmt.Errorf("native class has no constant pool to resolve a class reference from")
	}
	componentName, err := classfile.GetClassName(cf.ConstantPool, uint16(instr.Index))
	if err != nil {
		return err
	}
	// A class name becomes an L...; descriptor; an array class name is
	// already a descriptor.
	component := componentName
	if len(component) == 0 || component[0] != '[' {
		component = "L" + component + ";"
	}
	arr, err := NewArray(ArrayRef, n, component)
	if err != nil {
		return err
	}
	return pushThen(f, RefValue(NewArrayReference(arr)))
}

func (t *Thread) execMultianewarray(f *Frame, instr classfile.Instruction) error {
	dims := int(instr.Dims)
	counts := make([]int32, dims)
	for i := dims - 1; i >= 0; i-- {
		v, err := f.Pop()
		if err != nil {
			return err
		}
		n, err := v.AsInt()
		if err != nil {
			return err
		}
		counts[i] = n
	}
	cf := f.Class.ClassFile()
	if cf == nil {
		return fmt.Errorf("native class has no constant pool to resolve a class reference from")
	}
	descriptor, err := classfile.GetClassName(cf.ConstantPool, uint16(instr.Index))
	if err != nil {
		return err
	}
	ref, err := buildMultiArray(descriptor, counts)
	if err != nil {
		return err
	}
	return pushThen(f, RefValue(ref))
}

// buildMultiArray recursively constructs a multi-dimensional array from its
// full descriptor (e.g. "[[I") and per-dimension lengths.
func buildMultiArray(descriptor string, counts []int32) (*Reference, error) {
	if len(descriptor) == 0 || descriptor[0] != '[' {
		return nil, fmt.Errorf("multianewarray: not an array descriptor: %s", descriptor)
	}
	component := descriptor[1:]
	n := counts[0]
	if len(counts) == 1 {
		return newLeafArray(component, n)
	}
	arr, err := NewArray(ArrayRef, n, component)
	if err != nil {
		return nil, err
	}
	for i := int32(0); i < n; i++ {
		sub, err := buildMultiArray(component, counts[1:])
		if err != nil {
			return nil, err
		}
		arr.Ref[i] = sub
	}
	return NewArrayReference(arr), nil
}

func newLeafArray(componentDescriptor string, n int32) (*Reference, error) {
	if len(componentDescriptor) == 0 {
		return nil, fmt.Errorf("multianewarray: empty component descriptor")
	}
	switch componentDescriptor[0] {
	case 'Z':
		arr, err := NewArray(ArrayBool, n, "")
		return wrapOrErr(arr, err)
	case 'C':
		arr, err := NewArray(ArrayChar, n, "")
		return wrapOrErr(arr, err)
	case 'F':
		arr, err := NewArray(ArrayFloat, n, "")
		return wrapOrErr(arr, err)
	case 'D':
		arr, err := NewArray(ArrayDouble, n, "")
		return wrapOrErr(arr, err)
	case 'B':
		arr, err := NewArray(ArrayByte, n, "")
		return wrapOrErr(arr, err)
	case 'S':
		arr, err := NewArray(ArrayShort, n, "")
		return wrapOrErr(arr, err)
	case 'I':
		arr, err := NewArray(ArrayInt, n, "")
		return wrapOrErr(arr, err)
	case 'J':
		arr, err := NewArray(ArrayLong, n, "")
		return wrapOrErr(arr, err)
	case 'L', '[':
		arr, err := NewArray(ArrayRef, n, componentDescriptor)
		return wrapOrErr(arr, err)
	default:
		return nil, fmt.Errorf("multianewarray: unknown component descriptor %q", componentDescriptor)
	}
}

func wrapOrErr(arr *Array, err error) (*Reference, error) {
	if err != nil {
		return nil, err
	}
	return NewArrayReference(arr), nil
}

func (t *Thread) execAthrow(f *Frame) error {
	v, err := f.Pop()
	if err != nil {
		return err
	}
	ref, err := v.AsReference()
	if err != nil {
		return err
	}
	if ref.IsNull() {
		return fmt.Errorf("NullPointerException: athrow with null")
	}
	return NewJavaException(ref)
}

func (t *Thread) execCheckcast(f *Frame, instr classfile.Instruction) error {
	cf := f.Class.ClassFile()
	if cf == nil {
		return fmt.Errorf("native class has no constant pool to resolve a class reference from")
	}
	targetName, err := classfile.GetClassName(cf.ConstantPool, uint16(instr.Index))
	if err != nil {
		return err
	}
	v, err := f.Peek()
	if err != nil {
		return err
	}
	ref, err := v.AsReference()
	if err != nil {
		return err
	}
	if !isAssignableTo(ref, targetName, t) {
		return fmt.Errorf("ClassCastException: %s cannot be cast to %s", ref.ClassName(), targetName)
	}
	return f.IncPC()
}

func (t *Thread) execInstanceof(f *Frame, instr classfile.Instruction) error {
	cf := f.Class.ClassFile()
	if cf == nil {
		return fmt.Errorf("native class has no constant pool to resolve a class reference from")
	}
	targetName, err := classfile.GetClassName(cf.ConstantPool, uint16(instr.Index))
	if err != nil {
		return err
	}
	v, err := f.Pop()
	if err != nil {
		return err
	}
	ref, err := v.AsReference()
	if err != nil {
		return err
	}
	result := int32(0)
	if !ref.IsNull() && isAssignableTo(ref, targetName, t) {
		result = 1
	}
	return pushThen(f, IntValue(result))
}

func (t *Thread) execMonitorenter(f *Frame) error {
	v, err := f.Pop()
	if err != nil {
		return err
	}
	ref, err := v.AsReference()
	if err != nil {
		return err
	}
	if ref.IsNull() {
		return fmt.Errorf("NullPointerException: monitorenter on null")
	}
	if !ref.Monitor.TryEnter(t.ID) {
		t.State = ThreadBlockedOnMonitor
		t.WaitingOn = ref.Monitor
		// Do not advance PC: the scheduler retries this same instruction
		// once the monitor frees up.
		return nil
	}
	return f.IncPC()
}

func (t *Thread) execMonitorexit(f *Frame) error {
	v, err := f.Pop()
	if err != nil {
		return err
	}
	ref, err := v.AsReference()
	if err != nil {
		return err
	}
	if ref.IsNull() {
		return fmt.Errorf("NullPointerException: monitorexit on null")
	}
	if err := ref.Monitor.TryExit(t.ID); err != nil {
		return err
	}
	return f.IncPC()
}

func (t *Thread) execReturn(op uint8) error {
	var result *Value
	if op != classfile.OpReturn {
		frame := t.CurrentFrame()
		v, err := frame.Pop()
		if err != nil {
			return err
		}
		result = &v
	}
	current, err := t.PopFrame()
	if err != nil {
		return err
	}
	releaseSynchronizedMonitor(current, t)
	caller := t.CurrentFrame()
	if caller == nil {
		return nil // thread's entry method returned; VM.Run notices Depth()==0
	}
	if result != nil {
		if err := caller.Push(*result); err != nil {
			return err
		}
	}
	return caller.IncPC()
}
