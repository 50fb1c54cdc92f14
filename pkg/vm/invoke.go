package vm

import (
	"fmt"
	"strings"

	"github.com/sago35/hotspotlite/pkg/classfile"
	"github.com/sirupsen/logrus"
)

func (t *Thread) execInvokeStatic(f *Frame, instr classfile.Instruction) error {
	mref, err := resolveMethodref(f, instr, false)
	if err != nil {
		return err
	}
	class, err := t.VM.Registry.Resolve(mref.ClassName)
	if err != nil {
		return err
	}
	// Native stub classes (System, String, ...) have no ClassFile at all and
	// are dispatched through the pkg/native registry instead; the
	// ACC_STATIC/interface-bit checks only apply to bytecode-backed methods.
	if _, ok := LookupNative(class.Name(), mref.MethodName, mref.Descriptor); !ok {
		owner, method, err := findMethod(class, mref.MethodName, mref.Descriptor)
		if err != nil {
			return err
		}
		if method.AccessFlags&classfile.AccStatic == 0 {
			return fmt.Errorf("IncompatibleMethodRefAndClass: invokestatic target %s.%s%s is not static", owner.Name(), mref.MethodName, mref.Descriptor)
		}
		if mref.IsInterface != owner.IsInterface() {
			return fmt.Errorf("IncompatibleMethodRefAndClass: invokestatic reference kind does not match %s's interface bit", owner.Name())
		}
	}
	params, _, err := parseMethodDescriptor(mref.Descriptor)
	if err != nil {
		return err
	}
	args, err := popArgs(f, params, false)
	if err != nil {
		return err
	}
	return t.dispatch(class, mref.MethodName, mref.Descriptor, args)
}

// execInvokeSpecial resolves a constructor call, a private method call, or
// a superclass method call. When the calling class has ACC_SUPER set (true
// for every class compiled since the original class file format version)
// and the referenced method is not <init>, and the referenced class is an
// actual superclass of the caller, resolution starts from the caller's
// superclass rather than literally the referenced class, per invokespecial's
// super-call redirect (JVM spec 6.5). Without that redirect, a subclass
// that itself overrides a grandparent's method would have its own override
// invoked by a `super.m()` call instead of the intended parent's.
func (t *Thread) execInvokeSpecial(f *Frame, instr classfile.Instruction) error {
	mref, err := resolveMethodref(f, instr, false)
	if err != nil {
		return err
	}
	class, err := t.VM.Registry.Resolve(mref.ClassName)
	if err != nil {
		return err
	}
	if mref.MethodName != "<init>" &&
		f.Class.AccessFlags()&classfile.AccSuper != 0 &&
		class.Name() != f.Class.Name() &&
		classIsSubtypeOf(f.Class, class.Name(), t) {
		if f.Class.SuperName() != "" {
			super, err := t.VM.Registry.Resolve(f.Class.SuperName())
			if err != nil {
				return err
			}
			class = super
		}
	}
	params, _, err := parseMethodDescriptor(mref.Descriptor)
	if err != nil {
		return err
	}
	args, err := popArgs(f, params, true)
	if err != nil {
		return err
	}
	return t.dispatch(class, mref.MethodName, mref.Descriptor, args)
}

func (t *Thread) execInvokeVirtual(f *Frame, instr classfile.Instruction) error {
	mref, err := resolveMethodref(f, instr, false)
	if err != nil {
		return err
	}
	params, _, err := parseMethodDescriptor(mref.Descriptor)
	if err != nil {
		return err
	}
	args, err := popArgs(f, params, true)
	if err != nil {
		return err
	}
	receiver, err := args[0].AsReference()
	if err != nil {
		return err
	}
	if receiver.IsNull() {
		return fmt.Errorf("NullPointerException: invokevirtual %s on null", mref.MethodName)
	}
	runtimeClass, err := runtimeClassOf(receiver)
	if err != nil {
		return err
	}
	return t.dispatch(runtimeClass, mref.MethodName, mref.Descriptor, args)
}

func (t *Thread) execInvokeInterface(f *Frame, instr classfile.Instruction) error {
	mref, err := resolveMethodref(f, instr, true)
	if err != nil {
		return err
	}
	params, _, err := parseMethodDescriptor(mref.Descriptor)
	if err != nil {
		return err
	}
	args, err := popArgs(f, params, true)
	if err != nil {
		return err
	}
	receiver, err := args[0].AsReference()
	if err != nil {
		return err
	}
	if receiver.IsNull() {
		return fmt.Errorf("NullPointerException: invokeinterface %s on null", mref.MethodName)
	}
	runtimeClass, err := runtimeClassOf(receiver)
	if err != nil {
		return err
	}
	return t.dispatch(runtimeClass, mref.MethodName, mref.Descriptor, args)
}

func runtimeClassOf(ref *Reference) (Class, error) {
	switch ref.Kind {
	case RefObject:
		return ref.Object.Class, nil
	case RefInterface:
		return *ref.Interface, nil
	case RefArray:
		return nil, fmt.Errorf("cannot invoke an instance method directly on an array")
	default:
		return nil, fmt.Errorf("cannot invoke an instance method on a null-kind reference")
	}
}

func resolveMethodref(f *Frame, instr classfile.Instruction, isInterface bool) (*classfile.MethodRefInfo, error) {
	cf := f.Class.ClassFile()
	if cf == nil {
		return nil, fmt.Errorf("native class has no constant pool to resolve a methodref from")
	}
	if isInterface {
		return classfile.ResolveInterfaceMethodref(cf.ConstantPool, uint16(instr.Index))
	}
	return classfile.ResolveMethodref(cf.ConstantPool, uint16(instr.Index))
}

// popArgs pops len(params) argument values off f plus, if hasReceiver, one
// more for the receiver, and returns them receiver-first in call order.
// Wide (long/double) arguments still occupy exactly one Value here: the
// two-stack-slot rule is an operand-stack bookkeeping detail the Value
// already encodes via IsComputationalType2, not something popArgs needs to
// special-case.
func popArgs(f *Frame, params []string, hasReceiver bool) ([]Value, error) {
	n := len(params)
	if hasReceiver {
		n++
	}
	args := make([]Value, n)
	for i := len(params) - 1; i >= 0; i-- {
		v, err := f.Pop()
		if err != nil {
			return nil, err
		}
		offset := i
		if hasReceiver {
			offset++
		}
		args[offset] = v
	}
	if hasReceiver {
		v, err := f.Pop()
		if err != nil {
			return nil, err
		}
		args[0] = v
	}
	return args, nil
}

// dispatch looks up methodName+descriptor starting at class and walking up
// its superclass chain (the override-resolution search every invoke* op
// reduces to once its receiver's runtime class is known), and either runs
// it through the native registry or pushes a fresh bytecode Frame for the
// caller's next Step to execute.
func (t *Thread) dispatch(class Class, methodName, descriptor string, args []Value) error {
	if handler, ok := LookupNative(class.Name(), methodName, descriptor); ok {
		results, err := handler(t, args)
		if err != nil {
			return err
		}
		caller := t.CurrentFrame()
		if caller == nil {
			return nil
		}
		for _, r := range results {
			if err := caller.Push(r); err != nil {
				return err
			}
		}
		return caller.IncPC()
	}

	owner, method, err := findMethod(class, methodName, descriptor)
	if err != nil {
		return err
	}
	if t.VM.AccessControl {
		caller := t.CurrentFrame()
		var callerClass Class
		if caller != nil {
			callerClass = caller.Class
		}
		if err := checkMethodAccess(callerClass, owner, method, t); err != nil {
			return err
		}
	}
	if method.AccessFlags&classfile.AccNative != 0 {
		logrus.Warnf("unhandled native method %s.%s%s, substituting a zero return", owner.Name(), methodName, descriptor)
		caller := t.CurrentFrame()
		_, ret, _ := parseMethodDescriptor(descriptor)
		if ret != "V" {
			if err := caller.Push(ZeroValueForDescriptor(ret)); err != nil {
				return err
			}
		}
		return caller.IncPC()
	}
	if method.Code == nil {
		return fmt.Errorf("AbstractMethodError: %s.%s%s", owner.Name(), methodName, descriptor)
	}
	if err := t.CheckDepth(); err != nil {
		return err
	}

	newFrame := NewFrame(method, owner)
	slot := 0
	for _, a := range args {
		newFrame.SetArg(slot, a)
		if a.IsComputationalType2() {
			slot += 2
		} else {
			slot++
		}
	}
	if method.AccessFlags&0x0020 != 0 { // ACC_SYNCHRONIZED
		var monitor *Monitor
		if method.AccessFlags&classfile.AccStatic != 0 {
			monitor = classMonitor(owner)
		} else if r, err := args[0].AsReference(); err == nil {
			monitor = r.Monitor
		}
		if monitor != nil && !monitor.TryEnter(t.ID) {
			t.State = ThreadBlockedOnMonitor
			t.WaitingOn = monitor
			return nil
		}
	}
	t.PushFrame(newFrame)
	return nil
}

// findMethod walks class and its ancestors for the first declaration of
// methodName+descriptor.
func findMethod(class Class, methodName, descriptor string) (Class, *classfile.MethodInfo, error) {
	cur := class
	for {
		if cf := cur.ClassFile(); cf != nil {
			if m := cf.FindMethod(methodName, descriptor); m != nil {
				return cur, m, nil
			}
		}
		if cur.SuperName() == "" {
			return nil, nil, fmt.Errorf("NoSuchMethodError: %s.%s%s", class.Name(), methodName, descriptor)
		}
		super, err := globalResolve(cur.SuperName())
		if err != nil {
			return nil, nil, err
		}
		cur = super
	}
}

// checkMethodAccess enforces method.AccessFlags' visibility against the
// calling class, the behavior -ac/--access-control opts into (by default
// this core trusts every call site, matching a stripped verifier). Package
// membership is derived from the internal name's "/"-separated prefix, the
// same convention the JVM spec itself uses.
func checkMethodAccess(caller, owner Class, method *classfile.MethodInfo, t *Thread) error {
	if caller == nil || caller.Name() == owner.Name() {
		return nil
	}
	switch {
	case method.AccessFlags&classfile.AccPublic != 0:
		return nil
	case method.AccessFlags&classfile.AccPrivate != 0:
		return fmt.Errorf("IllegalAccessError: %s.%s%s is private", owner.Name(), method.Name, method.Descriptor)
	case method.AccessFlags&classfile.AccProtected != 0:
		if packageOf(caller.Name()) == packageOf(owner.Name()) || classIsSubtypeOf(caller, owner.Name(), t) {
			return nil
		}
		return fmt.Errorf("IllegalAccessError: %s.%s%s is protected", owner.Name(), method.Name, method.Descriptor)
	default: // package-private
		if packageOf(caller.Name()) == packageOf(owner.Name()) {
			return nil
		}
		return fmt.Errorf("IllegalAccessError: %s.%s%s is package-private", owner.Name(), method.Name, method.Descriptor)
	}
}

func packageOf(internalName string) string {
	if idx := strings.LastIndex(internalName, "/"); idx >= 0 {
		return internalName[:idx]
	}
	return ""
}

// classMonitor reserves a per-class monitor for a static synchronized
// method's lock, created lazily and cached for the life of the process.
var classMonitors = make(map[string]*Monitor)

func classMonitor(class Class) *Monitor {
	if m, ok := classMonitors[class.Name()]; ok {
		return m
	}
	m := NewMonitor()
	classMonitors[class.Name()] = m
	return m
}

// releaseSynchronizedMonitor releases whatever monitor a synchronized
// method's frame acquired on entry: the receiver's monitor for an instance
// method, the owning class's monitor (classMonitor) for a static one. Called
// on both normal return (execReturn) and exception unwind (unwind), the two
// places a frame can leave without running its own monitorexit.
func releaseSynchronizedMonitor(frame *Frame, t *Thread) {
	if frame.Method.AccessFlags&0x0020 == 0 { // ACC_SYNCHRONIZED
		return
	}
	if frame.Method.AccessFlags&classfile.AccStatic != 0 {
		classMonitor(frame.Class).ReleaseAll(t.ID)
		return
	}
	if len(frame.Locals) > 0 {
		if recv, err := frame.Locals[0].AsReference(); err == nil && !recv.IsNull() {
			recv.Monitor.ReleaseAll(t.ID)
		}
	}
}
