package vm

import (
	"testing"

	"github.com/sago35/hotspotlite/pkg/classfile"
)

func TestReleaseSynchronizedMonitorStaticMethod(t *testing.T) {
	th := newTestThread()
	class := NewNativeClass("test/Locked", "java/lang/Object")
	method := &classfile.MethodInfo{
		Name:        "work",
		Descriptor:  "()V",
		AccessFlags: classfile.AccStatic | 0x0020, // ACC_STATIC | ACC_SYNCHRONIZED
		Code:        &classfile.CodeAttribute{MaxStack: 0, MaxLocals: 0},
	}
	frame := NewFrame(method, class)

	monitor := classMonitor(class)
	if !monitor.TryEnter(th.ID) {
		t.Fatalf("the class monitor should be free to acquire")
	}
	releaseSynchronizedMonitor(frame, th)
	if monitor.HeldBy(th.ID) {
		t.Fatalf("releaseSynchronizedMonitor should release a static method's class monitor")
	}
}

func TestReleaseSynchronizedMonitorInstanceMethod(t *testing.T) {
	th := newTestThread()
	class := NewNativeClass("test/Locked", "java/lang/Object")
	method := &classfile.MethodInfo{
		Name:        "work",
		Descriptor:  "()V",
		AccessFlags: 0x0020, // ACC_SYNCHRONIZED
		Code:        &classfile.CodeAttribute{MaxStack: 0, MaxLocals: 1},
	}
	frame := NewFrame(method, class)
	obj, err := NewObject(class, th.VM.Registry.Resolve)
	if err != nil {
		t.Fatalf("NewObject: %v", err)
	}
	recv := NewObjectReference(obj)
	if err := frame.SetLocal(0, RefValue(recv)); err != nil {
		t.Fatalf("SetLocal: %v", err)
	}
	if !recv.Monitor.TryEnter(th.ID) {
		t.Fatalf("the receiver's monitor should be free to acquire")
	}
	releaseSynchronizedMonitor(frame, th)
	if recv.Monitor.HeldBy(th.ID) {
		t.Fatalf("releaseSynchronizedMonitor should release the receiver's monitor")
	}
}

func TestExecInvokeStaticRejectsInstanceMethod(t *testing.T) {
	loader := &fakeLoader{classes: map[string]*classfile.ClassFile{
		"test/Holder": instanceMethodClassFile("test/Holder", "work", "()V"),
	}}
	v := NewVM(loader)
	globalResolve = v.Registry.Resolve
	th := NewThread(1, "main", v)

	callerClass, err := NewCustomClass(&classfile.ClassFile{
		ConstantPool: []classfile.ConstantPoolEntry{
			nil,
			&classfile.ConstantUtf8{Value: "test/Holder"},
			&classfile.ConstantClass{NameIndex: 1},
			&classfile.ConstantUtf8{Value: "work"},
			&classfile.ConstantUtf8{Value: "()V"},
			&classfile.ConstantNameAndType{NameIndex: 3, DescriptorIndex: 4},
			&classfile.ConstantMethodref{ClassIndex: 2, NameAndTypeIndex: 5},
		},
		ThisClass: 2,
	})
	if err != nil {
		t.Fatalf("NewCustomClass: %v", err)
	}
	f := NewFrame(testMethod(0, 0, classfile.Instruction{Opcode: classfile.OpInvokestatic, Index: 6}), callerClass)
	th.PushFrame(f)

	err = th.execInvokeStatic(f, classfile.Instruction{Opcode: classfile.OpInvokestatic, Index: 6})
	if err == nil {
		t.Fatalf("invokestatic on a non-static method should fail")
	}
}

// instanceMethodClassFile builds a minimal ClassFile with one non-static
// method, for invokestatic-rejects-instance-method coverage.
func instanceMethodClassFile(name, methodName, descriptor string) *classfile.ClassFile {
	pool := []classfile.ConstantPoolEntry{
		nil,
		&classfile.ConstantUtf8{Value: name},
		&classfile.ConstantClass{NameIndex: 1},
		&classfile.ConstantUtf8{Value: "java/lang/Object"},
		&classfile.ConstantClass{NameIndex: 3},
	}
	return &classfile.ClassFile{
		ConstantPool: pool,
		ThisClass:    2,
		SuperClass:   4,
		Methods: []classfile.MethodInfo{
			{Name: methodName, Descriptor: descriptor, Code: &classfile.CodeAttribute{Instructions: []classfile.Instruction{{Opcode: classfile.OpReturn}}}},
		},
	}
}
