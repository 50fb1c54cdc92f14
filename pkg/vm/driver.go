package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// VM is the top-level driver: a class registry, a pool of cooperatively
// scheduled threads, the process's stdout (redirectable for tests), and a
// cache of interned strings.
type VM struct {
	Registry      *ClassRegistry
	Threads       []*Thread
	Stdout        io.Writer
	DumpBacktrace bool
	AccessControl bool

	// StepSize is how many instructions each live thread executes per
	// scheduling pass before Run moves on to the next thread. Defaults to
	// 1 (strict round-robin); raising it trades fairness for fewer
	// scheduling-loop iterations on programs with few threads.
	StepSize int

	nextThreadID int
	internCache  map[string]*Reference
}

// NewVM wires a ClassRegistry around loader and returns a VM with no
// threads yet; call Execute to load a main class and start one.
func NewVM(loader ClassLoader) *VM {
	v := &VM{
		Registry:    NewClassRegistry(loader),
		Stdout:      os.Stdout,
		StepSize:    1,
		internCache: make(map[string]*Reference),
	}
	v.Registry.SetClinitRunner(v.runClinit)
	v.Registry.SetLoadHook(func(c Class) { runLoadHook(v, c) })
	globalResolve = v.Registry.Resolve
	return v
}

// SpawnThread creates and registers a new Thread, the entry point for both
// the initial main thread and any java/lang/Thread.start() a running
// program performs.
func (v *VM) SpawnThread(name string) *Thread {
	t := NewThread(v.nextThreadID, name, v)
	v.nextThreadID++
	v.Threads = append(v.Threads, t)
	return t
}

// runClinit resolves and, if present, executes a class's <clinit> to
// completion on a scratch thread, used by ClassRegistry.Resolve.
func (v *VM) runClinit(c Class) error {
	cf := c.ClassFile()
	if cf == nil {
		return nil // native stub: no bytecode static initializer to run
	}
	method := cf.FindMethod("<clinit>", "()V")
	if method == nil {
		return nil
	}
	t := NewThread(-1, "<clinit>:"+c.Name(), v)
	t.PushFrame(NewFrame(method, c))
	return v.runToCompletion(t)
}

// runToCompletion steps a single thread until its call stack empties or it
// crashes, used for <clinit> and for synchronous native-to-bytecode
// re-entry (e.g. calling toString() from within a native method).
func (v *VM) runToCompletion(t *Thread) error {
	for t.Depth() > 0 {
		if err := t.Step(); err != nil {
			return err
		}
		if t.State == ThreadCrashed {
			return t.CrashErr
		}
	}
	return nil
}

// Execute loads mainClass, resolves it (running every static initializer
// transitively reached along the way), locates its
// main([Ljava/lang/String;)V method, and runs the program to completion
// under the round-robin scheduler.
func (v *VM) Execute(mainClassName string, args []string) error {
	class, err := v.Registry.Resolve(mainClassName)
	if err != nil {
		return fmt.Errorf("loading %s: %w", mainClassName, err)
	}
	cf := class.ClassFile()
	if cf == nil {
		return fmt.Errorf("%s is a native class, has no main method", mainClassName)
	}
	method := cf.FindMethod("main", "([Ljava/lang/String;)V")
	if method == nil {
		return fmt.Errorf("%s has no main([Ljava/lang/String;)V method", mainClassName)
	}

	main := v.SpawnThread("main")
	frame := NewFrame(method, class)
	frame.SetArg(0, RefValue(v.buildStringArray(args)))
	main.PushFrame(frame)

	return v.Run()
}

// Run drives every live thread with a cooperative round-robin scheduler:
// each live thread gets to execute up to StepSize instructions per pass
// before control moves to the next thread. A thread blocked on a monitor is
// retried every pass rather than parked, the documented cost of Monitor
// being a polling structure rather than a real condition variable.
func (v *VM) Run() error {
	stepSize := v.StepSize
	if stepSize < 1 {
		stepSize = 1
	}
	for {
		progressed := false
		allDone := true
		for _, t := range v.Threads {
			switch t.State {
			case ThreadFinished, ThreadCrashed:
				continue
			case ThreadBlockedOnMonitor:
				allDone = false
				if t.WaitingOn != nil && t.WaitingOn.TryEnter(t.ID) {
					t.State = ThreadRunnable
					t.WaitingOn = nil
				} else {
					continue
				}
			default:
				allDone = false
			}

			for i := 0; i < stepSize; i++ {
				if err := t.Step(); err != nil {
					t.State = ThreadCrashed
					t.CrashErr = err
					v.reportCrash(t, err)
					break
				}
				progressed = true
				if t.Depth() == 0 {
					t.State = ThreadFinished
					break
				}
				if t.State == ThreadBlockedOnMonitor {
					break
				}
			}
		}
		if allDone {
			break
		}
		if !progressed {
			return fmt.Errorf("deadlock: every live thread is blocked on a monitor")
		}
	}
	return nil
}

// reportCrash logs an uncaught exception or internal error, optionally
// with a full call-stack backtrace when DumpBacktrace is set (-db).
func (v *VM) reportCrash(t *Thread, err error) {
	logrus.Errorf("thread %q crashed: %v", t.Name, err)
	if !v.DumpBacktrace {
		return
	}
	for i := len(t.Stack) - 1; i >= 0; i-- {
		f := t.Stack[i]
		logrus.Errorf("    at %s.%s (pc=%d)", f.Class.Name(), f.Method.Name, f.PC)
	}
}

// InternString returns the cached String object for s, creating it on
// first use. Java string interning is observable via == on literals; this
// core extends it to every InternString call for simplicity, which is
// stricter than necessary but never incorrect for a single-classloader
// program.
func (v *VM) InternString(s string) *Reference {
	if r, ok := v.internCache[s]; ok {
		return r
	}
	class, err := v.Registry.Resolve("java/lang/String")
	if err != nil {
		return NullReference()
	}
	obj, err := NewObject(class, v.Registry.Resolve)
	if err != nil {
		return NullReference()
	}
	obj.Native = s
	ref := NewObjectReference(obj)
	v.internCache[s] = ref
	return ref
}

// buildStringArray materializes a java.lang.String[] from args, for
// main's parameter.
func (v *VM) buildStringArray(args []string) *Reference {
	arr, _ := NewArray(ArrayRef, int32(len(args)), "Ljava/lang/String;")
	for i, s := range args {
		arr.Ref[i] = v.InternString(s)
	}
	return NewArrayReference(arr)
}
