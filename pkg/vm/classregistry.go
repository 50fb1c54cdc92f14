package vm

import "fmt"

// ClassRegistry owns every Class this run has linked, keyed by internal
// name, and the five-step resolve algorithm: check the cache, load bytes,
// wrap them in a Class, publish to the cache before running <clinit> (so a
// class's own static initializer can observe the class as already loaded,
// which matters for circular static references), then run <clinit>.
//
// Resolve never runs a class's <clinit> twice: the registry entry itself is
// the guard, not a separate "initialized" set, because publishing happens
// before <clinit> runs.
type ClassRegistry struct {
	loader  ClassLoader
	classes map[string]Class

	// runClinit executes a loaded class's <clinit>, if it has one. It is
	// nil until the driver wires in the interpreter (ClassRegistry cannot
	// import the interpreter package that in turn needs to resolve
	// classes, so the dependency is inverted via this field instead of a
	// constructor argument).
	runClinit func(c Class) error

	// onLoad lets the driver run bootstrap fixups right after a class is
	// first published but before its <clinit> runs, e.g. wiring
	// java/lang/System.out to the process's stdout.
	onLoad func(c Class)
}

func NewClassRegistry(loader ClassLoader) *ClassRegistry {
	return &ClassRegistry{
		loader:  loader,
		classes: make(map[string]Class),
	}
}

func (r *ClassRegistry) SetClinitRunner(f func(c Class) error) { r.runClinit = f }
func (r *ClassRegistry) SetLoadHook(f func(c Class))           { r.onLoad = f }

// Resolve returns the linked, initialized Class for name, loading and
// running its <clinit> on first reference.
func (r *ClassRegistry) Resolve(name string) (Class, error) {
	if c, ok := r.classes[name]; ok {
		return c, nil
	}

	if stub, ok := nativeClassStubs[name]; ok {
		c := NewNativeClass(name, stub.superName)
		r.classes[name] = c
		if r.onLoad != nil {
			r.onLoad(c)
		}
		c.MarkInitialized()
		return c, nil
	}

	cf, err := r.loader.LoadClass(name)
	if err != nil {
		return nil, fmt.Errorf("NoClassDefFoundError: %s: %w", name, err)
	}
	c, err := NewCustomClass(cf)
	if err != nil {
		return nil, fmt.Errorf("linking %s: %w", name, err)
	}

	// Ensure the superclass chain and declared interfaces resolve and
	// initialize before this class does, per the class initialization
	// order the format requires.
	if c.SuperName() != "" {
		if _, err := r.Resolve(c.SuperName()); err != nil {
			return nil, err
		}
	}
	for _, iface := range c.InterfaceNames() {
		if _, err := r.Resolve(iface); err != nil {
			return nil, err
		}
	}

	r.classes[name] = c
	if r.onLoad != nil {
		r.onLoad(c)
	}

	if r.runClinit != nil {
		if err := r.runClinit(c); err != nil {
			return nil, fmt.Errorf("%s.<clinit>: %w", name, err)
		}
	}
	c.MarkInitialized()
	return c, nil
}

// Loaded reports whether name has already been resolved, without
// triggering a load.
func (r *ClassRegistry) Loaded(name string) (Class, bool) {
	c, ok := r.classes[name]
	return c, ok
}

// nativeClassStub describes a bootstrap class this core implements
// host-side rather than by interpreting a Code attribute.
type nativeClassStub struct {
	superName string
}

// nativeClassStubs lists every class Resolve will satisfy without
// consulting the ClassLoader. pkg/native registers the method bodies for
// these via RegisterNativeClass; this table only needs to know enough
// about each type's identity and superclass to satisfy instanceof/invoke
// resolution.
var nativeClassStubs = map[string]nativeClassStub{
	"java/lang/Object":        {superName: ""},
	"java/lang/System":        {superName: "java/lang/Object"},
	"java/lang/String":        {superName: "java/lang/Object"},
	"java/lang/StringBuilder": {superName: "java/lang/Object"},
	"java/io/PrintStream":     {superName: "java/lang/Object"},

	// Throwable hierarchy. Every class raise() can name must resolve here
	// with the real JDK super-chain, or catch-type matching in
	// findHandler/classIsSubtypeOf can't tell a NullPointerException from
	// an unrelated RuntimeException.
	"java/lang/Throwable":            {superName: "java/lang/Object"},
	"java/lang/Exception":            {superName: "java/lang/Throwable"},
	"java/lang/RuntimeException":     {superName: "java/lang/Exception"},
	"java/lang/Error":                {superName: "java/lang/Throwable"},
	"java/lang/LinkageError":         {superName: "java/lang/Error"},
	"java/lang/NoClassDefFoundError": {superName: "java/lang/LinkageError"},
	"java/lang/VirtualMachineError":  {superName: "java/lang/Error"},
	"java/lang/StackOverflowError":   {superName: "java/lang/VirtualMachineError"},

	"java/lang/NullPointerException":          {superName: "java/lang/RuntimeException"},
	"java/lang/ArithmeticException":           {superName: "java/lang/RuntimeException"},
	"java/lang/ArrayStoreException":           {superName: "java/lang/RuntimeException"},
	"java/lang/ClassCastException":            {superName: "java/lang/RuntimeException"},
	"java/lang/NegativeArraySizeException":    {superName: "java/lang/RuntimeException"},
	"java/lang/IllegalMonitorStateException":  {superName: "java/lang/RuntimeException"},
	"java/lang/UnsupportedOperationException": {superName: "java/lang/RuntimeException"},
	"java/lang/IndexOutOfBoundsException":     {superName: "java/lang/RuntimeException"},

	"java/lang/ArrayIndexOutOfBoundsException":  {superName: "java/lang/IndexOutOfBoundsException"},
	"java/lang/StringIndexOutOfBoundsException": {superName: "java/lang/IndexOutOfBoundsException"},
}
