package vm

import (
	"fmt"
	"strings"

	"github.com/sago35/hotspotlite/pkg/classfile"
)

// JavaException wraps a thrown object so it can travel through Go's error
// return path until a handler frame or the driver's top-level crash
// reporter catches it.
type JavaException struct {
	Object *Reference
}

func NewJavaException(obj *Reference) *JavaException {
	return &JavaException{Object: obj}
}

func (e *JavaException) Error() string {
	if e.Object == nil || e.Object.IsNull() {
		return "java exception: null"
	}
	return fmt.Sprintf("java exception: %s", e.Object.ClassName())
}

// exceptionTags maps the leading tag of an internal error's "Tag: detail"
// message (the shape every VM-raised error in this package follows) to the
// java/lang class it names. raise falls back to RuntimeException for any
// tag not listed here, which includes every internal decoder error
// (StackUnderflow, IllegalCastTo*, IncorrectReferenceType, ...) that has no
// direct standard-library exception counterpart.
var exceptionTags = map[string]string{
	"NullPointerException":            "java/lang/NullPointerException",
	"ArithmeticException":             "java/lang/ArithmeticException",
	"ArrayStoreException":             "java/lang/ArrayStoreException",
	"ClassCastException":              "java/lang/ClassCastException",
	"NegativeArraySizeException":      "java/lang/NegativeArraySizeException",
	"IllegalMonitorStateException":    "java/lang/IllegalMonitorStateException",
	"UnsupportedOperationException":   "java/lang/UnsupportedOperationException",
	"ArrayIndexOutOfBoundsException":  "java/lang/ArrayIndexOutOfBoundsException",
	"StringIndexOutOfBoundsException": "java/lang/StringIndexOutOfBoundsException",
	"NoClassDefFoundError":            "java/lang/NoClassDefFoundError",
	"StackOverflowError":              "java/lang/StackOverflowError",
}

// exceptionClassName extracts err's leading tag and maps it to the
// java/lang class raise should instantiate, defaulting to RuntimeException
// for any tag this table doesn't recognize.
func exceptionClassName(err error) string {
	msg := err.Error()
	tag := msg
	if i := strings.IndexByte(msg, ':'); i >= 0 {
		tag = msg[:i]
	}
	if name, ok := exceptionTags[tag]; ok {
		return name
	}
	return "java/lang/RuntimeException"
}

// raise turns an error into a catchable Java exception object of the
// matching java/lang class (NullPointerException, ArrayStoreException, and
// so on, falling back to RuntimeException), the uniform path by which an
// internal Go error (array bounds, cast failure, arithmetic) becomes
// catchable rather than aborting the thread outright. A *JavaException
// passed in is returned unchanged.
func (t *Thread) raise(err error) *JavaException {
	if je, ok := err.(*JavaException); ok {
		return je
	}
	class, resolveErr := t.VM.Registry.Resolve(exceptionClassName(err))
	if resolveErr != nil {
		class, resolveErr = t.VM.Registry.Resolve("java/lang/RuntimeException")
	}
	if resolveErr != nil {
		// Bootstrapping failure: no exception classes available at all.
		// Fall back to a null-object exception so the thread still unwinds
		// instead of panicking.
		return NewJavaException(NullReference())
	}
	obj, objErr := NewObject(class, t.VM.Registry.Resolve)
	if objErr != nil {
		return NewJavaException(NullReference())
	}
	obj.PutField("message", "Ljava/lang/String;", NullValue())
	obj.PutField("detail", "Ljava/lang/String;", RefValue(t.VM.InternString(err.Error())))
	return NewJavaException(NewObjectReference(obj))
}

// unwind searches the current frame's exception table for a handler that
// covers f.PC and matches (or is catch-all for) exc's runtime class. On a
// miss it pops the frame, releases any monitor the popped frame's method
// held (synchronized methods that never reached their monitorexit), and
// reports to the caller whether the whole stack is now exhausted.
func (t *Thread) unwind(exc *JavaException) error {
	for {
		frame := t.CurrentFrame()
		if frame == nil {
			return exc
		}
		if handlerPC, ok := findHandler(frame, exc, t); ok {
			frame.OperandStack = frame.OperandStack[:0]
			if err := frame.Push(RefValue(exc.Object)); err != nil {
				return err
			}
			return frame.SetPC(handlerPC)
		}
		popped, err := t.PopFrame()
		if err != nil {
			return exc
		}
		releaseSynchronizedMonitor(popped, t)
	}
}

// findHandler searches one frame's exception table for a handler covering
// the current PC whose catch type is either wildcard (0, used for
// `finally`) or a superclass of exc's runtime class.
func findHandler(frame *Frame, exc *JavaException, t *Thread) (int, bool) {
	for _, h := range frame.Method.Code.ExceptionHandlers {
		if frame.PC < h.StartPC || frame.PC >= h.EndPC {
			continue
		}
		if h.CatchType == 0 {
			return h.HandlerPC, true
		}
		catchName, err := resolveConstantClassName(frame.Class, h.CatchType)
		if err != nil {
			continue
		}
		if isAssignableTo(exc.Object, catchName, t) {
			return h.HandlerPC, true
		}
	}
	return 0, false
}

func resolveConstantClassName(class Class, cpIndex uint16) (string, error) {
	cf := class.ClassFile()
	if cf == nil {
		return "", fmt.Errorf("native class has no constant pool")
	}
	return classfile.GetClassName(cf.ConstantPool, cpIndex)
}
