package classfile

// Access flags shared by classes, fields and methods. Not every flag is
// legal on every kind of record; the decoder does not enforce that, only
// structural validity.
const (
	AccPublic     = 0x0001
	AccPrivate    = 0x0002
	AccProtected  = 0x0004
	AccStatic     = 0x0008
	AccFinal      = 0x0010
	AccSuper      = 0x0020
	AccSynchronized = 0x0020
	AccVolatile   = 0x0040
	AccBridge     = 0x0040
	AccTransient  = 0x0080
	AccVarargs    = 0x0080
	AccNative     = 0x0100
	AccInterface  = 0x0200
	AccAbstract   = 0x0400
	AccStrict     = 0x0800
	AccSynthetic  = 0x1000
	AccAnnotation = 0x2000
	AccEnum       = 0x4000
	AccModule     = 0x8000
)

// ClassFile is the decoded, immutable representation of one .class unit.
// Nothing below this point is ever mutated after Parse returns; per-class
// runtime state (statics, <clinit> completion) lives in the vm package's
// Class wrapper, not here.
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool []ConstantPoolEntry
	AccessFlags  uint16
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []FieldInfo
	Methods      []MethodInfo
	Attributes   []AttributeInfo

	SourceFile          string
	InnerClasses        []InnerClass
	EnclosingMethod     *EnclosingMethod
	SourceDebugExtension []byte
	BootstrapMethods    []BootstrapMethod
	Module              *ModuleAttribute
	ModulePackages      []uint16
	ModuleMainClass     uint16
	NestHost            uint16
	NestMembers         []uint16
	Record              []RecordComponent
	PermittedSubclasses []uint16
	Synthetic           bool
	Deprecated          bool
	Signature           string
}

// FieldInfo is one entry of the class file's field table.
type FieldInfo struct {
	AccessFlags uint16
	Name        string
	Descriptor  string
	Attributes  []AttributeInfo

	ConstantValue *ConstantPoolEntry
	Synthetic     bool
	Deprecated    bool
	Signature     string
}

// MethodInfo is one entry of the class file's method table. A method whose
// access flags carry ABSTRACT or NATIVE has a nil Code; every other method
// has one.
type MethodInfo struct {
	AccessFlags uint16
	Name        string
	Descriptor  string
	Attributes  []AttributeInfo
	Code        *CodeAttribute

	CheckedExceptions []uint16
	Synthetic         bool
	Deprecated        bool
	Signature         string
}

// AttributeInfo is a raw, not-yet-interpreted attribute: a name resolved
// from the constant pool plus its data bytes. parseAttributeInfos resolves
// the name; callers that recognize it parse Data further and also populate
// a typed field on the owning record.
type AttributeInfo struct {
	Name string
	Data []byte
}

// ExceptionHandler is one entry of a Code attribute's exception table, with
// StartPC/EndPC/HandlerPC already remapped from byte offsets to instruction
// indices by the instruction decoder. CatchType == 0 means "catches
// anything" (used to implement `finally`).
type ExceptionHandler struct {
	StartPC   int
	EndPC     int
	HandlerPC int
	CatchType uint16
}

// LineNumberEntry maps a byte offset (kept in byte space; it is debug info
// only, never an interpreter-addressed target) to a source line.
type LineNumberEntry struct {
	StartPC    uint16
	LineNumber uint16
}

// LocalVariableEntry is one row of a LocalVariableTable attribute.
type LocalVariableEntry struct {
	StartPC    uint16
	Length     uint16
	Name       string
	Descriptor string
	Index      uint16
}

// CodeAttribute is the decoded form of a method's Code attribute: the
// instruction stream has already been through the instruction decoder, so
// every pc field here (including the exception table's) is an index into
// Instructions, not a byte offset.
type CodeAttribute struct {
	MaxStack          uint16
	MaxLocals         uint16
	Instructions      []Instruction
	ExceptionHandlers []ExceptionHandler
	LineNumbers       []LineNumberEntry
	LocalVariables     []LocalVariableEntry
	StackMapTable      []StackMapFrame
}

// InnerClass is one row of an InnerClasses attribute.
type InnerClass struct {
	InnerClassInfoIndex   uint16
	OuterClassInfoIndex   uint16
	InnerNameIndex        uint16
	InnerClassAccessFlags uint16
}

// EnclosingMethod is the decoded EnclosingMethod attribute.
type EnclosingMethod struct {
	ClassIndex      uint16
	MethodIndex     uint16
}

// BootstrapMethod is one row of the BootstrapMethods attribute, referenced
// by CONSTANT_Dynamic/CONSTANT_InvokeDynamic entries.
type BootstrapMethod struct {
	MethodRef          uint16
	BootstrapArguments []uint16
}

// ModuleAttribute is a partial decode of the Module attribute: the module's
// name, flags and version only; the requires/exports/opens/uses/provides
// tables are not decoded. The core does
// not otherwise enforce module boundaries (access control is Non-goal per
// the Out-of-scope CLI flags list, exposed only as a best-effort flag).
type ModuleAttribute struct {
	Name    string
	Flags   uint16
	Version string
}

// RecordComponent is one row of a Record attribute.
type RecordComponent struct {
	Name       string
	Descriptor string
	Signature  string
}

// StackMapFrame is a decoded entry of a Code attribute's StackMapTable,
// per class-file format Frame_Type. Offsets inside verification-type-info
// entries of kind Object/Uninitialized are left in whatever index space
// they were read from (constant pool index, or byte offset for
// Uninitialized's NewInstruction); this core consumes StackMapTable purely
// for structural validation (frame tag and verification-type-tag legality,
// per decoder step 5), not for full verification.
type StackMapFrame struct {
	Kind       StackMapFrameKind
	FrameType  uint8
	OffsetDelta uint16
	Locals     []VerificationTypeInfo
	Stack      []VerificationTypeInfo
}

// StackMapFrameKind classifies a StackMapFrame by its frame_type range.
type StackMapFrameKind uint8

const (
	SameFrame StackMapFrameKind = iota
	SameLocals1StackItemFrame
	SameLocals1StackItemFrameExtended
	ChopFrame
	SameFrameExtended
	AppendFrame
	FullFrame
)

// VerificationTypeInfo is a decoded verification_type_info entry. Tag is in
// [0,8] per the decoder's acceptance rule; ExtraIndex carries the
// cpool_index (Object) or the NewInstruction byte offset (Uninitialized).
type VerificationTypeInfo struct {
	Tag        uint8
	ExtraIndex uint16
}

// ClassName returns the fully qualified internal name of this class.
func (cf *ClassFile) ClassName() (string, error) {
	return GetClassName(cf.ConstantPool, cf.ThisClass)
}

// SuperClassName returns the internal name of the super class, or "" if
// this class has none (only legal for java/lang/Object).
func (cf *ClassFile) SuperClassName() (string, error) {
	if cf.SuperClass == 0 {
		return "", nil
	}
	return GetClassName(cf.ConstantPool, cf.SuperClass)
}

// InterfaceNames resolves every implemented-interface index to a name.
func (cf *ClassFile) InterfaceNames() ([]string, error) {
	names := make([]string, len(cf.Interfaces))
	for i, idx := range cf.Interfaces {
		name, err := GetClassName(cf.ConstantPool, idx)
		if err != nil {
			return nil, err
		}
		names[i] = name
	}
	return names, nil
}

// FindMethod finds a method by exact name and descriptor.
func (cf *ClassFile) FindMethod(name, descriptor string) *MethodInfo {
	for i := range cf.Methods {
		if cf.Methods[i].Name == name && cf.Methods[i].Descriptor == descriptor {
			return &cf.Methods[i]
		}
	}
	return nil
}

// FindMethodByName finds the first method with the given name, ignoring
// descriptor. Used only where overload ambiguity cannot arise (e.g. <clinit>).
func (cf *ClassFile) FindMethodByName(name string) *MethodInfo {
	for i := range cf.Methods {
		if cf.Methods[i].Name == name {
			return &cf.Methods[i]
		}
	}
	return nil
}

// FindField finds a field by exact name and descriptor.
func (cf *ClassFile) FindField(name, descriptor string) *FieldInfo {
	for i := range cf.Fields {
		if cf.Fields[i].Name == name && cf.Fields[i].Descriptor == descriptor {
			return &cf.Fields[i]
		}
	}
	return nil
}
