package classfile

import "fmt"

// parseAttributeInfos reads an attribute_info table: count entries, each a
// name index, a u4 length, and length raw bytes. The length is not
// interpreted here; recognizeAttribute does that once the caller knows
// which typed slot (if any) the name maps to.
func parseAttributeInfos(c *cursor, pool []ConstantPoolEntry) ([]AttributeInfo, error) {
	count, err := c.readU16()
	if err != nil {
		return nil, fmt.Errorf("reading attribute count: %w", err)
	}
	attrs := make([]AttributeInfo, count)
	for i := uint16(0); i < count; i++ {
		nameIndex, err := c.readU16()
		if err != nil {
			return nil, fmt.Errorf("reading attribute %d name index: %w", i, err)
		}
		length, err := c.readU32()
		if err != nil {
			return nil, fmt.Errorf("reading attribute %d length: %w", i, err)
		}
		start := c.pos
		data, err := c.readBytes(int(length))
		if err != nil {
			return nil, fmt.Errorf("reading attribute %d data: %w", i, err)
		}
		if c.pos != start+int(length) {
			return nil, fmt.Errorf("attribute %d: length mismatch, start+length=%d, got %d", i, start+int(length), c.pos)
		}
		name, err := GetUtf8(pool, nameIndex)
		if err != nil {
			return nil, fmt.Errorf("resolving attribute %d name: %w", i, err)
		}
		attrs[i] = AttributeInfo{Name: name, Data: data}
	}
	return attrs, nil
}

// seenAttrs tracks which single-valued attribute names have already been
// consumed, to implement the decoder's IllegalDuplicateAttribute check.
type seenAttrs map[string]bool

func (s seenAttrs) markOnce(name string) error {
	if s[name] {
		return fmt.Errorf("IllegalDuplicateAttribute: %s", name)
	}
	s[name] = true
	return nil
}

// applyFieldAttributes populates a FieldInfo's typed slots from its raw
// attribute list.
func applyFieldAttributes(f *FieldInfo, pool []ConstantPoolEntry) error {
	seen := seenAttrs{}
	for _, attr := range f.Attributes {
		switch attr.Name {
		case "ConstantValue":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			c := newCursor(attr.Data)
			idx, err := c.readU16()
			if err != nil {
				return err
			}
			entry, err := lookup(pool, idx)
			if err != nil {
				return fmt.Errorf("ConstantValue: %w", err)
			}
			f.ConstantValue = &entry
		case "Synthetic":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			f.Synthetic = true
		case "Deprecated":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			f.Deprecated = true
		case "Signature":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			c := newCursor(attr.Data)
			idx, err := c.readU16()
			if err != nil {
				return err
			}
			sig, err := GetUtf8(pool, idx)
			if err != nil {
				return err
			}
			f.Signature = sig
		default:
			// unrecognized attribute, skipped by length (already consumed as raw bytes)
		}
	}
	return nil
}

// applyMethodAttributes populates a MethodInfo's typed slots, including
// parsing the Code attribute (and, inside it, the exception table and
// StackMapTable) once the constant pool is final.
func applyMethodAttributes(m *MethodInfo, pool []ConstantPoolEntry) error {
	seen := seenAttrs{}
	for _, attr := range m.Attributes {
		switch attr.Name {
		case "Code":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			code, err := parseCodeAttribute(attr.Data, pool)
			if err != nil {
				return fmt.Errorf("parsing Code attribute for %s%s: %w", m.Name, m.Descriptor, err)
			}
			m.Code = code
		case "Exceptions":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			c := newCursor(attr.Data)
			n, err := c.readU16()
			if err != nil {
				return err
			}
			exc := make([]uint16, n)
			for i := uint16(0); i < n; i++ {
				v, err := c.readU16()
				if err != nil {
					return err
				}
				exc[i] = v
			}
			m.CheckedExceptions = exc
		case "Synthetic":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			m.Synthetic = true
		case "Deprecated":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			m.Deprecated = true
		case "Signature":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			c := newCursor(attr.Data)
			idx, err := c.readU16()
			if err != nil {
				return err
			}
			sig, err := GetUtf8(pool, idx)
			if err != nil {
				return err
			}
			m.Signature = sig
		default:
		}
	}
	if m.AccessFlags&(AccAbstract|AccNative) != 0 {
		if m.Code != nil {
			return fmt.Errorf("method %s%s is abstract or native but carries a Code attribute", m.Name, m.Descriptor)
		}
	} else if m.Code == nil {
		return fmt.Errorf("method %s%s is neither abstract nor native but has no Code attribute", m.Name, m.Descriptor)
	}
	return nil
}

func parseCodeAttribute(data []byte, pool []ConstantPoolEntry) (*CodeAttribute, error) {
	c := newCursor(data)
	maxStack, err := c.readU16()
	if err != nil {
		return nil, fmt.Errorf("reading max_stack: %w", err)
	}
	maxLocals, err := c.readU16()
	if err != nil {
		return nil, fmt.Errorf("reading max_locals: %w", err)
	}
	codeLength, err := c.readU32()
	if err != nil {
		return nil, fmt.Errorf("reading code_length: %w", err)
	}
	codeBytes, err := c.readBytes(int(codeLength))
	if err != nil {
		return nil, fmt.Errorf("reading code: %w", err)
	}

	instrs, byteToIndex, err := decodeInstructions(codeBytes)
	if err != nil {
		return nil, fmt.Errorf("decoding instructions: %w", err)
	}

	excLen, err := c.readU16()
	if err != nil {
		return nil, fmt.Errorf("reading exception_table_length: %w", err)
	}
	handlers := make([]ExceptionHandler, excLen)
	for i := uint16(0); i < excLen; i++ {
		startPC, err := c.readU16()
		if err != nil {
			return nil, err
		}
		endPC, err := c.readU16()
		if err != nil {
			return nil, err
		}
		handlerPC, err := c.readU16()
		if err != nil {
			return nil, err
		}
		catchType, err := c.readU16()
		if err != nil {
			return nil, err
		}
		startIdx, ok := byteToIndex[int(startPC)]
		if !ok {
			return nil, fmt.Errorf("exception handler %d: start_pc %d is not an instruction boundary", i, startPC)
		}
		endIdx, ok := byteToIndex[int(endPC)]
		if !ok {
			return nil, fmt.Errorf("exception handler %d: end_pc %d is not an instruction boundary", i, endPC)
		}
		handlerIdx, ok := byteToIndex[int(handlerPC)]
		if !ok {
			return nil, fmt.Errorf("exception handler %d: handler_pc %d is not an instruction boundary", i, handlerPC)
		}
		handlers[i] = ExceptionHandler{StartPC: startIdx, EndPC: endIdx, HandlerPC: handlerIdx, CatchType: catchType}
	}

	codeAttr := &CodeAttribute{
		MaxStack:          maxStack,
		MaxLocals:         maxLocals,
		Instructions:      instrs,
		ExceptionHandlers: handlers,
	}

	attrs, err := parseAttributeInfos(c, pool)
	if err != nil {
		return nil, fmt.Errorf("reading Code sub-attributes: %w", err)
	}
	seen := seenAttrs{}
	for _, attr := range attrs {
		switch attr.Name {
		case "LineNumberTable":
			lc := newCursor(attr.Data)
			n, err := lc.readU16()
			if err != nil {
				return nil, err
			}
			lines := make([]LineNumberEntry, n)
			for i := uint16(0); i < n; i++ {
				sp, err := lc.readU16()
				if err != nil {
					return nil, err
				}
				ln, err := lc.readU16()
				if err != nil {
					return nil, err
				}
				lines[i] = LineNumberEntry{StartPC: sp, LineNumber: ln}
			}
			codeAttr.LineNumbers = append(codeAttr.LineNumbers, lines...)
		case "LocalVariableTable":
			lc := newCursor(attr.Data)
			n, err := lc.readU16()
			if err != nil {
				return nil, err
			}
			vars := make([]LocalVariableEntry, n)
			for i := uint16(0); i < n; i++ {
				sp, err := lc.readU16()
				if err != nil {
					return nil, err
				}
				length, err := lc.readU16()
				if err != nil {
					return nil, err
				}
				nameIdx, err := lc.readU16()
				if err != nil {
					return nil, err
				}
				descIdx, err := lc.readU16()
				if err != nil {
					return nil, err
				}
				index, err := lc.readU16()
				if err != nil {
					return nil, err
				}
				name, err := GetUtf8(pool, nameIdx)
				if err != nil {
					return nil, err
				}
				desc, err := GetUtf8(pool, descIdx)
				if err != nil {
					return nil, err
				}
				vars[i] = LocalVariableEntry{StartPC: sp, Length: length, Name: name, Descriptor: desc, Index: index}
			}
			codeAttr.LocalVariables = append(codeAttr.LocalVariables, vars...)
		case "StackMapTable":
			if err := seen.markOnce(attr.Name); err != nil {
				return nil, err
			}
			frames, err := parseStackMapTable(attr.Data)
			if err != nil {
				return nil, fmt.Errorf("parsing StackMapTable: %w", err)
			}
			codeAttr.StackMapTable = frames
		default:
		}
	}

	return codeAttr, nil
}

// parseStackMapTable decodes every frame, dispatching on the frame_type
// byte's range per the decoder's step-5 rule, and rejects frame types in
// [128,246] (reserved) and verification-type tags outside [0,8].
func parseStackMapTable(data []byte) ([]StackMapFrame, error) {
	c := newCursor(data)
	n, err := c.readU16()
	if err != nil {
		return nil, err
	}
	frames := make([]StackMapFrame, 0, n)
	for i := uint16(0); i < n; i++ {
		frameType, err := c.readU8()
		if err != nil {
			return nil, err
		}
		var frame StackMapFrame
		frame.FrameType = frameType
		switch {
		case frameType <= 63:
			frame.Kind = SameFrame
			frame.OffsetDelta = uint16(frameType)

		case frameType <= 127:
			frame.Kind = SameLocals1StackItemFrame
			frame.OffsetDelta = uint16(frameType - 64)
			vti, err := readVerificationTypeInfo(c)
			if err != nil {
				return nil, err
			}
			frame.Stack = []VerificationTypeInfo{vti}

		case frameType <= 246:
			return nil, fmt.Errorf("IllegalFrameType: reserved frame_type %d", frameType)

		case frameType == 247:
			frame.Kind = SameLocals1StackItemFrameExtended
			delta, err := c.readU16()
			if err != nil {
				return nil, err
			}
			frame.OffsetDelta = delta
			vti, err := readVerificationTypeInfo(c)
			if err != nil {
				return nil, err
			}
			frame.Stack = []VerificationTypeInfo{vti}

		case frameType <= 250:
			frame.Kind = ChopFrame
			delta, err := c.readU16()
			if err != nil {
				return nil, err
			}
			frame.OffsetDelta = delta

		case frameType == 251:
			frame.Kind = SameFrameExtended
			delta, err := c.readU16()
			if err != nil {
				return nil, err
			}
			frame.OffsetDelta = delta

		case frameType <= 254:
			frame.Kind = AppendFrame
			delta, err := c.readU16()
			if err != nil {
				return nil, err
			}
			frame.OffsetDelta = delta
			numLocals := int(frameType) - 251
			locals := make([]VerificationTypeInfo, numLocals)
			for j := 0; j < numLocals; j++ {
				vti, err := readVerificationTypeInfo(c)
				if err != nil {
					return nil, err
				}
				locals[j] = vti
			}
			frame.Locals = locals

		default: // 255
			frame.Kind = FullFrame
			delta, err := c.readU16()
			if err != nil {
				return nil, err
			}
			frame.OffsetDelta = delta
			numLocals, err := c.readU16()
			if err != nil {
				return nil, err
			}
			locals := make([]VerificationTypeInfo, numLocals)
			for j := uint16(0); j < numLocals; j++ {
				vti, err := readVerificationTypeInfo(c)
				if err != nil {
					return nil, err
				}
				locals[j] = vti
			}
			numStack, err := c.readU16()
			if err != nil {
				return nil, err
			}
			stack := make([]VerificationTypeInfo, numStack)
			for j := uint16(0); j < numStack; j++ {
				vti, err := readVerificationTypeInfo(c)
				if err != nil {
					return nil, err
				}
				stack[j] = vti
			}
			frame.Locals = locals
			frame.Stack = stack
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

func readVerificationTypeInfo(c *cursor) (VerificationTypeInfo, error) {
	tag, err := c.readU8()
	if err != nil {
		return VerificationTypeInfo{}, err
	}
	if tag > 8 {
		return VerificationTypeInfo{}, fmt.Errorf("IllegalVerificationType: tag %d", tag)
	}
	vti := VerificationTypeInfo{Tag: tag}
	// Object (7) carries a cpool index, Uninitialized (8) a byte offset;
	// every other tag is a bare marker with no extra bytes.
	if tag == 7 || tag == 8 {
		idx, err := c.readU16()
		if err != nil {
			return VerificationTypeInfo{}, err
		}
		vti.ExtraIndex = idx
	}
	return vti, nil
}

// applyClassAttributes populates a ClassFile's typed top-level attributes
// from cf.Attributes, which parser.go has already read as raw bytes.
func applyClassAttributes(cf *ClassFile) error {
	seen := seenAttrs{}
	pool := cf.ConstantPool
	for _, attr := range cf.Attributes {
		switch attr.Name {
		case "SourceFile":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			c := newCursor(attr.Data)
			idx, err := c.readU16()
			if err != nil {
				return err
			}
			name, err := GetUtf8(pool, idx)
			if err != nil {
				return err
			}
			cf.SourceFile = name

		case "InnerClasses":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			c := newCursor(attr.Data)
			n, err := c.readU16()
			if err != nil {
				return err
			}
			inner := make([]InnerClass, n)
			for i := uint16(0); i < n; i++ {
				a, err := c.readU16()
				if err != nil {
					return err
				}
				b, err := c.readU16()
				if err != nil {
					return err
				}
				d, err := c.readU16()
				if err != nil {
					return err
				}
				e, err := c.readU16()
				if err != nil {
					return err
				}
				inner[i] = InnerClass{InnerClassInfoIndex: a, OuterClassInfoIndex: b, InnerNameIndex: d, InnerClassAccessFlags: e}
			}
			cf.InnerClasses = inner

		case "EnclosingMethod":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			c := newCursor(attr.Data)
			classIdx, err := c.readU16()
			if err != nil {
				return err
			}
			methodIdx, err := c.readU16()
			if err != nil {
				return err
			}
			cf.EnclosingMethod = &EnclosingMethod{ClassIndex: classIdx, MethodIndex: methodIdx}

		case "SourceDebugExtension":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			cf.SourceDebugExtension = attr.Data

		case "BootstrapMethods":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			methods, err := parseBootstrapMethods(attr.Data)
			if err != nil {
				return fmt.Errorf("parsing BootstrapMethods: %w", err)
			}
			cf.BootstrapMethods = methods

		case "Module":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			c := newCursor(attr.Data)
			nameIdx, err := c.readU16()
			if err != nil {
				return err
			}
			flags, err := c.readU16()
			if err != nil {
				return err
			}
			versionIdx, err := c.readU16()
			if err != nil {
				return err
			}
			moduleName, err := moduleOrPackageName(pool, nameIdx)
			if err != nil {
				return err
			}
			var version string
			if versionIdx != 0 {
				version, err = GetUtf8(pool, versionIdx)
				if err != nil {
					return err
				}
			}
			cf.Module = &ModuleAttribute{Name: moduleName, Flags: flags, Version: version}

		case "ModulePackages":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			c := newCursor(attr.Data)
			n, err := c.readU16()
			if err != nil {
				return err
			}
			pkgs := make([]uint16, n)
			for i := uint16(0); i < n; i++ {
				v, err := c.readU16()
				if err != nil {
					return err
				}
				pkgs[i] = v
			}
			cf.ModulePackages = pkgs

		case "ModuleMainClass":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			c := newCursor(attr.Data)
			idx, err := c.readU16()
			if err != nil {
				return err
			}
			cf.ModuleMainClass = idx

		case "NestHost":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			c := newCursor(attr.Data)
			idx, err := c.readU16()
			if err != nil {
				return err
			}
			cf.NestHost = idx

		case "NestMembers":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			c := newCursor(attr.Data)
			n, err := c.readU16()
			if err != nil {
				return err
			}
			members := make([]uint16, n)
			for i := uint16(0); i < n; i++ {
				v, err := c.readU16()
				if err != nil {
					return err
				}
				members[i] = v
			}
			cf.NestMembers = members

		case "Record":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			c := newCursor(attr.Data)
			n, err := c.readU16()
			if err != nil {
				return err
			}
			components := make([]RecordComponent, n)
			for i := uint16(0); i < n; i++ {
				nameIdx, err := c.readU16()
				if err != nil {
					return err
				}
				descIdx, err := c.readU16()
				if err != nil {
					return err
				}
				name, err := GetUtf8(pool, nameIdx)
				if err != nil {
					return err
				}
				desc, err := GetUtf8(pool, descIdx)
				if err != nil {
					return err
				}
				// skip the component's own attribute list; this core does not
				// need per-component Signature/annotation data.
				attrs, err := parseAttributeInfos(c, pool)
				if err != nil {
					return err
				}
				comp := RecordComponent{Name: name, Descriptor: desc}
				for _, a := range attrs {
					if a.Name == "Signature" {
						sc := newCursor(a.Data)
						sigIdx, err := sc.readU16()
						if err != nil {
							return err
						}
						sig, err := GetUtf8(pool, sigIdx)
						if err != nil {
							return err
						}
						comp.Signature = sig
					}
				}
				components[i] = comp
			}
			cf.Record = components

		case "PermittedSubclasses":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			if cf.AccessFlags&AccFinal != 0 {
				return fmt.Errorf("PermittedSubclasses present on a final class")
			}
			c := newCursor(attr.Data)
			n, err := c.readU16()
			if err != nil {
				return err
			}
			perms := make([]uint16, n)
			for i := uint16(0); i < n; i++ {
				v, err := c.readU16()
				if err != nil {
					return err
				}
				perms[i] = v
			}
			cf.PermittedSubclasses = perms

		case "Synthetic":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			cf.Synthetic = true

		case "Deprecated":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			cf.Deprecated = true

		case "Signature":
			if err := seen.markOnce(attr.Name); err != nil {
				return err
			}
			c := newCursor(attr.Data)
			idx, err := c.readU16()
			if err != nil {
				return err
			}
			sig, err := GetUtf8(pool, idx)
			if err != nil {
				return err
			}
			cf.Signature = sig

		default:
			// RuntimeVisibleAnnotations and friends are accepted and skipped:
			// the core has no reflective annotation API to expose them through.
		}
	}
	if cf.NestHost != 0 && len(cf.NestMembers) > 0 {
		return fmt.Errorf("NestHost and NestMembers are mutually exclusive")
	}
	return nil
}

func moduleOrPackageName(pool []ConstantPoolEntry, index uint16) (string, error) {
	entry, err := lookup(pool, index)
	if err != nil {
		return "", err
	}
	mod, ok := entry.(*ConstantModule)
	if !ok {
		return "", fmt.Errorf("constant pool index %d is not Module", index)
	}
	return GetUtf8(pool, mod.NameIndex)
}

func parseBootstrapMethods(data []byte) ([]BootstrapMethod, error) {
	c := newCursor(data)
	n, err := c.readU16()
	if err != nil {
		return nil, err
	}
	methods := make([]BootstrapMethod, n)
	for i := uint16(0); i < n; i++ {
		methodRef, err := c.readU16()
		if err != nil {
			return nil, err
		}
		numArgs, err := c.readU16()
		if err != nil {
			return nil, err
		}
		args := make([]uint16, numArgs)
		for j := uint16(0); j < numArgs; j++ {
			v, err := c.readU16()
			if err != nil {
				return nil, err
			}
			args[j] = v
		}
		methods[i] = BootstrapMethod{MethodRef: methodRef, BootstrapArguments: args}
	}
	return methods, nil
}
