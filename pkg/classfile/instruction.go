package classfile

import "fmt"

// Instruction is one decoded bytecode instruction. Operand meaning depends
// on Opcode; see decodeInstructions for which fields a given opcode fills
// in. Branch-style opcodes (goto, if*, jsr, tableswitch, lookupswitch) have
// already had their targets remapped from byte offsets to indices into the
// surrounding []Instruction — the interpreter never sees a byte offset.
type Instruction struct {
	Opcode  uint8
	Wide    bool // local-variable index was read as a u2 rather than u1
	Index   uint32 // local variable index, constant pool index, or atype code
	IVal    int32  // bipush/sipush immediate, instruction-index branch target
	IVal2   int32  // iinc increment amount
	Dims    uint8  // multianewarray dimension count

	// tableswitch / lookupswitch
	Default int
	Low     int32
	High    int32
	Targets []int   // tableswitch: one per [Low,High]; lookupswitch: parallel to Matches
	Matches []int32 // lookupswitch match values
}

// hasWideForm reports whether opcode's local-variable index can be widened
// by a preceding `wide` prefix.
func hasWideForm(opcode uint8) bool {
	switch opcode {
	case OpIload, OpLload, OpFload, OpDload, OpAload,
		OpIstore, OpLstore, OpFstore, OpDstore, OpAstore, OpRet, OpIinc:
		return true
	default:
		return false
	}
}

// decodeInstructions turns a method's raw Code bytes into a decoded
// instruction sequence, with every branch and switch offset remapped from
// byte-space into instruction-index-space. byteToIndex is also returned so
// the caller can remap the exception table's byte offsets the same way
// (parseCodeAttribute does); StackMapTable offsets are not remapped.
func decodeInstructions(code []byte) ([]Instruction, map[int]int, error) {
	c := newCursor(code)

	var instrs []Instruction
	var startByte []int
	// pendingBranch records, per instruction index, the raw signed byte
	// offset(s) that still need remapping once byteToIndex is complete.
	type pendingSingle struct {
		instrIdx int
		fromByte int
		rawOffset int64
	}
	var pendingBranches []pendingSingle

	type pendingSwitch struct {
		instrIdx  int
		fromByte  int
		defaultOff int32
		low, high int32
		offsets   []int32 // tableswitch jump table
		matches   []int32 // lookupswitch matches
		matchOffs []int32 // lookupswitch offsets
		isTable   bool
	}
	var pendingSwitches []pendingSwitch

	wide := false
	for c.remaining() > 0 {
		thisByte := c.pos
		opcode, err := c.readU8()
		if err != nil {
			return nil, nil, err
		}

		if opcode == OpWide {
			wide = true
			continue
		}

		instr := Instruction{Opcode: opcode, Wide: wide}
		isWide := wide
		wide = false

		switch opcode {
		case OpBipush:
			v, err := c.readI8()
			if err != nil {
				return nil, nil, err
			}
			instr.IVal = int32(v)

		case OpSipush:
			v, err := c.readI16()
			if err != nil {
				return nil, nil, err
			}
			instr.IVal = int32(v)

		case OpLdc:
			v, err := c.readU8()
			if err != nil {
				return nil, nil, err
			}
			instr.Index = uint32(v)

		case OpLdcW, OpLdc2W:
			v, err := c.readU16()
			if err != nil {
				return nil, nil, err
			}
			instr.Index = uint32(v)

		case OpIload, OpLload, OpFload, OpDload, OpAload,
			OpIstore, OpLstore, OpFstore, OpDstore, OpAstore:
			if isWide {
				v, err := c.readU16()
				if err != nil {
					return nil, nil, err
				}
				instr.Index = uint32(v)
			} else {
				v, err := c.readU8()
				if err != nil {
					return nil, nil, err
				}
				instr.Index = uint32(v)
			}

		case OpRet:
			if isWide {
				v, err := c.readU16()
				if err != nil {
					return nil, nil, err
				}
				instr.Index = uint32(v)
			} else {
				v, err := c.readU8()
				if err != nil {
					return nil, nil, err
				}
				instr.Index = uint32(v)
			}

		case OpIinc:
			if isWide {
				idx, err := c.readU16()
				if err != nil {
					return nil, nil, err
				}
				inc, err := c.readI16()
				if err != nil {
					return nil, nil, err
				}
				instr.Index = uint32(idx)
				instr.IVal2 = int32(inc)
			} else {
				idx, err := c.readU8()
				if err != nil {
					return nil, nil, err
				}
				inc, err := c.readI8()
				if err != nil {
					return nil, nil, err
				}
				instr.Index = uint32(idx)
				instr.IVal2 = int32(inc)
			}

		case OpNewarray:
			v, err := c.readU8()
			if err != nil {
				return nil, nil, err
			}
			instr.Index = uint32(v)

		case OpAnewarray, OpNew, OpCheckcast, OpInstanceof,
			OpGetstatic, OpPutstatic, OpGetfield, OpPutfield,
			OpInvokevirtual, OpInvokespecial, OpInvokestatic:
			v, err := c.readU16()
			if err != nil {
				return nil, nil, err
			}
			instr.Index = uint32(v)

		case OpInvokeinterface:
			v, err := c.readU16()
			if err != nil {
				return nil, nil, err
			}
			count, err := c.readU8() // historical count operand, unused at runtime
			if err != nil {
				return nil, nil, err
			}
			zero, err := c.readU8()
			if err != nil {
				return nil, nil, err
			}
			if zero != 0 {
				return nil, nil, fmt.Errorf("invokeinterface: expected zero padding byte, got %d", zero)
			}
			instr.Index = uint32(v)
			instr.Dims = count

		case OpInvokedynamic:
			v, err := c.readU16()
			if err != nil {
				return nil, nil, err
			}
			zero, err := c.readU16()
			if err != nil {
				return nil, nil, err
			}
			if zero != 0 {
				return nil, nil, fmt.Errorf("invokedynamic: expected zero padding bytes, got %d", zero)
			}
			instr.Index = uint32(v)

		case OpMultianewarray:
			v, err := c.readU16()
			if err != nil {
				return nil, nil, err
			}
			dims, err := c.readU8()
			if err != nil {
				return nil, nil, err
			}
			if dims < 1 {
				return nil, nil, fmt.Errorf("multianewarray: dimension count must be >= 1, got %d", dims)
			}
			instr.Index = uint32(v)
			instr.Dims = dims

		case OpIfeq, OpIfne, OpIflt, OpIfge, OpIfgt, OpIfle,
			OpIfIcmpeq, OpIfIcmpne, OpIfIcmplt, OpIfIcmpge, OpIfIcmpgt, OpIfIcmple,
			OpIfAcmpeq, OpIfAcmpne, OpGoto, OpJsr, OpIfnull, OpIfnonnull:
			off, err := c.readI16()
			if err != nil {
				return nil, nil, err
			}
			pendingBranches = append(pendingBranches, pendingSingle{
				instrIdx: len(instrs), fromByte: thisByte, rawOffset: int64(off),
			})

		case OpGotoW, OpJsrW:
			off, err := c.readI32()
			if err != nil {
				return nil, nil, err
			}
			pendingBranches = append(pendingBranches, pendingSingle{
				instrIdx: len(instrs), fromByte: thisByte, rawOffset: int64(off),
			})

		case OpTableswitch:
			if err := c.skip(padTo4(c.pos)); err != nil {
				return nil, nil, err
			}
			def, err := c.readI32()
			if err != nil {
				return nil, nil, err
			}
			low, err := c.readI32()
			if err != nil {
				return nil, nil, err
			}
			high, err := c.readI32()
			if err != nil {
				return nil, nil, err
			}
			if high < low {
				return nil, nil, fmt.Errorf("tableswitch: high (%d) < low (%d)", high, low)
			}
			n := int(high-low) + 1
			offsets := make([]int32, n)
			for i := 0; i < n; i++ {
				v, err := c.readI32()
				if err != nil {
					return nil, nil, err
				}
				offsets[i] = v
			}
			pendingSwitches = append(pendingSwitches, pendingSwitch{
				instrIdx: len(instrs), fromByte: thisByte,
				defaultOff: def, low: low, high: high, offsets: offsets, isTable: true,
			})

		case OpLookupswitch:
			if err := c.skip(padTo4(c.pos)); err != nil {
				return nil, nil, err
			}
			def, err := c.readI32()
			if err != nil {
				return nil, nil, err
			}
			n, err := c.readI32()
			if err != nil {
				return nil, nil, err
			}
			if n < 0 {
				return nil, nil, fmt.Errorf("lookupswitch: negative npairs %d", n)
			}
			matches := make([]int32, n)
			offs := make([]int32, n)
			for i := int32(0); i < n; i++ {
				m, err := c.readI32()
				if err != nil {
					return nil, nil, err
				}
				o, err := c.readI32()
				if err != nil {
					return nil, nil, err
				}
				matches[i] = m
				offs[i] = o
			}
			pendingSwitches = append(pendingSwitches, pendingSwitch{
				instrIdx: len(instrs), fromByte: thisByte,
				defaultOff: def, matches: matches, matchOffs: offs, isTable: false,
			})

		// Single-byte opcodes with no operand fall through untouched.
		default:
		}

		instrs = append(instrs, instr)
		startByte = append(startByte, thisByte)
	}

	byteToIndex := make(map[int]int, len(startByte))
	for idx, b := range startByte {
		byteToIndex[b] = idx
	}
	// the end-of-code position is a legal branch/exception-table endpoint
	byteToIndex[len(code)] = len(instrs)

	for _, p := range pendingBranches {
		target := p.fromByte + int(p.rawOffset)
		idx, ok := byteToIndex[target]
		if !ok {
			return nil, nil, fmt.Errorf("branch at byte %d targets byte %d, which is not an instruction boundary", p.fromByte, target)
		}
		instrs[p.instrIdx].IVal = int32(idx)
	}

	for _, p := range pendingSwitches {
		defIdx, ok := byteToIndex[p.fromByte+int(p.defaultOff)]
		if !ok {
			return nil, nil, fmt.Errorf("switch at byte %d has unaligned default target", p.fromByte)
		}
		instrs[p.instrIdx].Default = defIdx
		if p.isTable {
			instrs[p.instrIdx].Low = p.low
			instrs[p.instrIdx].High = p.high
			targets := make([]int, len(p.offsets))
			for i, off := range p.offsets {
				ti, ok := byteToIndex[p.fromByte+int(off)]
				if !ok {
					return nil, nil, fmt.Errorf("tableswitch at byte %d has unaligned target at case %d", p.fromByte, i)
				}
				targets[i] = ti
			}
			instrs[p.instrIdx].Targets = targets
		} else {
			targets := make([]int, len(p.matchOffs))
			for i, off := range p.matchOffs {
				ti, ok := byteToIndex[p.fromByte+int(off)]
				if !ok {
					return nil, nil, fmt.Errorf("lookupswitch at byte %d has unaligned target at case %d", p.fromByte, i)
				}
				targets[i] = ti
			}
			instrs[p.instrIdx].Targets = targets
			instrs[p.instrIdx].Matches = p.matches
		}
	}

	return instrs, byteToIndex, nil
}

// padTo4 returns the number of padding bytes needed to advance pos to the
// next 4-byte boundary measured from the start of the code array.
func padTo4(pos int) int {
	return (4 - pos%4) % 4
}
