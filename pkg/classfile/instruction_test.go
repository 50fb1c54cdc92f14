package classfile

import "testing"

func TestDecodeInstructionsRemapsGoto(t *testing.T) {
	// iconst_0 ; goto +4 (to return) ; iconst_1 ; return
	code := []byte{
		OpIconst0,
		OpGoto, 0x00, 0x04,
		OpIconst1,
		OpReturn,
	}
	instrs, _, err := decodeInstructions(code)
	if err != nil {
		t.Fatalf("decodeInstructions: %v", err)
	}
	if len(instrs) != 4 {
		t.Fatalf("expected 4 instructions, got %d: %+v", len(instrs), instrs)
	}
	// goto is instrs[1]; target byte = 1 (goto's own start) + 4 = 5, which is
	// `return`'s byte offset and instruction index 3.
	if instrs[1].Opcode != OpGoto {
		t.Fatalf("instrs[1] = %+v, want goto", instrs[1])
	}
	if instrs[1].IVal != 3 {
		t.Errorf("goto target: got instruction index %d, want 3", instrs[1].IVal)
	}
}

func TestDecodeInstructionsWideIload(t *testing.T) {
	code := []byte{OpWide, OpIload, 0x01, 0x00, OpReturn}
	instrs, _, err := decodeInstructions(code)
	if err != nil {
		t.Fatalf("decodeInstructions: %v", err)
	}
	if len(instrs) != 2 {
		t.Fatalf("expected 2 instructions (wide folded away), got %d", len(instrs))
	}
	if !instrs[0].Wide || instrs[0].Index != 0x0100 {
		t.Errorf("wide iload: got %+v, want Wide=true Index=0x0100", instrs[0])
	}
}

func TestDecodeInstructionsTableswitch(t *testing.T) {
	// tableswitch at byte 0: opcode + 3 pad bytes to reach offset 4, then
	// default(4) low(4) high(4) and 2 targets(4 each).
	code := make([]byte, 0, 32)
	code = append(code, OpTableswitch, 0, 0, 0) // opcode + pad to 4-byte boundary
	appendI32 := func(v int32) {
		code = append(code, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
	appendI32(28) // default offset -> byte 28
	appendI32(0)  // low
	appendI32(1)  // high
	appendI32(24) // case 0 -> byte 24 (right after the table, which ends at byte 24)
	appendI32(28) // case 1 -> byte 28
	code = append(code, OpIconst1) // byte 24
	for len(code) < 28 {
		code = append(code, OpNop)
	}
	code = append(code, OpReturn) // byte 28 (default and case 1 target)

	instrs, _, err := decodeInstructions(code)
	if err != nil {
		t.Fatalf("decodeInstructions: %v", err)
	}
	sw := instrs[0]
	if sw.Opcode != OpTableswitch {
		t.Fatalf("instrs[0] = %+v, want tableswitch", sw)
	}
	if sw.Low != 0 || sw.High != 1 {
		t.Errorf("tableswitch bounds: got [%d,%d], want [0,1]", sw.Low, sw.High)
	}
	if len(sw.Targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(sw.Targets))
	}
}

func TestDecodeInstructionsRejectsMisalignedBranch(t *testing.T) {
	// goto into the middle of the sipush immediate bytes, not an instruction boundary
	code := []byte{
		OpGoto, 0x00, 0x04,
		OpSipush, 0x00, 0x01,
		OpReturn,
	}
	if _, _, err := decodeInstructions(code); err == nil {
		t.Error("expected error for branch target that is not an instruction boundary")
	}
}
