// Package decode is a small hand-written decoder over the RISC-V base-I
// load/store opcodes, used by the guest-page-fault path (spec §4.4.2) to
// reconstruct a memory access from a trapped instruction. Spec §9 notes
// "any third-party table-driven decoder suffices" but none of the example
// repositories pull in one (riscv64 instruction decoding is a narrow
// enough need that the ecosystem doesn't carry a general-purpose library
// for it), so this is hand-written and kept intentionally small: it only
// covers the opcodes spec §4.4.2's table names.
package decode

import "fmt"

// Width is the access width of a decoded load or store.
type Width int

const (
	Byte Width = iota
	Halfword
	Word
	Doubleword
)

// Kind distinguishes a load from a store.
type Kind int

const (
	KindLoad Kind = iota
	KindStore
)

// Instruction is the result of decoding a single RV64I load or store.
// Only the fields relevant to the opcode's Kind are meaningful: a load
// sets Rd/SignExt, a store sets Rs2.
type Instruction struct {
	Kind     Kind
	Width    Width
	SignExt  bool
	Rd       uint32 // valid when Kind == KindLoad
	Rs2      uint32 // valid when Kind == KindStore
	Rs1      uint32
	Imm      int32
	Length   int // 2 or 4, instruction length in bytes
}

// funct3 values for the I-type load opcode (0x03) and S-type store
// opcode (0x23), per the RISC-V base ISA.
const (
	funct3LB  = 0b000
	funct3LH  = 0b001
	funct3LW  = 0b010
	funct3LD  = 0b011
	funct3LBU = 0b100
	funct3LHU = 0b101
	funct3LWU = 0b110

	funct3SB = 0b000
	funct3SH = 0b001
	funct3SW = 0b010
	funct3SD = 0b011
)

const (
	opcodeLoad  = 0b0000011
	opcodeStore = 0b0100011
)

// ErrUnsupportedOpcode is returned by Decode for anything outside the
// load/store table spec §4.4.2 names; the caller must treat it as a
// NestedPageFault per that table's "Any other" row.
type ErrUnsupportedOpcode struct {
	Opcode uint32
}

func (e ErrUnsupportedOpcode) Error() string {
	return fmt.Sprintf("decode: unsupported opcode %#09b", e.Opcode)
}

// InstructionLength applies the standard RISC-V rule: bits [1:0] of the
// first halfword being 11 marks a 4-byte standard instruction; any other
// value marks a 2-byte compressed instruction.
func InstructionLength(firstHalfword uint16) int {
	if firstHalfword&0x3 == 0x3 {
		return 4
	}
	return 2
}

// Decode decodes a raw 32-bit RV64I instruction word into an Instruction,
// covering exactly the load/store opcodes spec §4.4.2 maps to MmioRead/
// MmioWrite. Compressed (16-bit) instructions are not accepted here: the
// caller widens a transformed htinst value to 32 bits (per spec §4.4.2's
// "set bit 1 before decode") before calling Decode.
func Decode(raw uint32) (Instruction, error) {
	opcode := raw & 0x7F
	funct3 := (raw >> 12) & 0x7
	rd := (raw >> 7) & 0x1F
	rs1 := (raw >> 15) & 0x1F

	switch opcode {
	case opcodeLoad:
		width, signExt, ok := loadWidth(funct3)
		if !ok {
			return Instruction{}, ErrUnsupportedOpcode{Opcode: raw}
		}
		imm := int32(raw) >> 20
		return Instruction{
			Kind:    KindLoad,
			Width:   width,
			SignExt: signExt,
			Rd:      rd,
			Rs1:     rs1,
			Imm:     imm,
			Length:  4,
		}, nil

	case opcodeStore:
		width, ok := storeWidth(funct3)
		if !ok {
			return Instruction{}, ErrUnsupportedOpcode{Opcode: raw}
		}
		rs2 := (raw >> 20) & 0x1F
		immHi := int32(raw) >> 25 << 5
		immLo := int32(rd)
		imm := immHi | immLo
		return Instruction{
			Kind:   KindStore,
			Width:  width,
			Rs1:    rs1,
			Rs2:    rs2,
			Imm:    imm,
			Length: 4,
		}, nil

	default:
		return Instruction{}, ErrUnsupportedOpcode{Opcode: raw}
	}
}

func loadWidth(funct3 uint32) (Width, bool, bool) {
	switch funct3 {
	case funct3LB:
		return Byte, true, true
	case funct3LH:
		return Halfword, true, true
	case funct3LW:
		return Word, true, true
	case funct3LD:
		return Doubleword, true, true
	case funct3LBU:
		return Byte, false, true
	case funct3LHU:
		return Halfword, false, true
	case funct3LWU:
		return Word, false, true
	default:
		return 0, false, false
	}
}

func storeWidth(funct3 uint32) (Width, bool) {
	switch funct3 {
	case funct3SB:
		return Byte, true
	case funct3SH:
		return Halfword, true
	case funct3SW:
		return Word, true
	case funct3SD:
		return Doubleword, true
	default:
		return 0, false
	}
}

// Encode builds a raw load or store instruction word from an Instruction,
// used only by tests to exercise the round-trip property spec §8 names
// ("decode_instr_at(encode(L)) == L").
func Encode(instr Instruction) (uint32, error) {
	switch instr.Kind {
	case KindLoad:
		funct3, ok := encodeLoadFunct3(instr.Width, instr.SignExt)
		if !ok {
			return 0, fmt.Errorf("decode: no load encoding for width=%v signExt=%v", instr.Width, instr.SignExt)
		}
		return uint32(instr.Imm)<<20&0xFFF00000 |
			instr.Rs1<<15 |
			funct3<<12 |
			instr.Rd<<7 |
			opcodeLoad, nil

	case KindStore:
		funct3, ok := encodeStoreFunct3(instr.Width)
		if !ok {
			return 0, fmt.Errorf("decode: no store encoding for width=%v", instr.Width)
		}
		imm := uint32(instr.Imm)
		immLo := imm & 0x1F
		immHi := (imm >> 5) & 0x7F
		return immHi<<25 |
			instr.Rs2<<20 |
			instr.Rs1<<15 |
			funct3<<12 |
			immLo<<7 |
			opcodeStore, nil

	default:
		return 0, fmt.Errorf("decode: unknown instruction kind %v", instr.Kind)
	}
}

func encodeLoadFunct3(w Width, signExt bool) (uint32, bool) {
	switch {
	case w == Byte && signExt:
		return funct3LB, true
	case w == Halfword && signExt:
		return funct3LH, true
	case w == Word && signExt:
		return funct3LW, true
	case w == Doubleword && signExt:
		return funct3LD, true
	case w == Byte && !signExt:
		return funct3LBU, true
	case w == Halfword && !signExt:
		return funct3LHU, true
	case w == Word && !signExt:
		return funct3LWU, true
	default:
		return 0, false
	}
}

func encodeStoreFunct3(w Width) (uint32, bool) {
	switch w {
	case Byte:
		return funct3SB, true
	case Halfword:
		return funct3SH, true
	case Word:
		return funct3SW, true
	case Doubleword:
		return funct3SD, true
	default:
		return 0, false
	}
}
