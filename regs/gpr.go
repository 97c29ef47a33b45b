// Package regs is the guest register file of spec.md §2.2/§3: a
// fixed-layout, assembly-addressable record shared between the world
// switch (csr.RunGuest) and the exit handler. Its field order is part of
// the ABI csr.RunGuest's assembly depends on (see asm_riscv64.s's offset
// comments on regs.VmCpuRegisters) and must not be reordered casually.
package regs

// GprIndex names the 32 RISC-V integer registers by their calling-convention
// role (ra, sp, gp, tp, a0-a7, ...) rather than the distillation's bare
// "a0..a7 are indices 10..17" summary. The naming is standard RISC-V ABI
// convention, not drawn from any file in original_source/.
type GprIndex int

const (
	Zero GprIndex = iota
	Ra
	Sp
	Gp
	Tp
	T0
	T1
	T2
	S0
	S1
	A0
	A1
	A2
	A3
	A4
	A5
	A6
	A7
	S2
	S3
	S4
	S5
	S6
	S7
	S8
	S9
	S10
	S11
	T3
	T4
	T5
	T6
)

// numGPRs is the architectural register count; GeneralRegisters and every
// _gprs array below are sized to it.
const numGPRs = 32

// String names a GprIndex by its RISC-V ABI mnemonic, for trace logging.
func (g GprIndex) String() string {
	names := [numGPRs]string{
		"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
		"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
		"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
		"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
	}
	if int(g) < 0 || int(g) >= numGPRs {
		return "gpr?"
	}
	return names[g]
}

// GeneralRegisters is a guest or host GPR bank. Index 0 is hardwired zero
// per spec §3 and the testable property in spec §8: writes to it are a
// no-op, reads always yield 0.
type GeneralRegisters [numGPRs]uint64

// Reg reads register idx, returning 0 for idx == Zero regardless of what
// was last written there.
func (r *GeneralRegisters) Reg(idx GprIndex) uint64 {
	if idx == Zero {
		return 0
	}
	return r[idx]
}

// SetReg writes val into register idx. Writing to Zero is silently
// discarded, matching hardware's hardwired x0.
func (r *GeneralRegisters) SetReg(idx GprIndex, val uint64) {
	if idx == Zero {
		return
	}
	r[idx] = val
}
