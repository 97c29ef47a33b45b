//go:build riscv64

package csr

import "unsafe"

// This file declares the privileged operations implemented in
// asm_riscv64.s. None of these functions have a Go body; the linker
// resolves them to the TEXT symbols of the same name in the assembly file,
// exactly as golang.org/x/sys/unix declares a syscall wrapper here and
// implements the trap in arch-specific assembly.
//
// state, in RunGuest, is a *regs.VmCpuRegisters; it is passed as
// unsafe.Pointer to keep this package free of an import cycle on regs
// (regs in turn imports csr for the bind/unbind primitives), the same
// layout-is-the-contract tradeoff spec §9 calls out for _run_guest.

// ProbeHExtension attempts a benign read of a hypervisor CSR inside a
// trap-guarded landing pad. It returns false, without faulting the caller,
// if the H extension is absent on this hart (spec §4.1).
func ProbeHExtension() bool

func ReadHedeleg() uint64
func WriteHedeleg(v uint64)
func ReadHideleg() uint64
func WriteHideleg(v uint64)
func ReadHvip() uint64
func WriteHvip(v uint64)
func SetHvipBits(mask uint64)
func ClearHvipBits(mask uint64)

// WriteHcounterenAllOnes programs CSR 0x606 directly by numeric literal,
// per spec §4.1's note that the riscv register crate's symbolic alias for
// this CSR is wrong.
func WriteHcounterenAllOnes()

// SetHenvcfgSTCE sets henvcfg.STCE, enabling the Sstc guest-managed timer
// policy of spec §4.6.
func SetHenvcfgSTCE()

func ReadSie() uint64
func WriteSie(v uint64)
func SetSieBits(mask uint64)
func ClearSieBits(mask uint64)

func ReadStvec() uint64
func WriteStvec(v uint64)

func SetSstatusSIE()
func ClearSstatusSIE()

func ReadVsatp() uint64
func WriteVsatp(v uint64)
func ReadVstvec() uint64
func WriteVstvec(v uint64)
func ReadVsepc() uint64
func WriteVsepc(v uint64)
func ReadVstval() uint64
func WriteVstval(v uint64)
func ReadVscause() uint64
func WriteVscause(v uint64)
func ReadVsscratch() uint64
func WriteVsscratch(v uint64)
func ReadVsstatus() uint64
func WriteVsstatus(v uint64)
func ReadVsie() uint64
func WriteVsie(v uint64)
func ReadHtimedelta() uint64
func WriteHtimedelta(v uint64)
func ReadHgatp() uint64
func WriteHgatp(v uint64)

// ReadVstimecmp and WriteVstimecmp access the Sstc virtual timer-compare
// register the SET_TIMER legacy SBI call writes directly when Sstc is
// available (spec §4.4.1).
func ReadVstimecmp() uint64
func WriteVstimecmp(v uint64)

func ReadScause() uint64
func ReadStval() uint64
func ReadHtval() uint64
func ReadHtinst() uint64
func ReadSepc() uint64
func WriteSepc(v uint64)

// HfenceGvmaAll issues hfence.gvma with no operand: a full G-stage TLB
// fence (spec §4.5).
func HfenceGvmaAll()

// SfenceVmaAll issues sfence.vma with no operand: a full stage-1 TLB
// fence, used around vsatp changes (spec §4.2, §5).
func SfenceVmaAll()

// RunGuest is the _run_guest assembly contract of spec §4.3: it saves
// host callee-saved state into state, loads every guest register, issues
// sret, and returns only once a VM-exit trap has routed back into host
// context and stashed guest state back into *state.
func RunGuest(state unsafe.Pointer)

// CopyFromGuestRaw and CopyToGuestRaw are the fault-table-protected copy
// loops of spec §4.2. They never fault the caller: a host page fault
// during the copy returns early with a short count. gpa is interpreted as
// a guest physical address; the caller (guestmem) is responsible for the
// vsatp=Bare / sfence.vma bracketing spec §4.2 requires.
func CopyFromGuestRaw(dst unsafe.Pointer, gpa uint64, n uintptr) uintptr
func CopyToGuestRaw(gpa uint64, src unsafe.Pointer, n uintptr) uintptr

// FetchGuestInstructionRaw issues hlvx.hu at guestVaddr and returns the
// raw bytes read plus whether the access succeeded; a false ok means the
// access faulted and the caller must treat it as a failed access (spec
// §4.2).
func FetchGuestInstructionRaw(guestVaddr uint64) (raw uint32, ok bool)

// EcallForward issues an SBI ecall with the given extension/function id
// and up to six a0..a5 parameters, returning the firmware's (error,
// value) pair verbatim (spec §4.4.1, "forward to a RustSBI-compatible
// client").
func EcallForward(eid, fid uint64, args [6]uint64) (a0, a1 uint64)

// EcallLegacy0 and EcallLegacy1 issue a legacy SBI ecall (extension id in
// a7 only, or a7 plus a single a0 argument) and return the single a0
// result, matching the original's sbi_call_legacy_0/1 helpers.
func EcallLegacy0(eid uint64) uint64
func EcallLegacy1(eid, arg0 uint64) uint64
