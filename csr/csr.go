// Package csr is the architecture-dependent floor of this module: the named
// CSR bit masks, the trap taxonomy, and the privileged operations (world
// switch, guest-memory copy, CSR bind/unbind) that only exist as RISC-V
// assembly. Everything that does not need a privileged instruction lives in
// this file and builds on any GOARCH; everything that does is declared here
// and implemented either in asm_riscv64.s (GOARCH=riscv64) or stubbed out in
// asm_stub.go (every other GOARCH), the same split golang.org/x/sys/unix
// uses for syscalls that only exist on some platforms.
package csr

import "errors"

// ErrUnsupportedArch is the value RunGuest panics with when this package
// is built for a GOARCH other than riscv64; the other portable stubs
// return zero values instead of an error. It should never be
// observed in a production build of a hypervisor that only ships for
// riscv64; it exists so the module type-checks and vets on a contributor's
// workstation.
var ErrUnsupportedArch = errors.New("csr: hypervisor privileged instructions are only available on GOARCH=riscv64")

// Stage-2 translation modes, indexed by page-table level per spec §3.
// hgatp.MODE occupies bits [63:60].
const (
	ModeSv39x4 uint64 = 8
	ModeSv48x4 uint64 = 9
	ModeSv57x4 uint64 = 10
)

// modeForLevel maps a stage-2 page-table level (3, 4, or 5) to the hgatp
// MODE field that selects it. Level 3 is Sv39x4 (three walk levels plus the
// 2-bit VMID/guest root extension), and so on.
func modeForLevel(level int) (uint64, bool) {
	switch level {
	case 3:
		return ModeSv39x4, true
	case 4:
		return ModeSv48x4, true
	case 5:
		return ModeSv57x4, true
	default:
		return 0, false
	}
}

// hgatpPPNMask covers the 44-bit PPN field of hgatp (bits [43:0]).
const hgatpPPNMask = (uint64(1) << 44) - 1

// hgatpVMIDMask covers the 16-bit VMID field of hgatp (bits [59:44]).
const hgatpVMIDMask = uint64(0xFFFF)

// ComposeHgatp builds the value to install into hgatp for the given stage-2
// root PPN and page-table level, per spec §3's set-stage2-root contract.
// The VMID field is left zero; use WithVMID to install it separately, which
// is how setup_current_cpu (spec §4.5) keeps MODE/PPN intact while
// retagging VMID.
func ComposeHgatp(rootPPN uint64, level int) (uint64, error) {
	mode, ok := modeForLevel(level)
	if !ok {
		return 0, errors.New("csr: unsupported stage-2 page-table level")
	}
	return mode<<60 | (rootPPN & hgatpPPNMask), nil
}

// HgatpMode extracts the MODE field (bits [63:60]) from an hgatp value.
func HgatpMode(hgatp uint64) uint64 { return hgatp >> 60 }

// HgatpPPN extracts the PPN field (bits [43:0]) from an hgatp value.
func HgatpPPN(hgatp uint64) uint64 { return hgatp & hgatpPPNMask }

// HgatpVMID extracts the VMID field (bits [59:44]) from an hgatp value.
func HgatpVMID(hgatp uint64) uint16 { return uint16((hgatp >> 44) & hgatpVMIDMask) }

// WithVMID recomposes hgatp preserving MODE and PPN but overwriting the
// 16-bit VMID field, per spec §4.5's setup_current_cpu contract.
func WithVMID(hgatp uint64, vmid uint16) uint64 {
	cleared := hgatp &^ (hgatpVMIDMask << 44)
	return cleared | ((uint64(vmid) & hgatpVMIDMask) << 44)
}

// TrapKind classifies a raw scause value into interrupt-or-exception plus
// the numeric cause, per spec §2.1.
type TrapKind int

const (
	// TrapUnknown is returned when the raw scause encoding matches
	// neither a known interrupt nor a known exception; the caller must
	// surface ErrInvalidData (spec §7 tier 2).
	TrapUnknown TrapKind = iota
	TrapException
	TrapInterrupt
)

// scauseInterruptBit is bit 63 of a 64-bit scause value: set for
// interrupts, clear for exceptions.
const scauseInterruptBit = uint64(1) << 63

// Exception causes used by the hedeleg mask PerCpu.HardwareEnable installs
// (spec §4.1) and by the VM-exit dispatcher. These are the raw scause
// "exception code" values (bits [62:0] when the interrupt bit is clear).
const (
	ExceptionInstAddrMisaligned   = 0
	ExceptionBreakpoint           = 3
	ExceptionEnvCallFromUOrVU     = 8
	ExceptionInstPageFault        = 12
	ExceptionLoadPageFault        = 13
	ExceptionStorePageFault       = 15
	ExceptionIllegalInst          = 2
	ExceptionVirtualSupervisorEcall = 10
	ExceptionLoadGuestPageFault   = 21
	ExceptionStoreGuestPageFault  = 23
	ExceptionInstGuestPageFault   = 20
)

// Interrupt causes, as raw scause "exception code" values with the
// interrupt bit implied set.
const (
	InterruptSupervisorSoftware = 1
	InterruptSupervisorTimer    = 5
	InterruptSupervisorExternal = 9
)

// HedelegMask is the delegation bit vector PerCpu.HardwareEnable installs
// into hedeleg (spec §4.1): every synchronous exception that should trap
// directly to the guest's VS-mode handler instead of being intercepted by
// the hypervisor's own handler. Notably ECALL-from-VS and the two guest-page-fault causes are
// absent — those must reach the hypervisor's trap vector so vmexit_handler
// can classify them.
const HedelegMask uint64 = (1 << ExceptionInstAddrMisaligned) |
	(1 << ExceptionBreakpoint) |
	(1 << ExceptionEnvCallFromUOrVU) |
	(1 << ExceptionInstPageFault) |
	(1 << ExceptionLoadPageFault) |
	(1 << ExceptionStorePageFault) |
	(1 << ExceptionIllegalInst)

// HidelegMask is the interrupt delegation bit vector for hideleg: the
// three virtual-supervisor interrupts (spec §4.1). hideleg uses the same
// bit positions as hvip.
const HidelegMask uint64 = HvipVSTIP | HvipVSEIP | HvipVSSIP

// hvip bit positions, used by InjectInterrupt and the per-hart clear on
// enable (spec §4.1, §4.6).
const (
	HvipVSSIP = uint64(1) << 2
	HvipVSTIP = uint64(1) << 6
	HvipVSEIP = uint64(1) << 10
)

// sie bit positions.
const (
	SieSSIE = uint64(1) << 1
	SieSTIE = uint64(1) << 5
	SieSEIE = uint64(1) << 9
)

// HcounterenCSR is 0x606. The riscv register crate's symbolic alias for it
// is wrong (spec §4.1 calls this out explicitly); this package always
// addresses it by numeric literal for exactly that reason.
const HcounterenCSR = 0x606

// knownExceptionCodes are the synchronous exception codes defined by the
// RISC-V privileged architecture (bit 63 of scause clear).
var knownExceptionCodes = map[uint64]bool{
	0: true, 1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true,
	8: true, 9: true, 10: true, 11: true, 12: true, 13: true, 15: true,
	18: true, 19: true, 20: true, 21: true, 22: true, 23: true,
}

// knownInterruptCodes are the interrupt codes defined by the RISC-V
// privileged architecture (bit 63 of scause set).
var knownInterruptCodes = map[uint64]bool{
	1: true, 2: true, 3: true,
	5: true, 6: true, 7: true,
	9: true, 10: true, 11: true,
	13: true,
}

// ClassifyScause splits a raw scause value into its TrapKind and the
// exception/interrupt code, so callers never have to repeat the
// interrupt-bit test spec §9's open question warns is easy to get wrong by
// re-deriving it at multiple call sites. A code that matches neither
// table yields TrapUnknown (spec §8's boundary test: an scause encoding
// that decodes to no known variant must surface ErrInvalidData).
func ClassifyScause(raw uint64) (TrapKind, uint64) {
	code := raw &^ scauseInterruptBit
	if raw&scauseInterruptBit != 0 {
		if !knownInterruptCodes[code] {
			return TrapUnknown, code
		}
		return TrapInterrupt, code
	}
	if !knownExceptionCodes[code] {
		return TrapUnknown, code
	}
	return TrapException, code
}

// PAWidth is the platform's physical address width in bits. Spec §9 flags
// two conventions seen in the wild (56 vs. architectural max); this module
// treats it as a fixed platform constant rather than deriving it from
// satp.MODE, per that note.
const PAWidth = 56

// TimerPolicy selects one of the two build-time interrupt strategies of
// spec §4.6.
type TimerPolicy int

const (
	// TimerGuestManaged requires Sstc; the guest programs vstimecmp
	// directly and host STIE stays off except for the watchdog tick.
	TimerGuestManaged TimerPolicy = iota
	// TimerHostRelayed has the host own stimecmp and relay ticks into
	// hvip.VSTIP.
	TimerHostRelayed
)
