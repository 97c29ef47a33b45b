package riscvvcpu

import "github.com/arceos-hypervisor/riscv-vcpu/decode"

// ExitReasonKind discriminates the ExitReason variants spec §6 requires.
// Go has no native sum type, so ExitReason follows the tagged-union shape
// the examples use for the same problem (a Kind enum plus a struct wide
// enough to carry every variant's payload): only the fields the Kind
// names are meaningful on any given value.
type ExitReasonKind int

const (
	ExitNothing ExitReasonKind = iota
	ExitHypercall
	ExitCpuUp
	ExitCpuDown
	ExitHalt
	ExitSystemDown
	ExitMmioRead
	ExitMmioWrite
	ExitNestedPageFault
	ExitExternalInterrupt
	ExitTimerTick
)

func (k ExitReasonKind) String() string {
	switch k {
	case ExitNothing:
		return "Nothing"
	case ExitHypercall:
		return "Hypercall"
	case ExitCpuUp:
		return "CpuUp"
	case ExitCpuDown:
		return "CpuDown"
	case ExitHalt:
		return "Halt"
	case ExitSystemDown:
		return "SystemDown"
	case ExitMmioRead:
		return "MmioRead"
	case ExitMmioWrite:
		return "MmioWrite"
	case ExitNestedPageFault:
		return "NestedPageFault"
	case ExitExternalInterrupt:
		return "ExternalInterrupt"
	case ExitTimerTick:
		return "TimerTick"
	default:
		return "Unknown"
	}
}

// ExitReason is the result of a VM-exit, the sole product of VCpu.Run.
type ExitReason struct {
	Kind ExitReasonKind

	// Hypercall (EIDHVC)
	HypercallNr   uint64
	HypercallArgs [6]uint64

	// CpuUp (HSM HART_START)
	TargetCPU  uint64
	EntryPoint uint64
	Arg        uint64

	// CpuDown
	State uint64

	// MmioRead / MmioWrite
	Addr     uint64
	Width    decode.Width
	Reg      uint32
	RegWidth decode.Width
	SignExt  bool
	Data     uint64

	// NestedPageFault
	AccessFlags uint64

	// ExternalInterrupt
	Vector uint64
}

// Nothing is the exit reason for a trap the dispatcher fully absorbed
// with no action the VM manager needs to take (spec §4.4's timer-policy
// "Nothing (or TimerTick)" row).
func Nothing() ExitReason { return ExitReason{Kind: ExitNothing} }
