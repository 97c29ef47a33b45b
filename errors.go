package riscvvcpu

import (
	"errors"
	"fmt"
)

// ErrUnsupported covers spec §7 tier 2's "Unsupported" cases as this
// package uses them: HardwareEnable returns it when the hardware lacks the
// H extension, and the guest-page-fault decoder uses it internally when no
// instruction can be decoded (that case reaches the caller as a
// NestedPageFault exit, not as this error). An SBI reset type other than
// shutdown is reported to the guest as sbi.ErrNotSupported in a0 instead.
var ErrUnsupported = errors.New("riscvvcpu: operation not supported")

// ErrInvalidData covers spec §7 tier 2's "InvalidData" case: an scause
// value that classifies as neither a known interrupt nor a known
// exception.
var ErrInvalidData = errors.New("riscvvcpu: invalid trap data")

// FatalTrapError is produced by the VM-exit dispatcher when it reaches an
// unhandled, non-fault trap it has no ExitReason for (spec §7 tier 3).
// The handler that constructs one panics with it rather than returning it
// — continuing would run the hypervisor on top of corrupted trap state.
type FatalTrapError struct {
	Scause uint64
	Sepc   uint64
	Stval  uint64
}

func (e *FatalTrapError) Error() string {
	return fmt.Sprintf("riscvvcpu: fatal trap scause=%#x sepc=%#x stval=%#x", e.Scause, e.Sepc, e.Stval)
}
