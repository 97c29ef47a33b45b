// Package guestmem is the guest-memory helper of spec.md §2.3/§4.2: safe
// wrappers around the privileged copy_from_guest/copy_to_guest routines
// and the fetch_guest_instruction helper. Every operation here brackets
// its privileged body with the vsatp=Bare switch and sfence.vma pair spec
// §4.2 and §5 require, and never lets a host fault escape as a panic.
package guestmem

import "unsafe"

// VMFence abstracts the csr privileged operations this package depends on
// (vsatp access, sfence.vma, and the raw copy and instruction-fetch
// routines), so unit tests can run on any GOARCH
// against a fake backend instead of requiring riscv64 assembly, mirroring
// the teacher's MockInterruptRaiser/MockTapDevice fakes.
type VMFence interface {
	ReadVsatp() uint64
	WriteVsatp(uint64)
	SfenceVmaAll()
	CopyFromGuestRaw(dst unsafe.Pointer, gpa uint64, n uintptr) uintptr
	CopyToGuestRaw(gpa uint64, src unsafe.Pointer, n uintptr) uintptr
	FetchGuestInstructionRaw(guestVaddr uint64) (raw uint32, ok bool)
}

// Helper performs guest-memory accesses against a VMFence backend. The
// zero value is not usable; construct with New.
type Helper struct {
	backend VMFence
}

// New builds a Helper over the given privileged backend. Production code
// passes the csr package's package-level functions (wrapped in
// csrBackend, see backend.go); tests pass a fake.
func New(backend VMFence) *Helper {
	return &Helper{backend: backend}
}

// withBareVsatp runs fn with vsatp temporarily set to Bare (0), saving and
// restoring the prior value and fencing before and after, per spec §4.2's
// precondition for the copy routines.
func (h *Helper) withBareVsatp(fn func()) {
	saved := h.backend.ReadVsatp()
	h.backend.WriteVsatp(0)
	h.backend.SfenceVmaAll()
	fn()
	h.backend.WriteVsatp(saved)
	h.backend.SfenceVmaAll()
}

// CopyFromGuest copies len(dst) bytes starting at guest physical address
// gpa into dst, returning the number of bytes actually copied. A short
// count (including 0 for a copy of more than zero bytes) means the access
// faulted; callers must treat it as a failed access (spec §4.2, §7 tier
// "never trap the hypervisor").
//
// A zero-length request returns 0 without touching vsatp (spec §8
// boundary behavior).
func (h *Helper) CopyFromGuest(dst []byte, gpa uint64) int {
	if len(dst) == 0 {
		return 0
	}
	var n uintptr
	h.withBareVsatp(func() {
		n = h.backend.CopyFromGuestRaw(unsafe.Pointer(&dst[0]), gpa, uintptr(len(dst)))
	})
	return int(n)
}

// CopyToGuest copies src into guest physical address gpa, returning the
// number of bytes actually copied. See CopyFromGuest for failure
// semantics.
func (h *Helper) CopyToGuest(src []byte, gpa uint64) int {
	if len(src) == 0 {
		return 0
	}
	var n uintptr
	h.withBareVsatp(func() {
		n = h.backend.CopyToGuestRaw(gpa, unsafe.Pointer(&src[0]), uintptr(len(src)))
	})
	return int(n)
}

// FetchGuestInstruction reads at most 4 bytes at guestVaddr using
// hlvx.hu, returning 0 if the access faulted. Callers distinguish "faulted"
// from "read a literal zero instruction" only by the fact that a zero raw
// instruction is never valid RISC-V encoding, matching the original's
// fetch_guest_instruction contract.
func (h *Helper) FetchGuestInstruction(guestVaddr uint64) uint32 {
	raw, ok := h.backend.FetchGuestInstructionRaw(guestVaddr)
	if !ok {
		return 0
	}
	return raw
}
