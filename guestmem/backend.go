package guestmem

import (
	"unsafe"

	"github.com/arceos-hypervisor/riscv-vcpu/csr"
)

// csrBackend adapts the csr package's free functions to the VMFence
// interface. This is the only production implementation; everything else
// in this package is written against the interface so it can be exercised
// off riscv64.
type csrBackend struct{}

// DefaultBackend is the production VMFence, backed directly by the csr
// package's privileged operations.
var DefaultBackend VMFence = csrBackend{}

func (csrBackend) ReadVsatp() uint64        { return csr.ReadVsatp() }
func (csrBackend) WriteVsatp(v uint64)      { csr.WriteVsatp(v) }
func (csrBackend) SfenceVmaAll()            { csr.SfenceVmaAll() }
func (csrBackend) CopyFromGuestRaw(dst unsafe.Pointer, gpa uint64, n uintptr) uintptr {
	return csr.CopyFromGuestRaw(dst, gpa, n)
}
func (csrBackend) CopyToGuestRaw(gpa uint64, src unsafe.Pointer, n uintptr) uintptr {
	return csr.CopyToGuestRaw(gpa, src, n)
}
func (csrBackend) FetchGuestInstructionRaw(guestVaddr uint64) (uint32, bool) {
	return csr.FetchGuestInstructionRaw(guestVaddr)
}

// NewDefault builds a Helper backed by the real csr package privileged
// operations.
func NewDefault() *Helper {
	return New(DefaultBackend)
}
