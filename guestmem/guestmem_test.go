package guestmem

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// fakeBackend models a flat guest physical address space in a Go slice,
// standing in for real hardware the way the teacher's MockTapDevice
// stands in for a kernel tap fd.
type fakeBackend struct {
	mem          []byte
	vsatp        uint64
	fenceCount   int
	faultAtGPA   uint64
	faultEnabled bool
}

func newFakeBackend(size int) *fakeBackend {
	return &fakeBackend{mem: make([]byte, size)}
}

func (f *fakeBackend) ReadVsatp() uint64   { return f.vsatp }
func (f *fakeBackend) WriteVsatp(v uint64) { f.vsatp = v }
func (f *fakeBackend) SfenceVmaAll()       { f.fenceCount++ }

func (f *fakeBackend) CopyFromGuestRaw(dst unsafe.Pointer, gpa uint64, n uintptr) uintptr {
	if f.faultEnabled && gpa == f.faultAtGPA {
		return 0
	}
	out := unsafe.Slice((*byte)(dst), n)
	copy(out, f.mem[gpa:uint64(n)+gpa])
	return n
}

func (f *fakeBackend) CopyToGuestRaw(gpa uint64, src unsafe.Pointer, n uintptr) uintptr {
	if f.faultEnabled && gpa == f.faultAtGPA {
		return 0
	}
	in := unsafe.Slice((*byte)(src), n)
	copy(f.mem[gpa:uint64(n)+gpa], in)
	return n
}

func (f *fakeBackend) FetchGuestInstructionRaw(guestVaddr uint64) (uint32, bool) {
	if f.faultEnabled && guestVaddr == f.faultAtGPA {
		return 0, false
	}
	return 0x00000013, true // addi x0, x0, 0 (nop)
}

func TestCopyToThenFromGuestRoundTrips(t *testing.T) {
	backend := newFakeBackend(4096)
	h := New(backend)

	payload := []byte("hello, guest")
	n := h.CopyToGuest(payload, 0x100)
	require.Equal(t, len(payload), n)

	got := make([]byte, len(payload))
	n = h.CopyFromGuest(got, 0x100)
	require.Equal(t, len(payload), n)
	require.Equal(t, payload, got)
}

func TestCopyBracketsWithBareVsatpAndFence(t *testing.T) {
	backend := newFakeBackend(64)
	backend.vsatp = 0xBEEF
	h := New(backend)

	h.CopyToGuest([]byte{1, 2, 3}, 0)

	require.Equal(t, uint64(0xBEEF), backend.vsatp, "vsatp must be restored after the copy")
	require.Equal(t, 2, backend.fenceCount, "sfence.vma must bracket the copy exactly once on each side")
}

func TestZeroLengthCopyDoesNotTouchVsatp(t *testing.T) {
	backend := newFakeBackend(64)
	backend.vsatp = 0xCAFE
	h := New(backend)

	n := h.CopyFromGuest(nil, 0x10)
	require.Equal(t, 0, n)
	require.Equal(t, uint64(0xCAFE), backend.vsatp)
	require.Equal(t, 0, backend.fenceCount)
}

func TestCopyFromGuestFaultReturnsShortCount(t *testing.T) {
	backend := newFakeBackend(64)
	backend.faultEnabled = true
	backend.faultAtGPA = 0x20
	h := New(backend)

	got := make([]byte, 8)
	n := h.CopyFromGuest(got, 0x20)
	require.Equal(t, 0, n)
}

func TestFetchGuestInstructionFaultReturnsZero(t *testing.T) {
	backend := newFakeBackend(64)
	backend.faultEnabled = true
	backend.faultAtGPA = 0x1000
	h := New(backend)

	require.Equal(t, uint32(0), h.FetchGuestInstruction(0x1000))
	require.Equal(t, uint32(0x13), h.FetchGuestInstruction(0x2000))
}
