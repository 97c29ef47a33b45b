package riscvvcpu

import "unsafe"

// fakeMemBackend is a flat, in-process stand-in for the csr package's
// privileged guest-memory primitives, letting vCPU-level tests exercise
// DBCN/MMIO paths without GOARCH=riscv64 assembly.
type fakeMemBackend struct {
	mem   []byte
	vsatp uint64

	// fetchInstr, keyed by guest vaddr, lets a test make
	// FetchGuestInstructionRaw return a specific encoded instruction word
	// instead of the default "nothing mapped" failure.
	fetchInstr map[uint64]uint32
}

func newFakeMemBackend(size int) *fakeMemBackend {
	return &fakeMemBackend{mem: make([]byte, size)}
}

func (f *fakeMemBackend) ReadVsatp() uint64   { return f.vsatp }
func (f *fakeMemBackend) WriteVsatp(v uint64) { f.vsatp = v }
func (f *fakeMemBackend) SfenceVmaAll()       {}

func (f *fakeMemBackend) CopyFromGuestRaw(dst unsafe.Pointer, gpa uint64, n uintptr) uintptr {
	out := unsafe.Slice((*byte)(dst), n)
	copy(out, f.mem[gpa:uint64(n)+gpa])
	return n
}

func (f *fakeMemBackend) CopyToGuestRaw(gpa uint64, src unsafe.Pointer, n uintptr) uintptr {
	in := unsafe.Slice((*byte)(src), n)
	copy(f.mem[gpa:uint64(n)+gpa], in)
	return n
}

func (f *fakeMemBackend) FetchGuestInstructionRaw(guestVaddr uint64) (uint32, bool) {
	raw, ok := f.fetchInstr[guestVaddr]
	return raw, ok
}

// setFetchInstr makes a later FetchGuestInstructionRaw(vaddr) return raw.
func (f *fakeMemBackend) setFetchInstr(vaddr uint64, raw uint32) {
	if f.fetchInstr == nil {
		f.fetchInstr = make(map[uint64]uint32)
	}
	f.fetchInstr[vaddr] = raw
}
