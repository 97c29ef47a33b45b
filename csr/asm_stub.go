//go:build !riscv64

package csr

import "unsafe"

// This file lets the package build and vet on a contributor's workstation
// (amd64, arm64, ...); none of it ever runs on real hardware. Every
// function returns the zero value (false where the real implementation
// reports success as a bool); RunGuest alone panics with
// ErrUnsupportedArch. This mirrors the "unsupported platform"
// stubs golang.org/x/sys/unix ships for syscalls that only exist on one
// GOOS.

func ProbeHExtension() bool { return false }

func ReadHedeleg() uint64     { return 0 }
func WriteHedeleg(v uint64)   {}
func ReadHideleg() uint64     { return 0 }
func WriteHideleg(v uint64)   {}
func ReadHvip() uint64        { return 0 }
func WriteHvip(v uint64)      {}
func SetHvipBits(mask uint64) {}
func ClearHvipBits(mask uint64) {}

func WriteHcounterenAllOnes() {}
func SetHenvcfgSTCE()         {}

func ReadSie() uint64        { return 0 }
func WriteSie(v uint64)      {}
func SetSieBits(mask uint64) {}
func ClearSieBits(mask uint64) {}

func ReadStvec() uint64   { return 0 }
func WriteStvec(v uint64) {}

func SetSstatusSIE()   {}
func ClearSstatusSIE() {}

func ReadVsatp() uint64      { return 0 }
func WriteVsatp(v uint64)    {}
func ReadVstvec() uint64     { return 0 }
func WriteVstvec(v uint64)   {}
func ReadVsepc() uint64      { return 0 }
func WriteVsepc(v uint64)    {}
func ReadVstval() uint64     { return 0 }
func WriteVstval(v uint64)   {}
func ReadVscause() uint64    { return 0 }
func WriteVscause(v uint64)  {}
func ReadVsscratch() uint64  { return 0 }
func WriteVsscratch(v uint64) {}
func ReadVsstatus() uint64   { return 0 }
func WriteVsstatus(v uint64) {}
func ReadVsie() uint64       { return 0 }
func WriteVsie(v uint64)     {}
func ReadHtimedelta() uint64 { return 0 }
func WriteHtimedelta(v uint64) {}
func ReadHgatp() uint64      { return 0 }
func WriteHgatp(v uint64)    {}

func ReadVstimecmp() uint64   { return 0 }
func WriteVstimecmp(v uint64) {}

func ReadScause() uint64 { return 0 }
func ReadStval() uint64  { return 0 }
func ReadHtval() uint64  { return 0 }
func ReadHtinst() uint64 { return 0 }
func ReadSepc() uint64   { return 0 }
func WriteSepc(v uint64) {}

func HfenceGvmaAll() {}
func SfenceVmaAll()  {}

// RunGuest panics on a non-riscv64 build: there is no meaningful stub for
// "enter the guest". VCpu.Run calls it with no build constraint of its
// own, so running a bound vCPU on a non-riscv64 build panics here.
func RunGuest(state unsafe.Pointer) {
	panic(ErrUnsupportedArch)
}

func CopyFromGuestRaw(dst unsafe.Pointer, gpa uint64, n uintptr) uintptr { return 0 }
func CopyToGuestRaw(gpa uint64, src unsafe.Pointer, n uintptr) uintptr   { return 0 }

func FetchGuestInstructionRaw(guestVaddr uint64) (raw uint32, ok bool) { return 0, false }

func EcallForward(eid, fid uint64, args [6]uint64) (a0, a1 uint64) { return 0, 0 }

func EcallLegacy0(eid uint64) uint64       { return 0 }
func EcallLegacy1(eid, arg0 uint64) uint64 { return 0 }
