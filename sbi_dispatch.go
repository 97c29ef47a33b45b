package riscvvcpu

import (
	"github.com/arceos-hypervisor/riscv-vcpu/csr"
	"github.com/arceos-hypervisor/riscv-vcpu/regs"
	"github.com/arceos-hypervisor/riscv-vcpu/sbi"
)

// handleSBI implements spec §4.4.1: extension id in a7, function id in
// a6, up to six parameters in a0..a5. PC advances by 4 on completion
// unless the SBI call yields an exit that has no resumption planned on
// this hart (CpuDown, Halt, SystemDown).
func (v *VCpu) handleSBI() (ExitReason, error) {
	eid := v.regs.GuestGPRs.Reg(regs.A7)
	fid := v.regs.GuestGPRs.Reg(regs.A6)
	args := [6]uint64{
		v.regs.GuestGPRs.Reg(regs.A0),
		v.regs.GuestGPRs.Reg(regs.A1),
		v.regs.GuestGPRs.Reg(regs.A2),
		v.regs.GuestGPRs.Reg(regs.A3),
		v.regs.GuestGPRs.Reg(regs.A4),
		v.regs.GuestGPRs.Reg(regs.A5),
	}

	v.log.WithField("sbi_extension", sbi.ExtensionName(eid)).WithField("sbi_function", fid).Trace("dispatching SBI call")

	reason, advancePC := v.dispatchSBI(eid, fid, args)
	if advancePC {
		v.regs.GuestSepc += 4
	}
	return reason, nil
}

func (v *VCpu) dispatchSBI(eid, fid uint64, args [6]uint64) (ExitReason, bool) {
	switch {
	case eid <= sbi.EIDLegacyShutdown:
		return v.dispatchLegacySBI(eid, args)
	case eid == sbi.EIDHSM:
		return v.dispatchHSM(fid, args)
	case eid == sbi.EIDSRST:
		return v.dispatchSRST(fid, args)
	case eid == sbi.EIDDBCN:
		return v.dispatchDBCN(fid, args)
	case eid == sbi.EIDHVC:
		return ExitReason{Kind: ExitHypercall, HypercallNr: fid, HypercallArgs: args}, true
	default:
		return v.forwardSBI(eid, fid, args), true
	}
}

func (v *VCpu) dispatchLegacySBI(eid uint64, args [6]uint64) (ExitReason, bool) {
	switch eid {
	case sbi.EIDLegacySetTimer:
		value := args[0]
		if v.policy == csr.TimerGuestManaged {
			csr.WriteVstimecmp(value)
		} else {
			v.forwardSBI(eid, 0, args)
			csr.ClearHvipBits(csr.HvipVSTIP)
		}
		v.setSBIResult(0, 0)
		return Nothing(), true

	case sbi.EIDLegacyConsolePutChar, sbi.EIDLegacyConsoleGetChar:
		return v.forwardSBI(eid, 0, args), true

	case sbi.EIDLegacyShutdown:
		return ExitReason{Kind: ExitSystemDown}, false

	default:
		return v.forwardSBI(eid, 0, args), true
	}
}

func (v *VCpu) dispatchHSM(fid uint64, args [6]uint64) (ExitReason, bool) {
	switch fid {
	case sbi.FIDHartStart:
		return ExitReason{
			Kind:       ExitCpuUp,
			TargetCPU:  args[0],
			EntryPoint: args[1],
			Arg:        args[2],
		}, true

	case sbi.FIDHartStop:
		return ExitReason{Kind: ExitCpuDown}, false

	case sbi.FIDHartSuspend:
		return ExitReason{Kind: ExitHalt}, false

	default:
		return v.forwardSBI(sbi.EIDHSM, fid, args), true
	}
}

func (v *VCpu) dispatchSRST(fid uint64, args [6]uint64) (ExitReason, bool) {
	if fid != sbi.FIDSystemReset {
		return v.forwardSBI(sbi.EIDSRST, fid, args), true
	}
	resetType := args[0]
	if resetType != sbi.ResetTypeShutdown {
		code := int64(sbi.ErrNotSupported)
		v.setSBIResult(uint64(code), 0)
		return Nothing(), true
	}
	return ExitReason{Kind: ExitSystemDown}, false
}

func (v *VCpu) dispatchDBCN(fid uint64, args [6]uint64) (ExitReason, bool) {
	switch fid {
	case sbi.FIDConsoleWrite:
		numBytes, baseLo, baseHi := args[0], args[1], args[2]
		if numBytes == 0 {
			v.setSBIResult(sbi.Success, 0)
			return Nothing(), true
		}
		gpa := sbi.JoinU64(baseLo, baseHi)
		buf := make([]byte, numBytes)
		n := v.mem.CopyFromGuest(buf, gpa)
		if n != int(numBytes) {
			code := int64(sbi.ErrFailed)
			v.setSBIResult(uint64(code), 0)
			return Nothing(), true
		}
		v.consoleClient.Write(buf)
		v.setSBIResult(sbi.Success, 0)
		return Nothing(), true

	case sbi.FIDConsoleRead:
		numBytes, baseLo, baseHi := args[0], args[1], args[2]
		if numBytes == 0 {
			v.setSBIResult(sbi.Success, 0)
			return Nothing(), true
		}
		gpa := sbi.JoinU64(baseLo, baseHi)
		buf := make([]byte, numBytes)
		read := v.consoleClient.Read(buf)
		n := v.mem.CopyToGuest(buf[:read], gpa)
		v.setSBIResult(sbi.Success, uint64(n))
		return Nothing(), true

	case sbi.FIDConsoleWriteByte:
		v.consoleClient.WriteByte(byte(args[0]))
		v.setSBIResult(sbi.Success, 0)
		return Nothing(), true

	default:
		return v.forwardSBI(sbi.EIDDBCN, fid, args), true
	}
}

// forwardSBI pipes an unrecognized call through the sbi.Client collaborator
// and places its (error, value) pair into a0/a1 (spec §4.4.1's "All
// others" row). It also returns the resulting ExitReason (always Nothing:
// forwarding never itself produces a host-visible exit).
func (v *VCpu) forwardSBI(eid, fid uint64, args [6]uint64) ExitReason {
	result := v.sbiClient.Forward(eid, fid, args)
	v.setSBIResult(uint64(result.Error), result.Value)
	return Nothing()
}

func (v *VCpu) setSBIResult(a0, a1 uint64) {
	v.regs.GuestGPRs.SetReg(regs.A0, a0)
	v.regs.GuestGPRs.SetReg(regs.A1, a1)
}
