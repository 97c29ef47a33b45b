package riscvvcpu

import (
	"fmt"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/arceos-hypervisor/riscv-vcpu/csr"
	"github.com/arceos-hypervisor/riscv-vcpu/decode"
	"github.com/arceos-hypervisor/riscv-vcpu/guestmem"
	"github.com/arceos-hypervisor/riscv-vcpu/regs"
	"github.com/arceos-hypervisor/riscv-vcpu/sbi"
)

// Default guest DTB physical address (spec §6 "Well-known constants").
const DefaultDTBAddr = 0x9000_0000

// htinst pseudo-instruction markers (spec §4.4.2).
const (
	tinstPseudoStore = 0x3020
	tinstPseudoLoad  = 0x3000
)

// sstatus/hstatus bit positions used by Setup. vsstatus shares sstatus's
// layout, so sstatusSIE also gates the guest's own interrupt-enable bit
// when read back through vsstatus by the watchdog.
const (
	sstatusSIE  = uint64(1) << 1
	sstatusSPIE = uint64(1) << 5
	sstatusSPP  = uint64(1) << 8

	hstatusSPV       = uint64(1) << 7
	hstatusSPVP      = uint64(1) << 8
	hstatusVSXLShift = 32
	hstatusVSXL64    = uint64(2)
)

// VCpuCreateConfig is the vCPU create-config of spec §3: { hart_id,
// dtb_addr }, defaulting to hart_id=0 and the well-known DTB address.
type VCpuCreateConfig struct {
	HartID  uint64
	DTBAddr uint64
}

// DefaultVCpuCreateConfig returns the spec's documented defaults.
func DefaultVCpuCreateConfig() VCpuCreateConfig {
	return VCpuCreateConfig{HartID: 0, DTBAddr: DefaultDTBAddr}
}

// VCpu is the core object of spec §2.5/§4.4-§4.6: it owns a guest
// register file and an SBI forwarding client, drives the world switch,
// and classifies every VM-exit.
//
// Invariant: a VCpu is either unbound (CSRs held in software, in
// regs.VsCSRs/VirtualHSCSRs) or bound to exactly one hart (CSRs live in
// hardware). Only a bound VCpu may Run.
type VCpu struct {
	regs regs.VmCpuRegisters

	sbiClient     sbi.Client
	consoleClient sbi.ConsoleClient
	mem           *guestmem.Helper

	hartID       uint64
	dtbAddr      uint64
	guestPTLevel int
	vmid         uint16
	bound        bool

	policy csr.TimerPolicy
	wd     watchdog
	log    *logrus.Entry

	// DebugWatchdog gates the stuck-guest heuristic of spec §4.6/§9. Off
	// by default: the watchdog is a workaround, not a guarantee, and must
	// never be default-on in production.
	DebugWatchdog bool
}

// New creates a vCPU per spec §3's Create step: a0 = hart_id, a1 =
// dtb_addr, everything else zeroed.
func New(cfg VCpuCreateConfig, sbiClient sbi.Client, consoleClient sbi.ConsoleClient, mem *guestmem.Helper, policy csr.TimerPolicy) *VCpu {
	v := &VCpu{
		sbiClient:     sbiClient,
		consoleClient: consoleClient,
		mem:           mem,
		hartID:        cfg.HartID,
		dtbAddr:       cfg.DTBAddr,
		policy:        policy,
		log:           logrus.WithField("hart_id", cfg.HartID),
	}
	v.regs.GuestGPRs.SetReg(regs.A0, cfg.HartID)
	v.regs.GuestGPRs.SetReg(regs.A1, cfg.DTBAddr)
	return v
}

// Setup programs guest_sstatus (SIE=0, SPIE=0, SPP=Supervisor) and
// guest_hstatus (SPV=1, SPVP=1, VSXL=64-bit), per spec §3's Setup step.
func (v *VCpu) Setup() {
	v.regs.GuestSstatus = sstatusSPP
	v.regs.GuestHstatus = hstatusSPV | hstatusSPVP | (hstatusVSXL64 << hstatusVSXLShift)
}

// SetEntry writes guest_sepc.
func (v *VCpu) SetEntry(gpa uint64) { v.regs.GuestSepc = gpa }

// SetDtbAddr writes the DTB guest physical address into a1, mirroring
// Create's initial placement.
func (v *VCpu) SetDtbAddr(gpa uint64) {
	v.dtbAddr = gpa
	v.regs.GuestGPRs.SetReg(regs.A1, gpa)
}

// SetHartID writes the hart id into a0.
func (v *VCpu) SetHartID(id uint64) {
	v.hartID = id
	v.regs.GuestGPRs.SetReg(regs.A0, id)
}

// SetEptRoot composes hgatp from the stage-2 root PPN and page-table
// level and stores it in software, ready to install on the next Bind
// (spec §3's set-stage2-root step).
func (v *VCpu) SetEptRoot(rootPPN uint64, level int) error {
	hgatp, err := csr.ComposeHgatp(rootPPN, level)
	if err != nil {
		return errors.Wrap(err, "riscvvcpu: set stage-2 root")
	}
	v.regs.VirtualHSCSRs.Hgatp = hgatp
	v.guestPTLevel = level
	return nil
}

// SetupCurrentCPU recomposes hgatp preserving MODE and PPN but
// overwriting the 16-bit VMID field, installs it, and issues both
// hfence.gvma and sfence.vma (spec §4.5).
func (v *VCpu) SetupCurrentCPU(vmid uint16) {
	newHgatp := csr.WithVMID(v.regs.VirtualHSCSRs.Hgatp, vmid)
	v.regs.VirtualHSCSRs.Hgatp = newHgatp
	v.vmid = vmid
	csr.WriteHgatp(newHgatp)
	csr.HfenceGvmaAll()
	csr.SfenceVmaAll()
}

// Bind atomically installs all vs_csrs plus hgatp into hardware and
// issues a full G-stage TLB fence (spec §4.5).
func (v *VCpu) Bind() error {
	if v.bound {
		return fmt.Errorf("riscvvcpu: hart %d: vCPU already bound", v.hartID)
	}
	v.regs.VsCSRs.StoreToHW()
	csr.WriteHgatp(v.regs.VirtualHSCSRs.Hgatp)
	csr.HfenceGvmaAll()
	v.bound = true
	v.log.Debug("vCPU bound")
	return nil
}

// Unbind extracts every vs_csrs register and hgatp out of hardware back
// into software, clears hgatp, and fences again. Between Unbind and the
// next Bind no guest instructions may execute on this hart.
func (v *VCpu) Unbind() error {
	if !v.bound {
		return fmt.Errorf("riscvvcpu: hart %d: vCPU not bound", v.hartID)
	}
	v.regs.VsCSRs.LoadFromHW()
	v.regs.VirtualHSCSRs.Hgatp = csr.ReadHgatp()
	csr.WriteHgatp(0)
	csr.HfenceGvmaAll()
	v.bound = false
	v.log.Debug("vCPU unbound")
	return nil
}

// SetGpr writes a guest GPR. Index Zero is silently discarded (spec §8's
// boundary behavior).
func (v *VCpu) SetGpr(idx regs.GprIndex, val uint64) {
	v.regs.GuestGPRs.SetReg(idx, val)
}

// GetGpr reads a guest GPR. Index Zero always reads 0.
func (v *VCpu) GetGpr(idx regs.GprIndex) uint64 {
	return v.regs.GuestGPRs.Reg(idx)
}

// SetReturnValue writes a0, the conventional RISC-V return-value
// register, used by the VM manager after emulating an access the vCPU
// surfaced as an exit (e.g. an MmioRead or a forwarded SBI call it
// completed out of band).
func (v *VCpu) SetReturnValue(val uint64) {
	v.regs.GuestGPRs.SetReg(regs.A0, val)
}

// InjectInterrupt sets the hvip bit for the given interrupt cause: VSSIP
// for an IPI (SupervisorSoftware), VSEIP for an external interrupt
// (SupervisorExternal) (spec §4.6).
func (v *VCpu) InjectInterrupt(vector uint64) error {
	switch vector {
	case csr.InterruptSupervisorSoftware:
		csr.SetHvipBits(csr.HvipVSSIP)
	case csr.InterruptSupervisorExternal:
		csr.SetHvipBits(csr.HvipVSEIP)
	default:
		return fmt.Errorf("riscvvcpu: hart %d: unsupported injected interrupt vector %d", v.hartID, vector)
	}
	return nil
}

// Run enters the guest via the world switch and returns the classified
// VM-exit. Only a bound vCPU may Run (spec §3's invariant).
func (v *VCpu) Run() (ExitReason, error) {
	if !v.bound {
		return ExitReason{}, fmt.Errorf("riscvvcpu: hart %d: Run called on an unbound vCPU", v.hartID)
	}

	// Before entering guest: clear host SIE, enable SEIE/SSIE/STIE so the
	// hypervisor can take interrupts while the guest runs (spec §4.4).
	csr.ClearSstatusSIE()
	csr.SetSieBits(csr.SieSEIE | csr.SieSSIE | csr.SieSTIE)

	csr.RunGuest(unsafe.Pointer(&v.regs))

	csr.ClearSieBits(csr.SieSEIE | csr.SieSSIE | csr.SieSTIE)
	csr.SetSstatusSIE()

	return v.vmexitHandler()
}

// vmexitHandler snapshots trap_csrs from hardware exactly once (spec
// §9's open question about htinst), classifies scause, and dispatches.
func (v *VCpu) vmexitHandler() (ExitReason, error) {
	v.regs.TrapCSRs.LoadFromHW()
	kind, code := csr.ClassifyScause(v.regs.TrapCSRs.Scause)

	switch kind {
	case csr.TrapException:
		switch code {
		case csr.ExceptionVirtualSupervisorEcall:
			return v.handleSBI()
		case csr.ExceptionLoadGuestPageFault:
			return v.handleGuestPageFault(accessRead)
		case csr.ExceptionStoreGuestPageFault:
			return v.handleGuestPageFault(accessWrite)
		default:
			v.fatal()
		}

	case csr.TrapInterrupt:
		switch code {
		case csr.InterruptSupervisorTimer:
			return v.handleTimerInterrupt(), nil
		case csr.InterruptSupervisorExternal:
			return ExitReason{Kind: ExitExternalInterrupt, Vector: csr.InterruptSupervisorExternal}, nil
		default:
			v.fatal()
		}
	}

	// kind == csr.TrapUnknown: an scause encoding matching neither a known
	// interrupt nor a known exception (spec §7 tier 2, spec §8's boundary
	// test for scause=9 only covers the known case above).
	v.log.WithField("scause", v.regs.TrapCSRs.Scause).Warn("unclassifiable scause encoding")
	return ExitReason{}, ErrInvalidData
}

// fatal panics with the captured trap state, per spec §7 tier 3: an
// unhandled non-fault trap corrupts host assumptions badly enough that
// continuing is unsafe.
func (v *VCpu) fatal() {
	panic(&FatalTrapError{
		Scause: v.regs.TrapCSRs.Scause,
		Sepc:   v.regs.GuestSepc,
		Stval:  v.regs.TrapCSRs.Stval,
	})
}

// handleTimerInterrupt implements spec §4.6's two timer policies and
// feeds the stuck-guest watchdog.
func (v *VCpu) handleTimerInterrupt() ExitReason {
	if v.policy == csr.TimerHostRelayed {
		csr.SetHvipBits(csr.HvipVSTIP)
		csr.SetSieBits(csr.SieSTIE)
	}

	if v.DebugWatchdog {
		v.checkWatchdog()
	}

	return Nothing()
}

// checkWatchdog implements spec §4.6's stuck-guest heuristic: three
// consecutive timer exits at the same guest_sepc with the guest's own
// interrupt-enables off while an external interrupt is pending force SIE
// and SEIE back on in the virtualized CSRs.
func (v *VCpu) checkWatchdog() {
	vsstatus := csr.ReadVsstatus()
	vsie := csr.ReadVsie()
	hvip := csr.ReadHvip()

	stuck := (vsstatus&sstatusSIE == 0 || vsie&csr.SieSEIE == 0) && hvip&csr.HvipVSEIP != 0

	if v.wd.observe(v.regs.GuestSepc, stuck) {
		v.log.WithField("guest_sepc", v.regs.GuestSepc).Warn("stuck-guest watchdog tripped, forcing SIE/SEIE")
		csr.WriteVsstatus(vsstatus | sstatusSIE)
		csr.WriteVsie(vsie | csr.SieSEIE)
		v.wd.reset()
	}
}

// accessKind distinguishes which guest-page-fault exception trapped, so
// handleGuestPageFault can check the decoded instruction agrees.
type accessKind int

const (
	accessRead accessKind = iota
	accessWrite
)

// handleGuestPageFault implements spec §4.4.2: decode the faulting
// instruction and emit MmioRead/MmioWrite, or NestedPageFault when
// decode fails or disagrees with the trapped access kind.
func (v *VCpu) handleGuestPageFault(access accessKind) (ExitReason, error) {
	addr := (v.regs.TrapCSRs.Htval << 2) | (v.regs.TrapCSRs.Stval & 3)

	instr, length, err := v.decodeInstrAt()
	if err != nil {
		// Spec §7 tier 1: even an undecodable guest fault is a normal
		// exit, delegating the policy decision upward.
		v.log.WithError(err).Debug("could not decode faulting instruction, surfacing NestedPageFault")
		return ExitReason{Kind: ExitNestedPageFault, Addr: addr}, nil
	}

	switch {
	case access == accessRead && instr.Kind == decode.KindLoad:
		v.regs.GuestSepc += uint64(length)
		return ExitReason{
			Kind:     ExitMmioRead,
			Addr:     addr,
			Width:    instr.Width,
			Reg:      instr.Rd,
			RegWidth: decode.Doubleword,
			SignExt:  instr.SignExt,
		}, nil

	case access == accessWrite && instr.Kind == decode.KindStore:
		data := v.regs.GuestGPRs.Reg(regs.GprIndex(instr.Rs2))
		v.regs.GuestSepc += uint64(length)
		return ExitReason{
			Kind:  ExitMmioWrite,
			Addr:  addr,
			Width: instr.Width,
			Data:  data,
		}, nil

	default:
		// Decoded an opcode of the wrong kind for the trap we took.
		return ExitReason{Kind: ExitNestedPageFault, Addr: addr}, nil
	}
}

// decodeInstrAt implements spec §4.4.2's three-source decode: htinst
// (transformed or pseudo), falling back to a guest-memory fetch at
// guest_sepc.
func (v *VCpu) decodeInstrAt() (decode.Instruction, int, error) {
	htinst := v.regs.TrapCSRs.Htinst

	switch {
	case htinst == tinstPseudoStore || htinst == tinstPseudoLoad:
		// Fault occurred on a stage-1 page-table walk; there is no
		// instruction to decode.
		return decode.Instruction{}, 0, ErrUnsupported

	case htinst != 0:
		lengthBits := htinst & 0x3
		length := 4
		if lengthBits == 0x1 {
			length = 2
		}
		transformed := uint32(htinst | 0x2)
		instr, err := decode.Decode(transformed)
		if err != nil {
			return decode.Instruction{}, 0, err
		}
		return instr, length, nil

	default:
		raw := v.mem.FetchGuestInstruction(v.regs.GuestSepc)
		if raw == 0 {
			return decode.Instruction{}, 0, errors.Wrap(ErrUnsupported, "riscvvcpu: guest instruction fetch failed")
		}
		length := decode.InstructionLength(uint16(raw))
		if length != 4 {
			return decode.Instruction{}, 0, fmt.Errorf("riscvvcpu: compressed instructions are not decoded: %w", ErrUnsupported)
		}
		instr, err := decode.Decode(raw)
		if err != nil {
			return decode.Instruction{}, 0, err
		}
		return instr, length, nil
	}
}
