package riscvvcpu

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arceos-hypervisor/riscv-vcpu/csr"
)

// HasHardwareSupport reports whether this hart implements the H
// extension, by attempting a benign read of a hypervisor CSR inside a
// trap-guarded region (spec §4.1). It never faults the caller.
func HasHardwareSupport() bool {
	return csr.ProbeHExtension()
}

// PerCpu is the one-shot per-hart initializer of spec §4.1. It is
// stateless apart from optionally remembering the pre-existing trap
// vector, so hardware_disable can restore it (spec §9's note that the
// source leaves disable unimplemented and an implementation must fix
// that).
type PerCpu struct {
	cpuID  int
	log    *logrus.Entry
	policy csr.TimerPolicy

	enabled       bool
	savedStvec    uint64
	savedStvecSet bool

	// WatchdogInterval holds a caller-chosen period for a host stimecmp
	// tick that forces periodic VM-exits (e.g. for console polling) under
	// the guest-managed timer policy (spec §4.6). This package only stores
	// the value: HardwareEnable does not read it and arms no host timer;
	// the VM manager owns scheduling and timers.
	WatchdogInterval time.Duration
}

// NewPerCpu constructs a PerCpu for the given hart id and timer policy.
// It does not touch hardware; call HardwareEnable to do that.
func NewPerCpu(cpuID int, policy csr.TimerPolicy) *PerCpu {
	return &PerCpu{
		cpuID:  cpuID,
		log:    logrus.WithField("hart_id", cpuID),
		policy: policy,
	}
}

// HardwareEnable programs hedeleg, hideleg, hvip, the counter-enable CSR,
// and sie per spec §4.1. It returns ErrUnsupported if the H extension is
// absent; the caller must not proceed to create vCPUs on this hart in
// that case.
func (p *PerCpu) HardwareEnable() error {
	if !HasHardwareSupport() {
		p.log.Warn("H extension not detected, refusing to enable hypervisor mode")
		return ErrUnsupported
	}

	p.savedStvec = csr.ReadStvec()
	p.savedStvecSet = true

	csr.WriteHedeleg(csr.HedelegMask)
	csr.WriteHideleg(csr.HidelegMask)
	csr.ClearHvipBits(csr.HvipVSSIP | csr.HvipVSTIP | csr.HvipVSEIP)
	csr.WriteHcounterenAllOnes()

	sieMask := csr.SieSEIE | csr.SieSSIE
	if p.policy == csr.TimerHostRelayed {
		sieMask |= csr.SieSTIE
	}
	csr.SetSieBits(sieMask)

	if p.policy == csr.TimerGuestManaged {
		csr.SetHenvcfgSTCE()
	}

	p.enabled = true
	p.log.WithField("timer_policy", p.policy).Debug("hypervisor mode enabled on hart")
	return nil
}

// HardwareDisable restores the pre-enable trap vector and clears the
// delegations HardwareEnable installed. Spec §9 flags the original as
// leaving this unimplemented; this port implements it so the path is
// safe to call during teardown.
func (p *PerCpu) HardwareDisable() error {
	if !p.enabled {
		return nil
	}
	csr.WriteHedeleg(0)
	csr.WriteHideleg(0)
	csr.ClearSieBits(csr.SieSEIE | csr.SieSSIE | csr.SieSTIE)
	if p.savedStvecSet {
		csr.WriteStvec(p.savedStvec)
	}
	p.enabled = false
	p.log.Debug("hypervisor mode disabled on hart")
	return nil
}

// CPUID returns the hart id this PerCpu was constructed for.
func (p *PerCpu) CPUID() int { return p.cpuID }
