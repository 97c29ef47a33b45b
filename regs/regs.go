package regs

import "github.com/arceos-hypervisor/riscv-vcpu/csr"

// TrapCSRs is the snapshot taken immediately after a VM-exit (spec §3,
// "trap_csrs"). VCpu.Run populates it exactly once per exit, per spec §9's
// note that htinst must be read once at dispatch entry and threaded
// through rather than re-read later.
type TrapCSRs struct {
	Stval  uint64
	Htval  uint64
	Htinst uint64
	Scause uint64
}

// LoadFromHW snapshots the four trap CSRs from hardware. Called exactly
// once, at the top of vmexitHandler.
func (t *TrapCSRs) LoadFromHW() {
	t.Scause = csr.ReadScause()
	t.Stval = csr.ReadStval()
	t.Htval = csr.ReadHtval()
	t.Htinst = csr.ReadHtinst()
}

// VsCSRs is the virtual-supervisor shadow register set (spec §3,
// "vs_csrs"). Stored in software while the vCPU is unbound; installed into
// hardware on Bind, extracted back on Unbind.
type VsCSRs struct {
	Vsatp      uint64
	Vstvec     uint64
	Vsepc      uint64
	Vstval     uint64
	Vscause    uint64
	Vsscratch  uint64
	Vsstatus   uint64
	Vsie       uint64
	Htimedelta uint64
}

// LoadFromHW reads every vs_csrs register out of hardware (the unbind
// half of spec §4.5's invariant).
func (v *VsCSRs) LoadFromHW() {
	v.Vsatp = csr.ReadVsatp()
	v.Vstvec = csr.ReadVstvec()
	v.Vsepc = csr.ReadVsepc()
	v.Vstval = csr.ReadVstval()
	v.Vscause = csr.ReadVscause()
	v.Vsscratch = csr.ReadVsscratch()
	v.Vsstatus = csr.ReadVsstatus()
	v.Vsie = csr.ReadVsie()
	v.Htimedelta = csr.ReadHtimedelta()
}

// StoreToHW installs every vs_csrs register into hardware (the bind half
// of spec §4.5's invariant).
func (v *VsCSRs) StoreToHW() {
	csr.WriteVsatp(v.Vsatp)
	csr.WriteVstvec(v.Vstvec)
	csr.WriteVsepc(v.Vsepc)
	csr.WriteVstval(v.Vstval)
	csr.WriteVscause(v.Vscause)
	csr.WriteVsscratch(v.Vsscratch)
	csr.WriteVsstatus(v.Vsstatus)
	csr.WriteVsie(v.Vsie)
	csr.WriteHtimedelta(v.Htimedelta)
}

// VirtualHSCSRs is the hypervisor-owned shadow set written on bind, read
// on unbind (spec §3, "virtual_hs_csrs").
type VirtualHSCSRs struct {
	Hgatp uint64
}

// VmCpuRegisters is the fixed-layout guest register file of spec §3. Its
// field order mirrors the layout csr.RunGuest's assembly addresses
// directly: reordering these fields requires reordering the offset
// arithmetic in asm_riscv64.s in lockstep, which is why the two live in
// sibling packages rather than regs importing nothing from csr.
type VmCpuRegisters struct {
	HostGPRs     GeneralRegisters
	HostSstatus  uint64
	HostHstatus  uint64
	HostSepc     uint64

	GuestGPRs    GeneralRegisters
	GuestSstatus uint64
	GuestHstatus uint64
	GuestSepc    uint64

	TrapCSRs      TrapCSRs
	VsCSRs        VsCSRs
	VirtualHSCSRs VirtualHSCSRs
}
