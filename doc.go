// Package riscvvcpu is the architecture-specific core of a Type-1
// hypervisor for 64-bit RISC-V harts implementing the H extension. It
// provides a per-hart initializer (PerCpu) that programs delegation and
// interrupt-enable CSRs, and a virtual-CPU object (VCpu) that owns a
// guest register file, enters the guest via a world switch, and
// classifies every VM-exit into an ExitReason for an external VM manager.
//
// The privileged floor (CSR access, the world switch, guest-memory
// copies) lives in the csr package and is only implemented for
// GOARCH=riscv64; everything in this package is portable Go that calls
// down into csr, regs, guestmem, decode, and sbi.
package riscvvcpu
