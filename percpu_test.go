package riscvvcpu

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arceos-hypervisor/riscv-vcpu/csr"
)

// These tests run against the portable csr stub (this package's CI
// workstation is not riscv64), so HasHardwareSupport is always false and
// HardwareEnable always returns ErrUnsupported. That is still useful
// coverage: it exercises the failure path spec §4.1 requires ("the
// caller must not proceed to create vCPUs").
func TestHardwareEnableFailsWithoutHExtension(t *testing.T) {
	p := NewPerCpu(0, csr.TimerGuestManaged)
	err := p.HardwareEnable()
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestHardwareDisableBeforeEnableIsNoOp(t *testing.T) {
	p := NewPerCpu(0, csr.TimerGuestManaged)
	require.NoError(t, p.HardwareDisable())
}

func TestNewPerCpuRecordsCPUID(t *testing.T) {
	p := NewPerCpu(3, csr.TimerHostRelayed)
	require.Equal(t, 3, p.CPUID())
}
