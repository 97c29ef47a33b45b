package regs

import "testing"

func TestGeneralRegistersZeroRegisterIsHardwired(t *testing.T) {
	var gprs GeneralRegisters
	gprs.SetReg(Zero, 0xDEADBEEF)
	if got := gprs.Reg(Zero); got != 0 {
		t.Fatalf("Reg(Zero) = %#x, want 0", got)
	}
	// The underlying array slot is untouched by the no-op write.
	if gprs[Zero] != 0 {
		t.Fatalf("array slot for Zero = %#x, want 0", gprs[Zero])
	}
}

func TestGeneralRegistersRoundTrip(t *testing.T) {
	var gprs GeneralRegisters
	for i := Ra; i <= T6; i++ {
		want := uint64(i) * 0x1111_1111_1111
		gprs.SetReg(i, want)
		if got := gprs.Reg(i); got != want {
			t.Errorf("register %s: got %#x, want %#x", i, got, want)
		}
	}
}

func TestGprIndexString(t *testing.T) {
	cases := map[GprIndex]string{
		Zero: "zero",
		A0:   "a0",
		A7:   "a7",
		Sp:   "sp",
		T6:   "t6",
	}
	for idx, want := range cases {
		if got := idx.String(); got != want {
			t.Errorf("GprIndex(%d).String() = %q, want %q", int(idx), got, want)
		}
	}
}
