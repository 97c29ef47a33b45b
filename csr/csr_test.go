package csr

import "testing"

func TestComposeHgatpRoundTrip(t *testing.T) {
	cases := []struct {
		level int
		mode  uint64
	}{
		{3, ModeSv39x4},
		{4, ModeSv48x4},
		{5, ModeSv57x4},
	}
	for _, c := range cases {
		const ppn = uint64(0x1234_5678_9)
		hgatp, err := ComposeHgatp(ppn, c.level)
		if err != nil {
			t.Fatalf("level %d: unexpected error: %v", c.level, err)
		}
		if got := HgatpMode(hgatp); got != c.mode {
			t.Errorf("level %d: mode = %#x, want %#x", c.level, got, c.mode)
		}
		if got := HgatpPPN(hgatp); got != ppn {
			t.Errorf("level %d: ppn = %#x, want %#x", c.level, got, ppn)
		}
		if got := HgatpVMID(hgatp); got != 0 {
			t.Errorf("level %d: vmid = %#x, want 0", c.level, got)
		}
	}
}

func TestComposeHgatpRejectsUnknownLevel(t *testing.T) {
	if _, err := ComposeHgatp(0, 2); err == nil {
		t.Fatal("expected an error for an unsupported page-table level")
	}
}

func TestWithVMIDPreservesModeAndPPN(t *testing.T) {
	hgatp, err := ComposeHgatp(0xABCDEF, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	retagged := WithVMID(hgatp, 0x2A2A)

	if got := HgatpMode(retagged); got != ModeSv48x4 {
		t.Errorf("mode = %#x, want %#x", got, ModeSv48x4)
	}
	if got := HgatpPPN(retagged); got != 0xABCDEF {
		t.Errorf("ppn = %#x, want %#x", got, 0xABCDEF)
	}
	if got := HgatpVMID(retagged); got != 0x2A2A {
		t.Errorf("vmid = %#x, want %#x", got, 0x2A2A)
	}
}

func TestWithVMIDOverwritesPriorVMID(t *testing.T) {
	hgatp, _ := ComposeHgatp(0, 3)
	first := WithVMID(hgatp, 0xFFFF)
	second := WithVMID(first, 1)
	if got := HgatpVMID(second); got != 1 {
		t.Errorf("vmid = %#x, want 1 after overwrite", got)
	}
}

func TestClassifyScause(t *testing.T) {
	kind, code := ClassifyScause(ExceptionLoadGuestPageFault)
	if kind != TrapException || code != ExceptionLoadGuestPageFault {
		t.Fatalf("got (%v, %#x), want (TrapException, %#x)", kind, code, ExceptionLoadGuestPageFault)
	}

	kind, code = ClassifyScause(scauseInterruptBit | InterruptSupervisorExternal)
	if kind != TrapInterrupt || code != InterruptSupervisorExternal {
		t.Fatalf("got (%v, %#x), want (TrapInterrupt, %#x)", kind, code, InterruptSupervisorExternal)
	}
}
