package riscvvcpu

import "testing"

func TestWatchdogTripsAfterThreeIdenticalStuckSamples(t *testing.T) {
	var w watchdog
	if w.observe(0x1000, true) {
		t.Fatal("should not trip on first sample")
	}
	if w.observe(0x1000, true) {
		t.Fatal("should not trip on second sample")
	}
	if !w.observe(0x1000, true) {
		t.Fatal("should trip on third identical stuck sample")
	}
}

func TestWatchdogResetsOnProgress(t *testing.T) {
	var w watchdog
	w.observe(0x1000, true)
	w.observe(0x1000, true)
	if w.observe(0x2000, true) {
		t.Fatal("a different sepc must reset the streak, not trip")
	}
}

func TestWatchdogResetsWhenNotStuck(t *testing.T) {
	var w watchdog
	w.observe(0x1000, true)
	w.observe(0x1000, true)
	if w.observe(0x1000, false) {
		t.Fatal("a non-stuck sample must reset the streak")
	}
	if w.observe(0x1000, true) {
		t.Fatal("streak should restart from 1 after a reset")
	}
}
