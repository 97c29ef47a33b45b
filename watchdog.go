package riscvvcpu

// watchdog implements the stuck-guest heuristic of spec §4.6/§9: if three
// consecutive timer exits observe an identical guest_sepc while the guest
// has disabled SIE (vsstatus) or SEIE (vsie) but an external interrupt is pending in
// hvip.VSEIP, the guest cannot make progress on its own. Forcing SIE and
// SEIE back on breaks the deadlock.
//
// This is a workaround, not a guarantee (spec §9), so it only runs when
// VCpu.DebugWatchdog is set, and every trip is logged at Warn.
type watchdog struct {
	lastSepc   uint64
	lastSepcOk bool
	streak     int
}

// reset clears the observation streak, called whenever the guest makes
// forward progress on its own.
func (w *watchdog) reset() {
	w.lastSepcOk = false
	w.streak = 0
}

// observe records one timer-exit sample. It returns true once three
// consecutive identical samples have been seen, at which point the
// caller should break the deadlock and reset.
func (w *watchdog) observe(sepc uint64, stuck bool) bool {
	if !stuck {
		w.reset()
		return false
	}
	if w.lastSepcOk && w.lastSepc == sepc {
		w.streak++
	} else {
		w.streak = 1
	}
	w.lastSepc = sepc
	w.lastSepcOk = true
	return w.streak >= 3
}
