package gc

// Phase is the collector's state-machine position (spec.md section 6 and
// 4.8). Ordering matters: code that asks "is the mark invariant still
// required" compares phase <= PhaseAtomic, so the constants must stay in
// the table's order.
type Phase uint8

const (
	PhasePause Phase = iota
	PhasePropagate
	PhaseEnterAtomic
	PhaseAtomic
	PhaseSweepAllGC
	PhaseSweepFinObj
	PhaseSweepToBeFnz
	PhaseSweepEnd
	PhaseCallFin
)

func (p Phase) String() string {
	switch p {
	case PhasePause:
		return "pause"
	case PhasePropagate:
		return "propagate"
	case PhaseEnterAtomic:
		return "enter-atomic"
	case PhaseAtomic:
		return "atomic"
	case PhaseSweepAllGC:
		return "sweep-allgc"
	case PhaseSweepFinObj:
		return "sweep-finobj"
	case PhaseSweepToBeFnz:
		return "sweep-tobefnz"
	case PhaseSweepEnd:
		return "sweep-end"
	case PhaseCallFin:
		return "call-fin"
	default:
		return "unknown"
	}
}

// keepInvariant reports whether the tri-color invariant must still be
// upheld at this phase (spec.md section 3: "during mark (phases
// Pause..Atomic)").
func (p Phase) keepInvariant() bool { return p <= PhaseAtomic }

func (p Phase) sweeping() bool {
	return p >= PhaseSweepAllGC && p <= PhaseSweepEnd
}

// Step performs one pacing quantum: it runs collector work until it has
// consumed the configured work budget or reached a phase boundary that
// must stop (Pause, or having just entered Atomic). No-op while stopped,
// per spec.md section 4.9.
func (c *Collector) Step() {
	if c.state.stopped() {
		return
	}
	if !c.reentry.TryAcquire(1) {
		// already inside a step; spec.md section 5's stop_emergency guard
		return
	}
	defer c.reentry.Release(1)

	budget := c.tuning.StepSize * int64(c.tuning.StepMul) / wordSize
	work := int64(0)
	for work < budget {
		wasAtomic := c.state.phase == PhaseEnterAtomic
		done, n := c.singleStep(false)
		work += n
		if done || wasAtomic {
			break
		}
	}
	c.metrics.observeStep(c.state.phase, work)
}

// Full runs a complete cycle from wherever the collector currently is
// back to the next Pause. emergency disables finalizer dispatch and the
// atomic-phase nil-fill of dead thread-stack slots for the duration
// (spec.md section 4.8/4.9).
func (c *Collector) Full(emergency bool) {
	if c.state.stopped() && !emergency {
		return
	}
	if !c.reentry.TryAcquire(1) {
		return
	}
	defer c.reentry.Release(1)

	c.emergency = emergency
	defer func() { c.emergency = false }()

	if c.state.phase == PhasePause {
		c.enterPause()
	}
	for {
		done, _ := c.singleStep(true)
		if c.state.phase == PhasePause {
			break
		}
		_ = done
	}
	c.log.Debug("full collection complete", zapPhase(c.state.phase))
}

// singleStep runs one state-machine transition and returns (cycleEnded,
// workUnitsConsumed). full forces EnterAtomic to always run to
// completion even when called from Step (it already does, since atomic
// is documented as uninterruptible).
func (c *Collector) singleStep(full bool) (bool, int64) {
	switch c.state.phase {
	case PhasePause:
		c.enterPause()
		return true, 0

	case PhasePropagate:
		if c.state.gray == nil {
			c.state.phase = PhaseEnterAtomic
			return false, 0
		}
		work := c.propagateOne()
		return false, work

	case PhaseEnterAtomic:
		if c.state.mode == ModeGenerationalMinor {
			// youngCollection drives its own atomic+sweepgen and leaves
			// the phase at Pause; nothing more to do this step.
			work := c.youngCollection()
			return true, work
		}
		work := c.atomic()
		if c.state.mode == ModeGenerationalMajor {
			c.maybeSwitchToMinor(c.estimateReclaimable())
		}
		c.state.phase = PhaseSweepAllGC
		c.state.sweepgc = &c.state.allgc
		return false, work

	case PhaseSweepAllGC:
		cursor, n, done := c.sweepStep(c.state.sweepgc, c.tuning.SweepMax)
		c.state.sweepgc = cursor
		if done {
			c.state.phase = PhaseSweepFinObj
			c.state.sweepfin = &c.state.finobj
		}
		return false, int64(n)

	case PhaseSweepFinObj:
		cursor, n, done := c.sweepStep(c.state.sweepfin, c.tuning.SweepMax)
		c.state.sweepfin = cursor
		if done {
			c.state.phase = PhaseSweepToBeFnz
			c.state.sweeptbf = &c.state.tobefnz
		}
		return false, int64(n)

	case PhaseSweepToBeFnz:
		cursor, n, done := c.sweepStep(c.state.sweeptbf, c.tuning.SweepMax)
		c.state.sweeptbf = cursor
		if done {
			c.state.phase = PhaseSweepEnd
		}
		return false, int64(n)

	case PhaseSweepEnd:
		c.shrinkStringCache()
		c.state.phase = PhaseCallFin
		return false, 0

	case PhaseCallFin:
		if c.emergency || c.state.tobefnz == nil {
			c.state.phase = PhasePause
			return true, 0
		}
		c.callOneFinalizer()
		if c.state.tobefnz == nil {
			c.state.phase = PhasePause
			return true, 0
		}
		return false, int64(c.tuning.FinalizerCost)
	}
	return true, 0
}

// enterPause resets gray-list bookkeeping, paces the next cycle from the
// one just finished, marks roots, and moves to Propagate (spec.md section
// 4.8's Pause row: "set debt = marked*pause% - total_bytes").
func (c *Collector) enterPause() {
	c.state.gray = nil
	c.state.grayagain = nil
	c.state.weak = nil
	c.state.allweak = nil
	c.state.ephemeron = nil
	c.acc.setPauseDebt(c.markedBytes, c.tuning.Pause)
	c.markedBytes = 0
	c.markRoots()
	c.state.phase = PhasePropagate
	c.log.Debug("entering propagate", zapPhase(c.state.phase))
}

func (c *Collector) shrinkStringCache() {
	if c.interner != nil {
		c.interner.TrimCache()
	}
}

// wordSize scales work units by 1/word_size; Go gives us this directly
// instead of hardcoding the C ABI's sizeof(void*).
const wordSize = 8

// ChangeMode switches between incremental and generational collection
// (spec.md section 4.8's mode-transition table). Switching to the mode
// already active is a documented no-op (BadMode in section 7).
func (c *Collector) ChangeMode(newMode Mode) {
	if newMode == c.state.mode {
		return
	}
	c.log.Info("changing gc mode", zapField("from", c.state.mode.String()), zapField("to", newMode.String()))

	switch {
	case c.state.mode != ModeIncremental && newMode == ModeIncremental:
		c.minorToIncremental()
	case c.state.mode == ModeIncremental && newMode != ModeIncremental:
		c.incrementalToGenerational()
		c.state.mode = newMode
	default:
		// major <-> minor within generational: handled by youngCollection's
		// own threshold checks, but an explicit request just flips the mode.
		c.state.mode = newMode
	}
}

// minorToIncremental clears the generational sublists and continues as an
// ordinary incremental sweep.
func (c *Collector) minorToIncremental() {
	c.state.survival = nil
	c.state.finobjSurvival = nil
	c.state.firstOld1 = nil
	c.state.mode = ModeIncremental
	if c.state.phase.sweeping() {
		return
	}
	c.state.phase = PhaseSweepAllGC
	c.state.sweepgc = &c.state.allgc
}

// incrementalToGenerational runs the collector forward until it reaches
// Pause, finishing any cycle already in progress (started at Pause, it
// runs no cycle at all), then sweeps everything straight to Old via
// atomic2gen (spec.md section 4.8).
func (c *Collector) incrementalToGenerational() {
	for c.state.phase != PhaseAtomic && c.state.phase != PhasePause {
		c.singleStep(true)
	}
	c.atomic2gen()
	c.state.phase = PhasePause
	c.acc.setPauseDebt(c.markedBytes, c.tuning.MinorMul)
}

// FreeAll implements spec.md section 4.9's shutdown sequence: separate and
// run every finalizer, then delete allgc down to (but not including) the
// main thread, then delete fixedgc.
func (c *Collector) FreeAll(mainThread Object) {
	c.state.flags |= GCSTPCLS
	c.separateToBeFnz(true)
	for c.state.tobefnz != nil {
		c.callOneFinalizer()
	}
	c.freeListUntil(&c.state.allgc, mainThread)
	c.freeListUntil(&c.state.fixedgc, nil)
}

func (c *Collector) freeListUntil(head *Object, stopAt Object) {
	cur := *head
	for cur != nil && cur != stopAt {
		next := cur.header().Next
		c.releaseObject(cur)
		cur = next
	}
	*head = cur
}
