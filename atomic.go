package gc

// atomic.go implements spec.md section 4.8's uninterruptible Atomic
// phase, plus the generational young-collection entry point and the
// major<->minor threshold transitions.

// atomic runs the full 13-step atomic procedure (spec.md section 4.8).
// It is only ever called from singleStep's PhaseEnterAtomic case, which
// already holds the collector's reentrancy guard, so there is no
// additional locking here — this phase is uninterruptible with respect
// to the mutator by construction: no suspension point exists inside it.
func (c *Collector) atomic() int64 {
	var work int64
	c.state.phase = PhaseAtomic

	// 1. save grayagain; clear it. Entries touched since they went Old
	// advance one step along Touched1 -> Touched2 -> Old (spec.md section
	// 3); every entry is still relinked below regardless of age, since a
	// Touched object may have gained new children since the last pass.
	saved := c.advanceTouchedAges(c.state.grayagain)
	c.state.grayagain = nil

	// 2. mark running thread, registry, global metatables.
	c.markObjectPtr(c.RunningThread)
	c.markObjectPtr(c.Registry)
	c.markObjectPtr(c.GlobalMetatables)

	// 3. propagate gray to empty.
	work += c.propagateAll()

	// 4. remark upvalues of stale threads; propagate.
	work += c.remarkUpvals()
	work += c.propagateAll()

	// 5. re-link saved grayagain as gray; propagate.
	c.relinkGrayAgain(saved)
	work += c.propagateAll()

	// 6. converge ephemerons.
	work += int64(c.convergeEphemerons())

	// 7. clear weak values (first pass).
	c.clearByValues(c.state.weak)

	// 8. separate unreachable finalizable objects; mark; propagate.
	c.separateToBeFnz(false)
	c.markBeingFnz()
	work += c.propagateAll()

	// 9. converge ephemerons again (resurrection may have changed things).
	work += int64(c.convergeEphemerons())

	// 10. clear keys of all ephemeron and allweak tables.
	c.clearByKeys(c.state.ephemeron)
	c.clearByKeys(c.state.allweak)

	// 11. clear values of weak and allweak tables that were resurrected.
	c.clearByValues(c.state.weak)
	c.clearByValues(c.state.allweak)

	// 12. trim string intern cache.
	c.shrinkStringCache()

	// 13. flip current-white.
	c.state.flipWhite()

	return work
}

// advanceTouchedAges walks the grayagain list captured at the start of
// atomic and advances each Touched object one step (spec.md section 3:
// "Touched1 -> Touched2 -> Old ... re-visited each cycle"): a Touched1
// entry was written to since the last atomic and becomes Touched2; a
// Touched2 entry survived a full cycle on the list untouched and is now
// Old. Non-touched entries (e.g. threads linked via traverseThread) pass
// through unchanged. The list itself is untouched by this pass — every
// entry, Old or not, still gets relinked and retraversed by the caller,
// since atomic is the only place new children reachable through a
// Touched object get discovered.
func (c *Collector) advanceTouchedAges(saved Object) Object {
	for cur := saved; cur != nil; cur = cur.header().GCList {
		h := cur.header()
		switch h.age() {
		case AgeTouched1:
			h.setAge(AgeTouched2)
		case AgeTouched2:
			h.setAge(AgeOld)
		}
	}
	return saved
}

// relinkGrayAgain re-threads the saved grayagain list back onto gray,
// recoloring each entry gray (it may have gone black while sitting on
// grayagain across steps, e.g. a thread revisited by traverseThread).
func (c *Collector) relinkGrayAgain(saved Object) {
	cur := saved
	for cur != nil {
		next := cur.header().GCList
		linkGray(&c.state.gray, cur)
		cur = next
	}
}

// atomic2gen sweeps every live object straight to Old (spec.md section
// 4.8's incremental->generational transition), used when entering
// generational mode for the first time or falling back into it.
func (c *Collector) atomic2gen() {
	c.sweep2old(&c.state.allgc)
	c.sweep2old(&c.state.finobj)
	c.state.survival = nil
	c.state.finobjSurvival = nil
	c.genLiveAtLastMajor = c.acc.totalBytes
	c.genAddedBytes = 0
}

// youngCollection runs one generational minor cycle (spec.md section
// 4.8): mark Old1 roots forward, run atomic, then sweepgen over allgc and
// finobj, tracking bytes promoted so the minor->major threshold can be
// evaluated.
func (c *Collector) youngCollection() int64 {
	for _, head := range []Object{c.state.allgc, c.state.finobj} {
		for cur := head; cur != nil; cur = cur.header().Next {
			if h := cur.header(); h.age() == AgeOld1 && h.isBlack() {
				c.state.linkGray(cur)
			}
		}
	}
	work := c.atomic()

	cursor := &c.state.allgc
	var promoted int64
	for {
		next, _, p, first, done := c.sweepGen(cursor, c.tuning.SweepMax*1_000_000)
		promoted += p
		if c.state.firstOld1 == nil {
			c.state.firstOld1 = first
		}
		cursor = next
		if done {
			break
		}
	}
	finCursor := &c.state.finobj
	for {
		next, _, p, _, done := c.sweepGen(finCursor, c.tuning.SweepMax*1_000_000)
		promoted += p
		finCursor = next
		if done {
			break
		}
	}

	c.genAddedBytes += promoted
	c.state.phase = PhasePause
	c.maybeSwitchToMajor()
	return work
}

// maybeSwitchToMajor implements the minor->major threshold (spec.md
// section 4.8/6): once bytes newly promoted to Old reach MinorMajor% of
// the live bytes recorded at the last major cycle, switch to
// GenerationalMajor. MinorMajor == 0 disables the transition entirely.
func (c *Collector) maybeSwitchToMajor() {
	if c.tuning.MinorMajor == 0 || c.genLiveAtLastMajor == 0 {
		return
	}
	if c.genAddedBytes >= c.genLiveAtLastMajor*int64(c.tuning.MinorMajor)/100 {
		c.log.Info("switching generational minor -> major")
		c.atomic2gen()
		c.state.mode = ModeGenerationalMajor
	}
}

// estimateReclaimable sums the size of every still-white (about to be
// swept as dead) object on allgc, used only by the major->minor threshold
// check, which needs an estimate of "tobecollected" before sweep actually
// runs (spec.md section 4.8).
func (c *Collector) estimateReclaimable() int64 {
	other := c.state.otherWhite()
	var total int64
	for cur := c.state.allgc; cur != nil; cur = cur.header().Next {
		if cur.header().isWhiteShade(other) {
			total += int64(objSize(cur))
		}
	}
	return total
}

// maybeSwitchToMinor implements the major->minor threshold (spec.md
// section 4.8/6): after an atomic step in major mode, if the bytes
// reclaimed exceed MajorMinor% of bytes added since the last major cycle,
// fall back to minor collection.
func (c *Collector) maybeSwitchToMinor(reclaimed int64) {
	if c.genAddedBytes == 0 {
		return
	}
	if reclaimed > c.genAddedBytes*int64(c.tuning.MajorMinor)/100 {
		c.log.Info("switching generational major -> minor")
		c.state.mode = ModeGenerationalMinor
		c.genLiveAtLastMajor = c.acc.totalBytes
		c.genAddedBytes = 0
	}
}
