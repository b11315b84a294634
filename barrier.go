package gc

// Barrier is the forward write barrier (spec.md section 4.3):
// barrier_forward(parent, child) for a black parent storing a reference
// to a white child. The host's store operations call this on every
// collectable-to-collectable write where parent is already black; which
// primitive to use for which store site is a policy decision left to the
// embedder (spec.md section 4.3's closing line), not enforced here.
func (c *Collector) Barrier(parent Object, child Value) {
	childObj, ok := asObject(child)
	if !ok || childObj == nil {
		return
	}
	ph, ch := parent.header(), childObj.header()
	if !ph.isBlack() || !ch.isWhite() {
		return
	}

	if c.state.phase.keepInvariant() {
		c.reallyMark(childObj)
		if c.state.mode != ModeIncremental && ph.age() == AgeOld {
			// child may still point at young objects; cannot promote it
			// straight to Old (spec.md section 4.3/3).
			ch.setAge(AgeOld0)
		}
		return
	}

	if c.state.phase.sweeping() {
		if c.state.mode == ModeIncremental {
			ph.makeWhite(c.state.currentWhite)
		}
		// generational-minor sweep does not distinguish white from dead;
		// leave parent's color as-is.
	}
}

// BarrierBack is the backward write barrier (spec.md section 4.3):
// barrier_back(parent) for a black parent that just acquired a reference
// to some white value via a store. Re-links parent into grayagain rather
// than marking the child directly, which is cheaper for objects (tables)
// that are stored into repeatedly.
func (c *Collector) BarrierBack(parent Object) {
	h := parent.header()
	if !h.isBlack() {
		return
	}
	// a Touched2 parent is already linked onto grayagain from the write
	// that first touched it; only link it the first time.
	if h.age() != AgeTouched2 {
		c.state.linkGrayAgain(parent)
	}
	h.makeGray()
	if h.age() == AgeOld {
		h.setAge(AgeTouched1)
	}
}
