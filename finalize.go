package gc

import "fmt"

// gcMetamethod is the metatable key the host uses to declare a finalizer.
// Metamethod names are ordinary Go strings rather than interned
// ShortStrings: the collector never needs to trace its own lookup key,
// only whatever value lives behind it.
const gcMetamethod = "__gc"

// Finalizer is the shape of a "__gc" metamethod. Errors are caught and
// routed to WarnChannel (spec.md section 7's FinalizerError), never
// propagated to the mutator.
type Finalizer func(Object) error

func metatableOf(o Object) *Table {
	switch v := o.(type) {
	case *Table:
		return v.Metatable
	case *UserData:
		return v.Metatable
	default:
		return nil
	}
}

func (t *Table) hasFinalizer() bool {
	if t == nil {
		return false
	}
	_, ok := t.Hash[gcMetamethod]
	return ok
}

func lookupFinalizer(mt *Table) (Finalizer, bool) {
	if mt == nil {
		return nil, false
	}
	v, ok := mt.Hash[gcMetamethod]
	if !ok {
		return nil, false
	}
	fn, ok := v.(Finalizer)
	return fn, ok
}

// CheckFinalizer is called by the mutator whenever a metatable declaring
// "__gc" is attached to an object (spec.md section 4.7). Objects already
// finalized, or attached while the runtime is closing, are left alone.
func (c *Collector) CheckFinalizer(o Object, mt *Table) {
	h := o.header()
	if h.isFinalized() || c.state.flags&GCSTPCLS != 0 {
		return
	}
	if !mt.hasFinalizer() {
		return
	}

	if c.state.phase.sweeping() {
		h.makeWhite(c.state.currentWhite)
		if c.state.sweepgc == &h.Next {
			c.state.sweepgc = c.sweepToLive(c.state.sweepgc)
		}
	}

	unlinkFrom(&c.state.allgc, o)
	c.state.linkFinObj(o)
	h.setFinalized(true)
}

// separateToBeFnz scans finobj, moving objects that are unreachable (or,
// if all is true, every object regardless of reachability — used by
// FreeAll; atomic passes false) into tobefnz (spec.md section 4.7).
func (c *Collector) separateToBeFnz(all bool) int {
	cursor := &c.state.finobj
	moved := 0
	for *cursor != nil {
		obj := *cursor
		h := obj.header()
		if all || h.isWhite() {
			next := h.Next
			*cursor = next
			h.Next = nil
			c.state.linkToBeFnz(obj)
			moved++
			continue
		}
		cursor = &h.Next
	}
	return moved
}

// markBeingFnz marks every object waiting on tobefnz so its finalizer can
// safely observe a live object — this is what makes resurrection work
// (spec.md section 4.7).
func (c *Collector) markBeingFnz() {
	for cur := c.state.tobefnz; cur != nil; cur = cur.header().Next {
		c.reallyMark(cur)
	}
}

// callOneFinalizer implements GCTM (spec.md section 4.7): pop the first
// pending object, restore it to allgc as an ordinary live object, then
// run its "__gc" under a guard that blocks re-entrant collection.
func (c *Collector) callOneFinalizer() {
	obj := c.state.tobefnz
	if obj == nil {
		return
	}
	h := obj.header()
	c.state.tobefnz = h.Next
	h.Next = nil
	c.state.linkAllGC(obj)
	h.setFinalized(false)
	if c.state.mode == ModeIncremental {
		h.makeWhite(c.state.currentWhite)
	} else {
		h.setAge(AgeOld1)
	}

	fn, ok := lookupFinalizer(metatableOf(obj))
	if !ok {
		return
	}

	c.state.flags |= GCSTPGC
	defer func() { c.state.flags &^= GCSTPGC }()

	if err := c.invokeFinalizer(fn, obj); err != nil {
		c.warn(gcMetamethod, err)
	}
	c.metrics.observeFinalizerRun()
}

// invokeFinalizer calls fn, converting a panic into a FinalizerError so a
// broken "__gc" can never unwind the collector itself (spec.md section 9,
// "finalizer reentrancy").
func (c *Collector) invokeFinalizer(fn Finalizer, obj Object) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gc: finalizer panicked: %v", r)
		}
	}()
	return fn(obj)
}
