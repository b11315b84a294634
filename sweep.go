package gc

// sweepStep sweeps up to max objects starting at *cursor (spec.md
// section 4.5). Dead objects (stamped with the cycle's other-white) are
// unlinked and released; survivors have their age reset to New
// (incremental mode only) and are recolored to current-white so the next
// cycle can tell fresh survivors from newly allocated objects. Returns the
// advanced cursor, the number of objects visited, and whether the list is
// now exhausted.
func (c *Collector) sweepStep(cursor *Object, max int) (*Object, int, bool) {
	other := c.state.otherWhite()
	count := 0
	for count < max {
		obj := *cursor
		if obj == nil {
			return cursor, count, true
		}
		h := obj.header()
		next := h.Next
		if h.isWhiteShade(other) {
			*cursor = next
			c.releaseObject(obj)
			count++
			continue
		}
		if c.state.mode == ModeIncremental {
			h.setAge(AgeNew)
		}
		h.makeWhite(c.state.currentWhite)
		count++
		cursor = &h.Next
	}
	return cursor, count, *cursor == nil
}

// sweepToLive repeatedly sweeps a single object at *cursor until it
// advances past at least one live object, discarding any dead ones it
// passes along the way without counting against a step's work budget.
// Used to move a sweep cursor off an object's Next field before that
// object is unlinked from elsewhere (checkFinalizer), so the cursor never
// ends up inside an object that has left the list (spec.md section 4.5).
func (c *Collector) sweepToLive(cursor *Object) *Object {
	for {
		next, _, done := c.sweepStep(cursor, 1)
		if done || next != cursor {
			return next
		}
	}
}

// sweepGen is the generational variant (spec.md section 4.5): white
// objects are dead; survivors advance through the age table instead of
// resetting to New. Returns the advanced cursor, objects visited, bytes
// promoted to Old1 this call, the first Old1 object seen (an optional
// accelerator for the next minor cycle), and whether the list is
// exhausted.
func (c *Collector) sweepGen(cursor *Object, max int) (*Object, int, int64, Object, bool) {
	other := c.state.otherWhite()
	count := 0
	var promoted int64
	var firstOld1 Object
	for count < max {
		obj := *cursor
		if obj == nil {
			return cursor, count, promoted, firstOld1, true
		}
		h := obj.header()
		next := h.Next
		if h.isWhiteShade(other) {
			*cursor = next
			c.releaseObject(obj)
			count++
			continue
		}
		switch h.age() {
		case AgeNew:
			h.setAge(AgeSurvival)
		case AgeSurvival:
			h.setAge(AgeOld1)
			promoted += int64(objSize(obj))
			if firstOld1 == nil {
				firstOld1 = obj
			}
		case AgeOld0:
			h.setAge(AgeOld1)
			promoted += int64(objSize(obj))
			if firstOld1 == nil {
				firstOld1 = obj
			}
		case AgeOld1:
			h.setAge(AgeOld)
		// Old, Touched1, Touched2 are left alone.
		default:
		}
		count++
		cursor = &h.Next
	}
	return cursor, count, promoted, firstOld1, *cursor == nil
}

// sweep2old converts every survivor on the list to Old in one uninterrupted
// pass, used when entering or re-entering generational mode
// (atomic2gen, spec.md section 4.8). Threads are re-linked into
// grayagain since their stacks may still hold young references; open
// upvalues stay gray for the same reason; everything else goes straight
// to black.
func (c *Collector) sweep2old(head *Object) {
	other := c.state.otherWhite()
	cursor := head
	for {
		obj := *cursor
		if obj == nil {
			return
		}
		h := obj.header()
		next := h.Next
		if h.isWhiteShade(other) {
			*cursor = next
			c.releaseObject(obj)
			continue
		}
		h.setAge(AgeOld)
		switch v := obj.(type) {
		case *Thread:
			h.makeGray()
			c.state.linkGrayAgain(v)
		case *Upvalue:
			if v.Open {
				h.makeGray()
			} else {
				h.makeBlack()
			}
		default:
			h.makeBlack()
		}
		cursor = &h.Next
	}
}

// releaseObject is the sweep-time destructor (spec.md section 4.7's
// "release"): decrement byte accounting and invoke any host-side dealloc
// callback for externally-backed payloads. The Go heap itself reclaims
// the struct via ordinary GC once nothing references it; this collector
// only owns the logical lifetime and the host-allocated bytes it tracks.
func (c *Collector) releaseObject(o Object) {
	size := objSize(o)
	switch v := o.(type) {
	case *LongString:
		if v.Dealloc != nil {
			v.Dealloc(v.Content)
		}
	case *UserData:
		if v.Dealloc != nil {
			v.Dealloc(v.Data)
		}
	}
	c.acc.accountFree(size)
	c.metrics.observeFree(o.header().Tag, size)
}
