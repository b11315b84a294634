package gc

// weak.go implements spec.md section 4.6: weak-value tables, weak-key
// (ephemeron) tables, and the clearing passes that run once the mark
// phase has settled during atomic.

// isCleared reports whether v counts as "cleared" for the purpose of a
// weak table entry: an unmarked (still white) collectable object, except
// strings, which are never cleared through a weak table — a string is
// marked on the spot and reported live, so strings behave as values, per
// spec.md section 4.6.
func (c *Collector) isCleared(v Value) bool {
	o, ok := asObject(v)
	if !ok || o == nil {
		return false
	}
	switch o.(type) {
	case *ShortString, *LongString:
		c.reallyMark(o)
		return false
	default:
		return o.header().isWhite()
	}
}

func (c *Collector) isReachable(v Value) bool {
	o, ok := asObject(v)
	if !ok || o == nil {
		return true // non-collectable values are always "reachable"
	}
	return !o.header().isWhite()
}

// convergeEphemerons runs the fixpoint traversal over every table
// currently on the ephemeron list (spec.md section 4.6): an entry's value
// is marked only once its key is known reachable, and whatever a pass
// marks is propagated before the next table is visited, so keys reachable
// only through a newly marked value count in later passes. Direction is alternated
// between internal passes — here, the order in which ephemeron tables
// themselves are visited — to accelerate convergence on adversarial
// chains (spec.md section 9); within a single table, Go's map iteration
// order is already unspecified so alternating key order has no
// additional effect and is not attempted. Returns the number of passes
// taken, bounded by testable property 5 (O(total entries)).
func (c *Collector) convergeEphemerons() int {
	tables := c.collectList(c.state.ephemeron)
	passes := 0
	forward := true
	for {
		passes++
		changed := false
		if forward {
			for i := 0; i < len(tables); i++ {
				if c.ephemeronPass(tables[i]) {
					c.propagateAll()
					changed = true
				}
			}
		} else {
			for i := len(tables) - 1; i >= 0; i-- {
				if c.ephemeronPass(tables[i]) {
					c.propagateAll()
					changed = true
				}
			}
		}
		forward = !forward
		if !changed {
			c.metrics.observeEphemeronPasses(passes)
			return passes
		}
	}
}

// ephemeronPass marks the value of every entry in t whose key is already
// reachable and whose value is still white; returns whether anything was
// marked.
func (c *Collector) ephemeronPass(t *Table) bool {
	changed := false
	for k, v := range t.Hash {
		if !c.isReachable(k) {
			continue
		}
		if c.isCleared(v) {
			c.markValue(v)
			changed = true
		}
	}
	return changed
}

// collectList materializes a gray-linked list into a slice for
// alternating-direction iteration; the lists involved here are bounded by
// the number of weak/ephemeron tables live in the heap, not total object
// count.
func (c *Collector) collectList(head Object) []*Table {
	var out []*Table
	for cur := head; cur != nil; cur = cur.header().GCList {
		if t, ok := cur.(*Table); ok {
			out = append(out, t)
		}
	}
	return out
}

// clearByValues removes array and hash entries from every table on list
// whose value is cleared (spec.md section 4.6). Used for the weak-value
// list at atomic step 7/11.
func (c *Collector) clearByValues(head Object) {
	for cur := head; cur != nil; cur = cur.header().GCList {
		t, ok := cur.(*Table)
		if !ok {
			continue
		}
		for i, v := range t.Array {
			if c.isCleared(v) {
				t.Array[i] = nil
			}
		}
		for k, v := range t.Hash {
			if c.isCleared(v) {
				delete(t.Hash, k)
			}
		}
	}
}

// clearByKeys removes hash entries from every table on list whose key is
// unmarked, also clearing the value slot (spec.md section 4.6, atomic
// step 10). Go's map delete already keeps the remaining chain navigable,
// so no separate key tombstone is needed the way a C open-addressing hash
// table would require.
func (c *Collector) clearByKeys(head Object) {
	for cur := head; cur != nil; cur = cur.header().GCList {
		t, ok := cur.(*Table)
		if !ok {
			continue
		}
		for k := range t.Hash {
			if c.isCleared(k) {
				delete(t.Hash, k)
			}
		}
	}
}
