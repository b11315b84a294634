package gc

import "reflect"

// reallyMark is the entry point for marking a single white object
// (spec.md section 4.4). Strings have no outgoing references and go
// straight to black; closed upvalues and zero-value-slot userdata are
// cheap enough to finish immediately; everything else is linked onto gray
// for propagateOne to expand later.
func (c *Collector) reallyMark(o Object) {
	h := o.header()
	if !h.isWhite() {
		return
	}
	c.markedBytes += int64(objSize(o))

	switch v := o.(type) {
	case *ShortString:
		h.makeBlack()
	case *LongString:
		h.makeBlack()
	case *Upvalue:
		if v.Open {
			h.makeGray()
			c.markValue(v.Value())
		} else {
			h.makeBlack()
			c.markValue(v.Closed)
		}
	case *UserData:
		if len(v.Values) == 0 {
			if v.Metatable != nil {
				c.reallyMark(v.Metatable)
			}
			h.makeBlack()
		} else {
			c.state.linkGray(o)
		}
	default:
		// Table, LuaClosure, NativeClosure, Prototype, Thread: all have
		// outgoing references worth deferring to propagateOne.
		c.state.linkGray(o)
	}
}

// markValue marks v if it is a collectable object; non-object values
// (numbers, bools, nil) need no action.
func (c *Collector) markValue(v Value) {
	if o, ok := asObject(v); ok && o != nil {
		c.reallyMark(o)
	}
}

// markObjectPtr is a nil-safe wrapper for marking object-typed fields that
// may legitimately be nil (e.g. Table.Metatable).
func (c *Collector) markObjectPtr(o Object) {
	if o == nil || reflect.ValueOf(o).IsNil() {
		return
	}
	c.reallyMark(o)
}

// objSize is the heuristic byte-accounting estimator referenced by
// spec.md section 4.4 ("adds objsize(obj) to GCmarked"); the exact
// constant is left unspecified as an Open Question, so this is a
// reasonable monotone-in-size estimator, not a measured cost.
func objSize(o Object) uintptr {
	switch v := o.(type) {
	case *ShortString:
		return uintptr(24 + len(v.Content))
	case *LongString:
		return uintptr(32 + len(v.Content))
	case *Table:
		return uintptr(48 + len(v.Array)*16 + len(v.Hash)*32)
	case *UserData:
		return uintptr(40 + len(v.Data) + len(v.Values)*16)
	case *Prototype:
		return uintptr(64 + len(v.Constants)*16 + len(v.Protos)*8)
	case *LuaClosure:
		return uintptr(24 + len(v.Upvals)*8)
	case *NativeClosure:
		return uintptr(24 + len(v.Upvals)*8)
	case *Upvalue:
		return 32
	case *Thread:
		return uintptr(64 + len(v.Stack)*16)
	default:
		return 32
	}
}

// propagateOne pops the gray list head, blackens it, and traverses its
// children via a per-type dispatch (spec.md section 4.4). Returns a
// heuristic work-unit cost ("1 + 2*hash_slots + array_size" for tables,
// generalized below; spec.md section 9 explicitly leaves this
// unconstrained).
func (c *Collector) propagateOne() int64 {
	o := popGray(&c.state.gray)
	if o == nil {
		return 0
	}
	h := o.header()
	h.makeBlack()

	switch v := o.(type) {
	case *Table:
		return c.traverseTable(v)
	case *LuaClosure:
		c.markObjectPtr(v.Proto)
		for _, uv := range v.Upvals {
			c.markObjectPtr(uv)
		}
		return int64(1 + len(v.Upvals))
	case *NativeClosure:
		for _, uv := range v.Upvals {
			c.markValue(uv.Value())
		}
		return int64(1 + len(v.Upvals))
	case *Prototype:
		return c.traverseProto(v)
	case *Thread:
		return c.traverseThread(v)
	case *UserData:
		c.markObjectPtr(v.Metatable)
		for _, val := range v.Values {
			c.markValue(val)
		}
		return int64(1 + len(v.Values))
	default:
		return 1
	}
}

// traverseTable dispatches on weak mode before doing a strong traversal
// (spec.md section 4.4/4.6).
func (c *Collector) traverseTable(t *Table) int64 {
	c.markObjectPtr(t.Metatable)

	switch {
	case t.isAllWeak():
		// nothing traversed; revisited post-mark for key+value clearing.
		c.state.linkAllWeak(t)
		return 1

	case t.isWeakValue():
		// keys are strong, values are weak: mark keys only now, decide
		// at atomic time whether any value needs clearing.
		for k := range t.Hash {
			c.markValue(k)
		}
		c.state.linkWeak(t)
		return int64(1 + 2*len(t.Hash) + len(t.Array))

	case t.isWeakKey():
		// ephemeron: handled by the fixpoint in weak.go, not here.
		c.state.linkEphemeron(t)
		return 1

	default: // strong table
		for _, v := range t.Array {
			c.markValue(v)
		}
		c.traverseStrongHash(t)
		return int64(1 + 2*len(t.Hash) + len(t.Array))
	}
}

// traverseStrongHash marks both keys and values of a strong table,
// tombstoning entries whose value has become empty (nil) so dead entries
// don't keep their key artificially alive (spec.md section 4.4).
func (c *Collector) traverseStrongHash(t *Table) {
	for k, v := range t.Hash {
		if v == nil {
			delete(t.Hash, k)
			continue
		}
		c.markValue(k)
		c.markValue(v)
	}
}

func (c *Collector) traverseProto(p *Prototype) int64 {
	c.markObjectPtr(p.Source)
	for _, k := range p.Constants {
		c.markValue(k)
	}
	for _, sub := range p.Protos {
		c.markObjectPtr(sub)
	}
	for _, uv := range p.Upvalues {
		c.markObjectPtr(uv.Name)
	}
	for _, n := range p.LocalVarNames {
		c.markObjectPtr(n)
	}
	return int64(1 + len(p.Constants) + len(p.Protos) + len(p.Upvalues) + len(p.LocalVarNames))
}

// traverseThread marks the live stack and open upvalues; during
// Propagate a thread is always revisited in atomic since the mutator may
// still be pushing onto its stack. During atomic it additionally nils out
// the dead region above Top (spec.md section 4.4); the stack slice itself
// is not shrunk.
func (c *Collector) traverseThread(t *Thread) int64 {
	if t.header().age() == AgeOld || c.state.phase == PhasePropagate {
		c.state.linkGrayAgain(t)
	}
	for _, v := range t.LiveStack() {
		c.markValue(v)
	}
	for uv := t.OpenUpvals; uv != nil; uv = uv.Next {
		c.markObjectPtr(uv)
	}

	if c.state.phase == PhaseAtomic {
		c.atomicThreadFixup(t)
	}
	return int64(1 + t.Top)
}

// atomicThreadFixup implements the atomic-only half of traverseThread:
// nil-fill of the dead region [Top, len(Stack)), skipped under emergency
// (the slice keeps its length either way), and twups re-attachment if the
// thread gained open upvalues since it was last dropped from that list.
func (c *Collector) atomicThreadFixup(t *Thread) {
	if !c.emergency && t.Top < len(t.Stack) {
		for i := t.Top; i < len(t.Stack); i++ {
			t.Stack[i] = nil
		}
	}
	if t.OpenUpvals != nil && !c.onTwups(t) {
		c.state.linkTwups(t)
	}
}

func (c *Collector) onTwups(t *Thread) bool {
	for cur := c.state.twups; cur != nil; {
		if cur == Object(t) {
			return true
		}
		th, ok := cur.(*Thread)
		if !ok {
			return false
		}
		cur = th.TwupsNext
	}
	return false
}

// propagateAll drains the gray list completely (spec.md section 4.4).
func (c *Collector) propagateAll() int64 {
	var total int64
	for c.state.gray != nil {
		total += c.propagateOne()
	}
	return total
}

// markRoots marks the collector's root set at the start of every cycle
// (spec.md section 4.4): the registry, the global metatables table, the
// main thread, and the pending-finalizer list (so a finalizer's own
// target isn't re-collected before it runs).
func (c *Collector) markRoots() {
	c.markObjectPtr(c.Registry)
	c.markObjectPtr(c.GlobalMetatables)
	c.markObjectPtr(c.MainThread)
	for cur := c.state.tobefnz; cur != nil; cur = cur.header().Next {
		c.reallyMark(cur)
	}
}

// remarkUpvals walks the twups list (spec.md section 4.4): threads whose
// open upvalues might otherwise be missed because the thread itself
// hasn't been traversed again this cycle. Threads without open upvalues,
// marked or not, are dropped from the list; live-via-upvalue-but-unmarked threads have
// their open upvalues' values marked directly, simulating the barrier the
// thread itself can no longer fire if it gets collected before closing
// them.
func (c *Collector) remarkUpvals() int64 {
	var work int64
	cur := c.state.twups
	var prev *Thread
	for cur != nil {
		t, ok := cur.(*Thread)
		if !ok {
			break
		}
		next := t.TwupsNext
		if t.OpenUpvals == nil {
			c.detachTwups(prev, t, next)
			cur = next
			continue
		}
		if !t.header().isBlack() {
			for uv := t.OpenUpvals; uv != nil; uv = uv.Next {
				if uv.header().isGray() {
					c.markValue(uv.Value())
					work++
				}
			}
		}
		prev = t
		cur = next
	}
	return work
}

func (c *Collector) detachTwups(prev, t *Thread, next Object) {
	if prev == nil {
		c.state.twups = next
	} else {
		prev.TwupsNext = next
	}
	t.TwupsNext = nil
}
