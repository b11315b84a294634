package gc

import "fmt"

// ErrOutOfMemory is returned by the Allocator when the host memory pool
// is exhausted. The collector reacts to it per spec.md section 7: one
// emergency full collection, one retry, then surface to the host's error
// channel.
type ErrOutOfMemory struct {
	Size uintptr
	Tag  Tag
}

func (e *ErrOutOfMemory) Error() string {
	return fmt.Sprintf("gc: out of memory allocating %d bytes for %s", e.Size, e.Tag)
}

// accounting tracks live bytes and the pacing debt counter (spec.md
// section 3/4.1/6). byte bookkeeping and debt adjustment happen in the
// same place on every allocate/free so the two invariants
//
//	totalBytes == sum of live object sizes
//	debt        == allowance remaining before the next step is due
//
// never drift apart.
type accounting struct {
	totalBytes int64
	debt       int64
}

// due reports whether the collector should run: debt crossing to zero or
// negative is the documented trigger (spec.md sections 3 and 6; step is a
// no-op while debt remains positive, per spec.md section 8's boundary
// behaviors — see DESIGN.md for why this resolves the glossary's inverted
// wording in favor of the three sections that agree).
func (a *accounting) due() bool { return a.debt <= 0 }

func (a *accounting) accountAlloc(size uintptr) {
	a.totalBytes += int64(size)
	a.debt -= int64(size)
}

func (a *accounting) accountFree(size uintptr) {
	a.totalBytes -= int64(size)
	a.debt += int64(size)
}

// setPauseDebt implements spec.md section 4.8's Pause-state pacing rule:
// debt = marked*pause% - total_bytes.
func (a *accounting) setPauseDebt(markedBytes int64, pausePercent int) {
	a.debt = markedBytes*int64(pausePercent)/100 - a.totalBytes
}

// NewObject allocates and links a fresh collectable object into allgc,
// stamped with the current white so it cannot be swept until the *next*
// cycle (spec.md section 4.1 and testable property 3). obj's Header.Tag
// must match its concrete type; size is used purely for byte accounting.
func (c *Collector) NewObject(obj Object, size uintptr) Object {
	h := obj.header()
	h.marked = (h.marked &^ bitsColor) | c.state.currentWhite
	c.state.linkAllGC(obj)
	c.acc.accountAlloc(size)
	c.metrics.observeAlloc(h.Tag, size)
	if c.acc.due() && !c.state.stopped() {
		c.Step()
	}
	return obj
}
