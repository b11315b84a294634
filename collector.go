package gc

import (
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"go.uber.org/zap"
)

// Collector is the public handle to the garbage collector (spec.md
// section 3's global state, plus the ambient host hooks from host.go).
// A zero Collector is not usable; construct one with New.
type Collector struct {
	state *state
	acc   accounting
	tuning Tuning

	log       *zap.Logger
	allocator Allocator
	interner  StringInterner
	errCh     ErrorChannel
	warnCh    WarnChannel
	metrics   *metrics

	reentry        *semaphore.Weighted
	emergencyGroup singleflight.Group
	emergency      bool

	markedBytes        int64
	genLiveAtLastMajor int64
	genAddedBytes      int64

	// Registry, GlobalMetatables and MainThread are the collector's root
	// set (spec.md section 4.4's markroot); RunningThread is whichever
	// thread is currently executing, re-marked at the top of every atomic
	// phase since it may hold references the stack-walk alone would miss
	// mid-instruction.
	Registry         Object
	GlobalMetatables Object
	MainThread       Object
	RunningThread    Object
}

// New constructs a Collector with the given options applied over
// spec.md section 6's documented defaults. Callers typically set
// MainThread (and Registry/GlobalMetatables) right after construction,
// before allocating anything else, since markRoots dereferences them
// from the very first Step.
func New(opts ...Option) *Collector {
	c := &Collector{
		state:   newState(),
		tuning:  DefaultTuning(),
		log:     zap.NewNop(),
		interner: NopInterner{},
		metrics: newMetrics(),
		reentry: semaphore.NewWeighted(1),
	}
	c.metrics.snapshot = func() (Phase, Mode, int64, int64) {
		return c.state.phase, c.state.mode, c.acc.totalBytes, c.acc.debt
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.allocator == nil {
		c.allocator = nopAllocator{}
	}
	return c
}

// Metrics returns the collector's prometheus.Collector so the embedder
// can register it against their own registry (spec.md's domain-stack
// wiring keeps registration the host's choice rather than reaching for
// the global default registry itself).
func (c *Collector) Metrics() *metrics { return c.metrics }

// Stop sets the user-requested stop flag (GCSTPUSR, spec.md section
// 6); Step and Full both become no-ops until Resume is called.
func (c *Collector) Stop() { c.state.flags |= GCSTPUSR }

// Resume clears the user-requested stop flag.
func (c *Collector) Resume() { c.state.flags &^= GCSTPUSR }

// Stopped reports whether any stop flag (user, reentrant-finalizer, or
// closing) is currently set.
func (c *Collector) Stopped() bool { return c.state.stopped() }

// Phase returns the collector's current state-machine phase.
func (c *Collector) Phase() Phase { return c.state.phase }

// ModeOf returns the collector's current top-level strategy.
func (c *Collector) ModeOf() Mode { return c.state.mode }

// TotalBytes returns the live-byte count currently tracked by the
// accounting ledger.
func (c *Collector) TotalBytes() int64 { return c.acc.totalBytes }

// Debt returns the current pacing debt (spec.md section 3); collection
// is due once this reaches zero or below.
func (c *Collector) Debt() int64 { return c.acc.debt }

// nopAllocator is the zero-value Allocator used when the embedder does
// not supply one: it always fails, which only matters once NewObject's
// caller actually routes through allocate (today NewObject accounts
// bytes directly and never calls allocate itself — this exists for
// embedders that want the OutOfMemory retry path without writing their
// own Allocator for a quick prototype).
type nopAllocator struct{}

func (nopAllocator) Allocate(size uintptr, tag Tag) (unsafePtr, error) {
	return nil, &ErrOutOfMemory{Size: size, Tag: tag}
}

func (nopAllocator) Reallocate(ptr unsafePtr, oldSize, newSize uintptr) (unsafePtr, error) {
	return nil, &ErrOutOfMemory{Size: newSize, Tag: TagUserData}
}

func (nopAllocator) Free(ptr unsafePtr, size uintptr) {}
