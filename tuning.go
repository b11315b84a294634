package gc

import "go.uber.org/zap"

// Mode is the collector's top-level strategy (spec.md section 6).
type Mode uint8

const (
	ModeIncremental Mode = iota
	ModeGenerationalMinor
	ModeGenerationalMajor
)

func (m Mode) String() string {
	switch m {
	case ModeIncremental:
		return "incremental"
	case ModeGenerationalMinor:
		return "generational-minor"
	case ModeGenerationalMajor:
		return "generational-major"
	default:
		return "unknown"
	}
}

// Tuning holds the pacing parameters from spec.md section 6. Names match
// that table exactly; defaults match the documented typical values.
type Tuning struct {
	// Pause: start the next cycle when total_bytes >= marked*Pause/100.
	Pause int
	// StepMul: work units per StepSize step, scaled by 1/word size.
	StepMul int
	// StepSize: bytes of allocation defining one step.
	StepSize int64
	// MinorMul: used once, when ChangeMode switches from incremental to
	// generational, in place of Pause in the pause-debt formula
	// (marked*MinorMul/100 - total_bytes); later cycles are paced by Pause.
	MinorMul int
	// MinorMajor: switch minor->major once added-old bytes reach
	// MinorMajor% of live-at-last-major bytes; 0 disables major mode.
	MinorMajor int
	// MajorMinor: switch major->minor once reclaimed bytes exceed
	// MajorMinor% of bytes added since the last major cycle.
	MajorMinor int

	// SweepMax bounds objects swept per step (GCSWEEPMAX in spec.md
	// section 4.5); not one of the named pacing parameters above, but
	// exposed the same way since tests may want to shrink it.
	SweepMax int
	// FinalizerCost is the work-unit cost of running one finalizer during
	// CallFin (CWUFIN in spec.md section 4.7).
	FinalizerCost int
}

// DefaultTuning returns the typical defaults documented in spec.md
// section 6.
func DefaultTuning() Tuning {
	return Tuning{
		Pause:         250,
		StepMul:       200,
		StepSize:      200 * 64, // 200 * sizeof(Table)-equivalent estimate
		MinorMul:      20,
		MinorMajor:    70,
		MajorMinor:    50,
		SweepMax:      20,
		FinalizerCost: 10,
	}
}

// Option configures a Collector at construction time.
type Option func(*Collector)

func WithPause(pct int) Option       { return func(c *Collector) { c.tuning.Pause = pct } }
func WithStepMul(pct int) Option     { return func(c *Collector) { c.tuning.StepMul = pct } }
func WithStepSize(n int64) Option    { return func(c *Collector) { c.tuning.StepSize = n } }
func WithMinorMul(pct int) Option    { return func(c *Collector) { c.tuning.MinorMul = pct } }
func WithMinorMajor(pct int) Option  { return func(c *Collector) { c.tuning.MinorMajor = pct } }
func WithMajorMinor(pct int) Option  { return func(c *Collector) { c.tuning.MajorMinor = pct } }
func WithSweepMax(n int) Option      { return func(c *Collector) { c.tuning.SweepMax = n } }
func WithMode(m Mode) Option         { return func(c *Collector) { c.state.mode = m } }
func WithLogger(l *zap.Logger) Option { return func(c *Collector) { c.log = l } }
func WithAllocator(a Allocator) Option {
	return func(c *Collector) { c.allocator = a }
}
func WithInterner(i StringInterner) Option {
	return func(c *Collector) { c.interner = i }
}
func WithErrorChannel(e ErrorChannel) Option {
	return func(c *Collector) { c.errCh = e }
}
func WithWarnChannel(w WarnChannel) Option {
	return func(c *Collector) { c.warnCh = w }
}
