package gc

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics exposes the collector's internal state as a prometheus.Collector
// (spec.md's domain-stack wiring, see SPEC_FULL.md section 3). It is
// registered once per Collector and polls the collector's state lazily on
// every Collect call rather than pushing on every transition, matching
// the pull model the rest of the ecosystem uses for background
// reclamation processes.
type metrics struct {
	objectsFreed   uint64
	bytesFreed     uint64
	bytesAllocated uint64
	finalizerRuns  uint64
	stepWork       uint64
	ephemeronPasses uint64

	snapshot func() (phase Phase, mode Mode, totalBytes, debt int64)

	totalBytesDesc *prometheus.Desc
	debtDesc       *prometheus.Desc
	phaseDesc      *prometheus.Desc
	modeDesc       *prometheus.Desc
	objectsFreedDesc *prometheus.Desc
	bytesFreedDesc   *prometheus.Desc
	bytesAllocDesc   *prometheus.Desc
	finalizerDesc    *prometheus.Desc
	stepWorkDesc     *prometheus.Desc
}

func newMetrics() *metrics {
	return &metrics{
		totalBytesDesc:   prometheus.NewDesc("gc_total_bytes", "Live bytes currently tracked by the collector.", nil, nil),
		debtDesc:         prometheus.NewDesc("gc_debt_bytes", "Pacing debt; collection is due once this reaches zero or below.", nil, nil),
		phaseDesc:        prometheus.NewDesc("gc_phase_info", "Current collector phase, one info series per label value.", []string{"phase"}, nil),
		modeDesc:         prometheus.NewDesc("gc_mode_info", "Current collector mode, one info series per label value.", []string{"mode"}, nil),
		objectsFreedDesc: prometheus.NewDesc("gc_objects_freed_total", "Objects released by the sweep engine.", nil, nil),
		bytesFreedDesc:   prometheus.NewDesc("gc_bytes_freed_total", "Bytes released by the sweep engine.", nil, nil),
		bytesAllocDesc:   prometheus.NewDesc("gc_bytes_allocated_total", "Bytes allocated through the collector.", nil, nil),
		finalizerDesc:    prometheus.NewDesc("gc_finalizers_run_total", "Finalizers invoked by CallFin.", nil, nil),
		stepWorkDesc:     prometheus.NewDesc("gc_step_work_units_total", "Cumulative mark/sweep work units consumed.", nil, nil),
	}
}

func (m *metrics) observeAlloc(tag Tag, size uintptr) {
	atomic.AddUint64(&m.bytesAllocated, uint64(size))
}

func (m *metrics) observeFree(tag Tag, size uintptr) {
	atomic.AddUint64(&m.objectsFreed, 1)
	atomic.AddUint64(&m.bytesFreed, uint64(size))
}

func (m *metrics) observeStep(phase Phase, work int64) {
	if work > 0 {
		atomic.AddUint64(&m.stepWork, uint64(work))
	}
}

func (m *metrics) observeFinalizerRun() {
	atomic.AddUint64(&m.finalizerRuns, 1)
}

func (m *metrics) observeEphemeronPasses(n int) {
	atomic.AddUint64(&m.ephemeronPasses, uint64(n))
}

// Describe implements prometheus.Collector.
func (m *metrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.totalBytesDesc
	ch <- m.debtDesc
	ch <- m.phaseDesc
	ch <- m.modeDesc
	ch <- m.objectsFreedDesc
	ch <- m.bytesFreedDesc
	ch <- m.bytesAllocDesc
	ch <- m.finalizerDesc
	ch <- m.stepWorkDesc
}

// Collect implements prometheus.Collector.
func (m *metrics) Collect(ch chan<- prometheus.Metric) {
	phase, mode, totalBytes, debt := PhasePause, ModeIncremental, int64(0), int64(0)
	if m.snapshot != nil {
		phase, mode, totalBytes, debt = m.snapshot()
	}
	ch <- prometheus.MustNewConstMetric(m.totalBytesDesc, prometheus.GaugeValue, float64(totalBytes))
	ch <- prometheus.MustNewConstMetric(m.debtDesc, prometheus.GaugeValue, float64(debt))
	ch <- prometheus.MustNewConstMetric(m.phaseDesc, prometheus.GaugeValue, 1, phase.String())
	ch <- prometheus.MustNewConstMetric(m.modeDesc, prometheus.GaugeValue, 1, mode.String())
	ch <- prometheus.MustNewConstMetric(m.objectsFreedDesc, prometheus.CounterValue, float64(atomic.LoadUint64(&m.objectsFreed)))
	ch <- prometheus.MustNewConstMetric(m.bytesFreedDesc, prometheus.CounterValue, float64(atomic.LoadUint64(&m.bytesFreed)))
	ch <- prometheus.MustNewConstMetric(m.bytesAllocDesc, prometheus.CounterValue, float64(atomic.LoadUint64(&m.bytesAllocated)))
	ch <- prometheus.MustNewConstMetric(m.finalizerDesc, prometheus.CounterValue, float64(atomic.LoadUint64(&m.finalizerRuns)))
	ch <- prometheus.MustNewConstMetric(m.stepWorkDesc, prometheus.CounterValue, float64(atomic.LoadUint64(&m.stepWork)))
}
