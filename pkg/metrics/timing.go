// Package metrics keeps in-process timings for graphsketch.
//
// Traversals, persistence round trips and frame renders record their
// durations here; the --metrics flag prints them when a command exits.
// Collection is on unless GS_METRICS=0.
//
//	defer metrics.Timer(metrics.Serialize)()
package metrics

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"
)

var enabled atomic.Bool

func init() { enabled.Store(os.Getenv("GS_METRICS") != "0") }

// Enabled reports whether durations are recorded.
func Enabled() bool { return enabled.Load() }

// SetEnabled turns recording on or off.
func SetEnabled(e bool) { enabled.Store(e) }

// TimingMetric aggregates the durations of one operation. It is safe for
// concurrent use.
type TimingMetric struct {
	name  string
	count atomic.Int64
	total atomic.Int64
	max   atomic.Int64
	min   atomic.Int64 // 0 until the first sample
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record adds one sample.
func (m *TimingMetric) Record(d time.Duration) {
	if !Enabled() {
		return
	}
	ns := int64(d)
	m.count.Add(1)
	m.total.Add(ns)
	for old := m.max.Load(); ns > old; old = m.max.Load() {
		if m.max.CompareAndSwap(old, ns) {
			break
		}
	}
	for old := m.min.Load(); old == 0 || ns < old; old = m.min.Load() {
		if m.min.CompareAndSwap(old, ns) {
			break
		}
	}
}

// Name returns the metric name.
func (m *TimingMetric) Name() string { return m.name }

// Count returns the number of samples.
func (m *TimingMetric) Count() int64 { return m.count.Load() }

// MinNs returns the shortest sample, 0 without samples.
func (m *TimingMetric) MinNs() int64 { return m.min.Load() }

// MaxNs returns the longest sample.
func (m *TimingMetric) MaxNs() int64 { return m.max.Load() }

// AvgNs returns the mean sample, 0 without samples.
func (m *TimingMetric) AvgNs() int64 {
	n := m.count.Load()
	if n == 0 {
		return 0
	}
	return m.total.Load() / n
}

// Stats snapshots the metric in milliseconds.
func (m *TimingMetric) Stats() TimingStats {
	ms := func(ns int64) float64 { return float64(ns) / 1e6 }
	return TimingStats{
		Name:    m.name,
		Count:   m.Count(),
		TotalMs: ms(m.total.Load()),
		AvgMs:   ms(m.AvgNs()),
		MaxMs:   ms(m.MaxNs()),
		MinMs:   ms(m.MinNs()),
	}
}

// Reset drops all samples.
func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.total.Store(0)
	m.max.Store(0)
	m.min.Store(0)
}

// TimingStats is a snapshot of one metric.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	MinMs   float64 `json:"min_ms,omitempty"`
}

// Timer starts a measurement; calling the result records it.
func Timer(m *TimingMetric) func() {
	if !Enabled() || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() { m.Record(time.Since(start)) }
}

var (
	Traversal    = newTimingMetric("traversal")
	ShortestPath = newTimingMetric("shortest_path")
	Serialize    = newTimingMetric("serialize")
	Deserialize  = newTimingMetric("deserialize")
	FileSave     = newTimingMetric("file_save")
	LibrarySave  = newTimingMetric("library_save")
	Analysis     = newTimingMetric("analysis")
	UIRender     = newTimingMetric("ui_render")
	Export       = newTimingMetric("export")
)

var all = []*TimingMetric{
	Traversal, ShortestPath, Serialize, Deserialize,
	FileSave, LibrarySave, Analysis, UIRender, Export,
}

// ResetAll clears every metric.
func ResetAll() {
	for _, m := range all {
		m.Reset()
	}
}

// AllTimingStats returns the metrics that have samples, in registration
// order.
func AllTimingStats() []TimingStats {
	var stats []TimingStats
	for _, m := range all {
		if m.Count() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}

// WriteReport prints one line per populated metric.
func WriteReport(w io.Writer) {
	stats := AllTimingStats()
	if len(stats) == 0 {
		fmt.Fprintln(w, "metrics: nothing recorded")
		return
	}
	for _, s := range stats {
		fmt.Fprintf(w, "%-14s n=%-4d avg=%.2fms max=%.2fms total=%.2fms\n",
			s.Name, s.Count, s.AvgMs, s.MaxMs, s.TotalMs)
	}
}
