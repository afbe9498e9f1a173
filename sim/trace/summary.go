package trace

import (
	"maps"
	"slices"
)

// ResourceSummary aggregates the intervals recorded on one resource.
type ResourceSummary struct {
	Intervals   int
	BusyTicks   int64
	Utilization float64 // BusyTicks / horizon; 0 when horizon is 0
}

// TraceSummary aggregates statistics from a Recorder.
type TraceSummary struct {
	Horizon      int64
	Resources    map[string]ResourceSummary
	Tasks        map[string]int // task name → count of intervals
	Subjects     map[string]int // subject → count of intervals
	Dispatched   int
	FailedEvents int
}

// Summarize computes aggregate statistics from a Recorder over [0, horizon].
// Safe for nil or empty recorders (returns zero-value fields).
func Summarize(r *Recorder, horizon int64) *TraceSummary {
	summary := &TraceSummary{
		Horizon:   horizon,
		Resources: make(map[string]ResourceSummary),
		Tasks:     make(map[string]int),
		Subjects:  make(map[string]int),
	}
	if r == nil {
		return summary
	}

	for _, iv := range r.Intervals {
		rs := summary.Resources[iv.Resource]
		rs.Intervals++
		rs.BusyTicks += iv.Duration()
		summary.Resources[iv.Resource] = rs
		summary.Tasks[iv.Task]++
		summary.Subjects[iv.Subject]++
	}
	if horizon > 0 {
		for name, rs := range summary.Resources {
			rs.Utilization = float64(rs.BusyTicks) / float64(horizon)
			summary.Resources[name] = rs
		}
	}

	summary.Dispatched = len(r.Dispatches)
	for _, d := range r.Dispatches {
		if !d.OK {
			summary.FailedEvents++
		}
	}
	return summary
}

// ResourceNames returns the summarized resource names in sorted order.
func (s *TraceSummary) ResourceNames() []string {
	return slices.Sorted(maps.Keys(s.Resources))
}
