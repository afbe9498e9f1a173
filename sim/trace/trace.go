package trace

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/PSum/simulation-python-test/sim"
)

// TraceLevel controls the verbosity of recording.
type TraceLevel string

const (
	// TraceLevelNone disables recording (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelIntervals keeps intervals reported by domain code.
	TraceLevelIntervals TraceLevel = "intervals"
	// TraceLevelDispatch additionally records every processed event.
	TraceLevelDispatch TraceLevel = "dispatch"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelIntervals: true,
	TraceLevelDispatch:  true,
	"":                  true, // empty defaults to intervals
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// runNamespace scopes name-based run IDs.
var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/PSum/simulation-python-test/runs"))

// RunID derives a stable identifier for a scenario and seed, so replays of the
// same configuration share an ID.
func RunID(scenario string, seed int64) uuid.UUID {
	return uuid.NewSHA1(runNamespace, []byte(fmt.Sprintf("%s/%d", scenario, seed)))
}

// Recorder collects intervals and dispatches during a run. It implements
// sim.Observer so it can be passed to sim.WithObserver.
type Recorder struct {
	sim.BaseObserver `json:"-"`

	RunID      uuid.UUID  `json:"run_id"`
	Scenario   string     `json:"scenario"`
	Seed       int64      `json:"seed"`
	Level      TraceLevel `json:"level"`
	Intervals  []Interval `json:"intervals"`
	Dispatches []Dispatch `json:"dispatches,omitempty"`
}

// NewRecorder creates a Recorder ready for recording.
func NewRecorder(scenario string, seed int64, level TraceLevel) *Recorder {
	if level == "" {
		level = TraceLevelIntervals
	}
	return &Recorder{
		RunID:      RunID(scenario, seed),
		Scenario:   scenario,
		Seed:       seed,
		Level:      level,
		Intervals:  make([]Interval, 0),
		Dispatches: make([]Dispatch, 0),
	}
}

// Record appends an interval. Safe on a nil Recorder.
func (r *Recorder) Record(resource, task, subject string, start, finish int64) {
	if r == nil || r.Level == TraceLevelNone {
		return
	}
	r.Intervals = append(r.Intervals, Interval{
		Resource: resource,
		Task:     task,
		Subject:  subject,
		Start:    start,
		Finish:   finish,
	})
}

// EventProcessed implements sim.Observer.
func (r *Recorder) EventProcessed(now int64, ev *sim.Event) {
	if r.Level != TraceLevelDispatch {
		return
	}
	r.Dispatches = append(r.Dispatches, Dispatch{
		Time: now,
		Seq:  ev.Seq(),
		Name: ev.Name(),
		OK:   ev.OK(),
	})
}
