// Package trace records what happened during a simulation run: the busy
// intervals domain code reports on named resources (the data behind a Gantt
// chart) and, optionally, every event the kernel dispatched.
package trace

// Interval captures one task occupying a resource on behalf of a subject.
type Interval struct {
	Resource string `json:"resource"`
	Task     string `json:"task"`
	Subject  string `json:"subject"`
	Start    int64  `json:"start"`
	Finish   int64  `json:"finish"`
}

// Duration returns Finish - Start.
func (iv Interval) Duration() int64 {
	return iv.Finish - iv.Start
}

// Dispatch captures a single processed event.
type Dispatch struct {
	Time int64  `json:"time"`
	Seq  uint64 `json:"seq"`
	Name string `json:"name"`
	OK   bool   `json:"ok"`
}
