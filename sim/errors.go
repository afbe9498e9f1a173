package sim

import (
	"errors"
	"fmt"
)

// Contract violations are returned to the caller that made them. Failures raised
// inside a process body are attached to that process's Done event instead.
var (
	// ErrInvalidDelay is returned when a negative delay is passed to Schedule or Timeout.
	ErrInvalidDelay = errors.New("sim: negative delay")
	// ErrUnknownRequest is returned by Release for a request this resource never granted.
	ErrUnknownRequest = errors.New("sim: request not granted by this resource")
	// ErrEmptySimulation is returned by Run when nothing is scheduled and no bound is given.
	ErrEmptySimulation = errors.New("sim: run called with no scheduled events")
	// ErrUntilInPast is returned by RunUntil when the bound is earlier than Now.
	ErrUntilInPast = errors.New("sim: until is before the current time")
	// ErrUntilNotReached is returned by RunUntilEvent when the queue drains first.
	ErrUntilNotReached = errors.New("sim: no events left before the until event was processed")
	// ErrAlreadyTriggered is returned when an event outcome is set twice.
	ErrAlreadyTriggered = errors.New("sim: event already triggered")
	// ErrAlreadyScheduled is returned when an event that is queued or processed is scheduled again.
	ErrAlreadyScheduled = errors.New("sim: event already scheduled")
	// ErrEventProcessed is returned when a callback is added to a processed event.
	ErrEventProcessed = errors.New("sim: event already processed")
	// ErrNilFailure is returned by Fail(nil).
	ErrNilFailure = errors.New("sim: failure outcome must be a non-nil error")
	// ErrNoEvents is returned by Step on an empty queue.
	ErrNoEvents = errors.New("sim: no scheduled events")
	// ErrNotRunning is returned when a process waits while it is not the running process.
	ErrNotRunning = errors.New("sim: process is not running")
	// ErrClosed is returned once the environment has been closed.
	ErrClosed = errors.New("sim: environment closed")
	// ErrInvalidCapacity is returned by NewResource for a capacity below one.
	ErrInvalidCapacity = errors.New("sim: resource capacity must be positive")
	// ErrNotQueued is returned by Cancel for a request that is no longer waiting.
	ErrNotQueued = errors.New("sim: request is not queued")
)

// PanicError is the failure outcome of a process whose body panicked.
type PanicError struct {
	Process string
	Value   any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("sim: process %q panicked: %v", e.Process, e.Value)
}
