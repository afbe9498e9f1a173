package sim

import "fmt"

type eventState int

const (
	eventPending   eventState = iota // outcome not set, not queued
	eventTriggered                   // outcome set, waiting in the queue
	eventProcessed                   // callbacks have run; final
)

// Event is a one-shot, time-stamped trigger. Its outcome (a value or a failure)
// is set exactly once, and it is processed exactly once by the Environment's
// dispatch step, at which point its callbacks run in registration order.
type Event struct {
	env       *Environment
	name      string
	time      int64  // scheduled virtual time
	seq       uint64 // tie-breaker, assigned on Schedule
	state     eventState
	value     any
	err       error
	callbacks []func(*Event)
}

// Event creates a pending event owned by env. Nothing happens until it is
// triggered with Succeed or Fail, or scheduled directly.
func (env *Environment) Event() *Event {
	return env.newEvent("event")
}

func (env *Environment) newEvent(name string) *Event {
	return &Event{env: env, name: name}
}

// Timeout returns an event that is processed delay ticks from now carrying value.
func (env *Environment) Timeout(delay int64, value any) (*Event, error) {
	ev := env.newEvent(fmt.Sprintf("timeout(%d)", delay))
	ev.value = value
	if err := env.Schedule(ev, delay); err != nil {
		return nil, err
	}
	return ev, nil
}

// Succeed sets the event's value and schedules it at the current time.
func (e *Event) Succeed(value any) error {
	if e.state != eventPending {
		return fmt.Errorf("%w: %s", ErrAlreadyTriggered, e.name)
	}
	e.value = value
	return e.env.Schedule(e, 0)
}

// Fail sets the event's failure outcome and schedules it at the current time.
// Processes waiting on the event observe err from Wait.
func (e *Event) Fail(err error) error {
	if err == nil {
		return ErrNilFailure
	}
	if e.state != eventPending {
		return fmt.Errorf("%w: %s", ErrAlreadyTriggered, e.name)
	}
	e.err = err
	return e.env.Schedule(e, 0)
}

// AddCallback registers fn to run when the event is processed.
func (e *Event) AddCallback(fn func(*Event)) error {
	if e.state == eventProcessed {
		return fmt.Errorf("%w: %s", ErrEventProcessed, e.name)
	}
	e.callbacks = append(e.callbacks, fn)
	return nil
}

// Env returns the owning environment.
func (e *Event) Env() *Environment { return e.env }

// Name is a short label used in logs and traces.
func (e *Event) Name() string { return e.name }

// Time returns the virtual time the event is (or was) scheduled for.
func (e *Event) Time() int64 { return e.time }

// Seq returns the sequence number assigned when the event was scheduled.
func (e *Event) Seq() uint64 { return e.seq }

// Value returns the success value, if any.
func (e *Event) Value() any { return e.value }

// Err returns the failure outcome, if any.
func (e *Event) Err() error { return e.err }

// OK reports whether the event carries a success outcome.
func (e *Event) OK() bool { return e.state != eventPending && e.err == nil }

// Triggered reports whether the outcome has been set.
func (e *Event) Triggered() bool { return e.state != eventPending }

// Processed reports whether the dispatch step has fired the event.
func (e *Event) Processed() bool { return e.state == eventProcessed }

func (e *Event) String() string {
	return fmt.Sprintf("%s@%d#%d", e.name, e.time, e.seq)
}
