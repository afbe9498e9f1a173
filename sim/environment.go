package sim

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/sirupsen/logrus"
)

// Environment owns virtual time and the pending-event queue. Its dispatch step
// is the only place where time advances and events fire.
//
// An Environment is not safe for concurrent use. Process bodies run on their
// own goroutines but control is handed over synchronously, so at most one of
// the run loop and a single process body executes at any instant.
type Environment struct {
	now       int64
	seq       uint64
	queue     *EventHeap
	log       *logrus.Logger
	observers []Observer

	nextPID uint64
	active  *Process
	live    map[uint64]*Process // started and not yet terminated
	handoff chan struct{}
	closed  bool
}

// Option configures an Environment.
type Option func(*Environment)

// WithInitialTime starts the clock at t instead of zero.
func WithInitialTime(t int64) Option {
	return func(env *Environment) { env.now = t }
}

// WithLogger routes kernel logging to l instead of the logrus standard logger.
func WithLogger(l *logrus.Logger) Option {
	return func(env *Environment) { env.log = l }
}

// WithObserver registers o to be notified of dispatches and resource activity.
func WithObserver(o Observer) Option {
	return func(env *Environment) { env.observers = append(env.observers, o) }
}

// NewEnvironment creates an environment at time zero with an empty queue.
func NewEnvironment(opts ...Option) *Environment {
	env := &Environment{
		queue:   NewEventHeap(),
		log:     logrus.StandardLogger(),
		live:    make(map[uint64]*Process),
		handoff: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// Now returns the current virtual time.
func (env *Environment) Now() int64 { return env.now }

// ActiveProcess returns the process whose body is executing, or nil when the
// run loop itself is executing.
func (env *Environment) ActiveProcess() *Process { return env.active }

// Pending returns the number of scheduled, unprocessed events.
func (env *Environment) Pending() int { return env.queue.Len() }

// Peek returns the time of the next scheduled event.
func (env *Environment) Peek() (int64, bool) {
	ev := env.queue.Peek()
	if ev == nil {
		return 0, false
	}
	return ev.time, true
}

// Schedule queues ev to fire delay ticks from now. It never advances time.
func (env *Environment) Schedule(ev *Event, delay int64) error {
	if delay < 0 || delay > math.MaxInt64-env.now {
		return fmt.Errorf("%w: %d at time %d", ErrInvalidDelay, delay, env.now)
	}
	if env.closed {
		return ErrClosed
	}
	if ev.state != eventPending {
		return fmt.Errorf("%w: %s", ErrAlreadyScheduled, ev.name)
	}
	env.seq++
	ev.seq = env.seq
	ev.time = env.now + delay
	ev.state = eventTriggered
	env.queue.Schedule(ev)
	return nil
}

// Step processes the next event. It returns ErrNoEvents if the queue is empty.
func (env *Environment) Step() error {
	if env.closed {
		return ErrClosed
	}
	if env.queue.Len() == 0 {
		return ErrNoEvents
	}
	env.step()
	return nil
}

func (env *Environment) step() {
	ev := env.queue.PopNext()
	env.now = ev.time
	ev.state = eventProcessed
	callbacks := ev.callbacks
	ev.callbacks = nil

	env.log.Tracef("[tick %07d] Executing %s (seq %d, %d waiters)", env.now, ev.name, ev.seq, len(callbacks))
	for _, o := range env.observers {
		o.EventProcessed(env.now, ev)
	}
	for _, cb := range callbacks {
		cb(ev)
	}
}

// Run processes events until the queue is empty.
func (env *Environment) Run() error {
	if env.closed {
		return ErrClosed
	}
	if env.queue.Len() == 0 {
		return ErrEmptySimulation
	}
	for env.queue.Len() > 0 {
		env.step()
	}
	env.log.Debugf("[tick %07d] Simulation ended", env.now)
	return nil
}

// RunUntil processes every event scheduled at or before until, then moves the
// clock to until. Later events stay queued and a subsequent run resumes them.
func (env *Environment) RunUntil(until int64) error {
	if env.closed {
		return ErrClosed
	}
	if until < env.now {
		return fmt.Errorf("%w: until=%d now=%d", ErrUntilInPast, until, env.now)
	}
	for {
		next, ok := env.Peek()
		if !ok || next > until {
			break
		}
		env.step()
	}
	env.now = until
	env.log.Debugf("[tick %07d] Simulation reached horizon (%d pending)", env.now, env.queue.Len())
	return nil
}

// RunUntilEvent processes events until ev has been processed and returns its outcome.
func (env *Environment) RunUntilEvent(ev *Event) (any, error) {
	if env.closed {
		return nil, ErrClosed
	}
	for ev.state != eventProcessed {
		if env.queue.Len() == 0 {
			return nil, fmt.Errorf("%w: %s", ErrUntilNotReached, ev.name)
		}
		env.step()
	}
	return ev.value, ev.err
}

// Close unwinds every suspended process so its goroutine exits. Deferred
// functions in process bodies run; any scheduling they attempt fails with
// ErrClosed. Close is idempotent.
func (env *Environment) Close() {
	if env.closed {
		return
	}
	env.closed = true
	for _, id := range slices.Sorted(maps.Keys(env.live)) {
		p := env.live[id]
		if p.state == StateSuspended {
			p.transfer(true)
		}
	}
	// Queued events may still resume the unwound processes.
	env.queue = NewEventHeap()
	env.log.Debugf("[tick %07d] Environment closed", env.now)
}
