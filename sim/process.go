package sim

import (
	"fmt"
	"runtime"
)

// ProcessState is the lifecycle state of a Process.
type ProcessState int

const (
	StatePending   ProcessState = iota // spawned, first resumption not yet dispatched
	StateRunning                       // body is executing
	StateSuspended                     // waiting on exactly one event
	StateSucceeded                     // body returned nil
	StateFailed                        // body returned an error or panicked
	StateKilled                        // unwound by Environment.Close
)

func (s ProcessState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateSuspended:
		return "suspended"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateKilled:
		return "killed"
	default:
		return fmt.Sprintf("ProcessState(%d)", int(s))
	}
}

// ProcessFunc is the body of a process. It suspends by calling p.Wait and
// terminates by returning; a non-nil error (or a panic) is the failure outcome
// delivered to whoever waits on p.Done().
type ProcessFunc func(p *Process) error

// Process is a suspendable activity driven by the events it waits on.
type Process struct {
	env    *Environment
	id     uint64
	name   string
	fn     ProcessFunc
	state  ProcessState
	target *Event
	done   *Event
	result any

	resume chan bool // true unwinds the body
	killed bool
}

// Process spawns fn as a new process. Its first resumption is scheduled at
// the current time, so processes spawned together start in spawn order.
func (env *Environment) Process(name string, fn ProcessFunc) *Process {
	env.nextPID++
	p := &Process{
		env:  env,
		id:   env.nextPID,
		name: name,
		fn:   fn,
		done: env.newEvent("done(" + name + ")"),
	}
	init := env.newEvent("init(" + name + ")")
	init.callbacks = append(init.callbacks, p.start)
	if err := env.Schedule(init, 0); err != nil {
		env.log.WithError(err).Warnf("[tick %07d] Process %s not started", env.now, name)
		return p
	}
	p.target = init
	return p
}

func (p *Process) start(*Event) {
	p.resume = make(chan bool)
	p.env.live[p.id] = p
	go p.run()
	p.transfer(false)
}

// transfer hands control to the process goroutine and blocks until it
// suspends again or terminates.
func (p *Process) transfer(kill bool) {
	env := p.env
	prev := env.active
	env.active = p
	if !kill {
		p.state = StateRunning
		p.target = nil
	}
	p.resume <- kill
	<-env.handoff
	env.active = prev
}

func (p *Process) resumeFrom(*Event) {
	p.transfer(false)
}

func (p *Process) run() {
	if kill := <-p.resume; kill {
		p.exitKilled()
		return
	}
	returned := false
	var err error
	defer func() {
		r := recover()
		if p.killed {
			p.exitKilled()
			return
		}
		if !returned {
			if r != nil {
				err = &PanicError{Process: p.name, Value: r}
			} else {
				err = fmt.Errorf("sim: process %q exited without returning", p.name)
			}
		}
		p.terminate(err)
		p.env.handoff <- struct{}{}
	}()
	err = p.fn(p)
	returned = true
}

func (p *Process) exitKilled() {
	p.state = StateKilled
	delete(p.env.live, p.id)
	p.env.handoff <- struct{}{}
}

func (p *Process) terminate(err error) {
	env := p.env
	delete(env.live, p.id)
	if err != nil {
		p.state = StateFailed
		entry := env.log.WithError(err)
		if _, ok := err.(*PanicError); ok {
			entry.Warnf("[tick %07d] Process %s panicked", env.now, p.name)
		} else {
			entry.Debugf("[tick %07d] Process %s failed", env.now, p.name)
		}
		_ = p.done.Fail(err)
	} else {
		p.state = StateSucceeded
		env.log.Debugf("[tick %07d] Process %s finished", env.now, p.name)
		_ = p.done.Succeed(p.result)
	}
	for _, o := range env.observers {
		o.ProcessTerminated(env.now, p)
	}
}

// Wait suspends the process until ev is processed and returns its outcome.
// An event that has already been processed returns its outcome immediately.
// Wait must be called from the process's own body.
func (p *Process) Wait(ev *Event) (any, error) {
	if p.env.closed {
		return nil, ErrClosed
	}
	if p.env.active != p || p.state != StateRunning {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotRunning, p.name, p.state)
	}
	if ev.state == eventProcessed {
		return ev.value, ev.err
	}
	ev.callbacks = append(ev.callbacks, p.resumeFrom)
	p.target = ev
	p.state = StateSuspended
	p.env.handoff <- struct{}{}
	if kill := <-p.resume; kill {
		p.killed = true
		runtime.Goexit()
	}
	return ev.value, ev.err
}

// Timeout waits delay ticks and returns value.
func (p *Process) Timeout(delay int64, value any) (any, error) {
	ev, err := p.env.Timeout(delay, value)
	if err != nil {
		return nil, err
	}
	return p.Wait(ev)
}

// Sleep waits delay ticks.
func (p *Process) Sleep(delay int64) error {
	_, err := p.Timeout(delay, nil)
	return err
}

// Join waits for other to terminate and returns its outcome.
func (p *Process) Join(other *Process) (any, error) {
	return p.Wait(other.done)
}

// SetResult sets the value delivered by Done when the body returns nil.
func (p *Process) SetResult(v any) { p.result = v }

// Done is processed when the process terminates, carrying its outcome.
func (p *Process) Done() *Event { return p.done }

// Env returns the owning environment.
func (p *Process) Env() *Environment { return p.env }

// Now is shorthand for p.Env().Now().
func (p *Process) Now() int64 { return p.env.now }

// ID is unique within the environment and increases in spawn order.
func (p *Process) ID() uint64 { return p.id }

// Name returns the name given at spawn.
func (p *Process) Name() string { return p.name }

// State returns the lifecycle state.
func (p *Process) State() ProcessState { return p.state }

// Target returns the event the process is suspended on, or nil.
func (p *Process) Target() *Event { return p.target }

func (p *Process) String() string {
	return fmt.Sprintf("%s#%d(%s)", p.name, p.id, p.state)
}
