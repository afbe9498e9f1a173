package sim

// AnyOf returns an event that succeeds with the first of events to be
// processed (as a *Event), or fails with that event's failure. The remaining
// events stay scheduled; they are simply no longer observed through the
// condition. An empty list succeeds immediately with a nil value.
func (env *Environment) AnyOf(events ...*Event) *Event {
	cond := env.newEvent("any_of")
	if len(events) == 0 {
		_ = cond.Succeed(nil)
		return cond
	}
	check := func(ev *Event) {
		if cond.state != eventPending {
			return
		}
		if ev.err != nil {
			_ = cond.Fail(ev.err)
			return
		}
		_ = cond.Succeed(ev)
	}
	for _, ev := range events {
		if ev.state == eventProcessed {
			check(ev)
			continue
		}
		ev.callbacks = append(ev.callbacks, check)
	}
	return cond
}

// AllOf returns an event that succeeds once every event has been processed,
// carrying their values in argument order as []any. It fails with the first
// constituent failure.
func (env *Environment) AllOf(events ...*Event) *Event {
	cond := env.newEvent("all_of")
	values := make([]any, len(events))
	remaining := len(events)
	if remaining == 0 {
		_ = cond.Succeed(values)
		return cond
	}
	for i, ev := range events {
		check := func(ev *Event) {
			if cond.state != eventPending {
				return
			}
			if ev.err != nil {
				_ = cond.Fail(ev.err)
				return
			}
			values[i] = ev.value
			remaining--
			if remaining == 0 {
				_ = cond.Succeed(values)
			}
		}
		if ev.state == eventProcessed {
			check(ev)
			continue
		}
		ev.callbacks = append(ev.callbacks, check)
	}
	return cond
}
