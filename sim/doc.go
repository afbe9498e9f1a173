// Package sim provides a discrete-event simulation kernel: virtual time,
// suspendable processes and capacity-limited resources with FIFO queuing.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - event.go: Event lifecycle (pending → triggered → processed) and Timeout
//   - environment.go: the event queue, the dispatch step and the run loop
//   - process.go: Process bodies, Wait, and the coroutine handoff
//   - resource.go: Request/Release/Cancel and scoped acquisition with Use
//
// # Execution Model
//
// Everything is single-threaded and cooperative. Each process body runs on its
// own goroutine, but the Environment hands control to exactly one body at a
// time and blocks until that body waits on an event or returns. Events due at
// the same time fire in the order they were scheduled, so a run with
// deterministic inputs always produces the same trace.
//
//	env := sim.NewEnvironment()
//	defer env.Close()
//	counter, _ := sim.NewResource(env, "counter", 1)
//	env.Process("customer", func(p *sim.Process) error {
//	    return counter.Use(p, func() error { return p.Sleep(5) })
//	})
//	_ = env.Run()
//
// # Sub-packages
//
//   - sim/trace/: interval and dispatch recording, CSV/JSON export
//   - sim/metrics/: Prometheus collector implementing Observer
//   - sim/calendar/: cron schedules mapped onto virtual ticks
//   - sim/scenario/: the example domains (bank, supply chain, process plant)
package sim
