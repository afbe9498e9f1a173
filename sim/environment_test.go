package sim

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dispatchLog records every processed event in dispatch order.
type dispatchLog struct {
	BaseObserver
	events []*Event
}

func (d *dispatchLog) EventProcessed(_ int64, ev *Event) {
	d.events = append(d.events, ev)
}

func TestEnvironment_Schedule_NegativeDelay_Rejected(t *testing.T) {
	env := NewEnvironment()

	err := env.Schedule(env.Event(), -1)
	assert.ErrorIs(t, err, ErrInvalidDelay)
	assert.Equal(t, 0, env.Pending())

	_, err = env.Timeout(-5, nil)
	assert.ErrorIs(t, err, ErrInvalidDelay)
	assert.Equal(t, 0, env.Pending())
}

func TestEnvironment_Schedule_OverflowingDelay_Rejected(t *testing.T) {
	// GIVEN a clock past zero
	env := NewEnvironment(WithInitialTime(10))
	ev := env.Event()

	// WHEN a delay would push the fire time past the largest tick
	err := env.Schedule(ev, math.MaxInt64)

	// THEN it is rejected and nothing is queued
	assert.ErrorIs(t, err, ErrInvalidDelay)
	assert.Equal(t, 0, env.Pending())
	assert.False(t, ev.Triggered())

	// AND the largest representable fire time is still accepted
	require.NoError(t, env.Schedule(ev, math.MaxInt64-10))
	require.NoError(t, env.Step())
	assert.Equal(t, int64(math.MaxInt64), env.Now())
}

func TestEnvironment_Schedule_DoesNotAdvanceTime(t *testing.T) {
	env := NewEnvironment()

	require.NoError(t, env.Schedule(env.Event(), 7))

	assert.Equal(t, int64(0), env.Now())
	next, ok := env.Peek()
	assert.True(t, ok)
	assert.Equal(t, int64(7), next)
}

func TestEnvironment_Schedule_Twice_Rejected(t *testing.T) {
	env := NewEnvironment()
	ev := env.Event()

	require.NoError(t, env.Schedule(ev, 1))
	assert.ErrorIs(t, env.Schedule(ev, 2), ErrAlreadyScheduled)

	require.NoError(t, env.Run())
	assert.ErrorIs(t, env.Schedule(ev, 0), ErrAlreadyScheduled)
}

func TestEnvironment_Run_EmptyQueue_ReturnsEmptySimulation(t *testing.T) {
	env := NewEnvironment()

	assert.ErrorIs(t, env.Run(), ErrEmptySimulation)
	assert.ErrorIs(t, env.Step(), ErrNoEvents)
}

func TestEnvironment_RunUntil_EmptyQueue_MovesClockToBound(t *testing.T) {
	env := NewEnvironment()

	require.NoError(t, env.RunUntil(20))

	assert.Equal(t, int64(20), env.Now())
}

func TestEnvironment_RunUntil_InPast_Rejected(t *testing.T) {
	env := NewEnvironment(WithInitialTime(10))

	assert.ErrorIs(t, env.RunUntil(9), ErrUntilInPast)
	assert.Equal(t, int64(10), env.Now())
}

func TestEnvironment_RunUntilZero_ProcessesOnlyTimeZeroEvents(t *testing.T) {
	// GIVEN one process resuming at time 0 and an event scheduled at time 5
	env := NewEnvironment()
	ran := false
	env.Process("p", func(p *Process) error {
		ran = true
		return nil
	})
	later, err := env.Timeout(5, nil)
	require.NoError(t, err)

	// WHEN running until 0
	require.NoError(t, env.RunUntil(0))

	// THEN only the time-0 work happened
	assert.True(t, ran)
	assert.False(t, later.Processed())
	assert.Equal(t, int64(0), env.Now())
	assert.Equal(t, 1, env.Pending())

	// AND a later run picks up where the bound left off
	require.NoError(t, env.Run())
	assert.True(t, later.Processed())
	assert.Equal(t, int64(5), env.Now())
}

func TestEnvironment_RunUntil_NeverPassesBound(t *testing.T) {
	env := NewEnvironment()
	log := &dispatchLog{}
	env.observers = append(env.observers, log)
	for _, d := range []int64{1, 4, 9, 10, 11, 30} {
		_, err := env.Timeout(d, nil)
		require.NoError(t, err)
	}

	require.NoError(t, env.RunUntil(10))

	assert.Equal(t, int64(10), env.Now())
	require.Len(t, log.events, 4)
	for _, ev := range log.events {
		assert.LessOrEqual(t, ev.Time(), int64(10))
	}
	assert.Equal(t, 2, env.Pending())
}

func TestEnvironment_RunUntilEvent_ReturnsOutcome(t *testing.T) {
	env := NewEnvironment()
	p := env.Process("worker", func(p *Process) error {
		if err := p.Sleep(3); err != nil {
			return err
		}
		p.SetResult("done")
		return nil
	})
	// work scheduled after the process finishes must stay queued
	_, err := env.Timeout(100, nil)
	require.NoError(t, err)

	v, err := env.RunUntilEvent(p.Done())

	require.NoError(t, err)
	assert.Equal(t, "done", v)
	assert.Equal(t, int64(3), env.Now())
	assert.Equal(t, 1, env.Pending())
}

func TestEnvironment_RunUntilEvent_NeverTriggered(t *testing.T) {
	env := NewEnvironment()
	_, err := env.Timeout(1, nil)
	require.NoError(t, err)

	_, err = env.RunUntilEvent(env.Event())

	assert.ErrorIs(t, err, ErrUntilNotReached)
}

// TestEnvironment_Determinism_FiringOrder checks that for random schedules the
// firing order is non-decreasing in time and, within equal times, follows the
// scheduling order.
func TestEnvironment_Determinism_FiringOrder(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		env := NewEnvironment()
		log := &dispatchLog{}
		env.observers = append(env.observers, log)

		scheduled := make([]*Event, 0, 200)
		for i := 0; i < 200; i++ {
			ev, err := env.Timeout(rng.Int63n(15), i)
			require.NoError(t, err)
			scheduled = append(scheduled, ev)
		}
		require.NoError(t, env.Run())

		require.Len(t, log.events, len(scheduled))
		for i := 1; i < len(log.events); i++ {
			prev, cur := log.events[i-1], log.events[i]
			if cur.Time() < prev.Time() {
				t.Fatalf("seed %d: time went backwards at %d: %v after %v", seed, i, cur, prev)
			}
			if cur.Time() == prev.Time() && cur.Value().(int) < prev.Value().(int) {
				t.Fatalf("seed %d: same-time events out of scheduling order: %v after %v", seed, cur, prev)
			}
		}
	}
}

func TestEnvironment_SameTimeSideEffects_VisibleToLaterEvents(t *testing.T) {
	env := NewEnvironment()
	counter := 0
	var seen []int
	for i := 0; i < 3; i++ {
		env.Process("p", func(p *Process) error {
			counter++
			seen = append(seen, counter)
			return nil
		})
	}

	require.NoError(t, env.Run())

	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestEnvironment_Step_FiresCallbacksInRegistrationOrder(t *testing.T) {
	env := NewEnvironment()
	ev := env.Event()
	var order []string
	require.NoError(t, ev.AddCallback(func(*Event) { order = append(order, "first") }))
	require.NoError(t, ev.AddCallback(func(*Event) { order = append(order, "second") }))
	require.NoError(t, ev.Succeed("v"))

	require.NoError(t, env.Step())

	assert.Equal(t, []string{"first", "second"}, order)
	assert.True(t, ev.Processed())
	assert.ErrorIs(t, ev.AddCallback(func(*Event) {}), ErrEventProcessed)
}

func TestEvent_TriggerOnce(t *testing.T) {
	env := NewEnvironment()
	ev := env.Event()

	require.NoError(t, ev.Succeed(1))
	assert.ErrorIs(t, ev.Succeed(2), ErrAlreadyTriggered)
	assert.ErrorIs(t, ev.Fail(errors.New("late")), ErrAlreadyTriggered)
	assert.ErrorIs(t, env.Event().Fail(nil), ErrNilFailure)

	require.NoError(t, env.Run())
	assert.Equal(t, 1, ev.Value())
	assert.True(t, ev.OK())
}

func TestEvent_UnawaitedFailure_DoesNotStopRun(t *testing.T) {
	env := NewEnvironment()
	failed := env.Event()
	require.NoError(t, failed.Fail(errors.New("nobody listens")))
	after, err := env.Timeout(2, nil)
	require.NoError(t, err)

	require.NoError(t, env.Run())

	assert.True(t, failed.Processed())
	assert.False(t, failed.OK())
	assert.True(t, after.Processed())
}

func TestEnvironment_Logger_TracesDispatch(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.TraceLevel)
	env := NewEnvironment(WithLogger(logger))
	_, err := env.Timeout(5, nil)
	require.NoError(t, err)

	require.NoError(t, env.Run())

	var msgs []string
	for _, e := range hook.AllEntries() {
		msgs = append(msgs, e.Message)
	}
	assert.Contains(t, msgs, "[tick 0000005] Executing timeout(5) (seq 1, 0 waiters)")
}
