package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PSum/simulation-python-test/sim"
)

// 2024-01-01 was a Monday.
var monday = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func TestNew_RejectsNonPositiveTick(t *testing.T) {
	_, err := New(monday, 0)
	assert.Error(t, err)
}

func TestCalendar_At(t *testing.T) {
	cal, err := New(monday, 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, time.January, 4, 0, 0, 0, 0, time.UTC), cal.At(3))
}

func TestCalendar_TicksUntil(t *testing.T) {
	days, err := New(monday, 24*time.Hour)
	require.NoError(t, err)
	minutes, err := New(monday, time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name string
		cal  Calendar
		spec string
		now  int64
		want int64
	}{
		{"weekly from the occurrence itself", days, "0 0 * * 1", 0, 7},
		{"weekly from thursday", days, "0 0 * * 1", 3, 4},
		{"descriptor", days, "@daily", 10, 1},
		{"quarter hours", minutes, "*/15 * * * *", 0, 15},
		{"quarter hours mid-slot", minutes, "*/15 * * * *", 7, 8},
		{"sub-tick rounds up", days, "0 6 * * *", 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched, err := tt.cal.Parse(tt.spec)
			require.NoError(t, err)

			got, err := tt.cal.TicksUntil(sched, tt.now)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalendar_Parse_Invalid(t *testing.T) {
	cal, err := New(monday, time.Hour)
	require.NoError(t, err)

	_, err = cal.Parse("not a schedule")

	assert.Error(t, err)
}

func TestCalendar_WaitNext_SuspendsProcess(t *testing.T) {
	cal, err := New(monday, 24*time.Hour)
	require.NoError(t, err)
	sched, err := cal.Parse("0 0 * * 1,4")
	require.NoError(t, err)
	env := sim.NewEnvironment()
	var departures []int64
	env.Process("ship", func(p *sim.Process) error {
		for i := 0; i < 4; i++ {
			if err := cal.WaitNext(p, sched); err != nil {
				return err
			}
			departures = append(departures, p.Now())
		}
		return nil
	})

	require.NoError(t, env.Run())

	// Thursdays and Mondays: days 3, 7, 10, 14
	assert.Equal(t, []int64{3, 7, 10, 14}, departures)
}
