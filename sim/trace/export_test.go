package trace

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_WriteCSV(t *testing.T) {
	rec := NewRecorder("plant", 1, "")
	rec.Record("Pump", "Liquid dosing", "Tank1", 0, 15)
	rec.Record("Machine", "Powder induction", "Tank1", 15, 45)

	var buf bytes.Buffer
	require.NoError(t, rec.WriteCSV(&buf))

	want := "resource,task,subject,start,finish,duration\n" +
		"Pump,Liquid dosing,Tank1,0,15,15\n" +
		"Machine,Powder induction,Tank1,15,45,30\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestRecorder_WriteJSON(t *testing.T) {
	rec := NewRecorder("bank", 7, "")
	rec.Record("Counter", "Service", "Customer 1", 0, 5)

	var buf bytes.Buffer
	require.NoError(t, rec.WriteJSON(&buf))

	var decoded struct {
		RunID     string     `json:"run_id"`
		Scenario  string     `json:"scenario"`
		Seed      int64      `json:"seed"`
		Intervals []Interval `json:"intervals"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, RunID("bank", 7).String(), decoded.RunID)
	assert.Equal(t, "bank", decoded.Scenario)
	assert.Equal(t, int64(7), decoded.Seed)
	assert.Equal(t, rec.Intervals, decoded.Intervals)
	assert.NotContains(t, buf.String(), "dispatches")
}
