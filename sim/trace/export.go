package trace

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

var csvHeader = []string{"resource", "task", "subject", "start", "finish", "duration"}

// WriteCSV writes the recorded intervals, one row per interval, in recording order.
func (r *Recorder) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, iv := range r.Intervals {
		row := []string{
			iv.Resource,
			iv.Task,
			iv.Subject,
			strconv.FormatInt(iv.Start, 10),
			strconv.FormatInt(iv.Finish, 10),
			strconv.FormatInt(iv.Duration(), 10),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the whole recorder as indented JSON.
func (r *Recorder) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding trace: %w", err)
	}
	return nil
}
