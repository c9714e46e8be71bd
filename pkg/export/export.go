// Package export renders a plan as flat schedule rows.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/kilianp07/fleetmaint/core/model"
)

// Row is one booking of a vehicle.
type Row struct {
	Kind         string  `json:"kind"`
	ID           string  `json:"id"`
	VehicleID    string  `json:"vehicle_id"`
	Title        string  `json:"title"`
	Status       string  `json:"status,omitempty"`
	Start        string  `json:"start,omitempty"`
	End          string  `json:"end,omitempty"`
	Hours        float64 `json:"hours"`
	TechnicianID string  `json:"technician_id,omitempty"`
}

var header = []string{"kind", "id", "vehicle_id", "title", "status", "start", "end", "hours", "technician_id"}

// Rows flattens work orders and ops tasks, ordered by vehicle then start.
// Unscheduled work orders sort last within their vehicle.
func Rows(s model.Snapshot) []Row {
	rows := make([]Row, 0, len(s.WorkOrders)+len(s.OpsTasks))
	for _, w := range s.WorkOrders {
		rows = append(rows, Row{
			Kind: "workorder", ID: w.ID, VehicleID: w.VehicleID, Title: w.Title, Status: string(w.Status),
			Start: w.Start, End: w.End, Hours: w.Hours, TechnicianID: w.TechnicianID,
		})
	}
	for _, o := range s.OpsTasks {
		rows = append(rows, Row{Kind: "ops", ID: o.ID, VehicleID: o.VehicleID, Title: o.Title, Start: o.Start, End: o.End, Hours: o.Hours})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.VehicleID != b.VehicleID {
			return a.VehicleID < b.VehicleID
		}
		if (a.Start == "") != (b.Start == "") {
			return b.Start == ""
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.ID < b.ID
	})
	return rows
}

// WriteJSON writes the rows of s to w as a JSON array.
func WriteJSON(w io.Writer, s model.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Rows(s))
}

// WriteCSV writes the rows of s to w with a header line.
func WriteCSV(w io.Writer, s model.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range Rows(s) {
		rec := []string{
			r.Kind,
			r.ID,
			r.VehicleID,
			r.Title,
			r.Status,
			r.Start,
			r.End,
			strconv.FormatFloat(r.Hours, 'f', -1, 64),
			r.TechnicianID,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Write renders s in the named format, "json" or "csv".
func Write(w io.Writer, s model.Snapshot, format string) error {
	switch format {
	case "", "json":
		return WriteJSON(w, s)
	case "csv":
		return WriteCSV(w, s)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
