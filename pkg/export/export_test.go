package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/kilianp07/fleetmaint/core/model"
)

func sample() model.Snapshot {
	return model.Snapshot{
		WorkOrders: []model.WorkOrder{
			{ID: "WO-002", VehicleID: "V001", Title: "Tires", Status: model.StatusOpen, Hours: 1},
			{ID: "WO-001", VehicleID: "V001", Title: "Brakes", Status: model.StatusScheduled,
				Start: "2025-08-18T08:00:00", End: "2025-08-18T10:00:00", Hours: 2, TechnicianID: "T-01"},
		},
		OpsTasks: []model.OpsTask{
			{ID: "OPS-1", VehicleID: "V001", Title: "Route", Start: "2025-08-18T07:00:00", End: "2025-08-18T08:00:00", Hours: 1},
			{ID: "OPS-2", VehicleID: "V000", Title: "Rental", Start: "2025-08-19T07:00:00", End: "2025-08-19T08:30:00", Hours: 1.5},
		},
	}
}

func TestRowsOrder(t *testing.T) {
	rows := Rows(sample())
	var ids []string
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	want := []string{"OPS-2", "OPS-1", "WO-001", "WO-002"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order = %v, want %v", ids, want)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sample()); err != nil {
		t.Fatalf("csv: %v", err)
	}
	recs, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) != 5 || recs[0][0] != "kind" {
		t.Fatalf("unexpected csv: %v", recs)
	}
	if recs[1][7] != "1.5" {
		t.Fatalf("hours not formatted: %v", recs[1])
	}
	if recs[3][8] != "T-01" {
		t.Fatalf("technician missing: %v", recs[3])
	}
}

func TestWriteJSONAndFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sample(), "json"); err != nil {
		t.Fatalf("json: %v", err)
	}
	var rows []Row
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 4 || rows[0].Kind != "ops" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if err := Write(&buf, sample(), "xml"); err == nil {
		t.Fatalf("unknown format accepted")
	}
}
