// Package audit keeps a rotating JSONL journal of plan lifecycle events.
package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kilianp07/fleetmaint/core/events"
	"github.com/kilianp07/fleetmaint/core/model"
)

// Config controls the journal file and its rotation.
type Config struct {
	Enabled    bool   `json:"enabled" yaml:"enabled" koanf:"enabled"`
	Path       string `json:"path" yaml:"path" koanf:"path"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb" koanf:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups" koanf:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days" koanf:"max_age_days"`
}

// SetDefaults fills unset rotation values.
func (c *Config) SetDefaults() {
	if c.Path == "" {
		c.Path = "data/audit.jsonl"
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = 3
	}
	if c.MaxAgeDays <= 0 {
		c.MaxAgeDays = 30
	}
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	if c.Enabled && c.Path == "" {
		return errors.New("audit: path is required")
	}
	return nil
}

// Record is one journal line.
type Record struct {
	Timestamp  time.Time        `json:"timestamp"`
	Kind       events.Kind      `json:"kind"`
	PlanID     string           `json:"plan_id"`
	BaseID     string           `json:"base_id,omitempty"`
	Version    int              `json:"version"`
	Status     model.PlanStatus `json:"status"`
	Superseded string           `json:"superseded,omitempty"`
	Moved      int              `json:"moved"`
	Applied    int              `json:"applied,omitempty"`
	Skipped    int              `json:"skipped,omitempty"`
	Forwarded  int              `json:"forwarded,omitempty"`
	Clashes    int              `json:"clashes"`
	Vehicles   []string         `json:"vehicles,omitempty"`
}

// Query filters records. Zero fields match everything.
type Query struct {
	Start     time.Time
	End       time.Time
	PlanID    string
	VehicleID string
	Kind      events.Kind
}

func (q Query) match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.PlanID != "" && r.PlanID != q.PlanID && r.Superseded != q.PlanID {
		return false
	}
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	if q.VehicleID != "" && !slices.Contains(r.Vehicles, q.VehicleID) {
		return false
	}
	return true
}

// Journal persists records and supports querying.
type Journal interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// RecordFor converts a plan event into a journal record. Vehicles lists the
// vehicles whose work orders or ops tasks appear in the snapshot.
func RecordFor(ev events.PlanEvent) Record {
	snap := ev.Snapshot
	seen := make(map[string]struct{})
	var vehicles []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		vehicles = append(vehicles, id)
	}
	for _, wo := range snap.WorkOrders {
		add(wo.VehicleID)
	}
	for _, op := range snap.OpsTasks {
		add(op.VehicleID)
	}
	slices.Sort(vehicles)
	ts := ev.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return Record{
		Timestamp:  ts,
		Kind:       ev.Kind,
		PlanID:     snap.ID,
		BaseID:     snap.BaseID,
		Version:    snap.Version,
		Status:     snap.Status,
		Superseded: ev.Superseded,
		Moved:      snap.Moved,
		Applied:    ev.Applied,
		Skipped:    ev.Skipped,
		Forwarded:  ev.Forwarded,
		Clashes:    snap.Stats.Clashes,
		Vehicles:   vehicles,
	}
}

// RotatingJournal writes records to a JSONL file rotated by lumberjack.
type RotatingJournal struct {
	mu     sync.Mutex
	logger *lumberjack.Logger
	path   string
}

// NewRotatingJournal creates the journal directory and opens the writer lazily.
func NewRotatingJournal(cfg Config) (*RotatingJournal, error) {
	cfg.SetDefaults()
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("audit dir: %w", err)
		}
	}
	lj := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
	return &RotatingJournal{logger: lj, path: cfg.Path}, nil
}

// Append writes rec as one line, rotating the file when it grows too large.
func (j *RotatingJournal) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	_, err = j.logger.Write(append(line, '\n'))
	return err
}

// Query reads the active file and its rotated backups, oldest first.
// Unparseable lines are skipped.
func (j *RotatingJournal) Query(ctx context.Context, q Query) ([]Record, error) {
	dir := filepath.Dir(j.path)
	ext := filepath.Ext(j.path)
	prefix := filepath.Base(j.path)
	prefix = prefix[:len(prefix)-len(ext)]
	// lumberjack names backups <prefix>-<timestamp><ext>
	backups, err := filepath.Glob(filepath.Join(dir, prefix+"-*"+ext))
	if err != nil {
		return nil, err
	}
	slices.Sort(backups)
	files := append(backups, j.path)

	j.mu.Lock()
	defer j.mu.Unlock()
	var out []Record
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, err := readFile(f, q)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		out = append(out, recs...)
	}
	slices.SortStableFunc(out, func(a, b Record) int { return a.Timestamp.Compare(b.Timestamp) })
	return out, nil
}

func readFile(path string, q Query) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	var out []Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var r Record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			continue
		}
		if q.match(r) {
			out = append(out, r)
		}
	}
	return out, sc.Err()
}

// Close closes the active file.
func (j *RotatingJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.logger.Close()
}
