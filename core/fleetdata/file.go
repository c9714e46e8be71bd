package fleetdata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/fleetmaint/core/interval"
	"github.com/kilianp07/fleetmaint/core/logger"
)

// FileProvider loads a dataset from a YAML or JSON file. JSON files may
// carry comments and trailing commas.
type FileProvider struct {
	holder
	path string
	cal  interval.Calendar
	log  logger.Logger
}

// NewFileProvider returns a provider reading path. Timestamps are normalized
// against cal on Init.
func NewFileProvider(path string, cal interval.Calendar, log logger.Logger) *FileProvider {
	return &FileProvider{path: path, cal: cal, log: logger.OrNop(log)}
}

// Init reads and validates the file. It may be called again to reload.
func (p *FileProvider) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}
	d, err := decodeDataset(raw, filepath.Ext(p.path))
	if err != nil {
		return fmt.Errorf("decode dataset %s: %w", p.path, err)
	}
	if err := normalizeDataset(&d, p.cal); err != nil {
		return fmt.Errorf("dataset %s: %w", p.path, err)
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("dataset %s: %w", p.path, err)
	}
	p.set(d)
	p.log.Infof("loaded fleet dataset %s: %d vehicles, %d work orders, %d ops tasks",
		p.path, len(d.Vehicles), len(d.WorkOrders), len(d.OpsTasks))
	return nil
}

func decodeDataset(raw []byte, ext string) (Dataset, error) {
	var d Dataset
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &d); err != nil {
			return Dataset{}, err
		}
	case ".json", ".jsonc", ".hujson":
		std, err := hujson.Standardize(raw)
		if err != nil {
			return Dataset{}, err
		}
		if err := json.Unmarshal(std, &d); err != nil {
			return Dataset{}, err
		}
	default:
		return Dataset{}, fmt.Errorf("unsupported dataset format %q", ext)
	}
	return d, nil
}

func normalizeDataset(d *Dataset, cal interval.Calendar) error {
	norm := func(id string, v *string) error {
		if *v == "" {
			return nil
		}
		out, err := cal.Normalize(*v)
		if err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
		*v = out
		return nil
	}
	for i := range d.WorkOrders {
		w := &d.WorkOrders[i]
		if err := norm(w.ID, &w.Start); err != nil {
			return err
		}
		if err := norm(w.ID, &w.End); err != nil {
			return err
		}
		if w.Hours <= 0 && w.Start != "" && w.End != "" {
			w.Hours = cal.DurationHours(w.Start, w.End, 0)
		}
	}
	for i := range d.OpsTasks {
		o := &d.OpsTasks[i]
		if err := norm(o.ID, &o.Start); err != nil {
			return err
		}
		if err := norm(o.ID, &o.End); err != nil {
			return err
		}
		if o.Hours <= 0 && o.Start != "" && o.End != "" {
			o.Hours = cal.DurationHours(o.Start, o.End, 0)
		}
	}
	return nil
}
