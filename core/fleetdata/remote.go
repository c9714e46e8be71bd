package fleetdata

import (
	"context"
	"fmt"

	"github.com/kilianp07/fleetmaint/core/interval"
	"github.com/kilianp07/fleetmaint/core/logger"
)

// Fetcher retrieves a dataset from an upstream system.
type Fetcher interface {
	FetchDataset(ctx context.Context) (Dataset, error)
}

// RemoteProvider loads its dataset through a Fetcher. Timestamps are
// normalized and the dataset validated exactly as for files.
type RemoteProvider struct {
	holder
	name  string
	fetch Fetcher
	cal   interval.Calendar
	log   logger.Logger
}

// NewRemoteProvider returns a provider named name for log output.
func NewRemoteProvider(name string, f Fetcher, cal interval.Calendar, log logger.Logger) *RemoteProvider {
	return &RemoteProvider{name: name, fetch: f, cal: cal, log: logger.OrNop(log)}
}

// Init fetches the dataset. It may be called again to reload.
func (p *RemoteProvider) Init(ctx context.Context) error {
	d, err := p.fetch.FetchDataset(ctx)
	if err != nil {
		return fmt.Errorf("fetch %s dataset: %w", p.name, err)
	}
	if err := normalizeDataset(&d, p.cal); err != nil {
		return fmt.Errorf("%s dataset: %w", p.name, err)
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%s dataset: %w", p.name, err)
	}
	p.set(d)
	p.log.Infof("loaded %s dataset: %d vehicles, %d work orders, %d ops tasks",
		p.name, len(d.Vehicles), len(d.WorkOrders), len(d.OpsTasks))
	return nil
}
