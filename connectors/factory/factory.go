// Package factory builds dataset clients by connector id.
package factory

import (
	"fmt"

	"github.com/kilianp07/fleetmaint/connectors"
	"github.com/kilianp07/fleetmaint/connectors/clients/cmms"
	corefactory "github.com/kilianp07/fleetmaint/core/factory"
)

const (
	IDCMMS = "cmms"
)

var (
	errUnknownClient = "unknown connector id: %s"
)

// NewDatasetClient decodes conf for the connector id and applies opts.
func NewDatasetClient(id string, conf map[string]any, opts ...connectors.Option) (connectors.DatasetClient, error) {
	var client connectors.DatasetClient
	switch id {
	case IDCMMS:
		var cfg cmms.Config
		if err := corefactory.Decode(conf, &cfg); err != nil {
			return nil, err
		}
		c, err := cmms.New(cfg)
		if err != nil {
			return nil, err
		}
		client = c
	default:
		return nil, fmt.Errorf(errUnknownClient, id)
	}
	for _, opt := range opts {
		if err := opt(client); err != nil {
			return nil, err
		}
	}
	return client, nil
}
