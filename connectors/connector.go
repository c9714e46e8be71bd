// Package connectors holds clients for upstream maintenance systems that
// supply fleet datasets.
package connectors

import (
	"github.com/kilianp07/fleetmaint/core/fleetdata"
)

// ErrIncompatibleOption is formatted with the option and client names.
const ErrIncompatibleOption = "option %s is not compatible with client %s"

// DatasetClient fetches a fleet dataset from an upstream system.
type DatasetClient interface {
	fleetdata.Fetcher
}

// Option configures a DatasetClient after construction.
type Option func(DatasetClient) error
