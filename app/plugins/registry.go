// Package plugins maps configured module types to fleet data providers.
package plugins

import (
	"fmt"
	"sort"

	"github.com/kilianp07/fleetmaint/core/factory"
	"github.com/kilianp07/fleetmaint/core/fleetdata"
	"github.com/kilianp07/fleetmaint/core/interval"
	"github.com/kilianp07/fleetmaint/core/logger"
)

// ProviderFactory builds a fleet data provider from a raw configuration map.
type ProviderFactory func(conf map[string]any, cal interval.Calendar, log logger.Logger) (fleetdata.Provider, error)

var Providers = map[string]ProviderFactory{}

func RegisterProvider(name string, f ProviderFactory) { Providers[name] = f }

// NewProvider instantiates the provider named by cfg.Type.
func NewProvider(cfg factory.ModuleConfig, cal interval.Calendar, log logger.Logger) (fleetdata.Provider, error) {
	f, ok := Providers[cfg.Type]
	if !ok {
		names := make([]string, 0, len(Providers))
		for n := range Providers {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown data provider %q (known: %v)", cfg.Type, names)
	}
	return f(cfg.Conf, cal, log)
}
