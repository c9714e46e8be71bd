package plugins

import (
	"errors"

	connfactory "github.com/kilianp07/fleetmaint/connectors/factory"
	"github.com/kilianp07/fleetmaint/core/factory"
	"github.com/kilianp07/fleetmaint/core/fleetdata"
	"github.com/kilianp07/fleetmaint/core/interval"
	"github.com/kilianp07/fleetmaint/core/logger"
)

func init() {
	RegisterProvider("file", func(conf map[string]any, cal interval.Calendar, log logger.Logger) (fleetdata.Provider, error) {
		var fc struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &fc); err != nil {
			return nil, err
		}
		if fc.Path == "" {
			return nil, errors.New("file provider: path required")
		}
		return fleetdata.NewFileProvider(fc.Path, cal, log), nil
	})
	RegisterProvider("synthetic", func(conf map[string]any, cal interval.Calendar, log logger.Logger) (fleetdata.Provider, error) {
		var sc fleetdata.SyntheticConfig
		if err := factory.Decode(conf, &sc); err != nil {
			return nil, err
		}
		return fleetdata.NewSyntheticProvider(sc, cal, log), nil
	})
	RegisterProvider(connfactory.IDCMMS, func(conf map[string]any, cal interval.Calendar, log logger.Logger) (fleetdata.Provider, error) {
		client, err := connfactory.NewDatasetClient(connfactory.IDCMMS, conf)
		if err != nil {
			return nil, err
		}
		return fleetdata.NewRemoteProvider(connfactory.IDCMMS, client, cal, log), nil
	})
}
