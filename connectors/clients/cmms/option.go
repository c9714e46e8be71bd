package cmms

import (
	"fmt"
	"net/http"

	"github.com/kilianp07/fleetmaint/connectors"
)

// WithHTTPClient replaces the transport, e.g. for tests or proxies.
func WithHTTPClient(hc *http.Client) connectors.Option {
	return func(c connectors.DatasetClient) error {
		if cl, ok := c.(*Client); ok {
			cl.http = hc
			return nil
		}
		return fmt.Errorf(connectors.ErrIncompatibleOption, "WithHTTPClient", "cmms")
	}
}
