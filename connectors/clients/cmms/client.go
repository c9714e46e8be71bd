// Package cmms fetches fleet datasets from a maintenance management system
// exposing a JSON REST endpoint.
package cmms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kilianp07/fleetmaint/auth"
	"github.com/kilianp07/fleetmaint/core/fleetdata"
)

const maxResponse = 32 << 20

// Config locates the dataset endpoint.
type Config struct {
	BaseURL        string    `json:"base_url"`
	Path           string    `json:"path"`
	Depot          string    `json:"depot"`
	TimeoutSeconds int       `json:"timeout_seconds"`
	Auth           auth.Conf `json:"auth"`
}

// SetDefaults fills the endpoint path and timeout.
func (c *Config) SetDefaults() {
	if c.Path == "" {
		c.Path = "/api/v1/fleet"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 15
	}
}

// Validate checks the base URL and credentials.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("cmms: base_url is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("cmms: base_url: %w", err)
	}
	return c.Auth.Validate()
}

// Client calls GET <base_url><path>[?depot=...] and decodes a dataset.
type Client struct {
	endpoint string
	http     *http.Client
	creds    *auth.ClientCred
}

// New returns a client for cfg. Authentication is used when cfg.Auth has a
// token endpoint.
func New(cfg Config) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	u, err := url.JoinPath(cfg.BaseURL, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("cmms: endpoint: %w", err)
	}
	if cfg.Depot != "" {
		u += "?" + url.Values{"depot": {cfg.Depot}}.Encode()
	}
	c := &Client{endpoint: u, http: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}}
	if cfg.Auth.Enabled() {
		c.creds = auth.NewClientCred(cfg.Auth)
	}
	return c, nil
}

// FetchDataset retrieves the fleet dataset. A 401 triggers one token
// refresh and retry.
func (c *Client) FetchDataset(ctx context.Context) (fleetdata.Dataset, error) {
	resp, err := c.get(ctx)
	if err != nil {
		return fleetdata.Dataset{}, err
	}
	if resp.StatusCode == http.StatusUnauthorized && c.creds != nil {
		_ = resp.Body.Close()
		if _, err := c.creds.ForceRefresh(ctx); err != nil {
			return fleetdata.Dataset{}, err
		}
		if resp, err = c.get(ctx); err != nil {
			return fleetdata.Dataset{}, err
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return fleetdata.Dataset{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fleetdata.Dataset{}, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}
	var d fleetdata.Dataset
	if err := json.Unmarshal(body, &d); err != nil {
		return fleetdata.Dataset{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return d, nil
}

func (c *Client) get(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.creds != nil {
		if err := c.creds.SetAuthHeader(req); err != nil {
			return nil, fmt.Errorf("failed to set auth header: %w", err)
		}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}
