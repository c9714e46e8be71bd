package auth

import (
	"errors"

	"golang.org/x/oauth2/clientcredentials"
)

// Conf holds OAuth2 client-credentials settings for an upstream API.
// An empty TokenURL disables authentication.
type Conf struct {
	ClientID     string   `json:"client_id" yaml:"client_id" koanf:"client_id"`
	ClientSecret string   `json:"client_secret" yaml:"client_secret" koanf:"client_secret"`
	TokenURL     string   `json:"token_url" yaml:"token_url" koanf:"token_url"`
	Scopes       []string `json:"scopes" yaml:"scopes" koanf:"scopes"`
}

// Enabled reports whether a token endpoint is configured.
func (c Conf) Enabled() bool { return c.TokenURL != "" }

// Validate requires credentials once a token endpoint is set.
func (c Conf) Validate() error {
	if c.Enabled() && c.ClientID == "" {
		return errors.New("auth: client_id is required with token_url")
	}
	return nil
}

func (c Conf) toOauth2Config() clientcredentials.Config {
	return clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
		Scopes:       c.Scopes,
	}
}
