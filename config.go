package instana

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gofr.dev/pkg/gofr/config"
)

const defaultTimeout = 500 * time.Millisecond

var (
	errMissingEndpoint = errors.New("INSTANA_ENDPOINT_URL is not set")
	errMissingAgentKey = errors.New("INSTANA_AGENT_KEY is not set")
)

// Config holds the exporter settings read from the environment.
type Config struct {
	EndpointURL string
	AgentKey    string
	Timeout     time.Duration
	ProxyURL    string
}

func NewConfig(c config.Config) (*Config, error) {
	cfg := &Config{
		EndpointURL: strings.TrimRight(c.Get("INSTANA_ENDPOINT_URL"), "/"),
		AgentKey:    c.Get("INSTANA_AGENT_KEY"),
		ProxyURL:    c.Get("INSTANA_ENDPOINT_PROXY"),
		Timeout:     defaultTimeout,
	}

	if v := c.Get("INSTANA_TIMEOUT"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse INSTANA_TIMEOUT : %w", err)
		}

		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the exporter configuration is valid
func (cfg *Config) Validate() error {
	if cfg.EndpointURL == "" {
		return errMissingEndpoint
	}

	if err := validateURL(cfg.EndpointURL); err != nil {
		return fmt.Errorf("invalid INSTANA_ENDPOINT_URL : %w", err)
	}

	if cfg.AgentKey == "" {
		return errMissingAgentKey
	}

	if cfg.Timeout <= 0 {
		return fmt.Errorf("INSTANA_TIMEOUT must be greater than 0")
	}

	if cfg.ProxyURL != "" {
		if err := validateURL(cfg.ProxyURL); err != nil {
			return fmt.Errorf("invalid INSTANA_ENDPOINT_PROXY : %w", err)
		}
	}

	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("missing host")
	}

	return nil
}
