package acceptor

import (
	"fmt"
	"strconv"
)

const (
	DefaultPort     = "4444"
	DefaultMaxSpans = 10000
)

// Config represents the acceptor settings
type Config struct {
	Port     string `mapstructure:"port"`
	MaxSpans int    `mapstructure:"max_spans"`
	AgentKey string `mapstructure:"agent_key"`
}

// Validate checks if the acceptor configuration is valid
func (cfg *Config) Validate() error {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return fmt.Errorf("failed to parse port : %w", err)
	}

	if port < 0 || port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535")
	}

	if cfg.MaxSpans < 1 {
		return fmt.Errorf("max_spans must be greater or equal to 1")
	}

	return nil
}
