package instana

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConfig map[string]string

func (m mockConfig) Get(key string) string {
	return m[key]
}

func (m mockConfig) GetOrDefault(key, defaultValue string) string {
	if v, ok := m[key]; ok {
		return v
	}

	return defaultValue
}

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig(mockConfig{
		"INSTANA_ENDPOINT_URL":   "https://serverless.instana.io/",
		"INSTANA_AGENT_KEY":      "key",
		"INSTANA_TIMEOUT":        "2000",
		"INSTANA_ENDPOINT_PROXY": "http://proxy:3128",
	})

	require.NoError(t, err)
	assert.Equal(t, &Config{
		EndpointURL: "https://serverless.instana.io",
		AgentKey:    "key",
		Timeout:     2 * time.Second,
		ProxyURL:    "http://proxy:3128",
	}, cfg)
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig(mockConfig{
		"INSTANA_ENDPOINT_URL": "http://localhost:4444",
		"INSTANA_AGENT_KEY":    "key",
	})

	require.NoError(t, err)
	assert.Equal(t, defaultTimeout, cfg.Timeout)
	assert.Empty(t, cfg.ProxyURL)
}

func TestNewConfig_Errors(t *testing.T) {
	tests := []struct {
		desc   string
		env    mockConfig
		errMsg string
	}{
		{"missing endpoint", mockConfig{"INSTANA_AGENT_KEY": "key"}, errMissingEndpoint.Error()},
		{"missing agent key", mockConfig{"INSTANA_ENDPOINT_URL": "http://localhost"}, errMissingAgentKey.Error()},
		{"bad scheme", mockConfig{"INSTANA_ENDPOINT_URL": "ftp://localhost", "INSTANA_AGENT_KEY": "key"},
			"invalid INSTANA_ENDPOINT_URL"},
		{"no host", mockConfig{"INSTANA_ENDPOINT_URL": "http://", "INSTANA_AGENT_KEY": "key"},
			"invalid INSTANA_ENDPOINT_URL"},
		{"bad timeout", mockConfig{"INSTANA_ENDPOINT_URL": "http://localhost", "INSTANA_AGENT_KEY": "key",
			"INSTANA_TIMEOUT": "soon"}, "failed to parse INSTANA_TIMEOUT"},
		{"zero timeout", mockConfig{"INSTANA_ENDPOINT_URL": "http://localhost", "INSTANA_AGENT_KEY": "key",
			"INSTANA_TIMEOUT": "0"}, "INSTANA_TIMEOUT must be greater than 0"},
		{"bad proxy", mockConfig{"INSTANA_ENDPOINT_URL": "http://localhost", "INSTANA_AGENT_KEY": "key",
			"INSTANA_ENDPOINT_PROXY": "proxy:3128"}, "invalid INSTANA_ENDPOINT_PROXY"},
	}

	for i, tc := range tests {
		cfg, err := NewConfig(tc.env)

		assert.Nil(t, cfg, "TEST[%d], Failed.\n%s", i, tc.desc)
		assert.ErrorContains(t, err, tc.errMsg, "TEST[%d], Failed.\n%s", i, tc.desc)
	}
}
