package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, "environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 10*time.Second, c.Server.ReadTimeout)
	assert.True(t, c.Server.CORS)
	assert.Equal(t, "native", c.Model.Backend)
	assert.Equal(t, "none", c.Store.Type)
	assert.Equal(t, []string{"localhost:9092"}, c.Kafka.Brokers)
	assert.Equal(t, 5*time.Minute, c.Cache.TTL)
	assert.False(t, c.Forecast.FloorAtZero)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, `
environment: prod
server:
  port: 9090
  cors: false
model:
  backend: http
  service_url: http://models:5000
forecast:
  floor_at_zero: true
store:
  type: postgres
`))
	require.NoError(t, err)
	assert.Equal(t, 9090, c.Server.Port)
	assert.False(t, c.Server.CORS)
	assert.Equal(t, "http", c.Model.Backend)
	assert.True(t, c.Forecast.FloorAtZero)
	assert.Equal(t, "postgres", c.Store.Type)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"backend":    "model:\n  backend: tensorflow\n",
		"http url":   "model:\n  backend: http\n",
		"store":      "store:\n  type: mysql\n",
		"port":       "server:\n  port: 70000\n",
		"sample":     "tracing:\n  sample_ratio: 2\n",
		"rate limit": "rate_limit:\n  rps: 0\n",
	}
	for name, body := range cases {
		_, err := Load(writeConfig(t, body))
		assert.Error(t, err, name)
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("EF_SERVER_PORT", "7070")
	t.Setenv("EF_MODEL_BACKEND", "http")
	t.Setenv("EF_MODEL_SERVICE_URL", "http://ml:5000")
	t.Setenv("EF_KAFKA_ENABLED", "true")
	t.Setenv("EF_KAFKA_BROKERS", "a:9092,b:9092")

	c, err := LoadWithEnv(writeConfig(t, "environment: test\n"))
	require.NoError(t, err)
	assert.Equal(t, 7070, c.Server.Port)
	assert.Equal(t, "http", c.Model.Backend)
	assert.Equal(t, "http://ml:5000", c.Model.ServiceURL)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
	// Untouched values keep their defaults.
	assert.Equal(t, "info", c.Logging.Level)
}
