package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
database:
  driver: mongo
  uri: mongodb://localhost:27017/wolontariat
redis:
  enabled: true
  addr: localhost:6379
jwt:
  secret: a-very-long-test-secret
ratings:
  rateLimit:
    max: 5
    windowSeconds: 30
logging:
  level: debug
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 10, cfg.Enrollment.MaxAttempts)
	assert.Equal(t, 10, cfg.Ratings.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow())
	assert.Equal(t, 24*time.Hour, cfg.TokenExpiry())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfigMemoryDriverNeedsNoURI(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: memory
jwt:
  secret: a-very-long-test-secret
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 1313, cfg.Server.Port)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing mongo uri", "jwt:\n  secret: a-very-long-test-secret\n"},
		{"short secret", "database:\n  driver: memory\njwt:\n  secret: short\n"},
		{"unknown driver", "database:\n  driver: postgres\njwt:\n  secret: a-very-long-test-secret\n"},
		{"redis without addr", "database:\n  driver: memory\nredis:\n  enabled: true\njwt:\n  secret: a-very-long-test-secret\n"},
		{"bad log level", "database:\n  driver: memory\njwt:\n  secret: a-very-long-test-secret\nlogging:\n  level: loud\n"},
		{"persisted policies on memory", "database:\n  driver: memory\njwt:\n  secret: a-very-long-test-secret\nrbac:\n  persistPolicies: true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
