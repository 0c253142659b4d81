// AngelaMos | 2026
// config_test.go

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
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWithEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/curator")
	t.Setenv("ENVIRONMENT", "development")

	c, err := load("")
	require.NoError(t, err)

	assert.Equal(t, "pgx", c.Database.Driver)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 3, c.Invite.Quota)
	assert.Equal(t, 30*24*time.Hour, c.Invite.TTL)
	assert.Equal(t, 10, c.Invite.CodeLength)
	assert.Equal(t, 15*time.Minute, c.JWT.AccessTokenExpire)
	assert.True(t, c.IsDevelopment())
	assert.Equal(t, "0.0.0.0:8080", c.Server.Address())
}

func TestLoad_FileThenEnvOverride(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  url: /tmp/curator.db
invite:
  quota: 5
  ttl: 48h
server:
  port: 9000
`)
	t.Setenv("DATABASE_URL", "/tmp/override.db")
	t.Setenv("INVITE_QUOTA", "7")
	t.Setenv("ENVIRONMENT", "development")

	c, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", c.Database.Driver)
	assert.Equal(t, "/tmp/override.db", c.Database.URL)
	assert.Equal(t, 7, c.Invite.Quota)
	assert.Equal(t, 48*time.Hour, c.Invite.TTL)
	assert.Equal(t, 9000, c.Server.Port)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing database url",
			env:  map[string]string{"DATABASE_URL": ""},
		},
		{
			name: "unknown driver",
			env:  map[string]string{"DATABASE_URL": "x", "DATABASE_DRIVER": "mysql"},
		},
		{
			name: "sqlite in production",
			env: map[string]string{
				"DATABASE_URL":    "/tmp/curator.db",
				"DATABASE_DRIVER": "sqlite",
				"ENVIRONMENT":     "production",
			},
		},
		{
			name: "insecure telemetry in production",
			env: map[string]string{
				"DATABASE_URL":  "postgres://db/curator",
				"ENVIRONMENT":   "production",
				"OTEL_ENABLED":  "true",
				"OTEL_INSECURE": "true",
			},
		},
		{
			name: "zero quota",
			env:  map[string]string{"DATABASE_URL": "postgres://db/curator", "INVITE_QUOTA": "0"},
		},
		{
			name: "short codes",
			env:  map[string]string{"DATABASE_URL": "postgres://db/curator", "INVITE_CODE_LENGTH": "4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", "development")
			t.Setenv("DATABASE_DRIVER", "pgx")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/curator")

	_, err := load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "load config file")
}
