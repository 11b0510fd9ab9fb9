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

// chdir keeps a stray .env in the package directory from leaking into the test
func chdir(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_FileAndDefaults(t *testing.T) {
	chdir(t)
	path := writeConfig(t, `
server:
  port: 9090
auth:
  jwt_secret: file-secret
  token_ttl: 2h
lark:
  enabled: true
  app_id: cli_123
  app_secret: s3cret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "expense-approval", cfg.Auth.Issuer)
	assert.True(t, cfg.Lark.Enabled)
	assert.Equal(t, "expense.events", cfg.Redis.Channel)
	assert.True(t, cfg.Notification.InboxEnabled)
	assert.Equal(t, "data/expenses.db", cfg.Database.Path)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t)
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := Load(writeConfig(t, "auth:\n  jwt_secret: file-secret\n"))
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_DotEnv(t *testing.T) {
	chdir(t)
	require.NoError(t, os.WriteFile(".env", []byte("JWT_SECRET=dotenv-secret\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("JWT_SECRET") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv-secret", cfg.Auth.JWTSecret)
}

func TestLoad_MissingFile(t *testing.T) {
	chdir(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Path: "x.db"},
			Auth:     AuthConfig{JWTSecret: "s", TokenTTL: time.Hour},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"secret required", func(c *Config) { c.Auth.JWTSecret = "" }, "auth.jwt_secret"},
		{"dev mode needs no secret", func(c *Config) { c.Auth.JWTSecret = ""; c.Auth.DevMode = true }, ""},
		{"lark credentials", func(c *Config) { c.Lark.Enabled = true }, "lark.app_id"},
		{"lark secret", func(c *Config) { c.Lark.Enabled = true; c.Lark.AppID = "cli" }, "lark.app_secret"},
		{"port range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"database path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"ttl", func(c *Config) { c.Auth.TokenTTL = 0 }, "token_ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
