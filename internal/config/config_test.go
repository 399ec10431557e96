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

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), false)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", cfg.API.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.API.Timeout)
	assert.Equal(t, int64(10<<20), cfg.Import.MaxUploadBytes)
	assert.Equal(t, 50, cfg.Import.PageSize)
	assert.Equal(t, "Imported via bulk trip import", cfg.Import.SourceRemark)
	assert.False(t, cfg.Import.ArchiveDateSubdirs)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "console", cfg.Logger.Format)
}

func TestLoad_MissingRequiredFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), true)
	assert.Error(t, err)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://fleet.example.com
  timeout: 45s
  token: file-token
import:
  page_size: 25
  archive_date_subdirs: true
server:
  port: 9090
logger:
  format: json
`)
	t.Setenv("TRIPIMPORT_API_TOKEN", "env-token")
	t.Setenv("TRIPIMPORT_API_ORGANIZATION_ID", "org-42")

	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "https://fleet.example.com", cfg.API.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.API.Timeout)
	assert.Equal(t, "env-token", cfg.API.Token)
	assert.Equal(t, "org-42", cfg.API.OrganizationID)
	assert.Equal(t, 25, cfg.Import.PageSize)
	assert.True(t, cfg.Import.ArchiveDateSubdirs)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Logger.Format)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeConfig(t, "api: [unclosed")
	_, err := Load(path, false)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			API:    APIConfig{BaseURL: "https://fleet.example.com", Timeout: time.Minute},
			Import: ImportConfig{MaxUploadBytes: 1024, PageSize: 50},
			Server: ServerConfig{Port: 8080},
			Logger: LoggerConfig{Format: "json"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }},
		{"relative base url", func(c *Config) { c.API.BaseURL = "fleet.example.com" }},
		{"ftp base url", func(c *Config) { c.API.BaseURL = "ftp://fleet.example.com" }},
		{"negative timeout", func(c *Config) { c.API.Timeout = -time.Second }},
		{"zero upload cap", func(c *Config) { c.Import.MaxUploadBytes = 0 }},
		{"zero page size", func(c *Config) { c.Import.PageSize = 0 }},
		{"huge page size", func(c *Config) { c.Import.PageSize = 5000 }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad log format", func(c *Config) { c.Logger.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
