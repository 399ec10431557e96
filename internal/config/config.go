// =============================================================================
// Trip Import - Configuration Module
// =============================================================================
//
// This module loads the application configuration from three layers, later
// layers overriding earlier ones:
//
//   1. Built-in defaults
//   2. The YAML config file (optional; config.yaml by default)
//   3. Environment variables prefixed with TRIPIMPORT_
//      (TRIPIMPORT_API_TOKEN, TRIPIMPORT_API_ORGANIZATION_ID, ...)
//
// Credentials are expected to come from the environment; the config file
// usually only carries the API base URL and directory settings.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "TRIPIMPORT"

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds all application configuration.
type Config struct {
	API    APIConfig    `mapstructure:"api"`
	Import ImportConfig `mapstructure:"import"`
	Server ServerConfig `mapstructure:"server"`
	Logger LoggerConfig `mapstructure:"logger"`
}

// APIConfig holds the fleet backend connection settings.
type APIConfig struct {
	// BaseURL is the root of the fleet backend, e.g. https://fleet.example.com.
	BaseURL string `mapstructure:"base_url"`

	// Timeout bounds the single bulk import request.
	// Default: 2m
	Timeout time.Duration `mapstructure:"timeout"`

	// Token and OrganizationID are the fallback credentials used when the
	// caller supplies none.
	Token          string `mapstructure:"token"`
	OrganizationID string `mapstructure:"organization_id"`
}

// ImportConfig holds upload and bookkeeping settings.
type ImportConfig struct {
	// MaxUploadBytes caps the size of an uploaded file.
	// Default: 10 MB
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`

	// PageSize is the number of rows per preview page.
	// Default: 50
	PageSize int `mapstructure:"page_size"`

	// SourceRemark is written on every imported expense.
	SourceRemark string `mapstructure:"source_remark"`

	// OutputDir receives import summaries and error logs.
	// Default: "./output"
	OutputDir string `mapstructure:"output_dir"`

	// ArchiveDir receives successfully imported files when archiving is on.
	// Default: "./input_archive"
	ArchiveDir string `mapstructure:"archive_dir"`

	// ArchiveDateSubdirs files archived inputs under YYYY/MM/DD.
	// Default: false
	ArchiveDateSubdirs bool `mapstructure:"archive_date_subdirs"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`

	// SessionTTL is how long an idle import session is kept.
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// LoggerConfig holds logger configuration.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`

	// Rotation settings, used when OutputPath is a file.
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// Addr returns the listen address of the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration from configPath and the environment.
//
// A missing config file is not an error unless required is set; defaults
// and environment variables still apply.
func Load(configPath string, required bool) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if required || !isNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.base_url", "http://localhost:3000")
	v.SetDefault("api.timeout", 2*time.Minute)

	// Import defaults
	v.SetDefault("import.max_upload_bytes", 10<<20)
	v.SetDefault("import.page_size", 50)
	v.SetDefault("import.source_remark", "Imported via bulk trip import")
	v.SetDefault("import.output_dir", "./output")
	v.SetDefault("import.archive_dir", "./input_archive")
	v.SetDefault("import.archive_date_subdirs", false)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 3*time.Minute)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.session_ttl", time.Hour)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stderr")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.max_size_mb", 50)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age_days", 30)
	v.SetDefault("logger.compress", true)
}

// bindEnvVars binds the keys that have no default, so AutomaticEnv can see
// them during Unmarshal.
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("api.token")
	_ = v.BindEnv("api.organization_id")
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}

	if c.Import.MaxUploadBytes <= 0 {
		return fmt.Errorf("import.max_upload_bytes must be positive")
	}
	if c.Import.PageSize <= 0 || c.Import.PageSize > 1000 {
		return fmt.Errorf("import.page_size must be between 1 and 1000, got %d", c.Import.PageSize)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console, got %q", c.Logger.Format)
	}

	return nil
}
