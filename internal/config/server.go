package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/anova.defaults.json"

// Defaults applied by the Get* accessors when a key is omitted.
const (
	DefaultSignificance    = 0.05
	DefaultHomogeneityMode = "compat"
	DefaultMaxUploadBytes  = 10 << 20
	DefaultMaxObservations = 100000
	DefaultShutdownTimeout = 5 * time.Second
)

const maxConfigFileSize = 1 * 1024 * 1024 // 1MB

// ServerConfig is the JSON configuration for the analysis server.
// Fields are pointers so that omitted keys fall back to defaults.
type ServerConfig struct {
	Significance      *float64 `json:"significance,omitempty"`
	HomogeneityMode   *string  `json:"homogeneity_mode,omitempty"` // "compat" or "corrected"
	MaxUploadBytes    *int64   `json:"max_upload_bytes,omitempty"`
	MaxObservations   *int     `json:"max_observations,omitempty"`
	ShutdownTimeout   *string  `json:"shutdown_timeout,omitempty"` // duration string like "5s"
	EchartsAssetsHost *string  `json:"echarts_assets_host,omitempty"`
}

// EmptyServerConfig returns a ServerConfig with all fields set to nil.
func EmptyServerConfig() *ServerConfig {
	return &ServerConfig{}
}

// LoadServerConfig loads a ServerConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
// Fields omitted from the JSON file fall back to defaults, so partial
// configs are safe.
func LoadServerConfig(path string) (*ServerConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyServerConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *ServerConfig) Validate() error {
	if c.Significance != nil {
		if s := *c.Significance; !(s > 0 && s < 1) {
			return fmt.Errorf("significance must be between 0 and 1 (exclusive), got %g", s)
		}
	}

	if c.HomogeneityMode != nil {
		switch *c.HomogeneityMode {
		case "compat", "corrected":
		default:
			return fmt.Errorf("homogeneity_mode must be \"compat\" or \"corrected\", got %q", *c.HomogeneityMode)
		}
	}

	if c.MaxUploadBytes != nil && *c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", *c.MaxUploadBytes)
	}

	if c.MaxObservations != nil && *c.MaxObservations <= 0 {
		return fmt.Errorf("max_observations must be positive, got %d", *c.MaxObservations)
	}

	if c.ShutdownTimeout != nil && *c.ShutdownTimeout != "" {
		d, err := time.ParseDuration(*c.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("invalid shutdown_timeout '%s': %w", *c.ShutdownTimeout, err)
		}
		if d < 0 {
			return fmt.Errorf("shutdown_timeout must not be negative, got %s", d)
		}
	}

	return nil
}

// GetSignificance returns the significance level or the default.
func (c *ServerConfig) GetSignificance() float64 {
	if c == nil || c.Significance == nil {
		return DefaultSignificance
	}
	return *c.Significance
}

// GetHomogeneityMode returns the homogeneity mode name or the default.
func (c *ServerConfig) GetHomogeneityMode() string {
	if c == nil || c.HomogeneityMode == nil || *c.HomogeneityMode == "" {
		return DefaultHomogeneityMode
	}
	return *c.HomogeneityMode
}

// GetMaxUploadBytes returns the request body cap or the default.
func (c *ServerConfig) GetMaxUploadBytes() int64 {
	if c == nil || c.MaxUploadBytes == nil {
		return DefaultMaxUploadBytes
	}
	return *c.MaxUploadBytes
}

// GetMaxObservations returns the per-dataset record cap or the default.
func (c *ServerConfig) GetMaxObservations() int {
	if c == nil || c.MaxObservations == nil {
		return DefaultMaxObservations
	}
	return *c.MaxObservations
}

// GetShutdownTimeout parses and returns the ShutdownTimeout as a time.Duration.
func (c *ServerConfig) GetShutdownTimeout() time.Duration {
	if c == nil || c.ShutdownTimeout == nil || *c.ShutdownTimeout == "" {
		return DefaultShutdownTimeout
	}
	d, err := time.ParseDuration(*c.ShutdownTimeout)
	if err != nil {
		return DefaultShutdownTimeout // default on parse error
	}
	return d
}

// GetEchartsAssetsHost returns the configured asset host, or "" to keep
// the go-echarts default.
func (c *ServerConfig) GetEchartsAssetsHost() string {
	if c == nil || c.EchartsAssetsHost == nil {
		return ""
	}
	return *c.EchartsAssetsHost
}
