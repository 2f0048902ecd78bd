package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestEmptyServerConfig_Defaults(t *testing.T) {
	cfg := EmptyServerConfig()

	if got := cfg.GetSignificance(); got != 0.05 {
		t.Errorf("GetSignificance() = %v, want 0.05", got)
	}
	if got := cfg.GetHomogeneityMode(); got != "compat" {
		t.Errorf("GetHomogeneityMode() = %q, want compat", got)
	}
	if got := cfg.GetMaxUploadBytes(); got != 10<<20 {
		t.Errorf("GetMaxUploadBytes() = %d, want %d", got, 10<<20)
	}
	if got := cfg.GetMaxObservations(); got != 100000 {
		t.Errorf("GetMaxObservations() = %d, want 100000", got)
	}
	if got := cfg.GetShutdownTimeout(); got != 5*time.Second {
		t.Errorf("GetShutdownTimeout() = %v, want 5s", got)
	}
	if got := cfg.GetEchartsAssetsHost(); got != "" {
		t.Errorf("GetEchartsAssetsHost() = %q, want empty", got)
	}
}

func TestNilServerConfig_Defaults(t *testing.T) {
	var cfg *ServerConfig
	if got := cfg.GetSignificance(); got != DefaultSignificance {
		t.Errorf("GetSignificance() on nil = %v", got)
	}
	if got := cfg.GetShutdownTimeout(); got != DefaultShutdownTimeout {
		t.Errorf("GetShutdownTimeout() on nil = %v", got)
	}
}

func TestLoadServerConfig(t *testing.T) {
	path := writeConfig(t, "server.json", `{
  "significance": 0.01,
  "homogeneity_mode": "corrected",
  "max_upload_bytes": 2048,
  "max_observations": 50,
  "shutdown_timeout": "250ms",
  "echarts_assets_host": "http://localhost:8080/assets/"
}`)

	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if got := cfg.GetSignificance(); got != 0.01 {
		t.Errorf("GetSignificance() = %v, want 0.01", got)
	}
	if got := cfg.GetHomogeneityMode(); got != "corrected" {
		t.Errorf("GetHomogeneityMode() = %q, want corrected", got)
	}
	if got := cfg.GetMaxUploadBytes(); got != 2048 {
		t.Errorf("GetMaxUploadBytes() = %d, want 2048", got)
	}
	if got := cfg.GetMaxObservations(); got != 50 {
		t.Errorf("GetMaxObservations() = %d, want 50", got)
	}
	if got := cfg.GetShutdownTimeout(); got != 250*time.Millisecond {
		t.Errorf("GetShutdownTimeout() = %v, want 250ms", got)
	}
	if got := cfg.GetEchartsAssetsHost(); got != "http://localhost:8080/assets/" {
		t.Errorf("GetEchartsAssetsHost() = %q", got)
	}
}

func TestLoadServerConfig_Partial(t *testing.T) {
	path := writeConfig(t, "partial.json", `{"significance": 0.1}`)

	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if got := cfg.GetSignificance(); got != 0.1 {
		t.Errorf("GetSignificance() = %v, want 0.1", got)
	}
	if got := cfg.GetHomogeneityMode(); got != "compat" {
		t.Errorf("omitted homogeneity_mode should default to compat, got %q", got)
	}
}

func TestLoadServerConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"wrong extension", "server.yaml", `{}`, ".json extension"},
		{"invalid json", "bad.json", `{not json`, "failed to parse config JSON"},
		{"significance zero", "s0.json", `{"significance": 0}`, "significance must be between 0 and 1"},
		{"significance one", "s1.json", `{"significance": 1}`, "significance must be between 0 and 1"},
		{"unknown mode", "mode.json", `{"homogeneity_mode": "strict"}`, "homogeneity_mode"},
		{"zero upload cap", "up.json", `{"max_upload_bytes": 0}`, "max_upload_bytes must be positive"},
		{"negative observation cap", "obs.json", `{"max_observations": -1}`, "max_observations must be positive"},
		{"bad duration", "dur.json", `{"shutdown_timeout": "soon"}`, "invalid shutdown_timeout"},
		{"negative duration", "neg.json", `{"shutdown_timeout": "-1s"}`, "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.body)
			_, err := LoadServerConfig(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadServerConfig_MissingFile(t *testing.T) {
	_, err := LoadServerConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil || !strings.Contains(err.Error(), "failed to stat config file") {
		t.Errorf("expected stat error, got %v", err)
	}
}

func TestLoadServerConfig_TooLarge(t *testing.T) {
	body := `{"echarts_assets_host": "` + strings.Repeat("a", maxConfigFileSize) + `"}`
	path := writeConfig(t, "big.json", body)
	_, err := LoadServerConfig(path)
	if err == nil || !strings.Contains(err.Error(), "config file too large") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestDefaultsFileMatchesAccessors(t *testing.T) {
	cfg, err := LoadServerConfig(filepath.Join("..", "..", DefaultConfigPath))
	if err != nil {
		t.Fatalf("failed to load %s: %v", DefaultConfigPath, err)
	}
	empty := EmptyServerConfig()

	if cfg.GetSignificance() != empty.GetSignificance() {
		t.Errorf("significance: file %v, accessor default %v", cfg.GetSignificance(), empty.GetSignificance())
	}
	if cfg.GetHomogeneityMode() != empty.GetHomogeneityMode() {
		t.Errorf("homogeneity_mode: file %q, accessor default %q", cfg.GetHomogeneityMode(), empty.GetHomogeneityMode())
	}
	if cfg.GetMaxUploadBytes() != empty.GetMaxUploadBytes() {
		t.Errorf("max_upload_bytes: file %d, accessor default %d", cfg.GetMaxUploadBytes(), empty.GetMaxUploadBytes())
	}
	if cfg.GetMaxObservations() != empty.GetMaxObservations() {
		t.Errorf("max_observations: file %d, accessor default %d", cfg.GetMaxObservations(), empty.GetMaxObservations())
	}
	if cfg.GetShutdownTimeout() != empty.GetShutdownTimeout() {
		t.Errorf("shutdown_timeout: file %v, accessor default %v", cfg.GetShutdownTimeout(), empty.GetShutdownTimeout())
	}
}
