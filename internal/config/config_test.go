package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func useTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	SetConfigDir(dir)
	return dir
}

func TestDefaultConfig(t *testing.T) {
	useTempConfigDir(t)
	cfg := DefaultConfig()

	if cfg.Model.BaseURL != "https://api.anthropic.com" {
		t.Errorf("Expected BaseURL to be https://api.anthropic.com, got %s", cfg.Model.BaseURL)
	}

	if cfg.Model.Model != "claude-sonnet-4-5-20250929" {
		t.Errorf("Unexpected default model: %s", cfg.Model.Model)
	}

	if cfg.Model.NameModel == "" {
		t.Error("Expected a default name model")
	}

	if cfg.Model.MaxTokens != 8192 {
		t.Errorf("Expected MaxTokens 8192, got %d", cfg.Model.MaxTokens)
	}

	if cfg.Projects.RootDir == "" || cfg.Projects.DBPath == "" {
		t.Error("Expected project paths to be populated")
	}

	if cfg.Memory.DataDir == "" {
		t.Error("Expected memory data dir to be populated")
	}
}

func TestConfigValidate(t *testing.T) {
	useTempConfigDir(t)

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"empty BaseURL", func(c *Config) { c.Model.BaseURL = "" }, true},
		{"empty model", func(c *Config) { c.Model.Model = "" }, true},
		{"empty name model", func(c *Config) { c.Model.NameModel = "" }, true},
		{"zero max tokens", func(c *Config) { c.Model.MaxTokens = 0 }, true},
		{"empty root dir", func(c *Config) { c.Projects.RootDir = "" }, true},
		{"empty db path", func(c *Config) { c.Projects.DBPath = "" }, true},
		{"empty data dir", func(c *Config) { c.Memory.DataDir = "" }, true},
		{"zero log retention", func(c *Config) { c.Logging.MaxDays = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadCreatesDefaultConfig(t *testing.T) {
	dir := useTempConfigDir(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Model.BaseURL != "https://api.anthropic.com" {
		t.Errorf("Unexpected BaseURL: %s", cfg.Model.BaseURL)
	}

	// A config file was written
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("Expected config file to be created: %v", err)
	}
}

func TestLoadExistingConfig(t *testing.T) {
	dir := useTempConfigDir(t)

	content := `model:
  api_key: test-key
  base_url: https://custom.example.com
  model: custom-model
  name_model: custom-name-model
  max_tokens: 2048
projects:
  root_dir: /tmp/protos
  db_path: /tmp/protos.db
memory:
  data_dir: /tmp/memdata
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Model.APIKey != "test-key" {
		t.Errorf("Unexpected APIKey: %s", cfg.Model.APIKey)
	}
	if cfg.Model.BaseURL != "https://custom.example.com" {
		t.Errorf("Unexpected BaseURL: %s", cfg.Model.BaseURL)
	}
	if cfg.Model.MaxTokens != 2048 {
		t.Errorf("Unexpected MaxTokens: %d", cfg.Model.MaxTokens)
	}
	if cfg.Projects.RootDir != "/tmp/protos" {
		t.Errorf("Unexpected RootDir: %s", cfg.Projects.RootDir)
	}
}

func TestLoadPartialConfigUsesDefaults(t *testing.T) {
	dir := useTempConfigDir(t)

	content := `model:
  api_key: test-key
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Model.BaseURL != "https://api.anthropic.com" {
		t.Errorf("Missing fields should fall back to defaults, got %s", cfg.Model.BaseURL)
	}
}

func TestSaveAndReload(t *testing.T) {
	useTempConfigDir(t)

	cfg := DefaultConfig()
	cfg.Model.APIKey = "saved-key"
	cfg.Model.Model = "saved-model"

	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Model.APIKey != "saved-key" {
		t.Errorf("Unexpected APIKey after reload: %s", loaded.Model.APIKey)
	}
	if loaded.Model.Model != "saved-model" {
		t.Errorf("Unexpected Model after reload: %s", loaded.Model.Model)
	}
}

func TestIsAPIKeyConfigured(t *testing.T) {
	useTempConfigDir(t)

	cfg := DefaultConfig()
	if cfg.IsAPIKeyConfigured() {
		t.Error("Empty API key should report unconfigured")
	}

	cfg.Model.APIKey = "key"
	if !cfg.IsAPIKeyConfigured() {
		t.Error("Non-empty API key should report configured")
	}
}

func TestStringRedactsAPIKey(t *testing.T) {
	useTempConfigDir(t)

	cfg := DefaultConfig()
	cfg.Model.APIKey = "sk-ant-very-secret-key"

	s := cfg.String()
	if strings.Contains(s, "very-secret") {
		t.Error("String() must not expose the full API key")
	}
	if !strings.Contains(s, "sk-ant-v...") {
		t.Errorf("Expected redacted prefix, got:\n%s", s)
	}
}

func TestRedactAPIKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "(not configured)"},
		{"short", "***"},
		{"sk-ant-1234567890", "sk-ant-1..."},
	}

	for _, c := range cases {
		if got := redactAPIKey(c.in); got != c.want {
			t.Errorf("redactAPIKey(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
