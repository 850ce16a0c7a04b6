package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	// configDir is the configuration directory path
	// Can be set via SetConfigDir before loading config
	configDir     string
	configDirInit bool
)

// SetConfigDir sets a custom configuration directory
// Must be called before any config loading functions
func SetConfigDir(dir string) {
	configDir = dir
	configDirInit = true
}

// GetConfigDir returns the configuration directory
// Priority: 1. Manually set via SetConfigDir, 2. ~/.protomate
func GetConfigDir() string {
	if !configDirInit {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			configDir = filepath.Join(homeDir, ".protomate")
		}
		configDirInit = true
	}
	return configDir
}

// Config application configuration structure
type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Projects ProjectsConfig `yaml:"projects"`
	Memory   MemoryConfig   `yaml:"memory"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ModelConfig model provider configuration
type ModelConfig struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	NameModel string `yaml:"name_model"` // small model used for project name generation
	MaxTokens int    `yaml:"max_tokens"`
}

// ProjectsConfig prototype project storage configuration
type ProjectsConfig struct {
	RootDir string `yaml:"root_dir"` // one sandbox directory per project
	DBPath  string `yaml:"db_path"`  // project registry database
}

// MemoryConfig memory persistence configuration
type MemoryConfig struct {
	DataDir string `yaml:"data_dir"` // global memory lives here
}

// LoggingConfig log output configuration
type LoggingConfig struct {
	Level   string `yaml:"level"`    // debug | info | warn | error
	MaxDays int    `yaml:"max_days"` // days of log files to keep
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	dir := GetConfigDir()
	return &Config{
		Model: ModelConfig{
			APIKey:    "",
			BaseURL:   "https://api.anthropic.com",
			Model:     "claude-sonnet-4-5-20250929",
			NameModel: "claude-haiku-4-5-20251001",
			MaxTokens: 8192,
		},
		Projects: ProjectsConfig{
			RootDir: filepath.Join(dir, "prototypes"),
			DBPath:  filepath.Join(dir, "projects.db"),
		},
		Memory: MemoryConfig{
			DataDir: dir,
		},
		Logging: LoggingConfig{
			Level:   "info",
			MaxDays: 7,
		},
	}
}

// ConfigDir returns the configuration directory path
func ConfigDir() (string, error) {
	dir := GetConfigDir()
	if dir == "" {
		return "", fmt.Errorf("failed to determine config directory")
	}
	return dir, nil
}

// LogDir returns the log directory path
func LogDir() string {
	dir := GetConfigDir()
	if dir == "" {
		return "logs"
	}
	return filepath.Join(dir, "logs")
}

// ConfigPath returns the configuration file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from file and merges with secrets
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Config file doesn't exist, create default config
		cfg := DefaultConfig()

		secrets, _ := LoadSecrets()
		if apiKey := secrets.GetAPIKey(); apiKey != "" {
			cfg.Model.APIKey = apiKey
		}

		if err := Save(cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse config
	cfg := DefaultConfig() // Use default values as base
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Merge API key from secrets if not set in config
	if cfg.Model.APIKey == "" {
		secrets, _ := LoadSecrets()
		if apiKey := secrets.GetAPIKey(); apiKey != "" {
			cfg.Model.APIKey = apiKey
		}
	}

	// Validate config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves configuration to file
func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	// Ensure config directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Serialize config
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	// Add header comment
	content := "# Protomate Configuration File\n\n" + string(data)

	// Write file
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Model.BaseURL == "" {
		return fmt.Errorf("config error: model.base_url cannot be empty")
	}
	if c.Model.Model == "" {
		return fmt.Errorf("config error: model.model cannot be empty")
	}
	if c.Model.NameModel == "" {
		return fmt.Errorf("config error: model.name_model cannot be empty")
	}
	if c.Model.MaxTokens <= 0 {
		return fmt.Errorf("config error: model.max_tokens must be greater than 0")
	}

	if c.Projects.RootDir == "" {
		return fmt.Errorf("config error: projects.root_dir cannot be empty")
	}
	if c.Projects.DBPath == "" {
		return fmt.Errorf("config error: projects.db_path cannot be empty")
	}

	if c.Memory.DataDir == "" {
		return fmt.Errorf("config error: memory.data_dir cannot be empty")
	}

	if c.Logging.MaxDays <= 0 {
		return fmt.Errorf("config error: logging.max_days must be greater than 0")
	}

	return nil
}

// IsAPIKeyConfigured checks if API key is configured
func (c *Config) IsAPIKeyConfigured() bool {
	return c.Model.APIKey != ""
}

// String returns string representation of config (hides sensitive info)
func (c *Config) String() string {
	return fmt.Sprintf(`Protomate Configuration:
  Model:
    API Key: %s
    Base URL: %s
    Model: %s
    Name Model: %s
    Max Tokens: %d
  Projects:
    Root Dir: %s
    DB Path: %s
  Memory:
    Data Dir: %s
  Logging:
    Level: %s
    Max Days: %d`,
		redactAPIKey(c.Model.APIKey),
		c.Model.BaseURL,
		c.Model.Model,
		c.Model.NameModel,
		c.Model.MaxTokens,
		c.Projects.RootDir,
		c.Projects.DBPath,
		c.Memory.DataDir,
		c.Logging.Level,
		c.Logging.MaxDays,
	)
}

func redactAPIKey(value string) string {
	if value == "" {
		return "(not configured)"
	}
	if len(value) > 8 {
		return value[:8] + "..."
	}
	return "***"
}
