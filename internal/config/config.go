package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"persona-chat/internal/logging"
)

const (
	DefaultConfigDir  = ".persona-chat"
	DefaultConfigFile = "config.yaml"
	DefaultDBDir      = "db"
)

// Config represents the application configuration
type Config struct {
	Completion     CompletionConfig `yaml:"completion"`
	Embedding      EmbeddingConfig  `yaml:"embedding"`
	Retrieval      RetrievalConfig  `yaml:"retrieval"`
	Ingest         IngestConfig     `yaml:"ingest"`
	RequestTimeout time.Duration    `yaml:"request_timeout"`
}

// CompletionConfig selects the chat completion endpoint and model
type CompletionConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// EmbeddingConfig selects the embedding model used for both ingestion and retrieval.
// Changing it requires re-ingesting the knowledge base.
type EmbeddingConfig struct {
	Model string `yaml:"model"`
	// Dimensions is passed through to the API when non-zero
	Dimensions int `yaml:"dimensions"`
	BatchSize  int `yaml:"batch_size"`
}

// RetrievalConfig controls the similarity search
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
	// DBPath defaults to ~/.persona-chat/db when empty
	DBPath string `yaml:"db_path"`
}

// IngestConfig controls how documents are split before embedding. Sizes are in bytes.
type IngestConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

func DefaultConfig() *Config {
	return &Config{
		Completion: CompletionConfig{
			BaseURL:     "https://api.openai.com",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
		},
		Embedding: EmbeddingConfig{
			Model:     "text-embedding-3-small",
			BatchSize: 32,
		},
		Retrieval: RetrievalConfig{
			TopK: 4,
		},
		Ingest: IngestConfig{
			ChunkSize:    500,
			ChunkOverlap: 50,
		},
		RequestTimeout: 60 * time.Second,
	}
}

// GetConfigDir returns the directory holding config, logs and the default database
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, DefaultConfigDir), nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, DefaultConfigFile), nil
}

// Load loads the configuration from the default location, creating it if missing
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(configPath)
}

// LoadFile loads the configuration from path. A missing file is created with defaults.
func LoadFile(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := SaveFile(configPath, cfg); err != nil {
			// Unwritable home directories still get a working app
			logging.Error("failed to write default config to %s: %v", configPath, err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start from defaults so partial files only override what they set
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveFile saves the configuration to path
func SaveFile(configPath string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.Completion.BaseURL == "" {
		return fmt.Errorf("completion.base_url must not be empty")
	}
	if c.Completion.Model == "" {
		return fmt.Errorf("completion.model must not be empty")
	}
	if c.Completion.Temperature < 0.0 || c.Completion.Temperature > 2.0 {
		return fmt.Errorf("completion.temperature must be between 0.0 and 2.0, got %f", c.Completion.Temperature)
	}

	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model must not be empty")
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("embedding.batch_size must be positive, got %d", c.Embedding.BatchSize)
	}

	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}

	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("ingest.chunk_size must be positive, got %d", c.Ingest.ChunkSize)
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap must be in [0, chunk_size), got %d", c.Ingest.ChunkOverlap)
	}

	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout)
	}

	return nil
}

// DatabasePath returns the configured Badger directory or the default one
func (c *Config) DatabasePath() (string, error) {
	if c.Retrieval.DBPath != "" {
		return c.Retrieval.DBPath, nil
	}

	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, DefaultDBDir), nil
}
