package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Credentials are supplied at deploy time through the environment, never the YAML file
type Credentials struct {
	APIKey  string `env:"OPENAI_API_KEY,required,notEmpty"`
	BaseURL string `env:"OPENAI_BASE_URL"`
}

// LoadCredentials reads credentials from the environment after loading any
// .env files found in envFiles (or ./.env when none are given).
func LoadCredentials(envFiles ...string) (*Credentials, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	creds, err := env.ParseAs[Credentials]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	return &creds, nil
}

// ApplyOverrides lets OPENAI_BASE_URL take precedence over the config file
func (c *Config) ApplyOverrides(creds *Credentials) {
	if creds != nil && creds.BaseURL != "" {
		c.Completion.BaseURL = creds.BaseURL
	}
}
