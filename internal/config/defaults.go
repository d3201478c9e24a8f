package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:   ":8787",
			DBPath: "~/.tock/tock.db",
		},
		Client: ClientConfig{
			BaseURL: "http://localhost:8787",
			OwnerID: "user-1",
			Retries: 3,
			Timeout: 10 * time.Second,
		},
	}
}

const header = `# tock configuration
# Every key can be overridden with a TOCK_ environment variable,
# e.g. TOCK_CLIENT_BASE_URL=http://10.0.0.2:8787
`

// WriteDefault writes cfg to path as YAML, creating the directory. An
// existing file is left alone unless force is set.
func WriteDefault(path string, cfg *Config, force bool) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists", path)
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, append([]byte(header), data...), 0644)
}

// Marshal renders cfg as it is written to disk
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(fileConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}

// fileClient writes the timeout as a duration string
type fileClient struct {
	BaseURL string `yaml:"base_url"`
	OwnerID string `yaml:"owner_id"`
	Retries int    `yaml:"retries"`
	Timeout string `yaml:"timeout"`
}

type fileRoot struct {
	Server ServerConfig `yaml:"server"`
	Client fileClient   `yaml:"client"`
}

func fileConfig(cfg *Config) fileRoot {
	return fileRoot{
		Server: cfg.Server,
		Client: fileClient{
			BaseURL: cfg.Client.BaseURL,
			OwnerID: cfg.Client.OwnerID,
			Retries: cfg.Client.Retries,
			Timeout: cfg.Client.Timeout.String(),
		},
	}
}
