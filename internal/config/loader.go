package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads the configuration at path (DefaultPath when empty) over the
// defaults, then applies TOCK_* environment overrides. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix("TOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Server.DBPath = ExpandHome(cfg.Server.DBPath)
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.db_path", cfg.Server.DBPath)
	v.SetDefault("client.base_url", cfg.Client.BaseURL)
	v.SetDefault("client.owner_id", cfg.Client.OwnerID)
	v.SetDefault("client.retries", cfg.Client.Retries)
	v.SetDefault("client.timeout", cfg.Client.Timeout)
}

// DefaultPath returns ~/.tock/config.yaml
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Dir returns the tock directory in the user's home
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".tock")
}

// ExpandHome replaces a leading ~ with the home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
