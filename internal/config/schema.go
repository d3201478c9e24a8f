package config

import "time"

// Config is the tock configuration
type Config struct {
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Client ClientConfig `yaml:"client" mapstructure:"client"`
}

// ServerConfig configures `tock serve`
type ServerConfig struct {
	Addr   string `yaml:"addr" mapstructure:"addr"`
	DBPath string `yaml:"db_path" mapstructure:"db_path"`
}

// ClientConfig configures the commands that talk to the server
type ClientConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	OwnerID string        `yaml:"owner_id" mapstructure:"owner_id"`
	Retries int           `yaml:"retries" mapstructure:"retries"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}
