package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/fsswitch/eslclient/fsswitch"
)

// CLIConfig holds the connection defaults eslcli dials with; flags
// override whatever a config file sets.
type CLIConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	CommandTimeout  time.Duration
	LivenessTimeout time.Duration
	LogLevel        string
}

func defaultCLIConfig() CLIConfig {
	return CLIConfig{
		Host:            "127.0.0.1",
		Port:            fsswitch.DefaultEslPort,
		Password:        fsswitch.DefaultPassword,
		CommandTimeout:  fsswitch.DefaultCommandTimeout,
		LivenessTimeout: fsswitch.DefaultLivenessTimeout,
		LogLevel:        "info",
	}
}

// eslcli.toml key mapping to CLIConfig, overlaid onto defaultCLIConfig.
type fileConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	CommandTimeout  string `toml:"command_timeout"`
	LivenessTimeout string `toml:"liveness_timeout"`
	LogLevel        string `toml:"log_level"`
}

func loadCLIConfig(path string) (CLIConfig, error) {
	cfg := defaultCLIConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return CLIConfig{}, fmt.Errorf("load eslcli config %q: %w", path, err)
	}

	if meta.IsDefined("host") {
		cfg.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}
	if meta.IsDefined("user") {
		cfg.User = strings.TrimSpace(raw.User)
	}
	if meta.IsDefined("password") {
		cfg.Password = raw.Password
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("command_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.CommandTimeout))
		if err != nil {
			return CLIConfig{}, fmt.Errorf("load eslcli config %q: command_timeout: %w", path, err)
		}
		cfg.CommandTimeout = d
	}
	if meta.IsDefined("liveness_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.LivenessTimeout))
		if err != nil {
			return CLIConfig{}, fmt.Errorf("load eslcli config %q: liveness_timeout: %w", path, err)
		}
		cfg.LivenessTimeout = d
	}

	return cfg, nil
}

func (c CLIConfig) address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
