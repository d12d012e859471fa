// Package config loads credseal settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variables
const (
	EnvPassword = "CREDSEAL_PASSWORD"
	EnvStore    = "CREDSEAL_STORE"
	EnvLogLevel = "CREDSEAL_LOG_LEVEL"
)

// DefaultStoreFile is the store path when CREDSEAL_STORE is unset
const DefaultStoreFile = ".credseal"

// Config holds settings shared by all commands
type Config struct {
	// StorePath is the bbolt store file.
	StorePath string
	// Password, when set, replaces interactive prompts.
	Password string
	// LogLevel is the klog verbosity (0-10).
	LogLevel int
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		StorePath: DefaultStoreFile,
		Password:  os.Getenv(EnvPassword),
	}

	if store := os.Getenv(EnvStore); store != "" {
		cfg.StorePath = store
	}

	if level := os.Getenv(EnvLogLevel); level != "" {
		n, err := strconv.Atoi(level)
		if err != nil || n < 0 || n > 10 {
			return nil, fmt.Errorf("%s must be an integer between 0 and 10, got %q", EnvLogLevel, level)
		}
		cfg.LogLevel = n
	}

	return cfg, nil
}
