// Package config reads larder's settings from the environment, an optional
// .env file and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

type Config struct {
	Addr              string
	DBPath            string
	LogLevel          string
	LogFormat         string
	AutoCategorize    bool
	ClearStepDelay    time.Duration
	ClearExitDuration time.Duration
}

func defaults() Config {
	return Config{
		Addr:              ":8080",
		DBPath:            "larder.db",
		LogLevel:          "info",
		LogFormat:         "text",
		ClearStepDelay:    150 * time.Millisecond,
		ClearExitDuration: 300 * time.Millisecond,
	}
}

// Load builds the configuration for args (without the program name). A
// missing .env file is not an error. pflag.ErrHelp is returned as is.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaults()
	if err := cfg.fromEnv(); err != nil {
		return nil, err
	}

	flags := pflag.NewFlagSet("larder", pflag.ContinueOnError)
	flags.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	flags.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path (\":memory:\" for a throwaway store)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json")
	flags.BoolVar(&cfg.AutoCategorize, "auto-categorize", cfg.AutoCategorize, "suggest a category for new uncategorised items")
	flags.DurationVar(&cfg.ClearStepDelay, "clear-step-delay", cfg.ClearStepDelay, "delay between items when clearing checked items")
	flags.DurationVar(&cfg.ClearExitDuration, "clear-exit-duration", cfg.ClearExitDuration, "exit time after the last cleared item before commit")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) fromEnv() error {
	if v := os.Getenv("LARDER_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("LARDER_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("LARDER_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LARDER_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("LARDER_AUTO_CATEGORIZE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LARDER_AUTO_CATEGORIZE: %w", err)
		}
		c.AutoCategorize = b
	}
	if err := envDuration("LARDER_CLEAR_STEP_DELAY", &c.ClearStepDelay); err != nil {
		return err
	}
	return envDuration("LARDER_CLEAR_EXIT_DURATION", &c.ClearExitDuration)
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return errors.New("listen address is required")
	}
	if c.DBPath == "" {
		return errors.New("database path is required")
	}
	if c.ClearStepDelay < 0 || c.ClearExitDuration < 0 {
		return errors.New("clear durations must not be negative")
	}
	return nil
}
