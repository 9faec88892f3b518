// Package config loads registry settings from a file with environment
// overrides.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"

	"github.com/rovshanmuradov/eventkit/event"
)

// Config carries the tunables of the callback registry.
type Config struct {
	DefaultPriority int  `mapstructure:"default_priority"`
	AllowDuplicates bool `mapstructure:"allow_duplicates"`
	FailFast        bool `mapstructure:"fail_fast"`
	WorkerLimit     int  `mapstructure:"worker_limit"`
	DebugLogging    bool `mapstructure:"debug_logging"`
}

const (
	DefaultPriority    = event.DefaultPriority
	DefaultWorkerLimit = event.DefaultWorkerLimit

	envPrefix = "EVENTKIT"
)

// Load reads configuration from path. Every key can be overridden through the
// environment, e.g. EVENTKIT_WORKER_LIMIT.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"default_priority": DefaultPriority,
		"allow_duplicates": false,
		"fail_fast":        false,
		"worker_limit":     DefaultWorkerLimit,
		"debug_logging":    false,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, validate(&cfg)
}

func validate(cfg *Config) error {
	if cfg.WorkerLimit < 1 {
		return errors.New("worker_limit must be at least 1")
	}
	return nil
}

// EventOptions converts the config into event construction options.
func (c *Config) EventOptions() []event.Option {
	return []event.Option{
		event.WithDefaultPriority(c.DefaultPriority),
		event.WithAllowDuplicates(c.AllowDuplicates),
		event.WithFailFast(c.FailFast),
		event.WithWorkerLimit(int64(c.WorkerLimit)),
	}
}
