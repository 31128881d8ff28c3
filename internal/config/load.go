package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// matches $(VAR_NAME)
var envPattern = regexp.MustCompile(`\$\(([A-Za-z0-9_]+)\)`)

// replaces $(VAR) with os.Getenv(VAR)
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		key := mapEnvKey(envPattern.FindStringSubmatch(m)[1])
		return os.Getenv(key)
	})
}

func Load(path string) (*Config, error) {
	// read raw YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// expand $(ENV_VAR) placeholders
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem in the config at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Source.Path == "" {
		errs = append(errs, errors.New("source.path is required"))
	}
	if c.Destination.Root == "" {
		errs = append(errs, errors.New("destination.root is required"))
	}
	if c.Destination.Retention.KeepFulls < 0 {
		errs = append(errs, errors.New("destination.retention.keepFulls must not be negative"))
	}

	schedules := []struct{ name, spec string }{
		{"full", c.Schedule.Full},
		{"incremental", c.Schedule.Incremental},
	}
	for _, s := range schedules {
		if s.spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(s.spec); err != nil {
			errs = append(errs, fmt.Errorf("schedule.%s: %w", s.name, err))
		}
	}

	switch c.Source.Watch.Mode {
	case WatchOff, WatchAuto, WatchPoll, WatchFsnotify:
	default:
		errs = append(errs, fmt.Errorf("source.watch.mode: unknown mode %q", c.Source.Watch.Mode))
	}
	if c.Source.Watch.PollInterval < 0 || c.Source.Watch.DebounceWindow < 0 {
		errs = append(errs, errors.New("source.watch intervals must not be negative"))
	}

	if c.Schedule.Full == "" && c.Schedule.Incremental == "" && c.Source.Watch.Mode == WatchOff {
		errs = append(errs, errors.New("nothing to do: no schedule and watching is off"))
	}

	return errors.Join(errs...)
}
