package config

import "time"

type Config struct {
	Source      SourceConfig      `yaml:"source"`
	Destination DestinationConfig `yaml:"destination"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type SourceConfig struct {
	Path    string      `yaml:"path"`
	Exclude []string    `yaml:"exclude"`
	Watch   WatchConfig `yaml:"watch"`
}

type WatchConfig struct {
	Mode           string        `yaml:"mode"`           // "off", "auto", "poll", "fsnotify"
	PollInterval   time.Duration `yaml:"pollInterval"`   // e.g. 5m
	DebounceWindow time.Duration `yaml:"debounceWindow"` // e.g. 30s
}

type DestinationConfig struct {
	Root      string          `yaml:"root"`
	Retention RetentionConfig `yaml:"retention"`
}

type RetentionConfig struct {
	// KeepFulls is the number of full backup chains kept; 0 keeps everything.
	KeepFulls int `yaml:"keepFulls"`
}

// ScheduleConfig holds cron expressions (standard 5 fields or descriptors
// such as "@daily"). An empty expression disables that kind.
type ScheduleConfig struct {
	Full        string `yaml:"full"`
	Incremental string `yaml:"incremental"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "info", "debug", etc.
	Format string `yaml:"format"` // "json", "console"
}

type MetricsConfig struct {
	// Textfile is a node_exporter textfile collector path; empty disables export.
	Textfile string `yaml:"textfile"`
}

const (
	WatchOff      = "off"
	WatchAuto     = "auto"
	WatchPoll     = "poll"
	WatchFsnotify = "fsnotify"
)

// applyDefaults fills in everything a minimal config leaves out.
func (c *Config) applyDefaults() {
	if c.Source.Watch.Mode == "" {
		c.Source.Watch.Mode = WatchOff
	}
	if c.Source.Watch.PollInterval == 0 {
		c.Source.Watch.PollInterval = 5 * time.Minute
	}
	if c.Source.Watch.DebounceWindow == 0 {
		c.Source.Watch.DebounceWindow = 30 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}
