package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/sortdir/internal/naming"
	"github.com/fenilsonani/sortdir/internal/security"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "SORTDIR"

// Config represents the application configuration
type Config struct {
	DryRun                 bool          `yaml:"dry_run" mapstructure:"dry_run"`
	Collision              string        `yaml:"collision" mapstructure:"collision"` // suffix, error, overwrite
	ExtractWorkers         int           `yaml:"extract_workers" mapstructure:"extract_workers"`
	DeleteArchiveOnSuccess bool          `yaml:"delete_archive_on_success" mapstructure:"delete_archive_on_success"`
	ExcludePatterns        []string      `yaml:"exclude_patterns" mapstructure:"exclude_patterns"`
	ProtectedPaths         []string      `yaml:"protected_paths" mapstructure:"protected_paths"`
	Output                 string        `yaml:"output" mapstructure:"output"` // summary, table, json, yaml
	Log                    LogConfig     `yaml:"log" mapstructure:"log"`
	Metrics                MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Journal                JournalConfig `yaml:"journal" mapstructure:"journal"`
	Daemon                 DaemonConfig  `yaml:"daemon" mapstructure:"daemon"`
}

// LogConfig holds log file and rotation settings. An empty File logs to stderr.
type LogConfig struct {
	File       string `yaml:"file" mapstructure:"file"`
	Level      string `yaml:"level" mapstructure:"level"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"` // megabytes
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"` // days
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

// MetricsConfig holds the Prometheus textfile destination
type MetricsConfig struct {
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}

// JournalConfig controls the per-run history records
type JournalConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
}

// DaemonConfig holds daemon mode configuration
type DaemonConfig struct {
	Enabled   bool           `yaml:"enabled" mapstructure:"enabled"`
	LockFile  string         `yaml:"lock_file" mapstructure:"lock_file"`
	Schedules []SortSchedule `yaml:"schedules" mapstructure:"schedules"`
}

// SortSchedule defines a scheduled organize run
type SortSchedule struct {
	Name       string `yaml:"name" mapstructure:"name"`
	Schedule   string `yaml:"schedule" mapstructure:"schedule"` // Cron expression
	Folder     string `yaml:"folder" mapstructure:"folder"`     // empty means Downloads
	DryRun     bool   `yaml:"dry_run" mapstructure:"dry_run"`
	SkipIfBusy bool   `yaml:"skip_if_busy" mapstructure:"skip_if_busy"`
}

// Load reads configuration from configPath layered over defaults and
// SORTDIR_* environment variables. A .env file in the working directory is
// loaded into the environment first. A missing config file is not an error.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	def := GetDefault()
	v.SetDefault("dry_run", def.DryRun)
	v.SetDefault("collision", def.Collision)
	v.SetDefault("extract_workers", def.ExtractWorkers)
	v.SetDefault("delete_archive_on_success", def.DeleteArchiveOnSuccess)
	v.SetDefault("exclude_patterns", def.ExcludePatterns)
	v.SetDefault("protected_paths", def.ProtectedPaths)
	v.SetDefault("output", def.Output)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.max_size", def.Log.MaxSize)
	v.SetDefault("log.max_backups", def.Log.MaxBackups)
	v.SetDefault("log.max_age", def.Log.MaxAge)
	v.SetDefault("log.compress", def.Log.Compress)
	v.SetDefault("metrics.textfile", def.Metrics.Textfile)
	v.SetDefault("journal.enabled", def.Journal.Enabled)
	v.SetDefault("journal.dir", def.Journal.Dir)
	v.SetDefault("daemon.enabled", def.Daemon.Enabled)
	v.SetDefault("daemon.lock_file", def.Daemon.LockFile)
	v.SetDefault("daemon.schedules", def.Daemon.Schedules)
	return v
}

// Save saves configuration to a file
func Save(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

var outputFormats = map[string]bool{"summary": true, "table": true, "json": true, "yaml": true}

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := naming.ParsePolicy(c.Collision); err != nil {
		return err
	}

	if c.ExtractWorkers < 1 {
		return fmt.Errorf("extract_workers must be >= 1")
	}

	if !outputFormats[strings.ToLower(c.Output)] {
		return fmt.Errorf("unknown output format %q", c.Output)
	}

	for _, pattern := range c.ExcludePatterns {
		if err := security.ValidateGlobPattern(pattern); err != nil {
			return fmt.Errorf("invalid exclude pattern '%s': %w", pattern, err)
		}
	}

	for _, path := range c.ProtectedPaths {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("protected path must be absolute: %s", path)
		}
	}

	if c.Log.MaxSize < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAge < 0 {
		return fmt.Errorf("log rotation settings must be >= 0")
	}

	seen := make(map[string]bool)
	for _, s := range c.Daemon.Schedules {
		if s.Name == "" {
			return fmt.Errorf("daemon schedule without a name")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate daemon schedule %s", s.Name)
		}
		seen[s.Name] = true
		if _, err := scheduleParser.Parse(s.Schedule); err != nil {
			return fmt.Errorf("schedule %s: invalid cron expression %q: %w", s.Name, s.Schedule, err)
		}
	}

	return nil
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	dir, err := appDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureConfigExists creates a default config file if it doesn't exist
func EnsureConfigExists() (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(GetDefault(), configPath); err != nil {
			return "", err
		}
	}

	return configPath, nil
}
