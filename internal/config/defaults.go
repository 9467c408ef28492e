package config

import (
	"os"
	"path/filepath"

	"github.com/fenilsonani/sortdir/internal/platform"
)

// GetDefault returns the default configuration
func GetDefault() *Config {
	dir, err := appDir()
	if err != nil {
		dir = filepath.Join(os.TempDir(), "sortdir")
	}

	return &Config{
		DryRun:                 false,
		Collision:              "suffix",
		ExtractWorkers:         4,
		DeleteArchiveOnSuccess: false, // keep archives after extraction
		ExcludePatterns: []string{
			".git",
			".DS_Store",
			"*.part",
			"*.crdownload",
		},
		ProtectedPaths: []string{},
		Output:         "summary",
		Log: LogConfig{
			Level:      "warn",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		},
		Journal: JournalConfig{
			Enabled: true,
			Dir:     filepath.Join(dir, "history"),
		},
		Daemon: DaemonConfig{
			Enabled:  false,
			LockFile: filepath.Join(dir, "daemon.lock"),
			Schedules: []SortSchedule{
				{
					Name:       "downloads-nightly",
					Schedule:   "0 2 * * *",
					SkipIfBusy: true,
				},
			},
		},
	}
}

// appDir returns the directory holding sortdir's config, history and lock
func appDir() (string, error) {
	if info, err := platform.GetInfo(); err == nil {
		return info.AppConfigDir(), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "sortdir"), nil
}
