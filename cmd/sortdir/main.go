package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fenilsonani/sortdir/internal/config"
	"github.com/fenilsonani/sortdir/internal/logging"
	"github.com/fenilsonani/sortdir/internal/platform"
	"github.com/spf13/cobra"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "sortdir",
		Short: "Sort a folder into media categories",
		Long: `sortdir walks a folder, moves images, audio, video and documents into
per-extension category folders, extracts archives, collects everything else
under not_defined and removes the directories left empty.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "verbose logging")

	rootCmd.AddCommand(newSortCmd(opts))
	rootCmd.AddCommand(newScanCmd(opts))
	rootCmd.AddCommand(newHistoryCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newDaemonCmd(opts))

	return rootCmd
}

// resolveConfigPath returns the --config path or the default location
func (o *globalOptions) resolveConfigPath() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return config.GetConfigPath()
}

func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfgPath, err := o.resolveConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// setup loads the config and opens the logger. The returned closer flushes
// the log file.
func (o *globalOptions) setup() (*config.Config, *slog.Logger, io.Closer, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	logger, closer := logging.New(cfg.Log, o.verbose)
	slog.SetDefault(logger)
	return cfg, logger, closer, nil
}

// applyPlatform protects the user's credential and application folders.
// An unsupported platform only loses these extra paths.
func applyPlatform(cfg *config.Config, logger *slog.Logger) *platform.Info {
	info, err := platform.GetInfo()
	if err != nil {
		logger.Debug("platform info unavailable", "error", err)
		return nil
	}
	cfg.ProtectedPaths = append(cfg.ProtectedPaths, info.ProtectedPaths...)
	return info
}
