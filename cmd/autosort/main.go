// Command autosort sorts files into folders by extension. It tracks
// directories in the foreground, runs as a daemon controlled over a unix
// socket, and manages the extension rule file.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"autosort/internal/config"
	"autosort/internal/logging"
)

const version = "1.0.0"

// rootFlags are the global flags shared by every subcommand.
type rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	logFile    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "autosort",
		Short:         "Sort files into folders by extension",
		Long:          "autosort watches directories and moves new or modified files into destination folders chosen by their extension.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", config.Path(), "Settings file location")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&flags.logFile, "log-file", "", "Also write logs to this file")

	rootCmd.AddCommand(trackCmd(flags))
	rootCmd.AddCommand(startCmd(flags))
	rootCmd.AddCommand(stopCmd(flags))
	rootCmd.AddCommand(statusCmd(flags))
	rootCmd.AddCommand(pingCmd(flags))
	rootCmd.AddCommand(configCmd(flags))
	rootCmd.AddCommand(locationsCmd(flags))
	rootCmd.AddCommand(historyCmd(flags))

	return rootCmd
}

// loadConfig reads the settings file named by --config.
func (f *rootFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// buildLogger constructs the process logger, with command-line flags
// overriding the settings file.
func (f *rootFlags) buildLogger(cfg *config.Config) (*slog.Logger, func() error, error) {
	opts := logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	}
	if f.logLevel != "" {
		opts.Level = f.logLevel
	}
	if f.logFormat != "" {
		opts.Format = f.logFormat
	}
	if f.logFile != "" {
		opts.File = f.logFile
	}
	return logging.New(opts)
}
