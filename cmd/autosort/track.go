package main

import (
	"os"

	"github.com/spf13/cobra"

	"autosort/internal/autostart"
	"autosort/internal/daemon"
)

func trackCmd(flags *rootFlags) *cobra.Command {
	var (
		recursive       bool
		fallbackDir     string
		enableAutostart bool
	)

	cmd := &cobra.Command{
		Use:   "track [directory...]",
		Short: "Track directories and sort arriving files",
		Long: `Track watches the given directories (or the configured watch_dirs when
none are given) and moves each new or modified file into the destination
mapped to its extension. Runs in the foreground until interrupted or
stopped via 'autosort stop'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if fallbackDir != "" {
				cfg.FallbackDir = fallbackDir
			}

			logger, closeLog, err := flags.buildLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			if enableAutostart {
				entry, err := autostart.Install(os.Args)
				if err != nil {
					logger.Warn("startup registration failed", "error", err)
				} else {
					logger.Info("registered startup entry", "path", entry)
				}
			}

			d := daemon.New(cfg, logger, args, recursive)
			return d.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Also watch subdirectories")
	cmd.Flags().StringVar(&fallbackDir, "fallback", "", "Move files with unmapped extensions here instead of skipping them")
	cmd.Flags().BoolVar(&enableAutostart, "autostart", false, "Register this track command to run at login")

	return cmd
}
