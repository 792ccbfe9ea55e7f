package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"autosort/internal/daemon"
	"autosort/internal/ipc"
)

func startCmd(flags *rootFlags) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start tracking the configured watch_dirs",
		Long: `Start runs a tracking session over the watch_dirs from the settings
file. The session answers 'status', 'ping' and 'stop' on the control
socket. Pair with the platform service manager or 'track --autostart'
for background operation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			client := ipc.NewClient(cfg.SocketPath())
			if err := client.Ping(); err == nil {
				fmt.Println("a tracking session is already running")
				return nil
			}
			// A leftover socket from a crashed session would block listen.
			if _, err := os.Stat(cfg.SocketPath()); err == nil {
				_ = os.Remove(cfg.SocketPath())
			}

			logger, closeLog, err := flags.buildLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			d := daemon.New(cfg, logger, nil, recursive)
			return d.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Also watch subdirectories")

	return cmd
}

func stopCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running tracking session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			client := ipc.NewClient(cfg.SocketPath())
			if err := client.RequestStop(); err != nil {
				return fmt.Errorf("stop session: %w", err)
			}
			fmt.Println("session stopping")
			return nil
		},
	}
}

func pingCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check whether a tracking session is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			client := ipc.NewClient(cfg.SocketPath())
			if err := client.Ping(); err != nil {
				fmt.Println("no tracking session is running")
				return err
			}
			fmt.Println("tracking session is alive")
			return nil
		},
	}
}

func statusCmd(flags *rootFlags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running session's status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			client := ipc.NewClient(cfg.SocketPath())
			status, err := client.Status()
			if err != nil {
				return fmt.Errorf("no session running or unreachable: %w", err)
			}

			if jsonOutput {
				return writeJSON(cmd, status)
			}
			printStatus(cmd, status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func printStatus(cmd *cobra.Command, status *ipc.StatusData) {
	rows := [][]string{
		{"session", status.SessionID},
		{"uptime", status.Uptime},
		{"recursive", fmt.Sprintf("%v", status.Recursive)},
		{"moved", fmt.Sprintf("%d", status.Counts["moved"])},
		{"skipped", fmt.Sprintf("%d", status.Counts["skipped"])},
		{"failed", fmt.Sprintf("%d", status.Counts["failed"])},
		{"journal size", fmt.Sprintf("%d bytes", status.DBSizeBytes)},
	}
	for _, dir := range status.TrackedDirs {
		rows = append(rows, []string{"tracked", dir})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"field", "value"}, rows, nil))
}
