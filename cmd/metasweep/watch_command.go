package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"metasweep/internal/logging"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var overrides runOverrides

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Monitor a directory and report files carrying embedded metadata",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if len(args) > 0 {
				overrides.dir = args[0]
			}
			overrides.cleanSet = cmd.Flags().Changed("clean")
			overrides.stateSet = cmd.Flags().Changed("state")
			if err := applyOverrides(cfg, overrides); err != nil {
				return err
			}

			statuses, err := checkTools(cfg)
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "metasweep.log")},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			for _, status := range statuses {
				if status.Optional && !status.Available && cfg.Cleaning.Enabled {
					logger.Warn("optional tool unavailable",
						logging.String("tool", status.Name),
						logging.String("detail", status.Detail),
					)
				}
			}

			mon, seen, err := buildMonitor(cfg, logger, true)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := seen.Close(); closeErr != nil {
					logger.Warn("close seen-state store", logging.Error(closeErr))
				}
			}()

			return mon.Run(signalCtx)
		},
	}

	cmd.Flags().StringVar(&overrides.mode, "mode", "", "Watch mode: event or poll")
	cmd.Flags().IntVar(&overrides.interval, "interval", 0, "Poll interval in seconds (poll mode)")
	cmd.Flags().BoolVar(&overrides.clean, "clean", false, "Strip metadata from detected files")
	cmd.Flags().StringVar(&overrides.state, "state", "", "Seen-state database path (empty for in-memory)")

	return cmd
}
