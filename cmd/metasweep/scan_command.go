package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"metasweep/internal/logging"
	"metasweep/internal/monitor"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var overrides runOverrides

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Scan a directory once and summarize what was found",
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

			if _, err := checkTools(cfg); err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			mon, seen, err := buildMonitor(cfg, logger, false)
			if err != nil {
				return err
			}
			defer seen.Close()

			summary := mon.Scan(signalCtx)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scanned %s\n", cfg.Paths.WatchDir)
			fmt.Fprintln(out, renderScanSummary(summary))
			return nil
		},
	}

	cmd.Flags().BoolVar(&overrides.clean, "clean", false, "Strip metadata from detected files")
	cmd.Flags().StringVar(&overrides.state, "state", "", "Seen-state database path (empty for in-memory)")

	return cmd
}

func renderScanSummary(summary monitor.ScanSummary) string {
	rows := [][]string{
		{"Files scanned", strconv.Itoa(summary.Scanned)},
		{"Metadata detected", strconv.Itoa(summary.Detected)},
		{"Cleaned", strconv.Itoa(summary.Cleaned)},
		{"Clean failures", strconv.Itoa(summary.CleanFailed)},
		{"Errors", strconv.Itoa(summary.Errors)},
	}
	return renderTable(
		[]string{"Result", "Count"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	)
}
