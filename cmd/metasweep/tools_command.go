package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"metasweep/internal/deps"
)

func newToolsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Check availability of the external tools metasweep uses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			statuses := deps.CheckBinaries(deps.Requirements(cfg.Cleaning.ExiftoolBinary, cfg.Cleaning.QpdfBinary))

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("External tools", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, status := range statuses {
				fmt.Fprintln(out, renderToolStatus(status, colorize))
			}

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required tool(s) unavailable", len(missing))
			}
			return nil
		},
	}
}

func renderToolStatus(status deps.Status, colorize bool) string {
	kind := statusOK
	message := status.Description
	if !status.Available {
		kind = statusError
		if status.Optional {
			kind = statusWarn
		}
		message = status.Detail
	}
	return renderStatusLine(status.Name, kind, message, colorize)
}
