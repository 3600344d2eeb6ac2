package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dirtidy/internal/organize"
	"dirtidy/internal/watch"
	"dirtidy/pkg/types"

	"github.com/spf13/cobra"
)

// NewWatchCmd creates the watch command
func NewWatchCmd(opts *runOptions) *cobra.Command {
	var settle time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep a directory organized as files arrive",
		Long: `Organize the directory once, then again every time changes under it
have settled. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogging(cmd, opts)

			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			lock, err := organize.Lock(cfg.Target)
			if err != nil {
				return err
			}
			defer lock.Unlock()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			daemon := watch.NewDaemon(cfg.Target, organize.NewFactory(cfg, logger), logger,
				watch.WithSettle(settle),
				watch.WithPasses(opts.passes()),
				watch.WithCallback(func(report *types.Report, err error) {
					if err != nil {
						fmt.Fprintln(out, errorStyle.Render("Run failed: ")+err.Error())
					}
					if report != nil && (len(report.Moves) > 0 || len(report.RemovedDirs) > 0) {
						fmt.Fprintln(out, renderReport(report, opts.verbose || opts.debug))
					}
				}),
			)

			fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("Watching %s. Press Ctrl+C to stop.", cfg.Target)))
			return daemon.Run(ctx)
		},
	}

	cmd.Flags().DurationVar(&settle, "settle", watch.DefaultSettle, "quiet period after the last change before organizing")
	return cmd
}
