package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spboyer/hirebench/internal/reporting"
	"github.com/spboyer/hirebench/internal/watch"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWatchCommand(root *rootOptions) *cobra.Command {
	opts := &evaluateOptions{}
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-evaluate a submission whenever it changes",
		Long: `Evaluate a submission, then keep watching its directory tree and print a
fresh summary after every change. Stop with Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.prepare(cmd, root)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, err := watch.New(e.submission, watch.WithDebounce(debounce), watch.WithLogger(e.logger))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := e.summarize(ctx, out, cmd.ErrOrStderr()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for changes (Ctrl+C to stop)\n", e.submission)

			return w.Run(ctx, func(ctx context.Context, changed []string) {
				e.logger.Info("re-evaluating", zap.Int("changed", len(changed)))
				if err := e.summarize(ctx, out, cmd.ErrOrStderr()); err != nil && ctx.Err() == nil {
					e.logger.Error("evaluation failed", zap.Error(err))
				}
			})
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before re-evaluating")

	return cmd
}

// summarize evaluates once and prints the console summary table.
func (e *evaluation) summarize(ctx context.Context, out, status io.Writer) error {
	res, info, err := e.evaluate(ctx, status)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "== %s ==\n", info.Timestamp.Local().Format(time.TimeOnly))
	fmt.Fprintln(out, reporting.FormatSummary(res))
	return nil
}
