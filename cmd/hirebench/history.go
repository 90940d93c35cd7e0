package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spboyer/hirebench/internal/history"
	"github.com/spboyer/hirebench/internal/reporting"
	"github.com/spf13/cobra"
)

// historyOptions are shared by history and its subcommands.
type historyOptions struct {
	dsn string
}

// open resolves the DSN from --history or the project config in the current
// directory.
func (o *historyOptions) open(cmd *cobra.Command, root *rootOptions) (*history.Store, error) {
	dsn := o.dsn
	if dsn == "" {
		cfg, err := root.loadConfig(".")
		if err != nil {
			return nil, err
		}
		dsn = cfg.History.DSN
	}
	if dsn == "" {
		return nil, errors.New("no history database: pass --history or set history.dsn in .hirebench.yaml")
	}
	return history.Open(cmd.Context(), dsn, history.WithLogger(root.logger))
}

func newHistoryCommand(root *rootOptions) *cobra.Command {
	opts := &historyOptions{}
	var (
		candidate string
		limit     int
		format    string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past evaluation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("invalid history format %q: must be table or json", format)
			}

			store, err := opts.open(cmd, root)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), candidate, limit)
			if err != nil {
				return err
			}

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			}

			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				mode := "full"
				if r.Quick {
					mode = "quick"
				}
				rows = append(rows, []string{
					r.ID,
					r.Candidate,
					fmt.Sprintf("%d/%d", r.TotalScore, r.MaxScore),
					string(r.Band),
					mode,
					r.CreatedAt.Local().Format(time.DateTime),
				})
			}
			if err := writeTable(cmd.OutOrStdout(), []string{"ID", "CANDIDATE", "SCORE", "RECOMMENDATION", "MODE", "DATE"}, rows); err != nil {
				return err
			}
			if candidate != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%s: %s\n", candidate, history.Summarize(runs))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.dsn, "history", "", "History database DSN (default: history.dsn from .hirebench.yaml)")
	cmd.Flags().StringVar(&candidate, "candidate", "", "Only list runs for this candidate")
	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultLimit, "Maximum number of runs to list")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, json")

	cmd.AddCommand(newHistoryShowCommand(root, opts))

	return cmd
}

func newHistoryShowCommand(root *rootOptions, opts *historyOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the stored report of a past run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := reporting.ParseFormat(format)
			if err != nil {
				return err
			}

			store, err := opts.open(cmd, root)
			if err != nil {
				return err
			}
			defer store.Close()

			rep, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), rep.Result, rep.Info(), f)
		},
	}

	cmd.Flags().StringVar(&format, "format", "markdown", "Report format: markdown, json, junit, html")

	return cmd
}
