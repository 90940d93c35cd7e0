package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spboyer/hirebench/internal/history"
	"github.com/spboyer/hirebench/internal/keywords"
	"github.com/spboyer/hirebench/internal/lint"
	"github.com/spboyer/hirebench/internal/models"
	"github.com/spboyer/hirebench/internal/orchestration"
	"github.com/spboyer/hirebench/internal/projectconfig"
	"github.com/spboyer/hirebench/internal/reporting"
	"github.com/spboyer/hirebench/internal/scoring"
	"github.com/spboyer/hirebench/internal/spinner"
	"github.com/spboyer/hirebench/internal/validators"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// evaluateOptions are the flags shared by evaluate and watch.
type evaluateOptions struct {
	submission string
	modules    []string
	quick      bool
	output     string
	keywords   string
	parallel   bool
	workers    int
	candidate  string
	history    string
	format     string
	verbose    bool

	minScore int
	minBand  string
}

func (o *evaluateOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.submission, "submission", "s", "", "Path to the submission directory (required)")
	cmd.Flags().StringArrayVarP(&o.modules, "module", "m", nil, "Evaluate matching modules only, glob pattern (can be repeated)")
	cmd.Flags().BoolVar(&o.quick, "quick", false, "Only run syntax/parse checks (fast mode)")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "Write report to file (.json, .md, .xml or .html)")
	cmd.Flags().StringVar(&o.keywords, "keywords", "", "Keyword configuration file (default: built-in keywords)")
	cmd.Flags().BoolVar(&o.parallel, "parallel", false, "Evaluate modules concurrently")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "Number of concurrent workers (default: 4, requires --parallel)")
	cmd.Flags().StringVar(&o.candidate, "candidate", "", "Candidate ID for run history (default: submission directory name)")
	cmd.Flags().StringVar(&o.history, "history", "", "History database DSN: SQLite path or postgres:// URL")
	cmd.Flags().StringVar(&o.format, "format", projectconfig.DefaultReportFormat, "Report format printed to stdout: markdown, json, junit, html")
	cmd.Flags().BoolVarP(&o.verbose, "verbose", "v", false, "Print per-module progress to stderr")
	_ = cmd.MarkFlagRequired("submission")
}

func newEvaluateCommand(root *rootOptions) *cobra.Command {
	opts := &evaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a submission",
		Long: `Evaluate a DevOps interview submission and print the report.

Every module runs unless --module narrows the set. --quick keeps only the
syntax and parse checks. The exit code is 1 when the total is below
--min-score or the recommendation is below --min-band.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.prepare(cmd, root)
			if err != nil {
				return err
			}
			e.printHeader(cmd.ErrOrStderr())

			res, info, err := e.evaluate(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := printReport(cmd.OutOrStdout(), res, info, e.format); err != nil {
				return err
			}
			return checkThreshold(res, e.minScore, e.minBand)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().IntVar(&opts.minScore, "min-score", 0, "Exit with code 1 when the total score is below this value")
	cmd.Flags().StringVar(&opts.minBand, "min-band", "", "Exit with code 1 when the recommendation is below this band, e.g. hire")

	return cmd
}

// evaluation is an evaluate or watch invocation with flags and project
// config merged.
type evaluation struct {
	submission string
	modules    []string
	quick      bool

	runner *orchestration.Runner
	logger *zap.Logger

	// spin is set while a run draws a terminal spinner.
	spin    *spinner.Spinner
	verbose bool

	format     reporting.Format
	output     string
	historyDSN string
	candidate  string

	minScore int
	minBand  models.Band
}

// prepare merges flags over the project config. Flags win only when set.
func (o *evaluateOptions) prepare(cmd *cobra.Command, root *rootOptions) (*evaluation, error) {
	logger := root.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	submission, err := filepath.Abs(o.submission)
	if err != nil {
		return nil, fmt.Errorf("resolving submission path: %w", err)
	}

	cfg, err := root.loadConfig(submission)
	if err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		logger.Debug("loaded project config", zap.String("path", cfg.Path))
	}

	flags := cmd.Flags()
	keywordsPath := cfg.Keywords
	if o.keywords != "" {
		keywordsPath = o.keywords
	}
	kw, err := keywords.Load(keywordsPath)
	if err != nil {
		logger.Warn("keyword file rejected, keyword checks will score zero", zap.Error(err))
	}
	for _, w := range kw.Warnings() {
		logger.Warn(w)
	}

	linter := lint.Detect(lint.ShellcheckArgs{
		Binary:  cfg.Linter.Binary,
		Args:    cfg.Linter.Args,
		Timeout: cfg.Linter.Timeout,
	}, logger)

	parallel, workers := cfg.Parallel, cfg.Workers
	if flags.Changed("parallel") {
		parallel = o.parallel
	}
	if flags.Changed("workers") {
		workers = o.workers
	}

	runner, err := orchestration.NewRunner(
		orchestration.WithLogger(logger),
		orchestration.WithDeps(validators.Deps{Keywords: kw, Linter: linter, Logger: logger}),
		orchestration.WithParallel(parallel, workers),
	)
	if err != nil {
		return nil, err
	}

	formatName := cfg.Report.Format
	if flags.Changed("format") {
		formatName = o.format
	}
	format, err := reporting.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}

	e := &evaluation{
		submission: submission,
		modules:    o.modules,
		quick:      o.quick,
		runner:     runner,
		logger:     logger,
		format:     format,
		output:     firstNonEmpty(o.output, cfg.Report.Output),
		historyDSN: firstNonEmpty(o.history, cfg.History.DSN),
		candidate:  firstNonEmpty(o.candidate, cfg.History.Candidate, filepath.Base(submission)),
		minScore:   cfg.MinScore,
		verbose:    o.verbose,
	}

	if o.verbose {
		runner.OnProgress(progressPrinter(cmd.ErrOrStderr()))
	} else {
		runner.OnProgress(e.updateSpinner)
	}

	if flags.Lookup("min-score") != nil && flags.Changed("min-score") {
		e.minScore = o.minScore
	}
	if o.minBand != "" {
		if e.minBand, err = scoring.ParseBand(o.minBand); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *evaluation) printHeader(w io.Writer) {
	fmt.Fprintf(w, "Evaluating submission: %s\n", e.submission)
	if len(e.modules) > 0 {
		fmt.Fprintf(w, "Module: %s\n", strings.Join(e.modules, ", "))
	}
	if e.quick {
		fmt.Fprintln(w, "Mode: quick (syntax only)")
	}
	fmt.Fprintln(w)
}

// evaluate runs the graders, writes --output and records history. Status
// lines go to status.
func (e *evaluation) evaluate(ctx context.Context, status io.Writer) (*models.EvaluationResult, models.RunInfo, error) {
	info := models.RunInfo{
		Submission: e.submission,
		Quick:      e.quick,
		Timestamp:  time.Now().UTC(),
	}

	if _, tty := terminalWidth(status); tty && !e.verbose {
		e.spin = spinner.Start(status, "Evaluating")
	}
	res, err := e.runner.Run(ctx, orchestration.Request{
		Submission: e.submission,
		Modules:    e.modules,
		Quick:      e.quick,
	})
	if e.spin != nil {
		e.spin.Stop()
		e.spin = nil
	}
	if err != nil {
		return nil, info, err
	}
	info.DurationMs = time.Since(info.Timestamp).Milliseconds()

	if e.output != "" {
		if err := reporting.Write(res, info, e.output); err != nil {
			return nil, info, err
		}
		fmt.Fprintf(status, "Report written to: %s\n", e.output)
	}

	if e.historyDSN != "" {
		if trend, ok := e.record(ctx, info, res); ok {
			fmt.Fprintf(status, "Trend for %s: %s\n", e.candidate, trend)
		}
	}
	return res, info, nil
}

// record stores the run. History is best effort and never fails the
// evaluation.
func (e *evaluation) record(ctx context.Context, info models.RunInfo, res *models.EvaluationResult) (history.Trend, bool) {
	store, err := history.Open(ctx, e.historyDSN, history.WithLogger(e.logger))
	if err != nil {
		e.logger.Warn("history not recorded", zap.Error(err))
		return history.Trend{}, false
	}
	defer store.Close()

	trend, err := store.Record(ctx, e.candidate, info, res)
	if err != nil {
		e.logger.Warn("history not recorded", zap.Error(err))
		return history.Trend{}, false
	}
	return trend, true
}

func (e *evaluation) updateSpinner(ev orchestration.ProgressEvent) {
	if e.spin != nil && ev.EventType == orchestration.EventModuleStart {
		e.spin.Update(fmt.Sprintf("Grading %s (%d/%d)", ev.Module, ev.ModuleNum, ev.TotalModules))
	}
}

func progressPrinter(w io.Writer) orchestration.ProgressListener {
	return func(ev orchestration.ProgressEvent) {
		switch ev.EventType {
		case orchestration.EventModuleComplete:
			fmt.Fprintf(w, "[%d/%d] %-10s %d/%d (%dms)\n", ev.ModuleNum, ev.TotalModules, ev.Module, ev.Score, ev.MaxScore, ev.DurationMs)
		case orchestration.EventEvaluationComplete:
			fmt.Fprintf(w, "Evaluated %d module(s) in %dms\n\n", ev.TotalModules, ev.DurationMs)
		}
	}
}

// printReport writes the report to out. Markdown is styled when out is a
// terminal.
func printReport(out io.Writer, res *models.EvaluationResult, info models.RunInfo, format reporting.Format) error {
	if format == reporting.FormatMarkdown {
		md := reporting.Markdown(res)
		if width, ok := terminalWidth(out); ok {
			styled, err := reporting.RenderTerminal(md, "", width)
			if err == nil {
				_, err = io.WriteString(out, styled)
				return err
			}
		}
		_, err := fmt.Fprintln(out, md)
		return err
	}

	data, err := reporting.Render(res, info, format)
	if err != nil {
		return err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	_, err = out.Write(data)
	return err
}

// terminalWidth reports whether w is a terminal and, if so, its width.
func terminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0, true
	}
	return width, true
}

func checkThreshold(res *models.EvaluationResult, minScore int, minBand models.Band) error {
	if minScore > 0 && res.TotalScore < minScore {
		return &ThresholdError{
			Message: fmt.Sprintf("score %d/%d is below the minimum of %d", res.TotalScore, res.MaxScore, minScore),
		}
	}
	if minBand != "" && !scoring.AtLeast(res.Band, minBand) {
		return &ThresholdError{
			Message: fmt.Sprintf("recommendation %q is below the minimum of %q", res.Band, minBand),
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
