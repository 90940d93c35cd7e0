package orchestration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spboyer/hirebench/internal/models"
	"github.com/spboyer/hirebench/internal/scoring"
	"github.com/spboyer/hirebench/internal/validators"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrSubmissionNotFound is returned when the submission root is missing or
// is not a directory.
var ErrSubmissionNotFound = errors.New("submission directory not found")

const defaultWorkers = 4

// moduleValidators is the static module -> validator mapping. Validators run
// in the listed order and their checks are concatenated.
var moduleValidators = map[string][]validators.Type{
	"terraform": {validators.TypeTerraform},
	"k8s":       {validators.TypeKubernetes},
	"network":   {validators.TypeShell},
	"cicd":      {validators.TypePipeline, validators.TypePython},
	"debug":     {validators.TypeDocument},
}

// ModuleValidators returns the validator types that grade the named module.
func ModuleValidators(module string) []validators.Type {
	return append([]validators.Type(nil), moduleValidators[module]...)
}

// Request describes one evaluation.
type Request struct {
	// Submission is the root directory holding terraform/, k8s/, network/,
	// edge/, cicd/ and debug/.
	Submission string

	// Modules are glob patterns selecting the modules to run. Empty runs all.
	Modules []string

	Quick bool
}

// Runner evaluates submissions module by module.
type Runner struct {
	deps     validators.Deps
	logger   *zap.Logger
	parallel bool
	workers  int

	validators map[string][]validators.Validator

	// Progress tracking
	progressMu sync.Mutex
	listeners  []ProgressListener
}

// ProgressListener receives progress updates
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

const (
	EventEvaluationStart    EventType = "evaluation_start"
	EventEvaluationComplete EventType = "evaluation_complete"
	EventModuleStart        EventType = "module_start"
	EventModuleComplete     EventType = "module_complete"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	EventType    EventType
	Module       string
	ModuleNum    int
	TotalModules int
	Score        int
	MaxScore     int
	DurationMs   int64
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger handed to the runner and every validator.
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithDeps sets the collaborators shared by the validators.
func WithDeps(d validators.Deps) RunnerOption {
	return func(r *Runner) {
		r.deps = d
	}
}

// WithParallel runs modules concurrently on up to workers goroutines. A
// non-positive workers count uses the default.
func WithParallel(parallel bool, workers int) RunnerOption {
	return func(r *Runner) {
		r.parallel = parallel
		if workers > 0 {
			r.workers = workers
		}
	}
}

// WithValidators replaces the validators of a module.
func WithValidators(module string, vs ...validators.Validator) RunnerOption {
	return func(r *Runner) {
		if r.validators == nil {
			r.validators = map[string][]validators.Validator{}
		}
		r.validators[module] = vs
	}
}

// NewRunner creates a runner with a validator set for every module.
func NewRunner(opts ...RunnerOption) (*Runner, error) {
	r := &Runner{
		workers:   defaultWorkers,
		listeners: []ProgressListener{},
	}
	for _, o := range opts {
		o(r)
	}

	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.deps.Logger == nil {
		r.deps.Logger = r.logger
	}

	if r.validators == nil {
		r.validators = map[string][]validators.Validator{}
	}
	for module, types := range moduleValidators {
		if _, overridden := r.validators[module]; overridden {
			continue
		}
		for _, t := range types {
			v, err := validators.Create(t, r.deps)
			if err != nil {
				return nil, fmt.Errorf("module %s: %w", module, err)
			}
			r.validators[module] = append(r.validators[module], v)
		}
	}
	return r, nil
}

// OnProgress registers a progress listener
func (r *Runner) OnProgress(listener ProgressListener) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *Runner) notifyProgress(event ProgressEvent) {
	r.progressMu.Lock()
	listeners := make([]ProgressListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// Run evaluates the requested modules of a submission. Modules that are not
// requested are reported with empty check lists. Patterns that match no
// module are logged and skipped.
func (r *Runner) Run(ctx context.Context, req Request) (*models.EvaluationResult, error) {
	fi, err := os.Stat(req.Submission)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmissionNotFound, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSubmissionNotFound, req.Submission)
	}

	modules, unknown := FilterModules(scoring.ModuleNames(), req.Modules)
	for _, name := range unknown {
		r.logger.Warn("unknown module, skipping", zap.String("module", name), zap.Strings("known", scoring.ModuleNames()))
	}

	startTime := time.Now()
	r.notifyProgress(ProgressEvent{EventType: EventEvaluationStart, TotalModules: len(modules)})

	var results [][]models.Check
	if r.parallel {
		results, err = r.runConcurrent(ctx, req, modules)
	} else {
		results, err = r.runSequential(ctx, req, modules)
	}
	if err != nil {
		return nil, err
	}

	checks := make(map[string][]models.Check, len(modules))
	for i, name := range modules {
		checks[name] = results[i]
	}

	res := scoring.Aggregate(checks)
	duration := time.Since(startTime).Milliseconds()

	r.notifyProgress(ProgressEvent{
		EventType:    EventEvaluationComplete,
		TotalModules: len(modules),
		Score:        res.TotalScore,
		MaxScore:     res.MaxScore,
		DurationMs:   duration,
	})
	r.logger.Debug("evaluation complete",
		zap.String("submission", req.Submission),
		zap.Int("score", res.TotalScore),
		zap.String("band", string(res.Band)),
		zap.Int64("duration_ms", duration))

	return res, nil
}

func (r *Runner) runSequential(ctx context.Context, req Request, modules []string) ([][]models.Check, error) {
	results := make([][]models.Check, len(modules))
	for i, name := range modules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results[i] = r.runModule(ctx, req, name, i+1, len(modules))
	}
	return results, nil
}

func (r *Runner) runConcurrent(ctx context.Context, req Request, modules []string) ([][]models.Check, error) {
	results := make([][]models.Check, len(modules))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, name := range modules {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.runModule(gctx, req, name, i+1, len(modules))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) runModule(ctx context.Context, req Request, name string, num, total int) []models.Check {
	r.notifyProgress(ProgressEvent{
		EventType:    EventModuleStart,
		Module:       name,
		ModuleNum:    num,
		TotalModules: total,
	})

	start := time.Now()
	var checks []models.Check
	for _, v := range r.validators[name] {
		checks = append(checks, r.safeValidate(ctx, v, req.Submission, req.Quick)...)
	}

	score := 0
	for _, c := range checks {
		score += c.PointsAwarded
	}
	m, _ := scoring.Lookup(name)
	duration := time.Since(start).Milliseconds()

	r.notifyProgress(ProgressEvent{
		EventType:    EventModuleComplete,
		Module:       name,
		ModuleNum:    num,
		TotalModules: total,
		Score:        score,
		MaxScore:     m.MaxScore,
		DurationMs:   duration,
	})
	r.logger.Debug("module graded",
		zap.String("module", name),
		zap.Int("checks", len(checks)),
		zap.Int("score", score),
		zap.Int64("duration_ms", duration))

	return checks
}

// safeValidate turns a validator panic into a single zero-point error check.
func (r *Runner) safeValidate(ctx context.Context, v validators.Validator, root string, quick bool) (checks []models.Check) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("validator panicked",
				zap.String("validator", v.Name()),
				zap.Any("panic", p),
				zap.Stack("stack"))
			checks = []models.Check{models.ErrorCheck(v.Name(), p)}
		}
	}()
	return v.Validate(ctx, root, quick)
}
