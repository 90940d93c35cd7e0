// Package lint wraps external script linters. A linter that is missing or
// too slow never costs the candidate points; only a linter that runs and
// reports problems does.
package lint

//go:generate go tool mockgen -source lint.go -destination mock_linter.go -package lint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeoutSeconds bounds a single linter invocation.
const DefaultTimeoutSeconds = 30

// Status is the outcome of one linter run.
type Status int

const (
	StatusOK Status = iota
	StatusFailed
	StatusTimedOut
	StatusNotFound
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	case StatusTimedOut:
		return "timed out"
	case StatusNotFound:
		return "not found"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is what a linter reported for one file.
type Result struct {
	Status Status
	Output string
}

// Passed is true unless the linter ran and found problems.
func (r Result) Passed() bool { return r.Status != StatusFailed }

// Linter checks a single script file.
type Linter interface {
	Run(ctx context.Context, path string) Result
}

// ShellcheckArgs holds the arguments for creating a [Shellcheck] linter.
type ShellcheckArgs struct {
	// Binary is the executable to run. Defaults to "shellcheck".
	Binary string `mapstructure:"binary"`
	// Args are passed before the file path. Defaults to "-S warning".
	Args []string `mapstructure:"args"`
	// Timeout is the maximum execution time in seconds. Defaults to 30 if not set.
	Timeout int `mapstructure:"timeout"`
}

// Shellcheck runs shellcheck against a script.
type Shellcheck struct {
	binary  string
	args    []string
	timeout time.Duration
	logger  *zap.Logger
}

// NewShellcheck creates a [Shellcheck] linter.
func NewShellcheck(args ShellcheckArgs, logger *zap.Logger) *Shellcheck {
	if args.Binary == "" {
		args.Binary = "shellcheck"
	}
	if args.Args == nil {
		args.Args = []string{"-S", "warning"}
	}
	if args.Timeout <= 0 {
		args.Timeout = DefaultTimeoutSeconds
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Shellcheck{
		binary:  args.Binary,
		args:    args.Args,
		timeout: time.Duration(args.Timeout) * time.Second,
		logger:  logger,
	}
}

func (s *Shellcheck) Run(ctx context.Context, path string) Result {
	bin, err := exec.LookPath(s.binary)
	if err != nil {
		s.logger.Debug("linter not available", zap.String("binary", s.binary))
		return Result{Status: StatusNotFound}
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(timeoutCtx, bin, append(append([]string{}, s.args...), path)...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err = cmd.Run()
	output := strings.TrimSpace(out.String())

	switch {
	case err == nil:
		return Result{Status: StatusOK, Output: output}
	case errors.Is(timeoutCtx.Err(), context.DeadlineExceeded):
		s.logger.Warn("linter timed out", zap.String("file", path), zap.Duration("timeout", s.timeout))
		return Result{Status: StatusTimedOut}
	case timeoutCtx.Err() != nil:
		// killed on cancellation, not by a lint failure
		s.logger.Debug("linter cancelled", zap.String("file", path), zap.Error(timeoutCtx.Err()))
		return Result{Status: StatusTimedOut}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Result{Status: StatusFailed, Output: output}
	}

	s.logger.Warn("linter could not be started", zap.String("binary", bin), zap.Error(err))
	return Result{Status: StatusNotFound}
}

// PassThrough is the linter used when none is installed. It reports every
// file as unchecked.
type PassThrough struct{}

func (PassThrough) Run(context.Context, string) Result { return Result{Status: StatusNotFound} }

// Detect returns a Shellcheck linter when its binary is on PATH and
// [PassThrough] otherwise.
func Detect(args ShellcheckArgs, logger *zap.Logger) Linter {
	sc := NewShellcheck(args, logger)
	if _, err := exec.LookPath(sc.binary); err != nil {
		sc.logger.Info("shellcheck not found, lint checks will pass by default", zap.String("binary", sc.binary))
		return PassThrough{}
	}
	return sc
}
