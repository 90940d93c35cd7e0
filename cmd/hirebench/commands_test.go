package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spboyer/hirebench/internal/history"
	"github.com/spboyer/hirebench/internal/models"
	"github.com/spboyer/hirebench/internal/orchestration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strongSubmission = "../../internal/validators/testdata/strong"

// runCLI executes the root command with args and returns what it printed.
// The linter is pointed at a binary that doesn't exist so results don't
// depend on whether shellcheck is installed.
func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv("HIREBENCH_LINTER_BINARY", "hirebench-test-missing-linter")

	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestEvaluate_StrongSubmission(t *testing.T) {
	stdout, stderr, err := runCLI(t, "evaluate", "--submission", strongSubmission)
	require.NoError(t, err)

	abs, err := filepath.Abs(strongSubmission)
	require.NoError(t, err)

	assert.Contains(t, stderr, "Evaluating submission: "+abs)
	assert.True(t, strings.HasPrefix(stdout, "# Evaluation Report\n"))
	assert.Contains(t, stdout, "**Total Score: 100 / 100**")
	assert.Contains(t, stdout, "**Recommendation: Strong Hire**")
	assert.Contains(t, stdout, "[####################] 100%")
	assert.NotContains(t, stdout, "[FAIL]")
}

func TestEvaluate_JSONFormat(t *testing.T) {
	stdout, _, err := runCLI(t, "evaluate", "-s", strongSubmission, "--format", "json", "--parallel")
	require.NoError(t, err)

	var res models.EvaluationResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, 100, res.TotalScore)
	assert.Equal(t, models.BandStrongHire, res.Band)
	assert.Len(t, res.Modules, 5)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Contains(t, doc, "band")
	modules, ok := doc["modules"].(map[string]any)
	require.True(t, ok, "modules is keyed by module name")
	assert.Contains(t, modules, "cicd")

	again, _, err := runCLI(t, "evaluate", "-s", strongSubmission, "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, stdout, again, "unchanged submission gives the same report")
}

func TestEvaluate_InvalidFormat(t *testing.T) {
	_, _, err := runCLI(t, "evaluate", "-s", t.TempDir(), "--format", "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid report format")
}

func TestEvaluate_SubmissionRequired(t *testing.T) {
	_, _, err := runCLI(t, "evaluate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"submission" not set`)
}

func TestEvaluate_MissingSubmission(t *testing.T) {
	_, _, err := runCLI(t, "evaluate", "-s", filepath.Join(t.TempDir(), "nope"), "--min-score", "50")
	require.ErrorIs(t, err, orchestration.ErrSubmissionNotFound)

	var thresholdErr *ThresholdError
	assert.False(t, errors.As(err, &thresholdErr), "a missing submission is not a threshold failure")
}

func TestEvaluate_Thresholds(t *testing.T) {
	empty := t.TempDir()

	t.Run("min score", func(t *testing.T) {
		stdout, _, err := runCLI(t, "evaluate", "-s", empty, "--min-score", "50")
		var thresholdErr *ThresholdError
		require.ErrorAs(t, err, &thresholdErr)
		assert.Equal(t, "score 0/100 is below the minimum of 50", thresholdErr.Message)
		assert.Contains(t, stdout, "**Recommendation: No Hire**", "the report is printed before failing")
	})

	t.Run("min band", func(t *testing.T) {
		_, _, err := runCLI(t, "evaluate", "-s", empty, "--min-band", "hire")
		var thresholdErr *ThresholdError
		require.ErrorAs(t, err, &thresholdErr)
	})

	t.Run("invalid band", func(t *testing.T) {
		_, _, err := runCLI(t, "evaluate", "-s", empty, "--min-band", "maybe")
		require.Error(t, err)
		var thresholdErr *ThresholdError
		assert.False(t, errors.As(err, &thresholdErr))
	})

	t.Run("strong submission passes", func(t *testing.T) {
		_, _, err := runCLI(t, "evaluate", "-s", strongSubmission, "--min-score", "80", "--min-band", "strong-hire")
		require.NoError(t, err)
	})
}

func TestEvaluate_ProjectConfig(t *testing.T) {
	submission := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(submission, ".hirebench.yaml"), []byte("min_score: 10\nreport:\n  format: json\n"), 0o644))

	stdout, _, err := runCLI(t, "evaluate", "-s", submission)
	var thresholdErr *ThresholdError
	require.ErrorAs(t, err, &thresholdErr)
	assert.True(t, json.Valid([]byte(stdout)), "report format comes from the config file")

	t.Run("flags override the file", func(t *testing.T) {
		stdout, _, err := runCLI(t, "evaluate", "-s", submission, "--min-score", "0", "--format", "markdown")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(stdout, "# Evaluation Report"))
	})

	t.Run("explicit config", func(t *testing.T) {
		cfg := filepath.Join(t.TempDir(), "ci.yaml")
		require.NoError(t, os.WriteFile(cfg, []byte("min_score: 0\n"), 0o644))

		_, _, err := runCLI(t, "--config", cfg, "evaluate", "-s", submission)
		require.NoError(t, err)
	})
}

func TestEvaluate_ModuleQuickOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "reports", "terraform.json")

	_, stderr, err := runCLI(t, "evaluate", "-s", strongSubmission, "--module", "terraform", "--quick", "--output", out, "-v")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Module: terraform")
	assert.Contains(t, stderr, "Mode: quick (syntax only)")
	assert.Contains(t, stderr, "[1/1] terraform")
	assert.Contains(t, stderr, "Report written to: "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var res models.EvaluationResult
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Len(t, res.Module("terraform").Checks, 2)
	assert.Empty(t, res.Module("k8s").Checks)
}

func TestHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	_, stderr, err := runCLI(t, "evaluate", "-s", strongSubmission, "--history", db, "--candidate", "alice")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Trend for alice: FIRST_RUN (100)")

	_, stderr, err = runCLI(t, "evaluate", "-s", t.TempDir(), "--history", db, "--candidate", "alice")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Trend for alice: DECLINING -100 (100 -> 0)")

	t.Run("table", func(t *testing.T) {
		stdout, _, err := runCLI(t, "history", "--history", db)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(stdout), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "ID"))
		assert.Contains(t, lines[1], "0/100")
		assert.Contains(t, lines[2], "100/100")
		assert.Contains(t, lines[2], "Strong Hire")
	})

	t.Run("candidate summary", func(t *testing.T) {
		stdout, _, err := runCLI(t, "history", "--history", db, "--candidate", "alice")
		require.NoError(t, err)
		assert.Contains(t, stdout, "alice: 2 runs, mean 50.0")
		assert.Contains(t, stdout, "best 100, worst 0, normalized gain 0.00")
	})

	t.Run("json and show", func(t *testing.T) {
		stdout, _, err := runCLI(t, "history", "--history", db, "--format", "json", "--candidate", "alice", "-n", "5")
		require.NoError(t, err)

		var runs []history.Run
		require.NoError(t, json.Unmarshal([]byte(stdout), &runs))
		require.Len(t, runs, 2)

		stdout, _, err = runCLI(t, "history", "show", runs[1].ID, "--history", db)
		require.NoError(t, err)
		assert.Contains(t, stdout, "**Total Score: 100 / 100**")
	})

	t.Run("unknown run", func(t *testing.T) {
		_, _, err := runCLI(t, "history", "show", "nope", "--history", db)
		require.ErrorIs(t, err, history.ErrNotFound)
	})

	t.Run("no database configured", func(t *testing.T) {
		_, _, err := runCLI(t, "history")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no history database")
	})
}

func TestModules(t *testing.T) {
	stdout, _, err := runCLI(t, "modules")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "MODULE     MAX  WEIGHT  VALIDATORS", lines[0])
	assert.Equal(t, "terraform  25   0.25    terraform", lines[1])
	assert.Equal(t, "cicd       15   0.15    pipeline, python", lines[4])
	assert.True(t, strings.HasPrefix(lines[6], "total      100"))
}

func TestWatch_MissingSubmission(t *testing.T) {
	_, _, err := runCLI(t, "watch", "-s", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
