package validators

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spboyer/hirebench/internal/extract"
	"github.com/spboyer/hirebench/internal/models"
	"go.uber.org/zap"
)

// pythonValidator grades cicd/deploy.py.
type pythonValidator struct {
	deps Deps
}

// NewPythonValidator creates the deploy script validator.
func NewPythonValidator(deps Deps) Validator {
	return &pythonValidator{deps: deps.withDefaults()}
}

func (v *pythonValidator) Name() string { return string(TypePython) }

// Validate splits the deploy script's four points into a one point syntax
// check, which is all quick mode reports, and a three point feature check.
func (v *pythonValidator) Validate(ctx context.Context, root string, quick bool) []models.Check {
	path := filepath.Join(root, "cicd", "deploy.py")
	src := readText(path)
	if strings.TrimSpace(src) == "" {
		return []models.Check{models.NewCheck("deploy.py exists", 4, false, "File not found or empty")}
	}

	m, err := extract.ParsePython(ctx, []byte(src))
	if err != nil {
		v.deps.Logger.Warn("python parser failed", zap.String("file", path), zap.Error(err))
		return []models.Check{models.NewCheck("deploy.py: valid Python syntax", 4, false, err.Error())}
	}
	if m.SyntaxError {
		return []models.Check{models.NewCheck("deploy.py: valid Python syntax", 4, false, "SyntaxError: deploy.py does not parse")}
	}

	checks := []models.Check{models.NewCheck("deploy.py: valid Python syntax", 1, true, "")}
	if quick {
		return checks
	}

	var (
		score int
		found []string
	)
	if m.UsesArgparse && containsAny(src, "add_argument", "add_subparsers") {
		score++
		found = append(found, "argparse")
		if strings.Contains(src, "add_subparsers") || strings.Contains(strings.ToLower(src), "subcommand") {
			found = append(found, "subcommands")
		}
	}
	if implementedNamed(m, "rollback") {
		score++
		found = append(found, "rollback function")
	}
	if implementedNamed(m, "health") {
		score++
		found = append(found, "healthcheck function")
	}

	return append(checks, models.PartialCheck("deploy.py: argparse, rollback, healthcheck", 3, score, score >= 2,
		foundDetails(found, "No argparse CLI, rollback or healthcheck implementation found")))
}

func implementedNamed(m *extract.PythonModule, fragment string) bool {
	for _, f := range m.Implemented() {
		if strings.Contains(strings.ToLower(f.Name), fragment) {
			return true
		}
	}
	return false
}
