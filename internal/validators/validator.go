// Package validators holds the per-domain graders. Each validator inspects
// one area of a submission and reports a list of checks. Validators never
// return errors: a missing file, a parse failure or an absent tool is
// reported as a check.
package validators

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/spboyer/hirebench/internal/keywords"
	"github.com/spboyer/hirebench/internal/lint"
	"github.com/spboyer/hirebench/internal/models"
	"go.uber.org/zap"
)

type Type string

const (
	TypeTerraform  Type = "terraform"
	TypeKubernetes Type = "kubernetes"
	TypeShell      Type = "shell"
	TypePipeline   Type = "pipeline"
	TypePython     Type = "python"
	TypeDocument   Type = "document"
)

// Validator grades one aspect of a submission.
type Validator interface {
	// Name returns the validator name used in error checks and logs.
	Name() string

	// Validate inspects the submission rooted at root. In quick mode only
	// syntax and structure checks run.
	Validate(ctx context.Context, root string, quick bool) []models.Check
}

// Deps are the read-only collaborators shared by every validator.
type Deps struct {
	Keywords *keywords.Set
	Linter   lint.Linter
	Logger   *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Keywords == nil {
		d.Keywords = keywords.Empty()
	}
	if d.Linter == nil {
		d.Linter = lint.PassThrough{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// Create builds a validator by type.
func Create(t Type, deps Deps) (Validator, error) {
	deps = deps.withDefaults()

	switch t {
	case TypeTerraform:
		return NewTerraformValidator(deps), nil
	case TypeKubernetes:
		return NewKubernetesValidator(deps), nil
	case TypeShell:
		return NewShellValidator(deps), nil
	case TypePipeline:
		return NewPipelineValidator(deps), nil
	case TypePython:
		return NewPythonValidator(deps), nil
	case TypeDocument:
		return NewDocumentValidator(deps), nil
	default:
		return nil, fmt.Errorf("'%s' is not a valid validator type", t)
	}
}

// readText returns the file contents, or "" when the file is missing or
// unreadable.
func readText(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

// isDir reports whether path exists and is a directory.
func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// listFiles returns the regular files directly under dir whose extension is
// one of exts, sorted by name.
func listFiles(dir string, exts ...string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range exts {
			if ext == want {
				out = append(out, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// containsAny reports whether s contains any of subs.
func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// matchesAny reports whether any of the patterns matches s.
func matchesAny(s string, patterns ...*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// yesNo renders a flag for check details.
func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// foundDetails renders the "Found: a, b" detail string shared by the
// multi-feature checks, or fallback when nothing was found.
func foundDetails(found []string, fallback string) string {
	if len(found) == 0 {
		return fallback
	}
	return "Found: " + strings.Join(found, ", ")
}
