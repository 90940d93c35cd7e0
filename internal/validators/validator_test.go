package validators

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spboyer/hirebench/internal/keywords"
	"github.com/spboyer/hirebench/internal/models"
	"github.com/stretchr/testify/require"
)

var (
	_ Validator = (*terraformValidator)(nil)
	_ Validator = (*kubernetesValidator)(nil)
	_ Validator = (*shellValidator)(nil)
	_ Validator = (*pipelineValidator)(nil)
	_ Validator = (*pythonValidator)(nil)
	_ Validator = (*documentValidator)(nil)
)

// strongSubmission is a complete submission that earns full marks on every
// check.
const strongSubmission = "testdata/strong"

var allTypes = []Type{TypeTerraform, TypeKubernetes, TypeShell, TypePipeline, TypePython, TypeDocument}

func defaultDeps() Deps {
	return Deps{Keywords: keywords.Default()}
}

// writeTree creates files (relative path -> content) under a temp submission
// root and returns the root.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

// copyFixture copies files from the strong submission into a fresh temp root
// so a test can break one artifact at a time.
func copyFixture(t *testing.T, rels ...string) string {
	t.Helper()

	files := map[string]string{}
	for _, rel := range rels {
		data, err := os.ReadFile(filepath.Join(strongSubmission, filepath.FromSlash(rel)))
		require.NoError(t, err)
		files[rel] = string(data)
	}
	return writeTree(t, files)
}

func findCheck(t *testing.T, checks []models.Check, name string) models.Check {
	t.Helper()

	for _, c := range checks {
		if c.Name == name {
			return c
		}
	}
	require.Failf(t, "check not found", "no check named %q in %v", name, checkNames(checks))
	return models.Check{}
}

func checkNames(checks []models.Check) []string {
	names := make([]string, len(checks))
	for i, c := range checks {
		names[i] = c.Name
	}
	return names
}

func TestCreate(t *testing.T) {
	for _, typ := range allTypes {
		v, err := Create(typ, Deps{})
		require.NoError(t, err)
		require.Equal(t, string(typ), v.Name())
	}

	_, err := Create("helm", Deps{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "'helm' is not a valid validator type")
}

func TestStrongSubmission(t *testing.T) {
	for _, typ := range allTypes {
		t.Run(string(typ), func(t *testing.T) {
			v, err := Create(typ, defaultDeps())
			require.NoError(t, err)

			checks := v.Validate(context.Background(), strongSubmission, false)
			require.NotEmpty(t, checks)

			for _, c := range checks {
				require.Truef(t, c.Passed, "%s: %s", c.Name, c.Details)
				require.Equalf(t, c.MaxPoints, c.PointsAwarded, "%s: %s", c.Name, c.Details)
			}
		})
	}
}

func TestEmptySubmission(t *testing.T) {
	root := t.TempDir()

	for _, typ := range allTypes {
		t.Run(string(typ), func(t *testing.T) {
			v, err := Create(typ, defaultDeps())
			require.NoError(t, err)

			checks := v.Validate(context.Background(), root, false)
			require.NotEmpty(t, checks)

			for _, c := range checks {
				require.Falsef(t, c.Passed, "%s unexpectedly passed", c.Name)
				require.Zerof(t, c.PointsAwarded, "%s awarded points", c.Name)
			}
		})
	}
}

func TestQuickChecksAreSubsetOfFull(t *testing.T) {
	for _, root := range []string{strongSubmission, t.TempDir()} {
		for _, typ := range allTypes {
			v, err := Create(typ, defaultDeps())
			require.NoError(t, err)

			full := map[string]models.Check{}
			for _, c := range v.Validate(context.Background(), root, false) {
				full[c.Name] = c
			}

			for _, c := range v.Validate(context.Background(), root, true) {
				fc, ok := full[c.Name]
				require.Truef(t, ok, "%s: quick check %q missing from full run", typ, c.Name)
				require.Equal(t, fc, c)
			}
		}
	}
}

func TestQuickModeIsSyntaxOnly(t *testing.T) {
	expected := map[Type][]string{
		TypeTerraform:  {"HCL parsing", "Plan structure (resource blocks exist)"},
		TypeKubernetes: {"YAML parsing"},
		TypeShell:      {"Python syntax valid (camera_discovery.py)"},
		TypePipeline:   {"Pipeline YAML syntax"},
		TypePython:     {"deploy.py: valid Python syntax"},
		TypeDocument:   {},
	}

	for typ, names := range expected {
		v, err := Create(typ, defaultDeps())
		require.NoError(t, err)

		checks := v.Validate(context.Background(), strongSubmission, true)
		require.ElementsMatch(t, names, checkNames(checks), typ)
	}
}

func TestFoundDetails(t *testing.T) {
	require.Equal(t, "nothing", foundDetails(nil, "nothing"))
	require.Equal(t, "Found: a, b", foundDetails([]string{"a", "b"}, "nothing"))
}

func TestListFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"b.yaml":     "",
		"a.YML":      "",
		"c.txt":      "",
		"sub/d.yaml": "",
	})

	require.Equal(t, []string{filepath.Join(root, "a.YML"), filepath.Join(root, "b.yaml")}, listFiles(root, ".yaml", ".yml"))
	require.Empty(t, listFiles(filepath.Join(root, "missing"), ".yaml"))
}
