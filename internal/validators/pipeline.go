package validators

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spboyer/hirebench/internal/extract"
	"github.com/spboyer/hirebench/internal/models"
	"github.com/spboyer/hirebench/internal/textnorm"
	"gopkg.in/yaml.v3"
)

var (
	manualGate = []*regexp.Regexp{
		regexp.MustCompile(`manual`),
		regexp.MustCompile(`approv`),
		regexp.MustCompile(`environment.*protection`),
		regexp.MustCompile(`required_reviewers`),
		regexp.MustCompile(`gate`),
		regexp.MustCompile(`confirm`),
	}
	failureHandling = []*regexp.Regexp{
		regexp.MustCompile(`rollback`),
		regexp.MustCompile(`roll back`),
		regexp.MustCompile(`undo`),
		regexp.MustCompile(`revert`),
		regexp.MustCompile(`failure`),
		regexp.MustCompile(`on_failure`),
		regexp.MustCompile(`if.*fail`),
	}
)

// pipelineValidator grades cicd/pipeline.yaml and cicd/monitoring_setup.md.
type pipelineValidator struct {
	deps Deps
}

// NewPipelineValidator creates the CI/CD pipeline validator.
func NewPipelineValidator(deps Deps) Validator {
	return &pipelineValidator{deps: deps.withDefaults()}
}

func (v *pipelineValidator) Name() string { return string(TypePipeline) }

func (v *pipelineValidator) Validate(_ context.Context, root string, quick bool) []models.Check {
	dir := filepath.Join(root, "cicd")
	raw := readText(filepath.Join(dir, "pipeline.yaml"))

	checks := []models.Check{pipelineSyntaxCheck(raw)}
	if quick {
		return checks
	}

	code := strings.ToLower(textnorm.Code(raw, textnorm.Shell))
	checks = append(checks,
		stageOrderCheck(code),
		promotionCheck(code),
		models.NewCheck("Rollback/failure handling in pipeline", 1, matchesAny(code, failureHandling...), ""),
		v.monitoringCheck(dir),
	)
	return checks
}

func pipelineSyntaxCheck(raw string) models.Check {
	const name = "Pipeline YAML syntax"

	if strings.TrimSpace(raw) == "" {
		return models.NewCheck(name, 1, false, "pipeline.yaml is empty")
	}
	if extract.CommentOnly([]byte(raw)) {
		return models.NewCheck(name, 1, false, "pipeline.yaml has no YAML content")
	}

	var doc any
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return models.NewCheck(name, 1, false, fmt.Sprintf("YAML error: %v", err))
	}
	return models.NewCheck(name, 1, doc != nil, "")
}

// stageOrderCheck awards a point per stage keyword and takes one back when
// the first mentions are out of build, test, deploy order.
func stageOrderCheck(code string) models.Check {
	build := strings.Index(code, "build")
	test := strings.Index(code, "test")
	deploy := strings.Index(code, "deploy")

	score := 0
	for _, pos := range []int{build, test, deploy} {
		if pos >= 0 {
			score++
		}
	}

	ordered := true
	if build >= 0 && test >= 0 && build > test {
		ordered = false
	}
	if test >= 0 && deploy >= 0 && test > deploy {
		ordered = false
	}
	if !ordered {
		score = max(score-1, 0)
	}

	order := "correct"
	if !ordered {
		order = "incorrect"
	}

	return models.PartialCheck("Build + test + deploy stages in order", 3, score, score >= 3,
		fmt.Sprintf("build=%s, test=%s, deploy=%s, order=%s", yesNo(build >= 0), yesNo(test >= 0), yesNo(deploy >= 0), order))
}

func promotionCheck(code string) models.Check {
	var found []string
	if containsAny(code, "ecr", "docker push", "docker build", "container registry") {
		found = append(found, "ECR/container push")
	}
	if containsAny(code, "staging", "stage") {
		found = append(found, "staging deploy")
	}
	if matchesAny(code, manualGate...) {
		found = append(found, "manual approval gate")
	}

	return models.PartialCheck("ECR push, staging deploy, prod manual gate", 3, len(found), len(found) >= 2,
		foundDetails(found, "Missing deployment stages"))
}

func (v *pipelineValidator) monitoringCheck(dir string) models.Check {
	raw := readText(filepath.Join(dir, "monitoring_setup.md"))
	doc := textnorm.Prose(raw)
	kw := v.deps.Keywords

	var found []string
	if kw.Concept(doc, "monitoring_setup_metrics") >= 3 {
		found = append(found, "metrics")
	}
	if kw.Concept(doc, "monitoring_setup_slo") >= 2 {
		found = append(found, "SLOs")
	}
	if kw.Concept(doc, "monitoring_setup_alerting") >= 2 && kw.Concept(doc, "monitoring_setup_escalation") >= 1 {
		found = append(found, "alerting + escalation")
	}

	return models.PartialCheck("monitoring_setup.md: metrics, SLOs, alerting, escalation", 3, len(found), len(found) >= 2,
		foundDetails(found, "Insufficient monitoring detail"))
}
