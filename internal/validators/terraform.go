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
	"go.uber.org/zap"
)

var sshOpenIngress = regexp.MustCompile(`(?s)ingress\s*\{[^}]*(?:from_port\s*=\s*22\b|to_port\s*=\s*22\b)[^}]*\}`)

// instruction markers that identify template comments in cost_optimization.tf
var (
	costTemplateMarkers = []string{
		"todo", "hint:", "task:", "requirements:", "implement", "---",
		"your cost analysis", "such as:", "address the findings",
	}
	costPromptMarkers = append(append([]string{}, costTemplateMarkers...),
		"analyze", "propose", "explain", "describe", "consider",
		"lifecycle policies", "spot/mixed", "right-siz", "cost-sav",
		"cost_optimization.tf", "cost report",
	)
)

// terraformValidator grades submission/terraform.
type terraformValidator struct {
	deps Deps
}

// NewTerraformValidator creates the Terraform validator.
func NewTerraformValidator(deps Deps) Validator {
	return &terraformValidator{deps: deps.withDefaults()}
}

func (v *terraformValidator) Name() string { return string(TypeTerraform) }

func (v *terraformValidator) Validate(ctx context.Context, root string, quick bool) []models.Check {
	dir := filepath.Join(root, "terraform")
	if !isDir(dir) {
		return []models.Check{models.NewCheck("Terraform directory exists", 5, false, "submission/terraform/ not found")}
	}

	var (
		checks   []models.Check
		files    = listFiles(dir, ".tf")
		parsed   = map[string]*extract.HCLFile{}
		problems []string
		stripped strings.Builder
	)

	for _, path := range files {
		src := readText(path)
		stripped.WriteString(textnorm.Code(src, textnorm.HCL))
		stripped.WriteString("\n")

		f, err := extract.ParseHCL(ctx, []byte(src))
		if err != nil {
			v.deps.Logger.Warn("hcl parser failed", zap.String("file", path), zap.Error(err))
			problems = append(problems, filepath.Base(path))
			continue
		}
		if extract.HCLProblem(f, textnorm.CodeLines(src, textnorm.HCL)) {
			problems = append(problems, filepath.Base(path))
			continue
		}
		parsed[path] = f
	}

	switch {
	case len(problems) > 0:
		checks = append(checks, models.NewCheck("HCL parsing", 5, false, "Parse errors in: "+strings.Join(problems, ", ")))
	case len(files) == 0:
		checks = append(checks, models.NewCheck("HCL parsing", 5, false, "No .tf files found"))
	default:
		checks = append(checks, models.NewCheck("HCL parsing", 5, true, ""))
	}

	checks = append(checks, v.planStructure(dir, parsed))
	if quick {
		return checks
	}

	code := stripped.String()
	checks = append(checks,
		vpcCheck(code),
		sshCheck(code),
		eksCheck(code),
	)

	costRaw := readText(filepath.Join(dir, "cost_optimization.tf"))
	checks = append(checks, costOptimizationCheck(costRaw), costAnalysisCheck(costRaw))
	return checks
}

func (v *terraformValidator) planStructure(dir string, parsed map[string]*extract.HCLFile) models.Check {
	withContent := 0
	for _, name := range []string{"main.tf", "networking.tf", "variables.tf"} {
		src := readText(filepath.Join(dir, name))
		if textnorm.CodeLines(src, textnorm.HCL) > 3 {
			withContent++
		}
	}

	hasResources := false
	for _, f := range parsed {
		if len(f.Resources()) > 0 {
			hasResources = true
			break
		}
	}

	ok := withContent >= 2 && hasResources
	details := ""
	if !ok {
		details = "Missing resource blocks in Terraform files"
	}
	return models.NewCheck("Plan structure (resource blocks exist)", 5, ok, details)
}

func vpcCheck(code string) models.Check {
	lower := strings.ToLower(code)
	hasSubnet := strings.Contains(code, "aws_subnet")

	score := 0
	if strings.Contains(code, "aws_vpc") {
		score++
	}
	if hasSubnet && strings.Contains(lower, "public") && strings.Contains(lower, "private") {
		score++
	}
	if strings.Contains(code, "aws_nat_gateway") {
		score++
	}
	if strings.Contains(code, "aws_internet_gateway") {
		score++
	}

	return models.NewCheck("VPC: public + private subnets, NAT gateway", 4, score >= 3,
		fmt.Sprintf("VPC components found: %d/4 (VPC, subnets, NAT, IGW)", score))
}

func sshCheck(code string) models.Check {
	open := false
	for _, block := range sshOpenIngress.FindAllString(code, -1) {
		if strings.Contains(block, "0.0.0.0/0") {
			open = true
			break
		}
	}

	details := ""
	if open {
		details = "SSH (port 22) is open to 0.0.0.0/0, restrict to management CIDR"
	}
	return models.NewCheck("Security groups: no 0.0.0.0/0 on SSH", 2, !open, details)
}

func eksCheck(code string) models.Check {
	cluster := strings.Contains(code, "aws_eks_cluster")
	nodeGroup := strings.Contains(code, "aws_eks_node_group")
	iam := strings.Contains(code, "aws_iam_role")

	score := 0
	if cluster {
		score++
	}
	if nodeGroup && iam {
		score++
	}

	return models.NewCheck("EKS: cluster, IAM roles, node groups", 2, score >= 2,
		fmt.Sprintf("EKS components: cluster=%s, node_group=%s, iam=%s", yesNo(cluster), yesNo(nodeGroup), yesNo(iam)))
}

// analysisComments returns the '#' comment lines of src that look like the
// candidate's own writing rather than template instructions.
func analysisComments(src string, markers []string) []string {
	var out []string
	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") || len(trimmed) <= 10 {
			continue
		}
		if containsAny(strings.ToLower(line), markers...) {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func costOptimizationCheck(raw string) models.Check {
	code := strings.ToLower(textnorm.Code(raw, textnorm.HCL))

	var found []string
	if containsAny(code, "spot", "mixed_instances", "mixed instance", "on_demand_percentage") {
		found = append(found, "spot/mixed instances")
	}
	if containsAny(code, "lifecycle", "transition", "glacier", "infrequent_access", "intelligent_tiering") {
		found = append(found, "S3 lifecycle")
	}
	if containsAny(code, "rightsize", "right-size", "smaller instance", "instance_type", "graviton") {
		found = append(found, "rightsizing")
	}
	if len(analysisComments(raw, costTemplateMarkers)) >= 5 {
		found = append(found, "cost analysis comments")
	}

	return models.NewCheck("Cost optimization: spot, lifecycle, rightsizing", 4, len(found) >= 2,
		foundDetails(found, "No cost optimization measures found"))
}

func costAnalysisCheck(raw string) models.Check {
	comments := analysisComments(raw, costPromptMarkers)

	score := 0
	if len(comments) >= 5 {
		text := strings.ToLower(strings.Join(comments, "\n"))
		if containsAny(text, "monthly cost", "total cost", "saving", "reduce", "current spend") {
			score++
		}
		if containsAny(text, "$", "usd", "percent", "%", "estimated") {
			score++
		}
		if containsAny(text, "trade-off", "tradeoff", "risk", "consideration", "impact") {
			score++
		}
	}

	return models.NewCheck("Cost analysis: report review and savings proposals", 3, score >= 2,
		fmt.Sprintf("Cost analysis depth: %d/3", score))
}
