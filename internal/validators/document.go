package validators

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spboyer/hirebench/internal/models"
	"github.com/spboyer/hirebench/internal/textnorm"
	"go.uber.org/zap"
)

var (
	mtuSetting  = regexp.MustCompile(`(1500|ip link|ifconfig|netplan)`)
	actionItems = regexp.MustCompile(`action.item`)
)

const (
	remediationMinLines    = 3
	postmortemMinSubstance = 200
)

// documentValidator grades the debug module: the root cause analysis,
// remediation script, postmortem and product recommendations.
type documentValidator struct {
	deps Deps
}

// NewDocumentValidator creates the debug scenario validator.
func NewDocumentValidator(deps Deps) Validator {
	return &documentValidator{deps: deps.withDefaults()}
}

func (v *documentValidator) Name() string { return string(TypeDocument) }

// Validate returns nothing in quick mode: the debug module has no syntax-only
// artifacts.
func (v *documentValidator) Validate(ctx context.Context, root string, quick bool) []models.Check {
	if quick {
		return nil
	}

	dir := filepath.Join(root, "debug")
	kw := v.deps.Keywords

	rcaRaw := readText(filepath.Join(dir, "root_cause_analysis.md"))
	rca := textnorm.Prose(rcaRaw)

	mtu := kw.Concept(rca, "debug_rca_mtu")
	vpn := kw.Concept(rca, "debug_rca_vpn")
	timeline := kw.Concept(rca, "debug_timeline")

	checks := []models.Check{
		models.PartialCheck("RCA: identifies MTU as root cause", 3, mtu, mtu >= 3,
			fmt.Sprintf("MTU-related keywords matched: %d", mtu)),
		models.PartialCheck("RCA: identifies VPN tunnel + packet fragmentation", 3, vpn, vpn >= 3,
			fmt.Sprintf("VPN-related keywords matched: %d", vpn)),
		models.NewCheck("RCA: correct timeline reconstruction", 1, timeline >= 3,
			fmt.Sprintf("Timeline keywords matched: %d", timeline)),
		v.remediationCheck(ctx, filepath.Join(dir, "remediation.sh")),
		v.postmortemCheck(dir),
	}

	productRaw := readText(filepath.Join(dir, "product_recommendations.md"))
	product := kw.Concept(textnorm.Prose(productRaw), "monitoring_recommendations")
	checks = append(checks, models.PartialCheck("product_recommendations.md: monitoring + automated detection", 3, product, product >= 2,
		fmt.Sprintf("Monitoring/detection keywords matched: %d", product)))

	return checks
}

func (v *documentValidator) remediationCheck(ctx context.Context, path string) models.Check {
	raw := readText(path)
	code := strings.ToLower(textnorm.Code(raw, textnorm.Shell))

	var (
		score int
		found []string
	)
	if textnorm.CodeLines(raw, textnorm.Shell) >= remediationMinLines {
		if strings.Contains(code, "mtu") && mtuSetting.MatchString(code) {
			score++
			found = append(found, "sets MTU")
		}
		if strings.HasPrefix(strings.TrimSpace(raw), "#!/") && strings.Contains(raw, "set -e") {
			score++
			found = append(found, "shebang + error handling")
		}
		if containsAny(code, "verify", "check", "test", "ip link show", "ping") {
			score++
			found = append(found, "verification step")
		}
	}

	if score > 0 {
		res := v.deps.Linter.Run(ctx, path)
		v.deps.Logger.Debug("linted remediation script", zap.Stringer("status", res.Status))
		if !res.Passed() {
			score = max(score-1, 0)
			found = append(found, "shellcheck warnings")
		}
	}

	return models.PartialCheck("remediation.sh: sets MTU, passes shellcheck", 3, score, score >= 2,
		foundDetails(found, "Script not implemented"))
}

func (v *documentValidator) postmortemCheck(dir string) models.Check {
	raw := readText(filepath.Join(dir, "postmortem.md"))
	doc := textnorm.Prose(raw)

	sections := v.deps.Keywords.Concept(doc, "postmortem_sections")
	hasActions := actionItems.MatchString(strings.ToLower(raw)) && len(strings.TrimSpace(doc)) > postmortemMinSubstance

	score := 0
	if sections >= 4 {
		score++
	}
	if hasActions {
		score++
	}

	return models.PartialCheck("postmortem.md: all sections, action items", 2, score, score >= 1,
		fmt.Sprintf("Sections matched: %d, action items: %s", sections, yesNo(hasActions)))
}
