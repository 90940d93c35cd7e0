package reporting

import (
	"fmt"
	"strings"

	"github.com/spboyer/hirebench/internal/models"
)

const barCells = 20

// ScoreBar renders a percentage as a 20-cell bar, one '#' per five percent.
func ScoreBar(pct int) string {
	filled := max(0, min(pct/5, barCells))
	return strings.Repeat("#", filled) + strings.Repeat("-", barCells-filled)
}

// Markdown renders the human-readable evaluation report.
func Markdown(res *models.EvaluationResult) string {
	var b strings.Builder

	b.WriteString("# Evaluation Report\n\n")
	fmt.Fprintf(&b, "**Total Score: %d / %d**\n", res.TotalScore, res.MaxScore)
	fmt.Fprintf(&b, "**Recommendation: %s**\n\n", res.Band)

	pct := res.Percent()
	fmt.Fprintf(&b, "[%s] %d%%\n\n", ScoreBar(pct), pct)

	b.WriteString("## Module Scores\n\n")
	b.WriteString("| Module | Score | Max |\n")
	b.WriteString("|--------|-------|-----|\n")
	for _, m := range res.Modules {
		fmt.Fprintf(&b, "| %s | %d | %d |\n", m.Name, m.Score, m.Max)
	}
	b.WriteString("\n")

	b.WriteString("## Detailed Results\n\n")
	for _, m := range res.Modules {
		fmt.Fprintf(&b, "### %s\n\n", strings.ToUpper(m.Name))

		if len(m.Checks) == 0 {
			b.WriteString("*No checks ran for this module.*\n\n")
			continue
		}

		for _, c := range m.Checks {
			status := "PASS"
			if !c.Passed {
				status = "FAIL"
			}
			fmt.Fprintf(&b, "- [%s] %s (%d/%d pts)\n", status, c.Name, c.PointsAwarded, c.MaxPoints)
			if c.Details != "" && !c.Passed {
				fmt.Fprintf(&b, "  - %s\n", c.Details)
			}
		}
		b.WriteString("\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}
