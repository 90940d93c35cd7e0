package reporting

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spboyer/hirebench/internal/models"
)

// InterpretBand returns a plain-language explanation of a recommendation.
func InterpretBand(band models.Band) string {
	switch band {
	case models.BandStrongHire:
		return "Strong Hire (80+): solid across every module."
	case models.BandHire:
		return "Hire (65-79): meets the bar with some gaps."
	case models.BandBorderline:
		return "Borderline (50-64): discuss the weak modules in the debrief."
	default:
		return "No Hire (<50): below the bar."
	}
}

// InterpretModule labels a module score relative to its ceiling.
func InterpretModule(score, maxScore int) string {
	if maxScore <= 0 {
		return "n/a"
	}
	pct := score * 100 / maxScore
	switch {
	case pct >= 80:
		return "Strong"
	case pct >= 50:
		return "Adequate"
	case pct > 0:
		return "Weak"
	default:
		return "Missing"
	}
}

// FormatSummary produces the console summary table for an evaluation.
func FormatSummary(res *models.EvaluationResult) string {
	header := []string{"Module", "Score", "Checks", "Rating"}
	rows := make([][]string, 0, len(res.Modules))
	for _, m := range res.Modules {
		rating := InterpretModule(m.Score, m.Max)
		if len(m.Checks) == 0 {
			rating = "not run"
		}
		rows = append(rows, []string{
			m.Name,
			fmt.Sprintf("%d/%d", m.Score, m.Max),
			fmt.Sprintf("%d/%d passed", m.Passed(), len(m.Checks)),
			rating,
		})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			if i == len(cells)-1 {
				b.WriteString(cell)
				continue
			}
			b.WriteString(padRight(cell, widths[i]))
		}
		b.WriteString("\n")
	}

	writeRow(header)
	for _, row := range rows {
		writeRow(row)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Total: %d/%d [%s] %d%%\n", res.TotalScore, res.MaxScore, ScoreBar(res.Percent()), res.Percent())
	fmt.Fprintf(&b, "%s\n", InterpretBand(res.Band))
	return b.String()
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
