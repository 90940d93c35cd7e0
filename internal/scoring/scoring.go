// Package scoring folds per-module check lists into module results, a total
// and a hiring band.
package scoring

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spboyer/hirebench/internal/models"
)

// Band thresholds, applied to the total score highest first.
const (
	StrongHireThreshold = 80
	HireThreshold       = 65
	BorderlineThreshold = 50
)

// Module is the configuration of one graded module. Weight is reporting
// metadata only; the score is the plain sum of awarded points.
type Module struct {
	Name     string  `json:"name"`
	Weight   float64 `json:"weight"`
	MaxScore int     `json:"max_score"`
}

var modules = []Module{
	{Name: "terraform", Weight: 0.25, MaxScore: 25},
	{Name: "k8s", Weight: 0.25, MaxScore: 25},
	{Name: "network", Weight: 0.20, MaxScore: 20},
	{Name: "cicd", Weight: 0.15, MaxScore: 15},
	{Name: "debug", Weight: 0.15, MaxScore: 15},
}

var bandRank = map[models.Band]int{
	models.BandNoHire:     0,
	models.BandBorderline: 1,
	models.BandHire:       2,
	models.BandStrongHire: 3,
}

// Modules returns the module set in report order.
func Modules() []Module {
	return slices.Clone(modules)
}

// ModuleNames returns the module names in report order.
func ModuleNames() []string {
	names := make([]string, len(modules))
	for i, m := range modules {
		names[i] = m.Name
	}
	return names
}

// Lookup returns the configuration of the named module.
func Lookup(name string) (Module, bool) {
	for _, m := range modules {
		if m.Name == name {
			return m, true
		}
	}
	return Module{}, false
}

// MaxScore is the sum of every module ceiling.
func MaxScore() int {
	total := 0
	for _, m := range modules {
		total += m.MaxScore
	}
	return total
}

// BandFor maps a total score to its recommendation.
func BandFor(total int) models.Band {
	switch {
	case total >= StrongHireThreshold:
		return models.BandStrongHire
	case total >= HireThreshold:
		return models.BandHire
	case total >= BorderlineThreshold:
		return models.BandBorderline
	default:
		return models.BandNoHire
	}
}

// AtLeast returns true if b is at or above the target band.
func AtLeast(b, target models.Band) bool {
	return bandRank[b] >= bandRank[target]
}

// ParseBand converts a flag value such as "hire" or "strong-hire" to a Band.
func ParseBand(s string) (models.Band, error) {
	switch strings.NewReplacer("-", " ", "_", " ").Replace(strings.ToLower(strings.TrimSpace(s))) {
	case "strong hire":
		return models.BandStrongHire, nil
	case "hire":
		return models.BandHire, nil
	case "borderline":
		return models.BandBorderline, nil
	case "no hire":
		return models.BandNoHire, nil
	default:
		return models.BandNoHire, fmt.Errorf("invalid band %q: must be strong-hire, hire, borderline, or no-hire", s)
	}
}

// Aggregate builds the evaluation result from the checks reported for each
// module. Every configured module appears in the result; one with no checks
// scores zero. Checks for names outside the module set are ignored.
func Aggregate(checks map[string][]models.Check) *models.EvaluationResult {
	res := &models.EvaluationResult{
		MaxScore: MaxScore(),
		Modules:  make(models.ModuleSet, 0, len(modules)),
	}

	for _, m := range modules {
		mc := checks[m.Name]
		if mc == nil {
			mc = []models.Check{}
		}

		score := 0
		for _, c := range mc {
			score += c.PointsAwarded
		}

		res.Modules = append(res.Modules, models.ModuleResult{
			Name:   m.Name,
			Score:  score,
			Max:    m.MaxScore,
			Checks: mc,
		})
		res.TotalScore += score
	}

	res.Band = BandFor(res.TotalScore)
	return res
}
