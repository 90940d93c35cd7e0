package history

import "fmt"

// TrendLabel classifies a run against the candidate's previous one.
type TrendLabel string

const (
	TrendFirstRun  TrendLabel = "FIRST_RUN"
	TrendImproving TrendLabel = "IMPROVING"
	TrendDeclining TrendLabel = "DECLINING"
	TrendSame      TrendLabel = "SAME"
)

// Trend compares a run's total with the previous total for the same candidate.
type Trend struct {
	Previous int        `json:"previous"`
	Current  int        `json:"current"`
	Delta    int        `json:"delta"`
	Label    TrendLabel `json:"label"`
}

// NewTrend builds the trend for current given the previous total, nil when
// there is none.
func NewTrend(previous *int, current int) Trend {
	if previous == nil {
		return Trend{Current: current, Label: TrendFirstRun}
	}

	t := Trend{Previous: *previous, Current: current, Delta: current - *previous}
	switch {
	case t.Delta > 0:
		t.Label = TrendImproving
	case t.Delta < 0:
		t.Label = TrendDeclining
	default:
		t.Label = TrendSame
	}
	return t
}

func (t Trend) String() string {
	if t.Label == TrendFirstRun {
		return fmt.Sprintf("%s (%d)", t.Label, t.Current)
	}
	return fmt.Sprintf("%s %+d (%d -> %d)", t.Label, t.Delta, t.Previous, t.Current)
}
