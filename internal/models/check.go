package models

import "fmt"

// Check is the atomic unit of grading. PointsAwarded is always clamped to
// [0, MaxPoints]. Passed is tracked separately from points so a partially
// credited check can still report that the bar was not cleared.
type Check struct {
	Name          string `json:"name"`
	MaxPoints     int    `json:"max_points"`
	PointsAwarded int    `json:"points_awarded"`
	Passed        bool   `json:"passed"`
	Details       string `json:"details"`
}

// NewCheck creates an all-or-nothing check: MaxPoints when passed, zero otherwise.
func NewCheck(name string, maxPoints int, passed bool, details string) Check {
	awarded := 0
	if passed {
		awarded = maxPoints
	}
	return PartialCheck(name, maxPoints, awarded, passed, details)
}

// PartialCheck creates a check with an explicit award.
func PartialCheck(name string, maxPoints, awarded int, passed bool, details string) Check {
	if maxPoints < 0 {
		maxPoints = 0
	}
	awarded = max(0, min(awarded, maxPoints))

	return Check{
		Name:          name,
		MaxPoints:     maxPoints,
		PointsAwarded: awarded,
		Passed:        passed,
		Details:       details,
	}
}

// ErrorCheck is the synthetic check recorded when a validator blows up. It
// carries no points in either direction.
func ErrorCheck(validator string, cause any) Check {
	return Check{
		Name:    fmt.Sprintf("Validator error (%s)", validator),
		Details: fmt.Sprint(cause),
	}
}
