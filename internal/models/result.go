package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Band is the categorical hiring recommendation derived from the total score.
type Band string

const (
	BandStrongHire Band = "Strong Hire"
	BandHire       Band = "Hire"
	BandBorderline Band = "Borderline"
	BandNoHire     Band = "No Hire"
)

// ModuleResult is one module's slice of the evaluation. Max is the
// configured module ceiling, not the sum of the check maxima. Name is the
// key the module is stored under in a ModuleSet.
type ModuleResult struct {
	Name   string  `json:"-"`
	Score  int     `json:"score"`
	Max    int     `json:"max"`
	Checks []Check `json:"checks"`
}

// Passed counts the checks in the module that cleared their bar.
func (m ModuleResult) Passed() int {
	n := 0
	for _, c := range m.Checks {
		if c.Passed {
			n++
		}
	}
	return n
}

// ModuleSet holds module results in evaluation order. It encodes as a JSON
// object keyed by module name, written and read back in that order.
type ModuleSet []ModuleResult

// MarshalJSON implements json.Marshaler.
func (s ModuleSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", m.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *ModuleSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("modules: expected an object, got %v", tok)
	}

	var out ModuleSet
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)

		var m ModuleResult
		if err := dec.Decode(&m); err != nil {
			return fmt.Errorf("module %s: %w", name, err)
		}
		m.Name = name
		out = append(out, m)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = out
	return nil
}

// EvaluationResult is the final verdict for a submission. It depends only on
// the submission's files and the keyword configuration.
type EvaluationResult struct {
	TotalScore int       `json:"total_score"`
	MaxScore   int       `json:"max_score"`
	Band       Band      `json:"band"`
	Modules    ModuleSet `json:"modules"`
}

// Module returns the named module result, or nil if it isn't present.
func (r *EvaluationResult) Module(name string) *ModuleResult {
	for i := range r.Modules {
		if r.Modules[i].Name == name {
			return &r.Modules[i]
		}
	}
	return nil
}

// Percent is the total as a whole percentage of the maximum.
func (r *EvaluationResult) Percent() int {
	if r.MaxScore <= 0 {
		return 0
	}
	return r.TotalScore * 100 / r.MaxScore
}

// RunInfo describes the invocation that produced a result.
type RunInfo struct {
	Submission string    `json:"submission,omitempty"`
	Quick      bool      `json:"quick"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms"`
}
