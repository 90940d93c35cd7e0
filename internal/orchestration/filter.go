package orchestration

import (
	"path/filepath"
)

// FilterModules returns the subset of names matching at least one of the
// given glob patterns, in the order of names, along with the patterns that
// matched nothing. A malformed pattern matches nothing. An empty patterns
// slice returns all names unchanged.
func FilterModules(names, patterns []string) (matched, unmatched []string) {
	if len(patterns) == 0 {
		return names, nil
	}

	hits := make([]bool, len(patterns))
	for _, name := range names {
		if matchesAny(name, patterns, hits) {
			matched = append(matched, name)
		}
	}

	for i, p := range patterns {
		if !hits[i] {
			unmatched = append(unmatched, p)
		}
	}
	return matched, unmatched
}

// matchesAny reports whether name matches any pattern, marking every pattern
// that matched in hits.
func matchesAny(name string, patterns []string, hits []bool) bool {
	matched := false
	for i, p := range patterns {
		if ok, err := filepath.Match(p, name); err == nil && ok {
			hits[i] = true
			matched = true
		}
	}
	return matched
}
