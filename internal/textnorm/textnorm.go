// Package textnorm strips template scaffolding from submitted files so that
// keyword and line-count heuristics only see what the candidate wrote.
// Every function here is idempotent.
package textnorm

import (
	"regexp"
	"strings"
)

var (
	htmlComment    = regexp.MustCompile(`(?s)<!--.*?-->`)
	tableSeparator = regexp.MustCompile(`^\|[\s\-|:]+\|$`)
	shellInline    = regexp.MustCompile(`\s+#\s.*$`)
)

// Prose removes Markdown template noise: HTML comments, headings, table
// separator rows, tables made only of empty cells and lone "-" bullets.
// Case is preserved.
func Prose(s string) string {
	for {
		next := htmlComment.ReplaceAllString(s, "")
		if next == s {
			break
		}
		s = next
	}

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#"):
		case tableSeparator.MatchString(trimmed):
		case trimmed == "-":
		default:
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// Style describes how a language marks comments.
type Style struct {
	// LineMarkers start a full-line comment once leading whitespace is trimmed.
	LineMarkers []string
	// inline strips a trailing comment from a code line.
	inline func(string) string
}

var (
	// Shell covers bash, iptables/nftables scripts and YAML.
	Shell = Style{
		LineMarkers: []string{"#"},
		inline:      func(line string) string { return shellInline.ReplaceAllString(line, "") },
	}

	// HCL covers Terraform. Inline "#" comments are cut only when no double
	// quote follows them on the line; this is a heuristic and can be fooled
	// by a '#' inside a string that is followed by another string.
	HCL = Style{
		LineMarkers: []string{"#", "//"},
		inline:      stripHCLInline,
	}
)

func stripHCLInline(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != '#' {
			continue
		}
		if !strings.Contains(line[i:], `"`) {
			return strings.TrimRight(line[:i], " \t")
		}
	}
	return line
}

// Code drops full-line comments and strips inline ones.
func Code(s string, style Style) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if style.isComment(line) {
			continue
		}
		if style.inline != nil {
			line = style.inline(line)
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func (st Style) isComment(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, m := range st.LineMarkers {
		if strings.HasPrefix(trimmed, m) {
			return true
		}
	}
	return false
}

// CodeLines counts non-blank lines that are not full-line comments.
func CodeLines(s string, style Style) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) == "" || style.isComment(line) {
			continue
		}
		n++
	}
	return n
}

// Substantial reports whether s carries at least minLines lines of real
// work: not blank, not a '#' comment, not a bare "pass" and not a TODO marker.
func Substantial(s string, minLines int) bool {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || trimmed == "pass" {
			continue
		}
		if strings.Contains(strings.ToLower(trimmed), "todo") {
			continue
		}
		n++
		if n >= minLines {
			return true
		}
	}
	return minLines <= 0
}

// NonEmptyLines counts lines with any non-whitespace content.
func NonEmptyLines(s string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
