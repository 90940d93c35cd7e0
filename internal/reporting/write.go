// Package reporting renders evaluation results as Markdown, JSON, JUnit XML,
// HTML and console summaries.
package reporting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spboyer/hirebench/internal/models"
)

// Format is a report output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatJUnit    Format = "junit"
	FormatHTML     Format = "html"
)

// ParseFormat converts a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "junit", "xml":
		return FormatJUnit, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("invalid report format %q: must be json, markdown, junit, or html", s)
	}
}

// FormatForPath picks the format from a file extension. Unknown extensions
// get JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".xml":
		return FormatJUnit
	case ".html", ".htm":
		return FormatHTML
	default:
		return FormatJSON
	}
}

// JSON renders the result as indented JSON.
func JSON(res *models.EvaluationResult) ([]byte, error) {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON report: %w", err)
	}
	return data, nil
}

// Render renders the result in the given format. info feeds the formats that
// carry run metadata (JUnit, HTML).
func Render(res *models.EvaluationResult, info models.RunInfo, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return JSON(res)
	case FormatMarkdown:
		return []byte(Markdown(res)), nil
	case FormatJUnit:
		var buf bytes.Buffer
		if err := EncodeJUnit(&buf, res, info); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatHTML:
		return HTML(res, info)
	default:
		return nil, fmt.Errorf("'%s' is not a valid report format", format)
	}
}

// Write writes the report to path in the format implied by its extension,
// creating parent directories as needed.
func Write(res *models.EvaluationResult, info models.RunInfo, path string) error {
	data, err := Render(res, info, FormatForPath(path))
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
