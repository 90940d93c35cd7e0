package reporting

import (
	"bytes"
	"fmt"
	"html"

	"github.com/spboyer/hirebench/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const htmlHeader = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; max-width: 60rem; margin: 2rem auto; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.25rem 0.75rem; }
</style>
</head>
<body>
`

const htmlFooter = "</body>\n</html>\n"

// HTML renders the Markdown report as a standalone HTML page.
func HTML(res *models.EvaluationResult, info models.RunInfo) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(res)), &body); err != nil {
		return nil, fmt.Errorf("rendering HTML report: %w", err)
	}

	title := "Evaluation Report"
	if info.Submission != "" {
		title += " - " + info.Submission
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, htmlHeader, html.EscapeString(title))
	out.Write(body.Bytes())
	out.WriteString(htmlFooter)
	return out.Bytes(), nil
}
