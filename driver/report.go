package driver

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Report summarizes a check run as Markdown and renders it to HTML.
type Report struct {
	Title     string
	Generated time.Time
	Results   []FileResult
}

// Markdown renders the report as GitHub-flavoured Markdown.
func (r *Report) Markdown() string {
	var sb strings.Builder

	title := r.Title
	if title == "" {
		title = "Sigil check report"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if !r.Generated.IsZero() {
		fmt.Fprintf(&sb, "Generated %s.\n\n", r.Generated.Format(time.RFC1123))
	}

	failed := Failed(r.Results)
	fmt.Fprintf(&sb, "Checked %d files: %d ok, %d failed.\n\n", len(r.Results), len(r.Results)-failed, failed)

	if len(r.Results) == 0 {
		return sb.String()
	}

	sb.WriteString("| File | Status | Location | Message |\n")
	sb.WriteString("|------|--------|----------|---------|\n")
	for _, res := range r.Results {
		status, location, message := "ok", "", ""
		if !res.OK() {
			status = "**" + res.Err.Code + "**"
			if res.Err.Code == "" {
				status = "**error**"
			}
			if res.Err.Line > 0 {
				location = fmt.Sprintf("%d:%d", res.Err.Line, res.Err.Column)
			}
			message = res.Err.Message
		}
		if res.Cached {
			status += " (cached)"
		}
		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n", res.Path, status, location, escapeCell(message))
	}

	if failed == 0 {
		return sb.String()
	}

	sb.WriteString("\n## Diagnostics\n")
	for _, res := range r.Results {
		if res.OK() {
			continue
		}
		fmt.Fprintf(&sb, "\n### %s\n\n", res.Path)
		sb.WriteString("```\n")
		sb.WriteString(res.Err.String())
		sb.WriteString("\n```\n")
	}
	return sb.String()
}

// HTML renders the report as a standalone HTML page.
func (r *Report) HTML() (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)

	var body bytes.Buffer
	if err := md.Convert([]byte(r.Markdown()), &body); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}

	title := r.Title
	if title == "" {
		title = "Sigil check report"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(title))
	sb.WriteString("<style>body{font-family:sans-serif;max-width:60em;margin:2em auto}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:.3em .6em}</style>\n")
	sb.WriteString("</head>\n<body>\n")
	sb.Write(body.Bytes())
	sb.WriteString("</body>\n</html>\n")
	return sb.String(), nil
}

// WriteFile renders the report to path as HTML.
func (r *Report) WriteFile(path string) error {
	page, err := r.HTML()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(page), 0644)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
