// Package render turns stored descriptions and rich text into safe HTML.
package render

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// EmptyDescription is shown for a test without a description.
const EmptyDescription = "No description available."

// Format tells how a description was rendered.
type Format string

const (
	FormatEmpty    Format = "empty"
	FormatBullets  Format = "bullets"
	FormatMarkdown Format = "markdown"
)

// Rendered is a description ready for display. Lines is set for the
// bullet format only.
type Rendered struct {
	Format Format   `json:"format"`
	HTML   string   `json:"html"`
	Lines  []string `json:"lines,omitempty"`
}

var (
	markdownMarkers = regexp.MustCompile("(?m)^#+\\s|^\\*\\s|^-\\s|^\\d+\\.\\s|^\\*\\*|^__|^`|\\[.*\\]\\(.*\\)")

	md = goldmark.New()

	ugc = func() *bluemonday.Policy {
		p := bluemonday.UGCPolicy()
		p.AddTargetBlankToFullyQualifiedLinks(true)
		return p
	}()
)

// Description renders a test description. Text without markdown markers that
// spans several non-blank lines is an older format and becomes a bullet list
// of its trimmed lines. Everything else is rendered as markdown.
func Description(s string) Rendered {
	if strings.TrimSpace(s) == "" {
		return Rendered{Format: FormatEmpty, HTML: "<p>" + EmptyDescription + "</p>"}
	}

	if lines := nonBlankLines(s); !markdownMarkers.MatchString(s) && len(lines) > 1 {
		var b strings.Builder
		b.WriteString("<ul>")
		for _, line := range lines {
			b.WriteString("<li>")
			b.WriteString(html.EscapeString(line))
			b.WriteString("</li>")
		}
		b.WriteString("</ul>")
		return Rendered{Format: FormatBullets, HTML: b.String(), Lines: lines}
	}

	return Rendered{Format: FormatMarkdown, HTML: Markdown(s)}
}

// Markdown renders CommonMark source to sanitized HTML.
func Markdown(s string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(s), &buf); err != nil {
		return "<p>" + html.EscapeString(s) + "</p>"
	}
	return ugc.Sanitize(buf.String())
}

// RichText sanitizes HTML produced by the question editor.
func RichText(s string) string {
	return ugc.Sanitize(s)
}

func nonBlankLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			out = append(out, t)
		}
	}
	return out
}
