package report

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/KaramelBytes/tabsight-cli/internal/profile"
	"github.com/KaramelBytes/tabsight-cli/internal/utils"
)

// Format names an output rendering.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
	FormatTerminal Format = "term"
)

// ParseFormat accepts the names used by --format and ?format=.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "html":
		return FormatHTML, nil
	case "term", "terminal", "table":
		return FormatTerminal, nil
	default:
		return "", fmt.Errorf("unknown format %q (want md, json, html or term)", s)
	}
}

// ContentType returns the HTTP content type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatTerminal:
		return "text/plain; charset=utf-8"
	default:
		return "text/markdown; charset=utf-8"
	}
}

// JSON renders s as indented JSON. Undefined statistics are null.
func JSON(s *profile.Summary) ([]byte, error) {
	return utils.PrettyJSON(s)
}

var sectionLine = regexp.MustCompile(`(?m)^\[([A-Z][A-Z ]+)\]$`)

// HTML renders the Markdown report as a standalone page.
func HTML(s *profile.Summary) []byte {
	md := sectionLine.ReplaceAllString(Markdown(s), "## $1\n")
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.HardLineBreak)
	title := "tabsight report"
	if s.Name != "" {
		title = s.Name + " - " + title
	}
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.CompletePage, Title: title})
	return markdown.ToHTML([]byte(md), p, r)
}

// Render dispatches on f.
func Render(s *profile.Summary, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return JSON(s)
	case FormatHTML:
		return HTML(s), nil
	case FormatTerminal:
		var b strings.Builder
		Terminal(&b, s)
		return []byte(b.String()), nil
	default:
		return []byte(Markdown(s)), nil
	}
}
