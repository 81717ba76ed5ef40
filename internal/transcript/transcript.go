// Package transcript turns article HTML into the plain narration text
// attached to a playback unit. Source articles arrive as RSS content
// fragments, so most inputs are HTML; plain-text inputs pass through.
package transcript

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/narrifyapp/narrify-playback/internal/domain"
)

// htmlTagPattern matches common HTML tags to detect markup in a string.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote|article|figure)[\s>/]`)

// markdownNoise strips markdown syntax that should not be narrated.
var (
	linkPattern     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	imagePattern    = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	headingPattern  = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasisPattern = regexp.MustCompile(`[*_]{1,3}([^*_]+)[*_]{1,3}`)
)

func containsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// FromArticle converts one article body into narration text.
func FromArticle(body string) string {
	if body == "" {
		return ""
	}

	text := body
	if containsHTML(text) {
		markdown, err := htmltomarkdown.ConvertString(text)
		if err == nil {
			text = markdown
		}
		// On conversion failure the raw body is kept; better a noisy
		// transcript than a missing one.
	}

	text = imagePattern.ReplaceAllString(text, "")
	text = linkPattern.ReplaceAllString(text, "$1")
	text = headingPattern.ReplaceAllString(text, "")
	text = emphasisPattern.ReplaceAllString(text, "$1")

	return collapseBlankLines(strings.TrimSpace(text))
}

// Build assembles a unit transcript from per-chapter article bodies, in
// chapter order, each section introduced by its chapter title.
func Build(chapters []domain.Chapter, bodies map[string]string) string {
	var b strings.Builder
	for _, c := range chapters {
		body, ok := bodies[c.SourceURL]
		if !ok || body == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		if c.Title != "" {
			b.WriteString(c.Title)
			b.WriteString("\n\n")
		}
		b.WriteString(FromArticle(body))
	}
	return b.String()
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}
