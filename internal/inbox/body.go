package inbox

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nhle/dropterm/internal/model"
)

// BodyText returns the plain-text body of m. When the message has no
// text part, the text content of its HTML part is used instead.
func BodyText(m model.Message) string {
	if m.Text != "" {
		return m.Text
	}
	if m.HTML == "" {
		return ""
	}
	return htmlToText(m.HTML)
}

// htmlToText extracts readable text from an HTML body, dropping script
// and style content and collapsing runs of blank lines.
func htmlToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, head").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, tr, li, h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	var lines []string
	blank := false
	for _, line := range strings.Split(doc.Text(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(lines) > 0 {
				lines = append(lines, "")
			}
			blank = true
			continue
		}
		blank = false
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
