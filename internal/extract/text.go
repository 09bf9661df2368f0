package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// nonContentSelector matches elements that never contribute readable
// document text: code, styling, and page chrome.
const nonContentSelector = "script, style, nav, header, footer, aside, noscript"

// CleanText extracts normalized plain text from a resolved content container.
// Non-content descendants are removed from the selection in place, then every
// text run is emitted on its own line: lines are trimmed, empty lines are
// dropped, and the remainder is joined with single newlines.
func CleanText(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	sel.Find(nonContentSelector).Remove()

	var b strings.Builder
	for _, n := range sel.Nodes {
		collectText(&b, n)
	}
	return normalizeLines(b.String())
}

// collectText walks the node tree and writes each text node on its own line,
// mirroring line-break separation between block-level text runs.
func collectText(b *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteString("\n")
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

// normalizeLines trims every line, drops blanks, and rejoins with single
// newlines so runs of blank lines collapse entirely.
func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}
