package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// containerSelectors is the ordered fallback list used to locate the main
// content element of a page. Government document templates vary widely, so
// the list runs from the most specific, semantically meaningful containers
// down to generic layout wrappers. Order matters and must not be reshuffled:
// the first selector whose match carries non-empty text wins, which keeps
// container resolution deterministic for a given input.
var containerSelectors = []string{
	"main",
	"article",
	"div#content",
	"div.content",
	"div.main-content",
	"div.document-content",
	"div.texto-concepto",
	"div.contenido-normograma",
	"section",
	"div#container",
	"div.container",
}

// ResolveMainContainer selects the best main-content element of doc.
// A selector only wins when its first match has non-empty stripped text;
// otherwise the search continues down the list. When nothing matches the
// document body is used. Returns nil only for documents without a body,
// which callers should treat as a parsing failure.
func ResolveMainContainer(doc *goquery.Document) *goquery.Selection {
	for _, sel := range containerSelectors {
		found := doc.Find(sel).First()
		if found.Length() > 0 && strings.TrimSpace(found.Text()) != "" {
			return found
		}
	}
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return nil
	}
	return body
}
