// Package pdfdl discovers PDF links on scraped pages and downloads them
// sequentially with the same ethical-delay policy as the main pipeline.
package pdfdl

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/saluddigital/normascrape/internal/fetch"
)

// LinkInfo describes one discovered PDF link.
type LinkInfo struct {
	URL      string `json:"url"`
	Href     string `json:"href_original"`
	Text     string `json:"texto_enlace"`
	Filename string `json:"nombre_archivo"`
}

// pdfHrefPatterns mark links that serve PDFs without a .pdf path suffix.
var pdfHrefPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.pdf(\?|$)`),
	regexp.MustCompile(`/pdf/`),
	regexp.MustCompile(`type=pdf`),
	regexp.MustCompile(`format=pdf`),
}

// IsPDFLink reports whether href points at a PDF, by extension or by common
// URL indicators.
func IsPDFLink(href string) bool {
	h := strings.ToLower(strings.TrimSpace(href))
	if h == "" {
		return false
	}
	if strings.HasSuffix(h, ".pdf") {
		return true
	}
	for _, re := range pdfHrefPatterns {
		if re.MatchString(h) {
			return true
		}
	}
	return false
}

// FindPDFLinks collects every PDF link in doc, resolved against baseURL and
// validated against the same domain allowlist as page fetches. Links outside
// the allowlist are dropped, not errors.
func FindPDFLinks(doc *goquery.Document, baseURL string, allowed []string) []LinkInfo {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var links []LinkInfo
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || !IsPDFLink(href) {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		if !fetch.HostAllowed(abs, allowed) {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, LinkInfo{
			URL:      abs,
			Href:     href,
			Text:     strings.TrimSpace(a.Text()),
			Filename: filenameFromURL(abs),
		})
	})
	return links
}

// filenameFromURL derives a file name from the URL path. It returns "" when
// the path carries none; the downloader then names the file from its clock.
func filenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if name := path.Base(u.Path); strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return safeFilename(name)
	}
	return ""
}

var unsafeFilenameChars = regexp.MustCompile(`[^0-9A-Za-z._-]+`)

// safeFilename replaces characters that are unsafe on common filesystems.
func safeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}
