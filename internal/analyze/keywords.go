package analyze

import (
	"regexp"
	"sort"
	"strings"
)

// adresKeywords are terms specific to ADRES and the Colombian health system.
var adresKeywords = []string{
	"adres", "administradora", "recursos", "seguridad social",
	"salud", "resolución", "concepto", "normograma",
	"eps", "ips", "prestadores", "afiliados", "cobertura",
	"pago", "reclamaciones", "tutela", "derecho", "fundamental",
}

// legalKeywords are generic legal and regulatory terms.
var legalKeywords = []string{
	"decreto", "ley", "resolución", "circular", "concepto",
	"jurisprudencia", "normativa", "reglamento", "disposición",
	"artículo", "parágrafo", "inciso", "literal",
}

// KeywordFindings reports per-keyword occurrence counts for one vocabulary.
// Density is matches per 100 words.
type KeywordFindings struct {
	Found   map[string]int `json:"palabras_encontradas"`
	Total   int            `json:"total_coincidencias"`
	Density float64        `json:"densidad_keywords"`
}

// LegalFindings combines legal term counts with the regulatory instrument
// numbers identified in the text, keyed by instrument kind.
type LegalFindings struct {
	Terms map[string]int      `json:"terminos_legales"`
	Norms map[string][]string `json:"normas_identificadas"`
}

// normPatterns extract instrument numbers: the instrument keyword, an
// optional "número"/"no." filler, then a digit run. Matched against
// lower-cased text.
var normPatterns = map[string]*regexp.Regexp{
	"resoluciones": regexp.MustCompile(`resolución\s+(?:número\s+|no\.?\s+)?(\d+)`),
	"decretos":     regexp.MustCompile(`decreto\s+(?:número\s+|no\.?\s+)?(\d+)`),
	"leyes":        regexp.MustCompile(`ley\s+(?:número\s+|no\.?\s+)?(\d+)`),
	"articulos":    regexp.MustCompile(`artículo\s+(?:número\s+|no\.?\s+)?(\d+)`),
}

// countKeyword performs case-insensitive, word-boundary-exact counting, so a
// keyword embedded in a longer word ("eps" inside "epsilon") never matches.
func countKeyword(textLower, keyword string) int {
	re := keywordRes[keyword]
	if re == nil {
		re = regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(keyword)) + `\b`)
	}
	return len(re.FindAllStringIndex(textLower, -1))
}

// keywordRes precompiles the boundary patterns for both vocabularies.
var keywordRes = func() map[string]*regexp.Regexp {
	res := make(map[string]*regexp.Regexp)
	for _, vocab := range [][]string{adresKeywords, legalKeywords} {
		for _, kw := range vocab {
			res[kw] = regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(kw)) + `\b`)
		}
	}
	return res
}()

func findKeywords(text string, vocab []string) KeywordFindings {
	textLower := strings.ToLower(text)
	found := make(map[string]int)
	total := 0
	for _, kw := range vocab {
		if n := countKeyword(textLower, kw); n > 0 {
			found[kw] = n
			total += n
		}
	}
	words := len(strings.Fields(text))
	density := 0.0
	if words > 0 {
		density = float64(total) / float64(words) * 100
	}
	return KeywordFindings{Found: found, Total: total, Density: density}
}

func findLegalTerms(text string, vocab []string) LegalFindings {
	textLower := strings.ToLower(text)
	terms := make(map[string]int)
	for _, kw := range vocab {
		if n := countKeyword(textLower, kw); n > 0 {
			terms[kw] = n
		}
	}

	norms := make(map[string][]string)
	for kind, re := range normPatterns {
		seen := make(map[string]struct{})
		var nums []string
		for _, m := range re.FindAllStringSubmatch(textLower, -1) {
			if _, dup := seen[m[1]]; dup {
				continue
			}
			seen[m[1]] = struct{}{}
			nums = append(nums, m[1])
		}
		if len(nums) > 0 {
			sort.Strings(nums)
			norms[kind] = nums
		}
	}
	return LegalFindings{Terms: terms, Norms: norms}
}
