// Package analyze computes text statistics, keyword densities, structural
// heuristics, and a rule-based document classification for extracted
// government document text. All results are deterministic for a given input
// and the analyzer never fails on malformed text: empty or whitespace-only
// input yields the empty classification.
package analyze

import (
	"strings"
	"time"
)

const analyzerVersion = "2.0.0"

// Analysis aggregates every finding for one document. Field names in the
// serialized form follow the established output contract of the scraper.
type Analysis struct {
	BasicStats     BasicStats      `json:"estadisticas_basicas"`
	ADRESKeywords  KeywordFindings `json:"palabras_clave_adres"`
	LegalFindings  LegalFindings   `json:"palabras_clave_legales"`
	Structure      Structure       `json:"estructura_documento"`
	Classification Classification  `json:"clasificacion"`
	KeyPhrases     []Phrase        `json:"frases_clave,omitempty"`
	Metadata       Metadata        `json:"metadata_extraccion"`
}

// Metadata records when and for which source the analysis ran.
type Metadata struct {
	AnalyzedAt string `json:"fecha_analisis"`
	SourceURL  string `json:"url_origen,omitempty"`
	Version    string `json:"version_analizador"`
	Error      string `json:"error,omitempty"`
}

// Analyzer holds the fixed vocabularies and a clock. The zero value is not
// usable; construct with New.
type Analyzer struct {
	adresKeywords []string
	legalKeywords []string
	now           func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithClock replaces the timestamp source, used by tests for stable output.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// New returns an Analyzer with the standard ADRES and legal vocabularies.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		adresKeywords: adresKeywords,
		legalKeywords: legalKeywords,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs the full analysis over text. sourceURL is recorded in the
// result metadata and may be empty.
func (a *Analyzer) Analyze(text, sourceURL string) Analysis {
	if strings.TrimSpace(text) == "" {
		return a.emptyAnalysis(sourceURL)
	}

	res := Analysis{
		BasicStats:    basicStats(text),
		ADRESKeywords: findKeywords(text, a.adresKeywords),
		LegalFindings: findLegalTerms(text, a.legalKeywords),
		Structure:     analyzeStructure(text),
		KeyPhrases:    KeyPhrases(text, maxKeyPhrases),
		Metadata: Metadata{
			AnalyzedAt: a.now().Format(time.RFC3339),
			SourceURL:  sourceURL,
			Version:    analyzerVersion,
		},
	}
	res.Classification = classify(res.ADRESKeywords, res.LegalFindings)
	return res
}

// emptyAnalysis is the deterministic result for missing or blank text.
func (a *Analyzer) emptyAnalysis(sourceURL string) Analysis {
	return Analysis{
		ADRESKeywords: KeywordFindings{Found: map[string]int{}},
		LegalFindings: LegalFindings{Terms: map[string]int{}, Norms: map[string][]string{}},
		Structure:     Structure{Titles: []string{}, Dates: []string{}},
		Classification: Classification{
			DocumentType: DocEmpty,
			Confidence:   0,
		},
		Metadata: Metadata{
			AnalyzedAt: a.now().Format(time.RFC3339),
			SourceURL:  sourceURL,
			Version:    analyzerVersion,
			Error:      "texto vacío o no válido",
		},
	}
}
