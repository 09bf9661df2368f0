package analyze

// Document type labels produced by classification.
const (
	DocGeneral        = "documento_general"
	DocADRESNormative = "documento_normativo_adres"
	DocADRES          = "documento_adres"
	DocLegal          = "documento_legal"
	DocEmpty          = "documento_vacio"
)

// Classification is the rule-based document type decision together with the
// raw metrics that produced it.
type Classification struct {
	DocumentType string   `json:"tipo_documento"`
	Confidence   float64  `json:"confianza"`
	IsADRES      bool     `json:"es_documento_adres"`
	IsLegal      bool     `json:"es_documento_legal"`
	Criteria     Criteria `json:"criterios_clasificacion"`
}

// Criteria are the inputs to the classification decision table.
type Criteria struct {
	ADRESDensity float64 `json:"densidad_adres"`
	LegalTerms   int     `json:"terminos_legales"`
	HasNorms     bool    `json:"tiene_normas"`
}

// classify applies the decision table in strict priority order. The rules
// compare the ADRES keyword density (matches per 100 words) against the
// count of distinct legal terms found.
//
// The IsADRES flag deliberately uses its own density threshold, independent
// of the tiered decision: a documento_general can still carry
// es_documento_adres=true. Product owners have been asked whether that
// disagreement is intended; until then the behavior is preserved.
func classify(adres KeywordFindings, legal LegalFindings) Classification {
	density := adres.Density
	legalTerms := len(legal.Terms)
	hasNorms := len(legal.Norms) > 0

	docType := DocGeneral
	confidence := 0.5

	switch {
	case density > 2 && legalTerms > 3:
		docType = DocADRESNormative
		confidence = 0.9
	case density > 1:
		docType = DocADRES
		confidence = 0.7
	case legalTerms > 2 || hasNorms:
		docType = DocLegal
		confidence = 0.6
	}

	return Classification{
		DocumentType: docType,
		Confidence:   confidence,
		IsADRES:      density > 0.5,
		IsLegal:      legalTerms > 1 || hasNorms,
		Criteria: Criteria{
			ADRESDensity: density,
			LegalTerms:   legalTerms,
			HasNorms:     hasNorms,
		},
	}
}
