package analyze

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// BasicStats are raw size and shape measurements of the text.
type BasicStats struct {
	Chars               int     `json:"caracteres_total"`
	CharsNoSpaces       int     `json:"caracteres_sin_espacios"`
	Words               int     `json:"palabras_total"`
	Sentences           int     `json:"oraciones_total"`
	Paragraphs          int     `json:"parrafos_total"`
	AvgWordsPerSentence float64 `json:"promedio_palabras_por_oracion"`
	AvgCharsPerWord     float64 `json:"promedio_caracteres_por_palabra"`
}

// sentenceEndRe splits on sentence terminators followed by whitespace.
// Deliberately naive: abbreviations and numbered citations ("Art. 5")
// mis-split, matching the long-standing reported statistics.
var sentenceEndRe = regexp.MustCompile(`[.!?]+\s+`)

func basicStats(text string) BasicStats {
	words := strings.Fields(text)
	sentences := splitSentences(text)
	paragraphs := splitParagraphs(text)

	var wordChars int
	for _, w := range words {
		wordChars += utf8.RuneCountInString(w)
	}

	return BasicStats{
		Chars:               utf8.RuneCountInString(text),
		CharsNoSpaces:       utf8.RuneCountInString(strings.ReplaceAll(text, " ", "")),
		Words:               len(words),
		Sentences:           len(sentences),
		Paragraphs:          len(paragraphs),
		AvgWordsPerSentence: float64(len(words)) / float64(max(len(sentences), 1)),
		AvgCharsPerWord:     float64(wordChars) / float64(max(len(words), 1)),
	}
}

func splitSentences(text string) []string {
	parts := sentenceEndRe.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func splitParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
