package analyze

import (
	"regexp"
	"sort"
	"strings"
)

const maxKeyPhrases = 10

// Phrase is a recurring bigram or trigram with its frequency.
type Phrase struct {
	Text  string `json:"frase"`
	Count int    `json:"frecuencia"`
}

var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// KeyPhrases extracts the most frequent bigrams and trigrams from text.
// Phrases occurring only once or shorter than six characters are dropped.
// Ties break alphabetically so output is stable.
func KeyPhrases(text string, maxPhrases int) []Phrase {
	if text == "" {
		return nil
	}
	words := wordRe.FindAllString(strings.ToLower(text), -1)

	counts := make(map[string]int)
	for i := 0; i+1 < len(words); i++ {
		counts[words[i]+" "+words[i+1]]++
	}
	for i := 0; i+2 < len(words); i++ {
		counts[words[i]+" "+words[i+1]+" "+words[i+2]]++
	}

	phrases := make([]Phrase, 0, len(counts))
	for p, n := range counts {
		if n > 1 && len(p) > 5 {
			phrases = append(phrases, Phrase{Text: p, Count: n})
		}
	}
	sort.Slice(phrases, func(i, j int) bool {
		if phrases[i].Count == phrases[j].Count {
			return phrases[i].Text < phrases[j].Text
		}
		return phrases[i].Count > phrases[j].Count
	})
	if maxPhrases < len(phrases) {
		phrases = phrases[:maxPhrases]
	}
	return phrases
}
