package analyze

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxTitles = 10

// Structure holds the structural heuristics detected in the text.
type Structure struct {
	Titles          []string `json:"posibles_titulos"`
	ListItems       int      `json:"elementos_lista"`
	Dates           []string `json:"fechas_encontradas"`
	FormalStructure bool     `json:"tiene_estructura_formal"`
}

var (
	// capitalizedTitleRe matches a capitalized line with no period anywhere.
	capitalizedTitleRe = regexp.MustCompile(`^[A-Z][^.]*[^.]$`)

	// listItemRe matches numbered/lettered items ("1.", "a)") and bullets.
	listItemRe = regexp.MustCompile(`^[0-9A-Za-z)]\.|^[-•*]\s|^[0-9A-Za-z]\)`)

	// datePatterns cover numeric, Spanish long-form, and English-style dates.
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`),
		regexp.MustCompile(`\d{1,2} de \w+ de \d{4}`),
		regexp.MustCompile(`\w+ \d{1,2}, \d{4}`),
	}
)

func analyzeStructure(text string) Structure {
	lines := strings.Split(text, "\n")

	titles := []string{}
	listItems := 0
	for _, line := range lines {
		clean := strings.TrimSpace(line)
		if clean == "" {
			continue
		}
		if isTitleLine(clean) && len(titles) < maxTitles {
			titles = append(titles, clean)
		}
		if listItemRe.MatchString(clean) {
			listItems++
		}
	}

	seen := make(map[string]struct{})
	dates := []string{}
	for _, re := range datePatterns {
		for _, m := range re.FindAllString(text, -1) {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			dates = append(dates, m)
		}
	}
	sort.Strings(dates)

	return Structure{
		Titles:          titles,
		ListItems:       listItems,
		Dates:           dates,
		FormalStructure: len(titles) > 0 && listItems > 0,
	}
}

// isTitleLine flags candidate titles: short fully upper-case lines, or
// capitalized lines of at most ten words with no embedded period.
func isTitleLine(line string) bool {
	if utf8.RuneCountInString(line) < 100 && isUpperLine(line) {
		return true
	}
	return capitalizedTitleRe.MatchString(line) && len(strings.Fields(line)) <= 10
}

// isUpperLine reports whether the line contains at least one letter and no
// lower-case letters.
func isUpperLine(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
