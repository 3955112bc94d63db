package heuristic

import (
	"unicode"
	"unicode/utf8"

	"github.com/spigell/skillmatrix/internal/matrix"
)

const minOtherTokenLength = 3

// Categorize buckets the tokens by keyword table. Named categories take every
// keyword present in the token stream. The "other" bucket then takes tokens of
// at least three characters that are not numeric, not already categorized and
// listed in the generic technology table, in first-seen order.
func (k Keywords) Categorize(tokens []string) matrix.Skills {
	present := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		present[tok] = struct{}{}
	}

	skills := matrix.NewSkills()
	categorized := make(map[string]struct{})

	for _, c := range matrix.Categories {
		if c == matrix.CategoryOther {
			continue
		}
		found := make([]string, 0)
		for _, word := range k.named[c] {
			if _, ok := present[word]; !ok {
				continue
			}
			found = append(found, word)
			categorized[word] = struct{}{}
		}
		skills.Set(c, uniqueStrings(found))
	}

	technologies := make(map[string]struct{}, len(k.technologies))
	for _, word := range k.technologies {
		technologies[word] = struct{}{}
	}

	other := make([]string, 0)
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) < minOtherTokenLength || isNumeric(tok) {
			continue
		}
		if _, ok := categorized[tok]; ok {
			continue
		}
		if _, ok := technologies[tok]; !ok {
			continue
		}
		other = append(other, tok)
	}
	skills.Set(matrix.CategoryOther, uniqueStrings(other))

	return skills
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
