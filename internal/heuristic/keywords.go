package heuristic

import (
	"strings"

	"github.com/spigell/skillmatrix/internal/matrix"
)

// Keywords is an immutable keyword table. Named categories map to the tokens
// that place a skill in them; Technologies is the generic list consulted for
// the "other" bucket.
type Keywords struct {
	named        map[matrix.Category][]string
	technologies []string
}

// DefaultKeywords returns the built-in keyword table.
func DefaultKeywords() Keywords {
	return Keywords{
		named: map[matrix.Category][]string{
			matrix.CategoryFrontend: {"react", "vue", "angular", "next"},
			matrix.CategoryBackend:  {"node", "express", "django", "nest"},
			matrix.CategoryDevops:   {"docker", "aws", "ci", "kubernetes"},
			matrix.CategoryWeb3:     {"solidity", "wagmi", "viem", "merkle", "staking"},
		},
		technologies: []string{
			"typescript", "javascript", "python", "java", "go", "graphql", "rest", "sql",
			"redis", "postgres", "mysql", "tailwind", "sass", "terraform", "gcp", "azure",
		},
	}
}

// Named returns a copy of the keywords for a named category.
func (k Keywords) Named(c matrix.Category) []string {
	return append([]string(nil), k.named[c]...)
}

// Technologies returns a copy of the generic technology list.
func (k Keywords) Technologies() []string {
	return append([]string(nil), k.technologies...)
}

// Extend returns a new table with the extra keywords appended. Keywords are
// lower-cased and trimmed; blanks and duplicates are skipped. The receiver is
// not modified. Additions under matrix.CategoryOther extend Technologies.
func (k Keywords) Extend(extra map[matrix.Category][]string) Keywords {
	out := Keywords{
		named:        make(map[matrix.Category][]string, len(k.named)),
		technologies: k.Technologies(),
	}
	for c, words := range k.named {
		out.named[c] = append([]string(nil), words...)
	}

	for c, words := range extra {
		cleaned := make([]string, 0, len(words))
		for _, w := range words {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
				cleaned = append(cleaned, w)
			}
		}

		if c == matrix.CategoryOther {
			out.technologies = uniqueStrings(append(out.technologies, cleaned...))
			continue
		}
		if _, ok := out.named[c]; !ok {
			continue
		}
		out.named[c] = uniqueStrings(append(out.named[c], cleaned...))
	}

	return out
}
