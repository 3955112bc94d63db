package heuristic

import (
	"regexp"
	"strings"
)

var tokenNoise = regexp.MustCompile(`[^\p{L}\p{N}+#/.\s-]`)

// NormalizeLine trims the line and collapses inner whitespace runs to a single
// space. Unicode spaces such as U+00A0 count as whitespace.
func NormalizeLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Tokenize lower-cases the document, blanks out everything except letters,
// digits, whitespace and the characters + # . / -, then splits on whitespace.
// Token order is preserved and repeats are kept.
func Tokenize(doc string) []string {
	cleaned := tokenNoise.ReplaceAllString(strings.ToLower(doc), " ")
	return strings.Fields(cleaned)
}

func lines(doc string) []string {
	return strings.Split(strings.ReplaceAll(doc, "\r\n", "\n"), "\n")
}

func uniqueStrings(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
