package heuristic

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/spigell/skillmatrix/internal/matrix"
)

const (
	maxSummaryWords   = 60
	summaryHighlights = 3
	ellipsis          = "…"
)

// Summarize renders the human-readable summary of a draft record. The result
// never exceeds 60 words (plus an ellipsis) nor matrix.MaxSummaryLength code points.
func Summarize(m *matrix.SkillMatrix) string {
	parts := make([]string, 0, 4)

	role := "role"
	if m.Seniority != "" && m.Seniority != matrix.SeniorityUnknown {
		role = string(m.Seniority) + " role"
	}
	parts = append(parts, fmt.Sprintf("Detected %s: %s.", role, m.Title))

	highlights := make([]string, 0, len(matrix.Categories))
	for _, c := range matrix.Categories {
		values := m.Skills.Get(c)
		if len(values) == 0 {
			continue
		}
		highlights = append(highlights, fmt.Sprintf("%s (%s)", c, strings.Join(head(values, summaryHighlights), ", ")))
	}
	if len(highlights) > 0 {
		parts = append(parts, fmt.Sprintf("Key skills include %s.", strings.Join(highlights, ", ")))
	}

	if len(m.MustHave) > 0 {
		parts = append(parts, fmt.Sprintf("Core requirements mention %s.", strings.Join(head(m.MustHave, summaryHighlights), ", ")))
	}

	if m.Salary != nil {
		bounds := make([]string, 0, 2)
		for _, v := range []*float64{m.Salary.Min, m.Salary.Max} {
			if v != nil && *v != 0 {
				bounds = append(bounds, strconv.FormatFloat(*v, 'f', -1, 64))
			}
		}
		sentence := "Advertised salary in " + string(m.Salary.Currency)
		if len(bounds) > 0 {
			sentence += ": " + strings.Join(bounds, "-")
		}
		parts = append(parts, sentence+".")
	}

	return capSummary(strings.TrimSpace(strings.Join(parts, " ")))
}

func capSummary(summary string) string {
	if words := strings.Fields(summary); len(words) > maxSummaryWords {
		summary = strings.Join(words[:maxSummaryWords], " ") + ellipsis
	}

	runes := []rune(summary)
	if len(runes) <= matrix.MaxSummaryLength {
		return summary
	}

	cut := strings.TrimRightFunc(string(runes[:matrix.MaxSummaryLength-3]), unicode.IsSpace)
	return cut + ellipsis
}

func head(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[:n]
}
