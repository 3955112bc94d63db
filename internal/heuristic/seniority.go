package heuristic

import (
	"regexp"

	"github.com/spigell/skillmatrix/internal/matrix"
)

type seniorityRule struct {
	level   matrix.Seniority
	pattern *regexp.Regexp
}

// Rules are checked in order and the first hit wins, so a posting that
// mentions both "senior" and "lead" resolves to senior.
var seniorityRules = []seniorityRule{
	{matrix.SeniorityJunior, regexp.MustCompile(`(?i)\bjunior\b`)},
	{matrix.SeniorityMid, regexp.MustCompile(`(?i)\bmid(?:-level)?\b`)},
	{matrix.SenioritySenior, regexp.MustCompile(`(?i)\bsenior\b`)},
	{matrix.SeniorityLead, regexp.MustCompile(`(?i)\blead(?:ing)?\b`)},
}

// InferSeniority returns the first seniority whose whole-word pattern occurs
// in the document, or matrix.SeniorityUnknown.
func InferSeniority(doc string) matrix.Seniority {
	for _, rule := range seniorityRules {
		if rule.pattern.MatchString(doc) {
			return rule.level
		}
	}
	return matrix.SeniorityUnknown
}
