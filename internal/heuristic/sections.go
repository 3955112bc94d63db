package heuristic

import (
	"regexp"
	"strings"
)

type section int

const (
	sectionOther section = iota
	sectionMust
	sectionNice
)

var (
	mustHeader = regexp.MustCompile(`^(requirements|must[-\s]?have|qualifications|required skills?)\b`)
	niceHeader = regexp.MustCompile(`^(nice[-\s]?to[-\s]?have|preferred|bonus|optional)\b`)
	bulletLine = regexp.MustCompile(`^\s*(?:[-*•]|\d+\.)\s*(.+)$`)
)

// Requirements holds bullet items collected under requirement headers.
type Requirements struct {
	MustHave   []string
	NiceToHave []string
}

// ExtractRequirements walks the document line by line. Header lines switch the
// active section and are discarded. Bullets are kept only while a must-have or
// nice-to-have section is active; prose lines are always ignored.
func ExtractRequirements(doc string) Requirements {
	must := make([]string, 0)
	nice := make([]string, 0)
	current := sectionOther

	for _, raw := range lines(doc) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case mustHeader.MatchString(lower):
			current = sectionMust
			continue
		case niceHeader.MatchString(lower):
			current = sectionNice
			continue
		}

		m := bulletLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		item := NormalizeLine(m[1])
		if item == "" {
			continue
		}

		switch current {
		case sectionMust:
			must = append(must, item)
		case sectionNice:
			nice = append(nice, item)
		}
	}

	return Requirements{
		MustHave:   uniqueStrings(must),
		NiceToHave: uniqueStrings(nice),
	}
}
