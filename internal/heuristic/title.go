package heuristic

import (
	"regexp"
	"unicode/utf8"
)

const (
	// DefaultTitle is used when no label and no short first line exist.
	DefaultTitle = "Job Opportunity"

	maxFirstLineTitle = 80
)

var titleLabel = regexp.MustCompile(`(?i)(title|role|position)\s*[:\-]\s*(.+)`)

// DetectTitle picks the role title: an explicit "Title:"/"Role:"/"Position:"
// label anywhere in the document wins, then a short first line, then DefaultTitle.
func DetectTitle(doc string) string {
	if m := titleLabel.FindStringSubmatch(doc); m != nil {
		if title := NormalizeLine(m[2]); title != "" {
			return title
		}
	}

	for _, line := range lines(doc) {
		line = NormalizeLine(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) <= maxFirstLineTitle {
			return line
		}
		break
	}

	return DefaultTitle
}
