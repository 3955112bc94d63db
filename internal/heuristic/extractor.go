// Package heuristic implements the deterministic job-description extractor.
// It needs no network access and is always available as a fallback.
package heuristic

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spigell/skillmatrix/internal/matrix"
	"go.uber.org/zap"
)

// ExtractionError signals that the deterministic extractor produced a record
// that failed validation. It indicates a bug, not bad input, and is never retried.
type ExtractionError struct {
	Cause error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("heuristic extractor produced an invalid record: %v", e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// Extractor turns raw job-description text into a validated SkillMatrix.
// It is stateless after construction and safe for concurrent use.
type Extractor struct {
	keywords Keywords
	logger   *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithKeywords replaces the default keyword table.
func WithKeywords(k Keywords) Option {
	return func(e *Extractor) { e.keywords = k }
}

// WithLogger attaches a logger for debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Extractor with the default keyword table.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		keywords: DefaultKeywords(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs every field extractor over the document, synthesizes the
// summary and validates the assembled record. Any input, including an empty
// string, yields a record; only an internal inconsistency returns an error.
func (e *Extractor) Extract(document string) (*matrix.SkillMatrix, error) {
	doc := strings.TrimSpace(document)
	reqs := ExtractRequirements(doc)

	draft := &matrix.SkillMatrix{
		Title:      DetectTitle(doc),
		Seniority:  InferSeniority(doc),
		Skills:     e.keywords.Categorize(Tokenize(doc)),
		MustHave:   reqs.MustHave,
		NiceToHave: reqs.NiceToHave,
		Salary:     ParseSalary(doc),
	}
	draft.Summary = Summarize(draft)

	e.logger.Debug("heuristic draft assembled",
		zap.Int("document_length", utf8.RuneCountInString(doc)),
		zap.String("title", draft.Title),
		zap.String("seniority", string(draft.Seniority)),
		zap.Int("must_have", len(draft.MustHave)),
		zap.Int("nice_to_have", len(draft.NiceToHave)),
		zap.Bool("salary", draft.Salary != nil),
	)

	validated, err := matrix.Validate(draft)
	if err != nil {
		return nil, &ExtractionError{Cause: err}
	}

	return validated, nil
}
