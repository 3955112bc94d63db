// Package ai holds the contracts shared by remote model strategies and the
// repair loop that turns raw model output into a validated SkillMatrix.
package ai

import (
	"context"
	"fmt"

	"github.com/spigell/skillmatrix/internal/matrix"
)

// Extractor produces a validated SkillMatrix from a job description using a
// remote model. Failures are reported as *StrategyFailure.
type Extractor interface {
	Extract(ctx context.Context, document string) (*matrix.SkillMatrix, error)
}

// Attempt records the outcome of one remote call so the next call can repair it.
type Attempt struct {
	Number     int
	Raw        string
	Violations []matrix.Violation
}

// Attempter performs a single remote request. When previous is not nil the
// request must ask the model to fix the earlier output.
type Attempter interface {
	Attempt(ctx context.Context, document string, previous *Attempt) (string, error)
}

// StrategyFailure is returned when a remote strategy cannot produce a valid record.
type StrategyFailure struct {
	Provider string
	Message  string
	Cause    error
}

func (e *StrategyFailure) Error() string {
	prefix := "remote extraction failed"
	if e.Provider != "" {
		prefix = e.Provider + " extraction failed"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *StrategyFailure) Unwrap() error {
	return e.Cause
}
