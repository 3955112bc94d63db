// Package extraction runs the configured strategies in order until one of
// them yields a validated SkillMatrix.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/skillmatrix/internal/logger"
	"github.com/spigell/skillmatrix/internal/matrix"
	"go.uber.org/zap"
)

// ErrNoStrategy is returned when every strategy is disabled.
var ErrNoStrategy = errors.New("no extraction strategy is enabled")

// Strategy is a single way of turning a job description into a SkillMatrix.
type Strategy interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Extract(ctx context.Context, document string) (*matrix.SkillMatrix, error)
}

// Status represents runtime information about a strategy.
type Status struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// statusProvider is implemented by strategies that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// Failure records a strategy that ran and did not produce a record.
type Failure struct {
	Strategy string
	Err      error
}

// Result is the outcome of a successful run.
type Result struct {
	Matrix   *matrix.SkillMatrix
	Strategy string
	// Failures lists the strategies that failed before Strategy succeeded.
	Failures []Failure
}

// Degraded reports whether a preferred strategy failed before the result was produced.
func (r *Result) Degraded() bool {
	return r != nil && len(r.Failures) > 0
}

// FailureMessage joins the failure messages of earlier strategies.
func (r *Result) FailureMessage() string {
	if r == nil {
		return ""
	}
	return joinFailures(r.Failures)
}

// ExhaustedError is returned when every enabled strategy failed.
type ExhaustedError struct {
	Failures []Failure
}

func (e *ExhaustedError) Error() string {
	return "all extraction strategies failed: " + joinFailures(e.Failures)
}

func (e *ExhaustedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

func joinFailures(failures []Failure) string {
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Strategy, f.Err))
	}
	return strings.Join(parts, "; ")
}

// DisableByName marks the strategy with the provided name as disabled while keeping it in the list.
func DisableByName(strategies []Strategy, name, reason string) {
	for _, s := range strategies {
		if s.Name() == name {
			s.Disable(reason)
		}
	}
}

// Run tries the enabled strategies in order. The first record that passes
// validation wins; earlier failures are kept on the result.
func Run(ctx context.Context, log *zap.Logger, strategies []Strategy, document string) (*Result, error) {
	log = logger.WithFields(log)

	var failures []Failure
	ran := 0
	for _, s := range strategies {
		if !s.IsEnabled() {
			log.Debug("strategy disabled", zap.String(logger.FieldStrategy, s.Name()))
			continue
		}
		ran++

		record, err := s.Extract(ctx, document)
		if err == nil {
			record, err = matrix.Validate(record)
		}
		if err != nil {
			log.Warn("strategy failed",
				zap.String(logger.FieldStrategy, s.Name()),
				zap.Error(err),
			)
			failures = append(failures, Failure{Strategy: s.Name(), Err: err})
			continue
		}

		log.Info("extraction step",
			zap.String(logger.FieldStrategy, s.Name()),
			zap.Int("failed_before", len(failures)),
			zap.String("title", record.Title),
			zap.String("seniority", string(record.Seniority)),
		)

		return &Result{Matrix: record, Strategy: s.Name(), Failures: failures}, nil
	}

	if ran == 0 {
		return nil, ErrNoStrategy
	}
	return nil, &ExhaustedError{Failures: failures}
}

// Describe returns status entries for the provided strategies.
func Describe(strategies []Strategy) []Status {
	statuses := make([]Status, 0, len(strategies))
	for _, s := range strategies {
		if reporter, ok := s.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    s.Name(),
			Enabled: s.IsEnabled(),
		})
	}
	return statuses
}

// Pipeline binds an ordered strategy list to a logger.
type Pipeline struct {
	strategies []Strategy
	logger     *zap.Logger
}

// NewPipeline creates a Pipeline over the strategies in the given order.
func NewPipeline(log *zap.Logger, strategies ...Strategy) *Pipeline {
	return &Pipeline{strategies: strategies, logger: logger.WithFields(log)}
}

// Extract runs the strategies over the document.
func (p *Pipeline) Extract(ctx context.Context, document string) (*Result, error) {
	return Run(ctx, p.logger, p.strategies, document)
}

// Describe reports the status of every strategy in the pipeline.
func (p *Pipeline) Describe() []Status {
	return Describe(p.strategies)
}
