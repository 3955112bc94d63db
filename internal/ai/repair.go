package ai

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/spigell/skillmatrix/internal/logger"
	"github.com/spigell/skillmatrix/internal/matrix"
	"github.com/spigell/skillmatrix/internal/utils"
	"go.uber.org/zap"
)

const (
	// DefaultMaxAttempts is one initial request plus one repair request.
	DefaultMaxAttempts  = 2
	defaultMaxLogLength = 200
)

// RepairLoop drives an Attempter until its output validates or the attempt
// budget is spent. Every failed attempt is fed back to the next one together
// with its violations. Transport errors end the loop immediately since the
// attempter is expected to retry those itself.
type RepairLoop struct {
	attempter   Attempter
	provider    string
	maxAttempts int
	maxLogLen   int
	logger      *zap.Logger
}

// RepairOptions configures a RepairLoop.
type RepairOptions struct {
	Provider     string
	Model        string
	MaxAttempts  int
	MaxLogLength int
	Logger       *zap.Logger
}

// NewRepairLoop wraps the attempter. Non-positive limits fall back to defaults.
func NewRepairLoop(attempter Attempter, opts RepairOptions) *RepairLoop {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}

	return &RepairLoop{
		attempter:   attempter,
		provider:    opts.Provider,
		maxAttempts: opts.MaxAttempts,
		maxLogLen:   opts.MaxLogLength,
		logger:      logger.WithCommonFields(opts.Logger, opts.Provider, opts.Model),
	}
}

// Extract implements Extractor.
func (l *RepairLoop) Extract(ctx context.Context, document string) (*matrix.SkillMatrix, error) {
	if l == nil || l.attempter == nil {
		return nil, &StrategyFailure{Message: "remote strategy is not configured"}
	}

	var (
		previous *Attempt
		lastErr  error
	)

	for n := 1; n <= l.maxAttempts; n++ {
		if err := ctx.Err(); err != nil {
			return nil, &StrategyFailure{Provider: l.provider, Message: "request cancelled", Cause: err}
		}

		raw, err := l.attempter.Attempt(ctx, document, previous)
		if err != nil {
			return nil, &StrategyFailure{Provider: l.provider, Message: fmt.Sprintf("attempt %d", n), Cause: err}
		}

		l.logger.Debug("remote attempt response",
			zap.Int("attempt", n),
			zap.Int("response_length", utf8.RuneCountInString(raw)),
			zap.String("response_preview", utils.TruncateForLog(raw, l.maxLogLen)),
		)

		record, violations, err := l.check(raw)
		if err == nil {
			if n > 1 {
				l.logger.Info("remote output repaired", zap.Int("attempt", n))
			}
			return record, nil
		}

		lastErr = err
		previous = &Attempt{Number: n, Raw: raw, Violations: violations}

		l.logger.Warn("remote output rejected",
			zap.Int("attempt", n),
			zap.Int("max_attempts", l.maxAttempts),
			zap.Int("violations", len(violations)),
			zap.Error(err),
		)
	}

	return nil, &StrategyFailure{
		Provider: l.provider,
		Message:  fmt.Sprintf("no valid output after %d attempts", l.maxAttempts),
		Cause:    lastErr,
	}
}

func (l *RepairLoop) check(raw string) (*matrix.SkillMatrix, []matrix.Violation, error) {
	candidate, notes, err := Decode(raw)
	if err != nil {
		return nil, []matrix.Violation{{Path: "(root)", Message: err.Error()}}, err
	}

	if len(notes) > 0 {
		l.logger.Debug("remote output sanitized", zap.Strings("changes", notes))
	}

	record, err := matrix.Validate(candidate)
	if err != nil {
		var verr *matrix.ValidationError
		if errors.As(err, &verr) {
			return nil, verr.Violations, err
		}
		return nil, []matrix.Violation{{Path: "(root)", Message: err.Error()}}, err
	}

	return record, nil, nil
}
