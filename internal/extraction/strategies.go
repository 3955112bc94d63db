package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/skillmatrix/internal/ai"
	"github.com/spigell/skillmatrix/internal/heuristic"
	"github.com/spigell/skillmatrix/internal/matrix"
)

const (
	// StrategyRemote names the model-backed strategy.
	StrategyRemote = "remote"
	// StrategyHeuristic names the deterministic strategy.
	StrategyHeuristic = "heuristic"
)

// Mode selects which strategies take part in a run.
type Mode string

const (
	// ModeAuto tries the remote strategy first and falls back to the heuristic.
	ModeAuto Mode = "auto"
	// ModeRemote uses the remote strategy only.
	ModeRemote Mode = "remote"
	// ModeHeuristic uses the heuristic strategy only.
	ModeHeuristic Mode = "heuristic"
)

// Modes lists the accepted modes.
var Modes = []Mode{ModeAuto, ModeRemote, ModeHeuristic}

// ParseMode converts a configuration value into a Mode. Empty means ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeRemote:
		return ModeRemote, nil
	case ModeHeuristic:
		return ModeHeuristic, nil
	}
	return "", fmt.Errorf("unknown strategy %q (expected auto, remote or heuristic)", s)
}

// Select orders the strategies for a mode: remote first, heuristic last. The
// strategy excluded by the mode stays in the list but is disabled so that it
// still shows up in status reports.
func Select(mode Mode, remote, fallback Strategy) []Strategy {
	strategies := []Strategy{remote, fallback}
	switch mode {
	case ModeRemote:
		DisableByName(strategies, StrategyHeuristic, "strategy set to remote")
	case ModeHeuristic:
		DisableByName(strategies, StrategyRemote, "strategy set to heuristic")
	}
	return strategies
}

type remoteStrategy struct {
	enabled   bool
	reason    string
	extractor ai.Extractor
	timeout   time.Duration
	details   map[string]string
}

// RemoteConfig describes the remote strategy for status reports and limits.
type RemoteConfig struct {
	Provider    string
	Model       string
	MaxAttempts int
	MaxRetries  int
	Timeout     time.Duration
}

// NewRemote wraps a remote extractor. A nil extractor yields a disabled strategy.
func NewRemote(extractor ai.Extractor, cfg RemoteConfig) Strategy {
	s := &remoteStrategy{
		enabled:   extractor != nil,
		extractor: extractor,
		timeout:   cfg.Timeout,
		details:   map[string]string{},
	}
	if extractor == nil {
		s.reason = "remote model is not configured"
	}

	if cfg.Provider != "" {
		s.details["provider"] = cfg.Provider
	}
	if cfg.Model != "" {
		s.details["model"] = cfg.Model
	}
	if cfg.MaxAttempts > 0 {
		s.details["max_attempts"] = fmt.Sprint(cfg.MaxAttempts)
	}
	if cfg.MaxRetries > 0 {
		s.details["max_retries"] = fmt.Sprint(cfg.MaxRetries)
	}
	if cfg.Timeout > 0 {
		s.details["timeout"] = cfg.Timeout.String()
	}
	return s
}

func (s *remoteStrategy) Name() string { return StrategyRemote }

func (s *remoteStrategy) Disable(reason string) {
	s.enabled = false
	if s.reason == "" {
		s.reason = reason
	}
}

func (s *remoteStrategy) IsEnabled() bool { return s.enabled }

func (s *remoteStrategy) Extract(ctx context.Context, document string) (*matrix.SkillMatrix, error) {
	if s.extractor == nil {
		return nil, &ai.StrategyFailure{Message: s.reason}
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.extractor.Extract(ctx, document)
}

func (s *remoteStrategy) Status() Status {
	return Status{Name: s.Name(), Enabled: s.enabled, Reason: s.reason, Details: s.details}
}

type heuristicStrategy struct {
	enabled   bool
	reason    string
	extractor *heuristic.Extractor
}

// NewHeuristic wraps the deterministic extractor. A nil extractor uses the defaults.
func NewHeuristic(extractor *heuristic.Extractor) Strategy {
	if extractor == nil {
		extractor = heuristic.New()
	}
	return &heuristicStrategy{enabled: true, extractor: extractor}
}

func (s *heuristicStrategy) Name() string { return StrategyHeuristic }

func (s *heuristicStrategy) Disable(reason string) {
	s.enabled = false
	s.reason = reason
}

func (s *heuristicStrategy) IsEnabled() bool { return s.enabled }

func (s *heuristicStrategy) Extract(ctx context.Context, document string) (*matrix.SkillMatrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.extractor.Extract(document)
}

func (s *heuristicStrategy) Status() Status {
	return Status{Name: s.Name(), Enabled: s.enabled, Reason: s.reason}
}
