package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/skillmatrix/internal/ai"
	"github.com/spigell/skillmatrix/internal/ai/gemini"
	"github.com/spigell/skillmatrix/internal/extraction"
	"github.com/spigell/skillmatrix/internal/heuristic"
	"github.com/spigell/skillmatrix/internal/logger"
	"github.com/spigell/skillmatrix/internal/matrix"
	"github.com/spigell/skillmatrix/internal/secrets"
	"go.uber.org/zap"
)

// newPipeline builds the ordered strategy list for the mode. In auto mode an
// unusable remote model only disables the remote strategy; in remote mode it
// is an error.
func newPipeline(ctx context.Context, config *Config, mode extraction.Mode, log *zap.Logger) (*extraction.Pipeline, error) {
	fallback := extraction.NewHeuristic(heuristic.New(
		heuristic.WithKeywords(keywordTable(config.Keywords)),
		heuristic.WithLogger(logger.WithStrategy(log, extraction.StrategyHeuristic)),
	))

	var remote extraction.Strategy
	if mode == extraction.ModeHeuristic {
		remote = extraction.NewRemote(nil, remoteConfig(config.AI))
	} else {
		extractor, err := newRemoteExtractor(ctx, config.AI, logger.WithStrategy(log, extraction.StrategyRemote))
		if err != nil {
			if mode == extraction.ModeRemote {
				return nil, fmt.Errorf("preparing remote strategy: %w", err)
			}
			if errors.Is(err, errAIDisabled) {
				log.Debug("remote strategy disabled", zap.Error(err))
			} else {
				log.Warn("remote strategy unavailable, using heuristic only", zap.Error(err))
			}
		}

		var remoteExtractor ai.Extractor
		if extractor != nil {
			remoteExtractor = extractor
		}
		remote = extraction.NewRemote(remoteExtractor, remoteConfig(config.AI))
	}

	return extraction.NewPipeline(log, extraction.Select(mode, remote, fallback)...), nil
}

var errAIDisabled = errors.New("ai.enabled is false")

func newRemoteExtractor(ctx context.Context, cfg *AIConfig, log *zap.Logger) (*ai.RepairLoop, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errAIDisabled
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		cfg.Gemini = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.Gemini.APIKeyFile,
		Value: cfg.Gemini.APIKey,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := logger.WithCommonFields(log, gemini.Provider, cfg.Gemini.Model).With(
		zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewExtractor(generator, cfg.Gemini.MaxAttempts, cfg.Gemini.MaxLogLength, log), nil
}

func remoteConfig(cfg *AIConfig) extraction.RemoteConfig {
	if cfg == nil || cfg.Gemini == nil {
		return extraction.RemoteConfig{}
	}
	return extraction.RemoteConfig{
		Provider:    gemini.Provider,
		Model:       cfg.Gemini.Model,
		MaxAttempts: cfg.Gemini.MaxAttempts,
		MaxRetries:  cfg.Gemini.MaxRetries,
		Timeout:     cfg.Gemini.Timeout,
	}
}

func keywordTable(cfg *KeywordsConfig) heuristic.Keywords {
	table := heuristic.DefaultKeywords()
	if cfg == nil {
		return table
	}
	return table.Extend(map[matrix.Category][]string{
		matrix.CategoryFrontend: cfg.Frontend,
		matrix.CategoryBackend:  cfg.Backend,
		matrix.CategoryDevops:   cfg.Devops,
		matrix.CategoryWeb3:     cfg.Web3,
		matrix.CategoryOther:    cfg.Technologies,
	})
}
