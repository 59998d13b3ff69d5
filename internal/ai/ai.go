// Package ai selects the scoring provider used by searches.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/cv-search/internal/ai/gemini"
	"github.com/spigell/cv-search/internal/logger"
	"github.com/spigell/cv-search/internal/scoring"
	"github.com/spigell/cv-search/internal/secrets"
)

const (
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)

// apiKeyEnv are the variables the Gemini SDK itself reads.
var apiKeyEnv = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}

// Config stores AI-related configuration.
type Config struct {
	Enabled bool
	// Provider is one of ProviderGemini or ProviderMock.
	Provider string
	// FallbackToText scores with the local text matcher when the provider fails.
	FallbackToText bool
	Gemini         *GeminiConfig
}

// GeminiConfig stores Gemini provider configuration.
type GeminiConfig struct {
	Model        string
	APIKey       string
	APIKeyFile   string
	Temperature  float32
	MaxTokens    int32
	MaxLogLength int
}

// NewScorer builds the scorer for cfg. A disabled AI or a missing API key
// yields the local text matcher.
func NewScorer(ctx context.Context, cfg *Config, log *zap.Logger) (scoring.Scorer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg == nil || !cfg.Enabled {
		log.Info("ai scoring is disabled, using text matching")
		return scoring.NewTextMatch(true), nil
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case ProviderMock:
		return scoring.NewMock(), nil

	case ProviderGemini:
		gcfg := cfg.Gemini
		if gcfg == nil {
			gcfg = &GeminiConfig{}
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: gcfg.APIKey,
			File:  gcfg.APIKeyFile,
			Env:   apiKeyEnv,
		})
		if errors.Is(err, secrets.ErrNotConfigured) {
			log.Info("ai api key is not configured, using text matching")
			return scoring.NewTextMatch(true), nil
		}
		if err != nil {
			log.Warn("ai api key is not available, using text matching", zap.Error(err))
			return scoring.NewTextMatch(true), nil
		}

		generator, err := gemini.NewGenerator(ctx, apiKey, gemini.Options{
			Model:       gcfg.Model,
			Temperature: gcfg.Temperature,
			MaxTokens:   gcfg.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini generator: %w", err)
		}

		scorer := gemini.NewScorer(generator, log, gcfg.MaxLogLength)
		logger.WithCommonFields(log, ProviderGemini, generator.Model()).Info("ai scoring is enabled")

		if !cfg.FallbackToText {
			return scorer, nil
		}
		return scoring.NewFallback(scorer, scoring.NewTextMatch(false), log), nil

	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.Provider)
	}
}
