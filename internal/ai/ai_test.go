package ai

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spigell/cv-search/internal/scoring"
)

func TestNewScorerSelectsProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      *Config
		wantName string
		wantErr  string
	}{
		{name: "nil config", cfg: nil, wantName: "text"},
		{name: "disabled", cfg: &Config{Enabled: false, Provider: ProviderGemini}, wantName: "text"},
		{name: "mock", cfg: &Config{Enabled: true, Provider: " Mock "}, wantName: "mock"},
		{name: "unsupported", cfg: &Config{Enabled: true, Provider: "openai"}, wantErr: "unsupported ai provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			scorer, err := NewScorer(context.Background(), tt.cfg, nil)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if scorer.Name() != tt.wantName {
				t.Fatalf("expected %q scorer, got %q", tt.wantName, scorer.Name())
			}
		})
	}
}

func TestNewScorerGeminiWithoutKey(t *testing.T) {
	for _, key := range apiKeyEnv {
		t.Setenv(key, "")
	}

	scorer, err := NewScorer(context.Background(), &Config{Enabled: true, Provider: ProviderGemini}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scorer.Name() != "text" {
		t.Fatalf("expected text scorer, got %q", scorer.Name())
	}
}

func TestNewScorerEmptyKeyFileFallsBackToText(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("  \n"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}

	scorer, err := NewScorer(context.Background(), &Config{
		Enabled:  true,
		Provider: ProviderGemini,
		Gemini:   &GeminiConfig{APIKeyFile: path},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := scorer.(*scoring.TextMatch); !ok {
		t.Fatalf("expected text matcher, got %T", scorer)
	}
}
