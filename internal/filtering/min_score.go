package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/cv-search/internal/candidates"
	"github.com/spigell/cv-search/internal/matchbars"
	"github.com/spigell/cv-search/internal/scoring"
)

type minScoreFilter struct {
	disabled bool
	reason   string
	min      int
}

// NewMinScore creates a filter that removes candidates scoring below the configured minimum.
func NewMinScore() Filter {
	return &minScoreFilter{}
}

func (f *minScoreFilter) Name() string { return MinScoreName }

func (f *minScoreFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *minScoreFilter) IsEnabled() bool { return !f.disabled }

func (f *minScoreFilter) Validate(cfg *Config) error {
	f.min = 0
	if cfg == nil {
		return nil
	}
	if cfg.MinScore < matchbars.MinScore || cfg.MinScore > matchbars.MaxScore {
		return fmt.Errorf("minimum score must be between %d and %d, got %d", matchbars.MinScore, matchbars.MaxScore, cfg.MinScore)
	}
	f.min = cfg.MinScore
	return nil
}

func (f *minScoreFilter) Apply(_ context.Context, deps Deps, list []candidates.Candidate) ([]candidates.Candidate, Step, error) {
	initial := len(list)
	if f.min == 0 {
		return list, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	kept := scoring.FilterByMinScore(list, f.min)
	if dropped := initial - len(kept); dropped > 0 {
		deps.Logger.Info("excluding candidates below minimum score",
			zap.Int("min_score", f.min),
			zap.Int("candidates_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}

func (f *minScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"min_score": strconv.Itoa(f.min)},
	}
}
