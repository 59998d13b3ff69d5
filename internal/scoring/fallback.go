package scoring

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spigell/cv-search/internal/candidates"
)

// Fallback runs Primary and switches to Secondary when it fails. Batches
// produced by Secondary are marked IsFallback.
type Fallback struct {
	Primary   Scorer
	Secondary Scorer
	Logger    *zap.Logger
}

func NewFallback(primary, secondary Scorer, logger *zap.Logger) *Fallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fallback{Primary: primary, Secondary: secondary, Logger: logger}
}

func (f *Fallback) Name() string { return f.Primary.Name() }

func (f *Fallback) Score(ctx context.Context, q string, list []candidates.Candidate) (*Batch, error) {
	batch, err := f.Primary.Score(ctx, q, list)
	if err == nil {
		return batch, nil
	}
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return nil, err
	}

	f.Logger.Warn("primary scorer failed, using fallback",
		zap.String("primary", f.Primary.Name()),
		zap.String("fallback", f.Secondary.Name()),
		zap.Error(err),
	)

	batch, ferr := f.Secondary.Score(ctx, q, list)
	if ferr != nil {
		return nil, errors.Join(err, ferr)
	}
	batch.IsFallback = true
	return batch, nil
}
