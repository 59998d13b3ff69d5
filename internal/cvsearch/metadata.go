package cvsearch

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/cv-search/internal/candidates"
)

const DefaultEnrichConcurrency = 4

// MetadataFetcher loads metadata for a CV document.
type MetadataFetcher interface {
	Metadata(ctx context.Context, cvID string) (*candidates.Metadata, error)
}

// Metadata fetches the AI-extracted metadata of a CV. A non-success status
// means the CV has no metadata and yields nil without error.
func (c *Client) Metadata(ctx context.Context, cvID string) (*candidates.Metadata, error) {
	var payload map[string]any
	err := c.getJSON(ctx, fmt.Sprintf(MetadataPath, url.PathEscape(cvID)), nil, &payload)

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		c.logger.Debug("no metadata for cv", zap.String("cv", cvID), zap.Int("status", statusErr.StatusCode))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cv metadata %s: %w", cvID, err)
	}
	if payload == nil {
		return nil, nil
	}

	return candidates.DecodeMetadata(payload)
}

// Enrich fetches metadata for every candidate with at most concurrency
// requests in flight and returns the enriched list in the original order.
// Fetch failures are logged and the candidate is kept as is.
func Enrich(ctx context.Context, logger *zap.Logger, fetcher MetadataFetcher, list []candidates.Candidate, concurrency int) ([]candidates.Candidate, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = DefaultEnrichConcurrency
	}

	out := make([]candidates.Candidate, len(list))
	copy(out, list)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, c := range list {
		g.Go(func() error {
			id := metadataID(c)
			md, err := fetcher.Metadata(gctx, id)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn("failed to fetch cv metadata", zap.String("candidate", c.ID), zap.String("cv", id), zap.Error(err))
				return nil
			}
			out[i] = candidates.EnrichWithMetadata(c, md)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// metadataID is the id of the best document, or the candidate id when
// there are no documents.
func metadataID(c candidates.Candidate) string {
	if len(c.Documents) > 0 && c.Documents[0].DocumentID != "" {
		return c.Documents[0].DocumentID
	}
	return c.ID
}
