// Package session owns the state of an interactive candidate search: the
// loaded collection, the active query, selection and scoring history.
// At most one search is active; older completions are discarded.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/cv-search/internal/candidates"
	"github.com/spigell/cv-search/internal/query"
	"github.com/spigell/cv-search/internal/scoring"
	"github.com/spigell/cv-search/internal/utils"
)

const (
	DefaultDebounce = 300 * time.Millisecond
	maxHistory      = 10
)

// ErrSuperseded is returned by a search whose result was discarded because
// a newer search or a Clear started after it.
var ErrSuperseded = errors.New("search superseded by a newer request")

// HistoryEntry records one completed search.
type HistoryEntry struct {
	Query      string
	Results    int
	Provider   string
	IsFallback bool
	At         time.Time
}

type Controller struct {
	scorer   scoring.Scorer
	logger   *zap.Logger
	debounce time.Duration
	now      func() time.Time

	mu         sync.Mutex
	original   []candidates.Candidate
	current    []candidates.Candidate
	query      string
	selectedID string
	batch      *scoring.Batch
	lastErr    error
	history    []HistoryEntry
	token      uint64
	cancel     context.CancelFunc
}

func New(scorer scoring.Scorer, logger *zap.Logger, debounce time.Duration) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce < 0 {
		debounce = 0
	}
	return &Controller{
		scorer:   scorer,
		logger:   logger,
		debounce: debounce,
		now:      time.Now,
	}
}

// SetCandidates replaces the collection and drops any search state.
func (c *Controller) SetCandidates(list []candidates.Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.invalidateLocked()
	c.original = slices.Clone(list)
	c.current = slices.Clone(list)
	c.query = ""
	c.batch = nil
	c.lastErr = nil
	c.selectedID = ""
}

// Search scores the original collection against q and makes the ranked
// result current. It returns ErrSuperseded when a newer search or Clear
// happened while it ran.
func (c *Controller) Search(ctx context.Context, q string) ([]candidates.Candidate, error) {
	if err := query.Validate(q); err != nil {
		return nil, err
	}

	token, runCtx, snapshot := c.begin(ctx)
	return c.run(runCtx, token, q, snapshot)
}

// SearchDebounced waits for the debounce interval before searching. Only
// the latest call in a burst reaches the scorer.
func (c *Controller) SearchDebounced(ctx context.Context, q string) ([]candidates.Candidate, error) {
	if err := query.Validate(q); err != nil {
		return nil, err
	}

	token, runCtx, snapshot := c.begin(ctx)
	if err := utils.WaitFor(runCtx, c.debounce); err != nil {
		if c.isStale(token) {
			return nil, ErrSuperseded
		}
		return nil, err
	}
	if c.isStale(token) {
		return nil, ErrSuperseded
	}

	return c.run(runCtx, token, q, snapshot)
}

// Clear cancels in-flight work and restores the pre-search collection.
func (c *Controller) Clear() []candidates.Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.invalidateLocked()
	c.current = slices.Clone(c.original)
	c.query = ""
	c.batch = nil
	c.lastErr = nil

	return slices.Clone(c.current)
}

// Select marks a candidate of the current collection as selected.
func (c *Controller) Select(id string) (candidates.Candidate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cand, ok := candidates.FindByID(c.current, id)
	if !ok {
		return candidates.Candidate{}, fmt.Errorf("candidate %q not found", id)
	}
	c.selectedID = id
	return cand, nil
}

// Selected returns the selected candidate from the current collection.
func (c *Controller) Selected() (candidates.Candidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selectedID == "" {
		return candidates.Candidate{}, false
	}
	return candidates.FindByID(c.current, c.selectedID)
}

func (c *Controller) Candidates() []candidates.Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.current)
}

func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// LastBatch returns the batch of the last landed search.
func (c *Controller) LastBatch() *scoring.Batch {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.batch
}

// LastError returns the error of the last search that was not superseded.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) Stats() scoring.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return scoring.ComputeStats(c.current)
}

// History returns the latest searches, newest first.
func (c *Controller) History() []HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.history)
}

func (c *Controller) begin(ctx context.Context) (uint64, context.Context, []candidates.Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.invalidateLocked()
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	return c.token, runCtx, slices.Clone(c.original)
}

func (c *Controller) run(ctx context.Context, token uint64, q string, snapshot []candidates.Candidate) ([]candidates.Candidate, error) {
	c.logger.Debug("scoring candidates",
		zap.String("query", q),
		zap.Int("candidates", len(snapshot)),
		zap.String("scorer", c.scorer.Name()),
	)

	batch, err := c.scorer.Score(ctx, q, snapshot)

	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.token {
		c.logger.Debug("discarding superseded search", zap.String("query", q))
		return nil, ErrSuperseded
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	if err != nil {
		c.lastErr = err
		return nil, fmt.Errorf("score candidates: %w", err)
	}

	c.current = scoring.SortByScore(scoring.ApplyScores(snapshot, batch.Results))
	c.query = q
	c.batch = batch
	c.lastErr = nil
	if _, ok := candidates.FindByID(c.current, c.selectedID); !ok {
		c.selectedID = ""
	}

	c.history = append([]HistoryEntry{{
		Query:      q,
		Results:    len(c.current),
		Provider:   batch.Provider,
		IsFallback: batch.IsFallback,
		At:         c.now(),
	}}, c.history...)
	if len(c.history) > maxHistory {
		c.history = c.history[:maxHistory]
	}

	return slices.Clone(c.current), nil
}

func (c *Controller) isStale(token uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return token != c.token
}

// invalidateLocked cancels the in-flight search and takes a new token so
// its completion is discarded.
func (c *Controller) invalidateLocked() {
	c.token++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
