package scoring

import (
	"context"
	"hash/fnv"
	"slices"

	"github.com/spigell/cv-search/internal/candidates"
	"github.com/spigell/cv-search/internal/query"
)

const (
	mockProvider    = "mock"
	mockMinScore    = 20
	mockMaxScore    = 100
	mockMatchedTake = 2
	mockExplanation = "Mock analysis based on profile completeness and highlights."
)

// Mock scores candidates from profile completeness. It is used for demos
// and tests; scores are stable for a given query and candidate.
type Mock struct{}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Name() string { return mockProvider }

func (m *Mock) Score(ctx context.Context, q string, list []candidates.Candidate) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(list))
	for _, c := range list {
		score := len(c.Summary.Body)/5 + len(c.Summary.Highlights)*10 + jitter(q, c.ID)
		score = max(mockMinScore, min(mockMaxScore, score))

		matched := c.Summary.Highlights
		if len(matched) > mockMatchedTake {
			matched = matched[:mockMatchedTake]
		}

		results = append(results, Result{
			CandidateID:     c.ID,
			Score:           score,
			MatchedCriteria: slices.Clone(matched),
			MissingCriteria: []string{"Some criteria"},
			Explanation:     mockExplanation,
		})
	}

	sortResults(results)

	return &Batch{
		Results:        results,
		SearchCriteria: query.Words(q, minWordRunes),
		Provider:       m.Name(),
		IsMock:         true,
	}, nil
}

// jitter returns a value in [0,20) derived from the query and candidate id.
func jitter(q, id string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(q))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(id))
	return int(h.Sum32() % 20)
}
