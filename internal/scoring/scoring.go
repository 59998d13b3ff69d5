// Package scoring applies score batches to candidates, ranks them and
// provides the scoring strategies used by a search session.
package scoring

import (
	"cmp"
	"context"
	"slices"

	"github.com/spigell/cv-search/internal/candidates"
	"github.com/spigell/cv-search/internal/matchbars"
)

// Result is the score of one candidate for the active query.
type Result struct {
	CandidateID     string   `json:"candidateId"`
	Score           int      `json:"score"`
	MatchedCriteria []string `json:"matchedCriteria"`
	MissingCriteria []string `json:"missingCriteria"`
	Explanation     string   `json:"explanation"`
}

// Batch is the output of one scoring run.
type Batch struct {
	Results        []Result `json:"results"`
	SearchCriteria []string `json:"searchCriteria,omitempty"`
	Provider       string   `json:"provider,omitempty"`
	IsMock         bool     `json:"isMock,omitempty"`
	IsFallback     bool     `json:"isFallback,omitempty"`
}

// Scorer scores candidates against a query.
type Scorer interface {
	Name() string
	Score(ctx context.Context, query string, list []candidates.Candidate) (*Batch, error)
}

// ApplyScores returns a new list where every candidate with a matching
// result has its scoring fields replaced. Other candidates pass through.
func ApplyScores(list []candidates.Candidate, results []Result) []candidates.Candidate {
	byID := make(map[string]Result, len(results))
	for _, r := range results {
		byID[r.CandidateID] = r
	}

	out := make([]candidates.Candidate, 0, len(list))
	for _, c := range list {
		r, ok := byID[c.ID]
		if !ok {
			out = append(out, c)
			continue
		}

		score := matchbars.Normalize(float64(r.Score))
		updated := c
		updated.Score = &score
		updated.MatchBars = matchbars.ScoreToBars(float64(score), matchbars.TotalBars)
		updated.MatchedCriteria = slices.Clone(r.MatchedCriteria)
		updated.MissingCriteria = slices.Clone(r.MissingCriteria)
		updated.Explanation = r.Explanation
		out = append(out, updated)
	}

	return out
}

// SortByScore returns a copy sorted by descending effective score. Equal
// scores keep their relative order.
func SortByScore(list []candidates.Candidate) []candidates.Candidate {
	sorted := slices.Clone(list)
	slices.SortStableFunc(sorted, func(a, b candidates.Candidate) int {
		return cmp.Compare(b.EffectiveScore(), a.EffectiveScore())
	})
	return sorted
}

// FilterByMinScore keeps candidates whose effective score is at least min.
func FilterByMinScore(list []candidates.Candidate, min int) []candidates.Candidate {
	out := make([]candidates.Candidate, 0, len(list))
	for _, c := range list {
		if c.EffectiveScore() >= min {
			out = append(out, c)
		}
	}
	return out
}

// Buckets counts candidates per score band:
// [0,30) [30,50) [50,70) [70,90) [90,100].
type Buckets struct {
	Poor      int `json:"poor"`
	Weak      int `json:"weak"`
	Moderate  int `json:"moderate"`
	Good      int `json:"good"`
	Excellent int `json:"excellent"`
}

type Stats struct {
	Total   int     `json:"total"`
	Buckets Buckets `json:"buckets"`
	Average int     `json:"average"`
	Max     int     `json:"max"`
	Min     int     `json:"min"`
}

// ComputeStats summarises the effective scores. An empty list yields zeros.
func ComputeStats(list []candidates.Candidate) Stats {
	stats := Stats{Total: len(list)}
	if len(list) == 0 {
		return stats
	}

	sum := 0
	for i, c := range list {
		s := c.EffectiveScore()
		sum += s

		if i == 0 || s > stats.Max {
			stats.Max = s
		}
		if i == 0 || s < stats.Min {
			stats.Min = s
		}

		switch {
		case s >= 90:
			stats.Buckets.Excellent++
		case s >= 70:
			stats.Buckets.Good++
		case s >= 50:
			stats.Buckets.Moderate++
		case s >= 30:
			stats.Buckets.Weak++
		default:
			stats.Buckets.Poor++
		}
	}

	stats.Average = matchbars.Round(float64(sum) / float64(len(list)))
	return stats
}
