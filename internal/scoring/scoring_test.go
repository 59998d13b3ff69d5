package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/cv-search/internal/candidates"
	"github.com/spigell/cv-search/internal/matchbars"
)

func scored(id string, score int) candidates.Candidate {
	return candidates.Candidate{
		ID:        id,
		Score:     &score,
		MatchBars: matchbars.ScoreToBars(float64(score), matchbars.TotalBars),
	}
}

func TestApplyScoresReplacesFields(t *testing.T) {
	t.Parallel()

	original := []candidates.Candidate{scored("a", 10), scored("b", 20)}
	original[0].MatchedCriteria = []string{"old"}
	original[0].Explanation = "old"

	matched := []string{"excel"}
	got := ApplyScores(original, []Result{
		{CandidateID: "a", Score: 120, MatchedCriteria: matched, MissingCriteria: []string{}, Explanation: "new"},
		{CandidateID: "missing", Score: 99},
	})

	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if *got[0].Score != 100 {
		t.Fatalf("expected clamped score 100, got %d", *got[0].Score)
	}
	if diff := cmp.Diff(matchbars.ScoreToBars(100, 8), got[0].MatchBars); diff != "" {
		t.Fatalf("unexpected bars (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"excel"}, got[0].MatchedCriteria); diff != "" {
		t.Fatalf("unexpected matched (-want +got):\n%s", diff)
	}
	if got[0].Explanation != "new" {
		t.Fatalf("unexpected explanation %q", got[0].Explanation)
	}
	if *got[1].Score != 20 {
		t.Fatalf("unscored candidate changed: %d", *got[1].Score)
	}

	// The input list is untouched and results are not aliased.
	if *original[0].Score != 10 || original[0].Explanation != "old" {
		t.Fatalf("input mutated: %+v", original[0])
	}
	matched[0] = "changed"
	if got[0].MatchedCriteria[0] != "excel" {
		t.Fatal("matched criteria aliased to result slice")
	}
}

func TestSortByScore(t *testing.T) {
	t.Parallel()

	list := []candidates.Candidate{scored("a", 40), scored("b", 90), scored("c", 40), {ID: "d"}}
	got := SortByScore(list)

	if diff := cmp.Diff([]string{"b", "a", "c", "d"}, candidates.IDs(got)); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, candidates.IDs(list)); diff != "" {
		t.Fatalf("input reordered (-want +got):\n%s", diff)
	}

	again := SortByScore(got)
	if diff := cmp.Diff(candidates.IDs(got), candidates.IDs(again)); diff != "" {
		t.Fatalf("sort is not idempotent (-want +got):\n%s", diff)
	}
}

func TestApplyThenSortOrdersByResultScores(t *testing.T) {
	t.Parallel()

	list := []candidates.Candidate{{ID: "x"}, {ID: "y"}, {ID: "z"}}
	results := []Result{
		{CandidateID: "x", Score: 15},
		{CandidateID: "y", Score: 85},
		{CandidateID: "z", Score: 55},
	}

	got := SortByScore(ApplyScores(list, results))
	if diff := cmp.Diff([]string{"y", "z", "x"}, candidates.IDs(got)); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].EffectiveScore() < got[i].EffectiveScore() {
			t.Fatalf("not descending at %d", i)
		}
	}
}

func TestFilterByMinScore(t *testing.T) {
	t.Parallel()

	list := []candidates.Candidate{scored("a", 10), scored("b", 50), scored("c", 70)}
	got := FilterByMinScore(list, 50)
	if diff := cmp.Diff([]string{"b", "c"}, candidates.IDs(got)); diff != "" {
		t.Fatalf("unexpected ids (-want +got):\n%s", diff)
	}
}

func TestComputeStats(t *testing.T) {
	t.Parallel()

	got := ComputeStats([]candidates.Candidate{scored("a", 95), scored("b", 72), scored("c", 50), scored("d", 10)})
	want := Stats{
		Total:   4,
		Buckets: Buckets{Excellent: 1, Good: 1, Moderate: 1, Weak: 0, Poor: 1},
		Average: 57,
		Max:     95,
		Min:     10,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected stats (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(Stats{}, ComputeStats(nil)); diff != "" {
		t.Fatalf("unexpected empty stats (-want +got):\n%s", diff)
	}
}

func TestTextMatch(t *testing.T) {
	t.Parallel()

	list := []candidates.Candidate{
		{ID: "1", DisplayName: "Jana Nováková", Summary: candidates.Summary{Body: "Senior accountant in Prague"}},
		{ID: "2", DisplayName: "Petr", Summary: candidates.Summary{Highlights: []string{"Auditor"}}},
	}

	batch, err := NewTextMatch(true).Score(context.Background(), "accountant in Prague", list)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(batch.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(batch.Results))
	}
	first := batch.Results[0]
	if first.CandidateID != "1" || first.Score != 100 {
		t.Fatalf("unexpected first result: %+v", first)
	}
	if batch.Results[1].Score != 0 {
		t.Fatalf("unexpected second score: %d", batch.Results[1].Score)
	}
	if first.Explanation != "Text-based search (AI not configured)" {
		t.Fatalf("unexpected explanation: %q", first.Explanation)
	}
	if diff := cmp.Diff([]string{"accountant", "prague"}, batch.SearchCriteria); diff != "" {
		t.Fatalf("unexpected criteria (-want +got):\n%s", diff)
	}
}

func TestTextMatchWithoutWords(t *testing.T) {
	t.Parallel()

	batch, err := NewTextMatch(false).Score(context.Background(), "a b", []candidates.Candidate{{ID: "1"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Results[0].Score != 50 {
		t.Fatalf("expected neutral score, got %d", batch.Results[0].Score)
	}
}

func TestMockIsDeterministic(t *testing.T) {
	t.Parallel()

	list := []candidates.Candidate{
		{ID: "1", Summary: candidates.Summary{Body: "short", Highlights: []string{"a", "b", "c"}}},
		{ID: "2"},
	}

	m := NewMock()
	first, err := m.Score(context.Background(), "accountant", list)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := m.Score(context.Background(), "accountant", list)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("mock scores differ between runs (-first +second):\n%s", diff)
	}
	if !first.IsMock {
		t.Fatal("expected mock batch")
	}
	for _, r := range first.Results {
		if r.Score < 20 || r.Score > 100 {
			t.Fatalf("score out of range: %d", r.Score)
		}
		if r.CandidateID == "1" {
			if diff := cmp.Diff([]string{"a", "b"}, r.MatchedCriteria); diff != "" {
				t.Fatalf("unexpected matched (-want +got):\n%s", diff)
			}
		}
	}
}

type failingScorer struct{ err error }

func (f failingScorer) Name() string { return "failing" }

func (f failingScorer) Score(context.Context, string, []candidates.Candidate) (*Batch, error) {
	return nil, f.err
}

func TestFallbackUsesSecondary(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	f := NewFallback(failingScorer{err: errors.New("quota exceeded")}, NewTextMatch(false), zap.New(core))

	batch, err := f.Score(context.Background(), "accountant", []candidates.Candidate{{ID: "1"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !batch.IsFallback || batch.Provider != "text" {
		t.Fatalf("unexpected batch: %+v", batch)
	}
	if logs.FilterMessage("primary scorer failed, using fallback").Len() != 1 {
		t.Fatalf("expected one fallback warning, got %d", logs.Len())
	}
}

func TestFallbackStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFallback(failingScorer{err: context.Canceled}, NewTextMatch(false), nil)
	if _, err := f.Score(ctx, "accountant", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
