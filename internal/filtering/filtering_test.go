package filtering

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/cv-search/internal/candidates"
)

func withScore(id string, score int) candidates.Candidate {
	return candidates.Candidate{ID: id, DisplayName: "Candidate " + id, Score: &score}
}

func TestRunAppliesStepsInOrder(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "excluded.json")
	now := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	if err := AppendToFile(path, []candidates.Candidate{withScore("b", 0)}, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	core, logs := observer.New(zapcore.InfoLevel)
	list := []candidates.Candidate{withScore("a", 80), withScore("b", 95), withScore("c", 20)}

	got, err := Run(context.Background(), &Config{MinScore: 50, ExcludeFile: path}, Deps{Logger: zap.New(core)}, Default(), list)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]string{"a"}, candidates.IDs(got)); diff != "" {
		t.Fatalf("unexpected ids (-want +got):\n%s", diff)
	}

	steps := logs.FilterMessage("filter step").All()
	if len(steps) != 2 {
		t.Fatalf("expected 2 step logs, got %d", len(steps))
	}
	first := steps[0].ContextMap()
	if first["name"] != "exclude_file" || first["dropped"] != int64(1) || first["left"] != int64(2) {
		t.Fatalf("unexpected first step: %v", first)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), &Config{MinScore: 150}, Deps{}, Default(), nil)
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestDisabledStepIsSkipped(t *testing.T) {
	t.Parallel()

	steps := Default()
	DisableByName(steps, "min_score", "requested")

	list := []candidates.Candidate{withScore("a", 10)}
	got, err := Run(context.Background(), &Config{MinScore: 50}, Deps{}, steps, list)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected candidate to survive, got %d", len(got))
	}

	statuses := Describe(steps)
	if statuses[1].Name != "min_score" || statuses[1].Enabled || statuses[1].Reason != "requested" {
		t.Fatalf("unexpected status: %+v", statuses[1])
	}
}

func TestSelectSharesChainState(t *testing.T) {
	t.Parallel()

	steps := Default()
	DisableByName(steps, ExcludeFileName, "exclude file is not set")

	before := Select(steps, ExcludeFileName)
	after := Select(steps, MinScoreName, "unknown")
	if len(before) != 1 || before[0].Name() != ExcludeFileName {
		t.Fatalf("unexpected selection: %v", before)
	}
	if len(after) != 1 || after[0].Name() != MinScoreName {
		t.Fatalf("unexpected selection: %v", after)
	}

	list := []candidates.Candidate{withScore("a", 10), withScore("b", 60)}
	got, err := Run(context.Background(), &Config{MinScore: 50, ExcludeFile: "ignored.json"}, Deps{}, before, list)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("disabled exclude step must keep all candidates, got %d", len(got))
	}

	got, err = Run(context.Background(), &Config{MinScore: 50}, Deps{}, after, got)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"b"}, candidates.IDs(got)); diff != "" {
		t.Fatalf("unexpected ids (-want +got):\n%s", diff)
	}

	want := []Status{
		{Name: ExcludeFileName, Enabled: false, Reason: "exclude file is not set", Details: map[string]string{}},
		{Name: MinScoreName, Enabled: true, Details: map[string]string{"min_score": "50"}},
	}
	if diff := cmp.Diff(want, Describe(steps)); diff != "" {
		t.Fatalf("unexpected statuses (-want +got):\n%s", diff)
	}
}

func TestExcludeFileRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "excluded.json")

	missing, err := LoadExcluded(path)
	if err != nil || len(missing.Items) != 0 {
		t.Fatalf("expected empty list for missing file, got %+v %v", missing, err)
	}

	now := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	if err := AppendToFile(path, []candidates.Candidate{withScore("1", 0), withScore("2", 0)}, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := AppendToFile(path, []candidates.Candidate{withScore("2", 0), withScore("3", 0)}, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := LoadExcluded(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"1", "2", "3"}, loaded.IDs()); diff != "" {
		t.Fatalf("unexpected ids (-want +got):\n%s", diff)
	}

	empty := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got, err := LoadExcluded(empty); err != nil || len(got.Items) != 0 {
		t.Fatalf("expected empty list for empty file, got %+v %v", got, err)
	}
}
