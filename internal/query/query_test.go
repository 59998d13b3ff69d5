package query

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "empty", input: "", wantErr: "non-empty"},
		{name: "blank", input: "   ", wantErr: "non-empty"},
		{name: "too short", input: "ab", wantErr: "too short"},
		{name: "too long", input: strings.Repeat("a", MaxLength+1), wantErr: "too long"},
		{name: "ok", input: "accountant"},
		{name: "multibyte counted in runes", input: "účt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(tt.input)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q in %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestClean(t *testing.T) {
	t.Parallel()

	if got := Clean("  Senior   Accountant!! (CPA) 5+ yrs, Prague. "); got != "senior accountant cpa 5+ yrs, prague." {
		t.Fatalf("unexpected cleaned query: %q", got)
	}

	// NFKC folds the ligature before special characters are stripped.
	if got := Clean("ﬁnance"); got != "finance" {
		t.Fatalf("unexpected normalisation: %q", got)
	}
}

func TestWords(t *testing.T) {
	t.Parallel()

	got := Words("Find an accountant in Praha", 2)
	want := []string{"find", "accountant", "praha"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected words (-want +got):\n%s", diff)
	}
}

func TestExtractCriteria(t *testing.T) {
	t.Parallel()

	got := ExtractCriteria("Find accountants with 5 years experience who speak English")
	want := map[string][]string{
		"experience": {"years", "experience"},
		"languages":  {"english"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected criteria (-want +got):\n%s", diff)
	}
}

func TestExtractYearsOfExperience(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"5 years of experience":    5,
		"10+ years":                10,
		"at least 3 year":          3,
		"Minimum 7 years in audit": 7,
	}
	for input, want := range cases {
		got, ok := ExtractYearsOfExperience(input)
		if !ok || got != want {
			t.Fatalf("%q: expected %d, got %d (%v)", input, want, got, ok)
		}
	}

	if _, ok := ExtractYearsOfExperience("junior bookkeeper"); ok {
		t.Fatal("expected no years")
	}
}

func TestExtractPosition(t *testing.T) {
	t.Parallel()

	if p, ok := ExtractPosition("Looking for a Financial Analyst in Brno"); !ok || p != "financial analyst" {
		t.Fatalf("unexpected position: %q %v", p, ok)
	}
	if _, ok := ExtractPosition("gardener"); ok {
		t.Fatal("expected no position")
	}
}

func TestSuggestions(t *testing.T) {
	t.Parallel()

	if got := Suggestions("a"); len(got) != 3 {
		t.Fatalf("expected 3 default suggestions, got %d", len(got))
	}

	got := Suggestions("account")
	want := []string{
		"Accountants with 5+ years experience",
		"Senior accountants with CPA certification",
		"Entry-level positions in accounting",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected suggestions (-want +got):\n%s", diff)
	}
}

func TestBuildParams(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC)
	p := BuildParams("Remote controller, 4 years experience", now)

	if p.Position != "controller" {
		t.Fatalf("unexpected position: %q", p.Position)
	}
	if p.YearsExperience == nil || *p.YearsExperience != 4 {
		t.Fatalf("unexpected years: %v", p.YearsExperience)
	}
	if !p.Timestamp.Equal(now) {
		t.Fatalf("unexpected timestamp: %v", p.Timestamp)
	}

	want := []string{"availability:remote", "experience:experience", "experience:years"}
	if diff := cmp.Diff(want, p.CriteriaList()); diff != "" {
		t.Fatalf("unexpected criteria list (-want +got):\n%s", diff)
	}
}
