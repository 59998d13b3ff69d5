package scoring

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/spigell/cv-search/internal/candidates"
	"github.com/spigell/cv-search/internal/matchbars"
	"github.com/spigell/cv-search/internal/query"
)

const (
	// Words of this many runes or fewer are ignored.
	minWordRunes       = 2
	noWordsScore       = 50
	textMatchProvider  = "text"
	textMatchNoAIExpl  = "Text-based search (AI not configured)"
	textMatchReasoning = "Text-based search"
)

// TextMatch is the local heuristic scorer: the share of query words found
// anywhere in the candidate texts.
type TextMatch struct {
	explanation string
}

// NewTextMatch creates the heuristic scorer. standalone marks that it runs
// because no AI provider is configured, which is reflected in explanations.
func NewTextMatch(standalone bool) *TextMatch {
	expl := textMatchReasoning
	if standalone {
		expl = textMatchNoAIExpl
	}
	return &TextMatch{explanation: expl}
}

func (s *TextMatch) Name() string { return textMatchProvider }

func (s *TextMatch) Score(ctx context.Context, q string, list []candidates.Candidate) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words := query.Words(q, minWordRunes)
	results := make([]Result, 0, len(list))

	for _, c := range list {
		text := strings.ToLower(norm.NFKC.String(strings.Join(c.SearchableText(), " ")))

		matched := make([]string, 0, len(words))
		for _, w := range words {
			if strings.Contains(text, w) {
				matched = append(matched, w)
			}
		}

		score := noWordsScore
		if len(words) > 0 {
			score = matchbars.Round(float64(len(matched)) / float64(len(words)) * 100)
		}

		results = append(results, Result{
			CandidateID:     c.ID,
			Score:           score,
			MatchedCriteria: matched,
			MissingCriteria: []string{},
			Explanation:     s.explanation,
		})
	}

	sortResults(results)

	return &Batch{
		Results:        results,
		SearchCriteria: words,
		Provider:       s.Name(),
	}, nil
}

func sortResults(results []Result) {
	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Compare(b.Score, a.Score)
	})
}
