package candidates

import (
	"fmt"
	"time"

	"github.com/spigell/cv-search/internal/matchbars"
)

const (
	dateLayout        = "2. 1. 2006"
	previewRuneLimit  = 280
	searchEngineApp   = "Search Engine"
	datasetApp        = "Dataset"
	defaultMailHeader = "Profile overview"
)

// TimelineEvent is a presentational entry synthesized from the scoring
// breakdown of a result.
type TimelineEvent struct {
	Type         string `json:"type"`
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	App          string `json:"app"`
	Date         string `json:"date"`
	Tag          *Tag   `json:"tag,omitempty"`
	HasBadge     bool   `json:"hasBadge,omitempty"`
	HasExpand    bool   `json:"hasExpand,omitempty"`
	EmailSubject string `json:"emailSubject,omitempty"`
	EmailPreview string `json:"emailPreview,omitempty"`
}

type Tag struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Dot   string `json:"dot,omitempty"`
}

func percent(p *float64) string {
	return fmt.Sprintf("%d%%", matchbars.Round(floatValue(p)*100))
}

func buildTimeline(raw RawResult, id string, fields Fields, snippet string, now time.Time) []TimelineEvent {
	date := now.Format(dateLayout)

	var semantic, bm25 *float64
	if raw.ScoreComponents != nil {
		semantic = raw.ScoreComponents.Semantic
		bm25 = raw.ScoreComponents.BM25
	}

	score := raw.Score
	if score == nil {
		score = raw.BestScore
	}
	if score == nil {
		score = raw.Documents[0].Score
	}

	return []TimelineEvent{
		{
			Type:     "form",
			Title:    "Semantic relevance",
			Subtitle: "Vector search",
			App:      searchEngineApp,
			Date:     date,
			Tag:      &Tag{Label: "Score", Value: percent(score), Dot: "green"},
			HasBadge: true,
		},
		{
			Type:     "email",
			Title:    "BM25 component",
			Subtitle: "Keyword match",
			App:      searchEngineApp,
			Date:     date,
			Tag:      &Tag{Label: "Score", Value: percent(bm25)},
		},
		{
			Type:         "email-sent",
			Title:        orDefault("Candidate "+id, fields.Name),
			Subtitle:     "Profile snippet",
			App:          datasetApp,
			Date:         date,
			EmailSubject: orDefault(defaultMailHeader, fields.RequiredEmployment),
			EmailPreview: truncateRunes(snippet, previewRuneLimit),
			HasExpand:    true,
		},
		{
			Type:     "form",
			Title:    "Semantic score (raw)",
			Subtitle: "Model output",
			App:      searchEngineApp,
			Date:     date,
			Tag:      &Tag{Label: "Semantic", Value: percent(semantic), Dot: "blue"},
		},
	}
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
