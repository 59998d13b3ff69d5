package candidates

import "github.com/spigell/cv-search/internal/matchbars"

const (
	// Unknown is shown for contact fields that could not be resolved.
	Unknown = "-"

	defaultStatus    = "Prospect"
	highlightsTitle  = "Highlights"
	noSummary        = "No summary available."
	noStructuredData = "No structured data provided."
)

// Candidate is one ranked search result. Values are never changed in place:
// score updates and enrichment produce new values.
type Candidate struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Status      string `json:"status"`
	// Score is nil until a search has scored the candidate.
	Score           *int            `json:"score,omitempty"`
	MatchBars       []bool          `json:"matchBars"`
	Summary         Summary         `json:"summary"`
	Contact         Contact         `json:"contact"`
	Snippet         string          `json:"snippet"`
	Documents       []Document      `json:"documents"`
	Timeline        []TimelineEvent `json:"timeline"`
	AIExtracted     *AIExtracted    `json:"aiExtracted,omitempty"`
	Metadata        *Metadata       `json:"metadata,omitempty"`
	MatchedCriteria []string        `json:"matchedCriteria,omitempty"`
	MissingCriteria []string        `json:"missingCriteria,omitempty"`
	Explanation     string          `json:"explanation,omitempty"`
}

type Summary struct {
	Intro      string   `json:"intro"`
	Body       string   `json:"body"`
	Detail     string   `json:"detail"`
	ListTitle  string   `json:"listTitle"`
	Highlights []string `json:"highlights"`
}

// Contact fields are either resolved values or Unknown, never empty.
type Contact struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Document is a per-source sub-record. Index 0 is the best document.
type Document struct {
	DocumentID  string       `json:"documentId"`
	Filename    string       `json:"filename"`
	Score       int          `json:"score"`
	Snippet     string       `json:"snippet"`
	AIExtracted *AIExtracted `json:"aiExtracted,omitempty"`
}

// EffectiveScore returns Score when set, otherwise the score implied by MatchBars.
func (c Candidate) EffectiveScore() int {
	if c.Score != nil {
		return *c.Score
	}
	return matchbars.BarsToScore(c.MatchBars)
}

// SearchableText joins the candidate texts used by heuristic matching.
func (c Candidate) SearchableText() []string {
	parts := []string{
		c.DisplayName,
		c.Summary.Intro,
		c.Summary.Body,
		c.Summary.Detail,
	}
	return append(parts, c.Summary.Highlights...)
}

// FindByID returns the candidate with the given id.
func FindByID(list []Candidate, id string) (Candidate, bool) {
	for _, c := range list {
		if c.ID == id {
			return c, true
		}
	}
	return Candidate{}, false
}

// IDs returns the ids of the list in order.
func IDs(list []Candidate) []string {
	ids := make([]string, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.ID)
	}
	return ids
}
