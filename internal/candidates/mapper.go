package candidates

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/cv-search/internal/matchbars"
)

const expectedShape = "{subjectId, name?, bestScore?, documents: [{documentId, filename, score, snippet, aiExtracted?}]}"

// MalformedPolicy decides what happens to a batch containing a malformed record.
type MalformedPolicy string

const (
	// AbortOnMalformed fails the whole batch on the first malformed record.
	AbortOnMalformed MalformedPolicy = "abort"
	// SkipMalformed drops malformed records and keeps their valid siblings.
	SkipMalformed MalformedPolicy = "skip"
)

// ParsePolicy converts a configuration value into a policy. Empty is abort.
func ParsePolicy(s string) (MalformedPolicy, error) {
	switch MalformedPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", AbortOnMalformed:
		return AbortOnMalformed, nil
	case SkipMalformed:
		return SkipMalformed, nil
	default:
		return "", fmt.Errorf("unknown malformed record policy %q (want %q or %q)", s, AbortOnMalformed, SkipMalformed)
	}
}

// ValidationError reports a malformed upstream record.
type ValidationError struct {
	Index    int
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid search result at index %d: %s; expected %s",
		e.Index, strings.Join(e.Problems, ", "), expectedShape)
}

// Mapper turns upstream search records into candidates.
type Mapper struct {
	policy MalformedPolicy
	logger *zap.Logger
	now    func() time.Time
}

func NewMapper(policy MalformedPolicy, logger *zap.Logger) *Mapper {
	if policy == "" {
		policy = AbortOnMalformed
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Mapper{
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// MapResults maps records with the default (abort) policy.
func MapResults(results []RawResult) ([]Candidate, error) {
	return NewMapper(AbortOnMalformed, nil).MapResults(results)
}

// Map accepts a loosely typed payload, e.g. the decoded "results" member of
// a search response. Anything that is not a list yields no candidates.
func (m *Mapper) Map(payload any) ([]Candidate, error) {
	items, ok := asList(payload)
	if !ok {
		m.logger.Debug("search payload is not a list", zap.String("type", fmt.Sprintf("%T", payload)))
		return []Candidate{}, nil
	}

	raws := make([]RawResult, 0, len(items))
	indexes := make([]int, 0, len(items))
	for idx, item := range items {
		raw, err := decodeRaw(item, idx)
		if err != nil {
			if m.policy == AbortOnMalformed {
				return nil, err
			}
			m.logger.Warn("skipping malformed search result", zap.Int("index", idx), zap.Error(err))
			continue
		}
		raws = append(raws, raw)
		indexes = append(indexes, idx)
	}

	return m.mapWithIndexes(raws, indexes)
}

// MapResults validates and maps every record, preserving input order.
func (m *Mapper) MapResults(results []RawResult) ([]Candidate, error) {
	indexes := make([]int, len(results))
	for i := range indexes {
		indexes[i] = i
	}
	return m.mapWithIndexes(results, indexes)
}

func (m *Mapper) mapWithIndexes(results []RawResult, indexes []int) ([]Candidate, error) {
	out := make([]Candidate, 0, len(results))
	now := m.now()

	for i, raw := range results {
		idx := indexes[i]
		if err := Validate(raw, idx); err != nil {
			if m.policy == AbortOnMalformed {
				return nil, err
			}
			m.logger.Warn("skipping malformed search result", zap.Int("index", idx), zap.Error(err))
			continue
		}

		out = append(out, toCandidate(raw, now))
	}

	return out, nil
}

// Validate checks the minimal shape of a record.
func Validate(raw RawResult, index int) error {
	var problems []string
	if raw.SubjectID == nil || strings.TrimSpace(*raw.SubjectID) == "" {
		problems = append(problems, "missing 'subjectId'")
	}
	if len(raw.Documents) == 0 {
		problems = append(problems, "missing or empty 'documents'")
	}

	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Index: index, Problems: problems}
}

func toCandidate(raw RawResult, now time.Time) Candidate {
	id := stringValue(raw.SubjectID)
	best := raw.Documents[0]
	ai := best.AIExtracted
	if ai == nil {
		ai = &AIExtracted{}
	}

	snippet := Sanitize(stringValue(best.Snippet))
	lines := Lines(snippet)
	fields := ExtractFields(lines)

	// bestScore is optional upstream; the best document's score stands in for it.
	bestScore := raw.BestScore
	if bestScore == nil {
		bestScore = best.Score
	}
	score := scorePercent(bestScore)

	return Candidate{
		ID: id,
		DisplayName: orDefault("Candidate "+id,
			stringValue(raw.Name),
			ai.Name,
			fields.Name,
		),
		Status:    orDefault(defaultStatus, ai.RequiredEmployment, fields.RequiredEmployment),
		Score:     &score,
		MatchBars: matchbars.ScoreToBars(float64(score), matchbars.TotalBars),
		Summary:   BuildSummary(lines, fields),
		Contact: Contact{
			Email:   orDefault(Unknown, ai.Email, fields.Email),
			Phone:   orDefault(Unknown, ai.Phone, fields.Phone),
			Address: orDefault(Unknown, ai.Location, fields.Location),
		},
		Snippet:     snippet,
		Documents:   mapDocuments(raw.Documents),
		Timeline:    buildTimeline(raw, id, fields, snippet, now),
		AIExtracted: best.AIExtracted,
	}
}

func mapDocuments(docs []RawDocument) []Document {
	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		out = append(out, Document{
			DocumentID:  doc.DocumentID,
			Filename:    doc.Filename,
			Score:       scorePercent(doc.Score),
			Snippet:     Sanitize(stringValue(doc.Snippet)),
			AIExtracted: doc.AIExtracted,
		})
	}
	return out
}

// scorePercent converts an upstream [0,1] fraction into the [0,100] domain.
func scorePercent(fraction *float64) int {
	return matchbars.Normalize(floatValue(fraction) * 100)
}

// EnrichWithMetadata returns a copy of c with contact and name fields
// overridden by the AI-extracted metadata values that are present.
func EnrichWithMetadata(c Candidate, md *Metadata) Candidate {
	if md == nil || md.AIExtracted == nil {
		return c
	}

	ai := md.AIExtracted
	enriched := c
	enriched.DisplayName = orDefault(c.DisplayName, ai.Name)
	enriched.Contact = Contact{
		Email:   orDefault(c.Contact.Email, ai.Email),
		Phone:   orDefault(c.Contact.Phone, ai.Phone),
		Address: orDefault(c.Contact.Address, ai.Location),
	}
	enriched.AIExtracted = ai
	enriched.Metadata = md
	enriched.Documents = slices.Clone(c.Documents)

	return enriched
}
