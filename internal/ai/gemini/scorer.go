package gemini

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/cv-search/internal/candidates"
	"github.com/spigell/cv-search/internal/logger"
	"github.com/spigell/cv-search/internal/matchbars"
	"github.com/spigell/cv-search/internal/scoring"
	"github.com/spigell/cv-search/internal/utils"
)

const (
	ProviderName = "gemini"

	defaultMaxLogLength = 200
	candidateSeparator  = "\n---\n"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

//go:embed prompt.md
var promptTemplate string

// Scorer asks Gemini to score candidates against a query.
type Scorer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewScorer(generator contentGenerator, log *zap.Logger, maxLogLength int) *Scorer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Scorer{
		generator: generator,
		logger:    logger.WithCommonFields(log, ProviderName, generator.Model()),
		maxLogLen: maxLogLength,
	}
}

func (s *Scorer) Name() string { return ProviderName }

func (s *Scorer) Score(ctx context.Context, query string, list []candidates.Candidate) (*scoring.Batch, error) {
	if len(list) == 0 {
		return &scoring.Batch{Results: []scoring.Result{}, Provider: ProviderName}, nil
	}

	prompt := buildPrompt(query, formatCandidates(list))

	s.logger.Debug("gemini generate content request",
		zap.Int("candidates", len(list)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
	)

	batch, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(list))
	for _, c := range list {
		known[c.ID] = struct{}{}
	}

	results := make([]scoring.Result, 0, len(batch.Results))
	for _, r := range batch.Results {
		if _, ok := known[r.CandidateID]; !ok {
			s.logger.Debug("ignoring score for unknown candidate", zap.String("candidate", r.CandidateID))
			continue
		}
		results = append(results, r)
	}
	slices.SortStableFunc(results, func(a, b scoring.Result) int {
		return cmp.Compare(b.Score, a.Score)
	})

	batch.Results = results
	batch.Provider = ProviderName
	return batch, nil
}

func buildPrompt(query, candidatesText string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Search Query: \"{{QUERY}}\"\n\nCandidates:\n{{CANDIDATES}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{QUERY}}", query)
	prompt = strings.ReplaceAll(prompt, "{{CANDIDATES}}", candidatesText)
	return prompt
}

func formatCandidates(list []candidates.Candidate) string {
	blocks := make([]string, 0, len(list))
	for _, c := range list {
		var b strings.Builder
		fmt.Fprintf(&b, "Candidate ID: %s\n", c.ID)
		fmt.Fprintf(&b, "Name: %s\n", c.DisplayName)
		fmt.Fprintf(&b, "Status: %s\n", c.Status)
		fmt.Fprintf(&b, "Summary: %s %s %s\n", c.Summary.Intro, c.Summary.Body, c.Summary.Detail)
		fmt.Fprintf(&b, "Skills/Certifications: %s", strings.Join(c.Summary.Highlights, ", "))
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, candidateSeparator)
}

func parseResponse(raw string) (*scoring.Batch, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	items, ok := data["results"].([]any)
	if !ok {
		return nil, errors.New("parse gemini response: results list is missing")
	}

	batch := &scoring.Batch{
		Results:        make([]scoring.Result, 0, len(items)),
		SearchCriteria: coerceStrings(data["searchCriteria"]),
	}

	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id := coerceString(entry["candidateId"])
		if id == "" {
			continue
		}

		score := coerceFloat(entry["score"])
		if math.IsNaN(score) {
			score = 0
		}

		batch.Results = append(batch.Results, scoring.Result{
			CandidateID:     id,
			Score:           matchbars.Normalize(score),
			MatchedCriteria: coerceStrings(entry["matchedCriteria"]),
			MissingCriteria: coerceStrings(entry["missingCriteria"]),
			Explanation:     coerceString(entry["explanation"]),
		})
	}

	return batch, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(val), "%"))
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

// coerceStrings accepts a list or a single string and drops empty entries.
func coerceStrings(v any) []string {
	out := []string{}
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s := coerceString(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		if s := strings.TrimSpace(val); s != "" {
			out = append(out, s)
		}
	}
	return out
}
