// Package query validates and inspects free-text candidate search queries.
package query

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	MinLength = 3
	MaxLength = 1000

	maxSuggestions     = 5
	defaultSuggestions = 3
)

// CriteriaKeywords are the keywords recognised per criteria category.
var CriteriaKeywords = map[string][]string{
	"education":    {"degree", "university", "college", "graduation", "bachelor", "master", "phd", "mba", "certified", "certification"},
	"experience":   {"years", "experience", "senior", "junior", "mid-level", "expert", "professional"},
	"languages":    {"english", "french", "german", "spanish", "czech", "bilingual", "multilingual", "fluent"},
	"skills":       {"accounting", "finance", "tax", "audit", "bookkeeping", "excel", "sap", "erp", "ifrs", "gaap"},
	"availability": {"available", "immediate", "part-time", "full-time", "remote", "hybrid", "on-site"},
}

var positions = []string{
	"accountant", "controller", "cfo", "bookkeeper", "auditor",
	"financial analyst", "tax specialist", "payroll specialist",
	"accounts payable", "accounts receivable", "finance manager",
}

var suggestions = []string{
	"Find candidates with college graduation",
	"Accountants with 5+ years experience",
	"Bilingual candidates speaking English and French",
	"Senior accountants with CPA certification",
	"Entry-level positions in accounting",
	"Candidates available for immediate start",
	"Remote-friendly finance professionals",
}

var (
	whitespace   = regexp.MustCompile(`\s+`)
	specialChars = regexp.MustCompile(`[^\w\s\-.,+]`)

	yearsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+)\+?\s*years?\s*(of\s*)?(experience|exp)?`),
		regexp.MustCompile(`(?i)at\s+least\s+(\d+)\s*years?`),
		regexp.MustCompile(`(?i)minimum\s+(\d+)\s*years?`),
	}
)

// ValidationError describes a query rejected before any search runs.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validate checks that the query is usable. Length is counted in runes.
func Validate(q string) error {
	if strings.TrimSpace(q) == "" {
		return &ValidationError{Reason: "Query must be a non-empty string"}
	}

	n := utf8.RuneCountInString(q)
	if n < MinLength {
		return &ValidationError{Reason: "Query too short. Please be more specific."}
	}
	if n > MaxLength {
		return &ValidationError{Reason: "Query too long. Please be more concise."}
	}

	return nil
}

// Clean normalises a query: NFKC, collapsed whitespace, special characters
// stripped, lower-cased.
func Clean(q string) string {
	q = norm.NFKC.String(q)
	q = strings.TrimSpace(q)
	q = whitespace.ReplaceAllString(q, " ")
	q = specialChars.ReplaceAllString(q, "")
	return strings.ToLower(q)
}

// Words returns the cleaned query words longer than minRunes.
func Words(q string, minRunes int) []string {
	var words []string
	for _, w := range strings.Split(Clean(q), " ") {
		if utf8.RuneCountInString(w) > minRunes {
			words = append(words, w)
		}
	}
	return words
}

// ExtractCriteria returns the keywords found in the query grouped by category.
func ExtractCriteria(q string) map[string][]string {
	normalized := strings.ToLower(q)
	found := make(map[string][]string)

	for category, keywords := range CriteriaKeywords {
		for _, keyword := range keywords {
			if strings.Contains(normalized, keyword) {
				found[category] = append(found[category], keyword)
			}
		}
	}

	return found
}

// ExtractYearsOfExperience returns the number of years mentioned in the query.
func ExtractYearsOfExperience(q string) (int, bool) {
	for _, pattern := range yearsPatterns {
		match := pattern.FindStringSubmatch(q)
		if match == nil {
			continue
		}
		years, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		return years, true
	}
	return 0, false
}

// ExtractPosition returns the first known position mentioned in the query.
func ExtractPosition(q string) (string, bool) {
	normalized := strings.ToLower(q)
	for _, p := range positions {
		if strings.Contains(normalized, p) {
			return p, true
		}
	}
	return "", false
}

// Suggestions returns example queries matching the partial input.
func Suggestions(partial string) []string {
	if utf8.RuneCountInString(partial) < 2 {
		return append([]string(nil), suggestions[:defaultSuggestions]...)
	}

	normalized := strings.ToLower(partial)
	var out []string
	for _, s := range suggestions {
		if strings.Contains(strings.ToLower(s), normalized) {
			out = append(out, s)
		}
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

// Params is the structured form of a natural-language query.
type Params struct {
	Raw             string              `json:"rawQuery"`
	Cleaned         string              `json:"cleanedQuery"`
	Criteria        map[string][]string `json:"criteria"`
	YearsExperience *int                `json:"yearsExperience,omitempty"`
	Position        string              `json:"position,omitempty"`
	Timestamp       time.Time           `json:"timestamp"`
}

// BuildParams parses the query into Params.
func BuildParams(q string, now time.Time) Params {
	p := Params{
		Raw:       q,
		Cleaned:   Clean(q),
		Criteria:  ExtractCriteria(q),
		Timestamp: now,
	}

	if years, ok := ExtractYearsOfExperience(q); ok {
		p.YearsExperience = &years
	}
	if position, ok := ExtractPosition(q); ok {
		p.Position = position
	}

	return p
}

// CriteriaList flattens the criteria into a sorted "category:keyword" list.
func (p Params) CriteriaList() []string {
	var out []string
	for category, keywords := range p.Criteria {
		for _, k := range keywords {
			out = append(out, fmt.Sprintf("%s:%s", category, k))
		}
	}
	sort.Strings(out)
	return out
}
