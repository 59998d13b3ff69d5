package candidates

import (
	"regexp"
	"strings"
)

// Labels recognised in snippet text.
const (
	LabelName               = "NAME"
	LabelLocation           = "LOCATION"
	LabelLastEmployment     = "LAST EMPLOYMENT"
	LabelRequiredEmployment = "REQUIRED EMPLOYMENT"
	LabelRequiredSalary     = "REQUIRED SALARY"
	LabelAvailability       = "AVAILABILITY"
	LabelSummary            = "* SUMMARY"
	LabelEmail              = "EMAIL"
	LabelPhone              = "PHONE"

	emptySnippet = "-"
)

var multiSpace = regexp.MustCompile(` {2,}`)

// Fields are the labelled values found in a snippet. Empty means not found.
type Fields struct {
	Name               string
	Location           string
	LastEmployment     string
	RequiredEmployment string
	RequiredSalary     string
	Availability       string
	SummaryIntro       string
	Email              string
	Phone              string
}

// Sanitize normalises whitespace in a snippet. Empty snippets become "-".
func Sanitize(snippet string) string {
	s := strings.ReplaceAll(snippet, "\r", "")
	s = strings.ReplaceAll(s, "\t", " ")
	s = multiSpace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return emptySnippet
	}
	return s
}

// Lines splits text into trimmed, non-empty lines.
func Lines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// ExtractField returns the value of the first line starting with label
// (case-insensitive). The value is the text after the first colon. A line
// without a value reports false; later lines are not consulted.
func ExtractField(lines []string, label string) (string, bool) {
	target := strings.ToLower(strings.TrimSpace(label))
	if target == "" {
		return "", false
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(strings.ToLower(line), target) {
			continue
		}

		_, value, found := strings.Cut(line, ":")
		if !found {
			return "", false
		}

		value = strings.TrimSpace(value)
		return value, value != ""
	}

	return "", false
}

// ExtractFields runs ExtractField for every recognised label.
func ExtractFields(lines []string) Fields {
	get := func(label string) string {
		v, _ := ExtractField(lines, label)
		return v
	}

	return Fields{
		Name:               get(LabelName),
		Location:           get(LabelLocation),
		LastEmployment:     get(LabelLastEmployment),
		RequiredEmployment: get(LabelRequiredEmployment),
		RequiredSalary:     get(LabelRequiredSalary),
		Availability:       get(LabelAvailability),
		SummaryIntro:       get(LabelSummary),
		Email:              get(LabelEmail),
		Phone:              get(LabelPhone),
	}
}

// firstNonEmpty returns the first candidate that is neither empty nor the
// unknown placeholder.
func firstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || c == Unknown {
			continue
		}
		return c
	}
	return ""
}

// orDefault is firstNonEmpty with a final fallback.
func orDefault(fallback string, candidates ...string) string {
	if v := firstNonEmpty(candidates...); v != "" {
		return v
	}
	return fallback
}
