package candidates

import (
	"fmt"
	"strings"
)

// BuildSummary derives the short display summary from snippet paragraphs and
// the extracted fields.
func BuildSummary(paragraphs []string, fields Fields) Summary {
	intro := orDefault(noSummary,
		fields.SummaryIntro,
		paragraph(paragraphs, 0),
		fields.Name,
	)

	body := orDefault(Unknown,
		joinRange(paragraphs, 1, 3),
		fields.LastEmployment,
	)

	detail := orDefault(Unknown,
		joinRange(paragraphs, 3, len(paragraphs)),
		fields.RequiredEmployment,
	)

	return Summary{
		Intro:      intro,
		Body:       body,
		Detail:     detail,
		ListTitle:  highlightsTitle,
		Highlights: highlights(fields),
	}
}

func highlights(fields Fields) []string {
	entries := []struct {
		format string
		value  string
	}{
		{format: "Location: %s", value: fields.Location},
		{format: "Last employment: %s", value: fields.LastEmployment},
		{format: "Role preference: %s", value: fields.RequiredEmployment},
		{format: "Salary expectation: %s", value: fields.RequiredSalary},
	}

	items := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.value == "" {
			continue
		}
		items = append(items, fmt.Sprintf(e.format, e.value))
	}

	if len(items) == 0 {
		return []string{noStructuredData}
	}
	return items
}

func paragraph(paragraphs []string, idx int) string {
	if idx < 0 || idx >= len(paragraphs) {
		return ""
	}
	return paragraphs[idx]
}

// joinRange joins paragraphs[from:to] clipped to the slice bounds.
func joinRange(paragraphs []string, from, to int) string {
	if to > len(paragraphs) {
		to = len(paragraphs)
	}
	if from >= to {
		return ""
	}
	return strings.Join(paragraphs[from:to], " ")
}
