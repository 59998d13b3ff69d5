package candidates

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// RawResult is one upstream search record. Pointer fields distinguish an
// absent value from a present zero value.
type RawResult struct {
	SubjectID       *string          `mapstructure:"subjectId"`
	Name            *string          `mapstructure:"name"`
	BestScore       *float64         `mapstructure:"bestScore"`
	Score           *float64         `mapstructure:"score"`
	ScoreComponents *ScoreComponents `mapstructure:"scoreComponents"`
	Documents       []RawDocument    `mapstructure:"documents"`
}

type RawDocument struct {
	DocumentID  string       `mapstructure:"documentId"`
	Filename    string       `mapstructure:"filename"`
	Score       *float64     `mapstructure:"score"`
	Snippet     *string      `mapstructure:"snippet"`
	AIExtracted *AIExtracted `mapstructure:"aiExtracted"`
}

type ScoreComponents struct {
	Semantic *float64 `mapstructure:"semantic"`
	BM25     *float64 `mapstructure:"bm25"`
}

// AIExtracted holds values an upstream model pulled out of a CV.
// Unrecognised keys are kept in Extra.
type AIExtracted struct {
	Name               string         `json:"name,omitempty" mapstructure:"name"`
	Email              string         `json:"email,omitempty" mapstructure:"email"`
	Phone              string         `json:"phone,omitempty" mapstructure:"phone"`
	Location           string         `json:"location,omitempty" mapstructure:"location"`
	RequiredEmployment string         `json:"requiredEmployment,omitempty" mapstructure:"requiredEmployment"`
	Extra              map[string]any `json:"extra,omitempty" mapstructure:",remain"`
}

// Metadata is the enrichment payload for one CV.
type Metadata struct {
	AIExtracted *AIExtracted   `json:"aiExtracted,omitempty" mapstructure:"aiExtracted"`
	Extra       map[string]any `json:"extra,omitempty" mapstructure:",remain"`
}

// decode converts loosely typed JSON data into target.
func decode(input, target any) error {
	cfg := &mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		DecodeHook:       rejectMapAsSlice,
	}

	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}

// rejectMapAsSlice keeps weak typing from wrapping an object into a
// one-element list.
func rejectMapAsSlice(from, to reflect.Kind, data any) (any, error) {
	if from == reflect.Map && (to == reflect.Slice || to == reflect.Array) {
		return nil, fmt.Errorf("expected a list, got an object")
	}
	return data, nil
}

// DecodeMetadata converts a decoded JSON object into Metadata.
func DecodeMetadata(input any) (*Metadata, error) {
	if input == nil {
		return nil, nil
	}

	var md Metadata
	if err := decode(input, &md); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	return &md, nil
}

// asList reports whether payload is a list and returns its elements.
func asList(payload any) ([]any, bool) {
	if payload == nil {
		return nil, false
	}

	switch typed := payload.(type) {
	case []any:
		return typed, true
	case []RawResult:
		items := make([]any, 0, len(typed))
		for _, r := range typed {
			items = append(items, r)
		}
		return items, true
	}

	value := reflect.ValueOf(payload)
	if value.Kind() != reflect.Slice && value.Kind() != reflect.Array {
		return nil, false
	}

	items := make([]any, 0, value.Len())
	for i := 0; i < value.Len(); i++ {
		items = append(items, value.Index(i).Interface())
	}
	return items, true
}

func decodeRaw(item any, index int) (RawResult, error) {
	if typed, ok := item.(RawResult); ok {
		return typed, nil
	}

	if fields, ok := item.(map[string]any); ok {
		if docs, present := fields["documents"]; present && docs != nil {
			if _, isList := asList(docs); !isList {
				return RawResult{}, &ValidationError{Index: index, Problems: []string{"missing or empty 'documents'"}}
			}
		}
	}

	var raw RawResult
	if err := decode(item, &raw); err != nil {
		return RawResult{}, &ValidationError{Index: index, Problems: []string{err.Error()}}
	}
	return raw, nil
}

func stringValue(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func floatValue(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
