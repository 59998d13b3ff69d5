package cvsearch

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
)

const (
	SearchPath   = "/svc/cvsearch/search"
	MetadataPath = "/svc/cvsearch/cv/%s/metadata"
)

type SearchParams struct {
	// cvparam is the query parameter name used by buildParams.
	Query string `cvparam:"q"`
	Limit int    `cvparam:"limit"`
}

func (c *Client) search(ctx context.Context, params *SearchParams) (*SearchResponse, error) {
	if params.Limit <= 0 {
		params.Limit = DefaultLimit
	}

	var response SearchResponse
	if err := c.getJSON(ctx, SearchPath, buildParams(params), &response); err != nil {
		return nil, fmt.Errorf("cv search: %w", err)
	}

	return &response, nil
}

func buildParams(params *SearchParams) url.Values {
	q := url.Values{}
	value := reflect.ValueOf(params).Elem()
	for _, field := range reflect.VisibleFields(value.Type()) {
		key := field.Tag.Get("cvparam")
		if key == "" {
			continue
		}

		switch v := value.FieldByIndex(field.Index).Interface().(type) {
		case string:
			if v != "" {
				q.Set(key, v)
			}
		case int:
			if v != 0 {
				q.Set(key, strconv.Itoa(v))
			}
		case []string:
			for _, s := range v {
				q.Add(key, s)
			}
		}
	}

	return q
}
