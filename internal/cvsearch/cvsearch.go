// Package cvsearch is a client for the Atollon CV search service.
package cvsearch

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	SessionHeader  = "X-Atollon-Session"
	DefaultSession = "test-session"
	DefaultLimit   = 50

	userAgent = "spigell/cv-search"
)

// ErrEmptyQuery is returned before any request is made for a blank query.
var ErrEmptyQuery = errors.New("please enter a search query")

type Client struct {
	session    string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string
}

// New creates a client for baseURL. The session token is sent with every
// request; an empty token falls back to DefaultSession.
func New(logger *zap.Logger, baseURL, session string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(session) == "" {
		session = DefaultSession
	}
	return &Client{
		session: session,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

// SearchResponse is the raw search payload. Results is left untyped and
// converted by the candidates mapper.
type SearchResponse struct {
	Results any `json:"results"`
}

// Search runs a full-text CV search.
func (c *Client) Search(ctx context.Context, query string, limit int) (*SearchResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	return c.search(ctx, &SearchParams{Query: query, Limit: limit})
}
