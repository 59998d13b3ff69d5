// Package relay exposes the CV search service under /api so browser
// clients can reach it from the same origin.
package relay

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/cv-search/internal/cvsearch"
	"github.com/spigell/cv-search/internal/utils"
)

const (
	SearchRoute   = "/api/real-search"
	MetadataRoute = "/api/cv-metadata"

	upstreamFailed = "Upstream request failed"
	logBodyLimit   = 200
)

type Handler struct {
	target     string
	session    string
	logger     *zap.Logger
	HTTPClient *http.Client
	mux        *http.ServeMux
}

// New creates the relay for the upstream target. session is forwarded when
// the caller does not send its own session header.
func New(logger *zap.Logger, target, session string) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(session) == "" {
		session = cvsearch.DefaultSession
	}

	h := &Handler{
		target:     strings.TrimRight(target, "/"),
		session:    session,
		logger:     logger,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		mux:        http.NewServeMux(),
	}
	h.mux.HandleFunc(SearchRoute, h.search)
	h.mux.HandleFunc(MetadataRoute, h.metadata)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	target := h.target + cvsearch.SearchPath
	if q := r.URL.Query(); len(q) > 0 {
		target += "?" + q.Encode()
	}

	h.forward(w, r, target, "Failed to reach CV search service")
}

func (h *Handler) metadata(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	cvID := r.URL.Query().Get("cvId")
	if cvID == "" {
		writeJSONError(w, http.StatusBadRequest, "cvId is required")
		return
	}

	target := h.target + fmt.Sprintf(cvsearch.MetadataPath, url.PathEscape(cvID))
	h.forward(w, r, target, "Failed to reach CV metadata service")
}

func (h *Handler) forward(w http.ResponseWriter, r *http.Request, target, failure string) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		h.logger.Error("failed to build upstream request", zap.String("target", target), zap.Error(err))
		writeJSONError(w, http.StatusBadGateway, failure)
		return
	}

	session := r.Header.Get(cvsearch.SessionHeader)
	if session == "" {
		session = h.session
	}
	req.Header.Set(cvsearch.SessionHeader, session)

	h.logger.Debug("relaying request", zap.String("target", target))

	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		h.logger.Error("relay request failed", zap.String("target", target), zap.Error(err))
		writeJSONError(w, http.StatusBadGateway, failure)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		h.logger.Error("failed to read upstream response", zap.String("target", target), zap.Error(err))
		writeJSONError(w, http.StatusBadGateway, failure)
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		h.logger.Warn("upstream returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("body", utils.TruncateForLog(string(body), logBodyLimit)),
		)
		if len(body) == 0 {
			body = []byte(upstreamFailed)
		}
		w.WriteHeader(resp.StatusCode)
		_, _ = w.Write(body)
		return
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/json"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet {
		return true
	}
	w.Header().Set("Allow", http.MethodGet)
	writeJSONError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	return false
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
