package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spigell/cv-search/internal/cvsearch"
)

func TestSearchForwardsQueryAndSession(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != cvsearch.SearchPath {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query()["tag"]; len(got) != 2 {
			t.Errorf("expected repeated params to be copied, got %v", got)
		}
		if got := r.Header.Get(cvsearch.SessionHeader); got != "from-client" {
			t.Errorf("unexpected session %q", got)
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer upstream.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/real-search?q=cfo&limit=5&tag=a&tag=b", nil)
	req.Header.Set(cvsearch.SessionHeader, "from-client")
	rec := httptest.NewRecorder()

	New(nil, upstream.URL, "configured").ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if rec.Body.String() != `{"results":[]}` {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestMetadataUsesConfiguredSession(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/svc/cvsearch/cv/42/metadata" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get(cvsearch.SessionHeader); got != "configured" {
			t.Errorf("unexpected session %q", got)
		}
		w.Header()["Content-Type"] = nil
		fmt.Fprint(w, `{}`)
	}))
	defer upstream.Close()

	rec := httptest.NewRecorder()
	New(nil, upstream.URL, "configured").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cv-metadata?cvId=42", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected default content type, got %q", ct)
	}
}

func TestRelayErrors(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "empty" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, "invalid session")
	}))
	t.Cleanup(upstream.Close)

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	tests := []struct {
		name       string
		target     string
		method     string
		path       string
		wantStatus int
		wantBody   string
		wantError  string
	}{
		{name: "method not allowed", target: upstream.URL, method: http.MethodPost, path: "/api/real-search", wantStatus: http.StatusMethodNotAllowed, wantError: "Method Not Allowed"},
		{name: "missing cv id", target: upstream.URL, method: http.MethodGet, path: "/api/cv-metadata", wantStatus: http.StatusBadRequest, wantError: "cvId is required"},
		{name: "upstream status passed through", target: upstream.URL, method: http.MethodGet, path: "/api/real-search?q=cfo", wantStatus: http.StatusForbidden, wantBody: "invalid session"},
		{name: "empty upstream body", target: upstream.URL, method: http.MethodGet, path: "/api/real-search?q=empty", wantStatus: http.StatusServiceUnavailable, wantBody: "Upstream request failed"},
		{name: "unreachable upstream", target: closedURL, method: http.MethodGet, path: "/api/cv-metadata?cvId=1", wantStatus: http.StatusBadGateway, wantError: "Failed to reach CV metadata service"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			New(nil, tt.target, "").ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Fatalf("expected body %q, got %q", tt.wantBody, rec.Body.String())
			}
			if tt.wantError != "" {
				var payload map[string]string
				if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
					t.Fatalf("expected JSON error body: %v", err)
				}
				if payload["error"] != tt.wantError {
					t.Fatalf("expected error %q, got %q", tt.wantError, payload["error"])
				}
			}
			if tt.method == http.MethodPost && rec.Header().Get("Allow") != http.MethodGet {
				t.Fatalf("expected Allow header, got %q", rec.Header().Get("Allow"))
			}
		})
	}
}
