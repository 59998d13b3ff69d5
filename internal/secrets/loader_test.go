package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Setenv("CV_TEST_SESSION", "  from-env ")
	t.Setenv("CV_TEST_BLANK", "   ")

	dir := t.TempDir()
	filled := filepath.Join(dir, "session")
	if err := os.WriteFile(filled, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name          string
		src           Source
		want          string
		wantErr       string
		notConfigured bool
	}{
		{name: "inline value", src: Source{Name: "session token", Value: " inline "}, want: "inline"},
		{name: "file wins", src: Source{Value: "inline", File: filled, Env: []string{"CV_TEST_SESSION"}}, want: "from-file"},
		{name: "value before env", src: Source{Value: "inline", Env: []string{"CV_TEST_SESSION"}}, want: "inline"},
		{name: "first non-blank env", src: Source{Env: []string{"CV_TEST_BLANK", "CV_TEST_SESSION"}}, want: "from-env"},
		{name: "empty file does not fall through", src: Source{Name: "session token", File: empty, Value: "inline"}, wantErr: "is empty"},
		{name: "missing file", src: Source{File: filepath.Join(dir, "nope")}, wantErr: "reading secret"},
		{name: "nothing configured", src: Source{Name: "gemini api key", Env: []string{"CV_TEST_UNSET"}}, wantErr: "gemini api key", notConfigured: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				if errors.Is(err, ErrNotConfigured) != tt.notConfigured {
					t.Fatalf("unexpected ErrNotConfigured match for %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
