package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newRedirectRequest(path string) (*http.Request, *httptest.ResponseRecorder) {
	return httptest.NewRequest(http.MethodGet, path, nil), httptest.NewRecorder()
}

func TestRedirectUnknownSlugGoesToNotFoundPage(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/zzzz99", "", false)
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/not-found" {
		t.Errorf("Location = %q, want /not-found", loc)
	}
}

func TestRedirectScreensNonSlugPaths(t *testing.T) {
	e, _ := newTestServer(t)

	// Asset-looking and reserved segments are not lookup candidates; they
	// get a plain 404 from routing, not the not-found redirect.
	for _, path := range []string{"/favicon.ico", "/robots.txt", "/health2", "/static1", "/_next"} {
		rec := doJSON(e, http.MethodGet, path, "", false)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "" {
			t.Errorf("GET %s redirected to %q", path, loc)
		}
	}
}

func TestRedirectRecordsVisitMetadata(t *testing.T) {
	e, mem := newTestServer(t)

	link, err := mem.Create(t.Context(), "alice", "target", "https://example.com")
	if err != nil {
		t.Fatal(err)
	}

	req, rec := newRedirectRequest("/target")
	req.Header.Set("User-Agent", "curl/8.0")
	req.Header.Set("Referer", "https://ref.example")
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d", rec.Code)
	}

	events := mem.Events()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].LinkID != link.ID || events[0].UserAgent != "curl/8.0" || events[0].Referrer != "https://ref.example" {
		t.Errorf("unexpected event: %+v", events[0])
	}
}

func TestIsSlugCandidate(t *testing.T) {
	tests := []struct {
		slug string
		want bool
	}{
		{"abc123", true},
		{"zzzz99", true},
		{"favicon.ico", false},
		{"api", false},
		{"apiFoo", false},
		{"auth", false},
		{"_internal", false},
		{"", false},
		{"Apple", true}, // prefix match is case-sensitive
	}

	for _, tt := range tests {
		if got := isSlugCandidate(tt.slug); got != tt.want {
			t.Errorf("isSlugCandidate(%q) = %v, want %v", tt.slug, got, tt.want)
		}
	}
}
