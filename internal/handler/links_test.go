package handler

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shortly-app/shortly/internal/auth"
	"github.com/shortly-app/shortly/internal/service"
	"github.com/shortly-app/shortly/internal/slug"
	"github.com/shortly-app/shortly/internal/storage"
)

func newTestServer(t *testing.T) (*echo.Echo, *storage.Memory) {
	t.Helper()

	mem := storage.NewMemory()
	links := service.NewLinks(mem, mem, slug.NewGenerator(rand.NewSource(1)))

	creds, err := auth.NewCredentials("alice:secret")
	if err != nil {
		t.Fatal(err)
	}
	authenticator := auth.NewAuthenticator(creds, "test-secret")

	e := echo.New()
	api := e.Group("/api", authenticator.Middleware())

	h := NewLinkHandler(links)
	api.GET("/urls", h.ListLinks)
	api.POST("/urls", h.CreateLink)
	api.GET("/urls/:id", h.GetLink)
	api.PATCH("/urls/:id", h.UpdateLink)
	api.DELETE("/urls/:id", h.DeleteLink)

	e.GET("/:slug", NewRedirectHandler(links).Redirect)

	return e, mem
}

func doJSON(e *echo.Echo, method, path, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if authed {
		req.SetBasicAuth("alice", "secret")
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateListAndRedirectFlow(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/urls", `{"original_url":"https://example.com/a/b"}`, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}

	var created LinkResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if len(created.ShortSlug) != slug.DefaultLength {
		t.Errorf("slug %q has length %d, want %d", created.ShortSlug, len(created.ShortSlug), slug.DefaultLength)
	}
	if created.Clicks != 0 {
		t.Errorf("new link has %d clicks", created.Clicks)
	}

	// Public redirect, no auth.
	rec = doJSON(e, http.MethodGet, "/"+created.ShortSlug, "", false)
	if rec.Code != http.StatusFound {
		t.Fatalf("redirect status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://example.com/a/b" {
		t.Errorf("Location = %q, want original url byte-for-byte", loc)
	}

	// The click shows up for the owner.
	rec = doJSON(e, http.MethodGet, "/api/urls/"+created.ID, "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var fetched LinkResponse
	json.Unmarshal(rec.Body.Bytes(), &fetched)
	if fetched.Clicks != 1 {
		t.Errorf("clicks = %d, want 1", fetched.Clicks)
	}
}

func TestCreateValidationErrors(t *testing.T) {
	e, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing url", `{}`},
		{"invalid url", `{"original_url":"not a url"}`},
		{"invalid custom slug", `{"original_url":"https://example.com","custom_slug":"has space"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(e, http.MethodPost, "/api/urls", tt.body, true)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateCustomSlugConflict(t *testing.T) {
	e, mem := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/urls", `{"original_url":"https://example.com","custom_slug":"mine"}`, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first create: %d", rec.Code)
	}

	rec = doJSON(e, http.MethodPost, "/api/urls", `{"original_url":"https://other.example","custom_slug":"mine"}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("conflict status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "already taken") {
		t.Errorf("conflict body %q lacks explicit message", rec.Body.String())
	}

	links, _ := mem.ListByOwner(t.Context(), "alice")
	if len(links) != 1 || links[0].URL != "https://example.com" {
		t.Errorf("store mutated by failed create: %+v", links)
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	e, _ := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/urls"},
		{http.MethodPost, "/api/urls"},
		{http.MethodGet, "/api/urls/some-id"},
		{http.MethodPatch, "/api/urls/some-id"},
		{http.MethodDelete, "/api/urls/some-id"},
	} {
		rec := doJSON(e, tc.method, tc.path, `{"original_url":"https://example.com"}`, false)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d, want 401", tc.method, tc.path, rec.Code)
		}
	}
}

func TestGetForeignLinkIsNotFound(t *testing.T) {
	e, mem := newTestServer(t)

	link, err := mem.Create(t.Context(), "bob", "bobs", "https://bob.example")
	if err != nil {
		t.Fatal(err)
	}

	rec := doJSON(e, http.MethodGet, "/api/urls/"+link.ID, "", true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign get status = %d, want 404", rec.Code)
	}
}

func TestUpdatePartial(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/urls", `{"original_url":"https://example.com","custom_slug":"mine"}`, true)
	var created LinkResponse
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doJSON(e, http.MethodPatch, "/api/urls/"+created.ID, `{"original_url":"https://example.org/new"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", rec.Code, rec.Body.String())
	}
	var updated LinkResponse
	json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.OriginalURL != "https://example.org/new" {
		t.Errorf("url = %q", updated.OriginalURL)
	}
	if updated.ShortSlug != "mine" {
		t.Errorf("slug changed by partial update: %q", updated.ShortSlug)
	}
}

func TestUpdateSlugConflict(t *testing.T) {
	e, _ := newTestServer(t)

	doJSON(e, http.MethodPost, "/api/urls", `{"original_url":"https://example.com","custom_slug":"taken"}`, true)
	rec := doJSON(e, http.MethodPost, "/api/urls", `{"original_url":"https://example.com","custom_slug":"mine"}`, true)
	var created LinkResponse
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doJSON(e, http.MethodPatch, "/api/urls/"+created.ID, `{"short_slug":"taken"}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("slug conflict status = %d, want 400", rec.Code)
	}
}

func TestDeleteThenGet(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/urls", `{"original_url":"https://example.com"}`, true)
	var created LinkResponse
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doJSON(e, http.MethodDelete, "/api/urls/"+created.ID, "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	var resp DeleteLinkResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Success {
		t.Error("delete response lacks success:true")
	}

	rec = doJSON(e, http.MethodGet, "/api/urls/"+created.ID, "", true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}

	// Deleting again reports not-found, not success.
	rec = doJSON(e, http.MethodDelete, "/api/urls/"+created.ID, "", true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", rec.Code)
	}
}

func TestListOwnedOnlyNewestFirst(t *testing.T) {
	e, mem := newTestServer(t)

	doJSON(e, http.MethodPost, "/api/urls", `{"original_url":"https://example.com/1","custom_slug":"one"}`, true)
	doJSON(e, http.MethodPost, "/api/urls", `{"original_url":"https://example.com/2","custom_slug":"two"}`, true)
	mem.Create(t.Context(), "bob", "bobs", "https://bob.example")

	rec := doJSON(e, http.MethodGet, "/api/urls", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}

	var links []LinkResponse
	json.Unmarshal(rec.Body.Bytes(), &links)
	if len(links) != 2 {
		t.Fatalf("got %d links, want 2 (owner-scoped)", len(links))
	}
	for _, l := range links {
		if l.ShortSlug == "bobs" {
			t.Error("list leaked a foreign link")
		}
	}
}
