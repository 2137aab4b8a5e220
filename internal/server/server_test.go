package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"aipress/internal/model"
	"aipress/internal/pipeline"
	"aipress/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSyncer struct {
	created int
	err     error
	calls   int
}

func (f *fakeSyncer) Run(_ context.Context) (int, error) {
	f.calls++
	return f.created, f.err
}

func newTestServer(t *testing.T, syncer Syncer) (*Server, *storage.SQLite) {
	t.Helper()
	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if syncer == nil {
		syncer = &fakeSyncer{}
	}
	return New(store, syncer, testLogger()), store
}

func doRequest(s *Server, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func seedArticle(t *testing.T, store *storage.SQLite, title string, published bool) *model.Article {
	t.Helper()
	a := &model.Article{
		Title:     title,
		Content:   "content",
		Category:  "ai",
		Language:  "ru",
		Published: published,
	}
	if err := store.CreateArticle(context.Background(), a); err != nil {
		t.Fatalf("seed article: %v", err)
	}
	return a
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := doRequest(s, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}

func TestPublicListShowsOnlyPublished(t *testing.T) {
	s, store := newTestServer(t, nil)
	seedArticle(t, store, "visible", true)
	seedArticle(t, store, "hidden draft", false)

	w := doRequest(s, http.MethodGet, "/api/articles", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var got []articleResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Title != "visible" {
		t.Errorf("unexpected listing: %+v", got)
	}
}

func TestPublicGetArticle(t *testing.T) {
	s, store := newTestServer(t, nil)
	published := seedArticle(t, store, "visible", true)
	draft := seedArticle(t, store, "draft", false)

	tests := []struct {
		name     string
		path     string
		wantCode int
	}{
		{name: "published ok", path: fmt.Sprintf("/api/articles/%d", published.ID), wantCode: http.StatusOK},
		{name: "draft hidden", path: fmt.Sprintf("/api/articles/%d", draft.ID), wantCode: http.StatusNotFound},
		{name: "missing", path: "/api/articles/9999", wantCode: http.StatusNotFound},
		{name: "bad id", path: "/api/articles/abc", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(s, http.MethodGet, tt.path, nil)
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestCreateLead(t *testing.T) {
	tests := []struct {
		name     string
		body     map[string]string
		wantCode int
	}{
		{
			name: "valid lead",
			body: map[string]string{
				"name":    "Ivan",
				"email":   "ivan@example.com",
				"message": "Нужна консультация",
			},
			wantCode: http.StatusCreated,
		},
		{
			name: "missing message",
			body: map[string]string{
				"name":  "Ivan",
				"email": "ivan@example.com",
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "invalid email",
			body: map[string]string{
				"name":    "Ivan",
				"email":   "not-an-email",
				"message": "hello",
			},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store := newTestServer(t, nil)
			w := doRequest(s, http.MethodPost, "/api/leads", tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d, body = %s", w.Code, tt.wantCode, w.Body.String())
			}
			leads, err := store.ListLeads(context.Background())
			if err != nil {
				t.Fatalf("list leads: %v", err)
			}
			wantLeads := 0
			if tt.wantCode == http.StatusCreated {
				wantLeads = 1
			}
			if len(leads) != wantLeads {
				t.Errorf("stored leads = %d, want %d", len(leads), wantLeads)
			}
		})
	}
}

func TestAdminListIncludesDrafts(t *testing.T) {
	s, store := newTestServer(t, nil)
	seedArticle(t, store, "published", true)
	seedArticle(t, store, "draft", false)

	w := doRequest(s, http.MethodGet, "/api/admin/articles", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got []articleResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("admin listing = %d articles, want 2", len(got))
	}
}

func TestAdminCreateAndPublishToggle(t *testing.T) {
	s, store := newTestServer(t, nil)

	w := doRequest(s, http.MethodPost, "/api/admin/articles", map[string]any{
		"title":    "Ручная статья",
		"content":  "Текст",
		"category": "news",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var created articleResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Published {
		t.Error("new admin article must default to draft")
	}

	w = doRequest(s, http.MethodPut, fmt.Sprintf("/api/admin/articles/%d", created.ID), map[string]any{
		"published": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}

	got, err := store.GetArticle(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get article: %v", err)
	}
	if !got.Published {
		t.Error("publish toggle did not persist")
	}
	if got.Title != "Ручная статья" {
		t.Errorf("toggle changed title to %q", got.Title)
	}
}

func TestAdminUpdateMissingArticle(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := doRequest(s, http.MethodPut, "/api/admin/articles/9999", map[string]any{"published": true})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestAdminSync(t *testing.T) {
	tests := []struct {
		name     string
		syncer   *fakeSyncer
		wantCode int
	}{
		{
			name:     "success",
			syncer:   &fakeSyncer{created: 3},
			wantCode: http.StatusOK,
		},
		{
			name:     "already running",
			syncer:   &fakeSyncer{err: pipeline.ErrAlreadyRunning},
			wantCode: http.StatusConflict,
		},
		{
			name:     "failure",
			syncer:   &fakeSyncer{err: context.DeadlineExceeded},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, tt.syncer)
			w := doRequest(s, http.MethodPost, "/api/admin/sync", nil)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d, body = %s", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.syncer.calls != 1 {
				t.Errorf("syncer calls = %d, want 1", tt.syncer.calls)
			}
		})
	}
}
