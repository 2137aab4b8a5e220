package broadcast

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"aipress/internal/model"
	"aipress/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *storage.SQLite {
	t.Helper()
	s, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type recordingSender struct {
	mu   sync.Mutex
	sent []int64
	err  error
}

func (r *recordingSender) SendArticle(a *model.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, a.ID)
	return r.err
}

func (r *recordingSender) sentIDs() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]int64, len(r.sent))
	copy(cp, r.sent)
	return cp
}

func createArticle(t *testing.T, store *storage.SQLite, title string) *model.Article {
	t.Helper()
	a := &model.Article{Title: title, Content: "body", Category: "ai", Published: true}
	if err := store.CreateArticle(context.Background(), a); err != nil {
		t.Fatalf("create article: %v", err)
	}
	return a
}

func TestSweepDeliversDueOnly(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	now := time.Now().UTC()

	due := createArticle(t, store, "due article")
	future := createArticle(t, store, "future article")

	if err := store.ScheduleBroadcast(ctx, due.ID, now.Add(-time.Minute)); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := store.ScheduleBroadcast(ctx, future.ID, now.Add(time.Hour)); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	sender := &recordingSender{}
	sweeper := NewSweeper(store, sender, testLogger())
	sweeper.Sweep(ctx)

	if diff := cmp.Diff([]int64{due.ID}, sender.sentIDs()); diff != "" {
		t.Errorf("sent ids mismatch (-want +got):\n%s", diff)
	}

	// A second sweep must not redeliver.
	sweeper.Sweep(ctx)
	if got := sender.sentIDs(); len(got) != 1 {
		t.Errorf("redelivered: %v", got)
	}
}

func TestSweepSendFailureIsFireAndForget(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	a := createArticle(t, store, "doomed article")
	if err := store.ScheduleBroadcast(ctx, a.ID, time.Now().UTC().Add(-time.Minute)); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	sender := &recordingSender{err: errors.New("telegram down")}
	sweeper := NewSweeper(store, sender, testLogger())
	sweeper.Sweep(ctx)

	// The failure is logged only; the broadcast is consumed, not retried.
	pending, err := store.DueBroadcasts(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("due broadcasts: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("failed send left pending rows: %+v", pending)
	}
}

func TestSweepSkipsMissingArticle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.ScheduleBroadcast(ctx, 12345, time.Now().UTC().Add(-time.Minute)); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	sender := &recordingSender{}
	sweeper := NewSweeper(store, sender, testLogger())
	sweeper.Sweep(ctx)

	if got := sender.sentIDs(); len(got) != 0 {
		t.Errorf("sent for missing article: %v", got)
	}
	pending, err := store.DueBroadcasts(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("due broadcasts: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("missing-article broadcast not consumed: %+v", pending)
	}
}

func TestFormatAnnouncement(t *testing.T) {
	tests := []struct {
		name    string
		article model.Article
		want    string
	}{
		{
			name: "with excerpt",
			article: model.Article{
				Category: "ai",
				Title:    "Новая статья",
				Excerpt:  "Краткое описание...",
			},
			want: "[ai]\n\nНовая статья\n\nКраткое описание...",
		},
		{
			name: "without excerpt",
			article: model.Article{
				Category: "technology",
				Title:    "Заголовок",
			},
			want: "[technology]\n\nЗаголовок",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatAnnouncement(&tt.article); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
