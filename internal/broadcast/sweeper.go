package broadcast

import (
	"context"
	"log/slog"
	"time"

	"aipress/internal/model"
	"aipress/internal/storage"
)

// Sender is the interface for delivering one article announcement.
type Sender interface {
	SendArticle(a *model.Article) error
}

// Sweeper periodically delivers due pending broadcasts. Because the
// schedule lives in the database, deliveries survive a process restart.
type Sweeper struct {
	store  storage.Storage
	sender Sender
	log    *slog.Logger
	tick   time.Duration
}

// NewSweeper creates a Sweeper with the default 1-minute sweep interval.
func NewSweeper(store storage.Storage, sender Sender, log *slog.Logger) *Sweeper {
	return &Sweeper{
		store:  store,
		sender: sender,
		log:    log,
		tick:   1 * time.Minute,
	}
}

// SetTickInterval overrides the default sweep interval.
func (s *Sweeper) SetTickInterval(d time.Duration) {
	s.tick = d
}

// Run starts the sweep loop, blocking until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.Sweep(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep delivers every due broadcast once. Send failures are logged and
// the row is still marked sent: announcements are fire-and-forget.
func (s *Sweeper) Sweep(ctx context.Context) {
	due, err := s.store.DueBroadcasts(ctx, time.Now())
	if err != nil {
		s.log.Error("list due broadcasts", "error", err)
		return
	}

	for _, b := range due {
		if ctx.Err() != nil {
			return
		}

		article, err := s.store.GetArticle(ctx, b.ArticleID)
		if err != nil {
			s.log.Error("load article for broadcast", "article_id", b.ArticleID, "error", err)
		} else if err := s.sender.SendArticle(article); err != nil {
			s.log.Error("send broadcast", "article_id", b.ArticleID, "error", err)
		}

		if err := s.store.MarkBroadcastSent(ctx, b.ID); err != nil {
			s.log.Error("mark broadcast sent", "broadcast_id", b.ID, "error", err)
		}
	}
}
