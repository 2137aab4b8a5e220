// Package pipeline implements the feed ingestion core: it pulls the
// configured feed sources, translates new entries into the site's
// primary language, publishes them as articles, and schedules a
// channel broadcast for each one, all under a global daily quota.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"aipress/internal/fetcher"
	"aipress/internal/model"
	"aipress/internal/storage"
	"aipress/internal/translate"
)

// MaxDailyArticles is the global creation quota per calendar day.
const MaxDailyArticles = 10

const (
	defaultEntryDelay      = 10 * time.Second
	defaultSourceDelay     = 5 * time.Second
	defaultBroadcastWindow = time.Hour
	excerptLength          = 200
)

// ErrAlreadyRunning is returned when a sync is requested while another
// run is still active.
var ErrAlreadyRunning = errors.New("sync already running")

// Pipeline orchestrates one ingestion pass over all configured sources.
type Pipeline struct {
	store      storage.Storage
	fetcher    *fetcher.Fetcher
	translator *translate.Service
	sources    []model.FeedSource
	targetLang string
	log        *slog.Logger

	entryDelay      time.Duration
	sourceDelay     time.Duration
	broadcastWindow time.Duration

	runMu   sync.Mutex
	running bool

	cacheMu   sync.Mutex
	processed map[string]struct{}
}

// New constructs a Pipeline with injected dependencies.
func New(store storage.Storage, f *fetcher.Fetcher, tr *translate.Service, sources []model.FeedSource, targetLang string, log *slog.Logger) *Pipeline {
	return &Pipeline{
		store:           store,
		fetcher:         f,
		translator:      tr,
		sources:         sources,
		targetLang:      targetLang,
		log:             log,
		entryDelay:      defaultEntryDelay,
		sourceDelay:     defaultSourceDelay,
		broadcastWindow: defaultBroadcastWindow,
		processed:       make(map[string]struct{}),
	}
}

// SetDelays overrides the inter-entry and inter-source throttle delays.
func (p *Pipeline) SetDelays(entry, source time.Duration) {
	p.entryDelay = entry
	p.sourceDelay = source
}

// SetBroadcastWindow overrides the random broadcast delay window.
func (p *Pipeline) SetBroadcastWindow(d time.Duration) {
	p.broadcastWindow = d
}

// WarmCache loads the durable processed-link set into the in-memory cache.
// Called once at startup; a failure only means more cache misses later.
func (p *Pipeline) WarmCache(ctx context.Context) error {
	links, err := p.store.ListProcessedLinks(ctx)
	if err != nil {
		return fmt.Errorf("list processed links: %w", err)
	}
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	for _, link := range links {
		p.processed[link] = struct{}{}
	}
	return nil
}

// Run executes one ingestion pass and returns the number of articles
// created. Only one run may be active at a time; a second caller gets
// ErrAlreadyRunning immediately.
func (p *Pipeline) Run(ctx context.Context) (int, error) {
	if !p.tryStart() {
		return 0, ErrAlreadyRunning
	}
	defer p.finish()

	day := time.Now().UTC().Format("2006-01-02")
	count, err := p.store.QuotaCount(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("read quota: %w", err)
	}
	if count >= MaxDailyArticles {
		p.log.Info("daily quota reached, skipping run", "day", day, "count", count)
		return 0, nil
	}

	created := 0
	for _, src := range p.sources {
		if ctx.Err() != nil {
			return created, ctx.Err()
		}
		if count+created >= MaxDailyArticles {
			p.log.Info("daily quota exhausted mid-run", "day", day)
			break
		}
		if p.processSource(ctx, src, day) {
			created++
			if !sleepCtx(ctx, p.entryDelay) {
				return created, ctx.Err()
			}
		}
		if !sleepCtx(ctx, p.sourceDelay) {
			return created, ctx.Err()
		}
	}

	p.log.Info("ingestion run finished", "created", created)
	return created, nil
}

// processSource handles one feed source and reports whether an article
// was created. Failures are isolated: they are logged and the run moves on.
func (p *Pipeline) processSource(ctx context.Context, src model.FeedSource, day string) bool {
	feed, err := p.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		p.log.Error("fetch feed", "source", src.Name, "url", src.URL, "error", err)
		return false
	}

	entry := fetcher.LatestEntry(feed)
	if entry == nil {
		p.log.Debug("feed has no usable entries", "source", src.Name)
		return false
	}

	seen, err := p.isProcessed(ctx, entry.Link)
	if err != nil {
		p.log.Error("check processed link", "source", src.Name, "link", entry.Link, "error", err)
		return false
	}
	if seen {
		p.log.Debug("entry already ingested", "source", src.Name, "link", entry.Link)
		return false
	}

	article := p.buildArticle(ctx, src, entry)
	if err := p.store.CreateArticle(ctx, article); err != nil {
		p.log.Error("persist article", "source", src.Name, "link", entry.Link, "error", err)
		return false
	}

	if err := p.markProcessed(ctx, entry.Link); err != nil {
		p.log.Error("mark link processed", "source", src.Name, "link", entry.Link, "error", err)
	}
	if err := p.store.IncrementQuota(ctx, day); err != nil {
		p.log.Error("increment quota", "day", day, "error", err)
	}

	deliverAt := time.Now().UTC()
	if p.broadcastWindow > 0 {
		deliverAt = deliverAt.Add(time.Duration(rand.Int63n(int64(p.broadcastWindow))))
	}
	if err := p.store.ScheduleBroadcast(ctx, article.ID, deliverAt); err != nil {
		p.log.Error("schedule broadcast", "article_id", article.ID, "error", err)
	}

	p.log.Info("article ingested", "source", src.Name, "article_id", article.ID, "link", entry.Link)
	return true
}

// buildArticle turns a feed entry into a publishable article.
func (p *Pipeline) buildArticle(ctx context.Context, src model.FeedSource, entry *model.FeedEntry) *model.Article {
	body := fetcher.SanitizeBody(entry.Body)

	title := p.translator.Translate(ctx, entry.Title, p.targetLang)
	body = p.translator.Translate(ctx, body, p.targetLang)

	content := fmt.Sprintf("%s\n\nИсточник: %s (%s)", body, src.Name, entry.Link)

	return &model.Article{
		Title:     title,
		Content:   content,
		Excerpt:   makeExcerpt(body),
		Image:     entry.Image,
		Author:    fmt.Sprintf("Бот (%s)", src.Name),
		Category:  src.Category,
		Language:  p.targetLang,
		Published: true,
	}
}

func makeExcerpt(body string) string {
	runes := []rune(body)
	if len(runes) > excerptLength {
		runes = runes[:excerptLength]
	}
	return string(runes) + "..."
}

func (p *Pipeline) isProcessed(ctx context.Context, link string) (bool, error) {
	p.cacheMu.Lock()
	_, ok := p.processed[link]
	p.cacheMu.Unlock()
	if ok {
		return true, nil
	}

	seen, err := p.store.IsLinkProcessed(ctx, link)
	if err != nil {
		return false, err
	}
	if seen {
		p.cacheMu.Lock()
		p.processed[link] = struct{}{}
		p.cacheMu.Unlock()
	}
	return seen, nil
}

func (p *Pipeline) markProcessed(ctx context.Context, link string) error {
	p.cacheMu.Lock()
	p.processed[link] = struct{}{}
	p.cacheMu.Unlock()
	return p.store.MarkLinkProcessed(ctx, link)
}

func (p *Pipeline) tryStart() bool {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	if p.running {
		return false
	}
	p.running = true
	return true
}

func (p *Pipeline) finish() {
	p.runMu.Lock()
	p.running = false
	p.runMu.Unlock()
}

// sleepCtx sleeps for d unless the context is cancelled first.
// Returns false on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
