// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"time"

	"aipress/internal/model"
)

// Storage is the interface for all persistence operations.
type Storage interface {
	CreateArticle(ctx context.Context, a *model.Article) error
	GetArticle(ctx context.Context, id int64) (*model.Article, error)
	ListArticles(ctx context.Context, filter model.ArticleFilter) ([]model.Article, error)
	UpdateArticle(ctx context.Context, id int64, patch model.ArticlePatch) (*model.Article, error)

	CreateLead(ctx context.Context, l *model.Lead) error
	ListLeads(ctx context.Context) ([]model.Lead, error)

	MarkLinkProcessed(ctx context.Context, link string) error
	IsLinkProcessed(ctx context.Context, link string) (bool, error)
	ListProcessedLinks(ctx context.Context) ([]string, error)

	QuotaCount(ctx context.Context, day string) (int, error)
	IncrementQuota(ctx context.Context, day string) error

	ScheduleBroadcast(ctx context.Context, articleID int64, deliverAt time.Time) error
	DueBroadcasts(ctx context.Context, now time.Time) ([]model.PendingBroadcast, error)
	MarkBroadcastSent(ctx context.Context, id int64) error

	Close() error
}
