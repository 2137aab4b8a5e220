// Package model defines the domain types used across the application.
package model

import "time"

// Article is a blog article, created either by an admin or by the
// feed ingestion pipeline.
type Article struct {
	ID        int64
	Title     string
	Content   string
	Excerpt   string
	Image     string
	Author    string
	Category  string
	Language  string
	Published bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ArticlePatch holds optional field updates for an article.
// Nil fields are left unchanged.
type ArticlePatch struct {
	Title     *string
	Content   *string
	Excerpt   *string
	Image     *string
	Category  *string
	Published *bool
}

// ArticleFilter narrows article listings.
type ArticleFilter struct {
	Category      string
	PublishedOnly bool
	Limit         int
}

// FeedSource is a configured external content feed.
// Sources are static configuration, read-only at runtime.
type FeedSource struct {
	Name     string
	URL      string
	Category string
}

// FeedEntry is one item extracted from a fetched feed. It exists only
// for the duration of one pipeline pass.
type FeedEntry struct {
	Title       string
	Body        string
	Link        string
	Image       string
	PublishedAt *time.Time
}

// Lead is a contact-form submission.
type Lead struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	Message   string
	CreatedAt time.Time
}

// PendingBroadcast is a scheduled channel announcement for an article.
type PendingBroadcast struct {
	ID        int64
	ArticleID int64
	DeliverAt time.Time
	SentAt    *time.Time
}
