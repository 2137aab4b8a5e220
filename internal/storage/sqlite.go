package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"aipress/internal/model"
	"aipress/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = sql.ErrNoRows

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateArticle inserts a new article and populates its ID and timestamps.
func (s *SQLite) CreateArticle(ctx context.Context, a *model.Article) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO articles (title, content, excerpt, image, author, category, language, published, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Title, a.Content, a.Excerpt, a.Image, a.Author, a.Category, a.Language, boolToInt(a.Published), now, now,
	)
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	a.ID = id
	a.CreatedAt, _ = time.Parse(timeLayout, now)
	a.UpdatedAt = a.CreatedAt
	return nil
}

// GetArticle returns a single article by its ID.
func (s *SQLite) GetArticle(ctx context.Context, id int64) (*model.Article, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, content, excerpt, image, author, category, language, published, created_at, updated_at
		 FROM articles WHERE id = ?`, id,
	)
	return scanArticle(row)
}

// ListArticles returns articles matching the filter, newest first.
func (s *SQLite) ListArticles(ctx context.Context, filter model.ArticleFilter) ([]model.Article, error) {
	query := `SELECT id, title, content, excerpt, image, author, category, language, published, created_at, updated_at
	          FROM articles`
	var conds []string
	var args []any
	if filter.PublishedOnly {
		conds = append(conds, "published = 1")
	}
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var articles []model.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

// UpdateArticle applies a patch to an existing article and returns the result.
func (s *SQLite) UpdateArticle(ctx context.Context, id int64, patch model.ArticlePatch) (*model.Article, error) {
	a, err := s.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		a.Title = *patch.Title
	}
	if patch.Content != nil {
		a.Content = *patch.Content
	}
	if patch.Excerpt != nil {
		a.Excerpt = *patch.Excerpt
	}
	if patch.Image != nil {
		a.Image = *patch.Image
	}
	if patch.Category != nil {
		a.Category = *patch.Category
	}
	if patch.Published != nil {
		a.Published = *patch.Published
	}

	now := time.Now().UTC().Format(timeLayout)
	_, err = s.db.ExecContext(ctx,
		`UPDATE articles SET title = ?, content = ?, excerpt = ?, image = ?, category = ?, published = ?, updated_at = ?
		 WHERE id = ?`,
		a.Title, a.Content, a.Excerpt, a.Image, a.Category, boolToInt(a.Published), now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update article: %w", err)
	}
	a.UpdatedAt, _ = time.Parse(timeLayout, now)
	return a, nil
}

// CreateLead inserts a contact-form submission.
func (s *SQLite) CreateLead(ctx context.Context, l *model.Lead) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (name, email, phone, message, created_at) VALUES (?, ?, ?, ?, ?)`,
		l.Name, l.Email, l.Phone, l.Message, now,
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	l.ID = id
	l.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ListLeads returns all leads, newest first.
func (s *SQLite) ListLeads(ctx context.Context) ([]model.Lead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, phone, message, created_at FROM leads ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var leads []model.Lead
	for rows.Next() {
		var l model.Lead
		var created string
		if err := rows.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.Message, &created); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		l.CreatedAt, _ = time.Parse(timeLayout, created)
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// MarkLinkProcessed records that a feed entry link has been ingested.
func (s *SQLite) MarkLinkProcessed(ctx context.Context, link string) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO processed_links (link, processed_at) VALUES (?, ?)`,
		link, now,
	)
	if err != nil {
		return fmt.Errorf("mark link processed: %w", err)
	}
	return nil
}

// IsLinkProcessed checks whether a feed entry link has already been ingested.
func (s *SQLite) IsLinkProcessed(ctx context.Context, link string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM processed_links WHERE link = ?`, link,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check link processed: %w", err)
	}
	return count > 0, nil
}

// ListProcessedLinks returns every recorded link, for warming the in-memory cache.
func (s *SQLite) ListProcessedLinks(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT link FROM processed_links`)
	if err != nil {
		return nil, fmt.Errorf("query processed links: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var links []string
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// QuotaCount returns the number of pipeline-created articles for a day ("2006-01-02").
func (s *SQLite) QuotaCount(ctx context.Context, day string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT created_count FROM pipeline_quota WHERE day = ?`, day,
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query quota: %w", err)
	}
	return count, nil
}

// IncrementQuota adds one to the day's creation counter.
func (s *SQLite) IncrementQuota(ctx context.Context, day string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pipeline_quota (day, created_count) VALUES (?, 1)
		 ON CONFLICT(day) DO UPDATE SET created_count = created_count + 1`,
		day,
	)
	if err != nil {
		return fmt.Errorf("increment quota: %w", err)
	}
	return nil
}

// ScheduleBroadcast records a pending channel announcement for an article.
func (s *SQLite) ScheduleBroadcast(ctx context.Context, articleID int64, deliverAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pending_broadcasts (article_id, deliver_at) VALUES (?, ?)`,
		articleID, deliverAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("schedule broadcast: %w", err)
	}
	return nil
}

// DueBroadcasts returns unsent broadcasts whose deliver_at has passed.
func (s *SQLite) DueBroadcasts(ctx context.Context, now time.Time) ([]model.PendingBroadcast, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, article_id, deliver_at, sent_at FROM pending_broadcasts
		 WHERE sent_at IS NULL AND deliver_at <= ? ORDER BY deliver_at`,
		now.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("query due broadcasts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pending []model.PendingBroadcast
	for rows.Next() {
		var b model.PendingBroadcast
		var deliverAt string
		var sentAt sql.NullString
		if err := rows.Scan(&b.ID, &b.ArticleID, &deliverAt, &sentAt); err != nil {
			return nil, fmt.Errorf("scan broadcast: %w", err)
		}
		b.DeliverAt, _ = time.Parse(timeLayout, deliverAt)
		if sentAt.Valid {
			t, _ := time.Parse(timeLayout, sentAt.String)
			b.SentAt = &t
		}
		pending = append(pending, b)
	}
	return pending, rows.Err()
}

// MarkBroadcastSent records that a broadcast has been delivered.
func (s *SQLite) MarkBroadcastSent(ctx context.Context, id int64) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`UPDATE pending_broadcasts SET sent_at = ? WHERE id = ?`, now, id,
	)
	if err != nil {
		return fmt.Errorf("mark broadcast sent: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanArticle(row scannable) (*model.Article, error) {
	var a model.Article
	var published int
	var created, updated sql.NullString
	err := row.Scan(&a.ID, &a.Title, &a.Content, &a.Excerpt, &a.Image, &a.Author,
		&a.Category, &a.Language, &published, &created, &updated)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan article: %w", err)
	}
	a.Published = published == 1
	if created.Valid {
		a.CreatedAt, _ = time.Parse(timeLayout, created.String)
	}
	if updated.Valid {
		a.UpdatedAt, _ = time.Parse(timeLayout, updated.String)
	}
	return &a, nil
}
