// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"aipress/internal/model"
)

// Config holds the application configuration.
type Config struct {
	ListenAddr        string
	DatabasePath      string
	LogLevel          string
	TargetLang        string
	OpenAIAPIKey      string
	TelegramBotToken  string
	TelegramChannelID int64
	SyncIntervalMin   int
	FeedSources       []model.FeedSource
}

// DefaultFeedSources is used when FEED_SOURCES is not set.
var DefaultFeedSources = []model.FeedSource{
	{Name: "TechCrunch", URL: "https://techcrunch.com/feed/", Category: "technology"},
	{Name: "VentureBeat AI", URL: "https://venturebeat.com/category/ai/feed/", Category: "ai"},
	{Name: "MIT News AI", URL: "https://news.mit.edu/rss/topic/artificial-intelligence2", Category: "ai"},
	{Name: "The Verge", URL: "https://www.theverge.com/rss/index.xml", Category: "technology"},
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:       envOrDefault("LISTEN_ADDR", ":8080"),
		DatabasePath:     envOrDefault("DATABASE_PATH", "./data/site.db"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		TargetLang:       envOrDefault("TARGET_LANG", "ru"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		SyncIntervalMin:  60,
		FeedSources:      DefaultFeedSources,
	}

	if raw := os.Getenv("TELEGRAM_CHANNEL_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHANNEL_ID %q: %w", raw, err)
		}
		cfg.TelegramChannelID = id
	}

	if raw := os.Getenv("SYNC_INTERVAL_MINUTES"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid SYNC_INTERVAL_MINUTES %q", raw)
		}
		cfg.SyncIntervalMin = n
	}

	if raw := os.Getenv("FEED_SOURCES"); raw != "" {
		sources, err := ParseFeedSources(raw)
		if err != nil {
			return nil, err
		}
		cfg.FeedSources = sources
	}

	return cfg, nil
}

// ParseFeedSources parses a comma-separated list of name|url|category triples.
func ParseFeedSources(raw string) ([]model.FeedSource, error) {
	var sources []model.FeedSource
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, "|")
		if len(fields) != 3 {
			return nil, fmt.Errorf("invalid feed source %q: want name|url|category", part)
		}
		src := model.FeedSource{
			Name:     strings.TrimSpace(fields[0]),
			URL:      strings.TrimSpace(fields[1]),
			Category: strings.TrimSpace(fields[2]),
		}
		if src.Name == "" || src.URL == "" || src.Category == "" {
			return nil, fmt.Errorf("invalid feed source %q: empty field", part)
		}
		sources = append(sources, src)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("FEED_SOURCES is set but contains no sources")
	}
	return sources, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
