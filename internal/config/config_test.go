package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"aipress/internal/model"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"LISTEN_ADDR", "TARGET_LANG", "SYNC_INTERVAL_MINUTES", "FEED_SOURCES", "TELEGRAM_CHANNEL_ID"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Errorf("listen addr = %q", cfg.ListenAddr)
	}
	if cfg.TargetLang != "ru" {
		t.Errorf("target lang = %q", cfg.TargetLang)
	}
	if cfg.SyncIntervalMin != 60 {
		t.Errorf("sync interval = %d", cfg.SyncIntervalMin)
	}
	if len(cfg.FeedSources) == 0 {
		t.Error("want default feed sources")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("TARGET_LANG", "de")
	t.Setenv("SYNC_INTERVAL_MINUTES", "15")
	t.Setenv("TELEGRAM_CHANNEL_ID", "-1001234567890")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.ListenAddr != ":9000" {
		t.Errorf("listen addr = %q", cfg.ListenAddr)
	}
	if cfg.TargetLang != "de" {
		t.Errorf("target lang = %q", cfg.TargetLang)
	}
	if cfg.SyncIntervalMin != 15 {
		t.Errorf("sync interval = %d", cfg.SyncIntervalMin)
	}
	if cfg.TelegramChannelID != -1001234567890 {
		t.Errorf("channel id = %d", cfg.TelegramChannelID)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad channel id", key: "TELEGRAM_CHANNEL_ID", value: "not-a-number"},
		{name: "bad interval", key: "SYNC_INTERVAL_MINUTES", value: "zero"},
		{name: "negative interval", key: "SYNC_INTERVAL_MINUTES", value: "-5"},
		{name: "bad feed sources", key: "FEED_SOURCES", value: "name-only"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("want error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestParseFeedSources(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []model.FeedSource
		wantErr bool
	}{
		{
			name: "two sources",
			raw:  "Tech Daily|https://a.example.com/rss|ai, Cloud Weekly|https://b.example.com/rss|technology",
			want: []model.FeedSource{
				{Name: "Tech Daily", URL: "https://a.example.com/rss", Category: "ai"},
				{Name: "Cloud Weekly", URL: "https://b.example.com/rss", Category: "technology"},
			},
		},
		{
			name: "trailing comma ignored",
			raw:  "Tech Daily|https://a.example.com/rss|ai,",
			want: []model.FeedSource{
				{Name: "Tech Daily", URL: "https://a.example.com/rss", Category: "ai"},
			},
		},
		{
			name:    "missing field",
			raw:     "Tech Daily|https://a.example.com/rss",
			wantErr: true,
		},
		{
			name:    "empty field",
			raw:     "Tech Daily||ai",
			wantErr: true,
		},
		{
			name:    "only commas",
			raw:     ",,,",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFeedSources(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("want error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("sources mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
