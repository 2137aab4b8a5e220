// Package broadcast announces newly published articles to the site's
// Telegram channel, delivering durable scheduled broadcasts via a sweep loop.
package broadcast

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"aipress/internal/model"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends article announcements to a fixed channel.
type Telegram struct {
	api    telegramAPI
	chatID int64
	log    *slog.Logger
}

// NewTelegram creates a Telegram sender for the given bot token and channel.
func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return &Telegram{api: api, chatID: chatID, log: log}, nil
}

// SendArticle posts an announcement for the article to the channel.
func (t *Telegram) SendArticle(a *model.Article) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatAnnouncement(a))
	msg.DisableWebPagePreview = false
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// LogSender is a stand-in Sender used when no bot token is configured.
// It logs the announcement instead of delivering it.
type LogSender struct {
	log *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(log *slog.Logger) *LogSender {
	return &LogSender{log: log}
}

// SendArticle logs the announcement that would have been sent.
func (s *LogSender) SendArticle(a *model.Article) error {
	s.log.Info("broadcast skipped, telegram not configured", "article_id", a.ID, "title", a.Title)
	return nil
}

// FormatAnnouncement formats an article as a channel announcement.
func FormatAnnouncement(a *model.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n\n", a.Category)
	b.WriteString(a.Title)
	if a.Excerpt != "" {
		b.WriteString("\n\n")
		b.WriteString(a.Excerpt)
	}
	return b.String()
}
