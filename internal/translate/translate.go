// Package translate turns source-language feed text into the site's
// primary language, degrading to a glossary substitution pass when the
// translation provider is unavailable.
package translate

import (
	"context"
	"log/slog"
)

// Translator performs a single best-effort translation call.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Service wraps a primary Translator with the glossary fallback.
// Its Translate never fails: a provider error downgrades output
// quality instead of surfacing to the caller.
type Service struct {
	primary Translator
	log     *slog.Logger
}

// NewService creates a Service. primary may be nil, in which case every
// call takes the fallback path.
func NewService(primary Translator, log *slog.Logger) *Service {
	return &Service{primary: primary, log: log}
}

// Translate returns the translated text, or the glossary-substituted
// source text when the provider errors or is not configured.
func (s *Service) Translate(ctx context.Context, text, targetLang string) string {
	if text == "" {
		return ""
	}
	if s.primary != nil {
		translated, err := s.primary.Translate(ctx, text, targetLang)
		if err == nil && translated != "" {
			return translated
		}
		if err != nil {
			s.log.Warn("translation provider failed, using glossary fallback", "error", err)
		}
	}
	return ApplyGlossary(text)
}
