package services

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/hireveno/hireveno-back/internal/models"
	"github.com/rs/zerolog"
)

const (
	reasonOffTopic      = "Messages must be related to academics, admission, departments, UNIOSUN, or other universities."
	reasonInappropriate = "Message contains inappropriate content. Please keep discussions academic."
)

var denyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)dating|romance|relationship`),
	regexp.MustCompile(`(?i)money.*transfer|send.*money`),
	regexp.MustCompile(`(?i)personal.*contact|phone.*number|whatsapp`),
	regexp.MustCompile(`(?i)meet.*outside|meet.*person`),
}

type FilterVerdict struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// EvaluateMessage requires at least one allow-listed keyword and no deny pattern.
func EvaluateMessage(text string, keywords []string) FilterVerdict {
	lowered := strings.ToLower(text)

	academic := false
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword != "" && strings.Contains(lowered, keyword) {
			academic = true
			break
		}
	}
	if !academic {
		return FilterVerdict{Reason: reasonOffTopic}
	}

	for _, pattern := range denyPatterns {
		if pattern.MatchString(text) {
			return FilterVerdict{Reason: reasonInappropriate}
		}
	}
	return FilterVerdict{Allowed: true}
}

type keywordLister interface {
	List(ctx context.Context) ([]models.RestrictedKeyword, error)
}

// ContentFilter caches the allow-list for ttl. A failed reload falls back to
// the last good list; with none, messages are rejected as unavailable.
type ContentFilter struct {
	keywords keywordLister
	ttl      time.Duration
	logger   zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	cached   []string
	loadedAt time.Time
	loaded   bool
}

func NewContentFilter(keywords keywordLister, ttl time.Duration, logger zerolog.Logger) *ContentFilter {
	return &ContentFilter{
		keywords: keywords,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

func (f *ContentFilter) Check(ctx context.Context, text string) (FilterVerdict, error) {
	keywords, err := f.allowList(ctx)
	if err != nil {
		return FilterVerdict{}, err
	}
	return EvaluateMessage(text, keywords), nil
}

func (f *ContentFilter) Invalidate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = false
}

func (f *ContentFilter) allowList(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.loaded && f.now().Sub(f.loadedAt) < f.ttl {
		return f.cached, nil
	}

	rows, err := f.keywords.List(ctx)
	if err != nil {
		if f.cached != nil {
			f.logger.Warn().Err(err).Msg("keyword reload failed, using cached allow-list")
			return f.cached, nil
		}
		f.logger.Error().Err(err).Msg("keyword allow-list unavailable")
		return nil, ErrFilterUnavailable
	}

	keywords := make([]string, 0, len(rows))
	for _, row := range rows {
		keywords = append(keywords, row.Keyword)
	}
	f.cached = keywords
	f.loadedAt = f.now()
	f.loaded = true
	return keywords, nil
}
