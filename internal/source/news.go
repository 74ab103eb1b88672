package source

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/tickersense/internal/clock"
	"github.com/rickgao/tickersense/internal/dedup"
	"github.com/rickgao/tickersense/internal/fetch"
	"github.com/rickgao/tickersense/internal/model"
)

// Defaults for article searches.
const (
	DefaultNewsLanguage = "en"
	DefaultPerQuery     = 20
	DefaultLookback     = 7 * 24 * time.Hour
)

// NewsQuotaDetector recognises the article API's quota responses, which
// may arrive as 429 or as a 426/200 envelope with a rateLimited code.
func NewsQuotaDetector(status int, body []byte) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return bytes.Contains(body, []byte(`"code":"rateLimited"`)) ||
		bytes.Contains(body, []byte(`"code":"maximumResultsReached"`))
}

// News searches the article API.
type News struct {
	client   JSONGetter
	clock    clock.Clock
	logger   *slog.Logger
	language string
	perQuery int
	lookback time.Duration
}

// NewsOption configures News.
type NewsOption func(*News)

// WithLanguage sets the article language filter.
func WithLanguage(lang string) NewsOption {
	return func(n *News) { n.language = lang }
}

// WithPerQuery sets the maximum articles fetched per query.
func WithPerQuery(max int) NewsOption {
	return func(n *News) {
		if max > 0 {
			n.perQuery = max
		}
	}
}

// WithLookback sets how far back searches reach when no lower bound is given.
func WithLookback(d time.Duration) NewsOption {
	return func(n *News) {
		if d > 0 {
			n.lookback = d
		}
	}
}

// NewNews creates a news adapter.
func NewNews(client JSONGetter, clk clock.Clock, logger *slog.Logger, opts ...NewsOption) *News {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.New()
	}
	n := &News{
		client:   client,
		clock:    clk,
		logger:   logger.With("component", "news"),
		language: DefaultNewsLanguage,
		perQuery: DefaultPerQuery,
		lookback: DefaultLookback,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Search returns articles for one query published on or after from.
func (n *News) Search(ctx context.Context, query string, from time.Time) ([]model.RawItem, error) {
	if from.IsZero() {
		from = n.clock.Now().Add(-n.lookback)
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", strconv.Itoa(min(n.perQuery, MaxPageSize)))
	q.Set("from", from.UTC().Format("2006-01-02"))
	if n.language != "" {
		q.Set("language", n.language)
	}

	var resp articlesResponse
	if err := n.client.GetJSON(ctx, "/everything", q, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "ok" {
		return nil, &fetch.Error{
			Source: "news",
			Kind:   fetch.KindMalformed,
			Err:    fmt.Errorf("status %q: %s %s", resp.Status, resp.Code, resp.Message),
		}
	}

	now := n.clock.Now()
	out := make([]model.RawItem, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		it, ok := articleItem(a, now)
		if !ok || it.CreatedAt.Before(from) {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// ForEntity runs every query of the entity, merging results by canonical
// URL. Partial failures still return the articles gathered; a quota trip
// stops the remaining queries.
func (n *News) ForEntity(ctx context.Context, e model.TrackedEntity, from time.Time) fetch.Result[[]model.RawItem] {
	seen := make(map[string]bool)
	var items []model.RawItem
	var errs []error

	for _, query := range e.Queries() {
		found, err := n.Search(ctx, query, from)
		if err != nil {
			errs = append(errs, fmt.Errorf("query %q: %w", query, err))
			if fetch.IsRateLimited(err) || ctx.Err() != nil {
				break
			}
			continue
		}
		for _, it := range found {
			key := dedup.CanonicalURL(it.URL)
			if seen[key] {
				continue
			}
			seen[key] = true
			it.Symbols = []string{e.Symbol}
			items = append(items, it)
		}
	}

	if len(items) > 0 {
		if len(errs) > 0 {
			n.logger.Debug("partial news results", "symbol", e.Symbol, "errors", len(errs))
		}
		return fetch.Ok(items)
	}
	return fetch.From(items, true, errors.Join(errs...))
}

// articleItem normalises an article. Articles without a title or URL, or
// already removed upstream, are dropped.
func articleItem(a article, fetchedAt time.Time) (model.RawItem, bool) {
	title := strings.TrimSpace(a.Title)
	if title == "" || a.URL == "" || title == "[Removed]" {
		return model.RawItem{}, false
	}
	published, err := time.Parse(time.RFC3339, a.PublishedAt)
	if err != nil {
		published = fetchedAt
	}
	sum := md5.Sum([]byte(dedup.CanonicalURL(a.URL)))

	body := strings.TrimSpace(a.Description)
	if body == "" {
		body = strings.TrimSpace(a.Content)
	}
	return model.RawItem{
		Source:    model.SourceNews,
		OriginID:  hex.EncodeToString(sum[:])[:12],
		Title:     title,
		Body:      body,
		Author:    a.Author,
		URL:       a.URL,
		Publisher: a.Source.Name,
		CreatedAt: published.UTC(),
		FetchedAt: fetchedAt,
	}, true
}
