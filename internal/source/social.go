package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/tickersense/internal/clock"
	"github.com/rickgao/tickersense/internal/fetch"
	"github.com/rickgao/tickersense/internal/model"
)

// MaxPageSize is the largest listing page the social source serves.
const MaxPageSize = 100

// Page is one listing page, newest first.
type Page struct {
	Posts []model.RawItem
	After string // Pagination token; empty on the last page
}

// Social reads posts and comments from the social source.
type Social struct {
	client JSONGetter
	clock  clock.Clock
	logger *slog.Logger
}

// NewSocial creates a social adapter.
func NewSocial(client JSONGetter, clk clock.Clock, logger *slog.Logger) *Social {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Social{client: client, clock: clk, logger: logger.With("component", "social")}
}

// NewPosts returns one page of a subreddit's newest posts.
func (s *Social) NewPosts(ctx context.Context, subreddit, after string, limit int) (Page, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(clampLimit(limit)))
	q.Set("raw_json", "1")
	if after != "" {
		q.Set("after", after)
	}

	var l listing
	if err := s.client.GetJSON(ctx, "/r/"+url.PathEscape(subreddit)+"/new", q, &l); err != nil {
		return Page{}, err
	}
	return Page{Posts: s.posts(l), After: l.Data.After}, nil
}

// Search returns posts matching query created at or after since, newest
// first, up to limit.
func (s *Social) Search(ctx context.Context, query string, since time.Time, limit int) ([]model.RawItem, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("sort", "new")
	q.Set("t", searchPeriod(s.clock.Now().Sub(since)))
	q.Set("limit", strconv.Itoa(clampLimit(limit)))
	q.Set("raw_json", "1")

	var l listing
	if err := s.client.GetJSON(ctx, "/search", q, &l); err != nil {
		return nil, err
	}

	var out []model.RawItem
	for _, p := range s.posts(l) {
		if !since.IsZero() && p.CreatedAt.Before(since) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Comments returns up to limit comments of a post, depth-first, skipping
// deleted and removed bodies.
func (s *Social) Comments(ctx context.Context, postID string, limit int) ([]model.Comment, error) {
	limit = clampLimit(limit)
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("sort", "top")
	q.Set("raw_json", "1")

	// The response is [post listing, comment listing].
	var pair []listing
	if err := s.client.GetJSON(ctx, "/comments/"+url.PathEscape(postID), q, &pair); err != nil {
		return nil, err
	}
	if len(pair) < 2 {
		return nil, nil
	}

	now := s.clock.Now()
	var out []model.Comment
	var walk func(children []thing) error
	walk = func(children []thing) error {
		for _, c := range children {
			if len(out) >= limit {
				return nil
			}
			if c.Kind != "t1" {
				continue
			}
			var d commentData
			if err := json.Unmarshal(c.Data, &d); err != nil {
				return &fetch.Error{Source: "social", Kind: fetch.KindMalformed, Err: fmt.Errorf("decode comment: %w", err)}
			}
			if d.Body != "" && d.Body != "[deleted]" && d.Body != "[removed]" {
				out = append(out, model.Comment{
					ID:        d.ID,
					PostID:    postID,
					Body:      d.Body,
					Author:    d.Author,
					Score:     d.Score,
					CreatedAt: unixSeconds(d.CreatedUTC),
					FetchedAt: now,
				})
			}
			if len(d.Replies) > 0 && d.Replies[0] == '{' {
				var nested listing
				if err := json.Unmarshal(d.Replies, &nested); err == nil {
					if err := walk(nested.Data.Children); err != nil {
						return err
					}
				}
			}
		}
		return nil
	}
	if err := walk(pair[1].Data.Children); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Social) posts(l listing) []model.RawItem {
	now := s.clock.Now()
	out := make([]model.RawItem, 0, len(l.Data.Children))
	for _, c := range l.Data.Children {
		if c.Kind != "t3" {
			continue
		}
		var d postData
		if err := json.Unmarshal(c.Data, &d); err != nil {
			s.logger.Debug("skipping undecodable post", "error", err)
			continue
		}
		if d.Stickied {
			continue
		}
		out = append(out, postItem(d, now))
	}
	return out
}

// postItem normalises a decoded post.
func postItem(d postData, fetchedAt time.Time) model.RawItem {
	link := d.URL
	if d.Permalink != "" {
		link = "https://www.reddit.com" + d.Permalink
	}
	body := d.Selftext
	if body == "[deleted]" || body == "[removed]" {
		body = ""
	}
	return model.RawItem{
		Source:    model.SourceReddit,
		OriginID:  d.ID,
		Title:     strings.TrimSpace(d.Title),
		Body:      strings.TrimSpace(body),
		Author:    d.Author,
		URL:       link,
		Publisher: d.Subreddit,
		Score:     d.Score,
		Comments:  d.NumComments,
		CreatedAt: unixSeconds(d.CreatedUTC),
		FetchedAt: fetchedAt,
	}
}

func clampLimit(n int) int {
	if n <= 0 || n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

func unixSeconds(f float64) time.Time {
	if f <= 0 {
		return time.Time{}
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

// searchPeriod picks the narrowest search period covering d.
func searchPeriod(d time.Duration) string {
	switch {
	case d <= time.Hour:
		return "hour"
	case d <= 24*time.Hour:
		return "day"
	case d <= 7*24*time.Hour:
		return "week"
	case d <= 31*24*time.Hour:
		return "month"
	default:
		return "year"
	}
}
