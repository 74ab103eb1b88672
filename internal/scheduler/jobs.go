package scheduler

import (
	"context"

	"github.com/rickgao/tickersense/internal/ingest"
)

// SocialCrawler is the bulk social ingestion cycle.
type SocialCrawler interface {
	Run(ctx context.Context) (ingest.SocialStats, error)
}

// Refresher is the staleness-driven per-entity refresh cycle.
type Refresher interface {
	Run(ctx context.Context) (ingest.RefreshStats, error)
}

// CrawlJob adapts a social crawler to a RunFunc.
func CrawlJob(c SocialCrawler) RunFunc {
	return func(ctx context.Context) error {
		_, err := c.Run(ctx)
		return err
	}
}

// RefreshJob adapts a refresher to a RunFunc. Each run selects only the
// entities whose last refresh is older than the refresher's interval.
func RefreshJob(r Refresher) RunFunc {
	return func(ctx context.Context) error {
		_, err := r.Run(ctx)
		return err
	}
}
