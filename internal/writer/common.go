package writer

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// execBatch sends batch and reads n results. A statement that affected no
// rows counts as a conflict.
func execBatch(ctx context.Context, db Batcher, batch *pgx.Batch, n int) (conflicts int, err error) {
	results := db.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < n; i++ {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}
	return conflicts, nil
}

// nullTime maps the zero time to NULL.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}

// nonNil keeps NOT NULL array columns from receiving NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
