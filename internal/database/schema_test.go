package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

type recordingExecer struct {
	stmts  []string
	failAt int
}

func (r *recordingExecer) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	r.stmts = append(r.stmts, sql)
	if r.failAt > 0 && len(r.stmts) == r.failAt {
		return pgconn.CommandTag{}, errors.New("boom")
	}
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func TestMigrate(t *testing.T) {
	db := &recordingExecer{}
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if len(db.stmts) != len(Schema) {
		t.Errorf("statements = %d, want %d", len(db.stmts), len(Schema))
	}
	for _, s := range db.stmts {
		if !strings.Contains(s, "IF NOT EXISTS") {
			t.Errorf("statement is not idempotent: %s", s)
		}
	}
}

func TestMigrate_StopsOnError(t *testing.T) {
	db := &recordingExecer{failAt: 2}
	err := Migrate(context.Background(), db)
	if err == nil || !strings.Contains(err.Error(), "schema statement 1") {
		t.Errorf("Migrate() error = %v, want failure at statement 1", err)
	}
	if len(db.stmts) != 2 {
		t.Errorf("statements run = %d, want 2", len(db.stmts))
	}
}
