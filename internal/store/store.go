package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/erazemk/izposoja/internal/model"
)

// DBTX is the subset of *sql.DB, *sql.Conn and *sql.Tx used by the store.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// now is the store's clock. Tests replace it to pin "today".
var now = time.Now

// today returns the current local date in model.DateLayout.
func today() string {
	return now().Format(model.DateLayout)
}
