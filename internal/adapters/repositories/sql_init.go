package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects placeholder syntax and DDL flavour for the SQL store.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// rebind rewrites ? placeholders into $n for postgres.
func (d Dialect) rebind(q string) string {
	if d != Postgres {
		return q
	}

	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// InitSchema creates the lots table if it does not exist.
func InitSchema(ctx context.Context, db *sql.DB, dialect Dialect) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	boolType := "INTEGER"
	if dialect == Postgres {
		boolType = "BOOLEAN"
	}

	createLotsQuery := `
	CREATE TABLE IF NOT EXISTS lots (
		id TEXT PRIMARY KEY,
		model_name TEXT NOT NULL,
		lot_number TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		lane TEXT NOT NULL,
		pos_x DOUBLE PRECISION NOT NULL,
		pos_y DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL,
		registered_at_ms BIGINT NOT NULL,
		shipped_at_ms BIGINT NULL,
		total_time_ms BIGINT NOT NULL DEFAULT 0,
		is_holding ` + boolType + ` NOT NULL,
		holding_memo TEXT NULL,
		route TEXT NOT NULL DEFAULT '',
		afvi_status TEXT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_lots_status_lane
	ON lots(status, lane);
	`

	statements := []string{
		createLotsQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
