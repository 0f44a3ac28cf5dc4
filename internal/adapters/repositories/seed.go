package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"wip-tracker-service/internal/domain"

	"github.com/viant/afs"
)

type registrySeed struct {
	Products []*domain.Lot `json:"products"`
}

// SeedFromRegistry copies every lot of a {products: [...]} registry file into
// the lots table, replacing rows with the same id. Returns the number of lots
// written.
func SeedFromRegistry(ctx context.Context, db *sql.DB, dialect Dialect, fs afs.Service, path string) (int, error) {
	data, err := fs.DownloadWithURL(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("seed lots: read %q: %w", path, err)
	}

	var seed registrySeed
	if err := json.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("seed lots: parse json: %w", err)
	}

	rows := make([]*domain.Lot, 0, len(seed.Products))
	for i, lot := range seed.Products {
		if lot == nil {
			continue
		}
		if strings.TrimSpace(lot.ID) == "" {
			return 0, fmt.Errorf("seed lots: item at index %d: id cannot be empty", i+1)
		}
		if lot.Status == "" {
			lot.Status = domain.LotRegistered
		}
		rows = append(rows, lot)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("seed lots: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, dialect.rebind(upsertLotQuery))
	if err != nil {
		return 0, fmt.Errorf("seed lots: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, lot := range rows {
		args, err := lotArgs(lot)
		if err != nil {
			return 0, fmt.Errorf("seed lots: id=%s: %w", lot.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("seed lots: upsert id=%s: %w", lot.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seed lots: commit tx: %w", err)
	}

	return len(rows), nil
}
