package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"wip-tracker-service/internal/domain"
	"wip-tracker-service/internal/platform/obs"
	"wip-tracker-service/internal/ports"
)

// SQLLotRepository is the database/sql implementation of the LotRepository
// port. It serves both sqlite and postgres.
type SQLLotRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

var _ ports.LotRepository = (*SQLLotRepository)(nil)

func NewSQLLotRepository(db *sql.DB, dialect Dialect) *SQLLotRepository {
	return &SQLLotRepository{DB: db, Dialect: dialect}
}

const lotColumns = `
	id,
	model_name,
	lot_number,
	quantity,
	lane,
	pos_x,
	pos_y,
	status,
	registered_at_ms,
	shipped_at_ms,
	total_time_ms,
	is_holding,
	holding_memo,
	route,
	afvi_status`

// Return all lots in registration order.
func (s *SQLLotRepository) ListLots(ctx context.Context) (_ []*domain.Lot, err error) {
	defer obs.Time(ctx, "lots.sql.List")(&err)

	if s.DB == nil {
		return nil, errors.New("sql lot repository: DB is nil")
	}

	query := `SELECT ` + lotColumns + `
	FROM lots
	ORDER BY registered_at_ms, id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list lots: query lots table: %w", err)
	}
	defer rows.Close()

	lots := make([]*domain.Lot, 0, 64)
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("list lots: %w", err)
		}
		lots = append(lots, lot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list lots: row iteration: %w", err)
	}

	return lots, nil
}

func (s *SQLLotRepository) GetLot(ctx context.Context, id string) (*domain.Lot, error) {
	if s.DB == nil {
		return nil, errors.New("sql lot repository: DB is nil")
	}

	query := s.Dialect.rebind(`SELECT ` + lotColumns + `
	FROM lots
	WHERE id = ?;
	`)
	lot, err := scanLot(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get lot %q: %w", id, domain.ErrLotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get lot %q: %w", id, err)
	}
	return lot, nil
}

func (s *SQLLotRepository) CreateLot(ctx context.Context, lot *domain.Lot) (err error) {
	defer obs.Time(ctx, "lots.sql.Create")(&err)

	if s.DB == nil {
		return errors.New("sql lot repository: DB is nil")
	}

	query := s.Dialect.rebind(`
	INSERT INTO lots (` + lotColumns + `
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	args, err := lotArgs(lot)
	if err != nil {
		return fmt.Errorf("create lot %q: %w", lot.ID, err)
	}
	if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create lot %q: %w", lot.ID, err)
	}
	return nil
}

func (s *SQLLotRepository) UpdateLot(ctx context.Context, lot *domain.Lot) (err error) {
	defer obs.Time(ctx, "lots.sql.Update")(&err)

	if s.DB == nil {
		return errors.New("sql lot repository: DB is nil")
	}

	query := s.Dialect.rebind(`
	UPDATE lots SET
		model_name = ?,
		lot_number = ?,
		quantity = ?,
		lane = ?,
		pos_x = ?,
		pos_y = ?,
		status = ?,
		registered_at_ms = ?,
		shipped_at_ms = ?,
		total_time_ms = ?,
		is_holding = ?,
		holding_memo = ?,
		route = ?,
		afvi_status = ?
	WHERE id = ?;
	`)
	args, err := lotArgs(lot)
	if err != nil {
		return fmt.Errorf("update lot %q: %w", lot.ID, err)
	}
	res, err := s.DB.ExecContext(ctx, query, append(args[1:], lot.ID)...)
	if err != nil {
		return fmt.Errorf("update lot %q: %w", lot.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update lot %q: %w", lot.ID, domain.ErrLotNotFound)
	}
	return nil
}

// upsertLotQuery inserts or replaces a lot by id.
const upsertLotQuery = `
	INSERT INTO lots (` + lotColumns + `
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		model_name = excluded.model_name,
		lot_number = excluded.lot_number,
		quantity = excluded.quantity,
		lane = excluded.lane,
		pos_x = excluded.pos_x,
		pos_y = excluded.pos_y,
		status = excluded.status,
		registered_at_ms = excluded.registered_at_ms,
		shipped_at_ms = excluded.shipped_at_ms,
		total_time_ms = excluded.total_time_ms,
		is_holding = excluded.is_holding,
		holding_memo = excluded.holding_memo,
		route = excluded.route,
		afvi_status = excluded.afvi_status;
	`

// lotArgs lists a lot's column values in lotColumns order. The AFVI status
// is stored as a JSON document.
func lotArgs(l *domain.Lot) ([]any, error) {
	var shipped sql.NullInt64
	if l.ShippedAt != nil {
		shipped = sql.NullInt64{Int64: l.ShippedAt.UnixMilli(), Valid: true}
	}
	var memo sql.NullString
	if l.HoldingMemo != nil {
		memo = sql.NullString{String: *l.HoldingMemo, Valid: true}
	}
	var afvi sql.NullString
	if l.Afvi != nil {
		raw, err := json.Marshal(l.Afvi)
		if err != nil {
			return nil, fmt.Errorf("encode afvi status: %w", err)
		}
		afvi = sql.NullString{String: string(raw), Valid: true}
	}

	return []any{
		l.ID,
		l.ModelName,
		l.LotNumber,
		l.Quantity,
		l.Lane,
		l.Position.X,
		l.Position.Y,
		string(l.Status),
		l.RegisteredAt.UnixMilli(),
		shipped,
		l.TotalTimeMs,
		l.IsHolding,
		memo,
		l.Route,
		afvi,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLot(row rowScanner) (*domain.Lot, error) {
	var (
		lot          domain.Lot
		status       string
		registeredMs int64
		shippedMs    sql.NullInt64
		memo         sql.NullString
		afvi         sql.NullString
	)

	err := row.Scan(
		&lot.ID,
		&lot.ModelName,
		&lot.LotNumber,
		&lot.Quantity,
		&lot.Lane,
		&lot.Position.X,
		&lot.Position.Y,
		&status,
		&registeredMs,
		&shippedMs,
		&lot.TotalTimeMs,
		&lot.IsHolding,
		&memo,
		&lot.Route,
		&afvi,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan lot row: %w", err)
	}

	lot.Status = domain.LotStatus(status)
	lot.RegisteredAt = time.UnixMilli(registeredMs).UTC()
	if shippedMs.Valid {
		t := time.UnixMilli(shippedMs.Int64).UTC()
		lot.ShippedAt = &t
	}
	if memo.Valid {
		m := memo.String
		lot.HoldingMemo = &m
	}
	if afvi.Valid {
		lot.Afvi = &domain.AfviStatus{}
		if err := json.Unmarshal([]byte(afvi.String), lot.Afvi); err != nil {
			return nil, fmt.Errorf("scan lot %q: decode afvi status: %w", lot.ID, err)
		}
	}
	return &lot, nil
}
