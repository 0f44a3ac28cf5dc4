package repositories

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"
	"wip-tracker-service/internal/domain"
	"wip-tracker-service/internal/platform/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "wip.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, InitSchema(context.Background(), conn, SQLite))
	return conn
}

func sampleLot(id string, at time.Time) *domain.Lot {
	return &domain.Lot{
		ID:           id,
		ModelName:    "M-100",
		LotNumber:    "L-" + id,
		Quantity:     12,
		Lane:         "입고",
		Position:     domain.Position{X: -1845, Y: 178},
		Status:       domain.LotRegistered,
		RegisteredAt: at,
	}
}

func TestSQLLotRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLLotRepository(openTestDB(t), SQLite)

	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateLot(ctx, sampleLot("product-1", at)))

	got, err := repo.GetLot(ctx, "product-1")
	require.NoError(t, err)
	assert.Equal(t, sampleLot("product-1", at), got)

	_, err = repo.GetLot(ctx, "nope")
	require.ErrorIs(t, err, domain.ErrLotNotFound)
}

func TestSQLLotRepositoryUpdateKeepsNullableColumns(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLLotRepository(openTestDB(t), SQLite)

	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	lot := sampleLot("product-1", at)
	require.NoError(t, repo.CreateLot(ctx, lot))

	memo := "waiting for rework"
	lot.SetHolding(true, &memo)
	require.NoError(t, lot.Ship(at.Add(90*time.Minute)))
	require.NoError(t, repo.UpdateLot(ctx, lot))

	got, err := repo.GetLot(ctx, "product-1")
	require.NoError(t, err)
	assert.Equal(t, domain.LotShipped, got.Status)
	require.NotNil(t, got.ShippedAt)
	assert.True(t, got.ShippedAt.Equal(at.Add(90*time.Minute)))
	assert.Equal(t, int64(90*time.Minute/time.Millisecond), got.TotalTimeMs)
	assert.True(t, got.IsHolding)
	require.NotNil(t, got.HoldingMemo)
	assert.Equal(t, memo, *got.HoldingMemo)

	err = repo.UpdateLot(ctx, sampleLot("ghost", at))
	require.ErrorIs(t, err, domain.ErrLotNotFound)
}

func TestSQLLotRepositoryRouteAndAfviStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLLotRepository(openTestDB(t), SQLite)

	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	lot := sampleLot("product-1", at)
	lot.Route = "ROUTE1"
	require.NoError(t, repo.CreateLot(ctx, lot))

	got, err := repo.GetLot(ctx, "product-1")
	require.NoError(t, err)
	assert.Equal(t, "ROUTE1", got.Route)
	assert.Nil(t, got.Afvi)

	sub, machine := "IVS", "IVS"
	started := at.Add(time.Hour)
	lot.Lane = "AFVI"
	lot.Afvi = &domain.AfviStatus{
		CurrentSubProcess: &sub,
		CurrentMachine:    &machine,
		StartTime:         &started,
		History: []domain.AfviRecord{
			{SubProcess: "3D_BGA", Machine: "3D_BGA_1", StartTime: &at, EndTime: &started},
		},
	}
	require.NoError(t, repo.UpdateLot(ctx, lot))

	got, err = repo.GetLot(ctx, "product-1")
	require.NoError(t, err)
	require.NotNil(t, got.Afvi)
	assert.Equal(t, "IVS", *got.Afvi.CurrentSubProcess)
	require.Len(t, got.Afvi.History, 1)
	assert.Equal(t, "3D_BGA_1", got.Afvi.History[0].Machine)
	assert.True(t, got.Afvi.History[0].EndTime.Equal(started))
}

func TestSQLLotRepositoryListOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLLotRepository(openTestDB(t), SQLite)

	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateLot(ctx, sampleLot("b", at.Add(time.Minute))))
	require.NoError(t, repo.CreateLot(ctx, sampleLot("c", at)))
	require.NoError(t, repo.CreateLot(ctx, sampleLot("a", at)))

	lots, err := repo.ListLots(ctx)
	require.NoError(t, err)

	ids := make([]string, 0, len(lots))
	for _, l := range lots {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"a", "c", "b"}, ids)
}

func TestSeedFromRegistry(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)

	path := filepath.Join(t.TempDir(), "products.json")
	registry := `{"products":[
		{"id":"product-1","modelName":"M-1","lotNumber":"L-1","quantity":3,"currentPosition":"FVI","position":{"x":-698,"y":128},"status":"registered","registeredAt":"2026-03-02T09:00:00Z","isHolding":false,"holdingMemo":null},
		{"id":"product-2","modelName":"M-2","lotNo":"L-2","quantity":"5","route":"ROUTE1","currentPosition":"출하 대기","position":{"x":1100,"y":132},"registeredAt":"2026-03-02T10:00:00Z","isHolding":false,"holdingMemo":null}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(registry), 0o644))

	n, err := SeedFromRegistry(ctx, conn, SQLite, afs.New(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// seeding twice replaces rows instead of failing on the primary key
	n, err = SeedFromRegistry(ctx, conn, SQLite, afs.New(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	repo := NewSQLLotRepository(conn, SQLite)
	lots, err := repo.ListLots(ctx)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, "FVI", lots[0].Lane)
	assert.Equal(t, "L-1", lots[0].LotNumber)
	assert.Equal(t, domain.LotRegistered, lots[1].Status)
	assert.Equal(t, 5, lots[1].Quantity)
	assert.Equal(t, "ROUTE1", lots[1].Route)
}

func TestSeedFromRegistryRejectsMissingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"products":[{"modelName":"M"}]}`), 0o644))

	_, err := SeedFromRegistry(context.Background(), openTestDB(t), SQLite, afs.New(), path)
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	q := "UPDATE lots SET lane = ? WHERE id = ?"
	assert.Equal(t, q, SQLite.rebind(q))
	assert.Equal(t, "UPDATE lots SET lane = $1 WHERE id = $2", Postgres.rebind(q))
}

func TestInitSchemaNilDB(t *testing.T) {
	assert.Error(t, InitSchema(context.Background(), nil, SQLite))
}
