package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
	"wip-tracker-service/internal/adapters/memory"
	"wip-tracker-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackerFixture struct {
	tracker *Tracker
	alloc   *Allocator
	lots    *memory.LotRepository
	graph   *memory.GraphRepository
	events  *memory.EventRecorder
	clock   *time.Time
}

func newTrackerFixture(t *testing.T, opts ...TrackerOption) *trackerFixture {
	t.Helper()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	f := &trackerFixture{
		alloc:  NewAllocator(testLanes()),
		lots:   memory.NewLotRepository(),
		graph:  memory.NewGraphRepository(nil),
		events: &memory.EventRecorder{},
		clock:  &now,
	}

	seq := 0
	base := []TrackerOption{
		WithClock(func() time.Time { return *f.clock }),
		WithIDGenerator(func() string { seq++; return fmt.Sprintf("product-%d", seq) }),
		WithEventPublisher(f.events),
	}
	f.tracker = NewTracker(f.alloc, f.lots, f.graph, append(base, opts...)...)
	return f
}

func (f *trackerFixture) register(t *testing.T, model string) *domain.Lot {
	t.Helper()
	lot, err := f.tracker.RegisterLot(context.Background(), RegisterLot{ModelName: model, LotNumber: "L-" + model, Quantity: 10})
	require.NoError(t, err)
	return lot
}

func strPtr(s string) *string { return &s }

func TestTrackerRegisterLot(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	first := f.register(t, "M1")
	second := f.register(t, "M2")

	assert.Equal(t, "product-1", first.ID)
	assert.Equal(t, "INTAKE", first.Lane)
	assert.Equal(t, domain.Position{X: -1845, Y: 178}, first.Position)
	assert.Equal(t, domain.Position{X: -1845, Y: 478}, second.Position)
	assert.Equal(t, domain.LotRegistered, first.Status)
	assert.Equal(t, *f.clock, first.RegisteredAt)

	stored, err := f.lots.GetLot(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, stored)

	g, err := f.graph.LoadGraph(ctx)
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, domain.NodeTypeProduct, g.Nodes[0].Type)
	assert.Equal(t, "M1", g.Nodes[0].Data["label"])

	assert.Equal(t, []domain.EventKind{domain.EventLotRegistered, domain.EventLotRegistered}, f.events.Kinds())
}

func TestTrackerRegisterLotValidation(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	cases := []RegisterLot{
		{ModelName: " ", LotNumber: "1"},
		{ModelName: "M", LotNumber: ""},
		{ModelName: "M", LotNumber: "1", Quantity: -1},
	}
	for _, c := range cases {
		_, err := f.tracker.RegisterLot(ctx, c)
		assert.ErrorIs(t, err, domain.ErrInvalidLot, "%+v", c)
	}
	assert.Empty(t, f.alloc.Occupied("INTAKE"))
}

func TestTrackerRegisterLotReleasesSlotOnSaveFailure(t *testing.T) {
	f := newTrackerFixture(t)
	f.lots.FailWrites = errors.New("disk full")

	_, err := f.tracker.RegisterLot(context.Background(), RegisterLot{ModelName: "M", LotNumber: "1"})
	require.Error(t, err)
	assert.Empty(t, f.alloc.Occupied("INTAKE"))
}

func TestTrackerMoveLot(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	a := f.register(t, "M1")
	b := f.register(t, "M2")

	moved, err := f.tracker.UpdateLot(ctx, a.ID, LotPatch{Lane: strPtr("A")})
	require.NoError(t, err)
	assert.Equal(t, "A", moved.Lane)
	assert.Equal(t, domain.Position{X: 0, Y: 150}, moved.Position)

	assert.Equal(t, []float64{b.Position.Y}, f.alloc.Occupied("INTAKE"))
	assert.Equal(t, []float64{150}, f.alloc.Occupied("A"))

	g, err := f.graph.LoadGraph(ctx)
	require.NoError(t, err)
	n := g.Nodes[g.NodeIndex(a.ID)]
	assert.Equal(t, moved.Position, n.Position)
	assert.Equal(t, "A", n.Data["currentPosition"])

	last := f.events.Events()[len(f.events.Events())-1]
	assert.Equal(t, domain.EventLotUpdated, last.Kind)
	assert.Equal(t, "INTAKE", last.FromLane)
}

func TestTrackerMoveToUnknownLaneChangesNothing(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()
	a := f.register(t, "M1")

	_, err := f.tracker.UpdateLot(ctx, a.ID, LotPatch{Lane: strPtr("NOPE"), ModelName: strPtr("X")})
	require.ErrorIs(t, err, domain.ErrUnknownLane)

	stored, err := f.lots.GetLot(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, stored)
	assert.Equal(t, []float64{a.Position.Y}, f.alloc.Occupied("INTAKE"))
}

func TestTrackerMoveRollsBackOnSaveFailure(t *testing.T) {
	f := newTrackerFixture(t)
	a := f.register(t, "M1")
	f.lots.FailWrites = errors.New("io error")

	_, err := f.tracker.UpdateLot(context.Background(), a.ID, LotPatch{Lane: strPtr("B")})
	require.Error(t, err)

	assert.Equal(t, []float64{a.Position.Y}, f.alloc.Occupied("INTAKE"))
	assert.Empty(t, f.alloc.Occupied("B"))
}

func TestTrackerUpdateFields(t *testing.T) {
	f := newTrackerFixture(t)
	a := f.register(t, "M1")
	qty := 42

	got, err := f.tracker.UpdateLot(context.Background(), a.ID, LotPatch{ModelName: strPtr(" M9 "), Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, "M9", got.ModelName)
	assert.Equal(t, 42, got.Quantity)
	assert.Equal(t, a.Position, got.Position)

	_, err = f.tracker.UpdateLot(context.Background(), a.ID, LotPatch{LotNumber: strPtr("")})
	assert.ErrorIs(t, err, domain.ErrInvalidLot)

	_, err = f.tracker.UpdateLot(context.Background(), "missing", LotPatch{})
	assert.ErrorIs(t, err, domain.ErrLotNotFound)
}

func TestTrackerUpdateRouteAndAfvi(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	lot, err := f.tracker.RegisterLot(ctx, RegisterLot{ModelName: "M1", LotNumber: "L-1", Quantity: 5, Route: " ROUTE1 "})
	require.NoError(t, err)
	assert.Equal(t, "ROUTE1", lot.Route)

	status := &domain.AfviStatus{CurrentSubProcess: strPtr("2D_BGA"), CurrentMachine: strPtr("2D_BGA_2")}
	got, err := f.tracker.UpdateLot(ctx, lot.ID, LotPatch{Route: strPtr("ROUTE2"), Afvi: status})
	require.NoError(t, err)
	assert.Equal(t, "ROUTE2", got.Route)
	require.NotNil(t, got.Afvi)
	assert.Equal(t, "2D_BGA_2", *got.Afvi.CurrentMachine)
	assert.NotNil(t, got.Afvi.History)

	*status.CurrentMachine = "2D_BGA_1"
	stored, err := f.lots.GetLot(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, "2D_BGA_2", *stored.Afvi.CurrentMachine)

	g, err := f.graph.LoadGraph(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ROUTE2", g.Nodes[g.NodeIndex(lot.ID)].Data["route"])

	_, err = f.tracker.UpdateLot(ctx, lot.ID, LotPatch{Afvi: &domain.AfviStatus{CurrentSubProcess: strPtr("IVS"), CurrentMachine: strPtr("Sorter_1")}})
	assert.ErrorIs(t, err, domain.ErrInvalidLot)
}

func TestTrackerHolding(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()
	a := f.register(t, "M1")

	held, err := f.tracker.SetHolding(ctx, a.ID, true, strPtr("scratch on tray"))
	require.NoError(t, err)
	assert.True(t, held.IsHolding)
	require.NotNil(t, held.HoldingMemo)

	g, err := f.graph.LoadGraph(ctx)
	require.NoError(t, err)
	assert.Equal(t, "scratch on tray", g.Nodes[0].Data["holdingMemo"])

	released, err := f.tracker.SetHolding(ctx, a.ID, false, strPtr("ignored"))
	require.NoError(t, err)
	assert.False(t, released.IsHolding)
	assert.Nil(t, released.HoldingMemo)
}

func TestTrackerShipLot(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()
	a := f.register(t, "M1")
	b := f.register(t, "M2")

	*f.clock = f.clock.Add(2 * time.Hour)
	shipped, err := f.tracker.ShipLot(ctx, a.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.LotShipped, shipped.Status)
	require.NotNil(t, shipped.ShippedAt)
	assert.Equal(t, (2 * time.Hour).Milliseconds(), shipped.TotalTimeMs)
	assert.NotContains(t, f.alloc.Occupied("INTAKE"), a.Position.Y)
	assert.Contains(t, f.alloc.Occupied("INTAKE"), b.Position.Y)

	g, err := f.graph.LoadGraph(ctx)
	require.NoError(t, err)
	assert.Equal(t, -1, g.NodeIndex(a.ID))

	_, err = f.tracker.ShipLot(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrLotShipped)
	_, err = f.tracker.UpdateLot(ctx, a.ID, LotPatch{Lane: strPtr("A")})
	assert.ErrorIs(t, err, domain.ErrLotShipped)
	_, err = f.tracker.SetHolding(ctx, a.ID, true, nil)
	assert.ErrorIs(t, err, domain.ErrLotShipped)

	// the next lot reuses the freed slot
	c := f.register(t, "M3")
	assert.Equal(t, a.Position, c.Position)
}

func TestTrackerReconcile(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	for _, l := range []*domain.Lot{
		{ID: "1", Lane: "A", Position: domain.Position{Y: 150}, Status: domain.LotRegistered},
		{ID: "2", Lane: "A", Position: domain.Position{Y: 400}, Status: domain.LotRegistered},
		{ID: "3", Lane: "A", Position: domain.Position{Y: 650}, Status: domain.LotShipped},
	} {
		require.NoError(t, f.lots.CreateLot(ctx, l))
	}

	n, err := f.tracker.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	pos, _ := f.alloc.Allocate("A")
	assert.Equal(t, 650.0, pos.Y)
}

func TestTrackerReconcileReslotsDuplicateOffsets(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	at := *f.clock
	for i, id := range []string{"1", "2"} {
		require.NoError(t, f.lots.CreateLot(ctx, &domain.Lot{
			ID:           id,
			Lane:         "A",
			Position:     domain.Position{Y: 150},
			Status:       domain.LotRegistered,
			RegisteredAt: at.Add(time.Duration(i) * time.Minute),
		}))
	}

	n, err := f.tracker.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	second, err := f.lots.GetLot(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, 400.0, second.Position.Y)
	assert.Equal(t, []float64{150, 400}, f.alloc.Occupied("A"))

	_, err = f.tracker.ShipLot(ctx, "1")
	require.NoError(t, err)

	c := f.register(t, "M3")
	moved, err := f.tracker.UpdateLot(ctx, c.ID, LotPatch{Lane: strPtr("A")})
	require.NoError(t, err)
	assert.Equal(t, 150.0, moved.Position.Y)

	lots, err := f.lots.ListLots(ctx)
	require.NoError(t, err)
	seen := map[float64]string{}
	for _, l := range lots {
		if l.Lane != "A" || l.Shipped() {
			continue
		}
		other, dup := seen[l.Position.Y]
		require.False(t, dup, "lots %s and %s share offset %v", other, l.ID, l.Position.Y)
		seen[l.Position.Y] = l.ID
	}
	assert.Len(t, seen, 2)
}

func TestTrackerRepackLane(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	a := f.register(t, "M1")
	b := f.register(t, "M2")
	c := f.register(t, "M3")

	_, err := f.tracker.ShipLot(ctx, b.ID)
	require.NoError(t, err)

	changed, err := f.tracker.RepackLane(ctx, "INTAKE")
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, c.ID, changed[0].ID)
	assert.Equal(t, b.Position, changed[0].Position)

	assert.Equal(t, []float64{a.Position.Y, b.Position.Y}, f.alloc.Occupied("INTAKE"))

	g, err := f.graph.LoadGraph(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.Position, g.Nodes[g.NodeIndex(c.ID)].Position)

	_, err = f.tracker.RepackLane(ctx, "NOPE")
	assert.ErrorIs(t, err, domain.ErrUnknownLane)
}

func TestTrackerRepackFailureKeepsStoredOccupancy(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	a := f.register(t, "M1")
	b := f.register(t, "M2")
	c := f.register(t, "M3")

	_, err := f.tracker.ShipLot(ctx, b.ID)
	require.NoError(t, err)

	f.lots.FailWrites = errors.New("disk full")
	_, err = f.tracker.RepackLane(ctx, "INTAKE")
	require.Error(t, err)

	assert.Equal(t, []float64{a.Position.Y, c.Position.Y}, f.alloc.Occupied("INTAKE"))

	f.lots.FailWrites = nil
	d := f.register(t, "M4")
	assert.Equal(t, b.Position, d.Position)
}

func TestTrackerRepackOnDeparture(t *testing.T) {
	f := newTrackerFixture(t, WithRepackOnDeparture(true))
	ctx := context.Background()

	a := f.register(t, "M1")
	b := f.register(t, "M2")

	_, err := f.tracker.UpdateLot(ctx, a.ID, LotPatch{Lane: strPtr("A")})
	require.NoError(t, err)

	stored, err := f.lots.GetLot(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Position, stored.Position)
	assert.Contains(t, f.events.Kinds(), domain.EventLaneRepacked)
}

func TestTrackerPublishFailureIsNotFatal(t *testing.T) {
	f := newTrackerFixture(t)
	f.events.Err = errors.New("redis down")

	_, err := f.tracker.RegisterLot(context.Background(), RegisterLot{ModelName: "M", LotNumber: "1"})
	assert.NoError(t, err)
}

func TestTrackerLaneOccupancy(t *testing.T) {
	f := newTrackerFixture(t)
	f.register(t, "M1")

	occ := f.tracker.LaneOccupancy()
	require.Len(t, occ, 3)
	assert.Equal(t, "INTAKE", occ[0].Lane.Name)
	assert.Equal(t, []float64{178}, occ[0].Occupied)
	assert.Empty(t, occ[1].Occupied)
}
