package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"wip-tracker-service/internal/domain"
	"wip-tracker-service/internal/platform/obs"
	"wip-tracker-service/internal/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tracker drives the lot lifecycle: registration into the intake lane,
// lane transitions, holding, shipment and lane compaction. It keeps the
// allocator, the lot registry and the diagram in step.
//
// Mutations are serialized by a single mutex; the stores are read and
// rewritten whole on every change, so concurrent writers would race.
type Tracker struct {
	mu        sync.Mutex
	alloc     *Allocator
	lots      ports.LotRepository
	graph     ports.GraphRepository
	events    ports.EventPublisher
	now       func() time.Time
	newID     func() string
	repackOut bool
}

type TrackerOption func(*Tracker)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

// WithIDGenerator overrides lot id generation.
func WithIDGenerator(fn func() string) TrackerOption {
	return func(t *Tracker) { t.newID = fn }
}

// WithEventPublisher sets where lifecycle events are sent.
func WithEventPublisher(p ports.EventPublisher) TrackerOption {
	return func(t *Tracker) { t.events = p }
}

// WithRepackOnDeparture compacts a lane every time a lot leaves it.
func WithRepackOnDeparture(enabled bool) TrackerOption {
	return func(t *Tracker) { t.repackOut = enabled }
}

func NewTracker(alloc *Allocator, lots ports.LotRepository, graph ports.GraphRepository, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		alloc: alloc,
		lots:  lots,
		graph: graph,
		now:   time.Now,
		newID: func() string { return "product-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type RegisterLot struct {
	ModelName string
	LotNumber string
	Quantity  int
	Route     string
}

// LotPatch carries the fields of a partial lot update; nil means unchanged.
// Afvi replaces the whole AFVI status.
type LotPatch struct {
	ModelName *string
	LotNumber *string
	Quantity  *int
	Route     *string
	Lane      *string
	Afvi      *domain.AfviStatus
}

// LaneOccupancy is a lane together with the offsets currently reserved in it.
type LaneOccupancy struct {
	Lane     domain.Lane
	Occupied []float64
}

// Reconcile rebuilds lane occupancy from the lot registry. It must run once
// at startup before requests are served. Lots stored on an offset another
// lot of the same lane already holds are moved to a free slot and saved.
func (t *Tracker) Reconcile(ctx context.Context) (_ int, err error) {
	defer obs.Time(ctx, "tracker.Reconcile")(&err)

	t.mu.Lock()
	defer t.mu.Unlock()

	lots, err := t.lots.ListLots(ctx)
	if err != nil {
		return 0, fmt.Errorf("reconcile: list lots: %w", err)
	}

	skipped, displaced := t.alloc.Reinitialize(lots)
	if skipped > 0 {
		zap.L().Warn("lots in unconfigured lanes ignored", zap.Int("count", skipped))
	}

	for _, lot := range displaced {
		from := lot.Position.Y
		lot.Position, _ = t.alloc.Allocate(lot.Lane)
		if err := t.lots.UpdateLot(ctx, lot); err != nil {
			return 0, fmt.Errorf("reconcile: re-slot lot %q: %w", lot.ID, err)
		}
		if err := t.syncNode(ctx, lot); err != nil {
			return 0, fmt.Errorf("reconcile: %w", err)
		}
		zap.L().Warn("lot shared an offset, re-slotted",
			zap.String("lot_id", lot.ID),
			zap.String("lane", lot.Lane),
			zap.Float64("from_y", from),
			zap.Float64("to_y", lot.Position.Y),
		)
	}

	n := 0
	for _, l := range lots {
		if l.Status == domain.LotRegistered {
			n++
		}
	}
	return n, nil
}

func (t *Tracker) ListLots(ctx context.Context) ([]*domain.Lot, error) {
	lots, err := t.lots.ListLots(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	return lots, nil
}

func (t *Tracker) GetLot(ctx context.Context, id string) (*domain.Lot, error) {
	lot, err := t.lots.GetLot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get lot: %w", err)
	}
	return lot, nil
}

// RegisterLot creates a lot in the intake lane on the first free slot.
func (t *Tracker) RegisterLot(ctx context.Context, req RegisterLot) (_ *domain.Lot, err error) {
	defer obs.Time(ctx, "tracker.RegisterLot")(&err)

	model := strings.TrimSpace(req.ModelName)
	lotNumber := strings.TrimSpace(req.LotNumber)
	if model == "" {
		return nil, fmt.Errorf("register lot: model name is required: %w", domain.ErrInvalidLot)
	}
	if lotNumber == "" {
		return nil, fmt.Errorf("register lot: lot number is required: %w", domain.ErrInvalidLot)
	}
	if req.Quantity < 0 {
		return nil, fmt.Errorf("register lot: quantity must not be negative: %w", domain.ErrInvalidLot)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	intake, ok := t.alloc.First()
	if !ok {
		return nil, fmt.Errorf("register lot: no lanes configured: %w", domain.ErrUnknownLane)
	}

	pos, _ := t.alloc.Allocate(intake.Name)
	lot := &domain.Lot{
		ID:           t.newID(),
		ModelName:    model,
		LotNumber:    lotNumber,
		Quantity:     req.Quantity,
		Route:        strings.TrimSpace(req.Route),
		Lane:         intake.Name,
		Position:     pos,
		Status:       domain.LotRegistered,
		RegisteredAt: t.now().UTC(),
	}

	if err := t.lots.CreateLot(ctx, lot); err != nil {
		t.alloc.Release(intake.Name, pos.Y)
		return nil, fmt.Errorf("register lot: save lot %q: %w", lot.ID, err)
	}

	if err := t.graph.UpdateGraph(ctx, func(g *domain.Graph) error {
		g.UpsertNode(domain.ProductNode(lot))
		return nil
	}); err != nil {
		return nil, fmt.Errorf("register lot: add node %q: %w", lot.ID, err)
	}

	t.publish(ctx, domain.LotEvent{Kind: domain.EventLotRegistered, LotID: lot.ID, Lane: lot.Lane, Position: &lot.Position})
	return lot, nil
}

// SetHolding flags or clears a hold on a registered lot.
func (t *Tracker) SetHolding(ctx context.Context, id string, holding bool, memo *string) (_ *domain.Lot, err error) {
	defer obs.Time(ctx, "tracker.SetHolding")(&err)

	t.mu.Lock()
	defer t.mu.Unlock()

	lot, err := t.lots.GetLot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("set holding: %w", err)
	}
	if lot.Shipped() {
		return nil, fmt.Errorf("set holding %q: %w", id, domain.ErrLotShipped)
	}

	lot.SetHolding(holding, memo)
	if err := t.lots.UpdateLot(ctx, lot); err != nil {
		return nil, fmt.Errorf("set holding: save lot %q: %w", id, err)
	}

	if err := t.syncNode(ctx, lot); err != nil {
		return nil, fmt.Errorf("set holding: %w", err)
	}

	t.publish(ctx, domain.LotEvent{Kind: domain.EventLotHolding, LotID: lot.ID, Lane: lot.Lane})
	return lot, nil
}

// UpdateLot applies a field patch. A lane change moves the lot to the
// smallest free slot of the target lane and frees its old slot.
func (t *Tracker) UpdateLot(ctx context.Context, id string, patch LotPatch) (_ *domain.Lot, err error) {
	defer obs.Time(ctx, "tracker.UpdateLot")(&err)

	t.mu.Lock()
	defer t.mu.Unlock()

	lot, err := t.lots.GetLot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update lot: %w", err)
	}
	if lot.Shipped() {
		return nil, fmt.Errorf("update lot %q: %w", id, domain.ErrLotShipped)
	}

	if patch.ModelName != nil {
		m := strings.TrimSpace(*patch.ModelName)
		if m == "" {
			return nil, fmt.Errorf("update lot %q: model name must not be empty: %w", id, domain.ErrInvalidLot)
		}
		lot.ModelName = m
	}
	if patch.LotNumber != nil {
		n := strings.TrimSpace(*patch.LotNumber)
		if n == "" {
			return nil, fmt.Errorf("update lot %q: lot number must not be empty: %w", id, domain.ErrInvalidLot)
		}
		lot.LotNumber = n
	}
	if patch.Quantity != nil {
		if *patch.Quantity < 0 {
			return nil, fmt.Errorf("update lot %q: quantity must not be negative: %w", id, domain.ErrInvalidLot)
		}
		lot.Quantity = *patch.Quantity
	}
	if patch.Route != nil {
		lot.Route = strings.TrimSpace(*patch.Route)
	}
	if patch.Afvi != nil {
		if err := patch.Afvi.Validate(); err != nil {
			return nil, fmt.Errorf("update lot %q: %w", id, err)
		}
		lot.Afvi = patch.Afvi.Clone()
	}

	fromLane, fromPos := lot.Lane, lot.Position
	moved := false
	if to := laneName(patch.Lane); patch.Lane != nil && to != lot.Lane {
		pos, ok := t.alloc.Move(fromLane, fromPos.Y, to)
		if !ok {
			return nil, fmt.Errorf("update lot %q: lane %q: %w", id, to, domain.ErrUnknownLane)
		}
		lot.Lane = to
		lot.Position = pos
		moved = true
	}

	if err := t.lots.UpdateLot(ctx, lot); err != nil {
		if moved {
			t.alloc.Release(lot.Lane, lot.Position.Y)
			t.alloc.Claim(fromLane, fromPos.Y)
		}
		return nil, fmt.Errorf("update lot: save lot %q: %w", id, err)
	}

	if err := t.syncNode(ctx, lot); err != nil {
		return nil, fmt.Errorf("update lot: %w", err)
	}

	t.publish(ctx, domain.LotEvent{Kind: domain.EventLotUpdated, LotID: lot.ID, Lane: lot.Lane, FromLane: fromLane, Position: &lot.Position})

	if moved && t.repackOut {
		if _, err := t.repack(ctx, fromLane); err != nil {
			return nil, fmt.Errorf("update lot: %w", err)
		}
	}
	return lot, nil
}

// ShipLot moves a lot to its terminal state, frees its slot and drops its
// diagram node.
func (t *Tracker) ShipLot(ctx context.Context, id string) (_ *domain.Lot, err error) {
	defer obs.Time(ctx, "tracker.ShipLot")(&err)

	t.mu.Lock()
	defer t.mu.Unlock()

	lot, err := t.lots.GetLot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ship lot: %w", err)
	}
	if err := lot.Ship(t.now().UTC()); err != nil {
		return nil, fmt.Errorf("ship lot %q: %w", id, err)
	}

	if err := t.lots.UpdateLot(ctx, lot); err != nil {
		return nil, fmt.Errorf("ship lot: save lot %q: %w", id, err)
	}
	t.alloc.Release(lot.Lane, lot.Position.Y)

	if err := t.graph.UpdateGraph(ctx, func(g *domain.Graph) error {
		g.RemoveNode(id)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("ship lot: remove node %q: %w", id, err)
	}

	t.publish(ctx, domain.LotEvent{Kind: domain.EventLotShipped, LotID: lot.ID, Lane: lot.Lane})

	if t.repackOut {
		if _, err := t.repack(ctx, lot.Lane); err != nil {
			return nil, fmt.Errorf("ship lot: %w", err)
		}
	}
	return lot, nil
}

// RepackLane compacts a lane so its lots occupy consecutive slots from the
// top. Returns the lots whose position changed.
func (t *Tracker) RepackLane(ctx context.Context, lane string) (_ []*domain.Lot, err error) {
	defer obs.Time(ctx, "tracker.RepackLane")(&err)

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.alloc.Lane(lane); !ok {
		return nil, fmt.Errorf("repack lane %q: %w", lane, domain.ErrUnknownLane)
	}
	return t.repack(ctx, lane)
}

// LaneOccupancy reports every lane and its reserved offsets.
func (t *Tracker) LaneOccupancy() []LaneOccupancy {
	t.mu.Lock()
	defer t.mu.Unlock()

	lanes := t.alloc.Lanes()
	out := make([]LaneOccupancy, 0, len(lanes))
	for _, l := range lanes {
		out = append(out, LaneOccupancy{Lane: l, Occupied: t.alloc.Occupied(l.Name)})
	}
	return out
}

func (t *Tracker) repack(ctx context.Context, lane string) ([]*domain.Lot, error) {
	lots, err := t.lots.ListLots(ctx)
	if err != nil {
		return nil, fmt.Errorf("repack lane %q: list lots: %w", lane, err)
	}

	positions := t.alloc.Repack(lane, lots)

	changed := make([]*domain.Lot, 0, len(positions))
	for _, lot := range lots {
		pos, ok := positions[lot.ID]
		if !ok || pos == lot.Position {
			continue
		}
		lot.Position = pos
		if err := t.lots.UpdateLot(ctx, lot); err != nil {
			t.resetLane(ctx, lane)
			return nil, fmt.Errorf("repack lane %q: save lot %q: %w", lane, lot.ID, err)
		}
		changed = append(changed, lot)
	}

	if len(changed) == 0 {
		return changed, nil
	}

	if err := t.graph.UpdateGraph(ctx, func(g *domain.Graph) error {
		for _, lot := range changed {
			if i := g.NodeIndex(lot.ID); i >= 0 {
				g.Nodes[i].Position = lot.Position
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("repack lane %q: update nodes: %w", lane, err)
	}

	t.publish(ctx, domain.LotEvent{Kind: domain.EventLaneRepacked, Lane: lane})
	return changed, nil
}

// resetLane rebuilds a lane's occupancy from what the registry actually
// holds, after a repack was cut short by a failed write.
func (t *Tracker) resetLane(ctx context.Context, lane string) {
	stored, err := t.lots.ListLots(ctx)
	if err != nil {
		zap.L().Error("lane occupancy may be stale", zap.String("lane", lane), zap.Error(err))
		return
	}
	if displaced := t.alloc.ResetLane(lane, stored); len(displaced) > 0 {
		zap.L().Warn("lots share offsets until next reconcile",
			zap.String("lane", lane),
			zap.Int("count", len(displaced)),
		)
	}
}

// syncNode rewrites a lot's product node, keeping any extra data fields the
// diagram attached to it. A missing node is recreated.
func (t *Tracker) syncNode(ctx context.Context, lot *domain.Lot) error {
	err := t.graph.UpdateGraph(ctx, func(g *domain.Graph) error {
		i := g.NodeIndex(lot.ID)
		if i < 0 {
			g.UpsertNode(domain.ProductNode(lot))
			return nil
		}

		n := &g.Nodes[i]
		if n.Data == nil {
			n.Data = map[string]any{}
		}
		for k, v := range domain.ProductNodeData(lot) {
			n.Data[k] = v
		}
		n.Position = lot.Position
		return nil
	})
	if err != nil {
		return fmt.Errorf("sync node %q: %w", lot.ID, err)
	}
	return nil
}

func (t *Tracker) publish(ctx context.Context, ev domain.LotEvent) {
	if t.events == nil {
		return
	}
	ev.At = t.now().UTC()
	if err := t.events.Publish(ctx, ev); err != nil {
		zap.L().Warn("event publish failed",
			zap.String("kind", string(ev.Kind)),
			zap.String("lot_id", ev.LotID),
			zap.Error(err),
		)
	}
}

func laneName(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
