package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"wip-tracker-service/internal/domain"
)

// LotRepository is an in-memory lot registry used by tests and local runs.
// Lots are copied in and out so callers never alias stored state.
type LotRepository struct {
	mu   sync.Mutex
	lots map[string]*domain.Lot
	// FailWrites makes CreateLot/UpdateLot fail, for exercising rollback paths.
	FailWrites error
}

func NewLotRepository(lots ...*domain.Lot) *LotRepository {
	m := make(map[string]*domain.Lot, len(lots))
	for _, l := range lots {
		m[l.ID] = l.Clone()
	}
	return &LotRepository{lots: m}
}

func (r *LotRepository) ListLots(ctx context.Context) ([]*domain.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.Lot, 0, len(r.lots))
	for _, l := range r.lots {
		out = append(out, l.Clone())
	}
	slices.SortFunc(out, func(a, b *domain.Lot) int {
		if c := a.RegisteredAt.Compare(b.RegisteredAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *LotRepository) GetLot(ctx context.Context, id string) (*domain.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lots[id]
	if !ok {
		return nil, fmt.Errorf("get lot %q: %w", id, domain.ErrLotNotFound)
	}
	return l.Clone(), nil
}

func (r *LotRepository) CreateLot(ctx context.Context, lot *domain.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailWrites != nil {
		return r.FailWrites
	}
	if _, ok := r.lots[lot.ID]; ok {
		return fmt.Errorf("create lot %q: duplicate id", lot.ID)
	}
	r.lots[lot.ID] = lot.Clone()
	return nil
}

func (r *LotRepository) UpdateLot(ctx context.Context, lot *domain.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailWrites != nil {
		return r.FailWrites
	}
	if _, ok := r.lots[lot.ID]; !ok {
		return fmt.Errorf("update lot %q: %w", lot.ID, domain.ErrLotNotFound)
	}
	r.lots[lot.ID] = lot.Clone()
	return nil
}
