package ports

import (
	"context"
	"wip-tracker-service/internal/domain"
)

// Port: a boundary for persisting Lot entities (the lot registry).
type LotRepository interface {
	// Retrieve every lot, registered and shipped.
	ListLots(ctx context.Context) ([]*domain.Lot, error)
	// Retrieve a single lot. Returns domain.ErrLotNotFound when absent.
	GetLot(ctx context.Context, id string) (*domain.Lot, error)
	// Persist a new lot.
	CreateLot(ctx context.Context, lot *domain.Lot) error
	// Overwrite an existing lot. Returns domain.ErrLotNotFound when absent.
	UpdateLot(ctx context.Context, lot *domain.Lot) error
}
