package filestore

import (
	"context"
	"fmt"
	"wip-tracker-service/internal/domain"
	"wip-tracker-service/internal/platform/obs"
	"wip-tracker-service/internal/ports"

	"github.com/viant/afs"
)

// registryFile is the on-disk shape of the lot registry.
type registryFile struct {
	Products []*domain.Lot `json:"products"`
}

// LotRegistry stores every lot in a single {products: [...]} JSON file.
type LotRegistry struct {
	doc *document[registryFile]
}

var _ ports.LotRepository = (*LotRegistry)(nil)

func NewLotRegistry(ctx context.Context, fs afs.Service, dir, name string) (*LotRegistry, error) {
	doc, err := newDocument(ctx, fs, dir, name,
		func() *registryFile { return &registryFile{Products: []*domain.Lot{}} },
		func(r *registryFile) bool { return r.Products != nil },
	)
	if err != nil {
		return nil, fmt.Errorf("lot registry: %w", err)
	}
	if err := doc.init(ctx); err != nil {
		return nil, fmt.Errorf("lot registry: %w", err)
	}
	return &LotRegistry{doc: doc}, nil
}

func (r *LotRegistry) ListLots(ctx context.Context) (_ []*domain.Lot, err error) {
	defer obs.Time(ctx, "lots.List")(&err)

	f, err := r.doc.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}

	out := make([]*domain.Lot, 0, len(f.Products))
	for _, l := range f.Products {
		if l != nil {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *LotRegistry) GetLot(ctx context.Context, id string) (*domain.Lot, error) {
	f, err := r.doc.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("get lot %q: %w", id, err)
	}
	if i := indexOf(f.Products, id); i >= 0 {
		return f.Products[i], nil
	}
	return nil, fmt.Errorf("get lot %q: %w", id, domain.ErrLotNotFound)
}

func (r *LotRegistry) CreateLot(ctx context.Context, lot *domain.Lot) (err error) {
	defer obs.Time(ctx, "lots.Create")(&err)

	return r.doc.update(ctx, func(f *registryFile) error {
		if indexOf(f.Products, lot.ID) >= 0 {
			return fmt.Errorf("create lot %q: duplicate id", lot.ID)
		}
		f.Products = append(f.Products, lot.Clone())
		return nil
	})
}

func (r *LotRegistry) UpdateLot(ctx context.Context, lot *domain.Lot) (err error) {
	defer obs.Time(ctx, "lots.Update")(&err)

	return r.doc.update(ctx, func(f *registryFile) error {
		i := indexOf(f.Products, lot.ID)
		if i < 0 {
			return fmt.Errorf("update lot %q: %w", lot.ID, domain.ErrLotNotFound)
		}
		f.Products[i] = lot.Clone()
		return nil
	})
}

func indexOf(lots []*domain.Lot, id string) int {
	for i, l := range lots {
		if l != nil && l.ID == id {
			return i
		}
	}
	return -1
}
