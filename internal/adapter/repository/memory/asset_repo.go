package memory

import (
	"context"
	"fmt"

	"github.com/iho/assetledger/internal/domain"
)

// AssetRepository serves a fixed asset register loaded at startup.
// Assets and disposals are read-only after construction.
type AssetRepository struct {
	assets    []*domain.Asset
	byID      map[string]*domain.Asset
	disposals map[string]*domain.Disposal
}

// NewAssetRepository validates and indexes the register. Disposals must
// reference a registered asset.
func NewAssetRepository(assets []*domain.Asset, disposals []*domain.Disposal) (*AssetRepository, error) {
	r := &AssetRepository{
		byID:      make(map[string]*domain.Asset, len(assets)),
		disposals: make(map[string]*domain.Disposal, len(disposals)),
	}

	for _, a := range assets {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byID[a.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", domain.ErrInvalidAsset, a.ID)
		}
		r.byID[a.ID] = a
		r.assets = append(r.assets, a)
	}

	for _, d := range disposals {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		a, ok := r.byID[d.AssetID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrAssetNotFound, d.AssetID)
		}
		if d.Period().Before(a.StartPeriod()) {
			return nil, fmt.Errorf("%w: %s disposed before in-service", domain.ErrInvalidDisposal, d.AssetID)
		}
		r.disposals[d.AssetID] = d
	}

	return r, nil
}

// List returns the assets of entity in register order.
func (r *AssetRepository) List(_ context.Context, entity string) ([]*domain.Asset, error) {
	out := make([]*domain.Asset, 0, len(r.assets))
	for _, a := range r.assets {
		if entity == "" || a.Entity == entity {
			out = append(out, a)
		}
	}
	return out, nil
}

// GetByID looks an asset up.
func (r *AssetRepository) GetByID(_ context.Context, id string) (*domain.Asset, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAssetNotFound, id)
	}
	return a, nil
}

// Disposal returns the asset's disposal or nil.
func (r *AssetRepository) Disposal(_ context.Context, assetID string) (*domain.Disposal, error) {
	return r.disposals[assetID], nil
}

// Disposals returns the disposals of entity keyed by asset id.
func (r *AssetRepository) Disposals(_ context.Context, entity string) (map[string]*domain.Disposal, error) {
	out := make(map[string]*domain.Disposal)
	for id, d := range r.disposals {
		if entity == "" || r.byID[id].Entity == entity {
			out[id] = d
		}
	}
	return out, nil
}
