package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/assetledger/internal/domain"
)

func testAsset(id, entity string) *domain.Asset {
	return &domain.Asset{
		ID:         id,
		Entity:     entity,
		Name:       id,
		Currency:   "VND",
		Class:      "IT",
		Cost:       decimal.NewFromInt(36_000_000),
		Salvage:    decimal.Zero,
		Method:     domain.StraightLine,
		LifeMonths: 36,
		InService:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestAssetRepositoryQueries(t *testing.T) {
	ctx := context.Background()
	disposal := &domain.Disposal{AssetID: "FA-2", Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)}
	repo, err := NewAssetRepository(
		[]*domain.Asset{testAsset("FA-1", "co1"), testAsset("FA-2", "co1"), testAsset("FA-3", "co2")},
		[]*domain.Disposal{disposal},
	)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}

	list, _ := repo.List(ctx, "co1")
	if len(list) != 2 || list[0].ID != "FA-1" {
		t.Fatalf("unexpected co1 assets: %#v", list)
	}
	all, _ := repo.List(ctx, "")
	if len(all) != 3 {
		t.Fatalf("expected all 3 assets, got %d", len(all))
	}

	if d, _ := repo.Disposal(ctx, "FA-1"); d != nil {
		t.Fatalf("expected FA-1 in service, got %#v", d)
	}
	if d, _ := repo.Disposal(ctx, "FA-2"); d != disposal {
		t.Fatalf("expected FA-2 disposal, got %#v", d)
	}
	if ds, _ := repo.Disposals(ctx, "co2"); len(ds) != 0 {
		t.Fatalf("expected no co2 disposals, got %d", len(ds))
	}

	if _, err := repo.GetByID(ctx, "FA-9"); !errors.Is(err, domain.ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestAssetRepositoryRejectsBadRegister(t *testing.T) {
	bad := testAsset("FA-1", "co1")
	bad.Salvage = decimal.NewFromInt(40_000_000)
	if _, err := NewAssetRepository([]*domain.Asset{bad}, nil); !errors.Is(err, domain.ErrInvalidAsset) {
		t.Fatalf("expected ErrInvalidAsset, got %v", err)
	}

	orphan := &domain.Disposal{AssetID: "FA-9", Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	if _, err := NewAssetRepository([]*domain.Asset{testAsset("FA-1", "co1")}, []*domain.Disposal{orphan}); !errors.Is(err, domain.ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}

	early := &domain.Disposal{AssetID: "FA-1", Date: time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)}
	if _, err := NewAssetRepository([]*domain.Asset{testAsset("FA-1", "co1")}, []*domain.Disposal{early}); !errors.Is(err, domain.ErrInvalidDisposal) {
		t.Fatalf("expected ErrInvalidDisposal, got %v", err)
	}
}
