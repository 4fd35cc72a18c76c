package usecase

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/assetledger/internal/domain"
)

func TestScheduleCacheKeyTracksInputs(t *testing.T) {
	asset := &domain.Asset{
		ID:         "FA-1001",
		Currency:   "VND",
		Cost:       decimal.NewFromInt(30000000),
		Method:     domain.StraightLine,
		LifeMonths: 36,
		InService:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	aug := domain.NewPeriod(2025, time.August)

	base := scheduleCacheKey(asset, nil, aug)
	if !strings.HasPrefix(base, "schedule:FA-1001:2025-08:") {
		t.Fatalf("unexpected key %s", base)
	}
	if again := scheduleCacheKey(asset, nil, aug); again != base {
		t.Fatalf("expected stable key, got %s and %s", base, again)
	}

	disposal := &domain.Disposal{AssetID: "FA-1001", Date: time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC), Proceeds: decimal.NewFromInt(1)}
	if scheduleCacheKey(asset, disposal, aug) == base {
		t.Fatal("expected disposal to change the key")
	}

	changed := *asset
	changed.LifeMonths = 48
	if scheduleCacheKey(&changed, nil, aug) == base {
		t.Fatal("expected changed life to change the key")
	}

	if scheduleCacheKey(asset, nil, domain.NewPeriod(2025, time.September)) == base {
		t.Fatal("expected period to change the key")
	}
}
