package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/assetledger/internal/domain"
	"github.com/iho/assetledger/internal/infrastructure/metrics"
)

// RegisterLine is one asset of the register as of a period.
type RegisterLine struct {
	Asset       *domain.Asset
	Disposal    *domain.Disposal
	NetBook     decimal.Decimal
	Accumulated decimal.Decimal
	PeriodDep   decimal.Decimal
}

// ClassTotals is the gross cost and net book value of one asset class in
// reporting currency.
type ClassTotals struct {
	Gross   decimal.Decimal
	NetBook decimal.Decimal
}

// AssetKPIs are the register totals in reporting currency.
type AssetKPIs struct {
	Entity      string
	Period      domain.Period
	Currency    string
	Gross       decimal.Decimal
	Accumulated decimal.Decimal
	NetBook     decimal.Decimal
	ByClass     map[string]ClassTotals
}

// RunLine is one asset's charge in a depreciation run preview.
type RunLine struct {
	AssetID   string
	Name      string
	Currency  string
	Amount    decimal.Decimal
	Converted decimal.Decimal
}

// RunPreview is what posting entity and period would journal.
type RunPreview struct {
	Entity string
	Period domain.Period
	Lines  []RunLine
	Total  decimal.Decimal
	Posted bool
}

// DisposalNotice is a disposal effective on or before the viewed period.
type DisposalNotice struct {
	Result   *domain.DisposalResult
	Currency string
	Posted   bool
}

// AssetUseCase serves read models over the asset register.
type AssetUseCase struct {
	assetRepo   AssetRepository
	journalRepo JournalRepository
	cache       Cache
	cacheTTL    time.Duration
	rates       *domain.ConversionTable
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// NewAssetUseCase creates a new AssetUseCase. cache may be nil.
func NewAssetUseCase(
	assetRepo AssetRepository,
	journalRepo JournalRepository,
	cache Cache,
	rates *domain.ConversionTable,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *AssetUseCase {
	return &AssetUseCase{
		assetRepo:   assetRepo,
		journalRepo: journalRepo,
		cache:       cache,
		cacheTTL:    DefaultScheduleCacheTTL,
		rates:       rates,
		logger:      logger,
		metrics:     metrics,
	}
}

// WithCacheTTL overrides DefaultScheduleCacheTTL.
func (uc *AssetUseCase) WithCacheTTL(ttl time.Duration) *AssetUseCase {
	if ttl > 0 {
		uc.cacheTTL = ttl
	}
	return uc
}

// Register lists the entity's assets with NBV, accumulated and period charge.
func (uc *AssetUseCase) Register(ctx context.Context, entity string, period domain.Period) ([]RegisterLine, error) {
	assets, err := uc.assetRepo.List(ctx, entity)
	if err != nil {
		return nil, err
	}
	disposals, err := uc.assetRepo.Disposals(ctx, entity)
	if err != nil {
		return nil, err
	}

	lines := make([]RegisterLine, 0, len(assets))
	for _, a := range assets {
		d := disposals[a.ID]
		schedule, err := domain.BuildSchedule(a, d, period)
		if err != nil {
			return nil, err
		}

		line := RegisterLine{
			Asset:       a,
			Disposal:    d,
			NetBook:     a.Cost,
			Accumulated: schedule.TotalDepreciation(period),
			PeriodDep:   decimal.Zero,
		}
		if last, ok := schedule.Last(period); ok {
			line.NetBook = last.Closing
		}
		if at, ok := schedule.At(period); ok {
			line.PeriodDep = at.Depreciation
		}
		lines = append(lines, line)
	}

	return lines, nil
}

// KPIs totals the register in reporting currency.
func (uc *AssetUseCase) KPIs(ctx context.Context, entity string, period domain.Period) (*AssetKPIs, error) {
	lines, err := uc.Register(ctx, entity, period)
	if err != nil {
		return nil, err
	}

	k := &AssetKPIs{
		Entity:      entity,
		Period:      period,
		Currency:    uc.rates.Reporting,
		Gross:       decimal.Zero,
		Accumulated: decimal.Zero,
		NetBook:     decimal.Zero,
		ByClass:     make(map[string]ClassTotals),
	}

	for _, l := range lines {
		gross, err := uc.rates.Convert(l.Asset.Cost, l.Asset.Currency)
		if err != nil {
			return nil, err
		}
		acc, err := uc.rates.Convert(l.Accumulated, l.Asset.Currency)
		if err != nil {
			return nil, err
		}
		nbv, err := uc.rates.Convert(l.NetBook, l.Asset.Currency)
		if err != nil {
			return nil, err
		}

		k.Gross = k.Gross.Add(gross)
		k.Accumulated = k.Accumulated.Add(acc)
		k.NetBook = k.NetBook.Add(nbv)

		c := k.ByClass[l.Asset.Class]
		c.Gross = c.Gross.Add(gross)
		c.NetBook = c.NetBook.Add(nbv)
		k.ByClass[l.Asset.Class] = c
	}

	return k, nil
}

// Preview computes the depreciation run without posting it.
func (uc *AssetUseCase) Preview(ctx context.Context, entity string, period domain.Period) (*RunPreview, error) {
	lines, err := uc.Register(ctx, entity, period)
	if err != nil {
		return nil, err
	}

	preview := &RunPreview{Entity: entity, Period: period, Total: decimal.Zero}
	for _, l := range lines {
		converted, err := uc.rates.Convert(l.PeriodDep, l.Asset.Currency)
		if err != nil {
			return nil, err
		}
		preview.Lines = append(preview.Lines, RunLine{
			AssetID:   l.Asset.ID,
			Name:      l.Asset.Name,
			Currency:  l.Asset.Currency,
			Amount:    l.PeriodDep,
			Converted: converted,
		})
		preview.Total = preview.Total.Add(converted)
	}

	key := domain.PostingKey{Entity: entity, Period: period, Kind: domain.KindDepreciation}
	preview.Posted, err = uc.journalRepo.ExistsByKey(ctx, nil, key)
	if err != nil {
		return nil, err
	}

	return preview, nil
}

// DisposalNotices lists disposals effective on or before period, oldest first.
func (uc *AssetUseCase) DisposalNotices(ctx context.Context, entity string, period domain.Period) ([]DisposalNotice, error) {
	assets, err := uc.assetRepo.List(ctx, entity)
	if err != nil {
		return nil, err
	}
	disposals, err := uc.assetRepo.Disposals(ctx, entity)
	if err != nil {
		return nil, err
	}

	var notices []DisposalNotice
	for _, a := range assets {
		r, ok, err := domain.EvaluateDisposal(a, disposals[a.ID], period)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		key := domain.PostingKey{Entity: entity, Period: r.Period, Kind: domain.KindDisposal, AssetID: a.ID}
		posted, err := uc.journalRepo.ExistsByKey(ctx, nil, key)
		if err != nil {
			return nil, err
		}
		notices = append(notices, DisposalNotice{Result: r, Currency: a.Currency, Posted: posted})
	}

	sort.SliceStable(notices, func(i, j int) bool {
		return notices[i].Result.Period.Before(notices[j].Result.Period)
	})
	return notices, nil
}

// EvaluateDisposal returns the gain or loss of one asset's disposal.
func (uc *AssetUseCase) EvaluateDisposal(ctx context.Context, assetID string, period domain.Period) (*domain.DisposalResult, error) {
	asset, disposal, err := uc.load(ctx, assetID)
	if err != nil {
		return nil, err
	}

	r, ok, err := domain.EvaluateDisposal(asset, disposal, period)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNoDisposal
	}
	return r, nil
}

// Schedule returns the asset's schedule as of period, from cache when possible.
func (uc *AssetUseCase) Schedule(ctx context.Context, assetID string, period domain.Period) (*domain.Asset, domain.Schedule, error) {
	asset, disposal, err := uc.load(ctx, assetID)
	if err != nil {
		return nil, nil, err
	}

	key := scheduleCacheKey(asset, disposal, period)
	if cached, ok := uc.cached(ctx, key); ok {
		return asset, cached, nil
	}

	schedule, err := domain.BuildSchedule(asset, disposal, period)
	if err != nil {
		return nil, nil, err
	}
	if uc.metrics != nil {
		uc.metrics.SchedulesBuilt.Inc()
	}

	if uc.cache != nil {
		if data, err := json.Marshal(schedule); err == nil {
			if err := uc.cache.Set(ctx, key, data, uc.cacheTTL); err != nil {
				uc.logger.Warn().Err(err).Str("key", key).Msg("failed to cache schedule")
			}
		}
	}

	return asset, schedule, nil
}

func (uc *AssetUseCase) cached(ctx context.Context, key string) (domain.Schedule, bool) {
	if uc.cache == nil {
		return nil, false
	}

	data, err := uc.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			uc.logger.Warn().Err(err).Str("key", key).Msg("schedule cache read failed")
		}
		uc.observeCache("miss")
		return nil, false
	}

	var schedule domain.Schedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		uc.observeCache("miss")
		return nil, false
	}

	uc.observeCache("hit")
	return schedule, true
}

// scheduleCacheKey fingerprints every input of the schedule so a changed
// asset or disposal never reads a stale entry.
func scheduleCacheKey(asset *domain.Asset, disposal *domain.Disposal, period domain.Period) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d|%s|%s",
		asset.Cost, asset.Salvage, asset.Method, asset.LifeMonths,
		asset.InService.Format(domain.DateLayout), asset.Currency)
	if disposal != nil {
		fmt.Fprintf(h, "|%s|%s", disposal.Date.Format(domain.DateLayout), disposal.Proceeds)
	}
	return "schedule:" + asset.ID + ":" + period.String() + ":" + hex.EncodeToString(h.Sum(nil)[:8])
}

func (uc *AssetUseCase) observeCache(result string) {
	if uc.metrics != nil {
		uc.metrics.ScheduleCache.WithLabelValues(result).Inc()
	}
}

func (uc *AssetUseCase) load(ctx context.Context, assetID string) (*domain.Asset, *domain.Disposal, error) {
	asset, err := uc.assetRepo.GetByID(ctx, assetID)
	if err != nil {
		return nil, nil, err
	}
	disposal, err := uc.assetRepo.Disposal(ctx, assetID)
	if err != nil {
		return nil, nil, err
	}
	return asset, disposal, nil
}
