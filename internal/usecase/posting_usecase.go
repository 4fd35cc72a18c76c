package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/assetledger/internal/domain"
	"github.com/iho/assetledger/internal/infrastructure/metrics"
)

// Posting rejection reasons.
const (
	ReasonAlreadyPosted = "AlreadyPosted"
	ReasonNothingToPost = "NothingToPost"
)

// PostingResult is the outcome of a posting request. Rejections are results,
// not errors; errors are reserved for infrastructure failures.
type PostingResult struct {
	Entity  string
	Period  domain.Period
	Posted  bool
	Reason  string
	Entries []*domain.JournalEntry
	Total   decimal.Decimal
}

// PostingUseCase turns period depreciation and disposals into journal entries.
type PostingUseCase struct {
	txManager   TransactionManager
	assetRepo   AssetRepository
	journalRepo JournalRepository
	outboxRepo  OutboxRepository
	locker      Locker
	idGen       IDGenerator
	rates       *domain.ConversionTable
	retrier     Retrier
	lockTTL     time.Duration
	logger      zerolog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewPostingUseCase creates a new PostingUseCase.
func NewPostingUseCase(
	txManager TransactionManager,
	assetRepo AssetRepository,
	journalRepo JournalRepository,
	outboxRepo OutboxRepository,
	locker Locker,
	idGen IDGenerator,
	rates *domain.ConversionTable,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *PostingUseCase {
	return &PostingUseCase{
		txManager:   txManager,
		assetRepo:   assetRepo,
		journalRepo: journalRepo,
		outboxRepo:  outboxRepo,
		locker:      locker,
		idGen:       idGen,
		rates:       rates,
		lockTTL:     DefaultLockTTL,
		logger:      logger,
		metrics:     metrics,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithRetrier retries the ledger transaction on transient database errors.
func (uc *PostingUseCase) WithRetrier(r Retrier) *PostingUseCase {
	uc.retrier = r
	return uc
}

// WithLockTTL overrides DefaultLockTTL.
func (uc *PostingUseCase) WithLockTTL(ttl time.Duration) *PostingUseCase {
	if ttl > 0 {
		uc.lockTTL = ttl
	}
	return uc
}

// WithClock overrides the clock used for CreatedAt stamps.
func (uc *PostingUseCase) WithClock(now func() time.Time) *PostingUseCase {
	uc.now = now
	return uc
}

// Post posts depreciation for entity and period, plus the derecognition of
// every asset disposed on or before the period that is not yet journaled.
func (uc *PostingUseCase) Post(ctx context.Context, entity string, period domain.Period) (*PostingResult, error) {
	if err := domain.ValidateEntity(entity); err != nil {
		return nil, err
	}
	if period.IsZero() {
		return nil, domain.ErrInvalidPeriod
	}

	start := time.Now()
	if uc.metrics != nil {
		defer func() { uc.metrics.PostingDuration.Observe(time.Since(start).Seconds()) }()
	}

	// 1. Serialize per entity and period
	unlock, err := uc.locker.Lock(ctx, postingLockKey(entity, period), uc.lockTTL)
	if err != nil {
		if uc.metrics != nil && errors.Is(err, ErrLockHeld) {
			uc.metrics.PostingLockFailures.Inc()
		}
		return nil, err
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			uc.logger.Warn().Err(err).Str("entity", entity).Stringer("period", period).Msg("failed to release posting lock")
		}
	}()

	var result *PostingResult
	op := func() error {
		var err error
		result, err = uc.post(ctx, entity, period)
		return err
	}

	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, op)
	} else {
		err = op()
	}
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyPosted) {
			// Lost a race against a writer outside this lock.
			return uc.reject(entity, period, ReasonAlreadyPosted), nil
		}
		return nil, err
	}

	if !result.Posted {
		return uc.reject(entity, period, result.Reason), nil
	}

	uc.observePosted(result)
	return result, nil
}

func (uc *PostingUseCase) post(ctx context.Context, entity string, period domain.Period) (*PostingResult, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	// 2. Begin transaction
	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// 3. Idempotency on the period entry
	depKey := domain.PostingKey{Entity: entity, Period: period, Kind: domain.KindDepreciation}
	exists, err := uc.journalRepo.ExistsByKey(txCtx, tx, depKey)
	if err != nil {
		return nil, err
	}
	if exists {
		return &PostingResult{Entity: entity, Period: period, Reason: ReasonAlreadyPosted, Total: decimal.Zero}, nil
	}

	// 4. Sum converted depreciation of the entity's assets
	assets, err := uc.assetRepo.List(txCtx, entity)
	if err != nil {
		return nil, err
	}
	disposals, err := uc.assetRepo.Disposals(txCtx, entity)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, a := range assets {
		dep, err := domain.PeriodDepreciation(a, disposals[a.ID], period)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", a.ID, err)
		}
		converted, err := uc.rates.Convert(dep, a.Currency)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", a.ID, err)
		}
		total = total.Add(converted)
	}

	// 5. Nothing to post
	if total.IsZero() {
		return &PostingResult{Entity: entity, Period: period, Reason: ReasonNothingToPost, Total: total}, nil
	}

	now := uc.now()
	result := &PostingResult{Entity: entity, Period: period, Posted: true, Total: total}

	// 6. Depreciation entry
	dep := domain.NewDepreciationEntry(entity, period, total)
	if err := uc.append(txCtx, tx, dep, now); err != nil {
		return nil, err
	}
	result.Entries = append(result.Entries, dep)

	// 7. Disposal entries not yet journaled
	for _, a := range assets {
		entry, err := uc.disposalEntry(txCtx, tx, entity, a, disposals[a.ID], period)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			continue
		}
		if err := uc.append(txCtx, tx, entry, now); err != nil {
			return nil, err
		}
		result.Entries = append(result.Entries, entry)
	}

	// 8. Commit transaction
	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return result, nil
}

func (uc *PostingUseCase) disposalEntry(
	ctx context.Context,
	tx Transaction,
	entity string,
	asset *domain.Asset,
	disposal *domain.Disposal,
	period domain.Period,
) (*domain.JournalEntry, error) {
	r, ok, err := domain.EvaluateDisposal(asset, disposal, period)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w", asset.ID, err)
	}
	if !ok {
		return nil, nil
	}

	key := domain.PostingKey{Entity: entity, Period: r.Period, Kind: domain.KindDisposal, AssetID: asset.ID}
	exists, err := uc.journalRepo.ExistsByKey(ctx, tx, key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	proceeds, err := uc.rates.Convert(r.Proceeds, asset.Currency)
	if err != nil {
		return nil, err
	}
	accumulated, err := uc.rates.Convert(r.Accumulated, asset.Currency)
	if err != nil {
		return nil, err
	}
	cost, err := uc.rates.Convert(r.Cost, asset.Currency)
	if err != nil {
		return nil, err
	}

	return domain.NewDisposalEntry(entity, r, disposal.Date, proceeds, accumulated, cost), nil
}

func (uc *PostingUseCase) append(ctx context.Context, tx Transaction, entry *domain.JournalEntry, now time.Time) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	entry.CreatedAt = now

	if err := uc.journalRepo.Append(ctx, tx, entry); err != nil {
		return err
	}

	eventType := domain.EventTypeDepreciationPosted
	if entry.Key.Kind == domain.KindDisposal {
		eventType = domain.EventTypeDisposalPosted
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   entry.ID,
		AggregateType: domain.AggregateTypeJournalEntry,
		EventType:     eventType,
		Payload: map[string]any{
			"entry_id": entry.ID,
			"key":      entry.Key.String(),
			"entity":   entry.Key.Entity,
			"period":   entry.Key.Period.String(),
			"asset_id": entry.Key.AssetID,
			"debit":    entry.TotalDebit().String(),
			"credit":   entry.TotalCredit().String(),
		},
		CreatedAt: now,
		Published: false,
	}
	return uc.outboxRepo.Create(ctx, tx, event)
}

func (uc *PostingUseCase) reject(entity string, period domain.Period, reason string) *PostingResult {
	if uc.metrics != nil {
		uc.metrics.PostingRejections.WithLabelValues(reason).Inc()
	}
	uc.logger.Info().
		Str("entity", entity).
		Stringer("period", period).
		Str("reason", reason).
		Msg("posting rejected")

	return &PostingResult{Entity: entity, Period: period, Reason: reason, Total: decimal.Zero}
}

func (uc *PostingUseCase) observePosted(r *PostingResult) {
	if uc.metrics != nil {
		for _, e := range r.Entries {
			uc.metrics.EntriesPosted.WithLabelValues(string(e.Key.Kind)).Inc()
		}
		uc.metrics.DepreciationPosted.Add(r.Total.InexactFloat64())
	}
	uc.logger.Info().
		Str("entity", r.Entity).
		Stringer("period", r.Period).
		Str("total", r.Total.String()).
		Int("entries", len(r.Entries)).
		Msg("depreciation posted")
}
