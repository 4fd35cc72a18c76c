package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/assetledger/internal/domain"
	"github.com/iho/assetledger/internal/infrastructure/metrics"
)

// ItemException is a selected item that failed its rule.
type ItemException struct {
	ID     string
	Reason string
}

// BatchOutcome reports which selected items passed and which did not.
type BatchOutcome struct {
	Approved   []string
	Exceptions []ItemException
}

// InvoiceRow is an invoice with its aging bucket as of the configured today.
type InvoiceRow struct {
	Invoice *domain.Invoice
	Bucket  domain.AgingBucket
}

// PayablesUseCase handles invoice approval and payment runs.
type PayablesUseCase struct {
	txManager  TransactionManager
	repo       PayablesRepository
	outboxRepo OutboxRepository
	locker     Locker
	idGen      IDGenerator
	policy     domain.MatchPolicy
	today      time.Time
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// NewPayablesUseCase creates a new PayablesUseCase. today anchors aging and
// due-soon figures.
func NewPayablesUseCase(
	txManager TransactionManager,
	repo PayablesRepository,
	outboxRepo OutboxRepository,
	locker Locker,
	idGen IDGenerator,
	policy domain.MatchPolicy,
	today time.Time,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *PayablesUseCase {
	return &PayablesUseCase{
		txManager:  txManager,
		repo:       repo,
		outboxRepo: outboxRepo,
		locker:     locker,
		idGen:      idGen,
		policy:     policy,
		today:      today,
		logger:     logger,
		metrics:    metrics,
	}
}

// Today returns the date aging is computed against.
func (uc *PayablesUseCase) Today() time.Time {
	return uc.today
}

// ListInvoices returns invoices matching filter in stored order.
func (uc *PayablesUseCase) ListInvoices(ctx context.Context, filter domain.InvoiceFilter) ([]InvoiceRow, error) {
	invoices, err := uc.repo.Invoices(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]InvoiceRow, 0, len(invoices))
	for _, inv := range invoices {
		if filter.Matches(inv, uc.today) {
			rows = append(rows, InvoiceRow{Invoice: inv, Bucket: inv.Aging(uc.today)})
		}
	}
	return rows, nil
}

// Approve runs the approval rule on each selected invoice. Passing invoices
// become Approved and Matched, failing ones become Exception.
func (uc *PayablesUseCase) Approve(ctx context.Context, ids []string) (*BatchOutcome, error) {
	outcome := &BatchOutcome{}

	err := uc.update(ctx, ids, func(invoices []*domain.Invoice, selected map[string]*domain.Invoice) error {
		domain.MarkDuplicates(invoices)

		receipts, err := uc.repo.Receipts(ctx)
		if err != nil {
			return err
		}

		for _, id := range ids {
			inv := selected[id]
			vendor, err := uc.repo.Vendor(ctx, inv.VendorID)
			if err != nil {
				return err
			}

			r := uc.policy.Approve(inv, vendor, receipts)
			if r.OK {
				inv.Status = domain.InvoiceApproved
				inv.Match = domain.Matched
				outcome.Approved = append(outcome.Approved, inv.ID)
			} else {
				inv.Status = domain.InvoiceException
				outcome.Exceptions = append(outcome.Exceptions, ItemException{ID: inv.ID, Reason: r.Reason()})
			}
			uc.observeDecision(inv.Status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info().
		Int("approved", len(outcome.Approved)).
		Int("exceptions", len(outcome.Exceptions)).
		Msg("invoice approval batch")
	return outcome, nil
}

// MarkNeedsInfo moves the selected invoices to Needs Info.
func (uc *PayablesUseCase) MarkNeedsInfo(ctx context.Context, ids []string) error {
	return uc.setStatus(ctx, ids, domain.InvoiceNeedsInfo)
}

// Reject moves the selected invoices to Rejected.
func (uc *PayablesUseCase) Reject(ctx context.Context, ids []string) error {
	return uc.setStatus(ctx, ids, domain.InvoiceRejected)
}

// SchedulePayments schedules the selected approved invoices of the bank's
// entity, net of early payment discount, and reserves the total on the bank.
func (uc *PayablesUseCase) SchedulePayments(ctx context.Context, bankID string, ids []string, payDate time.Time) (*domain.PaymentPlan, error) {
	if len(ids) == 0 {
		return nil, domain.ErrNoSelection
	}

	unlock, err := uc.locker.Lock(ctx, payablesLockKey, DefaultLockTTL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = unlock(context.WithoutCancel(ctx)) }()

	// 1. Load bank and selection
	bank, err := uc.repo.Bank(ctx, bankID)
	if err != nil {
		return nil, err
	}
	invoices, err := uc.repo.Invoices(ctx)
	if err != nil {
		return nil, err
	}
	selected, err := selectInvoices(invoices, ids)
	if err != nil {
		return nil, err
	}

	candidates := make([]*domain.Invoice, 0, len(ids))
	for _, id := range ids {
		candidates = append(candidates, selected[id])
	}

	// 2. Plan against the bank balance
	plan, err := domain.PlanPayments(bank, candidates, payDate)
	if err != nil {
		return nil, err
	}

	// 3. Record the batch event
	if err := uc.emit(ctx, domain.AggregateTypePaymentBatch, domain.EventTypePaymentsScheduled, plan.BankID, map[string]any{
		"bank_id":     plan.BankID,
		"invoice_ids": planInvoiceIDs(plan),
		"total":       plan.Total.String(),
		"pay_date":    plan.PayDate.Format(domain.DateLayout),
	}); err != nil {
		return nil, err
	}

	// 4. Apply
	for _, line := range plan.Lines {
		inv := selected[line.InvoiceID]
		inv.Status = domain.InvoiceScheduled
		pd := payDate
		inv.ScheduledPayDate = &pd
		inv.ScheduledAmount = line.Net
	}
	bank.Balance = bank.Balance.Sub(plan.Total)

	if err := uc.repo.SaveInvoices(ctx, candidates); err != nil {
		return nil, err
	}
	if err := uc.repo.SaveBank(ctx, bank); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PaymentsScheduled.Add(float64(len(plan.Lines)))
	}
	uc.logger.Info().
		Str("bank", bank.ID).
		Str("total", plan.Total.String()).
		Int("invoices", len(plan.Lines)).
		Msg("payments scheduled")

	return plan, nil
}

// ExecuteScheduled marks every Scheduled invoice of entity Paid. An empty
// entity executes all entities.
func (uc *PayablesUseCase) ExecuteScheduled(ctx context.Context, entity string) ([]string, error) {
	unlock, err := uc.locker.Lock(ctx, payablesLockKey, DefaultLockTTL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = unlock(context.WithoutCancel(ctx)) }()

	invoices, err := uc.repo.Invoices(ctx)
	if err != nil {
		return nil, err
	}

	var paid []*domain.Invoice
	var ids []string
	for _, inv := range invoices {
		if inv.Status != domain.InvoiceScheduled || (entity != "" && inv.Entity != entity) {
			continue
		}
		inv.Status = domain.InvoicePaid
		paid = append(paid, inv)
		ids = append(ids, inv.ID)
	}

	if len(paid) == 0 {
		return nil, nil
	}
	if err := uc.repo.SaveInvoices(ctx, paid); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PaymentsExecuted.Add(float64(len(paid)))
	}
	return ids, nil
}

// KPIs computes the payables dashboard for entity, optionally within a quarter.
func (uc *PayablesUseCase) KPIs(ctx context.Context, entity string, q *domain.Quarter) (domain.PayablesKPIs, error) {
	invoices, err := uc.repo.Invoices(ctx)
	if err != nil {
		return domain.PayablesKPIs{}, err
	}
	return domain.ComputePayablesKPIs(invoices, entity, q, uc.today), nil
}

func (uc *PayablesUseCase) setStatus(ctx context.Context, ids []string, status domain.InvoiceStatus) error {
	return uc.update(ctx, ids, func(_ []*domain.Invoice, selected map[string]*domain.Invoice) error {
		for _, inv := range selected {
			inv.Status = status
			uc.observeDecision(status)
		}
		return nil
	})
}

// update loads the invoices under the payables lock, applies fn to the
// selection and saves it.
func (uc *PayablesUseCase) update(ctx context.Context, ids []string, fn func([]*domain.Invoice, map[string]*domain.Invoice) error) error {
	if len(ids) == 0 {
		return domain.ErrNoSelection
	}

	unlock, err := uc.locker.Lock(ctx, payablesLockKey, DefaultLockTTL)
	if err != nil {
		return err
	}
	defer func() { _ = unlock(context.WithoutCancel(ctx)) }()

	invoices, err := uc.repo.Invoices(ctx)
	if err != nil {
		return err
	}
	selected, err := selectInvoices(invoices, ids)
	if err != nil {
		return err
	}

	if err := fn(invoices, selected); err != nil {
		return err
	}

	changed := make([]*domain.Invoice, 0, len(selected))
	for _, inv := range selected {
		changed = append(changed, inv)
	}
	return uc.repo.SaveInvoices(ctx, changed)
}

func (uc *PayablesUseCase) emit(ctx context.Context, aggregateType, eventType, aggregateID string, payload map[string]any) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
		Published:     false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

func (uc *PayablesUseCase) observeDecision(status domain.InvoiceStatus) {
	if uc.metrics != nil {
		uc.metrics.InvoiceDecisions.WithLabelValues(string(status)).Inc()
	}
}

func selectInvoices(invoices []*domain.Invoice, ids []string) (map[string]*domain.Invoice, error) {
	byID := make(map[string]*domain.Invoice, len(invoices))
	for _, inv := range invoices {
		byID[inv.ID] = inv
	}

	selected := make(map[string]*domain.Invoice, len(ids))
	for _, id := range ids {
		inv, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvoiceNotFound, id)
		}
		selected[id] = inv
	}
	return selected, nil
}

func planInvoiceIDs(plan *domain.PaymentPlan) []string {
	ids := make([]string, len(plan.Lines))
	for i, l := range plan.Lines {
		ids[i] = l.InvoiceID
	}
	return ids
}
