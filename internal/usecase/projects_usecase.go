package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/assetledger/internal/domain"
	"github.com/iho/assetledger/internal/infrastructure/metrics"
)

// ProjectsUseCase handles timesheet and expense approval and billing runs.
type ProjectsUseCase struct {
	txManager  TransactionManager
	repo       ProjectsRepository
	outboxRepo OutboxRepository
	locker     Locker
	idGen      IDGenerator
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// NewProjectsUseCase creates a new ProjectsUseCase.
func NewProjectsUseCase(
	txManager TransactionManager,
	repo ProjectsRepository,
	outboxRepo OutboxRepository,
	locker Locker,
	idGen IDGenerator,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *ProjectsUseCase {
	return &ProjectsUseCase{
		txManager:  txManager,
		repo:       repo,
		outboxRepo: outboxRepo,
		locker:     locker,
		idGen:      idGen,
		logger:     logger,
		metrics:    metrics,
	}
}

// ApproveTimesheets approves the selected timesheets that pass the timesheet
// rule. Failing timesheets keep their status.
func (uc *ProjectsUseCase) ApproveTimesheets(ctx context.Context, ids []string) (*BatchOutcome, error) {
	outcome := &BatchOutcome{}

	err := uc.update(ctx, len(ids), func(book *domain.ProjectBook) error {
		byID := make(map[string]*domain.Timesheet, len(book.Timesheets))
		for _, t := range book.Timesheets {
			byID[t.ID] = t
		}

		for _, id := range ids {
			t, ok := byID[id]
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrTimesheetNotFound, id)
			}

			if r := book.CheckTimesheet(t); r.OK {
				t.Status = domain.ApprovalApproved
				outcome.Approved = append(outcome.Approved, id)
				uc.observeApproval("timesheet", "approved")
			} else {
				outcome.Exceptions = append(outcome.Exceptions, ItemException{ID: id, Reason: r.Reason()})
				uc.observeApproval("timesheet", "exception")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return outcome, nil
}

// ApproveExpenses approves the selected expenses that pass the expense rule.
func (uc *ProjectsUseCase) ApproveExpenses(ctx context.Context, ids []string) (*BatchOutcome, error) {
	outcome := &BatchOutcome{}

	err := uc.update(ctx, len(ids), func(book *domain.ProjectBook) error {
		byID := make(map[string]*domain.Expense, len(book.Expenses))
		for _, e := range book.Expenses {
			byID[e.ID] = e
		}

		for _, id := range ids {
			e, ok := byID[id]
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrExpenseNotFound, id)
			}

			if r := domain.CheckExpense(e); r.OK {
				e.Status = domain.ApprovalApproved
				outcome.Approved = append(outcome.Approved, id)
				uc.observeApproval("expense", "approved")
			} else {
				outcome.Exceptions = append(outcome.Exceptions, ItemException{ID: id, Reason: r.Reason()})
				uc.observeApproval("expense", "exception")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return outcome, nil
}

// BillingRun groups approved unbilled items by project, marks the items of
// eligible projects billed and returns every line including blocked ones.
func (uc *ProjectsUseCase) BillingRun(ctx context.Context, scope domain.ProjectScope) ([]domain.BillingLine, error) {
	var lines []domain.BillingLine

	err := uc.update(ctx, -1, func(book *domain.ProjectBook) error {
		lines = book.PlanBilling(scope)

		var projects []string
		total := decimal.Zero
		for _, l := range lines {
			if l.Blocked {
				uc.observeBilling("blocked")
				continue
			}
			projects = append(projects, l.ProjectID)
			total = total.Add(l.Amount)
			uc.observeBilling("invoiced")
		}
		if len(projects) == 0 {
			return nil
		}

		quarter := ""
		if scope.Quarter != nil {
			quarter = scope.Quarter.String()
		}
		if err := uc.emit(ctx, scope.Entity, map[string]any{
			"entity":   scope.Entity,
			"quarter":  quarter,
			"projects": projects,
			"total":    total.String(),
		}); err != nil {
			return err
		}

		book.MarkBilled(lines)
		uc.logger.Info().
			Str("entity", scope.Entity).
			Str("quarter", quarter).
			Str("total", total.String()).
			Int("projects", len(projects)).
			Msg("billing run")
		return nil
	})
	if err != nil {
		return nil, err
	}

	return lines, nil
}

// KPIs computes the projects dashboard for scope.
func (uc *ProjectsUseCase) KPIs(ctx context.Context, scope domain.ProjectScope) (domain.ProjectsKPIs, error) {
	book, err := uc.repo.Load(ctx)
	if err != nil {
		return domain.ProjectsKPIs{}, err
	}
	return book.ComputeKPIs(scope), nil
}

// Portfolio returns burn, margin and risk per project in scope.
func (uc *ProjectsUseCase) Portfolio(ctx context.Context, scope domain.ProjectScope) ([]domain.ProjectHealth, error) {
	book, err := uc.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	return book.Portfolio(scope), nil
}

// update runs fn on a fresh copy of the book under the projects lock and
// saves it. selected is the number of chosen items, or negative when the
// operation takes no selection.
func (uc *ProjectsUseCase) update(ctx context.Context, selected int, fn func(*domain.ProjectBook) error) error {
	if selected == 0 {
		return domain.ErrNoSelection
	}

	unlock, err := uc.locker.Lock(ctx, projectsLockKey, DefaultLockTTL)
	if err != nil {
		return err
	}
	defer func() { _ = unlock(context.WithoutCancel(ctx)) }()

	book, err := uc.repo.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(book); err != nil {
		return err
	}
	return uc.repo.Save(ctx, book)
}

func (uc *ProjectsUseCase) emit(ctx context.Context, entity string, payload map[string]any) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	id := uc.idGen.Generate()
	event := &domain.OutboxEvent{
		ID:            id,
		AggregateID:   entity + ":" + id,
		AggregateType: domain.AggregateTypeBillingRun,
		EventType:     domain.EventTypeBillingRun,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
		Published:     false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

func (uc *ProjectsUseCase) observeApproval(item, outcome string) {
	if uc.metrics != nil {
		uc.metrics.ItemApprovals.WithLabelValues(item, outcome).Inc()
	}
}

func (uc *ProjectsUseCase) observeBilling(outcome string) {
	if uc.metrics != nil {
		uc.metrics.BillingLines.WithLabelValues(outcome).Inc()
	}
}
