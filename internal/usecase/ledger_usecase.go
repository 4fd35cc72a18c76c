package usecase

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/iho/assetledger/internal/domain"
)

var (
	// ErrInconsistentLedger is returned when the ledger is not balanced.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: debits do not equal credits")
)

// ConsistencyReport is the ledger-wide debit and credit totals.
type ConsistencyReport struct {
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Balanced    bool
}

// LedgerUseCase handles journal reads and ledger-wide operations.
type LedgerUseCase struct {
	journalRepo JournalRepository
	ledgerRepo  LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(journalRepo JournalRepository, ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		journalRepo: journalRepo,
		ledgerRepo:  ledgerRepo,
	}
}

// ListEntries returns journal entries matching filter, oldest first.
func (uc *LedgerUseCase) ListEntries(ctx context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error) {
	if filter.Entity != "" {
		if err := domain.ValidateEntity(filter.Entity); err != nil {
			return nil, err
		}
	}
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)
	return uc.journalRepo.List(ctx, filter)
}

// GetEntry returns one journal entry.
func (uc *LedgerUseCase) GetEntry(ctx context.Context, id string) (*domain.JournalEntry, error) {
	return uc.journalRepo.GetByID(ctx, id)
}

// CheckConsistency verifies that total debits equal total credits.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	debit, credit, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	report := &ConsistencyReport{
		TotalDebit:  debit,
		TotalCredit: credit,
		Balanced:    debit.Sub(credit).Abs().LessThan(domain.BalanceTolerance),
	}
	if !report.Balanced {
		return report, ErrInconsistentLedger
	}

	return report, nil
}
