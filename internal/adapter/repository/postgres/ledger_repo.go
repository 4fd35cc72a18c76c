package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/assetledger/internal/infrastructure/postgres/generated"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return newLedgerRepository(pool)
}

func newLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{queries: generated.New(db)}
}

// CheckConsistency sums every journal line.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (totalDebit decimal.Decimal, totalCredit decimal.Decimal, err error) {
	result, err := r.queries.CheckLedgerConsistency(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	totalDebit, err = numericToDecimal(result.TotalDebit)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	totalCredit, err = numericToDecimal(result.TotalCredit)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return totalDebit, totalCredit, nil
}
