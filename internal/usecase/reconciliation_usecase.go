package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iho/assetledger/internal/domain"
)

// Integrity check names.
const (
	CheckNetBookAboveSalvage = "NBV ≥ salvage"
	CheckAccumulatedPlusNBV  = "Dep sum + NBV ≈ Cost"
	CheckDecliningClamp      = "DDB clamp to salvage"
	CheckEntriesBalanced     = "Posted JEs balanced"
	CheckPeriodResolvable    = "Period dep resolvable"
	CheckLedgerConsistent    = "Ledger debits = credits"
)

// CheckResult is the outcome of one integrity check.
type CheckResult struct {
	Name     string
	Passed   bool
	Failures []string
}

// IntegrityReport collects the checks run for an entity and period.
type IntegrityReport struct {
	Entity    string
	Period    domain.Period
	Checks    []CheckResult
	CheckedAt time.Time
}

// Passed counts the passing checks.
func (r *IntegrityReport) Passed() int {
	n := 0
	for _, c := range r.Checks {
		if c.Passed {
			n++
		}
	}
	return n
}

// OK reports whether every check passed.
func (r *IntegrityReport) OK() bool {
	return r.Passed() == len(r.Checks)
}

// ReconciliationUseCase runs integrity checks over the register and journal.
type ReconciliationUseCase struct {
	assetRepo   AssetRepository
	journalRepo JournalRepository
	ledgerRepo  LedgerRepository
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	assetRepo AssetRepository,
	journalRepo JournalRepository,
	ledgerRepo LedgerRepository,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		assetRepo:   assetRepo,
		journalRepo: journalRepo,
		ledgerRepo:  ledgerRepo,
	}
}

// Run checks the entity's assets as of period, its posted entries, and the
// ledger as a whole.
func (uc *ReconciliationUseCase) Run(ctx context.Context, entity string, period domain.Period) (*IntegrityReport, error) {
	assets, err := uc.assetRepo.List(ctx, entity)
	if err != nil {
		return nil, err
	}
	disposals, err := uc.assetRepo.Disposals(ctx, entity)
	if err != nil {
		return nil, err
	}

	nbvCheck := CheckResult{Name: CheckNetBookAboveSalvage, Passed: true}
	sumCheck := CheckResult{Name: CheckAccumulatedPlusNBV, Passed: true}
	ddbCheck := CheckResult{Name: CheckDecliningClamp, Passed: true}
	resolvable := CheckResult{Name: CheckPeriodResolvable, Passed: true}

	for _, a := range assets {
		d := disposals[a.ID]

		if _, err := domain.PeriodDepreciation(a, d, period); err != nil {
			resolvable.fail("%s: %v", a.ID, err)
			continue
		}

		nbv, err := domain.NetBookValueAt(a, d, period)
		if err != nil {
			return nil, err
		}
		acc, err := domain.AccumulatedDepreciationAt(a, d, period)
		if err != nil {
			return nil, err
		}

		if nbv.LessThan(a.Salvage) {
			nbvCheck.fail("%s: NBV %s below salvage %s", a.ID, nbv, a.Salvage)
			if a.Method == domain.DecliningBalance {
				ddbCheck.fail("%s: NBV %s below salvage %s", a.ID, nbv, a.Salvage)
			}
		}

		if acc.Add(nbv).Sub(a.Cost).Abs().GreaterThanOrEqual(domain.BalanceTolerance) {
			sumCheck.fail("%s: %s + %s != %s", a.ID, acc, nbv, a.Cost)
		}
	}

	entries, err := uc.journalRepo.List(ctx, domain.JournalFilter{Entity: entity, Limit: domain.MaxPageSize})
	if err != nil {
		return nil, err
	}
	balanced := CheckResult{Name: CheckEntriesBalanced, Passed: true}
	for _, e := range entries {
		if !e.IsBalanced() {
			balanced.fail("%s: debit %s credit %s", e.ID, e.TotalDebit(), e.TotalCredit())
		}
	}

	ledger := CheckResult{Name: CheckLedgerConsistent, Passed: true}
	if err := uc.CheckLedgerConsistency(ctx); err != nil {
		ledger.fail("%v", err)
	}

	return &IntegrityReport{
		Entity:    entity,
		Period:    period,
		Checks:    []CheckResult{nbvCheck, sumCheck, ddbCheck, balanced, resolvable, ledger},
		CheckedAt: time.Now().UTC(),
	}, nil
}

// CheckLedgerConsistency verifies double-entry bookkeeping consistency
func (uc *ReconciliationUseCase) CheckLedgerConsistency(ctx context.Context) error {
	totalDebits, totalCredits, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return err
	}

	if totalDebits.Sub(totalCredits).Abs().GreaterThanOrEqual(domain.BalanceTolerance) {
		return fmt.Errorf(
			"%w: debits=%s credits=%s difference=%s",
			ErrInconsistentLedger,
			totalDebits.String(),
			totalCredits.String(),
			totalDebits.Sub(totalCredits).String(),
		)
	}

	return nil
}

func (c *CheckResult) fail(format string, args ...any) {
	c.Passed = false
	c.Failures = append(c.Failures, fmt.Sprintf(format, args...))
}

// Summary renders "n/m PASS" followed by one line per check.
func (r *IntegrityReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Integrity: %d/%d PASS", r.Passed(), len(r.Checks))
	for _, c := range r.Checks {
		mark := "FAIL"
		if c.Passed {
			mark = "PASS"
		}
		fmt.Fprintf(&b, "\n%s %s", mark, c.Name)
	}
	return b.String()
}
