package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BalanceTolerance is the largest debit/credit difference still considered
// balanced, in reporting currency units.
var BalanceTolerance = decimal.NewFromInt(1)

// PostingKind distinguishes period depreciation from disposal entries.
type PostingKind string

const (
	// KindDepreciation is the monthly depreciation entry for an entity.
	KindDepreciation PostingKind = "DEP"
	// KindDisposal is the derecognition entry for one disposed asset.
	KindDisposal PostingKind = "DISP"
)

// ParsePostingKind parses "DEP" or "DISP".
func ParsePostingKind(s string) (PostingKind, error) {
	switch k := PostingKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case KindDepreciation, KindDisposal:
		return k, nil
	default:
		return "", fmt.Errorf("unknown posting kind %q", s)
	}
}

// Chart of accounts used by the posting assembler.
const (
	AccountProceeds                = "1110/1310 Cash/AR"
	AccountFixedAssetCost          = "2110 Fixed Asset Cost"
	AccountAccumulatedDepreciation = "2140 Accumulated Depreciation"
	AccountDepreciationExpense     = "6800 Depreciation Expense"
	AccountGainOnDisposal          = "7110 Gain on Disposal"
	AccountLossOnDisposal          = "8110 Loss on Disposal"
)

// PostingKey identifies a posting so the same event is never journaled twice.
// AssetID is empty for depreciation entries.
type PostingKey struct {
	Entity  string
	Period  Period
	Kind    PostingKind
	AssetID string
}

// String formats the key as "entity|period|kind|asset".
func (k PostingKey) String() string {
	return strings.Join([]string{k.Entity, k.Period.String(), string(k.Kind), k.AssetID}, "|")
}

// EntryID derives the human readable journal entry id for the key.
func (k PostingKey) EntryID() string {
	if k.Kind == KindDisposal {
		return fmt.Sprintf("JE-DISP-%s-%s", k.AssetID, k.Period)
	}
	return fmt.Sprintf("JE-DEP-%s-%s", k.Entity, k.Period)
}

// JournalLine is one debit or credit line of an entry.
type JournalLine struct {
	Account     string
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// JournalEntry is an immutable double-entry record in the ledger.
type JournalEntry struct {
	ID        string
	Key       PostingKey
	Date      time.Time
	Lines     []JournalLine
	CreatedAt time.Time
}

// Entity returns the owning entity.
func (e *JournalEntry) Entity() string {
	return e.Key.Entity
}

// Period returns the accounting period.
func (e *JournalEntry) Period() Period {
	return e.Key.Period
}

// TotalDebit sums the debit side.
func (e *JournalEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredit sums the credit side.
func (e *JournalEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// IsBalanced reports whether debits equal credits within BalanceTolerance.
func (e *JournalEntry) IsBalanced() bool {
	return e.TotalDebit().Sub(e.TotalCredit()).Abs().LessThan(BalanceTolerance)
}

// Validate checks the entry has lines, no negative amounts and balances.
func (e *JournalEntry) Validate() error {
	if len(e.Lines) < 2 {
		return fmt.Errorf("%w: %s has %d lines", ErrUnbalancedEntry, e.ID, len(e.Lines))
	}

	for _, l := range e.Lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return fmt.Errorf("%w: %s has a negative line on %s", ErrUnbalancedEntry, e.ID, l.Account)
		}
	}

	if !e.IsBalanced() {
		return fmt.Errorf("%w: %s debit %s credit %s", ErrUnbalancedEntry, e.ID, e.TotalDebit(), e.TotalCredit())
	}

	return nil
}

// NewDepreciationEntry assembles the period entry: Dr expense, Cr accumulated.
func NewDepreciationEntry(entity string, period Period, total decimal.Decimal) *JournalEntry {
	key := PostingKey{Entity: entity, Period: period, Kind: KindDepreciation}
	desc := fmt.Sprintf("Depreciation %s %s", entity, period)
	return &JournalEntry{
		ID:   key.EntryID(),
		Key:  key,
		Date: period.FirstDay(),
		Lines: []JournalLine{
			{Account: AccountDepreciationExpense, Description: desc, Debit: total, Credit: decimal.Zero},
			{Account: AccountAccumulatedDepreciation, Description: desc, Debit: decimal.Zero, Credit: total},
		},
	}
}

// NewDisposalEntry assembles the derecognition entry for a disposal with all
// figures already in the reporting currency. The gain or loss line is derived
// from the other three so that debits equal credits exactly.
func NewDisposalEntry(entity string, r *DisposalResult, date time.Time, proceeds, accumulated, cost decimal.Decimal) *JournalEntry {
	key := PostingKey{Entity: entity, Period: r.Period, Kind: KindDisposal, AssetID: r.AssetID}
	desc := fmt.Sprintf("Disposal %s", r.AssetID)

	lines := []JournalLine{
		{Account: AccountProceeds, Description: desc, Debit: proceeds, Credit: decimal.Zero},
		{Account: AccountAccumulatedDepreciation, Description: desc, Debit: accumulated, Credit: decimal.Zero},
		{Account: AccountFixedAssetCost, Description: desc, Debit: decimal.Zero, Credit: cost},
	}

	diff := proceeds.Add(accumulated).Sub(cost)
	switch {
	case diff.IsPositive():
		lines = append(lines, JournalLine{Account: AccountGainOnDisposal, Description: desc, Debit: decimal.Zero, Credit: diff})
	case diff.IsNegative():
		lines = append(lines, JournalLine{Account: AccountLossOnDisposal, Description: desc, Debit: diff.Neg(), Credit: decimal.Zero})
	}

	return &JournalEntry{
		ID:    key.EntryID(),
		Key:   key,
		Date:  date,
		Lines: lines,
	}
}

// JournalFilter narrows a ledger listing. Zero values match everything.
type JournalFilter struct {
	Entity string
	Period Period
	Kind   PostingKind
	Limit  int
	Offset int
}

// Matches reports whether e passes the filter.
func (f JournalFilter) Matches(e *JournalEntry) bool {
	if f.Entity != "" && e.Key.Entity != f.Entity {
		return false
	}
	if !f.Period.IsZero() && e.Key.Period != f.Period {
		return false
	}
	if f.Kind != "" && e.Key.Kind != f.Kind {
		return false
	}
	return true
}
