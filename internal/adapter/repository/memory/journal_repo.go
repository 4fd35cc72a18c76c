package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/iho/assetledger/internal/domain"
	"github.com/iho/assetledger/internal/usecase"
)

// JournalRepository is an append-only in-memory journal with a unique
// posting key. It also serves ledger-wide consistency checks.
type JournalRepository struct {
	mu      sync.RWMutex
	entries []*domain.JournalEntry
	byID    map[string]*domain.JournalEntry
	byKey   map[string]*domain.JournalEntry
}

// NewJournalRepository creates an empty journal.
func NewJournalRepository() *JournalRepository {
	return &JournalRepository{
		byID:  make(map[string]*domain.JournalEntry),
		byKey: make(map[string]*domain.JournalEntry),
	}
}

// Append stages entry in tx. The key is checked again at commit.
func (r *JournalRepository) Append(_ context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	key := entry.Key.String()
	if t.hasStaged("journal:"+key) || r.exists(key) {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyPosted, key)
	}

	return t.stage("journal:"+key,
		func() error {
			if r.exists(key) {
				return fmt.Errorf("%w: %s", domain.ErrAlreadyPosted, key)
			}
			return nil
		},
		func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.entries = append(r.entries, entry)
			r.byID[entry.ID] = entry
			r.byKey[key] = entry
		},
	)
}

// ExistsByKey reports whether key is committed, or staged in tx.
func (r *JournalRepository) ExistsByKey(_ context.Context, tx usecase.Transaction, key domain.PostingKey) (bool, error) {
	if t, ok := tx.(*Tx); ok && t.hasStaged("journal:"+key.String()) {
		return true, nil
	}
	return r.exists(key.String()), nil
}

// GetByID returns a committed entry.
func (r *JournalRepository) GetByID(_ context.Context, id string) (*domain.JournalEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrJournalEntryNotFound
	}
	return e, nil
}

// List returns committed entries matching filter in append order.
func (r *JournalRepository) List(_ context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.JournalEntry
	skipped := 0
	for _, e := range r.entries {
		if !filter.Matches(e) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// CheckConsistency sums every debit and credit in the journal.
func (r *JournalRepository) CheckConsistency(_ context.Context) (decimal.Decimal, decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	debit, credit := decimal.Zero, decimal.Zero
	for _, e := range r.entries {
		debit = debit.Add(e.TotalDebit())
		credit = credit.Add(e.TotalCredit())
	}
	return debit, credit, nil
}

func (r *JournalRepository) exists(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byKey[key]
	return ok
}
