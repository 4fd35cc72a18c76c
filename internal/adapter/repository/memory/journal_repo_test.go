package memory

import (
	"context"
	"errors"
	"sync"
	"time"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/assetledger/internal/domain"
)

func depEntry(entity string, period domain.Period, amount int64) *domain.JournalEntry {
	e := domain.NewDepreciationEntry(entity, period, decimal.NewFromInt(amount))
	e.ID = e.Key.EntryID()
	return e
}

func TestJournalAppendVisibleOnlyAfterCommit(t *testing.T) {
	ctx := context.Background()
	txm := NewTxManager()
	repo := NewJournalRepository()
	entry := depEntry("co1", domain.NewPeriod(2025, 8), 1000)

	tx, _ := txm.Begin(ctx)
	if err := repo.Append(ctx, tx, entry); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	if ok, _ := repo.ExistsByKey(ctx, nil, entry.Key); ok {
		t.Fatal("entry visible before commit")
	}
	if ok, _ := repo.ExistsByKey(ctx, tx, entry.Key); !ok {
		t.Fatal("entry not visible inside its own transaction")
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	got, err := repo.GetByID(ctx, entry.ID)
	if err != nil || got != entry {
		t.Fatalf("expected committed entry, got %v err=%v", got, err)
	}
}

func TestJournalRollbackDiscards(t *testing.T) {
	ctx := context.Background()
	txm := NewTxManager()
	repo := NewJournalRepository()
	entry := depEntry("co1", domain.NewPeriod(2025, 8), 1000)

	tx, _ := txm.Begin(ctx)
	_ = repo.Append(ctx, tx, entry)
	_ = tx.Rollback(ctx)

	if err := tx.Commit(ctx); !errors.Is(err, ErrTxDone) {
		t.Fatalf("expected ErrTxDone, got %v", err)
	}
	if _, err := repo.GetByID(ctx, entry.ID); !errors.Is(err, domain.ErrJournalEntryNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestJournalRejectsDuplicateKey(t *testing.T) {
	ctx := context.Background()
	txm := NewTxManager()
	repo := NewJournalRepository()
	period := domain.NewPeriod(2025, 8)

	tx, _ := txm.Begin(ctx)
	_ = repo.Append(ctx, tx, depEntry("co1", period, 1000))
	if err := repo.Append(ctx, tx, depEntry("co1", period, 1000)); !errors.Is(err, domain.ErrAlreadyPosted) {
		t.Fatalf("expected duplicate in same tx to fail, got %v", err)
	}
	_ = tx.Commit(ctx)

	tx2, _ := txm.Begin(ctx)
	if err := repo.Append(ctx, tx2, depEntry("co1", period, 1000)); !errors.Is(err, domain.ErrAlreadyPosted) {
		t.Fatalf("expected ErrAlreadyPosted, got %v", err)
	}
}

func TestJournalConcurrentCommitsKeepOneEntry(t *testing.T) {
	ctx := context.Background()
	txm := NewTxManager()
	repo := NewJournalRepository()
	period := domain.NewPeriod(2025, 8)

	// Every writer stages before any commits, so only commit-time checks
	// can stop the duplicates.
	const writers = 8
	txs := make([]*Tx, writers)
	for i := range txs {
		tx, _ := txm.Begin(ctx)
		if err := repo.Append(ctx, tx, depEntry("co1", period, 1000)); err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
		txs[i] = tx.(*Tx)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	committed := 0
	for _, tx := range txs {
		wg.Add(1)
		go func(tx *Tx) {
			defer wg.Done()
			if err := tx.Commit(ctx); err == nil {
				mu.Lock()
				committed++
				mu.Unlock()
			} else if !errors.Is(err, domain.ErrAlreadyPosted) {
				t.Errorf("unexpected commit error: %v", err)
			}
		}(tx)
	}
	wg.Wait()

	if committed != 1 {
		t.Fatalf("expected exactly one commit, got %d", committed)
	}
	entries, _ := repo.List(ctx, domain.JournalFilter{})
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
}

func TestJournalAppendRequiresTx(t *testing.T) {
	repo := NewJournalRepository()
	err := repo.Append(context.Background(), nil, depEntry("co1", domain.NewPeriod(2025, 8), 1))
	if !errors.Is(err, ErrNoTx) {
		t.Fatalf("expected ErrNoTx, got %v", err)
	}
}

func TestJournalListFilterAndPaging(t *testing.T) {
	ctx := context.Background()
	txm := NewTxManager()
	repo := NewJournalRepository()

	tx, _ := txm.Begin(ctx)
	for m := time.Month(1); m <= 4; m++ {
		_ = repo.Append(ctx, tx, depEntry("co1", domain.NewPeriod(2025, m), 100))
	}
	_ = repo.Append(ctx, tx, depEntry("co2", domain.NewPeriod(2025, 1), 100))
	_ = tx.Commit(ctx)

	got, _ := repo.List(ctx, domain.JournalFilter{Entity: "co1", Limit: 2, Offset: 1})
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Period() != domain.NewPeriod(2025, 2) || got[1].Period() != domain.NewPeriod(2025, 3) {
		t.Fatalf("unexpected page: %s %s", got[0].Period(), got[1].Period())
	}

	got, _ = repo.List(ctx, domain.JournalFilter{Period: domain.NewPeriod(2025, 1)})
	if len(got) != 2 {
		t.Fatalf("expected both entities for 2025-01, got %d", len(got))
	}
}

func TestJournalCheckConsistency(t *testing.T) {
	ctx := context.Background()
	txm := NewTxManager()
	repo := NewJournalRepository()

	tx, _ := txm.Begin(ctx)
	_ = repo.Append(ctx, tx, depEntry("co1", domain.NewPeriod(2025, 1), 250))
	_ = repo.Append(ctx, tx, depEntry("co1", domain.NewPeriod(2025, 2), 750))
	_ = tx.Commit(ctx)

	debit, credit, err := repo.CheckConsistency(ctx)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !debit.Equal(decimal.NewFromInt(1000)) || !credit.Equal(debit) {
		t.Fatalf("expected 1000/1000, got %s/%s", debit, credit)
	}
}
