package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/assetledger/internal/adapter/repository/postgres"
	"github.com/iho/assetledger/internal/domain"
	"github.com/iho/assetledger/tests/testutil"
)

func TestJournalAppendAndRead(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	journalRepo := postgres.NewJournalRepository(testDB.Pool)
	txManager := postgres.NewTxManager(testDB.Pool)

	period := domain.NewPeriod(2025, 8)
	entry := testutil.DepreciationEntry("co1", period, decimal.RequireFromString("3233333.33"))

	tx, err := txManager.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin: %v", err)
	}
	if err := journalRepo.Append(ctx, tx, entry); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}

	got, err := journalRepo.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("failed to get entry: %v", err)
	}
	if got.Key != entry.Key {
		t.Errorf("expected key %v, got %v", entry.Key, got.Key)
	}
	if len(got.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got.Lines))
	}
	if !got.TotalDebit().Equal(entry.TotalDebit()) || !got.IsBalanced() {
		t.Errorf("expected balanced debit %s, got %s/%s", entry.TotalDebit(), got.TotalDebit(), got.TotalCredit())
	}

	list, err := journalRepo.List(ctx, domain.JournalFilter{Entity: "co1", Period: period, Limit: 10})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(list) != 1 || list[0].ID != entry.ID {
		t.Fatalf("expected one listed entry, got %d", len(list))
	}

	other, err := journalRepo.List(ctx, domain.JournalFilter{Entity: "co2", Limit: 10})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no entries for co2, got %d", len(other))
	}
}

func TestJournalRejectsDuplicateKey(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	journalRepo := postgres.NewJournalRepository(testDB.Pool)
	txManager := postgres.NewTxManager(testDB.Pool)
	period := domain.NewPeriod(2025, 8)

	appendEntry := func() error {
		tx, err := txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if err := journalRepo.Append(ctx, tx, testutil.DepreciationEntry("co1", period, decimal.NewFromInt(100))); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}

	if err := appendEntry(); err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	if err := appendEntry(); !errors.Is(err, domain.ErrAlreadyPosted) {
		t.Fatalf("expected ErrAlreadyPosted, got %v", err)
	}

	tx, err := txManager.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	exists, err := journalRepo.ExistsByKey(ctx, tx, domain.PostingKey{Entity: "co1", Period: period, Kind: domain.KindDepreciation})
	if err != nil {
		t.Fatalf("exists check failed: %v", err)
	}
	if !exists {
		t.Fatal("expected key to exist")
	}
}

func TestJournalRollbackLeavesNoEntry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	journalRepo := postgres.NewJournalRepository(testDB.Pool)
	txManager := postgres.NewTxManager(testDB.Pool)
	entry := testutil.DepreciationEntry("co1", domain.NewPeriod(2025, 9), decimal.NewFromInt(50))

	tx, err := txManager.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin: %v", err)
	}
	if err := journalRepo.Append(ctx, tx, entry); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("failed to rollback: %v", err)
	}

	if _, err := journalRepo.GetByID(ctx, entry.ID); !errors.Is(err, domain.ErrJournalEntryNotFound) {
		t.Fatalf("expected ErrJournalEntryNotFound, got %v", err)
	}
}

func TestLedgerConsistencyAfterAppends(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	journalRepo := postgres.NewJournalRepository(testDB.Pool)
	ledgerRepo := postgres.NewLedgerRepository(testDB.Pool)
	txManager := postgres.NewTxManager(testDB.Pool)

	tx, err := txManager.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin: %v", err)
	}
	for m := 1; m <= 3; m++ {
		entry := testutil.DepreciationEntry("co1", domain.NewPeriod(2025, time.Month(m)), decimal.NewFromInt(int64(m*1000)))
		if err := journalRepo.Append(ctx, tx, entry); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}

	debit, credit, err := ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		t.Fatalf("consistency check failed: %v", err)
	}
	if !debit.Equal(decimal.NewFromInt(6000)) || !credit.Equal(debit) {
		t.Fatalf("expected 6000/6000, got %s/%s", debit, credit)
	}
}
