package memory

import (
	"context"
	"testing"
	"time"

	"github.com/iho/assetledger/internal/domain"
)

func TestOutboxLifecycle(t *testing.T) {
	ctx := context.Background()
	txm := NewTxManager()
	repo := NewOutboxRepository()

	tx, _ := txm.Begin(ctx)
	for _, id := range []string{"evt-1", "evt-2"} {
		if err := repo.Create(ctx, tx, &domain.OutboxEvent{
			ID:            id,
			AggregateID:   "JE-DEP-co1-2025-08",
			AggregateType: domain.AggregateTypeJournalEntry,
			EventType:     domain.EventTypeDepreciationPosted,
		}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	if got, _ := repo.GetUnpublished(ctx, 10); len(got) != 0 {
		t.Fatalf("expected no events before commit, got %d", len(got))
	}
	_ = tx.Commit(ctx)

	got, _ := repo.GetUnpublished(ctx, 1)
	if len(got) != 1 || got[0].ID != "evt-1" {
		t.Fatalf("expected evt-1 first, got %#v", got)
	}

	at := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	_ = repo.MarkPublished(ctx, "evt-1", at)

	got, _ = repo.GetUnpublished(ctx, 10)
	if len(got) != 1 || got[0].ID != "evt-2" {
		t.Fatalf("expected only evt-2 unpublished, got %#v", got)
	}

	byAgg, _ := repo.GetByAggregate(ctx, domain.AggregateTypeJournalEntry, "JE-DEP-co1-2025-08", 10, 0)
	if len(byAgg) != 2 {
		t.Fatalf("expected 2 events for aggregate, got %d", len(byAgg))
	}

	_ = repo.DeletePublished(ctx, at.Add(time.Hour))
	byAgg, _ = repo.GetByAggregate(ctx, domain.AggregateTypeJournalEntry, "JE-DEP-co1-2025-08", 10, 0)
	if len(byAgg) != 1 || byAgg[0].ID != "evt-2" {
		t.Fatalf("expected published event purged, got %#v", byAgg)
	}
}
