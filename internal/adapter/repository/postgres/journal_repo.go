package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/assetledger/internal/domain"
	"github.com/iho/assetledger/internal/infrastructure/postgres/generated"
	"github.com/iho/assetledger/internal/usecase"
)

// JournalRepository implements usecase.JournalRepository on the
// journal_entries and journal_lines tables.
type JournalRepository struct {
	queries *generated.Queries
}

// NewJournalRepository creates a new JournalRepository.
func NewJournalRepository(pool *pgxpool.Pool) *JournalRepository {
	return newJournalRepository(pool)
}

func newJournalRepository(db generated.DBTX) *JournalRepository {
	return &JournalRepository{queries: generated.New(db)}
}

// Append inserts the entry and its lines in tx. The unique posting key makes
// a second append of the same key fail with domain.ErrAlreadyPosted, even
// when two transactions race.
func (r *JournalRepository) Append(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	pgxTx, err := asPgxTx(tx)
	if err != nil {
		return err
	}
	queries := r.queries.WithTx(pgxTx)

	_, err = queries.CreateJournalEntry(ctx, generated.CreateJournalEntryParams{
		ID:             entry.ID,
		IdempotencyKey: entry.Key.String(),
		Entity:         entry.Key.Entity,
		Period:         entry.Key.Period.String(),
		Kind:           string(entry.Key.Kind),
		AssetID:        entry.Key.AssetID,
		EntryDate:      timeToPgDate(entry.Date),
		CreatedAt:      timeToPgTimestamptz(entry.CreatedAt),
	})
	switch {
	case errors.Is(err, pgx.ErrNoRows), isUniqueViolation(err):
		return fmt.Errorf("%w: %s", domain.ErrAlreadyPosted, entry.Key)
	case err != nil:
		return fmt.Errorf("insert journal entry %s: %w", entry.ID, err)
	}

	for i, l := range entry.Lines {
		err := queries.CreateJournalLine(ctx, generated.CreateJournalLineParams{
			EntryID:     entry.ID,
			LineNo:      int32(i + 1),
			Account:     l.Account,
			Description: l.Description,
			Debit:       decimalToNumeric(l.Debit),
			Credit:      decimalToNumeric(l.Credit),
		})
		if err != nil {
			return fmt.Errorf("insert journal line %s/%d: %w", entry.ID, i+1, err)
		}
	}

	return nil
}

// ExistsByKey reports whether key has been journaled. With a nil tx the check
// runs on the pool and sees committed entries only.
func (r *JournalRepository) ExistsByKey(ctx context.Context, tx usecase.Transaction, key domain.PostingKey) (bool, error) {
	queries := r.queries
	if tx != nil {
		pgxTx, err := asPgxTx(tx)
		if err != nil {
			return false, err
		}
		queries = queries.WithTx(pgxTx)
	}
	return queries.JournalEntryExists(ctx, key.String())
}

// GetByID returns the entry with its lines.
func (r *JournalRepository) GetByID(ctx context.Context, id string) (*domain.JournalEntry, error) {
	row, err := r.queries.GetJournalEntry(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJournalEntryNotFound
		}
		return nil, err
	}

	entries, err := r.withLines(ctx, []generated.JournalEntry{row})
	if err != nil {
		return nil, err
	}
	return entries[0], nil
}

// List returns entries matching filter in append order.
func (r *JournalRepository) List(ctx context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error) {
	period := ""
	if !filter.Period.IsZero() {
		period = filter.Period.String()
	}

	rows, err := r.queries.ListJournalEntries(ctx, generated.ListJournalEntriesParams{
		Entity: filter.Entity,
		Period: period,
		Kind:   string(filter.Kind),
		Limit:  int32(filter.Limit),
		Offset: int32(filter.Offset),
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []*domain.JournalEntry{}, nil
	}

	return r.withLines(ctx, rows)
}

func (r *JournalRepository) withLines(ctx context.Context, rows []generated.JournalEntry) ([]*domain.JournalEntry, error) {
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}

	lineRows, err := r.queries.GetJournalLines(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make(map[string][]domain.JournalLine, len(rows))
	for _, l := range lineRows {
		debit, err := numericToDecimal(l.Debit)
		if err != nil {
			return nil, err
		}
		credit, err := numericToDecimal(l.Credit)
		if err != nil {
			return nil, err
		}
		lines[l.EntryID] = append(lines[l.EntryID], domain.JournalLine{
			Account:     l.Account,
			Description: l.Description,
			Debit:       debit,
			Credit:      credit,
		})
	}

	entries := make([]*domain.JournalEntry, 0, len(rows))
	for _, row := range rows {
		e, err := rowToJournalEntry(row)
		if err != nil {
			return nil, err
		}
		e.Lines = lines[row.ID]
		entries = append(entries, e)
	}
	return entries, nil
}

func rowToJournalEntry(row generated.JournalEntry) (*domain.JournalEntry, error) {
	period, err := domain.ParsePeriod(row.Period)
	if err != nil {
		return nil, fmt.Errorf("journal entry %s: %w", row.ID, err)
	}
	kind, err := domain.ParsePostingKind(row.Kind)
	if err != nil {
		return nil, fmt.Errorf("journal entry %s: %w", row.ID, err)
	}

	return &domain.JournalEntry{
		ID: row.ID,
		Key: domain.PostingKey{
			Entity:  row.Entity,
			Period:  period,
			Kind:    kind,
			AssetID: row.AssetID,
		},
		Date:      row.EntryDate.Time,
		CreatedAt: row.CreatedAt.Time,
	}, nil
}
