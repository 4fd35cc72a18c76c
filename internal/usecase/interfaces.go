package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/assetledger/internal/domain"
)

// AssetRepository defines read access to the fixed asset register.
type AssetRepository interface {
	// List returns the assets of entity, or every asset when entity is empty.
	List(ctx context.Context, entity string) ([]*domain.Asset, error)
	GetByID(ctx context.Context, id string) (*domain.Asset, error)
	// Disposal returns nil without error when the asset is still in service.
	Disposal(ctx context.Context, assetID string) (*domain.Disposal, error)
	// Disposals returns the disposals of entity keyed by asset id.
	Disposals(ctx context.Context, entity string) (map[string]*domain.Disposal, error)
}

// JournalRepository defines data access for the append-only journal.
type JournalRepository interface {
	// Append fails with domain.ErrAlreadyPosted when the entry key exists.
	Append(ctx context.Context, tx Transaction, entry *domain.JournalEntry) error
	ExistsByKey(ctx context.Context, tx Transaction, key domain.PostingKey) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.JournalEntry, error)
	List(ctx context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error)
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	CheckConsistency(ctx context.Context) (totalDebit, totalCredit decimal.Decimal, err error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// PayablesRepository defines data access for the payables workspace.
type PayablesRepository interface {
	Invoices(ctx context.Context) ([]*domain.Invoice, error)
	SaveInvoices(ctx context.Context, invoices []*domain.Invoice) error
	Vendor(ctx context.Context, id string) (*domain.Vendor, error)
	Receipts(ctx context.Context) ([]domain.GoodsReceipt, error)
	Bank(ctx context.Context, id string) (*domain.BankAccount, error)
	SaveBank(ctx context.Context, bank *domain.BankAccount) error
}

// ProjectsRepository defines data access for the projects workspace.
type ProjectsRepository interface {
	// Load returns a copy of the book that callers may mutate freely.
	Load(ctx context.Context) (*domain.ProjectBook, error)
	Save(ctx context.Context, book *domain.ProjectBook) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Locker serializes work on a key across goroutines or processes.
type Locker interface {
	// Lock blocks until the key is held or ctx is done. The returned func
	// releases the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (unlock func(context.Context) error, err error)
}

// Retrier re-runs an operation that failed with a transient error.
type Retrier interface {
	Retry(ctx context.Context, op func() error) error
}

// Cache defines caching operations. Get returns ErrCacheMiss for absent keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request can be retried.
	Release(ctx context.Context, key string) error
}
