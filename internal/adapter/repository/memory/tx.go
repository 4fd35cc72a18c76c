package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/assetledger/internal/usecase"
)

// ErrTxDone is returned when committing a finished transaction.
var ErrTxDone = errors.New("memory: transaction already committed or rolled back")

// ErrNoTx is returned when a write is attempted outside a transaction.
var ErrNoTx = errors.New("memory: write requires a transaction")

// TxManager implements usecase.TransactionManager for the in-memory stores.
// Commits are serialized so staged checks and writes apply atomically.
type TxManager struct {
	mu sync.Mutex
}

// NewTxManager creates a new TxManager.
func NewTxManager() *TxManager {
	return &TxManager{}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(_ context.Context) (usecase.Transaction, error) {
	return &Tx{manager: m, staged: make(map[string]bool)}, nil
}

type step struct {
	check func() error
	apply func()
}

// Tx buffers writes until Commit.
type Tx struct {
	manager *TxManager
	mu      sync.Mutex
	steps   []step
	staged  map[string]bool
	done    bool
}

// Commit re-validates every staged write, then applies them in order.
func (t *Tx) Commit(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return ErrTxDone
	}
	t.done = true

	t.manager.mu.Lock()
	defer t.manager.mu.Unlock()

	for _, s := range t.steps {
		if s.check == nil {
			continue
		}
		if err := s.check(); err != nil {
			return err
		}
	}
	for _, s := range t.steps {
		s.apply()
	}
	return nil
}

// Rollback discards staged writes. It is a no-op after Commit.
func (t *Tx) Rollback(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.done = true
	t.steps = nil
	return nil
}

func (t *Tx) stage(key string, check func() error, apply func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return ErrTxDone
	}
	t.steps = append(t.steps, step{check: check, apply: apply})
	if key != "" {
		t.staged[key] = true
	}
	return nil
}

func (t *Tx) hasStaged(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.staged[key]
}

func asTx(tx usecase.Transaction) (*Tx, error) {
	if tx == nil {
		return nil, ErrNoTx
	}
	t, ok := tx.(*Tx)
	if !ok {
		return nil, errors.New("memory: foreign transaction type")
	}
	return t, nil
}
