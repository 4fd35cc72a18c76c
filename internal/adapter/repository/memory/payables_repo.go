package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/iho/assetledger/internal/domain"
)

// PayablesData is the payables workspace contents.
type PayablesData struct {
	Vendors  []*domain.Vendor
	Invoices []*domain.Invoice
	Receipts []domain.GoodsReceipt
	Banks    []*domain.BankAccount
}

// PayablesRepository keeps the payables workspace in memory. Reads return
// copies so callers only change state through the Save methods.
type PayablesRepository struct {
	mu       sync.RWMutex
	vendors  map[string]domain.Vendor
	invoices []domain.Invoice
	index    map[string]int
	receipts []domain.GoodsReceipt
	banks    map[string]domain.BankAccount
}

// NewPayablesRepository creates a new PayablesRepository seeded with data.
func NewPayablesRepository(data PayablesData) *PayablesRepository {
	r := &PayablesRepository{
		vendors:  make(map[string]domain.Vendor, len(data.Vendors)),
		index:    make(map[string]int, len(data.Invoices)),
		receipts: append([]domain.GoodsReceipt(nil), data.Receipts...),
		banks:    make(map[string]domain.BankAccount, len(data.Banks)),
	}
	for _, v := range data.Vendors {
		r.vendors[v.ID] = *v
	}
	for _, inv := range data.Invoices {
		r.index[inv.ID] = len(r.invoices)
		r.invoices = append(r.invoices, copyInvoice(inv))
	}
	for _, b := range data.Banks {
		r.banks[b.ID] = *b
	}
	return r
}

// Invoices returns copies of every invoice in stored order.
func (r *PayablesRepository) Invoices(_ context.Context) ([]*domain.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Invoice, len(r.invoices))
	for i := range r.invoices {
		inv := copyInvoice(&r.invoices[i])
		out[i] = &inv
	}
	return out, nil
}

// SaveInvoices overwrites the stored invoices with the same ids.
func (r *PayablesRepository) SaveInvoices(_ context.Context, invoices []*domain.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, inv := range invoices {
		if _, ok := r.index[inv.ID]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrInvoiceNotFound, inv.ID)
		}
	}
	for _, inv := range invoices {
		r.invoices[r.index[inv.ID]] = copyInvoice(inv)
	}
	return nil
}

// Vendor looks a vendor up.
func (r *PayablesRepository) Vendor(_ context.Context, id string) (*domain.Vendor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.vendors[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrVendorNotFound, id)
	}
	return &v, nil
}

// Receipts returns every goods receipt.
func (r *PayablesRepository) Receipts(_ context.Context) ([]domain.GoodsReceipt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.GoodsReceipt(nil), r.receipts...), nil
}

// Bank looks a bank account up.
func (r *PayablesRepository) Bank(_ context.Context, id string) (*domain.BankAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.banks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrBankNotFound, id)
	}
	return &b, nil
}

// SaveBank overwrites a stored bank account.
func (r *PayablesRepository) SaveBank(_ context.Context, bank *domain.BankAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.banks[bank.ID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrBankNotFound, bank.ID)
	}
	r.banks[bank.ID] = *bank
	return nil
}

func copyInvoice(inv *domain.Invoice) domain.Invoice {
	c := *inv
	if inv.ScheduledPayDate != nil {
		d := *inv.ScheduledPayDate
		c.ScheduledPayDate = &d
	}
	return c
}
