package dto

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iho/assetledger/internal/domain"
)

// ErrInvalidRequest is returned when a request body fails validation.
var ErrInvalidRequest = errors.New("invalid request")

// SelectionRequest selects invoices, timesheets or expenses by id.
type SelectionRequest struct {
	IDs []string `json:"ids"`
}

// Normalize trims ids and drops blanks and repeats.
func (r *SelectionRequest) Normalize() []string {
	seen := make(map[string]bool, len(r.IDs))
	ids := make([]string, 0, len(r.IDs))
	for _, id := range r.IDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// SchedulePaymentsRequest represents a request to schedule approved invoices.
type SchedulePaymentsRequest struct {
	SelectionRequest
	BankID  string `json:"bank_id"`
	PayDate string `json:"pay_date"`
}

// Validate checks the bank and parses the pay date.
func (r *SchedulePaymentsRequest) Validate() (time.Time, error) {
	if strings.TrimSpace(r.BankID) == "" {
		return time.Time{}, fmt.Errorf("%w: bank_id is required", ErrInvalidRequest)
	}
	payDate, err := domain.ParseDate(r.PayDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: pay_date must be YYYY-MM-DD", ErrInvalidRequest)
	}
	return payDate, nil
}

// ExecutePaymentsRequest represents a request to pay scheduled invoices.
type ExecutePaymentsRequest struct {
	Entity string `json:"entity"`
}

// BillingRunRequest represents a request to run billing for an entity.
type BillingRunRequest struct {
	Entity  string `json:"entity"`
	Quarter string `json:"quarter"`
}

// Scope parses the request into a project scope.
func (r *BillingRunRequest) Scope() (domain.ProjectScope, error) {
	scope := domain.ProjectScope{Entity: strings.TrimSpace(r.Entity)}
	if r.Quarter == "" {
		return scope, nil
	}
	q, err := domain.ParseQuarter(r.Quarter)
	if err != nil {
		return scope, err
	}
	scope.Quarter = &q
	return scope, nil
}
