package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/assetledger/internal/domain"
	"github.com/iho/assetledger/internal/usecase"
)

// InvoiceResponse represents an invoice with its aging bucket.
type InvoiceResponse struct {
	ID               string          `json:"id"`
	Entity           string          `json:"entity"`
	VendorID         string          `json:"vendor_id"`
	POID             string          `json:"po_id,omitempty"`
	Date             string          `json:"date"`
	DueDate          string          `json:"due_date"`
	Amount           decimal.Decimal `json:"amount"`
	HasDocument      bool            `json:"has_document"`
	Status           string          `json:"status"`
	Match            string          `json:"match"`
	Terms            string          `json:"terms"`
	Bucket           string          `json:"bucket"`
	DuplicateOf      string          `json:"duplicate_of,omitempty"`
	ScheduledPayDate string          `json:"scheduled_pay_date,omitempty"`
	ScheduledAmount  decimal.Decimal `json:"scheduled_amount"`
}

// InvoicesFromUseCase converts invoice rows to responses.
func InvoicesFromUseCase(rows []usecase.InvoiceRow) []*InvoiceResponse {
	result := make([]*InvoiceResponse, len(rows))
	for i, row := range rows {
		inv := row.Invoice
		r := &InvoiceResponse{
			ID:              inv.ID,
			Entity:          inv.Entity,
			VendorID:        inv.VendorID,
			POID:            inv.POID,
			Date:            inv.Date.Format(domain.DateLayout),
			DueDate:         inv.DueDate.Format(domain.DateLayout),
			Amount:          inv.Amount,
			HasDocument:     inv.HasDocument,
			Status:          string(inv.Status),
			Match:           string(inv.Match),
			Terms:           string(inv.Terms),
			Bucket:          string(row.Bucket),
			DuplicateOf:     inv.DuplicateOf,
			ScheduledAmount: inv.ScheduledAmount,
		}
		if inv.ScheduledPayDate != nil {
			r.ScheduledPayDate = inv.ScheduledPayDate.Format(domain.DateLayout)
		}
		result[i] = r
	}
	return result
}

// ExceptionResponse is a selected item that failed its rule.
type ExceptionResponse struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BatchOutcomeResponse reports the approved and failed items of a batch.
type BatchOutcomeResponse struct {
	Approved   []string             `json:"approved"`
	Exceptions []*ExceptionResponse `json:"exceptions"`
}

// BatchOutcomeFromUseCase converts a batch outcome to response.
func BatchOutcomeFromUseCase(o *usecase.BatchOutcome) *BatchOutcomeResponse {
	exceptions := make([]*ExceptionResponse, len(o.Exceptions))
	for i, e := range o.Exceptions {
		exceptions[i] = &ExceptionResponse{ID: e.ID, Reason: e.Reason}
	}
	approved := o.Approved
	if approved == nil {
		approved = []string{}
	}
	return &BatchOutcomeResponse{Approved: approved, Exceptions: exceptions}
}

// PaymentLineResponse is one invoice of a payment batch.
type PaymentLineResponse struct {
	InvoiceID string          `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	Discount  decimal.Decimal `json:"discount"`
	Net       decimal.Decimal `json:"net"`
}

// PaymentPlanResponse represents a scheduled payment batch.
type PaymentPlanResponse struct {
	BankID  string                 `json:"bank_id"`
	PayDate string                 `json:"pay_date"`
	Lines   []*PaymentLineResponse `json:"lines"`
	Total   decimal.Decimal        `json:"total"`
}

// PaymentPlanFromDomain converts a payment plan to response.
func PaymentPlanFromDomain(p *domain.PaymentPlan) *PaymentPlanResponse {
	lines := make([]*PaymentLineResponse, len(p.Lines))
	for i, l := range p.Lines {
		lines[i] = &PaymentLineResponse{
			InvoiceID: l.InvoiceID,
			Amount:    l.Amount,
			Discount:  l.Discount,
			Net:       l.Net,
		}
	}
	return &PaymentPlanResponse{
		BankID:  p.BankID,
		PayDate: p.PayDate.Format(domain.DateLayout),
		Lines:   lines,
		Total:   p.Total,
	}
}

// ExecutedPaymentsResponse lists the invoices marked paid.
type ExecutedPaymentsResponse struct {
	Paid []string `json:"paid"`
}

// PayablesKPIsResponse represents the payables dashboard.
type PayablesKPIsResponse struct {
	Outstanding        decimal.Decimal `json:"outstanding"`
	DueSoon            decimal.Decimal `json:"due_soon"`
	Overdue            decimal.Decimal `json:"overdue"`
	DPOProxy           int64           `json:"dpo_proxy_days"`
	Exceptions         int             `json:"exceptions"`
	DiscountCapturedPc int64           `json:"discount_captured_pct"`
}

// PayablesKPIsFromDomain converts payables KPIs to response.
func PayablesKPIsFromDomain(k domain.PayablesKPIs) *PayablesKPIsResponse {
	return &PayablesKPIsResponse{
		Outstanding:        k.Outstanding,
		DueSoon:            k.DueSoon,
		Overdue:            k.Overdue,
		DPOProxy:           k.DPOProxy,
		Exceptions:         k.Exceptions,
		DiscountCapturedPc: k.DiscountCapturedPc,
	}
}
