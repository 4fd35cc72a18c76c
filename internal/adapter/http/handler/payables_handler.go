package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/iho/assetledger/internal/adapter/http/dto"
	"github.com/iho/assetledger/internal/domain"
	"github.com/iho/assetledger/internal/usecase"
)

// PayablesService defines the behavior needed by PayablesHandler.
type PayablesService interface {
	ListInvoices(ctx context.Context, filter domain.InvoiceFilter) ([]usecase.InvoiceRow, error)
	Approve(ctx context.Context, ids []string) (*usecase.BatchOutcome, error)
	MarkNeedsInfo(ctx context.Context, ids []string) error
	Reject(ctx context.Context, ids []string) error
	SchedulePayments(ctx context.Context, bankID string, ids []string, payDate time.Time) (*domain.PaymentPlan, error)
	ExecuteScheduled(ctx context.Context, entity string) ([]string, error)
	KPIs(ctx context.Context, entity string, q *domain.Quarter) (domain.PayablesKPIs, error)
}

// PayablesHandler handles invoice approval and payment runs.
type PayablesHandler struct {
	payablesUC PayablesService
}

// NewPayablesHandler creates a new PayablesHandler.
func NewPayablesHandler(payablesUC PayablesService) *PayablesHandler {
	return &PayablesHandler{payablesUC: payablesUC}
}

// ListInvoices lists invoices matching the query filters.
func (h *PayablesHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.InvoiceFilter{
		Entity: q.Get("entity"),
		Vendor: q.Get("vendor"),
		Search: q.Get("q"),
	}

	if s := q.Get("status"); s != "" {
		status, err := domain.ParseInvoiceStatus(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid status", err.Error())
			return
		}
		filter.Status = status
	}
	if b := q.Get("bucket"); b != "" {
		bucket, err := domain.ParseAgingBucket(b)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid bucket", err.Error())
			return
		}
		filter.Bucket = bucket
	}

	quarter, err := parseQuarterQuery(r)
	if err != nil {
		writeDomainError(w, "invalid quarter", err)
		return
	}
	filter.Quarter = quarter

	rows, err := h.payablesUC.ListInvoices(r.Context(), filter)
	if err != nil {
		writeDomainError(w, "failed to list invoices", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.InvoiceResponse]{
		Items: dto.InvoicesFromUseCase(rows),
	})
}

// Approve runs the approval rule on the selected invoices.
func (h *PayablesHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req dto.SelectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	outcome, err := h.payablesUC.Approve(r.Context(), req.Normalize())
	if err != nil {
		writeDomainError(w, "failed to approve invoices", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BatchOutcomeFromUseCase(outcome))
}

// NeedsInfo moves the selected invoices to Needs Info.
func (h *PayablesHandler) NeedsInfo(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.payablesUC.MarkNeedsInfo)
}

// Reject moves the selected invoices to Rejected.
func (h *PayablesHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.payablesUC.Reject)
}

// SchedulePayments schedules the selected approved invoices on a bank.
func (h *PayablesHandler) SchedulePayments(w http.ResponseWriter, r *http.Request) {
	var req dto.SchedulePaymentsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	payDate, err := req.Validate()
	if err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	plan, err := h.payablesUC.SchedulePayments(r.Context(), req.BankID, req.Normalize(), payDate)
	if err != nil {
		writeDomainError(w, "failed to schedule payments", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PaymentPlanFromDomain(plan))
}

// ExecutePayments marks scheduled invoices paid.
func (h *PayablesHandler) ExecutePayments(w http.ResponseWriter, r *http.Request) {
	// An empty body executes every entity.
	var req dto.ExecutePaymentsRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	paid, err := h.payablesUC.ExecuteScheduled(r.Context(), req.Entity)
	if err != nil {
		writeDomainError(w, "failed to execute payments", err)
		return
	}
	if paid == nil {
		paid = []string{}
	}

	writeJSON(w, http.StatusOK, dto.ExecutedPaymentsResponse{Paid: paid})
}

// KPIs returns the payables dashboard.
func (h *PayablesHandler) KPIs(w http.ResponseWriter, r *http.Request) {
	quarter, err := parseQuarterQuery(r)
	if err != nil {
		writeDomainError(w, "invalid quarter", err)
		return
	}

	kpis, err := h.payablesUC.KPIs(r.Context(), r.URL.Query().Get("entity"), quarter)
	if err != nil {
		writeDomainError(w, "failed to compute kpis", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PayablesKPIsFromDomain(kpis))
}

func (h *PayablesHandler) setStatus(w http.ResponseWriter, r *http.Request, apply func(context.Context, []string) error) {
	var req dto.SelectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	ids := req.Normalize()
	if err := apply(r.Context(), ids); err != nil {
		writeDomainError(w, "failed to update invoices", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BatchOutcomeFromUseCase(&usecase.BatchOutcome{Approved: ids}))
}
