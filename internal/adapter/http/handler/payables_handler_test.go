package handler

import (
	"context"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/assetledger/internal/adapter/http/dto"
	"github.com/iho/assetledger/internal/domain"
	"github.com/iho/assetledger/internal/usecase"
)

type payablesServiceStub struct {
	listFn      func(ctx context.Context, filter domain.InvoiceFilter) ([]usecase.InvoiceRow, error)
	approveFn   func(ctx context.Context, ids []string) (*usecase.BatchOutcome, error)
	needsInfoFn func(ctx context.Context, ids []string) error
	rejectFn    func(ctx context.Context, ids []string) error
	scheduleFn  func(ctx context.Context, bankID string, ids []string, payDate time.Time) (*domain.PaymentPlan, error)
	executeFn   func(ctx context.Context, entity string) ([]string, error)
	kpisFn      func(ctx context.Context, entity string, q *domain.Quarter) (domain.PayablesKPIs, error)
}

func (s *payablesServiceStub) ListInvoices(ctx context.Context, filter domain.InvoiceFilter) ([]usecase.InvoiceRow, error) {
	return s.listFn(ctx, filter)
}

func (s *payablesServiceStub) Approve(ctx context.Context, ids []string) (*usecase.BatchOutcome, error) {
	return s.approveFn(ctx, ids)
}

func (s *payablesServiceStub) MarkNeedsInfo(ctx context.Context, ids []string) error {
	return s.needsInfoFn(ctx, ids)
}

func (s *payablesServiceStub) Reject(ctx context.Context, ids []string) error {
	return s.rejectFn(ctx, ids)
}

func (s *payablesServiceStub) SchedulePayments(ctx context.Context, bankID string, ids []string, payDate time.Time) (*domain.PaymentPlan, error) {
	return s.scheduleFn(ctx, bankID, ids, payDate)
}

func (s *payablesServiceStub) ExecuteScheduled(ctx context.Context, entity string) ([]string, error) {
	return s.executeFn(ctx, entity)
}

func (s *payablesServiceStub) KPIs(ctx context.Context, entity string, q *domain.Quarter) (domain.PayablesKPIs, error) {
	return s.kpisFn(ctx, entity, q)
}

func TestPayablesHandler_ListInvoices_Filters(t *testing.T) {
	var got domain.InvoiceFilter
	h := NewPayablesHandler(&payablesServiceStub{
		listFn: func(ctx context.Context, filter domain.InvoiceFilter) ([]usecase.InvoiceRow, error) {
			got = filter
			return nil, nil
		},
	})

	rec := serve(t, http.MethodGet, "/invoices",
		"/invoices?entity=co1&vendor=V-7&status=approved&bucket=current&q=toner&quarter=2025-Q3", "", h.ListInvoices)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.Entity != "co1" || got.Vendor != "V-7" || got.Search != "toner" {
		t.Fatalf("unexpected filter: %+v", got)
	}
	if got.Status != domain.InvoiceApproved || got.Bucket != domain.BucketCurrent {
		t.Fatalf("expected parsed status and bucket, got %+v", got)
	}
	if got.Quarter == nil || got.Quarter.String() != "2025-Q3" {
		t.Fatalf("expected quarter 2025-Q3, got %v", got.Quarter)
	}

	resp := decode[dto.ListResponse[dto.InvoiceResponse]](t, rec)
	if resp.Items == nil {
		t.Fatalf("expected empty items array, got null")
	}
}

func TestPayablesHandler_ListInvoices_InvalidStatus(t *testing.T) {
	h := NewPayablesHandler(&payablesServiceStub{})

	rec := serve(t, http.MethodGet, "/invoices", "/invoices?status=Lost", "", h.ListInvoices)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPayablesHandler_Approve(t *testing.T) {
	var got []string
	h := NewPayablesHandler(&payablesServiceStub{
		approveFn: func(ctx context.Context, ids []string) (*usecase.BatchOutcome, error) {
			got = ids
			return &usecase.BatchOutcome{
				Approved:   []string{"INV-1"},
				Exceptions: []usecase.ItemException{{ID: "INV-2", Reason: "no document"}},
			}, nil
		},
	})

	rec := serve(t, http.MethodPost, "/invoices/approve", "/invoices/approve", `{"ids":["INV-1"," INV-2","INV-1"]}`, h.Approve)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !reflect.DeepEqual(got, []string{"INV-1", "INV-2"}) {
		t.Fatalf("expected normalized ids, got %v", got)
	}
	resp := decode[dto.BatchOutcomeResponse](t, rec)
	if len(resp.Exceptions) != 1 || resp.Exceptions[0].Reason != "no document" {
		t.Fatalf("unexpected outcome: %+v", resp)
	}
}

func TestPayablesHandler_Approve_EmptySelection(t *testing.T) {
	h := NewPayablesHandler(&payablesServiceStub{
		approveFn: func(ctx context.Context, ids []string) (*usecase.BatchOutcome, error) {
			return nil, domain.ErrNoSelection
		},
	})

	rec := serve(t, http.MethodPost, "/invoices/approve", "/invoices/approve", `{"ids":[]}`, h.Approve)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPayablesHandler_Reject_UnknownField(t *testing.T) {
	h := NewPayablesHandler(&payablesServiceStub{
		rejectFn: func(ctx context.Context, ids []string) error {
			t.Fatal("Reject should not be called for invalid payload")
			return nil
		},
	})

	rec := serve(t, http.MethodPost, "/invoices/reject", "/invoices/reject", `{"invoice_ids":["INV-1"]}`, h.Reject)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPayablesHandler_SchedulePayments(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"scheduled", `{"bank_id":"BANK-1","ids":["INV-1"],"pay_date":"2025-08-20"}`, nil, http.StatusCreated},
		{"missing bank", `{"ids":["INV-1"],"pay_date":"2025-08-20"}`, nil, http.StatusBadRequest},
		{"bad date", `{"bank_id":"BANK-1","ids":["INV-1"],"pay_date":"tomorrow"}`, nil, http.StatusBadRequest},
		{"insufficient balance", `{"bank_id":"BANK-1","ids":["INV-1"],"pay_date":"2025-08-20"}`, domain.ErrInsufficientBalance, http.StatusUnprocessableEntity},
		{"unknown bank", `{"bank_id":"BANK-9","ids":["INV-1"],"pay_date":"2025-08-20"}`, domain.ErrBankNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPayablesHandler(&payablesServiceStub{
				scheduleFn: func(ctx context.Context, bankID string, ids []string, payDate time.Time) (*domain.PaymentPlan, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &domain.PaymentPlan{
						BankID:  bankID,
						PayDate: payDate,
						Lines: []domain.PaymentLine{{
							InvoiceID: ids[0],
							Amount:    decimal.NewFromInt(1000),
							Discount:  decimal.NewFromInt(20),
							Net:       decimal.NewFromInt(980),
						}},
						Total: decimal.NewFromInt(980),
					}, nil
				},
			})

			rec := serve(t, http.MethodPost, "/payments/schedule", "/payments/schedule", tt.body, h.SchedulePayments)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus == http.StatusCreated {
				resp := decode[dto.PaymentPlanResponse](t, rec)
				if resp.PayDate != "2025-08-20" || !resp.Total.Equal(decimal.NewFromInt(980)) {
					t.Fatalf("unexpected plan: %+v", resp)
				}
			}
		})
	}
}

func TestPayablesHandler_ExecutePayments_EmptyBody(t *testing.T) {
	var gotEntity = "unset"
	h := NewPayablesHandler(&payablesServiceStub{
		executeFn: func(ctx context.Context, entity string) ([]string, error) {
			gotEntity = entity
			return nil, nil
		},
	})

	rec := serve(t, http.MethodPost, "/payments/execute", "/payments/execute", "", h.ExecutePayments)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotEntity != "" {
		t.Fatalf("expected all entities, got %q", gotEntity)
	}
	if rec.Body.String() != "{\"paid\":[]}\n" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestPayablesHandler_KPIs(t *testing.T) {
	h := NewPayablesHandler(&payablesServiceStub{
		kpisFn: func(ctx context.Context, entity string, q *domain.Quarter) (domain.PayablesKPIs, error) {
			if entity != "co1" || q != nil {
				t.Fatalf("unexpected arguments: %s %v", entity, q)
			}
			return domain.PayablesKPIs{Outstanding: decimal.NewFromInt(500), Exceptions: 2}, nil
		},
	})

	rec := serve(t, http.MethodGet, "/kpis", "/kpis?entity=co1", "", h.KPIs)

	resp := decode[dto.PayablesKPIsResponse](t, rec)
	if rec.Code != http.StatusOK || resp.Exceptions != 2 || !resp.Outstanding.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected kpis %d: %+v", rec.Code, resp)
	}
}
