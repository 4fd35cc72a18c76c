package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/assetledger/internal/adapter/http/dto"
	"github.com/iho/assetledger/internal/domain"
	"github.com/iho/assetledger/internal/usecase"
)

type ledgerServiceStub struct {
	listFn        func(ctx context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error)
	getFn         func(ctx context.Context, id string) (*domain.JournalEntry, error)
	consistencyFn func(ctx context.Context) (*usecase.ConsistencyReport, error)
}

func (s *ledgerServiceStub) ListEntries(ctx context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error) {
	return s.listFn(ctx, filter)
}

func (s *ledgerServiceStub) GetEntry(ctx context.Context, id string) (*domain.JournalEntry, error) {
	return s.getFn(ctx, id)
}

func (s *ledgerServiceStub) CheckConsistency(ctx context.Context) (*usecase.ConsistencyReport, error) {
	return s.consistencyFn(ctx)
}

func TestLedgerHandler_List_ParsesFilter(t *testing.T) {
	var got domain.JournalFilter
	h := NewLedgerHandler(&ledgerServiceStub{
		listFn: func(ctx context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error) {
			got = filter
			return []*domain.JournalEntry{domain.NewDepreciationEntry("co1", august, decimal.NewFromInt(10))}, nil
		},
	})

	rec := serve(t, http.MethodGet, "/journal", "/journal?entity=co1&period=2025-08&kind=dep&limit=5", "", h.List)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	want := domain.JournalFilter{Entity: "co1", Period: august, Kind: domain.KindDepreciation, Limit: 5}
	if got != want {
		t.Fatalf("expected filter %+v, got %+v", want, got)
	}

	resp := decode[dto.ListResponse[dto.JournalEntryResponse]](t, rec)
	if len(resp.Items) != 1 || resp.Items[0].ID != "JE-DEP-co1-2025-08" || resp.Limit != 5 {
		t.Fatalf("unexpected list response: %+v", resp)
	}
}

func TestLedgerHandler_List_InvalidKind(t *testing.T) {
	h := NewLedgerHandler(&ledgerServiceStub{
		listFn: func(ctx context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error) {
			t.Fatal("ListEntries should not be called for invalid kind")
			return nil, nil
		},
	})

	rec := serve(t, http.MethodGet, "/journal", "/journal?kind=ACCRUAL", "", h.List)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLedgerHandler_Get_NotFound(t *testing.T) {
	h := NewLedgerHandler(&ledgerServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.JournalEntry, error) {
			if id != "JE-DEP-co9-2025-08" {
				t.Fatalf("unexpected id %s", id)
			}
			return nil, domain.ErrJournalEntryNotFound
		},
	})

	rec := serve(t, http.MethodGet, "/journal/{id}", "/journal/JE-DEP-co9-2025-08", "", h.Get)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestLedgerHandler_CheckConsistency(t *testing.T) {
	tests := []struct {
		name       string
		report     *usecase.ConsistencyReport
		err        error
		wantStatus int
	}{
		{
			name:       "balanced",
			report:     &usecase.ConsistencyReport{TotalDebit: decimal.NewFromInt(5), TotalCredit: decimal.NewFromInt(5), Balanced: true},
			wantStatus: http.StatusOK,
		},
		{
			name:       "inconsistent",
			report:     &usecase.ConsistencyReport{TotalDebit: decimal.NewFromInt(5), TotalCredit: decimal.NewFromInt(3)},
			err:        usecase.ErrInconsistentLedger,
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewLedgerHandler(&ledgerServiceStub{
				consistencyFn: func(ctx context.Context) (*usecase.ConsistencyReport, error) {
					return tt.report, tt.err
				},
			})

			rec := serve(t, http.MethodGet, "/ledger/consistency", "/ledger/consistency", "", h.CheckConsistency)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			resp := decode[dto.ConsistencyResponse](t, rec)
			if resp.Balanced != tt.report.Balanced {
				t.Fatalf("unexpected consistency response: %+v", resp)
			}
		})
	}
}
