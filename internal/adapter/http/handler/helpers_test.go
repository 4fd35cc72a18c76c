package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/iho/assetledger/internal/adapter/http/dto"
	"github.com/iho/assetledger/internal/domain"
	"github.com/iho/assetledger/internal/usecase"
)

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/journal?limit=50", nil)
	if got := parseIntQuery(req, "limit", 10); got != 50 {
		t.Fatalf("expected limit=50, got %d", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/journal?limit=invalid", nil)
	if got := parseIntQuery(req, "limit", 10); got != 10 {
		t.Fatalf("expected fallback to default, got %d", got)
	}

	req.URL = &url.URL{RawQuery: ""}
	if got := parseIntQuery(req, "limit", 25); got != 25 {
		t.Fatalf("expected default when missing, got %d", got)
	}
}

func TestParsePeriodQuery(t *testing.T) {
	def := domain.NewPeriod(2025, time.August)

	req := httptest.NewRequest(http.MethodGet, "/assets", nil)
	if got, err := parsePeriodQuery(req, def); err != nil || got != def {
		t.Fatalf("expected default period, got %s, %v", got, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/assets?period=2025-03", nil)
	if got, err := parsePeriodQuery(req, def); err != nil || got != domain.NewPeriod(2025, time.March) {
		t.Fatalf("expected 2025-03, got %s, %v", got, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/assets?period=2025-13", nil)
	if _, err := parsePeriodQuery(req, def); err == nil {
		t.Fatalf("expected error for month 13")
	}
}

func TestParseQuarterQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/kpis?quarter=2025-Q3", nil)
	q, err := parseQuarterQuery(req)
	if err != nil || q == nil || q.String() != "2025-Q3" {
		t.Fatalf("expected 2025-Q3, got %v, %v", q, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/kpis", nil)
	if q, err := parseQuarterQuery(req); err != nil || q != nil {
		t.Fatalf("expected no quarter, got %v, %v", q, err)
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"asset not found", domain.ErrAssetNotFound, http.StatusNotFound},
		{"wrapped invoice not found", fmt.Errorf("%w: INV-9", domain.ErrInvoiceNotFound), http.StatusNotFound},
		{"entry not found", domain.ErrJournalEntryNotFound, http.StatusNotFound},
		{"invalid period", domain.ErrInvalidPeriodFormat, http.StatusBadRequest},
		{"invalid entity", domain.ErrInvalidEntity, http.StatusBadRequest},
		{"no selection", domain.ErrNoSelection, http.StatusBadRequest},
		{"bad request body", dto.ErrInvalidRequest, http.StatusBadRequest},
		{"already posted", domain.ErrAlreadyPosted, http.StatusConflict},
		{"lock held", usecase.ErrLockHeld, http.StatusConflict},
		{"insufficient balance", domain.ErrInsufficientBalance, http.StatusUnprocessableEntity},
		{"nothing to schedule", domain.ErrNothingToSchedule, http.StatusUnprocessableEntity},
		{"unknown currency", domain.ErrUnknownCurrency, http.StatusUnprocessableEntity},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()

	writeError(rr, http.StatusBadRequest, "invalid request body", "unexpected EOF")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json content type, got %s", ct)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error != "invalid request body" || resp.Message != "unexpected EOF" {
		t.Fatalf("unexpected error response: %+v", resp)
	}
}
