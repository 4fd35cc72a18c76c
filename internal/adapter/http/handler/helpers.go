package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/iho/assetledger/internal/adapter/http/dto"
	"github.com/iho/assetledger/internal/domain"
	"github.com/iho/assetledger/internal/usecase"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError writes err with the status mapDomainError picks for it.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, mapDomainError(err), message, err.Error())
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAssetNotFound),
		errors.Is(err, domain.ErrNoDisposal),
		errors.Is(err, domain.ErrJournalEntryNotFound),
		errors.Is(err, domain.ErrInvoiceNotFound),
		errors.Is(err, domain.ErrVendorNotFound),
		errors.Is(err, domain.ErrBankNotFound),
		errors.Is(err, domain.ErrProjectNotFound),
		errors.Is(err, domain.ErrTimesheetNotFound),
		errors.Is(err, domain.ErrExpenseNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidPeriod),
		errors.Is(err, domain.ErrInvalidPeriodFormat),
		errors.Is(err, domain.ErrInvalidQuarter),
		errors.Is(err, domain.ErrInvalidEntity),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrNoSelection),
		errors.Is(err, dto.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAlreadyPosted),
		errors.Is(err, usecase.ErrLockHeld):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNothingToPost),
		errors.Is(err, domain.ErrNothingToSchedule),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrInvalidAsset),
		errors.Is(err, domain.ErrInvalidDisposal),
		errors.Is(err, domain.ErrUnknownMethod),
		errors.Is(err, domain.ErrUnknownCurrency),
		errors.Is(err, domain.ErrUnbalancedEntry):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parsePeriodQuery reads ?period=YYYY-MM, falling back to def when absent.
func parsePeriodQuery(r *http.Request, def domain.Period) (domain.Period, error) {
	val := strings.TrimSpace(r.URL.Query().Get("period"))
	if val == "" {
		return def, nil
	}
	return domain.ParsePeriod(val)
}

// parseQuarterQuery reads ?quarter=YYYY-Qn; nil means no quarter filter.
func parseQuarterQuery(r *http.Request) (*domain.Quarter, error) {
	val := strings.TrimSpace(r.URL.Query().Get("quarter"))
	if val == "" {
		return nil, nil
	}
	q, err := domain.ParseQuarter(val)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
