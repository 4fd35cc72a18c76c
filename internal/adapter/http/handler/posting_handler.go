package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/assetledger/internal/adapter/http/dto"
	"github.com/iho/assetledger/internal/domain"
	"github.com/iho/assetledger/internal/usecase"
)

// PostingService defines the behavior needed by PostingHandler.
type PostingService interface {
	Post(ctx context.Context, entity string, period domain.Period) (*usecase.PostingResult, error)
}

// IntegrityService runs integrity checks for an entity and period.
type IntegrityService interface {
	Run(ctx context.Context, entity string, period domain.Period) (*usecase.IntegrityReport, error)
}

// PostingHandler handles depreciation posting and integrity checks.
type PostingHandler struct {
	postingUC   PostingService
	integrityUC IntegrityService
	current     func() domain.Period
}

// NewPostingHandler creates a new PostingHandler.
func NewPostingHandler(postingUC PostingService, integrityUC IntegrityService, current func() domain.Period) *PostingHandler {
	return &PostingHandler{postingUC: postingUC, integrityUC: integrityUC, current: current}
}

// Post journals the entity's depreciation and pending disposals for the
// period. A rejected posting still carries the result body.
func (h *PostingHandler) Post(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	if err := domain.ValidateEntity(entity); err != nil {
		writeDomainError(w, "invalid entity", err)
		return
	}

	period, err := domain.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		writeDomainError(w, "invalid period", err)
		return
	}

	result, err := h.postingUC.Post(r.Context(), entity, period)
	if err != nil {
		writeDomainError(w, "failed to post depreciation", err)
		return
	}

	status := http.StatusCreated
	switch result.Reason {
	case usecase.ReasonAlreadyPosted:
		status = http.StatusConflict
	case usecase.ReasonNothingToPost:
		status = http.StatusUnprocessableEntity
	}

	writeJSON(w, status, dto.PostingFromUseCase(result))
}

// Integrity runs the integrity checks for the entity as of the period.
func (h *PostingHandler) Integrity(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	if err := domain.ValidateEntity(entity); err != nil {
		writeDomainError(w, "invalid entity", err)
		return
	}

	period, err := parsePeriodQuery(r, h.current())
	if err != nil {
		writeDomainError(w, "invalid period", err)
		return
	}

	report, err := h.integrityUC.Run(r.Context(), entity, period)
	if err != nil {
		writeDomainError(w, "failed to run integrity checks", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.IntegrityFromUseCase(report))
}
