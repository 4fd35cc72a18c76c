package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/assetledger/internal/adapter/http/dto"
	"github.com/iho/assetledger/internal/domain"
	"github.com/iho/assetledger/internal/usecase"
)

// AssetService defines the behavior needed by AssetHandler.
type AssetService interface {
	Register(ctx context.Context, entity string, period domain.Period) ([]usecase.RegisterLine, error)
	KPIs(ctx context.Context, entity string, period domain.Period) (*usecase.AssetKPIs, error)
	Preview(ctx context.Context, entity string, period domain.Period) (*usecase.RunPreview, error)
	DisposalNotices(ctx context.Context, entity string, period domain.Period) ([]usecase.DisposalNotice, error)
	EvaluateDisposal(ctx context.Context, assetID string, period domain.Period) (*domain.DisposalResult, error)
	Schedule(ctx context.Context, assetID string, period domain.Period) (*domain.Asset, domain.Schedule, error)
}

// AssetHandler handles register, schedule and disposal reads.
type AssetHandler struct {
	assetUC AssetService
	current func() domain.Period
}

// NewAssetHandler creates a new AssetHandler. current supplies the period
// used when a request omits ?period=.
func NewAssetHandler(assetUC AssetService, current func() domain.Period) *AssetHandler {
	return &AssetHandler{assetUC: assetUC, current: current}
}

// Register lists the entity's assets with balances as of the period.
func (h *AssetHandler) Register(w http.ResponseWriter, r *http.Request) {
	entity, period, ok := h.entityPeriod(w, r)
	if !ok {
		return
	}

	lines, err := h.assetUC.Register(r.Context(), entity, period)
	if err != nil {
		writeDomainError(w, "failed to load register", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.RegisterLineResponse]{
		Items: dto.RegisterFromUseCase(lines),
	})
}

// KPIs returns register totals in reporting currency.
func (h *AssetHandler) KPIs(w http.ResponseWriter, r *http.Request) {
	entity, period, ok := h.entityPeriod(w, r)
	if !ok {
		return
	}

	kpis, err := h.assetUC.KPIs(r.Context(), entity, period)
	if err != nil {
		writeDomainError(w, "failed to compute kpis", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AssetKPIsFromUseCase(kpis))
}

// Preview shows what posting the period would journal.
func (h *AssetHandler) Preview(w http.ResponseWriter, r *http.Request) {
	entity, period, ok := h.entityPeriod(w, r)
	if !ok {
		return
	}

	preview, err := h.assetUC.Preview(r.Context(), entity, period)
	if err != nil {
		writeDomainError(w, "failed to preview depreciation run", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RunPreviewFromUseCase(preview))
}

// Disposals lists disposals effective on or before the period.
func (h *AssetHandler) Disposals(w http.ResponseWriter, r *http.Request) {
	entity, period, ok := h.entityPeriod(w, r)
	if !ok {
		return
	}

	notices, err := h.assetUC.DisposalNotices(r.Context(), entity, period)
	if err != nil {
		writeDomainError(w, "failed to list disposals", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.DisposalResponse]{
		Items: dto.DisposalNoticesFromUseCase(notices),
	})
}

// Schedule returns the asset's depreciation schedule up to the period.
func (h *AssetHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	period, err := parsePeriodQuery(r, h.current())
	if err != nil {
		writeDomainError(w, "invalid period", err)
		return
	}

	asset, schedule, err := h.assetUC.Schedule(r.Context(), id, period)
	if err != nil {
		writeDomainError(w, "failed to build schedule", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ScheduleFromDomain(asset, schedule))
}

// Disposal evaluates the asset's gain or loss on disposal.
func (h *AssetHandler) Disposal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	period, err := parsePeriodQuery(r, h.current())
	if err != nil {
		writeDomainError(w, "invalid period", err)
		return
	}

	result, err := h.assetUC.EvaluateDisposal(r.Context(), id, period)
	if err != nil {
		writeDomainError(w, "failed to evaluate disposal", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DisposalFromDomain(result))
}

func (h *AssetHandler) entityPeriod(w http.ResponseWriter, r *http.Request) (string, domain.Period, bool) {
	entity := chi.URLParam(r, "entity")
	if err := domain.ValidateEntity(entity); err != nil {
		writeDomainError(w, "invalid entity", err)
		return "", domain.Period{}, false
	}

	period, err := parsePeriodQuery(r, h.current())
	if err != nil {
		writeDomainError(w, "invalid period", err)
		return "", domain.Period{}, false
	}

	return entity, period, true
}
