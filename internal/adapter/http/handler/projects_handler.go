package handler

import (
	"context"
	"net/http"

	"github.com/iho/assetledger/internal/adapter/http/dto"
	"github.com/iho/assetledger/internal/domain"
	"github.com/iho/assetledger/internal/usecase"
)

// ProjectsService defines the behavior needed by ProjectsHandler.
type ProjectsService interface {
	ApproveTimesheets(ctx context.Context, ids []string) (*usecase.BatchOutcome, error)
	ApproveExpenses(ctx context.Context, ids []string) (*usecase.BatchOutcome, error)
	BillingRun(ctx context.Context, scope domain.ProjectScope) ([]domain.BillingLine, error)
	KPIs(ctx context.Context, scope domain.ProjectScope) (domain.ProjectsKPIs, error)
	Portfolio(ctx context.Context, scope domain.ProjectScope) ([]domain.ProjectHealth, error)
}

// ProjectsHandler handles timesheet and expense approval and billing.
type ProjectsHandler struct {
	projectsUC ProjectsService
}

// NewProjectsHandler creates a new ProjectsHandler.
func NewProjectsHandler(projectsUC ProjectsService) *ProjectsHandler {
	return &ProjectsHandler{projectsUC: projectsUC}
}

// ApproveTimesheets approves the selected timesheets that pass the rule.
func (h *ProjectsHandler) ApproveTimesheets(w http.ResponseWriter, r *http.Request) {
	h.approve(w, r, h.projectsUC.ApproveTimesheets)
}

// ApproveExpenses approves the selected expenses that pass the rule.
func (h *ProjectsHandler) ApproveExpenses(w http.ResponseWriter, r *http.Request) {
	h.approve(w, r, h.projectsUC.ApproveExpenses)
}

// BillingRun bills approved unbilled items of eligible projects.
func (h *ProjectsHandler) BillingRun(w http.ResponseWriter, r *http.Request) {
	var req dto.BillingRunRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	scope, err := req.Scope()
	if err != nil {
		writeDomainError(w, "invalid quarter", err)
		return
	}

	lines, err := h.projectsUC.BillingRun(r.Context(), scope)
	if err != nil {
		writeDomainError(w, "failed to run billing", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.BillingLineResponse]{
		Items: dto.BillingLinesFromDomain(lines),
	})
}

// KPIs returns the projects dashboard.
func (h *ProjectsHandler) KPIs(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}

	kpis, err := h.projectsUC.KPIs(r.Context(), scope)
	if err != nil {
		writeDomainError(w, "failed to compute kpis", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ProjectsKPIsFromDomain(kpis))
}

// Portfolio returns burn, margin and risk per project.
func (h *ProjectsHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}

	rows, err := h.projectsUC.Portfolio(r.Context(), scope)
	if err != nil {
		writeDomainError(w, "failed to load portfolio", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.ProjectHealthResponse]{
		Items: dto.PortfolioFromDomain(rows),
	})
}

func (h *ProjectsHandler) approve(w http.ResponseWriter, r *http.Request, apply func(context.Context, []string) (*usecase.BatchOutcome, error)) {
	var req dto.SelectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	outcome, err := apply(r.Context(), req.Normalize())
	if err != nil {
		writeDomainError(w, "failed to approve items", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BatchOutcomeFromUseCase(outcome))
}

func scopeFromQuery(w http.ResponseWriter, r *http.Request) (domain.ProjectScope, bool) {
	quarter, err := parseQuarterQuery(r)
	if err != nil {
		writeDomainError(w, "invalid quarter", err)
		return domain.ProjectScope{}, false
	}
	return domain.ProjectScope{Entity: r.URL.Query().Get("entity"), Quarter: quarter}, true
}
