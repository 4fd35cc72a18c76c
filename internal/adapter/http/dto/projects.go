package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/assetledger/internal/domain"
)

// BillingLineResponse is one project of a billing run.
type BillingLineResponse struct {
	ProjectID    string          `json:"project_id"`
	TimeAmount   decimal.Decimal `json:"time_amount"`
	ExpenseTotal decimal.Decimal `json:"expense_total"`
	Amount       decimal.Decimal `json:"amount"`
	TimesheetIDs []string        `json:"timesheet_ids"`
	ExpenseIDs   []string        `json:"expense_ids"`
	Blocked      bool            `json:"blocked"`
	Reason       string          `json:"reason,omitempty"`
}

// BillingLinesFromDomain converts billing lines to responses.
func BillingLinesFromDomain(lines []domain.BillingLine) []*BillingLineResponse {
	result := make([]*BillingLineResponse, len(lines))
	for i, l := range lines {
		result[i] = &BillingLineResponse{
			ProjectID:    l.ProjectID,
			TimeAmount:   l.TimeAmount,
			ExpenseTotal: l.ExpenseTotal,
			Amount:       l.Amount,
			TimesheetIDs: l.TimesheetIDs,
			ExpenseIDs:   l.ExpenseIDs,
			Blocked:      l.Blocked,
			Reason:       l.Reason,
		}
	}
	return result
}

// UtilizationResponse represents billable and non-billable hours.
type UtilizationResponse struct {
	BillableHours    decimal.Decimal `json:"billable_hours"`
	NonBillableHours decimal.Decimal `json:"non_billable_hours"`
	CapacityHours    decimal.Decimal `json:"capacity_hours"`
	UtilizationPct   int64           `json:"utilization_pct"`
	NonBillablePct   int64           `json:"non_billable_pct"`
}

// ProjectsKPIsResponse represents the projects dashboard.
type ProjectsKPIsResponse struct {
	Utilization    UtilizationResponse `json:"utilization"`
	Backlog        decimal.Decimal     `json:"backlog"`
	WIP            decimal.Decimal     `json:"wip"`
	GrossMarginPct decimal.Decimal     `json:"gross_margin_pct"`
	OnTimePct      int64               `json:"on_time_pct"`
}

// ProjectsKPIsFromDomain converts projects KPIs to response.
func ProjectsKPIsFromDomain(k domain.ProjectsKPIs) *ProjectsKPIsResponse {
	u := k.Utilization
	return &ProjectsKPIsResponse{
		Utilization: UtilizationResponse{
			BillableHours:    u.BillableHours,
			NonBillableHours: u.NonBillableHours,
			CapacityHours:    u.CapacityHours,
			UtilizationPct:   u.UtilizationPct,
			NonBillablePct:   u.NonBillablePct,
		},
		Backlog:        k.Backlog,
		WIP:            k.WIP,
		GrossMarginPct: k.GrossMarginPct,
		OnTimePct:      k.OnTimePct,
	}
}

// ProjectHealthResponse is one project of the portfolio.
type ProjectHealthResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Entity        string          `json:"entity"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	Manager       string          `json:"manager"`
	ContractValue decimal.Decimal `json:"contract_value"`
	Revenue       decimal.Decimal `json:"revenue"`
	Cost          decimal.Decimal `json:"cost"`
	BurnPct       int64           `json:"burn_pct"`
	MarginPct     int64           `json:"margin_pct"`
	AtRisk        bool            `json:"at_risk"`
}

// PortfolioFromDomain converts project health rows to responses.
func PortfolioFromDomain(rows []domain.ProjectHealth) []*ProjectHealthResponse {
	result := make([]*ProjectHealthResponse, len(rows))
	for i, h := range rows {
		p := h.Project
		result[i] = &ProjectHealthResponse{
			ID:            p.ID,
			Name:          p.Name,
			Entity:        p.Entity,
			Type:          string(p.Type),
			Status:        string(p.Status),
			Manager:       p.Manager,
			ContractValue: p.ContractValue,
			Revenue:       h.Revenue,
			Cost:          h.Cost,
			BurnPct:       h.BurnPct,
			MarginPct:     h.MarginPct,
			AtRisk:        h.AtRisk,
		}
	}
	return result
}
