package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/assetledger/internal/domain"
	"github.com/iho/assetledger/internal/usecase"
)

// AssetResponse represents an asset in API responses.
type AssetResponse struct {
	ID         string          `json:"id"`
	Entity     string          `json:"entity"`
	Name       string          `json:"name"`
	Class      string          `json:"class"`
	Currency   string          `json:"currency"`
	Cost       decimal.Decimal `json:"cost"`
	Salvage    decimal.Decimal `json:"salvage"`
	Method     string          `json:"method"`
	LifeMonths int             `json:"life_months"`
	InService  string          `json:"in_service"`
}

// AssetFromDomain converts domain asset to response.
func AssetFromDomain(a *domain.Asset) *AssetResponse {
	return &AssetResponse{
		ID:         a.ID,
		Entity:     a.Entity,
		Name:       a.Name,
		Class:      a.Class,
		Currency:   a.Currency,
		Cost:       a.Cost,
		Salvage:    a.Salvage,
		Method:     a.Method.String(),
		LifeMonths: a.LifeMonths,
		InService:  a.InService.Format(domain.DateLayout),
	}
}

// RegisterLineResponse is one row of the asset register.
type RegisterLineResponse struct {
	*AssetResponse
	Accumulated decimal.Decimal `json:"accumulated"`
	NetBook     decimal.Decimal `json:"net_book"`
	PeriodDep   decimal.Decimal `json:"period_depreciation"`
	DisposedOn  string          `json:"disposed_on,omitempty"`
}

// RegisterFromUseCase converts register lines to responses.
func RegisterFromUseCase(lines []usecase.RegisterLine) []*RegisterLineResponse {
	result := make([]*RegisterLineResponse, len(lines))
	for i, l := range lines {
		r := &RegisterLineResponse{
			AssetResponse: AssetFromDomain(l.Asset),
			Accumulated:   l.Accumulated,
			NetBook:       l.NetBook,
			PeriodDep:     l.PeriodDep,
		}
		if l.Disposal != nil {
			r.DisposedOn = l.Disposal.Date.Format(domain.DateLayout)
		}
		result[i] = r
	}
	return result
}

// ClassTotalsResponse is the gross cost and net book value of a class.
type ClassTotalsResponse struct {
	Gross   decimal.Decimal `json:"gross"`
	NetBook decimal.Decimal `json:"net_book"`
}

// AssetKPIsResponse represents register totals in reporting currency.
type AssetKPIsResponse struct {
	Entity      string                         `json:"entity"`
	Period      domain.Period                  `json:"period"`
	Currency    string                         `json:"currency"`
	Gross       decimal.Decimal                `json:"gross"`
	Accumulated decimal.Decimal                `json:"accumulated"`
	NetBook     decimal.Decimal                `json:"net_book"`
	ByClass     map[string]ClassTotalsResponse `json:"by_class"`
}

// AssetKPIsFromUseCase converts register KPIs to response.
func AssetKPIsFromUseCase(k *usecase.AssetKPIs) *AssetKPIsResponse {
	byClass := make(map[string]ClassTotalsResponse, len(k.ByClass))
	for class, t := range k.ByClass {
		byClass[class] = ClassTotalsResponse{Gross: t.Gross, NetBook: t.NetBook}
	}
	return &AssetKPIsResponse{
		Entity:      k.Entity,
		Period:      k.Period,
		Currency:    k.Currency,
		Gross:       k.Gross,
		Accumulated: k.Accumulated,
		NetBook:     k.NetBook,
		ByClass:     byClass,
	}
}

// RunLineResponse is one asset's charge in a run preview.
type RunLineResponse struct {
	AssetID   string          `json:"asset_id"`
	Name      string          `json:"name"`
	Currency  string          `json:"currency"`
	Amount    decimal.Decimal `json:"amount"`
	Converted decimal.Decimal `json:"converted"`
}

// RunPreviewResponse represents what a posting would journal.
type RunPreviewResponse struct {
	Entity string             `json:"entity"`
	Period domain.Period      `json:"period"`
	Lines  []*RunLineResponse `json:"lines"`
	Total  decimal.Decimal    `json:"total"`
	Posted bool               `json:"posted"`
}

// RunPreviewFromUseCase converts a run preview to response.
func RunPreviewFromUseCase(p *usecase.RunPreview) *RunPreviewResponse {
	lines := make([]*RunLineResponse, len(p.Lines))
	for i, l := range p.Lines {
		lines[i] = &RunLineResponse{
			AssetID:   l.AssetID,
			Name:      l.Name,
			Currency:  l.Currency,
			Amount:    l.Amount,
			Converted: l.Converted,
		}
	}
	return &RunPreviewResponse{
		Entity: p.Entity,
		Period: p.Period,
		Lines:  lines,
		Total:  p.Total,
		Posted: p.Posted,
	}
}

// ScheduleLineResponse is one month of a depreciation schedule.
type ScheduleLineResponse struct {
	Period       domain.Period   `json:"period"`
	Opening      decimal.Decimal `json:"opening"`
	Depreciation decimal.Decimal `json:"depreciation"`
	Closing      decimal.Decimal `json:"closing"`
	Method       string          `json:"method"`
}

// ScheduleResponse is an asset with its schedule up to the viewed period.
type ScheduleResponse struct {
	Asset *AssetResponse          `json:"asset"`
	Lines []*ScheduleLineResponse `json:"lines"`
}

// ScheduleFromDomain converts a schedule to response.
func ScheduleFromDomain(a *domain.Asset, s domain.Schedule) *ScheduleResponse {
	lines := make([]*ScheduleLineResponse, len(s))
	for i, l := range s {
		lines[i] = &ScheduleLineResponse{
			Period:       l.Period,
			Opening:      l.Opening,
			Depreciation: l.Depreciation,
			Closing:      l.Closing,
			Method:       l.Method.String(),
		}
	}
	return &ScheduleResponse{Asset: AssetFromDomain(a), Lines: lines}
}

// DisposalResponse represents an evaluated disposal.
type DisposalResponse struct {
	AssetID     string          `json:"asset_id"`
	Period      domain.Period   `json:"period"`
	Currency    string          `json:"currency,omitempty"`
	Proceeds    decimal.Decimal `json:"proceeds"`
	Cost        decimal.Decimal `json:"cost"`
	Accumulated decimal.Decimal `json:"accumulated"`
	NetBook     decimal.Decimal `json:"net_book"`
	GainLoss    decimal.Decimal `json:"gain_loss"`
	Gain        bool            `json:"gain"`
	Note        string          `json:"note,omitempty"`
	Posted      bool            `json:"posted"`
}

// DisposalFromDomain converts a disposal result to response.
func DisposalFromDomain(r *domain.DisposalResult) *DisposalResponse {
	return &DisposalResponse{
		AssetID:     r.AssetID,
		Period:      r.Period,
		Proceeds:    r.Proceeds,
		Cost:        r.Cost,
		Accumulated: r.Accumulated,
		NetBook:     r.NetBook,
		GainLoss:    r.GainLoss,
		Gain:        r.IsGain(),
		Note:        r.Note,
	}
}

// DisposalNoticesFromUseCase converts disposal notices to responses.
func DisposalNoticesFromUseCase(notices []usecase.DisposalNotice) []*DisposalResponse {
	result := make([]*DisposalResponse, len(notices))
	for i, n := range notices {
		r := DisposalFromDomain(n.Result)
		r.Currency = n.Currency
		r.Posted = n.Posted
		result[i] = r
	}
	return result
}

// JournalLineResponse represents one line of a journal entry.
type JournalLineResponse struct {
	Account     string          `json:"account"`
	Description string          `json:"description,omitempty"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// JournalEntryResponse represents a journal entry in API responses.
type JournalEntryResponse struct {
	ID          string                 `json:"id"`
	Key         string                 `json:"idempotency_key"`
	Entity      string                 `json:"entity"`
	Period      domain.Period          `json:"period"`
	Kind        domain.PostingKind     `json:"kind"`
	AssetID     string                 `json:"asset_id,omitempty"`
	Date        string                 `json:"date"`
	Lines       []*JournalLineResponse `json:"lines"`
	TotalDebit  decimal.Decimal        `json:"total_debit"`
	TotalCredit decimal.Decimal        `json:"total_credit"`
	CreatedAt   time.Time              `json:"created_at"`
}

// JournalEntryFromDomain converts domain journal entry to response.
func JournalEntryFromDomain(e *domain.JournalEntry) *JournalEntryResponse {
	lines := make([]*JournalLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = &JournalLineResponse{
			Account:     l.Account,
			Description: l.Description,
			Debit:       l.Debit,
			Credit:      l.Credit,
		}
	}
	return &JournalEntryResponse{
		ID:          e.ID,
		Key:         e.Key.String(),
		Entity:      e.Key.Entity,
		Period:      e.Key.Period,
		Kind:        e.Key.Kind,
		AssetID:     e.Key.AssetID,
		Date:        e.Date.Format(domain.DateLayout),
		Lines:       lines,
		TotalDebit:  e.TotalDebit(),
		TotalCredit: e.TotalCredit(),
		CreatedAt:   e.CreatedAt,
	}
}

// JournalEntriesFromDomain converts domain journal entries to responses.
func JournalEntriesFromDomain(entries []*domain.JournalEntry) []*JournalEntryResponse {
	result := make([]*JournalEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = JournalEntryFromDomain(e)
	}
	return result
}

// PostingResponse represents the outcome of a posting request.
type PostingResponse struct {
	Entity  string                  `json:"entity"`
	Period  domain.Period           `json:"period"`
	Posted  bool                    `json:"posted"`
	Reason  string                  `json:"reason,omitempty"`
	Total   decimal.Decimal         `json:"total"`
	Entries []*JournalEntryResponse `json:"entries"`
}

// PostingFromUseCase converts a posting result to response.
func PostingFromUseCase(r *usecase.PostingResult) *PostingResponse {
	return &PostingResponse{
		Entity:  r.Entity,
		Period:  r.Period,
		Posted:  r.Posted,
		Reason:  r.Reason,
		Total:   r.Total,
		Entries: JournalEntriesFromDomain(r.Entries),
	}
}

// ConsistencyResponse represents the ledger-wide totals.
type ConsistencyResponse struct {
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	Balanced    bool            `json:"balanced"`
}

// ConsistencyFromUseCase converts a consistency report to response.
func ConsistencyFromUseCase(r *usecase.ConsistencyReport) *ConsistencyResponse {
	return &ConsistencyResponse{
		TotalDebit:  r.TotalDebit,
		TotalCredit: r.TotalCredit,
		Balanced:    r.Balanced,
	}
}

// CheckResponse is the outcome of one integrity check.
type CheckResponse struct {
	Name     string   `json:"name"`
	Passed   bool     `json:"passed"`
	Failures []string `json:"failures,omitempty"`
}

// IntegrityResponse represents an integrity report.
type IntegrityResponse struct {
	Entity    string           `json:"entity"`
	Period    domain.Period    `json:"period"`
	Passed    int              `json:"passed"`
	Total     int              `json:"total"`
	OK        bool             `json:"ok"`
	Checks    []*CheckResponse `json:"checks"`
	CheckedAt time.Time        `json:"checked_at"`
}

// IntegrityFromUseCase converts an integrity report to response.
func IntegrityFromUseCase(r *usecase.IntegrityReport) *IntegrityResponse {
	checks := make([]*CheckResponse, len(r.Checks))
	for i, c := range r.Checks {
		checks[i] = &CheckResponse{Name: c.Name, Passed: c.Passed, Failures: c.Failures}
	}
	return &IntegrityResponse{
		Entity:    r.Entity,
		Period:    r.Period,
		Passed:    r.Passed(),
		Total:     len(r.Checks),
		OK:        r.OK(),
		Checks:    checks,
		CheckedAt: r.CheckedAt,
	}
}

// ListResponse wraps a page of items.
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
