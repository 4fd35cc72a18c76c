package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProjectType decides whether and when a project can be billed.
type ProjectType string

const (
	ProjectTimeAndMaterials ProjectType = "T&M"
	ProjectFixedFee         ProjectType = "Fixed Fee"
	ProjectInternal         ProjectType = "Internal"
)

// ProjectStatus is the delivery health reported by the project manager.
type ProjectStatus string

const (
	ProjectActive ProjectStatus = "Active"
	ProjectAtRisk ProjectStatus = "At Risk"
	ProjectOnHold ProjectStatus = "On Hold"
	ProjectClosed ProjectStatus = "Closed"
)

// ApprovalStatus is shared by timesheets and expenses.
type ApprovalStatus string

const (
	ApprovalSubmitted ApprovalStatus = "Submitted"
	ApprovalApproved  ApprovalStatus = "Approved"
	ApprovalRejected  ApprovalStatus = "Rejected"
)

// Rule thresholds for timesheets and expenses.
var (
	MaxDailyHours         = decimal.NewFromInt(10)
	JustifiedHours        = decimal.NewFromInt(8)
	ReceiptThreshold      = decimal.NewFromInt(2_000_000)
	MealCap               = decimal.NewFromInt(500_000)
	minJustificationChars = 10
	hoursPerDay           = decimal.NewFromInt(8)
	hundred               = decimal.NewFromInt(100)
)

// Project is a client engagement or internal initiative.
type Project struct {
	ID            string
	Entity        string
	Name          string
	Practice      string
	Type          ProjectType
	Manager       string
	ContractValue decimal.Decimal
	BudgetCost    decimal.Decimal
	BilledToDate  decimal.Decimal
	Start         time.Time
	End           time.Time
	Status        ProjectStatus
}

// IsBillable reports whether work on the project can be invoiced at all.
func (p *Project) IsBillable() bool {
	return p.Type != ProjectInternal
}

// Milestone is a planned delivery point of a project.
type Milestone struct {
	ProjectID string
	Name      string
	Planned   time.Time
	Actual    *time.Time
	Billable  bool
	Done      bool
}

// Resource is a person with cost and bill rates per hour.
type Resource struct {
	ID       string
	Entity   string
	Name     string
	Role     string
	CostRate decimal.Decimal
	BillRate decimal.Decimal
}

// Assignment allocates a resource to a project for a date range.
type Assignment struct {
	ResourceID    string
	ProjectID     string
	Start         time.Time
	End           time.Time
	AllocationPct int
}

// Timesheet is one day of hours booked by a resource on a project.
type Timesheet struct {
	ID         string
	ResourceID string
	ProjectID  string
	Date       time.Time
	Hours      decimal.Decimal
	Note       string
	Status     ApprovalStatus
	Billed     bool
}

// Expense is an out-of-pocket cost booked against a project.
type Expense struct {
	ID         string
	ResourceID string
	ProjectID  string
	Date       time.Time
	Amount     decimal.Decimal
	Category   string
	Receipt    bool
	Status     ApprovalStatus
	Billed     bool
}

// ProjectBook is the full projects dataset that the rules run against.
type ProjectBook struct {
	Projects    []*Project
	Milestones  []*Milestone
	Resources   []*Resource
	Assignments []*Assignment
	Timesheets  []*Timesheet
	Expenses    []*Expense
}

// Project looks a project up by id.
func (b *ProjectBook) Project(id string) (*Project, bool) {
	for _, p := range b.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

func (b *ProjectBook) resource(id string) *Resource {
	for _, r := range b.Resources {
		if r.ID == id {
			return r
		}
	}
	return &Resource{ID: id, CostRate: decimal.Zero, BillRate: decimal.Zero}
}

func (b *ProjectBook) billable(projectID string) bool {
	p, ok := b.Project(projectID)
	return ok && p.IsBillable()
}

// AllocationPct returns the allocation of the assignment covering date, or 0.
func (b *ProjectBook) AllocationPct(resourceID, projectID string, date time.Time) int {
	for _, a := range b.Assignments {
		if a.ResourceID != resourceID || a.ProjectID != projectID {
			continue
		}
		if !date.Before(a.Start) && !date.After(a.End) {
			return a.AllocationPct
		}
	}
	return 0
}

// CheckTimesheet applies the daily hour cap, the justification rule and the
// allocation limit.
func (b *ProjectBook) CheckTimesheet(t *Timesheet) RuleResult {
	if t.Hours.GreaterThan(MaxDailyHours) {
		return RuleResult{Reasons: []string{"hours > 10h/day"}}
	}

	if t.Hours.GreaterThan(JustifiedHours) && len(strings.TrimSpace(t.Note)) < minJustificationChars {
		return RuleResult{Reasons: []string{">8h needs justification (≥10 chars)"}}
	}

	alloc := b.AllocationPct(t.ResourceID, t.ProjectID, t.Date)
	limit := hoursPerDay.Mul(decimal.NewFromInt(int64(alloc))).Div(hundred).Ceil().Add(decimal.NewFromInt(2))
	if t.Hours.GreaterThan(limit) {
		return RuleResult{Reasons: []string{fmt.Sprintf("over allocation (max %sh by %d%%)", limit, alloc)}}
	}

	return RuleResult{OK: true}
}

// CheckExpense applies the receipt threshold and the meal cap.
func CheckExpense(e *Expense) RuleResult {
	if e.Amount.GreaterThan(ReceiptThreshold) && !e.Receipt {
		return RuleResult{Reasons: []string{"receipt required (>2,000,000)"}}
	}
	if e.Category == "Meal" && e.Amount.GreaterThan(MealCap) {
		return RuleResult{Reasons: []string{"meal cap 500,000/day"}}
	}
	return RuleResult{OK: true}
}

// CheckBilling reports whether a project can be invoiced now.
func (b *ProjectBook) CheckBilling(projectID string) RuleResult {
	p, ok := b.Project(projectID)
	if !ok {
		return RuleResult{Reasons: []string{"unknown project"}}
	}

	switch p.Type {
	case ProjectTimeAndMaterials:
		return RuleResult{OK: true}
	case ProjectFixedFee:
		for _, m := range b.Milestones {
			if m.ProjectID == projectID && m.Billable && m.Done {
				return RuleResult{OK: true}
			}
		}
		return RuleResult{Reasons: []string{"no billable milestone done"}}
	default:
		return RuleResult{Reasons: []string{"internal project"}}
	}
}

// ProjectScope selects the slice of the book a computation looks at.
type ProjectScope struct {
	Entity  string
	Quarter *Quarter
}

func (s ProjectScope) inQuarter(d time.Time) bool {
	return s.Quarter == nil || s.Quarter.Contains(d)
}

func (b *ProjectBook) inScope(s ProjectScope, projectID string, d time.Time) bool {
	p, ok := b.Project(projectID)
	return ok && p.Entity == s.Entity && s.inQuarter(d)
}

func (b *ProjectBook) scopedTimesheets(s ProjectScope) []*Timesheet {
	var out []*Timesheet
	for _, t := range b.Timesheets {
		if b.inScope(s, t.ProjectID, t.Date) {
			out = append(out, t)
		}
	}
	return out
}

func (b *ProjectBook) scopedExpenses(s ProjectScope) []*Expense {
	var out []*Expense
	for _, e := range b.Expenses {
		if b.inScope(s, e.ProjectID, e.Date) {
			out = append(out, e)
		}
	}
	return out
}

func (b *ProjectBook) scopedProjects(s ProjectScope) []*Project {
	var out []*Project
	for _, p := range b.Projects {
		if p.Entity == s.Entity {
			out = append(out, p)
		}
	}
	return out
}

func (b *ProjectBook) timeValue(t *Timesheet) decimal.Decimal {
	return b.resource(t.ResourceID).BillRate.Mul(t.Hours)
}

func (b *ProjectBook) timeCost(t *Timesheet) decimal.Decimal {
	return b.resource(t.ResourceID).CostRate.Mul(t.Hours)
}

func pct(num, den decimal.Decimal) decimal.Decimal {
	if !den.IsPositive() {
		return decimal.Zero
	}
	return num.Mul(hundred).Div(den)
}

// Utilization is billable and non-billable hours against capacity.
type Utilization struct {
	BillableHours    decimal.Decimal
	NonBillableHours decimal.Decimal
	CapacityHours    decimal.Decimal
	UtilizationPct   int64
	NonBillablePct   int64
}

// ComputeUtilization uses capacity = resources × business days × 8 over the
// quarter. Timesheets on internal projects count as non-billable.
func (b *ProjectBook) ComputeUtilization(s ProjectScope) Utilization {
	resources := 0
	for _, r := range b.Resources {
		if r.Entity == s.Entity {
			resources++
		}
	}

	days := 1
	if s.Quarter != nil {
		days = max(1, BusinessDaysBetween(s.Quarter.Start(), s.Quarter.End()))
	}

	u := Utilization{
		BillableHours:    decimal.Zero,
		NonBillableHours: decimal.Zero,
		CapacityHours:    decimal.NewFromInt(int64(resources * days)).Mul(hoursPerDay),
	}

	for _, t := range b.scopedTimesheets(s) {
		if b.billable(t.ProjectID) {
			u.BillableHours = u.BillableHours.Add(t.Hours)
		} else {
			u.NonBillableHours = u.NonBillableHours.Add(t.Hours)
		}
	}

	u.UtilizationPct = pct(u.BillableHours, u.CapacityHours).Round(0).IntPart()
	u.NonBillablePct = pct(u.NonBillableHours, u.CapacityHours).Round(0).IntPart()
	return u
}

// GrossMarginPct compares revenue on billable work with the cost of all work.
// Rejected timesheets are ignored.
func (b *ProjectBook) GrossMarginPct(s ProjectScope) decimal.Decimal {
	revenue, cost := decimal.Zero, decimal.Zero
	for _, t := range b.scopedTimesheets(s) {
		if t.Status == ApprovalRejected {
			continue
		}
		if b.billable(t.ProjectID) {
			revenue = revenue.Add(b.timeValue(t))
		}
		cost = cost.Add(b.timeCost(t))
	}
	for _, e := range b.scopedExpenses(s) {
		if b.billable(e.ProjectID) {
			revenue = revenue.Add(e.Amount)
		}
		cost = cost.Add(e.Amount)
	}
	return pct(revenue.Sub(cost), revenue)
}

// OnTimePct is the share of completed milestones delivered by their planned
// date. It is 100 when nothing is done yet.
func (b *ProjectBook) OnTimePct(s ProjectScope) int64 {
	var done, onTime int64
	for _, m := range b.Milestones {
		p, ok := b.Project(m.ProjectID)
		if !ok || p.Entity != s.Entity || !m.Done {
			continue
		}
		done++
		if m.Actual != nil && !m.Actual.After(m.Planned) {
			onTime++
		}
	}
	if done == 0 {
		return 100
	}
	return decimal.NewFromInt(onTime * 100).Div(decimal.NewFromInt(done)).Round(0).IntPart()
}

// Backlog is the unbilled remainder of every contract.
func (b *ProjectBook) Backlog(s ProjectScope) decimal.Decimal {
	total := decimal.Zero
	for _, p := range b.scopedProjects(s) {
		total = total.Add(decimal.Max(decimal.Zero, p.ContractValue.Sub(p.BilledToDate)))
	}
	return total
}

// WIP values approved, unbilled work on billable projects.
func (b *ProjectBook) WIP(s ProjectScope) decimal.Decimal {
	total := decimal.Zero
	for _, t := range b.scopedTimesheets(s) {
		if t.Status == ApprovalApproved && !t.Billed && b.billable(t.ProjectID) {
			total = total.Add(b.timeValue(t))
		}
	}
	for _, e := range b.scopedExpenses(s) {
		if e.Status == ApprovalApproved && !e.Billed && b.billable(e.ProjectID) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// ProjectsKPIs is the dashboard summary for one entity and quarter.
type ProjectsKPIs struct {
	Utilization    Utilization
	Backlog        decimal.Decimal
	WIP            decimal.Decimal
	GrossMarginPct decimal.Decimal
	OnTimePct      int64
}

// ComputeKPIs gathers every dashboard figure.
func (b *ProjectBook) ComputeKPIs(s ProjectScope) ProjectsKPIs {
	return ProjectsKPIs{
		Utilization:    b.ComputeUtilization(s),
		Backlog:        b.Backlog(s),
		WIP:            b.WIP(s),
		GrossMarginPct: b.GrossMarginPct(s).Round(1),
		OnTimePct:      b.OnTimePct(s),
	}
}

// ProjectHealth is a portfolio row.
type ProjectHealth struct {
	Project   *Project
	Revenue   decimal.Decimal
	Cost      decimal.Decimal
	BurnPct   int64
	MarginPct int64
	AtRisk    bool
}

// Portfolio computes burn and margin per project. Revenue counts submitted
// and approved work plus what was billed before.
func (b *ProjectBook) Portfolio(s ProjectScope) []ProjectHealth {
	timesheets := b.scopedTimesheets(s)
	expenses := b.scopedExpenses(s)

	var rows []ProjectHealth
	for _, p := range b.scopedProjects(s) {
		revenue, cost := p.BilledToDate, decimal.Zero
		for _, t := range timesheets {
			if t.ProjectID != p.ID {
				continue
			}
			if t.Status != ApprovalRejected {
				revenue = revenue.Add(b.timeValue(t))
			}
			cost = cost.Add(b.timeCost(t))
		}
		for _, e := range expenses {
			if e.ProjectID != p.ID {
				continue
			}
			if e.Status != ApprovalRejected {
				revenue = revenue.Add(e.Amount)
			}
			cost = cost.Add(e.Amount)
		}

		burn := pct(revenue, p.ContractValue).Round(0).IntPart()
		margin := pct(revenue.Sub(cost), revenue).Round(0).IntPart()
		rows = append(rows, ProjectHealth{
			Project:   p,
			Revenue:   revenue,
			Cost:      cost,
			BurnPct:   burn,
			MarginPct: margin,
			AtRisk:    p.Status == ProjectAtRisk || burn > 85 || margin < 20,
		})
	}
	return rows
}

// BillingLine is the invoice proposed for one project in a billing run.
type BillingLine struct {
	ProjectID    string
	TimeAmount   decimal.Decimal
	ExpenseTotal decimal.Decimal
	Amount       decimal.Decimal
	TimesheetIDs []string
	ExpenseIDs   []string
	Blocked      bool
	Reason       string
}

// PlanBilling groups approved, unbilled, billable items by project and
// blocks projects that fail the billing rule. It does not mark anything.
func (b *ProjectBook) PlanBilling(s ProjectScope) []BillingLine {
	byProject := make(map[string]*BillingLine)
	line := func(id string) *BillingLine {
		l, ok := byProject[id]
		if !ok {
			l = &BillingLine{ProjectID: id, TimeAmount: decimal.Zero, ExpenseTotal: decimal.Zero}
			byProject[id] = l
		}
		return l
	}

	for _, t := range b.scopedTimesheets(s) {
		if t.Status == ApprovalApproved && !t.Billed && b.billable(t.ProjectID) {
			l := line(t.ProjectID)
			l.TimesheetIDs = append(l.TimesheetIDs, t.ID)
			l.TimeAmount = l.TimeAmount.Add(b.timeValue(t))
		}
	}
	for _, e := range b.scopedExpenses(s) {
		if e.Status == ApprovalApproved && !e.Billed && b.billable(e.ProjectID) {
			l := line(e.ProjectID)
			l.ExpenseIDs = append(l.ExpenseIDs, e.ID)
			l.ExpenseTotal = l.ExpenseTotal.Add(e.Amount)
		}
	}

	lines := make([]BillingLine, 0, len(byProject))
	for id, l := range byProject {
		if r := b.CheckBilling(id); !r.OK {
			l.Blocked = true
			l.Reason = r.Reason()
		}
		l.Amount = l.TimeAmount.Add(l.ExpenseTotal)
		lines = append(lines, *l)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProjectID < lines[j].ProjectID })
	return lines
}

// MarkBilled flags the items of every unblocked billing line as billed.
func (b *ProjectBook) MarkBilled(lines []BillingLine) {
	billed := make(map[string]bool)
	for _, l := range lines {
		if l.Blocked {
			continue
		}
		for _, id := range l.TimesheetIDs {
			billed["ts:"+id] = true
		}
		for _, id := range l.ExpenseIDs {
			billed["ex:"+id] = true
		}
	}
	for _, t := range b.Timesheets {
		if billed["ts:"+t.ID] {
			t.Billed = true
		}
	}
	for _, e := range b.Expenses {
		if billed["ex:"+e.ID] {
			e.Billed = true
		}
	}
}
