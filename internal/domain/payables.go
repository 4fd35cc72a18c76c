package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of a vendor invoice.
type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "Pending"
	InvoiceNeedsInfo InvoiceStatus = "Needs Info"
	InvoiceApproved  InvoiceStatus = "Approved"
	InvoiceScheduled InvoiceStatus = "Scheduled"
	InvoicePaid      InvoiceStatus = "Paid"
	InvoiceRejected  InvoiceStatus = "Rejected"
	InvoiceException InvoiceStatus = "Exception"
)

// IsOutstanding reports whether the invoice still represents money owed.
func (s InvoiceStatus) IsOutstanding() bool {
	switch s {
	case InvoicePending, InvoiceNeedsInfo, InvoiceApproved, InvoiceScheduled:
		return true
	default:
		return false
	}
}

// IsOpen reports whether the invoice is neither paid nor rejected.
func (s InvoiceStatus) IsOpen() bool {
	return s != InvoicePaid && s != InvoiceRejected
}

// PaymentTerms are the supported vendor payment terms.
type PaymentTerms string

const (
	TermsNet30       PaymentTerms = "Net 30"
	TermsTwoTenNet30 PaymentTerms = "2/10 Net 30"
)

const earlyPayWindowDays = 10

var earlyPayRate = decimal.NewFromFloat(0.02)

// MatchStatus records the outcome of the last approval.
type MatchStatus string

const (
	Unmatched MatchStatus = "Unmatched"
	Matched   MatchStatus = "Matched"
)

// AgingBucket groups invoices by days to or past due.
type AgingBucket string

const (
	BucketCurrent     AgingBucket = "Current"
	BucketDueSoon     AgingBucket = "Due≤7"
	BucketOverdue30   AgingBucket = "Overdue 1–30"
	BucketOverdue60   AgingBucket = "Overdue 31–60"
	BucketOverdueOver AgingBucket = "Overdue >60"
)

// IsOverdue reports whether the bucket is past due.
func (b AgingBucket) IsOverdue() bool {
	return strings.HasPrefix(string(b), "Overdue")
}

// Vendor is a supplier with a risk score from 0 to 100.
type Vendor struct {
	ID          string
	Name        string
	Risk        int
	BankAccount string
}

// GoodsReceipt is a received quantity valued against a purchase order.
type GoodsReceipt struct {
	ID     string
	POID   string
	Amount decimal.Decimal
}

// BankAccount is an entity's paying account.
type BankAccount struct {
	ID      string
	Entity  string
	Name    string
	Balance decimal.Decimal
}

// Invoice is a vendor bill awaiting approval and payment.
type Invoice struct {
	ID               string
	Entity           string
	VendorID         string
	POID             string
	Date             time.Time
	DueDate          time.Time
	Amount           decimal.Decimal
	HasDocument      bool
	Status           InvoiceStatus
	Match            MatchStatus
	Terms            PaymentTerms
	DuplicateOf      string
	ScheduledPayDate *time.Time
	ScheduledAmount  decimal.Decimal
}

// RuleResult is the outcome of a business rule with human readable reasons.
type RuleResult struct {
	OK      bool
	Reasons []string
}

// Reason joins the reasons into one message.
func (r RuleResult) Reason() string {
	return strings.Join(r.Reasons, " & ")
}

// MatchPolicy holds the approval tolerances.
type MatchPolicy struct {
	TolerancePct decimal.Decimal
	ToleranceAbs decimal.Decimal
	RiskGate     int
}

// DefaultMatchPolicy returns ±2% or 1,000,000 and a risk gate of 80.
func DefaultMatchPolicy() MatchPolicy {
	return MatchPolicy{
		TolerancePct: decimal.NewFromInt(2),
		ToleranceAbs: decimal.NewFromInt(1_000_000),
		RiskGate:     80,
	}
}

// ThreeWayMatch compares the invoice with goods received against its PO.
// An invoice without a PO only needs a document.
func (p MatchPolicy) ThreeWayMatch(inv *Invoice, receipts []GoodsReceipt) RuleResult {
	if inv.POID == "" {
		if inv.HasDocument {
			return RuleResult{OK: true}
		}
		return RuleResult{Reasons: []string{"missing document"}}
	}

	received := decimal.Zero
	for _, r := range receipts {
		if r.POID == inv.POID {
			received = received.Add(r.Amount)
		}
	}

	allowed := decimal.Max(p.ToleranceAbs, inv.Amount.Mul(p.TolerancePct).Div(decimal.NewFromInt(100)))
	diff := inv.Amount.Sub(decimal.Min(received, inv.Amount)).Abs()

	var reasons []string
	if !inv.HasDocument {
		reasons = append(reasons, "missing document")
	}
	if diff.GreaterThan(allowed) {
		reasons = append(reasons, fmt.Sprintf("variance %s exceeds tolerance (±%s%% or ≤ %s)", diff, p.TolerancePct, p.ToleranceAbs))
	}

	return RuleResult{OK: len(reasons) == 0, Reasons: reasons}
}

// RiskOK reports whether the vendor passes the risk gate.
func (p MatchPolicy) RiskOK(v *Vendor) bool {
	return v.Risk <= p.RiskGate
}

// Approve combines match, vendor risk and duplicate checks.
func (p MatchPolicy) Approve(inv *Invoice, v *Vendor, receipts []GoodsReceipt) RuleResult {
	m := p.ThreeWayMatch(inv, receipts)

	var reasons []string
	if !m.OK {
		reasons = append(reasons, m.Reason())
	}
	if !p.RiskOK(v) {
		reasons = append(reasons, fmt.Sprintf("vendor risk > %d", p.RiskGate))
	}
	if inv.DuplicateOf != "" {
		reasons = append(reasons, "possible duplicate")
	}

	return RuleResult{OK: len(reasons) == 0, Reasons: reasons}
}

// Discount returns the early payment discount when paying on payDate.
func (inv *Invoice) Discount(payDate time.Time) decimal.Decimal {
	if inv.Terms != TermsTwoTenNet30 {
		return decimal.Zero
	}
	if DaysBetween(inv.Date, payDate) > earlyPayWindowDays {
		return decimal.Zero
	}
	return inv.Amount.Mul(earlyPayRate).Round(0)
}

// Aging returns the bucket of the invoice relative to today.
func (inv *Invoice) Aging(today time.Time) AgingBucket {
	dd := DaysBetween(today, inv.DueDate)
	switch {
	case dd >= 8:
		return BucketCurrent
	case dd >= 0:
		return BucketDueSoon
	case -dd <= 30:
		return BucketOverdue30
	case -dd <= 60:
		return BucketOverdue60
	default:
		return BucketOverdueOver
	}
}

func (inv *Invoice) duplicateKey() string {
	return strings.Join([]string{inv.Entity, inv.VendorID, inv.Amount.String(), inv.Date.Format(DateLayout)}, "|")
}

// MarkDuplicates flags every invoice that repeats an earlier invoice's
// entity, vendor, amount and date.
func MarkDuplicates(invoices []*Invoice) {
	seen := make(map[string]string, len(invoices))
	for _, inv := range invoices {
		key := inv.duplicateKey()
		if first, ok := seen[key]; ok {
			inv.DuplicateOf = first
			continue
		}
		seen[key] = inv.ID
	}
}

// InvoiceFilter narrows an invoice listing. Zero values match everything.
type InvoiceFilter struct {
	Entity  string
	Vendor  string
	Status  InvoiceStatus
	Bucket  AgingBucket
	Search  string
	Quarter *Quarter
}

// Matches reports whether inv passes the filter.
func (f InvoiceFilter) Matches(inv *Invoice, today time.Time) bool {
	if f.Entity != "" && inv.Entity != f.Entity {
		return false
	}
	if f.Vendor != "" && inv.VendorID != f.Vendor {
		return false
	}
	if f.Status != "" && inv.Status != f.Status {
		return false
	}
	if f.Quarter != nil && !f.Quarter.Contains(inv.Date) {
		return false
	}
	if f.Search != "" {
		hay := strings.ToLower(inv.ID + " " + inv.VendorID + " " + inv.POID)
		if !strings.Contains(hay, strings.ToLower(f.Search)) {
			return false
		}
	}
	if f.Bucket != "" && inv.Aging(today) != f.Bucket {
		return false
	}
	return true
}

// PaymentLine is one invoice in a payment run.
type PaymentLine struct {
	InvoiceID string
	Amount    decimal.Decimal
	Discount  decimal.Decimal
	Net       decimal.Decimal
}

// PaymentPlan is the set of payments drawn from one bank account on one date.
type PaymentPlan struct {
	BankID  string
	PayDate time.Time
	Lines   []PaymentLine
	Total   decimal.Decimal
}

// PlanPayments nets each invoice of its discount and checks the bank balance.
// Only approved invoices of the bank's entity are eligible.
func PlanPayments(bank *BankAccount, invoices []*Invoice, payDate time.Time) (*PaymentPlan, error) {
	plan := &PaymentPlan{BankID: bank.ID, PayDate: payDate, Total: decimal.Zero}
	for _, inv := range invoices {
		if inv.Entity != bank.Entity || inv.Status != InvoiceApproved {
			continue
		}
		disc := inv.Discount(payDate)
		net := inv.Amount.Sub(disc)
		plan.Lines = append(plan.Lines, PaymentLine{InvoiceID: inv.ID, Amount: inv.Amount, Discount: disc, Net: net})
		plan.Total = plan.Total.Add(net)
	}

	if len(plan.Lines) == 0 {
		return nil, ErrNothingToSchedule
	}

	if plan.Total.GreaterThan(bank.Balance) {
		return nil, fmt.Errorf("%w: balance %s, need %s", ErrInsufficientBalance, bank.Balance, plan.Total)
	}

	sort.Slice(plan.Lines, func(i, j int) bool { return plan.Lines[i].InvoiceID < plan.Lines[j].InvoiceID })
	return plan, nil
}

// PayablesKPIs summarises an entity's payables position.
type PayablesKPIs struct {
	Outstanding        decimal.Decimal
	DueSoon            decimal.Decimal
	Overdue            decimal.Decimal
	DPOProxy           int64
	Exceptions         int
	DiscountCapturedPc int64
}

// ComputePayablesKPIs derives the dashboard figures for one entity. Paid
// spend is restricted to the quarter when one is given.
func ComputePayablesKPIs(invoices []*Invoice, entity string, q *Quarter, today time.Time) PayablesKPIs {
	k := PayablesKPIs{Outstanding: decimal.Zero, DueSoon: decimal.Zero, Overdue: decimal.Zero}
	spend := decimal.Zero
	var got, possible int64

	for _, inv := range invoices {
		if inv.Entity != entity {
			continue
		}

		if inv.Status.IsOutstanding() {
			k.Outstanding = k.Outstanding.Add(inv.Amount)
		}

		if inv.Status.IsOpen() {
			switch b := inv.Aging(today); {
			case b == BucketDueSoon:
				k.DueSoon = k.DueSoon.Add(inv.Amount)
			case b.IsOverdue():
				k.Overdue = k.Overdue.Add(inv.Amount)
			}
		}

		if inv.Status == InvoiceException || inv.Status == InvoiceRejected {
			k.Exceptions++
		}

		if inv.Status == InvoicePaid {
			if q == nil || q.Contains(inv.Date) {
				spend = spend.Add(inv.Amount)
			}
			if inv.Terms == TermsTwoTenNet30 {
				payDate := today
				if inv.ScheduledPayDate != nil {
					payDate = *inv.ScheduledPayDate
				}
				if DaysBetween(inv.Date, payDate) <= earlyPayWindowDays {
					got++
				}
				possible++
			}
		}
	}

	if spend.IsZero() {
		spend = decimal.NewFromInt(1)
	}
	k.DPOProxy = k.Outstanding.Div(spend.Div(decimal.NewFromInt(30))).Round(0).IntPart()

	if possible > 0 {
		k.DiscountCapturedPc = decimal.NewFromInt(got * 100).Div(decimal.NewFromInt(possible)).Round(0).IntPart()
	}

	return k
}

var invoiceStatuses = []InvoiceStatus{
	InvoicePending, InvoiceNeedsInfo, InvoiceApproved, InvoiceScheduled,
	InvoicePaid, InvoiceRejected, InvoiceException,
}

var agingBuckets = []AgingBucket{
	BucketCurrent, BucketDueSoon, BucketOverdue30, BucketOverdue60, BucketOverdueOver,
}

// ParseInvoiceStatus parses a status name, ignoring case.
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	for _, st := range invoiceStatuses {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown invoice status %q", s)
}

// ParseAgingBucket parses a bucket label, ignoring case.
func ParseAgingBucket(s string) (AgingBucket, error) {
	for _, b := range agingBuckets {
		if strings.EqualFold(string(b), strings.TrimSpace(s)) {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown aging bucket %q", s)
}
