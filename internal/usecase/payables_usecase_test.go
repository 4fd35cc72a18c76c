package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/iho/assetledger/internal/adapter/repository/memory"
	"github.com/iho/assetledger/internal/domain"
	"github.com/iho/assetledger/internal/infrastructure/metrics"
	"github.com/iho/assetledger/internal/usecase"
)

type payablesEnv struct {
	repo    *memory.PayablesRepository
	outbox  *memory.OutboxRepository
	metrics *metrics.Metrics
	uc      *usecase.PayablesUseCase
}

func newPayablesEnv(t *testing.T) *payablesEnv {
	t.Helper()

	invoice := func(id, entity, vendor, po string, issued, due time.Time, amount int64, doc bool, status domain.InvoiceStatus, terms domain.PaymentTerms) *domain.Invoice {
		return &domain.Invoice{
			ID: id, Entity: entity, VendorID: vendor, POID: po,
			Date: issued, DueDate: due,
			Amount: dec(amount), HasDocument: doc, Status: status, Match: domain.Unmatched, Terms: terms,
		}
	}

	repo := memory.NewPayablesRepository(memory.PayablesData{
		Vendors: []*domain.Vendor{
			{ID: "VEN-A", Name: "Alpha Supplies", Risk: 45},
			{ID: "VEN-B", Name: "Beta Software", Risk: 62},
			{ID: "VEN-C", Name: "Gamma Services", Risk: 78},
			{ID: "VEN-D", Name: "Delta Hardware", Risk: 30},
		},
		Receipts: []domain.GoodsReceipt{
			{ID: "GRN-11", POID: "PO-8001", Amount: dec(395_000_000)},
			{ID: "GRN-12", POID: "PO-8002", Amount: dec(235_000_000)},
		},
		Invoices: []*domain.Invoice{
			invoice("INV-1001", "co1", "VEN-D", "PO-8001", date(2025, 8, 1), date(2025, 8, 31), 402_000_000, true, domain.InvoicePending, domain.TermsTwoTenNet30),
			invoice("INV-1002", "co1", "VEN-A", "", date(2025, 8, 3), date(2025, 8, 25), 58_000_000, true, domain.InvoiceApproved, domain.TermsNet30),
			invoice("INV-1003", "co1", "VEN-B", "PO-8002", date(2025, 8, 5), date(2025, 9, 4), 235_000_000, true, domain.InvoiceNeedsInfo, domain.TermsTwoTenNet30),
			invoice("INV-1005", "co1", "VEN-A", "", date(2025, 8, 3), date(2025, 8, 25), 58_000_000, true, domain.InvoicePending, domain.TermsNet30),
			invoice("INV-1006", "co2", "VEN-D", "", date(2025, 7, 30), date(2025, 8, 29), 18_000_000, false, domain.InvoicePending, domain.TermsNet30),
		},
		Banks: []*domain.BankAccount{
			{ID: "BANK-CO1-01", Entity: "co1", Name: "VCB Main", Balance: dec(600_000_000)},
			{ID: "BANK-CO1-02", Entity: "co1", Name: "ACB Ops", Balance: dec(180_000_000)},
		},
	})

	e := &payablesEnv{
		repo:    repo,
		outbox:  memory.NewOutboxRepository(),
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	e.uc = usecase.NewPayablesUseCase(
		memory.NewTxManager(), repo, e.outbox, memory.NewLocker(), &seqIDs{},
		domain.DefaultMatchPolicy(), date(2025, 8, 15), zerolog.Nop(), e.metrics,
	)
	return e
}

func (e *payablesEnv) status(t *testing.T, id string) domain.InvoiceStatus {
	t.Helper()
	invoices, _ := e.repo.Invoices(context.Background())
	for _, inv := range invoices {
		if inv.ID == id {
			return inv.Status
		}
	}
	t.Fatalf("invoice %s not found", id)
	return ""
}

func TestPayablesUseCase_Approve(t *testing.T) {
	env := newPayablesEnv(t)

	outcome, err := env.uc.Approve(context.Background(), []string{"INV-1001", "INV-1005", "INV-1006"})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	if len(outcome.Approved) != 1 || outcome.Approved[0] != "INV-1001" {
		t.Fatalf("expected only INV-1001 approved, got %v", outcome.Approved)
	}
	reasons := map[string]string{}
	for _, ex := range outcome.Exceptions {
		reasons[ex.ID] = ex.Reason
	}
	if reasons["INV-1005"] != "possible duplicate" {
		t.Fatalf("expected duplicate exception, got %q", reasons["INV-1005"])
	}
	if reasons["INV-1006"] != "missing document" {
		t.Fatalf("expected missing document exception, got %q", reasons["INV-1006"])
	}

	if s := env.status(t, "INV-1001"); s != domain.InvoiceApproved {
		t.Fatalf("expected INV-1001 approved, got %s", s)
	}
	if s := env.status(t, "INV-1005"); s != domain.InvoiceException {
		t.Fatalf("expected INV-1005 exception, got %s", s)
	}
	if got := testutil.ToFloat64(env.metrics.InvoiceDecisions.WithLabelValues(string(domain.InvoiceException))); got != 2 {
		t.Fatalf("expected two exception decisions, got %v", got)
	}
}

func TestPayablesUseCase_SelectionErrors(t *testing.T) {
	env := newPayablesEnv(t)
	ctx := context.Background()

	if _, err := env.uc.Approve(ctx, nil); !errors.Is(err, domain.ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if err := env.uc.Reject(ctx, []string{"INV-1001", "INV-9999"}); !errors.Is(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
	if s := env.status(t, "INV-1001"); s != domain.InvoicePending {
		t.Fatalf("failed batch must not change state, got %s", s)
	}
}

func TestPayablesUseCase_NeedsInfoAndReject(t *testing.T) {
	env := newPayablesEnv(t)
	ctx := context.Background()

	if err := env.uc.MarkNeedsInfo(ctx, []string{"INV-1005"}); err != nil {
		t.Fatalf("needs info failed: %v", err)
	}
	if err := env.uc.Reject(ctx, []string{"INV-1006"}); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	if s := env.status(t, "INV-1005"); s != domain.InvoiceNeedsInfo {
		t.Fatalf("expected Needs Info, got %s", s)
	}
	if s := env.status(t, "INV-1006"); s != domain.InvoiceRejected {
		t.Fatalf("expected Rejected, got %s", s)
	}
}

func TestPayablesUseCase_ScheduleAndExecute(t *testing.T) {
	env := newPayablesEnv(t)
	ctx := context.Background()

	if _, err := env.uc.Approve(ctx, []string{"INV-1001"}); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	// Ten days after the invoice date still earns the 2% discount.
	plan, err := env.uc.SchedulePayments(ctx, "BANK-CO1-01", []string{"INV-1001", "INV-1002", "INV-1003"}, date(2025, 8, 11))
	if err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	if len(plan.Lines) != 2 {
		t.Fatalf("expected the needs-info invoice to be skipped, got %d lines", len(plan.Lines))
	}
	if !plan.Lines[0].Discount.Equal(dec(8_040_000)) {
		t.Fatalf("expected discount 8040000, got %s", plan.Lines[0].Discount)
	}
	if want := dec(393_960_000 + 58_000_000); !plan.Total.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, plan.Total)
	}

	bank, _ := env.repo.Bank(ctx, "BANK-CO1-01")
	if want := dec(600_000_000 - 451_960_000); !bank.Balance.Equal(want) {
		t.Fatalf("expected balance %s, got %s", want, bank.Balance)
	}
	if s := env.status(t, "INV-1003"); s != domain.InvoiceNeedsInfo {
		t.Fatalf("unscheduled invoice changed to %s", s)
	}

	events, _ := env.outbox.GetUnpublished(ctx, 10)
	if len(events) != 1 || events[0].EventType != domain.EventTypePaymentsScheduled {
		t.Fatalf("expected one payments event, got %+v", events)
	}

	paid, err := env.uc.ExecuteScheduled(ctx, "co1")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if len(paid) != 2 {
		t.Fatalf("expected 2 paid invoices, got %v", paid)
	}
	if s := env.status(t, "INV-1001"); s != domain.InvoicePaid {
		t.Fatalf("expected Paid, got %s", s)
	}

	again, err := env.uc.ExecuteScheduled(ctx, "co1")
	if err != nil || len(again) != 0 {
		t.Fatalf("expected nothing left to execute, got %v err=%v", again, err)
	}
}

func TestPayablesUseCase_ScheduleRejections(t *testing.T) {
	env := newPayablesEnv(t)
	ctx := context.Background()

	if _, err := env.uc.SchedulePayments(ctx, "BANK-CO1-01", []string{"INV-1005"}, date(2025, 8, 20)); !errors.Is(err, domain.ErrNothingToSchedule) {
		t.Fatalf("expected ErrNothingToSchedule, got %v", err)
	}

	_, _ = env.uc.Approve(ctx, []string{"INV-1001"})
	_, err := env.uc.SchedulePayments(ctx, "BANK-CO1-02", []string{"INV-1001", "INV-1002"}, date(2025, 8, 20))
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	bank, _ := env.repo.Bank(ctx, "BANK-CO1-02")
	if !bank.Balance.Equal(dec(180_000_000)) {
		t.Fatalf("rejected run must not debit the bank, got %s", bank.Balance)
	}
	if s := env.status(t, "INV-1002"); s != domain.InvoiceApproved {
		t.Fatalf("rejected run must not schedule, got %s", s)
	}

	if _, err := env.uc.SchedulePayments(ctx, "BANK-XX", []string{"INV-1002"}, date(2025, 8, 20)); !errors.Is(err, domain.ErrBankNotFound) {
		t.Fatalf("expected ErrBankNotFound, got %v", err)
	}
}

func TestPayablesUseCase_ListAndKPIs(t *testing.T) {
	env := newPayablesEnv(t)
	ctx := context.Background()

	rows, err := env.uc.ListInvoices(ctx, domain.InvoiceFilter{Entity: "co1", Vendor: "VEN-A"})
	if err != nil || len(rows) != 2 {
		t.Fatalf("expected 2 VEN-A invoices, got %d err=%v", len(rows), err)
	}
	if rows[0].Bucket != domain.BucketCurrent {
		t.Fatalf("expected due in ten days to be current, got %s", rows[0].Bucket)
	}

	k, err := env.uc.KPIs(ctx, "co1", nil)
	if err != nil {
		t.Fatalf("kpis failed: %v", err)
	}
	if want := dec(402_000_000 + 58_000_000 + 235_000_000 + 58_000_000); !k.Outstanding.Equal(want) {
		t.Fatalf("expected outstanding %s, got %s", want, k.Outstanding)
	}
}
