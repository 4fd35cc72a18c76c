package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/iho/assetledger/internal/adapter/repository/memory"
	"github.com/iho/assetledger/internal/domain"
	"github.com/iho/assetledger/internal/infrastructure/metrics"
	"github.com/iho/assetledger/internal/usecase"
)

type projectsEnv struct {
	repo    *memory.ProjectsRepository
	outbox  *memory.OutboxRepository
	metrics *metrics.Metrics
	uc      *usecase.ProjectsUseCase
}

func demoBook(phaseOneDone bool) *domain.ProjectBook {
	ts := func(id, res, proj string, day int, hours int64, note string) *domain.Timesheet {
		return &domain.Timesheet{ID: id, ResourceID: res, ProjectID: proj, Date: date(2025, 8, day),
			Hours: dec(hours), Note: note, Status: domain.ApprovalSubmitted}
	}
	ex := func(id, res, proj string, amount int64, category string, receipt bool) *domain.Expense {
		return &domain.Expense{ID: id, ResourceID: res, ProjectID: proj, Date: date(2025, 8, 12),
			Amount: dec(amount), Category: category, Receipt: receipt, Status: domain.ApprovalSubmitted}
	}
	actual := date(2025, 8, 16)

	return &domain.ProjectBook{
		Projects: []*domain.Project{
			{ID: "PR-001", Entity: "co1", Name: "Mega Retail ERP", Type: domain.ProjectTimeAndMaterials,
				ContractValue: dec(3_600_000_000), BudgetCost: dec(1_900_000_000), BilledToDate: dec(1_800_000_000),
				Start: date(2025, 5, 1), End: date(2025, 10, 31), Status: domain.ProjectActive},
			{ID: "PR-002", Entity: "co1", Name: "City Bank Analytics", Type: domain.ProjectFixedFee,
				ContractValue: dec(1_200_000_000), BudgetCost: dec(650_000_000), BilledToDate: dec(300_000_000),
				Start: date(2025, 6, 10), End: date(2025, 9, 30), Status: domain.ProjectAtRisk},
			{ID: "PR-INT", Entity: "co1", Name: "Internal R&D Tools", Type: domain.ProjectInternal,
				BudgetCost: dec(200_000_000), Start: date(2025, 7, 1), End: date(2025, 12, 31), Status: domain.ProjectActive},
		},
		Milestones: []*domain.Milestone{
			{ProjectID: "PR-002", Name: "Phase 1 Delivery", Planned: date(2025, 8, 15), Actual: &actual, Billable: true, Done: phaseOneDone},
		},
		Resources: []*domain.Resource{
			{ID: "R-01", Entity: "co1", Name: "Hai Nguyen", CostRate: dec(350_000), BillRate: dec(1_200_000)},
			{ID: "R-02", Entity: "co1", Name: "Khanh Le", CostRate: dec(300_000), BillRate: dec(1_000_000)},
			{ID: "R-03", Entity: "co1", Name: "Huy Tran", CostRate: dec(250_000), BillRate: dec(800_000)},
		},
		Assignments: []*domain.Assignment{
			{ResourceID: "R-01", ProjectID: "PR-001", Start: date(2025, 6, 1), End: date(2025, 9, 30), AllocationPct: 60},
			{ResourceID: "R-02", ProjectID: "PR-001", Start: date(2025, 6, 15), End: date(2025, 10, 31), AllocationPct: 80},
			{ResourceID: "R-03", ProjectID: "PR-002", Start: date(2025, 7, 1), End: date(2025, 9, 30), AllocationPct: 70},
			{ResourceID: "R-03", ProjectID: "PR-INT", Start: date(2025, 7, 15), End: date(2025, 10, 15), AllocationPct: 20},
		},
		Timesheets: []*domain.Timesheet{
			ts("TS-001", "R-01", "PR-001", 12, 9, "Workshop + PM"),
			ts("TS-002", "R-02", "PR-001", 12, 8, "Build interfaces"),
			ts("TS-003", "R-03", "PR-002", 11, 10, "Modeling (late)"),
			ts("TS-004", "R-03", "PR-INT", 13, 6, "Internal tooling"),
			ts("TS-006", "R-02", "PR-002", 13, 11, "Overtime ETL, urgent"),
		},
		Expenses: []*domain.Expense{
			ex("EX-001", "R-01", "PR-001", 1_200_000, "Meal", true),
			ex("EX-002", "R-02", "PR-001", 6_500_000, "Travel", false),
			ex("EX-003", "R-03", "PR-002", 480_000, "Meal", true),
		},
	}
}

func newProjectsEnv(t *testing.T, book *domain.ProjectBook) *projectsEnv {
	t.Helper()

	e := &projectsEnv{
		repo:    memory.NewProjectsRepository(book),
		outbox:  memory.NewOutboxRepository(),
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	e.uc = usecase.NewProjectsUseCase(
		memory.NewTxManager(), e.repo, e.outbox, memory.NewLocker(), &seqIDs{}, zerolog.Nop(), e.metrics,
	)
	return e
}

func TestProjectsUseCase_ApproveTimesheets(t *testing.T) {
	env := newProjectsEnv(t, demoBook(true))
	ctx := context.Background()

	outcome, err := env.uc.ApproveTimesheets(ctx, []string{"TS-001", "TS-002", "TS-003", "TS-004", "TS-006"})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if len(outcome.Approved) != 1 || outcome.Approved[0] != "TS-002" {
		t.Fatalf("expected only TS-002 approved, got %v", outcome.Approved)
	}

	reasons := map[string]string{}
	for _, ex := range outcome.Exceptions {
		reasons[ex.ID] = ex.Reason
	}
	want := map[string]string{
		"TS-001": "over allocation (max 7h by 60%)",
		"TS-003": "over allocation (max 8h by 70%)",
		"TS-004": "over allocation (max 4h by 20%)",
		"TS-006": "hours > 10h/day",
	}
	for id, reason := range want {
		if reasons[id] != reason {
			t.Fatalf("%s: expected %q, got %q", id, reason, reasons[id])
		}
	}

	book, _ := env.repo.Load(ctx)
	for _, ts := range book.Timesheets {
		wantStatus := domain.ApprovalSubmitted
		if ts.ID == "TS-002" {
			wantStatus = domain.ApprovalApproved
		}
		if ts.Status != wantStatus {
			t.Fatalf("%s: expected %s, got %s", ts.ID, wantStatus, ts.Status)
		}
	}

	if got := testutil.ToFloat64(env.metrics.ItemApprovals.WithLabelValues("timesheet", "exception")); got != 4 {
		t.Fatalf("expected 4 timesheet exceptions, got %v", got)
	}
}

func TestProjectsUseCase_ApproveExpenses(t *testing.T) {
	env := newProjectsEnv(t, demoBook(true))

	outcome, err := env.uc.ApproveExpenses(context.Background(), []string{"EX-001", "EX-002", "EX-003"})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if len(outcome.Approved) != 1 || outcome.Approved[0] != "EX-003" {
		t.Fatalf("expected only EX-003 approved, got %v", outcome.Approved)
	}
	if len(outcome.Exceptions) != 2 ||
		outcome.Exceptions[0].Reason != "meal cap 500,000/day" ||
		outcome.Exceptions[1].Reason != "receipt required (>2,000,000)" {
		t.Fatalf("unexpected exceptions: %+v", outcome.Exceptions)
	}
}

func TestProjectsUseCase_SelectionErrors(t *testing.T) {
	env := newProjectsEnv(t, demoBook(true))
	ctx := context.Background()

	if _, err := env.uc.ApproveTimesheets(ctx, nil); !errors.Is(err, domain.ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if _, err := env.uc.ApproveTimesheets(ctx, []string{"TS-002", "TS-999"}); !errors.Is(err, domain.ErrTimesheetNotFound) {
		t.Fatalf("expected ErrTimesheetNotFound, got %v", err)
	}
	if _, err := env.uc.ApproveExpenses(ctx, []string{"EX-999"}); !errors.Is(err, domain.ErrExpenseNotFound) {
		t.Fatalf("expected ErrExpenseNotFound, got %v", err)
	}

	book, _ := env.repo.Load(ctx)
	if book.Timesheets[1].Status != domain.ApprovalSubmitted {
		t.Fatal("failed batch must not be saved")
	}
}

func TestProjectsUseCase_BillingRun(t *testing.T) {
	env := newProjectsEnv(t, demoBook(true))
	ctx := context.Background()
	scope := domain.ProjectScope{Entity: "co1"}

	_, _ = env.uc.ApproveTimesheets(ctx, []string{"TS-002"})
	_, _ = env.uc.ApproveExpenses(ctx, []string{"EX-003"})

	lines, err := env.uc.BillingRun(ctx, scope)
	if err != nil {
		t.Fatalf("billing run failed: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 billing lines, got %+v", lines)
	}
	if lines[0].ProjectID != "PR-001" || !lines[0].Amount.Equal(dec(8_000_000)) {
		t.Fatalf("unexpected PR-001 line: %+v", lines[0])
	}
	if lines[1].ProjectID != "PR-002" || lines[1].Blocked || !lines[1].Amount.Equal(dec(480_000)) {
		t.Fatalf("unexpected PR-002 line: %+v", lines[1])
	}

	book, _ := env.repo.Load(ctx)
	if !book.Timesheets[1].Billed || !book.Expenses[2].Billed {
		t.Fatal("expected billed items to be marked")
	}
	if !book.Projects[0].BilledToDate.Equal(dec(1_800_000_000)) {
		t.Fatal("billing run must not change billed to date")
	}

	events, _ := env.outbox.GetUnpublished(ctx, 10)
	if len(events) != 1 || events[0].EventType != domain.EventTypeBillingRun {
		t.Fatalf("expected one billing event, got %+v", events)
	}

	again, _ := env.uc.BillingRun(ctx, scope)
	if len(again) != 0 {
		t.Fatalf("expected nothing left to bill, got %+v", again)
	}
}

func TestProjectsUseCase_BillingRunBlocksIneligibleProject(t *testing.T) {
	env := newProjectsEnv(t, demoBook(false))
	ctx := context.Background()

	_, _ = env.uc.ApproveTimesheets(ctx, []string{"TS-002"})
	_, _ = env.uc.ApproveExpenses(ctx, []string{"EX-003"})

	lines, err := env.uc.BillingRun(ctx, domain.ProjectScope{Entity: "co1"})
	if err != nil {
		t.Fatalf("billing run failed: %v", err)
	}
	if len(lines) != 2 || !lines[1].Blocked || lines[1].Reason != "no billable milestone done" {
		t.Fatalf("expected PR-002 blocked, got %+v", lines)
	}

	book, _ := env.repo.Load(ctx)
	if book.Expenses[2].Billed {
		t.Fatal("blocked project items must stay unbilled")
	}
	if !book.Timesheets[1].Billed {
		t.Fatal("eligible project items must be billed")
	}
	if got := testutil.ToFloat64(env.metrics.BillingLines.WithLabelValues("blocked")); got != 1 {
		t.Fatalf("expected one blocked line, got %v", got)
	}
}

func TestProjectsUseCase_Portfolio(t *testing.T) {
	env := newProjectsEnv(t, demoBook(true))

	rows, err := env.uc.Portfolio(context.Background(), domain.ProjectScope{Entity: "co1"})
	if err != nil {
		t.Fatalf("portfolio failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 projects, got %d", len(rows))
	}
	if !rows[1].AtRisk {
		t.Fatal("expected the At Risk project to be flagged")
	}

	if _, err := env.uc.KPIs(context.Background(), domain.ProjectScope{Entity: "co1"}); err != nil {
		t.Fatalf("kpis failed: %v", err)
	}
}
