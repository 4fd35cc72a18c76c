package usecase_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/assetledger/internal/adapter/repository/memory"
	"github.com/iho/assetledger/internal/domain"
	"github.com/iho/assetledger/internal/infrastructure/metrics"
	"github.com/iho/assetledger/internal/usecase"
)

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%03d", s.n)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func demoRegister() ([]*domain.Asset, []*domain.Disposal) {
	assets := []*domain.Asset{
		{ID: "FA-1001", Entity: "co1", Name: "Laptop Dell X", Currency: "VND", Class: "IT Equipment",
			Cost: dec(30_000_000), Salvage: decimal.Zero, Method: domain.StraightLine, LifeMonths: 36, InService: date(2025, 3, 1)},
		{ID: "FA-1002", Entity: "co1", Name: "Mini CNC #1", Currency: "VND", Class: "Machinery",
			Cost: dec(120_000_000), Salvage: dec(12_000_000), Method: domain.DecliningBalance, LifeMonths: 60, InService: date(2025, 1, 15)},
		{ID: "FA-2001", Entity: "co2", Name: "Server Rack", Currency: "USD", Class: "IT Equipment",
			Cost: dec(8_000), Salvage: decimal.Zero, Method: domain.StraightLine, LifeMonths: 48, InService: date(2025, 2, 1)},
		{ID: "FA-2002", Entity: "co2", Name: "Van Ford", Currency: "USD", Class: "Vehicles",
			Cost: dec(12_000), Salvage: dec(1_200), Method: domain.StraightLine, LifeMonths: 60, InService: date(2024, 8, 1)},
	}
	disposals := []*domain.Disposal{
		{AssetID: "FA-2002", Date: date(2025, 8, 10), Proceeds: dec(9_000), Note: "Trade-in"},
	}
	return assets, disposals
}

func demoRates() *domain.ConversionTable {
	return domain.NewConversionTable("VND", map[string]decimal.Decimal{"USD": dec(25_200)})
}

// ledgerEnv wires the asset and posting use cases over the in-memory stores.
type ledgerEnv struct {
	txManager *memory.TxManager
	assets    *memory.AssetRepository
	journal   *memory.JournalRepository
	outbox    *memory.OutboxRepository
	metrics   *metrics.Metrics

	posting *usecase.PostingUseCase
	asset   *usecase.AssetUseCase
	ledger  *usecase.LedgerUseCase
	recon   *usecase.ReconciliationUseCase
}

func newLedgerEnv(t *testing.T) *ledgerEnv {
	t.Helper()

	assets, disposals := demoRegister()
	assetRepo, err := memory.NewAssetRepository(assets, disposals)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	e := &ledgerEnv{
		txManager: memory.NewTxManager(),
		assets:    assetRepo,
		journal:   memory.NewJournalRepository(),
		outbox:    memory.NewOutboxRepository(),
		metrics:   metrics.New(prometheus.NewRegistry()),
	}
	e.posting = usecase.NewPostingUseCase(
		e.txManager, e.assets, e.journal, e.outbox, memory.NewLocker(), &seqIDs{},
		demoRates(), zerolog.Nop(), e.metrics,
	).WithClock(func() time.Time { return date(2025, 8, 31) })
	e.asset = usecase.NewAssetUseCase(e.assets, e.journal, memory.NewCache(), demoRates(), zerolog.Nop(), e.metrics)
	e.ledger = usecase.NewLedgerUseCase(e.journal, e.journal)
	e.recon = usecase.NewReconciliationUseCase(e.assets, e.journal, e.journal)
	return e
}

// expectedDep sums the converted period charge of an entity's assets.
func expectedDep(t *testing.T, entity string, p domain.Period) decimal.Decimal {
	t.Helper()

	assets, disposals := demoRegister()
	byID := make(map[string]*domain.Disposal)
	for _, d := range disposals {
		byID[d.AssetID] = d
	}

	total := decimal.Zero
	for _, a := range assets {
		if a.Entity != entity {
			continue
		}
		dep, err := domain.PeriodDepreciation(a, byID[a.ID], p)
		if err != nil {
			t.Fatalf("period dep %s: %v", a.ID, err)
		}
		converted, err := demoRates().Convert(dep, a.Currency)
		if err != nil {
			t.Fatalf("convert %s: %v", a.ID, err)
		}
		total = total.Add(converted)
	}
	return total
}

func decimalString(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
