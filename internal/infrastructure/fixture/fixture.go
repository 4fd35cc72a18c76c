// Package fixture loads the demo dataset the service runs against.
package fixture

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/iho/assetledger/internal/domain"
)

// Dataset is the full demo dataset.
type Dataset struct {
	Assets    []*domain.Asset
	Disposals []*domain.Disposal
	Vendors   []*domain.Vendor
	Invoices  []*domain.Invoice
	Receipts  []domain.GoodsReceipt
	Banks     []*domain.BankAccount
	Projects  *domain.ProjectBook
}

type file struct {
	Assets      []assetRecord      `yaml:"assets"`
	Disposals   []disposalRecord   `yaml:"disposals"`
	Vendors     []vendorRecord     `yaml:"vendors"`
	Receipts    []receiptRecord    `yaml:"receipts"`
	Invoices    []invoiceRecord    `yaml:"invoices"`
	Banks       []bankRecord       `yaml:"banks"`
	Projects    []projectRecord    `yaml:"projects"`
	Milestones  []milestoneRecord  `yaml:"milestones"`
	Resources   []resourceRecord   `yaml:"resources"`
	Assignments []assignmentRecord `yaml:"assignments"`
	Timesheets  []timesheetRecord  `yaml:"timesheets"`
	Expenses    []expenseRecord    `yaml:"expenses"`
}

type assetRecord struct {
	ID         string                    `yaml:"id"`
	Entity     string                    `yaml:"entity"`
	Name       string                    `yaml:"name"`
	Currency   string                    `yaml:"currency"`
	Class      string                    `yaml:"class"`
	Cost       decimal.Decimal           `yaml:"cost"`
	Salvage    decimal.Decimal           `yaml:"salvage"`
	Method     domain.DepreciationMethod `yaml:"method"`
	LifeMonths int                       `yaml:"life_months"`
	InService  time.Time                 `yaml:"in_service"`
}

type disposalRecord struct {
	AssetID  string          `yaml:"asset_id"`
	Date     time.Time       `yaml:"date"`
	Proceeds decimal.Decimal `yaml:"proceeds"`
	Note     string          `yaml:"note"`
}

type vendorRecord struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Risk        int    `yaml:"risk"`
	BankAccount string `yaml:"bank_account"`
}

type receiptRecord struct {
	ID     string          `yaml:"id"`
	POID   string          `yaml:"po_id"`
	Amount decimal.Decimal `yaml:"amount"`
}

type invoiceRecord struct {
	ID          string               `yaml:"id"`
	Entity      string               `yaml:"entity"`
	VendorID    string               `yaml:"vendor_id"`
	POID        string               `yaml:"po_id"`
	Date        time.Time            `yaml:"date"`
	DueDate     time.Time            `yaml:"due_date"`
	Amount      decimal.Decimal      `yaml:"amount"`
	HasDocument bool                 `yaml:"has_document"`
	Status      domain.InvoiceStatus `yaml:"status"`
	Terms       domain.PaymentTerms  `yaml:"terms"`
}

type bankRecord struct {
	ID      string          `yaml:"id"`
	Entity  string          `yaml:"entity"`
	Name    string          `yaml:"name"`
	Balance decimal.Decimal `yaml:"balance"`
}

type projectRecord struct {
	ID            string               `yaml:"id"`
	Entity        string               `yaml:"entity"`
	Name          string               `yaml:"name"`
	Practice      string               `yaml:"practice"`
	Type          domain.ProjectType   `yaml:"type"`
	Manager       string               `yaml:"manager"`
	ContractValue decimal.Decimal      `yaml:"contract_value"`
	BudgetCost    decimal.Decimal      `yaml:"budget_cost"`
	BilledToDate  decimal.Decimal      `yaml:"billed_to_date"`
	Start         time.Time            `yaml:"start"`
	End           time.Time            `yaml:"end"`
	Status        domain.ProjectStatus `yaml:"status"`
}

type milestoneRecord struct {
	ProjectID string     `yaml:"project_id"`
	Name      string     `yaml:"name"`
	Planned   time.Time  `yaml:"planned"`
	Actual    *time.Time `yaml:"actual"`
	Billable  bool       `yaml:"billable"`
	Done      bool       `yaml:"done"`
}

type resourceRecord struct {
	ID       string          `yaml:"id"`
	Entity   string          `yaml:"entity"`
	Name     string          `yaml:"name"`
	Role     string          `yaml:"role"`
	CostRate decimal.Decimal `yaml:"cost_rate"`
	BillRate decimal.Decimal `yaml:"bill_rate"`
}

type assignmentRecord struct {
	ResourceID    string    `yaml:"resource_id"`
	ProjectID     string    `yaml:"project_id"`
	Start         time.Time `yaml:"start"`
	End           time.Time `yaml:"end"`
	AllocationPct int       `yaml:"allocation_pct"`
}

type timesheetRecord struct {
	ID         string                `yaml:"id"`
	ResourceID string                `yaml:"resource_id"`
	ProjectID  string                `yaml:"project_id"`
	Date       time.Time             `yaml:"date"`
	Hours      decimal.Decimal       `yaml:"hours"`
	Note       string                `yaml:"note"`
	Status     domain.ApprovalStatus `yaml:"status"`
	Billed     bool                  `yaml:"billed"`
}

type expenseRecord struct {
	ID         string                `yaml:"id"`
	ResourceID string                `yaml:"resource_id"`
	ProjectID  string                `yaml:"project_id"`
	Date       time.Time             `yaml:"date"`
	Amount     decimal.Decimal       `yaml:"amount"`
	Category   string                `yaml:"category"`
	Receipt    bool                  `yaml:"receipt"`
	Status     domain.ApprovalStatus `yaml:"status"`
	Billed     bool                  `yaml:"billed"`
}

// Load reads and parses the dataset at path.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML dataset and validates the asset register.
func Parse(data []byte) (*Dataset, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture file: %w", err)
	}

	ds := &Dataset{Projects: &domain.ProjectBook{}}

	for _, r := range f.Assets {
		a := &domain.Asset{
			ID:         r.ID,
			Entity:     r.Entity,
			Name:       r.Name,
			Currency:   r.Currency,
			Class:      r.Class,
			Cost:       r.Cost,
			Salvage:    r.Salvage,
			Method:     r.Method,
			LifeMonths: r.LifeMonths,
			InService:  r.InService,
		}
		if err := a.Validate(); err != nil {
			return nil, err
		}
		ds.Assets = append(ds.Assets, a)
	}

	for _, r := range f.Disposals {
		d := &domain.Disposal{AssetID: r.AssetID, Date: r.Date, Proceeds: r.Proceeds, Note: r.Note}
		if err := d.Validate(); err != nil {
			return nil, err
		}
		ds.Disposals = append(ds.Disposals, d)
	}

	for _, r := range f.Vendors {
		ds.Vendors = append(ds.Vendors, &domain.Vendor{ID: r.ID, Name: r.Name, Risk: r.Risk, BankAccount: r.BankAccount})
	}
	for _, r := range f.Receipts {
		ds.Receipts = append(ds.Receipts, domain.GoodsReceipt{ID: r.ID, POID: r.POID, Amount: r.Amount})
	}
	for _, r := range f.Invoices {
		ds.Invoices = append(ds.Invoices, &domain.Invoice{
			ID:          r.ID,
			Entity:      r.Entity,
			VendorID:    r.VendorID,
			POID:        r.POID,
			Date:        r.Date,
			DueDate:     r.DueDate,
			Amount:      r.Amount,
			HasDocument: r.HasDocument,
			Status:      r.Status,
			Match:       domain.Unmatched,
			Terms:       r.Terms,
		})
	}
	for _, r := range f.Banks {
		ds.Banks = append(ds.Banks, &domain.BankAccount{ID: r.ID, Entity: r.Entity, Name: r.Name, Balance: r.Balance})
	}

	book := ds.Projects
	for _, r := range f.Projects {
		book.Projects = append(book.Projects, &domain.Project{
			ID:            r.ID,
			Entity:        r.Entity,
			Name:          r.Name,
			Practice:      r.Practice,
			Type:          r.Type,
			Manager:       r.Manager,
			ContractValue: r.ContractValue,
			BudgetCost:    r.BudgetCost,
			BilledToDate:  r.BilledToDate,
			Start:         r.Start,
			End:           r.End,
			Status:        r.Status,
		})
	}
	for _, r := range f.Milestones {
		book.Milestones = append(book.Milestones, &domain.Milestone{
			ProjectID: r.ProjectID,
			Name:      r.Name,
			Planned:   r.Planned,
			Actual:    r.Actual,
			Billable:  r.Billable,
			Done:      r.Done,
		})
	}
	for _, r := range f.Resources {
		book.Resources = append(book.Resources, &domain.Resource{
			ID:       r.ID,
			Entity:   r.Entity,
			Name:     r.Name,
			Role:     r.Role,
			CostRate: r.CostRate,
			BillRate: r.BillRate,
		})
	}
	for _, r := range f.Assignments {
		book.Assignments = append(book.Assignments, &domain.Assignment{
			ResourceID:    r.ResourceID,
			ProjectID:     r.ProjectID,
			Start:         r.Start,
			End:           r.End,
			AllocationPct: r.AllocationPct,
		})
	}
	for _, r := range f.Timesheets {
		book.Timesheets = append(book.Timesheets, &domain.Timesheet{
			ID:         r.ID,
			ResourceID: r.ResourceID,
			ProjectID:  r.ProjectID,
			Date:       r.Date,
			Hours:      r.Hours,
			Note:       r.Note,
			Status:     r.Status,
			Billed:     r.Billed,
		})
	}
	for _, r := range f.Expenses {
		book.Expenses = append(book.Expenses, &domain.Expense{
			ID:         r.ID,
			ResourceID: r.ResourceID,
			ProjectID:  r.ProjectID,
			Date:       r.Date,
			Amount:     r.Amount,
			Category:   r.Category,
			Receipt:    r.Receipt,
			Status:     r.Status,
			Billed:     r.Billed,
		})
	}

	return ds, nil
}

// Entities returns the distinct asset entities in register order.
func (d *Dataset) Entities() []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range d.Assets {
		if !seen[a.Entity] {
			seen[a.Entity] = true
			out = append(out, a.Entity)
		}
	}
	return out
}
