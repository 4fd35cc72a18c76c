package domain

import "errors"

var (
	// Calendar errors
	ErrInvalidPeriod       = errors.New("invalid period")
	ErrInvalidPeriodFormat = errors.New("invalid period format")
	ErrInvalidQuarter      = errors.New("invalid quarter format")

	// Asset errors
	ErrAssetNotFound   = errors.New("asset not found")
	ErrInvalidAsset    = errors.New("invalid asset")
	ErrUnknownMethod   = errors.New("unknown depreciation method")
	ErrUnknownCurrency = errors.New("no conversion rate for currency")
	ErrInvalidDisposal = errors.New("invalid disposal")
	ErrNoDisposal      = errors.New("asset has no disposal on or before period")

	// Posting errors
	ErrAlreadyPosted        = errors.New("already posted")
	ErrNothingToPost        = errors.New("nothing to post")
	ErrUnbalancedEntry      = errors.New("journal entry debits do not equal credits")
	ErrJournalEntryNotFound = errors.New("journal entry not found")

	// Payables errors
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrVendorNotFound      = errors.New("vendor not found")
	ErrBankNotFound        = errors.New("bank account not found")
	ErrNoSelection         = errors.New("no items selected")
	ErrNothingToSchedule   = errors.New("only approved invoices can be scheduled")
	ErrInsufficientBalance = errors.New("insufficient bank balance")

	// Projects errors
	ErrProjectNotFound   = errors.New("project not found")
	ErrTimesheetNotFound = errors.New("timesheet not found")
	ErrExpenseNotFound   = errors.New("expense not found")
)
