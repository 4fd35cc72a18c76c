package domain

import "time"

// Event types
const (
	EventTypeDepreciationPosted = "journal.depreciation_posted"
	EventTypeDisposalPosted     = "journal.disposal_posted"
	EventTypePaymentsScheduled  = "payables.payments_scheduled"
	EventTypeBillingRun         = "projects.billing_run"
)

// Aggregate types
const (
	AggregateTypeJournalEntry = "journal_entry"
	AggregateTypePaymentBatch = "payment_batch"
	AggregateTypeBillingRun   = "billing_run"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}
