package recon

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LinkScope says which kind of counterpart a link ties a report to.
type LinkScope string

const (
	LinkScopeBilling LinkScope = "Billing"
	LinkScopeCost    LinkScope = "Cost"
)

// RawLink is the storage-boundary shape of a link record: a flat row with
// mutually exclusive nullable foreign keys. It never travels past
// ClassifyLink; everything downstream works on the typed Link variants.
//
// For billing<->report links the counterpart side is the billing; for
// cost<->report links it is the cost.
type RawLink struct {
	ID                int
	CreatedAt         time.Time
	Scope             LinkScope
	CounterpartID     *int
	ReportID          *int
	CounterpartAmount *decimal.Decimal
	ReportAmount      *decimal.Decimal
	Description       *string
}

// InvalidLinkError marks a link record that cannot be classified. This is
// corrupt upstream data: it is surfaced, never silently dropped, and a view
// build that hits one fails as a whole.
type InvalidLinkError struct {
	LinkID int
	Reason string
}

func (e *InvalidLinkError) Error() string {
	return fmt.Sprintf("invalid link %d: %s", e.LinkID, e.Reason)
}

// Link is the classified form of a RawLink.
type Link interface {
	linkKind() string
}

// ReconcileLink ties a specific report amount to a specific counterpart
// amount. Both sides are present.
type ReconcileLink struct {
	ID                int
	CreatedAt         time.Time
	Scope             LinkScope
	CounterpartID     int
	ReportID          int
	CounterpartAmount decimal.Decimal
	ReportAmount      decimal.Decimal
	Description       string
}

// ClarifyCounterpartLink explains why a billing/cost amount will never be
// matched by a report. Description is mandatory: it records why the gap is
// not a real debt.
type ClarifyCounterpartLink struct {
	ID            int
	CreatedAt     time.Time
	Scope         LinkScope
	CounterpartID int
	Amount        decimal.Decimal
	Description   string
}

// ClarifyReportLink is the report-sided clarification.
type ClarifyReportLink struct {
	ID          int
	CreatedAt   time.Time
	Scope       LinkScope
	ReportID    int
	Amount      decimal.Decimal
	Description string
}

func (ReconcileLink) linkKind() string          { return "reconcile" }
func (ClarifyCounterpartLink) linkKind() string { return "clarify_counterpart" }
func (ClarifyReportLink) linkKind() string      { return "clarify_report" }

// ClassifyLink turns a raw nullable-column record into a typed Link.
// Priority order, first match wins:
//  1. both ids present -> ReconcileLink (both amounts required)
//  2. counterpart id only -> ClarifyCounterpartLink (description + amount)
//  3. report id only -> ClarifyReportLink (description + amount)
//  4. neither -> InvalidLinkError
func ClassifyLink(raw RawLink) (Link, error) {
	switch {
	case raw.CounterpartID != nil && raw.ReportID != nil:
		if raw.CounterpartAmount == nil {
			return nil, &InvalidLinkError{LinkID: raw.ID, Reason: missingField(raw.Scope, "Amount")}
		}
		if raw.ReportAmount == nil {
			return nil, &InvalidLinkError{LinkID: raw.ID, Reason: "missing ReportAmount"}
		}
		return ReconcileLink{
			ID:                raw.ID,
			CreatedAt:         raw.CreatedAt,
			Scope:             raw.Scope,
			CounterpartID:     *raw.CounterpartID,
			ReportID:          *raw.ReportID,
			CounterpartAmount: *raw.CounterpartAmount,
			ReportAmount:      *raw.ReportAmount,
			Description:       deref(raw.Description),
		}, nil

	case raw.CounterpartID != nil:
		if raw.Description == nil || *raw.Description == "" {
			return nil, &InvalidLinkError{LinkID: raw.ID, Reason: "clarification requires a description"}
		}
		if raw.CounterpartAmount == nil {
			return nil, &InvalidLinkError{LinkID: raw.ID, Reason: missingField(raw.Scope, "Amount")}
		}
		return ClarifyCounterpartLink{
			ID:            raw.ID,
			CreatedAt:     raw.CreatedAt,
			Scope:         raw.Scope,
			CounterpartID: *raw.CounterpartID,
			Amount:        *raw.CounterpartAmount,
			Description:   *raw.Description,
		}, nil

	case raw.ReportID != nil:
		if raw.Description == nil || *raw.Description == "" {
			return nil, &InvalidLinkError{LinkID: raw.ID, Reason: "clarification requires a description"}
		}
		if raw.ReportAmount == nil {
			return nil, &InvalidLinkError{LinkID: raw.ID, Reason: "missing ReportAmount"}
		}
		return ClarifyReportLink{
			ID:          raw.ID,
			CreatedAt:   raw.CreatedAt,
			Scope:       raw.Scope,
			ReportID:    *raw.ReportID,
			Amount:      *raw.ReportAmount,
			Description: *raw.Description,
		}, nil

	default:
		return nil, &InvalidLinkError{LinkID: raw.ID, Reason: counterpartName(raw.Scope)}
	}
}

func missingField(scope LinkScope, suffix string) string {
	if scope == LinkScopeCost {
		return "missing Cost" + suffix
	}
	return "missing Billing" + suffix
}

func counterpartName(scope LinkScope) string {
	if scope == LinkScopeCost {
		return "link has neither cost nor report reference"
	}
	return "link has neither billing nor report reference"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
