package recon

import "github.com/shopspring/decimal"

// Status classifies how much of an entity's net value is covered by links.
type Status string

const (
	StatusMatched          Status = "Matched"
	StatusPartiallyMatched Status = "PartiallyMatched"
	StatusUnmatched        Status = "Unmatched"
	StatusOvermatched      Status = "Overmatched"
)

// ReconciledEntity is the shape shared by reports, billings and costs as far
// as balance derivation is concerned.
type ReconciledEntity struct {
	ID       int
	NetValue decimal.Decimal
	Currency string
	Links    []Link
}

// BalanceResult is the derived matched/remaining state of one entity.
// matched + remaining == net value, exactly.
type BalanceResult struct {
	MatchedAmount   decimal.Decimal `json:"matched_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          Status          `json:"status"`
}

// AmountExtractor picks the side of a link relevant to the entity being
// evaluated (a report sums report amounts, a billing sums billing amounts).
// The calculator itself stays direction-agnostic.
type AmountExtractor func(Link) decimal.Decimal

// ReportAmount extracts the report side of any link.
func ReportAmount(l Link) decimal.Decimal {
	switch link := l.(type) {
	case ReconcileLink:
		return link.ReportAmount
	case ClarifyReportLink:
		return link.Amount
	default:
		return decimal.Zero
	}
}

// CounterpartAmount extracts the billing/cost side of any link.
func CounterpartAmount(l Link) decimal.Decimal {
	switch link := l.(type) {
	case ReconcileLink:
		return link.CounterpartAmount
	case ClarifyCounterpartLink:
		return link.Amount
	default:
		return decimal.Zero
	}
}

// ComputeBalance derives the matched amount, remaining amount and status for
// one entity. Status rules are evaluated in this exact order so that a
// zero-value entity with no remainder is Matched, not Unmatched:
//  1. remaining == 0            -> Matched
//  2. remaining > 0, matched >0 -> PartiallyMatched
//  3. remaining > 0, matched==0 -> Unmatched
//  4. remaining < 0             -> Overmatched
//
// Amounts are decimals; comparison is exact. Callers that feed rounded
// display values must round to the currency's minor unit before calling.
func ComputeBalance(entity ReconciledEntity, extract AmountExtractor) BalanceResult {
	matched := decimal.Zero
	for _, link := range entity.Links {
		matched = matched.Add(extract(link))
	}
	remaining := entity.NetValue.Sub(matched)

	var status Status
	switch {
	case remaining.IsZero():
		status = StatusMatched
	case remaining.IsPositive() && matched.IsPositive():
		status = StatusPartiallyMatched
	case remaining.IsPositive():
		status = StatusUnmatched
	default:
		status = StatusOvermatched
	}

	return BalanceResult{
		MatchedAmount:   matched,
		RemainingAmount: remaining,
		Status:          status,
	}
}
