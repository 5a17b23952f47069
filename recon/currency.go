package recon

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyValue is an amount in a single currency. Immutable value type;
// currency codes are compared case-insensitively and emitted upper-cased.
type CurrencyValue struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// CurrencyValueGroup holds one summed value per distinct currency plus an
// approximate joint total in the caller's display currency.
// ApproximatedJointValue is nil when at least one source currency has no
// known rate to the target; callers show per-currency values only.
type CurrencyValueGroup struct {
	Values                 []CurrencyValue `json:"values"`
	ApproximatedJointValue *CurrencyValue  `json:"approximated_joint_value"`
}

// RatePair is one exchange rate as fetched from the rate source.
type RatePair struct {
	From string          `json:"from"`
	To   string          `json:"to"`
	Rate decimal.Decimal `json:"rate"`
}

// GroupByCurrency sums the inputs into one entry per distinct currency.
// Output order is first-seen order so repeated builds over equal inputs
// produce equal groups.
func GroupByCurrency(values []CurrencyValue) []CurrencyValue {
	sums := make(map[string]decimal.Decimal)
	var order []string
	for _, v := range values {
		code := normalizeCurrency(v.Currency)
		if _, ok := sums[code]; !ok {
			order = append(order, code)
		}
		sums[code] = sums[code].Add(v.Amount)
	}

	grouped := make([]CurrencyValue, 0, len(order))
	for _, code := range order {
		grouped = append(grouped, CurrencyValue{Amount: sums[code], Currency: code})
	}
	return grouped
}

// Approximate converts a grouped set of values into a single target-currency
// figure. The rate of a currency to itself is 1 and needs no lookup.
// Returns nil when any required rate is missing; that is a soft condition,
// not an error, so the per-currency values stay usable.
func Approximate(group []CurrencyValue, target string, rates []RatePair) *CurrencyValue {
	target = normalizeCurrency(target)

	// Single-currency fast path: the literal value, no rate math at all.
	if len(group) == 1 && strings.EqualFold(group[0].Currency, target) {
		return &CurrencyValue{Amount: group[0].Amount, Currency: target}
	}

	total := decimal.Zero
	for _, v := range group {
		code := normalizeCurrency(v.Currency)
		if code == target {
			total = total.Add(v.Amount)
			continue
		}
		rate, ok := rateFor(code, target, rates)
		if !ok {
			return nil
		}
		total = total.Add(v.Amount.Mul(rate))
	}
	return &CurrencyValue{Amount: total, Currency: target}
}

// AggregateGroup is the grouping and approximation in one step.
func AggregateGroup(values []CurrencyValue, target string, rates []RatePair) CurrencyValueGroup {
	grouped := GroupByCurrency(values)
	return CurrencyValueGroup{
		Values:                 grouped,
		ApproximatedJointValue: Approximate(grouped, target, rates),
	}
}

func normalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func rateFor(from, to string, rates []RatePair) (decimal.Decimal, bool) {
	if strings.EqualFold(from, to) {
		return decimal.NewFromInt(1), true
	}
	for _, r := range rates {
		if strings.EqualFold(r.From, from) && strings.EqualFold(r.To, to) {
			return r.Rate, true
		}
	}
	return decimal.Decimal{}, false
}

// RequiredPairs lists the distinct from->to pairs a group needs so the rate
// source can be queried once, deduplicated. Same-currency pairs are skipped.
func RequiredPairs(values []CurrencyValue, target string) [][2]string {
	target = normalizeCurrency(target)
	seen := make(map[string]bool)
	var pairs [][2]string
	for _, v := range values {
		code := normalizeCurrency(v.Currency)
		if code == target || seen[code] {
			continue
		}
		seen[code] = true
		pairs = append(pairs, [2]string{code, target})
	}
	return pairs
}
