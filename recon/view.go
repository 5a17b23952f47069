package recon

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Side says which side of the links an entity sits on.
type Side string

const (
	SideReport      Side = "Report"
	SideCounterpart Side = "Counterpart"
)

// EntitySnapshot is one fetched report/billing/cost with its raw link
// records embedded, exactly as the sources return it.
type EntitySnapshot struct {
	ID          int
	Name        string
	WorkspaceID int
	NetValue    decimal.Decimal
	Currency    string
	Links       []RawLink
}

// Workspace is the metadata attached to every view entry.
type Workspace struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MissingWorkspaceError means an entity references a workspace id that the
// workspace source did not return. Referential-integrity bug upstream; the
// whole view build fails.
type MissingWorkspaceError struct {
	EntityID    int
	WorkspaceID int
}

func (e *MissingWorkspaceError) Error() string {
	return fmt.Sprintf("entity %d references missing workspace %d", e.EntityID, e.WorkspaceID)
}

// CounterpartSummary is the other side of a reconcile link, carried on the
// entry so the caller can show what covered what.
type CounterpartSummary struct {
	LinkID        int             `json:"link_id"`
	Scope         LinkScope       `json:"scope"`
	CounterpartID int             `json:"counterpart_id"`
	ReportID      int             `json:"report_id"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description,omitempty"`
}

// ViewEntry is a read-only projection of one entity: its balance, its
// workspace and its reconcile counterparts. Entries are created fresh on
// every build and superseded wholesale when any input changes.
type ViewEntry struct {
	EntityID     int                  `json:"entity_id"`
	EntityName   string               `json:"entity_name"`
	NetValue     decimal.Decimal      `json:"net_value"`
	Currency     string               `json:"currency"`
	Balance      BalanceResult        `json:"balance"`
	Workspace    Workspace            `json:"workspace"`
	Counterparts []CounterpartSummary `json:"counterparts"`
}

// View is the full build output for one entity kind: the per-entity entries
// plus multi-currency totals approximated into the display currency.
type View struct {
	Entries         []ViewEntry        `json:"entries"`
	NetTotal        CurrencyValueGroup `json:"net_total"`
	MatchedTotal    CurrencyValueGroup `json:"matched_total"`
	RemainingTotal  CurrencyValueGroup `json:"remaining_total"`
	DisplayCurrency string             `json:"display_currency"`
}

// BuildInput carries the four resolved inputs of a view build. The builder
// is a pure function of this struct: deep-equal inputs yield deep-equal
// output, which is what makes memoized recomputation safe.
type BuildInput struct {
	Entities        []EntitySnapshot
	Side            Side
	Workspaces      []Workspace
	Rates           []RatePair
	DisplayCurrency string
	// MinorUnits maps upper-cased currency codes to their minor-unit digits
	// for display rounding. Unknown currencies round to 2.
	MinorUnits map[string]int32
}

// BuildView classifies every raw link, derives every entity's balance,
// attaches workspaces and aggregates totals. A single invalid link or
// missing workspace aborts the whole build; a partial, silently-dropped
// reconciliation state is worse than a visible error.
func BuildView(input BuildInput) (*View, error) {
	extract := ReportAmount
	if input.Side == SideCounterpart {
		extract = CounterpartAmount
	}

	workspaceByID := make(map[int]Workspace, len(input.Workspaces))
	for _, w := range input.Workspaces {
		workspaceByID[w.ID] = w
	}

	entries := make([]ViewEntry, 0, len(input.Entities))
	var netValues, matchedValues, remainingValues []CurrencyValue

	for _, entity := range input.Entities {
		links := make([]Link, 0, len(entity.Links))
		var counterparts []CounterpartSummary
		for _, raw := range entity.Links {
			link, err := ClassifyLink(raw)
			if err != nil {
				return nil, err
			}
			if !linkBelongsTo(link, entity.ID, input.Side) {
				continue
			}
			links = append(links, link)
			if rl, ok := link.(ReconcileLink); ok {
				counterparts = append(counterparts, CounterpartSummary{
					LinkID:        rl.ID,
					Scope:         rl.Scope,
					CounterpartID: rl.CounterpartID,
					ReportID:      rl.ReportID,
					Amount:        extract(link),
					Description:   rl.Description,
				})
			}
		}

		workspace, ok := workspaceByID[entity.WorkspaceID]
		if !ok {
			return nil, &MissingWorkspaceError{EntityID: entity.ID, WorkspaceID: entity.WorkspaceID}
		}

		balance := ComputeBalance(ReconciledEntity{
			ID:       entity.ID,
			NetValue: entity.NetValue,
			Currency: entity.Currency,
			Links:    links,
		}, extract)

		places := minorUnit(input.MinorUnits, entity.Currency)
		entries = append(entries, ViewEntry{
			EntityID:   entity.ID,
			EntityName: entity.Name,
			NetValue:   entity.NetValue.Round(places),
			Currency:   entity.Currency,
			Balance: BalanceResult{
				MatchedAmount:   balance.MatchedAmount.Round(places),
				RemainingAmount: balance.RemainingAmount.Round(places),
				Status:          balance.Status,
			},
			Workspace:    workspace,
			Counterparts: counterparts,
		})

		netValues = append(netValues, CurrencyValue{Amount: entity.NetValue, Currency: entity.Currency})
		matchedValues = append(matchedValues, CurrencyValue{Amount: balance.MatchedAmount, Currency: entity.Currency})
		remainingValues = append(remainingValues, CurrencyValue{Amount: balance.RemainingAmount, Currency: entity.Currency})
	}

	view := &View{
		Entries:         entries,
		NetTotal:        roundedGroup(netValues, input.DisplayCurrency, input.Rates, input.MinorUnits),
		MatchedTotal:    roundedGroup(matchedValues, input.DisplayCurrency, input.Rates, input.MinorUnits),
		RemainingTotal:  roundedGroup(remainingValues, input.DisplayCurrency, input.Rates, input.MinorUnits),
		DisplayCurrency: input.DisplayCurrency,
	}
	return view, nil
}

// linkBelongsTo checks the entity id against the link's relevant foreign
// key. Embedded links should always belong to their entity; a mismatched
// row is simply not this entity's link.
func linkBelongsTo(link Link, entityID int, side Side) bool {
	switch l := link.(type) {
	case ReconcileLink:
		if side == SideReport {
			return l.ReportID == entityID
		}
		return l.CounterpartID == entityID
	case ClarifyCounterpartLink:
		return side == SideCounterpart && l.CounterpartID == entityID
	case ClarifyReportLink:
		return side == SideReport && l.ReportID == entityID
	default:
		return false
	}
}

func roundedGroup(values []CurrencyValue, target string, rates []RatePair, minorUnits map[string]int32) CurrencyValueGroup {
	group := AggregateGroup(values, target, rates)
	for i := range group.Values {
		group.Values[i].Amount = group.Values[i].Amount.Round(minorUnit(minorUnits, group.Values[i].Currency))
	}
	if group.ApproximatedJointValue != nil {
		joint := *group.ApproximatedJointValue
		joint.Amount = joint.Amount.Round(minorUnit(minorUnits, joint.Currency))
		group.ApproximatedJointValue = &joint
	}
	return group
}

func minorUnit(minorUnits map[string]int32, currency string) int32 {
	if places, ok := minorUnits[normalizeCurrency(currency)]; ok {
		return places
	}
	return 2
}
