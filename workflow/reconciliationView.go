package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bitbucket.org/agencydesk/backoffice_backend/models"
	"bitbucket.org/agencydesk/backoffice_backend/querycache"
	"bitbucket.org/agencydesk/backoffice_backend/recon"
	"bitbucket.org/agencydesk/backoffice_backend/utils"
)

// EntityKind selects which side of the links a view is built for.
type EntityKind string

const (
	EntityKindReports  EntityKind = "reports"
	EntityKindBillings EntityKind = "billings"
	EntityKindCosts    EntityKind = "costs"
)

func ParseEntityKind(s string) (EntityKind, error) {
	switch EntityKind(s) {
	case EntityKindReports, EntityKindBillings, EntityKindCosts:
		return EntityKind(s), nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", s)
	}
}

// ViewQuery is the full parameter set of one view computation. The cache
// key is derived from it, so a late result keyed to an older parameter set
// can never be merged into a newer view.
type ViewQuery struct {
	Kind            EntityKind
	Filter          models.EntityQuery
	DisplayCurrency string
}

func (q ViewQuery) cacheKey(agencyId string) string {
	return querycache.Key(agencyId,
		string(q.Kind),
		fmtIntPtr(q.Filter.WorkspaceId),
		fmtTimePtr(q.Filter.DateFrom),
		fmtTimePtr(q.Filter.DateTo),
		q.DisplayCurrency,
	)
}

func fmtIntPtr(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

func fmtTimePtr(v *time.Time) string {
	if v == nil {
		return "-"
	}
	return v.Format("2006-01-02")
}

const viewCacheTTL = 5 * time.Minute

// BuildReconciliationView fetches the four inputs of a view build (entities
// with embedded raw links, workspaces, currency metadata, exchange rates)
// and runs the engine over the resolved snapshots. The fetches run
// concurrently and independently; the build starts only once all four have
// resolved. Computing on partial inputs would silently produce a wrong
// balance, so any fetch error aborts the build.
func BuildReconciliationView(ctx context.Context, query ViewQuery) (*recon.View, error) {
	agencyId, ok := utils.GetAgencyIdFromContext(ctx)
	if !ok || agencyId == "" {
		return nil, errors.New("agency id is required")
	}

	key := query.cacheKey(agencyId)
	var cached recon.View
	if querycache.GetView(ctx, key, &cached) {
		return &cached, nil
	}

	var (
		wg         sync.WaitGroup
		entities   []recon.EntitySnapshot
		side       recon.Side
		workspaces []recon.Workspace
		minorUnits map[string]int32
		rates      []recon.RatePair

		entitiesErr, workspacesErr, currenciesErr, ratesErr error
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		entities, side, entitiesErr = fetchEntities(ctx, query.Kind, query.Filter)
	}()
	go func() {
		defer wg.Done()
		var list []*models.Workspace
		list, workspacesErr = models.GetWorkspaces(ctx)
		for _, w := range list {
			workspaces = append(workspaces, w.ToRecon())
		}
	}()
	go func() {
		defer wg.Done()
		var list []*models.Currency
		list, currenciesErr = models.GetCurrencies(ctx)
		minorUnits = models.MinorUnitsByCode(list)
	}()
	go func() {
		defer wg.Done()
		rates, ratesErr = fetchRates(ctx, query.DisplayCurrency)
	}()
	wg.Wait()

	for _, err := range []error{entitiesErr, workspacesErr, currenciesErr, ratesErr} {
		if err != nil {
			return nil, err
		}
	}
	// Superseded request: the caller moved on, discard instead of caching
	// a result keyed to inputs nobody will read.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	view, err := recon.BuildView(recon.BuildInput{
		Entities:        entities,
		Side:            side,
		Workspaces:      workspaces,
		Rates:           rates,
		DisplayCurrency: query.DisplayCurrency,
		MinorUnits:      minorUnits,
	})
	if err != nil {
		return nil, err
	}

	querycache.SetView(ctx, agencyId, key, view, viewCacheTTL)
	return view, nil
}

func fetchEntities(ctx context.Context, kind EntityKind, filter models.EntityQuery) ([]recon.EntitySnapshot, recon.Side, error) {
	switch kind {
	case EntityKindReports:
		reports, err := models.GetReports(ctx, filter)
		if err != nil {
			return nil, "", err
		}
		snapshots := make([]recon.EntitySnapshot, 0, len(reports))
		for _, r := range reports {
			snapshots = append(snapshots, r.ToSnapshot())
		}
		return snapshots, recon.SideReport, nil

	case EntityKindBillings:
		billings, err := models.GetBillings(ctx, filter)
		if err != nil {
			return nil, "", err
		}
		snapshots := make([]recon.EntitySnapshot, 0, len(billings))
		for _, b := range billings {
			snapshots = append(snapshots, b.ToSnapshot())
		}
		return snapshots, recon.SideCounterpart, nil

	case EntityKindCosts:
		costs, err := models.GetCosts(ctx, filter)
		if err != nil {
			return nil, "", err
		}
		snapshots := make([]recon.EntitySnapshot, 0, len(costs))
		for _, c := range costs {
			snapshots = append(snapshots, c.ToSnapshot())
		}
		return snapshots, recon.SideCounterpart, nil

	default:
		return nil, "", fmt.Errorf("unknown entity kind %q", kind)
	}
}

// fetchRates asks for one rate per active currency against the display
// currency, deduplicated before the request. Missing quotes are fine: the
// engine reports the joint figure as unavailable, per-currency values stay.
func fetchRates(ctx context.Context, target string) ([]recon.RatePair, error) {
	currencies, err := models.GetCurrencies(ctx)
	if err != nil {
		return nil, err
	}
	values := make([]recon.CurrencyValue, 0, len(currencies))
	for _, c := range currencies {
		values = append(values, recon.CurrencyValue{Currency: c.Code})
	}
	pairs := recon.RequiredPairs(values, target)
	return models.GetExchangeRates(ctx, pairs)
}
