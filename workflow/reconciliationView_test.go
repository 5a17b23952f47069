package workflow

import (
	"testing"
	"time"

	"bitbucket.org/agencydesk/backoffice_backend/models"
	"bitbucket.org/agencydesk/backoffice_backend/utils"
)

func TestParseEntityKind(t *testing.T) {
	for _, s := range []string{"reports", "billings", "costs"} {
		kind, err := ParseEntityKind(s)
		if err != nil {
			t.Errorf("ParseEntityKind(%q): %v", s, err)
		}
		if string(kind) != s {
			t.Errorf("ParseEntityKind(%q) = %q", s, kind)
		}
	}
	for _, s := range []string{"", "report", "Billings", "invoices"} {
		if _, err := ParseEntityKind(s); err == nil {
			t.Errorf("ParseEntityKind(%q): expected error", s)
		}
	}
}

// Every parameter that changes the result set must change the cache key,
// otherwise a stale view leaks across queries.
func TestCacheKeyCoversAllQueryParameters(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	base := ViewQuery{Kind: EntityKindReports, DisplayCurrency: "USD"}

	variants := []ViewQuery{
		{Kind: EntityKindBillings, DisplayCurrency: "USD"},
		{Kind: EntityKindReports, DisplayCurrency: "EUR"},
		{Kind: EntityKindReports, DisplayCurrency: "USD",
			Filter: models.EntityQuery{WorkspaceId: utils.IntPtr(3)}},
		{Kind: EntityKindReports, DisplayCurrency: "USD",
			Filter: models.EntityQuery{DateFrom: &from}},
		{Kind: EntityKindReports, DisplayCurrency: "USD",
			Filter: models.EntityQuery{DateTo: &from}},
	}

	baseKey := base.cacheKey("agency-1")
	seen := map[string]bool{baseKey: true}
	for i, q := range variants {
		key := q.cacheKey("agency-1")
		if seen[key] {
			t.Errorf("variant %d: key %q collides", i, key)
		}
		seen[key] = true
	}

	if base.cacheKey("agency-2") == baseKey {
		t.Error("keys must differ per agency")
	}
}
