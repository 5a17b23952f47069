package models

import (
	"context"
	"errors"
	"testing"

	"bitbucket.org/agencydesk/backoffice_backend/utils"
)

// The policy gate is evaluated before any store access, so a refused
// delete must come back as ErrorMutationRejected even with no database.
func TestDeleteRejectedWithoutDestructiveCapability(t *testing.T) {
	ctx := utils.SetAgencyIdToContext(context.Background(), "agency-1")
	caps := Capabilities{AllowDestructive: false}

	if _, err := DeleteBillingReportLink(ctx, 1, caps); !errors.Is(err, utils.ErrorMutationRejected) {
		t.Errorf("DeleteBillingReportLink: err = %v, want ErrorMutationRejected", err)
	}
	if _, err := DeleteCostReportLink(ctx, 1, caps); !errors.Is(err, utils.ErrorMutationRejected) {
		t.Errorf("DeleteCostReportLink: err = %v, want ErrorMutationRejected", err)
	}
}
