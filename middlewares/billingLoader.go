package middlewares

import (
	"context"

	"bitbucket.org/agencydesk/backoffice_backend/models"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type billingReader struct {
	db *gorm.DB
}

func (r *billingReader) getBillings(ctx context.Context, ids []int) []*dataloader.Result[*models.Billing] {
	var results []models.Billing
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.Billing](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

func GetBilling(ctx context.Context, id int) (*models.Billing, error) {
	loaders := For(ctx)
	return loaders.BillingLoader.Load(ctx, id)()
}

func GetBillings(ctx context.Context, ids []int) ([]*models.Billing, []error) {
	loaders := For(ctx)
	return loaders.BillingLoader.LoadMany(ctx, ids)()
}
