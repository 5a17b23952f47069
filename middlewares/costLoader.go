package middlewares

import (
	"context"

	"bitbucket.org/agencydesk/backoffice_backend/models"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type costReader struct {
	db *gorm.DB
}

func (r *costReader) getCosts(ctx context.Context, ids []int) []*dataloader.Result[*models.Cost] {
	var results []models.Cost
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.Cost](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

func GetCost(ctx context.Context, id int) (*models.Cost, error) {
	loaders := For(ctx)
	return loaders.CostLoader.Load(ctx, id)()
}

func GetCosts(ctx context.Context, ids []int) ([]*models.Cost, []error) {
	loaders := For(ctx)
	return loaders.CostLoader.LoadMany(ctx, ids)()
}
