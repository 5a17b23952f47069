package middlewares

import (
	"context"

	"bitbucket.org/agencydesk/backoffice_backend/models"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type reportReader struct {
	db *gorm.DB
}

func (r *reportReader) getReports(ctx context.Context, ids []int) []*dataloader.Result[*models.Report] {
	var results []models.Report
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.Report](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

func GetReport(ctx context.Context, id int) (*models.Report, error) {
	loaders := For(ctx)
	return loaders.ReportLoader.Load(ctx, id)()
}

func GetReports(ctx context.Context, ids []int) ([]*models.Report, []error) {
	loaders := For(ctx)
	return loaders.ReportLoader.LoadMany(ctx, ids)()
}
