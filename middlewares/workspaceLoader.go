package middlewares

import (
	"context"

	"bitbucket.org/agencydesk/backoffice_backend/models"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type workspaceReader struct {
	db *gorm.DB
}

func (r *workspaceReader) getWorkspaces(ctx context.Context, ids []int) []*dataloader.Result[*models.Workspace] {
	var results []models.Workspace
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.Workspace](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

func GetWorkspace(ctx context.Context, id int) (*models.Workspace, error) {
	loaders := For(ctx)
	return loaders.WorkspaceLoader.Load(ctx, id)()
}

func GetWorkspaces(ctx context.Context, ids []int) ([]*models.Workspace, []error) {
	loaders := For(ctx)
	return loaders.WorkspaceLoader.LoadMany(ctx, ids)()
}
