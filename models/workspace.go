package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/agencydesk/backoffice_backend/config"
	"bitbucket.org/agencydesk/backoffice_backend/recon"
	"bitbucket.org/agencydesk/backoffice_backend/utils"
)

// Workspace is one client engagement: reports, billings and costs all hang
// off a workspace.
type Workspace struct {
	ID        int       `gorm:"primary_key" json:"id"`
	AgencyId  string    `gorm:"index;not null" json:"agency_id" binding:"required"`
	Name      string    `gorm:"size:255;not null" json:"name" binding:"required"`
	IsActive  *bool     `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (w Workspace) ToRecon() recon.Workspace {
	return recon.Workspace{ID: w.ID, Name: w.Name}
}

func GetWorkspace(ctx context.Context, id int) (*Workspace, error) {
	agencyId, ok := utils.GetAgencyIdFromContext(ctx)
	if !ok || agencyId == "" {
		return nil, errors.New("agency id is required")
	}
	return utils.FetchModel[Workspace](ctx, agencyId, id)
}

func GetWorkspaces(ctx context.Context) ([]*Workspace, error) {
	db := config.GetDB()
	var results []*Workspace

	agencyId, ok := utils.GetAgencyIdFromContext(ctx)
	if !ok || agencyId == "" {
		return nil, errors.New("agency id is required")
	}

	err := db.WithContext(ctx).
		Where("agency_id = ?", agencyId).
		Order("name").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
