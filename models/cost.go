package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/agencydesk/backoffice_backend/config"
	"bitbucket.org/agencydesk/backoffice_backend/recon"
	"bitbucket.org/agencydesk/backoffice_backend/utils"
	"github.com/shopspring/decimal"
)

// Cost is money paid out to a contractor or vendor.
type Cost struct {
	ID          int              `gorm:"primary_key" json:"id"`
	AgencyId    string           `gorm:"index;not null" json:"agency_id" binding:"required"`
	WorkspaceId int              `gorm:"index;not null" json:"workspace_id" binding:"required"`
	CostNumber  string           `gorm:"size:100;not null" json:"cost_number"`
	CostDate    time.Time        `gorm:"index;not null" json:"cost_date" binding:"required"`
	NetValue    decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"net_value"`
	Currency    string           `gorm:"size:3;not null" json:"currency" binding:"required"`
	Payee       string           `gorm:"size:255" json:"payee"`
	Notes       string           `gorm:"size:500" json:"notes"`
	Links       []CostReportLink `gorm:"foreignKey:CostId" json:"links"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c Cost) ToSnapshot() recon.EntitySnapshot {
	links := make([]recon.RawLink, 0, len(c.Links))
	for _, l := range c.Links {
		links = append(links, l.ToRaw())
	}
	return recon.EntitySnapshot{
		ID:          c.ID,
		Name:        c.CostNumber,
		WorkspaceID: c.WorkspaceId,
		NetValue:    c.NetValue,
		Currency:    c.Currency,
		Links:       links,
	}
}

func GetCost(ctx context.Context, id int) (*Cost, error) {
	agencyId, ok := utils.GetAgencyIdFromContext(ctx)
	if !ok || agencyId == "" {
		return nil, errors.New("agency id is required")
	}
	return utils.FetchModel[Cost](ctx, agencyId, id, "Links")
}

func GetCosts(ctx context.Context, query EntityQuery) ([]*Cost, error) {
	db := config.GetDB()
	var results []*Cost

	agencyId, ok := utils.GetAgencyIdFromContext(ctx)
	if !ok || agencyId == "" {
		return nil, errors.New("agency id is required")
	}

	dbCtx := db.WithContext(ctx).Where("agency_id = ?", agencyId)
	if query.WorkspaceId != nil && *query.WorkspaceId > 0 {
		dbCtx = dbCtx.Where("workspace_id = ?", query.WorkspaceId)
	}
	if query.DateFrom != nil {
		dbCtx = dbCtx.Where("cost_date >= ?", query.DateFrom)
	}
	if query.DateTo != nil {
		dbCtx = dbCtx.Where("cost_date <= ?", query.DateTo)
	}
	err := dbCtx.
		Preload("Links").
		Order("cost_date desc, id desc").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
