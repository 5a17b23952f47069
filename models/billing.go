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

// Billing is an invoice issued to a client. NetValue drives reconciliation;
// GrossValue is net plus tax and only shown, never matched against.
type Billing struct {
	ID            int                 `gorm:"primary_key" json:"id"`
	AgencyId      string              `gorm:"index;not null" json:"agency_id" binding:"required"`
	WorkspaceId   int                 `gorm:"index;not null" json:"workspace_id" binding:"required"`
	BillingNumber string              `gorm:"size:100;not null" json:"billing_number"`
	BillingDate   time.Time           `gorm:"index;not null" json:"billing_date" binding:"required"`
	NetValue      decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"net_value"`
	GrossValue    decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"gross_value"`
	Currency      string              `gorm:"size:3;not null" json:"currency" binding:"required"`
	Notes         string              `gorm:"size:500" json:"notes"`
	Links         []BillingReportLink `gorm:"foreignKey:BillingId" json:"links"`
	CreatedAt     time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b Billing) ToSnapshot() recon.EntitySnapshot {
	links := make([]recon.RawLink, 0, len(b.Links))
	for _, l := range b.Links {
		links = append(links, l.ToRaw())
	}
	return recon.EntitySnapshot{
		ID:          b.ID,
		Name:        b.BillingNumber,
		WorkspaceID: b.WorkspaceId,
		NetValue:    b.NetValue,
		Currency:    b.Currency,
		Links:       links,
	}
}

func GetBilling(ctx context.Context, id int) (*Billing, error) {
	agencyId, ok := utils.GetAgencyIdFromContext(ctx)
	if !ok || agencyId == "" {
		return nil, errors.New("agency id is required")
	}
	return utils.FetchModel[Billing](ctx, agencyId, id, "Links")
}

func GetBillings(ctx context.Context, query EntityQuery) ([]*Billing, error) {
	db := config.GetDB()
	var results []*Billing

	agencyId, ok := utils.GetAgencyIdFromContext(ctx)
	if !ok || agencyId == "" {
		return nil, errors.New("agency id is required")
	}

	dbCtx := db.WithContext(ctx).Where("agency_id = ?", agencyId)
	if query.WorkspaceId != nil && *query.WorkspaceId > 0 {
		dbCtx = dbCtx.Where("workspace_id = ?", query.WorkspaceId)
	}
	if query.DateFrom != nil {
		dbCtx = dbCtx.Where("billing_date >= ?", query.DateFrom)
	}
	if query.DateTo != nil {
		dbCtx = dbCtx.Where("billing_date <= ?", query.DateTo)
	}
	err := dbCtx.
		Preload("Links").
		Order("billing_date desc, id desc").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
