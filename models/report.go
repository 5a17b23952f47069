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

// Report is a record of contractor work performed.
type Report struct {
	ID           int                 `gorm:"primary_key" json:"id"`
	AgencyId     string              `gorm:"index;not null" json:"agency_id" binding:"required"`
	WorkspaceId  int                 `gorm:"index;not null" json:"workspace_id" binding:"required"`
	ReportNumber string              `gorm:"size:100;not null" json:"report_number"`
	ReportDate   time.Time           `gorm:"index;not null" json:"report_date" binding:"required"`
	NetValue     decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"net_value"`
	Currency     string              `gorm:"size:3;not null" json:"currency" binding:"required"`
	Notes        string              `gorm:"size:500" json:"notes"`
	BillingLinks []BillingReportLink `gorm:"foreignKey:ReportId" json:"billing_links"`
	CostLinks    []CostReportLink    `gorm:"foreignKey:ReportId" json:"cost_links"`
	CreatedAt    time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

// EntityQuery narrows a source fetch. The cache key for a built view is
// derived from it, so every field that changes the result set must be here.
type EntityQuery struct {
	WorkspaceId *int       `form:"workspace_id" json:"workspace_id"`
	DateFrom    *time.Time `form:"date_from" json:"date_from" time_format:"2006-01-02"`
	DateTo      *time.Time `form:"date_to" json:"date_to" time_format:"2006-01-02"`
}

// ToSnapshot flattens a report and its raw links for the engine. Billing
// and cost links both attribute report-side amounts to the report.
func (r Report) ToSnapshot() recon.EntitySnapshot {
	links := make([]recon.RawLink, 0, len(r.BillingLinks)+len(r.CostLinks))
	for _, l := range r.BillingLinks {
		links = append(links, l.ToRaw())
	}
	for _, l := range r.CostLinks {
		links = append(links, l.ToRaw())
	}
	return recon.EntitySnapshot{
		ID:          r.ID,
		Name:        r.ReportNumber,
		WorkspaceID: r.WorkspaceId,
		NetValue:    r.NetValue,
		Currency:    r.Currency,
		Links:       links,
	}
}

func GetReport(ctx context.Context, id int) (*Report, error) {
	agencyId, ok := utils.GetAgencyIdFromContext(ctx)
	if !ok || agencyId == "" {
		return nil, errors.New("agency id is required")
	}
	return utils.FetchModel[Report](ctx, agencyId, id, "BillingLinks", "CostLinks")
}

func GetReports(ctx context.Context, query EntityQuery) ([]*Report, error) {
	db := config.GetDB()
	var results []*Report

	agencyId, ok := utils.GetAgencyIdFromContext(ctx)
	if !ok || agencyId == "" {
		return nil, errors.New("agency id is required")
	}

	dbCtx := db.WithContext(ctx).Where("agency_id = ?", agencyId)
	if query.WorkspaceId != nil && *query.WorkspaceId > 0 {
		dbCtx = dbCtx.Where("workspace_id = ?", query.WorkspaceId)
	}
	if query.DateFrom != nil {
		dbCtx = dbCtx.Where("report_date >= ?", query.DateFrom)
	}
	if query.DateTo != nil {
		dbCtx = dbCtx.Where("report_date <= ?", query.DateTo)
	}
	err := dbCtx.
		Preload("BillingLinks").
		Preload("CostLinks").
		Order("report_date desc, id desc").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
