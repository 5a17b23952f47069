// seed-demo fills an empty database with a small demo agency so the
// reconciliation views have something to show during local development.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-demo
//
// Seeding is idempotent: rows are matched by their document number and
// only created when missing. Links are written with plain inserts so the
// command works without a Redis instance.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"bitbucket.org/agencydesk/backoffice_backend/config"
	"bitbucket.org/agencydesk/backoffice_backend/models"
	"bitbucket.org/agencydesk/backoffice_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const demoAgencyId = "demo-agency"

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	ctx = utils.SetAgencyIdToContext(ctx, demoAgencyId)
	ctx = utils.SetUserIdToContext(ctx, 1)
	ctx = utils.SetCorrelationIdToContext(ctx, "seed-demo")

	models.MigrateTable()

	wsProduction := seedWorkspace(ctx, db, "Production")
	wsPost := seedWorkspace(ctx, db, "Post & Delivery")

	seedCurrency(ctx, db, "USD", "US Dollar", 2)
	seedCurrency(ctx, db, "EUR", "Euro", 2)
	seedCurrency(ctx, db, "JPY", "Japanese Yen", 0)

	seedRate(ctx, db, "EUR", "USD", "1.08")
	seedRate(ctx, db, "JPY", "USD", "0.0068")

	report1 := seedReport(ctx, db, "RPT-2026-001", wsProduction.ID, "150", "USD")
	report2 := seedReport(ctx, db, "RPT-2026-002", wsProduction.ID, "90", "EUR")
	report3 := seedReport(ctx, db, "RPT-2026-003", wsPost.ID, "12000", "JPY")

	billing1 := seedBilling(ctx, db, "INV-2026-010", wsProduction.ID, "150", "USD")
	billing2 := seedBilling(ctx, db, "INV-2026-011", wsProduction.ID, "200", "EUR")

	cost1 := seedCost(ctx, db, "COST-2026-005", wsPost.ID, "12000", "JPY", "Tokyo Post KK")

	// A fully matched pair, a partial match and a clarification, so every
	// status shows up in the demo views.
	seedBillingLink(ctx, db, models.BillingReportLink{
		AgencyId:      demoAgencyId,
		BillingId:     &billing1.ID,
		ReportId:      &report1.ID,
		BillingAmount: utils.DecimalPtr(decimal.RequireFromString("150")),
		ReportAmount:  utils.DecimalPtr(decimal.RequireFromString("150")),
		CorrelationId: "seed-demo",
	})
	seedBillingLink(ctx, db, models.BillingReportLink{
		AgencyId:      demoAgencyId,
		BillingId:     &billing2.ID,
		ReportId:      &report2.ID,
		BillingAmount: utils.DecimalPtr(decimal.RequireFromString("90")),
		ReportAmount:  utils.DecimalPtr(decimal.RequireFromString("90")),
		CorrelationId: "seed-demo",
	})
	seedBillingLink(ctx, db, models.BillingReportLink{
		AgencyId:      demoAgencyId,
		ReportId:      &report3.ID,
		ReportAmount:  utils.DecimalPtr(decimal.RequireFromString("12000")),
		Description:   utils.StringPtr("billed outside the system"),
		CorrelationId: "seed-demo",
	})
	seedCostLink(ctx, db, models.CostReportLink{
		AgencyId:      demoAgencyId,
		CostId:        &cost1.ID,
		ReportId:      &report3.ID,
		CostAmount:    utils.DecimalPtr(decimal.RequireFromString("8000")),
		ReportAmount:  utils.DecimalPtr(decimal.RequireFromString("8000")),
		CorrelationId: "seed-demo",
	})

	fmt.Println("demo agency seeded:", demoAgencyId)
}

func seedWorkspace(ctx context.Context, db *gorm.DB, name string) *models.Workspace {
	ws := models.Workspace{AgencyId: demoAgencyId, Name: name}
	if err := db.WithContext(ctx).Where(models.Workspace{AgencyId: demoAgencyId, Name: name}).FirstOrCreate(&ws).Error; err != nil {
		fatal("workspace", err)
	}
	return &ws
}

func seedCurrency(ctx context.Context, db *gorm.DB, code, name string, minorUnits int32) {
	cur := models.Currency{AgencyId: demoAgencyId, Code: code, Name: name, DecimalPlaces: minorUnits, IsActive: utils.NewTrue()}
	if err := db.WithContext(ctx).Where(models.Currency{AgencyId: demoAgencyId, Code: code}).FirstOrCreate(&cur).Error; err != nil {
		fatal("currency", err)
	}
}

func seedRate(ctx context.Context, db *gorm.DB, from, to, rate string) {
	r := models.ExchangeRate{
		AgencyId:     demoAgencyId,
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         decimal.RequireFromString(rate),
		RateDate:     time.Now(),
	}
	if err := db.WithContext(ctx).Where(models.ExchangeRate{AgencyId: demoAgencyId, FromCurrency: from, ToCurrency: to}).FirstOrCreate(&r).Error; err != nil {
		fatal("exchange rate", err)
	}
}

func seedReport(ctx context.Context, db *gorm.DB, number string, workspaceId int, net, currency string) *models.Report {
	r := models.Report{
		AgencyId:     demoAgencyId,
		WorkspaceId:  workspaceId,
		ReportNumber: number,
		ReportDate:   time.Now(),
		NetValue:     decimal.RequireFromString(net),
		Currency:     currency,
	}
	if err := db.WithContext(ctx).Where(models.Report{AgencyId: demoAgencyId, ReportNumber: number}).FirstOrCreate(&r).Error; err != nil {
		fatal("report", err)
	}
	return &r
}

func seedBilling(ctx context.Context, db *gorm.DB, number string, workspaceId int, net, currency string) *models.Billing {
	b := models.Billing{
		AgencyId:      demoAgencyId,
		WorkspaceId:   workspaceId,
		BillingNumber: number,
		BillingDate:   time.Now(),
		NetValue:      decimal.RequireFromString(net),
		GrossValue:    decimal.RequireFromString(net),
		Currency:      currency,
	}
	if err := db.WithContext(ctx).Where(models.Billing{AgencyId: demoAgencyId, BillingNumber: number}).FirstOrCreate(&b).Error; err != nil {
		fatal("billing", err)
	}
	return &b
}

func seedCost(ctx context.Context, db *gorm.DB, number string, workspaceId int, net, currency, payee string) *models.Cost {
	c := models.Cost{
		AgencyId:    demoAgencyId,
		WorkspaceId: workspaceId,
		CostNumber:  number,
		CostDate:    time.Now(),
		NetValue:    decimal.RequireFromString(net),
		Currency:    currency,
		Payee:       payee,
	}
	if err := db.WithContext(ctx).Where(models.Cost{AgencyId: demoAgencyId, CostNumber: number}).FirstOrCreate(&c).Error; err != nil {
		fatal("cost", err)
	}
	return &c
}

func seedBillingLink(ctx context.Context, db *gorm.DB, link models.BillingReportLink) {
	query := db.WithContext(ctx).Where("agency_id = ?", link.AgencyId)
	query = whereNullableInt(query, "billing_id", link.BillingId)
	query = whereNullableInt(query, "report_id", link.ReportId)
	var existing models.BillingReportLink
	if err := query.First(&existing).Error; err == nil {
		return
	}
	if err := db.WithContext(ctx).Create(&link).Error; err != nil {
		fatal("billing link", err)
	}
}

func seedCostLink(ctx context.Context, db *gorm.DB, link models.CostReportLink) {
	query := db.WithContext(ctx).Where("agency_id = ?", link.AgencyId)
	query = whereNullableInt(query, "cost_id", link.CostId)
	query = whereNullableInt(query, "report_id", link.ReportId)
	var existing models.CostReportLink
	if err := query.First(&existing).Error; err == nil {
		return
	}
	if err := db.WithContext(ctx).Create(&link).Error; err != nil {
		fatal("cost link", err)
	}
}

func whereNullableInt(query *gorm.DB, column string, v *int) *gorm.DB {
	if v == nil {
		return query.Where(column + " IS NULL")
	}
	return query.Where(column+" = ?", *v)
}

func fatal(what string, err error) {
	fmt.Fprintf(os.Stderr, "failed to seed %s: %v\n", what, err)
	os.Exit(1)
}
