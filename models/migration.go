package models

import (
	"bitbucket.org/agencydesk/backoffice_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Workspace{}, &Currency{}, &ExchangeRate{},
		&Report{}, &Billing{}, &Cost{},
		&BillingReportLink{}, &CostReportLink{},
	)
	if err != nil {
		logger := config.GetLogger()
		config.LogError(logger, "models", "MigrateTable", "AutoMigrate", nil, err)
	}
}
