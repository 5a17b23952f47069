package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/agencydesk/backoffice_backend/config"
	"bitbucket.org/agencydesk/backoffice_backend/utils"
)

type Currency struct {
	ID            int       `gorm:"primary_key" json:"id"`
	AgencyId      string    `gorm:"index;not null" json:"agency_id" binding:"required"`
	Code          string    `gorm:"size:3;index;not null" json:"code" binding:"required"`
	Name          string    `gorm:"size:100" json:"name"`
	DecimalPlaces int32     `gorm:"default:2" json:"decimal_places"`
	IsActive      *bool     `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetCurrencies(ctx context.Context) ([]*Currency, error) {
	db := config.GetDB()
	var results []*Currency

	agencyId, ok := utils.GetAgencyIdFromContext(ctx)
	if !ok || agencyId == "" {
		return nil, errors.New("agency id is required")
	}

	err := db.WithContext(ctx).
		Where("agency_id = ? AND is_active = 1", agencyId).
		Order("code").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// MinorUnitsByCode maps upper-cased currency codes to their minor-unit
// digits, for display rounding of derived amounts.
func MinorUnitsByCode(currencies []*Currency) map[string]int32 {
	units := make(map[string]int32, len(currencies))
	for _, c := range currencies {
		units[strings.ToUpper(strings.TrimSpace(c.Code))] = c.DecimalPlaces
	}
	return units
}
