package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/agencydesk/backoffice_backend/config"
	"bitbucket.org/agencydesk/backoffice_backend/querycache"
	"bitbucket.org/agencydesk/backoffice_backend/recon"
	"bitbucket.org/agencydesk/backoffice_backend/utils"
	"github.com/shopspring/decimal"
)

// ExchangeRate is one from->to quote. GetExchangeRates returns the most
// recent quote per pair; approximation is explicitly approximate, staleness
// is accepted.
type ExchangeRate struct {
	ID           int             `gorm:"primary_key" json:"id"`
	AgencyId     string          `gorm:"index;not null" json:"agency_id" binding:"required"`
	FromCurrency string          `gorm:"size:3;index;not null" json:"from_currency" binding:"required"`
	ToCurrency   string          `gorm:"size:3;index;not null" json:"to_currency" binding:"required"`
	Rate         decimal.Decimal `gorm:"type:decimal(20,8);default:0" json:"rate"`
	RateDate     time.Time       `gorm:"index;not null" json:"rate_date" binding:"required"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r ExchangeRate) ToPair() recon.RatePair {
	return recon.RatePair{
		From: strings.ToUpper(r.FromCurrency),
		To:   strings.ToUpper(r.ToCurrency),
		Rate: r.Rate,
	}
}

// GetExchangeRates returns the latest rate for each requested pair. Pairs
// must already be deduplicated by the caller; missing pairs are simply
// absent from the result (the engine treats that as "approximation
// unavailable", not an error).
func GetExchangeRates(ctx context.Context, pairs [][2]string) ([]recon.RatePair, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	db := config.GetDB()
	agencyId, ok := utils.GetAgencyIdFromContext(ctx)
	if !ok || agencyId == "" {
		return nil, errors.New("agency id is required")
	}

	var results []recon.RatePair
	for _, pair := range pairs {
		var rate ExchangeRate
		err := db.WithContext(ctx).
			Where("agency_id = ? AND from_currency = ? AND to_currency = ?", agencyId, pair[0], pair[1]).
			Order("rate_date desc, id desc").
			First(&rate).Error
		if err != nil {
			// No quote for this pair: leave it out.
			continue
		}
		results = append(results, rate.ToPair())
	}
	return results, nil
}

type NewExchangeRate struct {
	FromCurrency string          `json:"from_currency" binding:"required"`
	ToCurrency   string          `json:"to_currency" binding:"required"`
	Rate         decimal.Decimal `json:"rate" binding:"required"`
	RateDate     time.Time       `json:"rate_date" binding:"required"`
}

func CreateExchangeRate(ctx context.Context, input *NewExchangeRate) (*ExchangeRate, error) {
	db := config.GetDB()
	agencyId, ok := utils.GetAgencyIdFromContext(ctx)
	if !ok || agencyId == "" {
		return nil, errors.New("agency id is required")
	}

	if !utils.IsValidCurrencyCode(input.FromCurrency) || !utils.IsValidCurrencyCode(input.ToCurrency) {
		return nil, errors.New("currency codes must be three letters")
	}

	rate := ExchangeRate{
		AgencyId:     agencyId,
		FromCurrency: strings.ToUpper(input.FromCurrency),
		ToCurrency:   strings.ToUpper(input.ToCurrency),
		Rate:         input.Rate,
		RateDate:     input.RateDate,
	}

	if err := db.WithContext(ctx).Create(&rate).Error; err != nil {
		return nil, err
	}
	querycache.InvalidateViews(ctx, agencyId)
	return &rate, nil
}
