package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/agencydesk/backoffice_backend/config"
	"bitbucket.org/agencydesk/backoffice_backend/querycache"
	"bitbucket.org/agencydesk/backoffice_backend/recon"
	"bitbucket.org/agencydesk/backoffice_backend/utils"
	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Capabilities is threaded into every mutation call instead of being read
// from ambient global state. The server builds it once at startup from
// config.DestructiveActionsEnabled().
type Capabilities struct {
	AllowDestructive bool
}

// BillingReportLink is the raw billing<->report link row. Foreign keys are
// nullable on purpose: both set is a reconcile, exactly one set is a
// clarification. The typed form lives in recon; rows are classified at the
// boundary and the nullable shape never travels past it.
type BillingReportLink struct {
	ID            int              `gorm:"primary_key" json:"id"`
	AgencyId      string           `gorm:"index;not null" json:"agency_id"`
	BillingId     *int             `gorm:"index" json:"billing_id"`
	ReportId      *int             `gorm:"index" json:"report_id"`
	BillingAmount *decimal.Decimal `gorm:"type:decimal(20,4)" json:"billing_amount"`
	ReportAmount  *decimal.Decimal `gorm:"type:decimal(20,4)" json:"report_amount"`
	Description   *string          `gorm:"size:500" json:"description"`
	CorrelationId string           `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// CostReportLink is the analogous cost<->report link row.
type CostReportLink struct {
	ID            int              `gorm:"primary_key" json:"id"`
	AgencyId      string           `gorm:"index;not null" json:"agency_id"`
	CostId        *int             `gorm:"index" json:"cost_id"`
	ReportId      *int             `gorm:"index" json:"report_id"`
	CostAmount    *decimal.Decimal `gorm:"type:decimal(20,4)" json:"cost_amount"`
	ReportAmount  *decimal.Decimal `gorm:"type:decimal(20,4)" json:"report_amount"`
	Description   *string          `gorm:"size:500" json:"description"`
	CorrelationId string           `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (l BillingReportLink) ToRaw() recon.RawLink {
	return recon.RawLink{
		ID:                l.ID,
		CreatedAt:         l.CreatedAt,
		Scope:             recon.LinkScopeBilling,
		CounterpartID:     l.BillingId,
		ReportID:          l.ReportId,
		CounterpartAmount: l.BillingAmount,
		ReportAmount:      l.ReportAmount,
		Description:       l.Description,
	}
}

func (l CostReportLink) ToRaw() recon.RawLink {
	return recon.RawLink{
		ID:                l.ID,
		CreatedAt:         l.CreatedAt,
		Scope:             recon.LinkScopeCost,
		CounterpartID:     l.CostId,
		ReportID:          l.ReportId,
		CounterpartAmount: l.CostAmount,
		ReportAmount:      l.ReportAmount,
		Description:       l.Description,
	}
}

type NewBillingReportLink struct {
	BillingId     *int             `json:"billing_id"`
	ReportId      *int             `json:"report_id"`
	BillingAmount *decimal.Decimal `json:"billing_amount"`
	ReportAmount  *decimal.Decimal `json:"report_amount"`
	Description   *string          `json:"description"`
}

type NewCostReportLink struct {
	CostId       *int             `json:"cost_id"`
	ReportId     *int             `json:"report_id"`
	CostAmount   *decimal.Decimal `json:"cost_amount"`
	ReportAmount *decimal.Decimal `json:"report_amount"`
	Description  *string          `json:"description"`
}

func (input *NewBillingReportLink) validate(ctx context.Context, agencyId string) error {
	// Shape check through the classifier: invalid combinations never reach
	// the store.
	if _, err := recon.ClassifyLink(recon.RawLink{
		Scope:             recon.LinkScopeBilling,
		CounterpartID:     input.BillingId,
		ReportID:          input.ReportId,
		CounterpartAmount: input.BillingAmount,
		ReportAmount:      input.ReportAmount,
		Description:       input.Description,
	}); err != nil {
		return err
	}
	if input.BillingId != nil {
		if _, err := utils.FetchModel[Billing](ctx, agencyId, *input.BillingId); err != nil {
			return errors.New("BillingId not found")
		}
	}
	if input.ReportId != nil {
		if _, err := utils.FetchModel[Report](ctx, agencyId, *input.ReportId); err != nil {
			return errors.New("ReportId not found")
		}
	}
	return nil
}

func (input *NewCostReportLink) validate(ctx context.Context, agencyId string) error {
	if _, err := recon.ClassifyLink(recon.RawLink{
		Scope:             recon.LinkScopeCost,
		CounterpartID:     input.CostId,
		ReportID:          input.ReportId,
		CounterpartAmount: input.CostAmount,
		ReportAmount:      input.ReportAmount,
		Description:       input.Description,
	}); err != nil {
		return err
	}
	if input.CostId != nil {
		if _, err := utils.FetchModel[Cost](ctx, agencyId, *input.CostId); err != nil {
			return errors.New("CostId not found")
		}
	}
	if input.ReportId != nil {
		if _, err := utils.FetchModel[Report](ctx, agencyId, *input.ReportId); err != nil {
			return errors.New("ReportId not found")
		}
	}
	return nil
}

func CreateBillingReportLink(ctx context.Context, input *NewBillingReportLink) (*BillingReportLink, error) {
	db := config.GetDB()
	agencyId, ok := utils.GetAgencyIdFromContext(ctx)
	if !ok || agencyId == "" {
		return nil, errors.New("agency id is required")
	}

	if err := input.validate(ctx, agencyId); err != nil {
		return nil, err
	}

	release := acquireLinkLock(agencyId)
	defer release()

	link := BillingReportLink{
		AgencyId:      agencyId,
		BillingId:     input.BillingId,
		ReportId:      input.ReportId,
		BillingAmount: input.BillingAmount,
		ReportAmount:  input.ReportAmount,
		Description:   input.Description,
		CorrelationId: correlationId(ctx),
	}

	if err := db.WithContext(ctx).Create(&link).Error; err != nil {
		return nil, err
	}
	querycache.InvalidateViews(ctx, agencyId)
	return &link, nil
}

func UpdateBillingReportLink(ctx context.Context, id int, input *NewBillingReportLink) (*BillingReportLink, error) {
	db := config.GetDB()
	agencyId, ok := utils.GetAgencyIdFromContext(ctx)
	if !ok || agencyId == "" {
		return nil, errors.New("agency id is required")
	}

	if err := input.validate(ctx, agencyId); err != nil {
		return nil, err
	}

	link, err := utils.FetchModel[BillingReportLink](ctx, agencyId, id)
	if err != nil {
		return nil, err
	}

	release := acquireLinkLock(agencyId)
	defer release()

	err = db.WithContext(ctx).Model(&link).Updates(map[string]interface{}{
		"BillingId":     input.BillingId,
		"ReportId":      input.ReportId,
		"BillingAmount": input.BillingAmount,
		"ReportAmount":  input.ReportAmount,
		"Description":   input.Description,
	}).Error
	if err != nil {
		return nil, err
	}
	querycache.InvalidateViews(ctx, agencyId)
	return link, nil
}

func DeleteBillingReportLink(ctx context.Context, id int, caps Capabilities) (*BillingReportLink, error) {
	// Policy gate first: a refused delete has no partial effect.
	if !caps.AllowDestructive {
		return nil, utils.ErrorMutationRejected
	}

	db := config.GetDB()
	agencyId, ok := utils.GetAgencyIdFromContext(ctx)
	if !ok || agencyId == "" {
		return nil, errors.New("agency id is required")
	}

	link, err := utils.FetchModel[BillingReportLink](ctx, agencyId, id)
	if err != nil {
		return nil, err
	}

	release := acquireLinkLock(agencyId)
	defer release()

	if err := db.WithContext(ctx).Delete(&link).Error; err != nil {
		return nil, err
	}
	querycache.InvalidateViews(ctx, agencyId)
	return link, nil
}

func CreateCostReportLink(ctx context.Context, input *NewCostReportLink) (*CostReportLink, error) {
	db := config.GetDB()
	agencyId, ok := utils.GetAgencyIdFromContext(ctx)
	if !ok || agencyId == "" {
		return nil, errors.New("agency id is required")
	}

	if err := input.validate(ctx, agencyId); err != nil {
		return nil, err
	}

	release := acquireLinkLock(agencyId)
	defer release()

	link := CostReportLink{
		AgencyId:      agencyId,
		CostId:        input.CostId,
		ReportId:      input.ReportId,
		CostAmount:    input.CostAmount,
		ReportAmount:  input.ReportAmount,
		Description:   input.Description,
		CorrelationId: correlationId(ctx),
	}

	if err := db.WithContext(ctx).Create(&link).Error; err != nil {
		return nil, err
	}
	querycache.InvalidateViews(ctx, agencyId)
	return &link, nil
}

func UpdateCostReportLink(ctx context.Context, id int, input *NewCostReportLink) (*CostReportLink, error) {
	db := config.GetDB()
	agencyId, ok := utils.GetAgencyIdFromContext(ctx)
	if !ok || agencyId == "" {
		return nil, errors.New("agency id is required")
	}

	if err := input.validate(ctx, agencyId); err != nil {
		return nil, err
	}

	link, err := utils.FetchModel[CostReportLink](ctx, agencyId, id)
	if err != nil {
		return nil, err
	}

	release := acquireLinkLock(agencyId)
	defer release()

	err = db.WithContext(ctx).Model(&link).Updates(map[string]interface{}{
		"CostId":       input.CostId,
		"ReportId":     input.ReportId,
		"CostAmount":   input.CostAmount,
		"ReportAmount": input.ReportAmount,
		"Description":  input.Description,
	}).Error
	if err != nil {
		return nil, err
	}
	querycache.InvalidateViews(ctx, agencyId)
	return link, nil
}

func DeleteCostReportLink(ctx context.Context, id int, caps Capabilities) (*CostReportLink, error) {
	if !caps.AllowDestructive {
		return nil, utils.ErrorMutationRejected
	}

	db := config.GetDB()
	agencyId, ok := utils.GetAgencyIdFromContext(ctx)
	if !ok || agencyId == "" {
		return nil, errors.New("agency id is required")
	}

	link, err := utils.FetchModel[CostReportLink](ctx, agencyId, id)
	if err != nil {
		return nil, err
	}

	release := acquireLinkLock(agencyId)
	defer release()

	if err := db.WithContext(ctx).Delete(&link).Error; err != nil {
		return nil, err
	}
	querycache.InvalidateViews(ctx, agencyId)
	return link, nil
}

// ClarifyBilling records why part of a billing will never be matched by a
// report. One-sided link; the description is the whole point.
func ClarifyBilling(ctx context.Context, billingId int, amount decimal.Decimal, description string) (*BillingReportLink, error) {
	return CreateBillingReportLink(ctx, &NewBillingReportLink{
		BillingId:     &billingId,
		BillingAmount: &amount,
		Description:   &description,
	})
}

// ClarifyReport is the report-sided clarification for billing links.
func ClarifyReport(ctx context.Context, reportId int, amount decimal.Decimal, description string) (*BillingReportLink, error) {
	return CreateBillingReportLink(ctx, &NewBillingReportLink{
		ReportId:     &reportId,
		ReportAmount: &amount,
		Description:  &description,
	})
}

// ClarifyCost records why part of a cost will never be matched by a report.
func ClarifyCost(ctx context.Context, costId int, amount decimal.Decimal, description string) (*CostReportLink, error) {
	return CreateCostReportLink(ctx, &NewCostReportLink{
		CostId:      &costId,
		CostAmount:  &amount,
		Description: &description,
	})
}

// acquireLinkLock serializes link writes per agency. Best-effort: when the
// lock is contended or redis is down we proceed anyway, the store is the
// source of truth (last write wins, as with concurrent users).
func acquireLinkLock(agencyId string) func() {
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}
	}
	lock, err := locker.Obtain(config.GetRedisContext(), "links:"+agencyId, 5*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 10),
	})
	if err != nil {
		return func() {}
	}
	return func() { lock.Release(config.GetRedisContext()) }
}

func correlationId(ctx context.Context) string {
	if id, ok := utils.GetCorrelationIdFromContext(ctx); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
