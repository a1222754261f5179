package interfaces

import (
	"context"
	"time"

	"fuelcoupons/internal/models"
)

// CampaignFilter defines the filter criteria for listing campaigns
type CampaignFilter struct {
	Status    string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
	Offset    int
}

// CampaignRepository defines the interface for campaign data operations.
// Counter increments are conditional updates executed at the database so
// concurrent issuance/redemption across instances stays correct.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
	List(ctx context.Context, filter CampaignFilter) ([]*models.Campaign, error)
	Summary(ctx context.Context, filter CampaignFilter) (*models.CampaignSummary, error)

	// UpdateStatusIfCurrent transitions id from expected to next and reports
	// the number of rows affected (0 means a lost race or wrong state).
	UpdateStatusIfCurrent(ctx context.Context, id string, expected, next models.CampaignStatus) (int64, error)

	// IncrementGeneratedCoupons bumps the generated counter only while it is
	// below max_coupons; ok=false means capacity was already exhausted.
	IncrementGeneratedCoupons(ctx context.Context, id string) (ok bool, err error)
	IncrementUsedCoupons(ctx context.Context, id string) error
}
