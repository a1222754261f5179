package interfaces

import (
	"context"
	"time"

	"fuelcoupons/internal/models"
)

// CouponFilter defines the filter criteria for listing coupons
type CouponFilter struct {
	CampaignID string
	Status     string
	Limit      int
	Offset     int
}

// CouponRepository defines the interface for coupon data operations. The
// compare-and-set methods are the shared-state boundary that makes the usage
// state machine safe across concurrent service instances: each is a single
// conditional UPDATE whose affected-row count tells the caller whether it won
// the race.
type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	GetByID(ctx context.Context, id string) (*models.Coupon, error)
	GetByToken(ctx context.Context, token string) (*models.Coupon, error)
	GetByCouponCode(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context, filter CouponFilter) ([]*models.Coupon, error)

	// UpdateStatusIfCurrent transitions id to next only while its current
	// status is one of expected; returns the number of rows affected.
	UpdateStatusIfCurrent(ctx context.Context, id string, next models.CouponStatus, expected ...models.CouponStatus) (int64, error)

	// ConsumeUse atomically increments current_uses by one and flips the
	// status to used_up in the same statement when the increment reaches
	// max_uses. It only succeeds while the coupon is active, inside its
	// validity window and below its usage limit; otherwise sql.ErrNoRows.
	ConsumeUse(ctx context.Context, id string, now time.Time) (*models.Coupon, error)

	// MarkExpired bulk-expires non-terminal coupons whose valid_until has
	// passed and returns the number of coupons transitioned.
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
}
