package service

import (
	"errors"
	"fmt"

	"fuelcoupons/internal/models"
)

var (
	ErrCouponNotFound          = errors.New("coupon not found")
	ErrCampaignNotFound        = errors.New("campaign not found")
	ErrCampaignNotActive       = errors.New("campaign is not active")
	ErrCampaignCapacityReached = errors.New("campaign coupon capacity reached")
)

// TransitionError reports an illegal or lost status transition attempt.
type TransitionError struct {
	CouponID string
	From     models.CouponStatus
	To       models.CouponStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("coupon %s: cannot transition from %s to %s", e.CouponID, e.From, e.To)
}

// NotUsableError reports a failed consumption attempt as a normal business
// condition, carrying the violation that explains it. Callers should
// re-validate before retrying, never retry blindly.
type NotUsableError struct {
	Violation models.Violation
}

func (e *NotUsableError) Error() string {
	return fmt.Sprintf("coupon cannot be used: %s", e.Violation.Message)
}
