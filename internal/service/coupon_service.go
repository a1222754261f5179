package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"fuelcoupons/internal/interfaces"
	"fuelcoupons/internal/models"
	"fuelcoupons/internal/token"
)

// CouponService owns coupon issuance and the usage state machine. Status
// transitions and the use counter are mutated only through the repository's
// conditional updates, so the invariants hold across concurrent instances.
type CouponService struct {
	coupons   interfaces.CouponRepository
	campaigns interfaces.CampaignRepository
	signer    *token.Signer
	now       func() time.Time
}

func NewCouponService(
	coupons interfaces.CouponRepository,
	campaigns interfaces.CampaignRepository,
	signer *token.Signer,
) *CouponService {
	return &CouponService{
		coupons:   coupons,
		campaigns: campaigns,
		signer:    signer,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// IssueCoupon allocates a coupon under an active campaign: reserves capacity,
// generates the code, signs the token and persists the record.
func (s *CouponService) IssueCoupon(ctx context.Context, req models.IssueCouponRequest) (*models.Coupon, error) {
	campaign, err := s.campaigns.GetByID(ctx, req.CampaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("lookup campaign: %w", err)
	}
	if campaign.Status != models.CampaignStatusActive {
		return nil, ErrCampaignNotActive
	}

	ok, err := s.campaigns.IncrementGeneratedCoupons(ctx, campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("reserve campaign capacity: %w", err)
	}
	if !ok {
		return nil, ErrCampaignCapacityReached
	}

	code, err := token.GenerateCouponCode()
	if err != nil {
		return nil, fmt.Errorf("generate coupon code: %w", err)
	}

	issuedAt := s.now()
	tok, sig, err := s.signer.SignCouponToken(campaign.ID, code, issuedAt)
	if err != nil {
		return nil, fmt.Errorf("sign coupon token: %w", err)
	}

	fixed := req.FixedDiscountAmount
	pct := req.DiscountPercentage
	raffleTickets := req.RaffleTickets
	if fixed == nil && pct == nil && raffleTickets == 0 {
		// Fall back to the campaign's default discount terms.
		fixed = campaign.DefaultFixedDiscount
		pct = campaign.DefaultDiscountPercentage
		raffleTickets = campaign.DefaultRaffleTickets
	}

	coupon := &models.Coupon{
		CampaignID:            campaign.ID,
		CouponCode:            code,
		Token:                 tok,
		TokenSignature:        sig,
		TokenIssuedAt:         issuedAt,
		Status:                models.CouponStatusActive,
		ValidFrom:             req.ValidFrom,
		ValidUntil:            req.ValidUntil,
		FixedDiscountAmount:   fixed,
		DiscountPercentage:    pct,
		MinimumPurchaseAmount: req.MinimumPurchaseAmount,
		ApplicableFuelTypes:   req.ApplicableFuelTypes,
		ApplicableStations:    req.ApplicableStations,
		MaxUses:               req.MaxUses,
		CurrentUses:           0,
		RaffleTickets:         raffleTickets,
	}

	if err := s.coupons.Create(ctx, coupon); err != nil {
		return nil, fmt.Errorf("create coupon: %w", err)
	}
	return coupon, nil
}

// Activate transitions an inactive coupon back to active. Terminal statuses
// never leave their state.
func (s *CouponService) Activate(ctx context.Context, id string) (*models.Coupon, error) {
	return s.transition(ctx, id, models.CouponStatusActive, models.CouponStatusInactive)
}

// Deactivate suspends an active coupon.
func (s *CouponService) Deactivate(ctx context.Context, id string) (*models.Coupon, error) {
	return s.transition(ctx, id, models.CouponStatusInactive, models.CouponStatusActive)
}

// Cancel moves any non-terminal coupon to the terminal cancelled status.
func (s *CouponService) Cancel(ctx context.Context, id string) (*models.Coupon, error) {
	return s.transition(ctx, id, models.CouponStatusCancelled,
		models.CouponStatusActive, models.CouponStatusInactive)
}

func (s *CouponService) transition(ctx context.Context, id string, next models.CouponStatus, expected ...models.CouponStatus) (*models.Coupon, error) {
	rows, err := s.coupons.UpdateStatusIfCurrent(ctx, id, next, expected...)
	if err != nil {
		return nil, fmt.Errorf("update coupon status: %w", err)
	}

	c, err := s.coupons.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("fetch coupon: %w", err)
	}

	if rows == 0 {
		if c.Status == next {
			// Already where the caller wanted it; treat as success.
			return c, nil
		}
		return nil, &TransitionError{CouponID: id, From: c.Status, To: next}
	}
	return c, nil
}

// ConsumeUse performs the atomic consumption of one use. Eligibility is
// re-checked by the conditional update itself at consumption time, because
// validation and consumption may be separated by client round-trips. On a
// refused consumption, the fresh record is inspected to report the precise
// violation.
func (s *CouponService) ConsumeUse(ctx context.Context, id string) (*models.Coupon, error) {
	c, err := s.coupons.ConsumeUse(ctx, id, s.now())
	if err == nil {
		if cerr := s.campaigns.IncrementUsedCoupons(ctx, c.CampaignID); cerr != nil {
			log.Printf("increment campaign used counter for %s: %v", c.CampaignID, cerr)
		}
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("consume coupon use: %w", err)
	}

	fresh, ferr := s.coupons.GetByID(ctx, id)
	if ferr != nil {
		if errors.Is(ferr, sql.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("fetch coupon after refused consumption: %w", ferr)
	}

	v, ok := s.refusalViolation(fresh)
	if !ok {
		// The record changed again between the refused UPDATE and the
		// re-read and now looks usable. Not a business violation.
		return nil, fmt.Errorf("coupon %s: consumption refused but record reads usable, re-validate", id)
	}
	return nil, &NotUsableError{Violation: v}
}

// refusalViolation explains a refused consumption from a fresh read of the
// record. Capacity is checked before status so the loser of a race for the
// last remaining use is told the limit was reached, not that the winner's
// used_up flip made the coupon inactive.
func (s *CouponService) refusalViolation(c *models.Coupon) (models.Violation, bool) {
	now := s.now()
	switch {
	case c.Status == models.CouponStatusUsedUp || !c.HasRemainingUses():
		return models.Violation{
			Code:    models.ViolationUsageLimitReached,
			Message: "coupon has reached its maximum usage limit",
		}, true
	case c.Status != models.CouponStatusActive:
		return models.Violation{
			Code:    models.ViolationStatusNotActive,
			Message: fmt.Sprintf("coupon is not active (status: %s)", c.Status),
		}, true
	case now.Before(c.ValidFrom):
		return models.Violation{
			Code:    models.ViolationNotYetValid,
			Message: "coupon is not yet valid",
		}, true
	case now.After(c.ValidUntil):
		return models.Violation{
			Code:    models.ViolationExpired,
			Message: "coupon has expired",
		}, true
	default:
		return models.Violation{}, false
	}
}

// ExpireOverdue bulk-expires every non-terminal coupon whose validity window
// has closed. Intended to be driven by an external scheduler.
func (s *CouponService) ExpireOverdue(ctx context.Context) (int64, error) {
	return s.coupons.MarkExpired(ctx, s.now())
}
