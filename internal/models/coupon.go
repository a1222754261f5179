// internal/models/coupon.go
package models

import (
	"fmt"
	"time"
)

type CouponStatus string

const (
	CouponStatusActive    CouponStatus = "active"
	CouponStatusInactive  CouponStatus = "inactive"
	CouponStatusExpired   CouponStatus = "expired"
	CouponStatusUsedUp    CouponStatus = "used_up"
	CouponStatusCancelled CouponStatus = "cancelled"
)

// IsTerminal reports whether no further status transition is permitted.
func (s CouponStatus) IsTerminal() bool {
	return s == CouponStatusExpired || s == CouponStatusUsedUp || s == CouponStatusCancelled
}

type DiscountKind string

const (
	DiscountKindNone       DiscountKind = "none"
	DiscountKindFixed      DiscountKind = "fixed"
	DiscountKindPercentage DiscountKind = "percentage"
)

// Discount is the resolved discount of a coupon. Kind "none" means the
// coupon grants raffle tickets only.
type Discount struct {
	Kind  DiscountKind `json:"kind"`
	Value float64      `json:"value,omitempty"`
}

type Coupon struct {
	ID                    string       `json:"id"`
	CampaignID            string       `json:"campaign_id"`
	CouponCode            string       `json:"coupon_code"`
	Token                 string       `json:"token"`
	TokenSignature        string       `json:"-"`
	TokenIssuedAt         time.Time    `json:"token_issued_at"`
	Status                CouponStatus `json:"status"`
	ValidFrom             time.Time    `json:"valid_from"`
	ValidUntil            time.Time    `json:"valid_until"`
	FixedDiscountAmount   *float64     `json:"fixed_discount_amount,omitempty"`
	DiscountPercentage    *float64     `json:"discount_percentage,omitempty"`
	MinimumPurchaseAmount *float64     `json:"minimum_purchase_amount,omitempty"`
	ApplicableFuelTypes   []string     `json:"applicable_fuel_types"`
	ApplicableStations    []int64      `json:"applicable_stations"`
	MaxUses               *int         `json:"max_uses,omitempty"`
	CurrentUses           int          `json:"current_uses"`
	RaffleTickets         int          `json:"raffle_tickets"`
	CreatedAt             time.Time    `json:"created_at"`
	UpdatedAt             time.Time    `json:"updated_at"`
}

// Discount resolves the two nullable columns into a single tagged value.
// When both columns are set (legacy data), the fixed amount wins; the
// integrity audit flags such rows separately.
func (c *Coupon) Discount() Discount {
	if c.FixedDiscountAmount != nil {
		return Discount{Kind: DiscountKindFixed, Value: *c.FixedDiscountAmount}
	}
	if c.DiscountPercentage != nil {
		return Discount{Kind: DiscountKindPercentage, Value: *c.DiscountPercentage}
	}
	return Discount{Kind: DiscountKindNone}
}

// DiscountSummary renders a human-readable description for pre-validation.
func (c *Coupon) DiscountSummary() string {
	switch d := c.Discount(); d.Kind {
	case DiscountKindFixed:
		return fmt.Sprintf("fixed discount: %.2f", d.Value)
	case DiscountKindPercentage:
		return fmt.Sprintf("percentage discount: %g%%", d.Value)
	default:
		return fmt.Sprintf("raffle tickets only: %d tickets", c.RaffleTickets)
	}
}

// DiscountFor computes the monetary discount for a purchase amount.
func (c *Coupon) DiscountFor(purchaseAmount float64) float64 {
	switch d := c.Discount(); d.Kind {
	case DiscountKindFixed:
		if d.Value > purchaseAmount {
			return purchaseAmount
		}
		return d.Value
	case DiscountKindPercentage:
		return purchaseAmount * d.Value / 100
	default:
		return 0
	}
}

// HasRemainingUses reports whether the usage limit still has capacity.
// An unset limit means unlimited uses.
func (c *Coupon) HasRemainingUses() bool {
	return c.MaxUses == nil || c.CurrentUses < *c.MaxUses
}

type IssueCouponRequest struct {
	CampaignID            string    `json:"campaign_id" validate:"required,uuid4"`
	ValidFrom             time.Time `json:"valid_from" validate:"required"`
	ValidUntil            time.Time `json:"valid_until" validate:"required,gtfield=ValidFrom"`
	FixedDiscountAmount   *float64  `json:"fixed_discount_amount,omitempty" validate:"omitempty,gt=0,excluded_with=DiscountPercentage"`
	DiscountPercentage    *float64  `json:"discount_percentage,omitempty" validate:"omitempty,gt=0,lte=100"`
	MinimumPurchaseAmount *float64  `json:"minimum_purchase_amount,omitempty" validate:"omitempty,gt=0"`
	ApplicableFuelTypes   []string  `json:"applicable_fuel_types,omitempty"`
	ApplicableStations    []int64   `json:"applicable_stations,omitempty"`
	MaxUses               *int      `json:"max_uses,omitempty" validate:"omitempty,gt=0"`
	RaffleTickets         int       `json:"raffle_tickets" validate:"gte=0"`
}
