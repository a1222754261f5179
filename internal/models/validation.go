// internal/models/validation.go
package models

type ViolationCode string

const (
	ViolationCouponNotFound        ViolationCode = "coupon_not_found"
	ViolationMalformedToken        ViolationCode = "malformed_token"
	ViolationSignatureInvalid      ViolationCode = "signature_invalid"
	ViolationTokenStale            ViolationCode = "token_stale"
	ViolationStatusNotActive       ViolationCode = "status_not_active"
	ViolationNotYetValid           ViolationCode = "not_yet_valid"
	ViolationExpired               ViolationCode = "expired"
	ViolationUsageLimitReached     ViolationCode = "usage_limit_reached"
	ViolationCampaignInactive      ViolationCode = "campaign_inactive"
	ViolationStationMismatch       ViolationCode = "station_mismatch"
	ViolationFuelTypeMismatch      ViolationCode = "fuel_type_mismatch"
	ViolationMinimumPurchaseNotMet ViolationCode = "minimum_purchase_not_met"
)

type Violation struct {
	Code    ViolationCode `json:"code"`
	Message string        `json:"message"`
}

// RedemptionRequest carries a presented token (or coupon code) plus the
// redemption context it is being presented in.
type RedemptionRequest struct {
	Token          string   `json:"token,omitempty"`
	CouponCode     string   `json:"coupon_code,omitempty"`
	StationID      int64    `json:"station_id" validate:"required,gt=0"`
	FuelType       string   `json:"fuel_type,omitempty"`
	PurchaseAmount *float64 `json:"purchase_amount,omitempty" validate:"omitempty,gte=0"`
}

// ValidationOutcome is the result of the redemption validation pipeline.
// All applicable violations are accumulated; IsValid is true only when the
// list is empty. Violations recorded after a signature failure are checked
// against an unverified record and are diagnostic only; IsValid and
// CanBeUsed remain authoritative.
type ValidationOutcome struct {
	IsValid    bool        `json:"is_valid"`
	CanBeUsed  bool        `json:"can_be_used"`
	Coupon     *Coupon     `json:"coupon,omitempty"`
	Violations []Violation `json:"violations"`
}

type BatchValidationRequest struct {
	Tokens         []string `json:"tokens" validate:"required,min=1,max=100"`
	StationID      int64    `json:"station_id" validate:"required,gt=0"`
	FuelType       string   `json:"fuel_type,omitempty"`
	PurchaseAmount *float64 `json:"purchase_amount,omitempty" validate:"omitempty,gte=0"`
}

type BatchValidationResult struct {
	Token   string             `json:"token"`
	Outcome *ValidationOutcome `json:"outcome"`
}

// PreValidation is a lightweight, contextless preview of a coupon token.
type PreValidation struct {
	Exists          bool         `json:"exists"`
	CouponCode      string       `json:"coupon_code,omitempty"`
	Status          CouponStatus `json:"status,omitempty"`
	IsActive        bool         `json:"is_active"`
	IsExpired       bool         `json:"is_expired"`
	CampaignID      string       `json:"campaign_id,omitempty"`
	CampaignName    string       `json:"campaign_name,omitempty"`
	DiscountSummary string       `json:"discount_summary,omitempty"`
	RaffleTickets   int          `json:"raffle_tickets,omitempty"`
}
