// internal/models/integrity.go
package models

import "time"

type IntegrityIssueCode string

const (
	IntegrityIssueMalformedToken     IntegrityIssueCode = "malformed_token"
	IntegrityIssueBrokenSignature    IntegrityIssueCode = "broken_signature"
	IntegrityIssueInvertedDateRange  IntegrityIssueCode = "inverted_date_range"
	IntegrityIssueUsageOverrun       IntegrityIssueCode = "usage_overrun"
	IntegrityIssueConflictingDiscounts IntegrityIssueCode = "conflicting_discount_types"
)

type IntegrityIssue struct {
	Code    IntegrityIssueCode `json:"code"`
	Message string             `json:"message"`
}

// IntegrityReport describes the structural health of a single stored coupon.
// Issues are informational and never block the redemption flow.
type IntegrityReport struct {
	CouponID   string           `json:"coupon_id"`
	CouponCode string           `json:"coupon_code"`
	IsIntact   bool             `json:"is_intact"`
	Issues     []IntegrityIssue `json:"issues"`
}

type IntegritySweepResult struct {
	SweptAt   time.Time         `json:"swept_at"`
	Checked   int               `json:"checked"`
	Corrupted []IntegrityReport `json:"corrupted"`
	ReportURL string            `json:"report_url,omitempty"`
}
