package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"fuelcoupons/internal/interfaces"
	"fuelcoupons/internal/models"
	"fuelcoupons/internal/token"
)

const integritySweepPageSize = 500

// ReportUploader stores a finished sweep report and returns its location.
type ReportUploader interface {
	Upload(ctx context.Context, key string, body []byte) (string, error)
}

// IntegrityService flags structurally corrupted coupon records. It never
// mutates anything and never participates in the redemption path.
type IntegrityService struct {
	coupons  interfaces.CouponRepository
	verifier *token.Verifier
	uploader ReportUploader
	now      func() time.Time
}

func NewIntegrityService(coupons interfaces.CouponRepository, verifier *token.Verifier, uploader ReportUploader) *IntegrityService {
	return &IntegrityService{
		coupons:  coupons,
		verifier: verifier,
		uploader: uploader,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CheckIntegrity inspects one stored coupon for structural corruption.
func (s *IntegrityService) CheckIntegrity(c *models.Coupon) models.IntegrityReport {
	report := models.IntegrityReport{
		CouponID:   c.ID,
		CouponCode: c.CouponCode,
		Issues:     []models.IntegrityIssue{},
	}

	if !token.IsWellFormed(c.Token) {
		report.Issues = append(report.Issues, models.IntegrityIssue{
			Code:    models.IntegrityIssueMalformedToken,
			Message: "stored token does not match the expected format",
		})
	} else if !s.verifier.VerifySignature(c.Token, c.TokenSignature, c) {
		report.Issues = append(report.Issues, models.IntegrityIssue{
			Code:    models.IntegrityIssueBrokenSignature,
			Message: "stored signature does not verify against the token",
		})
	}

	if c.ValidFrom.After(c.ValidUntil) {
		report.Issues = append(report.Issues, models.IntegrityIssue{
			Code:    models.IntegrityIssueInvertedDateRange,
			Message: fmt.Sprintf("valid_from %s is after valid_until %s", c.ValidFrom.Format(time.RFC3339), c.ValidUntil.Format(time.RFC3339)),
		})
	}

	if c.MaxUses != nil && c.CurrentUses > *c.MaxUses {
		report.Issues = append(report.Issues, models.IntegrityIssue{
			Code:    models.IntegrityIssueUsageOverrun,
			Message: fmt.Sprintf("current_uses %d exceeds max_uses %d", c.CurrentUses, *c.MaxUses),
		})
	}

	if c.FixedDiscountAmount != nil && c.DiscountPercentage != nil {
		report.Issues = append(report.Issues, models.IntegrityIssue{
			Code:    models.IntegrityIssueConflictingDiscounts,
			Message: "both fixed discount amount and discount percentage are set",
		})
	}

	report.IsIntact = len(report.Issues) == 0
	return report
}

// SweepIntegrity pages over all stored coupons, collecting the corrupted
// ones. When an uploader is configured the sweep result is exported as JSON.
func (s *IntegrityService) SweepIntegrity(ctx context.Context) (*models.IntegritySweepResult, error) {
	result := &models.IntegritySweepResult{
		SweptAt:   s.now(),
		Corrupted: []models.IntegrityReport{},
	}

	offset := 0
	for {
		page, err := s.coupons.List(ctx, interfaces.CouponFilter{Limit: integritySweepPageSize, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("list coupons: %w", err)
		}
		for _, c := range page {
			result.Checked++
			if report := s.CheckIntegrity(c); !report.IsIntact {
				result.Corrupted = append(result.Corrupted, report)
			}
		}
		if len(page) < integritySweepPageSize {
			break
		}
		offset += integritySweepPageSize
	}

	if s.uploader != nil {
		body, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("marshal sweep result: %w", err)
		}
		key := fmt.Sprintf("integrity-sweeps/%s.json", result.SweptAt.Format("20060102T150405Z"))
		url, err := s.uploader.Upload(ctx, key, body)
		if err != nil {
			// Export failures never invalidate the sweep itself.
			log.Printf("upload integrity sweep report: %v", err)
		} else {
			result.ReportURL = url
		}
	}

	return result, nil
}
