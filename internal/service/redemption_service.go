package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"fuelcoupons/internal/cache"
	"fuelcoupons/internal/interfaces"
	"fuelcoupons/internal/models"
	"fuelcoupons/internal/token"
)

const preValidationTTL = 30 * time.Second

// RedemptionService runs the redemption validation pipeline: the token is
// authenticated first (format, signature, staleness), then the business
// eligibility rules are evaluated against the record. All applicable
// violations are accumulated so a caller can present every problem at once.
type RedemptionService struct {
	coupons     interfaces.CouponRepository
	campaigns   interfaces.CampaignRepository
	verifier    *token.Verifier
	cache       cache.Cache
	maxTokenAge time.Duration
	now         func() time.Time
}

func NewRedemptionService(
	coupons interfaces.CouponRepository,
	campaigns interfaces.CampaignRepository,
	verifier *token.Verifier,
	c cache.Cache,
	maxTokenAge time.Duration,
) *RedemptionService {
	return &RedemptionService{
		coupons:     coupons,
		campaigns:   campaigns,
		verifier:    verifier,
		cache:       c,
		maxTokenAge: maxTokenAge,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type checkContext struct {
	presentedToken string
	coupon         *models.Coupon
	campaign       *models.Campaign
	req            models.RedemptionRequest
	now            time.Time
}

type checker func(s *RedemptionService, cc *checkContext) *models.Violation

// Ordered pipeline. Resolution failure is the only short-circuit; every
// other check runs and accumulates.
var redemptionCheckers = []checker{
	checkTokenFormat,
	checkTokenSignature,
	checkTokenStaleness,
	checkCouponStatus,
	checkDateWindow,
	checkUsageLimit,
	checkCampaignActive,
	checkStationApplicability,
	checkFuelTypeApplicability,
	checkMinimumPurchase,
}

// ValidateForRedemption resolves the coupon by token and evaluates the full
// rule pipeline against the redemption context.
func (s *RedemptionService) ValidateForRedemption(ctx context.Context, req models.RedemptionRequest) (*models.ValidationOutcome, error) {
	c, err := s.coupons.GetByToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFoundOutcome(), nil
		}
		return nil, fmt.Errorf("lookup coupon by token: %w", err)
	}
	return s.evaluate(ctx, req.Token, c, req)
}

// ValidateByCouponCode runs the same pipeline but resolves by the
// human-readable coupon code; the stored token stands in for the presented
// one.
func (s *RedemptionService) ValidateByCouponCode(ctx context.Context, req models.RedemptionRequest) (*models.ValidationOutcome, error) {
	c, err := s.coupons.GetByCouponCode(ctx, req.CouponCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFoundOutcome(), nil
		}
		return nil, fmt.Errorf("lookup coupon by code: %w", err)
	}
	return s.evaluate(ctx, c.Token, c, req)
}

// ValidateBatch evaluates each token independently; outcomes never interact.
func (s *RedemptionService) ValidateBatch(ctx context.Context, req models.BatchValidationRequest) ([]models.BatchValidationResult, error) {
	results := make([]models.BatchValidationResult, 0, len(req.Tokens))
	for _, tok := range req.Tokens {
		outcome, err := s.ValidateForRedemption(ctx, models.RedemptionRequest{
			Token:          tok,
			StationID:      req.StationID,
			FuelType:       req.FuelType,
			PurchaseAmount: req.PurchaseAmount,
		})
		if err != nil {
			return nil, err
		}
		results = append(results, models.BatchValidationResult{Token: tok, Outcome: outcome})
	}
	return results, nil
}

func (s *RedemptionService) evaluate(ctx context.Context, presentedToken string, c *models.Coupon, req models.RedemptionRequest) (*models.ValidationOutcome, error) {
	campaign, err := s.campaigns.GetByID(ctx, c.CampaignID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lookup campaign: %w", err)
	}

	cc := &checkContext{
		presentedToken: presentedToken,
		coupon:         c,
		campaign:       campaign,
		req:            req,
		now:            s.now(),
	}

	outcome := &models.ValidationOutcome{Coupon: c, Violations: []models.Violation{}}
	for _, check := range redemptionCheckers {
		if v := check(s, cc); v != nil {
			outcome.Violations = append(outcome.Violations, *v)
		}
	}

	outcome.IsValid = len(outcome.Violations) == 0
	outcome.CanBeUsed = outcome.IsValid && c.HasRemainingUses()
	return outcome, nil
}

// PreValidate answers a contextless preview of a token: existence, status,
// owning campaign and discount summary. Results are cached briefly since
// clients typically preview right before redeeming.
func (s *RedemptionService) PreValidate(ctx context.Context, presentedToken string) (*models.PreValidation, error) {
	key := preValidationCacheKey(presentedToken)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil {
			var cached models.PreValidation
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	c, err := s.coupons.GetByToken(ctx, presentedToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.PreValidation{Exists: false}, nil
		}
		return nil, fmt.Errorf("lookup coupon by token: %w", err)
	}

	now := s.now()
	pv := &models.PreValidation{
		Exists:          true,
		CouponCode:      c.CouponCode,
		Status:          c.Status,
		IsActive:        c.Status == models.CouponStatusActive,
		IsExpired:       c.Status == models.CouponStatusExpired || now.After(c.ValidUntil),
		CampaignID:      c.CampaignID,
		DiscountSummary: c.DiscountSummary(),
		RaffleTickets:   c.RaffleTickets,
	}

	if campaign, err := s.campaigns.GetByID(ctx, c.CampaignID); err == nil {
		pv.CampaignName = campaign.Name
	}

	if s.cache != nil {
		if raw, err := json.Marshal(pv); err == nil {
			if err := s.cache.Set(ctx, key, raw, preValidationTTL); err != nil {
				log.Printf("prevalidation cache set failed: %v", err)
			}
		}
	}
	return pv, nil
}

func preValidationCacheKey(presentedToken string) string {
	sum := sha256.Sum256([]byte(presentedToken))
	return "prevalidate:" + hex.EncodeToString(sum[:])
}

func notFoundOutcome() *models.ValidationOutcome {
	return &models.ValidationOutcome{
		IsValid:   false,
		CanBeUsed: false,
		Violations: []models.Violation{{
			Code:    models.ViolationCouponNotFound,
			Message: "coupon not found",
		}},
	}
}

func checkTokenFormat(_ *RedemptionService, cc *checkContext) *models.Violation {
	if token.IsWellFormed(cc.presentedToken) {
		return nil
	}
	return &models.Violation{
		Code:    models.ViolationMalformedToken,
		Message: "coupon token is malformed",
	}
}

func checkTokenSignature(s *RedemptionService, cc *checkContext) *models.Violation {
	if s.verifier.VerifySignature(cc.presentedToken, cc.coupon.TokenSignature, cc.coupon) {
		return nil
	}
	return &models.Violation{
		Code:    models.ViolationSignatureInvalid,
		Message: "possible tampering detected",
	}
}

func checkTokenStaleness(s *RedemptionService, cc *checkContext) *models.Violation {
	if !token.IsStaleByTimestamp(cc.presentedToken, s.maxTokenAge, cc.now) {
		return nil
	}
	return &models.Violation{
		Code:    models.ViolationTokenStale,
		Message: "coupon token has expired due to age",
	}
}

func checkCouponStatus(_ *RedemptionService, cc *checkContext) *models.Violation {
	if cc.coupon.Status == models.CouponStatusActive {
		return nil
	}
	return &models.Violation{
		Code:    models.ViolationStatusNotActive,
		Message: fmt.Sprintf("coupon is not active (status: %s)", cc.coupon.Status),
	}
}

func checkDateWindow(_ *RedemptionService, cc *checkContext) *models.Violation {
	if cc.now.Before(cc.coupon.ValidFrom) {
		return &models.Violation{
			Code:    models.ViolationNotYetValid,
			Message: "coupon is not yet valid",
		}
	}
	if cc.now.After(cc.coupon.ValidUntil) {
		return &models.Violation{
			Code:    models.ViolationExpired,
			Message: "coupon has expired",
		}
	}
	return nil
}

func checkUsageLimit(_ *RedemptionService, cc *checkContext) *models.Violation {
	if cc.coupon.HasRemainingUses() {
		return nil
	}
	return &models.Violation{
		Code:    models.ViolationUsageLimitReached,
		Message: "coupon has reached its maximum usage limit",
	}
}

func checkCampaignActive(_ *RedemptionService, cc *checkContext) *models.Violation {
	if cc.campaign != nil && cc.campaign.Status == models.CampaignStatusActive {
		return nil
	}
	return &models.Violation{
		Code:    models.ViolationCampaignInactive,
		Message: "campaign is not active",
	}
}

func checkStationApplicability(_ *RedemptionService, cc *checkContext) *models.Violation {
	if len(cc.coupon.ApplicableStations) == 0 {
		return nil
	}
	for _, id := range cc.coupon.ApplicableStations {
		if id == cc.req.StationID {
			return nil
		}
	}
	return &models.Violation{
		Code:    models.ViolationStationMismatch,
		Message: fmt.Sprintf("coupon is not applicable at station %d", cc.req.StationID),
	}
}

func checkFuelTypeApplicability(_ *RedemptionService, cc *checkContext) *models.Violation {
	if len(cc.coupon.ApplicableFuelTypes) == 0 {
		return nil
	}
	// Fail closed when the coupon restricts fuel types and none was given,
	// mirroring the minimum purchase check.
	if cc.req.FuelType == "" {
		return &models.Violation{
			Code:    models.ViolationFuelTypeMismatch,
			Message: "fuel type is required for this coupon",
		}
	}
	for _, ft := range cc.coupon.ApplicableFuelTypes {
		if ft == cc.req.FuelType {
			return nil
		}
	}
	return &models.Violation{
		Code:    models.ViolationFuelTypeMismatch,
		Message: fmt.Sprintf("coupon is not applicable to fuel type %q", cc.req.FuelType),
	}
}

func checkMinimumPurchase(_ *RedemptionService, cc *checkContext) *models.Violation {
	min := cc.coupon.MinimumPurchaseAmount
	if min == nil {
		return nil
	}
	// Fail closed when a minimum exists but no amount was provided.
	if cc.req.PurchaseAmount == nil || *cc.req.PurchaseAmount < *min {
		return &models.Violation{
			Code:    models.ViolationMinimumPurchaseNotMet,
			Message: fmt.Sprintf("purchase amount is below the minimum of %.2f", *min),
		}
	}
	return nil
}
