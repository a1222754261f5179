package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fuelcoupons/internal/models"
	"fuelcoupons/internal/token"
)

type couponFixture struct {
	svc       *CouponService
	coupons   *memCouponRepo
	campaigns *memCampaignRepo
	verifier  *token.Verifier
}

func newCouponFixture(t *testing.T, campaign *models.Campaign) *couponFixture {
	t.Helper()

	secret := []byte("test-coupon-secret")
	signer := token.NewSigner(secret, nil)

	campaigns := newMemCampaignRepo()
	if campaign != nil {
		campaigns.Create(context.Background(), campaign)
	}

	coupons := newMemCouponRepo()
	svc := NewCouponService(coupons, campaigns, signer)
	svc.now = func() time.Time { return testNow }

	return &couponFixture{
		svc:       svc,
		coupons:   coupons,
		campaigns: campaigns,
		verifier:  token.NewVerifier(secret, nil),
	}
}

func activeCampaign(maxCoupons int) *models.Campaign {
	return &models.Campaign{
		ID:         testCampaignID,
		Name:       "Spring Fuel Savings",
		Status:     models.CampaignStatusActive,
		StartDate:  testNow.AddDate(0, -1, 0),
		EndDate:    testNow.AddDate(0, 1, 0),
		MaxCoupons: maxCoupons,
	}
}

func issueRequest() models.IssueCouponRequest {
	return models.IssueCouponRequest{
		CampaignID: testCampaignID,
		ValidFrom:  testNow.AddDate(0, 0, -1),
		ValidUntil: testNow.AddDate(0, 0, 7),
	}
}

func TestIssueCouponSignsAndPersists(t *testing.T) {
	f := newCouponFixture(t, activeCampaign(10))

	req := issueRequest()
	fixed := 15.0
	req.FixedDiscountAmount = &fixed

	c, err := f.svc.IssueCoupon(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Status != models.CouponStatusActive {
		t.Fatalf("expected active status, got %s", c.Status)
	}
	if !token.IsWellFormed(c.Token) {
		t.Fatalf("issued token is malformed: %q", c.Token)
	}
	if !f.verifier.VerifySignature(c.Token, c.TokenSignature, c) {
		t.Fatal("issued token signature does not verify")
	}

	campaign, _ := f.campaigns.GetByID(context.Background(), testCampaignID)
	if campaign.GeneratedCoupons != 1 {
		t.Fatalf("expected generated counter 1, got %d", campaign.GeneratedCoupons)
	}
}

func TestIssueCouponFallsBackToCampaignDefaults(t *testing.T) {
	campaign := activeCampaign(10)
	pct := 5.0
	campaign.DefaultDiscountPercentage = &pct
	campaign.DefaultRaffleTickets = 3
	f := newCouponFixture(t, campaign)

	c, err := f.svc.IssueCoupon(context.Background(), issueRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.DiscountPercentage == nil || *c.DiscountPercentage != 5.0 {
		t.Fatalf("expected campaign default percentage, got %+v", c.DiscountPercentage)
	}
	if c.RaffleTickets != 3 {
		t.Fatalf("expected campaign default raffle tickets, got %d", c.RaffleTickets)
	}
}

func TestIssueCouponCapacityReached(t *testing.T) {
	f := newCouponFixture(t, activeCampaign(1))

	if _, err := f.svc.IssueCoupon(context.Background(), issueRequest()); err != nil {
		t.Fatalf("first issue: %v", err)
	}
	_, err := f.svc.IssueCoupon(context.Background(), issueRequest())
	if !errors.Is(err, ErrCampaignCapacityReached) {
		t.Fatalf("expected ErrCampaignCapacityReached, got %v", err)
	}
}

func TestIssueCouponCampaignNotActive(t *testing.T) {
	campaign := activeCampaign(10)
	campaign.Status = models.CampaignStatusPaused
	f := newCouponFixture(t, campaign)

	_, err := f.svc.IssueCoupon(context.Background(), issueRequest())
	if !errors.Is(err, ErrCampaignNotActive) {
		t.Fatalf("expected ErrCampaignNotActive, got %v", err)
	}
}

func TestIssueCouponCampaignNotFound(t *testing.T) {
	f := newCouponFixture(t, nil)

	_, err := f.svc.IssueCoupon(context.Background(), issueRequest())
	if !errors.Is(err, ErrCampaignNotFound) {
		t.Fatalf("expected ErrCampaignNotFound, got %v", err)
	}
}

func seedCoupon(t *testing.T, f *couponFixture, status models.CouponStatus, maxUses *int, currentUses int) *models.Coupon {
	t.Helper()
	c := &models.Coupon{
		CampaignID:  testCampaignID,
		CouponCode:  "FUEL-SEED-0001",
		Token:       "FC1.550e8400-e29b-41d4-a716-446655440000.1700000000.0123456789abcdef.FUEL-SEED-0001",
		Status:      status,
		ValidFrom:   testNow.AddDate(0, 0, -1),
		ValidUntil:  testNow.AddDate(0, 0, 7),
		MaxUses:     maxUses,
		CurrentUses: currentUses,
	}
	if err := f.coupons.Create(context.Background(), c); err != nil {
		t.Fatalf("seed coupon: %v", err)
	}
	return c
}

func TestDeactivateThenActivatePreservesUses(t *testing.T) {
	f := newCouponFixture(t, activeCampaign(10))
	maxUses := 5
	c := seedCoupon(t, f, models.CouponStatusActive, &maxUses, 2)

	got, err := f.svc.Deactivate(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if got.Status != models.CouponStatusInactive || got.CurrentUses != 2 {
		t.Fatalf("unexpected coupon after deactivate: %+v", got)
	}

	got, err = f.svc.Activate(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if got.Status != models.CouponStatusActive || got.CurrentUses != 2 {
		t.Fatalf("unexpected coupon after reactivate: %+v", got)
	}
}

func TestActivateCancelledCouponFails(t *testing.T) {
	f := newCouponFixture(t, activeCampaign(10))
	c := seedCoupon(t, f, models.CouponStatusCancelled, nil, 0)

	_, err := f.svc.Activate(context.Background(), c.ID)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if te.From != models.CouponStatusCancelled || te.To != models.CouponStatusActive {
		t.Fatalf("unexpected transition error: %+v", te)
	}
}

func TestCancelInactiveCoupon(t *testing.T) {
	f := newCouponFixture(t, activeCampaign(10))
	c := seedCoupon(t, f, models.CouponStatusInactive, nil, 0)

	got, err := f.svc.Cancel(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != models.CouponStatusCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}
}

func TestConsumeUseFlipsToUsedUpAtLimit(t *testing.T) {
	f := newCouponFixture(t, activeCampaign(10))
	maxUses := 2
	c := seedCoupon(t, f, models.CouponStatusActive, &maxUses, 1)

	got, err := f.svc.ConsumeUse(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if got.CurrentUses != 2 {
		t.Fatalf("expected 2 uses, got %d", got.CurrentUses)
	}
	if got.Status != models.CouponStatusUsedUp {
		t.Fatalf("expected used_up, got %s", got.Status)
	}

	campaign, _ := f.campaigns.GetByID(context.Background(), testCampaignID)
	if campaign.UsedCoupons != 1 {
		t.Fatalf("expected campaign used counter 1, got %d", campaign.UsedCoupons)
	}
}

func TestConsumeUseRefusedReportsViolation(t *testing.T) {
	f := newCouponFixture(t, activeCampaign(10))
	c := seedCoupon(t, f, models.CouponStatusInactive, nil, 0)

	_, err := f.svc.ConsumeUse(context.Background(), c.ID)
	var nu *NotUsableError
	if !errors.As(err, &nu) {
		t.Fatalf("expected NotUsableError, got %v", err)
	}
	if nu.Violation.Code != models.ViolationStatusNotActive {
		t.Fatalf("expected status_not_active, got %+v", nu.Violation)
	}
}

// The second consumption of a single-use coupon must be refused as a usage
// limit violation even though the first one flipped the status to used_up.
func TestConsumeUseExhaustedReportsUsageLimit(t *testing.T) {
	f := newCouponFixture(t, activeCampaign(10))
	maxUses := 1
	c := seedCoupon(t, f, models.CouponStatusActive, &maxUses, 0)

	if _, err := f.svc.ConsumeUse(context.Background(), c.ID); err != nil {
		t.Fatalf("first consume: %v", err)
	}

	_, err := f.svc.ConsumeUse(context.Background(), c.ID)
	var nu *NotUsableError
	if !errors.As(err, &nu) {
		t.Fatalf("expected NotUsableError, got %v", err)
	}
	if nu.Violation.Code != models.ViolationUsageLimitReached {
		t.Fatalf("expected usage_limit_reached, got %+v", nu.Violation)
	}
}

func TestConsumeUseUnknownCoupon(t *testing.T) {
	f := newCouponFixture(t, activeCampaign(10))

	_, err := f.svc.ConsumeUse(context.Background(), "missing")
	if !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected ErrCouponNotFound, got %v", err)
	}
}

// Two concurrent consumptions race for a coupon with one remaining use.
// Exactly one may win.
func TestConsumeUseConcurrentDoubleSpend(t *testing.T) {
	f := newCouponFixture(t, activeCampaign(10))
	maxUses := 1
	c := seedCoupon(t, f, models.CouponStatusActive, &maxUses, 0)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.ConsumeUse(context.Background(), c.ID)
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		var nu *NotUsableError
		if !errors.As(err, &nu) {
			t.Fatalf("unexpected error kind: %v", err)
		}
		if nu.Violation.Code != models.ViolationUsageLimitReached {
			t.Fatalf("loser must see usage_limit_reached, got %+v", nu.Violation)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one successful consumption, got %d", wins)
	}

	final, _ := f.coupons.GetByID(context.Background(), c.ID)
	if final.CurrentUses != 1 || final.Status != models.CouponStatusUsedUp {
		t.Fatalf("unexpected final state: %+v", final)
	}
}

func TestExpireOverdueSweep(t *testing.T) {
	f := newCouponFixture(t, activeCampaign(10))

	overdue := seedCoupon(t, f, models.CouponStatusActive, nil, 0)
	f.coupons.mu.Lock()
	f.coupons.byID[overdue.ID].ValidUntil = testNow.AddDate(0, 0, -2)
	f.coupons.mu.Unlock()

	current := &models.Coupon{
		CampaignID: testCampaignID,
		CouponCode: "FUEL-LIVE-0002",
		Token:      "FC1.550e8400-e29b-41d4-a716-446655440000.1700000001.0123456789abcdef.FUEL-LIVE-0002",
		Status:     models.CouponStatusActive,
		ValidFrom:  testNow.AddDate(0, 0, -1),
		ValidUntil: testNow.AddDate(0, 0, 7),
	}
	f.coupons.Create(context.Background(), current)

	n, err := f.svc.ExpireOverdue(context.Background())
	if err != nil {
		t.Fatalf("expire overdue: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired, got %d", n)
	}

	got, _ := f.coupons.GetByID(context.Background(), overdue.ID)
	if got.Status != models.CouponStatusExpired {
		t.Fatalf("expected expired, got %s", got.Status)
	}
	got, _ = f.coupons.GetByID(context.Background(), current.ID)
	if got.Status != models.CouponStatusActive {
		t.Fatalf("expected still active, got %s", got.Status)
	}
}
