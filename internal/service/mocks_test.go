package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"fuelcoupons/internal/interfaces"
	"fuelcoupons/internal/models"
)

// In-memory repositories with the same conditional-update semantics the SQL
// implementations have. All mutation happens under one mutex so the
// concurrency tests exercise real races between callers.

type memCouponRepo struct {
	mu     sync.Mutex
	byID   map[string]*models.Coupon
	nextID int

	listErr error
}

var _ interfaces.CouponRepository = (*memCouponRepo)(nil)

func newMemCouponRepo() *memCouponRepo {
	return &memCouponRepo{byID: make(map[string]*models.Coupon)}
}

func (r *memCouponRepo) Create(ctx context.Context, c *models.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		r.nextID++
		c.ID = fmt.Sprintf("coupon-%d", r.nextID)
	}
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	r.byID[c.ID] = &cp
	return nil
}

func (r *memCouponRepo) GetByID(ctx context.Context, id string) (*models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (r *memCouponRepo) GetByToken(ctx context.Context, token string) (*models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byID {
		if c.Token == token {
			cp := *c
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memCouponRepo) GetByCouponCode(ctx context.Context, code string) (*models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byID {
		if c.CouponCode == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memCouponRepo) List(ctx context.Context, filter interfaces.CouponFilter) ([]*models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*models.Coupon, 0, len(r.byID))
	for _, c := range r.byID {
		if filter.Status != "" && string(c.Status) != filter.Status {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*models.Coupon{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memCouponRepo) UpdateStatusIfCurrent(ctx context.Context, id string, next models.CouponStatus, expected ...models.CouponStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return 0, nil
	}
	for _, from := range expected {
		if c.Status == from {
			c.Status = next
			c.UpdatedAt = time.Now().UTC()
			return 1, nil
		}
	}
	return 0, nil
}

func (r *memCouponRepo) ConsumeUse(ctx context.Context, id string, now time.Time) (*models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if c.Status != models.CouponStatusActive {
		return nil, sql.ErrNoRows
	}
	if c.MaxUses != nil && c.CurrentUses >= *c.MaxUses {
		return nil, sql.ErrNoRows
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return nil, sql.ErrNoRows
	}
	c.CurrentUses++
	if c.MaxUses != nil && c.CurrentUses >= *c.MaxUses {
		c.Status = models.CouponStatusUsedUp
	}
	c.UpdatedAt = now
	cp := *c
	return &cp, nil
}

func (r *memCouponRepo) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.byID {
		if c.ValidUntil.Before(now) &&
			(c.Status == models.CouponStatusActive || c.Status == models.CouponStatusInactive) {
			c.Status = models.CouponStatusExpired
			c.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

type memCampaignRepo struct {
	mu   sync.Mutex
	byID map[string]*models.Campaign
}

var _ interfaces.CampaignRepository = (*memCampaignRepo)(nil)

func newMemCampaignRepo() *memCampaignRepo {
	return &memCampaignRepo{byID: make(map[string]*models.Campaign)}
}

func (r *memCampaignRepo) Create(ctx context.Context, c *models.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.byID[c.ID] = &cp
	return nil
}

func (r *memCampaignRepo) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (r *memCampaignRepo) List(ctx context.Context, filter interfaces.CampaignFilter) ([]*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Campaign, 0, len(r.byID))
	for _, c := range r.byID {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memCampaignRepo) Summary(ctx context.Context, filter interfaces.CampaignFilter) (*models.CampaignSummary, error) {
	return &models.CampaignSummary{}, nil
}

func (r *memCampaignRepo) UpdateStatusIfCurrent(ctx context.Context, id string, expected, next models.CampaignStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok || c.Status != expected {
		return 0, nil
	}
	c.Status = next
	return 1, nil
}

func (r *memCampaignRepo) IncrementGeneratedCoupons(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return false, sql.ErrNoRows
	}
	if c.GeneratedCoupons >= c.MaxCoupons {
		return false, nil
	}
	c.GeneratedCoupons++
	return true, nil
}

func (r *memCampaignRepo) IncrementUsedCoupons(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[id]; ok {
		c.UsedCoupons++
	}
	return nil
}
