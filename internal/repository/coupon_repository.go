package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"fuelcoupons/internal/interfaces"
	"fuelcoupons/internal/models"
)

type couponRepository struct {
	db *sql.DB
}

func NewCouponRepository(db *sql.DB) interfaces.CouponRepository {
	return &couponRepository{db: db}
}

const couponColumns = `
		id, campaign_id, coupon_code, token, token_signature, token_issued_at,
		status, valid_from, valid_until,
		fixed_discount_amount, discount_percentage, minimum_purchase_amount,
		applicable_fuel_types, applicable_stations,
		max_uses, current_uses, raffle_tickets,
		created_at, updated_at`

func scanCoupon(row interface{ Scan(...any) error }) (*models.Coupon, error) {
	var c models.Coupon
	err := row.Scan(
		&c.ID,
		&c.CampaignID,
		&c.CouponCode,
		&c.Token,
		&c.TokenSignature,
		&c.TokenIssuedAt,
		&c.Status,
		&c.ValidFrom,
		&c.ValidUntil,
		&c.FixedDiscountAmount,
		&c.DiscountPercentage,
		&c.MinimumPurchaseAmount,
		pq.Array(&c.ApplicableFuelTypes),
		pq.Array(&c.ApplicableStations),
		&c.MaxUses,
		&c.CurrentUses,
		&c.RaffleTickets,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *couponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	fuelTypes := coupon.ApplicableFuelTypes
	if fuelTypes == nil {
		fuelTypes = []string{}
	}
	stations := coupon.ApplicableStations
	if stations == nil {
		stations = []int64{}
	}

	query := `
		INSERT INTO coupons (
			campaign_id, coupon_code, token, token_signature, token_issued_at,
			status, valid_from, valid_until,
			fixed_discount_amount, discount_percentage, minimum_purchase_amount,
			applicable_fuel_types, applicable_stations,
			max_uses, current_uses, raffle_tickets
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at
	`

	return r.db.QueryRowContext(
		ctx,
		query,
		coupon.CampaignID,
		coupon.CouponCode,
		coupon.Token,
		coupon.TokenSignature,
		coupon.TokenIssuedAt,
		coupon.Status,
		coupon.ValidFrom,
		coupon.ValidUntil,
		coupon.FixedDiscountAmount,
		coupon.DiscountPercentage,
		coupon.MinimumPurchaseAmount,
		pq.Array(fuelTypes),
		pq.Array(stations),
		coupon.MaxUses,
		coupon.CurrentUses,
		coupon.RaffleTickets,
	).Scan(&coupon.ID, &coupon.CreatedAt, &coupon.UpdatedAt)
}

func (r *couponRepository) GetByID(ctx context.Context, id string) (*models.Coupon, error) {
	query := `SELECT` + couponColumns + ` FROM coupons WHERE id = $1`
	return scanCoupon(r.db.QueryRowContext(ctx, query, id))
}

func (r *couponRepository) GetByToken(ctx context.Context, token string) (*models.Coupon, error) {
	query := `SELECT` + couponColumns + ` FROM coupons WHERE token = $1`
	return scanCoupon(r.db.QueryRowContext(ctx, query, token))
}

func (r *couponRepository) GetByCouponCode(ctx context.Context, code string) (*models.Coupon, error) {
	query := `SELECT` + couponColumns + ` FROM coupons WHERE coupon_code = $1`
	return scanCoupon(r.db.QueryRowContext(ctx, query, code))
}

func (r *couponRepository) List(ctx context.Context, filter interfaces.CouponFilter) ([]*models.Coupon, error) {
	query := `SELECT` + couponColumns + ` FROM coupons WHERE 1=1`

	var args []interface{}
	var whereClauses []string
	argPos := 1

	if filter.CampaignID != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("campaign_id = $%d", argPos))
		args = append(args, filter.CampaignID)
		argPos++
	}

	if filter.Status != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", argPos))
		args = append(args, filter.Status)
		argPos++
	}

	if len(whereClauses) > 0 {
		query += " AND " + strings.Join(whereClauses, " AND ")
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filter.Limit)
		argPos++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []*models.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}

	return coupons, rows.Err()
}

func (r *couponRepository) UpdateStatusIfCurrent(ctx context.Context, id string, next models.CouponStatus, expected ...models.CouponStatus) (int64, error) {
	from := make([]string, len(expected))
	for i, s := range expected {
		from[i] = string(s)
	}

	query := `
		UPDATE coupons
		SET status = $2,
			updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1
		  AND status = ANY($3)
	`

	res, err := r.db.ExecContext(ctx, query, id, next, pq.Array(from))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ConsumeUse is the only mutator of current_uses. The increment, the usage
// limit guard and the used_up transition happen in one statement so there is
// never a state where current_uses == max_uses but the status is still
// active, and exactly one of two racing calls can win the last use.
func (r *couponRepository) ConsumeUse(ctx context.Context, id string, now time.Time) (*models.Coupon, error) {
	query := `
		UPDATE coupons
		SET current_uses = current_uses + 1,
			status = CASE
				WHEN max_uses IS NOT NULL AND current_uses + 1 >= max_uses THEN 'used_up'
				ELSE status
			END,
			updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1
		  AND status = 'active'
		  AND (max_uses IS NULL OR current_uses < max_uses)
		  AND valid_from <= $2
		  AND valid_until >= $2
		RETURNING` + couponColumns + `
	`

	return scanCoupon(r.db.QueryRowContext(ctx, query, id, now))
}

func (r *couponRepository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE coupons
		SET status = 'expired',
			updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE valid_until < $1
		  AND status IN ('active', 'inactive')
	`

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
