package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"fuelcoupons/internal/interfaces"
	"fuelcoupons/internal/models"
)

type campaignRepository struct {
	db *sql.DB
}

func NewCampaignRepository(db *sql.DB) interfaces.CampaignRepository {
	return &campaignRepository{db: db}
}

const campaignColumns = `
		id, name, status, start_date, end_date,
		default_fixed_discount, default_discount_percentage, default_raffle_tickets,
		max_coupons, generated_coupons, used_coupons,
		created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*models.Campaign, error) {
	var c models.Campaign
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Status,
		&c.StartDate,
		&c.EndDate,
		&c.DefaultFixedDiscount,
		&c.DefaultDiscountPercentage,
		&c.DefaultRaffleTickets,
		&c.MaxCoupons,
		&c.GeneratedCoupons,
		&c.UsedCoupons,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *campaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	query := `
		INSERT INTO campaigns (
			id, name, status, start_date, end_date,
			default_fixed_discount, default_discount_percentage, default_raffle_tickets,
			max_coupons
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	return r.db.QueryRowContext(
		ctx,
		query,
		campaign.ID,
		campaign.Name,
		campaign.Status,
		campaign.StartDate,
		campaign.EndDate,
		campaign.DefaultFixedDiscount,
		campaign.DefaultDiscountPercentage,
		campaign.DefaultRaffleTickets,
		campaign.MaxCoupons,
	).Scan(&campaign.CreatedAt, &campaign.UpdatedAt)
}

func (r *campaignRepository) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	query := `SELECT` + campaignColumns + ` FROM campaigns WHERE id = $1`
	return scanCampaign(r.db.QueryRowContext(ctx, query, id))
}

func (r *campaignRepository) List(ctx context.Context, filter interfaces.CampaignFilter) ([]*models.Campaign, error) {
	query := `SELECT` + campaignColumns + ` FROM campaigns WHERE 1=1`

	var args []interface{}
	var whereClauses []string
	argPos := 1

	if filter.Status != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", argPos))
		args = append(args, filter.Status)
		argPos++
	}

	if !filter.StartDate.IsZero() {
		whereClauses = append(whereClauses, fmt.Sprintf("start_date >= $%d", argPos))
		args = append(args, filter.StartDate)
		argPos++
	}

	if !filter.EndDate.IsZero() {
		whereClauses = append(whereClauses, fmt.Sprintf("end_date <= $%d", argPos))
		args = append(args, filter.EndDate)
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

	var campaigns []*models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}

	return campaigns, rows.Err()
}

func (r *campaignRepository) Summary(ctx context.Context, filter interfaces.CampaignFilter) (*models.CampaignSummary, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0) AS active_campaign_count,
			COALESCE(SUM(generated_coupons), 0) AS total_generated_coupons,
			COALESCE(SUM(used_coupons), 0) AS total_used_coupons
		FROM campaigns
		WHERE 1=1
	`

	var args []interface{}
	var whereClauses []string
	argPos := 1

	if filter.Status != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", argPos))
		args = append(args, filter.Status)
		argPos++
	}

	if !filter.StartDate.IsZero() {
		whereClauses = append(whereClauses, fmt.Sprintf("start_date >= $%d", argPos))
		args = append(args, filter.StartDate)
		argPos++
	}

	if !filter.EndDate.IsZero() {
		whereClauses = append(whereClauses, fmt.Sprintf("end_date <= $%d", argPos))
		args = append(args, filter.EndDate)
	}

	if len(whereClauses) > 0 {
		query += " AND " + strings.Join(whereClauses, " AND ")
	}

	var summary models.CampaignSummary
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&summary.ActiveCampaignCount,
		&summary.TotalGeneratedCoupons,
		&summary.TotalUsedCoupons,
	); err != nil {
		return nil, err
	}

	return &summary, nil
}

func (r *campaignRepository) UpdateStatusIfCurrent(ctx context.Context, id string, expected, next models.CampaignStatus) (int64, error) {
	query := `
		UPDATE campaigns
		SET status = $3,
			updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1
		  AND status = $2
	`

	res, err := r.db.ExecContext(ctx, query, id, expected, next)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// IncrementGeneratedCoupons enforces the campaign coupon capacity at the
// database, so two instances issuing concurrently cannot overshoot.
func (r *campaignRepository) IncrementGeneratedCoupons(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE campaigns
		SET generated_coupons = generated_coupons + 1,
			updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1
		  AND generated_coupons < max_coupons
	`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *campaignRepository) IncrementUsedCoupons(ctx context.Context, id string) error {
	query := `
		UPDATE campaigns
		SET used_coupons = used_coupons + 1,
			updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
