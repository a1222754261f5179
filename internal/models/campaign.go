// internal/models/campaign.go
package models

import "time"

type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusCancelled CampaignStatus = "cancelled"
)

type Campaign struct {
	ID                        string         `json:"id"`
	Name                      string         `json:"name" validate:"required"`
	Status                    CampaignStatus `json:"status"`
	StartDate                 time.Time      `json:"start_date" validate:"required"`
	EndDate                   time.Time      `json:"end_date" validate:"required,gtfield=StartDate"`
	DefaultFixedDiscount      *float64       `json:"default_fixed_discount,omitempty"`
	DefaultDiscountPercentage *float64       `json:"default_discount_percentage,omitempty"`
	DefaultRaffleTickets      int            `json:"default_raffle_tickets"`
	MaxCoupons                int            `json:"max_coupons"`
	GeneratedCoupons          int            `json:"generated_coupons"`
	UsedCoupons               int            `json:"used_coupons"`
	CreatedAt                 time.Time      `json:"created_at"`
	UpdatedAt                 time.Time      `json:"updated_at"`
}

type CreateCampaignRequest struct {
	Name                      string    `json:"name" validate:"required"`
	StartDate                 time.Time `json:"start_date" validate:"required"`
	EndDate                   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	DefaultFixedDiscount      *float64  `json:"default_fixed_discount,omitempty" validate:"omitempty,gt=0"`
	DefaultDiscountPercentage *float64  `json:"default_discount_percentage,omitempty" validate:"omitempty,gt=0,lte=100"`
	DefaultRaffleTickets      int       `json:"default_raffle_tickets" validate:"gte=0"`
	MaxCoupons                int       `json:"max_coupons" validate:"required,gt=0"`
}

type UpdateCampaignStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft active paused completed cancelled"`
}

type CampaignSummary struct {
	ActiveCampaignCount   int   `json:"active_campaign_count"`
	TotalGeneratedCoupons int64 `json:"total_generated_coupons"`
	TotalUsedCoupons      int64 `json:"total_used_coupons"`
}
