package user

import (
	"context"
	"time"
)

const (
	PlanFree    = "free"
	PlanPro     = "pro"
	PlanPremium = "premium"
)

// PlanLimits describes monthly quotas. -1 means unlimited.
type PlanLimits struct {
	Name              string `json:"name"`
	SearchesPerMonth  int    `json:"searches_per_month"`
	DownloadsPerMonth int    `json:"downloads_per_month"`
}

// Stats is the counters-with-reset-date record consumed by the bot surfaces.
type Stats struct {
	UserID             string     `json:"user_id" gorm:"primaryKey"`
	Plan               string     `json:"plan"`
	PlanExpiresAt      *time.Time `json:"plan_expires_at"`
	Searches           int        `json:"searches"`
	Downloads          int        `json:"downloads"`
	SearchesThisMonth  int        `json:"searches_this_month"`
	DownloadsThisMonth int        `json:"downloads_this_month"`
	LastActivity       *time.Time `json:"last_activity"`
	MonthResetDate     time.Time  `json:"month_reset_date"`
}

type Remaining struct {
	Searches  int        `json:"searches"`
	Downloads int        `json:"downloads"`
	Limits    PlanLimits `json:"limits"`
}

type IUserRepository interface {
	Get(ctx context.Context, userID string) (Stats, error)
	Save(ctx context.Context, stats Stats) error
}

type IUserUsecase interface {
	GetStats(ctx context.Context, userID string) (Stats, error)
	GetRemaining(ctx context.Context, userID string) (Remaining, error)
	CanSearch(ctx context.Context, userID string) (bool, error)
	CanDownload(ctx context.Context, userID string) (bool, error)
	RegisterSearch(ctx context.Context, userID string) error
	RegisterDownload(ctx context.Context, userID string) error
	SetPlan(ctx context.Context, userID string, plan string, expiresAt *time.Time) error
}
