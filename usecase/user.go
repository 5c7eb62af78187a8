package usecase

import (
	"context"
	"time"

	domainUser "github.com/ndavydoff/music-finder/domains/user"
)

const unlimited = -1

var planLimits = map[string]domainUser.PlanLimits{
	domainUser.PlanFree:    {Name: "Free", SearchesPerMonth: 50, DownloadsPerMonth: 20},
	domainUser.PlanPro:     {Name: "Pro", SearchesPerMonth: 500, DownloadsPerMonth: 200},
	domainUser.PlanPremium: {Name: "Premium", SearchesPerMonth: unlimited, DownloadsPerMonth: unlimited},
}

type userService struct {
	repo domainUser.IUserRepository
}

func NewUserService(repo domainUser.IUserRepository) domainUser.IUserUsecase {
	return &userService{repo: repo}
}

// effectivePlan falls back to free when a pro subscription has lapsed.
func effectivePlan(stats domainUser.Stats) string {
	switch stats.Plan {
	case domainUser.PlanPremium:
		return domainUser.PlanPremium
	case domainUser.PlanPro:
		if stats.PlanExpiresAt != nil && time.Now().Before(*stats.PlanExpiresAt) {
			return domainUser.PlanPro
		}
		return domainUser.PlanFree
	default:
		return domainUser.PlanFree
	}
}

func limitsFor(stats domainUser.Stats) domainUser.PlanLimits {
	return planLimits[effectivePlan(stats)]
}

// resetMonthlyIfNeeded zeroes the monthly counters once 30 days have passed
// since the last reset date.
func resetMonthlyIfNeeded(stats *domainUser.Stats) {
	if time.Since(stats.MonthResetDate) >= 30*24*time.Hour {
		stats.SearchesThisMonth = 0
		stats.DownloadsThisMonth = 0
		stats.MonthResetDate = time.Now()
	}
}

func (s *userService) load(ctx context.Context, userID string) (domainUser.Stats, error) {
	stats, err := s.repo.Get(ctx, userID)
	if err != nil {
		return domainUser.Stats{}, err
	}
	resetMonthlyIfNeeded(&stats)
	return stats, nil
}

func (s *userService) GetStats(ctx context.Context, userID string) (domainUser.Stats, error) {
	return s.load(ctx, userID)
}

func (s *userService) GetRemaining(ctx context.Context, userID string) (domainUser.Remaining, error) {
	stats, err := s.load(ctx, userID)
	if err != nil {
		return domainUser.Remaining{}, err
	}

	limits := limitsFor(stats)
	remaining := domainUser.Remaining{Limits: limits}
	remaining.Searches = limits.SearchesPerMonth
	remaining.Downloads = limits.DownloadsPerMonth
	if limits.SearchesPerMonth != unlimited {
		remaining.Searches = limits.SearchesPerMonth - stats.SearchesThisMonth
	}
	if limits.DownloadsPerMonth != unlimited {
		remaining.Downloads = limits.DownloadsPerMonth - stats.DownloadsThisMonth
	}

	return remaining, nil
}

func (s *userService) CanSearch(ctx context.Context, userID string) (bool, error) {
	stats, err := s.load(ctx, userID)
	if err != nil {
		return false, err
	}
	limits := limitsFor(stats)
	return limits.SearchesPerMonth == unlimited || stats.SearchesThisMonth < limits.SearchesPerMonth, nil
}

func (s *userService) CanDownload(ctx context.Context, userID string) (bool, error) {
	stats, err := s.load(ctx, userID)
	if err != nil {
		return false, err
	}
	limits := limitsFor(stats)
	return limits.DownloadsPerMonth == unlimited || stats.DownloadsThisMonth < limits.DownloadsPerMonth, nil
}

func (s *userService) RegisterSearch(ctx context.Context, userID string) error {
	stats, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	now := time.Now()
	stats.Searches++
	stats.SearchesThisMonth++
	stats.LastActivity = &now

	return s.repo.Save(ctx, stats)
}

func (s *userService) RegisterDownload(ctx context.Context, userID string) error {
	stats, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	now := time.Now()
	stats.Downloads++
	stats.DownloadsThisMonth++
	stats.LastActivity = &now

	return s.repo.Save(ctx, stats)
}

func (s *userService) SetPlan(ctx context.Context, userID string, plan string, expiresAt *time.Time) error {
	stats, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	stats.Plan = plan
	stats.PlanExpiresAt = expiresAt

	return s.repo.Save(ctx, stats)
}
