package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainUser "github.com/ndavydoff/music-finder/domains/user"
)

// memoryUserRepo mimics the gorm repository: unknown users get a fresh
// free-plan record.
type memoryUserRepo struct {
	mu      sync.Mutex
	records map[string]domainUser.Stats
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{records: make(map[string]domainUser.Stats)}
}

func (r *memoryUserRepo) Get(ctx context.Context, userID string) (domainUser.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stats, ok := r.records[userID]; ok {
		return stats, nil
	}
	return domainUser.Stats{
		UserID:         userID,
		Plan:           domainUser.PlanFree,
		MonthResetDate: time.Now(),
	}, nil
}

func (r *memoryUserRepo) Save(ctx context.Context, stats domainUser.Stats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[stats.UserID] = stats
	return nil
}

func TestNewUserStartsOnFreePlan(t *testing.T) {
	service := NewUserService(newMemoryUserRepo())

	stats, err := service.GetStats(context.Background(), "tg:1")
	require.NoError(t, err)
	assert.Equal(t, domainUser.PlanFree, stats.Plan)
	assert.Zero(t, stats.Searches)

	remaining, err := service.GetRemaining(context.Background(), "tg:1")
	require.NoError(t, err)
	assert.Equal(t, 50, remaining.Searches)
	assert.Equal(t, 20, remaining.Downloads)
}

func TestRegisterSearchDecrementsRemaining(t *testing.T) {
	service := NewUserService(newMemoryUserRepo())

	require.NoError(t, service.RegisterSearch(context.Background(), "tg:1"))
	require.NoError(t, service.RegisterSearch(context.Background(), "tg:1"))

	stats, err := service.GetStats(context.Background(), "tg:1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Searches)
	assert.Equal(t, 2, stats.SearchesThisMonth)
	assert.NotNil(t, stats.LastActivity)

	remaining, err := service.GetRemaining(context.Background(), "tg:1")
	require.NoError(t, err)
	assert.Equal(t, 48, remaining.Searches)
}

func TestCanDownloadDeniedAtLimit(t *testing.T) {
	repo := newMemoryUserRepo()
	repo.records["tg:1"] = domainUser.Stats{
		UserID:             "tg:1",
		Plan:               domainUser.PlanFree,
		DownloadsThisMonth: 20,
		MonthResetDate:     time.Now(),
	}
	service := NewUserService(repo)

	ok, err := service.CanDownload(context.Background(), "tg:1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = service.CanSearch(context.Background(), "tg:1")
	require.NoError(t, err)
	assert.True(t, ok, "search quota is independent of download quota")
}

func TestPremiumIsUnlimited(t *testing.T) {
	repo := newMemoryUserRepo()
	repo.records["tg:1"] = domainUser.Stats{
		UserID:             "tg:1",
		Plan:               domainUser.PlanPremium,
		SearchesThisMonth:  100000,
		DownloadsThisMonth: 100000,
		MonthResetDate:     time.Now(),
	}
	service := NewUserService(repo)

	ok, err := service.CanSearch(context.Background(), "tg:1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = service.CanDownload(context.Background(), "tg:1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMonthlyCountersResetAfterThirtyDays(t *testing.T) {
	repo := newMemoryUserRepo()
	repo.records["tg:1"] = domainUser.Stats{
		UserID:             "tg:1",
		Plan:               domainUser.PlanFree,
		Searches:           60,
		SearchesThisMonth:  50,
		DownloadsThisMonth: 20,
		MonthResetDate:     time.Now().Add(-31 * 24 * time.Hour),
	}
	service := NewUserService(repo)

	ok, err := service.CanSearch(context.Background(), "tg:1")
	require.NoError(t, err)
	assert.True(t, ok, "counters reset after the 30-day window")

	stats, err := service.GetStats(context.Background(), "tg:1")
	require.NoError(t, err)
	assert.Zero(t, stats.SearchesThisMonth)
	assert.Zero(t, stats.DownloadsThisMonth)
	assert.Equal(t, 60, stats.Searches, "lifetime counters are never reset")
}

func TestLapsedProFallsBackToFree(t *testing.T) {
	expired := time.Now().Add(-time.Hour)
	repo := newMemoryUserRepo()
	repo.records["tg:1"] = domainUser.Stats{
		UserID:            "tg:1",
		Plan:              domainUser.PlanPro,
		PlanExpiresAt:     &expired,
		SearchesThisMonth: 50,
		MonthResetDate:    time.Now(),
	}
	service := NewUserService(repo)

	ok, err := service.CanSearch(context.Background(), "tg:1")
	require.NoError(t, err)
	assert.False(t, ok, "lapsed pro is limited by the free plan")

	remaining, err := service.GetRemaining(context.Background(), "tg:1")
	require.NoError(t, err)
	assert.Equal(t, "Free", remaining.Limits.Name)
}

func TestSetPlanUpgrades(t *testing.T) {
	service := NewUserService(newMemoryUserRepo())

	expiry := time.Now().Add(30 * 24 * time.Hour)
	require.NoError(t, service.SetPlan(context.Background(), "tg:1", domainUser.PlanPro, &expiry))

	remaining, err := service.GetRemaining(context.Background(), "tg:1")
	require.NoError(t, err)
	assert.Equal(t, "Pro", remaining.Limits.Name)
	assert.Equal(t, 500, remaining.Searches)
}
