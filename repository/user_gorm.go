package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	domainUser "github.com/ndavydoff/music-finder/domains/user"
)

type userGormRepository struct {
	db *gorm.DB
}

func NewUserGormRepository(db *gorm.DB) (domainUser.IUserRepository, error) {
	if err := db.AutoMigrate(&domainUser.Stats{}); err != nil {
		return nil, err
	}
	return &userGormRepository{db: db}, nil
}

// Get returns the stored record or a fresh free-plan record for new users.
func (r *userGormRepository) Get(ctx context.Context, userID string) (domainUser.Stats, error) {
	var stats domainUser.Stats
	err := r.db.WithContext(ctx).First(&stats, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainUser.Stats{
			UserID:         userID,
			Plan:           domainUser.PlanFree,
			MonthResetDate: time.Now(),
		}, nil
	}
	if err != nil {
		return domainUser.Stats{}, err
	}
	return stats, nil
}

func (r *userGormRepository) Save(ctx context.Context, stats domainUser.Stats) error {
	return r.db.WithContext(ctx).Save(&stats).Error
}
