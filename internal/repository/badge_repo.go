package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"umuganda/backend/internal/model"
)

// BadgeRepository 徽章数据访问接口
type BadgeRepository interface {
	// ListCatalog 徽章目录，按门槛升序
	ListCatalog(ctx context.Context) ([]model.Badge, error)
	// AwardIfAbsent 授予徽章；已持有返回 false
	AwardIfAbsent(ctx context.Context, userID, badgeID uint, at time.Time) (bool, error)
	ListByUser(ctx context.Context, userID uint) ([]model.UserBadge, error)
}

type badgeRepo struct {
	db *gorm.DB
}

// NewBadgeRepo 创建 BadgeRepository 实例
func NewBadgeRepo(db *gorm.DB) BadgeRepository {
	return &badgeRepo{db: db}
}

func (r *badgeRepo) ListCatalog(ctx context.Context) ([]model.Badge, error) {
	var badges []model.Badge
	err := r.db.WithContext(ctx).
		Order("threshold ASC").
		Find(&badges).Error
	return badges, err
}

func (r *badgeRepo) AwardIfAbsent(ctx context.Context, userID, badgeID uint, at time.Time) (bool, error) {
	ub := &model.UserBadge{UserID: userID, BadgeID: badgeID, AwardedAt: at}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
			DoNothing: true,
		}).
		Create(ub)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *badgeRepo) ListByUser(ctx context.Context, userID uint) ([]model.UserBadge, error) {
	var list []model.UserBadge
	err := r.db.WithContext(ctx).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("awarded_at ASC").
		Order("user_badge_id ASC").
		Find(&list).Error
	return list, err
}
