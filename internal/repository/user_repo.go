package repository

import (
	"context"

	"gorm.io/gorm"

	"umuganda/backend/internal/model"
)

// UserRepository 用户数据访问接口（用户资料维护不在本服务内，只读）
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByPhone(ctx context.Context, phone string) (*model.User, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("phone_number = ?", phone).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
