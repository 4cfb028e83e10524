package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"umuganda/backend/internal/model"
)

// CheckinTokenRepository 签到码数据访问接口
type CheckinTokenRepository interface {
	GetByProject(ctx context.Context, projectID uint) (*model.CheckinToken, error)
	GetByProjectAndCode(ctx context.Context, projectID uint, code string) (*model.CheckinToken, error)
	// CreateIfAbsent 项目尚无签到码时写入；已存在返回 false，不覆盖
	CreateIfAbsent(ctx context.Context, token *model.CheckinToken) (bool, error)
	// Replace 仅当当前码仍为 oldCode 时替换为新码（过期重签）；被并发抢先返回 false
	Replace(ctx context.Context, oldCode string, token *model.CheckinToken) (bool, error)
}

type checkinTokenRepo struct {
	db *gorm.DB
}

// NewCheckinTokenRepo 创建 CheckinTokenRepository 实例
func NewCheckinTokenRepo(db *gorm.DB) CheckinTokenRepository {
	return &checkinTokenRepo{db: db}
}

func (r *checkinTokenRepo) GetByProject(ctx context.Context, projectID uint) (*model.CheckinToken, error) {
	var token model.CheckinToken
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *checkinTokenRepo) GetByProjectAndCode(ctx context.Context, projectID uint, code string) (*model.CheckinToken, error) {
	var token model.CheckinToken
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND code = ?", projectID, code).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *checkinTokenRepo) CreateIfAbsent(ctx context.Context, token *model.CheckinToken) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}},
			DoNothing: true,
		}).
		Create(token)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *checkinTokenRepo) Replace(ctx context.Context, oldCode string, token *model.CheckinToken) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.CheckinToken{}).
		Where("project_id = ? AND code = ?", token.ProjectID, oldCode).
		Updates(map[string]interface{}{
			"code":       token.Code,
			"expires_at": token.ExpiresAt,
			"qr_image":   token.QRImage,
			"updated_at": token.UpdatedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
