package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"umuganda/backend/internal/model"
	pkgerrors "umuganda/backend/pkg/errors"
)

// ProjectRepository 项目数据访问接口
type ProjectRepository interface {
	GetByID(ctx context.Context, id uint) (*model.Project, error)
	// UpdateStatus 乐观锁更新状态，版本不匹配返回 ErrOptimisticLock
	UpdateStatus(ctx context.Context, project *model.Project, status model.ProjectStatus) error
}

type projectRepo struct {
	db *gorm.DB
}

// NewProjectRepo 创建 ProjectRepository 实例
func NewProjectRepo(db *gorm.DB) ProjectRepository {
	return &projectRepo{db: db}
}

func (r *projectRepo) GetByID(ctx context.Context, id uint) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).
		Preload("Admin").
		Where("project_id = ?", id).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepo) UpdateStatus(ctx context.Context, project *model.Project, status model.ProjectStatus) error {
	oldVersion := project.Version
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.Project{}).
		Where("project_id = ? AND version = ?", project.ProjectID, oldVersion).
		Updates(map[string]interface{}{
			"status":     status,
			"version":    oldVersion + 1,
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	project.Status = status
	project.Version = oldVersion + 1
	project.UpdatedAt = now
	return nil
}
