package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"umuganda/backend/internal/model"
	pkgerrors "umuganda/backend/pkg/errors"
)

// AttendanceRepository 出勤记录数据访问接口
type AttendanceRepository interface {
	Create(ctx context.Context, record *model.Attendance) error
	// FindOpen 查询 (user, project) 最近一条未签退记录
	FindOpen(ctx context.Context, userID, projectID uint) (*model.Attendance, error)
	// LockLatestOpen 同 FindOpen，但加 FOR UPDATE 行锁，须在事务中调用
	LockLatestOpen(ctx context.Context, userID, projectID uint) (*model.Attendance, error)
	// Close 签退；记录已被签退时返回 ErrNoRows
	Close(ctx context.Context, record *model.Attendance, at time.Time) error
	HasClosed(ctx context.Context, userID, projectID uint) (bool, error)
	// CountClosedByUser 用户在所有项目上的已签退次数
	CountClosedByUser(ctx context.Context, userID uint) (int64, error)
	ListByProject(ctx context.Context, projectID uint) ([]model.Attendance, error)
	// CountVolunteers 项目参与人数（去重）
	CountVolunteers(ctx context.Context, projectID uint) (int64, error)
	// CountCompleted 项目内至少有一次签退的人数（去重）
	CountCompleted(ctx context.Context, projectID uint) (int64, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Create(ctx context.Context, record *model.Attendance) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *attendanceRepo) openQuery(ctx context.Context, userID, projectID uint) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND project_id = ? AND check_out_time IS NULL", userID, projectID).
		Order("check_in_time DESC").
		Order("attendance_id DESC")
}

func (r *attendanceRepo) FindOpen(ctx context.Context, userID, projectID uint) (*model.Attendance, error) {
	var record model.Attendance
	if err := r.openQuery(ctx, userID, projectID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepo) LockLatestOpen(ctx context.Context, userID, projectID uint) (*model.Attendance, error) {
	var record model.Attendance
	err := r.openQuery(ctx, userID, projectID).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepo) Close(ctx context.Context, record *model.Attendance, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Attendance{}).
		Where("attendance_id = ? AND check_out_time IS NULL", record.AttendanceID).
		Updates(map[string]interface{}{
			"check_out_time": at,
			"updated_at":     at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrNoRows
	}
	record.CheckOutTime = &at
	record.UpdatedAt = at
	return nil
}

func (r *attendanceRepo) HasClosed(ctx context.Context, userID, projectID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Attendance{}).
		Where("user_id = ? AND project_id = ? AND check_out_time IS NOT NULL", userID, projectID).
		Count(&count).Error
	return count > 0, err
}

func (r *attendanceRepo) CountClosedByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Attendance{}).
		Where("user_id = ? AND check_out_time IS NOT NULL", userID).
		Count(&count).Error
	return count, err
}

func (r *attendanceRepo) ListByProject(ctx context.Context, projectID uint) ([]model.Attendance, error) {
	var records []model.Attendance
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("project_id = ?", projectID).
		Order("check_in_time ASC").
		Order("attendance_id ASC").
		Find(&records).Error
	return records, err
}

func (r *attendanceRepo) CountVolunteers(ctx context.Context, projectID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Attendance{}).
		Where("project_id = ?", projectID).
		Distinct("user_id").
		Count(&count).Error
	return count, err
}

func (r *attendanceRepo) CountCompleted(ctx context.Context, projectID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Attendance{}).
		Where("project_id = ? AND check_out_time IS NOT NULL", projectID).
		Distinct("user_id").
		Count(&count).Error
	return count, err
}
