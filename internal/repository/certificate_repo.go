package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"umuganda/backend/internal/model"
)

// CertificateRepository 证书数据访问接口
type CertificateRepository interface {
	// CreateIfAbsent INSERT ... ON CONFLICT (user_id, project_id) DO NOTHING，返回是否新建
	CreateIfAbsent(ctx context.Context, cert *model.Certificate) (bool, error)
	GetByUserProject(ctx context.Context, userID, projectID uint) (*model.Certificate, error)
	GetByID(ctx context.Context, id uint) (*model.Certificate, error)
	// LockByID SELECT ... FOR UPDATE，须在事务中调用
	LockByID(ctx context.Context, id uint) (*model.Certificate, error)
	AttachFile(ctx context.Context, cert *model.Certificate, fileURL string, at time.Time) error
	ListByUser(ctx context.Context, userID uint) ([]model.Certificate, error)
}

type certificateRepo struct {
	db *gorm.DB
}

// NewCertificateRepo 创建 CertificateRepository 实例
func NewCertificateRepo(db *gorm.DB) CertificateRepository {
	return &certificateRepo{db: db}
}

func (r *certificateRepo) CreateIfAbsent(ctx context.Context, cert *model.Certificate) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "project_id"}},
			DoNothing: true,
		}).
		Create(cert)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *certificateRepo) GetByUserProject(ctx context.Context, userID, projectID uint) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *certificateRepo) GetByID(ctx context.Context, id uint) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.db.WithContext(ctx).
		Preload("Project").
		Where("certificate_id = ?", id).
		First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *certificateRepo) LockByID(ctx context.Context, id uint) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("certificate_id = ?", id).
		First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *certificateRepo) AttachFile(ctx context.Context, cert *model.Certificate, fileURL string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&model.Certificate{}).
		Where("certificate_id = ?", cert.CertificateID).
		Updates(map[string]interface{}{
			"file_url":   fileURL,
			"updated_at": at,
		}).Error
	if err != nil {
		return err
	}
	cert.FileURL = fileURL
	cert.UpdatedAt = at
	return nil
}

func (r *certificateRepo) ListByUser(ctx context.Context, userID uint) ([]model.Certificate, error) {
	var certs []model.Certificate
	err := r.db.WithContext(ctx).
		Preload("Project").
		Where("user_id = ?", userID).
		Order("issued_at DESC").
		Find(&certs).Error
	return certs, err
}
