package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"umuganda/backend/config"
	"umuganda/backend/internal/repository"
	"umuganda/backend/pkg/certificate"
	"umuganda/backend/pkg/checkincode"
	"umuganda/backend/pkg/metrics"
)

// DocumentStore 证书文件存储
type DocumentStore interface {
	// Save 写入（覆盖）name 对应的文件，返回可访问 URL
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// DocumentRenderer 证书渲染
type DocumentRenderer interface {
	Render(doc certificate.Document) ([]byte, error)
}

// Service 所有 Service 的聚合入口
type Service struct {
	Project      ProjectService
	CheckinCode  CheckinCodeService
	Attendance   AttendanceService
	Completion   CompletionEvaluator
	Certificate  CertificateService
	Badge        BadgeService
	Notification NotificationService
	Export       ExportService
	Calendar     CalendarService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	store DocumentStore,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	now := time.Now
	codec := checkincode.NewCodec(cfg.Checkin.Namespace)
	renderer := certificate.NewRenderer(certificate.Layout{
		Country:      cfg.Certificate.Country,
		Programme:    cfg.Certificate.Programme,
		SignatureFor: cfg.Certificate.SignatureFor,
	})

	completion := NewCompletionEvaluator(repo)
	certs := NewCertificateService(repo, completion, renderer, store, cfg.Certificate.NumberPrefix, m, logger, now)
	badges := NewBadgeService(repo, m, logger, now)

	return &Service{
		Project:      NewProjectService(repo, logger),
		CheckinCode:  NewCheckinCodeService(repo, codec, cfg.Checkin.TokenTTL, cfg.Checkin.QRSize, m, logger, now),
		Attendance:   NewAttendanceService(repo, certs, badges, m, logger, now),
		Completion:   completion,
		Certificate:  certs,
		Badge:        badges,
		Notification: NewNotificationService(repo, logger),
		Export:       NewExportService(repo, logger),
		Calendar:     NewCalendarService(repo, cfg.Server.BaseURL, logger),
	}
}

// formatTime 统一对外时间格式
func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
