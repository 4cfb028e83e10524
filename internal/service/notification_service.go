package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"umuganda/backend/internal/dto"
	"umuganda/backend/internal/model"
	"umuganda/backend/internal/repository"
	pkgerrors "umuganda/backend/pkg/errors"
)

// ── 通知模块业务错误 ──

var (
	ErrNotificationNotFound = errors.New("通知不存在")
)

// NotificationService 站内通知业务接口
type NotificationService interface {
	// NotifyCheckout 根据签退结果写入"证书已生成"/"获得徽章"通知，失败只记录日志
	NotifyCheckout(ctx context.Context, userID uint, result *CheckoutResult)
	List(ctx context.Context, userID uint, req *dto.PaginationRequest) ([]dto.NotificationResponse, int64, error)
	MarkRead(ctx context.Context, id, userID uint) error
}

type notificationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, logger: logger}
}

// ────────────────────── NotifyCheckout ──────────────────────

func (s *notificationService) NotifyCheckout(ctx context.Context, userID uint, result *CheckoutResult) {
	if result == nil {
		return
	}
	projectID := result.Record.ProjectID

	var pending []*model.Notification
	if result.CertificateCreated && result.Certificate != nil {
		title := toCertificateResponse(result.Certificate).ProjectTitle
		pending = append(pending, &model.Notification{
			UserID:    userID,
			ProjectID: &projectID,
			Type:      model.NotificationCertificateReady,
			Title:     "Certificate Ready",
			Message:   fmt.Sprintf("Your certificate of participation for '%s' is ready. Murakoze!", title),
		})
	}
	for _, b := range result.NewBadges {
		pending = append(pending, &model.Notification{
			UserID:    userID,
			ProjectID: &projectID,
			Type:      model.NotificationBadgeAwarded,
			Title:     "New Badge Earned",
			Message:   fmt.Sprintf("Congratulations! You earned the '%s' badge.", b.Name),
		})
	}

	for _, n := range pending {
		if err := s.repo.Notification.Create(ctx, n); err != nil {
			s.logger.Warn("写入通知失败", zap.Uint("user_id", userID), zap.String("type", n.Type), zap.Error(err))
		}
	}
}

// ────────────────────── List ──────────────────────

func (s *notificationService) List(ctx context.Context, userID uint, req *dto.PaginationRequest) ([]dto.NotificationResponse, int64, error) {
	list, total, err := s.repo.Notification.ListByUser(ctx, userID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询通知失败", zap.Uint("user_id", userID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.NotificationResponse, 0, len(list))
	for i := range list {
		n := &list[i]
		result = append(result, dto.NotificationResponse{
			ID:        n.NotificationID,
			ProjectID: n.ProjectID,
			Type:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			IsRead:    n.IsRead,
			CreatedAt: formatTime(n.CreatedAt),
		})
	}
	return result, total, nil
}

// ────────────────────── MarkRead ──────────────────────

func (s *notificationService) MarkRead(ctx context.Context, id, userID uint) error {
	if err := s.repo.Notification.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, pkgerrors.ErrNoRows) {
			return ErrNotificationNotFound
		}
		s.logger.Error("标记通知已读失败", zap.Uint("id", id), zap.Error(err))
		return err
	}
	return nil
}
