package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"umuganda/backend/internal/dto"
	"umuganda/backend/internal/model"
	"umuganda/backend/internal/repository"
	"umuganda/backend/pkg/metrics"
)

// BadgeService 徽章业务接口
type BadgeService interface {
	// AwardDue 按累计已签退次数授予达到门槛的徽章，只返回本次新获得的
	AwardDue(ctx context.Context, userID uint) ([]model.Badge, error)
	ListCatalog(ctx context.Context) ([]dto.BadgeResponse, error)
	ListUserBadges(ctx context.Context, userID uint) (*dto.UserBadgesResponse, error)
}

type badgeService struct {
	repo    *repository.Repository
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewBadgeService 创建 BadgeService 实例
func NewBadgeService(repo *repository.Repository, m *metrics.Metrics, logger *zap.Logger, now func() time.Time) BadgeService {
	return &badgeService{repo: repo, metrics: m, logger: logger, now: now}
}

// ────────────────────── AwardDue ──────────────────────

// 计数口径为所有项目上的已签退次数，不要求项目已完成（与完成判定口径不同，保持现状）
func (s *badgeService) AwardDue(ctx context.Context, userID uint) ([]model.Badge, error) {
	count, err := s.repo.Attendance.CountClosedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	catalog, err := s.repo.Badge.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]model.Badge, len(catalog))
	for _, b := range catalog {
		byName[b.Name] = b
	}

	awarded := []model.Badge{}
	now := s.now()
	for _, m := range model.BadgeMilestones {
		if count < m.Threshold {
			break
		}
		badge, ok := byName[m.Name]
		if !ok {
			s.logger.Warn("徽章目录缺少条目，请检查迁移", zap.String("badge", m.Name))
			continue
		}
		created, err := s.repo.Badge.AwardIfAbsent(ctx, userID, badge.BadgeID, now)
		if err != nil {
			return awarded, err
		}
		if created {
			awarded = append(awarded, badge)
			s.metrics.BadgeAwarded(badge.Name)
			s.logger.Info("授予徽章", zap.Uint("user_id", userID), zap.String("badge", badge.Name), zap.Int64("count", count))
		}
	}
	return awarded, nil
}

// ────────────────────── ListCatalog ──────────────────────

func (s *badgeService) ListCatalog(ctx context.Context) ([]dto.BadgeResponse, error) {
	catalog, err := s.repo.Badge.ListCatalog(ctx)
	if err != nil {
		s.logger.Error("查询徽章目录失败", zap.Error(err))
		return nil, err
	}
	list := make([]dto.BadgeResponse, 0, len(catalog))
	for i := range catalog {
		list = append(list, toBadgeResponse(&catalog[i]))
	}
	return list, nil
}

// ────────────────────── ListUserBadges ──────────────────────

func (s *badgeService) ListUserBadges(ctx context.Context, userID uint) (*dto.UserBadgesResponse, error) {
	if _, err := s.repo.User.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}

	owned, err := s.repo.Badge.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询用户徽章失败", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	count, err := s.repo.Attendance.CountClosedByUser(ctx, userID)
	if err != nil {
		s.logger.Error("统计签退次数失败", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}

	resp := &dto.UserBadgesResponse{
		UserID: userID,
		Badges: make([]dto.UserBadgeResponse, 0, len(owned)),
		Stats: dto.BadgeStats{
			CompletedSessions: count,
			TotalBadges:       len(owned),
		},
	}
	held := make(map[uint]bool, len(owned))
	for i := range owned {
		item := dto.UserBadgeResponse{AwardedAt: formatTime(owned[i].AwardedAt)}
		if owned[i].Badge != nil {
			item.Badge = toBadgeResponse(owned[i].Badge)
		} else {
			item.Badge = dto.BadgeResponse{ID: owned[i].BadgeID}
		}
		held[owned[i].BadgeID] = true
		resp.Badges = append(resp.Badges, item)
	}
	if n := len(resp.Badges); n > 0 {
		latest := resp.Badges[n-1]
		resp.Stats.LatestBadge = &latest
	}

	// 下一个未获得的徽章
	catalog, err := s.repo.Badge.ListCatalog(ctx)
	if err != nil {
		s.logger.Error("查询徽章目录失败", zap.Error(err))
		return nil, err
	}
	for i := range catalog {
		if !held[catalog[i].BadgeID] {
			next := toBadgeResponse(&catalog[i])
			resp.Stats.NextBadge = &next
			break
		}
	}
	return resp, nil
}

func toBadgeResponse(b *model.Badge) dto.BadgeResponse {
	return dto.BadgeResponse{
		ID:          b.BadgeID,
		Name:        b.Name,
		Description: b.Description,
		IconURL:     b.IconURL,
		Threshold:   b.Threshold,
	}
}
