package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"umuganda/backend/internal/dto"
	"umuganda/backend/internal/model"
	"umuganda/backend/internal/repository"
	"umuganda/backend/pkg/checkincode"
	"umuganda/backend/pkg/metrics"
)

// ── 签到码模块业务错误 ──

var (
	ErrCheckinCodeFormat   = errors.New("签到码格式无效")
	ErrCheckinCodeNotFound = errors.New("签到码不存在")
	ErrCheckinCodeExpired  = errors.New("签到码已过期，请让负责人重新生成")
)

// CheckinCodeService 签到码业务接口
type CheckinCodeService interface {
	// IssueOrGet 仍有效则原样返回，否则生成新码（过期码原地替换）
	IssueOrGet(ctx context.Context, projectID, callerID uint, role model.Role) (*dto.CheckinCodeResponse, error)
	// Get 返回现有签到码，不生成
	Get(ctx context.Context, projectID, callerID uint, role model.Role) (*dto.CheckinCodeResponse, error)
	// QRImage 现有签到码的二维码 PNG
	QRImage(ctx context.Context, projectID, callerID uint, role model.Role) ([]byte, error)
	// Validate 解析扫码内容并校验签到码
	Validate(ctx context.Context, raw string) (*model.CheckinToken, error)
}

type checkinCodeService struct {
	repo    *repository.Repository
	codec   *checkincode.Codec
	ttl     time.Duration
	qrSize  int
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewCheckinCodeService 创建 CheckinCodeService 实例
func NewCheckinCodeService(
	repo *repository.Repository,
	codec *checkincode.Codec,
	ttl time.Duration,
	qrSize int,
	m *metrics.Metrics,
	logger *zap.Logger,
	now func() time.Time,
) CheckinCodeService {
	return &checkinCodeService{
		repo:    repo,
		codec:   codec,
		ttl:     ttl,
		qrSize:  qrSize,
		metrics: m,
		logger:  logger,
		now:     now,
	}
}

// ────────────────────── IssueOrGet ──────────────────────

func (s *checkinCodeService) IssueOrGet(ctx context.Context, projectID, callerID uint, role model.Role) (*dto.CheckinCodeResponse, error) {
	if _, err := loadManagedProject(ctx, s.repo, projectID, callerID, role); err != nil {
		return nil, s.logUnexpected(err, "查询项目失败", projectID)
	}

	token, err := s.issueOrGet(ctx, projectID)
	if err != nil {
		s.logger.Error("签发签到码失败", zap.Uint("project_id", projectID), zap.Error(err))
		return nil, err
	}
	return s.toResponse(token), nil
}

func (s *checkinCodeService) issueOrGet(ctx context.Context, projectID uint) (*model.CheckinToken, error) {
	now := s.now()

	existing, err := s.repo.CheckinToken.GetByProject(ctx, projectID)
	switch {
	case err == nil:
		if !existing.IsExpired(now) {
			s.metrics.TokenIssued("reused")
			return existing, nil
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		existing = nil
	default:
		return nil, err
	}

	fresh, err := s.newToken(projectID, now)
	if err != nil {
		return nil, err
	}

	var stored bool
	if existing == nil {
		stored, err = s.repo.CheckinToken.CreateIfAbsent(ctx, fresh)
	} else {
		stored, err = s.repo.CheckinToken.Replace(ctx, existing.Code, fresh)
	}
	if err != nil {
		return nil, err
	}
	if !stored {
		// 并发请求已先写入，返回对方的结果
		s.metrics.TokenIssued("reused")
		return s.repo.CheckinToken.GetByProject(ctx, projectID)
	}

	if existing == nil {
		s.metrics.TokenIssued("created")
	} else {
		s.metrics.TokenIssued("regenerated")
	}
	s.logger.Info("签到码已生成",
		zap.Uint("project_id", projectID), zap.Time("expires_at", fresh.ExpiresAt), zap.Bool("regenerated", existing != nil))
	return fresh, nil
}

func (s *checkinCodeService) newToken(projectID uint, now time.Time) (*model.CheckinToken, error) {
	code := checkincode.NewCode()
	png, err := checkincode.RenderPNG(s.codec.Encode(projectID, code), s.qrSize)
	if err != nil {
		return nil, err
	}
	return &model.CheckinToken{
		ProjectID: projectID,
		Code:      code,
		ExpiresAt: now.Add(s.ttl),
		QRImage:   png,
		BaseModel: model.BaseModel{CreatedAt: now, UpdatedAt: now},
	}, nil
}

// ────────────────────── Get / QRImage ──────────────────────

func (s *checkinCodeService) Get(ctx context.Context, projectID, callerID uint, role model.Role) (*dto.CheckinCodeResponse, error) {
	token, err := s.getManaged(ctx, projectID, callerID, role)
	if err != nil {
		return nil, err
	}
	return s.toResponse(token), nil
}

func (s *checkinCodeService) QRImage(ctx context.Context, projectID, callerID uint, role model.Role) ([]byte, error) {
	token, err := s.getManaged(ctx, projectID, callerID, role)
	if err != nil {
		return nil, err
	}
	if len(token.QRImage) > 0 {
		return token.QRImage, nil
	}
	// 历史数据未保存图片时即时渲染
	return checkincode.RenderPNG(s.codec.Encode(token.ProjectID, token.Code), s.qrSize)
}

func (s *checkinCodeService) getManaged(ctx context.Context, projectID, callerID uint, role model.Role) (*model.CheckinToken, error) {
	if _, err := loadManagedProject(ctx, s.repo, projectID, callerID, role); err != nil {
		return nil, s.logUnexpected(err, "查询项目失败", projectID)
	}
	token, err := s.repo.CheckinToken.GetByProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCheckinCodeNotFound
		}
		s.logger.Error("查询签到码失败", zap.Uint("project_id", projectID), zap.Error(err))
		return nil, err
	}
	return token, nil
}

// ────────────────────── Validate ──────────────────────

func (s *checkinCodeService) Validate(ctx context.Context, raw string) (*model.CheckinToken, error) {
	payload, err := s.codec.Parse(raw)
	if err != nil {
		return nil, ErrCheckinCodeFormat
	}

	token, err := s.repo.CheckinToken.GetByProjectAndCode(ctx, payload.ProjectID, payload.Code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCheckinCodeNotFound
		}
		s.logger.Error("查询签到码失败", zap.Uint("project_id", payload.ProjectID), zap.Error(err))
		return nil, err
	}

	// 过期只拒绝，不删除；由负责人重新签发时原地替换
	if token.IsExpired(s.now()) {
		return nil, ErrCheckinCodeExpired
	}
	return token, nil
}

// ── 内部方法 ──

func (s *checkinCodeService) toResponse(t *model.CheckinToken) *dto.CheckinCodeResponse {
	return &dto.CheckinCodeResponse{
		ProjectID: t.ProjectID,
		Code:      t.Code,
		Payload:   s.codec.Encode(t.ProjectID, t.Code),
		ExpiresAt: formatTime(t.ExpiresAt),
		QRImage:   fmt.Sprintf("/api/v1/projects/%d/checkin-code/qr.png", t.ProjectID),
	}
}

// logUnexpected 业务错误原样返回，其余记录日志
func (s *checkinCodeService) logUnexpected(err error, msg string, projectID uint) error {
	if !errors.Is(err, ErrProjectNotFound) && !errors.Is(err, ErrNotProjectLeader) {
		s.logger.Error(msg, zap.Uint("project_id", projectID), zap.Error(err))
	}
	return err
}
