package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"umuganda/backend/internal/dto"
	"umuganda/backend/internal/model"
	"umuganda/backend/internal/repository"
	"umuganda/backend/pkg/certificate"
	"umuganda/backend/pkg/metrics"
)

// ── 证书模块业务错误 ──

var (
	ErrNotEligible         = errors.New("项目尚未完成或未签退，暂不能获得证书")
	ErrCertificateNotFound = errors.New("证书不存在")
)

// CertificateService 证书业务接口
type CertificateService interface {
	// Ensure 按 (user, project) 获取或创建证书，缺少文件时在行锁下补生成
	// 未完成项目返回 ErrNotEligible
	Ensure(ctx context.Context, userID, projectID uint) (*model.Certificate, bool, error)
	// Generate 用户主动申请证书
	Generate(ctx context.Context, userID, projectID uint) (*dto.GenerateCertificateResponse, error)
	ListMine(ctx context.Context, userID uint) ([]dto.CertificateResponse, error)
	// GetByID 仅本人或管理员可见，其他人视为不存在
	GetByID(ctx context.Context, id, callerID uint, role model.Role) (*dto.CertificateResponse, error)
}

type certificateService struct {
	repo         *repository.Repository
	completion   CompletionEvaluator
	renderer     DocumentRenderer
	store        DocumentStore
	numberPrefix string
	metrics      *metrics.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// NewCertificateService 创建 CertificateService 实例
func NewCertificateService(
	repo *repository.Repository,
	completion CompletionEvaluator,
	renderer DocumentRenderer,
	store DocumentStore,
	numberPrefix string,
	m *metrics.Metrics,
	logger *zap.Logger,
	now func() time.Time,
) CertificateService {
	if numberPrefix == "" {
		numberPrefix = "UMG"
	}
	return &certificateService{
		repo:         repo,
		completion:   completion,
		renderer:     renderer,
		store:        store,
		numberPrefix: numberPrefix,
		metrics:      m,
		logger:       logger,
		now:          now,
	}
}

// ────────────────────── Ensure ──────────────────────

func (s *certificateService) Ensure(ctx context.Context, userID, projectID uint) (*model.Certificate, bool, error) {
	completed, err := s.completion.IsCompleted(ctx, userID, projectID)
	if err != nil {
		return nil, false, err
	}
	if !completed {
		s.metrics.CertificateEnsured("not_eligible")
		return nil, false, ErrNotEligible
	}

	project, err := getProject(ctx, s.repo, projectID)
	if err != nil {
		return nil, false, err
	}
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrUserNotFound
		}
		return nil, false, err
	}

	now := s.now()
	candidate := &model.Certificate{
		UserID:            userID,
		ProjectID:         projectID,
		CertificateNumber: s.number(userID, projectID),
		Snapshot:          snapshotOf(user, project),
		IssuedAt:          now,
		UpdatedAt:         now,
	}

	created, err := s.repo.Certificate.CreateIfAbsent(ctx, candidate)
	if err != nil {
		return nil, false, fmt.Errorf("写入证书失败: %w", err)
	}
	cert, err := s.repo.Certificate.GetByUserProject(ctx, userID, projectID)
	if err != nil {
		return nil, false, fmt.Errorf("读取证书失败: %w", err)
	}

	if !cert.HasArtifact() {
		if err := s.attachArtifact(ctx, cert, user, project); err != nil {
			return nil, false, err
		}
	}

	if created {
		s.metrics.CertificateEnsured("created")
		s.logger.Info("证书已签发",
			zap.Uint("user_id", userID), zap.Uint("project_id", projectID), zap.String("number", cert.CertificateNumber))
	} else {
		s.metrics.CertificateEnsured("existing")
	}
	cert.Project = project
	return cert, created, nil
}

// attachArtifact 在证书行锁下渲染并保存文件；已有文件则跳过
func (s *certificateService) attachArtifact(ctx context.Context, cert *model.Certificate, user *model.User, project *model.Project) error {
	return s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		locked, err := txRepo.Certificate.LockByID(ctx, cert.CertificateID)
		if err != nil {
			return fmt.Errorf("锁定证书失败: %w", err)
		}
		if locked.HasArtifact() {
			cert.FileURL = locked.FileURL
			cert.UpdatedAt = locked.UpdatedAt
			return nil
		}

		pdf, err := s.renderer.Render(documentFor(locked, user, project))
		if err != nil {
			return fmt.Errorf("渲染证书失败: %w", err)
		}
		url, err := s.store.Save(ctx, certificate.FileName(cert.UserID, cert.ProjectID), pdf)
		if err != nil {
			return fmt.Errorf("保存证书文件失败: %w", err)
		}
		if err := txRepo.Certificate.AttachFile(ctx, locked, url, s.now()); err != nil {
			return fmt.Errorf("更新证书文件失败: %w", err)
		}
		cert.FileURL = locked.FileURL
		cert.UpdatedAt = locked.UpdatedAt
		return nil
	})
}

// ────────────────────── Generate ──────────────────────

func (s *certificateService) Generate(ctx context.Context, userID, projectID uint) (*dto.GenerateCertificateResponse, error) {
	cert, created, err := s.Ensure(ctx, userID, projectID)
	if err != nil {
		if !errors.Is(err, ErrNotEligible) && !errors.Is(err, ErrProjectNotFound) {
			s.logger.Error("签发证书失败", zap.Uint("user_id", userID), zap.Uint("project_id", projectID), zap.Error(err))
		}
		return nil, err
	}
	return &dto.GenerateCertificateResponse{
		Certificate: toCertificateResponse(cert),
		Created:     created,
	}, nil
}

// ────────────────────── ListMine / GetByID ──────────────────────

func (s *certificateService) ListMine(ctx context.Context, userID uint) ([]dto.CertificateResponse, error) {
	certs, err := s.repo.Certificate.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询证书列表失败", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	list := make([]dto.CertificateResponse, 0, len(certs))
	for i := range certs {
		list = append(list, toCertificateResponse(&certs[i]))
	}
	return list, nil
}

func (s *certificateService) GetByID(ctx context.Context, id, callerID uint, role model.Role) (*dto.CertificateResponse, error) {
	cert, err := s.repo.Certificate.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCertificateNotFound
		}
		s.logger.Error("查询证书失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	switch role {
	case model.RoleAdmin:
	case model.RoleLeader, model.RoleVolunteer:
		if cert.UserID != callerID {
			return nil, ErrCertificateNotFound
		}
	default:
		return nil, ErrCertificateNotFound
	}

	resp := toCertificateResponse(cert)
	return &resp, nil
}

// ── 内部方法 ──

func (s *certificateService) number(userID, projectID uint) string {
	return fmt.Sprintf("%s-%d-%d", s.numberPrefix, projectID, userID)
}

func snapshotOf(user *model.User, project *model.Project) datatypes.JSONMap {
	snap := datatypes.JSONMap{
		model.SnapshotRecipientName: user.FullName(),
		model.SnapshotProjectTitle:  project.Title,
		model.SnapshotProjectDate:   project.Datetime.Format(time.RFC3339),
	}
	if project.Admin != nil {
		snap[model.SnapshotLeaderName] = project.Admin.FullName()
	}
	return snap
}

// documentFor 优先使用签发时的快照，保证补生成的文件与首次签发内容一致
func documentFor(cert *model.Certificate, user *model.User, project *model.Project) certificate.Document {
	doc := certificate.Document{
		Number:        cert.CertificateNumber,
		RecipientName: user.FullName(),
		ProjectTitle:  project.Title,
		ProjectDate:   project.Datetime,
	}
	if project.Admin != nil {
		doc.LeaderName = project.Admin.FullName()
	}

	if v, ok := cert.Snapshot[model.SnapshotRecipientName].(string); ok && v != "" {
		doc.RecipientName = v
	}
	if v, ok := cert.Snapshot[model.SnapshotProjectTitle].(string); ok && v != "" {
		doc.ProjectTitle = v
	}
	if v, ok := cert.Snapshot[model.SnapshotLeaderName].(string); ok && v != "" {
		doc.LeaderName = v
	}
	if v, ok := cert.Snapshot[model.SnapshotProjectDate].(string); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			doc.ProjectDate = t
		}
	}
	return doc
}

func toCertificateResponse(c *model.Certificate) dto.CertificateResponse {
	resp := dto.CertificateResponse{
		ID:                c.CertificateID,
		UserID:            c.UserID,
		ProjectID:         c.ProjectID,
		CertificateNumber: c.CertificateNumber,
		FileURL:           c.FileURL,
		IssuedAt:          formatTime(c.IssuedAt),
	}
	if c.Project != nil {
		resp.ProjectTitle = c.Project.Title
	} else if v, ok := c.Snapshot[model.SnapshotProjectTitle].(string); ok {
		resp.ProjectTitle = v
	}
	return resp
}
