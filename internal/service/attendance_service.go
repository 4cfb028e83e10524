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
	pkgerrors "umuganda/backend/pkg/errors"
	"umuganda/backend/pkg/metrics"
)

// ── 出勤模块业务错误 ──

var (
	ErrAlreadyCheckedIn = errors.New("已签到，请先签退")
	ErrNoOpenSession    = errors.New("没有未签退的签到记录")
)

// CheckoutResult 签退结果：已关闭的记录，以及签退后续步骤产生的证书与新徽章
type CheckoutResult struct {
	Record             *model.Attendance
	Certificate        *model.Certificate
	CertificateCreated bool
	NewBadges          []model.Badge
}

// AttendanceService 出勤业务接口
//
// 调用方须先通过 CheckinCodeService.Validate 校验签到码，再以其项目 ID 调用
type AttendanceService interface {
	CheckIn(ctx context.Context, userID, projectID uint) (*dto.CheckinResponse, error)
	// CheckOut 关闭会话并提交后依次执行：完成判定 → 证书签发 → 徽章授予
	// 后续步骤失败只记录日志，不影响签退结果
	CheckOut(ctx context.Context, userID, projectID uint) (*CheckoutResult, error)
	ListProjectAttendance(ctx context.Context, projectID, callerID uint, role model.Role) (*dto.ProjectAttendanceResponse, error)
}

type attendanceService struct {
	repo         *repository.Repository
	certificates CertificateService
	badges       BadgeService
	metrics      *metrics.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(
	repo *repository.Repository,
	certificates CertificateService,
	badges BadgeService,
	m *metrics.Metrics,
	logger *zap.Logger,
	now func() time.Time,
) AttendanceService {
	return &attendanceService{
		repo:         repo,
		certificates: certificates,
		badges:       badges,
		metrics:      m,
		logger:       logger,
		now:          now,
	}
}

// ────────────────────── CheckIn ──────────────────────

func (s *attendanceService) CheckIn(ctx context.Context, userID, projectID uint) (*dto.CheckinResponse, error) {
	var record *model.Attendance

	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		_, err := txRepo.Attendance.FindOpen(ctx, userID, projectID)
		if err == nil {
			return ErrAlreadyCheckedIn
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := s.now()
		record = &model.Attendance{
			UserID:      userID,
			ProjectID:   projectID,
			CheckInTime: now,
			BaseModel:   model.BaseModel{CreatedAt: now, UpdatedAt: now},
		}
		return txRepo.Attendance.Create(ctx, record)
	})
	if err != nil {
		// 并发签到由部分唯一索引兜底
		if errors.Is(err, ErrAlreadyCheckedIn) || errors.Is(err, gorm.ErrDuplicatedKey) {
			s.metrics.CheckinResult("already_checked_in")
			return nil, ErrAlreadyCheckedIn
		}
		s.metrics.CheckinResult("error")
		s.logger.Error("签到失败", zap.Uint("user_id", userID), zap.Uint("project_id", projectID), zap.Error(err))
		return nil, err
	}

	s.metrics.CheckinResult("success")
	s.logger.Info("签到成功", zap.Uint("user_id", userID), zap.Uint("project_id", projectID))

	return &dto.CheckinResponse{
		AttendanceID: record.AttendanceID,
		ProjectID:    record.ProjectID,
		CheckInTime:  formatTime(record.CheckInTime),
	}, nil
}

// ────────────────────── CheckOut ──────────────────────

func (s *attendanceService) CheckOut(ctx context.Context, userID, projectID uint) (*CheckoutResult, error) {
	var record *model.Attendance

	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		open, err := txRepo.Attendance.LockLatestOpen(ctx, userID, projectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoOpenSession
			}
			return err
		}
		if err := txRepo.Attendance.Close(ctx, open, s.now()); err != nil {
			if errors.Is(err, pkgerrors.ErrNoRows) {
				return ErrNoOpenSession
			}
			return err
		}
		record = open
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNoOpenSession) {
			s.metrics.CheckoutResult("no_open_session")
			return nil, err
		}
		s.metrics.CheckoutResult("error")
		s.logger.Error("签退失败", zap.Uint("user_id", userID), zap.Uint("project_id", projectID), zap.Error(err))
		return nil, err
	}

	s.metrics.CheckoutResult("success")
	s.logger.Info("签退成功", zap.Uint("user_id", userID), zap.Uint("project_id", projectID))

	result := &CheckoutResult{Record: record, NewBadges: []model.Badge{}}
	// 签退已提交，后续步骤不随请求取消而中断
	s.runFollowUps(context.WithoutCancel(ctx), userID, projectID, result)
	return result, nil
}

func (s *attendanceService) runFollowUps(ctx context.Context, userID, projectID uint, result *CheckoutResult) {
	cert, created, err := s.certificates.Ensure(ctx, userID, projectID)
	switch {
	case err == nil:
		result.Certificate = cert
		result.CertificateCreated = created
	case errors.Is(err, ErrNotEligible):
		// 项目尚未完成：静默跳过
	default:
		s.metrics.FollowUpFailed("certificate")
		s.logger.Warn("签退后签发证书失败",
			zap.Uint("user_id", userID), zap.Uint("project_id", projectID), zap.Error(err))
	}

	badges, err := s.badges.AwardDue(ctx, userID)
	if err != nil {
		s.metrics.FollowUpFailed("badge")
		s.logger.Warn("签退后授予徽章失败", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	result.NewBadges = badges
}

// ────────────────────── ListProjectAttendance ──────────────────────

func (s *attendanceService) ListProjectAttendance(ctx context.Context, projectID, callerID uint, role model.Role) (*dto.ProjectAttendanceResponse, error) {
	if _, err := loadManagedProject(ctx, s.repo, projectID, callerID, role); err != nil {
		if !errors.Is(err, ErrProjectNotFound) && !errors.Is(err, ErrNotProjectLeader) {
			s.logger.Error("查询项目失败", zap.Uint("project_id", projectID), zap.Error(err))
		}
		return nil, err
	}

	records, err := s.repo.Attendance.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Error("查询出勤记录失败", zap.Uint("project_id", projectID), zap.Error(err))
		return nil, err
	}

	resp := &dto.ProjectAttendanceResponse{
		ProjectID: projectID,
		Records:   make([]dto.AttendanceRecordResponse, 0, len(records)),
	}
	volunteers := make(map[uint]struct{})
	completed := make(map[uint]struct{})
	for i := range records {
		r := &records[i]
		volunteers[r.UserID] = struct{}{}
		if !r.IsOpen() {
			completed[r.UserID] = struct{}{}
		}
		resp.Records = append(resp.Records, toAttendanceRecordResponse(r))
	}
	resp.VolunteerCount = int64(len(volunteers))
	resp.CompletedCount = int64(len(completed))
	return resp, nil
}

// ── 响应转换 ──

func toAttendanceRecordResponse(r *model.Attendance) dto.AttendanceRecordResponse {
	item := dto.AttendanceRecordResponse{
		AttendanceID: r.AttendanceID,
		User:         dto.UserBrief{ID: r.UserID},
		CheckInTime:  formatTime(r.CheckInTime),
	}
	if r.User != nil {
		item.User.Name = r.User.FullName()
		item.User.PhoneNumber = r.User.PhoneNumber
	}
	if r.CheckOutTime != nil {
		out := formatTime(*r.CheckOutTime)
		minutes := int(r.Duration().Minutes())
		item.CheckOutTime = &out
		item.DurationMinutes = &minutes
	}
	return item
}

// NewCheckoutResponse 将签退结果转换为响应
func NewCheckoutResponse(result *CheckoutResult) *dto.CheckoutResponse {
	r := result.Record
	resp := &dto.CheckoutResponse{
		AttendanceID:       r.AttendanceID,
		ProjectID:          r.ProjectID,
		CheckInTime:        formatTime(r.CheckInTime),
		DurationMinutes:    int(r.Duration().Minutes()),
		CertificateCreated: result.CertificateCreated,
		NewBadges:          make([]dto.BadgeResponse, 0, len(result.NewBadges)),
	}
	if r.CheckOutTime != nil {
		resp.CheckOutTime = formatTime(*r.CheckOutTime)
	}
	if result.Certificate != nil {
		c := toCertificateResponse(result.Certificate)
		resp.Certificate = &c
	}
	for i := range result.NewBadges {
		resp.NewBadges = append(resp.NewBadges, toBadgeResponse(&result.NewBadges[i]))
	}
	return resp
}
