package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"umuganda/backend/internal/dto"
	"umuganda/backend/internal/model"
	"umuganda/backend/internal/repository"
)

// ── 项目模块业务错误 ──

var (
	ErrProjectNotFound         = errors.New("项目不存在")
	ErrNotProjectLeader        = errors.New("仅项目负责人或管理员可执行此操作")
	ErrInvalidStatusTransition = errors.New("项目状态不允许此变更")
	ErrUserNotFound            = errors.New("用户不存在")
)

// ProjectService 项目业务接口（项目增删改不在本服务内，仅读取与状态流转）
type ProjectService interface {
	Get(ctx context.Context, id uint) (*dto.ProjectResponse, error)
	UpdateStatus(ctx context.Context, id uint, req *dto.UpdateProjectStatusRequest, callerID uint, role model.Role) (*dto.ProjectResponse, error)
}

type projectService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewProjectService 创建 ProjectService 实例
func NewProjectService(repo *repository.Repository, logger *zap.Logger) ProjectService {
	return &projectService{repo: repo, logger: logger}
}

// ────────────────────── Get ──────────────────────

func (s *projectService) Get(ctx context.Context, id uint) (*dto.ProjectResponse, error) {
	project, err := getProject(ctx, s.repo, id)
	if err != nil {
		if !errors.Is(err, ErrProjectNotFound) {
			s.logger.Error("查询项目失败", zap.Uint("project_id", id), zap.Error(err))
		}
		return nil, err
	}
	return s.toProjectResponse(ctx, project)
}

// ────────────────────── UpdateStatus ──────────────────────

func (s *projectService) UpdateStatus(ctx context.Context, id uint, req *dto.UpdateProjectStatusRequest, callerID uint, role model.Role) (*dto.ProjectResponse, error) {
	next, err := model.ParseProjectStatus(req.Status)
	if err != nil {
		return nil, ErrInvalidStatusTransition
	}

	project, err := loadManagedProject(ctx, s.repo, id, callerID, role)
	if err != nil {
		return nil, err
	}

	if !project.Status.CanTransitionTo(next) {
		return nil, ErrInvalidStatusTransition
	}

	// 标记完成不改动出勤记录，完成状态在读取时重新推导
	if err := s.repo.Project.UpdateStatus(ctx, project, next); err != nil {
		s.logger.Error("更新项目状态失败",
			zap.Uint("project_id", id), zap.String("status", string(next)), zap.Error(err))
		return nil, err
	}

	s.logger.Info("项目状态已更新",
		zap.Uint("project_id", id), zap.String("status", string(next)), zap.Uint("caller_id", callerID))
	return s.toProjectResponse(ctx, project)
}

// ── 内部方法 ──

func (s *projectService) toProjectResponse(ctx context.Context, p *model.Project) (*dto.ProjectResponse, error) {
	volunteers, err := s.repo.Attendance.CountVolunteers(ctx, p.ProjectID)
	if err != nil {
		s.logger.Error("统计参与人数失败", zap.Uint("project_id", p.ProjectID), zap.Error(err))
		return nil, err
	}
	completed, err := s.repo.Attendance.CountCompleted(ctx, p.ProjectID)
	if err != nil {
		s.logger.Error("统计完成人数失败", zap.Uint("project_id", p.ProjectID), zap.Error(err))
		return nil, err
	}

	resp := &dto.ProjectResponse{
		ID:                 p.ProjectID,
		Title:              p.Title,
		Description:        p.Description,
		Sector:             p.Sector,
		Location:           p.Location,
		Datetime:           formatTime(p.Datetime),
		RequiredVolunteers: p.RequiredVolunteers,
		Status:             string(p.Status),
		Admin:              dto.UserBrief{ID: p.AdminID},
		VolunteerCount:     volunteers,
		CompletedCount:     completed,
		Version:            p.Version,
	}
	if p.Admin != nil {
		resp.Admin.Name = p.Admin.FullName()
	}
	return resp, nil
}

// getProject 查询项目，不存在时返回 ErrProjectNotFound
func getProject(ctx context.Context, repo *repository.Repository, id uint) (*model.Project, error) {
	project, err := repo.Project.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

// loadManagedProject 查询项目并校验调用者可管理该项目
func loadManagedProject(ctx context.Context, repo *repository.Repository, id, callerID uint, role model.Role) (*model.Project, error) {
	project, err := getProject(ctx, repo, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeProjectManager(project, callerID, role); err != nil {
		return nil, err
	}
	return project, nil
}

// authorizeProjectManager admin 可管理任意项目；leader 仅可管理自己负责的项目
func authorizeProjectManager(project *model.Project, callerID uint, role model.Role) error {
	if !role.CanManageProjects() {
		return ErrNotProjectLeader
	}
	if role.BypassesOwnership() || project.IsLeader(callerID) {
		return nil
	}
	return ErrNotProjectLeader
}
