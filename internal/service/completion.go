package service

import (
	"context"

	"umuganda/backend/internal/model"
	"umuganda/backend/internal/repository"
)

// CompletionEvaluator 判定用户是否完成某项目
type CompletionEvaluator interface {
	// IsCompleted 项目状态为 completed 且用户在该项目至少有一次签退；每次实时查询，不缓存
	IsCompleted(ctx context.Context, userID, projectID uint) (bool, error)
}

type completionEvaluator struct {
	repo *repository.Repository
}

// NewCompletionEvaluator 创建 CompletionEvaluator 实例
func NewCompletionEvaluator(repo *repository.Repository) CompletionEvaluator {
	return &completionEvaluator{repo: repo}
}

func (e *completionEvaluator) IsCompleted(ctx context.Context, userID, projectID uint) (bool, error) {
	project, err := getProject(ctx, e.repo, projectID)
	if err != nil {
		return false, err
	}
	if project.Status != model.ProjectCompleted {
		return false, nil
	}
	return e.repo.Attendance.HasClosed(ctx, userID, projectID)
}
