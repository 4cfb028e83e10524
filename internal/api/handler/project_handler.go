package handler

import (
	"github.com/gin-gonic/gin"

	"umuganda/backend/internal/dto"
	"umuganda/backend/internal/service"
	"umuganda/backend/pkg/response"
)

// ProjectHandler 项目模块 HTTP 处理器
type ProjectHandler struct {
	projectSvc service.ProjectService
}

// NewProjectHandler 创建 ProjectHandler
func NewProjectHandler(projectSvc service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectSvc: projectSvc}
}

// GetProject 获取项目详情
// GET /api/v1/projects/:id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	project, err := h.projectSvc.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, project)
}

// UpdateStatus 修改项目状态
// PUT /api/v1/projects/:id/status
func (h *ProjectHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateProjectStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	callerID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	project, err := h.projectSvc.UpdateStatus(c.Request.Context(), id, &req, callerID, role)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, project)
}
