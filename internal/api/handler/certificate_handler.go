package handler

import (
	"github.com/gin-gonic/gin"

	"umuganda/backend/internal/service"
	"umuganda/backend/pkg/response"
)

// CertificateHandler 证书模块 HTTP 处理器
type CertificateHandler struct {
	certificateSvc service.CertificateService
}

// NewCertificateHandler 创建 CertificateHandler
func NewCertificateHandler(certificateSvc service.CertificateService) *CertificateHandler {
	return &CertificateHandler{certificateSvc: certificateSvc}
}

// ListMine 我的证书
// GET /api/v1/certificates/me
func (h *CertificateHandler) ListMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.certificateSvc.ListMine(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetCertificate 证书详情（本人或管理员）
// GET /api/v1/certificates/:id
func (h *CertificateHandler) GetCertificate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	callerID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	cert, err := h.certificateSvc.GetByID(c.Request.Context(), id, callerID, role)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, cert)
}

// Generate 申请证书；已存在时原样返回
// POST /api/v1/certificates/generate/:project_id
func (h *CertificateHandler) Generate(c *gin.Context) {
	projectID, ok := parseIDParam(c, "project_id")
	if !ok {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.certificateSvc.Generate(c.Request.Context(), userID, projectID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if result.Created {
		response.Created(c, result)
		return
	}
	response.OK(c, result)
}
