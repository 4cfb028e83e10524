package handler

import (
	"github.com/gin-gonic/gin"

	"umuganda/backend/internal/service"
	"umuganda/backend/pkg/response"
)

// BadgeHandler 徽章模块 HTTP 处理器
type BadgeHandler struct {
	badgeSvc service.BadgeService
}

// NewBadgeHandler 创建 BadgeHandler
func NewBadgeHandler(badgeSvc service.BadgeService) *BadgeHandler {
	return &BadgeHandler{badgeSvc: badgeSvc}
}

// ListCatalog 徽章目录
// GET /api/v1/badges
func (h *BadgeHandler) ListCatalog(c *gin.Context) {
	list, err := h.badgeSvc.ListCatalog(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListMine 我的徽章
// GET /api/v1/users/me/badges
func (h *BadgeHandler) ListMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	h.writeUserBadges(c, userID)
}

// ListForUser 指定用户的徽章
// GET /api/v1/users/:id/badges
func (h *BadgeHandler) ListForUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	h.writeUserBadges(c, userID)
}

func (h *BadgeHandler) writeUserBadges(c *gin.Context, userID uint) {
	resp, err := h.badgeSvc.ListUserBadges(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, resp)
}
