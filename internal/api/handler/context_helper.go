package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"umuganda/backend/internal/model"
	"umuganda/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	id, ok := v.(uint)
	if !ok || id == 0 {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	return id, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (model.Role, bool) {
	v, exists := c.Get("role")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	role, ok := v.(model.Role)
	if !ok || !role.Valid() {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return role, true
}

// mustGetCaller 同时提取 user_id 与 role
func mustGetCaller(c *gin.Context) (uint, model.Role, bool) {
	id, ok := MustGetUserID(c)
	if !ok {
		return 0, "", false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return 0, "", false
	}
	return id, role, true
}

// parseIDParam 解析路径中的正整数 ID
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, strconv.IntSize)
	if err != nil || id == 0 {
		response.BadRequest(c, 10001, name+" 必须为正整数")
		return 0, false
	}
	return uint(id), true
}

// bindError 请求体或查询参数校验失败
func bindError(c *gin.Context, err error) {
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
}
