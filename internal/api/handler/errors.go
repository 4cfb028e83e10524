package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"umuganda/backend/internal/service"
	pkgerrors "umuganda/backend/pkg/errors"
	"umuganda/backend/pkg/response"
)

// 业务错误码
//
//	100xx 通用  200xx 项目  210xx 签到码  220xx 出勤
//	230xx 证书  240xx 用户  250xx 通知
const (
	codeProjectNotFound    = 20001
	codeNotProjectLeader   = 20002
	codeInvalidTransition  = 20003
	codeConcurrentUpdate   = 20004
	codeCheckinFormat      = 21001
	codeCheckinNotFound    = 21002
	codeCheckinExpired     = 21003
	codeAlreadyCheckedIn   = 22001
	codeNoOpenSession      = 22002
	codeNotEligible        = 23001
	codeCertificateMissing = 23002
	codeUserNotFound       = 24001
	codeNotificationAbsent = 25001
)

type errorMapping struct {
	target  error
	status  int
	code    int
	message string
}

var errorMappings = []errorMapping{
	{service.ErrProjectNotFound, http.StatusNotFound, codeProjectNotFound, "项目不存在"},
	{service.ErrNotProjectLeader, http.StatusForbidden, codeNotProjectLeader, "仅项目负责人或管理员可执行此操作"},
	{service.ErrInvalidStatusTransition, http.StatusUnprocessableEntity, codeInvalidTransition, "项目状态不允许此变更"},
	{pkgerrors.ErrOptimisticLock, http.StatusConflict, codeConcurrentUpdate, "数据已被其他人修改，请刷新后重试"},
	{service.ErrCheckinCodeFormat, http.StatusBadRequest, codeCheckinFormat, "签到码格式无效"},
	{service.ErrCheckinCodeNotFound, http.StatusNotFound, codeCheckinNotFound, "签到码不存在"},
	{service.ErrCheckinCodeExpired, http.StatusGone, codeCheckinExpired, "签到码已过期，请让负责人重新生成"},
	{service.ErrAlreadyCheckedIn, http.StatusConflict, codeAlreadyCheckedIn, "已签到，请先签退"},
	{service.ErrNoOpenSession, http.StatusBadRequest, codeNoOpenSession, "没有未签退的签到记录"},
	{service.ErrNotEligible, http.StatusForbidden, codeNotEligible, "项目尚未完成或未签退，暂不能获得证书"},
	{service.ErrCertificateNotFound, http.StatusNotFound, codeCertificateMissing, "证书不存在"},
	{service.ErrUserNotFound, http.StatusNotFound, codeUserNotFound, "用户不存在"},
	{service.ErrNotificationNotFound, http.StatusNotFound, codeNotificationAbsent, "通知不存在"},
}

// handleServiceError 将业务错误映射为 HTTP 状态与业务码；未知错误统一 500
func handleServiceError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			response.Error(c, m.status, m.code, m.message)
			return
		}
	}
	_ = c.Error(err)
	response.InternalError(c)
}
