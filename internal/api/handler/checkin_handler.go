package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"umuganda/backend/internal/dto"
	"umuganda/backend/internal/service"
	"umuganda/backend/pkg/response"
)

// CheckinHandler 签到码与出勤 HTTP 处理器
type CheckinHandler struct {
	codeSvc         service.CheckinCodeService
	attendanceSvc   service.AttendanceService
	notificationSvc service.NotificationService
}

// NewCheckinHandler 创建 CheckinHandler
func NewCheckinHandler(
	codeSvc service.CheckinCodeService,
	attendanceSvc service.AttendanceService,
	notificationSvc service.NotificationService,
) *CheckinHandler {
	return &CheckinHandler{
		codeSvc:         codeSvc,
		attendanceSvc:   attendanceSvc,
		notificationSvc: notificationSvc,
	}
}

// ── 签到码（负责人） ──

// IssueCode 获取或生成项目签到码
// POST /api/v1/projects/:id/checkin-code
func (h *CheckinHandler) IssueCode(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	callerID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	code, err := h.codeSvc.IssueOrGet(c.Request.Context(), projectID, callerID, role)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, code)
}

// GetCode 查看现有签到码
// GET /api/v1/projects/:id/checkin-code
func (h *CheckinHandler) GetCode(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	callerID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	code, err := h.codeSvc.Get(c.Request.Context(), projectID, callerID, role)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, code)
}

// GetQRImage 签到码二维码图片
// GET /api/v1/projects/:id/checkin-code/qr.png
func (h *CheckinHandler) GetQRImage(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	callerID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	png, err := h.codeSvc.QRImage(c.Request.Context(), projectID, callerID, role)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// ListAttendance 项目出勤列表
// GET /api/v1/projects/:id/attendance
func (h *CheckinHandler) ListAttendance(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	callerID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.attendanceSvc.ListProjectAttendance(c.Request.Context(), projectID, callerID, role)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, list)
}

// ── 扫码签到 / 签退（志愿者） ──

// CheckIn 扫码签到
// POST /api/v1/attendance/checkin
func (h *CheckinHandler) CheckIn(c *gin.Context) {
	raw, ok := bindScan(c)
	if !ok {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	token, err := h.codeSvc.Validate(ctx, raw)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	result, err := h.attendanceSvc.CheckIn(ctx, userID, token.ProjectID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, result)
}

// CheckOut 扫码签退；响应附带本次获得的证书与徽章
// POST /api/v1/attendance/checkout
func (h *CheckinHandler) CheckOut(c *gin.Context) {
	raw, ok := bindScan(c)
	if !ok {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	token, err := h.codeSvc.Validate(ctx, raw)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	result, err := h.attendanceSvc.CheckOut(ctx, userID, token.ProjectID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	h.notificationSvc.NotifyCheckout(ctx, userID, result)
	response.OK(c, service.NewCheckoutResponse(result))
}

// bindScan 绑定扫码请求；签到串形状不合法时返回签到码格式错误而非通用参数错误
func bindScan(c *gin.Context) (string, bool) {
	var req dto.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Tag() == "checkin_code" {
					handleServiceError(c, service.ErrCheckinCodeFormat)
					return "", false
				}
			}
		}
		bindError(c, err)
		return "", false
	}
	return req.QRCode, true
}
