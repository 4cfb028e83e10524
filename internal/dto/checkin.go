package dto

// ── 签到码 ──

// CheckinCodeResponse 项目签到码
type CheckinCodeResponse struct {
	ProjectID uint   `json:"project_id"`
	Code      string `json:"code"`
	Payload   string `json:"payload"` // 二维码内容 "<namespace>:<project_id>:<code>"
	ExpiresAt string `json:"expires_at"`
	QRImage   string `json:"qr_image_url"`
}

// ScanRequest 扫码签到/签退请求
type ScanRequest struct {
	QRCode string `json:"qr_code" binding:"required,checkin_code"`
}

// ── 签到 / 签退 ──

// CheckinResponse 签到结果
type CheckinResponse struct {
	AttendanceID uint   `json:"attendance_id"`
	ProjectID    uint   `json:"project_id"`
	CheckInTime  string `json:"check_in_time"`
}

// CheckoutResponse 签退结果，附带本次产生的证书与新徽章
type CheckoutResponse struct {
	AttendanceID       uint                 `json:"attendance_id"`
	ProjectID          uint                 `json:"project_id"`
	CheckInTime        string               `json:"check_in_time"`
	CheckOutTime       string               `json:"check_out_time"`
	DurationMinutes    int                  `json:"duration_minutes"`
	Certificate        *CertificateResponse `json:"certificate,omitempty"`
	CertificateCreated bool                 `json:"certificate_created"`
	NewBadges          []BadgeResponse      `json:"new_badges"`
}

// ── 项目出勤 ──

// AttendanceRecordResponse 单条出勤记录
type AttendanceRecordResponse struct {
	AttendanceID    uint      `json:"attendance_id"`
	User            UserBrief `json:"user"`
	CheckInTime     string    `json:"check_in_time"`
	CheckOutTime    *string   `json:"check_out_time"`
	DurationMinutes *int      `json:"duration_minutes,omitempty"`
}

// ProjectAttendanceResponse 项目出勤列表，计数每次读取时重新统计
type ProjectAttendanceResponse struct {
	ProjectID      uint                       `json:"project_id"`
	VolunteerCount int64                      `json:"volunteer_count"`
	CompletedCount int64                      `json:"completed_count"`
	Records        []AttendanceRecordResponse `json:"records"`
}
