package model

import "time"

// CheckinToken 项目签到码，对应 project_checkin_codes（与 projects 1:1）
type CheckinToken struct {
	CheckinCodeID uint      `gorm:"primaryKey"                                json:"checkin_code_id"`
	ProjectID     uint      `gorm:"not null;uniqueIndex"                      json:"project_id"`
	Code          string    `gorm:"type:varchar(255);not null;uniqueIndex"    json:"code"`
	ExpiresAt     time.Time `gorm:"not null"                                  json:"expires_at"`
	QRImage       []byte    `json:"-"` // 渲染好的二维码 PNG
	BaseModel
}

// TableName 指定表名
func (CheckinToken) TableName() string { return "project_checkin_codes" }

// IsExpired now 严格晚于 expires_at 才算过期
func (t *CheckinToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
