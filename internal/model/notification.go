package model

import "time"

// 通知类型
const (
	NotificationCertificateReady = "certificate_ready"
	NotificationBadgeAwarded     = "badge_awarded"
)

// Notification 站内通知，对应 notifications
type Notification struct {
	NotificationID uint      `gorm:"primaryKey"                         json:"notification_id"`
	UserID         uint      `gorm:"not null;index"                     json:"user_id"`
	ProjectID      *uint     `json:"project_id,omitempty"`
	Type           string    `gorm:"type:varchar(50);not null"          json:"type"`
	Title          string    `gorm:"type:varchar(200);not null"         json:"title"`
	Message        string    `gorm:"type:text;not null"                 json:"message"`
	IsRead         bool      `gorm:"not null;default:false"             json:"is_read"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }
