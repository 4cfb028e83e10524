package model

import (
	"time"

	"gorm.io/datatypes"
)

// 证书快照字段名
const (
	SnapshotRecipientName = "recipient_name"
	SnapshotProjectTitle  = "project_title"
	SnapshotProjectDate   = "project_date"
	SnapshotLeaderName    = "leader_name"
)

// Certificate 参与证书，对应 certificates，(user_id, project_id) 唯一
type Certificate struct {
	CertificateID     uint              `gorm:"primaryKey"                                          json:"certificate_id"`
	UserID            uint              `gorm:"not null;uniqueIndex:uq_certificates_user_project"   json:"user_id"`
	ProjectID         uint              `gorm:"not null;uniqueIndex:uq_certificates_user_project"   json:"project_id"`
	CertificateNumber string            `gorm:"type:varchar(64);not null;uniqueIndex"               json:"certificate_number"`
	FileURL           string            `gorm:"not null;default:''"                                 json:"file_url"`
	Snapshot          datatypes.JSONMap `json:"snapshot,omitempty"` // 签发时的姓名/项目/日期
	IssuedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"                  json:"issued_at"`
	UpdatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"                  json:"updated_at"`

	// 关联
	Project *Project `gorm:"foreignKey:ProjectID;references:ProjectID" json:"project,omitempty"`
}

// TableName 指定表名
func (Certificate) TableName() string { return "certificates" }

// HasArtifact 是否已生成证书文件
func (c *Certificate) HasArtifact() bool { return c.FileURL != "" }
