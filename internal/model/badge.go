package model

import "time"

// BadgeMilestone 徽章门槛：累计已签退次数达到 Threshold 即获得 Name
type BadgeMilestone struct {
	Threshold int64
	Name      string
}

// BadgeMilestones 按门槛升序；目录由迁移写入 badges 表
var BadgeMilestones = []BadgeMilestone{
	{Threshold: 1, Name: "First Timer"},
	{Threshold: 5, Name: "Regular Contributor"},
	{Threshold: 10, Name: "Community Champion"},
}

// Badge 徽章目录，对应 badges（只读）
type Badge struct {
	BadgeID     uint   `gorm:"primaryKey"                             json:"badge_id"`
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Description string `gorm:"type:text"                              json:"description"`
	IconURL     string `gorm:"type:text"                              json:"icon_url"`
	Threshold   int    `gorm:"not null"                               json:"threshold"`
}

// TableName 指定表名
func (Badge) TableName() string { return "badges" }

// UserBadge 用户已获得徽章，对应 user_badges，(user_id, badge_id) 唯一，不撤销
type UserBadge struct {
	UserBadgeID uint      `gorm:"primaryKey"                                      json:"user_badge_id"`
	UserID      uint      `gorm:"not null;uniqueIndex:uq_user_badges_user_badge"  json:"user_id"`
	BadgeID     uint      `gorm:"not null;uniqueIndex:uq_user_badges_user_badge"  json:"badge_id"`
	AwardedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"              json:"awarded_at"`

	// 关联
	Badge *Badge `gorm:"foreignKey:BadgeID;references:BadgeID" json:"badge,omitempty"`
}

// TableName 指定表名
func (UserBadge) TableName() string { return "user_badges" }
