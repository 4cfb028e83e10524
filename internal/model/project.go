package model

import (
	"fmt"
	"time"
)

// ProjectStatus 项目状态（封闭枚举）
type ProjectStatus string

const (
	ProjectPlanned   ProjectStatus = "planned"
	ProjectOngoing   ProjectStatus = "ongoing"
	ProjectCompleted ProjectStatus = "completed"
	ProjectCancelled ProjectStatus = "cancelled"
)

// ParseProjectStatus 解析项目状态
func ParseProjectStatus(s string) (ProjectStatus, error) {
	st := ProjectStatus(s)
	switch st {
	case ProjectPlanned, ProjectOngoing, ProjectCompleted, ProjectCancelled:
		return st, nil
	}
	return "", fmt.Errorf("未知项目状态: %q", s)
}

// CanTransitionTo 状态流转：planned → ongoing → completed，planned/ongoing → cancelled
func (s ProjectStatus) CanTransitionTo(next ProjectStatus) bool {
	switch s {
	case ProjectPlanned:
		return next == ProjectOngoing || next == ProjectCompleted || next == ProjectCancelled
	case ProjectOngoing:
		return next == ProjectCompleted || next == ProjectCancelled
	case ProjectCompleted, ProjectCancelled:
		return false
	}
	return false
}

// Project 社区服务项目，对应 projects
type Project struct {
	ProjectID          uint          `gorm:"primaryKey"                                  json:"project_id"`
	Title              string        `gorm:"type:varchar(255);not null"                  json:"title"`
	Description        string        `gorm:"type:text"                                   json:"description"`
	Sector             string        `gorm:"type:varchar(100);not null"                  json:"sector"`
	Location           string        `gorm:"type:varchar(255)"                           json:"location"`
	Datetime           time.Time     `gorm:"not null"                                    json:"datetime"`
	RequiredVolunteers *int          `json:"required_volunteers,omitempty"`
	AdminID            uint          `gorm:"not null;index"                              json:"admin_id"` // 项目负责人
	Status             ProjectStatus `gorm:"type:varchar(20);not null;default:'planned'" json:"status"`
	VersionedModel

	// 关联
	Admin *User `gorm:"foreignKey:AdminID;references:UserID" json:"admin,omitempty"`
}

// TableName 指定表名
func (Project) TableName() string { return "projects" }

// IsLeader 用户是否为该项目负责人
func (p *Project) IsLeader(userID uint) bool { return p.AdminID == userID }
