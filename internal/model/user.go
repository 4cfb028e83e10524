package model

import (
	"fmt"
	"strings"
)

// Role 用户角色（封闭枚举）
type Role string

const (
	RoleLeader    Role = "leader"
	RoleVolunteer Role = "volunteer"
	RoleAdmin     Role = "admin"
)

// ParseRole 将外部字符串解析为 Role，未知值返回错误
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("未知角色: %q", s)
	}
	return r, nil
}

// Valid 是否为已知角色
func (r Role) Valid() bool {
	switch r {
	case RoleLeader, RoleVolunteer, RoleAdmin:
		return true
	}
	return false
}

// CanManageProjects 能否签发签到码、修改项目状态、查看出勤
func (r Role) CanManageProjects() bool {
	switch r {
	case RoleLeader, RoleAdmin:
		return true
	case RoleVolunteer:
		return false
	default:
		return false
	}
}

// BypassesOwnership 是否无需是项目负责人即可管理项目
func (r Role) BypassesOwnership() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleLeader, RoleVolunteer:
		return false
	default:
		return false
	}
}

// User 用户表，对应 users
type User struct {
	UserID      uint   `gorm:"primaryKey"                                   json:"user_id"`
	PhoneNumber string `gorm:"type:varchar(20);not null;uniqueIndex"        json:"phone_number"`
	FirstName   string `gorm:"type:varchar(100)"                            json:"first_name"`
	LastName    string `gorm:"type:varchar(100)"                            json:"last_name"`
	Email       string `gorm:"type:varchar(255)"                            json:"email"`
	Sector      string `gorm:"type:varchar(100)"                            json:"sector"`
	Role        Role   `gorm:"type:varchar(20);not null;default:'volunteer'" json:"role"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// FullName 姓名；未填写时退回手机号
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.PhoneNumber
	}
	return name
}
