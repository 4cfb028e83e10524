package model

import "time"

// Attendance 出勤记录，对应 attendances
// 同一 (user, project) 至多一条 check_out_time 为空的记录，由部分唯一索引保证
type Attendance struct {
	AttendanceID uint       `gorm:"primaryKey"                                                        json:"attendance_id"`
	UserID       uint       `gorm:"not null;uniqueIndex:uq_attendances_open_session,where:check_out_time IS NULL" json:"user_id"`
	ProjectID    uint       `gorm:"not null;uniqueIndex:uq_attendances_open_session,where:check_out_time IS NULL;index" json:"project_id"`
	CheckInTime  time.Time  `gorm:"not null"                                                          json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
	BaseModel

	// 关联
	User    *User    `gorm:"foreignKey:UserID;references:UserID"       json:"user,omitempty"`
	Project *Project `gorm:"foreignKey:ProjectID;references:ProjectID" json:"project,omitempty"`
}

// TableName 指定表名
func (Attendance) TableName() string { return "attendances" }

// IsOpen 尚未签退
func (a *Attendance) IsOpen() bool { return a.CheckOutTime == nil }

// Duration 已签退记录的时长；未签退返回 0
func (a *Attendance) Duration() time.Duration {
	if a.CheckOutTime == nil {
		return 0
	}
	return a.CheckOutTime.Sub(a.CheckInTime)
}
