package dto

// ── 项目模块 DTO ──

// UpdateProjectStatusRequest 修改项目状态请求
type UpdateProjectStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=planned ongoing completed cancelled"`
}

// ProjectResponse 项目信息
type ProjectResponse struct {
	ID                 uint      `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description,omitempty"`
	Sector             string    `json:"sector"`
	Location           string    `json:"location,omitempty"`
	Datetime           string    `json:"datetime"`
	RequiredVolunteers *int      `json:"required_volunteers,omitempty"`
	Status             string    `json:"status"`
	Admin              UserBrief `json:"admin"`
	VolunteerCount     int64     `json:"volunteer_count"`
	CompletedCount     int64     `json:"completed_count"`
	Version            int       `json:"version"`
}
