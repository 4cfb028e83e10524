package dto

// NotificationResponse 通知
type NotificationResponse struct {
	ID        uint   `json:"id"`
	ProjectID *uint  `json:"project_id,omitempty"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}
