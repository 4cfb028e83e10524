package dto

// BadgeResponse 徽章目录项
type BadgeResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IconURL     string `json:"icon_url,omitempty"`
	Threshold   int    `json:"threshold"`
}

// UserBadgeResponse 用户已获得的徽章
type UserBadgeResponse struct {
	Badge     BadgeResponse `json:"badge"`
	AwardedAt string        `json:"awarded_at"`
}

// BadgeStats 成就统计
type BadgeStats struct {
	CompletedSessions int64              `json:"completed_sessions"`
	TotalBadges       int                `json:"total_badges"`
	LatestBadge       *UserBadgeResponse `json:"latest_badge,omitempty"`
	NextBadge         *BadgeResponse     `json:"next_badge,omitempty"`
}

// UserBadgesResponse 用户徽章与统计
type UserBadgesResponse struct {
	UserID uint                `json:"user_id"`
	Badges []UserBadgeResponse `json:"badges"`
	Stats  BadgeStats          `json:"stats"`
}
