package handler

import "umuganda/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Project      *ProjectHandler
	Checkin      *CheckinHandler
	Certificate  *CertificateHandler
	Badge        *BadgeHandler
	Notification *NotificationHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Project:      NewProjectHandler(svc.Project),
		Checkin:      NewCheckinHandler(svc.CheckinCode, svc.Attendance, svc.Notification),
		Certificate:  NewCertificateHandler(svc.Certificate),
		Badge:        NewBadgeHandler(svc.Badge),
		Notification: NewNotificationHandler(svc.Notification),
		Export:       NewExportHandler(svc.Export, svc.Calendar),
	}
}
