package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"umuganda/backend/internal/model"
	"umuganda/backend/internal/repository"
)

// ── ICS 日历导出 ──────────────────────────────────────────────
//
// 单个项目生成一个 VEVENT：
//   - DTSTART 取 project.datetime，默认时长 3 小时
//   - UID 固定为 project-<id>@<host>，重复下载可被日历客户端去重
//   - 已取消项目标记 STATUS:CANCELLED
// ─────────────────────────────────────────────────────────────

const projectEventDuration = 3 * time.Hour

// CalendarService 项目日历接口
type CalendarService interface {
	// ProjectCalendar 返回 .ics 内容与建议文件名
	ProjectCalendar(ctx context.Context, projectID uint) ([]byte, string, error)
}

type calendarService struct {
	repo    *repository.Repository
	baseURL string
	logger  *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, baseURL string, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

func (s *calendarService) ProjectCalendar(ctx context.Context, projectID uint) ([]byte, string, error) {
	project, err := getProject(ctx, s.repo, projectID)
	if err != nil {
		if !errors.Is(err, ErrProjectNotFound) {
			s.logger.Error("查询项目失败", zap.Uint("project_id", projectID), zap.Error(err))
		}
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Umuganda//Project Calendar//EN")

	event := cal.AddEvent(fmt.Sprintf("project-%d@%s", project.ProjectID, s.host()))
	stamp := project.UpdatedAt
	if stamp.IsZero() {
		stamp = project.Datetime
	}
	event.SetDtStampTime(stamp.UTC())
	event.SetStartAt(project.Datetime.UTC())
	event.SetEndAt(project.Datetime.Add(projectEventDuration).UTC())
	event.SetSummary("Umuganda: " + project.Title)
	if project.Location != "" {
		event.SetLocation(project.Location)
	} else {
		event.SetLocation(project.Sector)
	}
	if project.Description != "" {
		event.SetDescription(project.Description)
	}
	if s.baseURL != "" {
		event.SetURL(fmt.Sprintf("%s/api/v1/projects/%d", s.baseURL, project.ProjectID))
	}
	if project.Status == model.ProjectCancelled {
		event.SetStatus(ics.ObjectStatusCancelled)
	} else {
		event.SetStatus(ics.ObjectStatusConfirmed)
	}

	return []byte(cal.Serialize()), fmt.Sprintf("project_%d.ics", project.ProjectID), nil
}

func (s *calendarService) host() string {
	if u, err := url.Parse(s.baseURL); err == nil && u.Host != "" {
		return u.Hostname()
	}
	return "umuganda"
}
