package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"umuganda/backend/internal/model"
)

func parseCalendar(t *testing.T, data []byte) *ics.VEvent {
	t.Helper()
	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("生成的 ICS 应可被解析: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("期望 1 个事件，实际 %d", len(events))
	}
	return events[0]
}

func TestCalendarService_ProjectCalendar(t *testing.T) {
	env := setupTestEnv()
	svc := NewCalendarService(env.repo, "https://umuganda.example.rw/", zap.NewNop())

	data, filename, err := svc.ProjectCalendar(context.Background(), testProjectID)
	if err != nil {
		t.Fatalf("生成日历应成功: %v", err)
	}
	if filename != "project_10.ics" {
		t.Errorf("文件名不符: %s", filename)
	}

	evt := parseCalendar(t, data)
	if evt.Id() != "project-10@umuganda.example.rw" {
		t.Errorf("UID 不符: %s", evt.Id())
	}
	if got := evt.GetProperty(ics.ComponentPropertySummary).Value; got != "Umuganda: Tree Planting" {
		t.Errorf("标题不符: %s", got)
	}
	if got := evt.GetProperty(ics.ComponentPropertyLocation).Value; got != "Kimironko Market" {
		t.Errorf("地点不符: %s", got)
	}
	if got := evt.GetProperty(ics.ComponentPropertyStatus).Value; got != string(ics.ObjectStatusConfirmed) {
		t.Errorf("状态不符: %s", got)
	}
	if got := evt.GetProperty(ics.ComponentPropertyUrl).Value; got != "https://umuganda.example.rw/api/v1/projects/10" {
		t.Errorf("URL 不符: %s", got)
	}

	start, err := evt.GetStartAt()
	if err != nil || !start.Equal(time.Date(2025, 3, 29, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("开始时间不符: %v err=%v", start, err)
	}
	end, err := evt.GetEndAt()
	if err != nil || end.Sub(start) != 3*time.Hour {
		t.Errorf("默认时长应为 3 小时: %v err=%v", end.Sub(start), err)
	}
}

func TestCalendarService_CancelledProject(t *testing.T) {
	env := setupTestEnv()
	env.setProjectStatus(model.ProjectCancelled)
	env.projects.projects[testProjectID].Location = ""
	svc := NewCalendarService(env.repo, "", zap.NewNop())

	data, _, err := svc.ProjectCalendar(context.Background(), testProjectID)
	if err != nil {
		t.Fatalf("生成日历应成功: %v", err)
	}

	evt := parseCalendar(t, data)
	if got := evt.GetProperty(ics.ComponentPropertyStatus).Value; got != string(ics.ObjectStatusCancelled) {
		t.Errorf("已取消项目应标记 CANCELLED，实际 %s", got)
	}
	if got := evt.GetProperty(ics.ComponentPropertyLocation).Value; got != "Kimironko" {
		t.Errorf("缺少地点时应使用 sector，实际 %s", got)
	}
	if evt.GetProperty(ics.ComponentPropertyUrl) != nil {
		t.Error("未配置 base_url 时不应输出 URL")
	}
	if evt.Id() != "project-10@umuganda" {
		t.Errorf("UID 不符: %s", evt.Id())
	}
}

func TestCalendarService_UnknownProject(t *testing.T) {
	env := setupTestEnv()
	svc := NewCalendarService(env.repo, "", zap.NewNop())

	if _, _, err := svc.ProjectCalendar(context.Background(), 999); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("期望 ErrProjectNotFound，实际: %v", err)
	}
}
