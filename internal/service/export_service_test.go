package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"umuganda/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestExportService() (ExportService, *testEnv) {
	env := setupTestEnv()
	return NewExportService(env.repo, zap.NewNop()), env
}

func mustCell(t *testing.T, f *excelize.File, axis string) string {
	t.Helper()
	v, err := f.GetCellValue("Attendance", axis)
	if err != nil {
		t.Fatalf("读取单元格 %s 失败: %v", axis, err)
	}
	return v
}

// ── ExportAttendance 测试 ──

func TestExportService_ExportAttendance(t *testing.T) {
	svc, env := setupTestExportService()
	ctx := context.Background()

	env.attendanceSvc.CheckIn(ctx, testVolunteerID, testProjectID)
	env.clock.Advance(time.Minute)
	env.attendanceSvc.CheckIn(ctx, testOtherID, testProjectID)
	env.clock.Advance(90 * time.Minute)
	env.attendanceSvc.CheckOut(ctx, testVolunteerID, testProjectID)

	buf, filename, err := svc.ExportAttendance(ctx, testProjectID, testLeaderID, model.RoleLeader)
	if err != nil {
		t.Fatalf("导出应成功: %v", err)
	}
	if filename != "attendance_project_10.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("生成的文件应可被解析: %v", err)
	}
	defer f.Close()

	if got := mustCell(t, f, "A1"); got != "Tree Planting (2025-03-29)" {
		t.Errorf("标题不符: %s", got)
	}
	if got := mustCell(t, f, "B3"); got != "Name" {
		t.Errorf("表头不符: %s", got)
	}

	// 第 4 行：已签退的志愿者
	if got := mustCell(t, f, "B4"); got != "Aline Uwase" {
		t.Errorf("姓名不符: %s", got)
	}
	if got := mustCell(t, f, "D4"); got != "2025-03-29 08:00" {
		t.Errorf("签到时间不符: %s", got)
	}
	if got := mustCell(t, f, "F4"); got != "91" {
		t.Errorf("时长不符: %s", got)
	}
	// 第 5 行：未签退
	if got := mustCell(t, f, "E5"); got != "-" {
		t.Errorf("未签退应显示 -，实际 %s", got)
	}

	// 汇总：数据末行后空一行
	if got := mustCell(t, f, "B7"); got != "Volunteers" {
		t.Errorf("汇总标签不符: %s", got)
	}
	if got := mustCell(t, f, "C7"); got != "2" {
		t.Errorf("参与人数不符: %s", got)
	}
	if got := mustCell(t, f, "C8"); got != "1" {
		t.Errorf("完成人数不符: %s", got)
	}
}

func TestExportService_ExportAttendance_Empty(t *testing.T) {
	svc, _ := setupTestExportService()

	buf, _, err := svc.ExportAttendance(context.Background(), testProjectID, testAdminID, model.RoleAdmin)
	if err != nil {
		t.Fatalf("无出勤记录时也应可导出: %v", err)
	}
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	defer f.Close()

	if got := mustCell(t, f, "C5"); got != "0" {
		t.Errorf("参与人数应为 0，实际 %s", got)
	}
}

func TestExportService_ExportAttendance_Forbidden(t *testing.T) {
	svc, _ := setupTestExportService()

	_, _, err := svc.ExportAttendance(context.Background(), testProjectID, testVolunteerID, model.RoleVolunteer)
	if !errors.Is(err, ErrNotProjectLeader) {
		t.Errorf("期望 ErrNotProjectLeader，实际: %v", err)
	}
	_, _, err = svc.ExportAttendance(context.Background(), 999, testAdminID, model.RoleAdmin)
	if !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("期望 ErrProjectNotFound，实际: %v", err)
	}
}
