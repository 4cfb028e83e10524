package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"umuganda/backend/internal/model"
	"umuganda/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportAttendance 导出项目出勤表（仅负责人/管理员）
	ExportAttendance(ctx context.Context, projectID, callerID uint, role model.Role) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportAttendance：导出项目出勤表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 第 1 行：项目标题与日期
//   - 第 3 行表头：# | Name | Phone | Check-in | Check-out | Minutes
//   - 末尾汇总：参与人数 / 完成人数
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportAttendance(ctx context.Context, projectID, callerID uint, role model.Role) (*bytes.Buffer, string, error) {
	// 1. 权限与项目
	project, err := loadManagedProject(ctx, s.repo, projectID, callerID, role)
	if err != nil {
		if !errors.Is(err, ErrProjectNotFound) && !errors.Is(err, ErrNotProjectLeader) {
			s.logger.Error("查询项目失败", zap.Uint("project_id", projectID), zap.Error(err))
		}
		return nil, "", err
	}

	// 2. 出勤记录
	records, err := s.repo.Attendance.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Error("查询出勤记录失败", zap.Uint("project_id", projectID), zap.Error(err))
		return nil, "", err
	}

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Attendance"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	// 设置列宽
	f.SetColWidth(sheetName, "A", "A", 6)
	f.SetColWidth(sheetName, "B", "B", 26)
	f.SetColWidth(sheetName, "C", "C", 18)
	f.SetColWidth(sheetName, "D", "E", 22)
	f.SetColWidth(sheetName, "F", "F", 10)

	// 样式
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#00A651"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 13},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s (%s)", project.Title, project.Datetime.Format("2006-01-02")))
	f.MergeCell(sheetName, "A1", "F1")
	f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	// 表头
	row := 3
	headers := []string{"#", "Name", "Phone", "Check-in", "Check-out", "Minutes"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell("F", row), headerStyle)

	// 数据行
	volunteers := make(map[uint]struct{})
	completed := make(map[uint]struct{})
	const timeLayout = "2006-01-02 15:04"
	for i := range records {
		r := &records[i]
		row++
		volunteers[r.UserID] = struct{}{}

		name, phone := fmt.Sprintf("user #%d", r.UserID), ""
		if r.User != nil {
			name, phone = r.User.FullName(), r.User.PhoneNumber
		}
		f.SetCellValue(sheetName, cell("A", row), i+1)
		f.SetCellValue(sheetName, cell("B", row), name)
		f.SetCellValue(sheetName, cell("C", row), phone)
		f.SetCellValue(sheetName, cell("D", row), r.CheckInTime.Format(timeLayout))
		if r.CheckOutTime != nil {
			completed[r.UserID] = struct{}{}
			f.SetCellValue(sheetName, cell("E", row), r.CheckOutTime.Format(timeLayout))
			f.SetCellValue(sheetName, cell("F", row), int(r.Duration().Minutes()))
		} else {
			f.SetCellValue(sheetName, cell("E", row), "-")
		}
	}

	// 汇总
	row += 2
	f.SetCellValue(sheetName, cell("B", row), "Volunteers")
	f.SetCellValue(sheetName, cell("C", row), len(volunteers))
	row++
	f.SetCellValue(sheetName, cell("B", row), "Completed")
	f.SetCellValue(sheetName, cell("C", row), len(completed))

	// 4. 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("attendance_project_%d.xlsx", project.ProjectID)
	return buf, filename, nil
}

// colName 将 0-based 列索引转为 Excel 列名
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

// cell 拼接单元格坐标
func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
