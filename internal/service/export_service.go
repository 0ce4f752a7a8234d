package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"crystal-preschool/backend/internal/dto"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoApplications = errors.New("No applications to export")
	ErrExportGenerateFail   = errors.New("Failed to generate Excel file")
)

// ExportApplications 导出申请名册为 Excel (.xlsx)
//
// 输出格式：
//   - 单 Sheet "Applications"
//   - 每行一条申请，列：编号 / 儿童 / 出生日期 / 性别 / 家长 / 联系方式 /
//     校区 / 课程 / 状态 / 提交时间
//   - 以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error
func (s *applicationService) ExportApplications(ctx context.Context, req *dto.ApplicationListRequest) (*bytes.Buffer, string, error) {
	// 导出不截断：忽略调用方 limit
	apps, err := s.ListAll(ctx, &dto.ApplicationListRequest{
		Status: req.Status,
		Branch: req.Branch,
		Limit:  int(^uint(0) >> 1),
	})
	if err != nil {
		return nil, "", err
	}
	if len(apps) == 0 {
		return nil, "", ErrExportNoApplications
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Applications"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{
		"Application ID", "Child Name", "Date of Birth", "Gender",
		"Parent Name", "Relationship", "Email", "Phone",
		"Branch", "Program", "Status", "Submitted At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			s.logger.Error("写入表头失败", zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
	}

	for row, app := range apps {
		values := []interface{}{
			app.ApplicationID,
			app.ChildFirstName + " " + app.ChildLastName,
			app.ChildDOB,
			app.ChildGender,
			app.ParentName,
			app.ParentRelationship,
			app.ParentEmail,
			app.ParentPhone,
			app.PreferredBranch,
			app.ProgramType,
			app.Status,
			app.SubmittedAt,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				s.logger.Error("写入数据行失败", zap.Int("row", row+2), zap.Error(err))
				return nil, "", ErrExportGenerateFail
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		s.logger.Error("生成 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("applications_%s.xlsx", time.Now().Format("20060102"))
	return &buf, filename, nil
}
