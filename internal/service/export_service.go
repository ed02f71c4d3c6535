package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"dryshift/internal/model"
	"dryshift/internal/report"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出内容与 ReportService.Generate 相同，只是换成 Excel (.xlsx) 呈现
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - Sheet：汇总 / 个人 / 临时工作
type ExportService interface {
	// ExportMonthly 导出月度报表为 Excel
	ExportMonthly(ctx context.Context, year, month int, userID *int64) (*bytes.Buffer, string, error)
}

type exportService struct {
	reports ReportService
	logger  *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(reports ReportService, logger *zap.Logger) ExportService {
	return &exportService{reports: reports, logger: logger}
}

const (
	sheetTotals = "Підсумки"
	sheetUsers  = "Працівники"
	sheetAdHoc  = "Інша робота"
)

var kindLabels = []struct {
	kind  model.WorkKind
	label string
}{
	{model.WorkKindProduction, "Виробництво"},
	{model.WorkKindPackaging, "Фасування"},
	{model.WorkKindSales, "Продажі"},
}

// ═══════════════════════════════════════════════════════════
// ExportMonthly — 导出月度报表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportMonthly(ctx context.Context, year, month int, userID *int64) (*bytes.Buffer, string, error) {
	r, err := s.reports.Generate(ctx, year, month, userID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, _ := f.NewSheet(sheetTotals)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")
	f.NewSheet(sheetUsers)
	f.NewSheet(sheetAdHoc)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	title := fmt.Sprintf("Звіт за %s %d", report.MonthName(r.Month), r.Year)

	// ── 汇总 ──
	f.SetColWidth(sheetTotals, "A", "A", 18)
	f.SetColWidth(sheetTotals, "B", "F", 16)
	f.SetCellValue(sheetTotals, "A1", title)
	f.MergeCell(sheetTotals, "A1", "F1")
	f.SetCellStyle(sheetTotals, "A1", "A1", headerStyle)

	header := []string{"Тип", "Змін", "Час (хв.)", "Партнерський час (хв.)", "Пакунків", "Сума"}
	for i, h := range header {
		f.SetCellValue(sheetTotals, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetTotals, "A2", cell(colName(len(header)-1), 2), headerStyle)

	row := 3
	for _, kl := range kindLabels {
		k := r.Totals.Kind(kl.kind)
		f.SetCellValue(sheetTotals, cell("A", row), kl.label)
		f.SetCellValue(sheetTotals, cell("B", row), k.Sessions)
		f.SetCellValue(sheetTotals, cell("C", row), minutes(k.HostTime))
		f.SetCellValue(sheetTotals, cell("D", row), minutes(k.PartnerTime))
		f.SetCellValue(sheetTotals, cell("E", row), k.Packages)
		f.SetCellValue(sheetTotals, cell("F", row), k.Amount.StringFixed(2))
		row++
	}
	f.SetCellValue(sheetTotals, cell("A", row), "Інша робота")
	f.SetCellValue(sheetTotals, cell("B", row), len(r.Totals.OtherWork.Entries))
	f.SetCellValue(sheetTotals, cell("C", row), minutes(r.Totals.OtherWork.Time))
	row++
	f.SetCellValue(sheetTotals, cell("A", row), "Разом")
	f.SetCellValue(sheetTotals, cell("C", row), minutes(r.Totals.TotalTime()))

	// ── 个人 ──
	f.SetColWidth(sheetUsers, "A", "B", 20)
	f.SetColWidth(sheetUsers, "C", "K", 14)
	userHeader := []string{"ID", "Ім'я"}
	for _, kl := range kindLabels {
		userHeader = append(userHeader, kl.label+" (хв.)")
	}
	userHeader = append(userHeader, "Партнерський час (хв.)", "Пакунків", "Сума", "Інша робота (хв.)", "Разом (хв.)")
	for i, h := range userHeader {
		f.SetCellValue(sheetUsers, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetUsers, "A1", cell(colName(len(userHeader)-1), 1), headerStyle)

	row = 2
	for _, u := range r.Users {
		f.SetCellValue(sheetUsers, cell("A", row), u.UserID)
		f.SetCellValue(sheetUsers, cell("B", row), u.Name)
		col := 2
		var partner int64
		var packages int64
		for _, kl := range kindLabels {
			k := u.Kind(kl.kind)
			f.SetCellValue(sheetUsers, cell(colName(col), row), minutes(k.HostTime))
			partner += minutes(k.PartnerTime)
			packages += k.Packages
			col++
		}
		f.SetCellValue(sheetUsers, cell(colName(col), row), partner)
		f.SetCellValue(sheetUsers, cell(colName(col+1), row), packages)
		f.SetCellValue(sheetUsers, cell(colName(col+2), row), u.Sales.Amount.StringFixed(2))
		f.SetCellValue(sheetUsers, cell(colName(col+3), row), minutes(u.OtherWork.Time))
		f.SetCellValue(sheetUsers, cell(colName(col+4), row), minutes(u.TotalTime()))
		row++
	}

	// ── 临时工作 ──
	f.SetColWidth(sheetAdHoc, "A", "C", 16)
	f.SetColWidth(sheetAdHoc, "D", "D", 48)
	for i, h := range []string{"Дата", "ID", "Працівник", "Опис", "Тривалість (хв.)"} {
		f.SetCellValue(sheetAdHoc, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetAdHoc, "A1", "E1", headerStyle)

	row = 2
	for _, line := range r.Totals.OtherWork.Entries {
		f.SetCellValue(sheetAdHoc, cell("A", row), line.Date.In(r.From.Location()).Format("02.01.2006"))
		f.SetCellValue(sheetAdHoc, cell("B", row), line.ID)
		f.SetCellValue(sheetAdHoc, cell("C", row), line.UserID)
		f.SetCellValue(sheetAdHoc, cell("D", row), line.Description)
		if line.Duration != nil {
			f.SetCellValue(sheetAdHoc, cell("E", row), *line.Duration)
		} else {
			f.SetCellValue(sheetAdHoc, cell("E", row), "-")
		}
		row++
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("report_%04d_%02d.xlsx", year, month)
	if userID != nil {
		filename = fmt.Sprintf("report_%04d_%02d_%d.xlsx", year, month, *userID)
	}
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// minutes 截断为整分钟
func minutes(d time.Duration) int64 {
	return int64(d / time.Minute)
}
