package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"berthops/internal/model"
	"berthops/internal/repository"
	pkgerrors "berthops/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoRecords    = pkgerrors.NotFound(40408, "该日暂无绩效记录，请先执行绩效汇总")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportPerformance 导出某日的工人日绩效为 Excel
	ExportPerformance(ctx context.Context, date string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

var performanceHeaders = []string{
	"工人", "分配", "完成", "未完成", "未开工", "结转",
	"预估工时", "实际工时", "平均时效分", "平均质检分", "平均清洁分",
	"积分", "暂停次数", "暂停分钟", "完成率(%)", "当前连续", "最长连续", "累计积分",
}

// ═══════════════════════════════════════════════════════════
// ExportPerformance — 导出日绩效
// ═══════════════════════════════════════════════════════════
//
// 输出格式：单个 Sheet，首行标题，第二行表头，每个工人一行

func (s *exportService) ExportPerformance(ctx context.Context, date string) (*bytes.Buffer, string, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, "", err
	}

	recs, err := s.repo.Performance.List(ctx, repository.PerformanceFilter{
		PeriodType: model.PeriodDaily,
		From:       &d,
		To:         &d,
	})
	if err != nil {
		s.logger.Error("查询绩效记录失败", zap.String("date", date), zap.Error(err))
		return nil, "", err
	}
	if len(recs) == 0 {
		return nil, "", ErrExportNoRecords
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "日绩效"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 16)
	f.SetColWidth(sheetName, "B", colName(len(performanceHeaders)-1), 11)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s 工人日绩效", date))
	f.MergeCell(sheetName, "A1", cell(colName(len(performanceHeaders)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, h := range performanceHeaders {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(performanceHeaders)-1), 2), headerStyle)

	// 数据行
	row := 3
	for i := range recs {
		r := &recs[i]
		name := r.WorkerID
		if r.Worker != nil {
			name = r.Worker.Name
		}
		var total interface{} = "-"
		if score, err := s.repo.Score.GetByUser(ctx, r.WorkerID); err == nil {
			total = score.TotalPoints
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("查询累计积分失败", zap.String("worker_id", r.WorkerID), zap.Error(err))
		}
		values := []interface{}{
			name, r.JobsAssigned, r.JobsCompleted, r.JobsIncomplete, r.JobsNotStarted, r.JobsCarriedOver,
			r.EstimatedHours, r.ActualHours, ratingCell(r.AvgTimeRating), ratingCell(r.AvgQCRating), ratingCell(r.AvgCleaningRating),
			r.PointsEarned, r.PauseCount, r.PauseMinutes, r.CompletionRate, r.CurrentStreak, r.MaxStreak, total,
		}
		for c, v := range values {
			f.SetCellValue(sheetName, cell(colName(c), row), v)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("日绩效_%s.xlsx", date)
	return buf, filename, nil
}

// ── 辅助函数 ──

func ratingCell(v *float64) interface{} {
	if v == nil {
		return "-"
	}
	return *v
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
