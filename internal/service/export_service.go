package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"studyflow/backend/config"
	"studyflow/backend/internal/model"
	"studyflow/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoGoals      = errors.New("该计划在所选区间内没有目标")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - Excel 导出面向打印/离线核对，按日期排序平铺所有目标
//   - ICS 导出面向日历订阅，每个目标一个全天事件
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	ExportPlanXLSX(ctx context.Context, userID, planID string, from, to time.Time) (*bytes.Buffer, string, error)
	ExportPlanICS(ctx context.Context, userID, planID string, from, to time.Time) (*bytes.Buffer, string, error)
}

type exportService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{cfg: cfg, repo: repo, logger: logger}
}

var (
	goalTypeNames = map[string]string{
		model.GoalTypeStudy:             "学习",
		model.GoalTypePracticeQuestions: "刷题",
		model.GoalTypeReview:            "复习",
	}
	goalStatusNames = map[string]string{
		model.GoalStatusPending:    "待办",
		model.GoalStatusInProgress: "进行中",
		model.GoalStatusCompleted:  "已完成",
		model.GoalStatusOmitted:    "已放弃",
	}
	weekdayNames = [7]string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}
)

// ═══════════════════════════════════════════════════════════
// ExportPlanXLSX — 导出计划目标为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单 Sheet，按日期 + 序号排序
//   - 列: 序号 | 日期 | 星期 | 类型 | 科目 | 时长(分钟) | 状态 | 指引

func (s *exportService) ExportPlanXLSX(ctx context.Context, userID, planID string, from, to time.Time) (*bytes.Buffer, string, error) {
	plan, goals, subjectNames, err := s.loadExportData(ctx, userID, planID, from, to)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "学习计划"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	// 设置列宽
	widths := map[string]float64{"A": 8, "B": 12, "C": 8, "D": 8, "E": 22, "F": 12, "G": 10, "H": 40}
	for col, w := range widths {
		f.SetColWidth(sheetName, col, col, w)
	}

	// 样式
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — 学习目标", plan.Name))
	f.MergeCell(sheetName, "A1", "H1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	headers := []string{"序号", "日期", "星期", "类型", "科目", "时长(分钟)", "状态", "指引"}
	for i, h := range headers {
		cellName, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheetName, cellName, h)
	}

	// 数据行
	for i := range goals {
		g := &goals[i]
		row := i + 3

		guidance := ""
		if g.Guidance != nil {
			guidance = *g.Guidance
		}
		values := []interface{}{
			g.SeqLabel(),
			g.ScheduledDate.Format("2006-01-02"),
			weekdayNames[int(g.ScheduledDate.Weekday())],
			goalTypeNames[g.GoalType],
			subjectNames[g.SubjectID],
			g.DurationMinutes,
			goalStatusNames[g.Status],
			guidance,
		}
		for j, v := range values {
			cellName, _ := excelize.CoordinatesToCellName(j+1, row)
			f.SetCellValue(sheetName, cellName, v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("学习计划_%s.xlsx", plan.Name)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportPlanICS — 导出计划目标为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 每个目标一个全天事件（RFC 5545 VALUE=DATE），
// 已放弃的目标不导出。

func (s *exportService) ExportPlanICS(ctx context.Context, userID, planID string, from, to time.Time) (*bytes.Buffer, string, error) {
	plan, goals, subjectNames, err := s.loadExportData(ctx, userID, planID, from, to)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//studyflow//plan-export//CN")
	cal.SetName(plan.Name)

	now := time.Now()
	for i := range goals {
		g := &goals[i]
		if g.Status == model.GoalStatusOmitted {
			continue
		}

		evt := cal.AddEvent(fmt.Sprintf("goal-%s@studyflow", g.GoalID))
		evt.SetDtStampTime(now)
		evt.SetAllDayStartAt(g.ScheduledDate)
		evt.SetAllDayEndAt(g.ScheduledDate.AddDate(0, 0, 1))
		evt.SetSummary(fmt.Sprintf("%s %s · %s（%d 分钟）",
			g.SeqLabel(), goalTypeNames[g.GoalType], subjectNames[g.SubjectID], g.DurationMinutes))
		if g.Guidance != nil {
			evt.SetDescription(*g.Guidance)
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("学习计划_%s.ics", plan.Name)
	return buf, filename, nil
}

// ── 内部辅助方法 ──

func (s *exportService) loadExportData(ctx context.Context, userID, planID string, from, to time.Time) (*model.StudyPlan, []model.Goal, map[string]string, error) {
	plan, err := loadOwnedPlan(ctx, s.repo, s.logger, userID, planID)
	if err != nil {
		return nil, nil, nil, err
	}

	goals, err := s.repo.Goal.ListByPlanAndDateRange(ctx, planID, from, to)
	if err != nil {
		s.logger.Error("查询目标列表失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, nil, nil, err
	}
	if len(goals) == 0 {
		return nil, nil, nil, ErrExportNoGoals
	}

	idSet := make(map[string]bool)
	var subjectIDs []string
	for i := range goals {
		if !idSet[goals[i].SubjectID] {
			idSet[goals[i].SubjectID] = true
			subjectIDs = append(subjectIDs, goals[i].SubjectID)
		}
	}
	subjectNames, err := s.repo.Taxonomy.SubjectNames(ctx, subjectIDs)
	if err != nil {
		s.logger.Error("查询科目名称失败", zap.Error(err))
		return nil, nil, nil, err
	}

	return plan, goals, subjectNames, nil
}
