package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"studyflow/backend/internal/model"
)

func setupTestExportService() (ExportService, *mockGoalRepo) {
	repo, _, planRepo, goalRepo, taxRepo, _ := newTestRepo()

	planRepo.plans["plan-1"] = &model.StudyPlan{
		PlanID:        "plan-1",
		UserID:        "user-1",
		Name:          "检察官考试备考",
		HoursPerDay:   2,
		AvailableDays: 62,
		IsActive:      true,
	}
	taxRepo.addPath("disc-1", "subj-1")

	svc := NewExportService(testStudyConfig(), repo, zap.NewNop())
	return svc, goalRepo
}

var exportRange = struct{ from, to time.Time }{
	from: date(2026, 3, 1),
	to:   date(2026, 3, 31),
}

func TestExportService_ExportPlanXLSX_Success(t *testing.T) {
	svc, goalRepo := setupTestExportService()
	seedGoal(goalRepo, "goal-1", 1, model.GoalTypeStudy, model.GoalStatusPending, monday, 60)
	seedGoal(goalRepo, "goal-2", 2, model.GoalTypeReview, model.GoalStatusCompleted, date(2026, 3, 3), 30)

	buf, filename, err := svc.ExportPlanXLSX(context.Background(), "user-1", "plan-1", exportRange.from, exportRange.to)
	if err != nil {
		t.Fatalf("ExportPlanXLSX 应成功: %v", err)
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("期望.xlsx文件名，实际=%s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("导出内容应为合法 Excel: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("学习计划")
	if err != nil {
		t.Fatalf("读取导出 Sheet 失败: %v", err)
	}
	// 标题行 + 表头 + 2 条数据
	if len(rows) != 4 {
		t.Fatalf("期望4行，实际=%d", len(rows))
	}
	if rows[2][0] != "#001" {
		t.Errorf("期望首条序号=#001，实际=%s", rows[2][0])
	}
	if rows[2][3] != "学习" {
		t.Errorf("期望类型=学习，实际=%s", rows[2][3])
	}
	if rows[3][6] != "已完成" {
		t.Errorf("期望状态=已完成，实际=%s", rows[3][6])
	}
}

func TestExportService_ExportPlanICS_Success(t *testing.T) {
	svc, goalRepo := setupTestExportService()
	seedGoal(goalRepo, "goal-1", 1, model.GoalTypeStudy, model.GoalStatusPending, monday, 60)

	buf, filename, err := svc.ExportPlanICS(context.Background(), "user-1", "plan-1", exportRange.from, exportRange.to)
	if err != nil {
		t.Fatalf("ExportPlanICS 应成功: %v", err)
	}
	if !strings.HasSuffix(filename, ".ics") {
		t.Errorf("期望.ics文件名，实际=%s", filename)
	}

	content := buf.String()
	if !strings.Contains(content, "BEGIN:VCALENDAR") {
		t.Error("导出内容应为 iCalendar 格式")
	}
	if !strings.Contains(content, "goal-goal-1@studyflow") {
		t.Error("期望事件UID包含目标ID")
	}
	if !strings.Contains(content, "#001") {
		t.Error("事件摘要应包含目标序号")
	}
}

func TestExportService_ExportPlanICS_SkipsOmitted(t *testing.T) {
	svc, goalRepo := setupTestExportService()
	seedGoal(goalRepo, "goal-1", 1, model.GoalTypeStudy, model.GoalStatusPending, monday, 60)
	seedGoal(goalRepo, "goal-2", 2, model.GoalTypeStudy, model.GoalStatusOmitted, monday, 30)

	buf, _, err := svc.ExportPlanICS(context.Background(), "user-1", "plan-1", exportRange.from, exportRange.to)
	if err != nil {
		t.Fatalf("ExportPlanICS 应成功: %v", err)
	}
	content := buf.String()
	if !strings.Contains(content, "goal-goal-1@studyflow") {
		t.Error("正常目标应被导出")
	}
	if strings.Contains(content, "goal-goal-2@studyflow") {
		t.Error("放弃目标不应被导出")
	}
}

func TestExportService_Export_NoGoals(t *testing.T) {
	svc, _ := setupTestExportService()

	_, _, err := svc.ExportPlanXLSX(context.Background(), "user-1", "plan-1", exportRange.from, exportRange.to)
	if !errors.Is(err, ErrExportNoGoals) {
		t.Errorf("期望 ErrExportNoGoals，实际: %v", err)
	}
}
