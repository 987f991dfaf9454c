package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"studyflow/backend/internal/dto"
	"studyflow/backend/internal/model"
)

func setupTestStatsService() (StatsService, *mockGoalRepo) {
	repo, _, planRepo, goalRepo, _, _ := newTestRepo()

	planRepo.plans["plan-1"] = &model.StudyPlan{
		PlanID:        "plan-1",
		UserID:        "user-1",
		Name:          "检察官考试备考",
		HoursPerDay:   2,
		AvailableDays: 62,
		IsActive:      true,
	}

	svc := NewStatsService(repo, zap.NewNop())
	return svc, goalRepo
}

// ────────────────────── PlanProgress ──────────────────────

func TestStatsService_PlanProgress_OmittedExcludedFromRate(t *testing.T) {
	svc, goalRepo := setupTestStatsService()

	// 5 个目标：2 完成、1 进行中、1 待办、1 放弃 → 完成率 = 2/4
	seedGoal(goalRepo, "g1", 1, model.GoalTypeStudy, model.GoalStatusCompleted, monday, 60)
	seedGoal(goalRepo, "g2", 2, model.GoalTypeStudy, model.GoalStatusCompleted, monday, 30)
	seedGoal(goalRepo, "g3", 3, model.GoalTypeStudy, model.GoalStatusInProgress, monday, 45)
	seedGoal(goalRepo, "g4", 4, model.GoalTypeReview, model.GoalStatusPending, monday, 20)
	seedGoal(goalRepo, "g5", 5, model.GoalTypeStudy, model.GoalStatusOmitted, monday, 90)

	result, err := svc.PlanProgress(context.Background(), "user-1", "plan-1")
	if err != nil {
		t.Fatalf("PlanProgress 应成功: %v", err)
	}
	if result.TotalGoals != 5 {
		t.Errorf("期望total_goals=5，实际=%d", result.TotalGoals)
	}
	if result.Completed != 2 || result.Omitted != 1 {
		t.Errorf("期望completed=2 omitted=1，实际=%d/%d", result.Completed, result.Omitted)
	}
	if result.CompletionRate != 0.5 {
		t.Errorf("期望completion_rate=0.5，实际=%v", result.CompletionRate)
	}
	// 计划时长不含放弃目标
	if result.PlannedMinutes != 155 {
		t.Errorf("期望planned_minutes=155，实际=%d", result.PlannedMinutes)
	}
	if result.CompletedMinutes != 90 {
		t.Errorf("期望completed_minutes=90，实际=%d", result.CompletedMinutes)
	}
}

func TestStatsService_PlanProgress_EmptyPlan(t *testing.T) {
	svc, _ := setupTestStatsService()

	result, err := svc.PlanProgress(context.Background(), "user-1", "plan-1")
	if err != nil {
		t.Fatalf("PlanProgress 应成功: %v", err)
	}
	if result.TotalGoals != 0 || result.CompletionRate != 0 {
		t.Errorf("空计划期望全零，实际=%+v", result)
	}
}

// ────────────────────── DailyLoad ──────────────────────

func TestStatsService_DailyLoad_WeekOverview(t *testing.T) {
	svc, goalRepo := setupTestStatsService()

	seedGoal(goalRepo, "g1", 1, model.GoalTypeStudy, model.GoalStatusPending, monday, 90)
	seedGoal(goalRepo, "g2", 2, model.GoalTypeStudy, model.GoalStatusPending, monday, 60)
	seedGoal(goalRepo, "g3", 3, model.GoalTypeStudy, model.GoalStatusOmitted, date(2026, 3, 3), 120)

	result, err := svc.DailyLoad(context.Background(), "user-1", "plan-1", &dto.DailyLoadRequest{
		DateFrom: "2026-03-02",
		DateTo:   "2026-03-08",
	})
	if err != nil {
		t.Fatalf("DailyLoad 应成功: %v", err)
	}
	if len(result.Days) != 7 {
		t.Fatalf("期望7天，实际=%d", len(result.Days))
	}

	mon := result.Days[0]
	if mon.ScheduledMinutes != 150 || mon.GoalCount != 2 {
		t.Errorf("周一期望150分钟/2个目标，实际=%d/%d", mon.ScheduledMinutes, mon.GoalCount)
	}
	if !mon.OverCapacity {
		t.Error("150>120，期望over_capacity=true")
	}
	if mon.UtilizationRate != 1.25 {
		t.Errorf("期望utilization_rate=1.25，实际=%v", mon.UtilizationRate)
	}

	// 周二只有放弃目标，不占负载
	tue := result.Days[1]
	if tue.ScheduledMinutes != 0 || tue.GoalCount != 0 {
		t.Errorf("放弃目标不应计入负载，实际=%d/%d", tue.ScheduledMinutes, tue.GoalCount)
	}

	// 周日不在可用掩码内
	sun := result.Days[6]
	if sun.Available {
		t.Error("周日期望available=false")
	}
	if !result.Days[0].Available {
		t.Error("周一期望available=true")
	}
}

func TestStatsService_DailyLoad_InvalidRange(t *testing.T) {
	svc, _ := setupTestStatsService()
	ctx := context.Background()

	cases := []dto.DailyLoadRequest{
		{DateFrom: "2026-03-08", DateTo: "2026-03-02"}, // 起止颠倒
		{DateFrom: "bad-date", DateTo: "2026-03-08"},
		{DateFrom: "2026-01-01", DateTo: "2027-06-01"}, // 超出最大区间
	}
	for i, req := range cases {
		if _, err := svc.DailyLoad(ctx, "user-1", "plan-1", &req); !errors.Is(err, ErrStatsRangeInvalid) {
			t.Errorf("用例 %d 期望 ErrStatsRangeInvalid，实际: %v", i, err)
		}
	}
}

// ────────────────────── SubjectBreakdown ──────────────────────

func TestStatsService_SubjectBreakdown(t *testing.T) {
	svc, goalRepo := setupTestStatsService()

	seedGoal(goalRepo, "g1", 1, model.GoalTypeStudy, model.GoalStatusCompleted, monday, 60)
	seedGoal(goalRepo, "g2", 2, model.GoalTypeStudy, model.GoalStatusPending, monday, 30)
	g3 := seedGoal(goalRepo, "g3", 3, model.GoalTypeStudy, model.GoalStatusCompleted, monday, 45)
	g3.SubjectID = "subj-2"

	result, err := svc.SubjectBreakdown(context.Background(), "user-1", "plan-1")
	if err != nil {
		t.Fatalf("SubjectBreakdown 应成功: %v", err)
	}
	if len(result.Subjects) != 2 {
		t.Fatalf("期望2个科目，实际=%d", len(result.Subjects))
	}

	byID := make(map[string]dto.SubjectBreakdownItem)
	for _, s := range result.Subjects {
		byID[s.SubjectID] = s
	}
	s1 := byID["subj-1"]
	if s1.TotalGoals != 2 || s1.Completed != 1 {
		t.Errorf("subj-1 期望2个目标1个完成，实际=%d/%d", s1.TotalGoals, s1.Completed)
	}
	if s1.CompletionRate != 0.5 {
		t.Errorf("subj-1 期望completion_rate=0.5，实际=%v", s1.CompletionRate)
	}
	s2 := byID["subj-2"]
	if s2.TotalGoals != 1 || s2.CompletionRate != 1.0 {
		t.Errorf("subj-2 期望1个目标全完成，实际=%+v", s2)
	}
}

func TestStatsService_PlanProgress_ForbiddenOtherUser(t *testing.T) {
	svc, _ := setupTestStatsService()

	_, err := svc.PlanProgress(context.Background(), "user-2", "plan-1")
	if !errors.Is(err, ErrPlanForbidden) {
		t.Errorf("期望 ErrPlanForbidden，实际: %v", err)
	}
}
