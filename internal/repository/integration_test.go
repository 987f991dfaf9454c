//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	pkgerrors "studyflow/backend/pkg/errors"

	"studyflow/backend/internal/model"
	"studyflow/backend/internal/repository"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=studyflow password=studyflow_password dbname=studyflow_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 自动迁移测试表结构（唯一约束 uq_goals_plan_seq 依赖 init 迁移脚本）
	err = testDB.AutoMigrate(
		&model.User{},
		&model.Discipline{},
		&model.Subject{},
		&model.Topic{},
		&model.Subtopic{},
		&model.StudyPlan{},
		&model.Goal{},
		&model.SchedulingRule{},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate 失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

// setupTestData 创建基础测试数据并返回清理函数
func setupTestData(t *testing.T) (user *model.User, plan *model.StudyPlan, discipline *model.Discipline, subject *model.Subject, cleanup func()) {
	t.Helper()
	ctx := context.Background()

	user = &model.User{
		Name:         "测试学员",
		Email:        fmt.Sprintf("test%d@example.com", time.Now().UnixNano()),
		PasswordHash: "$2a$10$placeholder",
		Role:         "student",
	}
	if err := testDB.WithContext(ctx).Create(user).Error; err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}

	discipline = &model.Discipline{
		Name: fmt.Sprintf("测试学科-%d", time.Now().UnixNano()),
	}
	if err := testDB.WithContext(ctx).Create(discipline).Error; err != nil {
		t.Fatalf("创建学科失败: %v", err)
	}

	subject = &model.Subject{
		DisciplineID: discipline.DisciplineID,
		Name:         "测试科目",
	}
	if err := testDB.WithContext(ctx).Create(subject).Error; err != nil {
		t.Fatalf("创建科目失败: %v", err)
	}

	plan = &model.StudyPlan{
		UserID:        user.UserID,
		Name:          fmt.Sprintf("测试计划-%d", time.Now().UnixNano()),
		HoursPerDay:   2,
		AvailableDays: 62, // 周一至周五
		IsActive:      true,
	}
	if err := testDB.WithContext(ctx).Create(plan).Error; err != nil {
		t.Fatalf("创建计划失败: %v", err)
	}

	cleanup = func() {
		testDB.Unscoped().Where("plan_id = ?", plan.PlanID).Delete(&model.Goal{})
		testDB.Unscoped().Where("plan_id = ?", plan.PlanID).Delete(&model.StudyPlan{})
		testDB.Unscoped().Where("subject_id = ?", subject.SubjectID).Delete(&model.Subject{})
		testDB.Unscoped().Where("discipline_id = ?", discipline.DisciplineID).Delete(&model.Discipline{})
		testDB.Unscoped().Where("user_id = ?", user.UserID).Delete(&model.User{})
	}
	return
}

func newGoal(plan *model.StudyPlan, discipline *model.Discipline, subject *model.Subject, seqNo int, date time.Time) *model.Goal {
	return &model.Goal{
		PlanID:          plan.PlanID,
		SeqNo:           seqNo,
		GoalType:        model.GoalTypeStudy,
		DisciplineID:    discipline.DisciplineID,
		SubjectID:       subject.SubjectID,
		DurationMinutes: 60,
		ScheduledDate:   date,
		Status:          model.GoalStatusPending,
	}
}

var testDate = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // 周一

// ═══════════════════════════════════════════════════════════
// Test: Transaction
// ═══════════════════════════════════════════════════════════

func TestTransaction_Rollback(t *testing.T) {
	_, plan, discipline, subject, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	goal := newGoal(plan, discipline, subject, 1, testDate)
	sentinel := errors.New("触发回滚")

	err := repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Goal.Create(ctx, goal); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("期望事务返回哨兵错误，得到: %v", err)
	}

	// 验证数据未持久化
	_, err = repo.Goal.GetByID(ctx, goal.GoalID)
	if err == nil {
		t.Fatal("期望回滚后查不到 Goal，但实际查到了")
	}
}

func TestTransaction_Commit(t *testing.T) {
	_, plan, discipline, subject, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	goal := newGoal(plan, discipline, subject, 1, testDate)

	err := repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		return txRepo.Goal.Create(ctx, goal)
	})
	if err != nil {
		t.Fatalf("事务提交失败: %v", err)
	}

	found, err := repo.Goal.GetByID(ctx, goal.GoalID)
	if err != nil {
		t.Fatalf("提交后查询 Goal 失败: %v", err)
	}
	if found.SeqNo != 1 {
		t.Errorf("期望 seq_no=1，得到: %d", found.SeqNo)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Optimistic Lock
// ═══════════════════════════════════════════════════════════

func TestOptimisticLock_Goal_ConflictDetected(t *testing.T) {
	_, plan, discipline, subject, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	goal := newGoal(plan, discipline, subject, 1, testDate)
	if err := repo.Goal.Create(ctx, goal); err != nil {
		t.Fatalf("创建 Goal 失败: %v", err)
	}

	// 模拟并发：获取两份副本
	copy1, _ := repo.Goal.GetByID(ctx, goal.GoalID)
	copy2, _ := repo.Goal.GetByID(ctx, goal.GoalID)

	// 第一次更新成功
	now := time.Now()
	copy1.Status = model.GoalStatusInProgress
	copy1.StartedAt = &now
	if err := repo.Goal.Update(ctx, copy1); err != nil {
		t.Fatalf("第一次更新应成功: %v", err)
	}

	// 第二次更新应失败（version 已过期）
	copy2.DurationMinutes = 90
	err := repo.Goal.Update(ctx, copy2)
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，得到: %v", err)
	}
}

func TestOptimisticLock_Plan_VersionIncrement(t *testing.T) {
	_, plan, _, _, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	if plan.Version != 1 {
		t.Errorf("初始 version 应为 1，得到: %d", plan.Version)
	}

	// 连续更新 3 次
	for i := 0; i < 3; i++ {
		got, _ := repo.Plan.GetByID(ctx, plan.PlanID)
		got.HoursPerDay = float64(i + 1)
		if err := repo.Plan.Update(ctx, got); err != nil {
			t.Fatalf("第 %d 次更新失败: %v", i+1, err)
		}
	}

	final, _ := repo.Plan.GetByID(ctx, plan.PlanID)
	if final.Version != 4 {
		t.Errorf("期望 version=4，得到: %d", final.Version)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Unique Constraint (plan_id, seq_no)
// ═══════════════════════════════════════════════════════════

func TestGoal_SeqNoUniquePerPlan(t *testing.T) {
	_, plan, discipline, subject, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	goal1 := newGoal(plan, discipline, subject, 1, testDate)
	if err := repo.Goal.Create(ctx, goal1); err != nil {
		t.Fatalf("创建第一个 Goal 失败: %v", err)
	}

	// 同计划同序号——应违反唯一约束并被翻译为 ErrDuplicatedKey
	goal2 := newGoal(plan, discipline, subject, 1, testDate.AddDate(0, 0, 1))
	err := repo.Goal.Create(ctx, goal2)
	if err == nil {
		t.Fatal("期望唯一约束违反，但创建成功了。确保已运行 init 迁移中的 uq_goals_plan_seq 约束")
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("期望 gorm.ErrDuplicatedKey，得到: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: MaxSeqNo / SumDurationOnDate
// ═══════════════════════════════════════════════════════════

func TestGoal_MaxSeqNo_CountsSoftDeleted(t *testing.T) {
	_, plan, discipline, subject, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	max, err := repo.Goal.MaxSeqNo(ctx, plan.PlanID)
	if err != nil {
		t.Fatalf("MaxSeqNo 失败: %v", err)
	}
	if max != 0 {
		t.Errorf("空计划期望 max=0，得到: %d", max)
	}

	for i := 1; i <= 3; i++ {
		g := newGoal(plan, discipline, subject, i, testDate)
		if err := repo.Goal.Create(ctx, g); err != nil {
			t.Fatalf("创建 Goal #%d 失败: %v", i, err)
		}
		if i == 3 {
			// 软删除最大序号的目标：序号不回收
			if err := repo.Goal.Delete(ctx, g.GoalID); err != nil {
				t.Fatalf("软删除失败: %v", err)
			}
		}
	}

	max, err = repo.Goal.MaxSeqNo(ctx, plan.PlanID)
	if err != nil {
		t.Fatalf("MaxSeqNo 失败: %v", err)
	}
	if max != 3 {
		t.Errorf("软删除后序号不应回收，期望 max=3，得到: %d", max)
	}
}

func TestGoal_SumDurationOnDate_ExcludesOmitted(t *testing.T) {
	_, plan, discipline, subject, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	g1 := newGoal(plan, discipline, subject, 1, testDate)
	g2 := newGoal(plan, discipline, subject, 2, testDate)
	g3 := newGoal(plan, discipline, subject, 3, testDate)
	reason := "内容已掌握"
	g3.Status = model.GoalStatusOmitted
	g3.OmitReason = &reason
	for _, g := range []*model.Goal{g1, g2, g3} {
		if err := repo.Goal.Create(ctx, g); err != nil {
			t.Fatalf("创建 Goal 失败: %v", err)
		}
	}

	sum, err := repo.Goal.SumDurationOnDate(ctx, plan.PlanID, testDate, "")
	if err != nil {
		t.Fatalf("SumDurationOnDate 失败: %v", err)
	}
	if sum != 120 {
		t.Errorf("放弃目标不应计入负载，期望 120，得到: %d", sum)
	}

	// 排除指定目标（改期场景不计入自身）
	sum, err = repo.Goal.SumDurationOnDate(ctx, plan.PlanID, testDate, g1.GoalID)
	if err != nil {
		t.Fatalf("SumDurationOnDate 失败: %v", err)
	}
	if sum != 60 {
		t.Errorf("期望排除后为 60，得到: %d", sum)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Batch / Duplicate
// ═══════════════════════════════════════════════════════════

func TestGoal_BatchCreate(t *testing.T) {
	_, plan, discipline, subject, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	goals := make([]model.Goal, 10)
	for i := range goals {
		goals[i] = *newGoal(plan, discipline, subject, i+1, testDate.AddDate(0, 0, i%5))
	}
	if err := repo.Goal.BatchCreate(ctx, goals); err != nil {
		t.Fatalf("BatchCreate 失败: %v", err)
	}

	list, total, err := repo.Goal.ListByPlan(ctx, plan.PlanID, repository.GoalFilter{}, 0, 100)
	if err != nil {
		t.Fatalf("ListByPlan 失败: %v", err)
	}
	if total != 10 || len(list) != 10 {
		t.Errorf("期望 10 条目标，得到 total=%d len=%d", total, len(list))
	}
}

func TestGoal_ExistsDuplicate(t *testing.T) {
	_, plan, discipline, subject, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	g := newGoal(plan, discipline, subject, 1, testDate)
	if err := repo.Goal.Create(ctx, g); err != nil {
		t.Fatalf("创建 Goal 失败: %v", err)
	}

	dup, err := repo.Goal.ExistsDuplicate(ctx, plan.PlanID, model.GoalTypeStudy,
		discipline.DisciplineID, subject.SubjectID, nil, nil, testDate)
	if err != nil {
		t.Fatalf("ExistsDuplicate 失败: %v", err)
	}
	if !dup {
		t.Error("期望检测到重复目标")
	}

	// 不同日期不算重复
	dup, err = repo.Goal.ExistsDuplicate(ctx, plan.PlanID, model.GoalTypeStudy,
		discipline.DisciplineID, subject.SubjectID, nil, nil, testDate.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ExistsDuplicate 失败: %v", err)
	}
	if dup {
		t.Error("不同日期不应判定为重复")
	}
}
