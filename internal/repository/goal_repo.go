package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"studyflow/backend/internal/model"
	pkgerrors "studyflow/backend/pkg/errors"
)

// GoalFilter 目标列表过滤条件
type GoalFilter struct {
	Status   *string
	GoalType *string
	DateFrom *time.Time
	DateTo   *time.Time
}

// ProgressAgg 计划进度聚合结果
type ProgressAgg struct {
	TotalGoals         int
	Pending            int
	InProgress         int
	Completed          int
	Omitted            int
	PlannedMinutes     int
	CompletedMinutes   int
	ActualStudySeconds int
}

// SubjectAgg 按科目聚合结果
type SubjectAgg struct {
	SubjectID      string
	SubjectName    string
	TotalGoals     int
	Completed      int
	PlannedMinutes int
	ActualSeconds  int
}

// GoalRepository 学习目标数据访问接口
type GoalRepository interface {
	Create(ctx context.Context, goal *model.Goal) error
	BatchCreate(ctx context.Context, goals []model.Goal) error
	GetByID(ctx context.Context, id string) (*model.Goal, error)
	ListByPlan(ctx context.Context, planID string, filter GoalFilter, offset, limit int) ([]model.Goal, int64, error)
	ListByPlanAndDateRange(ctx context.Context, planID string, from, to time.Time) ([]model.Goal, error)
	Update(ctx context.Context, goal *model.Goal) error

	// Delete 软删除单个目标，序号不回收（仅计划级联删除使用）
	Delete(ctx context.Context, id string) error

	// DeleteByPlan 软删除计划内全部目标（计划删除时级联调用）
	DeleteByPlan(ctx context.Context, planID string) error

	// SumDurationOnDate 统计某计划某天非放弃目标的计划时长合计（分钟）。
	// excludeGoalID 非空时排除该目标（改期时不把自己算进去）。
	SumDurationOnDate(ctx context.Context, planID string, date time.Time, excludeGoalID string) (int, error)

	// MaxSeqNo 返回计划内当前最大序号（含软删除记录，序号不复用），无目标时为 0
	MaxSeqNo(ctx context.Context, planID string) (int, error)

	// ExistsDuplicate 判断计划内是否已有同类型、同知识点、同日期的非放弃目标
	ExistsDuplicate(ctx context.Context, planID, goalType, disciplineID, subjectID string, topicID, subtopicID *string, date time.Time) (bool, error)

	AggregateProgress(ctx context.Context, planID string) (*ProgressAgg, error)
	AggregateBySubject(ctx context.Context, planID string) ([]SubjectAgg, error)
}

// goalRepo GoalRepository 的 GORM 实现
type goalRepo struct {
	db *gorm.DB
}

// NewGoalRepo 创建 GoalRepository 实例
func NewGoalRepo(db *gorm.DB) GoalRepository {
	return &goalRepo{db: db}
}

func (r *goalRepo) Create(ctx context.Context, goal *model.Goal) error {
	return r.db.WithContext(ctx).Create(goal).Error
}

func (r *goalRepo) BatchCreate(ctx context.Context, goals []model.Goal) error {
	if len(goals) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&goals).Error
}

func (r *goalRepo) GetByID(ctx context.Context, id string) (*model.Goal, error) {
	var goal model.Goal
	err := r.db.WithContext(ctx).
		Where("goal_id = ?", id).
		First(&goal).Error
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

func (r *goalRepo) ListByPlan(ctx context.Context, planID string, filter GoalFilter, offset, limit int) ([]model.Goal, int64, error) {
	var goals []model.Goal
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Goal{}).
		Where("plan_id = ?", planID)

	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.GoalType != nil {
		db = db.Where("goal_type = ?", *filter.GoalType)
	}
	if filter.DateFrom != nil {
		db = db.Where("scheduled_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		db = db.Where("scheduled_date <= ?", *filter.DateTo)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("scheduled_date ASC, seq_no ASC").
		Find(&goals).Error; err != nil {
		return nil, 0, err
	}

	return goals, total, nil
}

func (r *goalRepo) ListByPlanAndDateRange(ctx context.Context, planID string, from, to time.Time) ([]model.Goal, error) {
	var goals []model.Goal
	err := r.db.WithContext(ctx).
		Where("plan_id = ? AND scheduled_date >= ? AND scheduled_date <= ?", planID, from, to).
		Order("scheduled_date ASC, seq_no ASC").
		Find(&goals).Error
	return goals, err
}

func (r *goalRepo) Update(ctx context.Context, goal *model.Goal) error {
	oldVersion := goal.Version
	result := r.db.WithContext(ctx).
		Model(goal).
		Where("goal_id = ? AND version = ?", goal.GoalID, oldVersion).
		Updates(map[string]interface{}{
			"duration_minutes": goal.DurationMinutes,
			"scheduled_date":   goal.ScheduledDate,
			"status":           goal.Status,
			"guidance":         goal.Guidance,
			"is_fixed":         goal.IsFixed,
			"started_at":       goal.StartedAt,
			"completed_at":     goal.CompletedAt,
			"actual_seconds":   goal.ActualSeconds,
			"omit_reason":      goal.OmitReason,
			"omit_note":        goal.OmitNote,
			"version":          oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	goal.Version = oldVersion + 1
	return nil
}

func (r *goalRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("goal_id = ?", id).
		Delete(&model.Goal{}).Error
}

func (r *goalRepo) DeleteByPlan(ctx context.Context, planID string) error {
	return r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Delete(&model.Goal{}).Error
}

func (r *goalRepo) SumDurationOnDate(ctx context.Context, planID string, date time.Time, excludeGoalID string) (int, error) {
	var sum int64
	db := r.db.WithContext(ctx).Model(&model.Goal{}).
		Where("plan_id = ? AND scheduled_date = ? AND status != ?", planID, date, model.GoalStatusOmitted)
	if excludeGoalID != "" {
		db = db.Where("goal_id != ?", excludeGoalID)
	}
	err := db.Select("COALESCE(SUM(duration_minutes), 0)").Scan(&sum).Error
	return int(sum), err
}

func (r *goalRepo) MaxSeqNo(ctx context.Context, planID string) (int, error) {
	var max int64
	err := r.db.WithContext(ctx).Model(&model.Goal{}).
		Unscoped().
		Where("plan_id = ?", planID).
		Select("COALESCE(MAX(seq_no), 0)").
		Scan(&max).Error
	return int(max), err
}

func (r *goalRepo) ExistsDuplicate(ctx context.Context, planID, goalType, disciplineID, subjectID string, topicID, subtopicID *string, date time.Time) (bool, error) {
	db := r.db.WithContext(ctx).Model(&model.Goal{}).
		Where("plan_id = ? AND goal_type = ? AND discipline_id = ? AND subject_id = ? AND scheduled_date = ? AND status != ?",
			planID, goalType, disciplineID, subjectID, date, model.GoalStatusOmitted)

	if topicID != nil {
		db = db.Where("topic_id = ?", *topicID)
	} else {
		db = db.Where("topic_id IS NULL")
	}
	if subtopicID != nil {
		db = db.Where("subtopic_id = ?", *subtopicID)
	} else {
		db = db.Where("subtopic_id IS NULL")
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *goalRepo) AggregateProgress(ctx context.Context, planID string) (*ProgressAgg, error) {
	var agg ProgressAgg
	err := r.db.WithContext(ctx).Model(&model.Goal{}).
		Where("plan_id = ?", planID).
		Select(`COUNT(*) AS total_goals,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending,
			COUNT(*) FILTER (WHERE status = 'in_progress') AS in_progress,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed,
			COUNT(*) FILTER (WHERE status = 'omitted') AS omitted,
			COALESCE(SUM(duration_minutes) FILTER (WHERE status != 'omitted'), 0) AS planned_minutes,
			COALESCE(SUM(duration_minutes) FILTER (WHERE status = 'completed'), 0) AS completed_minutes,
			COALESCE(SUM(actual_seconds), 0) AS actual_study_seconds`).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

func (r *goalRepo) AggregateBySubject(ctx context.Context, planID string) ([]SubjectAgg, error) {
	var aggs []SubjectAgg
	err := r.db.WithContext(ctx).Model(&model.Goal{}).
		Select(`goals.subject_id AS subject_id,
			subjects.name AS subject_name,
			COUNT(*) AS total_goals,
			COUNT(*) FILTER (WHERE goals.status = 'completed') AS completed,
			COALESCE(SUM(goals.duration_minutes) FILTER (WHERE goals.status != 'omitted'), 0) AS planned_minutes,
			COALESCE(SUM(goals.actual_seconds), 0) AS actual_seconds`).
		Joins("JOIN subjects ON subjects.subject_id = goals.subject_id").
		Where("goals.plan_id = ? AND goals.deleted_at IS NULL", planID).
		Group("goals.subject_id, subjects.name").
		Order("subjects.name ASC").
		Find(&aggs).Error
	return aggs, err
}
