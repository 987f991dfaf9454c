package repository

import (
	"context"

	"gorm.io/gorm"

	"studyflow/backend/internal/model"
	pkgerrors "studyflow/backend/pkg/errors"
)

// PlanRepository 学习计划数据访问接口
type PlanRepository interface {
	Create(ctx context.Context, plan *model.StudyPlan) error
	GetByID(ctx context.Context, id string) (*model.StudyPlan, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.StudyPlan, int64, error)
	Update(ctx context.Context, plan *model.StudyPlan) error
	Delete(ctx context.Context, id string) error
}

// planRepo PlanRepository 的 GORM 实现
type planRepo struct {
	db *gorm.DB
}

// NewPlanRepo 创建 PlanRepository 实例
func NewPlanRepo(db *gorm.DB) PlanRepository {
	return &planRepo{db: db}
}

func (r *planRepo) Create(ctx context.Context, plan *model.StudyPlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *planRepo) GetByID(ctx context.Context, id string) (*model.StudyPlan, error) {
	var plan model.StudyPlan
	err := r.db.WithContext(ctx).
		Where("plan_id = ?", id).
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.StudyPlan, int64, error) {
	var plans []model.StudyPlan
	var total int64

	db := r.db.WithContext(ctx).Model(&model.StudyPlan{}).
		Where("user_id = ?", userID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&plans).Error; err != nil {
		return nil, 0, err
	}

	return plans, total, nil
}

func (r *planRepo) Update(ctx context.Context, plan *model.StudyPlan) error {
	oldVersion := plan.Version
	result := r.db.WithContext(ctx).
		Model(plan).
		Where("plan_id = ? AND version = ?", plan.PlanID, oldVersion).
		Updates(map[string]interface{}{
			"name":           plan.Name,
			"description":    plan.Description,
			"hours_per_day":  plan.HoursPerDay,
			"available_days": plan.AvailableDays,
			"is_active":      plan.IsActive,
			"version":        oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	plan.Version = oldVersion + 1
	return nil
}

func (r *planRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("plan_id = ?", id).
		Delete(&model.StudyPlan{}).Error
}
