package repository

import (
	"context"

	"gorm.io/gorm"

	"studyflow/backend/internal/model"
)

// RuleRepository 排期规则数据访问接口
type RuleRepository interface {
	List(ctx context.Context) ([]model.SchedulingRule, error)
	GetByCode(ctx context.Context, code string) (*model.SchedulingRule, error)
	Update(ctx context.Context, rule *model.SchedulingRule) error
}

// ruleRepo RuleRepository 的 GORM 实现
type ruleRepo struct {
	db *gorm.DB
}

// NewRuleRepo 创建 RuleRepository 实例
func NewRuleRepo(db *gorm.DB) RuleRepository {
	return &ruleRepo{db: db}
}

func (r *ruleRepo) List(ctx context.Context) ([]model.SchedulingRule, error) {
	var rules []model.SchedulingRule
	err := r.db.WithContext(ctx).
		Order("rule_code ASC").
		Find(&rules).Error
	return rules, err
}

func (r *ruleRepo) GetByCode(ctx context.Context, code string) (*model.SchedulingRule, error) {
	var rule model.SchedulingRule
	err := r.db.WithContext(ctx).
		Where("rule_code = ?", code).
		First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *ruleRepo) Update(ctx context.Context, rule *model.SchedulingRule) error {
	return r.db.WithContext(ctx).
		Model(rule).
		Where("rule_id = ?", rule.RuleID).
		Updates(map[string]interface{}{
			"is_enabled": rule.IsEnabled,
		}).Error
}
