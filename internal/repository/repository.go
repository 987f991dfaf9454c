package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User     UserRepository
	Plan     PlanRepository
	Goal     GoalRepository
	Taxonomy TaxonomyRepository
	Rule     RuleRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:       db,
		User:     NewUserRepo(db),
		Plan:     NewPlanRepo(db),
		Goal:     NewGoalRepo(db),
		Taxonomy: NewTaxonomyRepo(db),
		Rule:     NewRuleRepo(db),
	}
}

// Transaction 在单个数据库事务中执行 fn。
// fn 收到的聚合绑定在事务连接上，fn 返回错误则整体回滚。
// 无底层连接的聚合（内存实现）退化为直接执行。
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
