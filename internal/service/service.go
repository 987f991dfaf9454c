package service

import (
	"go.uber.org/zap"

	"studyflow/backend/config"
	"studyflow/backend/internal/repository"
	"studyflow/backend/pkg/jwt"
	"studyflow/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth     AuthService
	Plan     PlanService
	Goal     GoalService
	Rule     RuleService
	Taxonomy TaxonomyService
	Import   ImportService
	Export   ExportService
	Stats    StatsService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	redisClient *redis.Client,
	logger *zap.Logger,
) *Service {
	planSvc := NewPlanService(repo, logger)
	goalSvc := NewGoalService(cfg, repo, logger)

	return &Service{
		Auth:     NewAuthService(cfg, repo, jwtMgr, redisClient, logger),
		Plan:     planSvc,
		Goal:     goalSvc,
		Rule:     NewRuleService(repo, logger),
		Taxonomy: NewTaxonomyService(repo, logger),
		Import:   NewImportService(cfg, repo, logger),
		Export:   NewExportService(cfg, repo, logger),
		Stats:    NewStatsService(repo, logger),
	}
}
