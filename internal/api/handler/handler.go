package handler

import "studyflow/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth     *AuthHandler
	Plan     *PlanHandler
	Goal     *GoalHandler
	Rule     *RuleHandler
	Taxonomy *TaxonomyHandler
	Import   *ImportHandler
	Export   *ExportHandler
	Stats    *StatsHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(svc.Auth),
		Plan:     NewPlanHandler(svc.Plan),
		Goal:     NewGoalHandler(svc.Goal),
		Rule:     NewRuleHandler(svc.Rule),
		Taxonomy: NewTaxonomyHandler(svc.Taxonomy),
		Import:   NewImportHandler(svc.Import),
		Export:   NewExportHandler(svc.Export),
		Stats:    NewStatsHandler(svc.Stats),
	}
}
