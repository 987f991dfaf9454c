package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"studyflow/backend/internal/dto"
	"studyflow/backend/internal/model"
	"studyflow/backend/internal/repository"
)

// ── 排期规则模块业务错误 ──

var (
	ErrRuleNotFound        = errors.New("排期规则不存在")
	ErrRuleNotConfigurable = errors.New("该规则不可配置")
)

// RuleService 排期规则业务接口
type RuleService interface {
	List(ctx context.Context) ([]dto.RuleResponse, error)
	GetByCode(ctx context.Context, code string) (*dto.RuleResponse, error)
	Update(ctx context.Context, code string, req *dto.UpdateRuleRequest, callerID string) (*dto.RuleResponse, error)
}

type ruleService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRuleService 创建 RuleService 实例
func NewRuleService(repo *repository.Repository, logger *zap.Logger) RuleService {
	return &ruleService{repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *ruleService) List(ctx context.Context) ([]dto.RuleResponse, error) {
	rules, err := s.repo.Rule.List(ctx)
	if err != nil {
		s.logger.Error("列出排期规则失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.RuleResponse, 0, len(rules))
	for i := range rules {
		result = append(result, *toRuleResponse(&rules[i]))
	}
	return result, nil
}

// ────────────────────── GetByCode ──────────────────────

func (s *ruleService) GetByCode(ctx context.Context, code string) (*dto.RuleResponse, error) {
	rule, err := s.repo.Rule.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRuleNotFound
		}
		s.logger.Error("查询排期规则失败", zap.String("code", code), zap.Error(err))
		return nil, err
	}
	return toRuleResponse(rule), nil
}

// ────────────────────── Update ──────────────────────

func (s *ruleService) Update(ctx context.Context, code string, req *dto.UpdateRuleRequest, callerID string) (*dto.RuleResponse, error) {
	rule, err := s.repo.Rule.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRuleNotFound
		}
		s.logger.Error("查询排期规则失败", zap.String("code", code), zap.Error(err))
		return nil, err
	}

	// 检查规则是否可配置
	if !rule.IsConfigurable {
		return nil, ErrRuleNotConfigurable
	}

	if req.IsEnabled != nil {
		rule.IsEnabled = *req.IsEnabled
	}
	rule.UpdatedBy = &callerID

	if err := s.repo.Rule.Update(ctx, rule); err != nil {
		s.logger.Error("更新排期规则失败", zap.String("code", code), zap.Error(err))
		return nil, err
	}

	return toRuleResponse(rule), nil
}

// ── 内部辅助方法 ──

func toRuleResponse(rule *model.SchedulingRule) *dto.RuleResponse {
	return &dto.RuleResponse{
		ID:             rule.RuleID,
		RuleCode:       rule.RuleCode,
		RuleName:       rule.RuleName,
		Description:    rule.Description,
		IsEnabled:      rule.IsEnabled,
		IsConfigurable: rule.IsConfigurable,
		UpdatedAt:      rule.UpdatedAt.Format(time.RFC3339),
	}
}
