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

// ── 学习计划模块业务错误 ──

var (
	ErrPlanNotFound  = errors.New("学习计划不存在")
	ErrPlanForbidden = errors.New("无权访问该学习计划")

	// ErrDateInvalid 日期字符串不符合 YYYY-MM-DD，供各服务复用
	ErrDateInvalid = errors.New("日期格式无效")
)

// PlanService 学习计划业务接口
type PlanService interface {
	Create(ctx context.Context, userID string, req *dto.CreatePlanRequest) (*dto.PlanResponse, error)
	GetByID(ctx context.Context, userID, planID string) (*dto.PlanResponse, error)
	List(ctx context.Context, userID string, page *dto.PaginationRequest) ([]dto.PlanResponse, int64, error)
	Update(ctx context.Context, userID, planID string, req *dto.UpdatePlanRequest) (*dto.PlanResponse, error)
	Delete(ctx context.Context, userID, planID string) error
	CheckCapacity(ctx context.Context, userID, planID string, req *dto.CheckCapacityRequest) (*dto.CapacityResponse, error)
}

type planService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPlanService 创建 PlanService 实例
func NewPlanService(repo *repository.Repository, logger *zap.Logger) PlanService {
	return &planService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *planService) Create(ctx context.Context, userID string, req *dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	plan := &model.StudyPlan{
		UserID:        userID,
		Name:          req.Name,
		Description:   req.Description,
		HoursPerDay:   req.HoursPerDay,
		AvailableDays: *req.AvailableDays,
		IsActive:      true,
	}
	plan.CreatedBy = &userID

	if err := s.repo.Plan.Create(ctx, plan); err != nil {
		s.logger.Error("创建学习计划失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	return toPlanResponse(plan), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *planService) GetByID(ctx context.Context, userID, planID string) (*dto.PlanResponse, error) {
	plan, err := s.getOwnedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	return toPlanResponse(plan), nil
}

// ────────────────────── List ──────────────────────

func (s *planService) List(ctx context.Context, userID string, page *dto.PaginationRequest) ([]dto.PlanResponse, int64, error) {
	plans, total, err := s.repo.Plan.ListByUser(ctx, userID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("列出学习计划失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.PlanResponse, 0, len(plans))
	for i := range plans {
		result = append(result, *toPlanResponse(&plans[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *planService) Update(ctx context.Context, userID, planID string, req *dto.UpdatePlanRequest) (*dto.PlanResponse, error) {
	plan, err := s.getOwnedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		plan.Name = *req.Name
	}
	if req.Description != nil {
		plan.Description = req.Description
	}
	if req.HoursPerDay != nil {
		plan.HoursPerDay = *req.HoursPerDay
	}
	if req.AvailableDays != nil {
		plan.AvailableDays = *req.AvailableDays
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	plan.UpdatedBy = &userID

	if err := s.repo.Plan.Update(ctx, plan); err != nil {
		s.logger.Error("更新学习计划失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, err
	}

	return toPlanResponse(plan), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 删除计划并级联删除其全部目标（目标仅通过计划级联删除，
// 不提供单目标删除；单个目标的终点是放弃或完成）。
func (s *planService) Delete(ctx context.Context, userID, planID string) error {
	if _, err := s.getOwnedPlan(ctx, userID, planID); err != nil {
		return err
	}

	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Goal.DeleteByPlan(ctx, planID); err != nil {
			return err
		}
		return txRepo.Plan.Delete(ctx, planID)
	})
	if err != nil {
		s.logger.Error("删除学习计划失败", zap.String("plan_id", planID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── CheckCapacity ──────────────────────

// CheckCapacity 只做当天负载算术，不校验星期可用性；
// 放弃状态的目标不占用容量。
func (s *planService) CheckCapacity(ctx context.Context, userID, planID string, req *dto.CheckCapacityRequest) (*dto.CapacityResponse, error) {
	plan, err := s.getOwnedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	used, err := s.repo.Goal.SumDurationOnDate(ctx, planID, date, "")
	if err != nil {
		s.logger.Error("统计当日负载失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, err
	}

	capacity := plan.CapacityMinutes()
	candidate := *req.DurationMinutes

	return &dto.CapacityResponse{
		Date:             req.Date,
		CapacityMinutes:  capacity,
		MinutesUsed:      used,
		MinutesRemaining: capacity - used,
		CandidateMinutes: candidate,
		Fits:             used+candidate <= capacity,
	}, nil
}

// ── 内部辅助方法 ──

func (s *planService) getOwnedPlan(ctx context.Context, userID, planID string) (*model.StudyPlan, error) {
	return loadOwnedPlan(ctx, s.repo, s.logger, userID, planID)
}

// parseDate 解析 YYYY-MM-DD，格式非法时返回 ErrDateInvalid，供本包各服务复用
func parseDate(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, ErrDateInvalid
	}
	return t, nil
}

// loadOwnedPlan 查询计划并校验归属，供本包各服务复用
func loadOwnedPlan(ctx context.Context, repo *repository.Repository, logger *zap.Logger, userID, planID string) (*model.StudyPlan, error) {
	plan, err := repo.Plan.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		logger.Error("查询学习计划失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, err
	}
	if plan.UserID != userID {
		return nil, ErrPlanForbidden
	}
	return plan, nil
}

func toPlanResponse(plan *model.StudyPlan) *dto.PlanResponse {
	return &dto.PlanResponse{
		ID:              plan.PlanID,
		UserID:          plan.UserID,
		Name:            plan.Name,
		Description:     plan.Description,
		HoursPerDay:     plan.HoursPerDay,
		AvailableDays:   plan.AvailableDays,
		CapacityMinutes: plan.CapacityMinutes(),
		IsActive:        plan.IsActive,
		CreatedAt:       plan.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       plan.UpdatedAt.Format(time.RFC3339),
	}
}
