package service

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"studyflow/backend/config"
	"studyflow/backend/internal/dto"
	"studyflow/backend/internal/model"
	"studyflow/backend/internal/repository"
)

// ── 学习目标模块业务错误 ──

var (
	ErrGoalNotFound        = errors.New("学习目标不存在")
	ErrWeekdayNotAllowed   = errors.New("目标日期不在计划的可用星期内")
	ErrCapacityExceeded    = errors.New("目标日期的每日时间预算已满")
	ErrInvalidTransition   = errors.New("当前状态不允许该操作")
	ErrSchedulingExhausted = errors.New("在搜索范围内找不到可容纳该目标的日期")
	ErrTaxonomyPathInvalid = errors.New("学科/科目/主题层级引用不一致")
	ErrSeqAssignmentFailed = errors.New("目标序号分配冲突，请重试")
)

// GoalService 学习目标业务接口
type GoalService interface {
	Create(ctx context.Context, userID string, req *dto.CreateGoalRequest) (*dto.GoalResponse, error)
	GetByID(ctx context.Context, userID, goalID string) (*dto.GoalResponse, error)
	List(ctx context.Context, userID string, req *dto.ListGoalsRequest) ([]dto.GoalResponse, int64, error)
	Start(ctx context.Context, userID, goalID string) (*dto.GoalResponse, error)
	Pause(ctx context.Context, userID, goalID string, req *dto.PauseGoalRequest) (*dto.GoalResponse, error)
	Complete(ctx context.Context, userID, goalID string, req *dto.CompleteGoalRequest) (*dto.CompleteGoalResponse, error)
	RequestMoreTime(ctx context.Context, userID, goalID string, req *dto.RequestMoreTimeRequest) (*dto.RequestMoreTimeResponse, error)
	Omit(ctx context.Context, userID, goalID string, req *dto.OmitGoalRequest) (*dto.GoalResponse, error)
	Reschedule(ctx context.Context, userID, goalID string, req *dto.RescheduleGoalRequest) (*dto.GoalResponse, error)
}

type goalService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewGoalService 创建 GoalService 实例
func NewGoalService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) GoalService {
	return &goalService{cfg: cfg, repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── Create ──────────────────────

func (s *goalService) Create(ctx context.Context, userID string, req *dto.CreateGoalRequest) (*dto.GoalResponse, error) {
	plan, err := loadOwnedPlan(ctx, s.repo, s.logger, userID, req.PlanID)
	if err != nil {
		return nil, err
	}

	date, err := parseDate(req.ScheduledDate)
	if err != nil {
		return nil, err
	}

	// 星期规则是硬约束
	if !plan.AllowsDate(date) {
		return nil, ErrWeekdayNotAllowed
	}

	// 层级引用校验
	ok, err := s.repo.Taxonomy.ValidatePath(ctx, req.DisciplineID, req.SubjectID, req.TopicID, req.SubtopicID)
	if err != nil {
		s.logger.Error("校验学科层级失败", zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, ErrTaxonomyPathInvalid
	}

	// 容量硬拦截仅在 CAP 规则启用时生效；默认允许超预算排入
	if err := s.checkCapacityRule(ctx, plan, date, req.DurationMinutes, ""); err != nil {
		return nil, err
	}

	goal := &model.Goal{
		PlanID:          plan.PlanID,
		GoalType:        req.GoalType,
		DisciplineID:    req.DisciplineID,
		SubjectID:       req.SubjectID,
		TopicID:         req.TopicID,
		SubtopicID:      req.SubtopicID,
		DurationMinutes: req.DurationMinutes,
		ScheduledDate:   date,
		Status:          model.GoalStatusPending,
		Guidance:        req.Guidance,
		IsFixed:         req.IsFixed,
	}
	goal.CreatedBy = &userID

	if err := s.createWithSeq(ctx, s.repo, goal); err != nil {
		s.logger.Error("创建学习目标失败", zap.String("plan_id", plan.PlanID), zap.Error(err))
		return nil, err
	}

	return toGoalResponse(goal), nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *goalService) GetByID(ctx context.Context, userID, goalID string) (*dto.GoalResponse, error) {
	goal, _, err := s.getOwnedGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	return toGoalResponse(goal), nil
}

func (s *goalService) List(ctx context.Context, userID string, req *dto.ListGoalsRequest) ([]dto.GoalResponse, int64, error) {
	if _, err := loadOwnedPlan(ctx, s.repo, s.logger, userID, req.PlanID); err != nil {
		return nil, 0, err
	}

	filter := repository.GoalFilter{
		Status:   req.Status,
		GoalType: req.GoalType,
	}
	if req.DateFrom != nil {
		from, err := parseDate(*req.DateFrom)
		if err != nil {
			return nil, 0, err
		}
		filter.DateFrom = &from
	}
	if req.DateTo != nil {
		to, err := parseDate(*req.DateTo)
		if err != nil {
			return nil, 0, err
		}
		filter.DateTo = &to
	}

	goals, total, err := s.repo.Goal.ListByPlan(ctx, req.PlanID, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出学习目标失败", zap.String("plan_id", req.PlanID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.GoalResponse, 0, len(goals))
	for i := range goals {
		result = append(result, *toGoalResponse(&goals[i]))
	}
	return result, total, nil
}

// ────────────────────── Start / Pause ──────────────────────

func (s *goalService) Start(ctx context.Context, userID, goalID string) (*dto.GoalResponse, error) {
	goal, _, err := s.getOwnedGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	if goal.Status != model.GoalStatusPending {
		return nil, ErrInvalidTransition
	}

	now := s.now()
	goal.Status = model.GoalStatusInProgress
	goal.StartedAt = &now
	goal.UpdatedBy = &userID

	if err := s.repo.Goal.Update(ctx, goal); err != nil {
		s.logger.Error("开始学习目标失败", zap.String("goal_id", goalID), zap.Error(err))
		return nil, err
	}
	return toGoalResponse(goal), nil
}

func (s *goalService) Pause(ctx context.Context, userID, goalID string, req *dto.PauseGoalRequest) (*dto.GoalResponse, error) {
	goal, _, err := s.getOwnedGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	if goal.Status != model.GoalStatusInProgress {
		return nil, ErrInvalidTransition
	}

	goal.Status = model.GoalStatusPending
	goal.StartedAt = nil
	addActualSeconds(goal, req.ElapsedSeconds)
	goal.UpdatedBy = &userID

	if err := s.repo.Goal.Update(ctx, goal); err != nil {
		s.logger.Error("暂停学习目标失败", zap.String("goal_id", goalID), zap.Error(err))
		return nil, err
	}
	return toGoalResponse(goal), nil
}

// ────────────────────── Complete ──────────────────────

// Complete 将目标置为完成态。学习类目标完成时以完成日为基准，
// 按间隔配置自动生成复习目标（REV 规则关闭时跳过），与状态更新同事务落库。
func (s *goalService) Complete(ctx context.Context, userID, goalID string, req *dto.CompleteGoalRequest) (*dto.CompleteGoalResponse, error) {
	goal, plan, err := s.getOwnedGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	if goal.Status != model.GoalStatusPending && goal.Status != model.GoalStatusInProgress {
		return nil, ErrInvalidTransition
	}

	now := s.now()
	goal.Status = model.GoalStatusCompleted
	goal.CompletedAt = &now
	addActualSeconds(goal, req.ActualSeconds)
	goal.UpdatedBy = &userID

	var followUps []model.Goal
	if goal.GoalType == model.GoalTypeStudy {
		enabled, err := s.isRuleEnabled(ctx, model.RuleAutoReview)
		if err != nil {
			return nil, err
		}
		if enabled {
			followUps = s.buildFollowUps(goal, plan, userID, dateOf(now))
		}
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Goal.Update(ctx, goal); err != nil {
			return err
		}
		for i := range followUps {
			if err := s.createWithSeq(ctx, txRepo, &followUps[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("完成学习目标失败", zap.String("goal_id", goalID), zap.Error(err))
		return nil, err
	}

	resp := &dto.CompleteGoalResponse{
		Goal:               toGoalResponse(goal),
		FollowUpsGenerated: len(followUps),
	}
	for i := range followUps {
		resp.FollowUps = append(resp.FollowUps, *toGoalResponse(&followUps[i]))
	}
	return resp, nil
}

// ────────────────────── RequestMoreTime ──────────────────────

// RequestMoreTime 把目标顺延到下一个可容纳它的可用日。
// 搜索自 max(今天, 原定日期) 次日起，最多 reschedule_horizon_days 天，
// 新日期不会早于或等于当前日期（逾期目标顺延到未来而非过去）；
// 找不到则返回调度耗尽，目标保持原状不变。
func (s *goalService) RequestMoreTime(ctx context.Context, userID, goalID string, req *dto.RequestMoreTimeRequest) (*dto.RequestMoreTimeResponse, error) {
	goal, plan, err := s.getOwnedGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	if goal.Status != model.GoalStatusPending && goal.Status != model.GoalStatusInProgress {
		return nil, ErrInvalidTransition
	}

	base := dateOf(s.now())
	if goal.ScheduledDate.After(base) {
		base = goal.ScheduledDate
	}

	capacity := plan.CapacityMinutes()
	var newDate time.Time
	found := false
	for i := 1; i <= s.cfg.Study.RescheduleHorizonDays; i++ {
		candidate := base.AddDate(0, 0, i)
		if !plan.AllowsDate(candidate) {
			continue
		}
		used, err := s.repo.Goal.SumDurationOnDate(ctx, plan.PlanID, candidate, goal.GoalID)
		if err != nil {
			s.logger.Error("统计当日负载失败", zap.String("plan_id", plan.PlanID), zap.Error(err))
			return nil, err
		}
		if used+goal.DurationMinutes <= capacity {
			newDate = candidate
			found = true
			break
		}
	}
	if !found {
		return nil, ErrSchedulingExhausted
	}

	goal.ScheduledDate = newDate
	goal.Status = model.GoalStatusPending
	goal.StartedAt = nil
	addActualSeconds(goal, req.TimeSpentSeconds)
	goal.UpdatedBy = &userID

	if err := s.repo.Goal.Update(ctx, goal); err != nil {
		s.logger.Error("顺延学习目标失败", zap.String("goal_id", goalID), zap.Error(err))
		return nil, err
	}

	return &dto.RequestMoreTimeResponse{
		Goal:             toGoalResponse(goal),
		NewScheduledDate: newDate.Format("2006-01-02"),
	}, nil
}

// ────────────────────── Omit ──────────────────────

func (s *goalService) Omit(ctx context.Context, userID, goalID string, req *dto.OmitGoalRequest) (*dto.GoalResponse, error) {
	goal, _, err := s.getOwnedGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	// 终态目标不可再次放弃
	if goal.IsTerminal() {
		return nil, ErrInvalidTransition
	}

	goal.Status = model.GoalStatusOmitted
	goal.OmitReason = &req.Reason
	goal.OmitNote = req.Note
	goal.StartedAt = nil
	goal.UpdatedBy = &userID

	if err := s.repo.Goal.Update(ctx, goal); err != nil {
		s.logger.Error("放弃学习目标失败", zap.String("goal_id", goalID), zap.Error(err))
		return nil, err
	}
	return toGoalResponse(goal), nil
}

// ────────────────────── Reschedule ──────────────────────

// Reschedule 手动改期，仅限待办状态。
// 只校验星期可用性，不做容量检查：手动改期由用户自主决定是否超载。
func (s *goalService) Reschedule(ctx context.Context, userID, goalID string, req *dto.RescheduleGoalRequest) (*dto.GoalResponse, error) {
	goal, plan, err := s.getOwnedGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	if goal.Status != model.GoalStatusPending {
		return nil, ErrInvalidTransition
	}

	newDate, err := parseDate(req.NewDate)
	if err != nil {
		return nil, err
	}

	if !plan.AllowsDate(newDate) {
		return nil, ErrWeekdayNotAllowed
	}

	goal.ScheduledDate = newDate
	goal.UpdatedBy = &userID

	if err := s.repo.Goal.Update(ctx, goal); err != nil {
		s.logger.Error("改期学习目标失败", zap.String("goal_id", goalID), zap.Error(err))
		return nil, err
	}
	return toGoalResponse(goal), nil
}

// ── 内部辅助方法 ──

// getOwnedGoal 查询目标并通过其所属计划校验归属
func (s *goalService) getOwnedGoal(ctx context.Context, userID, goalID string) (*model.Goal, *model.StudyPlan, error) {
	goal, err := s.repo.Goal.GetByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrGoalNotFound
		}
		s.logger.Error("查询学习目标失败", zap.String("goal_id", goalID), zap.Error(err))
		return nil, nil, err
	}

	plan, err := loadOwnedPlan(ctx, s.repo, s.logger, userID, goal.PlanID)
	if err != nil {
		return nil, nil, err
	}
	return goal, plan, nil
}

// checkCapacityRule CAP 规则启用时对超预算排入做硬拦截
func (s *goalService) checkCapacityRule(ctx context.Context, plan *model.StudyPlan, date time.Time, durationMinutes int, excludeGoalID string) error {
	enabled, err := s.isRuleEnabled(ctx, model.RuleCapacityHard)
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}

	used, err := s.repo.Goal.SumDurationOnDate(ctx, plan.PlanID, date, excludeGoalID)
	if err != nil {
		s.logger.Error("统计当日负载失败", zap.String("plan_id", plan.PlanID), zap.Error(err))
		return err
	}
	if used+durationMinutes > plan.CapacityMinutes() {
		return ErrCapacityExceeded
	}
	return nil
}

func (s *goalService) isRuleEnabled(ctx context.Context, code string) (bool, error) {
	rule, err := s.repo.Rule.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 规则未登记时按默认行为处理：WD/REV 默认启用，CAP 默认关闭
			return code != model.RuleCapacityHard, nil
		}
		s.logger.Error("查询排期规则失败", zap.String("code", code), zap.Error(err))
		return false, err
	}
	return rule.IsEnabled, nil
}

// buildFollowUps 以完成日 baseDate 为基准按间隔配置生成复习目标。
// 落在不可用星期的日期向后最多顺移 6 天；同日去重；掩码为空时全部跳过。
func (s *goalService) buildFollowUps(goal *model.Goal, plan *model.StudyPlan, userID string, baseDate time.Time) []model.Goal {
	duration := int(math.Round(float64(goal.DurationMinutes) * s.cfg.Study.ReviewDurationFactor))
	if duration < 1 {
		duration = 1
	}

	seen := make(map[string]bool)
	var followUps []model.Goal
	for _, interval := range s.cfg.Study.ReviewIntervals {
		date, ok := shiftToAllowedWeekday(plan, baseDate.AddDate(0, 0, interval))
		if !ok {
			continue
		}
		key := date.Format("2006-01-02")
		if seen[key] {
			continue
		}
		seen[key] = true

		fu := model.Goal{
			PlanID:          goal.PlanID,
			GoalType:        model.GoalTypeReview,
			DisciplineID:    goal.DisciplineID,
			SubjectID:       goal.SubjectID,
			TopicID:         goal.TopicID,
			SubtopicID:      goal.SubtopicID,
			DurationMinutes: duration,
			ScheduledDate:   date,
			Status:          model.GoalStatusPending,
			Guidance:        goal.Guidance,
		}
		fu.CreatedBy = &userID
		followUps = append(followUps, fu)
	}
	return followUps
}

// shiftToAllowedWeekday 自 date 起最多向后找 6 天的可用星期
func shiftToAllowedWeekday(plan *model.StudyPlan, date time.Time) (time.Time, bool) {
	for i := 0; i < 7; i++ {
		candidate := date.AddDate(0, 0, i)
		if plan.AllowsDate(candidate) {
			return candidate, true
		}
	}
	return time.Time{}, false
}

// createWithSeq 分配计划内单调序号并创建目标。
// 并发下唯一约束可能冲突，重算序号重试一次，仍冲突则放弃。
func (s *goalService) createWithSeq(ctx context.Context, repo *repository.Repository, goal *model.Goal) error {
	for attempt := 0; attempt < 2; attempt++ {
		max, err := repo.Goal.MaxSeqNo(ctx, goal.PlanID)
		if err != nil {
			return err
		}
		goal.SeqNo = max + 1

		err = repo.Goal.Create(ctx, goal)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		goal.GoalID = ""
	}
	return ErrSeqAssignmentFailed
}

// dateOf 取时间戳所在日的 UTC 零点，排期日期统一按日粒度比较
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func addActualSeconds(goal *model.Goal, seconds int) {
	if seconds <= 0 {
		return
	}
	total := seconds
	if goal.ActualSeconds != nil {
		total += *goal.ActualSeconds
	}
	goal.ActualSeconds = &total
}

func toGoalResponse(goal *model.Goal) *dto.GoalResponse {
	resp := &dto.GoalResponse{
		ID:              goal.GoalID,
		PlanID:          goal.PlanID,
		SeqNo:           goal.SeqNo,
		SeqLabel:        goal.SeqLabel(),
		GoalType:        goal.GoalType,
		DisciplineID:    goal.DisciplineID,
		SubjectID:       goal.SubjectID,
		TopicID:         goal.TopicID,
		SubtopicID:      goal.SubtopicID,
		DurationMinutes: goal.DurationMinutes,
		ScheduledDate:   goal.ScheduledDate.Format("2006-01-02"),
		Status:          goal.Status,
		Guidance:        goal.Guidance,
		IsFixed:         goal.IsFixed,
		ActualSeconds:   goal.ActualSeconds,
		OmitReason:      goal.OmitReason,
		OmitNote:        goal.OmitNote,
		CreatedAt:       goal.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       goal.UpdatedAt.Format(time.RFC3339),
	}
	if goal.StartedAt != nil {
		v := goal.StartedAt.Format(time.RFC3339)
		resp.StartedAt = &v
	}
	if goal.CompletedAt != nil {
		v := goal.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &v
	}
	return resp
}
