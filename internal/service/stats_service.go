package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"studyflow/backend/internal/dto"
	"studyflow/backend/internal/model"
	"studyflow/backend/internal/repository"
)

// ── 学习统计模块业务错误 ──

var ErrStatsRangeInvalid = errors.New("统计区间无效")

const statsMaxRangeDays = 366

// StatsService 学习统计业务接口
type StatsService interface {
	PlanProgress(ctx context.Context, userID, planID string) (*dto.PlanProgressResponse, error)
	DailyLoad(ctx context.Context, userID, planID string, req *dto.DailyLoadRequest) (*dto.DailyLoadResponse, error)
	SubjectBreakdown(ctx context.Context, userID, planID string) (*dto.SubjectBreakdownResponse, error)
}

type statsService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewStatsService 创建 StatsService 实例
func NewStatsService(repo *repository.Repository, logger *zap.Logger) StatsService {
	return &statsService{repo: repo, logger: logger}
}

// ────────────────────── PlanProgress ──────────────────────

func (s *statsService) PlanProgress(ctx context.Context, userID, planID string) (*dto.PlanProgressResponse, error) {
	if _, err := loadOwnedPlan(ctx, s.repo, s.logger, userID, planID); err != nil {
		return nil, err
	}

	agg, err := s.repo.Goal.AggregateProgress(ctx, planID)
	if err != nil {
		s.logger.Error("统计计划进度失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, err
	}

	// 完成率分母不含已放弃目标
	rate := 0.0
	effective := agg.TotalGoals - agg.Omitted
	if effective > 0 {
		rate = float64(agg.Completed) / float64(effective)
	}

	return &dto.PlanProgressResponse{
		PlanID:             planID,
		TotalGoals:         agg.TotalGoals,
		Pending:            agg.Pending,
		InProgress:         agg.InProgress,
		Completed:          agg.Completed,
		Omitted:            agg.Omitted,
		CompletionRate:     rate,
		PlannedMinutes:     agg.PlannedMinutes,
		CompletedMinutes:   agg.CompletedMinutes,
		ActualStudySeconds: agg.ActualStudySeconds,
	}, nil
}

// ────────────────────── DailyLoad ──────────────────────

func (s *statsService) DailyLoad(ctx context.Context, userID, planID string, req *dto.DailyLoadRequest) (*dto.DailyLoadResponse, error) {
	plan, err := loadOwnedPlan(ctx, s.repo, s.logger, userID, planID)
	if err != nil {
		return nil, err
	}

	from, err := time.Parse("2006-01-02", req.DateFrom)
	if err != nil {
		return nil, ErrStatsRangeInvalid
	}
	to, err := time.Parse("2006-01-02", req.DateTo)
	if err != nil {
		return nil, ErrStatsRangeInvalid
	}
	if to.Before(from) || int(to.Sub(from).Hours()/24) > statsMaxRangeDays {
		return nil, ErrStatsRangeInvalid
	}

	goals, err := s.repo.Goal.ListByPlanAndDateRange(ctx, planID, from, to)
	if err != nil {
		s.logger.Error("查询区间目标失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, err
	}

	// 按日期聚合（放弃目标不占负载）
	type dayAgg struct {
		minutes int
		count   int
	}
	byDate := make(map[string]*dayAgg)
	for i := range goals {
		g := &goals[i]
		if g.Status == model.GoalStatusOmitted {
			continue
		}
		key := g.ScheduledDate.Format("2006-01-02")
		agg := byDate[key]
		if agg == nil {
			agg = &dayAgg{}
			byDate[key] = agg
		}
		agg.minutes += g.DurationMinutes
		agg.count++
	}

	capacity := plan.CapacityMinutes()
	resp := &dto.DailyLoadResponse{PlanID: planID}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		item := dto.DailyLoadItem{
			Date:            key,
			Weekday:         weekdayNames[int(d.Weekday())],
			Available:       plan.AllowsDate(d),
			CapacityMinutes: capacity,
		}
		if agg := byDate[key]; agg != nil {
			item.ScheduledMinutes = agg.minutes
			item.GoalCount = agg.count
			item.OverCapacity = agg.minutes > capacity
			if capacity > 0 {
				item.UtilizationRate = float64(agg.minutes) / float64(capacity)
			}
		}
		resp.Days = append(resp.Days, item)
	}
	return resp, nil
}

// ────────────────────── SubjectBreakdown ──────────────────────

func (s *statsService) SubjectBreakdown(ctx context.Context, userID, planID string) (*dto.SubjectBreakdownResponse, error) {
	if _, err := loadOwnedPlan(ctx, s.repo, s.logger, userID, planID); err != nil {
		return nil, err
	}

	aggs, err := s.repo.Goal.AggregateBySubject(ctx, planID)
	if err != nil {
		s.logger.Error("统计科目维度失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, err
	}

	resp := &dto.SubjectBreakdownResponse{
		PlanID:   planID,
		Subjects: make([]dto.SubjectBreakdownItem, 0, len(aggs)),
	}
	for _, a := range aggs {
		rate := 0.0
		if a.TotalGoals > 0 {
			rate = float64(a.Completed) / float64(a.TotalGoals)
		}
		resp.Subjects = append(resp.Subjects, dto.SubjectBreakdownItem{
			SubjectID:      a.SubjectID,
			SubjectName:    a.SubjectName,
			TotalGoals:     a.TotalGoals,
			Completed:      a.Completed,
			PlannedMinutes: a.PlannedMinutes,
			ActualSeconds:  a.ActualSeconds,
			CompletionRate: rate,
		})
	}
	return resp, nil
}
