package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"studyflow/backend/config"
	"studyflow/backend/internal/dto"
	"studyflow/backend/internal/model"
	"studyflow/backend/internal/repository"
)

// ── 批量导入模块业务错误 ──

var (
	ErrImportFileInvalid = errors.New("导入文件格式无效")
	ErrImportFileEmpty   = errors.New("导入文件中没有数据行")
)

const importMaxRows = 500

// ImportService 批量导入业务接口
//
// 两步流程：先 ValidateBatch 预检（不落库），再 ImportBatch 执行。
// ImportBatch 自身也会重新校验，失败/跳过逐行报告，
// 实际写入的行在单个事务内完成，保证序号分配一致。
type ImportService interface {
	// ParseXLSX 将上传的 Excel 模板解析为导入行（不校验业务规则）
	ParseXLSX(reader io.Reader) ([]dto.ImportGoalRow, error)
	ValidateBatch(ctx context.Context, userID string, req *dto.ValidateBatchRequest) (*dto.ValidateBatchResponse, error)
	ImportBatch(ctx context.Context, userID string, req *dto.ImportBatchRequest) (*dto.ImportBatchResponse, error)
}

type importService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
}

// NewImportService 创建 ImportService 实例
func NewImportService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) ImportService {
	return &importService{cfg: cfg, repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ParseXLSX — 解析 Excel 模板
// ═══════════════════════════════════════════════════════════
//
// 模板格式（第一行为表头，从第二行开始读取）：
//   A 目标类型 | B 学科ID | C 科目ID | D 主题ID | E 子主题ID
//   F 时长(分钟) | G 日期(YYYY-MM-DD) | H 指引 | I 是否固定

func (s *importService) ParseXLSX(reader io.Reader) ([]dto.ImportGoalRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, ErrImportFileInvalid
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrImportFileInvalid
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		s.logger.Error("读取 Excel 行失败", zap.Error(err))
		return nil, ErrImportFileInvalid
	}
	if len(rows) <= 1 {
		return nil, ErrImportFileEmpty
	}

	result := make([]dto.ImportGoalRow, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		get := func(i int) string {
			if i < len(cells) {
				return strings.TrimSpace(cells[i])
			}
			return ""
		}

		// 整行为空则跳过
		empty := true
		for i := 0; i < 9; i++ {
			if get(i) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}

		duration, _ := strconv.Atoi(get(5))
		row := dto.ImportGoalRow{
			GoalType:        get(0),
			DisciplineID:    get(1),
			SubjectID:       get(2),
			DurationMinutes: duration,
			ScheduledDate:   get(6),
			IsFixed:         parseBoolCell(get(8)),
		}
		if v := get(3); v != "" {
			row.TopicID = &v
		}
		if v := get(4); v != "" {
			row.SubtopicID = &v
		}
		if v := get(7); v != "" {
			row.Guidance = &v
		}
		result = append(result, row)
	}

	if len(result) == 0 {
		return nil, ErrImportFileEmpty
	}
	if len(result) > importMaxRows {
		return nil, fmt.Errorf("单次最多导入 %d 行，当前 %d 行", importMaxRows, len(result))
	}
	return result, nil
}

// ═══════════════════════════════════════════════════════════
// ValidateBatch — 预检（不落库）
// ═══════════════════════════════════════════════════════════

func (s *importService) ValidateBatch(ctx context.Context, userID string, req *dto.ValidateBatchRequest) (*dto.ValidateBatchResponse, error) {
	plan, err := loadOwnedPlan(ctx, s.repo, s.logger, userID, req.PlanID)
	if err != nil {
		return nil, err
	}

	states, issues, warnings, err := s.checkRows(ctx, plan, req.Rows)
	if err != nil {
		return nil, err
	}

	// 预检阶段重复仅作为警告呈现
	for i, st := range states {
		if st == rowDuplicate {
			warnings = append(warnings, dto.RowIssue{
				Row:     i + 1,
				Message: "同类型、同知识点、同日期的目标已存在",
			})
		}
	}

	return &dto.ValidateBatchResponse{
		Valid:     len(issues) == 0,
		TotalRows: len(req.Rows),
		Errors:    issues,
		Warnings:  warnings,
	}, nil
}

// ═══════════════════════════════════════════════════════════
// ImportBatch — 执行导入
// ═══════════════════════════════════════════════════════════

func (s *importService) ImportBatch(ctx context.Context, userID string, req *dto.ImportBatchRequest) (*dto.ImportBatchResponse, error) {
	plan, err := loadOwnedPlan(ctx, s.repo, s.logger, userID, req.PlanID)
	if err != nil {
		return nil, err
	}

	states, issues, warnings, err := s.checkRows(ctx, plan, req.Rows)
	if err != nil {
		return nil, err
	}

	resp := &dto.ImportBatchResponse{
		Errors:   issues,
		Warnings: warnings,
	}

	// 重复行：按开关决定跳过还是报错
	var importable []int
	for i, st := range states {
		switch st {
		case rowOK:
			importable = append(importable, i)
		case rowDuplicate:
			if req.SkipDuplicates {
				resp.Skipped++
			} else {
				resp.Failed++
				resp.Errors = append(resp.Errors, dto.RowIssue{
					Row:     i + 1,
					Message: "同类型、同知识点、同日期的目标已存在",
				})
			}
		case rowInvalid:
			resp.Failed++
		}
	}

	if len(importable) == 0 {
		return resp, nil
	}

	goals := make([]model.Goal, 0, len(importable))
	for _, i := range importable {
		row := req.Rows[i]
		date, _ := time.Parse("2006-01-02", row.ScheduledDate)
		g := model.Goal{
			PlanID:          plan.PlanID,
			GoalType:        row.GoalType,
			DisciplineID:    row.DisciplineID,
			SubjectID:       row.SubjectID,
			TopicID:         row.TopicID,
			SubtopicID:      row.SubtopicID,
			DurationMinutes: row.DurationMinutes,
			ScheduledDate:   date,
			Status:          model.GoalStatusPending,
			Guidance:        row.Guidance,
			IsFixed:         row.IsFixed,
		}
		g.CreatedBy = &userID
		goals = append(goals, g)
	}

	// 序号在同一事务内统一分配；并发冲突时整批重算重试一次
	for attempt := 0; attempt < 2; attempt++ {
		err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
			max, err := txRepo.Goal.MaxSeqNo(ctx, plan.PlanID)
			if err != nil {
				return err
			}
			for i := range goals {
				goals[i].SeqNo = max + i + 1
				goals[i].GoalID = ""
			}
			return txRepo.Goal.BatchCreate(ctx, goals)
		})
		if err == nil {
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			s.logger.Error("批量导入目标失败", zap.String("plan_id", plan.PlanID), zap.Error(err))
			return nil, err
		}
	}
	if err != nil {
		return nil, ErrSeqAssignmentFailed
	}

	resp.Imported = len(goals)
	return resp, nil
}

// ── 内部辅助方法 ──

type rowState int

const (
	rowOK rowState = iota
	rowDuplicate
	rowInvalid
)

// checkRows 逐行校验，返回行状态、错误与警告（行号从 1 开始）。
// 容量超限不阻止导入，作为警告返回。
func (s *importService) checkRows(ctx context.Context, plan *model.StudyPlan, rows []dto.ImportGoalRow) ([]rowState, []dto.RowIssue, []dto.RowIssue, error) {
	states := make([]rowState, len(rows))
	var issues, warnings []dto.RowIssue

	addIssue := func(i int, field, msg string) {
		states[i] = rowInvalid
		issues = append(issues, dto.RowIssue{Row: i + 1, Field: field, Message: msg})
	}

	capacity := plan.CapacityMinutes()
	batchLoad := make(map[string]int) // 日期 → 本批累计分钟
	batchSeen := make(map[string]bool)

	for i := range rows {
		row := &rows[i]

		switch row.GoalType {
		case model.GoalTypeStudy, model.GoalTypePracticeQuestions, model.GoalTypeReview:
		default:
			addIssue(i, "goal_type", fmt.Sprintf("目标类型无效: %q", row.GoalType))
			continue
		}

		if row.DurationMinutes <= 0 || row.DurationMinutes > 1440 {
			addIssue(i, "duration_minutes", "时长必须在 1-1440 分钟之间")
			continue
		}

		date, err := time.Parse("2006-01-02", row.ScheduledDate)
		if err != nil {
			addIssue(i, "scheduled_date", "日期格式应为 YYYY-MM-DD")
			continue
		}

		if !plan.AllowsDate(date) {
			addIssue(i, "scheduled_date", "日期不在计划的可用星期内")
			continue
		}

		ok, err := s.repo.Taxonomy.ValidatePath(ctx, row.DisciplineID, row.SubjectID, row.TopicID, row.SubtopicID)
		if err != nil {
			s.logger.Error("校验学科层级失败", zap.Error(err))
			return nil, nil, nil, err
		}
		if !ok {
			addIssue(i, "subject_id", "学科/科目/主题层级引用不一致")
			continue
		}

		// 重复检测：先查库，再查本批内部
		dupKey := fmt.Sprintf("%s|%s|%s|%s|%s|%s",
			row.GoalType, row.DisciplineID, row.SubjectID,
			strValue(row.TopicID), strValue(row.SubtopicID), row.ScheduledDate)
		dup := batchSeen[dupKey]
		if !dup {
			dup, err = s.repo.Goal.ExistsDuplicate(ctx, plan.PlanID, row.GoalType,
				row.DisciplineID, row.SubjectID, row.TopicID, row.SubtopicID, date)
			if err != nil {
				s.logger.Error("重复目标检测失败", zap.Error(err))
				return nil, nil, nil, err
			}
		}
		if dup {
			states[i] = rowDuplicate
			continue
		}
		batchSeen[dupKey] = true

		// 容量超限仅警告
		used, err := s.repo.Goal.SumDurationOnDate(ctx, plan.PlanID, date, "")
		if err != nil {
			s.logger.Error("统计当日负载失败", zap.Error(err))
			return nil, nil, nil, err
		}
		if used+batchLoad[row.ScheduledDate]+row.DurationMinutes > capacity {
			warnings = append(warnings, dto.RowIssue{
				Row:     i + 1,
				Field:   "duration_minutes",
				Message: fmt.Sprintf("该日累计时长将超出每日预算 %d 分钟", capacity),
			})
		}
		batchLoad[row.ScheduledDate] += row.DurationMinutes
	}

	return states, issues, warnings, nil
}

func parseBoolCell(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "是":
		return true
	}
	return false
}

func strValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
