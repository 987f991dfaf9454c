package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"studyflow/backend/internal/dto"
	"studyflow/backend/internal/service"
	"studyflow/backend/pkg/response"
)

// GoalHandler 学习目标模块 HTTP 处理器
type GoalHandler struct {
	goalSvc service.GoalService
}

// NewGoalHandler 创建 GoalHandler
func NewGoalHandler(goalSvc service.GoalService) *GoalHandler {
	return &GoalHandler{goalSvc: goalSvc}
}

// CreateGoal 创建学习目标
// POST /api/v1/goals
func (h *GoalHandler) CreateGoal(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.goalSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleGoalError(c, err)
		return
	}
	response.Created(c, result)
}

// GetGoal 获取学习目标详情
// GET /api/v1/goals/:id
func (h *GoalHandler) GetGoal(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.goalSvc.GetByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleGoalError(c, err)
		return
	}
	response.OK(c, result)
}

// ListGoals 获取目标列表（按计划过滤）
// GET /api/v1/goals?plan_id=xxx&status=pending&date_from=...&date_to=...
func (h *GoalHandler) ListGoals(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ListGoalsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.goalSvc.List(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleGoalError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// StartGoal 开始学习目标
// POST /api/v1/goals/:id/start
func (h *GoalHandler) StartGoal(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.goalSvc.Start(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleGoalError(c, err)
		return
	}
	response.OK(c, result)
}

// PauseGoal 暂停学习目标（累计本次学习时长后回到待办）
// POST /api/v1/goals/:id/pause
func (h *GoalHandler) PauseGoal(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.PauseGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.goalSvc.Pause(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleGoalError(c, err)
		return
	}
	response.OK(c, result)
}

// CompleteGoal 完成学习目标（学习类目标自动生成复习目标）
// POST /api/v1/goals/:id/complete
func (h *GoalHandler) CompleteGoal(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CompleteGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.goalSvc.Complete(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleGoalError(c, err)
		return
	}
	response.OK(c, result)
}

// RequestMoreTime 需要更多时间（顺延到下一个可容纳的可用日）
// POST /api/v1/goals/:id/request-more-time
func (h *GoalHandler) RequestMoreTime(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.RequestMoreTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.goalSvc.RequestMoreTime(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleGoalError(c, err)
		return
	}
	response.OK(c, result)
}

// OmitGoal 放弃学习目标（原因必填）
// POST /api/v1/goals/:id/omit
func (h *GoalHandler) OmitGoal(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.OmitGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.goalSvc.Omit(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleGoalError(c, err)
		return
	}
	response.OK(c, result)
}

// RescheduleGoal 手动改期
// PUT /api/v1/goals/:id/reschedule
func (h *GoalHandler) RescheduleGoal(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.RescheduleGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.goalSvc.Reschedule(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleGoalError(c, err)
		return
	}
	response.OK(c, result)
}

// handleGoalError 统一处理学习目标模块业务错误
func (h *GoalHandler) handleGoalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDateInvalid):
		response.BadRequest(c, 10001, "日期格式应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrGoalNotFound):
		response.NotFound(c, 30001, "学习目标不存在")
	case errors.Is(err, service.ErrWeekdayNotAllowed):
		response.BadRequest(c, 30002, "目标日期不在计划的可用星期内")
	case errors.Is(err, service.ErrInvalidTransition):
		response.Conflict(c, 30003, "当前状态不允许该操作")
	case errors.Is(err, service.ErrSchedulingExhausted):
		response.Conflict(c, 30004, "在搜索范围内找不到可容纳该目标的日期")
	case errors.Is(err, service.ErrCapacityExceeded):
		response.Conflict(c, 30005, "目标日期的每日时间预算已满")
	case errors.Is(err, service.ErrTaxonomyPathInvalid):
		response.BadRequest(c, 30006, "学科/科目/主题层级引用不一致")
	case errors.Is(err, service.ErrSeqAssignmentFailed):
		response.Conflict(c, 30007, "目标序号分配冲突，请重试")
	case errors.Is(err, service.ErrPlanNotFound):
		response.NotFound(c, 20001, "学习计划不存在")
	case errors.Is(err, service.ErrPlanForbidden):
		response.Forbidden(c, 20002, "无权访问该学习计划")
	default:
		response.InternalError(c)
	}
}
