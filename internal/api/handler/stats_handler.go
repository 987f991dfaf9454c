package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"studyflow/backend/internal/dto"
	"studyflow/backend/internal/service"
	"studyflow/backend/pkg/response"
)

// StatsHandler 学习统计模块 HTTP 处理器
type StatsHandler struct {
	statsSvc service.StatsService
}

// NewStatsHandler 创建 StatsHandler
func NewStatsHandler(statsSvc service.StatsService) *StatsHandler {
	return &StatsHandler{statsSvc: statsSvc}
}

// GetPlanProgress 获取计划整体进度
// GET /api/v1/plans/:id/progress
func (h *StatsHandler) GetPlanProgress(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.statsSvc.PlanProgress(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleStatsError(c, err)
		return
	}
	response.OK(c, result)
}

// GetDailyLoad 获取区间每日负载
// GET /api/v1/plans/:id/daily-load?date_from=...&date_to=...
func (h *StatsHandler) GetDailyLoad(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.DailyLoadRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.statsSvc.DailyLoad(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleStatsError(c, err)
		return
	}
	response.OK(c, result)
}

// GetSubjectBreakdown 获取科目维度统计
// GET /api/v1/plans/:id/subjects-breakdown
func (h *StatsHandler) GetSubjectBreakdown(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.statsSvc.SubjectBreakdown(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleStatsError(c, err)
		return
	}
	response.OK(c, result)
}

// handleStatsError 统一处理学习统计模块业务错误
func (h *StatsHandler) handleStatsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStatsRangeInvalid):
		response.BadRequest(c, 60001, "统计区间无效")
	case errors.Is(err, service.ErrPlanNotFound):
		response.NotFound(c, 20001, "学习计划不存在")
	case errors.Is(err, service.ErrPlanForbidden):
		response.Forbidden(c, 20002, "无权访问该学习计划")
	default:
		response.InternalError(c)
	}
}
