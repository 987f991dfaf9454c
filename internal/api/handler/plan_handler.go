package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"studyflow/backend/internal/dto"
	"studyflow/backend/internal/service"
	"studyflow/backend/pkg/response"
)

// PlanHandler 学习计划模块 HTTP 处理器
type PlanHandler struct {
	planSvc service.PlanService
}

// NewPlanHandler 创建 PlanHandler
func NewPlanHandler(planSvc service.PlanService) *PlanHandler {
	return &PlanHandler{planSvc: planSvc}
}

// CreatePlan 创建学习计划
// POST /api/v1/plans
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.planSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handlePlanError(c, err)
		return
	}
	response.Created(c, result)
}

// GetPlan 获取学习计划详情
// GET /api/v1/plans/:id
func (h *PlanHandler) GetPlan(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.planSvc.GetByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handlePlanError(c, err)
		return
	}
	response.OK(c, result)
}

// ListPlans 获取当前用户的计划列表
// GET /api/v1/plans
func (h *PlanHandler) ListPlans(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.planSvc.List(c.Request.Context(), userID, &page)
	if err != nil {
		h.handlePlanError(c, err)
		return
	}
	response.OKPage(c, list, total, page.GetPage(), page.GetPageSize())
}

// UpdatePlan 更新学习计划
// PUT /api/v1/plans/:id
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.planSvc.Update(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handlePlanError(c, err)
		return
	}
	response.OK(c, result)
}

// DeletePlan 删除学习计划
// DELETE /api/v1/plans/:id
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.planSvc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.handlePlanError(c, err)
		return
	}
	response.OK(c, nil)
}

// CheckCapacity 检查指定日期的剩余容量
// GET /api/v1/plans/:id/capacity?date=2026-03-02&duration_minutes=60
func (h *PlanHandler) CheckCapacity(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CheckCapacityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.planSvc.CheckCapacity(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handlePlanError(c, err)
		return
	}
	response.OK(c, result)
}

// handlePlanError 统一处理学习计划模块业务错误
func (h *PlanHandler) handlePlanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDateInvalid):
		response.BadRequest(c, 10001, "日期格式应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrPlanNotFound):
		response.NotFound(c, 20001, "学习计划不存在")
	case errors.Is(err, service.ErrPlanForbidden):
		response.Forbidden(c, 20002, "无权访问该学习计划")
	default:
		response.InternalError(c)
	}
}
