package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"studyflow/backend/internal/dto"
	"studyflow/backend/internal/service"
	"studyflow/backend/pkg/response"
)

// RuleHandler 排期规则模块 HTTP 处理器
type RuleHandler struct {
	ruleSvc service.RuleService
}

// NewRuleHandler 创建 RuleHandler
func NewRuleHandler(ruleSvc service.RuleService) *RuleHandler {
	return &RuleHandler{ruleSvc: ruleSvc}
}

// ListRules 获取排期规则列表
// GET /api/v1/scheduling-rules
func (h *RuleHandler) ListRules(c *gin.Context) {
	rules, err := h.ruleSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": rules})
}

// GetRule 获取排期规则详情
// GET /api/v1/scheduling-rules/:code
func (h *RuleHandler) GetRule(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, 10001, "规则编码不能为空")
		return
	}

	rule, err := h.ruleSvc.GetByCode(c.Request.Context(), code)
	if err != nil {
		h.handleRuleError(c, err)
		return
	}

	response.OK(c, rule)
}

// UpdateRule 更新排期规则（启用/禁用）
// PUT /api/v1/scheduling-rules/:code
func (h *RuleHandler) UpdateRule(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, 10001, "规则编码不能为空")
		return
	}

	var req dto.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	rule, err := h.ruleSvc.Update(c.Request.Context(), code, &req, callerID)
	if err != nil {
		h.handleRuleError(c, err)
		return
	}

	response.OK(c, rule)
}

// handleRuleError 统一处理排期规则模块业务错误
func (h *RuleHandler) handleRuleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRuleNotFound):
		response.NotFound(c, 51001, "排期规则不存在")
	case errors.Is(err, service.ErrRuleNotConfigurable):
		response.BadRequest(c, 51002, "该规则不可配置")
	default:
		response.InternalError(c)
	}
}
