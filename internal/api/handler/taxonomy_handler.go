package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"studyflow/backend/internal/service"
	"studyflow/backend/pkg/response"
)

// TaxonomyHandler 知识分类模块 HTTP 处理器（只读目录）
type TaxonomyHandler struct {
	taxonomySvc service.TaxonomyService
}

// NewTaxonomyHandler 创建 TaxonomyHandler
func NewTaxonomyHandler(taxonomySvc service.TaxonomyService) *TaxonomyHandler {
	return &TaxonomyHandler{taxonomySvc: taxonomySvc}
}

// ListDisciplines 获取学科列表
// GET /api/v1/disciplines
func (h *TaxonomyHandler) ListDisciplines(c *gin.Context) {
	disciplines, err := h.taxonomySvc.ListDisciplines(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": disciplines})
}

// GetDisciplineTree 获取学科完整层级树（学科→科目→主题→子主题）
// GET /api/v1/disciplines/:id/tree
func (h *TaxonomyHandler) GetDisciplineTree(c *gin.Context) {
	tree, err := h.taxonomySvc.GetDisciplineTree(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrDisciplineNotFound) {
			response.NotFound(c, 70001, "学科不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, tree)
}
