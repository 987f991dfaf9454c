package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"studyflow/backend/internal/dto"
	"studyflow/backend/internal/service"
	"studyflow/backend/pkg/response"
)

// ImportHandler 批量导入模块 HTTP 处理器
type ImportHandler struct {
	importSvc service.ImportService
}

// NewImportHandler 创建 ImportHandler
func NewImportHandler(importSvc service.ImportService) *ImportHandler {
	return &ImportHandler{importSvc: importSvc}
}

// ParseTemplate 解析上传的 Excel 模板为导入行
// POST /api/v1/import/goals/parse  (multipart/form-data, 字段名 file)
func (h *ImportHandler) ParseTemplate(c *gin.Context) {
	if _, ok := MustGetUserID(c); !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "缺少上传文件")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, 40001, "导入文件格式无效")
		return
	}
	defer f.Close()

	rows, err := h.importSvc.ParseXLSX(f)
	if err != nil {
		h.handleImportError(c, err)
		return
	}

	response.OK(c, gin.H{"rows": rows, "total": len(rows)})
}

// ValidateBatch 批量导入预检（不落库）
// POST /api/v1/import/goals/validate
func (h *ImportHandler) ValidateBatch(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ValidateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.importSvc.ValidateBatch(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleImportError(c, err)
		return
	}
	response.OK(c, result)
}

// ImportBatch 执行批量导入
// POST /api/v1/import/goals
func (h *ImportHandler) ImportBatch(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ImportBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.importSvc.ImportBatch(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleImportError(c, err)
		return
	}
	response.OK(c, result)
}

// handleImportError 统一处理批量导入模块业务错误
func (h *ImportHandler) handleImportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrImportFileInvalid):
		response.BadRequest(c, 40001, "导入文件格式无效")
	case errors.Is(err, service.ErrImportFileEmpty):
		response.BadRequest(c, 40002, "导入文件中没有数据行")
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
