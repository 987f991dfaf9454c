package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"studyflow/backend/internal/service"
	"studyflow/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportPlanXLSX 导出计划目标为 Excel
// GET /api/v1/export/plans/:id/xlsx?date_from=2026-03-01&date_to=2026-03-31
func (h *ExportHandler) ExportPlanXLSX(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	from, to, ok := h.parseRange(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportPlanXLSX(c.Request.Context(), userID, c.Param("id"), from, to)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	setDownloadHeaders(c, filename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ExportPlanICS 导出计划目标为 iCalendar
// GET /api/v1/export/plans/:id/ics?date_from=2026-03-01&date_to=2026-03-31
func (h *ExportHandler) ExportPlanICS(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	from, to, ok := h.parseRange(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportPlanICS(c.Request.Context(), userID, c.Param("id"), from, to)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	setDownloadHeaders(c, filename)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

// parseRange 解析导出区间，非法时写入 400 响应
func (h *ExportHandler) parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	from, err := time.Parse("2006-01-02", c.Query("date_from"))
	if err != nil {
		response.BadRequest(c, 10001, "date_from 格式应为 YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse("2006-01-02", c.Query("date_to"))
	if err != nil {
		response.BadRequest(c, 10001, "date_to 格式应为 YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	if to.Before(from) {
		response.BadRequest(c, 10001, "date_to 不能早于 date_from")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func setDownloadHeaders(c *gin.Context, filename string) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
}

// handleExportError 统一处理导出模块业务错误
func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoGoals):
		response.NotFound(c, 40101, "该计划在所选区间内没有目标")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	case errors.Is(err, service.ErrPlanNotFound):
		response.NotFound(c, 20001, "学习计划不存在")
	case errors.Is(err, service.ErrPlanForbidden):
		response.Forbidden(c, 20002, "无权访问该学习计划")
	default:
		response.InternalError(c)
	}
}
