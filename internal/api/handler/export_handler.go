package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"notice-board/internal/dto"
	"notice-board/internal/service"
	"notice-board/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportNotices 导出公告为 Excel
// GET /api/notices/export?startDate=&endDate=
func (h *ExportHandler) ExportNotices(c *gin.Context) {
	var req dto.NoticeListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.ExportNotices(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// Calendar 公告日历订阅源
// GET /api/notices/calendar.ics?startDate=&endDate=
func (h *ExportHandler) Calendar(c *gin.Context) {
	var req dto.NoticeListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	data, err := h.exportSvc.Calendar(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="notices.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 30003, "日期格式无效，应为 YYYY-MM-DD 或 RFC3339")
	case errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, 30004, "开始日期不能晚于结束日期")
	default:
		response.InternalError(c)
	}
}
