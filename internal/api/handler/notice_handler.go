package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"notice-board/internal/dto"
	"notice-board/internal/policy"
	"notice-board/internal/service"
	"notice-board/pkg/response"
)

// NoticeHandler 公告模块 HTTP 处理器
type NoticeHandler struct {
	noticeSvc service.NoticeService
}

// NewNoticeHandler 创建 NoticeHandler
func NewNoticeHandler(noticeSvc service.NoticeService) *NoticeHandler {
	return &NoticeHandler{noticeSvc: noticeSvc}
}

var noticeDenyCodes = map[policy.Reason]int{
	policy.ReasonInsufficientRole: 30005,
	policy.ReasonNotAuthorized:    30006,
}

// ListNotices 公告列表（公开），可按 startDate / endDate 过滤
// GET /api/notices
func (h *NoticeHandler) ListNotices(c *gin.Context) {
	var req dto.NoticeListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.noticeSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, result)
}

// CreateNotice 发布公告
// POST /api/notices
func (h *NoticeHandler) CreateNotice(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.noticeSvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, result)
}

// DeleteNotice 删除公告（作者本人或管理员）
// DELETE /api/notices/:id
func (h *NoticeHandler) DeleteNotice(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.noticeSvc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *NoticeHandler) handleError(c *gin.Context, err error) {
	if writeDenied(c, err, noticeDenyCodes) {
		return
	}
	switch {
	case errors.Is(err, service.ErrNoticeNotFound):
		response.NotFound(c, 30001, "公告不存在")
	case errors.Is(err, service.ErrNoticeFieldsRequired):
		response.BadRequest(c, 30002, "标题和内容不能为空")
	case errors.Is(err, service.ErrNoticeTitleTooLong):
		response.BadRequest(c, 30008, "标题不能超过 200 个字符")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 30003, "日期格式无效，应为 YYYY-MM-DD 或 RFC3339")
	case errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, 30004, "开始日期不能晚于结束日期")
	case errors.Is(err, service.ErrUserNotFound):
		// Token 有效但账号已被删除
		response.Unauthorized(c, 30007, "发布人账号不存在")
	default:
		response.InternalError(c)
	}
}
