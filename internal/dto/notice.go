package dto

// ── 公告模块 DTO ──

// NoticeListRequest 公告列表查询参数（闭区间，RFC3339 或 YYYY-MM-DD）
type NoticeListRequest struct {
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}

// CreateNoticeRequest 发布公告请求
// 标题与正文的必填校验在 Service 层完成，以返回统一的业务错误
type CreateNoticeRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Important bool   `json:"important"`
}
