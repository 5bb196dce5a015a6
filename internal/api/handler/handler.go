package handler

import "notice-board/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth   *AuthHandler
	User   *UserHandler
	Notice *NoticeHandler
	Export *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:   NewAuthHandler(svc.Auth),
		User:   NewUserHandler(svc.User),
		Notice: NewNoticeHandler(svc.Notice),
		Export: NewExportHandler(svc.Export),
	}
}
