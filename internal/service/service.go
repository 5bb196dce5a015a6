package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"notice-board/config"
	"notice-board/internal/repository"
	"notice-board/pkg/jwt"
)

// TokenBlacklist Token 黑名单（由 Redis 实现；未配置时为 nil，登出降级为无操作）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth   AuthService
	User   UserService
	Notice NoticeService
	Export ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:   NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		User:   NewUserService(cfg, repo, logger),
		Notice: NewNoticeService(repo, logger),
		Export: NewExportService(repo, logger),
	}
}
