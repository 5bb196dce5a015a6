package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"notice-board/config"
	"notice-board/internal/dto"
	"notice-board/internal/model"
	"notice-board/internal/policy"
	"notice-board/internal/repository"
)

// ── 用户模块业务错误 ──

var ErrInvalidRole = errors.New("无效的角色")

// UserService 用户管理业务接口（仅管理员调用）
//
// 所有会影响管理员数量的写操作都在单个事务内完成：
// 先获取管理员集合锁，再读取数量、调用策略判定、执行写入。
type UserService interface {
	List(ctx context.Context) (*dto.UserListResponse, error)
	Create(ctx context.Context, actor policy.Actor, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	ChangeRole(ctx context.Context, actor policy.Actor, id string, req *dto.UpdateRoleRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, actor policy.Actor, id string) error
}

type userService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{cfg: cfg, repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context) (*dto.UserListResponse, error) {
	users, err := s.repo.User.List(ctx)
	if err != nil {
		s.logger.Error("列出用户失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.UserListResponse{Users: make([]dto.UserResponse, 0, len(users))}
	for i := range users {
		if users[i].Role == policy.RoleAdmin {
			resp.AdminCount++
		}
		resp.Users = append(resp.Users, *toUserResponse(&users[i]))
	}
	return resp, nil
}

// ────────────────────── Create ──────────────────────

func (s *userService) Create(ctx context.Context, actor policy.Actor, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	requested, err := policy.ParseRole(req.Role)
	if err != nil {
		return nil, ErrInvalidRole
	}

	name, err := checkAccountInput(req.Name, req.Password)
	if err != nil {
		return nil, err
	}

	// 哈希较慢，放在事务外
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.Auth.BcryptCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	email := normalizeEmail(req.Email)
	var created *model.User

	err = s.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		if _, err := tx.User.GetByEmail(ctx, email); err == nil {
			return ErrEmailExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var adminCount int64
		if requested == policy.RoleAdmin {
			if err := tx.User.LockAdminSet(ctx); err != nil {
				return err
			}
			n, err := tx.User.CountByRole(ctx, policy.RoleAdmin, "")
			if err != nil {
				return err
			}
			adminCount = n
		}

		role, decision := policy.CanCreateAccount(&actor, requested, adminCount)
		if err := decision.Err(); err != nil {
			s.logDenied("创建用户被拒绝", actor, decision, zap.String("role", requested.String()))
			return err
		}

		user := &model.User{
			Name:         name,
			Email:        email,
			PasswordHash: string(hash),
			Role:         role,
		}
		if err := tx.User.Create(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailExists
			}
			return err
		}
		created = user
		return nil
	})
	if err != nil {
		return nil, s.passThrough("创建用户失败", err)
	}

	s.logger.Info("用户已创建",
		zap.String("id", created.UserID),
		zap.String("role", created.Role.String()),
		zap.String("by", actor.UserID),
	)
	return toUserResponse(created), nil
}

// ────────────────────── ChangeRole ──────────────────────

func (s *userService) ChangeRole(ctx context.Context, actor policy.Actor, id string, req *dto.UpdateRoleRequest) (*dto.UserResponse, error) {
	requested, err := policy.ParseRole(req.Role)
	if err != nil {
		return nil, ErrInvalidRole
	}

	var updated *model.User
	err = s.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		// 升级与降级都会改变管理员数量，统一加锁
		if err := tx.User.LockAdminSet(ctx); err != nil {
			return err
		}

		user, err := tx.User.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		others, err := tx.User.CountByRole(ctx, policy.RoleAdmin, user.UserID)
		if err != nil {
			return err
		}

		decision := policy.CanChangeRole(actor, user.PolicyAccount(), requested, others)
		if err := decision.Err(); err != nil {
			s.logDenied("修改角色被拒绝", actor, decision, zap.String("target", id), zap.String("role", requested.String()))
			return err
		}

		if user.Role != requested {
			if err := tx.User.UpdateRole(ctx, user.UserID, requested); err != nil {
				return err
			}
			user.Role = requested
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, s.passThrough("修改角色失败", err, zap.String("id", id))
	}

	return toUserResponse(updated), nil
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	err := s.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		if err := tx.User.LockAdminSet(ctx); err != nil {
			return err
		}

		user, err := tx.User.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		adminCount, err := tx.User.CountByRole(ctx, policy.RoleAdmin, "")
		if err != nil {
			return err
		}

		decision := policy.CanDeleteAccount(actor, user.PolicyAccount(), adminCount)
		if err := decision.Err(); err != nil {
			s.logDenied("删除用户被拒绝", actor, decision, zap.String("target", id))
			return err
		}

		if err := tx.User.Delete(ctx, user.UserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return s.passThrough("删除用户失败", err, zap.String("id", id))
	}

	s.logger.Info("用户已删除", zap.String("id", id), zap.String("by", actor.UserID))
	return nil
}

// ── 内部辅助方法 ──

// passThrough 业务错误原样返回，其余错误记录日志后返回
func (s *userService) passThrough(msg string, err error, fields ...zap.Field) error {
	var deny *policy.DenyError
	switch {
	case errors.As(err, &deny),
		errors.Is(err, ErrEmailExists),
		errors.Is(err, ErrUserNotFound):
		return err
	}
	s.logger.Error(msg, append(fields, zap.Error(err))...)
	return err
}

func (s *userService) logDenied(msg string, actor policy.Actor, d policy.Decision, fields ...zap.Field) {
	s.logger.Info(msg, append([]zap.Field{
		zap.String("actor", actor.UserID),
		zap.String("reason", d.Reason().String()),
	}, fields...)...)
}
