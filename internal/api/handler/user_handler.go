package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"notice-board/internal/dto"
	"notice-board/internal/policy"
	"notice-board/internal/service"
	"notice-board/pkg/response"
)

// UserHandler 用户管理 HTTP 处理器（路由层已限定管理员）
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

var userDenyCodes = map[policy.Reason]int{
	policy.ReasonInsufficientRole: 20006,
	policy.ReasonAdminCeiling:     20004,
	policy.ReasonLastAdmin:        20005,
	policy.ReasonInvalidRole:      20003,
}

// ListUsers 用户列表，附带管理员数量
// GET /api/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	result, err := h.userSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// CreateUser 管理员创建用户
// POST /api/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.userSvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, result)
}

// UpdateRole 修改用户角色
// PUT /api/users/:id/role
func (h *UserHandler) UpdateRole(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.userSvc.ChangeRole(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, result)
}

// DeleteUser 删除用户
// DELETE /api/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *UserHandler) handleError(c *gin.Context, err error) {
	if writeDenied(c, err, userDenyCodes) {
		return
	}
	switch {
	case errors.Is(err, service.ErrInvalidRole):
		response.BadRequest(c, 20003, "无效的角色")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 20001, "用户不存在")
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, 20002, "该邮箱已被注册")
	case errors.Is(err, service.ErrPasswordTooLong):
		response.BadRequest(c, 20007, "密码不能超过 72 字节")
	case errors.Is(err, service.ErrNameRequired):
		response.BadRequest(c, 20008, "姓名不能为空")
	default:
		response.InternalError(c)
	}
}
