package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"notice-board/internal/policy"
	"notice-board/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetActor 从上下文构造策略层的 Actor（user_id + role）。
// Token 中的角色无法识别时返回 403。
func MustGetActor(c *gin.Context) (policy.Actor, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return policy.Actor{}, false
	}
	role, err := policy.ParseRole(c.GetString("role"))
	if err != nil {
		response.Forbidden(c, 10003, "无权限访问")
		return policy.Actor{}, false
	}
	return policy.Actor{UserID: userID, Role: role}, true
}

// tokenInfo 当前 Token 的 jti 与过期时间，供登出使用
func tokenInfo(c *gin.Context) (string, time.Time) {
	jti := c.GetString("token_jti")
	exp, _ := c.Get("token_exp")
	t, _ := exp.(time.Time)
	return jti, t
}

// denyMessages 策略拒绝原因对应的提示文案
var denyMessages = map[policy.Reason]string{
	policy.ReasonInsufficientRole: "当前角色无权执行此操作",
	policy.ReasonAdminCeiling:     "管理员数量已达上限",
	policy.ReasonLastAdmin:        "不能移除最后一位管理员",
	policy.ReasonNotAuthorized:    "仅作者本人或管理员可执行此操作",
	policy.ReasonInvalidRole:      "无效的角色",
}

// writeDenied 将策略拒绝写为 403，details 中携带原因。
// err 不是策略拒绝时返回 false。
func writeDenied(c *gin.Context, err error, codes map[policy.Reason]int) bool {
	var deny *policy.DenyError
	if !errors.As(err, &deny) {
		return false
	}
	code, ok := codes[deny.Reason]
	if !ok {
		code = 10003
	}
	response.ErrorWithDetails(c, http.StatusForbidden, code, denyMessages[deny.Reason], deny.Reason.String())
	return true
}
