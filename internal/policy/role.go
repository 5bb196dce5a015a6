package policy

import (
	"fmt"
	"strings"
)

// Role 账号角色（封闭枚举，新增角色需同步修改本包的 switch 分支）
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

// Roles 全部合法角色
var Roles = []Role{RoleAdmin, RoleTeacher, RoleStudent}

// Valid 是否为合法角色
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// ParseRole 解析角色字符串（忽略大小写与首尾空白）
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("无效的角色: %q", s)
	}
	return r, nil
}
