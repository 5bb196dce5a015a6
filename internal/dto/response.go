package dto

import "time"

// ── 认证模块响应 ──

// AuthResponse 注册 / 登录响应
type AuthResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

// ── 用户模块响应 ──

// UserResponse 用户信息响应（不含密码）
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserListResponse 用户列表响应，附带当前管理员数量
type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	AdminCount int64          `json:"adminCount"`
}

// ── 公告模块响应 ──

// NoticeResponse 公告响应（作者姓名已反范式化）
type NoticeResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Important  bool      `json:"important"`
	CreatedAt  time.Time `json:"createdAt"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
}
