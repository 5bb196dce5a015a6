package model

import "notice-board/internal/policy"

// User 账号表，对应 users
type User struct {
	UserID       string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name         string      `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string      `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash string      `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         policy.Role `gorm:"type:varchar(20);not null;default:'STUDENT'"    json:"role"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// PolicyAccount 转为策略层账号视图
func (u *User) PolicyAccount() policy.Account {
	return policy.Account{ID: u.UserID, Role: u.Role}
}
