package model

import (
	"time"

	"notice-board/internal/policy"
)

// Notice 公告表，对应 notices
// AuthorID 在作者被删除后置空（允许成为无主公告）
type Notice struct {
	NoticeID  string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Title     string    `gorm:"type:varchar(200);not null"                     json:"title"`
	Content   string    `gorm:"type:text;not null"                             json:"content"`
	Important bool      `gorm:"not null;default:false"                         json:"important"`
	AuthorID  *string   `gorm:"type:uuid"                                      json:"authorId"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"createdAt"`

	// 关联
	Author *User `gorm:"foreignKey:AuthorID;references:UserID;constraint:OnDelete:SET NULL" json:"author,omitempty"`
}

// TableName 指定表名
func (Notice) TableName() string { return "notices" }

// PolicyNotice 转为策略层公告视图
func (n *Notice) PolicyNotice() policy.Notice {
	pn := policy.Notice{ID: n.NoticeID}
	if n.AuthorID != nil {
		pn.AuthorID = *n.AuthorID
	}
	return pn
}

// AuthorName 作者姓名，无主公告返回空串
func (n *Notice) AuthorName() string {
	if n.Author == nil {
		return ""
	}
	return n.Author.Name
}
