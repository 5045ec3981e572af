package models

import (
	"time"

	"gorm.io/gorm"
)

// Review 书籍评价模型
// 创建后不可修改，没有更新路由
type Review struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	BookID    string    `gorm:"type:varchar(36);index;not null" json:"book_id"`
	UserID    string    `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Rating    int       `gorm:"not null;comment:评分 1-5" json:"rating"`
	Comment   string    `gorm:"type:varchar(100);not null;comment:评论，最长100字符" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联关系
	Book Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Review) TableName() string {
	return "reviews"
}

// BeforeCreate 创建前钩子
func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	return nil
}
