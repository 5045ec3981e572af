package models

import (
	"time"

	"gorm.io/gorm"
)

// Favorite 收藏模型
// (user_id, book_id) 唯一，收藏/取消收藏是单条 INSERT/DELETE，
// 不做读-改-写的数组更新
type Favorite struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_book" json:"user_id"`
	BookID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_book;index" json:"book_id"`
	CreatedAt time.Time `json:"created_at"`

	// 关联关系
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Book Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

// TableName 指定表名
func (Favorite) TableName() string {
	return "favorites"
}

// BeforeCreate 创建前钩子
func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}
