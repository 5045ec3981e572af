package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户模型
type User struct {
	ID        string    `gorm:"type:varchar(36);primaryKey;comment:用户ID (UUID)" json:"id"`
	Name      string    `gorm:"type:varchar(50);not null;comment:姓名" json:"name"`
	Email     string    `gorm:"type:varchar(100);uniqueIndex;not null;comment:邮箱" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null;comment:密码哈希" json:"-"` // 不返回给前端
	Phone     string    `gorm:"type:varchar(20);comment:手机号" json:"phone,omitempty"`
	Address   string    `gorm:"type:varchar(255);comment:地址" json:"address,omitempty"`
	Nickname  string    `gorm:"type:varchar(50);comment:昵称" json:"nickname,omitempty"`
	CreatedAt time.Time `gorm:"comment:创建时间" json:"created_at"`
	UpdatedAt time.Time `gorm:"comment:更新时间" json:"updated_at"`

	// 关联关系
	// 收藏关系以 favorites 表为唯一数据源，Book 侧的收藏人数通过查询推导
	Books     []Book     `gorm:"foreignKey:SellerID" json:"books,omitempty"`
	Favorites []Favorite `gorm:"foreignKey:UserID" json:"favorites,omitempty"`
	Reviews   []Review   `gorm:"foreignKey:UserID" json:"reviews,omitempty"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// BeforeCreate 创建前钩子
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

// DisplayName 评论区展示名：优先昵称
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Name
}
