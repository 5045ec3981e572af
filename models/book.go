package models

import (
	"time"

	"gorm.io/gorm"
)

// Book 书籍模型
type Book struct {
	ID            string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title         string         `gorm:"type:varchar(200);not null;index" json:"title"`
	Author        string         `gorm:"type:varchar(100);not null;index" json:"author"`
	Description   string         `gorm:"type:text" json:"description,omitempty"`
	PublishedYear int            `gorm:"comment:出版年份" json:"published_year,omitempty"`
	Genre         string         `gorm:"type:varchar(50);index" json:"genre,omitempty"`
	Publisher     string         `gorm:"type:varchar(100);not null" json:"publisher"`
	Price         float64        `gorm:"type:decimal(10,2);not null" json:"price"`
	ImageURL      string         `gorm:"type:varchar(255);comment:封面图片相对路径" json:"image_url,omitempty"`
	SellerID      string         `gorm:"type:varchar(36);index;not null;comment:卖家" json:"seller_id"`
	ViewCount     int64          `gorm:"default:0;comment:详情页浏览次数" json:"view_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// FavoriteCount 从 favorites 表推导，不落库
	FavoriteCount int64 `gorm:"-" json:"favorite_count"`

	// 关联关系
	Seller  User     `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Reviews []Review `gorm:"foreignKey:BookID" json:"reviews,omitempty"`
}

// TableName 指定表名
func (Book) TableName() string {
	return "books"
}

// BeforeCreate 创建前钩子
func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = generateUUID()
	}
	return nil
}
