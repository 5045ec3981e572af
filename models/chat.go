package models

import (
	"time"

	"gorm.io/gorm"
)

// Chat 买家与卖家围绕某本书的会话
// 同一买家对同一本书只有一个会话
type Chat struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	BookID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_buyer_book" json:"book_id"`
	BuyerID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_buyer_book;index" json:"buyer_id"`
	SellerID  string    `gorm:"type:varchar(36);not null;index" json:"seller_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"comment:最近一条消息时间" json:"updated_at"`

	// 关联关系
	Book     Book      `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Buyer    User      `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	Seller   User      `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Messages []Message `gorm:"foreignKey:ChatID" json:"messages,omitempty"`
}

// Message 会话消息
type Message struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ChatID    string    `gorm:"type:varchar(36);index;not null" json:"chat_id"`
	SenderID  string    `gorm:"type:varchar(36);index;not null" json:"sender_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`

	// 关联关系
	Chat   Chat `gorm:"foreignKey:ChatID" json:"chat,omitempty"`
	Sender User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

// TableName 指定表名
func (Chat) TableName() string {
	return "chats"
}

func (Message) TableName() string {
	return "messages"
}

// BeforeCreate 创建前钩子
func (c *Chat) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	return nil
}

// Counterpart 返回会话中另一方的用户ID
func (c *Chat) Counterpart(userID string) string {
	if userID == c.BuyerID {
		return c.SellerID
	}
	return c.BuyerID
}

// HasParticipant 判断用户是否是会话参与者
func (c *Chat) HasParticipant(userID string) bool {
	return userID == c.BuyerID || userID == c.SellerID
}
