package services

import (
	"errors"
	"fmt"
	"time"

	"bookmarket_go/config"
	"bookmarket_go/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ChatService 联系卖家会话服务
type ChatService struct{}

// NewChatService 创建会话服务实例
func NewChatService() *ChatService {
	return &ChatService{}
}

// StartChatRequest 发起会话请求
type StartChatRequest struct {
	BookID  string `json:"book_id" binding:"required"`
	Content string `json:"content" binding:"omitempty,max=2000"`
}

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}

// StartChat 买家围绕一本书发起会话
// 同一买家对同一本书复用已有会话；卖家从书上取得，不能联系自己
func (cs *ChatService) StartChat(buyerID string, req *StartChatRequest) (*models.Chat, error) {
	// 1. 查书，拿到卖家
	var book models.Book
	if err := config.DB.First(&book, "id = ?", req.BookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to load book: %w", err)
	}

	if book.SellerID == buyerID {
		return nil, ErrSelfChat
	}

	// 2. 已有会话则复用
	var chat models.Chat
	err := config.DB.Where("book_id = ? AND buyer_id = ?", req.BookID, buyerID).First(&chat).Error
	switch {
	case err == nil:
		// 复用
	case errors.Is(err, gorm.ErrRecordNotFound):
		chat = models.Chat{
			BookID:   req.BookID,
			BuyerID:  buyerID,
			SellerID: book.SellerID,
		}
		if err := config.DB.Create(&chat).Error; err != nil {
			// 并发发起撞上唯一索引，回查已有会话
			if isDuplicateKeyError(err) {
				if err := config.DB.Where("book_id = ? AND buyer_id = ?", req.BookID, buyerID).First(&chat).Error; err != nil {
					return nil, fmt.Errorf("failed to load chat: %w", err)
				}
			} else {
				return nil, fmt.Errorf("failed to create chat: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("failed to check chat: %w", err)
	}

	// 3. 带首条消息时直接发出去
	if req.Content != "" {
		if _, err := cs.appendMessage(&chat, buyerID, req.Content); err != nil {
			return nil, err
		}
	}

	// 4. 带关联信息返回
	if err := config.DB.Preload("Book").Preload("Buyer").Preload("Seller").
		First(&chat, "id = ?", chat.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload chat: %w", err)
	}

	return &chat, nil
}

// SendMessage 在会话中发送消息，只有参与者可以发
func (cs *ChatService) SendMessage(userID, chatID string, req *SendMessageRequest) (*models.Message, error) {
	var chat models.Chat
	if err := config.DB.First(&chat, "id = ?", chatID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}

	if !chat.HasParticipant(userID) {
		return nil, ErrForbidden
	}

	return cs.appendMessage(&chat, userID, req.Content)
}

// appendMessage 落库消息并刷新会话时间
func (cs *ChatService) appendMessage(chat *models.Chat, senderID, content string) (*models.Message, error) {
	message := models.Message{
		ChatID:   chat.ID,
		SenderID: senderID,
		Content:  content,
	}

	if err := config.DB.Create(&message).Error; err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	// 会话按最近消息时间排序
	config.DB.Model(chat).UpdateColumn("updated_at", time.Now())

	// 异步发布新消息事件，在线推送走这条流
	go func() {
		if config.RedisClient != nil {
			config.RedisClient.XAdd(redisCtx, &redis.XAddArgs{
				Stream: "chat_messages",
				Values: map[string]interface{}{
					"chat_id":      chat.ID,
					"message_id":   message.ID,
					"sender_id":    senderID,
					"recipient_id": chat.Counterpart(senderID),
					"timestamp":    time.Now().Unix(),
				},
			})
		}
	}()

	return &message, nil
}

// ListChats 获取用户参与的所有会话，按最近消息时间倒序
func (cs *ChatService) ListChats(userID string) ([]models.Chat, error) {
	var chats []models.Chat
	err := config.DB.
		Preload("Book").
		Preload("Buyer").
		Preload("Seller").
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	return chats, nil
}

// ListMessages 获取会话消息（时间正序），只有参与者可以看
func (cs *ChatService) ListMessages(userID, chatID string) ([]models.Message, error) {
	var chat models.Chat
	if err := config.DB.First(&chat, "id = ?", chatID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}

	if !chat.HasParticipant(userID) {
		return nil, ErrForbidden
	}

	var messages []models.Message
	err := config.DB.
		Preload("Sender").
		Where("chat_id = ?", chatID).
		Order("created_at").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, nil
}

// GetChat 获取单个会话，只有参与者可以看
func (cs *ChatService) GetChat(userID, chatID string) (*models.Chat, error) {
	var chat models.Chat
	err := config.DB.
		Preload("Book").
		Preload("Buyer").
		Preload("Seller").
		First(&chat, "id = ?", chatID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}

	if !chat.HasParticipant(userID) {
		return nil, ErrForbidden
	}

	return &chat, nil
}
