package controllers

import (
	"errors"

	"bookmarket_go/middleware"
	"bookmarket_go/services"
	"bookmarket_go/utils"
	"bookmarket_go/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatController 联系卖家会话控制器
type ChatController struct {
	chatService *services.ChatService
	hub         *websocket.Hub
}

// NewChatController 创建会话控制器实例
func NewChatController(hub *websocket.Hub) *ChatController {
	return &ChatController{
		chatService: services.NewChatService(),
		hub:         hub,
	}
}

// StartChat 发起会话
// @Summary 联系卖家
// @Description 买家围绕一本书发起会话；同一买家对同一本书复用已有会话
// @Accept json
// @Produce json
// @Param request body services.StartChatRequest true "书籍ID和可选首条消息"
// @Success 201 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /api/chats [post]
func (cc *ChatController) StartChat(c *gin.Context) {
	var req services.StartChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, formatBindError(err))
		return
	}

	buyerID := c.GetString("user_id")
	chat, err := cc.chatService.StartChat(buyerID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			utils.NotFound(c, "书籍不存在")
		case errors.Is(err, services.ErrSelfChat):
			utils.BadRequest(c, "不能联系自己发布的书籍")
		default:
			middleware.ErrorLogger("发起会话失败", zap.Error(err), zap.String("book_id", req.BookID))
			utils.InternalError(c, "")
		}
		return
	}

	// 带首条消息时在线推送给卖家
	if req.Content != "" && cc.hub != nil {
		cc.hub.NotifyNewMessage(chat.SellerID, chat.ID, buyerID, req.Content)
	}

	utils.Created(c, gin.H{"chat": chat})
}

// ListChats 获取当前用户的会话列表
// @Summary 会话列表
// @Description 返回当前用户作为买家或卖家参与的所有会话，按最近消息时间倒序
// @Produce json
// @Success 200 {object} utils.Response
// @Router /api/chats [get]
func (cc *ChatController) ListChats(c *gin.Context) {
	chats, err := cc.chatService.ListChats(c.GetString("user_id"))
	if err != nil {
		middleware.ErrorLogger("获取会话列表失败", zap.Error(err))
		utils.InternalError(c, "")
		return
	}

	utils.Success(c, gin.H{
		"chats": chats,
		"total": len(chats),
	})
}

// ListMessages 获取会话消息
// @Summary 会话消息
// @Description 只有会话参与者可以查看
// @Produce json
// @Param id path string true "会话ID"
// @Success 200 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /api/chats/:id/messages [get]
func (cc *ChatController) ListMessages(c *gin.Context) {
	chatID := c.Param("id")

	messages, err := cc.chatService.ListMessages(c.GetString("user_id"), chatID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrChatNotFound):
			utils.NotFound(c, "会话不存在")
		case errors.Is(err, services.ErrForbidden):
			utils.Forbidden(c, "您不是该会话的参与者")
		default:
			middleware.ErrorLogger("获取会话消息失败", zap.Error(err), zap.String("chat_id", chatID))
			utils.InternalError(c, "")
		}
		return
	}

	utils.Success(c, gin.H{
		"messages": messages,
		"total":    len(messages),
	})
}

// SendMessage 在会话中发送消息
// @Summary 发送消息
// @Description 只有会话参与者可以发送，在线时推送给对方
// @Accept json
// @Produce json
// @Param id path string true "会话ID"
// @Param request body services.SendMessageRequest true "消息内容"
// @Success 201 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /api/chats/:id/messages [post]
func (cc *ChatController) SendMessage(c *gin.Context) {
	chatID := c.Param("id")

	var req services.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, formatBindError(err))
		return
	}

	senderID := c.GetString("user_id")
	message, err := cc.chatService.SendMessage(senderID, chatID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrChatNotFound):
			utils.NotFound(c, "会话不存在")
		case errors.Is(err, services.ErrForbidden):
			utils.Forbidden(c, "您不是该会话的参与者")
		default:
			middleware.ErrorLogger("发送消息失败", zap.Error(err), zap.String("chat_id", chatID))
			utils.InternalError(c, "")
		}
		return
	}

	// 对方在线时实时推送，失败不影响请求
	if cc.hub != nil {
		chat, err := cc.chatService.GetChat(senderID, chatID)
		if err == nil {
			cc.hub.NotifyNewMessage(chat.Counterpart(senderID), chatID, senderID, message.Content)
		}
	}

	utils.Created(c, gin.H{"message": message})
}
