package websocket

import (
	"net/http"
	"sync"
	"time"

	"bookmarket_go/config"
	"bookmarket_go/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 跨域控制交给CORS中间件
	CheckOrigin: func(r *http.Request) bool { return true },
}

// PushMessage 推送给在线用户的消息
type PushMessage struct {
	Type     string `json:"type"`
	ChatID   string `json:"chat_id"`
	SenderID string `json:"sender_id"`
	Content  string `json:"content"`
	SentAt   int64  `json:"sent_at"`
}

// Client 一条在线连接
type Client struct {
	hub    *Hub
	userID string
	conn   *websocket.Conn
	send   chan *PushMessage
}

// Hub 按用户ID索引在线连接
// 推送是尽力而为：用户不在线消息只落库不推送
type Hub struct {
	mu      sync.RWMutex
	clients map[string][]*Client
}

// NewHub 创建连接中心
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string][]*Client),
	}
}

// HandleConnection 处理WebSocket连接升级
// token 通过 query 参数传递（浏览器WebSocket不能带自定义请求头）
func (h *Hub) HandleConnection(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		tokenString = middleware.ExtractToken(c)
	}
	if tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 40100, "message": "Token not found, authorization denied"})
		return
	}

	claims, err := config.GetJWTService().ValidateToken(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 40100, "message": "Invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		middleware.ErrorLogger("WebSocket升级失败", zap.Error(err))
		return
	}

	client := &Client{
		hub:    h,
		userID: claims.UserID,
		conn:   conn,
		send:   make(chan *PushMessage, 64),
	}

	h.register(client)
	middleware.InfoLogger("WebSocket连接建立",
		zap.String("user_id", claims.UserID),
		zap.Int("online_users", h.OnlineCount()))

	go client.writePump()
	go client.readPump()
}

// NotifyNewMessage 推送新消息给指定用户的所有在线连接
func (h *Hub) NotifyNewMessage(userID, chatID, senderID, content string) {
	msg := &PushMessage{
		Type:     "new_message",
		ChatID:   chatID,
		SenderID: senderID,
		Content:  content,
		SentAt:   time.Now().Unix(),
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[userID] {
		select {
		case client.send <- msg:
		default:
			// 发送缓冲满，跳过这条连接
		}
	}
}

// OnlineCount 在线用户数
func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// register 登记连接
func (h *Hub) register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.userID] = append(h.clients[client.userID], client)
}

// unregister 注销连接
func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.clients[client.userID]
	for i, c := range conns {
		if c == client {
			h.clients[client.userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.clients[client.userID]) == 0 {
		delete(h.clients, client.userID)
	}
}

// readPump 读取客户端消息
// 连接只用于下行推送，上行只处理心跳
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
		close(c.send)
		middleware.InfoLogger("WebSocket连接断开",
			zap.String("user_id", c.userID),
			zap.Int("online_users", c.hub.OnlineCount()))
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

// writePump 向客户端写入消息并维持心跳
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
