package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"bookmarket_go/config"
	"bookmarket_go/models"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var redisCtx = context.Background()

// AuthConfig 认证配置
type AuthConfig struct {
	MaxLoginAttempts     int           // 最大登录失败次数
	LoginBlockDuration   time.Duration // 登录封禁时长
	RegisterLimitPerHour int           // 每小时最大注册次数
}

// AuthService 认证服务
type AuthService struct {
	jwtService *config.JWTService
	authConfig *AuthConfig
	// 登录失败记录队列
	loginFailureQueue chan *LoginFailure
	// IP封禁检查缓存
	ipBlockCache sync.Map // IP -> BlockInfo
}

// LoginFailure 登录失败记录
type LoginFailure struct {
	Email     string
	IP        string
	Timestamp time.Time
	UserAgent string
}

// BlockInfo IP封禁信息
type BlockInfo struct {
	UnblockTime time.Time
	Reason      string
}

// NewAuthService 创建认证服务实例
func NewAuthService() *AuthService {
	as := &AuthService{
		jwtService: config.GetJWTService(),
		authConfig: &AuthConfig{
			MaxLoginAttempts:     5,
			LoginBlockDuration:   15 * time.Minute,
			RegisterLimitPerHour: 5,
		},
		loginFailureQueue: make(chan *LoginFailure, 1000),
	}

	// 启动登录失败处理worker
	as.startLoginFailureWorker()

	return as
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=100"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ==================== 注册 ====================

// Register 用户注册
func (as *AuthService) Register(req *RegisterRequest, clientIP string) (*models.User, string, error) {
	// 1. 检查IP是否被封禁
	if as.isIPBlocked(clientIP) {
		return nil, "", ErrTooManyRequests
	}

	// 2. 检查注册频率限制（使用Redis）
	if config.RedisClient != nil && clientIP != "" {
		registerLimitKey := fmt.Sprintf("register:limit:%s", clientIP)
		count, _ := config.RedisClient.Get(redisCtx, registerLimitKey).Int64()
		if count >= int64(as.authConfig.RegisterLimitPerHour) {
			return nil, "", ErrTooManyRequests
		}
	}

	// 3. 检查邮箱是否已存在（快路径，唯一索引兜底）
	var existingUser models.User
	if err := config.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		return nil, "", ErrEmailExists
	}

	// 4. 密码加密，只存哈希
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	// 5. 创建用户
	user := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPassword),
	}

	if err := config.DB.Create(&user).Error; err != nil {
		// 并发注册可能双双通过存在性检查，由唯一索引裁决
		if isDuplicateKeyError(err) {
			return nil, "", ErrEmailExists
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	// 6. 增加注册计数
	if config.RedisClient != nil && clientIP != "" {
		registerLimitKey := fmt.Sprintf("register:limit:%s", clientIP)
		config.RedisClient.Incr(redisCtx, registerLimitKey)
		config.RedisClient.Expire(redisCtx, registerLimitKey, time.Hour)
	}

	// 7. 生成JWT token
	token, err := as.jwtService.GenerateToken(user.ID, user.Name, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	// 8. 异步记录注册事件（用于统计分析）
	go func() {
		if config.RedisClient != nil {
			config.RedisClient.Incr(redisCtx, "stats:register:total")
			config.RedisClient.XAdd(redisCtx, &redis.XAddArgs{
				Stream: "user_events",
				Values: map[string]interface{}{
					"event":     "register",
					"user_id":   user.ID,
					"email":     user.Email,
					"ip":        clientIP,
					"timestamp": time.Now().Unix(),
				},
			})
		}
	}()

	return &user, token, nil
}

// ==================== 登录 ====================

// Login 用户登录
// 邮箱不存在和密码错误返回同一个错误，不暴露账号是否存在
func (as *AuthService) Login(req *LoginRequest, clientIP, userAgent string) (*models.User, string, error) {
	// 1. 检查IP是否被封禁
	if as.isIPBlocked(clientIP) {
		return nil, "", ErrTooManyRequests
	}

	// 2. 检查登录频率限制（基于IP和邮箱）
	if config.RedisClient != nil {
		loginLimitKey := fmt.Sprintf("login:limit:%s:%s", req.Email, clientIP)
		attempts, _ := config.RedisClient.Get(redisCtx, loginLimitKey).Int64()

		if attempts >= int64(as.authConfig.MaxLoginAttempts) {
			as.blockIP(clientIP, "too many failed login attempts")
			return nil, "", ErrTooManyRequests
		}
	}

	// 3. 查找用户
	var user models.User
	if err := config.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		as.recordLoginFailure(req.Email, clientIP, userAgent)
		return nil, "", ErrInvalidCredentials
	}

	// 4. 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		as.recordLoginFailure(req.Email, clientIP, userAgent)
		return nil, "", ErrInvalidCredentials
	}

	// 5. 清除该邮箱+IP的失败计数
	if config.RedisClient != nil {
		loginLimitKey := fmt.Sprintf("login:limit:%s:%s", req.Email, clientIP)
		config.RedisClient.Del(redisCtx, loginLimitKey)
	}
	as.ipBlockCache.Delete(clientIP)

	// 6. 生成JWT token
	token, err := as.jwtService.GenerateToken(user.ID, user.Name, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	// 7. 异步记录登录日志
	go func() {
		if config.RedisClient != nil {
			config.RedisClient.XAdd(redisCtx, &redis.XAddArgs{
				Stream: "login_logs",
				Values: map[string]interface{}{
					"user_id":    user.ID,
					"email":      user.Email,
					"ip":         clientIP,
					"user_agent": userAgent,
					"timestamp":  time.Now().Unix(),
				},
			})
		}
	}()

	return &user, token, nil
}

// Logout 用户登出
// token本身是无状态的；Redis可用时将其拉黑到自然过期
func (as *AuthService) Logout(tokenString string) error {
	if config.RedisClient == nil {
		return nil
	}

	claims, err := as.jwtService.ValidateToken(tokenString)
	if err != nil {
		return err
	}

	expiration := time.Until(claims.ExpiresAt.Time)
	if expiration > 0 {
		blacklistKey := fmt.Sprintf("token:blacklist:%s", tokenString)
		config.RedisClient.Set(redisCtx, blacklistKey, "1", expiration)
	}

	return nil
}

// ==================== IP封禁 ====================

// isIPBlocked 检查IP是否被封禁
func (as *AuthService) isIPBlocked(ip string) bool {
	if ip == "" {
		return false
	}

	// 1. 检查内存缓存
	if info, exists := as.ipBlockCache.Load(ip); exists {
		blockInfo := info.(*BlockInfo)
		if time.Now().Before(blockInfo.UnblockTime) {
			return true
		}
		// 已过期，删除缓存
		as.ipBlockCache.Delete(ip)
	}

	// 2. 检查Redis
	if config.RedisClient != nil {
		blockKey := fmt.Sprintf("ip:blocked:%s", ip)
		exists, _ := config.RedisClient.Exists(redisCtx, blockKey).Result()
		if exists > 0 {
			return true
		}
	}

	return false
}

// blockIP 封禁IP
func (as *AuthService) blockIP(ip, reason string) {
	unblockTime := time.Now().Add(as.authConfig.LoginBlockDuration)

	// 1. 内存缓存（快速检查）
	as.ipBlockCache.Store(ip, &BlockInfo{
		UnblockTime: unblockTime,
		Reason:      reason,
	})

	// 2. Redis（跨进程）
	if config.RedisClient != nil {
		blockKey := fmt.Sprintf("ip:blocked:%s", ip)
		config.RedisClient.Set(redisCtx, blockKey, reason, as.authConfig.LoginBlockDuration)

		config.RedisClient.XAdd(redisCtx, &redis.XAddArgs{
			Stream: "security_events",
			Values: map[string]interface{}{
				"event":      "ip_blocked",
				"ip":         ip,
				"reason":     reason,
				"unblock_at": unblockTime.Unix(),
				"timestamp":  time.Now().Unix(),
			},
		})
	}
}

// ==================== 登录失败处理 ====================

// startLoginFailureWorker 启动登录失败处理worker
func (as *AuthService) startLoginFailureWorker() {
	go func() {
		for failure := range as.loginFailureQueue {
			as.processLoginFailure(failure)
		}
	}()
}

// processLoginFailure 处理登录失败
func (as *AuthService) processLoginFailure(failure *LoginFailure) {
	if config.RedisClient == nil {
		return
	}

	// 1. 记录到Redis Stream
	config.RedisClient.XAdd(redisCtx, &redis.XAddArgs{
		Stream: "login_failures",
		Values: map[string]interface{}{
			"email":      failure.Email,
			"ip":         failure.IP,
			"user_agent": failure.UserAgent,
			"timestamp":  failure.Timestamp.Unix(),
		},
	})

	// 2. 检查该IP在短时间内的失败次数，超阈值封禁
	ipFailureKey := fmt.Sprintf("login:failures:ip:%s", failure.IP)
	count, _ := config.RedisClient.Incr(redisCtx, ipFailureKey).Result()
	config.RedisClient.Expire(redisCtx, ipFailureKey, time.Hour)

	if count >= 10 {
		as.blockIP(failure.IP, "multiple login failures")
	}
}

// recordLoginFailure 记录登录失败
func (as *AuthService) recordLoginFailure(email, ip, userAgent string) {
	failure := &LoginFailure{
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Timestamp: time.Now(),
	}

	select {
	case as.loginFailureQueue <- failure:
	default:
		// 队列满，丢弃，不阻塞登录请求
	}

	// 增加失败计数
	if config.RedisClient != nil {
		loginLimitKey := fmt.Sprintf("login:limit:%s:%s", email, ip)
		config.RedisClient.Incr(redisCtx, loginLimitKey)
		config.RedisClient.Expire(redisCtx, loginLimitKey, as.authConfig.LoginBlockDuration)
	}
}

// isDuplicateKeyError 判断是否唯一索引冲突
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// MySQL 1062 / sqlite UNIQUE constraint
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint")
}
