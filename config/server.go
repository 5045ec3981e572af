package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RedisClient 全局 Redis 客户端实例
// Redis 是可选依赖：所有调用方必须做 nil 判断
var RedisClient *redis.Client

// InitializeRedis 初始化 Redis 客户端
func InitializeRedis() error {
	if !GetEnvBool("REDIS_ENABLED", true) {
		log.Println("⚠️  Redis disabled, running without cache and rate limiting")
		return nil
	}

	redisAddr := GetEnv("REDIS_ADDR", "localhost:6379")
	redisPassword := GetEnv("REDIS_PASSWORD", "")
	db := GetEnvInt("REDIS_DB", 0)

	// 创建Redis客户端
	RedisClient = redis.NewClient(&redis.Options{
		Addr:         redisAddr,
		Password:     redisPassword,
		DB:           db,
		PoolSize:     10,              // 连接池大小
		MinIdleConns: 5,               // 最小空闲连接
		MaxRetries:   3,               // 最大重试次数
		DialTimeout:  5 * time.Second, // 连接超时
		ReadTimeout:  3 * time.Second, // 读取超时
		WriteTimeout: 3 * time.Second, // 写入超时
		PoolTimeout:  4 * time.Second, // 从连接池获取连接的超时
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := RedisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("✅ Redis client initialized successfully")
	return nil
}

// CloseRedis 关闭 Redis 连接
func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}

// ServerConfig 服务器配置结构
type ServerConfig struct {
	Port       string
	Mode       string
	UploadPath string // 封面图片存储目录，同时作为静态目录对外暴露
}

// GetServerConfig 获取服务器配置
func GetServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:       GetEnv("SERVER_PORT", "8080"),
		Mode:       GetEnv("GIN_MODE", "debug"),
		UploadPath: GetEnv("UPLOAD_PATH", "./uploads"),
	}
}

// SetupRouter 创建Gin实例并挂载基础中间件
func SetupRouter() *gin.Engine {
	serverConfig := GetServerConfig()

	// 根据环境设置Gin模式
	gin.SetMode(serverConfig.Mode)

	r := gin.New()
	r.Use(gin.Recovery()) // 恢复panic

	// 上传的封面图片通过静态路由对外提供
	r.Static("/uploads", serverConfig.UploadPath)

	return r
}

// StartServer 启动HTTP服务
func StartServer(r *gin.Engine) error {
	serverConfig := GetServerConfig()
	addr := ":" + serverConfig.Port
	log.Printf("✅ Server listening on %s", addr)
	return r.Run(addr)
}
