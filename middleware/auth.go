package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bookmarket_go/config"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 认证中间件
// token 通过 x-auth-token 请求头传递（兼容 Authorization: Bearer）。
// 校验通过后只信任 claims 中的身份，不回查用户表；
// 已删除用户的 token 在过期前仍然有效，属于有意的取舍。
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ExtractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 40100, "message": "Token not found, authorization denied"})
			return
		}

		// 检查token是否已在黑名单中（登出后的token）
		if config.RedisClient != nil {
			blacklistKey := fmt.Sprintf("token:blacklist:%s", tokenString)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			exists, err := config.RedisClient.Exists(ctx, blacklistKey).Result()
			cancel()
			if err == nil && exists > 0 {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 40100, "message": "Invalid token"})
				return
			}
		}

		claims, err := config.GetJWTService().ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 40100, "message": "Invalid token"})
			return
		}

		// 将认证身份注入请求上下文
		c.Set("user_id", claims.UserID)
		c.Set("user_name", claims.Name)
		c.Set("user_email", claims.Email)
		c.Next()
	}
}

// ExtractToken 从请求头提取token
func ExtractToken(c *gin.Context) string {
	if token := c.GetHeader("x-auth-token"); token != "" {
		return token
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}
