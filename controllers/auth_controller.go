package controllers

import (
	"errors"

	"bookmarket_go/middleware"
	"bookmarket_go/services"
	"bookmarket_go/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthController 认证控制器
type AuthController struct {
	authService *services.AuthService
}

// NewAuthController 创建认证控制器实例
func NewAuthController() *AuthController {
	return &AuthController{
		authService: services.NewAuthService(),
	}
}

// Register 用户注册
// @Summary 用户注册
// @Description 新用户注册，成功后直接返回token
// @Accept json
// @Produce json
// @Param request body services.RegisterRequest true "注册信息"
// @Success 201 {object} utils.Response
// @Failure 409 {object} utils.Response "邮箱已被注册"
// @Router /api/auth/register [post]
func (ac *AuthController) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, formatBindError(err))
		return
	}

	user, token, err := ac.authService.Register(&req, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailExists):
			utils.Conflict(c, "该邮箱已被注册")
		case errors.Is(err, services.ErrTooManyRequests):
			utils.Forbidden(c, "操作过于频繁，请稍后再试")
		default:
			middleware.ErrorLogger("用户注册失败", zap.Error(err))
			utils.InternalError(c, "")
		}
		return
	}

	utils.Created(c, gin.H{
		"token": token,
		"user":  user,
	})
}

// Login 用户登录
// @Summary 用户登录
// @Description 邮箱密码登录，返回token
// @Accept json
// @Produce json
// @Param request body services.LoginRequest true "登录信息"
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response "邮箱或密码错误"
// @Router /api/auth/login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, formatBindError(err))
		return
	}

	user, token, err := ac.authService.Login(&req, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			// 账号不存在和密码错误返回同一个文案
			utils.Unauthorized(c, "邮箱或密码错误")
		case errors.Is(err, services.ErrTooManyRequests):
			utils.Forbidden(c, "操作过于频繁，请稍后再试")
		default:
			middleware.ErrorLogger("用户登录失败", zap.Error(err))
			utils.InternalError(c, "")
		}
		return
	}

	utils.SuccessWithMessage(c, "登录成功", gin.H{
		"token": token,
		"user":  user,
	})
}

// Logout 用户登出
// @Summary 用户登出
// @Description 将当前token加入黑名单
// @Produce json
// @Success 200 {object} utils.Response
// @Router /api/auth/logout [post]
func (ac *AuthController) Logout(c *gin.Context) {
	tokenString := middleware.ExtractToken(c)
	if tokenString != "" {
		if err := ac.authService.Logout(tokenString); err != nil {
			middleware.ErrorLogger("登出处理失败", zap.Error(err))
		}
	}

	utils.SuccessWithMessage(c, "登出成功", nil)
}

// GetCurrentUser 获取当前登录用户信息
// @Summary 当前用户
// @Produce json
// @Success 200 {object} utils.Response
// @Router /api/auth/me [get]
func (ac *AuthController) GetCurrentUser(c *gin.Context) {
	utils.Success(c, gin.H{
		"user_id": c.GetString("user_id"),
		"name":    c.GetString("user_name"),
		"email":   c.GetString("user_email"),
	})
}
