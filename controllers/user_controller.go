package controllers

import (
	"errors"

	"bookmarket_go/middleware"
	"bookmarket_go/services"
	"bookmarket_go/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserController 用户控制器
type UserController struct {
	userService *services.UserService
}

// NewUserController 创建用户控制器实例
func NewUserController() *UserController {
	return &UserController{
		userService: services.NewUserService(),
	}
}

// ToggleFavoriteRequest 收藏切换请求
type ToggleFavoriteRequest struct {
	BookID string `json:"book_id" binding:"required"`
}

// ToggleFavorite 收藏/取消收藏
// @Summary 收藏切换
// @Description 已收藏则取消，未收藏则加入；返回切换后的收藏书籍ID集合
// @Accept json
// @Produce json
// @Param request body ToggleFavoriteRequest true "书籍ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /api/users/favorite [post]
func (uc *UserController) ToggleFavorite(c *gin.Context) {
	var req ToggleFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, formatBindError(err))
		return
	}

	userID := c.GetString("user_id")
	favorites, favorited, err := uc.userService.ToggleFavorite(userID, req.BookID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			utils.NotFound(c, "用户不存在")
		case errors.Is(err, services.ErrBookNotFound):
			utils.NotFound(c, "书籍不存在")
		default:
			middleware.ErrorLogger("收藏切换失败", zap.Error(err), zap.String("book_id", req.BookID))
			utils.InternalError(c, "")
		}
		return
	}

	message := "已取消收藏"
	if favorited {
		message = "收藏成功"
	}

	utils.SuccessWithMessage(c, message, gin.H{
		"favorited": favorited,
		"favorites": favorites,
	})
}

// ListFavorites 获取当前用户的收藏列表
// @Summary 收藏列表
// @Description 返回当前用户收藏的完整书籍记录
// @Produce json
// @Success 200 {object} utils.Response
// @Router /api/users/favorites [get]
func (uc *UserController) ListFavorites(c *gin.Context) {
	userID := c.GetString("user_id")

	books, err := uc.userService.ListFavorites(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.NotFound(c, "用户不存在")
			return
		}
		middleware.ErrorLogger("获取收藏列表失败", zap.Error(err))
		utils.InternalError(c, "")
		return
	}

	utils.Success(c, gin.H{
		"books": books,
		"total": len(books),
	})
}

// ListUsers 获取用户列表
// @Summary 用户列表
// @Produce json
// @Success 200 {object} utils.Response
// @Router /api/users [get]
func (uc *UserController) ListUsers(c *gin.Context) {
	users, err := uc.userService.ListUsers()
	if err != nil {
		middleware.ErrorLogger("获取用户列表失败", zap.Error(err))
		utils.InternalError(c, "")
		return
	}

	utils.Success(c, gin.H{
		"users": users,
		"total": len(users),
	})
}

// GetUser 获取用户信息
// @Summary 用户详情
// @Produce json
// @Param id path string true "用户ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /api/users/:id [get]
func (uc *UserController) GetUser(c *gin.Context) {
	user, err := uc.userService.GetUser(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.NotFound(c, "用户不存在")
			return
		}
		middleware.ErrorLogger("获取用户失败", zap.Error(err))
		utils.InternalError(c, "")
		return
	}

	utils.Success(c, gin.H{"user": user})
}

// UpdateUser 更新用户资料
// @Summary 更新用户
// @Description 只允许本人修改
// @Accept json
// @Produce json
// @Param id path string true "用户ID"
// @Success 200 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Router /api/users/:id [put]
func (uc *UserController) UpdateUser(c *gin.Context) {
	var req services.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, formatBindError(err))
		return
	}

	user, err := uc.userService.UpdateUser(c.GetString("user_id"), c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			utils.Forbidden(c, "只能修改自己的资料")
		case errors.Is(err, services.ErrUserNotFound):
			utils.NotFound(c, "用户不存在")
		case errors.Is(err, services.ErrEmailExists):
			utils.Conflict(c, "该邮箱已被注册")
		default:
			middleware.ErrorLogger("更新用户失败", zap.Error(err))
			utils.InternalError(c, "")
		}
		return
	}

	utils.Success(c, gin.H{"user": user})
}

// DeleteUser 删除用户
// @Summary 注销账号
// @Description 只允许本人注销
// @Produce json
// @Param id path string true "用户ID"
// @Success 200 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Router /api/users/:id [delete]
func (uc *UserController) DeleteUser(c *gin.Context) {
	if err := uc.userService.DeleteUser(c.GetString("user_id"), c.Param("id")); err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			utils.Forbidden(c, "只能注销自己的账号")
		case errors.Is(err, services.ErrUserNotFound):
			utils.NotFound(c, "用户不存在")
		default:
			middleware.ErrorLogger("删除用户失败", zap.Error(err))
			utils.InternalError(c, "")
		}
		return
	}

	utils.SuccessWithMessage(c, "账号已注销", nil)
}
