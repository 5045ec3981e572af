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

// UserService 用户服务
type UserService struct{}

// NewUserService 创建用户服务实例
func NewUserService() *UserService {
	return &UserService{}
}

// UpdateUserRequest 更新用户请求（部分字段）
type UpdateUserRequest struct {
	Name     string `json:"name" binding:"omitempty,min=2,max=50"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone" binding:"omitempty,max=20"`
	Address  string `json:"address" binding:"omitempty,max=255"`
	Nickname string `json:"nickname" binding:"omitempty,max=50"`
}

// ==================== 收藏 ====================

// ToggleFavorite 收藏/取消收藏
// favorites 表是唯一数据源：已收藏则删除一行，未收藏则插入一行。
// 单条语句落库，没有读-改-写竞态。
// 返回切换后的收藏书籍ID集合。
func (us *UserService) ToggleFavorite(userID, bookID string) ([]string, bool, error) {
	// 1. 用户必须存在
	if err := ensureUserExists(userID); err != nil {
		return nil, false, err
	}

	// 2. 书必须存在
	var book models.Book
	if err := config.DB.Select("id").First(&book, "id = ?", bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrBookNotFound
		}
		return nil, false, fmt.Errorf("failed to load book: %w", err)
	}

	// 3. 测试集合成员关系，决定方向
	var existing models.Favorite
	err := config.DB.Where("user_id = ? AND book_id = ?", userID, bookID).First(&existing).Error

	favorited := false
	switch {
	case err == nil:
		// 已收藏 -> 取消收藏
		if err := config.DB.Delete(&existing).Error; err != nil {
			return nil, false, fmt.Errorf("failed to remove favorite: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// 未收藏 -> 收藏
		favorite := models.Favorite{UserID: userID, BookID: bookID}
		if err := config.DB.Create(&favorite).Error; err != nil {
			// 并发切换撞上唯一索引时当作已收藏处理
			if !isDuplicateKeyError(err) {
				return nil, false, fmt.Errorf("failed to add favorite: %w", err)
			}
		}
		favorited = true
	default:
		return nil, false, fmt.Errorf("failed to check favorite: %w", err)
	}

	// 4. 异步记录收藏事件
	go func() {
		if config.RedisClient != nil {
			event := "unfavorite"
			if favorited {
				event = "favorite"
			}
			config.RedisClient.XAdd(redisCtx, &redis.XAddArgs{
				Stream: "favorite_events",
				Values: map[string]interface{}{
					"event":     event,
					"user_id":   userID,
					"book_id":   bookID,
					"timestamp": time.Now().Unix(),
				},
			})
		}
	}()

	// 5. 返回切换后的集合
	ids, err := us.favoriteIDs(userID)
	if err != nil {
		return nil, false, err
	}
	return ids, favorited, nil
}

// ListFavorites 获取用户收藏的完整书籍记录
func (us *UserService) ListFavorites(userID string) ([]models.Book, error) {
	if err := ensureUserExists(userID); err != nil {
		return nil, err
	}

	var books []models.Book
	err := config.DB.
		Joins("JOIN favorites ON favorites.book_id = books.id").
		Where("favorites.user_id = ?", userID).
		Order("favorites.created_at DESC").
		Find(&books).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}

	return books, nil
}

// favoriteIDs 获取用户收藏的书籍ID集合
func (us *UserService) favoriteIDs(userID string) ([]string, error) {
	var ids []string
	err := config.DB.Model(&models.Favorite{}).
		Where("user_id = ?", userID).
		Order("created_at").
		Pluck("book_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load favorite ids: %w", err)
	}
	return ids, nil
}

// ==================== 用户管理 ====================

// ListUsers 获取用户列表
func (us *UserService) ListUsers() ([]models.User, error) {
	var users []models.User
	if err := config.DB.Order("created_at").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetUser 按ID获取用户
func (us *UserService) GetUser(userID string) (*models.User, error) {
	var user models.User
	if err := config.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// UpdateUser 更新用户资料
// 只允许本人修改
func (us *UserService) UpdateUser(actorID, userID string, req *UpdateUserRequest) (*models.User, error) {
	if actorID != userID {
		return nil, ErrForbidden
	}

	user, err := us.GetUser(userID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" && req.Email != user.Email {
		// 更换邮箱时检查唯一性
		var existing models.User
		if err := config.DB.Where("email = ? AND id != ?", req.Email, userID).First(&existing).Error; err == nil {
			return nil, ErrEmailExists
		}
		updates["email"] = req.Email
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.Address != "" {
		updates["address"] = req.Address
	}
	if req.Nickname != "" {
		updates["nickname"] = req.Nickname
	}

	if len(updates) > 0 {
		if err := config.DB.Model(user).Updates(updates).Error; err != nil {
			if isDuplicateKeyError(err) {
				return nil, ErrEmailExists
			}
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	return us.GetUser(userID)
}

// DeleteUser 删除用户及其收藏记录
// 已签发的token会继续有效到过期，认证层不回查用户表
func (us *UserService) DeleteUser(actorID, userID string) error {
	if actorID != userID {
		return ErrForbidden
	}

	if err := ensureUserExists(userID); err != nil {
		return err
	}

	if err := config.DB.Where("user_id = ?", userID).Delete(&models.Favorite{}).Error; err != nil {
		return fmt.Errorf("failed to delete favorites: %w", err)
	}

	if err := config.DB.Delete(&models.User{}, "id = ?", userID).Error; err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}

// ensureUserExists 检查用户是否存在
func ensureUserExists(userID string) error {
	var user models.User
	if err := config.DB.Select("id").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	return nil
}
