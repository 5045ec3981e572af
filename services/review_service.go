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

// ReviewService 评论服务
type ReviewService struct{}

// NewReviewService 创建评论服务实例
func NewReviewService() *ReviewService {
	return &ReviewService{}
}

// CreateReviewRequest 创建评论请求
// 评分1-5整数，评论内容必填且不超过100字符
type CreateReviewRequest struct {
	BookID  string `json:"book_id" binding:"required"`
	Rating  int    `json:"rating" binding:"required,gte=1,lte=5"`
	Comment string `json:"comment" binding:"required,max=100"`
}

// CreateReview 创建评论
// 评论只能创建，不提供修改和删除
func (rs *ReviewService) CreateReview(userID string, req *CreateReviewRequest) (*models.Review, error) {
	// 1. 书必须存在
	var book models.Book
	if err := config.DB.Select("id").First(&book, "id = ?", req.BookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to load book: %w", err)
	}

	// 2. 创建评论
	review := models.Review{
		BookID:  req.BookID,
		UserID:  userID,
		Rating:  req.Rating,
		Comment: req.Comment,
	}

	if err := config.DB.Create(&review).Error; err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	// 3. 带上评论人信息返回
	if err := config.DB.Preload("User").First(&review, "id = ?", review.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload review: %w", err)
	}

	// 4. 异步记录评论事件
	go func() {
		if config.RedisClient != nil {
			config.RedisClient.XAdd(redisCtx, &redis.XAddArgs{
				Stream: "review_events",
				Values: map[string]interface{}{
					"event":     "review_created",
					"review_id": review.ID,
					"book_id":   req.BookID,
					"user_id":   userID,
					"rating":    req.Rating,
					"timestamp": time.Now().Unix(),
				},
			})
		}
	}()

	return &review, nil
}

// ListByBook 获取指定书籍的评论列表（最新优先），带评论人信息
func (rs *ReviewService) ListByBook(bookID string) ([]models.Review, error) {
	// 书必须存在
	var book models.Book
	if err := config.DB.Select("id").First(&book, "id = ?", bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to load book: %w", err)
	}

	var reviews []models.Review
	err := config.DB.
		Preload("User").
		Where("book_id = ?", bookID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	return reviews, nil
}

// AverageRating 计算书籍的平均评分，没有评论时返回0
func (rs *ReviewService) AverageRating(bookID string) (float64, int64, error) {
	var count int64
	if err := config.DB.Model(&models.Review{}).Where("book_id = ?", bookID).Count(&count).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	if count == 0 {
		return 0, 0, nil
	}

	var avg float64
	err := config.DB.Model(&models.Review{}).
		Where("book_id = ?", bookID).
		Select("AVG(rating)").
		Scan(&avg).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to average rating: %w", err)
	}

	return avg, count, nil
}
