package controllers

import (
	"errors"

	"bookmarket_go/middleware"
	"bookmarket_go/services"
	"bookmarket_go/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReviewController 评论控制器
type ReviewController struct {
	reviewService *services.ReviewService
}

// NewReviewController 创建评论控制器实例
func NewReviewController() *ReviewController {
	return &ReviewController{
		reviewService: services.NewReviewService(),
	}
}

// CreateReview 创建评论
// @Summary 发表评论
// @Description 对书籍发表评论，评分1-5，内容不超过100字符
// @Accept json
// @Produce json
// @Param request body services.CreateReviewRequest true "评论内容"
// @Success 201 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /api/reviews [post]
func (rc *ReviewController) CreateReview(c *gin.Context) {
	var req services.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, formatBindError(err))
		return
	}

	review, err := rc.reviewService.CreateReview(c.GetString("user_id"), &req)
	if err != nil {
		if errors.Is(err, services.ErrBookNotFound) {
			utils.NotFound(c, "书籍不存在")
			return
		}
		middleware.ErrorLogger("创建评论失败", zap.Error(err), zap.String("book_id", req.BookID))
		utils.InternalError(c, "")
		return
	}

	utils.Created(c, gin.H{"review": review})
}

// ListReviews 获取书籍评论列表
// @Summary 评论列表
// @Description 按时间倒序返回书籍的所有评论，带评论人信息和平均分
// @Produce json
// @Param bookId path string true "书籍ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /api/reviews/:bookId [get]
func (rc *ReviewController) ListReviews(c *gin.Context) {
	bookID := c.Param("bookId")

	reviews, err := rc.reviewService.ListByBook(bookID)
	if err != nil {
		if errors.Is(err, services.ErrBookNotFound) {
			utils.NotFound(c, "书籍不存在")
			return
		}
		middleware.ErrorLogger("获取评论列表失败", zap.Error(err), zap.String("book_id", bookID))
		utils.InternalError(c, "")
		return
	}

	avg, count, err := rc.reviewService.AverageRating(bookID)
	if err != nil {
		middleware.ErrorLogger("计算平均评分失败", zap.Error(err), zap.String("book_id", bookID))
		utils.InternalError(c, "")
		return
	}

	utils.Success(c, gin.H{
		"reviews":        reviews,
		"total":          count,
		"average_rating": avg,
	})
}
