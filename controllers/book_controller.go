package controllers

import (
	"errors"
	"strconv"
	"strings"

	"bookmarket_go/middleware"
	"bookmarket_go/services"
	"bookmarket_go/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookController 书籍控制器
type BookController struct {
	bookService *services.BookService
	uploader    *utils.FileUploader
}

// NewBookController 创建书籍控制器实例
func NewBookController() *BookController {
	return &BookController{
		bookService: services.NewBookService(),
		uploader:    utils.NewFileUploader(),
	}
}

// ListBooks 获取书籍列表
// @Summary 书籍列表
// @Description 获取全部书籍；query 参数按标题/作者做大小写不敏感的子串匹配
// @Produce json
// @Param query query string false "搜索关键词"
// @Success 200 {object} utils.Response
// @Router /api/books [get]
func (bc *BookController) ListBooks(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))

	books, err := bc.bookService.ListBooks(query)
	if err != nil {
		middleware.ErrorLogger("获取书籍列表失败", zap.Error(err))
		utils.InternalError(c, "")
		return
	}

	utils.Success(c, gin.H{
		"books": books,
		"total": len(books),
	})
}

// MostSearched 获取浏览最多的书籍
// @Summary 热门书籍
// @Description 按浏览次数降序返回前5本；目录为空时返回404
// @Produce json
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response "暂无书籍"
// @Router /api/books/most-searched [get]
func (bc *BookController) MostSearched(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))

	books, err := bc.bookService.MostSearched(limit)
	if err != nil {
		if errors.Is(err, services.ErrNoBooks) {
			utils.NotFound(c, "暂无书籍")
			return
		}
		middleware.ErrorLogger("获取热门书籍失败", zap.Error(err))
		utils.InternalError(c, "")
		return
	}

	utils.Success(c, gin.H{"books": books})
}

// GetBook 获取书籍详情
// @Summary 书籍详情
// @Description 返回书籍详情并自增浏览计数
// @Produce json
// @Param id path string true "书籍ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /api/books/:id [get]
func (bc *BookController) GetBook(c *gin.Context) {
	bookID := c.Param("id")

	book, err := bc.bookService.GetAndTrackView(bookID, c.GetString("user_id"))
	if err != nil {
		if errors.Is(err, services.ErrBookNotFound) {
			utils.NotFound(c, "书籍不存在")
			return
		}
		middleware.ErrorLogger("获取书籍详情失败", zap.Error(err), zap.String("book_id", bookID))
		utils.InternalError(c, "")
		return
	}

	utils.Success(c, gin.H{"book": book})
}

// CreateBook 创建书籍
// @Summary 发布书籍
// @Description 发布二手书，支持multipart封面图片上传
// @Accept json,mpfd
// @Produce json
// @Success 201 {object} utils.Response
// @Router /api/books [post]
func (bc *BookController) CreateBook(c *gin.Context) {
	var req services.CreateBookRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequest(c, formatBindError(err))
		return
	}

	// multipart 请求带了封面图时先落盘
	if utils.HasFile(c, "image") {
		result, err := bc.uploader.UploadFile(c, "image")
		if err != nil {
			utils.BadRequest(c, "图片上传失败："+err.Error())
			return
		}
		req.ImageURL = result.URL
	}

	book, err := bc.bookService.CreateBook(c.GetString("user_id"), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidPrice) {
			utils.BadRequest(c, "价格必须是大于或等于0的有效数字")
			return
		}
		middleware.ErrorLogger("创建书籍失败", zap.Error(err))
		utils.InternalError(c, "")
		return
	}

	utils.Created(c, gin.H{"book": book})
}

// UpdateBook 更新书籍
// @Summary 更新书籍
// @Description 只有卖家本人可以更新
// @Accept json
// @Produce json
// @Param id path string true "书籍ID"
// @Success 200 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /api/books/:id [put]
func (bc *BookController) UpdateBook(c *gin.Context) {
	bookID := c.Param("id")

	var req services.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, formatBindError(err))
		return
	}

	book, err := bc.bookService.UpdateBook(c.GetString("user_id"), bookID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			utils.NotFound(c, "书籍不存在")
		case errors.Is(err, services.ErrForbidden):
			utils.Forbidden(c, "只有卖家本人可以修改")
		case errors.Is(err, services.ErrInvalidPrice):
			utils.BadRequest(c, "价格必须是大于或等于0的有效数字")
		default:
			middleware.ErrorLogger("更新书籍失败", zap.Error(err), zap.String("book_id", bookID))
			utils.InternalError(c, "")
		}
		return
	}

	utils.Success(c, gin.H{"book": book})
}

// DeleteBook 删除书籍
// @Summary 删除书籍
// @Description 只有卖家本人可以删除
// @Produce json
// @Param id path string true "书籍ID"
// @Success 200 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /api/books/:id [delete]
func (bc *BookController) DeleteBook(c *gin.Context) {
	bookID := c.Param("id")

	if err := bc.bookService.DeleteBook(c.GetString("user_id"), bookID); err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			utils.NotFound(c, "书籍不存在")
		case errors.Is(err, services.ErrForbidden):
			utils.Forbidden(c, "只有卖家本人可以删除")
		default:
			middleware.ErrorLogger("删除书籍失败", zap.Error(err), zap.String("book_id", bookID))
			utils.InternalError(c, "")
		}
		return
	}

	utils.SuccessWithMessage(c, "删除成功", nil)
}
