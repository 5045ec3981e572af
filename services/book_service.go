package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookmarket_go/config"
	"bookmarket_go/models"
	"bookmarket_go/utils"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// BookService 书籍服务
type BookService struct {
	// 浏览统计队列（排行榜、浏览历史等旁路统计；
	// 数据库计数器在请求内同步原子自增）
	viewStatsQueue chan *BookViewStat
}

// BookViewStat 书籍浏览统计
type BookViewStat struct {
	BookID    string
	UserID    string
	Timestamp time.Time
}

// NewBookService 创建书籍服务实例
func NewBookService() *BookService {
	bs := &BookService{
		viewStatsQueue: make(chan *BookViewStat, 2000),
	}

	// 启动统计worker池
	bs.startStatsWorkers()

	return bs
}

// ==================== 请求结构 ====================

// CreateBookRequest 创建书籍请求
// Price 用指针表达"必填但允许为0"
type CreateBookRequest struct {
	Title         string   `json:"title" form:"title" binding:"required,max=200"`
	Author        string   `json:"author" form:"author" binding:"required,max=100"`
	Publisher     string   `json:"publisher" form:"publisher" binding:"required,max=100"`
	Price         *float64 `json:"price" form:"price" binding:"required,finite,gte=0"`
	Description   string   `json:"description" form:"description"`
	PublishedYear int      `json:"published_year" form:"published_year"`
	Genre         string   `json:"genre" form:"genre" binding:"max=50"`
	ImageURL      string   `json:"image_url" form:"image_url"`
}

// UpdateBookRequest 更新书籍请求（部分字段）
type UpdateBookRequest struct {
	Title         string   `json:"title" binding:"omitempty,max=200"`
	Author        string   `json:"author" binding:"omitempty,max=100"`
	Publisher     string   `json:"publisher" binding:"omitempty,max=100"`
	Price         *float64 `json:"price" binding:"omitempty,finite,gte=0"`
	Description   string   `json:"description"`
	PublishedYear int      `json:"published_year"`
	Genre         string   `json:"genre" binding:"omitempty,max=50"`
	ImageURL      string   `json:"image_url"`
}

// ==================== CRUD操作 ====================

// CreateBook 创建书籍
func (bs *BookService) CreateBook(sellerID string, req *CreateBookRequest) (*models.Book, error) {
	// 1. 验证价格：有限且非负
	// JSON 解析不会产生 NaN/Inf，但表单和内部调用可能
	if req.Price == nil || !utils.IsValidPrice(*req.Price) {
		return nil, ErrInvalidPrice
	}

	// 2. 创建书籍
	book := models.Book{
		Title:         req.Title,
		Author:        req.Author,
		Publisher:     req.Publisher,
		Price:         *req.Price,
		Description:   req.Description,
		PublishedYear: req.PublishedYear,
		Genre:         req.Genre,
		ImageURL:      req.ImageURL,
		SellerID:      sellerID,
		ViewCount:     0,
	}

	if err := config.DB.Create(&book).Error; err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}

	// 3. 异步清除缓存并记录事件
	go bs.clearBookCaches()
	go func() {
		if config.RedisClient != nil {
			config.RedisClient.XAdd(redisCtx, &redis.XAddArgs{
				Stream: "book_events",
				Values: map[string]interface{}{
					"event":     "book_created",
					"book_id":   book.ID,
					"title":     book.Title,
					"seller_id": sellerID,
					"timestamp": time.Now().Unix(),
				},
			})
		}
	}()

	return &book, nil
}

// UpdateBook 更新书籍
func (bs *BookService) UpdateBook(userID, bookID string, req *UpdateBookRequest) (*models.Book, error) {
	// 1. 查找书籍
	var book models.Book
	if err := config.DB.First(&book, "id = ?", bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to load book: %w", err)
	}

	// 2. 检查权限：只有卖家本人可以改
	if book.SellerID != userID {
		return nil, ErrForbidden
	}

	// 3. 构建更新map，写入前重新验证价格
	updates := make(map[string]interface{})
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Author != "" {
		updates["author"] = req.Author
	}
	if req.Publisher != "" {
		updates["publisher"] = req.Publisher
	}
	if req.Price != nil {
		if !utils.IsValidPrice(*req.Price) {
			return nil, ErrInvalidPrice
		}
		updates["price"] = *req.Price
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.PublishedYear != 0 {
		updates["published_year"] = req.PublishedYear
	}
	if req.Genre != "" {
		updates["genre"] = req.Genre
	}
	if req.ImageURL != "" {
		updates["image_url"] = req.ImageURL
	}

	// 4. 更新并重新加载
	if len(updates) > 0 {
		if err := config.DB.Model(&book).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update book: %w", err)
		}
		if err := config.DB.First(&book, "id = ?", bookID).Error; err != nil {
			return nil, fmt.Errorf("failed to reload book: %w", err)
		}
	}

	// 5. 异步清除缓存
	go bs.clearBookCaches()

	return &book, nil
}

// DeleteBook 删除书籍（软删除）
func (bs *BookService) DeleteBook(userID, bookID string) error {
	var book models.Book
	if err := config.DB.First(&book, "id = ?", bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookNotFound
		}
		return fmt.Errorf("failed to load book: %w", err)
	}

	if book.SellerID != userID {
		return ErrForbidden
	}

	if err := config.DB.Delete(&book).Error; err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	go bs.clearBookCaches()

	return nil
}

// ==================== 查询 ====================

// GetAndTrackView 获取书籍详情并自增浏览计数
// 计数使用数据库端原子自增：并发请求不会丢更新，
// 顺序请求N次计数恰好+N
func (bs *BookService) GetAndTrackView(bookID, viewerID string) (*models.Book, error) {
	// 1. 查找书籍
	var book models.Book
	if err := config.DB.Preload("Seller").First(&book, "id = ?", bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to load book: %w", err)
	}

	// 2. 原子自增浏览计数
	if err := config.DB.Model(&models.Book{}).
		Where("id = ?", bookID).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error; err != nil {
		return nil, fmt.Errorf("failed to track view: %w", err)
	}
	book.ViewCount++

	// 3. 推导收藏人数
	config.DB.Model(&models.Favorite{}).Where("book_id = ?", bookID).Count(&book.FavoriteCount)

	// 4. 异步记录浏览统计（排行榜、浏览历史）
	select {
	case bs.viewStatsQueue <- &BookViewStat{BookID: bookID, UserID: viewerID, Timestamp: time.Now()}:
	default:
		// 队列满，丢弃统计，不影响请求
	}

	return &book, nil
}

// ListBooks 获取书籍列表
// query 非空时对标题和作者做大小写不敏感的子串匹配
func (bs *BookService) ListBooks(query string) ([]models.Book, error) {
	db := config.DB.Model(&models.Book{}).Preload("Seller")

	if query != "" {
		pattern := "%" + query + "%"
		db = db.Where("LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?)", pattern, pattern)

		// 记录搜索关键词
		go bs.recordSearchKeyword(query)
	}

	var books []models.Book
	if err := db.Order("created_at DESC").Find(&books).Error; err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	return books, nil
}

// MostSearched 获取浏览次数最多的书籍
// limit 限定在 [5,10]，目录为空时返回 ErrNoBooks
func (bs *BookService) MostSearched(limit int) ([]models.Book, error) {
	if limit < 5 {
		limit = 5
	}
	if limit > 10 {
		limit = 10
	}

	// 1. 尝试从Redis缓存获取
	cacheKey := fmt.Sprintf("hot:books:%d", limit)
	if config.RedisClient != nil {
		cached, err := config.RedisClient.Get(redisCtx, cacheKey).Result()
		if err == nil {
			var books []models.Book
			if json.Unmarshal([]byte(cached), &books) == nil && len(books) > 0 {
				return books, nil
			}
		}
	}

	// 2. 从数据库获取（浏览数降序，平局按创建时间）
	var books []models.Book
	if err := config.DB.
		Order("view_count DESC, created_at DESC").
		Limit(limit).
		Find(&books).Error; err != nil {
		return nil, fmt.Errorf("failed to get most searched books: %w", err)
	}

	if len(books) == 0 {
		return nil, ErrNoBooks
	}

	// 3. 异步缓存
	go func() {
		if config.RedisClient != nil {
			data, _ := json.Marshal(books)
			config.RedisClient.Set(redisCtx, cacheKey, data, 10*time.Minute)
		}
	}()

	return books, nil
}

// ==================== Worker ====================

// startStatsWorkers 启动统计worker池
func (bs *BookService) startStatsWorkers() {
	for i := 0; i < 3; i++ {
		go bs.processViewStats()
	}
}

// processViewStats 处理浏览统计
func (bs *BookService) processViewStats() {
	for stat := range bs.viewStatsQueue {
		if config.RedisClient == nil {
			continue
		}

		// 更新Redis排行榜
		config.RedisClient.ZIncrBy(redisCtx, "rank:book:views", 1, stat.BookID)
		config.RedisClient.Expire(redisCtx, "rank:book:views", 7*24*time.Hour)

		// 记录用户浏览历史
		if stat.UserID != "" {
			historyKey := fmt.Sprintf("history:view:%s", stat.UserID)
			config.RedisClient.LPush(redisCtx, historyKey, stat.BookID)
			config.RedisClient.LTrim(redisCtx, historyKey, 0, 99) // 保留最近100条
			config.RedisClient.Expire(redisCtx, historyKey, 30*24*time.Hour)
		}
	}
}

// ==================== 辅助方法 ====================

// clearBookCaches 清除书籍相关缓存
func (bs *BookService) clearBookCaches() {
	if config.RedisClient == nil {
		return
	}

	keys, _ := config.RedisClient.Keys(redisCtx, "hot:books:*").Result()
	for _, key := range keys {
		config.RedisClient.Del(redisCtx, key)
	}
}

// recordSearchKeyword 记录搜索关键词
func (bs *BookService) recordSearchKeyword(query string) {
	if config.RedisClient == nil {
		return
	}

	config.RedisClient.ZIncrBy(redisCtx, "search:hot", 1, query)
	config.RedisClient.Expire(redisCtx, "search:hot", 24*time.Hour)
}
