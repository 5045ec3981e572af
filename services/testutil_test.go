package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"bookmarket_go/config"
	"bookmarket_go/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq int64

// setupTestDB 为单个测试创建独立的内存数据库
// Redis 保持为 nil，所有依赖 Redis 的路径按降级逻辑运行
func setupTestDB(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(models.All()...))

	config.DB = db
	config.RedisClient = nil

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		config.DB = nil
	})
}

// createTestUser 插入一个测试用户
func createTestUser(t *testing.T, name, email string) *models.User {
	t.Helper()

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: "$2a$10$fafkefheCBnagBPiiELW4eGhIMaGYGVBZLRVZkO9QrZ1cN8dtJvG6",
	}
	require.NoError(t, config.DB.Create(user).Error)
	return user
}

// createTestBook 插入一本测试书籍
func createTestBook(t *testing.T, sellerID, title string, price float64) *models.Book {
	t.Helper()

	book := &models.Book{
		Title:     title,
		Author:    "测试作者",
		Publisher: "测试出版社",
		Price:     price,
		SellerID:  sellerID,
	}
	require.NoError(t, config.DB.Create(book).Error)
	return book
}

func floatPtr(v float64) *float64 {
	return &v
}
