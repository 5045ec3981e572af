package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"bookmarket_go/config"
	"bookmarket_go/models"
	"bookmarket_go/routes"
	"bookmarket_go/utils"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	registerValidatorsOnce sync.Once
	testDBSeq              int64
)

// setupTestServer 装配完整路由和独立的内存数据库
func setupTestServer(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	registerValidatorsOnce.Do(utils.RegisterCustomValidators)

	dsn := fmt.Sprintf("file:ctrltest%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
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

	r := gin.New()
	routes.SetupRoutes(r)
	return r
}

// doJSON 发送JSON请求并解析统一响应结构
func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("x-auth-token", token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w.Code, resp
}

func dataField(t *testing.T, resp map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %v", resp)
	return data
}

func TestMarketplaceFlow(t *testing.T) {
	r := setupTestServer(t)

	// 1. 注册
	code, resp := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     "张三",
		"email":    "zhangsan@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, code)
	token, _ := dataField(t, resp)["token"].(string)
	require.NotEmpty(t, token)

	// 2. 发布书籍
	code, resp = doJSON(t, r, http.MethodPost, "/api/books", token, gin.H{
		"title":     "沙丘",
		"author":    "弗兰克·赫伯特",
		"publisher": "江苏凤凰文艺出版社",
		"price":     29.9,
	})
	require.Equal(t, http.StatusCreated, code)
	book, _ := dataField(t, resp)["book"].(map[string]interface{})
	bookID, _ := book["id"].(string)
	require.NotEmpty(t, bookID)
	assert.Equal(t, float64(0), book["view_count"])

	// 3. 查看详情，浏览计数 0 -> 1
	code, resp = doJSON(t, r, http.MethodGet, "/api/books/"+bookID, "", nil)
	require.Equal(t, http.StatusOK, code)
	book, _ = dataField(t, resp)["book"].(map[string]interface{})
	assert.Equal(t, float64(1), book["view_count"])

	// 4. 收藏
	code, resp = doJSON(t, r, http.MethodPost, "/api/users/favorite", token, gin.H{
		"book_id": bookID,
	})
	require.Equal(t, http.StatusOK, code)
	data := dataField(t, resp)
	assert.Equal(t, true, data["favorited"])

	// 5. 收藏列表里有这本书
	code, resp = doJSON(t, r, http.MethodGet, "/api/users/favorites", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), dataField(t, resp)["total"])

	// 6. 再次切换，取消收藏
	code, resp = doJSON(t, r, http.MethodPost, "/api/users/favorite", token, gin.H{
		"book_id": bookID,
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, dataField(t, resp)["favorited"])

	code, resp = doJSON(t, r, http.MethodGet, "/api/users/favorites", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), dataField(t, resp)["total"])
}

func TestRegisterDuplicateReturnsConflict(t *testing.T) {
	r := setupTestServer(t)

	body := gin.H{
		"name":     "张三",
		"email":    "zhangsan@example.com",
		"password": "password123",
	}

	code, _ := doJSON(t, r, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, code)

	code, resp := doJSON(t, r, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, float64(utils.CodeConflict), resp["code"])
}

func TestLoginWrongPassword(t *testing.T) {
	r := setupTestServer(t)

	code, _ := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     "张三",
		"email":    "zhangsan@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, code)

	// 密码错误和账号不存在返回相同的状态码和文案
	codeWrong, respWrong := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "zhangsan@example.com",
		"password": "wrongpassword",
	})
	codeUnknown, respUnknown := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "nobody@example.com",
		"password": "password123",
	})

	assert.Equal(t, http.StatusUnauthorized, codeWrong)
	assert.Equal(t, http.StatusUnauthorized, codeUnknown)
	assert.Equal(t, respWrong["message"], respUnknown["message"])
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	r := setupTestServer(t)

	code, _ := doJSON(t, r, http.MethodPost, "/api/books", "", gin.H{
		"title":     "沙丘",
		"author":    "作者",
		"publisher": "出版社",
		"price":     10,
	})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestCreateBookValidation(t *testing.T) {
	r := setupTestServer(t)

	code, resp := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     "张三",
		"email":    "zhangsan@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, code)
	token, _ := dataField(t, resp)["token"].(string)

	// 缺价格
	code, _ = doJSON(t, r, http.MethodPost, "/api/books", token, gin.H{
		"title":     "沙丘",
		"author":    "作者",
		"publisher": "出版社",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	// 负价格
	code, _ = doJSON(t, r, http.MethodPost, "/api/books", token, gin.H{
		"title":     "沙丘",
		"author":    "作者",
		"publisher": "出版社",
		"price":     -1,
	})
	assert.Equal(t, http.StatusBadRequest, code)

	// 0价格允许
	code, _ = doJSON(t, r, http.MethodPost, "/api/books", token, gin.H{
		"title":     "免费赠书",
		"author":    "作者",
		"publisher": "出版社",
		"price":     0,
	})
	assert.Equal(t, http.StatusCreated, code)
}

func TestMostSearchedEmptyReturns404(t *testing.T) {
	r := setupTestServer(t)

	code, resp := doJSON(t, r, http.MethodGet, "/api/books/most-searched", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, float64(utils.CodeNotFound), resp["code"])
}

func TestHealthEndpoint(t *testing.T) {
	r := setupTestServer(t)

	code, resp := doJSON(t, r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, float64(0), resp["online_users"])
}

func TestReviewFlow(t *testing.T) {
	r := setupTestServer(t)

	code, resp := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     "张三",
		"email":    "zhangsan@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, code)
	token, _ := dataField(t, resp)["token"].(string)

	code, resp = doJSON(t, r, http.MethodPost, "/api/books", token, gin.H{
		"title":     "沙丘",
		"author":    "作者",
		"publisher": "出版社",
		"price":     29.9,
	})
	require.Equal(t, http.StatusCreated, code)
	book, _ := dataField(t, resp)["book"].(map[string]interface{})
	bookID, _ := book["id"].(string)

	// 评分越界被拒绝
	code, _ = doJSON(t, r, http.MethodPost, "/api/reviews", token, gin.H{
		"book_id": bookID,
		"rating":  6,
		"comment": "评分越界",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	// 正常发表
	code, _ = doJSON(t, r, http.MethodPost, "/api/reviews", token, gin.H{
		"book_id": bookID,
		"rating":  5,
		"comment": "品相很好",
	})
	require.Equal(t, http.StatusCreated, code)

	// 评论列表公开可见
	code, resp = doJSON(t, r, http.MethodGet, "/api/reviews/"+bookID, "", nil)
	require.Equal(t, http.StatusOK, code)
	data := dataField(t, resp)
	assert.Equal(t, float64(1), data["total"])
	assert.Equal(t, float64(5), data["average_rating"])
}
