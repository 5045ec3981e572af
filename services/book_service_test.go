package services

import (
	"math"
	"testing"

	"bookmarket_go/config"
	"bookmarket_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBook(t *testing.T) {
	setupTestDB(t)
	bs := NewBookService()
	seller := createTestUser(t, "卖家", "seller@example.com")

	book, err := bs.CreateBook(seller.ID, &CreateBookRequest{
		Title:     "沙丘",
		Author:    "弗兰克·赫伯特",
		Publisher: "江苏凤凰文艺出版社",
		Price:     floatPtr(29.9),
	})

	require.NoError(t, err)
	assert.NotEmpty(t, book.ID)
	assert.Equal(t, seller.ID, book.SellerID)
	assert.Equal(t, int64(0), book.ViewCount)
}

func TestCreateBookPriceZeroAllowed(t *testing.T) {
	setupTestDB(t)
	bs := NewBookService()
	seller := createTestUser(t, "卖家", "seller@example.com")

	book, err := bs.CreateBook(seller.ID, &CreateBookRequest{
		Title:     "免费赠书",
		Author:    "作者",
		Publisher: "出版社",
		Price:     floatPtr(0),
	})

	require.NoError(t, err)
	assert.Equal(t, float64(0), book.Price)
}

func TestCreateBookInvalidPrice(t *testing.T) {
	setupTestDB(t)
	bs := NewBookService()
	seller := createTestUser(t, "卖家", "seller@example.com")

	cases := []struct {
		name  string
		price *float64
	}{
		{"负数", floatPtr(-1)},
		{"NaN", floatPtr(math.NaN())},
		{"正无穷", floatPtr(math.Inf(1))},
		{"缺失", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := bs.CreateBook(seller.ID, &CreateBookRequest{
				Title:     "书",
				Author:    "作者",
				Publisher: "出版社",
				Price:     tc.price,
			})
			assert.ErrorIs(t, err, ErrInvalidPrice)
		})
	}
}

func TestGetAndTrackViewIncrementsExactly(t *testing.T) {
	setupTestDB(t)
	bs := NewBookService()
	seller := createTestUser(t, "卖家", "seller@example.com")
	book := createTestBook(t, seller.ID, "沙丘", 29.9)

	// 浏览N次，计数恰好+N
	const n = 7
	for i := 0; i < n; i++ {
		got, err := bs.GetAndTrackView(book.ID, "")
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), got.ViewCount)
	}

	var stored models.Book
	require.NoError(t, config.DB.First(&stored, "id = ?", book.ID).Error)
	assert.Equal(t, int64(n), stored.ViewCount)
}

func TestGetAndTrackViewNotFound(t *testing.T) {
	setupTestDB(t)
	bs := NewBookService()

	_, err := bs.GetAndTrackView("no-such-book", "")
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestListBooksSearchCaseInsensitive(t *testing.T) {
	setupTestDB(t)
	bs := NewBookService()
	seller := createTestUser(t, "卖家", "seller@example.com")
	createTestBook(t, seller.ID, "Dune Messiah", 19.9)
	createTestBook(t, seller.ID, "Foundation", 24.9)

	books, err := bs.ListBooks("dune")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune Messiah", books[0].Title)

	// 作者也参与匹配
	books, err = bs.ListBooks("测试作者")
	require.NoError(t, err)
	assert.Len(t, books, 2)

	// 空查询返回全部
	books, err = bs.ListBooks("")
	require.NoError(t, err)
	assert.Len(t, books, 2)
}

func TestMostSearched(t *testing.T) {
	setupTestDB(t)
	bs := NewBookService()
	seller := createTestUser(t, "卖家", "seller@example.com")

	// 10本书，浏览次数0..9
	for i := 0; i < 10; i++ {
		book := createTestBook(t, seller.ID, "书", 9.9)
		config.DB.Model(&models.Book{}).Where("id = ?", book.ID).
			UpdateColumn("view_count", int64(i))
	}

	books, err := bs.MostSearched(5)
	require.NoError(t, err)
	require.Len(t, books, 5)

	// 浏览数降序
	for i := 0; i < len(books)-1; i++ {
		assert.GreaterOrEqual(t, books[i].ViewCount, books[i+1].ViewCount)
	}
	assert.Equal(t, int64(9), books[0].ViewCount)
}

func TestMostSearchedEmptyCatalog(t *testing.T) {
	setupTestDB(t)
	bs := NewBookService()

	_, err := bs.MostSearched(5)
	assert.ErrorIs(t, err, ErrNoBooks)
}

func TestMostSearchedLimitClamped(t *testing.T) {
	setupTestDB(t)
	bs := NewBookService()
	seller := createTestUser(t, "卖家", "seller@example.com")

	for i := 0; i < 20; i++ {
		createTestBook(t, seller.ID, "书", 9.9)
	}

	// limit 超界被收敛到 [5,10]
	books, err := bs.MostSearched(100)
	require.NoError(t, err)
	assert.Len(t, books, 10)

	books, err = bs.MostSearched(0)
	require.NoError(t, err)
	assert.Len(t, books, 5)
}

func TestUpdateBookOwnerOnly(t *testing.T) {
	setupTestDB(t)
	bs := NewBookService()
	seller := createTestUser(t, "卖家", "seller@example.com")
	other := createTestUser(t, "路人", "other@example.com")
	book := createTestBook(t, seller.ID, "沙丘", 29.9)

	// 非卖家不能改
	_, err := bs.UpdateBook(other.ID, book.ID, &UpdateBookRequest{Title: "改名"})
	assert.ErrorIs(t, err, ErrForbidden)

	// 卖家可以改
	updated, err := bs.UpdateBook(seller.ID, book.ID, &UpdateBookRequest{
		Title: "沙丘（修订版）",
		Price: floatPtr(35),
	})
	require.NoError(t, err)
	assert.Equal(t, "沙丘（修订版）", updated.Title)
	assert.Equal(t, float64(35), updated.Price)
	// 未提供的字段保持不变
	assert.Equal(t, "测试作者", updated.Author)
}

func TestUpdateBookInvalidPrice(t *testing.T) {
	setupTestDB(t)
	bs := NewBookService()
	seller := createTestUser(t, "卖家", "seller@example.com")
	book := createTestBook(t, seller.ID, "沙丘", 29.9)

	_, err := bs.UpdateBook(seller.ID, book.ID, &UpdateBookRequest{Price: floatPtr(-5)})
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestDeleteBookOwnerOnly(t *testing.T) {
	setupTestDB(t)
	bs := NewBookService()
	seller := createTestUser(t, "卖家", "seller@example.com")
	other := createTestUser(t, "路人", "other@example.com")
	book := createTestBook(t, seller.ID, "沙丘", 29.9)

	assert.ErrorIs(t, bs.DeleteBook(other.ID, book.ID), ErrForbidden)

	require.NoError(t, bs.DeleteBook(seller.ID, book.ID))

	// 软删除后查不到
	_, err := bs.GetAndTrackView(book.ID, "")
	assert.ErrorIs(t, err, ErrBookNotFound)
}
