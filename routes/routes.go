package routes

import (
	"bookmarket_go/controllers"
	"bookmarket_go/middleware"
	"bookmarket_go/websocket"

	"github.com/gin-gonic/gin"
)

// SetupRoutes 装配所有路由
func SetupRoutes(r *gin.Engine) {
	// 全局中间件
	r.Use(middleware.CORS())
	r.Use(middleware.Logger())

	// WebSocket连接中心
	hub := websocket.NewHub()

	// 控制器
	authController := controllers.NewAuthController()
	bookController := controllers.NewBookController()
	userController := controllers.NewUserController()
	reviewController := controllers.NewReviewController()
	chatController := controllers.NewChatController(hub)

	api := r.Group("/api")
	{
		// 认证
		auth := api.Group("/auth")
		{
			auth.POST("/register", authController.Register)
			auth.POST("/login", authController.Login)
			auth.POST("/logout", middleware.AuthMiddleware(), authController.Logout)
			auth.GET("/me", middleware.AuthMiddleware(), authController.GetCurrentUser)
		}

		// 书籍（浏览公开，发布/修改/删除需要登录）
		books := api.Group("/books")
		{
			books.GET("", bookController.ListBooks)
			books.GET("/most-searched", bookController.MostSearched)
			books.GET("/:id", bookController.GetBook)
			books.POST("", middleware.AuthMiddleware(), bookController.CreateBook)
			books.PUT("/:id", middleware.AuthMiddleware(), bookController.UpdateBook)
			books.DELETE("/:id", middleware.AuthMiddleware(), bookController.DeleteBook)
		}

		// 用户与收藏（列表公开，收藏和资料操作需要登录）
		users := api.Group("/users")
		{
			users.GET("", userController.ListUsers)
			users.GET("/:id", userController.GetUser)
			users.POST("/favorite", middleware.AuthMiddleware(), userController.ToggleFavorite)
			users.GET("/favorites", middleware.AuthMiddleware(), userController.ListFavorites)
			users.PUT("/:id", middleware.AuthMiddleware(), userController.UpdateUser)
			users.DELETE("/:id", middleware.AuthMiddleware(), userController.DeleteUser)
		}

		// 评论（查看公开，发表需要登录）
		reviews := api.Group("/reviews")
		{
			reviews.POST("", middleware.AuthMiddleware(), reviewController.CreateReview)
			reviews.GET("/:bookId", reviewController.ListReviews)
		}

		// 联系卖家会话（全部需要登录）
		chats := api.Group("/chats", middleware.AuthMiddleware())
		{
			chats.POST("", chatController.StartChat)
			chats.GET("", chatController.ListChats)
			chats.GET("/:id/messages", chatController.ListMessages)
			chats.POST("/:id/messages", chatController.SendMessage)
		}
	}

	// WebSocket（token走query参数）
	r.GET("/ws", hub.HandleConnection)

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":       "ok",
			"online_users": hub.OnlineCount(),
		})
	})
}
