package main

import (
	"log"

	"bookmarket_go/config"
	"bookmarket_go/middleware"
	"bookmarket_go/models"
	"bookmarket_go/routes"
	"bookmarket_go/utils"
)

func main() {
	// 1. 加载环境变量
	config.LoadEnv()

	// 2. 初始化日志系统
	if err := middleware.InitLogger(config.GetEnv("GIN_MODE", "debug")); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer middleware.FlushLogger()

	// 3. 初始化数据库
	if err := config.InitDatabase(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}
	defer config.CloseDatabase()

	// 4. 自动迁移表结构
	if err := config.MigrateDatabase(models.All()...); err != nil {
		log.Fatalf("❌ Failed to migrate database: %v", err)
	}

	// 5. 初始化Redis（可选，失败降级运行）
	if err := config.InitializeRedis(); err != nil {
		log.Printf("⚠️  Redis unavailable, running without cache: %v", err)
		config.RedisClient = nil
	}
	defer config.CloseRedis()

	// 6. 注册自定义验证规则
	utils.RegisterCustomValidators()

	// 7. 装配路由并启动服务
	r := config.SetupRouter()
	routes.SetupRoutes(r)

	if err := config.StartServer(r); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}
