package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/magnetlog/internal/config"
	"github.com/magnetlog/internal/db"
	"github.com/magnetlog/internal/handler"
	"github.com/magnetlog/internal/router"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	api := handler.NewAPI(db.DB)
	defer api.Close()

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api, cfg.SessionSecret)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
