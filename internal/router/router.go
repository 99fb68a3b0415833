package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/magnetlog/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.Default()

	// 会话中间件保存打卡草稿
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("magnetlog_session", store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/healthz", api.HealthCheck)

	app := r.Group("/api")
	{
		app.GET("/state", api.GetState)
		app.DELETE("/win", api.ClearWin)
		app.PUT("/preferences", api.UpdatePreferences)

		app.GET("/checkin/draft", api.GetDraft)
		app.PUT("/checkin/draft", api.SaveDraft)
		app.DELETE("/checkin/draft", api.DiscardDraft)
		app.POST("/checkin/night", api.NightCheckIn)
		app.POST("/checkin/morning", api.MorningCheckIn)

		app.GET("/story", api.GetStory)
		app.POST("/story/dismiss", api.DismissStory)

		app.GET("/challenge", api.GetChallenge)

		app.GET("/vault", api.GetVault)
		app.GET("/vault/wallpaper", api.GetWallpaper)
		app.POST("/vault/sigil", api.PlaySigil)
	}

	return r
}
