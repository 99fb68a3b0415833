package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/magnetlog/internal/service"
)

// GetState 返回首页渲染所需的完整状态快照。
func (a *API) GetState(c *gin.Context) {
	state := a.progress.Snapshot()
	now := a.progress.Today()

	mood := draftMood(c)

	payload := gin.H{
		"seeds":     state.Seeds,
		"streak":    state.Streak,
		"best":      state.Best,
		"orb":       state.OrbCharge,
		"community": state.CommunityPulse,
		"pods":      state.PodsEnabled,
		"greeting":  a.progress.CurrentGreeting(),
		"date":      now.Format("Monday, Jan 2"),
		"orb_hue":   service.OrbHue(state.OrbCharge, mood),
		"pulse":     a.progress.PulseActive(),
		"win":       winPayload(a.progress.Win()),
	}

	// portal bonus 查询失败不阻塞状态展示
	if bonus, err := a.logs.PortalBonusOn(now); err == nil {
		payload["portal_bonus"] = bonus
	} else {
		payload["portal_bonus"] = false
	}

	c.JSON(http.StatusOK, payload)
}

// ClearWin 立即关闭庆祝提示。
func (a *API) ClearWin(c *gin.Context) {
	a.progress.ClearWin()
	c.JSON(http.StatusOK, gin.H{"win": nil})
}

type preferencesRequest struct {
	Pods *bool `json:"pods"`
}

// UpdatePreferences 更新设置页偏好，目前持久化的只有 pods 开关。
func (a *API) UpdatePreferences(c *gin.Context) {
	var req preferencesRequest
	if !bindJSON(c, &req, "偏好设置格式错误") {
		return
	}

	if req.Pods != nil {
		a.progress.SetPodsEnabled(*req.Pods)
	}

	c.JSON(http.StatusOK, gin.H{"pods": a.progress.Snapshot().PodsEnabled})
}

// HealthCheck 提供部署平台与监控系统使用的健康检查端点。
func (a *API) HealthCheck(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "database handle unavailable",
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
	})
}

func winPayload(win *service.WinNotice) interface{} {
	if win == nil {
		return nil
	}
	return gin.H{"id": win.ID, "text": win.Text}
}
