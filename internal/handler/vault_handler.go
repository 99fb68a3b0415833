package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetVault 返回奖励页内容：种子数、曲目、卡片文案与里程碑。
func (a *API) GetVault(c *gin.Context) {
	state := a.progress.Snapshot()

	c.JSON(http.StatusOK, gin.H{
		"seeds":        state.Seeds,
		"tracks":       a.vault.Tracks(),
		"quantum_card": a.vault.QuantumCard(),
		"milestones":   a.vault.Milestones(state.Streak),
	})
}

// GetWallpaper 生成并返回印记壁纸 PNG。
func (a *API) GetWallpaper(c *gin.Context) {
	state := a.progress.Snapshot()
	mood := draftMood(c)

	data, err := a.vault.WallpaperPNG(state.OrbCharge, mood)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "生成壁纸失败")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="sigil-wallpaper.png"`)
	c.Data(http.StatusOK, "image/png", data)
}

// PlaySigil 是声音印记的演示占位实现。
func (a *API) PlaySigil(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Playing sound sigil (demo)."})
}
