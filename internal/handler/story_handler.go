package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetStory 返回引导故事。日界闸门关闭时只返回 show=false，不渲染内容。
func (a *API) GetStory(c *gin.Context) {
	if !a.progress.StoryGateOpen() {
		c.JSON(http.StatusOK, gin.H{"show": false})
		return
	}

	rendered, err := a.story.RenderHTML()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "渲染引导故事失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"show": true,
		"html": rendered,
	})
}

// DismissStory 关闭引导故事，当天内不再展示。
func (a *API) DismissStory(c *gin.Context) {
	a.progress.DismissStory()
	c.JSON(http.StatusOK, gin.H{"show": false})
}
