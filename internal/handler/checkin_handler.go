package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/magnetlog/internal/service"
)

// 打卡草稿保存在会话里，弹窗重开或页面刷新后仍可恢复；
// 取消或成功提交时清空。
const (
	sessionKeyDraftClaim  = "draft_claim"
	sessionKeyDraftMood   = "draft_mood"
	sessionKeyDraftHabits = "draft_habits"
)

type draftRequest struct {
	ClaimWord       *string  `json:"claim_word"`
	Mood            *int     `json:"mood"`
	CompletedHabits []string `json:"completed_habits"`
}

type checkInRequest struct {
	ClaimWord       *string  `json:"claim_word"`
	Mood            *int     `json:"mood"`
	CompletedHabits []string `json:"completed_habits"`
}

// SaveDraft 保存打卡草稿到会话。
func (a *API) SaveDraft(c *gin.Context) {
	var req draftRequest
	if !bindJSON(c, &req, "草稿格式错误") {
		return
	}

	session := sessions.Default(c)
	if req.ClaimWord != nil {
		session.Set(sessionKeyDraftClaim, *req.ClaimWord)
	}
	if req.Mood != nil {
		session.Set(sessionKeyDraftMood, clampMood(*req.Mood))
	}
	if req.CompletedHabits != nil {
		encoded, err := json.Marshal(req.CompletedHabits)
		if err == nil {
			session.Set(sessionKeyDraftHabits, string(encoded))
		}
	}
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "草稿保存失败")
		return
	}

	c.JSON(http.StatusOK, draftPayload(c))
}

// GetDraft 返回会话中的打卡草稿。
func (a *API) GetDraft(c *gin.Context) {
	c.JSON(http.StatusOK, draftPayload(c))
}

// DiscardDraft 取消打卡：清空草稿，不产生任何其他副作用。
func (a *API) DiscardDraft(c *gin.Context) {
	clearDraft(c)
	c.JSON(http.StatusOK, gin.H{"draft": nil})
}

// NightCheckIn 提交夜间打卡。claim word 为空时不视为错误，
// 返回 committed=false，弹窗与草稿保持原样等待补充。
func (a *API) NightCheckIn(c *gin.Context) {
	var req checkInRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if !bindJSON(c, &req, "打卡请求格式错误") {
			return
		}
	}

	session := sessions.Default(c)
	claim := sessionString(session, sessionKeyDraftClaim)
	if req.ClaimWord != nil {
		claim = *req.ClaimWord
	}
	mood := sessionInt(session, sessionKeyDraftMood, 3)
	if req.Mood != nil {
		mood = clampMood(*req.Mood)
	}

	result, err := a.progress.NightCheckIn(service.CheckInDraft{
		ClaimWord: claim,
		Mood:      mood,
	})
	if err != nil {
		if errors.Is(err, service.ErrClaimWordRequired) {
			c.JSON(http.StatusOK, gin.H{"committed": false})
			return
		}
		respondError(c, http.StatusInternalServerError, "夜间打卡失败")
		return
	}

	clearDraft(c)
	c.JSON(http.StatusOK, commitPayload(result))
}

// MorningCheckIn 提交晨间打卡。不校验已完成习惯数量，
// 与现有产品行为保持一致。
func (a *API) MorningCheckIn(c *gin.Context) {
	var req checkInRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if !bindJSON(c, &req, "打卡请求格式错误") {
			return
		}
	}

	session := sessions.Default(c)
	habits := req.CompletedHabits
	if habits == nil {
		habits = sessionHabits(session)
	}

	result, err := a.progress.MorningCheckIn(service.CheckInDraft{
		CompletedHabits: habits,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "晨间打卡失败")
		return
	}

	clearDraft(c)
	c.JSON(http.StatusOK, commitPayload(result))
}

// GetChallenge 返回 7 天挑战面板。
func (a *API) GetChallenge(c *gin.Context) {
	board, err := a.logs.WeekBoard(a.progress.Today())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取挑战面板失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"title": "7-Day Magnetic Challenge",
		"days":  board,
		"copy":  "Check in nightly with your claim word. Morning: complete at least 2 habits.",
	})
}

func commitPayload(result *service.CommitResult) gin.H {
	return gin.H{
		"committed": true,
		"state": gin.H{
			"seeds":     result.State.Seeds,
			"streak":    result.State.Streak,
			"best":      result.State.Best,
			"orb":       result.State.OrbCharge,
			"community": result.State.CommunityPulse,
			"pods":      result.State.PodsEnabled,
		},
		"win": gin.H{
			"id":   result.Win.ID,
			"text": result.Win.Text,
		},
		"pulse": result.Pulse,
	}
}

func draftPayload(c *gin.Context) gin.H {
	session := sessions.Default(c)
	return gin.H{
		"claim_word":       sessionString(session, sessionKeyDraftClaim),
		"mood":             sessionInt(session, sessionKeyDraftMood, 3),
		"completed_habits": sessionHabits(session),
	}
}

func clearDraft(c *gin.Context) {
	session := sessions.Default(c)
	session.Delete(sessionKeyDraftClaim)
	session.Delete(sessionKeyDraftMood)
	session.Delete(sessionKeyDraftHabits)
	_ = session.Save()
}

func draftMood(c *gin.Context) int {
	return sessionInt(sessions.Default(c), sessionKeyDraftMood, 3)
}

func sessionString(session sessions.Session, key string) string {
	if v, ok := session.Get(key).(string); ok {
		return v
	}
	return ""
}

func sessionInt(session sessions.Session, key string, fallback int) int {
	if v, ok := session.Get(key).(int); ok {
		return v
	}
	return fallback
}

func sessionHabits(session sessions.Session) []string {
	raw, ok := session.Get(sessionKeyDraftHabits).(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return []string{}
	}
	var habits []string
	if err := json.Unmarshal([]byte(raw), &habits); err != nil {
		return []string{}
	}
	return habits
}

func clampMood(mood int) int {
	if mood < 1 {
		return 1
	}
	if mood > 5 {
		return 5
	}
	return mood
}
