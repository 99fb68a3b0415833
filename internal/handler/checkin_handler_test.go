package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/magnetlog/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestAPI(t *testing.T) (*API, *gin.Engine, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(&db.StateEntry{}, &db.CheckIn{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	db.DB = gdb

	api := NewAPI(gdb)

	r := gin.New()
	r.Use(sessions.Sessions("magnetlog_session", cookie.NewStore([]byte("test-secret"))))
	r.GET("/api/state", api.GetState)
	r.DELETE("/api/win", api.ClearWin)
	r.PUT("/api/preferences", api.UpdatePreferences)
	r.GET("/api/checkin/draft", api.GetDraft)
	r.PUT("/api/checkin/draft", api.SaveDraft)
	r.DELETE("/api/checkin/draft", api.DiscardDraft)
	r.POST("/api/checkin/night", api.NightCheckIn)
	r.POST("/api/checkin/morning", api.MorningCheckIn)
	r.GET("/api/story", api.GetStory)
	r.POST("/api/story/dismiss", api.DismissStory)
	r.GET("/api/challenge", api.GetChallenge)
	r.GET("/api/vault", api.GetVault)

	return api, r, func() {
		api.Close()
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, payload interface{}, cookies []*http.Cookie) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, decoded
}

func TestNightCheckInEndpoint(t *testing.T) {
	_, r, cleanup := setupTestAPI(t)
	defer cleanup()

	w, resp := doJSON(t, r, http.MethodPost, "/api/checkin/night", map[string]any{"claim_word": "rise", "mood": 4}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if resp["committed"] != true {
		t.Fatalf("expected committed true, got %v", resp["committed"])
	}

	win, ok := resp["win"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected win payload, got %v", resp["win"])
	}
	if win["text"] != `Night locked: "RISE"` {
		t.Fatalf("unexpected win text: %v", win["text"])
	}

	state, ok := resp["state"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected state payload, got %v", resp["state"])
	}
	if state["streak"] != float64(1) || state["seeds"] != float64(1) {
		t.Fatalf("unexpected state: %v", state)
	}
}

func TestNightCheckInEndpointBlockedOnEmptyClaim(t *testing.T) {
	api, r, cleanup := setupTestAPI(t)
	defer cleanup()

	w, resp := doJSON(t, r, http.MethodPost, "/api/checkin/night", map[string]any{"claim_word": "   "}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if resp["committed"] != false {
		t.Fatalf("expected committed false, got %v", resp["committed"])
	}
	if _, hasErr := resp["error"]; hasErr {
		t.Fatal("blocked check-in must not surface an error")
	}
	if api.Progress().Snapshot().Streak != 0 {
		t.Fatal("expected no state change on blocked check-in")
	}
}

func TestMorningCheckInEndpoint(t *testing.T) {
	_, r, cleanup := setupTestAPI(t)
	defer cleanup()

	w, resp := doJSON(t, r, http.MethodPost, "/api/checkin/morning", map[string]any{"completed_habits": []string{"water"}}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	win := resp["win"].(map[string]interface{})
	if win["text"] != "Morning locked" {
		t.Fatalf("unexpected win text: %v", win["text"])
	}
}

func TestDraftSessionRoundTrip(t *testing.T) {
	_, r, cleanup := setupTestAPI(t)
	defer cleanup()

	w, _ := doJSON(t, r, http.MethodPut, "/api/checkin/draft", map[string]any{"claim_word": "glow", "mood": 5}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	cookies := w.Result().Cookies()

	_, draft := doJSON(t, r, http.MethodGet, "/api/checkin/draft", nil, cookies)
	if draft["claim_word"] != "glow" {
		t.Fatalf("expected draft claim persisted, got %v", draft["claim_word"])
	}
	if draft["mood"] != float64(5) {
		t.Fatalf("expected draft mood 5, got %v", draft["mood"])
	}

	// 取消草稿：零副作用
	w2, _ := doJSON(t, r, http.MethodDelete, "/api/checkin/draft", nil, cookies)
	cookies2 := w2.Result().Cookies()
	if len(cookies2) == 0 {
		cookies2 = cookies
	}

	_, cleared := doJSON(t, r, http.MethodGet, "/api/checkin/draft", nil, cookies2)
	if cleared["claim_word"] != "" {
		t.Fatalf("expected draft cleared, got %v", cleared["claim_word"])
	}
}

func TestGetStatePayload(t *testing.T) {
	_, r, cleanup := setupTestAPI(t)
	defer cleanup()

	w, resp := doJSON(t, r, http.MethodGet, "/api/state", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	if resp["orb"] != float64(40) || resp["community"] != float64(58) {
		t.Fatalf("unexpected defaults: %v", resp)
	}
	if resp["pods"] != true {
		t.Fatalf("expected pods default true, got %v", resp["pods"])
	}
	// 无草稿时 mood 取默认值 3：hue = 200 + 40 + 24
	if resp["orb_hue"] != float64(264) {
		t.Fatalf("expected orb_hue 264, got %v", resp["orb_hue"])
	}
	greeting, _ := resp["greeting"].(string)
	switch greeting {
	case "Good Morning", "Good Afternoon", "Good Evening":
	default:
		t.Fatalf("unexpected greeting: %q", greeting)
	}
	if resp["win"] != nil {
		t.Fatalf("expected no win notice, got %v", resp["win"])
	}
}

func TestUpdatePreferences(t *testing.T) {
	api, r, cleanup := setupTestAPI(t)
	defer cleanup()

	pods := false
	w, resp := doJSON(t, r, http.MethodPut, "/api/preferences", map[string]any{"pods": pods}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if resp["pods"] != false {
		t.Fatalf("expected pods false, got %v", resp["pods"])
	}
	if api.Progress().Snapshot().PodsEnabled {
		t.Fatal("expected pods disabled in engine state")
	}
}

func TestStoryEndpointDailyGate(t *testing.T) {
	_, r, cleanup := setupTestAPI(t)
	defer cleanup()

	_, story := doJSON(t, r, http.MethodGet, "/api/story", nil, nil)
	if story["show"] != true {
		t.Fatalf("expected story shown on first visit, got %v", story["show"])
	}
	if html, _ := story["html"].(string); html == "" {
		t.Fatal("expected rendered story html")
	}

	doJSON(t, r, http.MethodPost, "/api/story/dismiss", nil, nil)

	_, after := doJSON(t, r, http.MethodGet, "/api/story", nil, nil)
	if after["show"] != false {
		t.Fatalf("expected story hidden after dismissal, got %v", after["show"])
	}
	if _, hasHTML := after["html"]; hasHTML {
		t.Fatal("expected no html when gate closed")
	}
}

func TestChallengeEndpoint(t *testing.T) {
	_, r, cleanup := setupTestAPI(t)
	defer cleanup()

	doJSON(t, r, http.MethodPost, "/api/checkin/night", map[string]any{"claim_word": "seven"}, nil)

	w, resp := doJSON(t, r, http.MethodGet, "/api/challenge", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	days, ok := resp["days"].([]interface{})
	if !ok || len(days) != 7 {
		t.Fatalf("expected 7-day board, got %v", resp["days"])
	}
	today := days[6].(map[string]interface{})
	if today["night"] != true {
		t.Fatalf("expected tonight flagged, got %v", today)
	}
}

func TestVaultEndpoint(t *testing.T) {
	_, r, cleanup := setupTestAPI(t)
	defer cleanup()

	w, resp := doJSON(t, r, http.MethodGet, "/api/vault", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	tracks, ok := resp["tracks"].([]interface{})
	if !ok || len(tracks) != 4 {
		t.Fatalf("expected 4 tracks, got %v", resp["tracks"])
	}
	milestones, ok := resp["milestones"].([]interface{})
	if !ok || len(milestones) != 3 {
		t.Fatalf("expected 3 milestones, got %v", resp["milestones"])
	}
}
