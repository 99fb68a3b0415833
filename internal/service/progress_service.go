package service

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/magnetlog/internal/db"
)

// ErrClaimWordRequired 在夜间打卡缺少 claim word 时返回。
// 这不是失败而是"尚未准备好提交"：调用方不改任何状态，弹窗保持打开。
var ErrClaimWordRequired = errors.New("claim word is required")

// 打卡对各项数值的固定增量与默认值
const (
	defaultOrbCharge      = 40
	defaultCommunityPulse = 58
	defaultMood           = 3

	orbGainPerCheckIn       = 6
	communityGainPerCheckIn = 2

	meterMin = 0
	meterMax = 100

	// DefaultWinTTL 是庆祝提示自动消失的延迟。
	DefaultWinTTL = 2200 * time.Millisecond
	// DefaultPulseTTL 是横幅脉冲自动熄灭的延迟。
	DefaultPulseTTL = 1200 * time.Millisecond
)

// ProgressState 汇总所有持久化的进度字段。
type ProgressState struct {
	Seeds          int
	Streak         int
	Best           int
	OrbCharge      int
	CommunityPulse int
	PodsEnabled    bool
}

// CheckInDraft 是打卡弹窗中的临时输入。
// ClaimWord/Mood 仅用于夜间打卡，CompletedHabits 仅用于晨间打卡。
type CheckInDraft struct {
	ClaimWord       string
	Mood            int
	CompletedHabits []string
}

// WinNotice 是一次性的庆祝提示，到期自动清除。
type WinNotice struct {
	ID   string
	Text string
}

// CommitResult 返回一次成功打卡后的状态快照与提示内容。
type CommitResult struct {
	State ProgressState
	Win   WinNotice
	Pulse bool
}

// ProgressService 是唯一执行业务规则的组件：持有内存中的进度状态，
// 每次变更后尽力写回 StateStore。所有方法并发安全。
type ProgressService struct {
	store *StateStore
	logs  *CheckInLogService

	mu         sync.Mutex
	state      ProgressState
	prevStreak int
	win        *WinNotice
	winTimer   *time.Timer
	pulse      bool
	pulseTimer *time.Timer

	winTTL   time.Duration
	pulseTTL time.Duration
	now      func() time.Time
}

// NewProgressService 构造引擎并从存储加载状态，缺失或损坏的键回退默认值。
// logs 可为 nil（不记录打卡历史）。
func NewProgressService(store *StateStore, logs *CheckInLogService) *ProgressService {
	s := &ProgressService{
		store:    store,
		logs:     logs,
		winTTL:   DefaultWinTTL,
		pulseTTL: DefaultPulseTTL,
		now:      time.Now,
	}
	s.state = ProgressState{
		Seeds:          maxInt(0, store.ReadInt(db.StateKeySeeds, 0)),
		Streak:         maxInt(0, store.ReadInt(db.StateKeyStreak, 0)),
		Best:           maxInt(0, store.ReadInt(db.StateKeyBest, 0)),
		OrbCharge:      clampMeter(store.ReadInt(db.StateKeyOrb, defaultOrbCharge)),
		CommunityPulse: clampMeter(store.ReadInt(db.StateKeyCommunity, defaultCommunityPulse)),
		PodsEnabled:    store.ReadBool(db.StateKeyPods, true),
	}
	if s.state.Best < s.state.Streak {
		s.state.Best = s.state.Streak
	}
	s.prevStreak = maxInt(0, store.ReadInt(db.StateKeyPrevStreak, 0))
	return s
}

// SetNowFunc 覆盖时间源，主要面向测试场景。
func (s *ProgressService) SetNowFunc(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// SetWinTTL 覆盖庆祝提示的存活时长，主要面向测试场景。
func (s *ProgressService) SetWinTTL(ttl time.Duration) {
	s.mu.Lock()
	if ttl > 0 {
		s.winTTL = ttl
	}
	s.mu.Unlock()
}

// SetPulseTTL 覆盖横幅脉冲的存活时长，主要面向测试场景。
func (s *ProgressService) SetPulseTTL(ttl time.Duration) {
	s.mu.Lock()
	if ttl > 0 {
		s.pulseTTL = ttl
	}
	s.mu.Unlock()
}

// Snapshot 返回当前进度状态的副本。
func (s *ProgressService) Snapshot() ProgressState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NightCheckIn 提交夜间打卡。claim word 去除首尾空白后为空时
// 返回 ErrClaimWordRequired 且不产生任何状态变化。
func (s *ProgressService) NightCheckIn(draft CheckInDraft) (*CommitResult, error) {
	claim := strings.TrimSpace(draft.ClaimWord)
	if claim == "" {
		return nil, ErrClaimWordRequired
	}

	text := `Night locked: "` + strings.ToUpper(claim) + `"`
	result := s.commit(text)

	if s.logs != nil {
		_ = s.logs.Record(CheckInRecord{
			Kind:      db.CheckInKindNight,
			LoggedAt:  s.nowLocked(),
			ClaimWord: claim,
			Mood:      normalizeMood(draft.Mood),
			Source:    "manual",
		})
	}
	return result, nil
}

// MorningCheckIn 提交晨间打卡。当前行为不校验已完成习惯数量
// （宣传文案承诺"至少 2 项"，但提交无条件生效）。
func (s *ProgressService) MorningCheckIn(draft CheckInDraft) (*CommitResult, error) {
	result := s.commit("Morning locked")

	if s.logs != nil {
		_ = s.logs.Record(CheckInRecord{
			Kind:     db.CheckInKindMorning,
			LoggedAt: s.nowLocked(),
			Habits:   draft.CompletedHabits,
			Source:   "manual",
		})
	}
	return result, nil
}

// commit 按固定顺序应用一次打卡：streak、best、community、seeds、orb，
// 每处写入都做 [0,100] 夹取，随后逐键落库并产生庆祝提示。
func (s *ProgressService) commit(winText string) *CommitResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Streak++
	s.store.Write(db.StateKeyStreak, s.state.Streak)

	if s.state.Streak > s.state.Best {
		s.state.Best = s.state.Streak
		s.store.Write(db.StateKeyBest, s.state.Best)
	}

	s.state.CommunityPulse = clampMeter(s.state.CommunityPulse + communityGainPerCheckIn)
	s.store.Write(db.StateKeyCommunity, s.state.CommunityPulse)

	s.state.Seeds++
	s.store.Write(db.StateKeySeeds, s.state.Seeds)

	s.state.OrbCharge = clampMeter(s.state.OrbCharge + orbGainPerCheckIn)
	s.store.Write(db.StateKeyOrb, s.state.OrbCharge)

	s.raiseWin(winText)
	pulse := s.raisePulse()

	return &CommitResult{State: s.state, Win: *s.win, Pulse: pulse}
}

// raiseWin 生成新的庆祝提示并重置自动清除定时器。调用方需持有锁。
func (s *ProgressService) raiseWin(text string) {
	if s.winTimer != nil {
		s.winTimer.Stop()
	}
	s.win = &WinNotice{ID: uuid.New().String(), Text: text}
	id := s.win.ID
	s.winTimer = time.AfterFunc(s.winTTL, func() {
		s.clearWinByID(id)
	})
}

// raisePulse 在 streak 超过上次记录值时点亮横幅脉冲。调用方需持有锁。
func (s *ProgressService) raisePulse() bool {
	if s.state.Streak <= s.prevStreak {
		return false
	}
	s.prevStreak = s.state.Streak
	s.store.Write(db.StateKeyPrevStreak, s.prevStreak)

	if s.pulseTimer != nil {
		s.pulseTimer.Stop()
	}
	s.pulse = true
	s.pulseTimer = time.AfterFunc(s.pulseTTL, func() {
		s.mu.Lock()
		s.pulse = false
		s.mu.Unlock()
	})
	return true
}

// Win 返回当前未消失的庆祝提示，不存在时返回 nil。
func (s *ProgressService) Win() *WinNotice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.win == nil {
		return nil
	}
	copied := *s.win
	return &copied
}

// ClearWin 立即清除庆祝提示（例如用户手动关闭）。
func (s *ProgressService) ClearWin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.winTimer != nil {
		s.winTimer.Stop()
		s.winTimer = nil
	}
	s.win = nil
}

func (s *ProgressService) clearWinByID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.win != nil && s.win.ID == id {
		s.win = nil
	}
}

// PulseActive 返回横幅脉冲是否点亮。
func (s *ProgressService) PulseActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pulse
}

// StoryGateOpen 判断引导故事今天是否应该展示。
func (s *ProgressService) StoryGateOpen() bool {
	s.mu.Lock()
	today := s.now().Format("2006-01-02")
	s.mu.Unlock()
	last := s.store.ReadString(db.StateKeyStoryLastShown, "")
	return ShouldShowStory(last, today)
}

// DismissStory 记录引导故事已在今天关闭，当天内不再展示。
func (s *ProgressService) DismissStory() {
	s.mu.Lock()
	today := s.now().Format("2006-01-02")
	s.mu.Unlock()
	s.store.Write(db.StateKeyStoryLastShown, today)
}

// SetPodsEnabled 更新耳机默认偏好并落库。
func (s *ProgressService) SetPodsEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.PodsEnabled = enabled
	s.store.Write(db.StateKeyPods, enabled)
}

// CurrentGreeting 返回基于当前本地时间的问候语。
func (s *ProgressService) CurrentGreeting() string {
	s.mu.Lock()
	hour := s.now().Hour()
	s.mu.Unlock()
	return Greeting(hour)
}

// Today 返回当前本地日期（YYYY-MM-DD），供展示层与日界比较使用。
func (s *ProgressService) Today() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}

// Close 停止所有未触发的定时器，保证组件销毁后没有悬挂回调。
func (s *ProgressService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.winTimer != nil {
		s.winTimer.Stop()
		s.winTimer = nil
	}
	if s.pulseTimer != nil {
		s.pulseTimer.Stop()
		s.pulseTimer = nil
	}
}

func (s *ProgressService) nowLocked() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}

// Greeting 根据小时数（0-23）返回问候语，纯函数。
func Greeting(hour int) string {
	switch {
	case hour < 12:
		return "Good Morning"
	case hour < 18:
		return "Good Afternoon"
	default:
		return "Good Evening"
	}
}

// OrbHue 根据充能值与情绪值推导能量球色相，纯函数，无存储状态。
func OrbHue(orbCharge, mood int) int {
	return 200 + orbCharge + mood*8
}

// ShouldShowStory 判断引导故事是否应展示：仅当记录日期不等于今天。
func ShouldShowStory(lastShown, today string) bool {
	return lastShown != today
}

func normalizeMood(mood int) int {
	if mood < 1 || mood > 5 {
		return defaultMood
	}
	return mood
}

func clampMeter(v int) int {
	if v < meterMin {
		return meterMin
	}
	if v > meterMax {
		return meterMax
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
