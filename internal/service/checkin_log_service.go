package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/magnetlog/internal/db"
	"gorm.io/gorm"
)

// CheckInLogService 负责打卡历史的记录与统计。
// 历史仅用于展示（7 天挑战、portal bonus），不参与引擎的状态规则。
type CheckInLogService struct {
	db *gorm.DB
}

// CheckInRecord 定义记录一次打卡时的输入对象。
type CheckInRecord struct {
	Kind      string
	LoggedAt  time.Time
	ClaimWord string
	Mood      int
	Habits    []string
	Source    string
}

// CheckInFilter 指定查询区间。
type CheckInFilter struct {
	Start time.Time
	End   time.Time
}

// ChallengeDay 表示 7 天挑战面板中的单日状态。
type ChallengeDay struct {
	Date    string `json:"date"`
	Night   bool   `json:"night"`
	Morning bool   `json:"morning"`
	Today   bool   `json:"today"`
}

// NewCheckInLogService 构造 CheckInLogService。
func NewCheckInLogService(gdb *gorm.DB) *CheckInLogService {
	return &CheckInLogService{db: gdb}
}

// Record 追加一条打卡记录。同一天允许多条，刻意不做幂等。
func (s *CheckInLogService) Record(input CheckInRecord) error {
	kind := strings.TrimSpace(strings.ToLower(input.Kind))
	if kind != db.CheckInKindNight && kind != db.CheckInKindMorning {
		return fmt.Errorf("invalid check-in kind: %q", input.Kind)
	}

	habits := ""
	if len(input.Habits) > 0 {
		encoded, err := json.Marshal(input.Habits)
		if err != nil {
			return fmt.Errorf("encode habits: %w", err)
		}
		habits = string(encoded)
	}

	record := db.CheckIn{
		Kind:      kind,
		LogDate:   normalizeToDate(input.LoggedAt),
		LoggedAt:  input.LoggedAt,
		ClaimWord: strings.TrimSpace(input.ClaimWord),
		Mood:      input.Mood,
		Habits:    habits,
		Source:    strings.TrimSpace(input.Source),
	}

	if err := s.db.Create(&record).Error; err != nil {
		return fmt.Errorf("record check-in: %w", err)
	}
	return nil
}

// ListBetween 返回指定区间内的打卡记录，按日期升序。
func (s *CheckInLogService) ListBetween(filter CheckInFilter) ([]db.CheckIn, error) {
	var logs []db.CheckIn

	start := normalizeToDate(filter.Start)
	end := normalizeToDate(filter.End)

	if err := s.db.Where("log_date BETWEEN ? AND ?", start, end).
		Order("log_date ASC, logged_at ASC").
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}

	return logs, nil
}

// WeekBoard 返回以 today 结尾的最近 7 天打卡面板。
func (s *CheckInLogService) WeekBoard(today time.Time) ([]ChallengeDay, error) {
	end := normalizeToDate(today)
	start := end.AddDate(0, 0, -6)

	logs, err := s.ListBetween(CheckInFilter{Start: start, End: end})
	if err != nil {
		return nil, err
	}

	type dayFlags struct{ night, morning bool }
	byDay := make(map[string]*dayFlags, 7)
	for _, entry := range logs {
		// 驱动读回的时间可能落在 UTC，按本地时区取日期
		key := entry.LogDate.In(end.Location()).Format("2006-01-02")
		flags := byDay[key]
		if flags == nil {
			flags = &dayFlags{}
			byDay[key] = flags
		}
		switch entry.Kind {
		case db.CheckInKindNight:
			flags.night = true
		case db.CheckInKindMorning:
			flags.morning = true
		}
	}

	board := make([]ChallengeDay, 0, 7)
	for d := 0; d < 7; d++ {
		day := start.AddDate(0, 0, d)
		key := day.Format("2006-01-02")
		entry := ChallengeDay{Date: key, Today: day.Equal(end)}
		if flags := byDay[key]; flags != nil {
			entry.Night = flags.night
			entry.Morning = flags.morning
		}
		board = append(board, entry)
	}

	return board, nil
}

// PortalBonusOn 判断指定日期是否同时完成了夜间与晨间打卡。
func (s *CheckInLogService) PortalBonusOn(day time.Time) (bool, error) {
	date := normalizeToDate(day)

	var kinds []string
	if err := s.db.Model(&db.CheckIn{}).
		Distinct("kind").
		Where("log_date = ?", date).
		Pluck("kind", &kinds).Error; err != nil {
		return false, fmt.Errorf("portal bonus lookup: %w", err)
	}

	night, morning := false, false
	for _, kind := range kinds {
		switch kind {
		case db.CheckInKindNight:
			night = true
		case db.CheckInKindMorning:
			morning = true
		}
	}
	return night && morning, nil
}

// HabitsOf 解码记录中的习惯 ID 列表。
func HabitsOf(record db.CheckIn) []string {
	if strings.TrimSpace(record.Habits) == "" {
		return nil
	}
	var habits []string
	if err := json.Unmarshal([]byte(record.Habits), &habits); err != nil {
		return nil
	}
	return habits
}

func normalizeToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
