package db

import "gorm.io/gorm"

// StateEntry 存储引擎的持久化键值对，值为 JSON 编码的标量。
type StateEntry struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (StateEntry) TableName() string {
	return "state_entries"
}

const (
	// StateKeySeeds 表示奖励货币 Star Seeds 数量。
	StateKeySeeds = "seeds"
	// StateKeyStreak 表示当前连续打卡次数。
	StateKeyStreak = "streak"
	// StateKeyBest 表示历史最佳连续打卡次数。
	StateKeyBest = "best"
	// StateKeyOrb 表示装饰性能量球充能值（0-100）。
	StateKeyOrb = "orb"
	// StateKeyCommunity 表示社区进度条数值（0-100，本地模拟）。
	StateKeyCommunity = "community"
	// StateKeyPods 表示耳机默认开关偏好。
	StateKeyPods = "pods"
	// StateKeyStoryLastShown 记录引导故事最近一次关闭的日期（YYYY-MM-DD）。
	StateKeyStoryLastShown = "storyLastShown"
	// StateKeyPrevStreak 记录上一次横幅脉冲时的 streak，用于检测增长。
	StateKeyPrevStreak = "prevStreak"
)
