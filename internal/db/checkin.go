package db

import (
	"time"

	"gorm.io/gorm"
)

// 打卡类型：夜间（claim word + mood）或晨间（习惯清单）。
const (
	CheckInKindNight   = "night"
	CheckInKindMorning = "morning"
)

// CheckIn 记录每一次成功提交的打卡。
// LogDate 归一化到当天零点便于区间统计；LoggedAt 保留精确时间。
// 同一天允许多条记录——当前产品行为不做"当日已打卡"限制，
// 因此这里刻意不建 kind + log_date 唯一索引。
// Habits 存储晨间勾选的习惯 ID 列表（JSON 数组）。
type CheckIn struct {
	gorm.Model
	Kind      string    `gorm:"size:20;index;not null"`
	LogDate   time.Time `gorm:"index"`
	LoggedAt  time.Time
	ClaimWord string
	Mood      int
	Habits    string `gorm:"type:text"`
	Source    string `gorm:"size:20"`
}

// TableName 保持与历史表名一致。
func (CheckIn) TableName() string {
	return "check_ins"
}
