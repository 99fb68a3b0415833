package service

import (
	"encoding/json"

	"github.com/magnetlog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StateStore 提供引擎状态的持久化读写。
// 语义对齐浏览器 localStorage：读失败回退默认值，写失败静默吞掉，
// 任何存储问题都不会向调用方抛出——内存中的状态才是权威。
type StateStore struct {
	db *gorm.DB
}

// NewStateStore 构造 StateStore。
func NewStateStore(gdb *gorm.DB) *StateStore {
	return &StateStore{db: gdb}
}

// ReadInt 读取整数键，键缺失、查询失败或 JSON 解码失败时返回 fallback。
func (s *StateStore) ReadInt(key string, fallback int) int {
	raw, ok := s.readRaw(key)
	if !ok {
		return fallback
	}
	var v int
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return fallback
	}
	return v
}

// ReadBool 读取布尔键，失败时返回 fallback。
func (s *StateStore) ReadBool(key string, fallback bool) bool {
	raw, ok := s.readRaw(key)
	if !ok {
		return fallback
	}
	var v bool
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return fallback
	}
	return v
}

// ReadString 读取字符串键，失败时返回 fallback。
func (s *StateStore) ReadString(key string, fallback string) string {
	raw, ok := s.readRaw(key)
	if !ok {
		return fallback
	}
	var v string
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return fallback
	}
	return v
}

// Write 将值 JSON 编码后按 key 幂等落库。写入为尽力而为：
// 序列化或存储失败一律忽略，不影响内存状态。
func (s *StateStore) Write(key string, value interface{}) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return
	}

	entry := db.StateEntry{Key: key, Value: string(encoded)}
	_ = s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      string(encoded),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&entry).Error
}

func (s *StateStore) readRaw(key string) (string, bool) {
	var entry db.StateEntry
	if err := s.db.Where("key = ?", key).First(&entry).Error; err != nil {
		// 键不存在与存储不可用同样降级处理
		return "", false
	}
	return entry.Value, true
}
