package main

import (
	"fmt"
	"log"
	"time"

	"github.com/magnetlog/internal/config"
	"github.com/magnetlog/internal/db"
	"github.com/magnetlog/internal/service"
)

// 测试数据生成器：往数据库里写入一周的打卡历史和对应的进度状态，
// 便于本地调试挑战面板与奖励页。
func main() {
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成测试数据...")

	logs := service.NewCheckInLogService(db.DB)
	store := service.NewStateStore(db.DB)

	claims := []string{"rise", "flow", "anchor", "spark", "magnet", "portal", "still"}
	now := time.Now()
	checkIns := 0

	for i := 6; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)

		night := service.CheckInRecord{
			Kind:      db.CheckInKindNight,
			LoggedAt:  time.Date(day.Year(), day.Month(), day.Day(), 22, 30, 0, 0, day.Location()),
			ClaimWord: claims[6-i],
			Mood:      3 + (i % 3),
			Source:    "seed",
		}
		if err := logs.Record(night); err != nil {
			log.Fatal("写入夜间打卡失败:", err)
		}
		checkIns++

		// 最近三天补上晨间打卡，让 portal bonus 可见
		if i < 3 {
			morning := service.CheckInRecord{
				Kind:     db.CheckInKindMorning,
				LoggedAt: time.Date(day.Year(), day.Month(), day.Day(), 7, 15, 0, 0, day.Location()),
				Habits:   []string{"water", "stretch", "journal"},
				Source:   "seed",
			}
			if err := logs.Record(morning); err != nil {
				log.Fatal("写入晨间打卡失败:", err)
			}
			checkIns++
		}
	}

	// 与打卡历史对应的进度状态
	store.Write(db.StateKeySeeds, checkIns)
	store.Write(db.StateKeyStreak, checkIns)
	store.Write(db.StateKeyBest, checkIns)
	store.Write(db.StateKeyPrevStreak, checkIns)
	store.Write(db.StateKeyOrb, minInt(100, 40+checkIns*6))
	store.Write(db.StateKeyCommunity, minInt(100, 58+checkIns*2))
	store.Write(db.StateKeyPods, true)

	fmt.Println("测试数据生成完成！")
	fmt.Printf("打卡记录: %d 条（近 7 天）\n", checkIns)
	fmt.Printf("当前 streak: %d\n", checkIns)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
