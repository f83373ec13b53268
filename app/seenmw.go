package app

import (
	"fmt"
	"time"

	"guitar-club-rental/db"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// TouchLastSeen 低頻更新社員的 last_seen_at；用 Redis SETNX 節流，
// 同一社員在 throttle 期間只寫一次資料庫。
func TouchLastSeen(repo *db.Repo, rdb *redis.Client, throttle time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get("memberID")
		if !ok {
			c.Next()
			return
		}
		mid, _ := v.(uint)
		if mid == 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("member:lastseen:%d", mid)
		if ok, _ := rdb.SetNX(c, key, "1", throttle).Result(); ok {
			_ = repo.TouchMemberSeen(c, mid) // 忽略錯誤，不擋請求
		}
		c.Next()
	}
}
