package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"videoindex-service/pkg/logger"
)

// Heartbeat worker在Redis中的存活标记
//
// The key carries a TTL and is refreshed at half the TTL, so a crashed
// worker disappears from the presence set on its own. Heartbeat failures
// are logged and never interrupt job processing.
type Heartbeat struct {
	client   *redis.Client
	stage    string
	workerID string
	ttl      time.Duration
}

// NewHeartbeat 创建心跳
func NewHeartbeat(client *redis.Client, stage, workerID string, ttl time.Duration) *Heartbeat {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Heartbeat{
		client:   client,
		stage:    stage,
		workerID: workerID,
		ttl:      ttl,
	}
}

// Key 心跳键
func (h *Heartbeat) Key() string {
	return fmt.Sprintf("videoindex:worker:%s:%s", h.stage, h.workerID)
}

// Interval 续期间隔
func (h *Heartbeat) Interval() time.Duration {
	return h.ttl / 2
}

// Beat 写入/续期存活标记
func (h *Heartbeat) Beat(ctx context.Context) {
	err := h.client.Set(ctx, h.Key(), time.Now().Format(time.RFC3339), h.ttl).Err()
	if err != nil {
		logger.Warn("Worker heartbeat failed", map[string]interface{}{
			"key":   h.Key(),
			"error": err.Error(),
		})
	}
}

// Clear 删除存活标记
func (h *Heartbeat) Clear(ctx context.Context) {
	if err := h.client.Del(ctx, h.Key()).Err(); err != nil {
		logger.Warn("Failed to clear worker heartbeat", map[string]interface{}{
			"key":   h.Key(),
			"error": err.Error(),
		})
	}
}
