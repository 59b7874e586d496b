package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"videoindex-service/ddd/domain/entity"
	"videoindex-service/pkg/logger"
)

// KafkaPublisher 作业事件的Kafka镜像
//
// Publish failures are logged and never fail the job.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher 创建Kafka事件发布器
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		WriteTimeout: 5 * time.Second,
	}
	return &KafkaPublisher{writer: writer}
}

// jobEventMessage 对外事件格式
type jobEventMessage struct {
	EventID   string          `json:"event_id"`
	JobID     string          `json:"job_id"`
	RunID     string          `json:"run_id,omitempty"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// PublishJobEvent 发布作业事件
//
// Keyed by job_id so a single job's events stay ordered within a partition.
func (p *KafkaPublisher) PublishJobEvent(ctx context.Context, event *entity.JobEvent) {
	value, err := json.Marshal(jobEventMessage{
		EventID:   event.ID,
		JobID:     event.JobID,
		RunID:     event.RunID,
		EventType: event.EventType,
		Payload:   event.Payload,
		CreatedAt: event.CreatedAt,
	})
	if err != nil {
		logger.Warn("Failed to marshal job event for mirror", map[string]interface{}{
			"event_id": event.ID,
			"error":    err.Error(),
		})
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.JobID),
		Value: value,
	})
	if err != nil {
		logger.Warn("Failed to mirror job event to kafka", map[string]interface{}{
			"event_id":   event.ID,
			"job_id":     event.JobID,
			"event_type": event.EventType,
			"error":      err.Error(),
		})
	}
}

// Close 关闭底层writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher 关闭镜像时的空实现
type NopPublisher struct{}

// PublishJobEvent 丢弃事件
func (NopPublisher) PublishJobEvent(context.Context, *entity.JobEvent) {}

// Close 无操作
func (NopPublisher) Close() error { return nil }
