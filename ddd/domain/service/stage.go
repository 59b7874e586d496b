package service

import (
	"context"
	"encoding/json"

	"videoindex-service/ddd/domain/entity"
	"videoindex-service/ddd/domain/gateway"
	"videoindex-service/ddd/domain/repo"
	"videoindex-service/ddd/domain/vo"
	"videoindex-service/pkg/logger"
)

// Stage 流水线阶段
//
// A stage executes one claimed job from start to finish. The worker owns the
// claim/terminal-status protocol around it; Execute only reports success or
// the classified error.
type Stage interface {
	Type() vo.JobType
	Execute(ctx context.Context, job *entity.JobEntity) error
}

// eventRecorder 审计事件记录，落库后镜像到外部
type eventRecorder struct {
	jobs      repo.JobRepository
	publisher gateway.EventPublisher
}

// record 追加作业事件；记录失败只告警，不影响作业
func (r *eventRecorder) record(ctx context.Context, jobID, eventType string, payload map[string]interface{}) {
	var raw json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			logger.Warn("Failed to marshal job event payload", map[string]interface{}{
				"job_id":     jobID,
				"event_type": eventType,
				"error":      err.Error(),
			})
			return
		}
		raw = encoded
	}

	event, err := r.jobs.AppendJobEvent(ctx, jobID, eventType, raw)
	if err != nil {
		logger.Warn("Failed to append job event", map[string]interface{}{
			"job_id":     jobID,
			"event_type": eventType,
			"error":      err.Error(),
		})
		return
	}
	if r.publisher != nil {
		r.publisher.PublishJobEvent(ctx, event)
	}
}
