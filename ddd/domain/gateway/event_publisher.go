package gateway

import (
	"context"

	"videoindex-service/ddd/domain/entity"
)

// EventPublisher 作业事件对外镜像网关
//
// The database event log is the source of truth; the mirror is best-effort
// and must never fail the operation that emitted the event.
type EventPublisher interface {
	PublishJobEvent(ctx context.Context, event *entity.JobEvent)
}
