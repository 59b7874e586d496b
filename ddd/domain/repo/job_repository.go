package repo

import (
	"context"
	"encoding/json"

	"videoindex-service/ddd/domain/entity"
	"videoindex-service/ddd/domain/vo"
)

// JobRepository 作业仓储接口
//
// All mutating calls execute in one database transaction each. Driver
// errors are mapped to the errno taxonomy: uniqueness violations to
// conflict, referential violations to not-found, transient failures to
// retryable. "Queue empty" on claim is not an error: ClaimNextJob returns
// ok=false.
type JobRepository interface {
	// CreateJob 创建作业；幂等键冲突返回Conflict
	CreateJob(ctx context.Context, job *entity.JobEntity) error

	// CreateOrGetJob 按幂等键创建作业；键已存在时返回已有行
	//
	// Returns created=false when an existing row was returned.
	CreateOrGetJob(ctx context.Context, job *entity.JobEntity) (existing *entity.JobEntity, created bool, err error)

	// GetJob 按ID获取作业；缺失返回NotFound
	GetJob(ctx context.Context, jobID string) (*entity.JobEntity, error)

	// GetJobByIdempotencyKey 按幂等键获取作业；缺失返回NotFound
	GetJobByIdempotencyKey(ctx context.Context, key string) (*entity.JobEntity, error)

	// ClaimNextJob 认领一个排队作业并转为running
	//
	// Atomic within one transaction using skip-locked row selection,
	// oldest first (queued_at, created_at ascending). ok=false means the
	// queue is empty for this worker right now.
	ClaimNextJob(ctx context.Context, jobType vo.JobType) (job *entity.JobEntity, ok bool, err error)

	// MarkJobSucceeded 作业与attempt=1的run一并置为succeeded
	MarkJobSucceeded(ctx context.Context, jobID string) error

	// MarkJobFailed 作业与attempt=1的run一并置为failed并记录错误
	MarkJobFailed(ctx context.Context, jobID string, errorMessage string) error

	// CreateJobRun 创建执行记录；作业缺失返回NotFound，重复attempt返回Conflict
	CreateJobRun(ctx context.Context, run *entity.JobRun) error

	// AppendJobEvent 追加审计事件；作业缺失返回NotFound
	AppendJobEvent(ctx context.Context, jobID string, eventType string, payload json.RawMessage) (*entity.JobEvent, error)

	// ListJobRuns 按attempt升序列出执行记录
	ListJobRuns(ctx context.Context, jobID string) ([]*entity.JobRun, error)

	// ListJobEvents 按(created_at, id)升序列出事件
	ListJobEvents(ctx context.Context, jobID string) ([]*entity.JobEvent, error)
}
