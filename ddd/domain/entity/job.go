package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"videoindex-service/ddd/domain/vo"
	"videoindex-service/pkg/errno"
)

// JobEntity 一个排队的流水线作业
//
// The row is the audit record: jobs are never deleted, and once a worker
// has moved a job to running only that worker mutates it until it reaches
// a terminal status.
type JobEntity struct {
	id             string
	videoID        string
	jobType        vo.JobType
	status         vo.JobStatus
	payload        json.RawMessage
	idempotencyKey string
	errorMessage   string
	queuedAt       time.Time
	startedAt      *time.Time
	finishedAt     *time.Time
	createdAt      time.Time
	updatedAt      time.Time
}

// NewJobEntity 创建排队状态的作业
func NewJobEntity(videoID string, jobType vo.JobType, payload json.RawMessage, idempotencyKey string) (*JobEntity, error) {
	if !jobType.IsValid() {
		return nil, errno.ErrInvalidJobType.WithMessage("job type %q", jobType)
	}
	now := time.Now()
	return &JobEntity{
		id:             uuid.New().String(),
		videoID:        videoID,
		jobType:        jobType,
		status:         vo.JobStatusQueued,
		payload:        payload,
		idempotencyKey: idempotencyKey,
		queuedAt:       now,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// RestoreJobEntity 从持久化状态还原作业实体
func RestoreJobEntity(
	id, videoID string,
	jobType vo.JobType,
	status vo.JobStatus,
	payload json.RawMessage,
	idempotencyKey, errorMessage string,
	queuedAt time.Time,
	startedAt, finishedAt *time.Time,
	createdAt, updatedAt time.Time,
) *JobEntity {
	return &JobEntity{
		id:             id,
		videoID:        videoID,
		jobType:        jobType,
		status:         status,
		payload:        payload,
		idempotencyKey: idempotencyKey,
		errorMessage:   errorMessage,
		queuedAt:       queuedAt,
		startedAt:      startedAt,
		finishedAt:     finishedAt,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// ID 获取作业ID
func (j *JobEntity) ID() string {
	return j.id
}

// VideoID 获取视频ID
func (j *JobEntity) VideoID() string {
	return j.videoID
}

// Type 获取作业类型
func (j *JobEntity) Type() vo.JobType {
	return j.jobType
}

// Status 获取作业状态
func (j *JobEntity) Status() vo.JobStatus {
	return j.status
}

// Payload 获取作业载荷
func (j *JobEntity) Payload() json.RawMessage {
	return j.payload
}

// IdempotencyKey 获取幂等键（可为空）
func (j *JobEntity) IdempotencyKey() string {
	return j.idempotencyKey
}

// ErrorMessage 获取失败信息
func (j *JobEntity) ErrorMessage() string {
	return j.errorMessage
}

// QueuedAt 获取入队时间
func (j *JobEntity) QueuedAt() time.Time {
	return j.queuedAt
}

// StartedAt 首次进入running的时间
func (j *JobEntity) StartedAt() *time.Time {
	return j.startedAt
}

// FinishedAt 进入最终状态的时间
func (j *JobEntity) FinishedAt() *time.Time {
	return j.finishedAt
}

// CreatedAt 获取创建时间
func (j *JobEntity) CreatedAt() time.Time {
	return j.createdAt
}

// UpdatedAt 获取更新时间
func (j *JobEntity) UpdatedAt() time.Time {
	return j.updatedAt
}

// IsTerminal 是否已达最终状态
func (j *JobEntity) IsTerminal() bool {
	return j.status.IsTerminal()
}

// MarkRunning 转换到running状态
//
// started_at is set exactly once, on this transition.
func (j *JobEntity) MarkRunning() error {
	if err := j.transition(vo.JobStatusRunning); err != nil {
		return err
	}
	if j.startedAt == nil {
		now := time.Now()
		j.startedAt = &now
	}
	return nil
}

// MarkSucceeded 转换到succeeded状态
func (j *JobEntity) MarkSucceeded() error {
	if err := j.transition(vo.JobStatusSucceeded); err != nil {
		return err
	}
	j.finish()
	return nil
}

// MarkFailed 转换到failed状态并记录错误
func (j *JobEntity) MarkFailed(errorMessage string) error {
	if err := j.transition(vo.JobStatusFailed); err != nil {
		return err
	}
	j.errorMessage = errorMessage
	j.finish()
	return nil
}

// MarkCanceled 转换到canceled状态
func (j *JobEntity) MarkCanceled() error {
	if err := j.transition(vo.JobStatusCanceled); err != nil {
		return err
	}
	j.finish()
	return nil
}

func (j *JobEntity) transition(target vo.JobStatus) error {
	if !j.status.CanTransitionTo(target) {
		return errno.ErrInvalidJobStatus.WithMessage("cannot transition %s -> %s", j.status, target)
	}
	j.status = target
	j.updatedAt = time.Now()
	return nil
}

// finish finished_at is set exactly once, on the first terminal transition.
func (j *JobEntity) finish() {
	if j.finishedAt == nil {
		now := time.Now()
		j.finishedAt = &now
	}
}
