package entity

import (
	"encoding/json"
	"time"

	"videoindex-service/ddd/domain/vo"
)

// JobRun 作业的一次执行尝试
//
// Retries are handled inside a single claimed attempt by the retry engine,
// so the current design keeps exactly one run per job (attempt 1). The row
// is keyed (job_id, attempt) so multi-attempt re-claiming later needs no
// schema change.
type JobRun struct {
	ID           string
	JobID        string
	Attempt      int
	Status       vo.JobStatus
	ErrorMessage string
	Metadata     json.RawMessage
	StartedAt    *time.Time
	FinishedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// JobEvent 作业的追加式审计事件
//
// Append-only: events are never updated or deleted, and are read back
// ordered by (created_at, id).
type JobEvent struct {
	ID        string
	JobID     string
	RunID     string
	EventType string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// 事件类型
const (
	EventPhaseStart             = "phase_start"
	EventPhaseComplete          = "phase_complete"
	EventPhaseFailed            = "phase_failed"
	EventLanguageResolved       = "language_resolved"
	EventTranscriptionJobQueued = "transcription_job_queued"
	EventIndexJobQueued         = "index_job_queued"
)
