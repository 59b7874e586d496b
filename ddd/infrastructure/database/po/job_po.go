package po

import "time"

// JobPO 任务持久化对象
type JobPO struct {
	BaseModel
	JobID          string       `gorm:"column:job_id;type:varchar(36);uniqueIndex" json:"job_id"`
	VideoID        string       `gorm:"column:video_id;type:varchar(36);index" json:"video_id"`
	Type           string       `gorm:"column:type;type:varchar(32);index:idx_type_status" json:"type"`
	Status         string       `gorm:"column:status;type:varchar(20);index:idx_type_status" json:"status"`
	Payload        JSONDocument `gorm:"column:payload;type:json" json:"payload"`
	IdempotencyKey *string      `gorm:"column:idempotency_key;type:varchar(255);uniqueIndex" json:"idempotency_key"`
	ErrorMessage   string       `gorm:"column:error_message;type:text" json:"error_message"`
	QueuedAt       time.Time    `gorm:"column:queued_at;index" json:"queued_at"`
	StartedAt      *time.Time   `gorm:"column:started_at" json:"started_at"`
	FinishedAt     *time.Time   `gorm:"column:finished_at" json:"finished_at"`
}

// TableName 表名
func (JobPO) TableName() string {
	return "jobs"
}

// JobRunPO 任务执行记录持久化对象
type JobRunPO struct {
	BaseModel
	RunID        string       `gorm:"column:run_id;type:varchar(36);uniqueIndex" json:"run_id"`
	JobID        string       `gorm:"column:job_id;type:varchar(36);uniqueIndex:uk_job_attempt" json:"job_id"`
	Attempt      int          `gorm:"column:attempt;uniqueIndex:uk_job_attempt" json:"attempt"`
	Status       string       `gorm:"column:status;type:varchar(20)" json:"status"`
	ErrorMessage string       `gorm:"column:error_message;type:text" json:"error_message"`
	Metadata     JSONDocument `gorm:"column:metadata;type:json" json:"metadata"`
	StartedAt    *time.Time   `gorm:"column:started_at" json:"started_at"`
	FinishedAt   *time.Time   `gorm:"column:finished_at" json:"finished_at"`
}

// TableName 表名
func (JobRunPO) TableName() string {
	return "job_runs"
}

// JobEventPO 任务事件持久化对象
type JobEventPO struct {
	BaseModel
	EventID   string       `gorm:"column:event_id;type:varchar(36);uniqueIndex" json:"event_id"`
	JobID     string       `gorm:"column:job_id;type:varchar(36);index" json:"job_id"`
	RunID     string       `gorm:"column:run_id;type:varchar(36)" json:"run_id"`
	EventType string       `gorm:"column:event_type;type:varchar(64)" json:"event_type"`
	Payload   JSONDocument `gorm:"column:payload;type:json" json:"payload"`
}

// TableName 表名
func (JobEventPO) TableName() string {
	return "job_events"
}
