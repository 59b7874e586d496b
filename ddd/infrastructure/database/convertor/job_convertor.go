package convertor

import (
	"encoding/json"

	"videoindex-service/ddd/domain/entity"
	"videoindex-service/ddd/domain/vo"
	"videoindex-service/ddd/infrastructure/database/po"
)

// JobEntityToPO 作业实体转持久化对象
func JobEntityToPO(job *entity.JobEntity) *po.JobPO {
	jobPO := &po.JobPO{
		JobID:        job.ID(),
		VideoID:      job.VideoID(),
		Type:         string(job.Type()),
		Status:       string(job.Status()),
		Payload:      po.JSONDocument(job.Payload()),
		ErrorMessage: job.ErrorMessage(),
		QueuedAt:     job.QueuedAt(),
		StartedAt:    job.StartedAt(),
		FinishedAt:   job.FinishedAt(),
	}
	jobPO.CreatedAt = job.CreatedAt()
	jobPO.UpdatedAt = job.UpdatedAt()
	if key := job.IdempotencyKey(); key != "" {
		jobPO.IdempotencyKey = &key
	}
	return jobPO
}

// JobPOToEntity 持久化对象转作业实体
func JobPOToEntity(jobPO *po.JobPO) *entity.JobEntity {
	var key string
	if jobPO.IdempotencyKey != nil {
		key = *jobPO.IdempotencyKey
	}
	return entity.RestoreJobEntity(
		jobPO.JobID,
		jobPO.VideoID,
		vo.JobType(jobPO.Type),
		vo.JobStatus(jobPO.Status),
		json.RawMessage(jobPO.Payload),
		key,
		jobPO.ErrorMessage,
		jobPO.QueuedAt,
		jobPO.StartedAt,
		jobPO.FinishedAt,
		jobPO.CreatedAt,
		jobPO.UpdatedAt,
	)
}

// JobRunToPO 执行记录转持久化对象
func JobRunToPO(run *entity.JobRun) *po.JobRunPO {
	runPO := &po.JobRunPO{
		RunID:        run.ID,
		JobID:        run.JobID,
		Attempt:      run.Attempt,
		Status:       string(run.Status),
		ErrorMessage: run.ErrorMessage,
		Metadata:     po.JSONDocument(run.Metadata),
		StartedAt:    run.StartedAt,
		FinishedAt:   run.FinishedAt,
	}
	runPO.CreatedAt = run.CreatedAt
	runPO.UpdatedAt = run.UpdatedAt
	return runPO
}

// JobRunPOToEntity 持久化对象转执行记录
func JobRunPOToEntity(runPO *po.JobRunPO) *entity.JobRun {
	return &entity.JobRun{
		ID:           runPO.RunID,
		JobID:        runPO.JobID,
		Attempt:      runPO.Attempt,
		Status:       vo.JobStatus(runPO.Status),
		ErrorMessage: runPO.ErrorMessage,
		Metadata:     json.RawMessage(runPO.Metadata),
		StartedAt:    runPO.StartedAt,
		FinishedAt:   runPO.FinishedAt,
		CreatedAt:    runPO.CreatedAt,
		UpdatedAt:    runPO.UpdatedAt,
	}
}

// JobEventPOToEntity 持久化对象转作业事件
func JobEventPOToEntity(eventPO *po.JobEventPO) *entity.JobEvent {
	return &entity.JobEvent{
		ID:        eventPO.EventID,
		JobID:     eventPO.JobID,
		RunID:     eventPO.RunID,
		EventType: eventPO.EventType,
		Payload:   json.RawMessage(eventPO.Payload),
		CreatedAt: eventPO.CreatedAt,
	}
}
