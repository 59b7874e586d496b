package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"videoindex-service/ddd/domain/entity"
	"videoindex-service/ddd/domain/repo"
	"videoindex-service/ddd/domain/vo"
	"videoindex-service/ddd/infrastructure/database/convertor"
	"videoindex-service/ddd/infrastructure/database/dao"
	"videoindex-service/ddd/infrastructure/database/po"
	"videoindex-service/pkg/errno"
)

// JobRepositoryImpl 作业仓储实现
type JobRepositoryImpl struct {
	jobDAO *dao.JobDAO
}

// NewJobRepository 创建作业仓储
func NewJobRepository(db *gorm.DB) repo.JobRepository {
	return &JobRepositoryImpl{jobDAO: dao.NewJobDAO(db)}
}

// CreateJob 创建作业
func (r *JobRepositoryImpl) CreateJob(ctx context.Context, job *entity.JobEntity) error {
	return r.jobDAO.Create(ctx, convertor.JobEntityToPO(job))
}

// CreateOrGetJob 按幂等键创建作业，键已存在时返回已有行
//
// The unique index on idempotency_key arbitrates the race: whoever loses
// the insert re-reads the winner's row.
func (r *JobRepositoryImpl) CreateOrGetJob(ctx context.Context, job *entity.JobEntity) (*entity.JobEntity, bool, error) {
	err := r.jobDAO.Create(ctx, convertor.JobEntityToPO(job))
	if err == nil {
		return job, true, nil
	}
	if !errno.IsConflict(err) || job.IdempotencyKey() == "" {
		return nil, false, err
	}

	existing, getErr := r.GetJobByIdempotencyKey(ctx, job.IdempotencyKey())
	if getErr != nil {
		return nil, false, getErr
	}
	return existing, false, nil
}

// GetJob 按ID获取作业
func (r *JobRepositoryImpl) GetJob(ctx context.Context, jobID string) (*entity.JobEntity, error) {
	jobPO, err := r.jobDAO.GetByJobID(ctx, jobID)
	if err != nil {
		if errno.IsNotFound(err) {
			return nil, errno.ErrJobNotFound.WithMessage("job %s not found", jobID)
		}
		return nil, err
	}
	return convertor.JobPOToEntity(jobPO), nil
}

// GetJobByIdempotencyKey 按幂等键获取作业
func (r *JobRepositoryImpl) GetJobByIdempotencyKey(ctx context.Context, key string) (*entity.JobEntity, error) {
	jobPO, err := r.jobDAO.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return convertor.JobPOToEntity(jobPO), nil
}

// ClaimNextJob 认领下一个排队作业
func (r *JobRepositoryImpl) ClaimNextJob(ctx context.Context, jobType vo.JobType) (*entity.JobEntity, bool, error) {
	jobPO, ok, err := r.jobDAO.ClaimNext(ctx, jobType.ClaimTypes(), uuid.New().String(), time.Now())
	if err != nil || !ok {
		return nil, false, err
	}
	return convertor.JobPOToEntity(jobPO), true, nil
}

// MarkJobSucceeded 作业置为succeeded
func (r *JobRepositoryImpl) MarkJobSucceeded(ctx context.Context, jobID string) error {
	return r.jobDAO.MarkTerminal(ctx, jobID, string(vo.JobStatusSucceeded), "", time.Now())
}

// MarkJobFailed 作业置为failed并记录错误
func (r *JobRepositoryImpl) MarkJobFailed(ctx context.Context, jobID string, errorMessage string) error {
	return r.jobDAO.MarkTerminal(ctx, jobID, string(vo.JobStatusFailed), errorMessage, time.Now())
}

// CreateJobRun 创建执行记录
func (r *JobRepositoryImpl) CreateJobRun(ctx context.Context, run *entity.JobRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	return r.jobDAO.CreateRun(ctx, convertor.JobRunToPO(run))
}

// AppendJobEvent 追加审计事件
func (r *JobRepositoryImpl) AppendJobEvent(ctx context.Context, jobID string, eventType string, payload json.RawMessage) (*entity.JobEvent, error) {
	now := time.Now()
	eventPO := &po.JobEventPO{
		EventID:   uuid.New().String(),
		JobID:     jobID,
		EventType: eventType,
		Payload:   po.JSONDocument(payload),
	}
	eventPO.CreatedAt = now
	eventPO.UpdatedAt = now
	if err := r.jobDAO.AppendEvent(ctx, eventPO); err != nil {
		if errno.IsNotFound(err) {
			return nil, errno.ErrJobNotFound.WithMessage("job %s not found", jobID)
		}
		return nil, err
	}
	return convertor.JobEventPOToEntity(eventPO), nil
}

// ListJobRuns 列出执行记录
func (r *JobRepositoryImpl) ListJobRuns(ctx context.Context, jobID string) ([]*entity.JobRun, error) {
	runPOs, err := r.jobDAO.ListRuns(ctx, jobID)
	if err != nil {
		return nil, err
	}
	runs := make([]*entity.JobRun, 0, len(runPOs))
	for i := range runPOs {
		runs = append(runs, convertor.JobRunPOToEntity(&runPOs[i]))
	}
	return runs, nil
}

// ListJobEvents 列出审计事件
func (r *JobRepositoryImpl) ListJobEvents(ctx context.Context, jobID string) ([]*entity.JobEvent, error) {
	eventPOs, err := r.jobDAO.ListEvents(ctx, jobID)
	if err != nil {
		return nil, err
	}
	events := make([]*entity.JobEvent, 0, len(eventPOs))
	for i := range eventPOs {
		events = append(events, convertor.JobEventPOToEntity(&eventPOs[i]))
	}
	return events, nil
}
