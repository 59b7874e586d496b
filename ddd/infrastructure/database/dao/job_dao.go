package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"videoindex-service/ddd/infrastructure/database/po"
	"videoindex-service/pkg/errno"
)

// JobDAO 任务表数据访问对象
type JobDAO struct {
	db *gorm.DB
}

// NewJobDAO 创建JobDAO
func NewJobDAO(db *gorm.DB) *JobDAO {
	return &JobDAO{db: db}
}

// Create 创建任务记录
func (d *JobDAO) Create(ctx context.Context, job *po.JobPO) error {
	if err := d.db.WithContext(ctx).Create(job).Error; err != nil {
		return wrapDBError(err)
	}
	return nil
}

// GetByJobID 按任务ID查询
func (d *JobDAO) GetByJobID(ctx context.Context, jobID string) (*po.JobPO, error) {
	var job po.JobPO
	err := d.db.WithContext(ctx).Where("job_id = ?", jobID).Take(&job).Error
	if err != nil {
		return nil, wrapDBError(err)
	}
	return &job, nil
}

// GetByIdempotencyKey 按幂等键查询
func (d *JobDAO) GetByIdempotencyKey(ctx context.Context, key string) (*po.JobPO, error) {
	var job po.JobPO
	err := d.db.WithContext(ctx).Where("idempotency_key = ?", key).Take(&job).Error
	if err != nil {
		return nil, wrapDBError(err)
	}
	return &job, nil
}

// ClaimNext 认领下一个排队任务
//
// Single transaction: the oldest queued row matching claimTypes is locked
// with SKIP LOCKED so concurrent workers never block on each other or claim
// the same job. started_at is only set on the first claim; the attempt-1 run
// row is upserted so a crashed-and-requeued job reuses its run slot.
//
// An empty queue is not an error: (nil, false, nil).
func (d *JobDAO) ClaimNext(ctx context.Context, claimTypes []string, runID string, now time.Time) (*po.JobPO, bool, error) {
	var claimed po.JobPO
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? AND type IN ?", "queued", claimTypes).
			Order("queued_at asc, created_at asc").
			Limit(1).
			Take(&claimed).Error
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"status":     "running",
			"updated_at": now,
		}
		if claimed.StartedAt == nil {
			updates["started_at"] = now
		}
		if err := tx.Model(&po.JobPO{}).Where("job_id = ?", claimed.JobID).Updates(updates).Error; err != nil {
			return err
		}

		run := po.JobRunPO{
			RunID:     runID,
			JobID:     claimed.JobID,
			Attempt:   1,
			Status:    "running",
			StartedAt: &now,
		}
		run.CreatedAt = now
		run.UpdatedAt = now
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "job_id"}, {Name: "attempt"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"status":     "running",
				"started_at": now,
				"updated_at": now,
			}),
		}).Create(&run).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, wrapDBError(err)
	}

	claimed.Status = "running"
	if claimed.StartedAt == nil {
		claimed.StartedAt = &now
	}
	return &claimed, true, nil
}

// MarkTerminal 将任务与其最后一次执行置为终态
func (d *JobDAO) MarkTerminal(ctx context.Context, jobID, status, errorMessage string, finishedAt time.Time) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&po.JobPO{}).
			Where("job_id = ? AND status = ?", jobID, "running").
			Updates(map[string]interface{}{
				"status":        status,
				"error_message": errorMessage,
				"finished_at":   finishedAt,
				"updated_at":    finishedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errno.ErrInvalidJobStatus.WithMessage("job %s is not running", jobID)
		}

		return tx.Model(&po.JobRunPO{}).
			Where("job_id = ? AND status = ?", jobID, "running").
			Updates(map[string]interface{}{
				"status":        status,
				"error_message": errorMessage,
				"finished_at":   finishedAt,
				"updated_at":    finishedAt,
			}).Error
	})
	if err != nil {
		var e *errno.Errno
		if errors.As(err, &e) {
			return err
		}
		return wrapDBError(err)
	}
	return nil
}

// CreateRun 创建执行记录
func (d *JobDAO) CreateRun(ctx context.Context, run *po.JobRunPO) error {
	if err := d.db.WithContext(ctx).Create(run).Error; err != nil {
		return wrapDBError(err)
	}
	return nil
}

// AppendEvent 追加任务事件；任务不存在时返回NotFound
func (d *JobDAO) AppendEvent(ctx context.Context, event *po.JobEventPO) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&po.JobPO{}).Where("job_id = ?", event.JobID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(event).Error
	})
	return wrapDBError(err)
}

// ListRuns 按attempt升序列出执行记录
func (d *JobDAO) ListRuns(ctx context.Context, jobID string) ([]po.JobRunPO, error) {
	var runs []po.JobRunPO
	err := d.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("attempt asc").
		Find(&runs).Error
	if err != nil {
		return nil, wrapDBError(err)
	}
	return runs, nil
}

// ListEvents 按时间升序列出任务事件
func (d *JobDAO) ListEvents(ctx context.Context, jobID string) ([]po.JobEventPO, error) {
	var events []po.JobEventPO
	err := d.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at asc, id asc").
		Find(&events).Error
	if err != nil {
		return nil, wrapDBError(err)
	}
	return events, nil
}
