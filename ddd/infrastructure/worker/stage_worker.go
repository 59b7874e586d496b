package worker

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"videoindex-service/ddd/domain/entity"
	"videoindex-service/ddd/domain/repo"
	"videoindex-service/ddd/domain/service"
	"videoindex-service/pkg/errno"
	"videoindex-service/pkg/logger"
)

// StageWorker 阶段工作器接口
type StageWorker interface {
	// Start 启动工作器
	Start(ctx context.Context) error

	// Stop 停止工作器，等待在途作业完成
	Stop() error

	// IsRunning 检查工作器是否运行中
	IsRunning() bool

	// GetStats 获取工作器统计信息
	GetStats() WorkerStats
}

// WorkerStats 工作器统计信息
type WorkerStats struct {
	Stage            string    `json:"stage"`
	WorkerID         string    `json:"worker_id"`
	ProcessedJobs    uint64    `json:"processed_jobs"`
	SucceededJobs    uint64    `json:"succeeded_jobs"`
	FailedJobs       uint64    `json:"failed_jobs"`
	EmptyPolls       uint64    `json:"empty_polls"`
	CurrentlyRunning int       `json:"currently_running"`
	StartTime        time.Time `json:"start_time"`
	LastJobTime      time.Time `json:"last_job_time"`
}

// stageWorkerImpl 阶段工作器实现
//
// Claim-then-execute loop: each iteration claims at most one queued job,
// runs the stage, and records the terminal status. An empty queue sleeps
// one poll interval. A panic inside a stage fails the job instead of
// killing the loop. Stop only halts new claims; the in-flight job runs to
// its terminal status on a live context.
type stageWorkerImpl struct {
	id           string
	stage        service.Stage
	jobRepo      repo.JobRepository
	heartbeat    *Heartbeat
	pollInterval time.Duration
	running      bool
	stopCh       chan struct{}
	stats        WorkerStats
	mu           sync.RWMutex
	wg           sync.WaitGroup
}

// NewStageWorker 创建阶段工作器
func NewStageWorker(
	id string,
	stage service.Stage,
	jobRepo repo.JobRepository,
	heartbeat *Heartbeat,
	pollInterval time.Duration,
) StageWorker {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	return &stageWorkerImpl{
		id:           id,
		stage:        stage,
		jobRepo:      jobRepo,
		heartbeat:    heartbeat,
		pollInterval: pollInterval,
		stats: WorkerStats{
			Stage:     stage.Type().String(),
			WorkerID:  id,
			StartTime: time.Now(),
		},
	}
}

// Start 启动工作器
func (w *stageWorkerImpl) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("worker %s is already running", w.id)
	}

	w.stopCh = make(chan struct{})
	w.running = true
	w.stats.StartTime = time.Now()

	logger.Info("Starting stage worker", map[string]interface{}{
		"worker_id": w.id,
		"stage":     w.stage.Type().String(),
	})

	w.wg.Add(1)
	go w.workerLoop(ctx)

	if w.heartbeat != nil {
		w.wg.Add(1)
		go w.heartbeatLoop(ctx)
	}

	return nil
}

// Stop 停止工作器
//
// Closes the stop channel instead of canceling the loop context: the
// in-flight job keeps a live context for its stage work and terminal
// update, and only new claims stop.
func (w *stageWorkerImpl) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	logger.Info("Stopping stage worker", map[string]interface{}{"worker_id": w.id})
	w.wg.Wait()
	logger.Info("Stage worker stopped", map[string]interface{}{"worker_id": w.id})
	return nil
}

// IsRunning 检查工作器是否运行中
func (w *stageWorkerImpl) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// GetStats 获取工作器统计信息
func (w *stageWorkerImpl) GetStats() WorkerStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// workerLoop 工作器主循环
func (w *stageWorkerImpl) workerLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		default:
		}

		job, ok, err := w.jobRepo.ClaimNextJob(ctx, w.stage.Type())
		if err != nil {
			logger.Error("Failed to claim job", map[string]interface{}{
				"worker_id": w.id,
				"stage":     w.stage.Type().String(),
				"error":     err.Error(),
			})
			w.sleep(ctx, w.pollInterval)
			continue
		}
		if !ok {
			w.updateStats(func(stats *WorkerStats) { stats.EmptyPolls++ })
			w.sleep(ctx, w.pollInterval)
			continue
		}

		w.processJob(ctx, job)
	}
}

// processJob 处理单个作业
func (w *stageWorkerImpl) processJob(ctx context.Context, job *entity.JobEntity) {
	logger.Info("Processing job", map[string]interface{}{
		"worker_id": w.id,
		"job_id":    job.ID(),
		"job_type":  job.Type().String(),
	})

	w.updateStats(func(stats *WorkerStats) {
		stats.CurrentlyRunning++
		stats.LastJobTime = time.Now()
	})
	defer w.updateStats(func(stats *WorkerStats) {
		stats.CurrentlyRunning--
		stats.ProcessedJobs++
	})

	err := w.executeStage(ctx, job)
	if err != nil {
		logger.Error("Job failed", map[string]interface{}{
			"worker_id": w.id,
			"job_id":    job.ID(),
			"kind":      string(errno.KindOf(err)),
			"error":     err.Error(),
		})
		if markErr := w.jobRepo.MarkJobFailed(ctx, job.ID(), err.Error()); markErr != nil {
			logger.Error("Failed to mark job failed", map[string]interface{}{
				"job_id": job.ID(),
				"error":  markErr.Error(),
			})
		}
		w.updateStats(func(stats *WorkerStats) { stats.FailedJobs++ })
		return
	}

	if markErr := w.jobRepo.MarkJobSucceeded(ctx, job.ID()); markErr != nil {
		logger.Error("Failed to mark job succeeded", map[string]interface{}{
			"job_id": job.ID(),
			"error":  markErr.Error(),
		})
		w.updateStats(func(stats *WorkerStats) { stats.FailedJobs++ })
		return
	}

	logger.Info("Job succeeded", map[string]interface{}{
		"worker_id": w.id,
		"job_id":    job.ID(),
	})
	w.updateStats(func(stats *WorkerStats) { stats.SucceededJobs++ })
}

// executeStage 执行阶段并拦截panic
func (w *stageWorkerImpl) executeStage(ctx context.Context, job *entity.JobEntity) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Stage panicked", map[string]interface{}{
				"worker_id": w.id,
				"job_id":    job.ID(),
				"panic":     fmt.Sprintf("%v", r),
				"stack":     string(debug.Stack()),
			})
			err = errno.ErrInternal.WithMessage("stage panicked: %v", r)
		}
	}()
	return w.stage.Execute(ctx, job)
}

// heartbeatLoop 心跳续期循环
func (w *stageWorkerImpl) heartbeatLoop(ctx context.Context) {
	defer w.wg.Done()

	w.heartbeat.Beat(ctx)
	ticker := time.NewTicker(w.heartbeat.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.heartbeat.Clear(context.Background())
			return
		case <-w.stopCh:
			w.heartbeat.Clear(context.Background())
			return
		case <-ticker.C:
			w.heartbeat.Beat(ctx)
		}
	}
}

func (w *stageWorkerImpl) updateStats(fn func(stats *WorkerStats)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(&w.stats)
}

func (w *stageWorkerImpl) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-w.stopCh:
	case <-timer.C:
	}
}
