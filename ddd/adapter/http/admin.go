package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"videoindex-service/ddd/domain/entity"
	"videoindex-service/ddd/domain/repo"
	"videoindex-service/ddd/infrastructure/worker"
	"videoindex-service/pkg/config"
	"videoindex-service/pkg/errno"
	"videoindex-service/pkg/logger"
)

// AdminServer 只读运维接口
//
// Read-only by design: jobs enter the system through producers writing
// rows, never through this surface.
type AdminServer struct {
	cfg     config.AdminConfig
	jobRepo repo.JobRepository
	workers []worker.StageWorker
	server  *http.Server
}

// NewAdminServer 创建运维接口服务
func NewAdminServer(cfg config.AdminConfig, jobRepo repo.JobRepository, workers []worker.StageWorker) *AdminServer {
	return &AdminServer{
		cfg:     cfg,
		jobRepo: jobRepo,
		workers: workers,
	}
}

// Start 启动HTTP服务
func (s *AdminServer) Start() error {
	gin.SetMode(s.cfg.Mode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", s.handleHealthz)

	api := router.Group("/api/v1")
	{
		api.GET("/workers/stats", s.handleWorkerStats)
		api.GET("/jobs/:id", s.handleGetJob)
		api.GET("/jobs/:id/runs", s.handleListRuns)
		api.GET("/jobs/:id/events", s.handleListEvents)
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:      router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	logger.Info("Admin server listening", map[string]interface{}{"addr": s.server.Addr})
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown 优雅关闭
func (s *AdminServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *AdminServer) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Format(time.RFC3339)})
}

func (s *AdminServer) handleWorkerStats(c *gin.Context) {
	stats := make([]worker.WorkerStats, 0, len(s.workers))
	for _, w := range s.workers {
		stats = append(stats, w.GetStats())
	}
	c.JSON(http.StatusOK, gin.H{"workers": stats})
}

func (s *AdminServer) handleGetJob(c *gin.Context) {
	job, err := s.jobRepo.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobResponse(job))
}

func (s *AdminServer) handleListRuns(c *gin.Context) {
	jobID := c.Param("id")
	if _, err := s.jobRepo.GetJob(c.Request.Context(), jobID); err != nil {
		s.renderError(c, err)
		return
	}
	runs, err := s.jobRepo.ListJobRuns(c.Request.Context(), jobID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	out := make([]gin.H, 0, len(runs))
	for _, run := range runs {
		out = append(out, runResponse(run))
	}
	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "runs": out})
}

func (s *AdminServer) handleListEvents(c *gin.Context) {
	jobID := c.Param("id")
	if _, err := s.jobRepo.GetJob(c.Request.Context(), jobID); err != nil {
		s.renderError(c, err)
		return
	}
	events, err := s.jobRepo.ListJobEvents(c.Request.Context(), jobID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	out := make([]gin.H, 0, len(events))
	for _, event := range events {
		out = append(out, eventResponse(event))
	}
	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "events": out})
}

func (s *AdminServer) renderError(c *gin.Context, err error) {
	var e *errno.Errno
	status := http.StatusInternalServerError
	code := "internal_error"
	message := "internal error"
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
		switch e.Kind {
		case errno.KindNotFound:
			status = http.StatusNotFound
		case errno.KindValidation:
			status = http.StatusBadRequest
		case errno.KindConflict:
			status = http.StatusConflict
		}
	}
	c.JSON(status, gin.H{"code": code, "message": message})
}

func jobResponse(job *entity.JobEntity) gin.H {
	return gin.H{
		"job_id":          job.ID(),
		"video_id":        job.VideoID(),
		"type":            job.Type().String(),
		"status":          string(job.Status()),
		"payload":         json.RawMessage(job.Payload()),
		"idempotency_key": job.IdempotencyKey(),
		"error_message":   job.ErrorMessage(),
		"queued_at":       job.QueuedAt(),
		"started_at":      job.StartedAt(),
		"finished_at":     job.FinishedAt(),
		"created_at":      job.CreatedAt(),
		"updated_at":      job.UpdatedAt(),
	}
}

func runResponse(run *entity.JobRun) gin.H {
	return gin.H{
		"run_id":        run.ID,
		"attempt":       run.Attempt,
		"status":        string(run.Status),
		"error_message": run.ErrorMessage,
		"metadata":      run.Metadata,
		"started_at":    run.StartedAt,
		"finished_at":   run.FinishedAt,
	}
}

func eventResponse(event *entity.JobEvent) gin.H {
	return gin.H{
		"event_id":   event.ID,
		"run_id":     event.RunID,
		"event_type": event.EventType,
		"payload":    event.Payload,
		"created_at": event.CreatedAt,
	}
}
