package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/grafana/pyroscope-go"

	adapterhttp "videoindex-service/ddd/adapter/http"
	"videoindex-service/ddd/domain/gateway"
	"videoindex-service/ddd/domain/service"
	"videoindex-service/ddd/domain/vo"
	"videoindex-service/ddd/infrastructure/database/persistence"
	"videoindex-service/ddd/infrastructure/database/po"
	"videoindex-service/ddd/infrastructure/events"
	"videoindex-service/ddd/infrastructure/media"
	"videoindex-service/ddd/infrastructure/search"
	"videoindex-service/ddd/infrastructure/storage"
	"videoindex-service/ddd/infrastructure/transcription"
	"videoindex-service/ddd/infrastructure/worker"
	"videoindex-service/internal/resource"
	"videoindex-service/pkg/config"
	"videoindex-service/pkg/logger"
	"videoindex-service/pkg/retry"
)

// Run 启动一个阶段worker进程
//
// One process runs one pipeline stage. The admin HTTP surface and the
// worker share the process; shutdown drains the in-flight job before exit.
func Run(stage vo.JobType) {
	fmt.Printf("[STARTUP] Starting videoindex %s worker...\n", stage)

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("[ERROR] Failed to load config (%s): %v\n", cfgPath, err)
		os.Exit(1)
	}

	logService := logger.NewLogger(cfg)
	logger.SetGlobalLogger(logService)
	logger.Info("Config loaded", map[string]interface{}{"path": cfgPath, "stage": stage.String()})

	if cfg.Pyroscope.Enabled {
		startPyroscope(cfg, stage)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resources, err := resource.New(ctx, cfg)
	if err != nil {
		logger.Fatal(fmt.Sprintf("Failed to initialize resources: %v", err))
	}
	defer resources.Close()

	if err := resources.DB.AutoMigrate(
		&po.JobPO{}, &po.JobRunPO{}, &po.JobEventPO{},
		&po.VideoPO{}, &po.TranscriptPO{},
	); err != nil {
		logger.Fatal(fmt.Sprintf("Failed to migrate schema: %v", err))
	}

	jobRepo := persistence.NewJobRepository(resources.DB)
	videoRepo := persistence.NewVideoRepository(resources.DB)
	transcriptRepo := persistence.NewTranscriptRepository(resources.DB)
	objectStorage := storage.NewMinioStorage(resources.Minio)

	var publisher gateway.EventPublisher
	var kafkaPublisher *events.KafkaPublisher
	if cfg.Kafka.Enabled {
		kafkaPublisher = events.NewKafkaPublisher(cfg.Kafka.BootstrapServers, cfg.Kafka.JobEventsTopic)
		publisher = kafkaPublisher
		defer kafkaPublisher.Close()
	} else {
		publisher = events.NopPublisher{}
	}

	var stageService service.Stage
	switch stage {
	case vo.JobTypeIngest:
		stageService = service.NewIngestService(
			service.IngestConfig{
				VideoBucket: cfg.Minio.VideoBucket,
				AudioBucket: cfg.Minio.AudioBucket,
				TempDir:     cfg.Media.TempDir,
			},
			jobRepo,
			videoRepo,
			objectStorage,
			media.NewFFProber(cfg.Media.FFprobePath),
			media.NewFFMpegExtractor(cfg.Media.FFmpegPath, cfg.Media.SampleRate),
			publisher,
		)
	case vo.JobTypeTranscribe:
		provider, err := transcription.NewProvider(&cfg.Transcription)
		if err != nil {
			logger.Fatal(fmt.Sprintf("Failed to build transcription provider: %v", err))
		}
		stageService = service.NewTranscribeService(
			service.TranscribeConfig{
				TranscriptsBucket: cfg.Minio.TranscriptsBucket,
				TempDir:           cfg.Media.TempDir,
				Retry: retry.Config{
					MaxAttempts:    cfg.Retry.MaxAttempts,
					BackoffBase:    cfg.Retry.BackoffBase,
					BackoffMax:     cfg.Retry.BackoffMax,
					JobTimeout:     cfg.Retry.JobTimeout,
					AttemptTimeout: cfg.Retry.AttemptTimeout,
				},
			},
			jobRepo,
			transcriptRepo,
			objectStorage,
			provider,
			publisher,
		)
	case vo.JobTypeIndex:
		stageService = service.NewIndexService(
			service.IndexConfig{
				SegmentsIndex:      cfg.OpenSearch.SegmentsIndex,
				SegmentsCollection: cfg.Qdrant.SegmentsCollection,
				VectorSize:         cfg.Qdrant.VectorSize,
				BatchSize:          cfg.Indexer.BatchSize,
				TempDir:            cfg.Media.TempDir,
			},
			jobRepo,
			objectStorage,
			search.NewOpenSearchIndex(resources.OpenSearch),
			search.NewQdrantIndex(resources.Qdrant),
			publisher,
		)
	default:
		logger.Fatal(fmt.Sprintf("Unknown stage %q", stage))
	}

	workerID := cfg.Worker.WorkerID
	if workerID == "" {
		hostname, _ := os.Hostname()
		workerID = hostname
	}

	heartbeat := worker.NewHeartbeat(resources.Redis, stage.String(), workerID, cfg.Worker.HeartbeatTTL)
	stageWorker := worker.NewStageWorker(workerID, stageService, jobRepo, heartbeat, cfg.Worker.PollInterval)
	if err := stageWorker.Start(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("Failed to start worker: %v", err))
	}

	var adminServer *adapterhttp.AdminServer
	if cfg.Admin.Enabled {
		adminServer = adapterhttp.NewAdminServer(cfg.Admin, jobRepo, []worker.StageWorker{stageWorker})
		go func() {
			if err := adminServer.Start(); err != nil {
				logger.Error("Admin server exited", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down", map[string]interface{}{"stage": stage.String()})

	if adminServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownGracePeriod)
		if err := adminServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Admin server shutdown failed", map[string]interface{}{"error": err.Error()})
		}
		shutdownCancel()
	}

	if err := stageWorker.Stop(); err != nil {
		logger.Warn("Worker stop failed", map[string]interface{}{"error": err.Error()})
	}

	logger.Info("Worker exited", map[string]interface{}{"stage": stage.String()})
}

// resolveConfigPath 配置文件路径：环境变量优先，其次默认路径
func resolveConfigPath() string {
	if p := os.Getenv("VIDEOINDEX_CONFIG"); p != "" {
		return p
	}
	return "configs/config.yaml"
}

// startPyroscope 接入持续剖析
func startPyroscope(cfg *config.Config, stage vo.JobType) {
	appName := cfg.Pyroscope.AppName
	if appName == "" {
		appName = "videoindex-service"
	}
	_, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: appName,
		ServerAddress:   cfg.Pyroscope.ServerAddress,
		Tags:            map[string]string{"stage": stage.String()},
	})
	if err != nil {
		logger.Warn("Failed to start pyroscope", map[string]interface{}{"error": err.Error()})
	}
}
