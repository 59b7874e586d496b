package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"videoindex-service/ddd/domain/entity"
	"videoindex-service/ddd/domain/gateway"
	"videoindex-service/ddd/domain/repo"
	"videoindex-service/ddd/domain/vo"
	"videoindex-service/pkg/errno"
	"videoindex-service/pkg/idempotency"
	"videoindex-service/pkg/logger"
)

// IngestConfig 摄取阶段配置
type IngestConfig struct {
	VideoBucket string
	AudioBucket string
	TempDir     string
}

// IngestService 摄取阶段
//
// Acquires the source media, registers the video, extracts the normalized
// audio track and hands off to transcription through an idempotent job
// create. Every phase writes its artifacts before the follow-up job exists,
// so a crash between phases re-runs safely.
type IngestService struct {
	cfg       IngestConfig
	jobs      repo.JobRepository
	videos    repo.VideoRepository
	storage   gateway.ObjectStorage
	prober    gateway.MediaProber
	extractor gateway.AudioExtractor
	events    eventRecorder
	httpGet   func(ctx context.Context, url string) (*http.Response, error)
}

// NewIngestService 创建摄取阶段
func NewIngestService(
	cfg IngestConfig,
	jobs repo.JobRepository,
	videos repo.VideoRepository,
	storage gateway.ObjectStorage,
	prober gateway.MediaProber,
	extractor gateway.AudioExtractor,
	publisher gateway.EventPublisher,
) *IngestService {
	return &IngestService{
		cfg:       cfg,
		jobs:      jobs,
		videos:    videos,
		storage:   storage,
		prober:    prober,
		extractor: extractor,
		events:    eventRecorder{jobs: jobs, publisher: publisher},
		httpGet: func(ctx context.Context, url string) (*http.Response, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return nil, err
			}
			return http.DefaultClient.Do(req)
		},
	}
}

// Type 阶段处理的作业类型
func (s *IngestService) Type() vo.JobType {
	return vo.JobTypeIngest
}

// Execute 执行一次摄取作业
func (s *IngestService) Execute(ctx context.Context, job *entity.JobEntity) error {
	var payload vo.IngestPayload
	if err := vo.DecodePayload(job.Payload(), &payload); err != nil {
		return err
	}
	if err := payload.Source.Validate(); err != nil {
		return err
	}

	s.events.record(ctx, job.ID(), entity.EventPhaseStart, map[string]interface{}{"phase": "ingest"})

	workDir := filepath.Join(s.cfg.TempDir, "ingest", job.ID())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return errno.ErrInternal.Wrap(err)
	}
	defer os.RemoveAll(workDir)

	localVideo := filepath.Join(workDir, "source"+sourceExt(payload.Source))
	if err := s.acquireSource(ctx, payload.Source, localVideo); err != nil {
		s.events.record(ctx, job.ID(), entity.EventPhaseFailed, map[string]interface{}{
			"phase": "ingest", "step": "acquire", "error": err.Error(),
		})
		return err
	}

	// 媒体探测尽力而为，失败不影响摄取
	probe := s.prober.Probe(ctx, localVideo)

	videoID, err := s.registerVideo(ctx, payload, probe)
	if err != nil {
		return err
	}

	// 上传来源走服务端拷贝迁移，远端来源用本地已取回的文件
	videoKey := fmt.Sprintf("videos/%s/source%s", videoID, sourceExt(payload.Source))
	if payload.Source.Kind == vo.SourceKindUpload {
		if err := s.storage.CopyObject(ctx, payload.Source.UploadBucket, payload.Source.UploadKey, s.cfg.VideoBucket, videoKey); err != nil {
			return err
		}
	} else if _, err := s.storage.UploadFile(ctx, s.cfg.VideoBucket, videoKey, localVideo, ""); err != nil {
		return err
	}

	localAudio := filepath.Join(workDir, "audio.wav")
	if err := s.extractor.ExtractAudio(ctx, localVideo, localAudio); err != nil {
		s.events.record(ctx, job.ID(), entity.EventPhaseFailed, map[string]interface{}{
			"phase": "ingest", "step": "extract_audio", "error": err.Error(),
		})
		return err
	}

	audioKey := fmt.Sprintf("audio/%s/%s/audio.wav", videoID, job.ID())
	if _, err := s.storage.UploadFile(ctx, s.cfg.AudioBucket, audioKey, localAudio, "audio/wav"); err != nil {
		return err
	}

	if _, err := s.videos.UpsertVideo(ctx, &entity.Video{
		ID:            videoID,
		SourceType:    string(payload.Source.Kind),
		SourceURI:     payload.Source.SourceURI(),
		DurationMS:    probeDurationMS(probe),
		StorageBucket: s.cfg.VideoBucket,
		StorageKey:    videoKey,
	}); err != nil {
		return err
	}

	transcribeJob, created, err := s.enqueueTranscription(ctx, videoID, audioKey, payload.Source.Language)
	if err != nil {
		return err
	}
	s.events.record(ctx, job.ID(), entity.EventTranscriptionJobQueued, map[string]interface{}{
		"transcription_job_id": transcribeJob.ID(),
		"created":              created,
		"audio_bucket":         s.cfg.AudioBucket,
		"audio_key":            audioKey,
	})

	s.events.record(ctx, job.ID(), entity.EventPhaseComplete, map[string]interface{}{
		"phase":     "ingest",
		"video_id":  videoID,
		"video_key": videoKey,
		"audio_key": audioKey,
	})

	logger.Info("Ingest job completed", map[string]interface{}{
		"job_id":   job.ID(),
		"video_id": videoID,
	})
	return nil
}

// acquireSource 获取来源媒体到本地路径
func (s *IngestService) acquireSource(ctx context.Context, src vo.SourceDescriptor, localPath string) error {
	switch src.Kind {
	case vo.SourceKindUpload:
		return s.storage.DownloadToFile(ctx, src.UploadBucket, src.UploadKey, localPath)
	case vo.SourceKindExternalURL:
		return s.downloadURL(ctx, src.URL, localPath)
	default:
		return errno.ErrVideoSourceRequired.WithMessage("unknown source kind %q", src.Kind)
	}
}

func (s *IngestService) downloadURL(ctx context.Context, url, localPath string) error {
	resp, err := s.httpGet(ctx, url)
	if err != nil {
		return errno.ErrStorageUnavailable.Wrap(fmt.Errorf("fetch source url failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return errno.ErrStorageUnavailable.WithMessage("source url returned status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return errno.ErrVideoSourceRequired.WithMessage("source url returned status %d", resp.StatusCode)
	}

	out, err := os.Create(localPath)
	if err != nil {
		return errno.ErrInternal.Wrap(err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return errno.ErrStorageUnavailable.Wrap(fmt.Errorf("download source url failed: %w", err))
	}
	return nil
}

// registerVideo 登记视频并取得规范ID
//
// Create-or-get only: the storage pointers are not known yet and a re-run
// must not blank them on an already-registered source. The full upsert
// happens after the artifacts are in place.
func (s *IngestService) registerVideo(ctx context.Context, payload vo.IngestPayload, probe gateway.ProbeResult) (string, error) {
	video := &entity.Video{
		ID:         payload.VideoID,
		SourceType: string(payload.Source.Kind),
		SourceURI:  payload.Source.SourceURI(),
		DurationMS: probeDurationMS(probe),
	}
	return s.videos.CreateOrGetVideo(ctx, video)
}

// enqueueTranscription 幂等创建转写作业
func (s *IngestService) enqueueTranscription(ctx context.Context, videoID, audioKey, languageHint string) (*entity.JobEntity, bool, error) {
	payload, err := vo.EncodePayload(vo.TranscribePayload{
		AudioStorageRef: &vo.StorageRef{
			Bucket: s.cfg.AudioBucket,
			Key:    audioKey,
		},
		Language: languageHint,
	})
	if err != nil {
		return nil, false, err
	}

	key := idempotency.TranscriptionJobKey(videoID, s.cfg.AudioBucket, audioKey)
	job, err := entity.NewJobEntity(videoID, vo.JobTypeTranscribe, payload, key)
	if err != nil {
		return nil, false, err
	}
	return s.jobs.CreateOrGetJob(ctx, job)
}

func sourceExt(src vo.SourceDescriptor) string {
	var name string
	switch src.Kind {
	case vo.SourceKindUpload:
		name = src.UploadKey
	case vo.SourceKindExternalURL:
		name = src.URL
	}
	ext := filepath.Ext(name)
	if ext == "" || len(ext) > 8 {
		return ".mp4"
	}
	return ext
}

func probeDurationMS(probe gateway.ProbeResult) *int64 {
	if probe.DurationSeconds == nil {
		return nil
	}
	ms := vo.SecondsToMS(*probe.DurationSeconds)
	return &ms
}
