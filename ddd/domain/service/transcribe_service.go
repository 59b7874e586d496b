package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"videoindex-service/ddd/domain/entity"
	"videoindex-service/ddd/domain/gateway"
	"videoindex-service/ddd/domain/repo"
	"videoindex-service/ddd/domain/vo"
	"videoindex-service/pkg/errno"
	"videoindex-service/pkg/idempotency"
	"videoindex-service/pkg/logger"
	"videoindex-service/pkg/retry"
)

// TranscribeConfig 转写阶段配置
type TranscribeConfig struct {
	TranscriptsBucket string
	TempDir           string
	Retry             retry.Config
}

// TranscribeService 转写阶段
//
// Fetches the audio artifact, runs the provider under the retry engine,
// normalizes segments and language, persists the transcript artifact and
// row, and hands off to indexing through an idempotent job create.
type TranscribeService struct {
	cfg         TranscribeConfig
	jobs        repo.JobRepository
	transcripts repo.TranscriptRepository
	storage     gateway.ObjectStorage
	provider    gateway.TranscriptionProvider
	events      eventRecorder
	retryOpts   []retry.Option
}

// NewTranscribeService 创建转写阶段
func NewTranscribeService(
	cfg TranscribeConfig,
	jobs repo.JobRepository,
	transcripts repo.TranscriptRepository,
	storage gateway.ObjectStorage,
	provider gateway.TranscriptionProvider,
	publisher gateway.EventPublisher,
) *TranscribeService {
	return &TranscribeService{
		cfg:         cfg,
		jobs:        jobs,
		transcripts: transcripts,
		storage:     storage,
		provider:    provider,
		events:      eventRecorder{jobs: jobs, publisher: publisher},
	}
}

// Type 阶段处理的作业类型
func (s *TranscribeService) Type() vo.JobType {
	return vo.JobTypeTranscribe
}

// Execute 执行一次转写作业
func (s *TranscribeService) Execute(ctx context.Context, job *entity.JobEntity) error {
	var payload vo.TranscribePayload
	if err := vo.DecodePayload(job.Payload(), &payload); err != nil {
		return err
	}
	audioBucket, audioKey, err := payload.ResolveAudioRef()
	if err != nil {
		return err
	}

	s.events.record(ctx, job.ID(), entity.EventPhaseStart, map[string]interface{}{
		"phase":        "transcribe",
		"audio_bucket": audioBucket,
		"audio_key":    audioKey,
	})

	workDir := filepath.Join(s.cfg.TempDir, "transcribe", job.ID())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return errno.ErrInternal.Wrap(err)
	}
	defer os.RemoveAll(workDir)

	localAudio := filepath.Join(workDir, "audio"+artifactExt(audioKey))

	var result *gateway.TranscriptResult
	err = retry.Run(ctx, s.cfg.Retry, func(attemptCtx context.Context, attemptTimeout time.Duration) error {
		// 每次尝试重新下载，避免半截文件被复用
		if err := s.storage.DownloadToFile(attemptCtx, audioBucket, audioKey, localAudio); err != nil {
			return err
		}
		r, err := s.provider.Transcribe(attemptCtx, localAudio, attemptTimeout)
		if err != nil {
			return err
		}
		result = r
		return nil
	}, append(s.retryOpts, retry.WithOnError(func(attempt int, attemptErr error) {
		logger.Warn("Transcription attempt failed", map[string]interface{}{
			"job_id":  job.ID(),
			"attempt": attempt,
			"error":   attemptErr.Error(),
		})
	}))...)
	if err != nil {
		s.events.record(ctx, job.ID(), entity.EventPhaseFailed, map[string]interface{}{
			"phase": "transcribe", "error": err.Error(), "kind": string(errno.KindOf(err)),
		})
		return err
	}

	language, languageSource := vo.ResolveLanguage(result.Language, payload.LanguageHintValue(), result.Text)
	s.events.record(ctx, job.ID(), entity.EventLanguageResolved, map[string]interface{}{
		"language": language,
		"source":   string(languageSource),
	})

	segments := vo.NormalizeSegments(result.Segments)

	doc := vo.TranscriptDocument{
		TranscriptID:    uuid.New().String(),
		JobID:           job.ID(),
		ArtifactVersion: vo.TranscriptArtifactVersion,
		VideoID:         job.VideoID(),
		Provider:        s.provider.Name(),
		Language:        language,
		LanguageSource:  languageSource,
		Text:            result.Text,
		Segments:        segments,
		ASR:             result.Raw,
		AudioRef:        vo.StorageRef{Bucket: audioBucket, Key: audioKey},
	}

	artifactKey := vo.TranscriptArtifactKey(job.VideoID(), job.ID())
	doc.StorageRef = &vo.StorageRef{
		Bucket:      s.cfg.TranscriptsBucket,
		Key:         artifactKey,
		ContentType: "application/json",
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return errno.ErrInternal.Wrap(err)
	}
	checksum := idempotency.ChecksumRef(idempotency.ContentHash(raw))

	if err := s.storage.UploadBytes(ctx, s.cfg.TranscriptsBucket, artifactKey, raw, "application/json"); err != nil {
		return err
	}

	metadata, _ := json.Marshal(map[string]interface{}{
		"language_source": string(languageSource),
		"segment_count":   len(segments),
	})
	if err := s.transcripts.UpsertTranscript(ctx, &entity.Transcript{
		VideoID:         job.VideoID(),
		Provider:        s.provider.Name(),
		Language:        language,
		DurationSeconds: doc.DurationSeconds(),
		Status:          "completed",
		ArtifactBucket:  s.cfg.TranscriptsBucket,
		ArtifactKey:     artifactKey,
		ArtifactFormat:  "json",
		ArtifactBytes:   int64(len(raw)),
		ArtifactSHA256:  checksum,
		Version:         1,
		IsLatest:        true,
		Metadata:        metadata,
	}); err != nil {
		return err
	}

	indexJob, created, err := s.enqueueIndex(ctx, job.VideoID(), artifactKey)
	if err != nil {
		return err
	}
	s.events.record(ctx, job.ID(), entity.EventIndexJobQueued, map[string]interface{}{
		"index_job_id": indexJob.ID(),
		"created":      created,
		"segments_key": artifactKey,
	})

	s.events.record(ctx, job.ID(), entity.EventPhaseComplete, map[string]interface{}{
		"phase":         "transcribe",
		"language":      language,
		"segment_count": len(segments),
		"artifact_key":  artifactKey,
	})

	logger.Info("Transcribe job completed", map[string]interface{}{
		"job_id":        job.ID(),
		"video_id":      job.VideoID(),
		"language":      language,
		"segment_count": len(segments),
	})
	return nil
}

// enqueueIndex 幂等创建索引作业
func (s *TranscribeService) enqueueIndex(ctx context.Context, videoID, segmentsKey string) (*entity.JobEntity, bool, error) {
	payload, err := vo.EncodePayload(vo.IndexPayload{
		VideoID: videoID,
		SegmentsRef: vo.StorageRef{
			Bucket: s.cfg.TranscriptsBucket,
			Key:    segmentsKey,
		},
	})
	if err != nil {
		return nil, false, err
	}

	key := idempotency.IndexJobKey(videoID, s.cfg.TranscriptsBucket, segmentsKey)
	job, err := entity.NewJobEntity(videoID, vo.JobTypeIndex, payload, key)
	if err != nil {
		return nil, false, err
	}
	return s.jobs.CreateOrGetJob(ctx, job)
}

func artifactExt(key string) string {
	ext := filepath.Ext(key)
	if ext == "" || len(ext) > 8 {
		return ".wav"
	}
	return ext
}
