package service

import (
	"context"
	"os"
	"path/filepath"

	"videoindex-service/ddd/domain/entity"
	"videoindex-service/ddd/domain/gateway"
	"videoindex-service/ddd/domain/repo"
	"videoindex-service/ddd/domain/vo"
	"videoindex-service/pkg/errno"
	"videoindex-service/pkg/logger"
)

// IndexConfig 索引阶段配置
type IndexConfig struct {
	SegmentsIndex      string
	SegmentsCollection string
	VectorSize         int
	BatchSize          int
	TempDir            string
}

// IndexService 索引阶段
//
// Loads the segment artifact (plus optional speaker layers and embeddings),
// validates everything up front, then writes lexical documents and vector
// points in bounded batches. Validation failures happen before the first
// write so a rejected artifact leaves both backends untouched.
type IndexService struct {
	cfg     IndexConfig
	jobs    repo.JobRepository
	storage gateway.ObjectStorage
	lexical gateway.LexicalIndex
	vector  gateway.VectorIndex
	events  eventRecorder
}

// NewIndexService 创建索引阶段
func NewIndexService(
	cfg IndexConfig,
	jobs repo.JobRepository,
	storage gateway.ObjectStorage,
	lexical gateway.LexicalIndex,
	vector gateway.VectorIndex,
	publisher gateway.EventPublisher,
) *IndexService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &IndexService{
		cfg:     cfg,
		jobs:    jobs,
		storage: storage,
		lexical: lexical,
		vector:  vector,
		events:  eventRecorder{jobs: jobs, publisher: publisher},
	}
}

// Type 阶段处理的作业类型
func (s *IndexService) Type() vo.JobType {
	return vo.JobTypeIndex
}

// Execute 执行一次索引作业
func (s *IndexService) Execute(ctx context.Context, job *entity.JobEntity) error {
	var payload vo.IndexPayload
	if err := vo.DecodePayload(job.Payload(), &payload); err != nil {
		return err
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	s.events.record(ctx, job.ID(), entity.EventPhaseStart, map[string]interface{}{
		"phase":        "index",
		"video_id":     payload.VideoID,
		"segments_key": payload.SegmentsRef.Key,
		"reindex":      payload.Reindex,
	})

	workDir := filepath.Join(s.cfg.TempDir, "index", job.ID())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return errno.ErrInternal.Wrap(err)
	}
	defer os.RemoveAll(workDir)

	segmentsRaw, err := s.fetchArtifact(ctx, payload.SegmentsRef, filepath.Join(workDir, "segments.json"))
	if err != nil {
		return err
	}
	artifact, err := parseSegmentsArtifact(segmentsRaw)
	if err != nil {
		s.events.record(ctx, job.ID(), entity.EventPhaseFailed, map[string]interface{}{
			"phase": "index", "step": "parse_segments", "error": err.Error(),
		})
		return err
	}

	var layers map[string]map[string]interface{}
	if payload.LayersRef != nil && !payload.LayersRef.IsZero() {
		layersRaw, err := s.fetchArtifact(ctx, *payload.LayersRef, filepath.Join(workDir, "layers.json"))
		if err != nil {
			return err
		}
		if layers, err = parseLayersArtifact(layersRaw); err != nil {
			return err
		}
	}

	var vectors map[string][]float32
	if payload.EmbeddingsRef != nil && !payload.EmbeddingsRef.IsZero() {
		embeddingsRaw, err := s.fetchArtifact(ctx, *payload.EmbeddingsRef, filepath.Join(workDir, "embeddings.json"))
		if err != nil {
			return err
		}
		if vectors, err = parseEmbeddingsArtifact(embeddingsRaw, s.cfg.VectorSize); err != nil {
			s.events.record(ctx, job.ID(), entity.EventPhaseFailed, map[string]interface{}{
				"phase": "index", "step": "parse_embeddings", "error": err.Error(),
			})
			return err
		}
	}

	docs := buildSegmentDocuments(payload.VideoID, artifact, layers)
	if len(docs) == 0 {
		return errno.ErrArtifactInvalid.WithMessage("segments artifact produced no indexable documents")
	}

	points := make([]gateway.VectorPoint, 0, len(vectors))
	for _, doc := range docs {
		vec, ok := vectors[doc.ID]
		if !ok {
			continue
		}
		points = append(points, gateway.VectorPoint{
			ID:     doc.ID,
			Vector: vec,
			Payload: map[string]interface{}{
				"segment_id": doc.ID,
				"video_id":   doc.VideoID,
				"start_ms":   doc.StartMS,
				"end_ms":     doc.EndMS,
				"language":   doc.Language,
				"text":       doc.Text,
			},
		})
	}

	for start := 0; start < len(docs); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(docs) {
			end = len(docs)
		}
		if err := s.lexical.BulkUpsert(ctx, s.cfg.SegmentsIndex, docs[start:end]); err != nil {
			return err
		}
	}

	for start := 0; start < len(points); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(points) {
			end = len(points)
		}
		if err := s.vector.UpsertPoints(ctx, s.cfg.SegmentsCollection, points[start:end]); err != nil {
			return err
		}
	}

	if payload.Reindex {
		if err := s.lexical.Refresh(ctx, s.cfg.SegmentsIndex); err != nil {
			return err
		}
	}

	s.events.record(ctx, job.ID(), entity.EventPhaseComplete, map[string]interface{}{
		"phase":          "index",
		"video_id":       payload.VideoID,
		"document_count": len(docs),
		"vector_count":   len(points),
	})

	logger.Info("Index job completed", map[string]interface{}{
		"job_id":         job.ID(),
		"video_id":       payload.VideoID,
		"document_count": len(docs),
		"vector_count":   len(points),
	})
	return nil
}

// fetchArtifact 下载制品并读入内存
func (s *IndexService) fetchArtifact(ctx context.Context, ref vo.StorageRef, localPath string) ([]byte, error) {
	if err := s.storage.DownloadToFile(ctx, ref.Bucket, ref.Key, localPath); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(localPath)
	if err != nil {
		return nil, errno.ErrInternal.Wrap(err)
	}
	return raw, nil
}
