package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"videoindex-service/ddd/domain/entity"
	"videoindex-service/ddd/domain/gateway"
	"videoindex-service/ddd/domain/vo"
	"videoindex-service/pkg/errno"
)

// fakeJobRepo 内存作业仓储
type fakeJobRepo struct {
	mu     sync.Mutex
	jobs   map[string]*entity.JobEntity
	byKey  map[string]string
	events []*entity.JobEvent
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{
		jobs:  make(map[string]*entity.JobEntity),
		byKey: make(map[string]string),
	}
}

func (r *fakeJobRepo) CreateJob(_ context.Context, job *entity.JobEntity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if key := job.IdempotencyKey(); key != "" {
		if _, exists := r.byKey[key]; exists {
			return errno.ErrConflict
		}
		r.byKey[key] = job.ID()
	}
	r.jobs[job.ID()] = job
	return nil
}

func (r *fakeJobRepo) CreateOrGetJob(ctx context.Context, job *entity.JobEntity) (*entity.JobEntity, bool, error) {
	err := r.CreateJob(ctx, job)
	if err == nil {
		return job, true, nil
	}
	if !errno.IsConflict(err) {
		return nil, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[r.byKey[job.IdempotencyKey()]], false, nil
}

func (r *fakeJobRepo) GetJob(_ context.Context, jobID string) (*entity.JobEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, errno.ErrJobNotFound
	}
	return job, nil
}

func (r *fakeJobRepo) GetJobByIdempotencyKey(_ context.Context, key string) (*entity.JobEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byKey[key]
	if !ok {
		return nil, errno.ErrNotFound
	}
	return r.jobs[id], nil
}

func (r *fakeJobRepo) ClaimNextJob(context.Context, vo.JobType) (*entity.JobEntity, bool, error) {
	return nil, false, nil
}

func (r *fakeJobRepo) MarkJobSucceeded(context.Context, string) error { return nil }

func (r *fakeJobRepo) MarkJobFailed(context.Context, string, string) error { return nil }

func (r *fakeJobRepo) CreateJobRun(context.Context, *entity.JobRun) error { return nil }

func (r *fakeJobRepo) AppendJobEvent(_ context.Context, jobID, eventType string, payload json.RawMessage) (*entity.JobEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event := &entity.JobEvent{
		ID:        fmt.Sprintf("evt-%d", len(r.events)+1),
		JobID:     jobID,
		EventType: eventType,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	r.events = append(r.events, event)
	return event, nil
}

func (r *fakeJobRepo) ListJobRuns(context.Context, string) ([]*entity.JobRun, error) {
	return nil, nil
}

func (r *fakeJobRepo) ListJobEvents(_ context.Context, jobID string) ([]*entity.JobEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.JobEvent
	for _, e := range r.events {
		if e.JobID == jobID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeJobRepo) eventTypes(jobID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.JobID == jobID {
			out = append(out, e.EventType)
		}
	}
	return out
}

func (r *fakeJobRepo) jobsOfType(jobType vo.JobType) []*entity.JobEntity {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.JobEntity
	for _, j := range r.jobs {
		if j.Type() == jobType {
			out = append(out, j)
		}
	}
	return out
}

// fakeVideoRepo 内存视频仓储
type fakeVideoRepo struct {
	mu     sync.Mutex
	videos map[string]*entity.Video // key: source_type/source_uri
	nextID int
}

func newFakeVideoRepo() *fakeVideoRepo {
	return &fakeVideoRepo{videos: make(map[string]*entity.Video)}
}

func (r *fakeVideoRepo) CreateOrGetVideo(_ context.Context, video *entity.Video) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := video.SourceType + "/" + video.SourceURI
	if existing, ok := r.videos[key]; ok {
		return existing.ID, nil
	}
	return r.insertLocked(key, video), nil
}

func (r *fakeVideoRepo) UpsertVideo(_ context.Context, video *entity.Video) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := video.SourceType + "/" + video.SourceURI
	if existing, ok := r.videos[key]; ok {
		existing.DurationMS = video.DurationMS
		existing.StorageBucket = video.StorageBucket
		existing.StorageKey = video.StorageKey
		return existing.ID, nil
	}
	return r.insertLocked(key, video), nil
}

func (r *fakeVideoRepo) insertLocked(key string, video *entity.Video) string {
	r.nextID++
	stored := *video
	if stored.ID == "" {
		stored.ID = fmt.Sprintf("vid-%d", r.nextID)
	}
	r.videos[key] = &stored
	return stored.ID
}

func (r *fakeVideoRepo) GetVideo(_ context.Context, videoID string) (*entity.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.videos {
		if v.ID == videoID {
			return v, nil
		}
	}
	return nil, errno.ErrNotFound
}

// fakeTranscriptRepo 内存转写文稿仓储
type fakeTranscriptRepo struct {
	mu          sync.Mutex
	transcripts []*entity.Transcript
}

func (r *fakeTranscriptRepo) UpsertTranscript(_ context.Context, transcript *entity.Transcript) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.transcripts {
		if existing.VideoID == transcript.VideoID &&
			existing.ArtifactKey == transcript.ArtifactKey &&
			existing.Version == transcript.Version {
			r.transcripts[i] = transcript
			return nil
		}
	}
	r.transcripts = append(r.transcripts, transcript)
	return nil
}

// fakeStorage 内存对象存储
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	copies  int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func objKey(bucket, key string) string { return bucket + "/" + key }

func (s *fakeStorage) put(bucket, key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objKey(bucket, key)] = data
}

func (s *fakeStorage) get(bucket, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[objKey(bucket, key)]
	return data, ok
}

func (s *fakeStorage) UploadBytes(_ context.Context, bucket, key string, data []byte, _ string) error {
	s.put(bucket, key, append([]byte(nil), data...))
	return nil
}

func (s *fakeStorage) UploadFile(_ context.Context, bucket, key, localPath, _ string) (int64, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return 0, errno.ErrInternal.Wrap(err)
	}
	s.put(bucket, key, data)
	return int64(len(data)), nil
}

func (s *fakeStorage) DownloadToFile(_ context.Context, bucket, key, localPath string) error {
	data, ok := s.get(bucket, key)
	if !ok {
		return errno.ErrNotFound.WithMessage("object %s/%s not found", bucket, key)
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(localPath, data, 0o644)
}

func (s *fakeStorage) StatObject(_ context.Context, bucket, key string) (gateway.ObjectInfo, error) {
	data, ok := s.get(bucket, key)
	if !ok {
		return gateway.ObjectInfo{}, errno.ErrNotFound
	}
	return gateway.ObjectInfo{SizeBytes: int64(len(data))}, nil
}

func (s *fakeStorage) CopyObject(_ context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	data, ok := s.get(srcBucket, srcKey)
	if !ok {
		return errno.ErrNotFound
	}
	s.put(dstBucket, dstKey, data)
	s.mu.Lock()
	s.copies++
	s.mu.Unlock()
	return nil
}

// fakeProber 固定探测结果
type fakeProber struct {
	result gateway.ProbeResult
}

func (p *fakeProber) Probe(context.Context, string) gateway.ProbeResult { return p.result }

// fakeExtractor 伪音轨提取
type fakeExtractor struct {
	err   error
	calls int
}

func (e *fakeExtractor) ExtractAudio(_ context.Context, _, audioPath string) error {
	e.calls++
	if e.err != nil {
		return e.err
	}
	return os.WriteFile(audioPath, []byte("RIFF-fake-pcm"), 0o644)
}

// fakeProvider 可编排的转写provider
type fakeProvider struct {
	mu      sync.Mutex
	results []providerCall
	calls   int
}

type providerCall struct {
	result *gateway.TranscriptResult
	err    error
}

func (p *fakeProvider) Name() string { return "fake-asr" }

func (p *fakeProvider) Transcribe(context.Context, string, time.Duration) (*gateway.TranscriptResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.calls
	if idx >= len(p.results) {
		idx = len(p.results) - 1
	}
	p.calls++
	call := p.results[idx]
	return call.result, call.err
}

// fakeLexical 记录BulkUpsert调用
type fakeLexical struct {
	mu       sync.Mutex
	batches  [][]gateway.SegmentDocument
	refreshN int
	err      error
}

func (l *fakeLexical) BulkUpsert(_ context.Context, _ string, docs []gateway.SegmentDocument) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	batch := make([]gateway.SegmentDocument, len(docs))
	copy(batch, docs)
	l.batches = append(l.batches, batch)
	return nil
}

func (l *fakeLexical) Refresh(context.Context, string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refreshN++
	return nil
}

// fakeVector 记录UpsertPoints调用
type fakeVector struct {
	mu      sync.Mutex
	batches [][]gateway.VectorPoint
}

func (v *fakeVector) UpsertPoints(_ context.Context, _ string, points []gateway.VectorPoint) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	batch := make([]gateway.VectorPoint, len(points))
	copy(batch, points)
	v.batches = append(v.batches, batch)
	return nil
}

// nopPublisher 测试用空镜像
type nopPublisher struct{}

func (nopPublisher) PublishJobEvent(context.Context, *entity.JobEvent) {}

// erroringEventRepo 事件追加必定失败的仓储
type erroringEventRepo struct {
	*fakeJobRepo
}

func (r *erroringEventRepo) AppendJobEvent(context.Context, string, string, json.RawMessage) (*entity.JobEvent, error) {
	return nil, errno.ErrDatabase
}
