package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"

	"videoindex-service/ddd/domain/entity"
	"videoindex-service/ddd/domain/gateway"
	"videoindex-service/ddd/domain/vo"
	"videoindex-service/pkg/errno"
	"videoindex-service/pkg/idempotency"
)

func newIngestFixture(t *testing.T) (*IngestService, *fakeJobRepo, *fakeVideoRepo, *fakeStorage, *fakeExtractor) {
	t.Helper()
	jobs := newFakeJobRepo()
	videos := newFakeVideoRepo()
	store := newFakeStorage()
	extractor := &fakeExtractor{}
	duration := 12.5

	svc := NewIngestService(
		IngestConfig{
			VideoBucket: "videos",
			AudioBucket: "audio",
			TempDir:     t.TempDir(),
		},
		jobs, videos, store,
		&fakeProber{result: gateway.ProbeResult{DurationSeconds: &duration, ContainerFormat: "mov,mp4"}},
		extractor, nopPublisher{},
	)
	return svc, jobs, videos, store, extractor
}

func newIngestJob(t *testing.T, payload vo.IngestPayload) *entity.JobEntity {
	t.Helper()
	raw, err := vo.EncodePayload(payload)
	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}
	job, err := entity.NewJobEntity(payload.VideoID, vo.JobTypeIngest, raw, "")
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	return job
}

func TestIngestUploadSourceEndToEnd(t *testing.T) {
	svc, jobs, videos, store, _ := newIngestFixture(t)
	store.put("uploads", "in/video.mp4", []byte("mp4-bytes"))

	job := newIngestJob(t, vo.IngestPayload{
		Source: vo.SourceDescriptor{
			Kind:         vo.SourceKindUpload,
			UploadBucket: "uploads",
			UploadKey:    "in/video.mp4",
			Language:     "en",
		},
	})
	if err := svc.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}

	video, err := videos.GetVideo(context.Background(), "vid-1")
	if err != nil {
		t.Fatalf("video not registered: %v", err)
	}
	if video.DurationMS == nil || *video.DurationMS != 12500 {
		t.Fatalf("probe duration not recorded: %+v", video.DurationMS)
	}
	if video.StorageKey != "videos/vid-1/source.mp4" {
		t.Fatalf("video storage ref not recorded: %q", video.StorageKey)
	}

	if _, ok := store.get("videos", "videos/vid-1/source.mp4"); !ok {
		t.Fatal("source video not migrated to the video bucket")
	}
	if store.copies != 1 {
		t.Fatalf("staged uploads migrate via server-side copy, got %d copies", store.copies)
	}
	audioKey := "audio/vid-1/" + job.ID() + "/audio.wav"
	if _, ok := store.get("audio", audioKey); !ok {
		t.Fatalf("extracted audio not uploaded at %s", audioKey)
	}

	transcribeJobs := jobs.jobsOfType(vo.JobTypeTranscribe)
	if len(transcribeJobs) != 1 {
		t.Fatalf("expected 1 transcription job, got %d", len(transcribeJobs))
	}
	wantKey := idempotency.TranscriptionJobKey("vid-1", "audio", audioKey)
	if transcribeJobs[0].IdempotencyKey() != wantKey {
		t.Fatalf("transcription job key %q, want %q", transcribeJobs[0].IdempotencyKey(), wantKey)
	}
	var next vo.TranscribePayload
	if err := vo.DecodePayload(transcribeJobs[0].Payload(), &next); err != nil {
		t.Fatalf("decode handoff payload: %v", err)
	}
	bucket, key, err := next.ResolveAudioRef()
	if err != nil || bucket != "audio" || key != audioKey {
		t.Fatalf("handoff audio ref %s/%s (%v)", bucket, key, err)
	}
	if next.LanguageHintValue() != "en" {
		t.Fatalf("language hint not propagated: %q", next.LanguageHintValue())
	}

	seen := map[string]bool{}
	for _, et := range jobs.eventTypes(job.ID()) {
		seen[et] = true
	}
	for _, et := range []string{entity.EventPhaseStart, entity.EventTranscriptionJobQueued, entity.EventPhaseComplete} {
		if !seen[et] {
			t.Errorf("missing event %s", et)
		}
	}
}

func TestIngestRerunDoesNotDuplicateHandoff(t *testing.T) {
	svc, jobs, _, store, _ := newIngestFixture(t)
	store.put("uploads", "in/video.mp4", []byte("mp4-bytes"))

	job := newIngestJob(t, vo.IngestPayload{
		Source: vo.SourceDescriptor{
			Kind:         vo.SourceKindUpload,
			UploadBucket: "uploads",
			UploadKey:    "in/video.mp4",
		},
	})
	if err := svc.Execute(context.Background(), job); err != nil {
		t.Fatalf("first execute: %v", err)
	}
	if err := svc.Execute(context.Background(), job); err != nil {
		t.Fatalf("second execute: %v", err)
	}

	if got := len(jobs.jobsOfType(vo.JobTypeTranscribe)); got != 1 {
		t.Fatalf("re-running the same ingest must not enqueue a second transcription job, got %d", got)
	}
}

func TestIngestExternalURLSource(t *testing.T) {
	svc, jobs, _, store, _ := newIngestFixture(t)
	svc.httpGet = func(_ context.Context, url string) (*http.Response, error) {
		if url != "https://cdn.example.com/clip.mov" {
			return nil, fmt.Errorf("unexpected url %s", url)
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader([]byte("mov-bytes"))),
		}, nil
	}

	job := newIngestJob(t, vo.IngestPayload{
		Source: vo.SourceDescriptor{
			Kind: vo.SourceKindExternalURL,
			URL:  "https://cdn.example.com/clip.mov",
		},
	})
	if err := svc.Execute(context.Background(), job); err != nil {
		t.Fatalf("execute: %v", err)
	}

	data, ok := store.get("videos", "videos/vid-1/source.mov")
	if !ok {
		t.Fatal("downloaded source not uploaded with its original extension")
	}
	if string(data) != "mov-bytes" {
		t.Fatalf("uploaded bytes differ: %q", data)
	}
	if store.copies != 0 {
		t.Fatal("remote sources have nothing staged to copy")
	}
	if got := len(jobs.jobsOfType(vo.JobTypeTranscribe)); got != 1 {
		t.Fatalf("expected handoff job, got %d", got)
	}
}

func TestIngestExternalURLServerErrorIsRetryable(t *testing.T) {
	svc, _, _, _, _ := newIngestFixture(t)
	svc.httpGet = func(context.Context, string) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadGateway,
			Body:       io.NopCloser(bytes.NewReader(nil)),
		}, nil
	}

	job := newIngestJob(t, vo.IngestPayload{
		Source: vo.SourceDescriptor{Kind: vo.SourceKindExternalURL, URL: "https://cdn.example.com/a.mp4"},
	})
	err := svc.Execute(context.Background(), job)
	if !errno.IsRetryable(err) {
		t.Fatalf("5xx from the source should be retryable, got %v", err)
	}
}

func TestIngestExternalURLNotFoundIsFatal(t *testing.T) {
	svc, _, _, _, _ := newIngestFixture(t)
	svc.httpGet = func(context.Context, string) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(bytes.NewReader(nil)),
		}, nil
	}

	job := newIngestJob(t, vo.IngestPayload{
		Source: vo.SourceDescriptor{Kind: vo.SourceKindExternalURL, URL: "https://cdn.example.com/gone.mp4"},
	})
	err := svc.Execute(context.Background(), job)
	if !errno.IsValidation(err) {
		t.Fatalf("4xx from the source is fatal, got %v", err)
	}
	if errno.IsRetryable(err) {
		t.Fatal("a missing source must not be retried")
	}
}

func TestIngestExtractorFailureRecordsPhaseFailed(t *testing.T) {
	svc, jobs, _, store, extractor := newIngestFixture(t)
	store.put("uploads", "in/video.mp4", []byte("mp4-bytes"))
	extractor.err = errno.ErrMalformedInput

	job := newIngestJob(t, vo.IngestPayload{
		Source: vo.SourceDescriptor{
			Kind:         vo.SourceKindUpload,
			UploadBucket: "uploads",
			UploadKey:    "in/video.mp4",
		},
	})
	err := svc.Execute(context.Background(), job)
	if !errno.IsValidation(err) {
		t.Fatalf("expected malformed input to surface, got %v", err)
	}

	seen := map[string]bool{}
	for _, et := range jobs.eventTypes(job.ID()) {
		seen[et] = true
	}
	if !seen[entity.EventPhaseFailed] {
		t.Fatal("extractor failure must record a phase_failed event")
	}
	if got := len(jobs.jobsOfType(vo.JobTypeTranscribe)); got != 0 {
		t.Fatalf("failed ingest must not hand off, got %d jobs", got)
	}
}

func TestIngestPartialRerunKeepsRegisteredStoragePointers(t *testing.T) {
	svc, _, videos, store, extractor := newIngestFixture(t)
	store.put("uploads", "in/video.mp4", []byte("mp4-bytes"))

	// a prior successful run registered the source with its storage pointers
	videos.videos["upload/uploads/in/video.mp4"] = &entity.Video{
		ID:            "vid-7",
		SourceType:    "upload",
		SourceURI:     "uploads/in/video.mp4",
		StorageBucket: "videos",
		StorageKey:    "videos/vid-7/source.mp4",
	}
	extractor.err = errno.ErrProviderUnavailable

	job := newIngestJob(t, vo.IngestPayload{
		Source: vo.SourceDescriptor{
			Kind:         vo.SourceKindUpload,
			UploadBucket: "uploads",
			UploadKey:    "in/video.mp4",
		},
	})
	if err := svc.Execute(context.Background(), job); err == nil {
		t.Fatal("extractor failure should fail the run")
	}

	video, err := videos.GetVideo(context.Background(), "vid-7")
	if err != nil {
		t.Fatalf("registered video vanished: %v", err)
	}
	if video.StorageBucket != "videos" || video.StorageKey != "videos/vid-7/source.mp4" {
		t.Fatalf("a failed re-run must not blank the canonical storage pointers: %+v", video)
	}
}

func TestIngestRejectsInvalidSource(t *testing.T) {
	svc, _, _, store, extractor := newIngestFixture(t)

	job := newIngestJob(t, vo.IngestPayload{
		Source: vo.SourceDescriptor{Kind: "torrent"},
	})
	err := svc.Execute(context.Background(), job)
	if !errno.IsValidation(err) {
		t.Fatalf("unknown source kind should be a validation error, got %v", err)
	}
	if extractor.calls != 0 {
		t.Fatal("nothing should run after source validation fails")
	}
	if len(store.objects) != 0 {
		t.Fatal("nothing should be uploaded")
	}
}
