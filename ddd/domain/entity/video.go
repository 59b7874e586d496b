package entity

import (
	"encoding/json"
	"time"
)

// Video 已摄取的视频，按 (source_type, source_uri) 去重
type Video struct {
	ID            string
	SourceType    string
	SourceURI     string
	DurationMS    *int64
	StorageBucket string
	StorageKey    string
	Metadata      json.RawMessage
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Transcript 转写结果行，按 (video_id, artifact_key, version) 幂等更新
type Transcript struct {
	ID              string
	VideoID         string
	Provider        string
	Language        string
	DurationSeconds float64
	Status          string
	ArtifactBucket  string
	ArtifactKey     string
	ArtifactFormat  string
	ArtifactBytes   int64
	ArtifactSHA256  string
	Version         int
	IsLatest        bool
	Metadata        json.RawMessage
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
