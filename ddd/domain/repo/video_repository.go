package repo

import (
	"context"

	"videoindex-service/ddd/domain/entity"
)

// VideoRepository 视频仓储接口
type VideoRepository interface {
	// CreateOrGetVideo 按 (source_type, source_uri) 取或建，返回规范的视频ID
	//
	// Never modifies an existing row; use UpsertVideo once the storage
	// pointers are known.
	CreateOrGetVideo(ctx context.Context, video *entity.Video) (string, error)

	// UpsertVideo 按 (source_type, source_uri) 去重更新，返回规范的视频ID
	UpsertVideo(ctx context.Context, video *entity.Video) (string, error)

	// GetVideo 按ID获取视频；缺失返回NotFound
	GetVideo(ctx context.Context, videoID string) (*entity.Video, error)
}

// TranscriptRepository 转写结果仓储接口
type TranscriptRepository interface {
	// UpsertTranscript 按 (video_id, artifact_key, version) 幂等更新
	UpsertTranscript(ctx context.Context, transcript *entity.Transcript) error
}
