package persistence

import (
	"context"

	"gorm.io/gorm"

	"videoindex-service/ddd/domain/entity"
	"videoindex-service/ddd/domain/repo"
	"videoindex-service/ddd/infrastructure/database/convertor"
	"videoindex-service/ddd/infrastructure/database/dao"
)

// VideoRepositoryImpl 视频仓储实现
type VideoRepositoryImpl struct {
	videoDAO *dao.VideoDAO
}

// NewVideoRepository 创建视频仓储
func NewVideoRepository(db *gorm.DB) repo.VideoRepository {
	return &VideoRepositoryImpl{videoDAO: dao.NewVideoDAO(db)}
}

// CreateOrGetVideo 按 (source_type, source_uri) 取或建
func (r *VideoRepositoryImpl) CreateOrGetVideo(ctx context.Context, video *entity.Video) (string, error) {
	canonical, err := r.videoDAO.CreateOrGet(ctx, convertor.VideoEntityToPO(video))
	if err != nil {
		return "", err
	}
	return canonical.VideoID, nil
}

// UpsertVideo 按 (source_type, source_uri) 去重更新
func (r *VideoRepositoryImpl) UpsertVideo(ctx context.Context, video *entity.Video) (string, error) {
	canonical, err := r.videoDAO.Upsert(ctx, convertor.VideoEntityToPO(video))
	if err != nil {
		return "", err
	}
	return canonical.VideoID, nil
}

// GetVideo 按ID获取视频
func (r *VideoRepositoryImpl) GetVideo(ctx context.Context, videoID string) (*entity.Video, error) {
	videoPO, err := r.videoDAO.GetByVideoID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return convertor.VideoPOToEntity(videoPO), nil
}

// TranscriptRepositoryImpl 转写文稿仓储实现
type TranscriptRepositoryImpl struct {
	videoDAO *dao.VideoDAO
}

// NewTranscriptRepository 创建转写文稿仓储
func NewTranscriptRepository(db *gorm.DB) repo.TranscriptRepository {
	return &TranscriptRepositoryImpl{videoDAO: dao.NewVideoDAO(db)}
}

// UpsertTranscript 按 (video_id, artifact_key, version) 幂等更新
func (r *TranscriptRepositoryImpl) UpsertTranscript(ctx context.Context, transcript *entity.Transcript) error {
	canonical, err := r.videoDAO.UpsertTranscript(ctx, convertor.TranscriptEntityToPO(transcript))
	if err != nil {
		return err
	}
	transcript.ID = canonical.TranscriptID
	return nil
}
