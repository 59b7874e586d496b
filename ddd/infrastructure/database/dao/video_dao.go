package dao

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"videoindex-service/ddd/infrastructure/database/po"
)

// VideoDAO 视频表数据访问对象
type VideoDAO struct {
	db *gorm.DB
}

// NewVideoDAO 创建VideoDAO
func NewVideoDAO(db *gorm.DB) *VideoDAO {
	return &VideoDAO{db: db}
}

// Upsert 按(source_type, source_uri)去重写入，返回库内规范记录
//
// A concurrent insert of the same source lands on the unique key, so the
// conflict branch re-reads and the caller always gets the canonical video_id.
func (d *VideoDAO) Upsert(ctx context.Context, video *po.VideoPO) (*po.VideoPO, error) {
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source_type"}, {Name: "source_uri"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"duration_ms", "storage_bucket", "storage_key", "metadata", "updated_at",
		}),
	}).Create(video).Error
	if err != nil {
		return nil, wrapDBError(err)
	}

	var canonical po.VideoPO
	err = d.db.WithContext(ctx).
		Where("source_type = ? AND source_uri = ?", video.SourceType, video.SourceURI).
		Take(&canonical).Error
	if err != nil {
		return nil, wrapDBError(err)
	}
	return &canonical, nil
}

// CreateOrGet 按(source_type, source_uri)取或建，已有行保持不动
//
// Registration must not touch an existing row: a re-run reaching this point
// carries no storage pointers yet and would blank the canonical ones.
func (d *VideoDAO) CreateOrGet(ctx context.Context, video *po.VideoPO) (*po.VideoPO, error) {
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_type"}, {Name: "source_uri"}},
		DoNothing: true,
	}).Create(video).Error
	if err != nil {
		return nil, wrapDBError(err)
	}

	var canonical po.VideoPO
	err = d.db.WithContext(ctx).
		Where("source_type = ? AND source_uri = ?", video.SourceType, video.SourceURI).
		Take(&canonical).Error
	if err != nil {
		return nil, wrapDBError(err)
	}
	return &canonical, nil
}

// GetByVideoID 按视频ID查询
func (d *VideoDAO) GetByVideoID(ctx context.Context, videoID string) (*po.VideoPO, error) {
	var video po.VideoPO
	err := d.db.WithContext(ctx).Where("video_id = ?", videoID).Take(&video).Error
	if err != nil {
		return nil, wrapDBError(err)
	}
	return &video, nil
}

// UpsertTranscript 按(video_id, artifact_key, version)去重写入转写文稿
func (d *VideoDAO) UpsertTranscript(ctx context.Context, transcript *po.TranscriptPO) (*po.TranscriptPO, error) {
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "video_id"}, {Name: "artifact_key"}, {Name: "version"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"provider", "language", "duration_seconds", "status",
			"artifact_bucket", "artifact_format", "artifact_bytes",
			"artifact_sha256", "is_latest", "metadata", "updated_at",
		}),
	}).Create(transcript).Error
	if err != nil {
		return nil, wrapDBError(err)
	}

	var canonical po.TranscriptPO
	err = d.db.WithContext(ctx).
		Where("video_id = ? AND artifact_key = ? AND version = ?",
			transcript.VideoID, transcript.ArtifactKey, transcript.Version).
		Take(&canonical).Error
	if err != nil {
		return nil, wrapDBError(err)
	}
	return &canonical, nil
}
