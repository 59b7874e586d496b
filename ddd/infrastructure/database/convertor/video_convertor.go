package convertor

import (
	"encoding/json"

	"github.com/google/uuid"

	"videoindex-service/ddd/domain/entity"
	"videoindex-service/ddd/infrastructure/database/po"
)

// VideoEntityToPO 视频实体转持久化对象
func VideoEntityToPO(video *entity.Video) *po.VideoPO {
	videoID := video.ID
	if videoID == "" {
		videoID = uuid.New().String()
	}
	return &po.VideoPO{
		VideoID:       videoID,
		SourceType:    video.SourceType,
		SourceURI:     video.SourceURI,
		DurationMS:    video.DurationMS,
		StorageBucket: video.StorageBucket,
		StorageKey:    video.StorageKey,
		Metadata:      po.JSONDocument(video.Metadata),
	}
}

// VideoPOToEntity 持久化对象转视频实体
func VideoPOToEntity(videoPO *po.VideoPO) *entity.Video {
	return &entity.Video{
		ID:            videoPO.VideoID,
		SourceType:    videoPO.SourceType,
		SourceURI:     videoPO.SourceURI,
		DurationMS:    videoPO.DurationMS,
		StorageBucket: videoPO.StorageBucket,
		StorageKey:    videoPO.StorageKey,
		Metadata:      json.RawMessage(videoPO.Metadata),
		CreatedAt:     videoPO.CreatedAt,
		UpdatedAt:     videoPO.UpdatedAt,
	}
}

// TranscriptEntityToPO 转写文稿实体转持久化对象
func TranscriptEntityToPO(transcript *entity.Transcript) *po.TranscriptPO {
	transcriptID := transcript.ID
	if transcriptID == "" {
		transcriptID = uuid.New().String()
	}
	return &po.TranscriptPO{
		TranscriptID:    transcriptID,
		VideoID:         transcript.VideoID,
		Provider:        transcript.Provider,
		Language:        transcript.Language,
		DurationSeconds: transcript.DurationSeconds,
		Status:          transcript.Status,
		ArtifactBucket:  transcript.ArtifactBucket,
		ArtifactKey:     transcript.ArtifactKey,
		ArtifactFormat:  transcript.ArtifactFormat,
		ArtifactBytes:   transcript.ArtifactBytes,
		ArtifactSHA256:  transcript.ArtifactSHA256,
		Version:         transcript.Version,
		IsLatest:        transcript.IsLatest,
		Metadata:        po.JSONDocument(transcript.Metadata),
	}
}

// TranscriptPOToEntity 持久化对象转转写文稿实体
func TranscriptPOToEntity(transcriptPO *po.TranscriptPO) *entity.Transcript {
	return &entity.Transcript{
		ID:              transcriptPO.TranscriptID,
		VideoID:         transcriptPO.VideoID,
		Provider:        transcriptPO.Provider,
		Language:        transcriptPO.Language,
		DurationSeconds: transcriptPO.DurationSeconds,
		Status:          transcriptPO.Status,
		ArtifactBucket:  transcriptPO.ArtifactBucket,
		ArtifactKey:     transcriptPO.ArtifactKey,
		ArtifactFormat:  transcriptPO.ArtifactFormat,
		ArtifactBytes:   transcriptPO.ArtifactBytes,
		ArtifactSHA256:  transcriptPO.ArtifactSHA256,
		Version:         transcriptPO.Version,
		IsLatest:        transcriptPO.IsLatest,
		Metadata:        json.RawMessage(transcriptPO.Metadata),
		CreatedAt:       transcriptPO.CreatedAt,
		UpdatedAt:       transcriptPO.UpdatedAt,
	}
}
