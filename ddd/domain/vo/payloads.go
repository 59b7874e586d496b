package vo

import (
	"encoding/json"

	"videoindex-service/pkg/errno"
)

// Canonical payload schemas for the documents jobs carry between stages.
// One schema per stage transition; anything outside it is rejected.

// SourceKind 来源类型
type SourceKind string

const (
	SourceKindUpload      SourceKind = "upload"
	SourceKindExternalURL SourceKind = "external_url"
)

// StorageRef 对象存储引用
type StorageRef struct {
	Provider    string `json:"provider,omitempty"`
	Bucket      string `json:"bucket"`
	Key         string `json:"key"`
	ContentType string `json:"content_type,omitempty"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
	Checksum    string `json:"checksum,omitempty"`
}

// IsZero 引用是否为空
func (r StorageRef) IsZero() bool {
	return r.Bucket == "" || r.Key == ""
}

// SourceDescriptor 摄取来源描述
type SourceDescriptor struct {
	Kind SourceKind `json:"kind"`
	// URL 远程来源地址 (kind=external_url)
	URL string `json:"url,omitempty"`
	// UploadBucket/UploadKey 预先暂存的上传对象 (kind=upload)
	UploadBucket string `json:"upload_bucket,omitempty"`
	UploadKey    string `json:"upload_key,omitempty"`
	// Language 可选的语言提示
	Language string `json:"language,omitempty"`
}

// Validate 校验来源描述
func (s SourceDescriptor) Validate() error {
	switch s.Kind {
	case SourceKindUpload:
		if s.UploadBucket == "" || s.UploadKey == "" {
			return errno.ErrVideoSourceRequired.WithMessage("upload source requires upload_bucket and upload_key")
		}
	case SourceKindExternalURL:
		if s.URL == "" {
			return errno.ErrVideoSourceRequired.WithMessage("external_url source requires url")
		}
	default:
		return errno.ErrVideoSourceRequired.WithMessage("unknown source kind %q", s.Kind)
	}
	return nil
}

// SourceURI 用于视频去重的规范来源地址
func (s SourceDescriptor) SourceURI() string {
	if s.Kind == SourceKindUpload {
		return s.UploadBucket + "/" + s.UploadKey
	}
	return s.URL
}

// ArtifactMap 摄取阶段产出的制品集合
type ArtifactMap struct {
	Video *ArtifactRef `json:"video,omitempty"`
	Audio *ArtifactRef `json:"audio,omitempty"`
}

// ArtifactRef 制品位置
type ArtifactRef struct {
	Bucket    string `json:"bucket"`
	ObjectKey string `json:"object_key"`
}

// IngestPayload 摄取作业载荷
type IngestPayload struct {
	VideoID   string           `json:"video_id,omitempty"`
	Source    SourceDescriptor `json:"source"`
	Artifacts *ArtifactMap     `json:"artifacts,omitempty"`
}

// TranscribePayload 转写作业载荷
type TranscribePayload struct {
	AudioStorageRef *StorageRef            `json:"audio_storage_ref,omitempty"`
	Artifacts       *ArtifactMap           `json:"artifacts,omitempty"`
	Language        string                 `json:"language,omitempty"`
	LanguageHint    string                 `json:"language_hint,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// ResolveAudioRef 解析音频制品位置
//
// Resolution order is fixed:
//  1. payload.audio_storage_ref {bucket, key}
//  2. payload.artifacts.audio {bucket, object_key}
func (p TranscribePayload) ResolveAudioRef() (bucket, key string, err error) {
	if p.AudioStorageRef != nil && !p.AudioStorageRef.IsZero() {
		return p.AudioStorageRef.Bucket, p.AudioStorageRef.Key, nil
	}
	if p.Artifacts != nil && p.Artifacts.Audio != nil {
		a := p.Artifacts.Audio
		if a.Bucket != "" && a.ObjectKey != "" {
			return a.Bucket, a.ObjectKey, nil
		}
	}
	return "", "", errno.ErrAudioRefMissing
}

// LanguageHintValue 载荷中的语言提示，按固定优先级取值
func (p TranscribePayload) LanguageHintValue() string {
	if p.Language != "" {
		return p.Language
	}
	if p.LanguageHint != "" {
		return p.LanguageHint
	}
	if p.Metadata != nil {
		if v, ok := p.Metadata["language"].(string); ok {
			return v
		}
	}
	return ""
}

// IndexPayload 索引作业载荷
type IndexPayload struct {
	VideoID       string      `json:"video_id"`
	SegmentsRef   StorageRef  `json:"segments_ref"`
	LayersRef     *StorageRef `json:"layers_ref,omitempty"`
	EmbeddingsRef *StorageRef `json:"embeddings_ref,omitempty"`
	Reindex       bool        `json:"reindex,omitempty"`
}

// Validate 校验索引载荷
func (p IndexPayload) Validate() error {
	if p.VideoID == "" {
		return errno.ErrPayloadInvalid.WithMessage("index payload requires video_id")
	}
	if p.SegmentsRef.IsZero() {
		return errno.ErrPayloadInvalid.WithMessage("index payload requires segments_ref")
	}
	return nil
}

// DecodePayload 解码作业载荷到目标schema
func DecodePayload(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		return errno.ErrPayloadInvalid.WithMessage("empty payload")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errno.ErrPayloadInvalid.Wrap(err)
	}
	return nil
}

// EncodePayload 编码载荷
func EncodePayload(src interface{}) (json.RawMessage, error) {
	raw, err := json.Marshal(src)
	if err != nil {
		return nil, errno.ErrPayloadInvalid.Wrap(err)
	}
	return raw, nil
}
