package po

// VideoPO 视频持久化对象
type VideoPO struct {
	BaseModel
	VideoID       string       `gorm:"column:video_id;type:varchar(36);uniqueIndex" json:"video_id"`
	SourceType    string       `gorm:"column:source_type;type:varchar(32);uniqueIndex:uk_source" json:"source_type"`
	SourceURI     string       `gorm:"column:source_uri;type:varchar(255);uniqueIndex:uk_source" json:"source_uri"`
	DurationMS    *int64       `gorm:"column:duration_ms" json:"duration_ms"`
	StorageBucket string       `gorm:"column:storage_bucket;type:varchar(64)" json:"storage_bucket"`
	StorageKey    string       `gorm:"column:storage_key;type:varchar(255)" json:"storage_key"`
	Metadata      JSONDocument `gorm:"column:metadata;type:json" json:"metadata"`
}

// TableName 表名
func (VideoPO) TableName() string {
	return "videos"
}

// TranscriptPO 转写文稿持久化对象
type TranscriptPO struct {
	BaseModel
	TranscriptID    string       `gorm:"column:transcript_id;type:varchar(36);uniqueIndex" json:"transcript_id"`
	VideoID         string       `gorm:"column:video_id;type:varchar(36);uniqueIndex:uk_video_artifact" json:"video_id"`
	Provider        string       `gorm:"column:provider;type:varchar(64)" json:"provider"`
	Language        string       `gorm:"column:language;type:varchar(8)" json:"language"`
	DurationSeconds float64      `gorm:"column:duration_seconds" json:"duration_seconds"`
	Status          string       `gorm:"column:status;type:varchar(20)" json:"status"`
	ArtifactBucket  string       `gorm:"column:artifact_bucket;type:varchar(64)" json:"artifact_bucket"`
	ArtifactKey     string       `gorm:"column:artifact_key;type:varchar(255);uniqueIndex:uk_video_artifact" json:"artifact_key"`
	ArtifactFormat  string       `gorm:"column:artifact_format;type:varchar(32)" json:"artifact_format"`
	ArtifactBytes   int64        `gorm:"column:artifact_bytes" json:"artifact_bytes"`
	ArtifactSHA256  string       `gorm:"column:artifact_sha256;type:varchar(80)" json:"artifact_sha256"`
	Version         int          `gorm:"column:version;uniqueIndex:uk_video_artifact" json:"version"`
	IsLatest        bool         `gorm:"column:is_latest" json:"is_latest"`
	Metadata        JSONDocument `gorm:"column:metadata;type:json" json:"metadata"`
}

// TableName 表名
func (TranscriptPO) TableName() string {
	return "transcripts"
}
