package vo

import "encoding/json"

// TranscriptArtifactVersion 转写制品schema版本
const TranscriptArtifactVersion = "v1"

// TranscriptDocument 存入对象存储的完整转写制品
//
// The document is self-describing: after upload the storage ref of the
// artifact itself is written back into StorageRef, so a reader holding only
// the document can locate it again.
type TranscriptDocument struct {
	TranscriptID    string          `json:"transcript_id"`
	JobID           string          `json:"job_id"`
	ArtifactVersion string          `json:"artifact_version"`
	VideoID         string          `json:"video_id"`
	Provider        string          `json:"provider"`
	Language        string          `json:"language"`
	LanguageSource  LanguageSource  `json:"language_source"`
	Text            string          `json:"text"`
	Segments        []Segment       `json:"segments"`
	ASR             json.RawMessage `json:"asr,omitempty"`
	AudioRef        StorageRef      `json:"audio_ref"`
	StorageRef      *StorageRef     `json:"storage_ref,omitempty"`
}

// TranscriptArtifactKey 转写制品的对象键
func TranscriptArtifactKey(videoID, jobID string) string {
	return "transcripts/" + videoID + "/" + jobID + "/transcript." + TranscriptArtifactVersion + ".json"
}

// DurationSeconds 从规范分段推导的时长（秒）
func (d TranscriptDocument) DurationSeconds() float64 {
	return float64(SegmentsDurationMS(d.Segments)) / 1000.0
}
