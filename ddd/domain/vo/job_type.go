package vo

// JobType 作业类型，对应流水线的一个阶段
type JobType string

const (
	JobTypeIngest     JobType = "ingest"
	JobTypeTranscribe JobType = "transcribe"
	JobTypeIndex      JobType = "index"

	// JobTypeTranscriptionLegacy 旧版生产者写入的别名拼写
	JobTypeTranscriptionLegacy JobType = "transcription"
)

// IsValid 检查类型是否有效
func (t JobType) IsValid() bool {
	switch t {
	case JobTypeIngest, JobTypeTranscribe, JobTypeIndex, JobTypeTranscriptionLegacy:
		return true
	default:
		return false
	}
}

// String 返回类型字符串
func (t JobType) String() string {
	return string(t)
}

// ClaimTypes 该阶段认领时匹配的类型集合
//
// Rows written by older producers use the "transcription" spelling; the
// transcribe stage claims both.
func (t JobType) ClaimTypes() []string {
	if t == JobTypeTranscribe || t == JobTypeTranscriptionLegacy {
		return []string{string(JobTypeTranscriptionLegacy), string(JobTypeTranscribe)}
	}
	return []string{string(t)}
}
