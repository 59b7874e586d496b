package gateway

import "context"

// ProbeResult 媒体探测结果；字段缺失表示探测未得出
type ProbeResult struct {
	DurationSeconds *float64
	ContainerFormat string
}

// MediaProber 媒体探测网关
//
// Probing is best-effort: implementations swallow tool failures and return
// an empty result, never an error that could fail the job.
type MediaProber interface {
	Probe(ctx context.Context, path string) ProbeResult
}

// AudioExtractor 音轨提取网关
type AudioExtractor interface {
	// ExtractAudio 提取规范化单声道PCM音轨到目标路径
	ExtractAudio(ctx context.Context, videoPath, audioPath string) error
}
