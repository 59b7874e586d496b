package transcription

import (
	"context"
	"encoding/json"
	"time"

	"videoindex-service/ddd/domain/gateway"
	"videoindex-service/ddd/domain/vo"
)

// FakeProvider 确定性假provider，供本地联调与流水线演练使用
//
// Returns a fixed two-segment transcript regardless of input.
type FakeProvider struct{}

// NewFakeProvider 创建假provider
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{}
}

// Name provider名称
func (p *FakeProvider) Name() string {
	return "fake"
}

// Transcribe 返回固定转写结果
func (p *FakeProvider) Transcribe(_ context.Context, audioPath string, _ time.Duration) (*gateway.TranscriptResult, error) {
	raw, _ := json.Marshal(map[string]interface{}{
		"provider":   "fake",
		"audio_path": audioPath,
	})
	return &gateway.TranscriptResult{
		Text:     "hello world. this is a fake transcript.",
		Language: "en",
		Segments: []vo.RawSegment{
			{StartS: 0, EndS: 2.5, Text: "hello world."},
			{StartS: 2.5, EndS: 5, Text: "this is a fake transcript."},
		},
		Raw: raw,
	}, nil
}

func toRawSegment(startS, endS float64, text string) vo.RawSegment {
	return vo.RawSegment{StartS: startS, EndS: endS, Text: text}
}
