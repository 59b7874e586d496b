package gateway

import (
	"context"
	"encoding/json"
	"time"

	"videoindex-service/ddd/domain/vo"
)

// TranscriptResult provider返回的转写结果
type TranscriptResult struct {
	Text     string
	Language string
	Segments []vo.RawSegment
	Raw      json.RawMessage
}

// TranscriptionProvider 转写provider网关
//
// Implementations are selected at process start from configuration and are
// swappable without touching orchestration code. A provider that cannot be
// interrupted cooperatively must run the work in a killable child process
// so the timeout reliably terminates the attempt.
type TranscriptionProvider interface {
	Name() string

	// Transcribe 转写音频文件；timeout<=0表示不限制
	Transcribe(ctx context.Context, audioPath string, timeout time.Duration) (*TranscriptResult, error)
}
