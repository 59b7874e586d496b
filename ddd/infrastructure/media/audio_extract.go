package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"videoindex-service/ddd/domain/gateway"
	"videoindex-service/pkg/errno"
	"videoindex-service/pkg/logger"
)

// FFMpegExtractor ffmpeg音轨提取实现
//
// Output is normalized for ASR: mono 16-bit PCM at the configured sample
// rate, video stream stripped.
type FFMpegExtractor struct {
	ffmpegPath string
	sampleRate int
}

// NewFFMpegExtractor 创建ffmpeg提取器
func NewFFMpegExtractor(ffmpegPath string, sampleRate int) gateway.AudioExtractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &FFMpegExtractor{ffmpegPath: ffmpegPath, sampleRate: sampleRate}
}

// ExtractAudio 提取规范化单声道PCM音轨
func (e *FFMpegExtractor) ExtractAudio(ctx context.Context, videoPath, audioPath string) error {
	if err := os.MkdirAll(filepath.Dir(audioPath), 0o755); err != nil {
		return errno.ErrInternal.Wrap(fmt.Errorf("create audio directory failed: %w", err))
	}

	cmd := exec.CommandContext(ctx, e.ffmpegPath,
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(e.sampleRate),
		"-ac", "1",
		audioPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logger.Error("ffmpeg audio extraction failed", map[string]interface{}{
			"video_path": videoPath,
			"audio_path": audioPath,
			"stderr":     truncate(stderr.String(), 2048),
			"error":      err.Error(),
		})
		if ctx.Err() != nil {
			return errno.ErrAttemptTimeout.Wrap(ctx.Err())
		}
		// non-zero exit on a readable file: malformed input, not retryable
		if _, ok := err.(*exec.ExitError); ok {
			return errno.ErrMalformedInput.Wrap(fmt.Errorf("ffmpeg exited: %w", err))
		}
		return errno.ErrProviderUnavailable.Wrap(fmt.Errorf("ffmpeg failed to start: %w", err))
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
