package media

import (
	"context"
	"encoding/json"
	"os/exec"
	"strconv"

	"videoindex-service/ddd/domain/gateway"
	"videoindex-service/pkg/logger"
)

// FFProber ffprobe媒体探测实现
//
// Probing is best-effort by contract: any tool or parse failure is logged
// and an empty result is returned, so a broken probe can never fail ingest.
type FFProber struct {
	ffprobePath string
}

// NewFFProber 创建ffprobe探测器
func NewFFProber(ffprobePath string) gateway.MediaProber {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFProber{ffprobePath: ffprobePath}
}

type ffprobeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
}

// Probe 探测媒体时长与容器格式
func (p *FFProber) Probe(ctx context.Context, path string) gateway.ProbeResult {
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-show_format",
		"-of", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		logger.Warn("ffprobe failed, continuing without media metadata", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return gateway.ProbeResult{}
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		logger.Warn("ffprobe output is not valid json", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return gateway.ProbeResult{}
	}

	result := gateway.ProbeResult{ContainerFormat: parsed.Format.FormatName}
	if parsed.Format.Duration != "" {
		if d, err := strconv.ParseFloat(parsed.Format.Duration, 64); err == nil && d >= 0 {
			result.DurationSeconds = &d
		}
	}
	return result
}
