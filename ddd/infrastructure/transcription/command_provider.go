package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"videoindex-service/ddd/domain/gateway"
	"videoindex-service/pkg/errno"
	"videoindex-service/pkg/logger"
)

// CommandProvider 子进程转写provider
//
// Runs the configured ASR command as a killable child process: audio path is
// appended as the last argument, the result document is read from stdout.
// The child runs as its own process group and the hard timeout SIGKILLs the
// whole group, so neither the command nor anything it forked can hold the
// stdout pipe open and pin the attempt past its budget.
type CommandProvider struct {
	name    string
	command string
	args    []string
}

// NewCommandProvider 创建子进程provider
func NewCommandProvider(name, command string, args []string) (*CommandProvider, error) {
	if command == "" {
		return nil, errno.ErrProviderMisconfig.WithMessage("transcription command is empty")
	}
	return &CommandProvider{name: name, command: command, args: args}, nil
}

// Name provider名称
func (p *CommandProvider) Name() string {
	return p.name
}

// commandResult 子进程stdout约定的结果文档
type commandResult struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		StartS float64 `json:"start_s"`
		EndS   float64 `json:"end_s"`
		Text   string  `json:"text"`
	} `json:"segments"`
}

// Transcribe 转写音频文件
func (p *CommandProvider) Transcribe(ctx context.Context, audioPath string, timeout time.Duration) (*gateway.TranscriptResult, error) {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	args := make([]string, 0, len(p.args)+1)
	args = append(args, p.args...)
	args = append(args, audioPath)

	cmd := exec.CommandContext(runCtx, p.command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 5 * time.Second

	start := time.Now()
	err := cmd.Run()
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			logger.Warn("Transcription attempt killed on timeout", map[string]interface{}{
				"provider":   p.name,
				"audio_path": audioPath,
				"timeout":    timeout.String(),
			})
			return nil, errno.ErrAttemptTimeout.Wrap(runCtx.Err())
		}
		if ctx.Err() != nil {
			return nil, errno.ErrAttemptTimeout.Wrap(ctx.Err())
		}
		if _, ok := err.(*exec.ExitError); !ok {
			return nil, errno.ErrProviderUnavailable.Wrap(fmt.Errorf("start transcription command failed: %w", err))
		}
		logger.Error("Transcription command exited with error", map[string]interface{}{
			"provider": p.name,
			"stderr":   truncate(stderr.String(), 2048),
			"error":    err.Error(),
		})
		return nil, errno.ErrTranscriptionFailed.Wrap(fmt.Errorf("transcription command exited: %w", err))
	}

	raw := stdout.Bytes()
	var parsed commandResult
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errno.ErrTranscriptionFailed.Wrap(fmt.Errorf("parse transcription output failed: %w", err))
	}

	result := &gateway.TranscriptResult{
		Text:     parsed.Text,
		Language: parsed.Language,
		Raw:      json.RawMessage(append([]byte(nil), raw...)),
	}
	for _, seg := range parsed.Segments {
		result.Segments = append(result.Segments, toRawSegment(seg.StartS, seg.EndS, seg.Text))
	}

	logger.Info("Transcription attempt completed", map[string]interface{}{
		"provider":   p.name,
		"audio_path": audioPath,
		"segments":   len(result.Segments),
		"elapsed":    time.Since(start).String(),
	})
	return result, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
