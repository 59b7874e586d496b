package transcription

import (
	"videoindex-service/ddd/domain/gateway"
	"videoindex-service/pkg/config"
	"videoindex-service/pkg/errno"
)

// NewProvider 按配置选择转写provider
//
// Provider selection happens once at process start; orchestration code only
// sees the gateway interface.
func NewProvider(cfg *config.TranscriptionConfig) (gateway.TranscriptionProvider, error) {
	switch cfg.Provider {
	case "", "fake":
		return NewFakeProvider(), nil
	case "command", "subprocess":
		return NewCommandProvider(cfg.Provider, cfg.Command, cfg.Args)
	default:
		return nil, errno.ErrProviderMisconfig.WithMessage("unknown transcription provider %q", cfg.Provider)
	}
}
