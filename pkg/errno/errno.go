package errno

import (
	"errors"
	"fmt"
)

// Kind 错误分类
//
// The retry engine treats KindRetryable, KindTimeout and
// KindProviderUnavailable as eligible for retry; everything else is fatal
// for the operation that raised it.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "conflict"
	KindRetryable           Kind = "retryable"
	KindTimeout             Kind = "timeout"
	KindProviderUnavailable Kind = "provider_unavailable"
	KindArtifactInvalid     Kind = "artifact_invalid"
	KindInternal            Kind = "internal"
)

// Errno 带分类的业务错误
type Errno struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

// Error 实现error接口
func (e *Errno) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Errno) Unwrap() error {
	return e.cause
}

// Is 按Code匹配，支持errors.Is(err, errno.ErrJobNotFound)形式的判断
func (e *Errno) Is(target error) bool {
	var t *Errno
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// Wrap 返回携带底层错误的副本
func (e *Errno) Wrap(cause error) *Errno {
	return &Errno{Kind: e.Kind, Code: e.Code, Message: e.Message, cause: cause}
}

// WithMessage 返回替换消息的副本
func (e *Errno) WithMessage(format string, args ...interface{}) *Errno {
	return &Errno{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...), cause: e.cause}
}

var (
	// 通用错误码
	ErrInvalidParam = &Errno{Kind: KindValidation, Code: "invalid_param", Message: "invalid parameter"}
	ErrNotFound     = &Errno{Kind: KindNotFound, Code: "not_found", Message: "not found"}
	ErrConflict     = &Errno{Kind: KindConflict, Code: "conflict", Message: "conflict"}
	ErrDatabase     = &Errno{Kind: KindRetryable, Code: "database_error", Message: "database error"}
	ErrInternal     = &Errno{Kind: KindInternal, Code: "internal_error", Message: "internal error"}

	// 作业存储错误码
	ErrJobNotFound         = &Errno{Kind: KindNotFound, Code: "job_not_found", Message: "job not found"}
	ErrJobIdempotencyKey   = &Errno{Kind: KindConflict, Code: "job_idempotency_conflict", Message: "job idempotency key already exists"}
	ErrJobRunConflict      = &Errno{Kind: KindConflict, Code: "job_run_conflict", Message: "job run attempt already exists"}
	ErrInvalidJobStatus    = &Errno{Kind: KindValidation, Code: "invalid_job_status", Message: "invalid job status transition"}
	ErrInvalidJobType      = &Errno{Kind: KindValidation, Code: "invalid_job_type", Message: "invalid job type"}
	ErrPayloadInvalid      = &Errno{Kind: KindValidation, Code: "payload_invalid", Message: "job payload is invalid"}
	ErrAudioRefMissing     = &Errno{Kind: KindValidation, Code: "audio_ref_missing", Message: "missing audio ref in job payload"}
	ErrVideoSourceRequired = &Errno{Kind: KindValidation, Code: "video_source_required", Message: "video source descriptor is required"}

	// 转码/转写阶段错误码
	ErrStorageUnavailable  = &Errno{Kind: KindRetryable, Code: "storage_unavailable", Message: "object storage operation failed"}
	ErrProviderUnavailable = &Errno{Kind: KindProviderUnavailable, Code: "provider_unavailable", Message: "transcription provider unavailable"}
	ErrProviderMisconfig   = &Errno{Kind: KindValidation, Code: "provider_misconfigured", Message: "transcription provider misconfigured"}
	ErrAudioDownloadFailed = &Errno{Kind: KindRetryable, Code: "audio_download_failed", Message: "audio artifact download failed"}
	ErrTranscriptionFailed = &Errno{Kind: KindRetryable, Code: "transcription_failed", Message: "transcription failed"}
	ErrAttemptTimeout      = &Errno{Kind: KindTimeout, Code: "attempt_timeout", Message: "attempt exceeded its time budget"}
	ErrJobTimeout          = &Errno{Kind: KindTimeout, Code: "job_timeout", Message: "job exceeded its overall deadline"}
	ErrMalformedInput      = &Errno{Kind: KindValidation, Code: "malformed_input", Message: "malformed input media"}

	// 索引阶段错误码
	ErrArtifactInvalid  = &Errno{Kind: KindArtifactInvalid, Code: "artifact_invalid", Message: "artifact is malformed"}
	ErrEmbeddingDim     = &Errno{Kind: KindArtifactInvalid, Code: "embedding_dim_mismatch", Message: "embedding dimension mismatch"}
	ErrIndexUnavailable = &Errno{Kind: KindProviderUnavailable, Code: "index_unavailable", Message: "search backend unavailable"}
)

// KindOf 返回错误的分类；非Errno错误归类为internal
func KindOf(err error) Kind {
	var e *Errno
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsRetryable 判断错误是否可重试
//
// Fixed allowlist by kind, not inferred from error types.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindRetryable, KindTimeout, KindProviderUnavailable:
		return true
	default:
		return false
	}
}

// IsJobTimeout 判断错误是否为作业级超时
func IsJobTimeout(err error) bool {
	return errors.Is(err, ErrJobTimeout)
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}
