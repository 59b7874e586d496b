package errno

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", ErrPayloadInvalid, KindValidation},
		{"not found", ErrJobNotFound, KindNotFound},
		{"conflict", ErrConflict, KindConflict},
		{"retryable", ErrTranscriptionFailed, KindRetryable},
		{"timeout", ErrAttemptTimeout, KindTimeout},
		{"provider", ErrProviderUnavailable, KindProviderUnavailable},
		{"artifact", ErrArtifactInvalid, KindArtifactInvalid},
		{"plain error", errors.New("boom"), KindInternal},
		{"wrapped", fmt.Errorf("outer: %w", ErrJobNotFound), KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Fatalf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsRetryableAllowlist(t *testing.T) {
	retryable := []error{ErrTranscriptionFailed, ErrAttemptTimeout, ErrProviderUnavailable, ErrStorageUnavailable, ErrDatabase, ErrIndexUnavailable}
	for _, err := range retryable {
		if !IsRetryable(err) {
			t.Errorf("expected %v retryable", err)
		}
	}
	fatal := []error{ErrPayloadInvalid, ErrArtifactInvalid, ErrEmbeddingDim, ErrJobNotFound, ErrConflict, errors.New("boom")}
	for _, err := range fatal {
		if IsRetryable(err) {
			t.Errorf("expected %v fatal", err)
		}
	}
}

func TestWrapPreservesCodeAndCause(t *testing.T) {
	cause := errors.New("driver: bad connection")
	err := ErrDatabase.Wrap(cause)

	if !errors.Is(err, ErrDatabase) {
		t.Fatal("wrapped error should match its sentinel by code")
	}
	if !errors.Is(err, cause) {
		t.Fatal("wrapped error should unwrap to its cause")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("wrapped error must not match a different code")
	}
}

func TestWithMessageKeepsClassification(t *testing.T) {
	err := ErrJobNotFound.WithMessage("job %s not found", "abc")
	if !IsNotFound(err) {
		t.Fatal("WithMessage must keep the kind")
	}
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatal("WithMessage must keep the code")
	}
}

func TestIsJobTimeoutDistinguishesAttemptTimeout(t *testing.T) {
	if IsJobTimeout(ErrAttemptTimeout) {
		t.Fatal("attempt timeout is not a job timeout")
	}
	if !IsJobTimeout(ErrJobTimeout.WithMessage("deadline")) {
		t.Fatal("job timeout variant should match")
	}
	// Attempt timeouts stay retryable; the job-level deadline does not.
	if !IsRetryable(ErrAttemptTimeout) {
		t.Fatal("attempt timeout should be retryable")
	}
}
