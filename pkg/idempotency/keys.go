package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Deterministic dedupe keys. A key is derived only from the identity of the
// artifact or request it protects, so repeating the producing operation
// yields the same key and the create-or-get path returns the existing row.

// TranscriptionJobKey 转写作业幂等键，由音频制品位置派生
func TranscriptionJobKey(videoID, audioBucket, audioKey string) string {
	return fmt.Sprintf("transcription:%s:%s:%s", videoID, audioBucket, audioKey)
}

// IndexJobKey 索引作业幂等键，由分段制品位置派生
func IndexJobKey(videoID, segmentsBucket, segmentsKey string) string {
	return fmt.Sprintf("index:%s:%s:%s", videoID, segmentsBucket, segmentsKey)
}

// IngestRequestKey 请求级幂等键，由来源描述派生
func IngestRequestKey(sourceType, sourceURI string) string {
	return fmt.Sprintf("ingest:%s:%s", sourceType, sourceURI)
}

// ContentHash 内容哈希 (hex sha256)
func ContentHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// ChecksumRef 存储引用中使用的校验和格式
func ChecksumRef(sha256Hex string) string {
	return "sha256:" + sha256Hex
}
