package gateway

import "context"

// SegmentDocument 分段的规范检索文档
//
// One document per segment. The lexical document and the vector point for
// a segment share the same id so the two backends stay correlated.
type SegmentDocument struct {
	ID           string                 `json:"id"`
	VideoID      string                 `json:"video_id"`
	TranscriptID string                 `json:"transcript_id,omitempty"`
	SpeakerID    string                 `json:"speaker_id,omitempty"`
	SegmentIndex *int                   `json:"segment_index,omitempty"`
	StartMS      int64                  `json:"start_ms"`
	EndMS        int64                  `json:"end_ms"`
	Language     string                 `json:"language,omitempty"`
	Source       string                 `json:"source,omitempty"`
	Text         string                 `json:"text"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// VectorPoint 向量索引点
type VectorPoint struct {
	ID      string
	Vector  []float32
	Payload map[string]interface{}
}

// LexicalIndex 全文索引网关
type LexicalIndex interface {
	// BulkUpsert 批量写入分段文档（按文档ID覆盖）
	BulkUpsert(ctx context.Context, index string, docs []SegmentDocument) error

	// Refresh 使写入立即可见（reindex场景）
	Refresh(ctx context.Context, index string) error
}

// VectorIndex 向量索引网关
type VectorIndex interface {
	// UpsertPoints 批量写入向量点（按点ID覆盖）
	UpsertPoints(ctx context.Context, collection string, points []VectorPoint) error
}
