package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"videoindex-service/ddd/domain/gateway"
	"videoindex-service/ddd/domain/vo"
	"videoindex-service/pkg/errno"
)

// segmentsArtifact 分段制品文档；转写制品本身即是一份
type segmentsArtifact struct {
	TranscriptID string            `json:"transcript_id"`
	VideoID      string            `json:"video_id"`
	Language     string            `json:"language"`
	Segments     []artifactSegment `json:"segments"`
}

// artifactSegment 制品分段；可自带ID（两种拼写）
type artifactSegment struct {
	vo.Segment
	ID        string `json:"id"`
	SegmentID string `json:"segment_id"`
}

// layersArtifact 说话人层制品文档，两种等价形态：
// items数组（每项带segment_id）或按分段ID索引的对象
type layersArtifact struct {
	Items       []map[string]interface{}          `json:"items"`
	BySegmentID map[string]map[string]interface{} `json:"by_segment_id"`
}

// embeddingsArtifact 向量制品文档
type embeddingsArtifact struct {
	Model string          `json:"model"`
	Dim   int             `json:"dim"`
	Items []embeddingItem `json:"items"`
}

type embeddingItem struct {
	SegmentID string    `json:"segment_id"`
	Vector    []float32 `json:"vector"`
	Embedding []float32 `json:"embedding"`
	Values    []float32 `json:"values"`
}

// vectorOf 兼容不同生产者的字段拼写
func (i embeddingItem) vectorOf() []float32 {
	switch {
	case len(i.Vector) > 0:
		return i.Vector
	case len(i.Embedding) > 0:
		return i.Embedding
	default:
		return i.Values
	}
}

// parseSegmentsArtifact 解析分段制品
func parseSegmentsArtifact(raw []byte) (*segmentsArtifact, error) {
	var doc segmentsArtifact
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errno.ErrArtifactInvalid.Wrap(fmt.Errorf("parse segments artifact failed: %w", err))
	}
	if len(doc.Segments) == 0 {
		return nil, errno.ErrArtifactInvalid.WithMessage("segments artifact has no segments")
	}
	return &doc, nil
}

// parseLayersArtifact 解析说话人层制品，归一为按分段ID索引
func parseLayersArtifact(raw []byte) (map[string]map[string]interface{}, error) {
	var doc layersArtifact
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errno.ErrArtifactInvalid.Wrap(fmt.Errorf("parse layers artifact failed: %w", err))
	}

	layers := make(map[string]map[string]interface{}, len(doc.BySegmentID)+len(doc.Items))
	for id, fields := range doc.BySegmentID {
		layers[id] = fields
	}
	for i, item := range doc.Items {
		id, _ := item["segment_id"].(string)
		if id == "" {
			return nil, errno.ErrArtifactInvalid.WithMessage("layers item %d has no segment_id", i)
		}
		fields := make(map[string]interface{}, len(item)-1)
		for k, v := range item {
			if k != "segment_id" {
				fields[k] = v
			}
		}
		layers[id] = fields
	}
	return layers, nil
}

// parseEmbeddingsArtifact 解析向量制品并校验维度
//
// Dimension validation happens here, before anything is sent to a backend:
// a mismatch is fatal for the job and must not leave partial writes behind.
func parseEmbeddingsArtifact(raw []byte, expectDim int) (map[string][]float32, error) {
	var doc embeddingsArtifact
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errno.ErrArtifactInvalid.Wrap(fmt.Errorf("parse embeddings artifact failed: %w", err))
	}

	vectors := make(map[string][]float32, len(doc.Items))
	for i, item := range doc.Items {
		if item.SegmentID == "" {
			return nil, errno.ErrArtifactInvalid.WithMessage("embeddings item %d has no segment_id", i)
		}
		vec := item.vectorOf()
		if len(vec) == 0 {
			return nil, errno.ErrArtifactInvalid.WithMessage("embeddings item %s has no vector", item.SegmentID)
		}
		if expectDim > 0 && len(vec) != expectDim {
			return nil, errno.ErrEmbeddingDim.WithMessage(
				"embeddings item %s has dim %d, collection expects %d", item.SegmentID, len(vec), expectDim)
		}
		vectors[item.SegmentID] = vec
	}
	return vectors, nil
}

// buildSegmentDocuments 由分段制品构建检索文档
//
// Empty-after-normalization texts are skipped. Artifact-provided segment ids
// win; the fallback id is {video_id}:{start_ms}:{end_ms}. Layer fields for a
// segment merge into its doc metadata.
func buildSegmentDocuments(videoID string, artifact *segmentsArtifact, layers map[string]map[string]interface{}) []gateway.SegmentDocument {
	docs := make([]gateway.SegmentDocument, 0, len(artifact.Segments))
	for i, seg := range artifact.Segments {
		text := normalizeWhitespace(seg.Text)
		if text == "" {
			continue
		}
		idx := i
		doc := gateway.SegmentDocument{
			ID:           segmentID(videoID, seg),
			VideoID:      videoID,
			TranscriptID: artifact.TranscriptID,
			SegmentIndex: &idx,
			StartMS:      seg.StartMS,
			EndMS:        seg.EndMS,
			Language:     artifact.Language,
			Source:       "transcript",
			Text:         text,
		}
		if fields, ok := layers[doc.ID]; ok {
			doc.Metadata = fields
			if speaker, ok := fields["speaker_id"].(string); ok {
				doc.SpeakerID = speaker
			}
		}
		docs = append(docs, doc)
	}
	return docs
}

// segmentID 分段ID；制品自带的优先，缺省由位置派生
func segmentID(videoID string, seg artifactSegment) string {
	if seg.ID != "" {
		return seg.ID
	}
	if seg.SegmentID != "" {
		return seg.SegmentID
	}
	return fmt.Sprintf("%s:%d:%d", videoID, seg.StartMS, seg.EndMS)
}

// normalizeWhitespace 折叠连续空白
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
