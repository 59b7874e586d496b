package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"videoindex-service/ddd/domain/gateway"
	"videoindex-service/pkg/errno"
	"videoindex-service/pkg/logger"
)

// OpenSearchIndex 全文索引实现
//
// Documents are written with the bulk NDJSON API keyed by segment id, so a
// re-run of the same batch overwrites instead of duplicating.
type OpenSearchIndex struct {
	client *opensearch.Client
}

// NewOpenSearchIndex 创建全文索引网关
func NewOpenSearchIndex(client *opensearch.Client) gateway.LexicalIndex {
	return &OpenSearchIndex{client: client}
}

// BulkUpsert 批量写入分段文档
func (s *OpenSearchIndex) BulkUpsert(ctx context.Context, index string, docs []gateway.SegmentDocument) error {
	if len(docs) == 0 {
		return nil
	}

	var body bytes.Buffer
	for i := range docs {
		action := map[string]map[string]string{
			"index": {"_index": index, "_id": docs[i].ID},
		}
		actionLine, err := json.Marshal(action)
		if err != nil {
			return errno.ErrInternal.Wrap(err)
		}
		docLine, err := json.Marshal(&docs[i])
		if err != nil {
			return errno.ErrArtifactInvalid.Wrap(fmt.Errorf("marshal segment document %s failed: %w", docs[i].ID, err))
		}
		body.Write(actionLine)
		body.WriteByte('\n')
		body.Write(docLine)
		body.WriteByte('\n')
	}

	req := opensearchapi.BulkRequest{
		Index: index,
		Body:  &body,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return errno.ErrIndexUnavailable.Wrap(fmt.Errorf("bulk request failed: %w", err))
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		logger.Error("Bulk indexing rejected", map[string]interface{}{
			"index":  index,
			"status": res.StatusCode,
			"body":   string(msg),
		})
		return errno.ErrIndexUnavailable.WithMessage("bulk indexing rejected with status %d", res.StatusCode)
	}

	var bulkRes struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkRes); err != nil {
		return errno.ErrIndexUnavailable.Wrap(fmt.Errorf("decode bulk response failed: %w", err))
	}
	if bulkRes.Errors {
		for _, item := range bulkRes.Items {
			for op, detail := range item {
				if detail.Error != nil {
					logger.Error("Bulk item failed", map[string]interface{}{
						"index":  index,
						"op":     op,
						"status": detail.Status,
						"type":   detail.Error.Type,
						"reason": detail.Error.Reason,
					})
				}
			}
		}
		return errno.ErrIndexUnavailable.WithMessage("bulk indexing reported item errors")
	}

	logger.Debug("Bulk indexed segment documents", map[string]interface{}{
		"index": index,
		"count": len(docs),
	})
	return nil
}

// Refresh 使写入立即可见
func (s *OpenSearchIndex) Refresh(ctx context.Context, index string) error {
	req := opensearchapi.IndicesRefreshRequest{Index: []string{index}}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return errno.ErrIndexUnavailable.Wrap(fmt.Errorf("refresh request failed: %w", err))
	}
	defer res.Body.Close()
	if res.IsError() {
		return errno.ErrIndexUnavailable.WithMessage("refresh rejected with status %d", res.StatusCode)
	}
	return nil
}
