package search

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"videoindex-service/ddd/domain/gateway"
	"videoindex-service/pkg/errno"
	"videoindex-service/pkg/logger"
)

// QdrantIndex 向量索引实现
type QdrantIndex struct {
	client *qdrant.Client
}

// NewQdrantIndex 创建向量索引网关
func NewQdrantIndex(client *qdrant.Client) gateway.VectorIndex {
	return &QdrantIndex{client: client}
}

// UpsertPoints 批量写入向量点
//
// Point ids are the segment ids, so the write is an overwrite on re-run.
// Wait=true: the call returns after the points are applied, which keeps a
// succeeded index job truthful about visibility.
func (s *QdrantIndex) UpsertPoints(ctx context.Context, collection string, points []gateway.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}

	upsertPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		upsertPoints = append(upsertPoints, &qdrant.PointStruct{
			Id:      qdrant.NewID(pointUUID(p.ID)),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(p.Payload),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         upsertPoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		logger.Error("Vector upsert failed", map[string]interface{}{
			"collection": collection,
			"count":      len(points),
			"error":      err.Error(),
		})
		return errno.ErrIndexUnavailable.Wrap(fmt.Errorf("qdrant upsert failed: %w", err))
	}

	logger.Debug("Upserted vector points", map[string]interface{}{
		"collection": collection,
		"count":      len(points),
	})
	return nil
}

// pointUUID 从分段ID派生确定性的点UUID
//
// Qdrant point ids must be integers or UUIDs; the raw segment id travels in
// the payload.
func pointUUID(segmentID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(segmentID)).String()
}
