package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"

	"videoindex-service/ddd/domain/gateway"
	"videoindex-service/pkg/errno"
	"videoindex-service/pkg/logger"
)

// MinioStorage MinIO对象存储实现
type MinioStorage struct {
	client *minio.Client
}

// NewMinioStorage 创建MinIO存储实例
func NewMinioStorage(client *minio.Client) gateway.ObjectStorage {
	return &MinioStorage{client: client}
}

// UploadBytes 上传字节内容
func (s *MinioStorage) UploadBytes(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = getContentTypeFromExtension(key)
	}

	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logger.Error("Failed to upload object to MinIO", map[string]interface{}{
			"bucket":     bucket,
			"object_key": key,
			"error":      err.Error(),
		})
		return errno.ErrStorageUnavailable.Wrap(fmt.Errorf("upload object to minio failed: %w", err))
	}
	return nil
}

// UploadFile 上传本地文件，返回对象大小
func (s *MinioStorage) UploadFile(ctx context.Context, bucket, key, localPath, contentType string) (int64, error) {
	file, err := os.Open(localPath)
	if err != nil {
		logger.Error("Failed to open local file", map[string]interface{}{
			"local_path": localPath,
			"error":      err.Error(),
		})
		return 0, errno.ErrInternal.Wrap(fmt.Errorf("open local file failed: %w", err))
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return 0, errno.ErrInternal.Wrap(fmt.Errorf("get file info failed: %w", err))
	}

	if contentType == "" {
		contentType = getContentTypeFromExtension(key)
	}

	_, err = s.client.PutObject(ctx, bucket, key, file, fileInfo.Size(), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logger.Error("Failed to upload file to MinIO", map[string]interface{}{
			"local_path": localPath,
			"bucket":     bucket,
			"object_key": key,
			"error":      err.Error(),
		})
		return 0, errno.ErrStorageUnavailable.Wrap(fmt.Errorf("upload file to minio failed: %w", err))
	}

	logger.Info("File uploaded successfully", map[string]interface{}{
		"bucket":     bucket,
		"object_key": key,
		"size":       fileInfo.Size(),
	})
	return fileInfo.Size(), nil
}

// DownloadToFile 从MinIO下载对象到本地路径
func (s *MinioStorage) DownloadToFile(ctx context.Context, bucket, key, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return errno.ErrInternal.Wrap(fmt.Errorf("create local directory failed: %w", err))
	}

	object, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return s.wrapObjectError(bucket, key, err)
	}
	defer object.Close()

	localFile, err := os.Create(localPath)
	if err != nil {
		return errno.ErrInternal.Wrap(fmt.Errorf("create local file failed: %w", err))
	}
	defer localFile.Close()

	if _, err = localFile.ReadFrom(object); err != nil {
		logger.Error("Failed to download object from MinIO", map[string]interface{}{
			"bucket":     bucket,
			"object_key": key,
			"local_path": localPath,
			"error":      err.Error(),
		})
		return s.wrapObjectError(bucket, key, err)
	}
	return nil
}

// StatObject 获取对象元数据
func (s *MinioStorage) StatObject(ctx context.Context, bucket, key string) (gateway.ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return gateway.ObjectInfo{}, s.wrapObjectError(bucket, key, err)
	}
	return gateway.ObjectInfo{
		SizeBytes:   info.Size,
		ContentType: info.ContentType,
		ETag:        info.ETag,
	}, nil
}

// CopyObject 服务端拷贝对象
func (s *MinioStorage) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	_, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: dstBucket, Object: dstKey},
		minio.CopySrcOptions{Bucket: srcBucket, Object: srcKey},
	)
	if err != nil {
		logger.Error("Failed to copy object in MinIO", map[string]interface{}{
			"src_bucket": srcBucket,
			"src_key":    srcKey,
			"dst_bucket": dstBucket,
			"dst_key":    dstKey,
			"error":      err.Error(),
		})
		return s.wrapObjectError(srcBucket, srcKey, err)
	}
	return nil
}

// wrapObjectError 将minio错误映射为领域错误
func (s *MinioStorage) wrapObjectError(bucket, key string, err error) error {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "NoSuchKey", "NoSuchBucket":
			return errno.ErrNotFound.WithMessage("object %s/%s not found", bucket, key)
		}
	}
	return errno.ErrStorageUnavailable.Wrap(err)
}

// getContentTypeFromExtension 根据文件扩展名获取内容类型
func getContentTypeFromExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	case ".mkv":
		return "video/x-matroska"
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
