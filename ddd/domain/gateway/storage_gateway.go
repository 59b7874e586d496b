package gateway

import "context"

// ObjectInfo 对象元数据
type ObjectInfo struct {
	SizeBytes   int64
	ContentType string
	ETag        string
}

// ObjectStorage 对象存储网关
//
// Writes to the same bucket+key overwrite, so artifact uploads are
// idempotent by construction and a retried phase is safe to re-execute.
type ObjectStorage interface {
	// UploadBytes 上传字节内容
	UploadBytes(ctx context.Context, bucket, key string, data []byte, contentType string) error

	// UploadFile 上传本地文件
	UploadFile(ctx context.Context, bucket, key, localPath, contentType string) (int64, error)

	// DownloadToFile 下载对象到本地路径
	DownloadToFile(ctx context.Context, bucket, key, localPath string) error

	// StatObject 获取对象元数据；缺失返回NotFound
	StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error)

	// CopyObject 服务端拷贝对象
	CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error
}
