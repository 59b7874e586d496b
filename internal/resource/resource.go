package resource

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"videoindex-service/pkg/config"
	"videoindex-service/pkg/logger"
)

// Resources 进程级外部依赖，显式构造、显式关闭
//
// Built once at startup and passed down; nothing here is a package-level
// singleton.
type Resources struct {
	DB         *gorm.DB
	Redis      *redis.Client
	Minio      *minio.Client
	OpenSearch *opensearch.Client
	Qdrant     *qdrant.Client
}

// New 构造全部外部依赖并做连通性校验
func New(ctx context.Context, cfg *config.Config) (*Resources, error) {
	db, err := newMySQL(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init mysql failed: %w", err)
	}

	redisClient, err := newRedis(ctx, &cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("init redis failed: %w", err)
	}

	minioClient, err := newMinio(ctx, &cfg.Minio)
	if err != nil {
		return nil, fmt.Errorf("init minio failed: %w", err)
	}

	osClient, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{cfg.OpenSearch.URL},
		Username:  cfg.OpenSearch.Username,
		Password:  cfg.OpenSearch.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("init opensearch failed: %w", err)
	}

	qdrantClient, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Qdrant.Host,
		Port:   cfg.Qdrant.Port,
		APIKey: cfg.Qdrant.APIKey,
		UseTLS: cfg.Qdrant.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("init qdrant failed: %w", err)
	}

	logger.Info("Resources initialized", map[string]interface{}{
		"mysql":      cfg.Database.Host,
		"redis":      cfg.Redis.GetRedisAddr(),
		"minio":      cfg.Minio.Endpoint,
		"opensearch": cfg.OpenSearch.URL,
		"qdrant":     fmt.Sprintf("%s:%d", cfg.Qdrant.Host, cfg.Qdrant.Port),
	})

	return &Resources{
		DB:         db,
		Redis:      redisClient,
		Minio:      minioClient,
		OpenSearch: osClient,
		Qdrant:     qdrantClient,
	}, nil
}

// Close 释放外部依赖
func (r *Resources) Close() {
	if r.Qdrant != nil {
		if err := r.Qdrant.Close(); err != nil {
			logger.Warn("Failed to close qdrant client", map[string]interface{}{"error": err.Error()})
		}
	}
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			logger.Warn("Failed to close redis client", map[string]interface{}{"error": err.Error()})
		}
	}
	if r.DB != nil {
		if sqlDB, err := r.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Warn("Failed to close database", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}

// newMySQL 初始化数据库连接
//
// TranslateError: constraint violations surface as gorm sentinels, which
// the DAO layer maps onto the errno taxonomy.
func newMySQL(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.GetDSN()), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

// newRedis 初始化Redis并校验连通性
func newRedis(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

// newMinio 初始化MinIO并确保桶存在
func newMinio(ctx context.Context, cfg *config.MinioConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	buckets := []string{cfg.VideoBucket, cfg.AudioBucket, cfg.TranscriptsBucket, cfg.UploadsBucket}
	for _, bucket := range buckets {
		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return nil, fmt.Errorf("check bucket %s failed: %w", bucket, err)
		}
		if exists {
			continue
		}
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s failed: %w", bucket, err)
		}
		logger.Info("Created bucket", map[string]interface{}{"bucket": bucket})
	}
	return client, nil
}
