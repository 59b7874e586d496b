package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Admin         AdminConfig         `mapstructure:"admin"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Minio         MinioConfig         `mapstructure:"minio"`
	OpenSearch    OpenSearchConfig    `mapstructure:"opensearch"`
	Qdrant        QdrantConfig        `mapstructure:"qdrant"`
	Media         MediaConfig         `mapstructure:"media"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Worker        WorkerConfig        `mapstructure:"worker"`
	Retry         RetryConfig         `mapstructure:"retry"`
	Indexer       IndexerConfig       `mapstructure:"indexer"`
	Log           LogConfig           `mapstructure:"log"`
	Pyroscope     PyroscopeConfig     `mapstructure:"pyroscope"`
}

// AdminConfig 管理端口配置 (read-only operational surface)
type AdminConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	Charset         string        `mapstructure:"charset"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	EnableTLS    bool          `mapstructure:"enable_tls"`
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	BootstrapServers []string `mapstructure:"bootstrap_servers"`
	ClientID         string   `mapstructure:"client_id"`
	JobEventsTopic   string   `mapstructure:"job_events_topic"`
}

// MinioConfig MinIO配置
type MinioConfig struct {
	Endpoint          string `mapstructure:"endpoint"`
	AccessKeyID       string `mapstructure:"access_key_id"`
	AccessKey         string `mapstructure:"access_key"`
	SecretAccessKey   string `mapstructure:"secret_access_key"`
	SecretKey         string `mapstructure:"secret_key"`
	UseSSL            bool   `mapstructure:"use_ssl"`
	VideoBucket       string `mapstructure:"video_bucket"`
	AudioBucket       string `mapstructure:"audio_bucket"`
	TranscriptsBucket string `mapstructure:"transcripts_bucket"`
	UploadsBucket     string `mapstructure:"uploads_bucket"`
}

// OpenSearchConfig 全文索引后端配置
type OpenSearchConfig struct {
	URL           string        `mapstructure:"url"`
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	SegmentsIndex string        `mapstructure:"segments_index"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// QdrantConfig 向量索引后端配置
type QdrantConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	APIKey             string `mapstructure:"api_key"`
	UseTLS             bool   `mapstructure:"use_tls"`
	SegmentsCollection string `mapstructure:"segments_collection"`
	VectorSize         int    `mapstructure:"vector_size"`
}

// MediaConfig ffmpeg/ffprobe相关配置
type MediaConfig struct {
	FFmpegPath  string        `mapstructure:"ffmpeg_path"`
	FFprobePath string        `mapstructure:"ffprobe_path"`
	TempDir     string        `mapstructure:"temp_dir"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SampleRate  int           `mapstructure:"sample_rate"`
}

// TranscriptionConfig ASR provider配置
type TranscriptionConfig struct {
	Provider string   `mapstructure:"provider"`
	Command  string   `mapstructure:"command"`
	Args     []string `mapstructure:"args"`
}

// WorkerConfig Worker相关配置
type WorkerConfig struct {
	WorkerID            string        `mapstructure:"worker_id"`
	PollInterval        time.Duration `mapstructure:"poll_interval"`
	HeartbeatTTL        time.Duration `mapstructure:"heartbeat_ttl"`
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`
}

// RetryConfig 重试引擎配置
type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	BackoffBase    time.Duration `mapstructure:"backoff_base"`
	BackoffMax     time.Duration `mapstructure:"backoff_max"`
	JobTimeout     time.Duration `mapstructure:"job_timeout"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
}

// IndexerConfig 索引阶段配置
type IndexerConfig struct {
	BatchSize int `mapstructure:"batch_size"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// PyroscopeConfig 持续剖析配置
type PyroscopeConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ServerAddress string `mapstructure:"server_address"`
	AppName       string `mapstructure:"app_name"`
}

// Load 加载配置
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.SetDefault("kafka.enabled", false)
	viper.SetDefault("kafka.client_id", "videoindex-service")
	viper.SetDefault("kafka.bootstrap_servers", []string{"localhost:29092"})
	viper.SetDefault("kafka.job_events_topic", "videoindex.job_events")

	// 设置环境变量前缀
	viper.SetEnvPrefix("VIDEOINDEX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.normalize()

	return &config, nil
}

// normalize 补全配置的默认值
func (c *Config) normalize() {
	// 兼容不同的密钥字段
	if c.Minio.AccessKeyID == "" {
		c.Minio.AccessKeyID = c.Minio.AccessKey
	}
	if c.Minio.SecretAccessKey == "" {
		c.Minio.SecretAccessKey = c.Minio.SecretKey
	}
	if c.Minio.VideoBucket == "" {
		c.Minio.VideoBucket = "videos"
	}
	if c.Minio.AudioBucket == "" {
		c.Minio.AudioBucket = "audio"
	}
	if c.Minio.TranscriptsBucket == "" {
		c.Minio.TranscriptsBucket = "transcripts"
	}
	if c.Minio.UploadsBucket == "" {
		c.Minio.UploadsBucket = "uploads"
	}

	if c.OpenSearch.URL == "" {
		c.OpenSearch.URL = "http://localhost:9200"
	}
	if c.OpenSearch.SegmentsIndex == "" {
		c.OpenSearch.SegmentsIndex = "videoindex-segments-v1"
	}
	if c.OpenSearch.Timeout <= 0 {
		c.OpenSearch.Timeout = 10 * time.Second
	}

	if c.Qdrant.Host == "" {
		c.Qdrant.Host = "localhost"
	}
	if c.Qdrant.Port <= 0 {
		c.Qdrant.Port = 6334
	}
	if c.Qdrant.SegmentsCollection == "" {
		c.Qdrant.SegmentsCollection = "videoindex-segments-v1"
	}
	if c.Qdrant.VectorSize <= 0 {
		c.Qdrant.VectorSize = 1024
	}

	if c.Media.FFmpegPath == "" {
		c.Media.FFmpegPath = "ffmpeg"
	}
	if c.Media.FFprobePath == "" {
		c.Media.FFprobePath = "ffprobe"
	}
	if c.Media.TempDir == "" {
		c.Media.TempDir = "/tmp/videoindex"
	}
	if c.Media.Timeout <= 0 {
		c.Media.Timeout = time.Hour
	}
	if c.Media.SampleRate <= 0 {
		c.Media.SampleRate = 16000
	}

	if c.Transcription.Provider == "" {
		c.Transcription.Provider = "fake"
	}

	if c.Worker.PollInterval <= 0 {
		c.Worker.PollInterval = 3 * time.Second
	}
	if c.Worker.HeartbeatTTL <= 0 {
		c.Worker.HeartbeatTTL = 30 * time.Second
	}
	if c.Worker.ShutdownGracePeriod <= 0 {
		c.Worker.ShutdownGracePeriod = 10 * time.Second
	}

	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BackoffBase <= 0 {
		c.Retry.BackoffBase = 2 * time.Second
	}
	if c.Retry.BackoffMax <= 0 {
		c.Retry.BackoffMax = 60 * time.Second
	}
	if c.Retry.JobTimeout <= 0 {
		c.Retry.JobTimeout = 30 * time.Minute
	}
	if c.Retry.AttemptTimeout <= 0 {
		c.Retry.AttemptTimeout = 10 * time.Minute
	}

	if c.Indexer.BatchSize <= 0 {
		c.Indexer.BatchSize = 500
	}

	if c.Admin.Host == "" {
		c.Admin.Host = "0.0.0.0"
	}
	if c.Admin.Port == 0 {
		c.Admin.Port = 8085
	}
	if c.Admin.Mode == "" {
		c.Admin.Mode = "release"
	}

	if len(c.Kafka.BootstrapServers) == 0 {
		c.Kafka.BootstrapServers = []string{"localhost:29092"}
	}
	if c.Kafka.ClientID == "" {
		c.Kafka.ClientID = "videoindex-service"
	}
	if c.Kafka.JobEventsTopic == "" {
		c.Kafka.JobEventsTopic = "videoindex.job_events"
	}
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	charset := c.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database, charset)
}

// GetRedisAddr 获取Redis地址
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
