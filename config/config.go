// Package config 定义推荐系统的运行配置（训练任务与在线服务共用）。
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config 是全部配置的根结构。
type Config struct {
	Training  TrainingConfig  `koanf:"training"`
	Events    EventsConfig    `koanf:"events"`
	Artifacts ArtifactsConfig `koanf:"artifacts"`
	Vector    VectorConfig    `koanf:"vector"`
	Redis     RedisConfig     `koanf:"redis"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Serving   ServingConfig   `koanf:"serving"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// TrainingConfig 是 ALS 超参数
type TrainingConfig struct {
	Factors        int     `koanf:"factors" validate:"gte=1,lte=1024"`
	Regularization float64 `koanf:"regularization" validate:"gte=0"`
	Iterations     int     `koanf:"iterations" validate:"gte=1"`
	Alpha          float64 `koanf:"alpha" validate:"gt=0"` // 置信度缩放
	Workers        int     `koanf:"workers" validate:"gte=0"`
	Seed           uint64  `koanf:"seed"`
}

// EventsConfig 是训练事件来源
type EventsConfig struct {
	Backend         string `koanf:"backend" validate:"oneof=mongo file"`
	MongoURI        string `koanf:"mongo_uri" validate:"required_if=Backend mongo"`
	MongoDatabase   string `koanf:"mongo_database" validate:"required_if=Backend mongo"`
	MongoCollection string `koanf:"mongo_collection" validate:"required_if=Backend mongo"`
	File            string `koanf:"file" validate:"required_if=Backend file"`
}

// ArtifactsConfig 是训练产物的存储位置。URI 为根路径，每次训练写入 {URI}/{run_id}。
type ArtifactsConfig struct {
	URI          string `koanf:"uri" validate:"required"`
	Region       string `koanf:"region"`
	Endpoint     string `koanf:"endpoint"`
	UsePathStyle bool   `koanf:"use_path_style"`
	TempDir      string `koanf:"temp_dir"`

	MinioEndpoint  string `koanf:"minio_endpoint"`
	MinioAccessKey string `koanf:"minio_access_key"`
	MinioSecretKey string `koanf:"minio_secret_key"`
	MinioUseSSL    bool   `koanf:"minio_use_ssl"`
}

// VectorConfig 是内容召回使用的向量索引
type VectorConfig struct {
	Backend        string        `koanf:"backend" validate:"oneof=memory milvus"`
	Address        string        `koanf:"address" validate:"required_if=Backend milvus"`
	Username       string        `koanf:"username"`
	Password       string        `koanf:"password"`
	Database       string        `koanf:"database"`
	UserCollection string        `koanf:"user_collection" validate:"required"`
	ItemCollection string        `koanf:"item_collection" validate:"required"`
	Metric         string        `koanf:"metric" validate:"omitempty,oneof=cosine euclidean inner_product"`
	Dimension      int           `koanf:"dimension" validate:"gte=0"`
	Timeout        time.Duration `koanf:"timeout"`
	Breaker        bool          `koanf:"breaker"`

	// EncoderFile 词向量文件（JSON），用于把偏好文本编码为向量；为空时只接受显式向量
	EncoderFile string `koanf:"encoder_file"`
}

// RedisConfig 用于目录缓存，Addr 为空时使用内存缓存
type RedisConfig struct {
	Addr      string `koanf:"addr"`
	Password  string `koanf:"password"`
	DB        int    `koanf:"db" validate:"gte=0"`
	KeyPrefix string `koanf:"key_prefix"`
}

// CatalogConfig 是图书目录来源
type CatalogConfig struct {
	Backend  string `koanf:"backend" validate:"oneof=none sql rest"`
	Driver   string `koanf:"driver"`
	DSN      string `koanf:"dsn"`
	Table    string `koanf:"table"`
	URL      string `koanf:"url" validate:"required_if=Backend rest"`
	APIKey   string `koanf:"api_key"`
	CacheTTL int    `koanf:"cache_ttl" validate:"gte=0"` // 秒，0 表示不缓存
}

// ServingConfig 是在线推荐参数
type ServingConfig struct {
	TopK           int           `koanf:"top_k" validate:"gte=1"`
	PerSourceQuota int           `koanf:"per_source_quota" validate:"gte=1"`
	Cap            int           `koanf:"cap" validate:"gte=1"`
	SourceTimeout  time.Duration `koanf:"source_timeout"`
	MaxConcurrent  int           `koanf:"max_concurrent" validate:"gte=0"`
	ReloadInterval time.Duration `koanf:"reload_interval"`
	FactorsURI     string        `koanf:"factors_uri"` // 为空时读取 artifacts.uri 下的 LATEST 指针
	PipelineFile   string        `koanf:"pipeline_file"`
}

// MetricsConfig 是训练任务的 Pushgateway 配置
type MetricsConfig struct {
	PushURL string `koanf:"push_url" validate:"omitempty,url"`
	Job     string `koanf:"job"`
}

// LoggingConfig 是日志配置
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Default 返回内置默认配置
func Default() *Config {
	return &Config{
		Training: TrainingConfig{
			Factors:        64,
			Regularization: 0.1,
			Iterations:     20,
			Alpha:          40,
			Seed:           42,
		},
		Events: EventsConfig{
			Backend:         "mongo",
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   "click_stream",
			MongoCollection: "events",
		},
		Artifacts: ArtifactsConfig{
			URI: "file://./artifacts",
		},
		Vector: VectorConfig{
			Backend:        "memory",
			Database:       "default",
			UserCollection: "user_preferences",
			ItemCollection: "books",
			Metric:         "cosine",
			Timeout:        30 * time.Second,
			Breaker:        true,
		},
		Redis: RedisConfig{
			KeyPrefix: "recommend:",
		},
		Catalog: CatalogConfig{
			Backend:  "none",
			Driver:   "duckdb",
			Table:    "books",
			CacheTTL: 3600,
		},
		Serving: ServingConfig{
			TopK:           50,
			PerSourceQuota: 25,
			Cap:            50,
			SourceTimeout:  2 * time.Second,
			ReloadInterval: 10 * time.Minute,
		},
		Metrics: MetricsConfig{
			Job: "recommend_train",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

var validate = validator.New()

// Validate 校验配置
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
