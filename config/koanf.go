package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar 指定配置文件路径的环境变量
const PathEnvVar = "RECOMMEND_CONFIG"

// EnvPrefix 通用环境变量前缀：RECOMMEND_SERVING__TOP_K -> serving.top_k
const EnvPrefix = "RECOMMEND_"

// DefaultPaths 是未指定路径时依次查找的配置文件
var DefaultPaths = []string{
	"config.yaml",
	"configs/config.yaml",
}

// envMappings 是训练任务沿用的环境变量名
var envMappings = map[string]string{
	"als_factors":      "training.factors",
	"als_reg":          "training.regularization",
	"als_iter":         "training.iterations",
	"als_alpha":        "training.alpha",
	"als_workers":      "training.workers",
	"mongo_uri":        "events.mongo_uri",
	"mongo_db":         "events.mongo_database",
	"mongo_collection": "events.mongo_collection",
	"s3_uri":           "artifacts.uri",
	"aws_region":       "artifacts.region",
	"s3_endpoint":      "artifacts.endpoint",
	"minio_endpoint":   "artifacts.minio_endpoint",
	"minio_access_key": "artifacts.minio_access_key",
	"minio_secret_key": "artifacts.minio_secret_key",
	"milvus_address":   "vector.address",
	"redis_addr":       "redis.addr",
	"redis_password":   "redis.password",
	"catalog_url":      "catalog.url",
	"catalog_api_key":  "catalog.api_key",
	"pushgateway_url":  "metrics.push_url",
	"log_level":        "logging.level",
	"log_format":       "logging.format",
}

// Load 按 默认值 → YAML 文件 → 环境变量 的顺序加载配置并校验。
// path 为空时查找 RECOMMEND_CONFIG 与 DefaultPaths，找不到文件时只使用默认值与环境变量。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransform 把环境变量名转换为配置路径，未识别的变量返回空串被忽略。
func envTransform(key string) string {
	if strings.HasPrefix(key, EnvPrefix) {
		rest := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if rest == "config" {
			return ""
		}
		return strings.Replace(rest, "__", ".", 1)
	}
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
