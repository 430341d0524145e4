package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(PathEnvVar, filepath.Join(t.TempDir(), "absent.yaml"))
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Training.Factors)
	assert.Equal(t, 25, cfg.Serving.PerSourceQuota)
	assert.Equal(t, 2*time.Second, cfg.Serving.SourceTimeout)
	assert.Equal(t, "events", cfg.Events.MongoCollection)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
training:
  factors: 16
  iterations: 5
serving:
  cap: 30
  source_timeout: 500ms
vector:
  backend: milvus
  address: localhost:19530
`), 0o644))

	t.Setenv("ALS_FACTORS", "32")
	t.Setenv("ALS_REG", "0.05")
	t.Setenv("S3_URI", "s3://models/als")
	t.Setenv("RECOMMEND_SERVING__TOP_K", "80")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.Training.Factors, "env overrides file")
	assert.InDelta(t, 0.05, cfg.Training.Regularization, 1e-12)
	assert.Equal(t, 5, cfg.Training.Iterations, "file overrides default")
	assert.Equal(t, "s3://models/als", cfg.Artifacts.URI)
	assert.Equal(t, 80, cfg.Serving.TopK)
	assert.Equal(t, 30, cfg.Serving.Cap)
	assert.Equal(t, 500*time.Millisecond, cfg.Serving.SourceTimeout)
	assert.Equal(t, "milvus", cfg.Vector.Backend)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero factors", func(c *Config) { c.Training.Factors = 0 }},
		{"unknown events backend", func(c *Config) { c.Events.Backend = "kafka" }},
		{"file backend without path", func(c *Config) { c.Events.Backend = "file" }},
		{"milvus without address", func(c *Config) { c.Vector.Backend = "milvus" }},
		{"rest catalog without url", func(c *Config) { c.Catalog.Backend = "rest" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestEnvTransform(t *testing.T) {
	assert.Equal(t, "training.iterations", envTransform("ALS_ITER"))
	assert.Equal(t, "catalog.cache_ttl", envTransform("RECOMMEND_CATALOG__CACHE_TTL"))
	assert.Equal(t, "", envTransform("RECOMMEND_CONFIG"))
	assert.Equal(t, "", envTransform("HOME"))
}
