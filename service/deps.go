package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/osako110/Recommend/catalog"
	"github.com/osako110/Recommend/config"
	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/event"
	"github.com/osako110/Recommend/model"
	"github.com/osako110/Recommend/pkg/logging"
	"github.com/osako110/Recommend/store"
	"github.com/osako110/Recommend/vector"
)

// Deps 是由配置构建出的外部依赖集合，训练任务与在线服务共用。
// 每个字段都可以在构建后被替换（例如测试中换成内存实现）。
type Deps struct {
	Config    *config.Config
	Artifacts *store.ArtifactRouter
	Factors   *store.FactorStore
	Vectors   core.VectorService
	Cache     core.Store

	// VectorAdmin 是未经熔断包装的底层索引，用于集合初始化
	VectorAdmin core.VectorDatabaseService
	Catalog     core.Catalog

	closers []func() error
}

// NewDeps 构建在线服务所需的依赖：产物存储、向量索引、缓存与目录。
// 向量索引连不上时换成始终返回 UNAVAILABLE 的索引，内容召回降级为空；
// Redis 连不上时退回进程内缓存。两者都只记录告警，不阻止服务启动。
// 事件来源只在训练时需要，由 NewEventSource 单独创建。
func NewDeps(ctx context.Context, cfg *config.Config) (*Deps, error) {
	d := &Deps{Config: cfg}

	artifacts, err := NewArtifactRouter(ctx, cfg.Artifacts, cfg.Serving.FactorsURI)
	if err != nil {
		return nil, err
	}
	d.Artifacts = artifacts
	d.Factors = store.NewFactorStore(artifacts, store.WithTempDir(cfg.Artifacts.TempDir))

	if d.VectorAdmin, err = NewVectorBackend(ctx, cfg.Vector); err != nil {
		logging.Warn().Err(err).Str("backend", cfg.Vector.Backend).Msg("vector backend unavailable, content recall disabled")
		d.VectorAdmin = vector.NewUnavailableService(cfg.Vector.Backend, err)
	}
	d.Vectors = WrapVectorService(d.VectorAdmin, cfg.Vector)
	d.closers = append(d.closers, d.Vectors.Close)

	if d.Cache, err = NewCache(ctx, cfg.Redis); err != nil {
		logging.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, using in-process cache")
		d.Cache = store.NewMemoryStore()
	}
	d.closers = append(d.closers, d.Cache.Close)

	if d.Catalog, err = d.newCatalog(cfg.Catalog); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// Close 按创建的逆序释放资源
func (d *Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

// NewArtifactRouter 注册 file / mem 方案，并按配置中出现的方案注册 s3 与 minio。
func NewArtifactRouter(ctx context.Context, cfg config.ArtifactsConfig, extra ...string) (*store.ArtifactRouter, error) {
	router := store.NewArtifactRouter().Register("mem", store.NewMemoryArtifactStore())

	schemes := map[string]bool{}
	for _, uri := range append([]string{cfg.URI}, extra...) {
		if uri == "" {
			continue
		}
		u, err := store.ParseArtifactURI(uri)
		if err != nil {
			return nil, err
		}
		schemes[u.Scheme] = true
	}

	if schemes["s3"] {
		s3Store, err := store.NewS3ArtifactStore(ctx, store.S3Options{
			Region:       cfg.Region,
			Endpoint:     cfg.Endpoint,
			UsePathStyle: cfg.UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 artifact store: %w", err)
		}
		router.Register("s3", s3Store)
	}
	if schemes["minio"] || cfg.MinioEndpoint != "" {
		if cfg.MinioEndpoint == "" {
			return nil, fmt.Errorf("minio artifact uri requires artifacts.minio_endpoint")
		}
		minioStore, err := store.NewMinioArtifactStore(store.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, err
		}
		router.Register("minio", minioStore)
	}
	return router, nil
}

// NewVectorService 创建向量索引，按配置包上熔断器
func NewVectorService(ctx context.Context, cfg config.VectorConfig) (core.VectorService, error) {
	db, err := NewVectorBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return WrapVectorService(db, cfg), nil
}

// WrapVectorService 按配置给索引加上熔断器
func WrapVectorService(db core.VectorDatabaseService, cfg config.VectorConfig) core.VectorService {
	if !cfg.Breaker {
		return db
	}
	return vector.NewBreakerService(db, vector.DefaultBreakerSettings("vector."+cfg.Backend))
}

// NewVectorBackend 按 vector.backend 创建底层索引，配置了 encoder_file 时带上文本编码器
func NewVectorBackend(ctx context.Context, cfg config.VectorConfig) (core.VectorDatabaseService, error) {
	var encoder core.TextEncoder
	if cfg.EncoderFile != "" {
		enc, err := loadEncoder(cfg.EncoderFile)
		if err != nil {
			return nil, err
		}
		encoder = enc
	}

	switch cfg.Backend {
	case "milvus":
		opts := []vector.MilvusOption{
			vector.WithMilvusAuth(cfg.Username, cfg.Password),
			vector.WithMilvusDatabase(cfg.Database),
			vector.WithMilvusTimeout(cfg.Timeout),
		}
		if encoder != nil {
			opts = append(opts, vector.WithMilvusTextEncoder(encoder))
		}
		return vector.NewMilvusService(ctx, cfg.Address, opts...)
	case "memory", "":
		var opts []store.MemoryVectorOption
		if encoder != nil {
			opts = append(opts, store.WithTextEncoder(encoder))
		}
		return store.NewMemoryVectorService(opts...), nil
	default:
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeNotSupported, "unknown vector backend: "+cfg.Backend)
	}
}

// EnsureCollections 创建缺失的用户偏好集合与图书集合，维度取 vector.dimension
func (d *Deps) EnsureCollections(ctx context.Context) error {
	if d.VectorAdmin == nil {
		return nil
	}
	cfg := d.Config.Vector
	created, err := core.EnsureCollections(ctx, d.VectorAdmin,
		core.VectorCreateCollectionRequest{Name: cfg.UserCollection, Dimension: cfg.Dimension, Metric: cfg.Metric},
		core.VectorCreateCollectionRequest{Name: cfg.ItemCollection, Dimension: cfg.Dimension, Metric: cfg.Metric},
	)
	if len(created) > 0 {
		logging.Info().Strs("collections", created).Msg("vector collections created")
	}
	return err
}

func loadEncoder(path string) (*model.Word2VecModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open encoder: %w", err)
	}
	defer f.Close()
	return model.LoadWord2Vec(f)
}

// NewCache 创建目录缓存：配置了 Redis 时使用 Redis，否则使用进程内缓存
func NewCache(ctx context.Context, cfg config.RedisConfig) (core.Store, error) {
	if cfg.Addr == "" {
		return store.NewMemoryStore(), nil
	}
	return store.NewRedisStore(ctx, store.RedisOptions{
		Addr:      cfg.Addr,
		Password:  cfg.Password,
		DB:        cfg.DB,
		KeyPrefix: cfg.KeyPrefix,
	})
}

func (d *Deps) newCatalog(cfg config.CatalogConfig) (core.Catalog, error) {
	var c core.Catalog
	switch cfg.Backend {
	case "none", "":
		return nil, nil
	case "sql":
		db, err := sql.Open(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open catalog db: %w", err)
		}
		d.closers = append(d.closers, db.Close)
		var opts []catalog.SQLCatalogOption
		if cfg.Driver == "postgres" || cfg.Driver == "pgx" {
			opts = append(opts, catalog.WithDollarPlaceholders())
		}
		c = catalog.NewSQLCatalog(db, cfg.Table, opts...)
	case "rest":
		var opts []catalog.RESTCatalogOption
		if cfg.APIKey != "" {
			opts = append(opts, catalog.WithAPIKey(cfg.APIKey))
		}
		rc := catalog.NewRESTCatalog(cfg.URL, opts...)
		if cfg.Table != "" {
			rc.Table = cfg.Table
		}
		c = rc
	default:
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotSupported, "unknown catalog backend: "+cfg.Backend)
	}

	if cfg.CacheTTL > 0 && d.Cache != nil {
		c = catalog.NewCachedCatalog(c, d.Cache, cfg.CacheTTL)
	}
	return c, nil
}

// NewEventSource 按配置创建训练事件来源。返回的 close 函数释放底层连接。
func NewEventSource(ctx context.Context, cfg config.EventsConfig) (event.Source, func() error, error) {
	switch cfg.Backend {
	case "file":
		return &event.FileSource{Path: cfg.File}, func() error { return nil }, nil
	case "mongo", "":
		client, err := event.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		coll := client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection)
		logging.Info().
			Str("database", cfg.MongoDatabase).
			Str("collection", cfg.MongoCollection).
			Msg("event source connected")
		return event.NewMongoSource(coll), func() error {
			return client.Disconnect(context.Background())
		}, nil
	default:
		return nil, nil, core.NewDomainError(core.ModuleEvent, core.ErrorCodeNotSupported, "unknown events backend: "+cfg.Backend)
	}
}
