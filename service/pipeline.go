package service

import (
	"context"
	"fmt"

	"github.com/osako110/Recommend/config"
	"github.com/osako110/Recommend/feature"
	"github.com/osako110/Recommend/filter"
	"github.com/osako110/Recommend/pipeline"
	"github.com/osako110/Recommend/pkg/conv"
	"github.com/osako110/Recommend/pkg/logging"
	"github.com/osako110/Recommend/recall"
	"github.com/osako110/Recommend/store"
)

// Serving 是在线推荐所需的组件，NodeFactory 的各个构建器从这里取召回源与目录。
type Serving struct {
	Factors *recall.FactorCache
	ALS     *recall.ALSRecall
	Content *recall.ContentRecall
	Deps    *Deps
	Config  config.ServingConfig
}

// NewServing 根据依赖与配置创建在线组件。
// serving.factors_uri 为空时每次加载都先解析 artifacts.uri 下的 LATEST 指针。
func NewServing(deps *Deps) *Serving {
	cfg := deps.Config
	var cache *recall.FactorCache
	if cfg.Serving.FactorsURI != "" {
		cache = recall.NewFactorCache(deps.Factors, cfg.Serving.FactorsURI)
	} else {
		cache = recall.NewFactorCache(&store.LatestLoader{Store: deps.Factors}, cfg.Artifacts.URI)
	}
	return &Serving{
		Factors: cache,
		ALS:     &recall.ALSRecall{Factors: cache, TopK: cfg.Serving.TopK},
		Content: &recall.ContentRecall{
			VectorService:  deps.Vectors,
			UserCollection: cfg.Vector.UserCollection,
			ItemCollection: cfg.Vector.ItemCollection,
			TopK:           cfg.Serving.TopK,
			Metric:         cfg.Vector.Metric,
		},
		Deps:   deps,
		Config: cfg.Serving,
	}
}

// NodeFactory 返回注册了全部内置 Node 的工厂
func (s *Serving) NodeFactory() *pipeline.NodeFactory {
	factory := pipeline.NewNodeFactory()
	factory.Register("recall.hybrid", s.buildHybridNode)
	factory.Register("filter.expr", buildExprFilterNode)
	factory.Register("postprocess.enrich", s.buildEnrichNode)
	return factory
}

// DefaultPipelineConfig 是未提供 pipeline 文件时使用的拓扑：混合召回 → 补充目录
func DefaultPipelineConfig() *pipeline.Config {
	cfg := &pipeline.Config{}
	cfg.Pipeline.Name = "recommend"
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{
		{Type: "recall.hybrid", Config: map[string]any{}},
		{Type: "postprocess.enrich", Config: map[string]any{}},
	}
	return cfg
}

// Pipeline 按 serving.pipeline_file 构建 Pipeline，未配置时使用默认拓扑
func (s *Serving) Pipeline() (*pipeline.Pipeline, error) {
	pc := DefaultPipelineConfig()
	if s.Config.PipelineFile != "" {
		var err error
		if pc, err = pipeline.LoadFromYAML(s.Config.PipelineFile); err != nil {
			return nil, fmt.Errorf("load pipeline %s: %w", s.Config.PipelineFile, err)
		}
	}
	return pc.BuildPipeline(s.NodeFactory())
}

// Recommender 组装在线推荐入口
func (s *Serving) Recommender() (*Recommender, error) {
	p, err := s.Pipeline()
	if err != nil {
		return nil, err
	}
	return &Recommender{
		Pipeline: p,
		ALS:      s.ALS,
		Text:     s.Content,
		Enrich:   &feature.EnrichNode{Catalog: s.Deps.Catalog},
	}, nil
}

// Start 预加载因子表并在后台按 serving.reload_interval 周期性重载，ctx 取消时停止。
// 预加载失败只记录，首个请求会再次尝试。
func (s *Serving) Start(ctx context.Context) {
	if err := s.Factors.Reload(ctx); err != nil {
		logging.Warn().Err(err).Msg("initial factor load failed")
	}
	if s.Config.ReloadInterval > 0 {
		go s.Factors.Run(ctx, s.Config.ReloadInterval)
	}
}

func (s *Serving) buildHybridNode(cfg map[string]any) (pipeline.Node, error) {
	topK := conv.ConfigGetInt(cfg, "top_k", s.Config.TopK)
	merger := recall.NewHybridMerger()
	merger.PerSourceQuota = conv.ConfigGetInt(cfg, "per_source_quota", s.Config.PerSourceQuota)
	merger.Cap = conv.ConfigGetInt(cfg, "cap", s.Config.Cap)
	if seed := conv.ConfigGetInt(cfg, "seed", -1); seed >= 0 {
		v := uint64(seed)
		merger.Seed = &v
	}

	als := *s.ALS
	als.TopK = topK
	content := *s.Content
	content.TopK = topK

	return &recall.Fanout{
		Sources:       []recall.Source{&als, &content},
		Timeout:       conv.ConfigGetDuration(cfg, "timeout", s.Config.SourceTimeout),
		MaxConcurrent: conv.ConfigGetInt(cfg, "max_concurrent", s.Config.MaxConcurrent),
		Merger:        &recall.HybridMergeStrategy{Merger: merger},
	}, nil
}

func buildExprFilterNode(cfg map[string]any) (pipeline.Node, error) {
	expr := conv.ConfigGet(cfg, "expr", "")
	if expr == "" {
		return nil, fmt.Errorf("filter.expr: expr is required")
	}
	f, err := filter.NewExprFilter(expr, conv.ConfigGet(cfg, "invert", false))
	if err != nil {
		return nil, err
	}
	return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
}

func (s *Serving) buildEnrichNode(map[string]any) (pipeline.Node, error) {
	return &feature.EnrichNode{Catalog: s.Deps.Catalog}, nil
}
