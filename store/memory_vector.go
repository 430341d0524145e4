package store

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/osako110/Recommend/core"
)

// MemoryVectorService 是内存实现的 core.VectorDatabaseService，用于测试/开发。
// 搜索为暴力扫描；文本记录通过可选的 TextEncoder 编码为向量。
type MemoryVectorService struct {
	mu          sync.RWMutex
	collections map[string]*collection
	encoder     core.TextEncoder
}

type collection struct {
	dimension int
	metric    core.MetricType
	vectors   map[string][]float64
}

// MemoryVectorOption 配置选项
type MemoryVectorOption func(*MemoryVectorService)

// WithTextEncoder 设置文本编码器，未设置时写入纯文本记录会报错
func WithTextEncoder(enc core.TextEncoder) MemoryVectorOption {
	return func(m *MemoryVectorService) { m.encoder = enc }
}

// NewMemoryVectorService 创建内存向量服务实例。
func NewMemoryVectorService(opts ...MemoryVectorOption) *MemoryVectorService {
	m := &MemoryVectorService{collections: make(map[string]*collection)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryVectorService) Name() string { return "memory_vector" }

// Fetch 实现 core.VectorService 接口，不存在的集合或 ID 视为缺失
func (m *MemoryVectorService) Fetch(ctx context.Context, req *core.VectorFetchRequest) (*core.VectorFetchResult, error) {
	if req == nil {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector fetch request is nil")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := &core.VectorFetchResult{Vectors: make(map[string][]float64)}
	col, ok := m.collections[req.Collection]
	if !ok {
		return out, nil
	}
	for _, id := range req.IDs {
		if v, ok := col.vectors[id]; ok {
			out.Vectors[id] = slices.Clone(v)
		}
	}
	return out, nil
}

// Search 实现 core.VectorService 接口。同分时按 ID 升序，结果稳定。
func (m *MemoryVectorService) Search(ctx context.Context, req *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	if req == nil {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector search request is nil")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[req.Collection]
	if !ok {
		return &core.VectorSearchResult{Items: []core.VectorSearchItem{}}, nil
	}
	if len(req.Vector) != col.dimension {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput,
			fmt.Sprintf("vector dimension mismatch: got %d, collection %q has %d", len(req.Vector), req.Collection, col.dimension))
	}

	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}
	metric := core.MetricType(req.Metric)
	if metric == "" {
		metric = col.metric
	}

	items := make([]core.VectorSearchItem, 0, len(col.vectors))
	for id, vec := range col.vectors {
		var score, distance float64
		switch metric {
		case core.MetricEuclidean:
			distance = euclideanDistance(req.Vector, vec)
			score = 1.0 / (1.0 + distance)
		case core.MetricInnerProduct:
			score = innerProduct(req.Vector, vec)
			distance = -score
		default:
			score = cosineSimilarity(req.Vector, vec)
			distance = 1.0 - score
		}
		items = append(items, core.VectorSearchItem{ID: id, Score: score, Distance: distance})
	}

	slices.SortFunc(items, func(a, b core.VectorSearchItem) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return strings.Compare(a.ID, b.ID)
		}
	})
	if len(items) > topK {
		items = items[:topK]
	}
	return &core.VectorSearchResult{Items: items}, nil
}

// Upsert 实现 core.VectorService 接口。集合不存在时按首条记录的维度自动创建（cosine）。
func (m *MemoryVectorService) Upsert(ctx context.Context, req *core.VectorUpsertRequest) error {
	if req == nil || req.Collection == "" {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector upsert request requires a collection")
	}

	vectors := make([][]float64, len(req.Records))
	for i, rec := range req.Records {
		if rec.ID == "" {
			return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, fmt.Sprintf("record %d has empty id", i))
		}
		switch {
		case len(rec.Vector) > 0:
			vectors[i] = slices.Clone(rec.Vector)
		case m.encoder != nil:
			vectors[i] = m.encoder.EncodeText(rec.Text)
		default:
			return core.NewDomainError(core.ModuleVector, core.ErrorCodeNotSupported, "text upsert requires a text encoder")
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.collections[req.Collection]
	if !ok && len(vectors) > 0 {
		col = &collection{dimension: len(vectors[0]), metric: core.MetricCosine, vectors: make(map[string][]float64)}
		m.collections[req.Collection] = col
	}
	for i, vec := range vectors {
		if len(vec) != col.dimension {
			return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput,
				fmt.Sprintf("record %q dimension %d, collection has %d", req.Records[i].ID, len(vec), col.dimension))
		}
	}
	for i, vec := range vectors {
		col.vectors[req.Records[i].ID] = vec
	}
	return nil
}

// Delete 实现 core.VectorDatabaseService 接口
func (m *MemoryVectorService) Delete(ctx context.Context, req *core.VectorDeleteRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if col, ok := m.collections[req.Collection]; ok {
		for _, id := range req.IDs {
			delete(col.vectors, id)
		}
	}
	return nil
}

// CreateCollection 实现 core.VectorDatabaseService 接口
func (m *MemoryVectorService) CreateCollection(ctx context.Context, req *core.VectorCreateCollectionRequest) error {
	if req == nil || req.Name == "" || req.Dimension <= 0 {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "collection requires a name and a positive dimension")
	}
	metric := core.MetricType(req.Metric)
	if metric == "" {
		metric = core.MetricCosine
	}
	if !core.ValidateVectorMetric(string(metric)) {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "unsupported metric "+req.Metric)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[req.Name]; ok {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "collection already exists: "+req.Name)
	}
	m.collections[req.Name] = &collection{dimension: req.Dimension, metric: metric, vectors: make(map[string][]float64)}
	return nil
}

// HasCollection 实现 core.VectorDatabaseService 接口
func (m *MemoryVectorService) HasCollection(ctx context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.collections[name]
	return ok, nil
}

// Close 实现 core.VectorService 接口
func (m *MemoryVectorService) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections = make(map[string]*collection)
	return nil
}

func cosineSimilarity(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func euclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func innerProduct(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
