package core

import "context"

// VectorService 是稠密向量索引的领域接口：按 ID 取向量、近邻查询、写入。
//
// 近邻算法与 embedding 语义（偏好文本如何变成向量）都由索引实现方负责，
// 推荐链路只约定如何消费其结果。
//
// 实现：
//   - store.MemoryVectorService（内存暴力检索，测试/开发）
//   - vector.MilvusService（Milvus）
//   - vector.BreakerService（熔断装饰器）
type VectorService interface {
	// Fetch 按 ID 读取向量，不存在的 ID 不出现在结果中
	Fetch(ctx context.Context, req *VectorFetchRequest) (*VectorFetchResult, error)

	// Search 向量搜索，结果按索引定义的相似度排好序
	Search(ctx context.Context, req *VectorSearchRequest) (*VectorSearchResult, error)

	// Upsert 写入文本或向量记录，同 ID 覆盖
	Upsert(ctx context.Context, req *VectorUpsertRequest) error

	// Close 关闭连接
	Close() error
}

// VectorFetchRequest 按 ID 取向量请求
type VectorFetchRequest struct {
	Collection string
	IDs        []string
}

// VectorFetchResult 按 ID 取向量结果
type VectorFetchResult struct {
	Vectors map[string][]float64
}

// VectorSearchRequest 向量搜索请求
type VectorSearchRequest struct {
	// Collection 集合名称
	Collection string

	// Vector 查询向量
	Vector []float64

	// TopK 返回 TopK 个最相似的结果
	TopK int

	// Metric 距离度量方式：cosine / euclidean / inner_product，为空时使用集合默认值
	Metric string

	// Params 额外参数（可选）
	Params map[string]interface{}
}

// VectorSearchItem 单个向量搜索结果项
type VectorSearchItem struct {
	ID       string
	Score    float64
	Distance float64
}

// VectorSearchResult 向量搜索结果
type VectorSearchResult struct {
	// Items 搜索结果项列表（按相似度排序）
	Items []VectorSearchItem
}

// VectorRecord 是一条待写入的记录；Vector 为空时由索引根据 Text 生成向量。
type VectorRecord struct {
	ID     string
	Vector []float64
	Text   string
}

// VectorUpsertRequest 写入请求
type VectorUpsertRequest struct {
	Collection string
	Records    []VectorRecord
}

// ValidateVectorMetric 验证距离度量类型
func ValidateVectorMetric(metric string) bool {
	switch MetricType(metric) {
	case MetricCosine, MetricEuclidean, MetricInnerProduct:
		return true
	default:
		return false
	}
}

// MetricType 距离度量类型
type MetricType string

const (
	MetricCosine       MetricType = "cosine"
	MetricEuclidean    MetricType = "euclidean"
	MetricInnerProduct MetricType = "inner_product"
)

// TextEncoder 把文本编码成向量，供不自带 embedding 能力的索引实现使用。
type TextEncoder interface {
	EncodeText(text string) []float64
}
