// Package vector 提供外部向量索引的 core.VectorService 实现。
package vector

import (
	"context"
	"fmt"
	"time"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/osako110/Recommend/core"
)

const (
	fieldID     = "id"
	fieldVector = "vector"
)

// MilvusService 是 Milvus 的 core.VectorDatabaseService 实现。
// 集合 schema 固定为 id(VarChar 主键) + vector(FloatVector)。
type MilvusService struct {
	Address  string
	Username string
	Password string
	Database string
	Timeout  time.Duration

	encoder core.TextEncoder
	client  *milvusclient.Client
}

// NewMilvusService 创建一个新的 Milvus 服务实例并建立连接。
func NewMilvusService(ctx context.Context, address string, opts ...MilvusOption) (*MilvusService, error) {
	service := &MilvusService{
		Address:  address,
		Database: "default",
		Timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(service)
	}

	dialCtx, cancel := context.WithTimeout(ctx, service.Timeout)
	defer cancel()
	client, err := milvusclient.New(dialCtx, &milvusclient.ClientConfig{
		Address:  service.Address,
		Username: service.Username,
		Password: service.Password,
		DBName:   service.Database,
	})
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "create milvus client", err)
	}
	service.client = client
	return service, nil
}

type MilvusOption func(*MilvusService)

func WithMilvusAuth(username, password string) MilvusOption {
	return func(s *MilvusService) {
		s.Username = username
		s.Password = password
	}
}

func WithMilvusDatabase(database string) MilvusOption {
	return func(s *MilvusService) {
		s.Database = database
	}
}

func WithMilvusTimeout(timeout time.Duration) MilvusOption {
	return func(s *MilvusService) {
		if timeout > 0 {
			s.Timeout = timeout
		}
	}
}

// WithMilvusTextEncoder 设置文本编码器，用于纯文本记录的写入
func WithMilvusTextEncoder(enc core.TextEncoder) MilvusOption {
	return func(s *MilvusService) {
		s.encoder = enc
	}
}

// Fetch 实现 core.VectorService 接口
func (s *MilvusService) Fetch(ctx context.Context, req *core.VectorFetchRequest) (*core.VectorFetchResult, error) {
	if req.Collection == "" {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "collection name is required")
	}
	out := &core.VectorFetchResult{Vectors: make(map[string][]float64, len(req.IDs))}
	if len(req.IDs) == 0 {
		return out, nil
	}

	rs, err := s.client.Query(ctx, milvusclient.NewQueryOption(req.Collection).
		WithIDs(column.NewColumnVarChar(fieldID, req.IDs)).
		WithOutputFields(fieldID, fieldVector))
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "milvus fetch failed", err)
	}
	if rs.ResultCount == 0 {
		return out, nil
	}

	ids, ok := rs.GetColumn(fieldID).(*column.ColumnVarChar)
	if !ok {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInternalError, "milvus fetch: unexpected id column")
	}
	vecs, ok := rs.GetColumn(fieldVector).(*column.ColumnFloatVector)
	if !ok {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInternalError, "milvus fetch: unexpected vector column")
	}
	data := vecs.Data()
	for i, id := range ids.Data() {
		if i < len(data) {
			out.Vectors[id] = toFloat64(data[i])
		}
	}
	return out, nil
}

// Search 实现 core.VectorService 接口。度量方式在建集合时确定，搜索时忽略 req.Metric。
func (s *MilvusService) Search(ctx context.Context, req *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	if req.Collection == "" {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "collection name is required")
	}
	if len(req.Vector) == 0 {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector is required")
	}
	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}

	opt := milvusclient.NewSearchOption(req.Collection, topK, []entity.Vector{entity.FloatVector(toFloat32(req.Vector))}).
		WithOutputFields(fieldID)
	if ef, ok := req.Params["ef"].(int); ok {
		annParam := index.NewCustomAnnParam()
		annParam.WithExtraParam("ef", ef)
		opt = opt.WithAnnParam(annParam)
	}

	results, err := s.client.Search(ctx, opt)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "milvus search failed", err)
	}

	items := make([]core.VectorSearchItem, 0, topK)
	for _, rs := range results {
		if rs.Err != nil {
			return nil, core.WrapDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "milvus search result", rs.Err)
		}
		for i := 0; i < rs.Len(); i++ {
			id, err := rs.IDs.Get(i)
			if err != nil {
				continue
			}
			item := core.VectorSearchItem{ID: fmt.Sprint(id)}
			if i < len(rs.Scores) {
				item.Score = float64(rs.Scores[i])
				item.Distance = item.Score
			}
			items = append(items, item)
		}
	}
	return &core.VectorSearchResult{Items: items}, nil
}

// Upsert 实现 core.VectorService 接口
func (s *MilvusService) Upsert(ctx context.Context, req *core.VectorUpsertRequest) error {
	if req.Collection == "" {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "collection name is required")
	}
	if len(req.Records) == 0 {
		return nil
	}

	ids := make([]string, len(req.Records))
	vecs := make([][]float32, len(req.Records))
	for i, rec := range req.Records {
		ids[i] = rec.ID
		switch {
		case len(rec.Vector) > 0:
			vecs[i] = toFloat32(rec.Vector)
		case s.encoder != nil:
			vecs[i] = toFloat32(s.encoder.EncodeText(rec.Text))
		default:
			return core.NewDomainError(core.ModuleVector, core.ErrorCodeNotSupported, "text upsert requires a text encoder")
		}
		if len(vecs[i]) != len(vecs[0]) {
			return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "records have different dimensions")
		}
	}

	opt := milvusclient.NewColumnBasedInsertOption(req.Collection,
		column.NewColumnVarChar(fieldID, ids),
		column.NewColumnFloatVector(fieldVector, len(vecs[0]), vecs),
	)
	if _, err := s.client.Upsert(ctx, opt); err != nil {
		return core.WrapDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "milvus upsert failed", err)
	}
	return nil
}

// Delete 实现 core.VectorDatabaseService 接口
func (s *MilvusService) Delete(ctx context.Context, req *core.VectorDeleteRequest) error {
	if req.Collection == "" || len(req.IDs) == 0 {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "collection and ids are required")
	}
	if _, err := s.client.Delete(ctx, milvusclient.NewDeleteOption(req.Collection).WithStringIDs(fieldID, req.IDs)); err != nil {
		return core.WrapDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "milvus delete failed", err)
	}
	return nil
}

// CreateCollection 实现 core.VectorDatabaseService 接口，索引使用 AUTOINDEX。
func (s *MilvusService) CreateCollection(ctx context.Context, req *core.VectorCreateCollectionRequest) error {
	if req.Name == "" || req.Dimension <= 0 {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "collection requires a name and a positive dimension")
	}

	schema := entity.NewSchema().
		WithName(req.Name).
		WithField(entity.NewField().
			WithName(fieldID).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(255).
			WithIsPrimaryKey(true)).
		WithField(entity.NewField().
			WithName(fieldVector).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(req.Dimension)))

	indexOpt := milvusclient.NewCreateIndexOption(req.Name, fieldVector, index.NewAutoIndex(convertMetricType(req.Metric)))
	if err := s.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(req.Name, schema).WithIndexOptions(indexOpt)); err != nil {
		return core.WrapDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "milvus create collection failed", err)
	}
	return nil
}

// HasCollection 实现 core.VectorDatabaseService 接口
func (s *MilvusService) HasCollection(ctx context.Context, collection string) (bool, error) {
	exists, err := s.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(collection))
	if err != nil {
		return false, core.WrapDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "milvus has collection failed", err)
	}
	return exists, nil
}

func (s *MilvusService) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()
	return s.client.Close(ctx)
}

func convertMetricType(metric string) entity.MetricType {
	switch core.MetricType(metric) {
	case core.MetricEuclidean:
		return entity.L2
	case core.MetricInnerProduct:
		return entity.IP
	default:
		return entity.COSINE
	}
}

func toFloat32(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}

func toFloat64(vec []float32) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}

var (
	_ core.VectorService         = (*MilvusService)(nil)
	_ core.VectorDatabaseService = (*MilvusService)(nil)
)
