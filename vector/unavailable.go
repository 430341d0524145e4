package vector

import (
	"context"

	"github.com/osako110/Recommend/core"
)

// UnavailableService 在索引后端启动失败时顶替真实索引，所有操作返回 UNAVAILABLE。
// 内容召回因此降级为空列表，协同过滤不受影响。
type UnavailableService struct {
	Backend string
	Err     error
}

func NewUnavailableService(backend string, err error) *UnavailableService {
	return &UnavailableService{Backend: backend, Err: err}
}

func (s *UnavailableService) unavailable() error {
	return core.WrapDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "vector backend "+s.Backend+" unavailable", s.Err)
}

func (s *UnavailableService) Fetch(ctx context.Context, req *core.VectorFetchRequest) (*core.VectorFetchResult, error) {
	return nil, s.unavailable()
}

func (s *UnavailableService) Search(ctx context.Context, req *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	return nil, s.unavailable()
}

func (s *UnavailableService) Upsert(ctx context.Context, req *core.VectorUpsertRequest) error {
	return s.unavailable()
}

func (s *UnavailableService) Delete(ctx context.Context, req *core.VectorDeleteRequest) error {
	return s.unavailable()
}

func (s *UnavailableService) CreateCollection(ctx context.Context, req *core.VectorCreateCollectionRequest) error {
	return s.unavailable()
}

func (s *UnavailableService) HasCollection(ctx context.Context, collection string) (bool, error) {
	return false, s.unavailable()
}

func (s *UnavailableService) Close() error { return nil }

var _ core.VectorDatabaseService = (*UnavailableService)(nil)
