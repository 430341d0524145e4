package core

import "context"

// VectorDatabaseService 是带集合管理能力的向量索引。
// 部署时用它建好用户偏好集合与图书集合，在线召回只依赖 VectorService。
type VectorDatabaseService interface {
	VectorService

	Delete(ctx context.Context, req *VectorDeleteRequest) error
	CreateCollection(ctx context.Context, req *VectorCreateCollectionRequest) error
	HasCollection(ctx context.Context, collection string) (bool, error)
}

type VectorDeleteRequest struct {
	Collection string
	IDs        []string
}

// VectorCreateCollectionRequest 中 Dimension 必须与写入的向量（或文本编码器输出）一致
type VectorCreateCollectionRequest struct {
	Name      string
	Dimension int
	Metric    string
}

// EnsureCollections 创建尚不存在的集合，已存在的集合保持不变（不校验维度）。
// 返回新建的集合名称。
func EnsureCollections(ctx context.Context, db VectorDatabaseService, reqs ...VectorCreateCollectionRequest) ([]string, error) {
	var created []string
	for i := range reqs {
		req := &reqs[i]
		if req.Dimension <= 0 {
			return created, NewDomainError(ModuleVector, ErrorCodeInvalidInput, "collection "+req.Name+": dimension must be positive")
		}
		ok, err := db.HasCollection(ctx, req.Name)
		if err != nil {
			return created, err
		}
		if ok {
			continue
		}
		if err := db.CreateCollection(ctx, req); err != nil {
			return created, err
		}
		created = append(created, req.Name)
	}
	return created, nil
}
