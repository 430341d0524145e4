package core

import "context"

// ArtifactStore 是训练产物的对象存储接口，按 URI 寻址。
//
// 实现：
//   - store.FileArtifactStore（file:// 或本地路径）
//   - store.S3ArtifactStore（s3://bucket/key）
//   - store.MinioArtifactStore（minio://bucket/key）
//   - store.MemoryArtifactStore（mem://，测试用）
type ArtifactStore interface {
	// Put 把本地文件上传到 uri，已存在则整体覆盖
	Put(ctx context.Context, localPath, uri string) error

	// Get 读取 uri 的全部内容；对象不存在时返回 ErrArtifactNotFound
	Get(ctx context.Context, uri string) ([]byte, error)
}

// ErrArtifactNotFound 表示产物不存在
var ErrArtifactNotFound = NewDomainError(ModuleArtifact, ErrorCodeNotFound, "artifact: object not found")
