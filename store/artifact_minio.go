package store

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/osako110/Recommend/core"
)

// MinioOptions MinIO 连接参数
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// MinioArtifactStore 是 MinIO（S3 兼容）实现的 core.ArtifactStore，URI 形如 minio://bucket/key。
type MinioArtifactStore struct {
	client *minio.Client
}

func NewMinioArtifactStore(opts MinioOptions) (*MinioArtifactStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &MinioArtifactStore{client: client}, nil
}

func (s *MinioArtifactStore) Put(ctx context.Context, localPath, uri string) error {
	u, err := ParseArtifactURI(uri)
	if err != nil {
		return err
	}
	if _, err := s.client.FPutObject(ctx, u.Bucket, u.Key, localPath, minio.PutObjectOptions{}); err != nil {
		return core.WrapDomainError(core.ModuleArtifact, core.ErrorCodeUnavailable, "artifact: upload "+uri, err)
	}
	return nil
}

func (s *MinioArtifactStore) Get(ctx context.Context, uri string) ([]byte, error) {
	u, err := ParseArtifactURI(uri)
	if err != nil {
		return nil, err
	}
	if _, err := s.client.StatObject(ctx, u.Bucket, u.Key, minio.StatObjectOptions{}); err != nil {
		return nil, minioError(uri, err)
	}
	obj, err := s.client.GetObject(ctx, u.Bucket, u.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, minioError(uri, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, minioError(uri, err)
	}
	return data, nil
}

func minioError(uri string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NotFound" || resp.Code == "NoSuchBucket" {
		return core.WrapDomainError(core.ModuleArtifact, core.ErrorCodeNotFound, "artifact: "+uri, core.ErrArtifactNotFound)
	}
	return core.WrapDomainError(core.ModuleArtifact, core.ErrorCodeUnavailable, "artifact: get "+uri, err)
}
