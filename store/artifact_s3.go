package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/osako110/Recommend/core"
)

// S3Options S3 连接参数；凭证走 AWS 默认链（环境变量、共享配置、实例角色）。
type S3Options struct {
	Region string

	// Endpoint 自定义端点（如 LocalStack），为空时使用 AWS 默认端点
	Endpoint     string
	UsePathStyle bool
}

// S3ArtifactStore 是 S3 实现的 core.ArtifactStore，URI 形如 s3://bucket/key。
type S3ArtifactStore struct {
	client   *s3.Client
	uploader *manager.Uploader
}

func NewS3ArtifactStore(ctx context.Context, opts S3Options) (*S3ArtifactStore, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})
	return NewS3ArtifactStoreFromClient(client), nil
}

// NewS3ArtifactStoreFromClient 复用已有的 S3 客户端
func NewS3ArtifactStoreFromClient(client *s3.Client) *S3ArtifactStore {
	return &S3ArtifactStore{client: client, uploader: manager.NewUploader(client)}
}

func (s *S3ArtifactStore) Put(ctx context.Context, localPath, uri string) error {
	u, err := ParseArtifactURI(uri)
	if err != nil {
		return err
	}
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(u.Key),
		Body:   f,
	})
	if err != nil {
		return core.WrapDomainError(core.ModuleArtifact, core.ErrorCodeUnavailable, "artifact: upload "+uri, err)
	}
	return nil
}

func (s *S3ArtifactStore) Get(ctx context.Context, uri string) ([]byte, error) {
	u, err := ParseArtifactURI(uri)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(u.Key),
	})
	if err != nil {
		var nf *types.NotFound
		var nsk *types.NoSuchKey
		if errors.As(err, &nf) || errors.As(err, &nsk) {
			return nil, core.WrapDomainError(core.ModuleArtifact, core.ErrorCodeNotFound, "artifact: "+uri, core.ErrArtifactNotFound)
		}
		return nil, core.WrapDomainError(core.ModuleArtifact, core.ErrorCodeUnavailable, "artifact: get "+uri, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	return data, nil
}
