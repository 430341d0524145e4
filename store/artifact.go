package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/osako110/Recommend/core"
)

// ArtifactURI 是解析后的产物地址。file 方案下 Bucket 为空、Key 为本地路径。
type ArtifactURI struct {
	Scheme string
	Bucket string
	Key    string
}

// ParseArtifactURI 解析 s3://bucket/key、minio://bucket/key、mem://bucket/key、
// file:///abs/path 或不带方案的本地路径。
func ParseArtifactURI(uri string) (ArtifactURI, error) {
	if uri == "" {
		return ArtifactURI{}, fmt.Errorf("artifact uri is empty")
	}
	if !strings.Contains(uri, "://") {
		return ArtifactURI{Scheme: "file", Key: uri}, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return ArtifactURI{}, fmt.Errorf("parse artifact uri %q: %w", uri, err)
	}
	if u.Scheme == "file" {
		return ArtifactURI{Scheme: "file", Key: u.Host + u.Path}, nil
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return ArtifactURI{}, fmt.Errorf("artifact uri %q: bucket and key are required", uri)
	}
	return ArtifactURI{Scheme: u.Scheme, Bucket: u.Host, Key: key}, nil
}

// JoinURI 在基础路径后拼接文件名
func JoinURI(base, name string) string {
	return strings.TrimRight(base, "/") + "/" + name
}

// ArtifactRouter 按 URI 方案把请求路由到对应的 ArtifactStore。
type ArtifactRouter struct {
	stores map[string]core.ArtifactStore
}

// NewArtifactRouter 创建路由，默认注册 file 方案
func NewArtifactRouter() *ArtifactRouter {
	return &ArtifactRouter{stores: map[string]core.ArtifactStore{"file": NewFileArtifactStore()}}
}

// Register 注册某个方案的实现
func (r *ArtifactRouter) Register(scheme string, s core.ArtifactStore) *ArtifactRouter {
	r.stores[scheme] = s
	return r
}

func (r *ArtifactRouter) route(uri string) (core.ArtifactStore, error) {
	u, err := ParseArtifactURI(uri)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleArtifact, core.ErrorCodeInvalidInput, "artifact: bad uri", err)
	}
	s, ok := r.stores[u.Scheme]
	if !ok {
		return nil, core.NewDomainError(core.ModuleArtifact, core.ErrorCodeNotSupported,
			fmt.Sprintf("artifact: no store registered for scheme %q", u.Scheme))
	}
	return s, nil
}

func (r *ArtifactRouter) Put(ctx context.Context, localPath, uri string) error {
	s, err := r.route(uri)
	if err != nil {
		return err
	}
	return s.Put(ctx, localPath, uri)
}

func (r *ArtifactRouter) Get(ctx context.Context, uri string) ([]byte, error) {
	s, err := r.route(uri)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, uri)
}
