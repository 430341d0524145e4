package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/osako110/Recommend/core"
)

// LatestFile 是根路径下指向最近一次成功训练的指针文件，内容为该次训练的基础路径。
const LatestFile = "LATEST"

// PublishLatest 在所有产物写完之后更新指针，使在线服务切换到新的训练结果。
func (s *FactorStore) PublishLatest(ctx context.Context, root, base string) error {
	dir, err := os.MkdirTemp(s.tempDir, "latest-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, LatestFile)
	if err := os.WriteFile(path, []byte(base+"\n"), 0o644); err != nil {
		return fmt.Errorf("write latest pointer: %w", err)
	}
	return s.artifacts.Put(ctx, path, JoinURI(root, LatestFile))
}

// ResolveLatest 读取根路径下的指针，返回最近一次训练的基础路径。
func (s *FactorStore) ResolveLatest(ctx context.Context, root string) (string, error) {
	data, err := s.artifacts.Get(ctx, JoinURI(root, LatestFile))
	if err != nil {
		return "", fmt.Errorf("resolve latest under %s: %w", root, err)
	}
	base := strings.TrimSpace(string(data))
	if base == "" {
		return "", core.NewDomainError(core.ModuleFactor, core.ErrorCodeInvalidInput, "latest pointer under "+root+" is empty")
	}
	return base, nil
}

// LatestLoader 每次加载时先解析 LATEST 指针，再读取指向的因子表。
type LatestLoader struct {
	Store *FactorStore
}

func (l *LatestLoader) Load(ctx context.Context, root string) (users, items *core.FactorTable, err error) {
	base, err := l.Store.ResolveLatest(ctx, root)
	if err != nil {
		return nil, nil, err
	}
	return l.Store.Load(ctx, base)
}
