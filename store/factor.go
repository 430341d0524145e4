package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/model"
	"github.com/osako110/Recommend/pkg/logging"
)

// 产物文件名，统一位于一次训练的基础路径下。
const (
	UserFactorsFile = "user_factors.parquet"
	ItemFactorsFile = "item_factors.parquet"
	ModelFile       = "als_model.gob.zst"

	UserIDColumn = "user_id"
	ItemIDColumn = "item_id"
)

// ArtifactLocations 是一次训练写出的三个产物地址
type ArtifactLocations struct {
	Base        string `json:"base"`
	UserFactors string `json:"user_factors"`
	ItemFactors string `json:"item_factors"`
	Model       string `json:"model"`
}

// Locations 返回基础路径下的产物地址
func Locations(base string) ArtifactLocations {
	return ArtifactLocations{
		Base:        base,
		UserFactors: JoinURI(base, UserFactorsFile),
		ItemFactors: JoinURI(base, ItemFactorsFile),
		Model:       JoinURI(base, ModelFile),
	}
}

// FactorStore 负责隐因子表与模型对象的持久化和加载。
// 持久化是整体快照替换：三个产物全部重写，没有增量合并。
type FactorStore struct {
	artifacts core.ArtifactStore
	tempDir   string
}

// FactorStoreOption FactorStore 配置选项
type FactorStoreOption func(*FactorStore)

// WithTempDir 设置本地临时目录（parquet 编解码需要落盘）
func WithTempDir(dir string) FactorStoreOption {
	return func(s *FactorStore) { s.tempDir = dir }
}

func NewFactorStore(artifacts core.ArtifactStore, opts ...FactorStoreOption) *FactorStore {
	s := &FactorStore{artifacts: artifacts}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Persist 写出用户因子表、物品因子表和模型对象。
// userIDs / itemIDs 必须与模型行顺序一致（即训练时的 IndexMaps 顺序）。
func (s *FactorStore) Persist(ctx context.Context, base string, m *model.LatentFactorModel, userIDs, itemIDs []string) (*ArtifactLocations, error) {
	if len(userIDs) != m.NumUsers() || len(itemIDs) != m.NumItems() {
		return nil, core.NewDomainError(core.ModuleFactor, core.ErrorCodeInvalidInput,
			fmt.Sprintf("factor: %d/%d ids for %d/%d factor rows", len(userIDs), len(itemIDs), m.NumUsers(), m.NumItems()))
	}

	dir, err := os.MkdirTemp(s.tempDir, "factors-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	userPath := filepath.Join(dir, UserFactorsFile)
	itemPath := filepath.Join(dir, ItemFactorsFile)
	modelPath := filepath.Join(dir, ModelFile)

	if err := writeFactorParquet(ctx, userPath, UserIDColumn, userIDs, m.Factors, m.Users.Data); err != nil {
		return nil, err
	}
	if err := writeFactorParquet(ctx, itemPath, ItemIDColumn, itemIDs, m.Factors, m.Items.Data); err != nil {
		return nil, err
	}
	if err := writeModelFile(modelPath, m); err != nil {
		return nil, err
	}

	loc := Locations(base)
	uploads := []struct{ local, uri string }{
		{modelPath, loc.Model},
		{itemPath, loc.ItemFactors},
		{userPath, loc.UserFactors},
	}
	for _, u := range uploads {
		if err := s.artifacts.Put(ctx, u.local, u.uri); err != nil {
			return nil, fmt.Errorf("persist %s: %w", u.uri, err)
		}
	}

	logging.Info().
		Str("base", base).
		Int("users", m.NumUsers()).
		Int("items", m.NumItems()).
		Int("factors", m.Factors).
		Msg("factor tables persisted")
	return &loc, nil
}

func writeModelFile(path string, m *model.LatentFactorModel) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	if err := model.EncodeModel(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load 读取用户/物品因子表。任一产物缺失或格式错误都直接返回错误，不会返回空表。
func (s *FactorStore) Load(ctx context.Context, base string) (users, items *core.FactorTable, err error) {
	loc := Locations(base)

	dir, err := os.MkdirTemp(s.tempDir, "factors-*")
	if err != nil {
		return nil, nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.fetchTable(gctx, dir, loc.UserFactors, UserIDColumn)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.fetchTable(gctx, dir, loc.ItemFactors, ItemIDColumn)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if users.Dim() != items.Dim() {
		return nil, nil, core.NewDomainError(core.ModuleFactor, core.ErrorCodeInvalidInput,
			fmt.Sprintf("factor: user dimension %d != item dimension %d", users.Dim(), items.Dim()))
	}
	return users, items, nil
}

func (s *FactorStore) fetchTable(ctx context.Context, dir, uri, idColumn string) (*core.FactorTable, error) {
	data, err := s.artifacts.Get(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", uri, err)
	}
	f, err := os.CreateTemp(dir, "*.parquet")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return readFactorParquet(ctx, f.Name(), idColumn)
}

// LoadModel 读取原始模型对象
func (s *FactorStore) LoadModel(ctx context.Context, base string) (*model.LatentFactorModel, error) {
	uri := Locations(base).Model
	data, err := s.artifacts.Get(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", uri, err)
	}
	m, err := model.DecodeModel(bytes.NewReader(data))
	if err != nil {
		return nil, malformed(uri, err)
	}
	return m, nil
}
