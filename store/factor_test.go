package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/model"
)

func testModel() *model.LatentFactorModel {
	users := model.NewDense(2, 3)
	copy(users.Data, []float64{1, 0, 0, 0, 1, 0.5})
	items := model.NewDense(3, 3)
	copy(items.Data, []float64{0.1, 0.2, 0.3, 1, 1, 1, -1, 0, 2})
	return &model.LatentFactorModel{
		Factors: 3,
		Users:   users,
		Items:   items,
		Params:  model.DefaultHyperparams(),
	}
}

func TestFactorStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	artifacts := NewMemoryArtifactStore()
	fs := NewFactorStore(artifacts, WithTempDir(t.TempDir()))

	m := testModel()
	loc, err := fs.Persist(ctx, "mem://models/run-1", m, []string{"u1", "u2"}, []string{"b1", "b2", "b3"})
	require.NoError(t, err)
	assert.Equal(t, "mem://models/run-1/user_factors.parquet", loc.UserFactors)
	assert.Equal(t, "mem://models/run-1/item_factors.parquet", loc.ItemFactors)
	assert.Equal(t, "mem://models/run-1/als_model.gob.zst", loc.Model)
	assert.Len(t, artifacts.Keys(), 3)

	users, items, err := fs.Load(ctx, "mem://models/run-1")
	require.NoError(t, err)
	assert.Equal(t, 3, users.Dim())
	assert.Equal(t, []string{"u1", "u2"}, users.IDs())
	assert.Equal(t, []string{"b1", "b2", "b3"}, items.IDs())

	v, ok := users.Vector("u2")
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1, 0.5}, v)
	v, ok = items.Vector("b3")
	require.True(t, ok)
	assert.Equal(t, []float64{-1, 0, 2}, v)

	raw, err := fs.LoadModel(ctx, "mem://models/run-1")
	require.NoError(t, err)
	assert.Equal(t, m.Items.Data, raw.Items.Data)
}

func TestFactorStore_EmptyModel(t *testing.T) {
	ctx := context.Background()
	fs := NewFactorStore(NewMemoryArtifactStore(), WithTempDir(t.TempDir()))

	m := &model.LatentFactorModel{Factors: 4, Users: model.NewDense(0, 4), Items: model.NewDense(0, 4)}
	_, err := fs.Persist(ctx, "mem://models/empty", m, nil, nil)
	require.NoError(t, err)

	users, items, err := fs.Load(ctx, "mem://models/empty")
	require.NoError(t, err)
	assert.Equal(t, 0, users.Len())
	assert.Equal(t, 0, items.Len())
	assert.Equal(t, 4, users.Dim())
}

func TestFactorStore_MissingArtifact(t *testing.T) {
	fs := NewFactorStore(NewMemoryArtifactStore(), WithTempDir(t.TempDir()))
	users, items, err := fs.Load(context.Background(), "mem://models/none")
	require.Error(t, err)
	assert.True(t, core.IsNotFound(err))
	assert.Nil(t, users)
	assert.Nil(t, items)
}

func TestFactorStore_MalformedArtifact(t *testing.T) {
	ctx := context.Background()
	artifacts := NewMemoryArtifactStore()
	fs := NewFactorStore(artifacts, WithTempDir(t.TempDir()))

	_, err := fs.Persist(ctx, "mem://models/run", testModel(), []string{"u1", "u2"}, []string{"b1", "b2", "b3"})
	require.NoError(t, err)
	artifacts.PutBytes("mem://models/run/user_factors.parquet", []byte("definitely not parquet"))

	_, _, err = fs.Load(ctx, "mem://models/run")
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))
}

func TestFactorStore_PersistIDMismatch(t *testing.T) {
	fs := NewFactorStore(NewMemoryArtifactStore(), WithTempDir(t.TempDir()))
	_, err := fs.Persist(context.Background(), "mem://m/r", testModel(), []string{"u1"}, []string{"b1", "b2", "b3"})
	assert.True(t, core.IsInvalidInput(err))
}

func TestFactorStore_LatestPointer(t *testing.T) {
	ctx := context.Background()
	fs := NewFactorStore(NewMemoryArtifactStore(), WithTempDir(t.TempDir()))

	_, _, err := (&LatestLoader{Store: fs}).Load(ctx, "mem://models")
	assert.True(t, core.IsNotFound(err), "no pointer yet")

	_, err = fs.Persist(ctx, "mem://models/run-2", testModel(), []string{"u1", "u2"}, []string{"b1", "b2", "b3"})
	require.NoError(t, err)
	require.NoError(t, fs.PublishLatest(ctx, "mem://models", "mem://models/run-2"))

	base, err := fs.ResolveLatest(ctx, "mem://models")
	require.NoError(t, err)
	assert.Equal(t, "mem://models/run-2", base)

	users, items, err := (&LatestLoader{Store: fs}).Load(ctx, "mem://models")
	require.NoError(t, err)
	assert.Equal(t, 2, users.Len())
	assert.Equal(t, 3, items.Len())
}
