package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osako110/Recommend/catalog"
	"github.com/osako110/Recommend/config"
	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/event"
	"github.com/osako110/Recommend/feature"
	"github.com/osako110/Recommend/model"
	"github.com/osako110/Recommend/recall"
	"github.com/osako110/Recommend/store"
	"github.com/osako110/Recommend/vector"
)

const artifactRoot = "mem://models/recommend"

func testEvents() []core.InteractionEvent {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []core.InteractionEvent{
		{UserID: "u1", ItemID: "b1", EventType: core.EventRead, Timestamp: ts},
		{UserID: "u1", ItemID: "b2", EventType: core.EventPageTurn, Timestamp: ts},
		{UserID: "u2", ItemID: "b2", EventType: core.EventReview, Timestamp: ts},
		{UserID: "u2", ItemID: "b3", EventType: core.EventRead, Timestamp: ts},
		{UserID: "u3", ItemID: "b1", EventType: core.EventBookmarkAdd, Timestamp: ts},
		{UserID: "u3", EventType: core.EventLogin, Timestamp: ts},
	}
}

func testEncoder() *model.Word2VecModel {
	return model.NewWord2VecModel(map[string][]float64{
		"fantasy": {1, 0},
		"history": {0, 1},
		"tolkien": {1, 0.2},
	}, 2)
}

func testDeps(t *testing.T) *Deps {
	t.Helper()
	cfg := config.Default()
	cfg.Artifacts.URI = artifactRoot

	router := store.NewArtifactRouter().Register("mem", store.NewMemoryArtifactStore())
	vectors := store.NewMemoryVectorService(store.WithTextEncoder(testEncoder()))
	ctx := context.Background()
	require.NoError(t, vectors.Upsert(ctx, &core.VectorUpsertRequest{
		Collection: cfg.Vector.ItemCollection,
		Records: []core.VectorRecord{
			{ID: "b1", Vector: []float64{1, 0}},
			{ID: "b2", Vector: []float64{0, 1}},
			{ID: "b3", Vector: []float64{0.7, 0.7}},
		},
	}))

	return &Deps{
		Config:    cfg,
		Artifacts: router,
		Factors:   store.NewFactorStore(router, store.WithTempDir(t.TempDir())),
		Vectors:   vectors,
		Cache:     store.NewMemoryStore(),
		Catalog: catalog.NewMemoryCatalog(
			&core.Book{ID: "b1", Title: "The Hobbit", Authors: []string{"J.R.R. Tolkien"}},
			&core.Book{ID: "b2", Title: "SPQR", Authors: []string{"Mary Beard"}},
		),
	}
}

func testTrainer(d *Deps, events []core.InteractionEvent) *Trainer {
	params := model.DefaultHyperparams()
	params.Factors = 4
	params.Iterations = 5
	params.Workers = 1
	return &Trainer{
		Events:        &event.SliceSource{ID: "test", Events: events},
		Builder:       feature.NewBuilder(),
		Factorizer:    model.NewALS(params),
		Factors:       d.Factors,
		ArtifactRoot:  artifactRoot,
		PublishLatest: true,
	}
}

type failingSource struct{}

func (failingSource) Name() string { return "failing" }
func (failingSource) Load(context.Context) ([]core.InteractionEvent, error) {
	return nil, errors.New("mongo down")
}

func TestNewRunID(t *testing.T) {
	id := NewRunID(time.Date(2024, 5, 1, 12, 30, 0, 0, time.FixedZone("X", 3600)))
	assert.True(t, strings.HasPrefix(id, "20240501T113000Z-"), id)
	assert.Len(t, id, len("20240501T113000Z-")+8)
	assert.NotEqual(t, id, NewRunID(time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)))
}

func TestTrainer_Run(t *testing.T) {
	d := testDeps(t)
	ctx := context.Background()

	report, err := testTrainer(d, testEvents()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, report.Events)
	assert.Equal(t, 1, report.Dropped)
	assert.Equal(t, 5, report.Interactions)
	assert.Equal(t, 3, report.Users)
	assert.Equal(t, 3, report.Items)
	assert.Equal(t, 4, report.Factors)
	require.NotNil(t, report.Artifacts)

	base, err := d.Factors.ResolveLatest(ctx, artifactRoot)
	require.NoError(t, err)
	assert.Equal(t, store.JoinURI(artifactRoot, report.RunID), base)

	users, items, err := d.Factors.Load(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2", "u3"}, users.IDs())
	assert.Equal(t, []string{"b1", "b2", "b3"}, items.IDs())
	assert.Equal(t, 4, users.Dim())
}

func TestTrainer_EmptyEvents(t *testing.T) {
	d := testDeps(t)
	ctx := context.Background()

	report, err := testTrainer(d, nil).Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Users)
	assert.Zero(t, report.Items)

	users, items, err := (&store.LatestLoader{Store: d.Factors}).Load(ctx, artifactRoot)
	require.NoError(t, err)
	assert.Zero(t, users.Len())
	assert.Zero(t, items.Len())
}

func TestTrainer_LoadFailure(t *testing.T) {
	d := testDeps(t)
	tr := testTrainer(d, nil)
	tr.Events = failingSource{}

	_, err := tr.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load events")

	_, err = d.Factors.ResolveLatest(context.Background(), artifactRoot)
	assert.Error(t, err, "a failed run must not publish a pointer")
}

func TestPreferenceIndexer(t *testing.T) {
	d := testDeps(t)
	ctx := context.Background()
	idx := &PreferenceIndexer{Vectors: d.Vectors, Collection: d.Config.Vector.UserCollection}

	require.NoError(t, idx.Index(ctx, "u1", feature.Preferences{Genres: []string{"fantasy"}}))
	got, err := d.Vectors.Fetch(ctx, &core.VectorFetchRequest{
		Collection: d.Config.Vector.UserCollection,
		IDs:        []string{"u1"},
	})
	require.NoError(t, err)
	require.Contains(t, got.Vectors, "u1")
	assert.InDelta(t, 1.0, got.Vectors["u1"][0], 1e-9)

	err = idx.Index(ctx, "", feature.Preferences{})
	assert.True(t, core.IsInvalidInput(err))
}

func trainedServing(t *testing.T) *Serving {
	t.Helper()
	d := testDeps(t)
	ctx := context.Background()
	_, err := testTrainer(d, testEvents()).Run(ctx)
	require.NoError(t, err)

	idx := &PreferenceIndexer{Vectors: d.Vectors, Collection: d.Config.Vector.UserCollection}
	require.NoError(t, idx.Index(ctx, "u1", feature.Preferences{Genres: []string{"fantasy"}, Authors: []string{"tolkien"}}))
	s := NewServing(d)
	require.NoError(t, s.Factors.Reload(ctx))
	return s
}

func TestRecommender_Combined(t *testing.T) {
	s := trainedServing(t)
	r, err := s.Recommender()
	require.NoError(t, err)

	set, err := r.Recommend(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", set.UserID)
	assert.NotEmpty(t, set.RequestID)
	require.NotEmpty(t, set.Items)
	assert.LessOrEqual(t, len(set.Items), 50)

	seen := map[string]bool{}
	for _, it := range set.Items {
		assert.False(t, seen[it.ItemID], "duplicate %s", it.ItemID)
		seen[it.ItemID] = true
		assert.Contains(t, []string{recall.SourceALS, recall.SourceContent}, it.Source)
		if it.ItemID == "b1" {
			assert.Equal(t, "The Hobbit", it.Title)
		}
	}
	assert.True(t, seen["b1"])
}

func TestRecommender_UnknownUserIsEmpty(t *testing.T) {
	s := trainedServing(t)
	r, err := s.Recommender()
	require.NoError(t, err)

	set, err := r.Recommend(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, set.Items)
}

func TestRecommender_SingleSource(t *testing.T) {
	s := trainedServing(t)
	r, err := s.Recommender()
	require.NoError(t, err)
	ctx := context.Background()

	collab, err := r.Collaborative(ctx, "u2", 2)
	require.NoError(t, err)
	require.Len(t, collab.Items, 2)
	for _, it := range collab.Items {
		assert.Equal(t, recall.SourceALS, it.Source)
	}
	assert.GreaterOrEqual(t, collab.Items[0].Score, collab.Items[1].Score)

	content, err := r.Content(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, content.Items, 2)
	assert.Equal(t, "b1", content.Items[0].ItemID)
	assert.Equal(t, "The Hobbit", content.Items[0].Title)

	cold, err := r.Content(ctx, "u2", 2)
	require.NoError(t, err)
	assert.Empty(t, cold.Items)
}

type downIndex struct{ core.VectorService }

func (downIndex) Fetch(context.Context, *core.VectorFetchRequest) (*core.VectorFetchResult, error) {
	return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "index down")
}

func TestRecommender_BothSourcesFail(t *testing.T) {
	d := testDeps(t)
	d.Vectors = downIndex{}
	r, err := NewServing(d).Recommender()
	require.NoError(t, err)

	set, err := r.Recommend(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, set.Items)
}

func TestServing_PipelineFile(t *testing.T) {
	s := trainedServing(t)
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pipeline:
  name: test
  nodes:
    - type: recall.hybrid
      config:
        cap: 2
        seed: 7
        timeout: 500ms
    - type: filter.expr
      config:
        expr: 'item.id == "b3"'
    - type: postprocess.enrich
`), 0o644))
	s.Config.PipelineFile = path

	p, err := s.Pipeline()
	require.NoError(t, err)
	assert.Equal(t, "test", p.Name)
	require.Len(t, p.Nodes, 3)

	r, err := s.Recommender()
	require.NoError(t, err)
	set, err := r.Recommend(context.Background(), "u1")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(set.Items), 2)
	for _, it := range set.Items {
		assert.NotEqual(t, "b3", it.ItemID)
	}
}

func TestServing_PipelineErrors(t *testing.T) {
	s := trainedServing(t)
	f := s.NodeFactory()

	_, err := f.Build("recall.unknown", nil)
	assert.Error(t, err)

	_, err = f.Build("filter.expr", map[string]any{})
	assert.Error(t, err)

	_, err = f.Build("filter.expr", map[string]any{"expr": "item.score >"})
	assert.True(t, core.IsInvalidInput(err))
}

func TestNewArtifactRouter(t *testing.T) {
	ctx := context.Background()

	_, err := NewArtifactRouter(ctx, config.ArtifactsConfig{URI: "file:///tmp/artifacts"})
	require.NoError(t, err)

	_, err = NewArtifactRouter(ctx, config.ArtifactsConfig{URI: "minio://models/run"})
	assert.Error(t, err, "minio scheme requires an endpoint")

	_, err = NewArtifactRouter(ctx, config.ArtifactsConfig{URI: "s3://"})
	assert.Error(t, err)
}

func TestNewVectorService(t *testing.T) {
	ctx := context.Background()

	svc, err := NewVectorService(ctx, config.VectorConfig{Backend: "memory", Breaker: true})
	require.NoError(t, err)
	assert.IsType(t, &vector.BreakerService{}, svc)

	_, err = NewVectorService(ctx, config.VectorConfig{Backend: "faiss"})
	assert.True(t, core.IsNotSupported(err))

	_, err = NewVectorService(ctx, config.VectorConfig{Backend: "memory", EncoderFile: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}

func TestDeps_EnsureCollections(t *testing.T) {
	d := testDeps(t)
	admin := store.NewMemoryVectorService()
	d.VectorAdmin = admin
	d.Config.Vector.Dimension = 2
	ctx := context.Background()

	require.NoError(t, d.EnsureCollections(ctx))
	for _, name := range []string{d.Config.Vector.UserCollection, d.Config.Vector.ItemCollection} {
		ok, err := admin.HasCollection(ctx, name)
		require.NoError(t, err)
		assert.True(t, ok, name)
	}
	require.NoError(t, d.EnsureCollections(ctx), "existing collections are left alone")

	d.Config.Vector.Dimension = 0
	d.VectorAdmin = store.NewMemoryVectorService()
	assert.True(t, core.IsInvalidInput(d.EnsureCollections(ctx)))
}

func TestNewCache_DefaultsToMemory(t *testing.T) {
	c, err := NewCache(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Equal(t, "memory", c.Name())
}

func TestNewDeps_DegradesUnreachableBackends(t *testing.T) {
	cfg := config.Default()
	cfg.Artifacts.URI = artifactRoot
	cfg.Vector.EncoderFile = filepath.Join(t.TempDir(), "missing.vec")
	cfg.Vector.Dimension = 2
	cfg.Redis.Addr = "127.0.0.1:1"
	ctx := context.Background()

	d, err := NewDeps(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	assert.Equal(t, "memory", d.Cache.Name())
	assert.IsType(t, &vector.UnavailableService{}, d.VectorAdmin)
	assert.True(t, core.IsUnavailable(d.EnsureCollections(ctx)))

	_, err = testTrainer(d, testEvents()).Run(ctx)
	require.NoError(t, err)

	r, err := NewServing(d).Recommender()
	require.NoError(t, err)
	set, err := r.Recommend(ctx, "u1")
	require.NoError(t, err)
	require.NotEmpty(t, set.Items)
	for _, it := range set.Items {
		assert.Equal(t, recall.SourceALS, it.Source)
	}

	_, err = r.Content(ctx, "u1", 5)
	assert.True(t, core.IsUnavailable(err), "content-only mode reports the outage")
}
