package recall

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/store"
)

func newContentIndex(t *testing.T) *store.MemoryVectorService {
	t.Helper()
	svc := store.NewMemoryVectorService()
	ctx := context.Background()
	require.NoError(t, svc.CreateCollection(ctx, &core.VectorCreateCollectionRequest{
		Name: "books", Dimension: 2, Metric: string(core.MetricCosine),
	}))
	require.NoError(t, svc.Upsert(ctx, &core.VectorUpsertRequest{
		Collection: "books",
		Records: []core.VectorRecord{
			{ID: "b1", Vector: []float64{1, 0}},
			{ID: "b2", Vector: []float64{0, 1}},
			{ID: "b3", Vector: []float64{1, 1}},
		},
	}))
	require.NoError(t, svc.Upsert(ctx, &core.VectorUpsertRequest{
		Collection: "user_preferences",
		Records:    []core.VectorRecord{{ID: "u1", Vector: []float64{1, 0.1}}},
	}))
	return svc
}

func TestContentRecall_NearestItems(t *testing.T) {
	r := &ContentRecall{
		VectorService:  newContentIndex(t),
		UserCollection: "user_preferences",
		ItemCollection: "books",
		TopK:           2,
	}

	out, err := r.Recall(context.Background(), &core.RecommendContext{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "b3"}, ids(out))
	assert.Greater(t, out[0].Score, out[1].Score)
	assert.Equal(t, SourceContent, out[0].Source())
}

func TestContentRecall_UnknownUser(t *testing.T) {
	r := &ContentRecall{
		VectorService:  newContentIndex(t),
		UserCollection: "user_preferences",
		ItemCollection: "books",
	}

	out, err := r.Recall(context.Background(), &core.RecommendContext{UserID: "ghost"})
	assert.NoError(t, err)
	assert.Empty(t, out)
}

type failingIndex struct{ err error }

func (f failingIndex) Fetch(context.Context, *core.VectorFetchRequest) (*core.VectorFetchResult, error) {
	return nil, f.err
}
func (f failingIndex) Search(context.Context, *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	return nil, f.err
}
func (f failingIndex) Upsert(context.Context, *core.VectorUpsertRequest) error { return f.err }
func (f failingIndex) Close() error                                            { return nil }

func TestContentRecall_IndexErrors(t *testing.T) {
	notFound := &ContentRecall{VectorService: failingIndex{err: core.NewDomainError(core.ModuleVector, core.ErrorCodeNotFound, "no such user")}}
	out, err := notFound.Recommend(context.Background(), "u1", 5)
	assert.NoError(t, err)
	assert.Empty(t, out)

	down := &ContentRecall{VectorService: failingIndex{err: errors.New("dial tcp: connection refused")}}
	_, err = down.Recommend(context.Background(), "u1", 5)
	assert.Error(t, err)
}
