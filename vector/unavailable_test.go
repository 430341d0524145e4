package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/osako110/Recommend/core"
)

func TestUnavailableService(t *testing.T) {
	dialErr := errors.New("dial tcp 127.0.0.1:19530: connection refused")
	s := NewUnavailableService("milvus", dialErr)
	ctx := context.Background()

	_, err := s.Search(ctx, &core.VectorSearchRequest{Collection: "books", Vector: []float64{1}})
	if !core.IsUnavailable(err) {
		t.Fatalf("Search err = %v, want UNAVAILABLE", err)
	}
	if !errors.Is(err, dialErr) {
		t.Errorf("Search err should wrap the dial error: %v", err)
	}
	if _, err := s.Fetch(ctx, &core.VectorFetchRequest{Collection: "user_preferences", IDs: []string{"u1"}}); !core.IsUnavailable(err) {
		t.Errorf("Fetch err = %v", err)
	}
	if err := s.Upsert(ctx, &core.VectorUpsertRequest{Collection: "books"}); !core.IsUnavailable(err) {
		t.Errorf("Upsert err = %v", err)
	}
	if _, err := core.EnsureCollections(ctx, s, core.VectorCreateCollectionRequest{Name: "books", Dimension: 2}); !core.IsUnavailable(err) {
		t.Errorf("EnsureCollections err = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
