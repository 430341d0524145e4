package feature

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osako110/Recommend/core"
)

type mapCatalog map[string]*core.Book

func (m mapCatalog) GetBooks(_ context.Context, ids []string) (map[string]*core.Book, error) {
	out := make(map[string]*core.Book)
	for _, id := range ids {
		if b, ok := m[id]; ok {
			out[id] = b
		}
	}
	return out, nil
}

type downCatalog struct{}

func (downCatalog) GetBooks(context.Context, []string) (map[string]*core.Book, error) {
	return nil, errors.New("catalog unreachable")
}

func TestEnrichNode(t *testing.T) {
	a, b := core.NewItem("b1"), core.NewItem("b2")
	a.Score, b.Score = 0.9, 0.4
	node := &EnrichNode{Catalog: mapCatalog{
		"b1": {ID: "b1", Title: "Dune", Authors: []string{"Frank Herbert"}},
	}}

	out, err := node.Process(context.Background(), &core.RecommendContext{}, []*core.Item{a, b})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "Dune", out[0].Meta[MetaTitle])
	assert.Equal(t, []string{"Frank Herbert"}, out[0].Meta[MetaAuthors])
	assert.Equal(t, 0.9, out[0].Score)
	assert.NotContains(t, out[1].Meta, MetaTitle)
}

func TestEnrichNode_CatalogDown(t *testing.T) {
	items := []*core.Item{core.NewItem("b1")}
	out, err := (&EnrichNode{Catalog: downCatalog{}}).Process(context.Background(), nil, items)
	require.NoError(t, err)
	assert.Equal(t, items, out)
	assert.Empty(t, out[0].Meta)
}

func TestPreferencesText(t *testing.T) {
	tests := []struct {
		name string
		p    Preferences
		want string
	}{
		{
			name: "full",
			p:    Preferences{Genres: []string{"Fantasy", "Mystery"}, Authors: []string{"Tolkien"}, Age: 30, Pincode: "560001"},
			want: "genres: Fantasy, Mystery, authors: Tolkien, age: 30, pincode: 560001",
		},
		{
			name: "empty",
			p:    Preferences{Genres: []string{" "}},
			want: "genres: none, authors: none, age: unknown, pincode: unknown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Text())
		})
	}
	assert.True(t, Preferences{Genres: []string{""}}.Empty())
	assert.False(t, Preferences{Age: 20}.Empty())
}
