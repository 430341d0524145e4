package recall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/osako110/Recommend/core"
)

type staticSource struct {
	name  string
	items []*core.Item
	err   error
	delay time.Duration
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Recall(ctx context.Context, _ *core.RecommendContext) ([]*core.Item, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.items, s.err
}

func hybridFanout(collab, content Source) *Fanout {
	return &Fanout{
		Sources: []Source{collab, content},
		Timeout: 50 * time.Millisecond,
		Merger:  &HybridMergeStrategy{Merger: NewHybridMerger()},
	}
}

func TestFanout_HybridMerge(t *testing.T) {
	n := hybridFanout(
		&staticSource{name: SourceALS, items: items("b1", 0.9, "b2", 0.5)},
		&staticSource{name: SourceContent, items: items("b2", 0.8, "b3", 0.7)},
	)

	out, err := n.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	got := scoresByID(out)
	want := map[string]float64{"b1": 0.9, "b2": 0.8, "b3": 0.7}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for id, s := range want {
		if got[id] != s {
			t.Errorf("%s = %v, want %v", id, got[id], s)
		}
	}
}

func TestFanout_Degradation(t *testing.T) {
	collab := items("b1", 0.9, "b2", 0.5)
	content := items("b3", 0.7)

	tests := []struct {
		name    string
		collab  Source
		content Source
		want    []string
	}{
		{
			name:    "content error",
			collab:  &staticSource{name: SourceALS, items: collab},
			content: &staticSource{name: SourceContent, err: errors.New("index down")},
			want:    []string{"b1", "b2"},
		},
		{
			name:    "collab timeout",
			collab:  &staticSource{name: SourceALS, items: collab, delay: time.Second},
			content: &staticSource{name: SourceContent, items: content},
			want:    []string{"b3"},
		},
		{
			name:    "both fail",
			collab:  &staticSource{name: SourceALS, err: core.NewDomainError(core.ModuleArtifact, core.ErrorCodeUnavailable, "s3")},
			content: &staticSource{name: SourceContent, delay: time.Second},
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := hybridFanout(tt.collab, tt.content).Process(context.Background(), &core.RecommendContext{UserID: "u1"}, nil)
			if err != nil {
				t.Fatalf("Process must not fail: %v", err)
			}
			got := scoresByID(out)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", ids(out), tt.want)
			}
			for _, id := range tt.want {
				if _, ok := got[id]; !ok {
					t.Errorf("missing %s in %v", id, ids(out))
				}
			}
		})
	}
}

func TestFanout_CollectKeepsSourceOrder(t *testing.T) {
	n := &Fanout{
		Sources: []Source{
			&staticSource{name: "slow", items: items("a", 1.0), delay: 20 * time.Millisecond},
			&staticSource{name: "fast", items: items("b", 1.0)},
		},
		MaxConcurrent: 1,
	}
	res := n.Collect(context.Background(), &core.RecommendContext{})
	if res[0].Source != "slow" || res[1].Source != "fast" {
		t.Fatalf("unexpected order: %+v", res)
	}
	if res[0].Items[0].Source() != "slow" {
		t.Errorf("recall_source label = %q", res[0].Items[0].Source())
	}
}

func TestFirstMergeStrategy_Dedup(t *testing.T) {
	results := []SourceResult{
		{Source: "a", Items: items("x", 1.0, "y", 0.5)},
		{Source: "b", Items: items("y", 0.9, "z", 0.1)},
	}
	out := FirstMergeStrategy{}.Merge(context.Background(), nil, results)
	if got := ids(out); len(got) != 3 || got[1] != "y" || out[1].Score != 0.5 {
		t.Errorf("got %v", got)
	}
}
