package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/osako110/Recommend/core"
)

type appendNode struct {
	id  string
	err error
}

func (n *appendNode) Name() string { return "test.append." + n.id }
func (n *appendNode) Kind() Kind   { return KindPostProcess }
func (n *appendNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	if n.err != nil {
		return nil, n.err
	}
	return append(items, core.NewItem(n.id)), nil
}

const testYAML = `
pipeline:
  name: demo
  nodes:
    - type: test.append
      config:
        id: a
    - type: test.append
      config:
        id: b
`

func testFactory() *NodeFactory {
	f := NewNodeFactory()
	f.Register("test.append", func(cfg map[string]any) (Node, error) {
		id, _ := cfg["id"].(string)
		return &appendNode{id: id}, nil
	})
	return f
}

func TestBuildPipelineFromYAML(t *testing.T) {
	cfg, err := ParseYAML([]byte(testYAML))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	p, err := cfg.BuildPipeline(testFactory())
	if err != nil {
		t.Fatalf("BuildPipeline: %v", err)
	}
	if p.Name != "demo" || len(p.Nodes) != 2 {
		t.Fatalf("unexpected pipeline %+v", p)
	}

	out, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "b" {
		t.Errorf("unexpected items %v", out)
	}
}

func TestBuildPipeline_UnknownType(t *testing.T) {
	cfg, err := ParseYAML([]byte("pipeline:\n  nodes:\n    - type: nope\n"))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	if _, err := cfg.BuildPipeline(testFactory()); err == nil {
		t.Fatal("expected error for unknown node type")
	}
}

func TestRun_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{&appendNode{id: "a"}, &appendNode{id: "b", err: boom}}}
	if _, err := p.Run(context.Background(), &core.RecommendContext{}, nil); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}
