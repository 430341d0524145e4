package dsl

import (
	"testing"

	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/pkg/utils"
)

func TestProgram_Eval(t *testing.T) {
	item := core.NewItem("b1")
	item.Score = 0.8
	item.Meta["categories"] = []string{"Fiction", "Drama"}
	item.PutLabel(core.LabelRecallSource, utils.Label{Value: "content", Source: "recall"})
	rctx := &core.RecommendContext{UserID: "u1", Scene: "home"}

	tests := []struct {
		expr string
		want bool
	}{
		{`label.recall_source == "content"`, true},
		{`item.score > 0.9`, false},
		{`"Fiction" in item.meta.categories && rctx.scene == "home"`, true},
		{`has(label.merge_source)`, false},
	}
	for _, tt := range tests {
		p, err := Compile(tt.expr)
		if err != nil {
			t.Fatalf("Compile(%q): %v", tt.expr, err)
		}
		got, err := p.Eval(item, rctx)
		if err != nil {
			t.Fatalf("Eval(%q): %v", tt.expr, err)
		}
		if got != tt.want {
			t.Errorf("Eval(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestCompile_Errors(t *testing.T) {
	for _, expr := range []string{`item.score >`, `1 + 2`} {
		if _, err := Compile(expr); err == nil {
			t.Errorf("Compile(%q) should fail", expr)
		}
	}
}
