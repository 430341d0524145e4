package model

import (
	"testing"

	"github.com/osako110/Recommend/core"
)

func TestBuildInteractionMatrix(t *testing.T) {
	maps, err := NewIndexMaps([]string{"u1", "u2"}, []string{"b1", "b2", "b3"})
	if err != nil {
		t.Fatalf("NewIndexMaps: %v", err)
	}
	rows := []core.WeightedInteraction{
		{UserID: "u1", ItemID: "b3", Weight: 1},
		{UserID: "u1", ItemID: "b1", Weight: 5},
		{UserID: "u2", ItemID: "b2", Weight: 2},
	}
	m, err := BuildInteractionMatrix(rows, maps, 40)
	if err != nil {
		t.Fatalf("BuildInteractionMatrix: %v", err)
	}
	if m.Rows != 2 || m.Cols != 3 || m.NNZ() != 3 {
		t.Fatalf("shape = %dx%d nnz=%d", m.Rows, m.Cols, m.NNZ())
	}
	cases := []struct {
		r, c int
		want float64
	}{
		{0, 0, 200}, {0, 2, 40}, {1, 1, 80}, {0, 1, 0}, {1, 0, 0},
	}
	for _, tc := range cases {
		if got := m.At(tc.r, tc.c); got != tc.want {
			t.Errorf("At(%d,%d) = %v, want %v", tc.r, tc.c, got, tc.want)
		}
	}

	idx, _ := m.Row(0)
	if len(idx) != 2 || idx[0] != 0 || idx[1] != 2 {
		t.Errorf("row 0 columns = %v, want sorted [0 2]", idx)
	}

	tr := m.Transpose()
	if tr.Rows != 3 || tr.Cols != 2 {
		t.Fatalf("transpose shape = %dx%d", tr.Rows, tr.Cols)
	}
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			if m.At(r, c) != tr.At(c, r) {
				t.Errorf("transpose mismatch at (%d,%d)", r, c)
			}
		}
	}
}

func TestBuildInteractionMatrix_Errors(t *testing.T) {
	maps, _ := NewIndexMaps([]string{"u1"}, []string{"b1"})
	tests := []struct {
		name string
		rows []core.WeightedInteraction
	}{
		{"unknown user", []core.WeightedInteraction{{UserID: "u9", ItemID: "b1", Weight: 1}}},
		{"unknown item", []core.WeightedInteraction{{UserID: "u1", ItemID: "b9", Weight: 1}}},
		{"negative weight", []core.WeightedInteraction{{UserID: "u1", ItemID: "b1", Weight: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildInteractionMatrix(tt.rows, maps, 1); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewIndexMaps_Duplicate(t *testing.T) {
	if _, err := NewIndexMaps([]string{"u1", "u1"}, nil); err == nil {
		t.Error("duplicate user id should fail")
	}
}
