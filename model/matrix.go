package model

import (
	"fmt"
	"sort"

	"github.com/osako110/Recommend/core"
)

// InteractionMatrix 是 CSR 格式的稀疏置信度矩阵：行为用户，列为物品，
// 值为 weight × confidence scale。缺失项表示置信度为零，而非负反馈。
type InteractionMatrix struct {
	Rows int
	Cols int

	indptr  []int
	indices []int
	data    []float64
}

// BuildInteractionMatrix 用 IndexMaps 把加权交互转换为稀疏矩阵，每个值统一乘以 scale。
// 同一 (user, item) 出现多次时累加。
func BuildInteractionMatrix(rows []core.WeightedInteraction, maps *IndexMaps, scale float64) (*InteractionMatrix, error) {
	if maps == nil {
		return nil, fmt.Errorf("build matrix: nil index maps")
	}
	nRows, nCols := maps.NumUsers(), maps.NumItems()

	perRow := make([]map[int]float64, nRows)
	for _, r := range rows {
		u, ok := maps.User(r.UserID)
		if !ok {
			return nil, fmt.Errorf("build matrix: user %q not in index", r.UserID)
		}
		i, ok := maps.Item(r.ItemID)
		if !ok {
			return nil, fmt.Errorf("build matrix: item %q not in index", r.ItemID)
		}
		if r.Weight < 0 {
			return nil, fmt.Errorf("build matrix: negative weight %v for (%s,%s)", r.Weight, r.UserID, r.ItemID)
		}
		if perRow[u] == nil {
			perRow[u] = make(map[int]float64)
		}
		perRow[u][i] += r.Weight * scale
	}

	m := &InteractionMatrix{Rows: nRows, Cols: nCols, indptr: make([]int, nRows+1)}
	for u, cols := range perRow {
		idx := make([]int, 0, len(cols))
		for c := range cols {
			idx = append(idx, c)
		}
		sort.Ints(idx)
		for _, c := range idx {
			m.indices = append(m.indices, c)
			m.data = append(m.data, cols[c])
		}
		m.indptr[u+1] = len(m.indices)
	}
	return m, nil
}

// NNZ 非零元素个数
func (m *InteractionMatrix) NNZ() int { return len(m.data) }

// Row 返回第 r 行的列下标与值（共享底层数组）
func (m *InteractionMatrix) Row(r int) ([]int, []float64) {
	lo, hi := m.indptr[r], m.indptr[r+1]
	return m.indices[lo:hi], m.data[lo:hi]
}

// At 返回 (r, c) 处的值，不存在时为 0
func (m *InteractionMatrix) At(r, c int) float64 {
	idx, vals := m.Row(r)
	k := sort.SearchInts(idx, c)
	if k < len(idx) && idx[k] == c {
		return vals[k]
	}
	return 0
}

// Transpose 返回转置矩阵（物品为行），用于按物品求解。
func (m *InteractionMatrix) Transpose() *InteractionMatrix {
	t := &InteractionMatrix{
		Rows:    m.Cols,
		Cols:    m.Rows,
		indptr:  make([]int, m.Cols+1),
		indices: make([]int, len(m.indices)),
		data:    make([]float64, len(m.data)),
	}
	for _, c := range m.indices {
		t.indptr[c+1]++
	}
	for c := 0; c < m.Cols; c++ {
		t.indptr[c+1] += t.indptr[c]
	}
	next := make([]int, m.Cols)
	copy(next, t.indptr[:m.Cols])
	for r := 0; r < m.Rows; r++ {
		idx, vals := m.Row(r)
		for k, c := range idx {
			pos := next[c]
			t.indices[pos] = r
			t.data[pos] = vals[k]
			next[c]++
		}
	}
	return t
}
