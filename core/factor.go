package core

import "fmt"

// FactorTable 是可按 ID 寻址的隐因子表（user_id 或 item_id + F 维向量）。
// 行顺序即训练时的索引顺序；加载后只读，可被并发请求共享。
type FactorTable struct {
	ids   []string
	dim   int
	data  []float64
	index map[string]int
}

// NewFactorTable 用行主序数据构建因子表，len(data) 必须等于 len(ids)*dim，且 ID 不可重复。
func NewFactorTable(ids []string, dim int, data []float64) (*FactorTable, error) {
	if dim < 0 {
		return nil, NewDomainError(ModuleFactor, ErrorCodeInvalidInput, fmt.Sprintf("factor: negative dimension %d", dim))
	}
	if len(data) != len(ids)*dim {
		return nil, NewDomainError(ModuleFactor, ErrorCodeInvalidInput,
			fmt.Sprintf("factor: %d values for %d rows of dimension %d", len(data), len(ids), dim))
	}
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, dup := index[id]; dup {
			return nil, NewDomainError(ModuleFactor, ErrorCodeInvalidInput, fmt.Sprintf("factor: duplicate id %q", id))
		}
		index[id] = i
	}
	return &FactorTable{ids: ids, dim: dim, data: data, index: index}, nil
}

// Len 返回行数
func (t *FactorTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.ids)
}

// Dim 返回向量维度 F
func (t *FactorTable) Dim() int { return t.dim }

// ID 返回第 i 行的外部 ID
func (t *FactorTable) ID(i int) string { return t.ids[i] }

// IDs 返回全部 ID（按行顺序），调用方不得修改。
func (t *FactorTable) IDs() []string { return t.ids }

// Row 返回第 i 行向量，调用方不得修改。
func (t *FactorTable) Row(i int) []float64 {
	return t.data[i*t.dim : (i+1)*t.dim : (i+1)*t.dim]
}

// Vector 按 ID 查找向量。
func (t *FactorTable) Vector(id string) ([]float64, bool) {
	if t == nil {
		return nil, false
	}
	i, ok := t.index[id]
	if !ok {
		return nil, false
	}
	return t.Row(i), true
}
