package model

// Dense 是行主序稠密矩阵，用于存放 user/item 隐因子。
type Dense struct {
	Rows int
	Cols int
	Data []float64
}

// NewDense 创建 rows×cols 的零矩阵
func NewDense(rows, cols int) *Dense {
	return &Dense{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// Row 返回第 i 行（共享底层数组）
func (d *Dense) Row(i int) []float64 {
	return d.Data[i*d.Cols : (i+1)*d.Cols : (i+1)*d.Cols]
}

// Gram 计算 DᵀD（cols×cols，行主序）
func (d *Dense) Gram() []float64 {
	k := d.Cols
	g := make([]float64, k*k)
	for i := 0; i < d.Rows; i++ {
		row := d.Row(i)
		for a := 0; a < k; a++ {
			va := row[a]
			if va == 0 {
				continue
			}
			for b := a; b < k; b++ {
				g[a*k+b] += va * row[b]
			}
		}
	}
	for a := 0; a < k; a++ {
		for b := 0; b < a; b++ {
			g[a*k+b] = g[b*k+a]
		}
	}
	return g
}

// Dot 计算两个等长向量的内积
func Dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
