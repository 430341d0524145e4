// Package model 实现隐式反馈矩阵分解：索引映射、稀疏交互矩阵、ALS 训练与模型序列化。
package model

import "context"

// Factorizer 是矩阵分解训练的最小抽象：输入交互矩阵，输出隐因子模型。
type Factorizer interface {
	Name() string
	Fit(ctx context.Context, m *InteractionMatrix) (*LatentFactorModel, error)
}

// ALS 是目前唯一的实现
var _ Factorizer = (*ALS)(nil)
