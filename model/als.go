package model

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/pkg/logging"
)

// Hyperparams 是 ALS 训练超参数。
type Hyperparams struct {
	// Factors 隐因子维度 F
	Factors int

	// Regularization L2 正则系数 λ
	Regularization float64

	// ConfidenceScale 权重到置信度的统一放大系数
	ConfidenceScale float64

	// Iterations 固定迭代轮数，不做收敛判断
	Iterations int

	// Workers 并行求解的协程数，<=0 时使用 CPU 数
	Workers int

	// Seed 物品因子初始化的随机种子
	Seed uint64
}

// DefaultHyperparams 返回默认超参数：F=64，λ=0.1，scale=40，20 轮。
func DefaultHyperparams() Hyperparams {
	return Hyperparams{
		Factors:         64,
		Regularization:  0.1,
		ConfidenceScale: 40.0,
		Iterations:      20,
		Seed:            42,
	}
}

// Validate 校验超参数
func (h Hyperparams) Validate() error {
	switch {
	case h.Factors <= 0:
		return fmt.Errorf("factors must be positive, got %d", h.Factors)
	case h.Regularization < 0:
		return fmt.Errorf("regularization must be non-negative, got %v", h.Regularization)
	case h.ConfidenceScale <= 0:
		return fmt.Errorf("confidence scale must be positive, got %v", h.ConfidenceScale)
	case h.Iterations < 0:
		return fmt.Errorf("iterations must be non-negative, got %d", h.Iterations)
	}
	return nil
}

// ALS 是隐式反馈交替最小二乘（Hu, Koren & Volinsky 2008）。
//
// 每轮先固定物品因子 Y 求解所有用户：
//
//	(YᵀY + λI + Σ_i (c_ui − 1) y_i y_iᵀ) x_u = Σ_i c_ui y_i
//
// 再对称地固定 X 求解物品。行之间互相独立，按 Workers 分块并行。
type ALS struct {
	params Hyperparams
}

// NewALS 创建 ALS 训练器
func NewALS(params Hyperparams) *ALS {
	if params.Workers <= 0 {
		params.Workers = runtime.NumCPU()
	}
	return &ALS{params: params}
}

func (a *ALS) Name() string { return "als" }

// Params 返回生效的超参数
func (a *ALS) Params() Hyperparams { return a.params }

// BuildMatrix 按当前 ConfidenceScale 构建交互矩阵
func (a *ALS) BuildMatrix(rows []core.WeightedInteraction, maps *IndexMaps) (*InteractionMatrix, error) {
	return BuildInteractionMatrix(rows, maps, a.params.ConfidenceScale)
}

// Fit 训练并返回隐因子模型。矩阵行或列为 0 时直接返回对应形状的空模型。
// 任何一轮之后出现 NaN/Inf 视为数值失败，整次训练报错。
func (a *ALS) Fit(ctx context.Context, m *InteractionMatrix) (*LatentFactorModel, error) {
	if err := a.params.Validate(); err != nil {
		return nil, core.WrapDomainError(core.ModuleTrain, core.ErrorCodeInvalidInput, "als: invalid hyperparameters", err)
	}
	f := a.params.Factors
	model := &LatentFactorModel{
		Factors:   f,
		Users:     NewDense(m.Rows, f),
		Items:     NewDense(m.Cols, f),
		Params:    a.params,
		TrainedAt: time.Now().UTC(),
	}
	if m.Rows == 0 || m.Cols == 0 {
		return model, nil
	}

	rng := rand.New(rand.NewPCG(a.params.Seed, a.params.Seed^0x9e3779b97f4a7c15))
	for i := range model.Items.Data {
		model.Items.Data[i] = rng.NormFloat64() * 0.01
	}

	mt := m.Transpose()
	log := logging.WithComponent("als")
	for it := 0; it < a.params.Iterations; it++ {
		start := time.Now()
		if err := a.sweep(ctx, m, model.Items, model.Users); err != nil {
			return nil, fmt.Errorf("als iteration %d users: %w", it+1, err)
		}
		if err := a.sweep(ctx, mt, model.Users, model.Items); err != nil {
			return nil, fmt.Errorf("als iteration %d items: %w", it+1, err)
		}
		model.Loss = a.loss(m, model)
		if math.IsNaN(model.Loss) || math.IsInf(model.Loss, 0) {
			return nil, core.NewDomainError(core.ModuleTrain, core.ErrorCodeInternalError,
				fmt.Sprintf("als: non-finite loss after iteration %d", it+1))
		}
		log.Debug().
			Int("iteration", it+1).
			Float64("loss", model.Loss).
			Dur("elapsed", time.Since(start)).
			Msg("als iteration finished")
	}

	if !finite(model.Users.Data) || !finite(model.Items.Data) {
		return nil, core.NewDomainError(core.ModuleTrain, core.ErrorCodeInternalError, "als: non-finite factors")
	}
	return model, nil
}

// sweep 固定 fixed，求解 m 的每一行写入 out。
func (a *ALS) sweep(ctx context.Context, m *InteractionMatrix, fixed, out *Dense) error {
	f := fixed.Cols
	gram := fixed.Gram()
	lambda := a.params.Regularization

	workers := a.params.Workers
	if workers > m.Rows {
		workers = m.Rows
	}
	chunk := (m.Rows + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < m.Rows; lo += chunk {
		hi := min(lo+chunk, m.Rows)
		g.Go(func() error {
			A := make([]float64, f*f)
			L := make([]float64, f*f)
			b := make([]float64, f)
			z := make([]float64, f)
			for r := lo; r < hi; r++ {
				if (r-lo)%256 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				x := out.Row(r)
				idx, conf := m.Row(r)
				if len(idx) == 0 {
					clear(x)
					continue
				}

				copy(A, gram)
				for d := 0; d < f; d++ {
					A[d*f+d] += lambda
				}
				clear(b)
				for k, c := range idx {
					y := fixed.Row(c)
					cu := conf[k]
					cm1 := cu - 1
					for p := 0; p < f; p++ {
						yp := y[p]
						if cm1 != 0 && yp != 0 {
							w := cm1 * yp
							for q := p; q < f; q++ {
								A[p*f+q] += w * y[q]
							}
						}
						b[p] += cu * yp
					}
				}
				for p := 0; p < f; p++ {
					for q := 0; q < p; q++ {
						A[p*f+q] = A[q*f+p]
					}
				}
				choleskySolve(A, b, L, z, x, f)
			}
			return nil
		})
	}
	return g.Wait()
}

// choleskySolve 求解 A x = b（A 对称正定，行主序 n×n）。
// 非正定时对角元截断为极小正数，后续由 finite 检查兜底。
func choleskySolve(A, b, L, z, x []float64, n int) {
	clear(L)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := A[i*n+j]
			for k := 0; k < j; k++ {
				sum -= L[i*n+k] * L[j*n+k]
			}
			if i == j {
				if sum <= 0 {
					sum = 1e-10
				}
				L[i*n+i] = math.Sqrt(sum)
			} else {
				L[i*n+j] = sum / L[j*n+j]
			}
		}
	}
	for i := 0; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= L[i*n+j] * z[j]
		}
		z[i] = sum / L[i*n+i]
	}
	for i := n - 1; i >= 0; i-- {
		sum := z[i]
		for j := i + 1; j < n; j++ {
			sum -= L[j*n+i] * x[j]
		}
		x[i] = sum / L[i*n+i]
	}
}

// loss 计算加权平方误差 + 正则项，按总置信度归一化。
func (a *ALS) loss(m *InteractionMatrix, model *LatentFactorModel) float64 {
	f := model.Factors
	gram := model.Items.Gram()
	lambda := a.params.Regularization

	var loss, total float64
	tmp := make([]float64, f)
	for u := 0; u < m.Rows; u++ {
		x := model.Users.Row(u)
		for p := 0; p < f; p++ {
			tmp[p] = Dot(gram[p*f:(p+1)*f], x)
		}
		loss += Dot(x, tmp)

		idx, conf := m.Row(u)
		for k, i := range idx {
			s := Dot(x, model.Items.Row(i))
			c := conf[k]
			loss += c*(1-s)*(1-s) - s*s
			total += c
		}
		loss += lambda * Dot(x, x)
	}
	for i := 0; i < m.Cols; i++ {
		y := model.Items.Row(i)
		loss += lambda * Dot(y, y)
	}
	total += float64(m.Rows*m.Cols - m.NNZ())
	if total == 0 {
		return 0
	}
	return loss / total
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
