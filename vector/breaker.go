package vector

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/pkg/logging"
	"github.com/osako110/Recommend/pkg/metrics"
)

// BreakerService 用熔断器包装任意 core.VectorService。
// 熔断打开期间请求立即失败（UNAVAILABLE），内容召回据此快速降级。
type BreakerService struct {
	next core.VectorService
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// BreakerSettings 熔断参数
type BreakerSettings struct {
	Name string

	// MinRequests 统计窗口内触发熔断所需的最少请求数
	MinRequests uint32

	// FailureRatio 失败率阈值
	FailureRatio float64

	// Interval 闭合状态下计数清零周期
	Interval time.Duration

	// OpenTimeout 打开状态持续时间，之后进入半开
	OpenTimeout time.Duration
}

// DefaultBreakerSettings 返回默认熔断参数
func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{
		Name:         name,
		MinRequests:  10,
		FailureRatio: 0.6,
		Interval:     time.Minute,
		OpenTimeout:  30 * time.Second,
	}
}

func NewBreakerService(next core.VectorService, s BreakerSettings) *BreakerService {
	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 3,
		Interval:    s.Interval,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= s.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		// 调用方取消与输入错误不计入失败
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || core.IsInvalidInput(err) || core.IsNotFound(err)
		},
	})
	return &BreakerService{next: next, cb: cb, name: s.Name}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// State 返回当前熔断状态
func (b *BreakerService) State() gobreaker.State { return b.cb.State() }

func (b *BreakerService) execute(fn func() (any, error)) (any, error) {
	res, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, core.WrapDomainError(core.ModuleVector, core.ErrorCodeUnavailable, "vector index circuit open: "+b.name, err)
	}
	return res, err
}

func (b *BreakerService) Fetch(ctx context.Context, req *core.VectorFetchRequest) (*core.VectorFetchResult, error) {
	res, err := b.execute(func() (any, error) { return b.next.Fetch(ctx, req) })
	if err != nil {
		return nil, err
	}
	return res.(*core.VectorFetchResult), nil
}

func (b *BreakerService) Search(ctx context.Context, req *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	res, err := b.execute(func() (any, error) { return b.next.Search(ctx, req) })
	if err != nil {
		return nil, err
	}
	return res.(*core.VectorSearchResult), nil
}

func (b *BreakerService) Upsert(ctx context.Context, req *core.VectorUpsertRequest) error {
	_, err := b.execute(func() (any, error) { return nil, b.next.Upsert(ctx, req) })
	return err
}

func (b *BreakerService) Close() error { return b.next.Close() }

var _ core.VectorService = (*BreakerService)(nil)
