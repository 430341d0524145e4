package recall

import (
	"context"
	"errors"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/pipeline"
	"github.com/osako110/Recommend/pkg/logging"
	"github.com/osako110/Recommend/pkg/metrics"
	"github.com/osako110/Recommend/pkg/utils"
)

// SourceResult 是单路召回的结果。Err 非空时 Items 为空。
type SourceResult struct {
	Source string
	Items  []*core.Item
	Err    error
}

// Fanout 是一个 Recall Node：并发执行多个召回源，全部返回后交给 Merger 合并。
// 单路超时或失败只影响该路（降级为空列表），不会中断其他召回源，也不会向调用方返回错误。
type Fanout struct {
	Sources       []Source
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
	Merger        MergeStrategy // 为空时使用 FirstMergeStrategy
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	results := n.Collect(ctx, rctx)

	merger := n.Merger
	if merger == nil {
		merger = &FirstMergeStrategy{}
	}
	out := merger.Merge(ctx, rctx, results)
	metrics.MergedSetSize.Observe(float64(len(out)))
	return out, nil
}

// Collect 并发执行所有召回源并按 Sources 顺序返回每一路结果（fan-out / fan-in）。
func (n *Fanout) Collect(ctx context.Context, rctx *core.RecommendContext) []SourceResult {
	results := make([]SourceResult, len(n.Sources))

	eg := new(errgroup.Group)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		priority := i // 优先级（索引越小优先级越高）
		eg.Go(func() error {
			results[priority] = n.run(ctx, rctx, src, priority)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func (n *Fanout) run(ctx context.Context, rctx *core.RecommendContext, s Source, priority int) SourceResult {
	name := s.Name()
	res := SourceResult{Source: name}

	// 超时控制
	recallCtx := ctx
	if n.Timeout > 0 {
		var cancel context.CancelFunc
		recallCtx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}

	start := time.Now()
	items, err := s.Recall(recallCtx, rctx)
	metrics.RecallDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err == nil && recallCtx.Err() != nil {
		err = recallCtx.Err()
	}
	if err != nil {
		reason := failureReason(err)
		metrics.RecallFailures.WithLabelValues(name, reason).Inc()
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("source", name).
			Str("reason", reason).
			Msg("recall source degraded to empty result")
		res.Err = err
		return res
	}

	metrics.RecallCandidates.WithLabelValues(name).Observe(float64(len(items)))

	// 记录召回来源 label，方便 explain / 观测
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if it.Source() == "" {
			it.PutLabel(core.LabelRecallSource, utils.Label{Value: name, Source: "recall"})
		}
		it.PutLabel("recall_priority", utils.Label{Value: strconv.Itoa(priority), Source: "recall"})
		out = append(out, it)
	}
	res.Items = out
	return res
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case core.IsUnavailable(err):
		return "unavailable"
	default:
		return "error"
	}
}
