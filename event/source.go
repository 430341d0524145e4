// Package event 加载训练所需的行为事件快照。
package event

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/pkg/logging"
)

// Source 一次性读取截至当前的全部事件（批量快照，非流式）。
type Source interface {
	Name() string
	Load(ctx context.Context) ([]core.InteractionEvent, error)
}

// SliceSource 是内存事件源，用于测试/开发。
type SliceSource struct {
	ID     string
	Events []core.InteractionEvent
}

func (s *SliceSource) Name() string {
	if s.ID == "" {
		return "slice"
	}
	return s.ID
}

func (s *SliceSource) Load(context.Context) ([]core.InteractionEvent, error) {
	out := make([]core.InteractionEvent, len(s.Events))
	copy(out, s.Events)
	return out, nil
}

// Concurrent 并发加载多个事件源，按 Sources 顺序拼接结果。
// 任一事件源失败则整体失败：训练不能在缺数据的情况下继续。
type Concurrent struct {
	Sources []Source
}

func (c *Concurrent) Name() string { return "concurrent" }

func (c *Concurrent) Load(ctx context.Context) ([]core.InteractionEvent, error) {
	parts := make([][]core.InteractionEvent, len(c.Sources))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, src := range c.Sources {
		eg.Go(func() error {
			start := time.Now()
			events, err := src.Load(egCtx)
			if err != nil {
				return fmt.Errorf("load events from %s: %w", src.Name(), err)
			}
			logging.Info().
				Str("source", src.Name()).
				Int("events", len(events)).
				Dur("took", time.Since(start)).
				Msg("events loaded")
			parts[i] = events
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]core.InteractionEvent, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

// stringID 把文档中的 ID 字段统一为字符串（上游可能写入数字）
func stringID(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, x != ""
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case int:
		return strconv.Itoa(x), true
	case float64:
		if x != float64(int64(x)) {
			return "", false
		}
		return strconv.FormatInt(int64(x), 10), true
	default:
		return "", false
	}
}
