// Package service 组装离线训练任务与在线推荐服务。
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/osako110/Recommend/event"
	"github.com/osako110/Recommend/feature"
	"github.com/osako110/Recommend/model"
	"github.com/osako110/Recommend/pkg/logging"
	"github.com/osako110/Recommend/pkg/metrics"
	"github.com/osako110/Recommend/store"
)

// Trainer 是离线训练任务：加载事件 → 构建加权交互 → ALS 分解 → 持久化因子表。
//
// 同一产物根路径上同时只能有一个训练任务运行，由外部调度保证。
// 任何阶段失败都使整次任务失败，没有部分重试。
type Trainer struct {
	Events     event.Source
	Builder    *feature.Builder
	Factorizer *model.ALS
	Factors    *store.FactorStore

	// ArtifactRoot 产物根路径，每次训练写入 {ArtifactRoot}/{RunID}
	ArtifactRoot string

	// PublishLatest 成功后更新根路径下的 LATEST 指针
	PublishLatest bool

	// now 便于测试注入时间
	now func() time.Time
}

// TrainingReport 是一次训练的结果摘要
type TrainingReport struct {
	RunID        string                   `json:"run_id"`
	Events       int                      `json:"events"`
	Dropped      int                      `json:"dropped"`
	Interactions int                      `json:"interactions"`
	Users        int                      `json:"users"`
	Items        int                      `json:"items"`
	Factors      int                      `json:"factors"`
	Loss         float64                  `json:"loss"`
	Artifacts    *store.ArtifactLocations `json:"artifacts"`
	Duration     time.Duration            `json:"duration"`
}

// NewRunID 生成训练批次 ID：UTC 时间戳加随机后缀，按字典序即时间序。
func NewRunID(t time.Time) string {
	return t.UTC().Format("20060102T150405Z") + "-" + uuid.NewString()[:8]
}

func (t *Trainer) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

// Run 执行一次完整训练
func (t *Trainer) Run(ctx context.Context) (*TrainingReport, error) {
	start := t.clock()
	report := &TrainingReport{RunID: NewRunID(start)}
	log := logging.WithComponent("trainer").With().Str("run_id", report.RunID).Logger()

	builder := t.Builder
	if builder == nil {
		builder = feature.NewBuilder()
	}

	// 1. 加载事件
	stage := time.Now()
	events, err := t.Events.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	observeStage("load", stage)
	report.Events = len(events)

	// 2. 构建加权交互与 ID 映射
	stage = time.Now()
	set := builder.Build(events)
	maps, err := model.NewIndexMaps(set.UserIDs, set.ItemIDs)
	if err != nil {
		return nil, fmt.Errorf("index maps: %w", err)
	}
	matrix, err := t.Factorizer.BuildMatrix(set.Interactions, maps)
	if err != nil {
		return nil, fmt.Errorf("build matrix: %w", err)
	}
	observeStage("build", stage)
	report.Dropped = set.Dropped
	report.Interactions = len(set.Interactions)
	report.Users = len(maps.UserIDs)
	report.Items = len(maps.ItemIDs)
	metrics.TrainingMatrixSize.WithLabelValues("users").Set(float64(report.Users))
	metrics.TrainingMatrixSize.WithLabelValues("items").Set(float64(report.Items))
	metrics.TrainingMatrixSize.WithLabelValues("interactions").Set(float64(report.Interactions))

	log.Info().
		Int("events", report.Events).
		Int("dropped", report.Dropped).
		Int("users", report.Users).
		Int("items", report.Items).
		Int("interactions", report.Interactions).
		Msg("interaction matrix built")
	if set.Empty() {
		log.Warn().Msg("no usable interactions, persisting empty factor tables")
	}

	// 3. 分解
	stage = time.Now()
	fitted, err := t.Factorizer.Fit(ctx, matrix)
	if err != nil {
		return nil, fmt.Errorf("factorize: %w", err)
	}
	observeStage("factorize", stage)
	report.Factors = fitted.Factors
	report.Loss = fitted.Loss
	metrics.TrainingLoss.Set(fitted.Loss)

	// 4. 持久化
	stage = time.Now()
	base := store.JoinURI(t.ArtifactRoot, report.RunID)
	loc, err := t.Factors.Persist(ctx, base, fitted, maps.UserIDs, maps.ItemIDs)
	if err != nil {
		return nil, fmt.Errorf("persist factors: %w", err)
	}
	if t.PublishLatest {
		if err := t.Factors.PublishLatest(ctx, t.ArtifactRoot, base); err != nil {
			return nil, fmt.Errorf("publish latest: %w", err)
		}
	}
	observeStage("persist", stage)
	report.Artifacts = loc

	report.Duration = t.clock().Sub(start)
	metrics.TrainingDuration.Observe(report.Duration.Seconds())
	metrics.TrainingLastSuccess.SetToCurrentTime()

	log.Info().
		Str("base", base).
		Float64("loss", report.Loss).
		Dur("duration", report.Duration).
		Msg("training finished")
	return report, nil
}

func observeStage(stage string, start time.Time) {
	metrics.TrainingStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
