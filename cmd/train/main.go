// train 是离线训练任务：从事件存储加载行为事件，训练 ALS 隐因子并写入产物存储。
// 由外部调度器（cron / 工作流）周期性触发，失败时以非零状态退出，整批重试。
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"

	"github.com/osako110/Recommend/config"
	"github.com/osako110/Recommend/feature"
	"github.com/osako110/Recommend/model"
	"github.com/osako110/Recommend/pkg/logging"
	"github.com/osako110/Recommend/pkg/metrics"
	"github.com/osako110/Recommend/service"
	"github.com/osako110/Recommend/store"
)

func main() {
	configPath := flag.String("config", "", "config file (default: $RECOMMEND_CONFIG or ./config.yaml)")
	publish := flag.Bool("publish", true, "update the LATEST pointer after a successful run")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := run(ctx, cfg, *publish)
	if err := metrics.Push(cfg.Metrics.PushURL, cfg.Metrics.Job); err != nil {
		logging.Warn().Err(err).Msg("metrics push failed")
	}
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, publish bool) int {
	events, closeEvents, err := service.NewEventSource(ctx, cfg.Events)
	if err != nil {
		logging.Error().Err(err).Msg("connect event source")
		return 1
	}
	defer closeEvents()

	artifacts, err := service.NewArtifactRouter(ctx, cfg.Artifacts)
	if err != nil {
		logging.Error().Err(err).Msg("artifact store")
		return 1
	}

	trainer := &service.Trainer{
		Events:  events,
		Builder: feature.NewBuilder(),
		Factorizer: model.NewALS(model.Hyperparams{
			Factors:         cfg.Training.Factors,
			Regularization:  cfg.Training.Regularization,
			ConfidenceScale: cfg.Training.Alpha,
			Iterations:      cfg.Training.Iterations,
			Workers:         cfg.Training.Workers,
			Seed:            cfg.Training.Seed,
		}),
		Factors:       store.NewFactorStore(artifacts, store.WithTempDir(cfg.Artifacts.TempDir)),
		ArtifactRoot:  cfg.Artifacts.URI,
		PublishLatest: publish,
	}

	report, err := trainer.Run(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("training failed")
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logging.Error().Err(err).Msg("write report")
		return 1
	}
	return 0
}
