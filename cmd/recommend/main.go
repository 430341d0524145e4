// recommend 为单个用户输出一次推荐结果（JSON），或写入该用户的阅读偏好；
// index-books 模式把图书目录写入图书向量集合。
//
//	recommend -user u1                       合并推荐
//	recommend -user u1 -mode collaborative   只看协同过滤
//	recommend -user u1 -mode content -k 10   只看内容召回
//	recommend -user u1 -mode preferences -genres fantasy,history -authors tolkien -age 30
//	recommend -mode index-books
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"

	"github.com/osako110/Recommend/config"
	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/feature"
	"github.com/osako110/Recommend/pkg/logging"
	"github.com/osako110/Recommend/service"
)

type options struct {
	configPath string
	userID     string
	mode       string
	topK       int
	prefs      feature.Preferences
}

func parseFlags() options {
	var o options
	var genres, authors string
	flag.StringVar(&o.configPath, "config", "", "config file (default: $RECOMMEND_CONFIG or ./config.yaml)")
	flag.StringVar(&o.userID, "user", "", "user id")
	flag.StringVar(&o.mode, "mode", "combined", "combined | collaborative | content | preferences | index-books")
	flag.IntVar(&o.topK, "k", 0, "top k for single-source modes (default serving.top_k)")
	flag.StringVar(&genres, "genres", "", "comma separated genres (preferences mode)")
	flag.StringVar(&authors, "authors", "", "comma separated authors (preferences mode)")
	flag.IntVar(&o.prefs.Age, "age", 0, "age (preferences mode)")
	flag.StringVar(&o.prefs.Pincode, "pincode", "", "pincode (preferences mode)")
	flag.Parse()

	o.prefs.Genres = splitList(genres)
	o.prefs.Authors = splitList(authors)
	return o
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func main() {
	o := parseFlags()
	_ = godotenv.Load()

	cfg, err := config.Load(o.configPath)
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
	if o.userID == "" && o.mode != "index-books" {
		logging.Fatal().Msg("-user is required")
	}
	if o.topK <= 0 {
		o.topK = cfg.Serving.TopK
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, o); err != nil {
		logging.Error().Err(err).Str("user_id", o.userID).Str("mode", o.mode).Msg("recommend failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, o options) error {
	deps, err := service.NewDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	if o.mode == "index-books" {
		return indexBooks(ctx, cfg, deps)
	}
	if o.mode == "preferences" {
		if cfg.Vector.Dimension > 0 {
			if err := deps.EnsureCollections(ctx); err != nil {
				return err
			}
		}
		idx := &service.PreferenceIndexer{Vectors: deps.Vectors, Collection: cfg.Vector.UserCollection}
		if err := idx.Index(ctx, o.userID, o.prefs); err != nil {
			return err
		}
		return write(map[string]any{"user_id": o.userID, "preferences": o.prefs.Text()})
	}

	serving := service.NewServing(deps)
	rec, err := serving.Recommender()
	if err != nil {
		return err
	}

	var set *service.RecommendationSet
	switch o.mode {
	case "combined":
		set, err = rec.Recommend(ctx, o.userID)
	case "collaborative":
		set, err = rec.Collaborative(ctx, o.userID, o.topK)
	case "content":
		set, err = rec.Content(ctx, o.userID, o.topK)
	default:
		return fmt.Errorf("unknown mode %q", o.mode)
	}
	if err != nil {
		return err
	}
	return write(set)
}

func indexBooks(ctx context.Context, cfg *config.Config, deps *service.Deps) error {
	lister, ok := deps.Catalog.(core.BookLister)
	if !ok {
		return fmt.Errorf("catalog backend %q cannot list books", cfg.Catalog.Backend)
	}
	if cfg.Vector.Dimension > 0 {
		if err := deps.EnsureCollections(ctx); err != nil {
			return err
		}
	}
	idx := &service.ItemIndexer{Catalog: lister, Vectors: deps.Vectors, Collection: cfg.Vector.ItemCollection}
	n, err := idx.Run(ctx)
	if err != nil {
		return err
	}
	return write(map[string]any{"collection": cfg.Vector.ItemCollection, "indexed": n})
}

func write(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
