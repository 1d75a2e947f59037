// README: Entry point; loads config, wires the planner and its optional collaborators, starts the HTTP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"wayfarer/internal/ai"
	"wayfarer/internal/config"
	httptransport "wayfarer/internal/http"
	"wayfarer/internal/infra"
	"wayfarer/internal/maps"
	"wayfarer/internal/modules/enrich"
	"wayfarer/internal/modules/quality"
	"wayfarer/internal/obs"
	"wayfarer/internal/service"
)

func main() {
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := obs.NewPromSink()
	emit := obs.Multi(obs.NewZapSink(log.Named("core")), metrics)

	opts := service.DefaultOptions()
	opts.Cluster = cfg.Planner.Cluster
	opts.Capacity = cfg.Planner.Capacity
	opts.Quality = cfg.Planner.Quality
	opts.AdvisorTimeout = cfg.Planner.AdvisorTimeout
	opts.Emit = emit

	if cfg.Planner.EnableAdvisor {
		advisor, err := ai.NewGeminiAdvisor(ctx, cfg.AI.GeminiKey, cfg.AI.Model)
		if err != nil {
			log.Warn("advisor disabled", zap.Error(err))
		} else {
			defer advisor.Close()
			opts.Advisor = advisor
		}
	}

	if cfg.Planner.EnableDirections && cfg.Maps.APIKey != "" {
		routes, err := maps.NewRouteService(cfg.Maps.APIKey, cfg.Maps.Language)
		if err != nil {
			log.Fatal("maps", zap.Error(err))
		}
		var cache enrich.Cache
		if cfg.Redis.Addr != "" {
			rdb := infra.NewRedis(cfg.Redis.Addr)
			defer rdb.Close()
			if err := infra.PingRedis(ctx, rdb); err != nil {
				log.Warn("leg cache disabled", zap.Error(err))
			} else {
				cache = enrich.NewRedisCache(rdb, cfg.Redis.CacheTTL)
			}
		}
		opts.Enricher = enrich.NewEnricher(cfg.Planner.Enrich, routes, cache, emit)
	}

	planner := service.NewTripPlanner(opts)

	gin.SetMode(gin.ReleaseMode)
	server := httptransport.NewServer(cfg.HTTP.Addr, httptransport.RouterDeps{
		Planner: planner,
		Gate:    quality.NewGate(cfg.Planner.Quality, emit),
		Metrics: metrics.Registry,
		Log:     log,
	})
	if err := server.Run(ctx); err != nil {
		log.Fatal("http", zap.Error(err))
	}
}
