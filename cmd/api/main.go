package main

import (
	"context"
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "skillswap/internal/adapters/http_server"
	"skillswap/internal/adapters/llm"
	"skillswap/internal/adapters/observability"
	"skillswap/internal/app"
	"skillswap/internal/domain"
	"skillswap/internal/shared"
	mysqlrepo "skillswap/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	observability.Serve(cfg.MetricsAddr)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := shared.NewCache(ctx, cfg)
	gen := newGenerator(ctx, cfg)
	an := app.NewAnalyzer(gen, cfg.AnalysisConcurrency)
	svc := app.NewReviewService(repo, cache, an, app.ReviewServiceOptions{
		CacheTTL:    cfg.CacheTTL,
		AnalysisTTL: cfg.AnalysisTTL,
		MaxAnalyzed: cfg.AnalysisMaxReviews,
	})

	// http
	srv := server.New(cfg.HTTPTimeout)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Analyzer: an, Reviews: svc, Gen: gen})

	log.Info().Str("addr", cfg.HTTPAddr).Bool("analysis_enabled", an.Configured()).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

// newGenerator returns nil on configuration errors so the API can still serve
// review CRUD; analysis endpoints then answer 500.
func newGenerator(ctx context.Context, cfg shared.Config) domain.TextGenerator {
	gen, err := llm.New(ctx, cfg.LLMSettings())
	if err != nil {
		log.Error().Err(err).Msg("text generator unavailable")
		return nil
	}
	return gen
}
