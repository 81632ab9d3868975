package main

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"skillswap/internal/adapters/llm"
	"skillswap/internal/adapters/observability"
	"skillswap/internal/app"
	"skillswap/internal/shared"
	mysqlrepo "skillswap/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	observability.Serve(cfg.MetricsAddr)

	log.Info().
		Str("provider", cfg.LLMProvider).
		Int("workers", cfg.ReanalyzeWorkers).
		Str("schedule", cfg.ReanalyzeSchedule).
		Msg("reanalyzer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	// a batch job without a generator has nothing to do
	gen, err := llm.New(ctx, cfg.LLMSettings())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize text generator")
	}
	svc := app.NewReviewService(mysqlrepo.New(db), shared.NewCache(ctx, cfg), app.NewAnalyzer(gen, cfg.AnalysisConcurrency),
		app.ReviewServiceOptions{CacheTTL: cfg.CacheTTL, AnalysisTTL: cfg.AnalysisTTL, MaxAnalyzed: cfg.AnalysisMaxReviews})

	if cfg.ReanalyzeSchedule == "" {
		runOnce(ctx, svc, cfg.ReanalyzeWorkers)
		return
	}

	// The schedule is a standard 5-field cron expression (minute hour day-of-month month day-of-week).
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(cfg.ReanalyzeSchedule)
	if err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.ReanalyzeSchedule).Msg("invalid REANALYZE_SCHEDULE")
	}
	for {
		now := time.Now().In(cfg.Location)
		next := sched.Next(now)
		log.Info().Time("next", next).Dur("in", next.Sub(now).Round(time.Second)).Msg("next reanalysis")
		time.Sleep(next.Sub(now))
		runOnce(ctx, svc, cfg.ReanalyzeWorkers)
	}
}

// runOnce refreshes every provider's cached scorecard with bounded parallelism.
func runOnce(ctx context.Context, svc *app.ReviewService, workers int) {
	if workers <= 0 {
		workers = 1
	}
	providers, err := svc.ListProviders(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list providers failed")
		return
	}

	start := time.Now()
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0

	for _, id := range providers {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Error().Err(err).Msg("semaphore acquire failed")
			break
		}

		wg.Add(1)
		go func(providerID string) {
			defer wg.Done()
			defer sem.Release(1)

			res, err := svc.Reanalyze(ctx, providerID)
			if err != nil {
				log.Warn().Str("provider_id", providerID).Err(err).Msg("reanalysis failed")
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			log.Info().
				Str("provider_id", providerID).
				Int("reviews", len(res.Individual)).
				Float64("average", res.Aggregate.AverageRating).
				Msg("reanalysis ok")
		}(id)
	}

	wg.Wait()
	log.Info().
		Int("providers", len(providers)).
		Int("failed", failed).
		Dur("took", time.Since(start)).
		Msg("reanalysis completed")
}
