package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/swiftrelo/backend/internal/availability"
	"github.com/swiftrelo/backend/internal/config"
	"github.com/swiftrelo/backend/internal/db"
	"github.com/swiftrelo/backend/internal/estimate"
	"github.com/swiftrelo/backend/internal/geocode"
	httpapi "github.com/swiftrelo/backend/internal/http"
	"github.com/swiftrelo/backend/internal/schedule"
	"github.com/swiftrelo/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "swiftrelo-backend").Logger()

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	var oracle availability.Oracle
	switch {
	case cfg.AvailabilityURL != "":
		oracle = availability.RetryOracle{
			Inner:    availability.HTTPOracle{BaseURL: cfg.AvailabilityURL},
			Attempts: cfg.AvailabilityRetries,
			Backoff:  cfg.AvailabilityBackoff,
		}
		logger.Info().Str("url", cfg.AvailabilityURL).Msg("using external availability service")
	default:
		oracle = db.ScheduleOracle{Store: store, Exclusive: cfg.SameDayExclusive}
	}

	estimator := estimate.NewEstimator(estimate.DefaultTables())
	generator := &schedule.Generator{Oracle: oracle, Estimator: estimator}
	scheduler := schedule.NewScheduler(estimator, generator, schedule.DefaultRuleSet(), logger)
	optimizer := schedule.NewOptimizer(scheduler, schedule.Policy{
		SameDayExclusive: cfg.SameDayExclusive,
		PerJobTimeout:    cfg.PerJobTimeout,
	}, logger)
	batch := &service.BatchService{Store: store, Optimizer: optimizer, Logger: logger}

	geocoder := &geocode.NominatimGeocoder{
		BaseURL:   cfg.GeocodeURL,
		UserAgent: "swiftrelo-backend",
	}

	router := httpapi.Router(cfg, store, estimator, scheduler, batch, geocoder, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
