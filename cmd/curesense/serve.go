package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/curesense/curesense/internal/api"
	"github.com/curesense/curesense/internal/auth"
	"github.com/curesense/curesense/internal/config"
	"github.com/curesense/curesense/internal/store"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(os.Stdout)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, logger)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	gin.SetMode(cfg.GinMode)

	p, bundle, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer bundle.Close()

	var (
		st store.Store
		db api.HealthChecker
	)
	if cfg.EnableDB {
		pool, err := store.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return err
		}
		defer pool.Close()

		applied, err := store.NewMigrator(pool).Up(ctx)
		if err != nil {
			return err
		}
		logger.Info().Int("applied", applied).Msg("migrations up to date")

		pg := store.NewPostgres(pool)
		st, db = pg, pg
	} else {
		logger.Warn().Msg("database disabled; users and history are kept in memory")
		st = store.NewMemory()
	}

	key := []byte(cfg.AuthSigningKey)
	if len(key) == 0 {
		if key, err = auth.RandomKey(32); err != nil {
			return err
		}
		logger.Warn().Msg("AUTH_SIGNING_KEY not set; tokens will not survive a restart")
	}
	tokens, err := auth.NewTokenIssuer(key, cfg.TokenTTL)
	if err != nil {
		return err
	}

	router := api.NewRouter(api.Options{
		Pipeline:       p,
		Auth:           auth.NewService(st, tokens),
		History:        st,
		DB:             db,
		ModelVersion:   bundle.Version,
		Logger:         logger,
		CORSOrigins:    cfg.AllowedOrigins(),
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
