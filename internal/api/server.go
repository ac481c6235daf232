// Package api serves the prediction pipeline, accounts and history over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/curesense/curesense/internal/auth"
	"github.com/curesense/curesense/internal/pipeline"
	"github.com/curesense/curesense/internal/store"
)

//go:generate go tool mockgen -destination mock_history_store_test.go -package api github.com/curesense/curesense/internal/store HistoryStore

type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Inferer runs symptom text through the model.
type Inferer interface {
	Infer(text string) (*pipeline.Outcome, error)
}

type Options struct {
	Pipeline     Inferer
	Auth         *auth.Service
	History      store.HistoryStore
	DB           HealthChecker // nil when the database is disabled
	ModelVersion string
	Logger       zerolog.Logger

	CORSOrigins    []string
	MaxBodyBytes   int64
	RateLimitRPS   float64
	RateLimitBurst int
}

type server struct {
	pipeline     Inferer
	auth         *auth.Service
	history      store.HistoryStore
	db           HealthChecker
	modelVersion string
	log          zerolog.Logger
}

// NewRouter builds the gin engine with all middleware and routes.
func NewRouter(opts Options) *gin.Engine {
	s := &server{
		pipeline:     opts.Pipeline,
		auth:         opts.Auth,
		history:      opts.History,
		db:           opts.DB,
		modelVersion: opts.ModelVersion,
		log:          opts.Logger,
	}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	router := gin.New()
	router.Use(
		requestID(),
		requestLogger(opts.Logger),
		recovery(opts.Logger),
		limitBodySize(maxBody),
		cors.New(cors.Config{
			AllowOrigins:  origins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
			ExposeHeaders: []string{requestIDHeader},
			MaxAge:        12 * time.Hour,
		}),
	)

	router.GET("/", s.index)
	router.GET("/health", s.health)
	router.GET("/healthz", s.health)
	router.GET("/readyz", s.ready)

	limited := router.Group("/")
	if opts.RateLimitRPS > 0 && opts.RateLimitBurst > 0 {
		limited.Use(newIPLimiter(opts.RateLimitRPS, opts.RateLimitBurst).middleware())
	}
	limited.POST("/predict", s.predict)
	limited.POST("/auth/register", s.register)
	limited.POST("/auth/login", s.login)

	router.GET("/history", s.listHistory)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
