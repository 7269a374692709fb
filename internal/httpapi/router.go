// Package httpapi exposes the pronunciation service over HTTP with gin.
//
// Routes:
//
//	POST /api/ml/pronunciation/evaluate  multipart audio + expected_text
//	GET  /api/ml/health                  service identity
//	GET  /healthz, /readyz               probes (see package health)
//	GET  /metrics                        Prometheus exposition
//
// Errors are JSON objects of the form {"detail": "..."}.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/linguaccess/internal/health"
	"github.com/MrWong99/linguaccess/internal/observe"
	"github.com/MrWong99/linguaccess/pkg/pronounce"
	"github.com/MrWong99/linguaccess/pkg/provider/asr"
)

// ServiceName is reported by GET /api/ml/health.
const ServiceName = "linguaaccess-ml"

// DefaultMaxUploadBytes is used when Options.MaxUploadBytes is zero.
const DefaultMaxUploadBytes = 10 << 20

// Transcriber turns an uploaded clip into text. It never fails;
// *asr.Service is the production implementation.
type Transcriber interface {
	Transcribe(ctx context.Context, clip asr.Clip, language string) string
}

// Options configures [NewRouter].
type Options struct {
	// Transcriber is required.
	Transcriber Transcriber

	// Scorer returns the scorer to use for a request. It is called once per
	// request so the scorer can be swapped at runtime. Nil means the default
	// scorer.
	Scorer func() *pronounce.Scorer

	// Health serves /healthz and /readyz. Nil means no checkers.
	Health *health.Handler

	// Metrics records evaluation metrics. Nil means observe.DefaultMetrics().
	Metrics *observe.Metrics

	// MetricsHandler serves /metrics. Nil means promhttp.Handler().
	MetricsHandler http.Handler

	// CORSOrigins lists allowed browser origins; "*" allows any. Empty
	// disables CORS handling.
	CORSOrigins []string

	// MaxUploadBytes caps the evaluate request body.
	MaxUploadBytes int64

	// RequestTimeout bounds each request's context. Zero means no bound.
	RequestTimeout time.Duration

	// Version is reported by GET /api/ml/health.
	Version string
}

// NewRouter builds the gin engine serving every route of the service. The
// gin mode is process-wide and left to the caller (see gin.SetMode).
func NewRouter(opts Options) (*gin.Engine, error) {
	if opts.Transcriber == nil {
		return nil, errors.New("httpapi: transcriber is required")
	}
	if opts.Scorer == nil {
		def, err := pronounce.NewScorer()
		if err != nil {
			return nil, fmt.Errorf("httpapi: default scorer: %w", err)
		}
		opts.Scorer = func() *pronounce.Scorer { return def }
	}
	if opts.Health == nil {
		opts.Health = health.New()
	}
	if opts.Metrics == nil {
		opts.Metrics = observe.DefaultMetrics()
	}
	if opts.MetricsHandler == nil {
		opts.MetricsHandler = promhttp.Handler()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}

	engine := gin.New()
	engine.Use(gin.CustomRecovery(recoverJSON))
	engine.Use(requestID())
	if opts.RequestTimeout > 0 {
		engine.Use(requestTimeout(opts.RequestTimeout))
	}
	if len(opts.CORSOrigins) > 0 {
		engine.Use(cors.New(corsConfig(opts.CORSOrigins)))
	}
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"detail": "Method Not Allowed"})
	})
	engine.HandleMethodNotAllowed = true

	h := &evaluateHandler{
		transcriber: opts.Transcriber,
		scorer:      opts.Scorer,
		metrics:     opts.Metrics,
		maxBytes:    opts.MaxUploadBytes,
	}

	api := engine.Group("/api/ml")
	api.POST("/pronunciation/evaluate", h.serve)
	api.GET("/health", serviceHealth(opts.Version))

	engine.GET("/healthz", gin.WrapF(opts.Health.Healthz))
	engine.GET("/readyz", gin.WrapF(opts.Health.Readyz))
	engine.GET("/metrics", gin.WrapH(opts.MetricsHandler))

	return engine, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", observe.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", observe.RequestIDHeader, "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			// Credentials cannot be combined with a wildcard origin.
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// requestID propagates X-Request-ID, minting a UUID when the caller sent
// none, and stores it in the request context for logging.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(observe.RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Header(observe.RequestIDHeader, id)
		c.Request = c.Request.WithContext(observe.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func recoverJSON(c *gin.Context, recovered any) {
	observe.Logger(c.Request.Context()).Error("panic while handling request",
		"path", c.Request.URL.Path,
		"panic", recovered,
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprint(recovered)})
}

// healthResponse is the body of GET /api/ml/health.
type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

func serviceHealth(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, healthResponse{Status: "ok", Service: ServiceName, Version: version})
	}
}
