package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bingo/internal/models"
	"bingo/internal/ratelimit"
	"bingo/internal/session"
)

// MaxBodyBytes caps request bodies; boards with many notes stay well below it.
const MaxBodyBytes = 10 << 20

// Sessions is the session service the handlers drive.
type Sessions interface {
	Create(ctx context.Context, tiles []models.Tile) (models.Session, error)
	Load(ctx context.Context, code string) (models.Session, error)
	Save(ctx context.Context, code string, tiles []models.Tile, password *string) error
	ClaimPassword(ctx context.Context, code, password string) error
}

// Options configures optional server behaviour.
type Options struct {
	// StaticDir holds the built browser frontend. Empty means API only.
	StaticDir string
	// CORSOrigins is "*" or a comma separated allow list. Empty disables CORS.
	CORSOrigins string
	// Limiter throttles save and claim per client. Nil disables limiting.
	Limiter ratelimit.Limiter
	// TrustedProxies lists the proxy IPs or CIDRs whose X-Forwarded-For
	// header is believed. Empty means the client IP is the peer address.
	TrustedProxies []string
}

// Server provides HTTP handlers for the bingo session backend.
type Server struct {
	engine   *gin.Engine
	sessions Sessions
	logger   *slog.Logger
	opts     Options
}

// New constructs the HTTP server with routes and middleware configured.
func New(sessions Sessions, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		logger.Warn("ignoring trusted proxies", slog.Any("proxies", opts.TrustedProxies), slog.String("error", err.Error()))
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(requestLogger(logger))
	if opts.CORSOrigins != "" {
		router.Use(cors(opts.CORSOrigins))
	}
	router.Use(bodyLimit(MaxBodyBytes))

	srv := &Server{
		engine:   router,
		sessions: sessions,
		logger:   logger,
		opts:     opts,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)

	api := s.engine.Group("/api/session")
	{
		api.POST("/create", s.handleCreateSession)
		api.GET("/:code", s.handleLoadSession)
		api.POST("/:code/save", s.rateLimit("save"), s.handleSaveSession)
		api.POST("/:code/claim", s.rateLimit("claim"), s.handleClaimSession)
	}

	s.mountStatic()
}

// handleHealth provides a basic liveness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, session.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrAuthInvalid):
		return http.StatusForbidden
	case errors.Is(err, session.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs the error and returns a JSON payload. Server-side
// failures are reported with a generic message.
func (s *Server) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	attrs := []any{
		slog.String("path", c.FullPath()),
		slog.String("request_id", c.GetString(requestIDKey)),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	}

	body := gin.H{"error": err.Error()}
	switch {
	case status >= http.StatusInternalServerError:
		s.logger.Error("request failed", attrs...)
		if errors.Is(err, session.ErrGenerationExhausted) {
			body["error"] = session.ErrGenerationExhausted.Error()
		} else {
			body["error"] = "internal server error"
		}
	case status == http.StatusUnauthorized:
		s.logger.Info("request rejected", attrs...)
		body["requiresPassword"] = true
	default:
		s.logger.Info("request rejected", attrs...)
	}
	c.JSON(status, body)
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload gin.H) {
	if payload == nil {
		payload = gin.H{}
	}
	payload["success"] = true
	c.JSON(status, payload)
}
