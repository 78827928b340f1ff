// Package api is a development stand-in for the admin REST API.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/devstore"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/resource"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/api/dto"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/api/handlers"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/api/middleware"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/models"
)

// Version is reported by the health endpoint
const Version = "0.1.0"

// Config holds the server settings
type Config struct {
	JWT       *middleware.JWTConfig
	RateLimit float64
	Burst     int
	MediaURL  string
	Logger    logrus.FieldLogger
}

// Server serves the development API over a devstore
type Server struct {
	store   *devstore.Store
	router  *gin.Engine
	limiter *middleware.RateLimiter
	logger  logrus.FieldLogger
	http    *http.Server
}

// NewServer builds the router for store
func NewServer(store *devstore.Store, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.MediaURL == "" {
		cfg.MediaURL = "/media"
	}

	s := &Server{
		store:  store,
		router: gin.New(),
		logger: cfg.Logger,
	}
	if cfg.RateLimit > 0 {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimit, cfg.Burst)
	}

	s.router.Use(middleware.Logger(cfg.Logger), middleware.ErrorHandler(cfg.Logger))
	s.router.GET("/health", s.health)

	limit := func(c *gin.Context) { c.Next() }
	if s.limiter != nil {
		limit = s.limiter.RateLimit()
	}

	auth := handlers.NewAuthHandler(store.Accounts, cfg.JWT)
	authGroup := s.router.Group("/api/admin/auth", limit)
	{
		authGroup.POST("/login/", auth.Login)
		authGroup.POST("/refresh/", auth.Refresh)
		authGroup.POST("/logout/", auth.Logout)
		authGroup.GET("/me/", middleware.JWTAuth(cfg.JWT), auth.Me)
	}

	protected := s.router.Group("", middleware.JWTAuth(cfg.JWT), limit)

	handlers.NewCollectionHandler[models.User](store.Collection(devstore.Users), cfg.MediaURL).
		Register(protected.Group(resource.UsersPath, middleware.RequireSuperuser()))
	handlers.NewCollectionHandler[models.JobPosition](store.Collection(devstore.Jobs), cfg.MediaURL).
		Register(protected.Group(resource.JobsPath))
	handlers.NewCollectionHandler[models.Resume](store.Collection(devstore.Resumes), cfg.MediaURL).
		WithAction("review", devstore.ReviewResume).
		Register(protected.Group(resource.ResumesPath))
	handlers.NewCollectionHandler[models.ResearchReport](store.Collection(devstore.Reports), cfg.MediaURL).
		WithAction("submit", devstore.SubmitReport).
		WithAction("review", devstore.ReviewReport).
		WithAction("publish", devstore.PublishReport).
		WithAction("unpublish", devstore.UnpublishReport).
		Register(protected.Group(resource.ReportsPath))
	handlers.NewCollectionHandler[models.NewsItem](store.Collection(devstore.News), cfg.MediaURL).
		Register(protected.Group(resource.NewsPath))
	handlers.NewCollectionHandler[models.Product](store.Collection(devstore.Products), cfg.MediaURL).
		Register(protected.Group(resource.ProductsPath))
	handlers.NewCollectionHandler[models.LogEntry](store.Collection(devstore.Logs), cfg.MediaURL).
		Register(protected.Group(resource.LogsPath))

	return s
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// health handles GET /health
func (s *Server) health(c *gin.Context) {
	counts := make(map[string]int)
	for _, name := range s.store.Names() {
		counts[name] = s.store.Collection(name).Len()
	}
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "healthy", Version: Version, Collections: counts})
}

// ListenAndServe serves on addr until Shutdown is called
func (s *Server) ListenAndServe(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.WithField("addr", addr).Info("Development API listening")

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener and the rate limiter
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
