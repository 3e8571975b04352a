package http

import (
	"context"
	"errors"
	"net/http"
	"time"
	"twitchnotify/internal/app/adapters/http/handlers"
	"twitchnotify/internal/app/adapters/http/middlewares"
	"twitchnotify/internal/app/infrastructure/config"
	"twitchnotify/pkg/logger"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	router      *gin.Engine
	handlers    *handlers.Handlers
	middlewares *middlewares.Middlewares

	log     logger.Logger
	manager *config.Manager
}

func NewRouter(log logger.Logger, manager *config.Manager, svc handlers.Service) *Router {
	cfg := manager.Get()
	if cfg.App.GinMode != "" {
		gin.SetMode(cfg.App.GinMode)
	}

	r := &Router{
		router:      gin.New(),
		handlers:    handlers.New(log, svc),
		middlewares: middlewares.New(log),
		log:         log,
		manager:     manager,
	}
	r.router.Use(gin.Recovery(), r.middlewares.Logging())

	token := func() string {
		return r.manager.Get().App.AuthToken
	}
	admin := r.middlewares.AdminAuth(token)

	pprofGroup := r.router.Group("/", admin)
	pprof.Register(pprofGroup)

	r.router.GET("/metrics", admin, gin.WrapH(promhttp.Handler()))

	r.router.GET("/status", r.handlers.StatusHandler)
	r.router.GET("/notifications", r.handlers.NotificationsHandler)

	write := r.router.Group("/", r.middlewares.Auth(token))
	write.POST("/dummy/:kind", r.handlers.DummyHandler)
	write.PUT("/channels", r.handlers.ChannelsHandler)

	return r
}

func (r *Router) Handler() http.Handler {
	return r.router
}

// Run serves until ctx is cancelled, then shuts the server down gracefully.
func (r *Router) Run(ctx context.Context, addr string) error {
	srv := r.newServer(addr, r.router)

	errCh := make(chan error, 1)
	go func() {
		r.log.Info("HTTP server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func (r *Router) newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
}
