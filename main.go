// File: bookdesk/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookdesk/config"
	"bookdesk/handlers"
	"bookdesk/middleware"
	"bookdesk/models"
	"bookdesk/routes"
	"bookdesk/services/backend"
	"bookdesk/services/booking"
	"bookdesk/services/session"
	"bookdesk/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	cfg := config.AppConfig

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Principal cache: Redis when configured, memory otherwise.
	var store session.PrincipalStore = session.NewMemoryPrincipalStore()
	if cfg.RedisAddr != "" {
		if err := utils.InitSessionCache(); err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
		store = session.NewRedisPrincipalStore(utils.GetSessionCacheClient())
		logger.Info("Principal cache backed by Redis", zap.String("addr", cfg.RedisAddr))
	} else {
		logger.Info("REDIS_ADDR not set, principal cache kept in memory")
	}

	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, logger)
	auth := session.NewAuthenticator(store, cfg.SessionTTL, logger)
	registry := session.NewRegistry(func(token string, p models.Principal) *booking.Reconciler {
		return booking.NewReconciler(client.Session(token, p.Role), p, logger)
	}, cfg.SessionTTL, logger)

	go registry.Run(ctx, time.Minute)
	utils.StartHealthMonitor(ctx, cfg.HealthInterval, client, utils.GetSessionCacheClient())

	// Create the Gin router.
	router := gin.New()
	router.Use(middleware.RequestLogger(logger))
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))

	handlerBundle := &handlers.HandlerBundle{
		Resolver:  auth,
		Auth:      handlers.NewAuthHandler(client, auth, registry),
		Dashboard: handlers.NewDashboardHandler(registry),
		Admin:     handlers.NewAdminHandler(client),
	}
	routes.RegisterRoutes(router, handlerBundle, cfg.Origins())

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8090"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting gateway on %s (backend %s)...", srv.Addr, cfg.BackendURL)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}
	if rc := utils.GetSessionCacheClient(); rc != nil {
		_ = rc.Close()
	}
	_ = logger.Sync()

	logger.Sugar().Info("main: server stopped gracefully")
}
