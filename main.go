package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	v1 "bizit/api/v1"
	"bizit/database"
	"bizit/internal/bootstrap"
	"bizit/internal/config"
	sharedinfra "bizit/internal/shared/infrastructure"
)

func main() {
	configPath := flag.String("config", "config.toml", "chemin du fichier de configuration")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal("❌ Erreur configuration:", err)
	}

	logger, err := sharedinfra.NewLogger(cfg.Server.DevMode)
	if err != nil {
		log.Fatal("❌ Erreur logger:", err)
	}
	defer logger.Sync()

	if err := database.Init(cfg.Database.Driver, cfg.Database.DSN); err != nil {
		logger.Fatal("database unavailable", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer database.Close()

	container := bootstrap.Build(cfg, database.DB, logger, bootstrap.Overrides{})
	defer container.Close()

	// chargement anticipé: un jeu absent est signalé au démarrage, sans bloquer le serveur
	if _, err := container.Datasets.Sales(); err != nil {
		logger.Warn("reference dataset not loaded at startup", zap.Error(err))
	}

	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(v1.NewHandler(container.Services, logger), logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// SIGHUP: les jeux de référence republiés sont relus au prochain accès
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range quit {
		if sig != syscall.SIGHUP {
			break
		}
		container.Datasets.Invalidate()
		logger.Info("reference datasets invalidated")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

// newRouter crée le routeur gin avec CORS, identifiant de requête et journalisation
func newRouter(handler *v1.Handler, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, token")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	router.Use(func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	})

	api := router.Group("/api")
	handler.RegisterRoutes(api)
	return router
}
