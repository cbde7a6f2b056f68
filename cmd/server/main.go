package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/nextbyte/storefront/internal/adapter/backend"
	"github.com/nextbyte/storefront/internal/adapter/handler"
	"github.com/nextbyte/storefront/internal/adapter/storage"
	"github.com/nextbyte/storefront/internal/config"
	"github.com/nextbyte/storefront/internal/core/domain"
	"github.com/nextbyte/storefront/internal/core/service"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.FromEnv()

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	log.Info("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	log.Info("connected to redis")

	// Initialize adapters
	orderRepo := storage.NewMySQLAdapter(db)
	cartCache := storage.NewRedisAdapter(rdb)
	backendClient := backend.NewClient(cfg.CatalogURL, cfg.AuthURL, cfg.JWTSecret)

	// Initialize services
	sessions := service.NewSessionManager(domain.DefaultDiscountCodes(), cartCache, orderRepo)
	orders := service.NewOrderService(orderRepo)

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(sessions, orders, backendClient, backendClient, cfg.JWTSecret)
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpHandler.Router(),
	}

	go func() {
		log.WithFields(log.Fields{
			"addr":        cfg.HTTPAddr,
			"catalog_url": cfg.CatalogURL,
			"auth_url":    cfg.AuthURL,
		}).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Errorf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Info("HTTP server stopped")

	rdb.Close()
	db.Close()
	log.Info("connections closed")
}
